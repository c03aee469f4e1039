package kafka

import "time"

// DefaultPollTimeout is the maximum wait per fetch when no data is ready
const DefaultPollTimeout = 2 * time.Second

// LoopConfig holds poll loop configuration, captured once at start
type LoopConfig struct {
	// PollTimeout bounds how long a single fetch may wait for data
	PollTimeout time.Duration

	// AutoClose hands closing the records session to the loop; the close
	// happens exactly once, as the loop's last action on any exit path
	AutoClose bool

	// OnError is invoked once with the failure that ends the loop.
	// It is never invoked for fetch interrupts or on a normal stop.
	OnError ErrorHook

	// Logging
	LogLevel LogLevel
	Logger   Logger

	// Tracing
	Tracing *TracingConfig
}

// LoopOption is a function that configures a poll loop
type LoopOption func(*LoopConfig)

// WithPollTimeout sets the per-fetch wait. Non-positive values fall back to
// DefaultPollTimeout.
func WithPollTimeout(timeout time.Duration) LoopOption {
	return func(c *LoopConfig) {
		if timeout > 0 {
			c.PollTimeout = timeout
		}
	}
}

// WithAutoClose makes the loop close the records session when it exits
func WithAutoClose(enabled bool) LoopOption {
	return func(c *LoopConfig) {
		c.AutoClose = enabled
	}
}

// WithOnError sets the hook invoked with the failure that ends the loop
func WithOnError(hook ErrorHook) LoopOption {
	return func(c *LoopConfig) {
		c.OnError = hook
	}
}

// WithLoopLogger sets a custom logger for the loop
func WithLoopLogger(logger Logger) LoopOption {
	return func(c *LoopConfig) {
		c.Logger = logger
	}
}

// WithLoopLogLevel sets the log level for the loop's default logger
func WithLoopLogLevel(level LogLevel) LoopOption {
	return func(c *LoopConfig) {
		c.LogLevel = level
	}
}

// WithLoopTracing enables per-record consumer spans
func WithLoopTracing(tracing *TracingConfig) LoopOption {
	return func(c *LoopConfig) {
		c.Tracing = tracing
	}
}

// newDefaultLoopConfig creates a loop config with default values
func newDefaultLoopConfig() *LoopConfig {
	return &LoopConfig{
		PollTimeout: DefaultPollTimeout,
		LogLevel:    LogLevelInfo,
	}
}
