package kafka

import "time"

// ConsumerConfig holds all consumer configuration
type ConsumerConfig struct {
	// Connection
	Brokers []string
	GroupID string
	Topics  []string

	// SSL/SASL authentication
	SSL  bool
	SASL *SASLConfig

	// Session
	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration

	// Commit settings
	AutoCommit         bool
	AutoCommitInterval time.Duration
	FromBeginning      bool

	// Partition assignment
	PartitionAssignor PartitionAssignor

	// Fetch batching
	MaxBatchRecords int

	// Logging
	LogLevel LogLevel
	Logger   Logger
}

// ConsumerOption is a function that configures the consumer
type ConsumerOption func(*ConsumerConfig)

// ConsumerWithBrokers sets the Kafka broker addresses for consumer
func ConsumerWithBrokers(brokers ...string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Brokers = brokers
	}
}

// ConsumerWithSSL enables SSL for consumer
func ConsumerWithSSL(enabled bool) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.SSL = enabled
	}
}

// ConsumerWithSASL sets SASL authentication for consumer
func ConsumerWithSASL(sasl *SASLConfig) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.SASL = sasl
	}
}

// WithGroupID sets the consumer group ID
func WithGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.GroupID = groupID
	}
}

// WithTopics sets the topics to consume
func WithTopics(topics ...string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Topics = topics
	}
}

// WithSessionTimeout sets the session timeout
func WithSessionTimeout(timeout time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.SessionTimeout = timeout
	}
}

// WithHeartbeatInterval sets the heartbeat interval
func WithHeartbeatInterval(interval time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.HeartbeatInterval = interval
	}
}

// WithAutoCommit sets auto commit
func WithAutoCommit(enabled bool) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.AutoCommit = enabled
	}
}

// WithAutoCommitInterval sets auto commit interval
func WithAutoCommitInterval(interval time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.AutoCommitInterval = interval
	}
}

// WithFromBeginning sets whether to start from the beginning
func WithFromBeginning(enabled bool) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.FromBeginning = enabled
	}
}

// WithPartitionAssignor sets the partition assignment strategy
func WithPartitionAssignor(assignor PartitionAssignor) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.PartitionAssignor = assignor
	}
}

// WithMaxBatchRecords caps how many buffered records a single Fetch drains
func WithMaxBatchRecords(max int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if max > 0 {
			c.MaxBatchRecords = max
		}
	}
}

// ConsumerWithLogLevel sets the log level for consumer
func ConsumerWithLogLevel(level LogLevel) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.LogLevel = level
	}
}

// ConsumerWithLogger sets a custom logger for consumer
func ConsumerWithLogger(logger Logger) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Logger = logger
	}
}

// newDefaultConsumerConfig creates a new consumer config with default values
func newDefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		SessionTimeout:     DefaultSessionTimeout,
		HeartbeatInterval:  DefaultHeartbeatInterval,
		AutoCommit:         true,
		AutoCommitInterval: DefaultAutoCommitInterval,
		PartitionAssignor:  AssignorRange,
		MaxBatchRecords:    DefaultMaxBatchRecords,
		LogLevel:           LogLevelInfo,
	}
}
