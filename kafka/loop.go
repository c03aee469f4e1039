package kafka

import (
	"context"
	"sync"
	"sync/atomic"
)

// PollLoop runs a continuous fetch-dispatch cycle on its own goroutine. It
// fetches a batch of records, dispatches each record in order to the
// handler, and repeats until stopped or until a fetch/handler failure ends
// it. A PollLoop is single-use: once it has terminated it cannot be
// restarted.
//
// The stop flag and the completion channel are the only state shared with
// callers; both are safe for concurrent use without extra locking.
type PollLoop struct {
	records Records
	handler RecordHandler
	config  *LoopConfig
	tracer  *TracingService
	logger  Logger

	stopped  int32 // atomic: 0=continue, 1=stop requested
	stopOnce sync.Once

	// err is written at most once, before done is closed
	err  error
	done chan struct{}
}

// StartPollLoop schedules a poll loop over records and returns immediately.
// The records session must stay valid for the loop's lifetime and must not
// be used concurrently from other goroutines while the loop runs; it stays
// owned by the caller unless WithAutoClose(true) hands closing to the loop.
func StartPollLoop(records Records, handler RecordHandler, opts ...LoopOption) *PollLoop {
	config := newDefaultLoopConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.Logger
	if logger == nil {
		logger = NewDefaultLogger(config.LogLevel)
	}

	l := &PollLoop{
		records: records,
		handler: handler,
		config:  config,
		logger:  logger,
		done:    make(chan struct{}),
	}

	if config.Tracing != nil && config.Tracing.Enabled {
		l.tracer = NewTracingService(config.Tracing)
	}

	go l.run()
	return l
}

// Stop requests the loop to finish its current iteration, wakes a blocked
// fetch, and blocks until the loop has fully exited (including auto-close
// of the records session when configured). It returns the loop's terminal
// value: nil for a normal stop, or the failure that ended the loop. Stop is
// idempotent; every call returns the same value.
func (l *PollLoop) Stop() error {
	l.stopOnce.Do(func() {
		atomic.StoreInt32(&l.stopped, 1)
		l.records.Wakeup()
	})
	<-l.done
	return l.err
}

// Wait blocks until the loop has terminated and returns its terminal value
// without requesting a stop. Useful for observing a loop that is expected
// to run until failure.
func (l *PollLoop) Wait() error {
	<-l.done
	return l.err
}

// Done returns a channel that is closed once the loop has terminated
func (l *PollLoop) Done() <-chan struct{} {
	return l.done
}

// Err returns the terminal value once the loop has terminated, or nil while
// it is still running.
func (l *PollLoop) Err() error {
	select {
	case <-l.done:
		return l.err
	default:
		return nil
	}
}

// run is the loop body. It resolves the completion channel exactly once,
// after the optional auto-close, so Stop callers observe a fully released
// session.
func (l *PollLoop) run() {
	var runErr error

	defer func() {
		if l.config.AutoClose {
			if closeErr := l.records.Close(); closeErr != nil {
				// Never masks the terminal value
				l.logger.Error("poll loop: close failed: %v", closeErr)
			}
		}
		l.err = runErr
		close(l.done)
	}()

	l.logger.Debug("poll loop started (poll timeout %s)", l.config.PollTimeout)
	ctx := context.Background()

	for atomic.LoadInt32(&l.stopped) == 0 {
		batch, err := l.records.Fetch(l.config.PollTimeout)
		if err != nil {
			if IsFetchInterrupt(err) {
				// Wake signal, usually from Stop. Re-check the flag.
				continue
			}
			runErr = l.fail(err)
			return
		}

		for _, msg := range batch {
			if err := l.dispatch(ctx, msg); err != nil {
				runErr = l.fail(err)
				return
			}
		}
	}

	l.logger.Debug("poll loop stopped")
}

// dispatch invokes the handler for one record, wrapped in a consumer span
// when tracing is configured.
func (l *PollLoop) dispatch(ctx context.Context, msg *Message) error {
	if l.tracer == nil {
		return l.handler(ctx, msg)
	}
	msgCtx, endSpan := l.tracer.StartProcessSpan(ctx, msg)
	err := l.handler(msgCtx, msg)
	endSpan(err)
	return err
}

// fail reports the failure that is about to end the loop. The hook runs
// before the completion channel resolves.
func (l *PollLoop) fail(err error) error {
	l.logger.Error("poll loop terminating: %v", err)
	if l.config.OnError != nil {
		l.config.OnError(err)
	}
	return err
}
