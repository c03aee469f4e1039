package kafka

import "errors"

var (
	// ErrFetchInterrupted is returned by Fetch when a Wakeup released the
	// wait. It is not a failure: a poll loop treats it as an ordinary
	// iteration boundary.
	ErrFetchInterrupted = errors.New("kafka: fetch interrupted")

	// ErrClosed is returned by operations on a closed client or consumer
	ErrClosed = errors.New("kafka: closed")
)

// IsFetchInterrupt reports whether err is the wake signal of an
// interrupted fetch.
func IsFetchInterrupt(err error) bool {
	return errors.Is(err, ErrFetchInterrupted)
}
