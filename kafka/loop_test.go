package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fetchStep is one scripted Fetch outcome
type fetchStep struct {
	batch []*Message
	err   error
}

// fakeRecords plays back scripted fetch outcomes. Once the script is
// exhausted it behaves like an idle consumer: Fetch blocks up to the
// timeout and returns an empty batch, or ErrFetchInterrupted on Wakeup.
type fakeRecords struct {
	mu      sync.Mutex
	steps   []fetchStep
	fetches int

	wakeCh   chan struct{}
	closes   int32
	closeErr error
}

var _ Records = (*fakeRecords)(nil)

func newFakeRecords(steps ...fetchStep) *fakeRecords {
	return &fakeRecords{
		steps:  steps,
		wakeCh: make(chan struct{}, 1),
	}
}

func (f *fakeRecords) Fetch(timeout time.Duration) ([]*Message, error) {
	f.mu.Lock()
	f.fetches++
	if len(f.steps) > 0 {
		step := f.steps[0]
		f.steps = f.steps[1:]
		f.mu.Unlock()
		return step.batch, step.err
	}
	f.mu.Unlock()

	select {
	case <-f.wakeCh:
		return nil, ErrFetchInterrupted
	case <-time.After(timeout):
		return []*Message{}, nil
	}
}

func (f *fakeRecords) Wakeup() {
	select {
	case f.wakeCh <- struct{}{}:
	default:
	}
}

func (f *fakeRecords) CommitRecord(msg *Message) error { return nil }

func (f *fakeRecords) Close() error {
	atomic.AddInt32(&f.closes, 1)
	return f.closeErr
}

func (f *fakeRecords) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeRecords) closeCount() int {
	return int(atomic.LoadInt32(&f.closes))
}

// recorder collects handled record keys in dispatch order
type recorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *recorder) handle(_ context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, string(msg.Key))
	return nil
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func msgs(keys ...string) []*Message {
	batch := make([]*Message, len(keys))
	for i, k := range keys {
		batch[i] = &Message{Key: []byte(k), Topic: "orders", Offset: int64(i)}
	}
	return batch
}

func TestPollLoop_DispatchesInOrder(t *testing.T) {
	records := newFakeRecords(
		fetchStep{batch: msgs("a", "b", "c")},
		fetchStep{batch: msgs("d", "e")},
	)
	rec := &recorder{}

	loop := StartPollLoop(records, rec.handle,
		WithPollTimeout(50*time.Millisecond),
		WithLoopLogger(NewNoopLogger()),
	)

	require.Eventually(t, func() bool {
		return len(rec.seen()) == 5
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, loop.Stop())
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, rec.seen())
}

func TestPollLoop_StopIsIdempotent(t *testing.T) {
	records := newFakeRecords()
	loop := StartPollLoop(records, (&recorder{}).handle, WithLoopLogger(NewNoopLogger()))

	results := make([]error, 5)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = loop.Stop()
		}(i)
	}
	wg.Wait()

	for _, err := range results {
		assert.NoError(t, err)
	}
	assert.NoError(t, loop.Stop())
	assert.Equal(t, 0, records.closeCount(), "loop must not close the session without WithAutoClose")
}

func TestPollLoop_FetchInterruptIsTransparent(t *testing.T) {
	records := newFakeRecords(
		fetchStep{err: ErrFetchInterrupted},
		fetchStep{batch: msgs("a")},
	)
	rec := &recorder{}
	var hooked int32

	loop := StartPollLoop(records, rec.handle,
		WithPollTimeout(50*time.Millisecond),
		WithOnError(func(error) { atomic.AddInt32(&hooked, 1) }),
		WithLoopLogger(NewNoopLogger()),
	)

	require.Eventually(t, func() bool {
		return len(rec.seen()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, loop.Stop())
	assert.Equal(t, []string{"a"}, rec.seen())
	assert.Equal(t, int32(0), atomic.LoadInt32(&hooked), "interrupt must not invoke the error hook")
	assert.GreaterOrEqual(t, records.fetchCount(), 2)
}

func TestPollLoop_HandlerErrorEndsLoop(t *testing.T) {
	records := newFakeRecords(fetchStep{batch: msgs("a", "b")})
	wantErr := errors.New("boom")

	var handled int32
	var hookErrs []error
	var hookMu sync.Mutex

	loop := StartPollLoop(records,
		func(_ context.Context, msg *Message) error {
			atomic.AddInt32(&handled, 1)
			return fmt.Errorf("record %s: %w", msg.Key, wantErr)
		},
		WithOnError(func(err error) {
			hookMu.Lock()
			hookErrs = append(hookErrs, err)
			hookMu.Unlock()
		}),
		WithLoopLogger(NewNoopLogger()),
	)

	err := loop.Wait()
	require.ErrorIs(t, err, wantErr)

	// Fail fast: the second record of the batch is never dispatched
	assert.Equal(t, int32(1), atomic.LoadInt32(&handled))

	hookMu.Lock()
	require.Len(t, hookErrs, 1)
	assert.Equal(t, err, hookErrs[0])
	hookMu.Unlock()

	// Every stop call observes the same terminal value
	assert.Equal(t, err, loop.Stop())
	assert.Equal(t, err, loop.Stop())
	assert.Equal(t, err, loop.Err())
}

func TestPollLoop_FetchErrorEndsLoop(t *testing.T) {
	wantErr := errors.New("broker unreachable")
	records := newFakeRecords(fetchStep{err: wantErr})

	var hooked int32
	loop := StartPollLoop(records, (&recorder{}).handle,
		WithOnError(func(error) { atomic.AddInt32(&hooked, 1) }),
		WithLoopLogger(NewNoopLogger()),
	)

	require.ErrorIs(t, loop.Wait(), wantErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hooked))
	assert.ErrorIs(t, loop.Stop(), wantErr)
}

func TestPollLoop_AutoCloseOnNormalStop(t *testing.T) {
	records := newFakeRecords()
	loop := StartPollLoop(records, (&recorder{}).handle,
		WithAutoClose(true),
		WithLoopLogger(NewNoopLogger()),
	)

	require.NoError(t, loop.Stop())
	assert.Equal(t, 1, records.closeCount())

	require.NoError(t, loop.Stop())
	assert.Equal(t, 1, records.closeCount(), "close must happen exactly once")
}

func TestPollLoop_AutoCloseOnFailure(t *testing.T) {
	wantErr := errors.New("boom")
	records := newFakeRecords(fetchStep{err: wantErr})

	loop := StartPollLoop(records, (&recorder{}).handle,
		WithAutoClose(true),
		WithLoopLogger(NewNoopLogger()),
	)

	require.ErrorIs(t, loop.Wait(), wantErr)
	assert.Equal(t, 1, records.closeCount())
}

func TestPollLoop_CloseErrorDoesNotMaskOutcome(t *testing.T) {
	wantErr := errors.New("boom")
	records := newFakeRecords(fetchStep{err: wantErr})
	records.closeErr = errors.New("close failed")

	loop := StartPollLoop(records, (&recorder{}).handle,
		WithAutoClose(true),
		WithLoopLogger(NewNoopLogger()),
	)

	assert.ErrorIs(t, loop.Wait(), wantErr)
	assert.Equal(t, 1, records.closeCount())
}

func TestPollLoop_EmptyBatchDispatchesNothing(t *testing.T) {
	records := newFakeRecords(
		fetchStep{batch: []*Message{}},
		fetchStep{batch: nil},
	)
	rec := &recorder{}

	loop := StartPollLoop(records, rec.handle,
		WithPollTimeout(20*time.Millisecond),
		WithLoopLogger(NewNoopLogger()),
	)

	// The loop keeps iterating past empty batches
	require.Eventually(t, func() bool {
		return records.fetchCount() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, loop.Stop())
	assert.Empty(t, rec.seen())
}

func TestPollLoop_StopWakesBlockedFetch(t *testing.T) {
	records := newFakeRecords()
	loop := StartPollLoop(records, (&recorder{}).handle,
		WithPollTimeout(5*time.Second),
		WithLoopLogger(NewNoopLogger()),
	)

	// Let the loop park inside a blocked fetch
	require.Eventually(t, func() bool {
		return records.fetchCount() >= 1
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	require.NoError(t, loop.Stop())
	assert.Less(t, time.Since(start), time.Second,
		"stop must not wait out the full poll timeout")
}

func TestPollLoop_ErrIsNilWhileRunning(t *testing.T) {
	records := newFakeRecords()
	loop := StartPollLoop(records, (&recorder{}).handle,
		WithPollTimeout(20*time.Millisecond),
		WithLoopLogger(NewNoopLogger()),
	)

	assert.NoError(t, loop.Err())
	select {
	case <-loop.Done():
		t.Fatal("loop terminated without a stop request")
	default:
	}

	require.NoError(t, loop.Stop())
	<-loop.Done()
	assert.NoError(t, loop.Err())
}
