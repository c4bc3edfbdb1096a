package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_ProcessesInFIFOOrderSingleWorker(t *testing.T) {
	q := NewMemoryQueue(10, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(ctx, []byte{byte(i)}))
	}
	require.NoError(t, q.Close())

	var mu sync.Mutex
	var got []byte
	err := q.Process(ctx, func(_ context.Context, payload []byte) error {
		mu.Lock()
		got = append(got, payload[0])
		mu.Unlock()
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4}, got)
}

func TestMemoryQueue_EnqueueAfterCloseReturnsErrClosed(t *testing.T) {
	q := NewMemoryQueue(4, 1)
	require.NoError(t, q.Close())

	err := q.Enqueue(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryQueue_HandlerErrorDropsPayloadAtMostOnce(t *testing.T) {
	q := NewMemoryQueue(4, 1)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, []byte("a")))
	require.NoError(t, q.Close())

	var calls int
	err := q.Process(ctx, func(_ context.Context, _ []byte) error {
		calls++
		return errors.New("boom")
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestMemoryQueue_ProcessReturnsOnContextCancel(t *testing.T) {
	q := NewMemoryQueue(4, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = q.Process(ctx, func(_ context.Context, _ []byte) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Process did not return after context cancellation")
	}
}

func TestRunWithRetry_SucceedsWithinAttempts(t *testing.T) {
	cfg := BrokerConfig{Attempts: 3, InitialBackoff: time.Millisecond}
	var calls int
	err := runWithRetry(context.Background(), []byte("x"), func(_ context.Context, _ []byte) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	}, cfg)

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRunWithRetry_ExhaustsAttemptsAndReturnsError(t *testing.T) {
	cfg := BrokerConfig{Attempts: 3, InitialBackoff: time.Millisecond}
	var calls int
	err := runWithRetry(context.Background(), []byte("x"), func(_ context.Context, _ []byte) error {
		calls++
		return errors.New("permanent")
	}, cfg)

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestBrokerConfig_WithDefaultsFillsZeroValues(t *testing.T) {
	cfg := BrokerConfig{}.withDefaults()
	assert.Equal(t, defaultAttempts, cfg.Attempts)
	assert.Equal(t, defaultInitialBackoff, cfg.InitialBackoff)
	assert.Equal(t, int64(defaultRemoveOnComplete), cfg.RemoveOnComplete)
	assert.Equal(t, int64(defaultRemoveOnFail), cfg.RemoveOnFail)
	assert.Equal(t, defaultConcurrency, cfg.Concurrency)
}

func TestBrokerQueue_KeyNaming(t *testing.T) {
	q := &BrokerQueue{name: "review.jobs"}
	assert.Equal(t, "queue:review.jobs", q.key())
	assert.Equal(t, "queue:review.jobs:completed", q.completedKey())
	assert.Equal(t, "queue:review.jobs:failed", q.failedKey())
}

func TestNew_UnknownBackendErrors(t *testing.T) {
	_, err := New(Config{Backend: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestNew_BrokerWithoutRedisURLErrors(t *testing.T) {
	_, err := New(Config{Backend: BackendBroker})
	assert.Error(t, err)
}

func TestNew_MemoryBackendDefaultsWhenUnset(t *testing.T) {
	q, err := New(Config{})
	require.NoError(t, err)
	require.NotNil(t, q)
	_, ok := q.(*MemoryQueue)
	assert.True(t, ok)
}
