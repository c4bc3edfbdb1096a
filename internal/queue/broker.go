package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pitabwire/util"
	"github.com/redis/go-redis/v9"
)

const (
	defaultAttempts         = 3
	defaultInitialBackoff   = 1 * time.Second
	defaultRemoveOnComplete = 100
	defaultRemoveOnFail     = 1000
	defaultConcurrency      = 3
	defaultPopTimeout       = time.Second

	completedSuffix = ":completed"
	failedSuffix    = ":failed"
)

// BrokerConfig parameterizes the Redis-backed broker's retry and
// retention behavior, matching spec.md §4.11's external-broker contract.
type BrokerConfig struct {
	Attempts         int
	InitialBackoff   time.Duration
	RemoveOnComplete int64
	RemoveOnFail     int64
	Concurrency      int
}

// DefaultBrokerConfig returns the spec-mandated defaults: attempts=3,
// exponential backoff starting at 1s, removeOnComplete=100,
// removeOnFail=1000, worker concurrency=3.
func DefaultBrokerConfig() BrokerConfig {
	return BrokerConfig{
		Attempts:         defaultAttempts,
		InitialBackoff:   defaultInitialBackoff,
		RemoveOnComplete: defaultRemoveOnComplete,
		RemoveOnFail:     defaultRemoveOnFail,
		Concurrency:      defaultConcurrency,
	}
}

func (c BrokerConfig) withDefaults() BrokerConfig {
	if c.Attempts <= 0 {
		c.Attempts = defaultAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaultInitialBackoff
	}
	if c.RemoveOnComplete <= 0 {
		c.RemoveOnComplete = defaultRemoveOnComplete
	}
	if c.RemoveOnFail <= 0 {
		c.RemoveOnFail = defaultRemoveOnFail
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	return c
}

// BrokerQueue is a Redis-backed, durable, at-least-once queue: a list
// holds pending payloads, workers BRPOP them, and a failed handler is
// retried in place (no requeue) before being recorded as failed. Because
// redelivery can still happen across process restarts between the BRPOP
// and a successful Process return, idempotency of handler is the caller's
// responsibility, per spec.md §4.11.
type BrokerQueue struct {
	client *redis.Client
	name   string
	cfg    BrokerConfig
}

// NewBrokerQueue builds a BrokerQueue bound to client, queued under name.
func NewBrokerQueue(client *redis.Client, name string, cfg BrokerConfig) *BrokerQueue {
	return &BrokerQueue{client: client, name: name, cfg: cfg.withDefaults()}
}

func (q *BrokerQueue) key() string          { return "queue:" + q.name }
func (q *BrokerQueue) completedKey() string { return q.key() + completedSuffix }
func (q *BrokerQueue) failedKey() string    { return q.key() + failedSuffix }

// Enqueue pushes payload onto the head of the Redis list backing this
// queue; workers pop from the tail, giving FIFO order.
func (q *BrokerQueue) Enqueue(ctx context.Context, payload []byte) error {
	return q.client.LPush(ctx, q.key(), payload).Err()
}

// Close releases the underlying Redis client connection.
func (q *BrokerQueue) Close() error {
	return q.client.Close()
}

// Process runs cfg.Concurrency workers, each blocking-popping payloads and
// retrying handler failures per cfg.Attempts before recording the outcome.
func (q *BrokerQueue) Process(ctx context.Context, handler Handler) error {
	errs := make(chan error, q.cfg.Concurrency)
	for i := 0; i < q.cfg.Concurrency; i++ {
		go func() {
			errs <- q.worker(ctx, handler)
		}()
	}
	for i := 0; i < q.cfg.Concurrency; i++ {
		if err := <-errs; err != nil {
			return err
		}
	}
	return nil
}

func (q *BrokerQueue) worker(ctx context.Context, handler Handler) error {
	log := util.Log(ctx)
	for {
		if ctx.Err() != nil {
			return nil
		}

		result, err := q.client.BRPop(ctx, defaultPopTimeout, q.key()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			return fmt.Errorf("brpop %s: %w", q.key(), err)
		}
		if len(result) < 2 {
			continue
		}
		payload := []byte(result[1])

		if procErr := runWithRetry(ctx, payload, handler, q.cfg); procErr != nil {
			log.WithError(procErr).Warn("job failed after retries", "queue", q.name)
			q.recordOutcome(ctx, q.failedKey(), payload, q.cfg.RemoveOnFail)
			continue
		}
		q.recordOutcome(ctx, q.completedKey(), payload, q.cfg.RemoveOnComplete)
	}
}

// runWithRetry invokes handler against payload, retrying up to cfg.Attempts
// times with exponential backoff starting at cfg.InitialBackoff. Split out
// from worker so the retry policy is exercisable without a Redis
// connection.
func runWithRetry(ctx context.Context, payload []byte, handler Handler, cfg BrokerConfig) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.InitialBackoff

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, handler(ctx, payload)
	}, backoff.WithBackOff(eb), backoff.WithMaxTries(uint(cfg.Attempts)))
	return err
}

// recordOutcome appends payload to the bounded completed/failed list used
// for operator visibility, trimming it to cap entries (removeOnComplete /
// removeOnFail in spec.md §4.11's vocabulary).
func (q *BrokerQueue) recordOutcome(ctx context.Context, key string, payload []byte, limit int64) {
	pipe := q.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, limit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		util.Log(ctx).WithError(err).Warn("failed to record job outcome", "key", key)
	}
}
