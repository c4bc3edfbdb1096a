// Package queue provides the job queue abstraction the webhook ingress
// enqueues onto and the worker drains: a memory backend for development
// and a Redis-backed broker for durable, at-least-once delivery, behind
// one interface.
package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Handler processes one dequeued payload. Process retries or drops a
// payload based on Handler's error return; Handler itself is responsible
// for any idempotency the backend's delivery guarantee requires.
type Handler func(ctx context.Context, payload []byte) error

// Queue is the capability both backends implement: enqueue a payload,
// drain the queue with a handler, and release backend resources.
type Queue interface {
	Enqueue(ctx context.Context, payload []byte) error
	Process(ctx context.Context, handler Handler) error
	Close() error
}

// Backend names the two supported queue implementations, selected by the
// QUEUE_BACKEND environment option.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendBroker Backend = "broker"
)

// Config selects and parameterizes a Queue implementation.
type Config struct {
	Backend Backend

	Name string

	// Memory backend.
	MemoryBufferSize  int
	MemoryConcurrency int

	// Broker backend.
	RedisURL string
	Broker   BrokerConfig
}

// DefaultConfig returns a memory-backed configuration suitable for
// development; production deployments set Backend to BackendBroker and
// supply RedisURL.
func DefaultConfig(name string) Config {
	return Config{
		Backend:           BackendMemory,
		Name:              name,
		MemoryBufferSize:  256,
		MemoryConcurrency: defaultConcurrency,
		Broker:            DefaultBrokerConfig(),
	}
}

// New builds the Queue named by cfg.Backend. The broker backend parses
// cfg.RedisURL itself so callers never construct a redis.Client by hand.
func New(cfg Config) (Queue, error) {
	switch cfg.Backend {
	case BackendBroker:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis URL required for broker backend")
		}
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis URL: %w", err)
		}
		client := redis.NewClient(opts)
		return NewBrokerQueue(client, cfg.Name, cfg.Broker), nil
	case BackendMemory, "":
		return NewMemoryQueue(cfg.MemoryBufferSize, cfg.MemoryConcurrency), nil
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Backend)
	}
}
