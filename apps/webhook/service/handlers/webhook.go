// Package handlers wires the webhook ingress pipeline to the review job
// queue: it supplies the Enqueuer the ingress calls and mounts the
// resulting handler on the service's HTTP mux.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/antinvestor/reviewbot/internal/orchestrator"
	"github.com/antinvestor/reviewbot/internal/queue"
	"github.com/antinvestor/reviewbot/internal/webhookingress"
)

// JobQueueEnqueuer adapts a queue.Queue to the webhookingress.Enqueuer
// capability by JSON-encoding each ReviewJob before pushing it.
type JobQueueEnqueuer struct {
	q queue.Queue
}

// NewJobQueueEnqueuer builds an Enqueuer backed by q.
func NewJobQueueEnqueuer(q queue.Queue) *JobQueueEnqueuer {
	return &JobQueueEnqueuer{q: q}
}

// Enqueue implements webhookingress.Enqueuer.
func (e *JobQueueEnqueuer) Enqueue(ctx context.Context, job orchestrator.ReviewJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal review job: %w", err)
	}
	if err := e.q.Enqueue(ctx, data); err != nil {
		return fmt.Errorf("enqueue review job: %w", err)
	}
	return nil
}

// NewIngress builds the webhook ingress bound to secret, body-size limit,
// and per-source rate limit, publishing accepted jobs onto q.
func NewIngress(secret string, maxBodyBytes int64, rateLimitPerMin, rateLimitBurst int, q queue.Queue) *webhookingress.Ingress {
	cfg := webhookingress.Config{
		Secret:          secret,
		MaxBodyBytes:    maxBodyBytes,
		RateLimitPerMin: rateLimitPerMin,
		RateLimitBurst:  rateLimitBurst,
	}
	return webhookingress.New(cfg, NewJobQueueEnqueuer(q))
}
