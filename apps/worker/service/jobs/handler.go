// Package jobs adapts queued review jobs to the orchestrator: unmarshal,
// run, record the outcome.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pitabwire/util"

	"github.com/antinvestor/reviewbot/internal/orchestrator"
)

// Recorder persists a completed job's outcome for operator visibility.
// apps/worker wires this to internal/audit; a nil Recorder simply skips
// recording, which keeps Handler usable before that wiring exists.
type Recorder interface {
	Record(ctx context.Context, job orchestrator.ReviewJob, result orchestrator.ReviewResult) error
}

// Handler drains one dequeued payload at a time. It satisfies
// internal/queue's Handler func type via its Handle method.
type Handler struct {
	orchestrator *orchestrator.Orchestrator
	recorder     Recorder
}

// NewHandler builds a Handler around an already-configured Orchestrator.
// recorder may be nil.
func NewHandler(o *orchestrator.Orchestrator, recorder Recorder) *Handler {
	return &Handler{orchestrator: o, recorder: recorder}
}

// Handle unmarshals payload into a ReviewJob, runs it, and records the
// result. A malformed payload is logged and dropped (returning nil) since
// no amount of retrying fixes bad JSON; a job that ran but failed returns
// an error so the broker backend's retry/backoff policy gets a chance to
// retry it.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var job orchestrator.ReviewJob
	if err := json.Unmarshal(payload, &job); err != nil {
		util.Log(ctx).WithError(err).Error("dropping malformed review job payload")
		return nil
	}

	log := util.Log(ctx).WithField("job_id", job.ID).WithField("request_id", job.RequestID)

	result := h.orchestrator.Run(ctx, job)

	if h.recorder != nil {
		if rerr := h.recorder.Record(ctx, job, result); rerr != nil {
			log.WithError(rerr).Warn("failed to record review run")
		}
	}

	if !result.Success {
		return fmt.Errorf("review job %s failed: %s", job.ID, result.Error)
	}
	log.WithField("risk_level", result.RiskResult.Level).Info("review job completed")
	return nil
}
