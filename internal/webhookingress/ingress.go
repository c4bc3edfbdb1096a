// Package webhookingress implements the GitHub pull_request webhook
// pipeline: signature verification, payload validation, and job
// construction. It has no knowledge of how a job is actually reviewed —
// it only decides whether one should be enqueued.
package webhookingress

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pitabwire/util"

	"github.com/antinvestor/reviewbot/internal/orchestrator"
)

const (
	defaultMaxBodyBytes    = 5 << 20 // 5 MiB
	defaultRateLimitPerMin = 120
	defaultRateLimitBurst  = 30
)

// Enqueuer is the one capability the ingress needs from the job queue: put
// a job somewhere a worker will eventually pick it up. Enqueue failures are
// logged by the caller, not retried against the HTTP response — the spec
// treats enqueue as fire-and-forget from the request's perspective.
type Enqueuer interface {
	Enqueue(ctx context.Context, job orchestrator.ReviewJob) error
}

// Config controls ingress-level limits independent of signature/payload
// validation.
type Config struct {
	Secret          string
	MaxBodyBytes    int64
	RateLimitPerMin int
	RateLimitBurst  int
}

// DefaultConfig returns sane ingress limits; Secret must still be supplied.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:    defaultMaxBodyBytes,
		RateLimitPerMin: defaultRateLimitPerMin,
		RateLimitBurst:  defaultRateLimitBurst,
	}
}

// Ingress is the HTTP entry point for GitHub's pull_request webhook.
type Ingress struct {
	cfg     Config
	queue   Enqueuer
	limiter *sourceLimiter
}

// New builds an Ingress bound to the given secret and enqueue target.
func New(cfg Config, queue Enqueuer) *Ingress {
	ratePerMin := cfg.RateLimitPerMin
	if ratePerMin <= 0 {
		ratePerMin = defaultRateLimitPerMin
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = defaultRateLimitBurst
	}

	return &Ingress{cfg: cfg, queue: queue, limiter: newSourceLimiter(ratePerMin, burst)}
}

type response struct {
	Status  string `json:"status"`
	JobID   string `json:"jobId,omitempty"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// ServeHTTP runs the full pipeline described in spec.md §4.10, steps (a)
// through (i).
func (ig *Ingress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := util.Log(ctx)

	if !ig.limiter.allow(sourceIP(r)) {
		log.WithField("source_ip", sourceIP(r)).Warn("webhook rate limit exceeded")
		writeJSON(w, http.StatusTooManyRequests, response{Status: "error", Error: "rate limit exceeded"})
		return
	}

	maxBytes := ig.cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		log.WithError(err).Warn("failed to read webhook body")
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Error: "failed to read body"})
		return
	}
	defer util.CloseAndLogOnError(ctx, r.Body, "failed to close webhook request body")

	if !VerifySignature(ig.cfg.Secret, body, r.Header.Get("X-Hub-Signature-256")) {
		log.Warn("webhook signature verification failed")
		writeJSON(w, http.StatusUnauthorized, response{Status: "error", Error: "invalid signature"})
		return
	}

	if r.Header.Get("X-GitHub-Event") != "pull_request" {
		writeJSON(w, http.StatusOK, response{Status: "ignored", Reason: "unhandled event type"})
		return
	}

	payload := decodePayload(body)
	if !payload.validShape() {
		writeJSON(w, http.StatusOK, response{Status: "ignored", Reason: "malformed payload"})
		return
	}

	if !payload.accepted() {
		writeJSON(w, http.StatusOK, response{Status: "ignored", Reason: "action not reviewable"})
		return
	}

	if payload.PullRequest.Draft {
		writeJSON(w, http.StatusOK, response{Status: "ignored", Reason: "draft pull request"})
		return
	}

	if !payload.hasInstallation() {
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Error: "missing installation id"})
		return
	}

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	job := orchestrator.ReviewJob{
		ID:             uuid.NewString(),
		RequestID:      requestID,
		CreatedAt:      time.Now(),
		Owner:          payload.Repository.Owner.Login,
		Repo:           payload.Repository.Name,
		Number:         payload.number(),
		HeadSHA:        payload.PullRequest.Head.SHA,
		InstallationID: payload.Installation.ID,
		Title:          payload.PullRequest.Title,
		Body:           payload.PullRequest.Body,
		Draft:          payload.PullRequest.Draft,
	}

	if err := ig.queue.Enqueue(ctx, job); err != nil {
		log.WithError(err).WithField("job_id", job.ID).Error("failed to enqueue review job")
	}

	writeJSON(w, http.StatusAccepted, response{Status: "accepted", JobID: job.ID})
}
