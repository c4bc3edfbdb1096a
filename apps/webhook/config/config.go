package config

import (
	"github.com/pitabwire/frame/config"
)

// WebhookConfig defines configuration for the webhook ingress service. The
// webhook service verifies GitHub pull_request webhooks and enqueues
// ReviewJobs for workers to pick up; it does no review work itself.
type WebhookConfig struct {
	config.ConfigurationDefault

	// ==========================================================================
	// GitHub App Configuration
	// ==========================================================================

	// GitHubWebhookSecret is the secret used to verify GitHub webhook payloads.
	GitHubWebhookSecret string `env:"WEBHOOK_SECRET"`

	// GitHubAppID is the GitHub App ID for authentication.
	GitHubAppID int64 `envDefault:"0" env:"APP_ID"`

	// GitHubAppPrivateKeyPath is the path to the GitHub App private key file.
	GitHubAppPrivateKeyPath string `env:"PRIVATE_KEY_PATH"`

	// ==========================================================================
	// Review Job Queue (outgoing to workers)
	// ==========================================================================

	// QueueBackend selects the review job queue implementation: "memory"
	// for development, "broker" for a durable Redis-backed queue.
	QueueBackend string `envDefault:"memory" env:"QUEUE_BACKEND"`

	// BrokerURL is the Redis connection string used when QueueBackend is
	// "broker".
	BrokerURL string `env:"BROKER_URL"`

	// QueueReviewJobName names the review job queue on whichever backend
	// is active.
	QueueReviewJobName string `envDefault:"review.jobs" env:"QUEUE_REVIEW_JOB_NAME"`

	// ==========================================================================
	// Ingress Limits
	// ==========================================================================

	// MaxBodyBytes bounds how much of a webhook request body is read before
	// signature verification, guarding against oversized payloads.
	MaxBodyBytes int64 `envDefault:"5242880" env:"WEBHOOK_MAX_BODY_BYTES"`

	// RateLimitPerMin and RateLimitBurst bound accepted requests per
	// source IP ahead of signature verification, so a misbehaving or
	// replaying sender cannot force unbounded enqueue volume.
	RateLimitPerMin int `envDefault:"120" env:"WEBHOOK_RATE_LIMIT_PER_MIN"`
	RateLimitBurst  int `envDefault:"30"  env:"WEBHOOK_RATE_LIMIT_BURST"`
}
