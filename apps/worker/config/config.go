package config

import (
	"github.com/pitabwire/frame/config"
)

// WorkerConfig configures the review worker: the process that drains
// ReviewJobs off the job queue and drives them through the orchestrator.
type WorkerConfig struct {
	config.ConfigurationDefault

	// ==========================================================================
	// GitHub App authentication (internal/forge)
	// ==========================================================================

	GitHubAppID             int64  `envDefault:"0" env:"APP_ID"`
	GitHubAppPrivateKeyPath string `env:"PRIVATE_KEY_PATH"`

	// ==========================================================================
	// Job queue (internal/queue) — must agree with the webhook service's
	// QUEUE_BACKEND/BROKER_URL/QUEUE_REVIEW_JOB_NAME so both sides resolve
	// to the same queue.
	// ==========================================================================

	QueueBackend       string `envDefault:"memory" env:"QUEUE_BACKEND"`
	BrokerURL          string `env:"BROKER_URL"`
	QueueReviewJobName string `envDefault:"review.jobs" env:"QUEUE_REVIEW_JOB_NAME"`

	// WorkerConcurrency is how many review jobs this process drives at
	// once; spec.md's job-queue contract fixes this at 3 for the broker
	// backend, but the memory backend may run with a different value.
	WorkerConcurrency int `envDefault:"3" env:"WORKER_CONCURRENCY"`

	// ==========================================================================
	// LLM analyzer (internal/llmreview)
	// ==========================================================================

	DefaultLLMProvider string `envDefault:"anthropic" env:"DEFAULT_LLM_PROVIDER"`
	AnthropicAPIKey    string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel     string `envDefault:"claude-sonnet-4-20250514" env:"ANTHROPIC_MODEL"`
	OpenAIAPIKey       string `env:"OPENAI_API_KEY"`
	OpenAIModel        string `envDefault:"gpt-4o" env:"OPENAI_MODEL"`
	LocalLLMBaseURL    string `env:"LOCAL_LLM_BASE_URL"`
	LocalLLMAPIKey     string `env:"LOCAL_LLM_API_KEY"`
	LocalLLMModel      string `env:"LOCAL_LLM_MODEL"`
	LLMTimeoutSeconds  int    `envDefault:"120" env:"LLM_TIMEOUT_SECONDS"`
	LLMMaxTokens       int    `envDefault:"4096" env:"LLM_MAX_TOKENS"`

	// ==========================================================================
	// Review shaping (internal/aggregator, internal/risk) — spec's
	// configuration table, all overridable.
	// ==========================================================================

	MaxInlineComments   int     `envDefault:"10" env:"MAX_INLINE_COMMENTS"`
	RiskThreshold       float64 `envDefault:"85" env:"RISK_THRESHOLD"`
	ConfidenceThreshold float64 `envDefault:"0.5" env:"CONFIDENCE_THRESHOLD"`

	// ==========================================================================
	// Vulnerability scanner (internal/vuln)
	// ==========================================================================

	OSVURL        string `envDefault:"https://api.osv.dev" env:"OSV_URL"`
	EnableOSVScan bool   `envDefault:"true" env:"ENABLE_OSV_SCAN"`

	// ==========================================================================
	// Static-tool harness (internal/tools) — per-tool toggles let an
	// operator disable any analyzer that isn't installed on the runner
	// image without disabling the whole harness.
	// ==========================================================================

	ToolTimeoutSeconds    int    `envDefault:"300" env:"TOOL_TIMEOUT_SECONDS"`
	ToolPoolSize          int    `envDefault:"0" env:"TOOL_POOL_SIZE"`
	SemgrepRulesPath      string `envDefault:"auto" env:"SEMGREP_RULES_PATH"`
	SemgrepTimeoutSeconds int    `envDefault:"300" env:"SEMGREP_TIMEOUT"`
	UseDockerSandbox      bool   `envDefault:"true" env:"USE_DOCKER_SANDBOX"`

	EnableESLint      bool `envDefault:"true" env:"ENABLE_ESLINT"`
	EnableSemgrep     bool `envDefault:"true" env:"ENABLE_SEMGREP"`
	EnableRuff        bool `envDefault:"true" env:"ENABLE_RUFF"`
	EnableBandit      bool `envDefault:"true" env:"ENABLE_BANDIT"`
	EnableGosec       bool `envDefault:"true" env:"ENABLE_GOSEC"`
	EnableStaticcheck bool `envDefault:"true" env:"ENABLE_STATICCHECK"`

	// ==========================================================================
	// Workspace management (internal/tools WorkdirManager)
	// ==========================================================================

	WorkdirBasePath      string `envDefault:"/var/lib/reviewbot/workdirs" env:"WORKDIR_BASE_PATH"`
	WorkdirMaxAgeMinutes int    `envDefault:"60" env:"WORKDIR_MAX_AGE_MINUTES"`
}
