// Package llmreview provides the LLM-backed analysis step: it assembles a
// deterministic, injection-hardened prompt from a diff chunk and PR
// context, sends it to whichever provider is configured, and turns the
// model's JSON response back into canonical Issues.
package llmreview

import (
	"context"
	"errors"

	"github.com/antinvestor/reviewbot/internal/chunker"
	"github.com/antinvestor/reviewbot/internal/issue"
)

// Common errors surfaced by provider implementations.
var (
	ErrNoAPIKey       = errors.New("no API key configured")
	ErrRateLimited    = errors.New("rate limited")
	ErrQuotaExceeded  = errors.New("quota exceeded")
	ErrContextTooLong = errors.New("context too long")
)

// TokenUsage is the token accounting for one completion call.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// PRContext is the PR metadata and RAG material assembled into the user
// prompt alongside the chunk.
type PRContext struct {
	Title    string
	Body     string
	RAGFiles map[string]string // e.g. "README.md" -> truncated content
}

// AnalyzeResult is what one analyze() call produces.
type AnalyzeResult struct {
	Issues     []issue.Issue
	Model      string
	TokensUsed int
}

// LLMProvider is the uniform capability every concrete backend (OpenAI-
// compatible, Anthropic, local) is wrapped behind.
type LLMProvider interface {
	Analyze(ctx context.Context, chunk chunker.Chunk, prCtx PRContext) (AnalyzeResult, error)
	Name() string
	IsAvailable() bool
}

// completer is the narrower capability each wire-format client
// implements; Provider wraps one of these with the shared prompt assembly
// and response handling so that logic is written exactly once.
type completer interface {
	providerTag() string
	isAvailable() bool
	complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (content string, usage TokenUsage, model string, err error)
}
