package llmreview

import (
	"context"

	"github.com/antinvestor/reviewbot/internal/chunker"
)

// Provider wraps one wire-format completer with the prompt assembly and
// response handling shared by every backend, so that logic exists exactly
// once regardless of which concrete API is configured.
type Provider struct {
	inner     completer
	maxTokens int
}

// NewProvider builds a Provider around a concrete completer.
// maxTokens bounds the completion's output length (OPENAI_MAX_TOKENS and
// equivalents default to 4096).
func NewProvider(inner completer, maxTokens int) *Provider {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Provider{inner: inner, maxTokens: maxTokens}
}

func (p *Provider) Name() string { return p.inner.providerTag() }

func (p *Provider) IsAvailable() bool { return p.inner.isAvailable() }

// Analyze builds the deterministic prompt pair for chunk/prCtx, sends it
// to the wrapped completer, and parses the result into canonical Issues.
func (p *Provider) Analyze(ctx context.Context, chunk chunker.Chunk, prCtx PRContext) (AnalyzeResult, error) {
	userPrompt := buildUserPrompt(chunk, prCtx)

	content, usage, model, err := p.inner.complete(ctx, systemPrompt, userPrompt, p.maxTokens)
	if err != nil {
		return AnalyzeResult{}, err
	}

	issues := parseResponse(content, p.inner.providerTag(), chunk)

	return AnalyzeResult{
		Issues:     issues,
		Model:      model,
		TokensUsed: usage.TotalTokens,
	}, nil
}
