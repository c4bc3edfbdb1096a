package llmreview

import (
	"context"
	"time"
)

const defaultLocalBaseURL = "http://localhost:8080/v1"

// LocalCompleter targets a local OpenAI-compatible server (e.g. a
// self-hosted vLLM or llama.cpp gateway). It reuses the OpenAI wire shape
// wholesale — chat-completions request/response JSON is identical — the
// only differences are the base URL and that an API key is optional.
type LocalCompleter struct {
	*OpenAICompleter
}

func NewLocalCompleter(baseURL, model, apiKey string, timeout time.Duration) *LocalCompleter {
	if baseURL == "" {
		baseURL = defaultLocalBaseURL
	}
	return &LocalCompleter{OpenAICompleter: NewOpenAICompleter(apiKey, baseURL, model, timeout)}
}

func (c *LocalCompleter) providerTag() string { return "local" }

// isAvailable never requires an API key: most local gateways run
// unauthenticated on a private network.
func (c *LocalCompleter) isAvailable() bool { return c.baseURL != "" }

func (c *LocalCompleter) complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, TokenUsage, string, error) {
	return c.OpenAICompleter.complete(ctx, systemPrompt, userPrompt, maxTokens)
}
