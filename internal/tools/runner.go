// Package tools launches the external static analyzers (eslint, semgrep,
// ruff, bandit, gosec, staticcheck, go vet), parses their native output
// formats into the canonical Issue shape, and fans them out with
// per-tool timeouts and partial-failure tolerance.
package tools

import (
	"context"
	"time"

	"github.com/antinvestor/reviewbot/internal/issue"
)

// DefaultTimeout is applied to every tool invocation unless the tool
// overrides it (Semgrep passes its own --timeout to the child process in
// addition to the context deadline).
const DefaultTimeout = 300 * time.Second

// ToolResult is what one ToolRunner invocation produces.
type ToolResult struct {
	Tool     string
	Success  bool
	Issues   []issue.Issue
	Error    string
	Duration time.Duration
}

// RunConfig parameterizes one ToolRunner invocation.
type RunConfig struct {
	Timeout time.Duration
	Workdir string
}

// ToolRunner is the uniform capability every static analyzer is wrapped
// behind.
type ToolRunner interface {
	Name() string
	IsAvailable(ctx context.Context) bool
	Run(ctx context.Context, files []string, workdir string, cfg RunConfig) ToolResult
}

// notInstalled builds the common "tool absent" result: this is never
// fatal to the orchestrator, just an empty, failed evidence source.
func notInstalled(name string) ToolResult {
	return ToolResult{
		Tool:    name,
		Success: false,
		Error:   name + " not installed",
	}
}

func timedOut(name string, d time.Duration) ToolResult {
	return ToolResult{
		Tool:     name,
		Success:  false,
		Error:    name + " timed out",
		Duration: d,
	}
}

func failed(name string, err error, d time.Duration) ToolResult {
	return ToolResult{
		Tool:     name,
		Success:  false,
		Error:    err.Error(),
		Duration: d,
	}
}

func succeeded(name string, issues []issue.Issue, d time.Duration) ToolResult {
	return ToolResult{
		Tool:     name,
		Success:  true,
		Issues:   issues,
		Duration: d,
	}
}
