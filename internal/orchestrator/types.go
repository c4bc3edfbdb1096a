// Package orchestrator drives one review job through every evidence
// source — static tools, the vulnerability scanner, and the LLM analyzer —
// and turns the aggregated result into a posted pull request review.
package orchestrator

import (
	"time"

	"github.com/antinvestor/reviewbot/internal/issue"
	"github.com/antinvestor/reviewbot/internal/risk"
)

// State names one step of the per-job pipeline, in the order it executes.
type State string

const (
	StateReceived         State = "received"
	StateCheckRunCreated  State = "check_run_created"
	StateDiffFetched      State = "diff_fetched"
	StateParsed           State = "parsed"
	StateCategorized      State = "categorized"
	StateToolsRun         State = "tools_run"
	StateCVEScanned       State = "cve_scanned"
	StateContextRetrieved State = "context_retrieved"
	StateLLMRun           State = "llm_run"
	StateAggregated       State = "aggregated"
	StatePosted           State = "posted"
	StateCheckRunUpdated  State = "check_run_updated"
	StateDone             State = "done"
)

// Event is the review decision posted alongside the comment set.
type Event string

const (
	EventApprove        Event = "APPROVE"
	EventComment        Event = "COMMENT"
	EventRequestChanges Event = "REQUEST_CHANGES"
)

// ReviewJob is one unit of work: a single pull request at a single head
// commit.
type ReviewJob struct {
	ID             string
	RequestID      string
	CreatedAt      time.Time
	Owner          string
	Repo           string
	Number         int
	HeadSHA        string
	InstallationID int64
	Title          string
	Body           string
	Draft          bool
}

// Stats records what evidence actually ran, for observability and for the
// posted check-run summary.
type Stats struct {
	FilesReviewed  int
	FilesExcluded  int
	LockfilesFound int
	ToolsRun       []string
	ToolsSkipped   []string
	ToolsFailed    []string
	CVEsFound      int
	LLMChunksRun   int
	LLMChunksFailed int
	Duration       time.Duration
}

// ReviewResult is what a completed (or failed) job produces.
type ReviewResult struct {
	JobID        string
	Success      bool
	Error        string
	FinalState   State
	Event        Event
	RiskResult   risk.Result
	AllIssues    []issue.Issue
	PostedIssues []issue.Issue
	Stats        Stats
}
