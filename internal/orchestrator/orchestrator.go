package orchestrator

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/pitabwire/util"

	"github.com/antinvestor/reviewbot/internal/aggregator"
	"github.com/antinvestor/reviewbot/internal/chunker"
	"github.com/antinvestor/reviewbot/internal/diffmodel"
	"github.com/antinvestor/reviewbot/internal/filter"
	"github.com/antinvestor/reviewbot/internal/issue"
	"github.com/antinvestor/reviewbot/internal/llmreview"
	"github.com/antinvestor/reviewbot/internal/risk"
	"github.com/antinvestor/reviewbot/internal/tools"
	"github.com/antinvestor/reviewbot/internal/vuln"
)

// ragFileNames is the fixed set of project-context files the spec names:
// README/CONTRIBUTING/lint config, best-effort fetched per job.
var ragFileNames = []string{
	"README.md",
	"CONTRIBUTING.md",
	".eslintrc.json",
	".eslintrc.js",
	"ruff.toml",
	"pyproject.toml",
}

const maxRAGFiles = 4

// Config bundles every sub-component configuration the orchestrator needs.
type Config struct {
	Filter      filter.Config
	Chunker     chunker.Config
	ToolTimeout time.Duration
	Aggregator  aggregator.Config
	Risk        risk.Config
}

// DefaultConfig composes each sub-package's own defaults.
func DefaultConfig() Config {
	return Config{
		Filter:      filter.DefaultConfig(),
		Chunker:     chunker.DefaultConfig(),
		ToolTimeout: tools.DefaultTimeout,
		Aggregator:  aggregator.DefaultConfig(),
		Risk:        risk.DefaultConfig(),
	}
}

// Orchestrator drives one job at a time through the full evidence-gathering
// and posting pipeline. It holds no per-job state; Run is safe to call
// concurrently for independent jobs sharing one Orchestrator, matching the
// worker's "N concurrent jobs" concurrency model.
type Orchestrator struct {
	cfg      Config
	forge    ForgeClient
	harness  *tools.Harness
	workdirs *tools.WorkdirManager
	scanner  *vuln.Scanner
	llm      llmreview.LLMProvider // nil disables the LLM analysis step entirely
}

// New builds an Orchestrator. llm may be nil if no provider is configured
// or available — the LLM step is then skipped, not failed.
func New(cfg Config, forge ForgeClient, harness *tools.Harness, workdirs *tools.WorkdirManager, scanner *vuln.Scanner, llm llmreview.LLMProvider) *Orchestrator {
	return &Orchestrator{cfg: cfg, forge: forge, harness: harness, workdirs: workdirs, scanner: scanner, llm: llm}
}

// Run executes the full state machine for one job and returns its result.
// Run never panics on a degraded evidence source; the only failures that
// abort the job outright are an unreadable diff and a failed post.
func (o *Orchestrator) Run(ctx context.Context, job ReviewJob) ReviewResult {
	log := util.Log(ctx).WithField("job_id", job.ID).WithField("request_id", job.RequestID)
	start := time.Now()

	state := StateReceived
	stats := Stats{}

	rawDiff, err := o.forge.FetchDiff(ctx, job.Owner, job.Repo, job.Number)
	if err != nil {
		return failResult(job.ID, state, fmt.Errorf("fetch diff: %w", err), stats, start)
	}
	state = StateDiffFetched

	parsed, err := diffmodel.Parse(rawDiff)
	if err != nil {
		return failResult(job.ID, state, fmt.Errorf("parse diff: %w", err), stats, start)
	}
	state = StateParsed

	categorized := filter.Categorize(parsed.Files, o.cfg.Filter)
	reviewable := filter.Reviewable(categorized)
	stats.FilesReviewed = len(reviewable)
	stats.FilesExcluded = len(categorized) - len(reviewable)

	var lockfileCandidates []diffmodel.DiffFile
	for _, r := range categorized {
		p := r.File.EffectivePath()
		if vuln.IsLockfileBasename(p) {
			lockfileCandidates = append(lockfileCandidates, r.File)
		}
	}
	stats.LockfilesFound = len(lockfileCandidates)
	state = StateCategorized

	if len(reviewable) == 0 && len(lockfileCandidates) == 0 {
		log.Info("no reviewable files or lockfiles after categorization, posting zero-issue review")
		return o.postZeroIssue(ctx, job, stats, start)
	}

	var allIssues []issue.Issue

	toolIssues, toolStats := o.runStaticTools(ctx, job, reviewable)
	allIssues = append(allIssues, toolIssues...)
	stats.ToolsRun = toolStats.ToolsRun
	stats.ToolsSkipped = toolStats.ToolsSkipped
	stats.ToolsFailed = toolStats.ToolsFailed
	state = StateToolsRun

	cveIssues := o.runVulnScan(ctx, job, lockfileCandidates, log)
	allIssues = append(allIssues, cveIssues...)
	stats.CVEsFound = len(cveIssues)
	state = StateCVEScanned

	ragFiles := o.fetchRAGContext(ctx, job, log)
	state = StateContextRetrieved

	llmIssues, llmRun, llmFailed := o.runLLM(ctx, job, reviewable, ragFiles, log)
	allIssues = append(allIssues, llmIssues...)
	stats.LLMChunksRun = llmRun
	stats.LLMChunksFailed = llmFailed
	state = StateLLMRun

	agg := aggregator.Aggregate(allIssues, o.cfg.Aggregator)
	riskResult := risk.Score(agg.Filtered, o.cfg.Risk)
	state = StateAggregated

	event := decideEvent(riskResult, agg.Selected)
	output := BuildReviewOutput(job.HeadSHA, event, riskResult, agg.Selected, stats)

	if err := o.forge.PostReview(ctx, job.Owner, job.Repo, job.Number, output.Submission); err != nil {
		return failResult(job.ID, state, fmt.Errorf("post review: %w", err), stats, start)
	}
	state = StateDone

	stats.Duration = time.Since(start)
	log.Info("review posted",
		"event", event,
		"risk_score", riskResult.Score,
		"inline_comments", len(agg.Selected),
		"total_issues", len(agg.Filtered),
	)

	return ReviewResult{
		JobID:        job.ID,
		Success:      true,
		FinalState:   state,
		Event:        event,
		RiskResult:   riskResult,
		AllIssues:    agg.Filtered,
		PostedIssues: agg.Selected,
		Stats:        stats,
	}
}

func (o *Orchestrator) postZeroIssue(ctx context.Context, job ReviewJob, stats Stats, start time.Time) ReviewResult {
	riskResult := risk.Score(nil, o.cfg.Risk)
	output := BuildReviewOutput(job.HeadSHA, EventApprove, riskResult, nil, stats)
	if err := o.forge.PostReview(ctx, job.Owner, job.Repo, job.Number, output.Submission); err != nil {
		return failResult(job.ID, StateCategorized, fmt.Errorf("post review: %w", err), stats, start)
	}
	stats.Duration = time.Since(start)
	return ReviewResult{
		JobID:      job.ID,
		Success:    true,
		FinalState: StateDone,
		Event:      EventApprove,
		RiskResult: riskResult,
		Stats:      stats,
	}
}

// runStaticTools materializes the reviewable files into a scratch workdir
// and fans every configured analyzer out over it. Any failure here is
// logged and reflected in stats, never escalated.
func (o *Orchestrator) runStaticTools(ctx context.Context, job ReviewJob, reviewable []diffmodel.DiffFile) ([]issue.Issue, Stats) {
	log := util.Log(ctx)
	stats := Stats{}
	if o.harness == nil || len(reviewable) == 0 {
		return nil, stats
	}

	workdir, err := o.workdirs.Create(job.ID)
	if err != nil {
		log.WithError(err).Warn("failed to create workdir, skipping static tools")
		return nil, stats
	}
	defer func() {
		if cerr := o.workdirs.Cleanup(workdir); cerr != nil {
			log.WithError(cerr).Warn("failed to clean up workdir")
		}
	}()

	files := make([]string, 0, len(reviewable))
	for _, f := range reviewable {
		p := f.EffectivePath()
		content, ok, ferr := o.forge.FetchFileContent(ctx, job.Owner, job.Repo, p, job.HeadSHA)
		if ferr != nil || !ok {
			continue
		}
		if err := o.workdirs.WriteFile(workdir, p, []byte(content)); err != nil {
			log.WithError(err).Warn("failed to write file into workdir", "path", p)
			continue
		}
		files = append(files, p)
	}

	results := o.harness.RunAll(ctx, files, workdir, tools.RunConfig{Timeout: o.cfg.ToolTimeout, Workdir: workdir})

	var issues []issue.Issue
	for _, r := range results {
		switch {
		case r.Error == r.Tool+" not installed":
			stats.ToolsSkipped = append(stats.ToolsSkipped, r.Tool)
		case !r.Success:
			stats.ToolsFailed = append(stats.ToolsFailed, r.Tool)
		default:
			stats.ToolsRun = append(stats.ToolsRun, r.Tool)
			issues = append(issues, r.Issues...)
		}
	}
	return issues, stats
}

func (o *Orchestrator) runVulnScan(ctx context.Context, job ReviewJob, lockfiles []diffmodel.DiffFile, log *util.LogEntry) []issue.Issue {
	if o.scanner == nil || len(lockfiles) == 0 {
		return nil
	}

	var packages []vuln.Package
	for _, f := range lockfiles {
		p := f.EffectivePath()
		content, ok, err := o.forge.FetchFileContent(ctx, job.Owner, job.Repo, p, job.HeadSHA)
		if err != nil || !ok {
			continue
		}
		pkgs, perr := vuln.ParseManifest(path.Base(p), []byte(content))
		if perr != nil {
			log.WithError(perr).Warn("failed to parse manifest", "path", p)
			continue
		}
		packages = append(packages, pkgs...)
	}
	if len(packages) == 0 {
		return nil
	}
	return o.scanner.Scan(ctx, packages)
}

func (o *Orchestrator) fetchRAGContext(ctx context.Context, job ReviewJob, log *util.LogEntry) map[string]string {
	ragFiles := make(map[string]string)
	if o.llm == nil {
		return ragFiles
	}
	for _, name := range ragFileNames {
		if len(ragFiles) >= maxRAGFiles {
			break
		}
		content, ok, err := o.forge.FetchFileContent(ctx, job.Owner, job.Repo, name, job.HeadSHA)
		if err != nil {
			log.WithError(err).Debug("rag context file fetch failed", "path", name)
			continue
		}
		if !ok {
			continue
		}
		ragFiles[name] = content
	}
	return ragFiles
}

// runLLM processes every diff chunk sequentially, per spec's "LLM chunks
// are processed sequentially within a job to respect rate limits."
func (o *Orchestrator) runLLM(ctx context.Context, job ReviewJob, reviewable []diffmodel.DiffFile, ragFiles map[string]string, log *util.LogEntry) ([]issue.Issue, int, int) {
	if o.llm == nil || !o.llm.IsAvailable() || len(reviewable) == 0 {
		return nil, 0, 0
	}

	reviewableDiff := &diffmodel.ParsedDiff{Files: reviewable}
	chunks := chunker.Split(reviewableDiff, o.cfg.Chunker)

	prCtx := llmreview.PRContext{Title: job.Title, Body: job.Body, RAGFiles: ragFiles}

	var issues []issue.Issue
	run, failed := 0, 0
	for _, c := range chunks {
		result, err := o.llm.Analyze(ctx, c, prCtx)
		if err != nil {
			failed++
			log.WithError(err).Warn("llm chunk analysis failed", "chunk", c.Index)
			continue
		}
		run++
		issues = append(issues, result.Issues...)
	}
	return issues, run, failed
}

// decideEvent applies spec.md §4.9's review-event decision rule.
func decideEvent(riskResult risk.Result, selected []issue.Issue) Event {
	switch {
	case riskResult.Level == risk.LevelCritical:
		return EventRequestChanges
	case riskResult.Score < 10 && len(selected) == 0:
		return EventApprove
	default:
		return EventComment
	}
}

func failResult(jobID string, state State, err error, stats Stats, start time.Time) ReviewResult {
	stats.Duration = time.Since(start)
	return ReviewResult{
		JobID:      jobID,
		Success:    false,
		Error:      err.Error(),
		FinalState: state,
		Stats:      stats,
	}
}
