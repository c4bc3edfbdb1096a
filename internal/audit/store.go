// Package audit persists one row per completed or failed review job for
// operator visibility — "what happened to job X" — without ever storing
// the source code or diff content that produced it.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pitabwire/frame/datastore/pool"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/antinvestor/reviewbot/internal/orchestrator"
)

// ErrNotFound is returned when a job ID has no recorded run.
var ErrNotFound = errors.New("review run not found")

// ReviewRun is one row per completed or failed orchestrator invocation.
type ReviewRun struct {
	JobID        string     `json:"jobId"        gorm:"primaryKey"`
	Owner        string     `json:"owner"`
	Repo         string     `json:"repo"`
	PRNumber     int        `json:"prNumber"`
	SHA          string     `json:"sha"`
	RiskScore    int        `json:"riskScore"`
	RiskLevel    string     `json:"riskLevel"`
	IssuesFound  int        `json:"issuesFound"`
	ToolsRun     string     `json:"toolsRun"`
	Decision     string     `json:"decision"`
	Success      bool       `json:"success"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TableName returns the table name for the ReviewRun model.
func (ReviewRun) TableName() string {
	return "review_runs"
}

// Store persists ReviewRuns over a pooled GORM/Postgres connection. It
// implements apps/worker/service/jobs.Recorder.
type Store struct {
	pool pool.Pool
}

// NewStore builds a Store and ensures the review_runs table exists. p may
// be nil, in which case Store degrades to a no-op recorder and GetByID
// always returns ErrNotFound — useful for running the worker without a
// configured database.
func NewStore(ctx context.Context, p pool.Pool) (*Store, error) {
	s := &Store{pool: p}

	db := s.db(ctx, false)
	if db == nil {
		return s, nil
	}
	if err := db.AutoMigrate(&ReviewRun{}); err != nil {
		return nil, fmt.Errorf("migrate review_runs: %w", err)
	}
	return s, nil
}

func (s *Store) db(ctx context.Context, readOnly bool) *gorm.DB {
	if s.pool == nil {
		return nil
	}
	return s.pool.DB(ctx, readOnly)
}

// Record upserts the outcome of one completed or failed job. Called once
// per job at the orchestrator's Posted (or terminal-failure) transition.
func (s *Store) Record(ctx context.Context, job orchestrator.ReviewJob, result orchestrator.ReviewResult) error {
	db := s.db(ctx, false)
	if db == nil {
		return nil
	}

	run := toReviewRun(job, result)

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}},
		UpdateAll: true,
	}).Create(run).Error
}

// GetByID retrieves the recorded run for a job ID, for GET /jobs/{id}.
func (s *Store) GetByID(ctx context.Context, jobID string) (*ReviewRun, error) {
	db := s.db(ctx, true)
	if db == nil {
		return nil, ErrNotFound
	}

	var run ReviewRun
	if err := db.First(&run, "job_id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// toReviewRun maps a completed job's inputs and outcome onto the
// persisted row shape, collapsing everything GET /jobs/{id} needs into
// one record.
func toReviewRun(job orchestrator.ReviewJob, result orchestrator.ReviewResult) *ReviewRun {
	now := time.Now()
	return &ReviewRun{
		JobID:        job.ID,
		Owner:        job.Owner,
		Repo:         job.Repo,
		PRNumber:     job.Number,
		SHA:          job.HeadSHA,
		RiskScore:    result.RiskResult.Score,
		RiskLevel:    string(result.RiskResult.Level),
		IssuesFound:  len(result.AllIssues),
		ToolsRun:     strings.Join(result.Stats.ToolsRun, ","),
		Decision:     string(result.Event),
		Success:      result.Success,
		ErrorMessage: result.Error,
		StartedAt:    job.CreatedAt,
		CompletedAt:  &now,
		UpdatedAt:    now,
	}
}
