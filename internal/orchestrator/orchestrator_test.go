package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/antinvestor/reviewbot/internal/issue"
	"github.com/antinvestor/reviewbot/internal/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
 package main
+
 func main() {}
`

type stubForge struct {
	diff          string
	diffErr       error
	fileContents  map[string]string
	postedReviews []ReviewSubmission
	postErr       error
}

func (s *stubForge) FetchDiff(_ context.Context, _, _ string, _ int) (string, error) {
	return s.diff, s.diffErr
}

func (s *stubForge) FetchFileContent(_ context.Context, _, _, path, _ string) (string, bool, error) {
	content, ok := s.fileContents[path]
	return content, ok, nil
}

func (s *stubForge) PostReview(_ context.Context, _, _ string, _ int, submission ReviewSubmission) error {
	if s.postErr != nil {
		return s.postErr
	}
	s.postedReviews = append(s.postedReviews, submission)
	return nil
}

func (s *stubForge) CreateCheckRun(_ context.Context, _, _, _ string) (string, error) {
	return "check-1", nil
}

func (s *stubForge) UpdateCheckRun(_ context.Context, _, _, _, _, _, _ string) error {
	return nil
}

func TestOrchestrator_Run_PostsReviewOnHappyPath(t *testing.T) {
	forge := &stubForge{diff: sampleDiff}
	o := New(DefaultConfig(), forge, nil, nil, nil, nil)

	job := ReviewJob{ID: "job-1", Owner: "acme", Repo: "widgets", Number: 42, HeadSHA: "abc123", Title: "add feature"}
	result := o.Run(context.Background(), job)

	require.True(t, result.Success)
	assert.Equal(t, StateDone, result.FinalState)
	require.Len(t, forge.postedReviews, 1)
	assert.Equal(t, "abc123", forge.postedReviews[0].CommitID)
}

func TestOrchestrator_Run_DiffFetchFailureAborts(t *testing.T) {
	forge := &stubForge{diffErr: errors.New("network down")}
	o := New(DefaultConfig(), forge, nil, nil, nil, nil)

	result := o.Run(context.Background(), ReviewJob{ID: "job-2"})

	assert.False(t, result.Success)
	assert.Equal(t, StateReceived, result.FinalState)
	assert.Contains(t, result.Error, "network down")
	assert.Empty(t, forge.postedReviews)
}

func TestOrchestrator_Run_PostFailureAborts(t *testing.T) {
	forge := &stubForge{diff: sampleDiff, postErr: errors.New("github unavailable")}
	o := New(DefaultConfig(), forge, nil, nil, nil, nil)

	result := o.Run(context.Background(), ReviewJob{ID: "job-3", HeadSHA: "sha"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "github unavailable")
}

func TestOrchestrator_Run_ZeroReviewableFilesPostsApprove(t *testing.T) {
	onlyExcluded := `diff --git a/vendor/lib.go b/vendor/lib.go
index 1111111..2222222 100644
--- a/vendor/lib.go
+++ b/vendor/lib.go
@@ -1,1 +1,2 @@
 package lib
+// noop
`
	forge := &stubForge{diff: onlyExcluded}
	o := New(DefaultConfig(), forge, nil, nil, nil, nil)

	result := o.Run(context.Background(), ReviewJob{ID: "job-4", HeadSHA: "sha"})

	require.True(t, result.Success)
	assert.Equal(t, EventApprove, result.Event)
	require.Len(t, forge.postedReviews, 1)
	assert.Equal(t, "APPROVE", forge.postedReviews[0].Event)
}

func TestDecideEvent_CriticalRiskRequestsChanges(t *testing.T) {
	event := decideEvent(risk.Result{Level: risk.LevelCritical, Score: 90}, nil)
	assert.Equal(t, EventRequestChanges, event)
}

func TestDecideEvent_LowRiskNoCommentsApproves(t *testing.T) {
	event := decideEvent(risk.Result{Level: risk.LevelLow, Score: 5}, nil)
	assert.Equal(t, EventApprove, event)
}

func TestDecideEvent_LowRiskWithCommentsIsComment(t *testing.T) {
	selected := []issue.Issue{{}}
	event := decideEvent(risk.Result{Level: risk.LevelLow, Score: 5}, selected)
	assert.Equal(t, EventComment, event)
}

func TestDecideEvent_MediumRiskIsComment(t *testing.T) {
	event := decideEvent(risk.Result{Level: risk.LevelMedium, Score: 45}, nil)
	assert.Equal(t, EventComment, event)
}

func TestBuildReviewOutput_IncludesInlineCommentsAndSanitizesHTML(t *testing.T) {
	i := issue.New()
	i.Category = issue.CategorySecurity
	i.Subtype = "sql-injection-concat"
	i.Severity = issue.SeverityHigh
	i.Confidence = 0.9
	i.FilePath = "a.go"
	i.LineStart = 10
	i.LineEnd = 10
	i.Message = "<script>alert(1)</script> SQL built via concatenation"
	i.SourceTool = "gosec"

	riskResult := risk.Result{Score: 70, Level: risk.LevelHigh}
	output := BuildReviewOutput("sha1", EventComment, riskResult, []issue.Issue{i}, Stats{})

	require.Len(t, output.Submission.Comments, 1)
	assert.NotContains(t, output.Submission.Comments[0].Body, "<script>")
	assert.Contains(t, output.SummaryMD, "70/100")
	assert.NotEmpty(t, output.SummaryHTML)
}

func TestStripHTML_RemovesMarkup(t *testing.T) {
	assert.Equal(t, "alert(1)", stripHTML("<script>alert(1)</script>"))
}
