package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antinvestor/reviewbot/internal/orchestrator"
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
	diff    string
	diffErr error
	postErr error
}

func (s *stubForge) FetchDiff(context.Context, string, string, int) (string, error) {
	return s.diff, s.diffErr
}

func (s *stubForge) FetchFileContent(context.Context, string, string, string, string) (string, bool, error) {
	return "", false, nil
}

func (s *stubForge) PostReview(context.Context, string, string, int, orchestrator.ReviewSubmission) error {
	return s.postErr
}

func (s *stubForge) CreateCheckRun(context.Context, string, string, string) (string, error) {
	return "check-1", nil
}

func (s *stubForge) UpdateCheckRun(context.Context, string, string, string, string, string, string) error {
	return nil
}

type stubRecorder struct {
	calls   int
	lastJob orchestrator.ReviewJob
	recErr  error
}

func (r *stubRecorder) Record(_ context.Context, job orchestrator.ReviewJob, _ orchestrator.ReviewResult) error {
	r.calls++
	r.lastJob = job
	return r.recErr
}

func newHandler(forge orchestrator.ForgeClient, recorder Recorder) *Handler {
	o := orchestrator.New(orchestrator.DefaultConfig(), forge, nil, nil, nil, nil)
	return NewHandler(o, recorder)
}

func TestHandle_HappyPathRecordsSuccess(t *testing.T) {
	forge := &stubForge{diff: sampleDiff}
	recorder := &stubRecorder{}
	h := newHandler(forge, recorder)

	job := orchestrator.ReviewJob{ID: "job-1", Owner: "acme", Repo: "widgets", Number: 1, HeadSHA: "sha1"}
	payload, err := json.Marshal(job)
	require.NoError(t, err)

	err = h.Handle(context.Background(), payload)

	require.NoError(t, err)
	assert.Equal(t, 1, recorder.calls)
	assert.Equal(t, "job-1", recorder.lastJob.ID)
}

func TestHandle_MalformedPayloadIsDroppedNotRetried(t *testing.T) {
	h := newHandler(&stubForge{diff: sampleDiff}, nil)

	err := h.Handle(context.Background(), []byte("not json"))

	require.NoError(t, err)
}

func TestHandle_OrchestratorFailureReturnsErrorForRetry(t *testing.T) {
	forge := &stubForge{diffErr: errors.New("network down")}
	recorder := &stubRecorder{}
	h := newHandler(forge, recorder)

	payload, err := json.Marshal(orchestrator.ReviewJob{ID: "job-2"})
	require.NoError(t, err)

	err = h.Handle(context.Background(), payload)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "job-2")
	assert.Equal(t, 1, recorder.calls, "failure is still recorded")
}

func TestHandle_NilRecorderIsSkippedSilently(t *testing.T) {
	h := newHandler(&stubForge{diff: sampleDiff}, nil)

	payload, err := json.Marshal(orchestrator.ReviewJob{ID: "job-3", HeadSHA: "sha"})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		err = h.Handle(context.Background(), payload)
	})
	require.NoError(t, err)
}

func TestHandle_RecorderErrorDoesNotFailTheJob(t *testing.T) {
	forge := &stubForge{diff: sampleDiff}
	recorder := &stubRecorder{recErr: errors.New("db unavailable")}
	h := newHandler(forge, recorder)

	payload, err := json.Marshal(orchestrator.ReviewJob{ID: "job-4", HeadSHA: "sha"})
	require.NoError(t, err)

	err = h.Handle(context.Background(), payload)

	require.NoError(t, err)
}
