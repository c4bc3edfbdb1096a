package webhookingress

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antinvestor/reviewbot/internal/orchestrator"
)

const secret = "s3cr3t"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_ValidMatches(t *testing.T) {
	body := []byte(`{"a":1}`)
	assert.True(t, VerifySignature(secret, body, sign(body)))
}

func TestVerifySignature_WrongSecretFails(t *testing.T) {
	body := []byte(`{"a":1}`)
	mac := hmac.New(sha256.New, []byte("other"))
	mac.Write(body)
	bad := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	assert.False(t, VerifySignature(secret, body, bad))
}

func TestVerifySignature_MissingHeaderFails(t *testing.T) {
	assert.False(t, VerifySignature(secret, []byte("x"), ""))
}

func TestVerifySignature_WrongPrefixFails(t *testing.T) {
	assert.False(t, VerifySignature(secret, []byte("x"), "sha1=deadbeef"))
}

func TestVerifySignature_NonHexFails(t *testing.T) {
	assert.False(t, VerifySignature(secret, []byte("x"), "sha256=zz"))
}

type stubEnqueuer struct {
	jobs []orchestrator.ReviewJob
	err  error
}

func (s *stubEnqueuer) Enqueue(_ context.Context, job orchestrator.ReviewJob) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func prPayload(action string, draft bool, installationID int64) []byte {
	p := map[string]any{
		"action": action,
		"number": 42,
		"pull_request": map[string]any{
			"number": 42,
			"draft":  draft,
			"title":  "add feature",
			"body":   "does a thing",
			"head":   map[string]any{"sha": "abc123"},
		},
		"repository": map[string]any{
			"name":  "widgets",
			"owner": map[string]any{"login": "acme"},
		},
		"installation": map[string]any{"id": installationID},
	}
	data, _ := json.Marshal(p)
	return data
}

func doRequest(t *testing.T, ig *Ingress, body []byte, eventType string, withSig bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
	if eventType != "" {
		req.Header.Set("X-GitHub-Event", eventType)
	}
	if withSig {
		req.Header.Set("X-Hub-Signature-256", sign(body))
	}
	rec := httptest.NewRecorder()
	ig.ServeHTTP(rec, req)
	return rec
}

func TestIngress_HappyPathEnqueuesAndReturns202(t *testing.T) {
	q := &stubEnqueuer{}
	ig := New(Config{Secret: secret}, q)
	body := prPayload("opened", false, 99)

	rec := doRequest(t, ig, body, "pull_request", true)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, q.jobs, 1)
	job := q.jobs[0]
	assert.Equal(t, "acme", job.Owner)
	assert.Equal(t, "widgets", job.Repo)
	assert.Equal(t, 42, job.Number)
	assert.Equal(t, "abc123", job.HeadSHA)
	assert.Equal(t, int64(99), job.InstallationID)
	assert.NotEmpty(t, job.ID)
}

func TestIngress_InvalidSignatureReturns401(t *testing.T) {
	q := &stubEnqueuer{}
	ig := New(Config{Secret: secret}, q)
	body := prPayload("opened", false, 99)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
	req.Header.Set("X-GitHub-Event", "pull_request")
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
	rec := httptest.NewRecorder()
	ig.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, q.jobs)
}

func TestIngress_NonPullRequestEventIgnored(t *testing.T) {
	q := &stubEnqueuer{}
	ig := New(Config{Secret: secret}, q)
	body := []byte(`{}`)

	rec := doRequest(t, ig, body, "push", true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, q.jobs)
}

func TestIngress_UnrecognizedActionIgnored(t *testing.T) {
	q := &stubEnqueuer{}
	ig := New(Config{Secret: secret}, q)
	body := prPayload("labeled", false, 99)

	rec := doRequest(t, ig, body, "pull_request", true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, q.jobs)
}

func TestIngress_DraftPullRequestIgnored(t *testing.T) {
	q := &stubEnqueuer{}
	ig := New(Config{Secret: secret}, q)
	body := prPayload("opened", true, 99)

	rec := doRequest(t, ig, body, "pull_request", true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, q.jobs)
}

func TestIngress_MissingInstallationReturns400(t *testing.T) {
	q := &stubEnqueuer{}
	ig := New(Config{Secret: secret}, q)
	body := prPayload("opened", false, 0)

	rec := doRequest(t, ig, body, "pull_request", true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, q.jobs)
}

func TestIngress_MalformedJSONReplacedWithEmptyObjectIgnored(t *testing.T) {
	q := &stubEnqueuer{}
	ig := New(Config{Secret: secret}, q)
	body := []byte(`{not valid json`)

	rec := doRequest(t, ig, body, "pull_request", true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, q.jobs)
}

func TestIngress_EnqueueFailureStillReturns202(t *testing.T) {
	q := &stubEnqueuer{err: assertError{"queue down"}}
	ig := New(Config{Secret: secret}, q)
	body := prPayload("opened", false, 99)

	rec := doRequest(t, ig, body, "pull_request", true)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestIngress_RequestIDPropagatedFromHeader(t *testing.T) {
	q := &stubEnqueuer{}
	ig := New(Config{Secret: secret}, q)
	body := prPayload("opened", false, 99)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
	req.Header.Set("X-GitHub-Event", "pull_request")
	req.Header.Set("X-Hub-Signature-256", sign(body))
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()
	ig.ServeHTTP(rec, req)

	require.Len(t, q.jobs, 1)
	assert.Equal(t, "req-abc", q.jobs[0].RequestID)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
