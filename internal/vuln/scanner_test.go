package vuln

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antinvestor/reviewbot/internal/issue"
)

func TestScanner_Scan_ReturnsIssuesForVulnerablePackage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var q osvQuery
		_ = json.NewDecoder(r.Body).Decode(&q)
		resp := osvResponse{}
		if q.Package.Name == "vulnerable-pkg" {
			resp.Vulns = []osvVuln{{ID: "GHSA-xxxx", Summary: "bad thing", Details: "details here", Severity: []osvSeverity{{Type: "CVSS_V3", Score: "9.8"}}}}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	s := NewScanner(Config{OSVURL: srv.URL, HTTPClient: srv.Client()})
	pkgs := []Package{
		{Name: "vulnerable-pkg", CleanedVersion: "1.0.0", Ecosystem: EcosystemNPM},
		{Name: "clean-pkg", CleanedVersion: "2.0.0", Ecosystem: EcosystemNPM},
	}
	issues := s.Scan(context.Background(), pkgs)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.CategoryDependency, issues[0].Category)
	assert.Equal(t, issue.SeverityCritical, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "GHSA-xxxx")
	assert.Contains(t, issues[0].Message, "vulnerable-pkg@1.0.0")
}

func TestScanner_Scan_CapsAt50Packages(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		_ = json.NewEncoder(w).Encode(osvResponse{})
	}))
	defer srv.Close()

	s := NewScanner(Config{OSVURL: srv.URL, HTTPClient: srv.Client()})
	var pkgs []Package
	for i := 0; i < 80; i++ {
		pkgs = append(pkgs, Package{Name: "pkg", CleanedVersion: "1.0.0", Ecosystem: EcosystemNPM})
	}
	s.Scan(context.Background(), pkgs)
	assert.LessOrEqual(t, int(received.Load()), 50)
}

func TestScanner_Scan_NetworkErrorYieldsEmpty(t *testing.T) {
	s := NewScanner(Config{OSVURL: "http://127.0.0.1:1", HTTPClient: &http.Client{Timeout: 200 * time.Millisecond}})
	issues := s.Scan(context.Background(), []Package{{Name: "x", CleanedVersion: "1.0.0", Ecosystem: EcosystemNPM}})
	assert.Empty(t, issues)
}

func TestSeverityFromVuln_Mapping(t *testing.T) {
	assert.Equal(t, issue.SeverityCritical, severityFromVuln(osvVuln{Severity: []osvSeverity{{Score: "9.1"}}}))
	assert.Equal(t, issue.SeverityHigh, severityFromVuln(osvVuln{Severity: []osvSeverity{{Score: "7.5"}}}))
	assert.Equal(t, issue.SeverityMedium, severityFromVuln(osvVuln{Severity: []osvSeverity{{Score: "4.0"}}}))
	assert.Equal(t, issue.SeverityLow, severityFromVuln(osvVuln{Severity: []osvSeverity{{Score: "1.0"}}}))
	assert.Equal(t, issue.SeverityMedium, severityFromVuln(osvVuln{}))
}
