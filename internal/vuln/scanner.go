package vuln

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/antinvestor/reviewbot/internal/issue"
)

const maxPackagesPerScan = 50

// Config parameterizes the scanner.
type Config struct {
	OSVURL     string
	HTTPClient *http.Client
}

// DefaultConfig points at the public OSV query endpoint with a
// conservative client timeout.
func DefaultConfig() Config {
	return Config{
		OSVURL:     "https://api.osv.dev",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Scanner queries a vulnerability database for each extracted Package.
// A circuit breaker wraps the outbound calls: once the database starts
// failing consistently, the scanner stops hammering it for the rest of
// the job and simply returns empty results, consistent with "network
// errors yield empty result — never fatal."
type Scanner struct {
	cfg     Config
	breaker *gobreaker.CircuitBreaker[*osvResponse]
}

func NewScanner(cfg Config) *Scanner {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = DefaultConfig().HTTPClient
	}
	if cfg.OSVURL == "" {
		cfg.OSVURL = DefaultConfig().OSVURL
	}
	settings := gobreaker.Settings{
		Name:        "osv-query",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Scanner{
		cfg:     cfg,
		breaker: gobreaker.NewCircuitBreaker[*osvResponse](settings),
	}
}

type osvQuery struct {
	Package osvPackage `json:"package"`
	Version string     `json:"version,omitempty"`
}

type osvPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

type osvResponse struct {
	Vulns []osvVuln `json:"vulns"`
}

type osvVuln struct {
	ID       string        `json:"id"`
	Summary  string        `json:"summary"`
	Details  string        `json:"details"`
	Severity []osvSeverity `json:"severity"`
}

type osvSeverity struct {
	Type  string `json:"type"`
	Score string `json:"score"`
}

// Scan queries the vulnerability DB for up to the first 50 packages and
// converts every returned advisory into a canonical Issue. Any per-package
// network error is swallowed; the scanner never fails the job.
func (s *Scanner) Scan(ctx context.Context, packages []Package) []issue.Issue {
	if len(packages) > maxPackagesPerScan {
		packages = packages[:maxPackagesPerScan]
	}

	var mu sync.Mutex
	var issues []issue.Issue
	var wg sync.WaitGroup

	for _, pkg := range packages {
		pkg := pkg
		wg.Add(1)
		go func() {
			defer wg.Done()
			found := s.queryOne(ctx, pkg)
			if len(found) == 0 {
				return
			}
			mu.Lock()
			issues = append(issues, found...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return issues
}

func (s *Scanner) queryOne(ctx context.Context, pkg Package) []issue.Issue {
	resp, err := s.breaker.Execute(func() (*osvResponse, error) {
		return s.query(ctx, pkg)
	})
	if err != nil || resp == nil {
		return nil
	}

	var out []issue.Issue
	for _, v := range resp.Vulns {
		out = append(out, vulnToIssue(pkg, v))
	}
	return out
}

func (s *Scanner) query(ctx context.Context, pkg Package) (*osvResponse, error) {
	body, err := json.Marshal(osvQuery{
		Package: osvPackage{Name: pkg.Name, Ecosystem: string(pkg.Ecosystem)},
		Version: pkg.CleanedVersion,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.OSVURL+"/v1/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osv query: unexpected status %d", resp.StatusCode)
	}

	var out osvResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func vulnToIssue(pkg Package, v osvVuln) issue.Issue {
	i := issue.New()
	i.Category = issue.CategoryDependency
	i.Confidence = 0.95
	i.Severity = severityFromVuln(v)
	i.FilePath = pkg.Name
	i.LineStart, i.LineEnd = 1, 1
	i.Subtype = v.ID
	i.SourceTool = "osv"

	summary := v.Summary
	if summary == "" {
		summary = v.ID
	}
	i.Message = truncate(fmt.Sprintf("%s: %s (%s@%s)", v.ID, summary, pkg.Name, pkg.CleanedVersion), 900)
	i.Evidence = truncate(v.Details, 200)
	return i
}

func severityFromVuln(v osvVuln) issue.Severity {
	if len(v.Severity) == 0 {
		return issue.SeverityMedium
	}
	score, ok := parseCVSSScore(v.Severity[0].Score)
	if !ok {
		return issue.SeverityMedium
	}
	switch {
	case score >= 9:
		return issue.SeverityCritical
	case score >= 7:
		return issue.SeverityHigh
	case score >= 4:
		return issue.SeverityMedium
	default:
		return issue.SeverityLow
	}
}

func parseCVSSScore(raw string) (float64, bool) {
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return score, true
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
