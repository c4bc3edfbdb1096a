// Package aggregator merges issues from every analysis source (static
// tools, the vulnerability scanner, the LLM analyzer) into the final,
// ranked set a review posts: deduplicated, confidence-filtered, and capped
// to the inline-comment budget while still scoring risk on the full set.
package aggregator

import (
	"sort"
	"strconv"
	"strings"

	"github.com/antinvestor/reviewbot/internal/issue"
)

// severityWeight and categoryWeight mirror the risk package's fixed
// weights exactly; they are duplicated rather than imported because the
// risk package keeps them unexported (they are an implementation detail
// of scoring, not a shared API) and the priority-sort here is a distinct
// concern from risk scoring, even though spec.md reuses the same numbers
// for both.
var severityWeight = map[issue.Severity]float64{
	issue.SeverityLow:      1,
	issue.SeverityMedium:   3,
	issue.SeverityHigh:     7,
	issue.SeverityCritical: 15,
}

var categoryWeight = map[issue.Category]float64{
	issue.CategorySecurity:        4.0,
	issue.CategoryCorrectness:     3.0,
	issue.CategoryDependency:      2.5,
	issue.CategoryPerformance:     2.0,
	issue.CategoryMaintainability: 1.5,
	issue.CategoryStyle:           1.0,
}

var severityRank = map[issue.Severity]int{
	issue.SeverityCritical: 4,
	issue.SeverityHigh:     3,
	issue.SeverityMedium:   2,
	issue.SeverityLow:      1,
}

// Config bounds the aggregation pipeline.
type Config struct {
	ConfidenceThreshold float64
	MaxInlineComments   int
}

// DefaultConfig mirrors the configuration table defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.5,
		MaxInlineComments:   10,
	}
}

// Result is the aggregation pipeline's output: Selected is the capped,
// ranked set to post as inline comments; Filtered is the full
// deduplicated, confidence-filtered set risk scoring runs against.
type Result struct {
	Filtered []issue.Issue
	Selected []issue.Issue
}

// dedupeKey builds the collision key spec.md §4.7 defines:
// filePath:lineStart-lineEnd:category:subtype truncated to 20 chars.
func dedupeKey(i issue.Issue) string {
	subtype := i.Subtype
	if len(subtype) > 20 {
		subtype = subtype[:20]
	}
	var b strings.Builder
	b.WriteString(i.FilePath)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(i.LineStart))
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(i.LineEnd))
	b.WriteByte(':')
	b.WriteString(string(i.Category))
	b.WriteByte(':')
	b.WriteString(subtype)
	return b.String()
}

// higherPriority reports whether candidate should replace incumbent on a
// dedupe-key collision: higher severity wins, ties break by higher
// confidence.
func higherPriority(candidate, incumbent issue.Issue) bool {
	cr, ir := severityRank[candidate.Severity], severityRank[incumbent.Severity]
	if cr != ir {
		return cr > ir
	}
	return candidate.Confidence > incumbent.Confidence
}

// priorityScore is the descending sort key: severityWeight x confidence x
// categoryWeight.
func priorityScore(i issue.Issue) float64 {
	return severityWeight[i.Severity] * i.Confidence * categoryWeight[i.Category]
}

// Aggregate runs the four-stage pipeline spec.md §4.7 defines over issues
// gathered from every source for one job.
func Aggregate(issues []issue.Issue, cfg Config) Result {
	deduped := dedupe(issues)

	filtered := make([]issue.Issue, 0, len(deduped))
	for _, i := range deduped {
		if i.Confidence < cfg.ConfidenceThreshold {
			continue
		}
		filtered = append(filtered, i)
	}

	sorted := make([]issue.Issue, len(filtered))
	copy(sorted, filtered)
	sort.SliceStable(sorted, func(a, b int) bool {
		return priorityScore(sorted[a]) > priorityScore(sorted[b])
	})

	selected := sorted
	if cfg.MaxInlineComments >= 0 && len(selected) > cfg.MaxInlineComments {
		selected = selected[:cfg.MaxInlineComments]
	}

	return Result{Filtered: filtered, Selected: selected}
}

func dedupe(issues []issue.Issue) []issue.Issue {
	best := make(map[string]issue.Issue, len(issues))
	order := make([]string, 0, len(issues))
	for _, i := range issues {
		key := dedupeKey(i)
		existing, ok := best[key]
		if !ok {
			best[key] = i
			order = append(order, key)
			continue
		}
		if higherPriority(i, existing) {
			best[key] = i
		}
	}

	out := make([]issue.Issue, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}
