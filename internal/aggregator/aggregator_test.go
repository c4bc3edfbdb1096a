package aggregator

import (
	"testing"

	"github.com/antinvestor/reviewbot/internal/issue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkIssue(category issue.Category, subtype string, severity issue.Severity, confidence float64, file string, lineStart, lineEnd int) issue.Issue {
	i := issue.New()
	i.Category = category
	i.Subtype = subtype
	i.Severity = severity
	i.Confidence = confidence
	i.FilePath = file
	i.LineStart = lineStart
	i.LineEnd = lineEnd
	i.Message = "test issue"
	return i
}

func TestAggregate_DedupesByKeyKeepingHigherSeverity(t *testing.T) {
	low := mkIssue(issue.CategorySecurity, "sql-injection-concat", issue.SeverityMedium, 0.7, "a.go", 10, 10)
	high := mkIssue(issue.CategorySecurity, "sql-injection-concat", issue.SeverityHigh, 0.6, "a.go", 10, 10)

	result := Aggregate([]issue.Issue{low, high}, DefaultConfig())

	require.Len(t, result.Filtered, 1)
	assert.Equal(t, issue.SeverityHigh, result.Filtered[0].Severity)
}

func TestAggregate_DedupeTiesBreakByConfidence(t *testing.T) {
	lowConf := mkIssue(issue.CategorySecurity, "sql-injection-concat", issue.SeverityHigh, 0.6, "a.go", 10, 10)
	highConf := mkIssue(issue.CategorySecurity, "sql-injection-concat", issue.SeverityHigh, 0.9, "a.go", 10, 10)

	result := Aggregate([]issue.Issue{lowConf, highConf}, DefaultConfig())

	require.Len(t, result.Filtered, 1)
	assert.Equal(t, 0.9, result.Filtered[0].Confidence)
}

func TestAggregate_DistinctSubtypesDoNotCollide(t *testing.T) {
	a := mkIssue(issue.CategorySecurity, "sql-injection-concat", issue.SeverityHigh, 0.9, "a.go", 10, 10)
	b := mkIssue(issue.CategorySecurity, "xss-innerhtml", issue.SeverityHigh, 0.9, "a.go", 10, 10)

	result := Aggregate([]issue.Issue{a, b}, DefaultConfig())

	assert.Len(t, result.Filtered, 2)
}

func TestAggregate_ConfidenceFilterDrops(t *testing.T) {
	keep := mkIssue(issue.CategoryStyle, "line-length", issue.SeverityLow, 0.8, "a.go", 1, 1)
	drop := mkIssue(issue.CategoryStyle, "trailing-space", issue.SeverityLow, 0.3, "b.go", 2, 2)

	result := Aggregate([]issue.Issue{keep, drop}, Config{ConfidenceThreshold: 0.6, MaxInlineComments: 30})

	require.Len(t, result.Filtered, 1)
	assert.Equal(t, "a.go", result.Filtered[0].FilePath)
}

func TestAggregate_PrioritySortDescending(t *testing.T) {
	lowPriority := mkIssue(issue.CategoryStyle, "line-length", issue.SeverityLow, 0.7, "a.go", 1, 1)
	highPriority := mkIssue(issue.CategorySecurity, "sql-injection-concat", issue.SeverityCritical, 0.9, "b.go", 2, 2)
	midPriority := mkIssue(issue.CategoryCorrectness, "nil-deref", issue.SeverityHigh, 0.8, "c.go", 3, 3)

	result := Aggregate([]issue.Issue{lowPriority, highPriority, midPriority}, Config{ConfidenceThreshold: 0, MaxInlineComments: 30})

	require.Len(t, result.Selected, 3)
	assert.Equal(t, "b.go", result.Selected[0].FilePath)
	assert.Equal(t, "c.go", result.Selected[1].FilePath)
	assert.Equal(t, "a.go", result.Selected[2].FilePath)
}

func TestAggregate_SelectedCappedButFilteredKeepsFullSet(t *testing.T) {
	var issues []issue.Issue
	for i := 0; i < 10; i++ {
		issues = append(issues, mkIssue(issue.CategoryStyle, "style-issue", issue.SeverityLow, 0.9, "a.go", i+1, i+1))
	}

	result := Aggregate(issues, Config{ConfidenceThreshold: 0, MaxInlineComments: 3})

	assert.Len(t, result.Filtered, 10, "risk scoring must see the full filtered set")
	assert.Len(t, result.Selected, 3, "inline comments must be capped at maxInlineComments")
}

func TestAggregate_EmptyInput(t *testing.T) {
	result := Aggregate(nil, DefaultConfig())
	assert.Empty(t, result.Filtered)
	assert.Empty(t, result.Selected)
}

func TestDedupeKey_TruncatesSubtypeTo20Chars(t *testing.T) {
	a := mkIssue(issue.CategorySecurity, "a-very-long-subtype-name-that-exceeds-twenty-chars-variant-one", issue.SeverityHigh, 0.7, "a.go", 1, 1)
	b := mkIssue(issue.CategorySecurity, "a-very-long-subtype-name-that-exceeds-twenty-chars-variant-two", issue.SeverityHigh, 0.9, "a.go", 1, 1)

	result := Aggregate([]issue.Issue{a, b}, Config{ConfidenceThreshold: 0, MaxInlineComments: 30})

	require.Len(t, result.Filtered, 1, "subtype prefixes collide once truncated to 20 chars, per spec")
}
