// Package risk computes the deterministic 0-100 risk score, level, and
// pass/fail gate for a filtered set of issues.
package risk

import (
	"math"

	"github.com/antinvestor/reviewbot/internal/issue"
)

// Level is a coarse risk bucket derived from the numeric score.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// severityWeight and categoryWeight are fixed per spec: they are never
// configurable, only the normalization denominator and gate are.
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

var categoryOrder = []issue.Category{
	issue.CategorySecurity,
	issue.CategoryCorrectness,
	issue.CategoryDependency,
	issue.CategoryPerformance,
	issue.CategoryMaintainability,
	issue.CategoryStyle,
}

const maxSeverityWeight = 15.0
const maxCategoryWeight = 4.0

// Config controls normalization and the pass/fail gate. Weights
// themselves are fixed.
type Config struct {
	MaxExpectedIssues      int
	Threshold              float64
	FailOnCriticalSecurity bool
}

// DefaultConfig mirrors the worked example in the scoring design: a
// denominator of maxExpectedIssues(20) x 15 x 4.0 = 1200, a gate threshold
// of 85 matching the configuration table's RISK_THRESHOLD default, and a
// fail on any critical security issue regardless of score.
func DefaultConfig() Config {
	return Config{
		MaxExpectedIssues:      20,
		Threshold:              85,
		FailOnCriticalSecurity: true,
	}
}

// CategoryBreakdown is the derived, per-category rollup of a scored issue
// set.
type CategoryBreakdown struct {
	Category          issue.Category
	Count             int
	MaxSeverity       issue.Severity
	ScoreContribution float64
}

// Result is the outcome of scoring an issue set.
type Result struct {
	Score      int
	Level      Level
	Breakdown  []CategoryBreakdown
	GateFailed bool
}

// GetLevel partitions [0,100] into four half-open intervals at 30/60/85.
func GetLevel(score float64) Level {
	switch {
	case score >= 85:
		return LevelCritical
	case score >= 60:
		return LevelHigh
	case score >= 30:
		return LevelMedium
	default:
		return LevelLow
	}
}

func severityRank(s issue.Severity) int {
	switch s {
	case issue.SeverityCritical:
		return 4
	case issue.SeverityHigh:
		return 3
	case issue.SeverityMedium:
		return 2
	case issue.SeverityLow:
		return 1
	default:
		return 0
	}
}

// Score computes the deterministic risk score for issues under cfg. The
// score is monotonic in the issue set: adding any issue cannot decrease
// it, since every per-issue contribution is non-negative.
func Score(issues []issue.Issue, cfg Config) Result {
	contribution := make(map[issue.Category]float64)
	count := make(map[issue.Category]int)
	maxSev := make(map[issue.Category]issue.Severity)

	var raw float64
	for _, iss := range issues {
		c := severityWeight[iss.Severity] * iss.Confidence * categoryWeight[iss.Category]
		raw += c
		contribution[iss.Category] += c
		count[iss.Category]++
		if severityRank(iss.Severity) > severityRank(maxSev[iss.Category]) {
			maxSev[iss.Category] = iss.Severity
		}
	}

	denominator := float64(cfg.MaxExpectedIssues) * maxSeverityWeight * maxCategoryWeight
	normalized := 0.0
	if denominator > 0 {
		normalized = math.Min(100, raw/denominator*100)
	}
	final := math.Min(100, math.Round(normalized*1.1))
	score := int(final)

	gateFailed := final >= cfg.Threshold
	if cfg.FailOnCriticalSecurity {
		for _, iss := range issues {
			if iss.Category == issue.CategorySecurity && iss.Severity == issue.SeverityCritical {
				gateFailed = true
				break
			}
		}
	}

	var breakdown []CategoryBreakdown
	for _, cat := range categoryOrder {
		if count[cat] == 0 {
			continue
		}
		breakdown = append(breakdown, CategoryBreakdown{
			Category:          cat,
			Count:             count[cat],
			MaxSeverity:       maxSev[cat],
			ScoreContribution: contribution[cat],
		})
	}

	return Result{
		Score:      score,
		Level:      GetLevel(final),
		Breakdown:  breakdown,
		GateFailed: gateFailed,
	}
}
