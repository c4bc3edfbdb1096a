package orchestrator

import (
	"fmt"
	"strings"

	"github.com/antinvestor/reviewbot/internal/issue"
	"github.com/antinvestor/reviewbot/internal/risk"
)

// ReviewOutput is the fully rendered artifact for one job: the submission
// posted to the forge, plus a sanitized HTML rendering kept for the audit
// trail.
type ReviewOutput struct {
	Submission ReviewSubmission
	SummaryMD  string
	SummaryHTML string
}

var severityEmoji = map[issue.Severity]string{
	issue.SeverityCritical: "🔴",
	issue.SeverityHigh:     "🟠",
	issue.SeverityMedium:   "🟡",
	issue.SeverityLow:      "⚪",
}

// BuildReviewOutput turns a scored, capped issue set into the review body
// and inline comments actually posted.
func BuildReviewOutput(commitID string, event Event, riskResult risk.Result, selected []issue.Issue, stats Stats) ReviewOutput {
	summary := buildSummary(event, riskResult, selected, stats)

	comments := make([]ReviewComment, 0, len(selected))
	for _, i := range selected {
		comments = append(comments, ReviewComment{
			Path: i.FilePath,
			Line: i.LineEnd,
			Side: "RIGHT",
			Body: buildCommentBody(i),
		})
	}

	return ReviewOutput{
		Submission: ReviewSubmission{
			CommitID: commitID,
			Body:     summary,
			Event:    string(event),
			Comments: comments,
		},
		SummaryMD:   summary,
		SummaryHTML: renderSummaryHTML(summary),
	}
}

func buildSummary(event Event, riskResult risk.Result, selected []issue.Issue, stats Stats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Automated review — risk score %d/100 (%s)\n\n", riskResult.Score, riskResult.Level)

	if len(riskResult.Breakdown) > 0 {
		b.WriteString("| Category | Count | Max severity | Contribution |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, c := range riskResult.Breakdown {
			fmt.Fprintf(&b, "| %s | %d | %s | %.1f |\n", c.Category, c.Count, c.MaxSeverity, c.ScoreContribution)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%d inline comment(s) posted below.\n\n", len(selected))

	if len(stats.ToolsRun) > 0 {
		fmt.Fprintf(&b, "Tools run: %s.\n", strings.Join(stats.ToolsRun, ", "))
	}
	if len(stats.ToolsSkipped) > 0 {
		fmt.Fprintf(&b, "Tools skipped (not installed): %s.\n", strings.Join(stats.ToolsSkipped, ", "))
	}
	if len(stats.ToolsFailed) > 0 {
		fmt.Fprintf(&b, "Tools failed: %s.\n", strings.Join(stats.ToolsFailed, ", "))
	}
	if stats.CVEsFound > 0 {
		fmt.Fprintf(&b, "%d known vulnerability advisory match(es) found in dependency manifests.\n", stats.CVEsFound)
	}

	switch event {
	case EventRequestChanges:
		b.WriteString("\nChanges are requested due to critical-severity findings.\n")
	case EventApprove:
		b.WriteString("\nNo significant issues found.\n")
	}

	return b.String()
}

func buildCommentBody(i issue.Issue) string {
	var b strings.Builder

	emoji := severityEmoji[i.Severity]
	fmt.Fprintf(&b, "%s **%s / %s** (%s, confidence %.0f%%)\n\n", emoji, i.Category, i.Subtype, i.Severity, i.Confidence*100)
	b.WriteString(stripHTML(i.Message))

	if i.Evidence != "" {
		fmt.Fprintf(&b, "\n\n```\n%s\n```", stripHTML(i.Evidence))
	}
	if i.SuggestedFix != "" {
		fmt.Fprintf(&b, "\n\n**Suggested fix:** %s", stripHTML(i.SuggestedFix))
	}
	if i.CWE != "" {
		fmt.Fprintf(&b, "\n\n_%s_", i.CWE)
	}
	if i.SourceTool != "" {
		fmt.Fprintf(&b, " · source: `%s`", i.SourceTool)
	}

	return b.String()
}
