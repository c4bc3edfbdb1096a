// Package issue defines the canonical Issue record produced by every
// analysis source (static tools, the vulnerability scanner, the LLM
// analyzer) and the validation that gates it before it can be aggregated.
package issue

import "github.com/rs/xid"

// Category classifies the kind of problem an Issue reports.
type Category string

const (
	CategorySecurity        Category = "security"
	CategoryCorrectness     Category = "correctness"
	CategoryPerformance     Category = "performance"
	CategoryMaintainability Category = "maintainability"
	CategoryStyle           Category = "style"
	CategoryDependency      Category = "dependency"
)

// Severity is the impact level of an Issue.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Issue is the canonical record every analysis source (static tools, the
// vulnerability scanner, the LLM analyzer) must produce.
type Issue struct {
	ID             string
	Category       Category
	Subtype        string
	Severity       Severity
	Confidence     float64
	FilePath       string
	LineStart      int
	LineEnd        int
	Message        string
	Evidence       string
	SuggestedFix   string
	Patch          string
	CWE            string
	OWASPTag       string
	SourceTool     string
	IsLLMGenerated bool
}

// New returns an Issue with a freshly generated id and IsLLMGenerated
// defaulted to false, ready for callers to fill in the remaining fields.
func New() Issue {
	return Issue{ID: xid.New().String()}
}
