package issue

import (
	"errors"
	"fmt"
	"regexp"
)

var cweRe = regexp.MustCompile(`^CWE-\d+$`)

var validCategories = map[Category]bool{
	CategorySecurity:        true,
	CategoryCorrectness:     true,
	CategoryPerformance:     true,
	CategoryMaintainability: true,
	CategoryStyle:           true,
	CategoryDependency:      true,
}

var validSeverities = map[Severity]bool{
	SeverityLow:      true,
	SeverityMedium:   true,
	SeverityHigh:     true,
	SeverityCritical: true,
}

// Validate checks every field bound spec.md §3 requires and returns a
// joined error listing every violation found, or nil if the issue is
// well-formed.
func Validate(i Issue) error {
	var errs []error

	if i.ID == "" {
		errs = append(errs, errors.New("id: must not be empty"))
	}
	if !validCategories[i.Category] {
		errs = append(errs, fmt.Errorf("category: invalid value %q", i.Category))
	}
	if len(i.Subtype) > 50 {
		errs = append(errs, fmt.Errorf("subtype: exceeds 50 chars (%d)", len(i.Subtype)))
	}
	if !validSeverities[i.Severity] {
		errs = append(errs, fmt.Errorf("severity: invalid value %q", i.Severity))
	}
	if i.Confidence < 0 || i.Confidence > 1 {
		errs = append(errs, fmt.Errorf("confidence: %v out of [0,1]", i.Confidence))
	}
	if i.FilePath == "" {
		errs = append(errs, errors.New("filePath: must not be empty"))
	}
	if i.LineStart <= 0 {
		errs = append(errs, fmt.Errorf("lineStart: must be positive, got %d", i.LineStart))
	}
	if i.LineEnd <= 0 {
		errs = append(errs, fmt.Errorf("lineEnd: must be positive, got %d", i.LineEnd))
	}
	if i.LineEnd < i.LineStart {
		errs = append(errs, fmt.Errorf("lineEnd (%d) must be >= lineStart (%d)", i.LineEnd, i.LineStart))
	}
	if len(i.Message) < 1 || len(i.Message) > 900 {
		errs = append(errs, fmt.Errorf("message: length %d out of [1,900]", len(i.Message)))
	}
	if len(i.Evidence) > 500 {
		errs = append(errs, fmt.Errorf("evidence: exceeds 500 chars (%d)", len(i.Evidence)))
	}
	if len(i.SuggestedFix) > 500 {
		errs = append(errs, fmt.Errorf("suggestedFix: exceeds 500 chars (%d)", len(i.SuggestedFix)))
	}
	if len(i.Patch) > 2000 {
		errs = append(errs, fmt.Errorf("patch: exceeds 2000 chars (%d)", len(i.Patch)))
	}
	if i.CWE != "" && !cweRe.MatchString(i.CWE) {
		errs = append(errs, fmt.Errorf("cwe: %q does not match CWE-\\d+", i.CWE))
	}
	if len(i.OWASPTag) > 20 {
		errs = append(errs, fmt.Errorf("owaspTag: exceeds 20 chars (%d)", len(i.OWASPTag)))
	}

	return errors.Join(errs...)
}
