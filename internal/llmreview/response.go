package llmreview

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/antinvestor/reviewbot/internal/chunker"
	"github.com/antinvestor/reviewbot/internal/issue"
)

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJSON locates the JSON object in a raw model response: a fenced
// code block first, else the first brace-delimited substring, else the
// whole response.
func extractJSON(raw string) string {
	if m := fencedJSONRe.FindStringSubmatch(raw); len(m) == 2 {
		return m[1]
	}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			return raw[start : end+1]
		}
	}
	return raw
}

type rawIssue struct {
	Category     string  `json:"category"`
	Subtype      string  `json:"subtype"`
	Severity     string  `json:"severity"`
	Confidence   float64 `json:"confidence"`
	FilePath     string  `json:"file_path"`
	LineStart    int     `json:"line_start"`
	LineEnd      int     `json:"line_end"`
	Message      string  `json:"message"`
	Evidence     string  `json:"evidence"`
	SuggestedFix string  `json:"suggested_fix"`
	Patch        string  `json:"patch"`
	CWE          string  `json:"cwe"`
	OWASPTag     string  `json:"owasp_tag"`
}

type rawResponse struct {
	Issues []rawIssue `json:"issues"`
}

// parseResponse parses the model's raw text into validated Issues scoped
// to the files actually present in chunk. On any parse failure it returns
// zero issues, never an error — a malformed LLM response degrades this
// chunk's evidence, it never fails the job.
func parseResponse(raw, providerTag string, chunk chunker.Chunk) []issue.Issue {
	candidate := extractJSON(raw)

	var parsed rawResponse
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil
	}

	var out []issue.Issue
	for _, ri := range parsed.Issues {
		if !filePathInChunk(ri.FilePath, chunk.FilePaths) {
			continue
		}
		i := issue.New()
		i.Category = issue.Category(ri.Category)
		i.Subtype = ri.Subtype
		i.Severity = issue.Severity(ri.Severity)
		i.Confidence = ri.Confidence
		i.FilePath = ri.FilePath
		i.LineStart = ri.LineStart
		i.LineEnd = ri.LineEnd
		i.Message = ri.Message
		i.Evidence = ri.Evidence
		i.SuggestedFix = ri.SuggestedFix
		i.Patch = ri.Patch
		i.CWE = ri.CWE
		i.OWASPTag = ri.OWASPTag
		i.SourceTool = "llm[-" + providerTag + "]"
		i.IsLLMGenerated = true

		if issue.Validate(i) != nil {
			continue
		}
		out = append(out, i)
	}
	return out
}

// filePathInChunk defends against the model hallucinating a file outside
// the chunk it was given: the reported path must substring-match, in
// either direction, at least one path actually present in the chunk.
func filePathInChunk(reported string, chunkPaths []string) bool {
	if reported == "" {
		return false
	}
	for _, p := range chunkPaths {
		if strings.Contains(p, reported) || strings.Contains(reported, p) {
			return true
		}
	}
	return false
}
