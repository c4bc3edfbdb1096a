package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antinvestor/reviewbot/internal/issue"
)

func TestParseESLint(t *testing.T) {
	raw := `[{"filePath":"src/a.js","messages":[
		{"ruleId":"no-unused-vars","severity":2,"message":"unused var x","line":10},
		{"ruleId":"no-eval","severity":1,"message":"eval used","line":20},
		{"ruleId":null,"severity":2,"message":"parsing error","line":1}
	]}]`
	issues, err := parseESLint([]byte(raw))
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, issue.CategoryCorrectness, issues[0].Category)
	assert.Equal(t, issue.SeverityMedium, issues[0].Severity)
	assert.Equal(t, issue.CategorySecurity, issues[1].Category)
	assert.Equal(t, issue.SeverityLow, issues[1].Severity)
}

func TestParseSemgrepSARIF(t *testing.T) {
	raw := `{"runs":[{"results":[
		{"ruleId":"python.sqli.rule","message":{"text":"sql injection"},
		 "locations":[{"physicalLocation":{"artifactLocation":{"uri":"a.py"},"region":{"startLine":5,"endLine":6}}}]}
	]}]}`
	issues, err := parseSemgrepSARIF([]byte(raw))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.CategorySecurity, issues[0].Category)
	assert.Equal(t, "a.py", issues[0].FilePath)
	assert.Equal(t, 5, issues[0].LineStart)
}

func TestParseRuff(t *testing.T) {
	raw := `[{"code":"S101","message":"assert used","filename":"a.py","location":{"row":3}},
	 {"code":"E501","message":"line too long","filename":"a.py","location":{"row":4}}]`
	issues, err := parseRuff([]byte(raw))
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, issue.CategorySecurity, issues[0].Category)
	assert.Equal(t, issue.CategoryCorrectness, issues[1].Category)
}

func TestParseBandit(t *testing.T) {
	raw := `{"results":[{"filename":"a.py","issue_confidence":"HIGH","issue_severity":"HIGH",
	  "issue_text":"hardcoded sql","line_number":8,"test_id":"B608","issue_cwe":{"id":89}}]}`
	issues, err := parseBandit([]byte(raw))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.SeverityHigh, issues[0].Severity)
	assert.InDelta(t, 0.9, issues[0].Confidence, 0.001)
	assert.Equal(t, "CWE-89", issues[0].CWE)
}

func TestParseGosec(t *testing.T) {
	raw := `{"Issues":[{"severity":"MEDIUM","confidence":"HIGH","rule_id":"G201",
	  "details":"sql format string","file":"a.go","line":"12-13","cwe":{"id":"89"}}]}`
	issues, err := parseGosec([]byte(raw))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.SeverityMedium, issues[0].Severity)
	assert.Equal(t, 12, issues[0].LineStart)
	assert.Equal(t, "CWE-89", issues[0].CWE)
}

func TestParseStaticcheck(t *testing.T) {
	raw := "{\"code\":\"SA4006\",\"severity\":\"error\",\"location\":{\"file\":\"a.go\",\"line\":10},\"message\":\"unused\"}\n" +
		"{\"code\":\"ST1003\",\"severity\":\"warning\",\"location\":{\"file\":\"b.go\",\"line\":2},\"message\":\"naming\"}\n"
	issues, err := parseStaticcheck([]byte(raw))
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, issue.CategorySecurity, issues[0].Category)
	assert.Equal(t, issue.SeverityHigh, issues[0].Severity)
	assert.Equal(t, issue.CategoryStyle, issues[1].Category)
}

func TestParseGovet(t *testing.T) {
	raw := `{"pkg/a":{"printf":[{"posn":"pkg/a/main.go:12:5","message":"arg mismatch"}]}}`
	issues, err := parseGovet([]byte(raw))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.CategoryCorrectness, issues[0].Category)
	assert.Equal(t, "pkg/a/main.go", issues[0].FilePath)
	assert.Equal(t, 12, issues[0].LineStart)
}
