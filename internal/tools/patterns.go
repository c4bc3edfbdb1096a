package tools

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/antinvestor/reviewbot/internal/issue"
)

// securityPattern is one regex-based vulnerability signature. Unlike the
// external tool runners, this analyzer needs no binary and no config file
// — it is always available, and exists to catch the well-known injection
// and secret-leak shapes even on a runner with no analyzer stack
// installed at all.
type securityPattern struct {
	Subtype     string
	Pattern     *regexp.Regexp
	Severity    issue.Severity
	CWE         string
	OWASPTag    string
	Description string
	Languages   []string
}

var builtinSecurityPatterns = []securityPattern{
	{
		Subtype:     "sql-injection-concat",
		Pattern:     regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER)\s+.*\+\s*("|')?\s*\w+`),
		Severity:    issue.SeverityCritical,
		CWE:         "CWE-89",
		OWASPTag:    "A03:2021",
		Description: "SQL query built with string concatenation is vulnerable to SQL injection",
	},
	{
		Subtype:     "sql-injection-sprintf",
		Pattern:     regexp.MustCompile(`(?i)(db\.|sql\.).*fmt\.Sprintf.*SELECT|INSERT|UPDATE|DELETE`),
		Severity:    issue.SeverityCritical,
		CWE:         "CWE-89",
		OWASPTag:    "A03:2021",
		Description: "SQL query built with fmt.Sprintf may be vulnerable to SQL injection",
		Languages:   []string{"go"},
	},
	{
		Subtype:     "xss-innerhtml",
		Pattern:     regexp.MustCompile(`\.innerHTML\s*=\s*[^"']+`),
		Severity:    issue.SeverityHigh,
		CWE:         "CWE-79",
		OWASPTag:    "A03:2021",
		Description: "Setting innerHTML with dynamic content can lead to XSS",
		Languages:   []string{"javascript", "typescript"},
	},
	{
		Subtype:     "xss-dangerously-set-innerhtml",
		Pattern:     regexp.MustCompile(`dangerouslySetInnerHTML\s*=\s*\{`),
		Severity:    issue.SeverityMedium,
		CWE:         "CWE-79",
		OWASPTag:    "A03:2021",
		Description: "dangerouslySetInnerHTML can lead to XSS if content is not sanitized",
		Languages:   []string{"javascript", "typescript"},
	},
	{
		Subtype:     "command-injection-exec",
		Pattern:     regexp.MustCompile(`(?i)(exec|system|popen|subprocess\.call|subprocess\.run|os\.system|shell_exec)\s*\([^)]*\+`),
		Severity:    issue.SeverityCritical,
		CWE:         "CWE-78",
		OWASPTag:    "A03:2021",
		Description: "Command execution with dynamic input is vulnerable to command injection",
	},
	{
		Subtype:     "command-injection-shell-true",
		Pattern:     regexp.MustCompile(`subprocess\.(run|call|Popen)\s*\([^)]*shell\s*=\s*True`),
		Severity:    issue.SeverityHigh,
		CWE:         "CWE-78",
		OWASPTag:    "A03:2021",
		Description: "Using shell=True with dynamic input enables command injection",
		Languages:   []string{"python"},
	},
	{
		Subtype:     "path-traversal-user-input",
		Pattern:     regexp.MustCompile(`(?i)(os\.Open|ioutil\.ReadFile|os\.ReadFile|open\(|fopen|file_get_contents)\s*\([^)]*(\+|fmt\.Sprintf|f"|%s)`),
		Severity:    issue.SeverityHigh,
		CWE:         "CWE-22",
		OWASPTag:    "A01:2021",
		Description: "File path built from user input without sanitization",
	},
	{
		Subtype:     "ssrf-user-controlled-url",
		Pattern:     regexp.MustCompile(`(?i)(http\.Get|http\.Post|requests\.get|requests\.post|fetch|axios|urllib\.request)\s*\([^)]*(\+|%s|f"|\${)`),
		Severity:    issue.SeverityHigh,
		CWE:         "CWE-918",
		OWASPTag:    "A10:2021",
		Description: "HTTP request URL built from user input may allow SSRF",
	},
	{
		Subtype:     "hardcoded-password",
		Pattern:     regexp.MustCompile(`(?i)(password|passwd|pwd|secret)\s*[:=]\s*["'][^"']{4,}["']`),
		Severity:    issue.SeverityHigh,
		CWE:         "CWE-798",
		OWASPTag:    "A07:2021",
		Description: "Hardcoded password or secret in source code",
	},
	{
		Subtype:     "weak-crypto-md5",
		Pattern:     regexp.MustCompile(`(?i)(md5|MD5)\s*[.(]`),
		Severity:    issue.SeverityMedium,
		CWE:         "CWE-327",
		OWASPTag:    "A02:2021",
		Description: "MD5 is a weak hash algorithm, vulnerable to collision attacks",
	},
	{
		Subtype:     "weak-crypto-sha1",
		Pattern:     regexp.MustCompile(`(?i)(sha1|SHA1)\s*[.(]`),
		Severity:    issue.SeverityMedium,
		CWE:         "CWE-327",
		OWASPTag:    "A02:2021",
		Description: "SHA1 is a weak hash algorithm, vulnerable to collision attacks",
	},
	{
		Subtype:     "insecure-random",
		Pattern:     regexp.MustCompile(`(?i)math/rand`),
		Severity:    issue.SeverityMedium,
		CWE:         "CWE-330",
		OWASPTag:    "A02:2021",
		Description: "math/rand is not cryptographically secure",
		Languages:   []string{"go"},
	},
	{
		Subtype:     "insecure-deserialize-pickle",
		Pattern:     regexp.MustCompile(`pickle\.(load|loads)\s*\(`),
		Severity:    issue.SeverityCritical,
		CWE:         "CWE-502",
		OWASPTag:    "A08:2021",
		Description: "pickle deserialization of untrusted data can lead to code execution",
		Languages:   []string{"python"},
	},
	{
		Subtype:     "eval-with-user-input",
		Pattern:     regexp.MustCompile(`(?i)\beval\s*\([^)]*(\+|req\.|request\.|input|user)`),
		Severity:    issue.SeverityCritical,
		CWE:         "CWE-94",
		OWASPTag:    "A03:2021",
		Description: "eval() with user input can lead to code injection",
	},
	{
		Subtype:     "insecure-tls-skip-verify",
		Pattern:     regexp.MustCompile(`InsecureSkipVerify\s*:\s*true`),
		Severity:    issue.SeverityHigh,
		CWE:         "CWE-295",
		OWASPTag:    "A07:2021",
		Description: "TLS certificate verification is disabled",
		Languages:   []string{"go"},
	},
}

type secretPattern struct {
	Subtype     string
	Pattern     *regexp.Regexp
	Description string
}

var builtinSecretPatterns = []secretPattern{
	{"aws-access-key", regexp.MustCompile(`(?i)(AKIA|ABIA|ACCA|ASIA)[A-Z0-9]{16}`), "AWS Access Key ID detected"},
	{"github-token", regexp.MustCompile(`(?i)(ghp_[A-Za-z0-9]{36}|gho_[A-Za-z0-9]{36}|ghu_[A-Za-z0-9]{36}|ghs_[A-Za-z0-9]{36}|ghr_[A-Za-z0-9]{36})`), "GitHub personal access token detected"},
	{"google-api-key", regexp.MustCompile(`AIza[A-Za-z0-9_-]{35}`), "Google API Key detected"},
	{"slack-token", regexp.MustCompile(`xox[baprs]-[0-9]{10,13}-[0-9]{10,13}[a-zA-Z0-9-]*`), "Slack token detected"},
	{"stripe-live-key", regexp.MustCompile(`(?i)sk_live_[A-Za-z0-9]{24}`), "Stripe live API key detected"},
	{"private-key", regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY( BLOCK)?-----`), "Private key detected"},
	{"jwt-token", regexp.MustCompile(`eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*`), "JWT token detected in source code"},
	{"database-url", regexp.MustCompile(`(?i)(postgres|mysql|mongodb|redis)://[^:]+:[^@]+@`), "Database connection string with credentials detected"},
}

// PatternRunner is a ToolRunner with no external dependency: it reads
// each file from workdir and matches it against the built-in security and
// secret regex sets. It is always available and is never gated by
// ENABLE_* toggles since it costs nothing to run.
type PatternRunner struct{}

func NewPatternRunner() *PatternRunner { return &PatternRunner{} }

func (p *PatternRunner) Name() string { return "patterns" }

func (p *PatternRunner) IsAvailable(ctx context.Context) bool { return true }

func (p *PatternRunner) Run(ctx context.Context, files []string, workdir string, cfg RunConfig) ToolResult {
	start := time.Now()
	var issues []issue.Issue

	for _, rel := range files {
		content, err := os.ReadFile(filepath.Join(workdir, rel))
		if err != nil {
			continue
		}
		lang := detectFileLanguage(rel)
		issues = append(issues, matchSecurityPatterns(rel, string(content), lang)...)
		issues = append(issues, matchSecretPatterns(rel, string(content))...)
	}

	return succeeded(p.Name(), issues, time.Since(start))
}

func matchSecurityPatterns(path, content, lang string) []issue.Issue {
	var out []issue.Issue
	lines := strings.Split(content, "\n")
	for _, sp := range builtinSecurityPatterns {
		if len(sp.Languages) > 0 && !containsLang(sp.Languages, lang) {
			continue
		}
		for _, idx := range sp.Pattern.FindAllStringIndex(content, -1) {
			line := lineAt(content, idx[0])
			if isCommentOrTestLine(path, lines, line) {
				continue
			}
			i := newIssue("patterns", issue.CategorySecurity, sp.Severity, 0.6, path, line, sp.Description)
			i.Subtype = sp.Subtype
			i.CWE = sp.CWE
			i.OWASPTag = sp.OWASPTag
			i.Evidence = truncate(snippetAt(lines, line), 500)
			out = append(out, i)
		}
	}
	return out
}

func matchSecretPatterns(path, content string) []issue.Issue {
	if isNonCodeFile(path) {
		return nil
	}
	var out []issue.Issue
	for _, sp := range builtinSecretPatterns {
		for _, idx := range sp.Pattern.FindAllStringIndex(content, -1) {
			line := lineAt(content, idx[0])
			matched := content[idx[0]:idx[1]]
			if isTestOrExamplePath(path) {
				continue
			}
			i := newIssue("patterns", issue.CategorySecurity, issue.SeverityCritical, 0.7, path, line, sp.Description)
			i.Subtype = "secret-" + sp.Subtype
			i.Evidence = redactSecret(matched)
			out = append(out, i)
		}
	}
	return out
}

func lineAt(content string, offset int) int {
	line := 1
	for i := 0; i < offset && i < len(content); i++ {
		if content[i] == '\n' {
			line++
		}
	}
	return line
}

func snippetAt(lines []string, line int) string {
	idx := line - 1
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[idx])
}

func isCommentOrTestLine(path string, lines []string, line int) bool {
	if strings.Contains(path, "_test.") || strings.Contains(path, ".test.") || strings.Contains(path, "/test/") || strings.Contains(path, "/tests/") {
		return true
	}
	trimmed := snippetAt(lines, line)
	return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*")
}

func isNonCodeFile(path string) bool {
	for _, ext := range []string{".md", ".txt", ".json", ".yaml", ".yml", ".xml", ".csv", ".lock"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func isTestOrExamplePath(path string) bool {
	lower := strings.ToLower(path)
	for _, marker := range []string{"test", "example", "sample", "mock", "fixture"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func redactSecret(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func containsLang(langs []string, lang string) bool {
	for _, l := range langs {
		if l == lang {
			return true
		}
	}
	return false
}

func detectFileLanguage(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".go"):
		return "go"
	case strings.HasSuffix(lower, ".py"):
		return "python"
	case strings.HasSuffix(lower, ".js"), strings.HasSuffix(lower, ".jsx"):
		return "javascript"
	case strings.HasSuffix(lower, ".ts"), strings.HasSuffix(lower, ".tsx"):
		return "typescript"
	case strings.HasSuffix(lower, ".rb"):
		return "ruby"
	case strings.HasSuffix(lower, ".java"):
		return "java"
	default:
		return "unknown"
	}
}
