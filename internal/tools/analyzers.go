package tools

import (
	"context"
	"os/exec"
	"strconv"
	"time"
)

// baseRunner holds what every analyzer runner needs: the binary it shells
// out to and the sandbox it runs inside.
type baseRunner struct {
	binary  string
	sandbox Sandbox
}

func (b baseRunner) binaryAvailable() bool {
	_, err := exec.LookPath(b.binary)
	return err == nil
}

func effectiveTimeout(cfg RunConfig) time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return DefaultTimeout
}

// ---- ESLint ----

type ESLintRunner struct{ baseRunner }

func NewESLintRunner(sb Sandbox) *ESLintRunner {
	return &ESLintRunner{baseRunner{binary: "eslint", sandbox: sb}}
}

func (r *ESLintRunner) Name() string { return "eslint" }

func (r *ESLintRunner) IsAvailable(ctx context.Context) bool {
	return r.binaryAvailable()
}

func (r *ESLintRunner) Run(ctx context.Context, files []string, workdir string, cfg RunConfig) ToolResult {
	if !hasESLintConfig(workdir) {
		return ToolResult{Tool: r.Name(), Success: true}
	}
	start := time.Now()
	args := append([]string{"-f", "json"}, files...)
	res, err := r.sandbox.Run(ctx, r.binary, args, workdir, effectiveTimeout(cfg))
	if err != nil {
		return runErrorResult(r.Name(), err, time.Since(start))
	}
	issues, err := parseESLint(res.Stdout)
	if err != nil {
		return failed(r.Name(), err, time.Since(start))
	}
	return succeeded(r.Name(), issues, time.Since(start))
}

// ---- Semgrep ----

type SemgrepRunner struct {
	baseRunner
	Rules   string
	Timeout int
}

func NewSemgrepRunner(sb Sandbox, rules string, timeoutSeconds int) *SemgrepRunner {
	if rules == "" {
		rules = "auto"
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 300
	}
	return &SemgrepRunner{baseRunner: baseRunner{binary: "semgrep", sandbox: sb}, Rules: rules, Timeout: timeoutSeconds}
}

func (r *SemgrepRunner) Name() string { return "semgrep" }

func (r *SemgrepRunner) IsAvailable(ctx context.Context) bool { return r.binaryAvailable() }

func (r *SemgrepRunner) Run(ctx context.Context, files []string, workdir string, cfg RunConfig) ToolResult {
	start := time.Now()
	args := []string{
		"--sarif",
		"--config", r.Rules,
		"--timeout", strconv.Itoa(r.Timeout),
		"--max-target-bytes", "1000000",
		"--no-git-ignore",
	}
	args = append(args, files...)

	timeout := effectiveTimeout(cfg)
	ownTimeout := time.Duration(r.Timeout) * time.Second
	if ownTimeout > timeout {
		timeout = ownTimeout
	}

	res, err := r.sandbox.Run(ctx, r.binary, args, workdir, timeout)
	if err != nil {
		return runErrorResult(r.Name(), err, time.Since(start))
	}
	issues, err := parseSemgrepSARIF(res.Stdout)
	if err != nil {
		return failed(r.Name(), err, time.Since(start))
	}
	return succeeded(r.Name(), issues, time.Since(start))
}

// ---- Ruff ----

type RuffRunner struct{ baseRunner }

func NewRuffRunner(sb Sandbox) *RuffRunner { return &RuffRunner{baseRunner{binary: "ruff", sandbox: sb}} }

func (r *RuffRunner) Name() string { return "ruff" }

func (r *RuffRunner) IsAvailable(ctx context.Context) bool { return r.binaryAvailable() }

func (r *RuffRunner) Run(ctx context.Context, files []string, workdir string, cfg RunConfig) ToolResult {
	if !hasRuffConfig(workdir) {
		return ToolResult{Tool: r.Name(), Success: true}
	}
	start := time.Now()
	args := append([]string{"check", "--output-format=json"}, files...)
	res, err := r.sandbox.Run(ctx, r.binary, args, workdir, effectiveTimeout(cfg))
	if err != nil {
		return runErrorResult(r.Name(), err, time.Since(start))
	}
	issues, err := parseRuff(res.Stdout)
	if err != nil {
		return failed(r.Name(), err, time.Since(start))
	}
	return succeeded(r.Name(), issues, time.Since(start))
}

// ---- Bandit ----

type BanditRunner struct{ baseRunner }

func NewBanditRunner(sb Sandbox) *BanditRunner {
	return &BanditRunner{baseRunner{binary: "bandit", sandbox: sb}}
}

func (r *BanditRunner) Name() string { return "bandit" }

func (r *BanditRunner) IsAvailable(ctx context.Context) bool { return r.binaryAvailable() }

func (r *BanditRunner) Run(ctx context.Context, files []string, workdir string, cfg RunConfig) ToolResult {
	start := time.Now()
	args := append([]string{"-f", "json", "-q"}, files...)
	res, err := r.sandbox.Run(ctx, r.binary, args, workdir, effectiveTimeout(cfg))
	if err != nil {
		return runErrorResult(r.Name(), err, time.Since(start))
	}
	issues, err := parseBandit(res.Stdout)
	if err != nil {
		return failed(r.Name(), err, time.Since(start))
	}
	return succeeded(r.Name(), issues, time.Since(start))
}

// ---- gosec ----

type GosecRunner struct{ baseRunner }

func NewGosecRunner(sb Sandbox) *GosecRunner { return &GosecRunner{baseRunner{binary: "gosec", sandbox: sb}} }

func (r *GosecRunner) Name() string { return "gosec" }

func (r *GosecRunner) IsAvailable(ctx context.Context) bool { return r.binaryAvailable() }

func (r *GosecRunner) Run(ctx context.Context, files []string, workdir string, cfg RunConfig) ToolResult {
	start := time.Now()
	args := append([]string{"-fmt", "json"}, files...)
	res, err := r.sandbox.Run(ctx, r.binary, args, workdir, effectiveTimeout(cfg))
	if err != nil {
		return runErrorResult(r.Name(), err, time.Since(start))
	}
	issues, err := parseGosec(res.Stdout)
	if err != nil {
		return failed(r.Name(), err, time.Since(start))
	}
	return succeeded(r.Name(), issues, time.Since(start))
}

// ---- staticcheck ----

type StaticcheckRunner struct{ baseRunner }

func NewStaticcheckRunner(sb Sandbox) *StaticcheckRunner {
	return &StaticcheckRunner{baseRunner{binary: "staticcheck", sandbox: sb}}
}

func (r *StaticcheckRunner) Name() string { return "staticcheck" }

func (r *StaticcheckRunner) IsAvailable(ctx context.Context) bool { return r.binaryAvailable() }

func (r *StaticcheckRunner) Run(ctx context.Context, files []string, workdir string, cfg RunConfig) ToolResult {
	start := time.Now()
	args := []string{"-f", "json", "./..."}
	res, err := r.sandbox.Run(ctx, r.binary, args, workdir, effectiveTimeout(cfg))
	if err != nil {
		return runErrorResult(r.Name(), err, time.Since(start))
	}
	issues, err := parseStaticcheck(res.Stdout)
	if err != nil {
		return failed(r.Name(), err, time.Since(start))
	}
	return succeeded(r.Name(), issues, time.Since(start))
}

// ---- go vet ----

type GoVetRunner struct{ baseRunner }

func NewGoVetRunner(sb Sandbox) *GoVetRunner {
	return &GoVetRunner{baseRunner{binary: "go", sandbox: sb}}
}

func (r *GoVetRunner) Name() string { return "govet" }

func (r *GoVetRunner) IsAvailable(ctx context.Context) bool { return r.binaryAvailable() }

func (r *GoVetRunner) Run(ctx context.Context, files []string, workdir string, cfg RunConfig) ToolResult {
	start := time.Now()
	args := []string{"vet", "-json", "./..."}
	res, err := r.sandbox.Run(ctx, r.binary, args, workdir, effectiveTimeout(cfg))
	if err != nil {
		return runErrorResult(r.Name(), err, time.Since(start))
	}
	issues, err := parseGovet(res.Stderr)
	if err != nil {
		return failed(r.Name(), err, time.Since(start))
	}
	return succeeded(r.Name(), issues, time.Since(start))
}

func runErrorResult(name string, err error, d time.Duration) ToolResult {
	if err == context.DeadlineExceeded {
		return timedOut(name, d)
	}
	if isNotFoundErr(err) {
		return notInstalled(name)
	}
	return failed(name, err, d)
}

func isNotFoundErr(err error) bool {
	var pathErr *exec.Error
	if errAs(err, &pathErr) {
		return true
	}
	return false
}

func errAs(err error, target **exec.Error) bool {
	e, ok := err.(*exec.Error)
	if ok {
		*target = e
	}
	return ok
}
