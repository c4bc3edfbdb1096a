package filter

import (
	"os"

	"gopkg.in/yaml.v3"
)

// lockfileNames is the enumerated set of dependency-manifest lockfiles
// routed to the lockfiles partition instead of being excluded, so the
// vulnerability scanner can still see them.
var lockfileNames = map[string]bool{
	"package-lock.json": true,
	"pnpm-lock.yaml":    true,
	"yarn.lock":         true,
	"poetry.lock":       true,
	"Pipfile.lock":      true,
	"go.sum":            true,
	"Cargo.lock":        true,
	"Gemfile.lock":      true,
	"composer.lock":     true,
}

// builtinExcludes covers generated files, build outputs, vendor
// directories, minified/bundled assets, binary assets, IDE metadata, and
// CHANGELOG files.
var builtinExcludes = []string{
	"**/vendor/**",
	"**/node_modules/**",
	"**/dist/**",
	"**/build/**",
	"**/out/**",
	"**/.git/**",
	"**/.idea/**",
	"**/.vscode/**",
	"**/*.min.js",
	"**/*.min.css",
	"**/*.bundle.js",
	"**/*.map",
	"**/*.generated.go",
	"**/*.pb.go",
	"**/*_pb2.py",
	"**/*.png",
	"**/*.jpg",
	"**/*.jpeg",
	"**/*.gif",
	"**/*.ico",
	"**/*.svg",
	"**/*.woff",
	"**/*.woff2",
	"**/*.ttf",
	"**/*.eot",
	"**/*.pdf",
	"**/*.zip",
	"**/*.tar.gz",
	"**/*.jar",
	"CHANGELOG*",
	"**/CHANGELOG*",
}

// Config configures the file filter. Excludes and Includes are glob
// patterns as defined by matchGlob; Includes override Excludes.
type Config struct {
	Excludes   []string
	Includes   []string
	SkipBinary bool
	MaxLines   int
}

// DefaultConfig returns the built-in exclude set with binary skipping
// enabled and a generous per-file line-change cap.
func DefaultConfig() Config {
	return Config{
		Excludes:   append([]string(nil), builtinExcludes...),
		SkipBinary: true,
		MaxLines:   2000,
	}
}

// additionalPatterns is the shape of the optional FILTER_CONFIG_PATH YAML
// file: extra patterns layered on top of, never replacing, the built-in
// excludes.
type additionalPatterns struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// LoadAdditional reads a YAML file of extra include/exclude glob patterns
// and layers them onto cfg.
func LoadAdditional(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var extra additionalPatterns
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return cfg, err
	}
	cfg.Excludes = append(cfg.Excludes, extra.Excludes...)
	cfg.Includes = append(cfg.Includes, extra.Includes...)
	return cfg, nil
}

func isLockfile(basename string) bool {
	return lockfileNames[basename]
}
