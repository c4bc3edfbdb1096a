package tools

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

var eslintConfigNames = []string{
	".eslintrc", ".eslintrc.js", ".eslintrc.cjs", ".eslintrc.json", ".eslintrc.yml", ".eslintrc.yaml",
	"eslint.config.js", "eslint.config.mjs",
}

func hasESLintConfig(workdir string) bool {
	for _, name := range eslintConfigNames {
		if fileExists(filepath.Join(workdir, name)) {
			return true
		}
	}
	return packageJSONHasKey(filepath.Join(workdir, "package.json"), "eslintConfig")
}

var ruffConfigNames = []string{"ruff.toml", ".ruff.toml"}

func hasRuffConfig(workdir string) bool {
	for _, name := range ruffConfigNames {
		if fileExists(filepath.Join(workdir, name)) {
			return true
		}
	}
	return pyprojectHasSection(filepath.Join(workdir, "pyproject.toml"), "[tool.ruff]")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func packageJSONHasKey(path, key string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false
	}
	_, ok := doc[key]
	return ok
}

func pyprojectHasSection(path, marker string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(raw), marker)
}
