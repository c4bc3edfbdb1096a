package filter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antinvestor/reviewbot/internal/diffmodel"
	"github.com/antinvestor/reviewbot/internal/filter"
)

func file(path string, added, removed int, binary bool) diffmodel.DiffFile {
	return diffmodel.DiffFile{
		NewPath:      path,
		Kind:         diffmodel.ChangeModify,
		LinesAdded:   added,
		LinesRemoved: removed,
		IsBinary:     binary,
	}
}

func TestCategorize_BuiltinExcludes(t *testing.T) {
	cfg := filter.DefaultConfig()
	files := []diffmodel.DiffFile{
		file("src/main.go", 5, 1, false),
		file("vendor/github.com/foo/bar.go", 5, 1, false),
		file("dist/bundle.min.js", 5, 1, false),
		file("assets/logo.png", 0, 0, true),
		file("CHANGELOG.md", 10, 0, false),
	}
	results := filter.Categorize(files, cfg)

	assert.Equal(t, filter.CategoryReviewable, results[0].Category)
	assert.Equal(t, filter.CategoryExcluded, results[1].Category)
	assert.Equal(t, filter.CategoryExcluded, results[2].Category)
	assert.Equal(t, filter.CategoryExcluded, results[3].Category)
	assert.Equal(t, filter.CategoryExcluded, results[4].Category)
}

func TestCategorize_Lockfiles(t *testing.T) {
	cfg := filter.DefaultConfig()
	files := []diffmodel.DiffFile{
		file("package-lock.json", 100, 5, false),
		file("go.sum", 2, 0, false),
		file("frontend/yarn.lock", 3, 1, false),
	}
	results := filter.Categorize(files, cfg)
	for _, r := range results {
		assert.Equal(t, filter.CategoryLockfile, r.Category)
	}
}

func TestCategorize_IncludeOverridesExclude(t *testing.T) {
	cfg := filter.DefaultConfig()
	cfg.Includes = []string{"vendor/keepme/**"}
	files := []diffmodel.DiffFile{
		file("vendor/keepme/patch.go", 5, 1, false),
		file("vendor/other/skip.go", 5, 1, false),
	}
	results := filter.Categorize(files, cfg)
	assert.Equal(t, filter.CategoryReviewable, results[0].Category)
	assert.Equal(t, filter.CategoryExcluded, results[1].Category)
}

func TestCategorize_MaxLinesExclusion(t *testing.T) {
	cfg := filter.DefaultConfig()
	cfg.MaxLines = 10
	files := []diffmodel.DiffFile{
		file("src/small.go", 3, 2, false),
		file("src/huge.go", 500, 500, false),
	}
	results := filter.Categorize(files, cfg)
	assert.Equal(t, filter.CategoryReviewable, results[0].Category)
	assert.Equal(t, filter.CategoryExcluded, results[1].Category)
}

func TestCategorize_CaseInsensitiveGlob(t *testing.T) {
	cfg := filter.DefaultConfig()
	files := []diffmodel.DiffFile{
		file("Assets/LOGO.PNG", 0, 0, false),
	}
	results := filter.Categorize(files, cfg)
	assert.Equal(t, filter.CategoryExcluded, results[0].Category)
}

func TestLoadAdditional_LayersOnTopOfBuiltins(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "filter.yaml")
	require.NoError(t, os.WriteFile(p, []byte("excludes:\n  - \"**/*.proto\"\nincludes:\n  - \"tools/**\"\n"), 0o600))

	cfg := filter.DefaultConfig()
	before := len(cfg.Excludes)

	cfg, err := filter.LoadAdditional(cfg, p)
	require.NoError(t, err)
	assert.Greater(t, len(cfg.Excludes), before)

	files := []diffmodel.DiffFile{
		file("api/service.proto", 5, 0, false),
		file("vendor/tools/gen.go", 5, 0, false),
	}
	results := filter.Categorize(files, cfg)
	assert.Equal(t, filter.CategoryExcluded, results[0].Category)
	assert.Equal(t, filter.CategoryReviewable, results[1].Category)
}

func TestReviewableAndLockfilesHelpers(t *testing.T) {
	cfg := filter.DefaultConfig()
	files := []diffmodel.DiffFile{
		file("src/a.go", 1, 0, false),
		file("go.sum", 1, 0, false),
		file("vendor/b.go", 1, 0, false),
	}
	results := filter.Categorize(files, cfg)

	assert.Len(t, filter.Reviewable(results), 1)
	assert.Len(t, filter.Lockfiles(results), 1)
}
