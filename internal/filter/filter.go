// Package filter partitions the files in a parsed diff into reviewable
// source, dependency-manifest lockfiles, and excluded, using a
// configurable glob exclude/include set.
package filter

import (
	"path"

	"github.com/antinvestor/reviewbot/internal/diffmodel"
)

// Category is the partition a file was routed to.
type Category string

const (
	CategoryReviewable Category = "reviewable"
	CategoryLockfile   Category = "lockfile"
	CategoryExcluded   Category = "excluded"
)

// Result pairs a diff file with the partition it was routed to.
type Result struct {
	File     diffmodel.DiffFile
	Category Category
}

// Categorize partitions files according to cfg. Lockfiles are always
// routed to CategoryLockfile regardless of the glob configuration, since
// they feed the vulnerability scanner rather than the reviewable-source
// pipeline.
func Categorize(files []diffmodel.DiffFile, cfg Config) []Result {
	results := make([]Result, 0, len(files))
	for _, f := range files {
		results = append(results, Result{File: f, Category: categorizeOne(f, cfg)})
	}
	return results
}

func categorizeOne(f diffmodel.DiffFile, cfg Config) Category {
	p := f.EffectivePath()
	if isLockfile(path.Base(p)) {
		return CategoryLockfile
	}

	included := matchesAny(cfg.Includes, p)
	excluded := matchesAny(cfg.Excludes, p)

	category := CategoryReviewable
	if excluded && !included {
		category = CategoryExcluded
	}

	if category == CategoryReviewable {
		if cfg.SkipBinary && f.IsBinary {
			return CategoryExcluded
		}
		if cfg.MaxLines > 0 && f.LinesAdded+f.LinesRemoved > cfg.MaxLines {
			return CategoryExcluded
		}
	}

	return category
}

// Reviewable filters results down to just the reviewable-source files.
func Reviewable(results []Result) []diffmodel.DiffFile {
	out := make([]diffmodel.DiffFile, 0, len(results))
	for _, r := range results {
		if r.Category == CategoryReviewable {
			out = append(out, r.File)
		}
	}
	return out
}

// Lockfiles filters results down to just the dependency-manifest files.
func Lockfiles(results []Result) []diffmodel.DiffFile {
	out := make([]diffmodel.DiffFile, 0, len(results))
	for _, r := range results {
		if r.Category == CategoryLockfile {
			out = append(out, r.File)
		}
	}
	return out
}
