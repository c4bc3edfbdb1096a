package tools

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pitabwire/util"
)

// WorkdirManager materializes the files a review job needs on disk so
// static analyzers can run against them, and reclaims that space once the
// job is done. Every workdir lives under basePath/<jobID> and is never
// shared between jobs.
type WorkdirManager struct {
	basePath string
	maxAge   time.Duration
}

// NewWorkdirManager builds a manager rooted at basePath. maxAge bounds how
// long an unreaped directory (left behind by a crashed worker) is allowed
// to live before Sweep removes it.
func NewWorkdirManager(basePath string, maxAge time.Duration) *WorkdirManager {
	if maxAge <= 0 {
		maxAge = 6 * time.Hour
	}
	return &WorkdirManager{basePath: basePath, maxAge: maxAge}
}

// Create allocates a fresh, empty directory for jobID.
func (m *WorkdirManager) Create(jobID string) (string, error) {
	dir := filepath.Join(m.basePath, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// WriteFile writes content at relPath inside workdir, creating any
// intermediate directories the relative path implies.
func (m *WorkdirManager) WriteFile(workdir, relPath string, content []byte) error {
	full := filepath.Join(workdir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, content, 0o644)
}

// Cleanup removes a single job's workdir. Called unconditionally once a
// job reaches a terminal state, success or failure.
func (m *WorkdirManager) Cleanup(workdir string) error {
	return os.RemoveAll(workdir)
}

// Sweep removes any workdir directory older than maxAge — the safety net
// for jobs whose worker process died before it could call Cleanup.
func (m *WorkdirManager) Sweep(ctx context.Context) (int, error) {
	log := util.Log(ctx)

	entries, err := os.ReadDir(m.basePath)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) <= m.maxAge {
			continue
		}
		dir := filepath.Join(m.basePath, entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			log.WithError(err).Warn("failed to sweep stale workdir", "path", dir)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Info("swept stale review workdirs", "count", removed)
	}
	return removed, nil
}
