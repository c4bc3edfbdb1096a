// Package chunker splits a parsed diff into LLM-sized work units that
// respect file boundaries, a token budget, and a per-chunk file-count cap.
package chunker

import (
	"fmt"
	"math"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/antinvestor/reviewbot/internal/diffmodel"
)

// Config controls how files are batched into chunks.
type Config struct {
	MaxTokens         int
	OverlapTokens     int
	MaxFilesPerChunk  int
	KeepFilesTogether bool
}

// DefaultConfig returns sane defaults for chunking a PR diff against a
// typical LLM context window.
func DefaultConfig() Config {
	return Config{
		MaxTokens:         6000,
		OverlapTokens:     0,
		MaxFilesPerChunk:  12,
		KeepFilesTogether: true,
	}
}

// Chunk is a bundle of one or more diff files sized for a single LLM call.
type Chunk struct {
	Index           int
	TotalChunks     int
	Files           []diffmodel.DiffFile
	FilePaths       []string
	Content         string
	EstimatedTokens int
	Languages       []string
}

// EstimateTokens approximates an LLM token count from character length,
// matching the rest of the corpus's `ceil(chars/4)` heuristic.
func EstimateTokens(s string) int {
	return int(math.Ceil(float64(len(s)) / 4))
}

// Split partitions diff into chunks per cfg. Files are never split across
// chunks: an oversized single file simply forms its own chunk whose
// estimated token count exceeds cfg.MaxTokens.
func Split(diff *diffmodel.ParsedDiff, cfg Config) []Chunk {
	var chunks []Chunk
	var batch []diffmodel.DiffFile
	var batchTokens int

	flush := func() {
		if len(batch) == 0 {
			return
		}
		chunks = append(chunks, buildChunk(batch))
		batch = nil
		batchTokens = 0
	}

	for _, f := range diff.Files {
		content := formatFile(f)
		tokens := EstimateTokens(content)

		switch {
		case tokens > cfg.MaxTokens && len(batch) > 0:
			flush()
		case len(batch) > 0 && (batchTokens+tokens > cfg.MaxTokens || len(batch)+1 > cfg.MaxFilesPerChunk):
			flush()
		}

		batch = append(batch, f)
		batchTokens += tokens
	}
	flush()

	for i := range chunks {
		chunks[i].Index = i
		chunks[i].TotalChunks = len(chunks)
	}
	return chunks
}

func buildChunk(files []diffmodel.DiffFile) Chunk {
	var content strings.Builder
	paths := make([]string, 0, len(files))
	for i, f := range files {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(formatFile(f))
		paths = append(paths, f.EffectivePath())
	}
	text := content.String()
	return Chunk{
		Files:           files,
		FilePaths:       paths,
		Content:         text,
		EstimatedTokens: EstimateTokens(text),
		Languages:       languagesFor(files),
	}
}

// formatFile renders one diff file's changes into the plain-text shape fed
// to static tools' context and the LLM prompt builder.
func formatFile(f diffmodel.DiffFile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "file: %s (%s)\n", f.EffectivePath(), f.Kind)
	if f.IsBinary {
		sb.WriteString("(binary file omitted)\n")
		return sb.String()
	}
	for _, h := range f.Hunks {
		sb.WriteString(h.RawText)
		sb.WriteString("\n")
		for _, l := range h.Removed {
			fmt.Fprintf(&sb, "-%s\n", l.Content)
		}
		for _, l := range h.Added {
			fmt.Fprintf(&sb, "+%s\n", l.Content)
		}
	}
	return sb.String()
}

// languagesFor returns the deduplicated set of languages detected across
// files, using chroma's lexer registry purely as a filename-to-language
// matcher (no highlighting is performed).
func languagesFor(files []diffmodel.DiffFile) []string {
	seen := make(map[string]bool)
	var langs []string
	for _, f := range files {
		lang := detectLanguage(f.EffectivePath())
		if lang == "" || seen[lang] {
			continue
		}
		seen[lang] = true
		langs = append(langs, lang)
	}
	return langs
}

func detectLanguage(path string) string {
	lexer := lexers.Match(path)
	if lexer == nil {
		return ""
	}
	cfg := lexer.Config()
	if cfg == nil {
		return ""
	}
	return cfg.Name
}
