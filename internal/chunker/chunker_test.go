package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antinvestor/reviewbot/internal/chunker"
	"github.com/antinvestor/reviewbot/internal/diffmodel"
)

func smallFile(path string) diffmodel.DiffFile {
	return diffmodel.DiffFile{
		NewPath: path,
		Kind:    diffmodel.ChangeModify,
		Hunks: []diffmodel.DiffHunk{{
			RawText: "@@ -1,1 +1,1 @@",
			Added:   []diffmodel.DiffLine{{LineNumber: 1, Content: "x"}},
		}},
		LinesAdded: 1,
	}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, chunker.EstimateTokens(""))
	assert.Equal(t, 1, chunker.EstimateTokens("abc"))
	assert.Equal(t, 1, chunker.EstimateTokens("abcd"))
	assert.Equal(t, 2, chunker.EstimateTokens("abcde"))
}

func TestSplit_SingleSmallFileOneChunk(t *testing.T) {
	diff := &diffmodel.ParsedDiff{Files: []diffmodel.DiffFile{smallFile("a.go")}}
	chunks := chunker.Split(diff, chunker.DefaultConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[0].TotalChunks)
	assert.Equal(t, []string{"a.go"}, chunks[0].FilePaths)
}

func TestSplit_OversizedFileFormsOwnChunk(t *testing.T) {
	big := diffmodel.DiffFile{
		NewPath: "big.go",
		Kind:    diffmodel.ChangeModify,
		Hunks: []diffmodel.DiffHunk{{
			RawText: "@@ -1,1 +1,1 @@",
			Added:   []diffmodel.DiffLine{{LineNumber: 1, Content: strings.Repeat("x", 10000)}},
		}},
	}
	diff := &diffmodel.ParsedDiff{Files: []diffmodel.DiffFile{
		smallFile("a.go"),
		big,
		smallFile("b.go"),
	}}

	cfg := chunker.DefaultConfig()
	cfg.MaxTokens = 100
	chunks := chunker.Split(diff, cfg)

	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"a.go"}, chunks[0].FilePaths)
	assert.Equal(t, []string{"big.go"}, chunks[1].FilePaths)
	assert.Greater(t, chunks[1].EstimatedTokens, cfg.MaxTokens)
	assert.Equal(t, []string{"b.go"}, chunks[2].FilePaths)
	for _, c := range chunks {
		assert.Equal(t, 3, c.TotalChunks)
	}
}

func TestSplit_MaxFilesPerChunkBoundary(t *testing.T) {
	diff := &diffmodel.ParsedDiff{}
	for i := 0; i < 5; i++ {
		diff.Files = append(diff.Files, smallFile("f.go"))
	}

	cfg := chunker.DefaultConfig()
	cfg.MaxFilesPerChunk = 2
	chunks := chunker.Split(diff, cfg)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Files, 2)
	assert.Len(t, chunks[1].Files, 2)
	assert.Len(t, chunks[2].Files, 1)
}

func TestSplit_LanguagesDetected(t *testing.T) {
	diff := &diffmodel.ParsedDiff{Files: []diffmodel.DiffFile{
		smallFile("a.go"),
		smallFile("b.py"),
	}}
	chunks := chunker.Split(diff, chunker.DefaultConfig())
	require.Len(t, chunks, 1)
	assert.NotEmpty(t, chunks[0].Languages)
}

func TestSplit_BinaryFileContentPlaceholder(t *testing.T) {
	bin := diffmodel.DiffFile{NewPath: "logo.png", Kind: diffmodel.ChangeModify, IsBinary: true}
	diff := &diffmodel.ParsedDiff{Files: []diffmodel.DiffFile{bin}}
	chunks := chunker.Split(diff, chunker.DefaultConfig())
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "binary file omitted")
}
