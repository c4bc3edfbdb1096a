package diffmodel

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	gitHeaderRe = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)
	hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
)

// fileBuilder accumulates state for the file currently being parsed until
// its kind can be finally determined.
type fileBuilder struct {
	file       DiffFile
	renameSeen bool
	sawOldNull bool
	sawNewNull bool
	hunk       *DiffHunk
	nextAdded  int
	nextRemoved int
}

func newFileBuilder() *fileBuilder {
	return &fileBuilder{}
}

func (b *fileBuilder) finishHunk() {
	if b.hunk != nil {
		b.file.Hunks = append(b.file.Hunks, *b.hunk)
		b.hunk = nil
	}
}

func (b *fileBuilder) finish() DiffFile {
	b.finishHunk()
	switch {
	case b.renameSeen:
		b.file.Kind = ChangeRename
	case b.file.IsBinary && b.sawNewNull:
		b.file.Kind = ChangeDelete
	case b.file.IsBinary && b.sawOldNull:
		b.file.Kind = ChangeAdd
	case b.sawOldNull:
		b.file.Kind = ChangeAdd
	case b.sawNewNull:
		b.file.Kind = ChangeDelete
	default:
		b.file.Kind = ChangeModify
	}
	if b.file.Kind == ChangeAdd {
		b.file.OldPath = ""
	}
	if b.file.Kind == ChangeDelete {
		b.file.NewPath = ""
	}
	if b.file.IsBinary {
		b.file.Hunks = nil
	}
	for _, h := range b.file.Hunks {
		b.file.LinesAdded += len(h.Added)
		b.file.LinesRemoved += len(h.Removed)
	}
	return b.file
}

// Parse consumes unified-diff text and produces a ParsedDiff. Every
// malformed fragment is tolerated and skipped except a hunk header
// appearing before any file header has been seen, which is fatal.
func Parse(raw string) (*ParsedDiff, error) {
	lines := strings.Split(raw, "\n")

	result := &ParsedDiff{}
	var current *fileBuilder
	seenFileHeader := false

	flush := func() {
		if current != nil {
			f := current.finish()
			result.Files = append(result.Files, f)
			result.TotalLinesAdded += f.LinesAdded
			result.TotalLinesRemoved += f.LinesRemoved
			current = nil
		}
	}

	for i, line := range lines {
		lineNo := i + 1

		switch {
		case strings.HasPrefix(line, "diff --git "):
			flush()
			current = newFileBuilder()
			seenFileHeader = true
			if m := gitHeaderRe.FindStringSubmatch(line); m != nil {
				current.file.OldPath = m[1]
				current.file.NewPath = m[2]
			}

		case strings.HasPrefix(line, "--- "):
			path := strings.TrimPrefix(line, "--- ")
			if current == nil {
				flush()
				current = newFileBuilder()
			}
			seenFileHeader = true
			if path == "/dev/null" {
				current.sawOldNull = true
			} else {
				current.file.OldPath = trimAB(path)
			}

		case strings.HasPrefix(line, "+++ "):
			path := strings.TrimPrefix(line, "+++ ")
			if current == nil {
				flush()
				current = newFileBuilder()
				seenFileHeader = true
			}
			if path == "/dev/null" {
				current.sawNewNull = true
			} else {
				current.file.NewPath = trimAB(path)
			}

		case strings.HasPrefix(line, "rename from "):
			if current == nil {
				continue
			}
			current.renameSeen = true
			current.file.OldPath = strings.TrimPrefix(line, "rename from ")

		case strings.HasPrefix(line, "rename to "):
			if current == nil {
				continue
			}
			current.renameSeen = true
			current.file.NewPath = strings.TrimPrefix(line, "rename to ")

		case strings.HasPrefix(line, "similarity index "):
			if current == nil {
				continue
			}
			pctStr := strings.TrimSuffix(strings.TrimPrefix(line, "similarity index "), "%")
			if pct, err := strconv.Atoi(pctStr); err == nil {
				current.file.Similarity = &pct
			}

		case strings.HasPrefix(line, "new file mode "):
			if current == nil {
				continue
			}
			current.sawOldNull = true
			mode := strings.TrimPrefix(line, "new file mode ")
			setMode(current, "", mode)

		case strings.HasPrefix(line, "deleted file mode "):
			if current == nil {
				continue
			}
			current.sawNewNull = true
			mode := strings.TrimPrefix(line, "deleted file mode ")
			setMode(current, mode, "")

		case strings.HasPrefix(line, "old mode "):
			if current == nil {
				continue
			}
			setMode(current, strings.TrimPrefix(line, "old mode "), "")

		case strings.HasPrefix(line, "new mode "):
			if current == nil {
				continue
			}
			setMode(current, "", strings.TrimPrefix(line, "new mode "))

		case strings.HasPrefix(line, "Binary files ") && strings.HasSuffix(line, "differ"):
			if current == nil {
				continue
			}
			current.file.IsBinary = true

		case strings.HasPrefix(line, "@@ "):
			if !seenFileHeader {
				return nil, &MalformedDiff{Reason: "hunk header before any file header", Line: lineNo}
			}
			if current == nil {
				continue
			}
			m := hunkHeaderRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			current.finishHunk()
			oldStart, _ := strconv.Atoi(m[1])
			oldCount := 1
			if m[2] != "" {
				oldCount, _ = strconv.Atoi(m[2])
			}
			newStart, _ := strconv.Atoi(m[3])
			newCount := 1
			if m[4] != "" {
				newCount, _ = strconv.Atoi(m[4])
			}
			current.hunk = &DiffHunk{
				OldStart: oldStart,
				OldCount: oldCount,
				NewStart: newStart,
				NewCount: newCount,
				RawText:  line,
			}
			current.nextAdded = newStart
			current.nextRemoved = oldStart

		default:
			if current == nil || current.hunk == nil {
				continue
			}
			switch {
			case strings.HasPrefix(line, "+"):
				current.hunk.Added = append(current.hunk.Added, DiffLine{
					LineNumber: current.nextAdded,
					Content:    line[1:],
				})
				current.nextAdded++
			case strings.HasPrefix(line, "-"):
				current.hunk.Removed = append(current.hunk.Removed, DiffLine{
					LineNumber: current.nextRemoved,
					Content:    line[1:],
				})
				current.nextRemoved++
			case strings.HasPrefix(line, " ") || line == "":
				current.nextAdded++
				current.nextRemoved++
			default:
				// unrecognized fragment inside a hunk, tolerated and skipped
			}
		}
	}

	flush()
	return result, nil
}

func setMode(b *fileBuilder, oldMode, newMode string) {
	if b.file.Mode == nil {
		b.file.Mode = &ModeChange{}
	}
	if oldMode != "" {
		b.file.Mode.OldMode = oldMode
	}
	if newMode != "" {
		b.file.Mode.NewMode = newMode
	}
}

// trimAB strips a leading "a/" or "b/" path prefix, as produced by git's
// default diff.mnemonicPrefix=false naming.
func trimAB(path string) string {
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}
