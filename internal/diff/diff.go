// Package diff computes line diffs between the current and the regenerated
// contents of an output file, for previewing an adaptation run.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType represents the type of diff line
type LineType int

const (
	LineContext LineType = iota // Unchanged context line
	LineAdded                   // Added line
	LineRemoved                 // Removed line
)

// Line is one line of a hunk.
type Line struct {
	Content string
	Type    LineType
}

// Hunk is a group of changes with surrounding context. Starts are one-based.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff represents changes to a single file
type FileDiff struct {
	OldPath string
	NewPath string
	Hunks   []Hunk
	IsNew   bool
}

// ContextLines is the number of unchanged lines kept around each change.
const ContextLines = 3

// Compute returns the line diff from oldContent to newContent.
func Compute(oldPath, newPath, oldContent, newContent string) *FileDiff {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	// Diff whole lines to avoid newline boundary artifacts.
	a, b, lineArray := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	return &FileDiff{
		OldPath: oldPath,
		NewPath: newPath,
		IsNew:   oldContent == "" && newContent != "",
		Hunks:   group(operations(diffs), ContextLines),
	}
}

// Empty reports whether both contents were equal.
func (d *FileDiff) Empty() bool {
	return len(d.Hunks) == 0
}

// Unified renders the diff in unified format.
func (d *FileDiff) Unified() string {
	if d.Empty() {
		return ""
	}
	var b strings.Builder
	oldPath := "a/" + d.OldPath
	if d.IsNew {
		oldPath = "/dev/null"
	}
	fmt.Fprintf(&b, "--- %s\n+++ b/%s\n", oldPath, d.NewPath)
	for _, h := range d.Hunks {
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		for _, l := range h.Lines {
			switch l.Type {
			case LineAdded:
				b.WriteByte('+')
			case LineRemoved:
				b.WriteByte('-')
			default:
				b.WriteByte(' ')
			}
			b.WriteString(l.Content)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// operation is a single line of the diff with its zero-based line numbers
// in the old and new contents.
type operation struct {
	typ     LineType
	oldLine int
	newLine int
	content string
}

func operations(diffs []diffmatchpatch.Diff) []operation {
	var ops []operation
	oldLine, newLine := 0, 0
	for _, d := range diffs {
		lines := strings.SplitAfter(d.Text, "\n")
		for _, line := range lines {
			if line == "" {
				continue
			}
			line = strings.TrimSuffix(line, "\n")
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, operation{LineContext, oldLine, newLine, line})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, operation{LineRemoved, oldLine, newLine, line})
				oldLine++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, operation{LineAdded, oldLine, newLine, line})
				newLine++
			}
		}
	}
	return ops
}

// group collects changed operations into hunks, merging changes whose
// context would overlap.
func group(ops []operation, context int) []Hunk {
	var hunks []Hunk
	for i := 0; i < len(ops); {
		if ops[i].typ == LineContext {
			i++
			continue
		}

		start := max(i-context, 0)
		end := i
		for j := i; j < len(ops); j++ {
			if ops[j].typ != LineContext {
				end = j
			} else if j-end > 2*context {
				break
			}
		}
		stop := min(end+context+1, len(ops))

		h := Hunk{OldStart: ops[start].oldLine + 1, NewStart: ops[start].newLine + 1}
		for _, op := range ops[start:stop] {
			h.Lines = append(h.Lines, Line{Content: op.content, Type: op.typ})
			if op.typ != LineAdded {
				h.OldCount++
			}
			if op.typ != LineRemoved {
				h.NewCount++
			}
		}
		if h.OldCount == 0 {
			h.OldStart--
		}
		if h.NewCount == 0 {
			h.NewStart--
		}
		hunks = append(hunks, h)
		i = stop
	}
	return hunks
}
