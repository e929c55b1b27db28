// Package astdiff reports how two translation units differ once printed.
package astdiff

import (
	"strings"

	dmp "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/printer"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

// Line is one line of a report.
type Line struct {
	Op   dmp.Operation
	Text string
}

func (l Line) String() string {
	switch l.Op {
	case dmp.DiffDelete:
		return "-" + l.Text
	case dmp.DiffInsert:
		return "+" + l.Text
	default:
		return " " + l.Text
	}
}

// Diff is the line diff of two printed translation units.
type Diff struct {
	Lines []Line
}

// Compare prints a and b and diffs them line by line.
func Compare(a, b *ast.TranslationUnit) *Diff {
	return compareText(printer.String(a), printer.String(b))
}

func compareText(a, b string) *Diff {
	matcher := dmp.New()
	ca, cb, lines := matcher.DiffLinesToChars(a, b)
	diffs := matcher.DiffCharsToLines(matcher.DiffMain(ca, cb, false), lines)

	d := &Diff{}
	for _, diff := range diffs {
		text := strings.TrimSuffix(diff.Text, "\n")
		for line := range strings.SplitSeq(text, "\n") {
			d.Lines = append(d.Lines, Line{Op: diff.Type, Text: line})
		}
	}
	return d
}

// Equal reports whether both sides print the same.
func (d *Diff) Equal() bool {
	for _, l := range d.Lines {
		if l.Op != dmp.DiffEqual {
			return false
		}
	}
	return true
}

// Stats returns the number of removed and added lines.
func (d *Diff) Stats() (removed, added int) {
	for _, l := range d.Lines {
		switch l.Op {
		case dmp.DiffDelete:
			removed++
		case dmp.DiffInsert:
			added++
		}
	}
	return removed, added
}

// String renders the diff with "-", "+" and " " line prefixes.
func (d *Diff) String() string {
	var sb strings.Builder
	for _, l := range d.Lines {
		sb.WriteString(l.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Report returns the rendered diff of a and b, or "" when they print the
// same.
func Report(a, b *ast.TranslationUnit) string {
	d := Compare(a, b)
	if d.Equal() {
		return ""
	}
	return d.String()
}

// ReportJobs reports the differences of every stage present in either job,
// each under a "--- <stage>" header.
func ReportJobs(a, b *shaderjob.Job) string {
	var out strings.Builder
	for _, kind := range shaderjob.AllStages {
		left, right := a.Stage(kind), b.Stage(kind)
		if left == nil && right == nil {
			continue
		}
		var ta, tb string
		if left != nil {
			ta = printer.String(left.TU)
		}
		if right != nil {
			tb = printer.String(right.TU)
		}
		d := compareText(ta, tb)
		if d.Equal() {
			continue
		}
		out.WriteString("--- " + kind.String() + "\n")
		out.WriteString(d.String())
	}
	return out.String()
}
