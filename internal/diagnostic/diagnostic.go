// Package diagnostic provides error reporting for GLSL parsing and for
// reduction passes.
//
// Diagnostics carry a byte range that is converted to 1-based line and
// column numbers, and can be formatted with the offending source line and
// a caret marker underneath.
package diagnostic

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic.
type Severity uint8

const (
	// Error prevents the shader from being reduced.
	Error Severity = iota
	// Warning is a non-blocking issue.
	Warning
	// Note provides additional context for another diagnostic.
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Position represents a position in source code.
type Position struct {
	Offset int // Byte offset (0-based)
	Line   int // Line number (1-based)
	Column int // Column number (1-based)
}

// Range represents a range in source code.
type Range struct {
	Start Position
	End   Position
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Severity Severity
	Code     Code   // Error code, may be empty
	Message  string // Human-readable message
	Range    Range  // Source location
}

// Code identifies a class of diagnostic.
type Code string

const (
	// Syntax errors
	CodeUnexpectedToken Code = "E0001"
	CodeInvalidNumber   Code = "E0002"
	CodeReservedWord    Code = "E0003"
	CodeBadDirective    Code = "E0004"
)

// List collects diagnostics for one source text.
type List struct {
	diagnostics []Diagnostic
	lineIndex   *LineIndex
}

// NewList creates a new diagnostic list for the given source.
func NewList(source string) *List {
	return &List{lineIndex: NewLineIndex(source)}
}

// Add adds a diagnostic to the list.
func (dl *List) Add(d Diagnostic) {
	dl.diagnostics = append(dl.diagnostics, d)
}

// AddError adds an error diagnostic for a byte range.
func (dl *List) AddError(start, end int, code Code, message string) {
	dl.Add(Diagnostic{
		Severity: Error,
		Code:     code,
		Message:  message,
		Range:    dl.MakeRange(start, end),
	})
}

// MakePosition converts a byte offset to a Position.
func (dl *List) MakePosition(offset int) Position {
	line, col := dl.lineIndex.ByteOffsetToLineColumn(offset)
	return Position{
		Offset: offset,
		Line:   line + 1,
		Column: col + 1,
	}
}

// MakeRange converts byte offsets to a Range.
func (dl *List) MakeRange(start, end int) Range {
	return Range{
		Start: dl.MakePosition(start),
		End:   dl.MakePosition(end),
	}
}

// Len returns the number of collected diagnostics.
func (dl *List) Len() int {
	return len(dl.diagnostics)
}

// Format formats all diagnostics as a human-readable string.
func (dl *List) Format() string {
	var sb strings.Builder
	for i := range dl.diagnostics {
		sb.WriteString(dl.FormatDiagnostic(&dl.diagnostics[i]))
	}
	return sb.String()
}

// FormatDiagnostic formats a single diagnostic with source context.
func (dl *List) FormatDiagnostic(d *Diagnostic) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%d:%d: %s", d.Range.Start.Line, d.Range.Start.Column, d.Severity)
	if d.Code != "" {
		fmt.Fprintf(&sb, "[%s]", d.Code)
	}
	fmt.Fprintf(&sb, ": %s\n", d.Message)

	if line := dl.lineIndex.Line(d.Range.Start.Line); line != "" {
		fmt.Fprintf(&sb, "    %s\n", line)
		caret := strings.Repeat(" ", d.Range.Start.Column-1+4) + "^"
		if d.Range.End.Line == d.Range.Start.Line && d.Range.End.Column > d.Range.Start.Column+1 {
			caret += strings.Repeat("~", d.Range.End.Column-d.Range.Start.Column-1)
		}
		sb.WriteString(caret)
		sb.WriteByte('\n')
	}
	return sb.String()
}
