package diagnostic

import (
	"strings"
	"testing"
)

func TestLineIndex(t *testing.T) {
	src := "void main() {\r\n  x = 1;\n}\n"
	idx := NewLineIndex(src)

	tests := []struct {
		offset int
		line   int
		col    int
	}{
		{0, 0, 0},
		{5, 0, 5},
		{15, 1, 0},
		{17, 1, 2},
		{24, 2, 0},
	}
	for _, tt := range tests {
		line, col := idx.ByteOffsetToLineColumn(tt.offset)
		if line != tt.line || col != tt.col {
			t.Errorf("offset %d: got %d:%d, want %d:%d", tt.offset, line, col, tt.line, tt.col)
		}
	}

	if got := idx.Line(2); got != "  x = 1;" {
		t.Errorf("Line(2) = %q", got)
	}
	if got := idx.Line(9); got != "" {
		t.Errorf("Line(9) = %q, want empty", got)
	}
}

func TestFormatDiagnostic(t *testing.T) {
	src := "void main() {\n  int 3x;\n}\n"
	dl := NewList(src)
	dl.AddError(20, 22, CodeInvalidNumber, "invalid numeric literal")

	if dl.Len() != 1 {
		t.Fatalf("expected one diagnostic, got %d", dl.Len())
	}

	got := dl.Format()
	want := "2:7: error[E0002]: invalid numeric literal\n" +
		"      int 3x;\n" +
		"          ^~\n"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatWarningWithoutCode(t *testing.T) {
	dl := NewList("precision mediump float;\n")
	dl.Add(Diagnostic{Severity: Warning, Message: "unused", Range: dl.MakeRange(0, 9)})
	got := dl.Format()
	if !strings.HasPrefix(got, "1:1: warning: unused\n") {
		t.Errorf("unexpected header in %q", got)
	}
	if !strings.HasSuffix(got, "    ^~~~~~~~\n") {
		t.Errorf("unexpected marker in %q", got)
	}
}
