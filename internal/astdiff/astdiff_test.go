package astdiff

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	dmp "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/test"
)

func TestReport(t *testing.T) {
	a := test.MustParse(t, `
void main() {
    int x = 1;
    int y = 2;
    x = x + y;
}
`)
	b := test.MustParse(t, `
void main() {
    int x = 1;
    x = x + 3;
}
`)

	d := Compare(a, b)
	if d.Equal() {
		t.Fatal("expected a difference")
	}
	removed, added := d.Stats()
	test.AssertEqual(t, removed, 2)
	test.AssertEqual(t, added, 1)

	var changed []string
	for _, l := range d.Lines {
		if l.Op != dmp.DiffEqual {
			changed = append(changed, strings.TrimSpace(l.String()[1:]))
		}
	}
	want := []string{"int y = 2;", "x = x + y;", "x = x + 3;"}
	if diff := cmp.Diff(want, changed); diff != "" {
		t.Errorf("changed lines mismatch (-want +got):\n%s", diff)
	}

	report := Report(a, b)
	if !strings.Contains(report, "-    int y = 2;") {
		t.Errorf("report lacks removed line:\n%s", report)
	}
	if !strings.Contains(report, "+    x = x + 3;") {
		t.Errorf("report lacks added line:\n%s", report)
	}
}

func TestReportEqual(t *testing.T) {
	a := test.MustParse(t, "void main() { int x = 1; }")
	b := test.MustParse(t, "void main()\n{\n  int x = 1;\n}")
	test.AssertEqual(t, Report(a, b), "")
}

func TestReportJobs(t *testing.T) {
	a, err := shaderjob.FromSource(shaderjob.Fragment, "void main() { int x = 1; }")
	if err != nil {
		t.Fatal(err)
	}
	b := a.Clone()
	b.Stages = append(b.Stages, &shaderjob.Shader{
		Kind: shaderjob.Vertex,
		TU:   test.MustParse(t, "void main() { }"),
	})

	report := ReportJobs(a, b)
	if !strings.HasPrefix(report, "--- vert\n") {
		t.Errorf("expected a vertex section first:\n%s", report)
	}
	if strings.Contains(report, "--- frag") {
		t.Errorf("unchanged stage reported:\n%s", report)
	}
	test.AssertEqual(t, ReportJobs(a, a.Clone()), "")
}
