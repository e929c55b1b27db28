package api

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const deadCode = `
void main() {
    int x = 1;
    if (_GLF_DEAD(false)) {
        x = 2;
    }
    if (_GLF_DEAD(false)) {
    }
    x = x + 1;
}
`

func TestReduce(t *testing.T) {
	result, err := Reduce(context.Background(), deadCode, func(code string) bool {
		return strings.Contains(code, "x = x + 1")
	}, ReduceOptions{Seed: 1})
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if strings.Contains(result.Code, "_GLF_DEAD") {
		t.Errorf("dead code survived:\n%s", result.Code)
	}
	if !strings.Contains(result.Code, "x = x + 1") {
		t.Errorf("interesting statement removed:\n%s", result.Code)
	}
	if result.ReducedNodes >= result.OriginalNodes {
		t.Errorf("expected fewer nodes, got %d >= %d", result.ReducedNodes, result.OriginalNodes)
	}
	if result.Successes == 0 {
		t.Error("expected at least one interesting step")
	}
}

func TestReduceNotInteresting(t *testing.T) {
	_, err := Reduce(context.Background(), deadCode, func(string) bool { return false }, ReduceOptions{})
	if !errors.Is(err, ErrNotInteresting) {
		t.Fatalf("expected ErrNotInteresting, got %v", err)
	}
}

func TestReduceParseErrors(t *testing.T) {
	called := false
	result, err := Reduce(context.Background(), "void main( {", func(string) bool {
		called = true
		return true
	}, ReduceOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Errors) == 0 {
		t.Error("expected parse errors")
	}
	if called {
		t.Error("interestingness test ran on unparsable input")
	}
}

func TestReduceUnknownKind(t *testing.T) {
	_, err := Reduce(context.Background(), deadCode, func(string) bool { return true }, ReduceOptions{
		Kinds: []string{"no-such-kind"},
	})
	if err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
}

func TestFind(t *testing.T) {
	result, err := Find(deadCode, FindOptions{Kinds: []string{"stmt"}})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(result.Opportunities) != 1 {
		t.Fatalf("expected only stmt opportunities, got %v", result.Opportunities)
	}
	if result.Opportunities["stmt"] < 2 {
		t.Errorf("expected both dead blocks to be removable, got %d", result.Opportunities["stmt"])
	}
}

func TestSimplify(t *testing.T) {
	source := `
int unused(int a) {
    return a;
}
void main() {
    int x = _GLF_IDENTITY(1, 1);
}
`
	result := Simplify(source, false)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.MacrosRemoved != 1 || result.DeclarationsRemoved != 1 {
		t.Errorf("expected 1 macro and 1 declaration removed, got %d and %d",
			result.MacrosRemoved, result.DeclarationsRemoved)
	}
	if strings.Contains(result.Code, "unused") || strings.Contains(result.Code, "_GLF_IDENTITY") {
		t.Errorf("simplification incomplete:\n%s", result.Code)
	}

	kept := Simplify(source, true)
	if !strings.Contains(kept.Code, "unused") {
		t.Errorf("keepUnused removed a function:\n%s", kept.Code)
	}
}

func TestFormat(t *testing.T) {
	pretty, errs := Format("void main(){int x=1;}", false)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if pretty != "void main() {\n    int x = 1;\n}\n" {
		t.Errorf("unexpected pretty output: %q", pretty)
	}

	minified, _ := Format("void main() {\n    int x = 1;\n}\n", true)
	if len(minified) >= len(pretty) {
		t.Errorf("expected minified output to be shorter: %q", minified)
	}
}

func TestDiff(t *testing.T) {
	result := Diff("void main() { int x = 1; int y = 2; }", "void main() { int x = 1; }")
	if result.Removed != 1 || result.Added != 0 {
		t.Errorf("expected 1 removed line, got -%d +%d", result.Removed, result.Added)
	}
	if !strings.Contains(result.Diff, "-    int y = 2;") {
		t.Errorf("unexpected diff:\n%s", result.Diff)
	}

	same := Diff("void main(){}", "void main() { }")
	if same.Diff != "" {
		t.Errorf("expected no diff, got:\n%s", same.Diff)
	}

	bad := Diff("void main( {", "void main() {}")
	if len(bad.Errors) == 0 {
		t.Error("expected parse errors")
	}
}
