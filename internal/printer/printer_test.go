package printer

import (
	"testing"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/parser"
)

// ----------------------------------------------------------------------------
// Test Helpers (esbuild-style)
// ----------------------------------------------------------------------------

// expectPrinted verifies pretty-printed output.
func expectPrinted(t *testing.T, input string, expected string) {
	t.Helper()
	expectPrintedWith(t, Options{}, input, expected)
}

// expectPrintedMinify verifies output with whitespace removed.
func expectPrintedMinify(t *testing.T, input string, expected string) {
	t.Helper()
	expectPrintedWith(t, Options{MinifyWhitespace: true}, input, expected)
}

func expectPrintedWith(t *testing.T, options Options, input string, expected string) {
	t.Helper()
	t.Run(input, func(t *testing.T) {
		t.Helper()
		tu, err := parser.Parse(input)
		if err != nil {
			t.Fatalf("parse errors: %v", err)
		}
		actual := New(options).Print(tu)
		if actual != expected {
			t.Errorf("\ninput:\n%s\nexpected:\n%s\nactual:\n%s", input, expected, actual)
		}
	})
}

// expectRoundTrip verifies that printing is a fixpoint after the first pass.
func expectRoundTrip(t *testing.T, input string) {
	t.Helper()
	t.Run(input, func(t *testing.T) {
		t.Helper()
		tu, err := parser.Parse(input)
		if err != nil {
			t.Fatalf("parse errors: %v", err)
		}
		first := String(tu)
		tu2, err := parser.Parse(first)
		if err != nil {
			t.Fatalf("reparse errors: %v\n%s", err, first)
		}
		if second := String(tu2); second != first {
			t.Errorf("not a fixpoint:\nfirst:\n%s\nsecond:\n%s", first, second)
		}
	})
}

func ident(name string) *ast.Ident { return &ast.Ident{Name: name} }

// ----------------------------------------------------------------------------
// Pretty Printing
// ----------------------------------------------------------------------------

func TestPrettyPrint(t *testing.T) {
	expectPrinted(t, "void main(){int x=1;}", "void main() {\n    int x = 1;\n}\n")
	expectPrinted(t, "precision highp float;float f(){return 1.0;}void main(){f();}",
		"precision highp float;\n\nfloat f() {\n    return 1.0;\n}\n\nvoid main() {\n    f();\n}\n")
	expectPrinted(t, "void main(){if(a){if(b){c++;}}}",
		"void main() {\n    if (a) {\n        if (b) {\n            c++;\n        }\n    }\n}\n")
}

func TestIndentWidth(t *testing.T) {
	tu, err := parser.Parse("void main(){x++;}")
	if err != nil {
		t.Fatal(err)
	}
	got := New(Options{IndentWidth: 2}).Print(tu)
	if got != "void main() {\n  x++;\n}\n" {
		t.Errorf("unexpected output %q", got)
	}
}

// ----------------------------------------------------------------------------
// Minified Printing
// ----------------------------------------------------------------------------

func TestMinify(t *testing.T) {
	expectPrintedMinify(t, "void main() { int x = 1; x++; }", "void main(){int x=1;x++;}")
	expectPrintedMinify(t, "void main() { x = a - -b; }", "void main(){x=a- -b;}")
	expectPrintedMinify(t, "void main() { x = a + +b; }", "void main(){x=a+ +b;}")
	expectPrintedMinify(t, "uniform vec2 resolution;", "uniform vec2 resolution;")
	expectPrintedMinify(t, "void main() { return; }", "void main(){return;}")
	expectPrintedMinify(t, "void main() { x = v.x; }", "void main(){x=v.x;}")
}

// ----------------------------------------------------------------------------
// Parenthesization
// ----------------------------------------------------------------------------

func TestParensFromPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		expr   ast.Expr
		expect string
	}{
		{
			"sum under product",
			&ast.BinaryExpr{Op: ast.BinMul, X: &ast.BinaryExpr{Op: ast.BinAdd, X: ident("a"), Y: ident("b")}, Y: ident("c")},
			"(a + b) * c",
		},
		{
			"right operand of subtraction",
			&ast.BinaryExpr{Op: ast.BinSub, X: ident("a"), Y: &ast.BinaryExpr{Op: ast.BinSub, X: ident("b"), Y: ident("c")}},
			"a - (b - c)",
		},
		{
			"left operand of subtraction",
			&ast.BinaryExpr{Op: ast.BinSub, X: &ast.BinaryExpr{Op: ast.BinSub, X: ident("a"), Y: ident("b")}, Y: ident("c")},
			"a - b - c",
		},
		{
			"comma as call argument",
			&ast.CallExpr{Callee: "f", Args: []ast.Expr{&ast.BinaryExpr{Op: ast.BinComma, X: ident("a"), Y: ident("b")}}},
			"f((a, b))",
		},
		{
			"assignment under negation",
			&ast.UnaryExpr{Op: ast.UnaryMinus, X: &ast.BinaryExpr{Op: ast.BinAssign, X: ident("a"), Y: ident("b")}},
			"-(a = b)",
		},
		{
			"member of sum",
			&ast.MemberExpr{X: &ast.BinaryExpr{Op: ast.BinAdd, X: ident("a"), Y: ident("b")}, Member: "x"},
			"(a + b).x",
		},
		{
			"ternary as condition",
			&ast.TernaryExpr{Cond: &ast.TernaryExpr{Cond: ident("a"), Then: ident("b"), Else: ident("c")}, Then: ident("d"), Else: ident("e")},
			"(a ? b : c) ? d : e",
		},
		{
			"nested ternary in else",
			&ast.TernaryExpr{Cond: ident("a"), Then: ident("b"), Else: &ast.TernaryExpr{Cond: ident("c"), Then: ident("d"), Else: ident("e")}},
			"a ? b : c ? d : e",
		},
		{
			"postfix on prefix",
			&ast.UnaryExpr{Op: ast.UnaryPostInc, X: &ast.UnaryExpr{Op: ast.UnaryMinus, X: ident("a")}},
			"(-a)++",
		},
		{
			"explicit parens are kept",
			&ast.ParenExpr{X: ident("a")},
			"(a)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExprString(tt.expr); got != tt.expect {
				t.Errorf("got %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestLiterals(t *testing.T) {
	if got := ExprString(&ast.UintLit{Value: "7"}); got != "7u" {
		t.Errorf("uint literal printed as %q", got)
	}
	if got := ExprString(&ast.BoolLit{Value: false}); got != "false" {
		t.Errorf("bool literal printed as %q", got)
	}
	arr := &ast.ArrayConstructorExpr{Elem: "int", Size: &ast.IntLit{Value: "2"}, Args: []ast.Expr{&ast.IntLit{Value: "1"}, &ast.IntLit{Value: "2"}}}
	if got := ExprString(arr); got != "int[2](1, 2)" {
		t.Errorf("array constructor printed as %q", got)
	}
}

func TestPrintNode(t *testing.T) {
	stmt := &ast.IfStmt{
		Cond: ident("a"),
		Then: &ast.BlockStmt{Stmts: []ast.Stmt{&ast.BreakStmt{}}, NewScope: true},
	}
	if got := New(Options{}).PrintNode(stmt); got != "if (a) {\n    break;\n}" {
		t.Errorf("unexpected statement output %q", got)
	}
}

// ----------------------------------------------------------------------------
// Round Trips
// ----------------------------------------------------------------------------

func TestRoundTrip(t *testing.T) {
	expectRoundTrip(t, `#version 310 es
precision highp float;
layout(location = 0) out vec4 _GLF_color;
layout(std140) uniform buf0 { vec2 injectionSwitch; };
struct S { float a; vec2 b[2]; };
float f(inout S s, int k) {
  for (int i = 0; i < k; i++) { s.a += float(i) * 0.5; }
  return s.a > 1.0 ? s.b[0].x : -s.a;
}
void main() {
  S s = S(1.0, vec2[2](vec2(0.0), vec2(1.0)));
  switch (int(injectionSwitch.x)) {
    case 0:
      _GLF_color = vec4(f(s, 3));
      break;
    default:
      discard;
  }
  do { s.a--; } while (s.a > 0.0 && !(s.a < -1.0));
}`)
}
