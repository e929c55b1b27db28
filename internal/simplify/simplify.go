// Package simplify cleans up a reduced shader job before it is handed to a
// person: injection macros are expanded to the code they stand for, and
// functions and globals that main can no longer reach are dropped.
//
// Both passes keep the meaning of the shader. They are applied to the
// final result only, since the reducer relies on the macros to tell
// injected code from original code.
package simplify

import (
	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/reduce"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

// Job returns a simplified copy of job.
func Job(job *shaderjob.Job) *shaderjob.Job {
	out := job.Clone()
	for _, s := range out.Stages {
		EliminateMacros(s.TU)
		StripUnused(s.TU)
	}
	return out
}

// ----------------------------------------------------------------------------
// Macro Elimination
// ----------------------------------------------------------------------------

// EliminateMacros replaces every injection macro call in tu by the
// expression it expands to and returns the number of calls replaced.
func EliminateMacros(tu *ast.TranslationUnit) int {
	e := &eliminator{clampInt: supportsIntegerClamp(reduce.VersionOf(tu))}
	e.visit(tu)
	return e.count
}

type eliminator struct {
	clampInt bool
	count    int
}

// visit rewrites the children of n bottom-up, so that nested macros are
// expanded before the macro that contains them.
func (e *eliminator) visit(n ast.Node) {
	for _, c := range ast.Children(n) {
		e.visit(c)
		call, ok := c.(*ast.CallExpr)
		if !ok {
			continue
		}
		repl := e.expand(call)
		if repl == nil {
			continue
		}
		if err := ast.ReplaceChild(n, call, repl); err == nil {
			e.count++
		}
	}
}

func (e *eliminator) expand(call *ast.CallExpr) ast.Expr {
	switch injection.MacroOf(call) {
	case injection.NotAMacro:
		return nil
	case injection.MacroMakeInBoundsInt:
		return e.inBounds(call, &ast.IntLit{Value: "0"}, &ast.IntLit{Value: "1"}, e.clampInt)
	case injection.MacroMakeInBoundsUint:
		return e.inBounds(call, &ast.UintLit{Value: "0"}, &ast.UintLit{Value: "1"}, e.clampInt)
	}
	return injection.SemanticArg(call)
}

// inBounds expands _GLF_MAKE_IN_BOUNDS_INT(i, n) to clamp(i, 0, n - 1), or
// where integer clamp is missing, to
//
//	(i) < 0 ? 0 : ((i) >= n ? n - 1 : (i))
//
// The unsigned form drops the lower bound check.
func (e *eliminator) inBounds(call *ast.CallExpr, zero, one ast.Expr, clamp bool) ast.Expr {
	index, size := call.Args[0], call.Args[1]
	last := &ast.BinaryExpr{Op: ast.BinSub, X: size, Y: one}
	if clamp {
		return &ast.CallExpr{Callee: "clamp", Args: []ast.Expr{index, zero, last}}
	}
	upper := &ast.TernaryExpr{
		Cond: &ast.BinaryExpr{Op: ast.BinGe, X: &ast.ParenExpr{X: index}, Y: ast.CloneExpr(size)},
		Then: last,
		Else: &ast.ParenExpr{X: ast.CloneExpr(index)},
	}
	if _, unsigned := zero.(*ast.UintLit); unsigned {
		return upper
	}
	return &ast.TernaryExpr{
		Cond: &ast.BinaryExpr{Op: ast.BinLt, X: &ast.ParenExpr{X: ast.CloneExpr(index)}, Y: zero},
		Then: ast.CloneExpr(zero),
		Else: &ast.ParenExpr{X: upper},
	}
}

// supportsIntegerClamp reports whether clamp has integer overloads in the
// given #version: GLSL ES 3.00 and desktop GLSL 1.30 onwards.
func supportsIntegerClamp(version string) bool {
	switch version {
	case "", "100", "110", "120":
		return false
	}
	return true
}
