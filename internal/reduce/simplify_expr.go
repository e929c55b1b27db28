package reduce

import (
	"fmt"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/printer"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/types"
)

// exprReplacement replaces one expression with another. Several finders
// produce it; kind records which.
type exprReplacement struct {
	base
	kind   Kind
	parent ast.Node
	old    ast.Expr
	repl   ast.Expr
}

func (o *exprReplacement) Kind() Kind { return o.kind }

func (o *exprReplacement) String() string {
	return fmt.Sprintf("replace %s with %s", printer.ExprString(o.old), printer.ExprString(o.repl))
}

func (o *exprReplacement) Precondition() bool {
	return ast.HasChild(o.parent, o.old)
}

func (o *exprReplacement) Apply() error {
	return replace(o.kind, o.parent, o.old, o.repl)
}

// ----------------------------------------------------------------------------
// Expression to Constant
// ----------------------------------------------------------------------------

type exprToConstantFinder struct {
	*walk
}

func findExprToConstant(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &exprToConstantFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *exprToConstantFinder) Leave(w *scope.Walker, n ast.Node) {
	child, ok := n.(ast.Expr)
	if !ok {
		return
	}
	parent := w.Parent()
	if !f.allowedToReduceExpr(w, parent, child) || f.tr.InLValueContext() {
		return
	}
	t := f.typeOf(child)
	if t == nil || !types.HasCanonicalConstant(t) || isFullyReducedConstant(child) {
		return
	}
	f.add(&exprReplacement{
		base:   base{w.Depth()},
		kind:   KindExprToConstant,
		parent: parent,
		old:    child,
		repl:   types.CanonicalConstant(t),
	})
}

// ----------------------------------------------------------------------------
// Compound Expression to Sub-expression
// ----------------------------------------------------------------------------

type subExprFinder struct {
	*walk
}

func findCompoundExprToSubExpr(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &subExprFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *subExprFinder) Leave(w *scope.Walker, n ast.Node) {
	child, ok := n.(ast.Expr)
	if !ok {
		return
	}
	parent := w.Parent()
	if !f.allowedToReduceExpr(w, parent, child) || f.tr.InLValueContext() {
		return
	}
	if p, ok := child.(*ast.ParenExpr); ok && !parensRemovable(parent, p) {
		return
	}
	t := f.typeOf(child)
	if t == nil {
		return
	}
	for _, sub := range ast.ExprChildren(child) {
		st := f.typeOf(sub)
		if st == nil || !st.Equals(t) {
			continue
		}
		// One deeper than the expression itself: reducing the whole
		// expression to a constant is preferred.
		f.add(&exprReplacement{
			base:   base{w.Depth() + 1},
			kind:   KindCompoundExprToSubExpr,
			parent: parent,
			old:    child,
			repl:   sub,
		})
	}
}

// parensRemovable reports whether the parentheses p can go without
// changing how the surrounding expression groups.
func parensRemovable(parent ast.Node, p *ast.ParenExpr) bool {
	switch p.X.(type) {
	case *ast.IntLit, *ast.UintLit, *ast.FloatLit, *ast.BoolLit, *ast.Ident, *ast.CallExpr:
		return true
	}
	switch parent.(type) {
	case *ast.ParenExpr:
		return true
	case *ast.CallExpr, *ast.ConstructorExpr:
		// sin((a, b)) must not become sin(a, b)
		bin, ok := p.X.(*ast.BinaryExpr)
		return !ok || bin.Op != ast.BinComma
	case ast.Expr:
		return false
	}
	return true
}
