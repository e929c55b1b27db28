package reduce

import (
	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

// identityMutationFinder offers replacing an identity wrapper such as
// _GLF_IDENTITY(x, x * 1.0) or _GLF_ZERO(0.0, ...) with its first argument,
// the expression it was applied to. The wrapper evaluates to the same
// value, so the edit is legal anywhere.
type identityMutationFinder struct {
	*walk
}

func findIdentityMutation(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &identityMutationFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *identityMutationFinder) Leave(w *scope.Walker, n ast.Node) {
	call, ok := n.(*ast.CallExpr)
	if !ok || !injection.IsIdentityMutation(call) || inArraySize(w) {
		return
	}
	f.add(&exprReplacement{
		base:   base{w.Depth()},
		kind:   KindIdentityMutation,
		parent: w.Parent(),
		old:    call,
		repl:   &ast.ParenExpr{X: call.Args[0]},
	})
}
