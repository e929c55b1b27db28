package reduce

import (
	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

// outlinedReturn returns the expression an outlined function returns when
// its body is a single return statement.
func outlinedReturn(tu *ast.TranslationUnit, name string) (*ast.FunctionDef, ast.Expr, bool) {
	defs := definitions(tu, name)
	if len(defs) != 1 {
		return nil, nil, false
	}
	fd := defs[0]
	if len(fd.Body.Stmts) != 1 {
		return nil, nil, false
	}
	ret, ok := fd.Body.Stmts[0].(*ast.ReturnStmt)
	if !ok || ret.X == nil {
		return nil, nil, false
	}
	return fd, ret.X, true
}

// substituteParams returns a copy of e in which each parameter of fd is
// replaced by the matching argument of call.
func substituteParams(fd *ast.FunctionDef, call *ast.CallExpr, e ast.Expr) ast.Expr {
	args := make(map[string]ast.Expr, len(call.Args))
	for i, p := range fd.Proto.Params {
		args[p.Name] = call.Args[i]
	}
	out := ast.CloneExpr(e)
	if id, ok := out.(*ast.Ident); ok {
		if a, ok := args[id.Name]; ok {
			return &ast.ParenExpr{X: ast.CloneExpr(a)}
		}
		return out
	}
	pm := ast.NewParentMap(out)
	var ids []*ast.Ident
	ast.Inspect(out, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			if _, isParam := args[id.Name]; isParam {
				ids = append(ids, id)
			}
		}
		return true
	})
	for _, id := range ids {
		_ = ast.ReplaceChild(pm.Parent(id), id, &ast.ParenExpr{X: ast.CloneExpr(args[id.Name])})
	}
	return out
}

// outlinedCall undoes statement outlining: in "x = _GLF_outlined_1(a, b);"
// the call is replaced by the expression the outlined function returns,
// with the arguments put in place of the parameters.
type outlinedCall struct {
	base
	tu     *ast.TranslationUnit
	assign *ast.BinaryExpr
	call   *ast.CallExpr
}

func (o *outlinedCall) Kind() Kind { return KindOutlinedStatement }

func (o *outlinedCall) String() string {
	return "inline outlined call to " + o.call.Callee
}

func (o *outlinedCall) Precondition() bool {
	if o.assign.Y != ast.Expr(o.call) {
		return false
	}
	fd, _, ok := outlinedReturn(o.tu, o.call.Callee)
	return ok && len(fd.Proto.Params) == len(o.call.Args)
}

func (o *outlinedCall) Apply() error {
	fd, e, ok := outlinedReturn(o.tu, o.call.Callee)
	if !ok || len(fd.Proto.Params) != len(o.call.Args) {
		return invariant(KindOutlinedStatement, "%s no longer returns a single expression", o.call.Callee)
	}
	o.assign.Y = substituteParams(fd, o.call, e)
	return nil
}

type outlinedFinder struct {
	*walk
}

func findOutlinedStatement(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &outlinedFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *outlinedFinder) Leave(w *scope.Walker, n ast.Node) {
	es, ok := n.(*ast.ExprStmt)
	if !ok {
		return
	}
	assign, ok := es.X.(*ast.BinaryExpr)
	if !ok || assign.Op != ast.BinAssign {
		return
	}
	call, ok := assign.Y.(*ast.CallExpr)
	if !ok || !injection.IsOutlined(call.Callee) {
		return
	}
	fd, e, ok := outlinedReturn(f.tu, call.Callee)
	if !ok || len(fd.Proto.Params) != len(call.Args) {
		return
	}
	// A parameter read twice would evaluate its argument twice.
	for i, p := range fd.Proto.Params {
		if !sideEffectFree(call.Args[i]) && countMentions(e, p.Name) > 1 {
			return
		}
	}
	// Names other than parameters are globals and must not be shadowed at
	// the call site.
	params := make(map[string]bool)
	for _, p := range fd.Proto.Params {
		params[p.Name] = true
	}
	shadowed := false
	ast.Inspect(e, func(x ast.Node) bool {
		if id, ok := x.(*ast.Ident); ok && !params[id.Name] && w.Scope().IsShadowed(id.Name) {
			shadowed = true
		}
		return !shadowed
	})
	if shadowed {
		return
	}
	f.add(&outlinedCall{base: base{w.Depth()}, tu: f.tu, assign: assign, call: call})
}

func countMentions(n ast.Node, name string) int {
	count := 0
	ast.Inspect(n, func(x ast.Node) bool {
		if id, ok := x.(*ast.Ident); ok && id.Name == name {
			count++
		}
		return true
	})
	return count
}
