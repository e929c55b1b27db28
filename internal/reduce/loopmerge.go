package reduce

import (
	"fmt"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

// splitLoop is the shape loop splitting leaves behind:
//
//	for (int c = start; c < end; c++) body
//
// with c a split loop counter and start and end integer literals. The
// guard may also use >.
type splitLoop struct {
	counter string
	start   string
	end     string
	guard   *ast.BinaryExpr
}

func asSplitLoop(s ast.Stmt) (splitLoop, bool) {
	loop, ok := s.(*ast.ForStmt)
	if !ok {
		return splitLoop{}, false
	}
	init, ok := loop.Init.(*ast.DeclStmt)
	if !ok || len(init.Decl.Decls) != 1 {
		return splitLoop{}, false
	}
	info := init.Decl.Decls[0]
	if !injection.IsSplitLoopCounter(info.Name) {
		return splitLoop{}, false
	}
	start, ok := info.Init.(*ast.IntLit)
	if !ok {
		return splitLoop{}, false
	}
	guard, ok := loop.Cond.(*ast.BinaryExpr)
	if !ok || (guard.Op != ast.BinLt && guard.Op != ast.BinGt) {
		return splitLoop{}, false
	}
	id, ok := guard.X.(*ast.Ident)
	if !ok || id.Name != info.Name {
		return splitLoop{}, false
	}
	end, ok := guard.Y.(*ast.IntLit)
	if !ok {
		return splitLoop{}, false
	}
	return splitLoop{counter: info.Name, start: start.Value, end: end.Value, guard: guard}, true
}

// mergeable reports whether second continues first: both count with the
// same split counter and second starts where first stops.
func mergeable(first, second ast.Stmt) bool {
	a, ok := asSplitLoop(first)
	if !ok {
		return false
	}
	b, ok := asSplitLoop(second)
	if !ok || a.counter != b.counter || a.guard.Op != b.guard.Op {
		return false
	}
	_, original, _ := injection.ParseSplitLoopCounter(a.counter)
	if mentions(first, original) || mentions(second, original) {
		return false
	}
	return a.end == b.start
}

// loopMerge joins two adjacent split loops into one loop over the whole
// range, with the counter given back its original name.
type loopMerge struct {
	base
	block  *ast.BlockStmt
	first  *ast.ForStmt
	second *ast.ForStmt
}

func (o *loopMerge) Kind() Kind { return KindLoopMerge }

func (o *loopMerge) String() string {
	a, _ := asSplitLoop(o.first)
	return fmt.Sprintf("merge split loops over %s", a.counter)
}

func (o *loopMerge) Precondition() bool {
	i := o.block.IndexOf(o.first)
	return i >= 0 && i+1 < len(o.block.Stmts) && o.block.Stmts[i+1] == ast.Stmt(o.second) &&
		mergeable(o.first, o.second)
}

func (o *loopMerge) Apply() error {
	i := o.block.IndexOf(o.first)
	if i < 0 || !mergeable(o.first, o.second) {
		return invariant(KindLoopMerge, "split loops are no longer adjacent and mergeable")
	}
	a, _ := asSplitLoop(o.first)
	b, _ := asSplitLoop(o.second)
	_, original, _ := injection.ParseSplitLoopCounter(a.counter)

	a.guard.Y = &ast.IntLit{Value: b.end}
	o.first.Body = &ast.BlockStmt{
		Stmts: append(loopStmts(o.first.Body), loopStmts(o.second.Body)...),
	}
	renameIdents(o.first, a.counter, original)
	o.first.Init.(*ast.DeclStmt).Decl.Decls[0].Name = original
	o.block.Remove(i + 1)
	return nil
}

// loopStmts returns the statements of a loop body.
func loopStmts(body ast.Stmt) []ast.Stmt {
	if b, ok := body.(*ast.BlockStmt); ok {
		return b.Stmts
	}
	return []ast.Stmt{body}
}

func renameIdents(n ast.Node, from, to string) {
	ast.Inspect(n, func(x ast.Node) bool {
		if id, ok := x.(*ast.Ident); ok && id.Name == from {
			id.Name = to
		}
		return true
	})
}

type loopMergeFinder struct {
	*walk
}

func findLoopMerge(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &loopMergeFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *loopMergeFinder) Enter(w *scope.Walker, n ast.Node) bool {
	block, ok := n.(*ast.BlockStmt)
	if !ok {
		return true
	}
	for i := 1; i < len(block.Stmts); i++ {
		if !mergeable(block.Stmts[i-1], block.Stmts[i]) {
			continue
		}
		f.add(&loopMerge{
			base:   base{w.Depth()},
			block:  block,
			first:  block.Stmts[i-1].(*ast.ForStmt),
			second: block.Stmts[i].(*ast.ForStmt),
		})
	}
	return true
}
