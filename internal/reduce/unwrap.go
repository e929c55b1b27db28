package reduce

import (
	"fmt"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

// unwrapping replaces a wrapper statement with the statements it wraps.
// In a block several statements may be spliced in; elsewhere the wrapper
// is replaced by a single statement.
type unwrapping struct {
	base
	parent  ast.Node
	wrapper ast.Stmt
	wrapees []ast.Stmt
}

func (o *unwrapping) Kind() Kind { return KindUnwrap }

func (o *unwrapping) String() string {
	return fmt.Sprintf("unwrap %s", describeStmt(o.wrapper))
}

func (o *unwrapping) Precondition() bool {
	if !ast.HasChild(o.parent, o.wrapper) {
		return false
	}
	block, ok := o.parent.(*ast.BlockStmt)
	if !ok {
		return len(o.wrapees) == 1
	}
	// Other edits may have added declarations to the parent since.
	inner := declaredNames(o.wrapees)
	for name := range declaredNames(block.Stmts) {
		if inner[name] {
			return false
		}
	}
	return true
}

func (o *unwrapping) Apply() error {
	block, ok := o.parent.(*ast.BlockStmt)
	if !ok {
		return replace(KindUnwrap, o.parent, o.wrapper, o.wrapees[0])
	}
	i := block.IndexOf(o.wrapper)
	if i < 0 {
		return invariant(KindUnwrap, "wrapper is no longer in its block")
	}
	block.Remove(i)
	block.Insert(i, o.wrapees...)
	return nil
}

// declaredNames returns the names declared directly by stmts.
func declaredNames(stmts []ast.Stmt) map[string]bool {
	out := make(map[string]bool)
	for _, s := range stmts {
		if d, ok := s.(*ast.DeclStmt); ok {
			for _, info := range d.Decl.Decls {
				out[info.Name] = true
			}
		}
	}
	return out
}

type unwrapFinder struct {
	*walk
}

func findUnwrap(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &unwrapFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

// Enter handles blocks nested directly in blocks, while the scope still
// holds exactly the names visible before the nested block.
func (f *unwrapFinder) Enter(w *scope.Walker, n ast.Node) bool {
	child, ok := n.(*ast.BlockStmt)
	if !ok || len(child.Stmts) == 0 {
		return true
	}
	parent, ok := w.Parent().(*ast.BlockStmt)
	if !ok {
		return true
	}
	taken := declaredNames(parent.Stmts)
	for _, name := range w.Scope().Names() {
		taken[name] = true
	}
	for name := range declaredNames(child.Stmts) {
		if taken[name] {
			return true
		}
	}
	f.add(&unwrapping{
		base:    base{w.Depth()},
		parent:  parent,
		wrapper: child,
		wrapees: append([]ast.Stmt(nil), child.Stmts...),
	})
	return true
}

func (f *unwrapFinder) Leave(w *scope.Walker, n ast.Node) {
	var wrapee ast.Stmt
	switch s := n.(type) {
	case *ast.IfStmt:
		switch injection.MacroOf(s.Cond) {
		case injection.MacroWrappedIfTrue:
			wrapee = s.Then
		case injection.MacroWrappedIfFalse:
			wrapee = s.Else
		}
	case *ast.ForStmt, *ast.DoStmt:
		if injection.MacroOf(ast.LoopCond(s)) == injection.MacroWrappedLoop && !loopHasTopLevelJump(s.(ast.Stmt)) {
			wrapee = scopedBody(ast.LoopBody(s))
		}
	}
	if wrapee == nil {
		return
	}
	f.add(&unwrapping{
		base:    base{w.Depth()},
		parent:  w.Parent(),
		wrapper: n.(ast.Stmt),
		wrapees: []ast.Stmt{wrapee},
	})
}
