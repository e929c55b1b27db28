package reduce

import (
	"fmt"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/printer"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

// stmtRemoval deletes one statement from a block.
type stmtRemoval struct {
	base
	fn    *ast.FunctionDef
	block *ast.BlockStmt
	stmt  ast.Stmt
}

func (o *stmtRemoval) Kind() Kind { return KindStmt }

func (o *stmtRemoval) String() string {
	return fmt.Sprintf("remove %s", describeStmt(o.stmt))
}

func (o *stmtRemoval) Precondition() bool {
	b := o.block
	n := len(b.Stmts)
	if b.IndexOf(o.stmt) < 0 {
		return false
	}
	// Never leave an empty final case.
	if n > 1 && b.Stmts[n-1] == o.stmt && ast.IsCaseLabel(b.Stmts[n-2]) {
		return false
	}
	// A switch body must start with a label.
	if n > 1 && ast.IsCaseLabel(o.stmt) && b.Stmts[0] == o.stmt && !ast.IsCaseLabel(b.Stmts[1]) {
		return false
	}
	return !removalCouldLeaveNoReturn(o.fn, b, o.stmt)
}

func (o *stmtRemoval) Apply() error {
	i := o.block.IndexOf(o.stmt)
	if i < 0 {
		return invariant(KindStmt, "statement is no longer in its block")
	}
	o.block.Remove(i)
	return nil
}

// removalCouldLeaveNoReturn reports whether removing stmt from block
// might leave the non-void function fn without a reachable return.
func removalCouldLeaveNoReturn(fn *ast.FunctionDef, block *ast.BlockStmt, stmt ast.Stmt) bool {
	if fn == nil || !containsLiveReturn(fn, stmt) {
		return false
	}
	for _, s := range block.Stmts {
		if s == stmt {
			break
		}
		if _, ok := s.(*ast.ReturnStmt); ok {
			return false
		}
	}
	last := fn.Body.Last()
	if _, ok := last.(*ast.ReturnStmt); ok && last != stmt {
		return false
	}
	return true
}

// containsLiveReturn reports whether target, a statement of fn, contains a
// return with a value outside dead-code injections and unreachable cases.
// Dead functions are not exempt: removing their returns would make the
// shader invalid.
func containsLiveReturn(fn *ast.FunctionDef, target ast.Stmt) bool {
	var t injection.Tracker
	found := false
	var visit func(s ast.Stmt, inside bool)
	visit = func(s ast.Stmt, inside bool) {
		if s == nil || found {
			return
		}
		inside = inside || s == target
		switch s := s.(type) {
		case *ast.ReturnStmt:
			if inside && s.X != nil && !t.EnclosedByDeadCodeInjection() && !t.UnderUnreachableSwitchCase() {
				found = true
			}
		case *ast.IfStmt:
			dead := injection.IsDeadByConstruction(s.Cond)
			if dead {
				t.EnterDeadCodeInjection()
			}
			visit(s.Then, inside)
			visit(s.Else, inside)
			if dead {
				t.LeaveDeadCodeInjection()
			}
		case *ast.SwitchStmt:
			t.EnterSwitch(s)
			inBody := inside || s.Body == target
			for _, c := range s.Body.Stmts {
				if ast.IsCaseLabel(c) {
					t.NotifyCase(c)
				}
				visit(c, inBody)
				if _, ok := c.(*ast.BreakStmt); ok {
					t.NotifyBreak()
				}
			}
			t.LeaveSwitch()
		default:
			for _, c := range ast.Children(s) {
				if cs, ok := c.(ast.Stmt); ok {
					visit(cs, inside)
				}
			}
		}
	}
	visit(fn.Body, false)
	return found
}

func describeStmt(s ast.Stmt) string {
	switch s := s.(type) {
	case *ast.BlockStmt:
		return fmt.Sprintf("block of %d statements", len(s.Stmts))
	case *ast.IfStmt:
		return "if (" + printer.ExprString(s.Cond) + ")"
	case *ast.ForStmt:
		return "for loop"
	case *ast.WhileStmt:
		return "while (" + printer.ExprString(s.Cond) + ")"
	case *ast.DoStmt:
		return "do-while (" + printer.ExprString(s.Cond) + ")"
	case *ast.SwitchStmt:
		return "switch (" + printer.ExprString(s.X) + ")"
	case *ast.ExprStmt:
		return printer.ExprString(s.X) + ";"
	case *ast.DeclStmt:
		names := make([]string, len(s.Decl.Decls))
		for i, d := range s.Decl.Decls {
			names[i] = d.Name
		}
		return fmt.Sprintf("declaration %v", names)
	}
	return fmt.Sprintf("%T", s)
}

// ----------------------------------------------------------------------------
// Finder
// ----------------------------------------------------------------------------

type stmtFinder struct {
	*walk
	structRefs map[string]bool
}

func findStmt(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &stmtFinder{walk: newWalk(job, tu, ctx), structRefs: referencedStructNames(tu)}
	return f.run(f)
}

func (f *stmtFinder) Enter(w *scope.Walker, n ast.Node) bool {
	s, ok := n.(ast.Stmt)
	if !ok {
		return true
	}
	block, ok := w.Parent().(*ast.BlockStmt)
	if !ok {
		return true
	}
	empty := false
	if b, ok := s.(*ast.BlockStmt); ok && len(b.Stmts) == 0 {
		empty = true
	}
	if empty || injection.IsDeadCodeInjection(s) || f.allowedToReduceStmt(w, s) {
		f.add(&stmtRemoval{base: base{w.Depth()}, fn: w.Function(), block: block, stmt: s})
	}
	return true
}

func (f *stmtFinder) allowedToReduceStmt(w *scope.Walker, s ast.Stmt) bool {
	// Declarations are removed by the declaration finders.
	if d, ok := s.(*ast.DeclStmt); ok {
		return len(d.Decl.Decls) == 0 && !f.declaresReferencedStruct(d.Decl)
	}
	if _, ok := s.(*ast.NullStmt); ok {
		return true
	}
	if isRedundantCopy(s) || sideEffectFree(s) || f.dead(w) {
		return true
	}
	block := w.Parent().(*ast.BlockStmt)
	if removalCouldLeaveNoReturn(w.Function(), block, s) {
		return false
	}
	if f.ctx.ReduceEverywhere {
		return true
	}
	if !isLiveCodeInjection(s) {
		return false
	}
	if !referencesLoopLimiter(s, w.Scope()) {
		return true
	}
	return ast.IsLoop(s) && f.limits.DoesNotImpactLoopLimiting(s)
}

func (f *stmtFinder) declaresReferencedStruct(d *ast.VariablesDecl) bool {
	return d.Type.Struct != nil && d.Type.Struct.Name != "" && f.structRefs[d.Type.Struct.Name]
}

// isRedundantCopy reports whether s is "x = x;".
func isRedundantCopy(s ast.Stmt) bool {
	es, ok := s.(*ast.ExprStmt)
	if !ok {
		return false
	}
	bin, ok := es.X.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.BinAssign {
		return false
	}
	l, lok := bin.X.(*ast.Ident)
	r, rok := bin.Y.(*ast.Ident)
	return lok && rok && l.Name == r.Name
}
