package injection

import (
	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/scope"
)

// Tracking wraps a scope.Visitor and keeps a Tracker current as the walk
// enters and leaves injected code. The wrapped visitor queries it to learn
// whether the node it sees is dead, fuzzed or being written to.
//
// Case labels of a switch are reported to the tracker before the wrapped
// visitor sees them; a break directly in a switch body is reported after.
// The condition of "if (_GLF_DEAD(...))" is live; its branches are not.
type Tracking struct {
	Tracker

	live    *Liveness
	visitor scope.Visitor
	lvalues int
}

// NewTracking returns a tracking visitor for tu around v.
func NewTracking(tu *ast.TranslationUnit, v scope.Visitor) *Tracking {
	return &Tracking{live: ComputeLiveness(tu), visitor: v}
}

// Walk visits tu with the tracking visitor and returns the walker used.
func (t *Tracking) Walk(tu *ast.TranslationUnit) *scope.Walker {
	return scope.Walk(tu, t)
}

// Liveness returns the function liveness computed for the translation unit.
func (t *Tracking) Liveness() *Liveness { return t.live }

// FunctionIsDead reports whether the function enclosing the walker's
// position never runs. Global scope is never dead.
func (t *Tracking) FunctionIsDead(w *scope.Walker) bool {
	fn := w.Function()
	return fn != nil && t.live.FunctionIsDead(fn.Proto.Name)
}

// ProgramPointIsDead reports whether the node being visited never runs.
func (t *Tracking) ProgramPointIsDead(w *scope.Walker) bool {
	return t.IsDead(t.FunctionIsDead(w))
}

// InLValueContext reports whether the node being visited is written to: it
// is inside the target of an assignment or of an increment or decrement.
func (t *Tracking) InLValueContext() bool { return t.lvalues > 0 }

func (t *Tracking) Enter(w *scope.Walker, n ast.Node) bool {
	parent := w.Parent()
	if block, ok := parent.(*ast.BlockStmt); ok && isSwitchBody(w, block) {
		if ast.IsCaseLabel(asStmt(n)) {
			t.NotifyCase(n.(ast.Stmt))
		}
	}

	t.track(parent, n, 1)
	if !t.visitor.Enter(w, n) {
		t.track(parent, n, -1)
		t.afterBreak(w, parent, n)
		return false
	}
	t.afterBreak(w, parent, n)
	return true
}

func (t *Tracking) Leave(w *scope.Walker, n ast.Node) {
	t.visitor.Leave(w, n)
	t.track(w.Parent(), n, -1)
}

func (t *Tracking) afterBreak(w *scope.Walker, parent, n ast.Node) {
	if _, ok := n.(*ast.BreakStmt); !ok {
		return
	}
	if block, ok := parent.(*ast.BlockStmt); ok && isSwitchBody(w, block) {
		t.NotifyBreak()
	}
}

// track applies (delta 1) or undoes (delta -1) the state change of
// entering n under parent.
func (t *Tracking) track(parent, n ast.Node, delta int) {
	switch n := n.(type) {
	case *ast.SwitchStmt:
		if delta > 0 {
			t.EnterSwitch(n)
		} else {
			t.LeaveSwitch()
		}
	case *ast.CallExpr:
		if IsFuzzed(n) {
			t.fuzzed += delta
		}
	}

	switch p := parent.(type) {
	case *ast.IfStmt:
		if IsDeadByConstruction(p.Cond) && n != ast.Node(p.Cond) {
			t.dead += delta
		}
	case *ast.BinaryExpr:
		if p.Op.IsSideEffecting() && n == ast.Node(p.X) {
			t.lvalues += delta
		}
	case *ast.UnaryExpr:
		if p.Op.IsSideEffecting() {
			t.lvalues += delta
		}
	}
}

func isSwitchBody(w *scope.Walker, block *ast.BlockStmt) bool {
	sw, ok := w.Ancestor(2).(*ast.SwitchStmt)
	return ok && sw.Body == block
}

func asStmt(n ast.Node) ast.Stmt {
	s, _ := n.(ast.Stmt)
	return s
}
