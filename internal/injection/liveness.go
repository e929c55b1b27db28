package injection

import (
	"github.com/HugoDaniel/glslreduce/internal/ast"
)

// Liveness records which functions of a translation unit can execute.
// A function is live when main reaches it through calls that are not
// themselves in dead code. Functions named with the dead prefix are
// always dead.
type Liveness struct {
	hasMain bool
	live    map[string]bool
}

// ComputeLiveness finds the live functions of tu by iterating to a
// fixpoint from main and from global initializers.
func ComputeLiveness(tu *ast.TranslationUnit) *Liveness {
	defs := make(map[string][]*ast.FunctionDef)
	for _, d := range tu.Decls {
		if fd, ok := d.(*ast.FunctionDef); ok {
			defs[fd.Proto.Name] = append(defs[fd.Proto.Name], fd)
		}
	}

	l := &Liveness{live: make(map[string]bool)}
	_, l.hasMain = defs["main"]

	var worklist []string
	mark := func(name string) {
		if l.live[name] || IsDeadFunction(name) {
			return
		}
		if _, ok := defs[name]; !ok {
			return
		}
		l.live[name] = true
		worklist = append(worklist, name)
	}

	mark("main")
	for _, d := range tu.Decls {
		if vd, ok := d.(*ast.VariablesDecl); ok {
			collectCalls(vd, mark)
		}
	}

	for len(worklist) > 0 {
		name := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, fd := range defs[name] {
			var t Tracker
			liveCalls(fd.Body, &t, mark)
		}
	}
	return l
}

// IsLive reports whether the named function can be reached from main.
func (l *Liveness) IsLive(name string) bool { return l.live[name] }

// NeverCalledFromLiveContext reports whether no live code calls the named
// function. Without a main function every function is assumed reachable.
func (l *Liveness) NeverCalledFromLiveContext(name string) bool {
	if !l.hasMain {
		return false
	}
	return name != "main" && !l.live[name]
}

// FunctionIsDead reports whether code in the named function never runs.
func (l *Liveness) FunctionIsDead(name string) bool {
	return IsDeadFunction(name) || l.NeverCalledFromLiveContext(name)
}

// liveCalls reports every call in s that is reached outside dead code.
func liveCalls(s ast.Stmt, t *Tracker, mark func(string)) {
	if s == nil || t.IsDead(false) {
		return
	}
	switch s := s.(type) {
	case *ast.IfStmt:
		collectCalls(s.Cond, mark)
		dead := IsDeadByConstruction(s.Cond)
		if dead {
			t.EnterDeadCodeInjection()
		}
		liveCalls(s.Then, t, mark)
		liveCalls(s.Else, t, mark)
		if dead {
			t.LeaveDeadCodeInjection()
		}

	case *ast.SwitchStmt:
		collectCalls(s.X, mark)
		t.EnterSwitch(s)
		for _, child := range s.Body.Stmts {
			if ast.IsCaseLabel(child) {
				t.NotifyCase(child)
				continue
			}
			liveCalls(child, t, mark)
			if _, ok := child.(*ast.BreakStmt); ok {
				t.NotifyBreak()
			}
		}
		t.LeaveSwitch()

	default:
		for _, child := range ast.Children(s) {
			if st, ok := child.(ast.Stmt); ok {
				liveCalls(st, t, mark)
			} else {
				collectCalls(child, mark)
			}
		}
	}
}

func collectCalls(n ast.Node, mark func(string)) {
	if n == nil {
		return
	}
	ast.Inspect(n, func(n ast.Node) bool {
		if call, ok := n.(*ast.CallExpr); ok {
			mark(call.Callee)
		}
		return true
	})
}
