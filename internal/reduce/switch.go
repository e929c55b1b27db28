package reduce

import (
	"slices"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

// ----------------------------------------------------------------------------
// Unswitchify
// ----------------------------------------------------------------------------

// originalRegion returns the statements of an injected switch that run:
// those after "case 0:" up to the first break directly in the body. Case
// labels inside the region are dropped. It reports false when the switch
// has no such region or when the region leaves the switch other than by
// its closing break.
func originalRegion(s *ast.SwitchStmt) ([]ast.Stmt, bool) {
	start := -1
	for i, st := range s.Body.Stmts {
		if injection.IsOriginalCodeLabel(st) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, false
	}
	var region []ast.Stmt
	for _, st := range s.Body.Stmts[start:] {
		if _, ok := st.(*ast.BreakStmt); ok {
			break
		}
		if ast.IsCaseLabel(st) {
			continue
		}
		if containsTopLevelJump(st, true) {
			return nil, false
		}
		region = append(region, st)
	}
	return region, true
}

type unswitchifyFinder struct {
	*walk
}

func findUnswitchify(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &unswitchifyFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *unswitchifyFinder) Leave(w *scope.Walker, n ast.Node) {
	s, ok := n.(*ast.SwitchStmt)
	if !ok || !injection.IsSwitch(s.X) {
		return
	}
	region, ok := originalRegion(s)
	if !ok {
		return
	}
	f.add(&stmtReplacement{
		base:     base{w.Depth()},
		kind:     KindUnswitchify,
		parent:   w.Parent(),
		compound: s,
		part:     s.Body,
		repl:     &ast.BlockStmt{Stmts: slices.Clone(region), NewScope: true},
		desc:     "its original code",
	})
}

// ----------------------------------------------------------------------------
// Switch to Loop
// ----------------------------------------------------------------------------

// switchLoop turns a switch into a loop that runs once, so the breaks of
// the switch keep their meaning:
//
//	switch (e) { case 0: A; break; default: B; }  ->  do { e; A; break; B; } while (false);
func switchLoop(s *ast.SwitchStmt) *ast.DoStmt {
	stmts := []ast.Stmt{&ast.ExprStmt{X: s.X}}
	for _, st := range s.Body.Stmts {
		if !ast.IsCaseLabel(st) {
			stmts = append(stmts, st)
		}
	}
	return &ast.DoStmt{
		Body: &ast.BlockStmt{Loc: s.Body.Loc, Stmts: stmts, NewScope: true},
		Cond: &ast.BoolLit{Value: false},
	}
}

type switchToLoopFinder struct {
	*walk
}

func findSwitchToLoop(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &switchToLoopFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

// The switch is checked on entry, before its own case status is tracked.
func (f *switchToLoopFinder) Enter(w *scope.Walker, n ast.Node) bool {
	s, ok := n.(*ast.SwitchStmt)
	if !ok {
		return true
	}
	if !f.ctx.ReduceEverywhere && !f.dead(w) && !inLiveCodeInjection(w) {
		return true
	}
	f.add(&stmtReplacement{
		base:     base{w.Depth()},
		kind:     KindSwitchToLoop,
		parent:   w.Parent(),
		compound: s,
		part:     s.Body,
		repl:     switchLoop(s),
		desc:     "a single-iteration loop",
	})
	return true
}
