package reduce

import (
	"fmt"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/printer"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

// stmtReplacement replaces a compound statement with another statement
// built from its parts: a branch, a loop body, the guard alone or a
// flattened block.
type stmtReplacement struct {
	base
	kind     Kind
	parent   ast.Node
	compound ast.Stmt
	part     ast.Node // the piece of compound the replacement keeps
	repl     ast.Stmt
	desc     string
}

func (o *stmtReplacement) Kind() Kind { return o.kind }

func (o *stmtReplacement) String() string {
	return fmt.Sprintf("replace %s with %s", describeStmt(o.compound), o.desc)
}

func (o *stmtReplacement) Precondition() bool {
	return ast.HasChild(o.parent, o.compound) && ast.HasChild(o.compound, o.part)
}

func (o *stmtReplacement) Apply() error {
	return replace(o.kind, o.parent, o.compound, o.repl)
}

// allowedToReduceCompound reports whether the compound statement s, the
// node being visited, may be replaced by part of itself.
func (f *walk) allowedToReduceCompound(w *scope.Walker, s ast.Stmt) bool {
	if f.ctx.ReduceEverywhere || f.dead(w) {
		return true
	}
	if (isLiveCodeInjection(s) || inLiveCodeInjection(w)) && !f.isLoopLimiterCheck(w, s) {
		return true
	}
	return sideEffectFree(s)
}

// inLiveCodeInjection reports whether an ancestor statement of the current
// node was injected as live code.
func inLiveCodeInjection(w *scope.Walker) bool {
	stack := w.Stack()
	for i := len(stack) - 2; i >= 0; i-- {
		if s, ok := stack[i].(ast.Stmt); ok && isLiveCodeInjection(s) {
			return true
		}
	}
	return false
}

func (f *walk) isLoopLimiterCheck(w *scope.Walker, s ast.Stmt) bool {
	_, ok := s.(*ast.IfStmt)
	return ok && f.limits.ReferencesNonRedundantLoopLimiter(s, w.Scope())
}

// containsTopLevelJump reports whether body has a break (or continue) that
// would leave, or restart, the loop body belongs to.
func containsTopLevelJump(body ast.Stmt, breaks bool) bool {
	found := false
	var visit func(n ast.Node)
	visit = func(n ast.Node) {
		if found {
			return
		}
		switch n.(type) {
		case *ast.BreakStmt:
			found = breaks
			return
		case *ast.ContinueStmt:
			found = !breaks
			return
		case *ast.ForStmt, *ast.WhileStmt, *ast.DoStmt:
			return
		case *ast.SwitchStmt:
			// A break in a switch leaves the switch; a continue still
			// reaches the loop.
			if breaks {
				return
			}
		case ast.Expr:
			return
		}
		for _, c := range ast.Children(n) {
			visit(c)
		}
	}
	visit(body)
	return found
}

func loopHasTopLevelJump(loop ast.Stmt) bool {
	body := ast.LoopBody(loop)
	return containsTopLevelJump(body, true) || containsTopLevelJump(body, false)
}

// scopedBody returns s as a statement that can stand where the enclosing
// loop stood: a loop body block gets a scope of its own.
func scopedBody(s ast.Stmt) ast.Stmt {
	if b, ok := s.(*ast.BlockStmt); ok && !b.NewScope {
		return &ast.BlockStmt{Loc: b.Loc, Stmts: b.Stmts, NewScope: true}
	}
	return s
}

// ----------------------------------------------------------------------------
// Compound to Block
// ----------------------------------------------------------------------------

type compoundToBlockFinder struct {
	*walk
}

func findCompoundToBlock(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &compoundToBlockFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *compoundToBlockFinder) Leave(w *scope.Walker, n ast.Node) {
	switch s := n.(type) {
	case *ast.IfStmt:
		if injection.IsDeadByConstruction(s.Cond) {
			return
		}
		f.offer(w, s, s.Then, s.Then)
		if s.Else != nil {
			f.offer(w, s, s.Else, s.Else)
		}
	case *ast.ForStmt:
		if loopHasTopLevelJump(s) || injection.IsDeadByConstruction(s.Cond) {
			return
		}
		// The body may use a variable declared by the loop header.
		if d, ok := s.Init.(*ast.DeclStmt); ok {
			repl := &ast.BlockStmt{Stmts: []ast.Stmt{d, s.Body}, NewScope: true}
			f.offer(w, s, s.Body, repl)
			return
		}
		f.offer(w, s, s.Body, scopedBody(s.Body))
	case *ast.WhileStmt, *ast.DoStmt:
		loop := s.(ast.Stmt)
		if loopHasTopLevelJump(loop) || injection.IsDeadByConstruction(ast.LoopCond(loop)) {
			return
		}
		body := ast.LoopBody(loop)
		f.offer(w, loop, body, scopedBody(body))
	}
}

func (f *compoundToBlockFinder) offer(w *scope.Walker, s ast.Stmt, part ast.Stmt, repl ast.Stmt) {
	if !f.allowedToReduceCompound(w, s) {
		return
	}
	f.add(&stmtReplacement{
		base:     base{w.Depth()},
		kind:     KindCompoundToBlock,
		parent:   w.Parent(),
		compound: s,
		part:     part,
		repl:     repl,
		desc:     describeStmt(part),
	})
}

// ----------------------------------------------------------------------------
// Compound to Guard
// ----------------------------------------------------------------------------

type compoundToGuardFinder struct {
	*walk
}

func findCompoundToGuard(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &compoundToGuardFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *compoundToGuardFinder) Leave(w *scope.Walker, n ast.Node) {
	var guard ast.Expr
	switch s := n.(type) {
	case *ast.IfStmt:
		guard = s.Cond
	case *ast.SwitchStmt:
		guard = s.X
	case *ast.WhileStmt:
		guard = s.Cond
	case *ast.DoStmt:
		guard = s.Cond
	case *ast.ForStmt:
		// A declaration in the header may be what the guard reads.
		if _, ok := s.Init.(*ast.DeclStmt); ok {
			return
		}
		guard = s.Cond
	default:
		return
	}
	s := n.(ast.Stmt)
	if guard == nil || !f.allowedToReduceCompound(w, s) {
		return
	}
	f.add(&stmtReplacement{
		base:     base{w.Depth()},
		kind:     KindCompoundToGuard,
		parent:   w.Parent(),
		compound: s,
		part:     guard,
		repl:     &ast.ExprStmt{X: guard},
		desc:     printer.ExprString(guard) + ";",
	})
}

// ----------------------------------------------------------------------------
// Flatten Control Flow
// ----------------------------------------------------------------------------

// flattenFinder replaces a conditional or loop with a block that evaluates
// its guard once and runs its body once:
//
//	if (c) A else B            ->  { c; A }  or  { c; B }
//	for (init; c; inc) A       ->  { init; c; A inc; }
//	while (c) A                ->  { c; A }
//	do A while (c);            ->  { A c; }
type flattenFinder struct {
	*walk
}

func findFlattenControlFlow(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &flattenFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *flattenFinder) Leave(w *scope.Walker, n ast.Node) {
	s, ok := n.(ast.Stmt)
	if !ok {
		return
	}
	if ast.IsLoop(s) && loopHasTopLevelJump(s) {
		return
	}
	if _, ok := s.(*ast.IfStmt); !ok && !ast.IsLoop(s) {
		return
	}
	if !f.ctx.ReduceEverywhere && !f.dead(w) &&
		!(isLiveCodeInjection(s) && !f.isLoopLimiterCheck(w, s)) && !sideEffectFree(s) {
		return
	}

	offer := func(part ast.Stmt, stmts ...ast.Stmt) {
		var kept []ast.Stmt
		for _, st := range stmts {
			if st != nil {
				kept = append(kept, st)
			}
		}
		f.add(&stmtReplacement{
			base:     base{w.Depth()},
			kind:     KindFlattenControlFlow,
			parent:   w.Parent(),
			compound: s,
			part:     part,
			repl:     &ast.BlockStmt{Stmts: kept, NewScope: true},
			desc:     "its flattened body",
		})
	}

	switch s := s.(type) {
	case *ast.IfStmt:
		offer(s.Then, exprStmt(s.Cond), s.Then)
		if s.Else != nil {
			offer(s.Else, exprStmt(s.Cond), s.Else)
		}
	case *ast.ForStmt:
		var init ast.Stmt
		if _, null := s.Init.(*ast.NullStmt); !null {
			init = s.Init
		}
		offer(s.Body, init, exprStmt(s.Cond), scopedBody(s.Body), exprStmt(s.Incr))
	case *ast.WhileStmt:
		offer(s.Body, exprStmt(s.Cond), scopedBody(s.Body))
	case *ast.DoStmt:
		offer(s.Body, scopedBody(s.Body), exprStmt(s.Cond))
	}
}

// exprStmt wraps e as a statement, or returns nil for a nil e.
func exprStmt(e ast.Expr) ast.Stmt {
	if e == nil {
		return nil
	}
	return &ast.ExprStmt{X: e}
}
