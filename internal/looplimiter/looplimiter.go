// Package looplimiter decides which loops can be removed without changing
// how the remaining loops are bounded.
//
// Live-injected loops may carry a limiter: a GLF_live*looplimiter* counter
// that is tested and incremented so the loop cannot run forever. Removing
// a loop that increments a limiter declared outside it would leave the
// loop that owns the limiter unbounded.
package looplimiter

import (
	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/scope"
)

// frame is one entry of the loop nest: a loop, or the function body at the
// bottom, with the limiters declared directly in it.
type frame struct {
	owner    ast.Node
	limiters map[*ast.VariablesDecl]bool
}

// Checker holds the result of analysing one translation unit.
type Checker struct {
	removable    map[ast.Node]bool
	nonRedundant map[*ast.VariablesDecl]bool

	tracking *injection.Tracking
	stack    []frame
}

// New analyses tu.
func New(tu *ast.TranslationUnit) *Checker {
	c := &Checker{
		removable:    make(map[ast.Node]bool),
		nonRedundant: make(map[*ast.VariablesDecl]bool),
	}
	c.tracking = injection.NewTracking(tu, c)
	c.tracking.Walk(tu)
	c.tracking = nil
	return c
}

// DoesNotImpactLoopLimiting reports whether removing loop leaves the
// limiting of every other loop intact. It says nothing about whether the
// removal is otherwise safe.
func (c *Checker) DoesNotImpactLoopLimiting(loop ast.Stmt) bool {
	return c.removable[loop]
}

// ReferencesNonRedundantLoopLimiter reports whether n mentions a limiter,
// visible in sc, that still bounds some loop. Limiters declared inside n
// itself are not in sc and are ignored.
func (c *Checker) ReferencesNonRedundantLoopLimiter(n ast.Node, sc *scope.Scope) bool {
	found := false
	ast.Inspect(n, func(n ast.Node) bool {
		if found {
			return false
		}
		id, ok := n.(*ast.Ident)
		if !ok || !injection.IsLoopLimiter(id.Name) {
			return true
		}
		if e := sc.Lookup(id.Name); e != nil && e.Decl != nil && c.nonRedundant[e.Decl] {
			found = true
		}
		return true
	})
	return found
}

func (c *Checker) Enter(w *scope.Walker, n ast.Node) bool {
	switch n := n.(type) {
	case *ast.FunctionDef:
		c.stack = append(c.stack[:0], frame{owner: n.Body, limiters: map[*ast.VariablesDecl]bool{}})
	case *ast.ForStmt, *ast.WhileStmt, *ast.DoStmt:
		c.removable[n] = true
		c.stack = append(c.stack, frame{owner: n, limiters: map[*ast.VariablesDecl]bool{}})
	case *ast.Ident:
		c.reference(w, n)
	}
	return true
}

func (c *Checker) Leave(w *scope.Walker, n ast.Node) {
	switch n := n.(type) {
	case *ast.FunctionDef:
		c.stack = c.stack[:0]
	case *ast.ForStmt, *ast.WhileStmt, *ast.DoStmt:
		c.stack = c.stack[:len(c.stack)-1]
	case *ast.VariablesDecl:
		if w.Function() == nil || len(c.stack) == 0 {
			return
		}
		// A limiter is always declared on its own.
		if len(n.Decls) == 1 && injection.IsLoopLimiter(n.Decls[0].Name) {
			c.stack[len(c.stack)-1].limiters[n] = true
		}
	}
}

// reference walks outward from the use of a limiter to its declaration.
// Every loop crossed on the way may be limited by it, so the limiter is
// not redundant and the innermost of those loops cannot go.
func (c *Checker) reference(w *scope.Walker, id *ast.Ident) {
	if !injection.IsLoopLimiter(id.Name) || c.tracking.UnderFuzzedMacro() || len(c.stack) == 0 {
		return
	}
	e := w.Scope().Lookup(id.Name)
	if e == nil || e.Decl == nil {
		return
	}
	top := len(c.stack) - 1
	for i := top; i >= 0; i-- {
		if i < top {
			c.nonRedundant[e.Decl] = true
		}
		if c.stack[i].limiters[e.Decl] {
			return
		}
		if i < top {
			delete(c.removable, c.stack[i+1].owner)
		}
	}
}
