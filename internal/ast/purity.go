package ast

// ----------------------------------------------------------------------------
// Side Effect Analysis
// ----------------------------------------------------------------------------

// PurityContext provides context for side effect analysis.
type PurityContext struct {
	// Builtins holds every builtin function name of the target language.
	Builtins map[string]bool

	// ImpureBuiltins holds the builtins that write through an out or inout
	// parameter or touch shared memory.
	ImpureBuiltins map[string]bool

	// Macros holds the names of injection macros; calling one is not a
	// side effect in itself.
	Macros map[string]bool
}

// IsSideEffectFree reports whether evaluating or executing n cannot change
// program state or control flow. A call to a function that is neither a
// builtin nor a macro is assumed to have side effects. Jumps and case
// labels count as side effects because removing them changes control flow.
func (ctx *PurityContext) IsSideEffectFree(n Node) bool {
	free := true
	Inspect(n, func(x Node) bool {
		if !free {
			return false
		}
		switch x := x.(type) {
		case *CallExpr:
			switch {
			case ctx.Builtins[x.Callee]:
				// A builtin with an out parameter writes its argument
				if ctx.ImpureBuiltins[x.Callee] {
					free = false
				}
			case ctx.Macros[x.Callee]:
				// Macro arguments are checked like any other subexpression
			default:
				free = false
			}
		case *UnaryExpr:
			if x.Op.IsSideEffecting() {
				free = false
			}
		case *BinaryExpr:
			if x.Op.IsSideEffecting() {
				free = false
			}
		case *ReturnStmt, *BreakStmt, *ContinueStmt, *DiscardStmt,
			*ExprCaseLabel, *DefaultCaseLabel:
			free = false
		}
		return free
	})
	return free
}

// ExprCanBeRemovedIfUnused returns true if the expression can be safely
// removed when its result is not used.
func (ctx *PurityContext) ExprCanBeRemovedIfUnused(expr Expr) bool {
	if expr == nil {
		return true
	}
	return ctx.IsSideEffectFree(expr)
}

// StmtCanBeRemovedIfUnused returns true if the statement can be removed
// without changing observable behaviour, assuming none of the names it
// declares are referenced.
func (ctx *PurityContext) StmtCanBeRemovedIfUnused(stmt Stmt) bool {
	if stmt == nil {
		return true
	}

	switch s := stmt.(type) {
	case *NullStmt:
		return true

	case *DeclStmt:
		for _, vdi := range s.Decl.Decls {
			if !ctx.ExprCanBeRemovedIfUnused(vdi.Init) {
				return false
			}
		}
		return true

	case *ExprStmt:
		return ctx.ExprCanBeRemovedIfUnused(s.X)

	case *BlockStmt:
		for _, child := range s.Stmts {
			if !ctx.StmtCanBeRemovedIfUnused(child) {
				return false
			}
		}
		return true

	default:
		return ctx.IsSideEffectFree(s)
	}
}
