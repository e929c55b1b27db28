package scope

import "github.com/HugoDaniel/glslreduce/internal/ast"

// CanIntroduce reports whether a new variable called name can be declared
// at the top of block without changing what any identifier refers to:
// nothing inside block may declare name, and no use of name inside block
// may already resolve to a declaration.
func CanIntroduce(tu *ast.TranslationUnit, block *ast.BlockStmt, name string) bool {
	ok := true
	inside := 0
	Walk(tu, Funcs{
		OnEnter: func(w *Walker, n ast.Node) bool {
			if !ok {
				return false
			}
			if n == block {
				inside++
				return true
			}
			if inside == 0 {
				return true
			}
			switch n := n.(type) {
			case *ast.VarDeclInfo:
				if n.Name == name {
					ok = false
				}
			case *ast.ParamDecl:
				if n.Name == name {
					ok = false
				}
			case *ast.Ident:
				if n.Name == name && w.Scope().Lookup(name) != nil {
					ok = false
				}
			}
			return true
		},
		OnLeave: func(w *Walker, n ast.Node) {
			if n == block {
				inside--
			}
		},
	})
	return ok
}
