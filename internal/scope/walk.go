package scope

import (
	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/types"
)

// Visitor receives the nodes of a scope-aware walk.
type Visitor interface {
	// Enter is called before the children of n are visited. Returning
	// false skips the children and the matching Leave call. Declarations
	// made by a skipped node are still recorded in scope.
	Enter(w *Walker, n ast.Node) bool

	// Leave is called after the children of n. A VarDeclInfo is already
	// in scope when Leave is called for it.
	Leave(w *Walker, n ast.Node)
}

// Walker is a depth-first traversal that keeps the lexical scope, the
// enclosing function and the chain of ancestors up to date.
type Walker struct {
	visitor Visitor

	scope      *Scope
	function   *ast.FunctionDef
	stack      []ast.Node
	blocks     []*ast.BlockStmt
	prototypes []*ast.FunctionPrototype
}

// NewWalker returns a walker positioned at global scope.
func NewWalker(v Visitor) *Walker {
	return &Walker{visitor: v, scope: New()}
}

// Walk visits every node of tu with v.
func Walk(tu *ast.TranslationUnit, v Visitor) *Walker {
	w := NewWalker(v)
	w.Visit(tu)
	return w
}

// Scope returns the scope at the current point.
func (w *Walker) Scope() *Scope { return w.scope }

// Function returns the enclosing function definition, or nil at global
// scope.
func (w *Walker) Function() *ast.FunctionDef { return w.function }

// AtGlobalScope reports whether no function or block scope is open.
func (w *Walker) AtGlobalScope() bool { return w.scope.IsGlobal() }

// Depth returns the number of ancestors of the node being visited.
func (w *Walker) Depth() int {
	if len(w.stack) == 0 {
		return 0
	}
	return len(w.stack) - 1
}

// Parent returns the parent of the node being visited, or nil.
func (w *Walker) Parent() ast.Node {
	return w.Ancestor(1)
}

// Ancestor returns the n-th ancestor of the node being visited: 0 is the
// node itself, 1 its parent and so on. It returns nil past the root.
func (w *Walker) Ancestor(n int) ast.Node {
	i := len(w.stack) - 1 - n
	if i < 0 {
		return nil
	}
	return w.stack[i]
}

// Stack returns the chain of nodes from the root to the current node. The
// slice must not be retained.
func (w *Walker) Stack() []ast.Node { return w.stack }

// CurrentBlock returns the innermost enclosing block, or nil.
func (w *Walker) CurrentBlock() *ast.BlockStmt {
	if len(w.blocks) == 0 {
		return nil
	}
	return w.blocks[len(w.blocks)-1]
}

// Prototypes returns every function prototype seen so far, including the
// headers of function definitions.
func (w *Walker) Prototypes() []*ast.FunctionPrototype { return w.prototypes }

// PushScope opens a nested scope.
func (w *Walker) PushScope() { w.scope = w.scope.NewChild() }

// PopScope closes the innermost scope.
func (w *Walker) PopScope() { w.scope = w.scope.Parent() }

// SwapScope replaces the current scope and returns the previous one.
func (w *Walker) SwapScope(s *Scope) *Scope {
	old := w.scope
	w.scope = s
	return old
}

// Visit walks the subtree rooted at n.
func (w *Walker) Visit(n ast.Node) {
	if n == nil {
		return
	}
	w.stack = append(w.stack, n)
	defer func() { w.stack = w.stack[:len(w.stack)-1] }()

	enter := w.visitor.Enter(w, n)

	switch n := n.(type) {
	case *ast.FunctionDef:
		if !enter {
			w.prototypes = append(w.prototypes, n.Proto)
			return
		}
		w.function = n
		w.PushScope()
		w.visitHeader(n.Proto)
		w.Visit(n.Body)
		w.PopScope()
		w.function = nil

	case *ast.FunctionPrototype:
		// A forward declaration; its parameters are not in scope anywhere
		w.prototypes = append(w.prototypes, n)
		if !enter {
			return
		}
		w.visitChildren(n)

	case *ast.VariablesDecl:
		if enter {
			w.Visit(n.Type)
		} else if n.Type.Struct != nil {
			w.scope.AddStruct(n.Type.Struct)
		}
		for _, info := range n.Decls {
			if enter {
				w.visitDeclInfo(n, info)
			} else {
				w.declare(n, info)
			}
		}

	case *ast.InterfaceBlock:
		if enter {
			w.visitChildren(n)
		}
		w.declareBlock(n)

	case *ast.StructDef:
		if enter {
			w.visitChildren(n)
		}
		w.scope.AddStruct(n)

	case *ast.BlockStmt:
		if !enter {
			return
		}
		w.blocks = append(w.blocks, n)
		if n.NewScope {
			w.PushScope()
		}
		w.visitChildren(n)
		if n.NewScope {
			w.PopScope()
		}
		w.blocks = w.blocks[:len(w.blocks)-1]

	case *ast.ForStmt, *ast.WhileStmt:
		// The loop header, not the body's brace, opens the scope
		if !enter {
			return
		}
		w.PushScope()
		w.visitChildren(n)
		w.PopScope()

	default:
		if !enter {
			return
		}
		w.visitChildren(n)
	}

	if enter {
		w.visitor.Leave(w, n)
	}
}

func (w *Walker) visitChildren(n ast.Node) {
	for _, c := range ast.Children(n) {
		w.Visit(c)
	}
}

// visitHeader visits the prototype of a function definition, adding each
// parameter to the function's scope.
func (w *Walker) visitHeader(proto *ast.FunctionPrototype) {
	w.prototypes = append(w.prototypes, proto)
	w.stack = append(w.stack, proto)
	enter := w.visitor.Enter(w, proto)
	if enter {
		w.Visit(proto.ReturnType)
	}
	for _, p := range proto.Params {
		if enter {
			w.Visit(p)
		}
		if p.Name != "" {
			w.scope.Add(&Entry{
				Name:  p.Name,
				Kind:  EntryParam,
				Type:  w.scope.Resolve(p.Type, p.Array),
				Param: p,
			})
		}
	}
	if enter {
		w.visitor.Leave(w, proto)
	}
	w.stack = w.stack[:len(w.stack)-1]
}

func (w *Walker) visitDeclInfo(decl *ast.VariablesDecl, info *ast.VarDeclInfo) {
	w.stack = append(w.stack, info)
	defer func() { w.stack = w.stack[:len(w.stack)-1] }()
	if !w.visitor.Enter(w, info) {
		w.declare(decl, info)
		return
	}
	w.visitChildren(info)
	w.declare(decl, info)
	w.visitor.Leave(w, info)
}

func (w *Walker) declare(decl *ast.VariablesDecl, info *ast.VarDeclInfo) {
	w.scope.Add(&Entry{
		Name: info.Name,
		Kind: EntryVariable,
		Type: w.scope.Resolve(decl.Type, info.Array),
		Decl: decl,
		Info: info,
	})
}

func (w *Walker) declareBlock(b *ast.InterfaceBlock) {
	if b.Instance != "" {
		st := w.scope.anonymousStruct(&ast.StructDef{Name: b.Name, Fields: b.Members})
		var t types.Type = st
		if b.Array != nil {
			t = &types.Array{Element: st, Size: ArraySize(b.Array)}
		}
		w.scope.Add(&Entry{Name: b.Instance, Kind: EntryInterfaceBlock, Type: t, Block: b})
		return
	}
	for _, m := range b.Members {
		w.scope.Add(&Entry{
			Name:  m.Name,
			Kind:  EntryInterfaceBlock,
			Type:  w.scope.Resolve(m.Type, m.Array),
			Block: b,
		})
	}
}

// Funcs adapts a pair of functions to a Visitor. Either may be nil; a nil
// OnEnter visits everything.
type Funcs struct {
	OnEnter func(w *Walker, n ast.Node) bool
	OnLeave func(w *Walker, n ast.Node)
}

func (f Funcs) Enter(w *Walker, n ast.Node) bool {
	if f.OnEnter == nil {
		return true
	}
	return f.OnEnter(w, n)
}

func (f Funcs) Leave(w *Walker, n ast.Node) {
	if f.OnLeave != nil {
		f.OnLeave(w, n)
	}
}
