package ast

import (
	"errors"
	"fmt"
)

// ----------------------------------------------------------------------------
// Children
// ----------------------------------------------------------------------------

// Children returns the direct children of n in source order. Absent
// optional children (nil Else, nil initializer, ...) are omitted.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if !isNilNode(c) {
			out = append(out, c)
		}
	}

	switch n := n.(type) {
	case *TranslationUnit:
		for _, d := range n.Decls {
			add(d)
		}
	case *PPDirective, *PrecisionDecl, *DefaultLayoutDecl:
	case *FunctionPrototype:
		add(n.ReturnType)
		for _, p := range n.Params {
			add(p)
		}
	case *FunctionDef:
		add(n.Proto)
		add(n.Body)
	case *VariablesDecl:
		add(n.Type)
		for _, d := range n.Decls {
			add(d)
		}
	case *InterfaceBlock:
		for _, m := range n.Members {
			add(m)
		}
		add(n.Array)
	case *TypeSpec:
		add(n.Struct)
	case *StructDef:
		for _, f := range n.Fields {
			add(f)
		}
	case *StructField:
		add(n.Type)
		add(n.Array)
	case *VarDeclInfo:
		add(n.Array)
		add(n.Init)
	case *ParamDecl:
		add(n.Type)
		add(n.Array)
	case *ArrayInfo:
		add(n.Size)

	// Expressions
	case *Ident, *IntLit, *UintLit, *FloatLit, *BoolLit:
	case *BinaryExpr:
		add(n.X)
		add(n.Y)
	case *UnaryExpr:
		add(n.X)
	case *TernaryExpr:
		add(n.Cond)
		add(n.Then)
		add(n.Else)
	case *ParenExpr:
		add(n.X)
	case *CallExpr:
		for _, a := range n.Args {
			add(a)
		}
	case *ConstructorExpr:
		for _, a := range n.Args {
			add(a)
		}
	case *ArrayConstructorExpr:
		add(n.Size)
		for _, a := range n.Args {
			add(a)
		}
	case *IndexExpr:
		add(n.X)
		add(n.Index)
	case *MemberExpr:
		add(n.X)

	// Statements
	case *BlockStmt:
		for _, s := range n.Stmts {
			add(s)
		}
	case *DeclStmt:
		add(n.Decl)
	case *ExprStmt:
		add(n.X)
	case *IfStmt:
		add(n.Cond)
		add(n.Then)
		add(n.Else)
	case *ForStmt:
		add(n.Init)
		add(n.Cond)
		add(n.Incr)
		add(n.Body)
	case *WhileStmt:
		add(n.Cond)
		add(n.Body)
	case *DoStmt:
		add(n.Body)
		add(n.Cond)
	case *SwitchStmt:
		add(n.X)
		add(n.Body)
	case *ExprCaseLabel:
		add(n.X)
	case *ReturnStmt:
		add(n.X)
	case *DefaultCaseLabel, *BreakStmt, *ContinueStmt, *DiscardStmt, *NullStmt:
	default:
		panic(fmt.Sprintf("ast: unknown node %T", n))
	}
	return out
}

// ExprArgs returns the argument slice of a call or constructor, or nil.
func ExprArgs(e Expr) []Expr {
	switch e := e.(type) {
	case *CallExpr:
		return e.Args
	case *ConstructorExpr:
		return e.Args
	case *ArrayConstructorExpr:
		return e.Args
	}
	return nil
}

// ExprChildren returns the expression children of e in source order.
func ExprChildren(e Expr) []Expr {
	var out []Expr
	for _, c := range Children(e) {
		out = append(out, c.(Expr))
	}
	return out
}

// isNilNode catches both untyped nil and typed nil pointers stored in an
// interface.
func isNilNode(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *TypeSpec:
		return n == nil
	case *StructDef:
		return n == nil
	case *ArrayInfo:
		return n == nil
	case *BlockStmt:
		return n == nil
	case *FunctionPrototype:
		return n == nil
	case *VariablesDecl:
		return n == nil
	}
	return false
}

// ----------------------------------------------------------------------------
// Traversal
// ----------------------------------------------------------------------------

// Inspect traverses the tree rooted at n in depth-first order, calling f
// for each node before its children. If f returns false the children of
// that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if isNilNode(n) || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// CountNodes returns the number of nodes in the tree rooted at n.
func CountNodes(n Node) int {
	count := 0
	Inspect(n, func(Node) bool {
		count++
		return true
	})
	return count
}

// Contains reports whether target occurs in the tree rooted at n.
func Contains(n Node, target Node) bool {
	found := false
	Inspect(n, func(x Node) bool {
		if found {
			return false
		}
		if x == target {
			found = true
			return false
		}
		return true
	})
	return found
}

// ----------------------------------------------------------------------------
// Parent Map
// ----------------------------------------------------------------------------

// ParentMap maps every node of a tree snapshot to its parent. It must be
// rebuilt after the tree is edited.
type ParentMap map[Node]Node

// NewParentMap builds the parent map for the tree rooted at root.
func NewParentMap(root Node) ParentMap {
	pm := make(ParentMap)
	var walk func(n Node)
	walk = func(n Node) {
		for _, c := range Children(n) {
			pm[c] = n
			walk(c)
		}
	}
	walk(root)
	return pm
}

// Parent returns the parent of n, or nil for the root or unknown nodes.
func (pm ParentMap) Parent(n Node) Node {
	return pm[n]
}

// HasParent reports whether n was present in the snapshot with a parent.
func (pm ParentMap) HasParent(n Node) bool {
	_, ok := pm[n]
	return ok
}

// ----------------------------------------------------------------------------
// Replacement
// ----------------------------------------------------------------------------

var (
	// ErrChildNotFound is returned when the parent does not currently have
	// the given node as a child.
	ErrChildNotFound = errors.New("ast: node is not a child of parent")

	// ErrChildKind is returned when the replacement cannot occupy the slot
	// (for example an expression in a statement slot).
	ErrChildKind = errors.New("ast: replacement has the wrong node kind for this slot")
)

// ReplaceChild replaces the child old of parent with repl in place.
func ReplaceChild(parent, old, repl Node) error {
	if isNilNode(old) {
		return ErrChildNotFound
	}
	switch p := parent.(type) {
	case *TranslationUnit:
		for i, d := range p.Decls {
			if d == old {
				nd, ok := repl.(Decl)
				if !ok {
					return ErrChildKind
				}
				p.Decls[i] = nd
				return nil
			}
		}
	case *FunctionDef:
		if p.Body == old {
			b, ok := repl.(*BlockStmt)
			if !ok {
				return ErrChildKind
			}
			p.Body = b
			return nil
		}
	case *VarDeclInfo:
		if p.Init == old {
			return setExpr(&p.Init, repl)
		}
	case *ArrayInfo:
		if p.Size == old {
			return setExpr(&p.Size, repl)
		}

	// Expressions
	case *BinaryExpr:
		if p.X == old {
			return setExpr(&p.X, repl)
		}
		if p.Y == old {
			return setExpr(&p.Y, repl)
		}
	case *UnaryExpr:
		if p.X == old {
			return setExpr(&p.X, repl)
		}
	case *TernaryExpr:
		if p.Cond == old {
			return setExpr(&p.Cond, repl)
		}
		if p.Then == old {
			return setExpr(&p.Then, repl)
		}
		if p.Else == old {
			return setExpr(&p.Else, repl)
		}
	case *ParenExpr:
		if p.X == old {
			return setExpr(&p.X, repl)
		}
	case *CallExpr:
		return replaceArg(p.Args, old, repl)
	case *ConstructorExpr:
		return replaceArg(p.Args, old, repl)
	case *ArrayConstructorExpr:
		if p.Size == old {
			return setExpr(&p.Size, repl)
		}
		return replaceArg(p.Args, old, repl)
	case *IndexExpr:
		if p.X == old {
			return setExpr(&p.X, repl)
		}
		if p.Index == old {
			return setExpr(&p.Index, repl)
		}
	case *MemberExpr:
		if p.X == old {
			return setExpr(&p.X, repl)
		}

	// Statements
	case *BlockStmt:
		for i, s := range p.Stmts {
			if s == old {
				ns, ok := repl.(Stmt)
				if !ok {
					return ErrChildKind
				}
				p.Stmts[i] = ns
				return nil
			}
		}
	case *ExprStmt:
		if p.X == old {
			return setExpr(&p.X, repl)
		}
	case *IfStmt:
		if p.Cond == old {
			return setExpr(&p.Cond, repl)
		}
		if p.Then == old {
			return setStmt(&p.Then, repl)
		}
		if p.Else == old {
			return setStmt(&p.Else, repl)
		}
	case *ForStmt:
		if p.Init == old {
			return setStmt(&p.Init, repl)
		}
		if p.Cond == old {
			return setExpr(&p.Cond, repl)
		}
		if p.Incr == old {
			return setExpr(&p.Incr, repl)
		}
		if p.Body == old {
			return setStmt(&p.Body, repl)
		}
	case *WhileStmt:
		if p.Cond == old {
			return setExpr(&p.Cond, repl)
		}
		if p.Body == old {
			return setStmt(&p.Body, repl)
		}
	case *DoStmt:
		if p.Body == old {
			return setStmt(&p.Body, repl)
		}
		if p.Cond == old {
			return setExpr(&p.Cond, repl)
		}
	case *SwitchStmt:
		if p.X == old {
			return setExpr(&p.X, repl)
		}
		if p.Body == old {
			b, ok := repl.(*BlockStmt)
			if !ok {
				return ErrChildKind
			}
			p.Body = b
			return nil
		}
	case *ExprCaseLabel:
		if p.X == old {
			return setExpr(&p.X, repl)
		}
	case *ReturnStmt:
		if p.X == old {
			return setExpr(&p.X, repl)
		}
	}
	return ErrChildNotFound
}

// HasChild reports whether child is currently a direct child of parent.
func HasChild(parent, child Node) bool {
	if isNilNode(parent) || isNilNode(child) {
		return false
	}
	for _, c := range Children(parent) {
		if c == child {
			return true
		}
	}
	return false
}

func setExpr(slot *Expr, repl Node) error {
	e, ok := repl.(Expr)
	if !ok {
		return ErrChildKind
	}
	*slot = e
	return nil
}

func setStmt(slot *Stmt, repl Node) error {
	s, ok := repl.(Stmt)
	if !ok {
		return ErrChildKind
	}
	*slot = s
	return nil
}

func replaceArg(args []Expr, old, repl Node) error {
	for i, a := range args {
		if a == old {
			e, ok := repl.(Expr)
			if !ok {
				return ErrChildKind
			}
			args[i] = e
			return nil
		}
	}
	return ErrChildNotFound
}
