package reduce

import (
	"fmt"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/types"
)

// initializerNodeLimit bounds the size of initializers that are inlined at
// their uses; inlining large ones makes later rounds slow.
const initializerNodeLimit = 10

// mentions reports whether an identifier called name occurs in n. The
// check ignores scoping, so a shadowing variable counts as a use.
func mentions(n ast.Node, name string) bool {
	found := false
	ast.Inspect(n, func(x ast.Node) bool {
		if id, ok := x.(*ast.Ident); ok && id.Name == name {
			found = true
		}
		return !found
	})
	return found
}

func containsInfo(d *ast.VariablesDecl, info *ast.VarDeclInfo) bool {
	for _, x := range d.Decls {
		if x == info {
			return true
		}
	}
	return false
}

func removeInfo(d *ast.VariablesDecl, info *ast.VarDeclInfo) {
	for i, x := range d.Decls {
		if x == info {
			d.Decls = append(d.Decls[:i], d.Decls[i+1:]...)
			return
		}
	}
}

// holds reports whether owner, a block or translation unit, directly
// contains item.
func holds(owner, item ast.Node) bool {
	switch o := owner.(type) {
	case *ast.BlockStmt:
		s, ok := item.(ast.Stmt)
		return ok && o.IndexOf(s) >= 0
	case *ast.TranslationUnit:
		d, ok := item.(ast.Decl)
		return ok && o.IndexOf(d) >= 0
	}
	return false
}

// drop removes item from owner.
func drop(k Kind, owner, item ast.Node) error {
	switch o := owner.(type) {
	case *ast.BlockStmt:
		if i := o.IndexOf(item.(ast.Stmt)); i >= 0 {
			o.Remove(i)
			return nil
		}
	case *ast.TranslationUnit:
		if i := o.IndexOf(item.(ast.Decl)); i >= 0 {
			o.RemoveDecl(i)
			return nil
		}
	}
	return invariant(k, "%T is no longer held by %T", item, owner)
}

// ----------------------------------------------------------------------------
// Variable Declaration Removal
// ----------------------------------------------------------------------------

// declRemoval removes one declarator of a variable declaration. When no
// declarator is left the declaration goes too, unless it defines a struct.
type declRemoval struct {
	base
	owner  ast.Node // *ast.BlockStmt or *ast.TranslationUnit
	holder ast.Node // the DeclStmt in a block, the VariablesDecl at top level
	decl   *ast.VariablesDecl
	info   *ast.VarDeclInfo
}

func (o *declRemoval) Kind() Kind { return KindVariableDecl }

func (o *declRemoval) String() string {
	return fmt.Sprintf("remove declaration of %s", o.info.Name)
}

func (o *declRemoval) Precondition() bool {
	if !containsInfo(o.decl, o.info) || !holds(o.owner, o.holder) {
		return false
	}
	// Inlining an initializer elsewhere may have introduced a use.
	for _, x := range o.decl.Decls {
		if x != o.info && mentions(x, o.info.Name) {
			return false
		}
	}
	return !mentionsOutside(o.owner, o.holder, o.info.Name)
}

// mentionsOutside reports whether name occurs in owner other than in the
// declaration holder.
func mentionsOutside(owner, holder ast.Node, name string) bool {
	for _, c := range ast.Children(owner) {
		if c != holder && mentions(c, name) {
			return true
		}
	}
	return false
}

func (o *declRemoval) Apply() error {
	if !containsInfo(o.decl, o.info) {
		return invariant(KindVariableDecl, "%s is no longer declared", o.info.Name)
	}
	removeInfo(o.decl, o.info)
	if len(o.decl.Decls) == 0 && o.decl.Type.Struct == nil {
		return drop(KindVariableDecl, o.owner, o.holder)
	}
	return nil
}

type candidateDecl struct {
	op      *declRemoval
	allowed bool
}

// variableDeclFinder finds declarators that are never referenced. Uses are
// resolved through scope, so a use of a shadowing variable does not keep
// the shadowed one alive.
type variableDeclFinder struct {
	*walk
	used       map[*ast.VarDeclInfo]bool
	candidates []candidateDecl
}

func findVariableDecl(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &variableDeclFinder{walk: newWalk(job, tu, ctx), used: make(map[*ast.VarDeclInfo]bool)}
	f.run(f)
	for _, c := range f.candidates {
		if c.allowed && !f.used[c.op.info] {
			f.add(c.op)
		}
	}
	return f.ops
}

func (f *variableDeclFinder) Enter(w *scope.Walker, n ast.Node) bool {
	if id, ok := n.(*ast.Ident); ok {
		if e := w.Scope().Lookup(id.Name); e != nil && e.Info != nil {
			f.used[e.Info] = true
		}
	}
	return true
}

func (f *variableDeclFinder) Leave(w *scope.Walker, n ast.Node) {
	info, ok := n.(*ast.VarDeclInfo)
	if !ok {
		return
	}
	decl, ok := w.Parent().(*ast.VariablesDecl)
	if !ok {
		return
	}
	if w.AtGlobalScope() {
		f.candidates = append(f.candidates, candidateDecl{
			op:      &declRemoval{base: base{w.Depth()}, owner: f.tu, holder: decl, decl: decl, info: info},
			allowed: true,
		})
		return
	}
	stmt, ok := w.Ancestor(2).(*ast.DeclStmt)
	if !ok {
		return
	}
	block, ok := w.Ancestor(3).(*ast.BlockStmt)
	if !ok {
		return
	}
	f.candidates = append(f.candidates, candidateDecl{
		op:      &declRemoval{base: base{w.Depth()}, owner: block, holder: stmt, decl: decl, info: info},
		allowed: f.allowedToReduceLocalDecl(w, info),
	})
}

func (f *variableDeclFinder) allowedToReduceLocalDecl(w *scope.Walker, info *ast.VarDeclInfo) bool {
	if f.ctx.ReduceEverywhere || f.functionIsDead(w) || f.tr.EnclosedByDeadCodeInjection() {
		return true
	}
	if injection.IsLiveInjected(info.Name) || info.Init == nil {
		return true
	}
	_, scalar := f.typeOf(info.Init).(*types.Scalar)
	return scalar && initializerIsSideEffectFree(info)
}

// ----------------------------------------------------------------------------
// Global Declarations
// ----------------------------------------------------------------------------

// globalDeclRemoval removes a top-level declaration: an interface block
// none of whose names is used, a repeated precision declaration, or a
// declaration that declares nothing.
type globalDeclRemoval struct {
	base
	tu    *ast.TranslationUnit
	decl  ast.Decl
	names []string // names the declaration introduces
	desc  string
}

func (o *globalDeclRemoval) Kind() Kind { return KindGlobalVariablesDeclaration }

func (o *globalDeclRemoval) String() string { return "remove " + o.desc }

func (o *globalDeclRemoval) Precondition() bool {
	if o.tu.IndexOf(o.decl) < 0 {
		return false
	}
	for _, name := range o.names {
		if mentionsOutside(o.tu, o.decl, name) {
			return false
		}
	}
	if p, ok := o.decl.(*ast.PrecisionDecl); ok {
		return precisionRepeated(o.tu, p)
	}
	return true
}

func (o *globalDeclRemoval) Apply() error {
	return drop(KindGlobalVariablesDeclaration, o.tu, o.decl)
}

// precisionRepeated reports whether an earlier declaration in tu sets the
// same precision for the same type.
func precisionRepeated(tu *ast.TranslationUnit, p *ast.PrecisionDecl) bool {
	for _, d := range tu.Decls {
		if d == ast.Decl(p) {
			return false
		}
		if q, ok := d.(*ast.PrecisionDecl); ok && q.TypeName == p.TypeName && q.Precision == p.Precision {
			return true
		}
	}
	return false
}

func interfaceBlockNames(b *ast.InterfaceBlock) []string {
	if b.Instance != "" {
		return []string{b.Instance}
	}
	names := make([]string, len(b.Members))
	for i, m := range b.Members {
		names[i] = m.Name
	}
	return names
}

func findGlobalVariablesDeclaration(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := newWalk(job, tu, ctx)
	for _, d := range tu.Decls {
		op := &globalDeclRemoval{base: base{1}, tu: tu, decl: d}
		switch d := d.(type) {
		case *ast.InterfaceBlock:
			op.names = interfaceBlockNames(d)
			op.desc = "interface block " + d.Name
		case *ast.PrecisionDecl:
			op.desc = fmt.Sprintf("precision %s %s", d.Precision, d.TypeName)
		case *ast.VariablesDecl:
			if len(d.Decls) > 0 || d.Type.Struct != nil {
				continue
			}
			op.desc = "empty declaration of " + d.Type.Name
		default:
			continue
		}
		f.add(op)
	}
	return f.ops
}

// ----------------------------------------------------------------------------
// Declaration to Expression
// ----------------------------------------------------------------------------

// initToAssignment moves the initializer of a declarator into an
// assignment. Locally the assignment follows the declaration; at top level
// it becomes the first statement of main.
type initToAssignment struct {
	base
	kind  Kind
	decl  *ast.VariablesDecl
	info  *ast.VarDeclInfo
	block *ast.BlockStmt // where the assignment goes
	after ast.Stmt       // insert after this statement; nil for the top of block
	owner ast.Node       // holder of the declaration: a block or the translation unit
	item  ast.Node
}

func (o *initToAssignment) Kind() Kind { return o.kind }

func (o *initToAssignment) String() string {
	return fmt.Sprintf("turn the initializer of %s into an assignment", o.info.Name)
}

func (o *initToAssignment) Precondition() bool {
	if o.info.Init == nil || o.decl.Type.IsConst() || !containsInfo(o.decl, o.info) {
		return false
	}
	if o.after != nil && o.block.IndexOf(o.after) < 0 {
		return false
	}
	return holds(o.owner, o.item)
}

func (o *initToAssignment) Apply() error {
	assign := &ast.ExprStmt{X: &ast.BinaryExpr{
		Op: ast.BinAssign,
		X:  &ast.Ident{Name: o.info.Name},
		Y:  o.info.Init,
	}}
	i := 0
	if o.after != nil {
		i = o.block.IndexOf(o.after)
		if i < 0 {
			return invariant(o.kind, "declaration of %s is no longer in its block", o.info.Name)
		}
		i++
	}
	o.info.Init = nil
	o.block.Insert(i, assign)
	return nil
}

type declToExprFinder struct {
	*walk
}

func findVariableDeclToExpr(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	if !ctx.ReduceEverywhere {
		return nil
	}
	f := &declToExprFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *declToExprFinder) Leave(w *scope.Walker, n ast.Node) {
	stmt, ok := n.(*ast.DeclStmt)
	if !ok || stmt.Decl.Type.IsConst() {
		return
	}
	block, ok := w.Parent().(*ast.BlockStmt)
	if !ok {
		return
	}
	// Backwards, so that applying them in order keeps the assignments in
	// declaration order.
	decls := stmt.Decl.Decls
	for i := len(decls) - 1; i >= 0; i-- {
		if decls[i].Init == nil {
			continue
		}
		f.add(&initToAssignment{
			base:  base{w.Depth()},
			kind:  KindVariableDeclToExpr,
			decl:  stmt.Decl,
			info:  decls[i],
			block: block,
			after: stmt,
			owner: block,
			item:  stmt,
		})
	}
}

// findGlobalVariableDeclToExpr moves the initializers of globals declared
// before main into assignments at the start of main.
func findGlobalVariableDeclToExpr(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	if !ctx.ReduceEverywhere {
		return nil
	}
	f := newWalk(job, tu, ctx)
	main := tu.MainFunction()
	if main == nil {
		return nil
	}
	var ops []*initToAssignment
	for _, d := range tu.Decls {
		if d == ast.Decl(main) {
			break
		}
		vd, ok := d.(*ast.VariablesDecl)
		if !ok || vd.Type.IsConst() || vd.Type.HasQualifier("uniform") {
			continue
		}
		for _, info := range vd.Decls {
			if info.Init == nil {
				continue
			}
			ops = append(ops, &initToAssignment{
				base:  base{1},
				kind:  KindGlobalVariableDeclToExpr,
				decl:  vd,
				info:  info,
				block: main.Body,
				owner: tu,
				item:  vd,
			})
		}
	}
	// Each one is inserted at the top of main.
	for i := len(ops) - 1; i >= 0; i-- {
		f.add(ops[i])
	}
	return f.ops
}

// ----------------------------------------------------------------------------
// Initializer Inlining
// ----------------------------------------------------------------------------

type inlineUse struct {
	info   *ast.VarDeclInfo
	parent ast.Node
	id     *ast.Ident
	depth  int
}

// inlineInitializerFinder replaces uses of a variable with a copy of its
// initializer. A variable that is written anywhere, outside code that
// never runs, keeps its uses.
type inlineInitializerFinder struct {
	*walk
	uses    []inlineUse
	written map[*ast.VarDeclInfo]bool
}

func findInlineInitializer(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &inlineInitializerFinder{walk: newWalk(job, tu, ctx), written: make(map[*ast.VarDeclInfo]bool)}
	f.run(f)
	for _, u := range f.uses {
		if f.written[u.info] {
			continue
		}
		f.add(&exprReplacement{
			base:   base{u.depth},
			kind:   KindInlineInitializer,
			parent: u.parent,
			old:    u.id,
			repl:   &ast.ParenExpr{X: ast.CloneExpr(u.info.Init)},
		})
	}
	return f.ops
}

func (f *inlineInitializerFinder) Leave(w *scope.Walker, n ast.Node) {
	id, ok := n.(*ast.Ident)
	if !ok {
		return
	}
	e := w.Scope().Lookup(id.Name)
	if e == nil || e.Info == nil || e.Info.Init == nil {
		return
	}
	if f.tr.InLValueContext() || f.passedForWriting(w, id) {
		if !f.ctx.ReduceEverywhere && !f.dead(w) {
			f.written[e.Info] = true
		}
		return
	}
	if !f.allowed(w, e.Info) {
		return
	}
	if mentions(e.Info.Init, id.Name) {
		return
	}
	shadowed := false
	ast.Inspect(e.Info.Init, func(x ast.Node) bool {
		if ref, ok := x.(*ast.Ident); ok && w.Scope().IsShadowed(ref.Name) {
			shadowed = true
		}
		return !shadowed
	})
	if shadowed {
		return
	}
	f.uses = append(f.uses, inlineUse{info: e.Info, parent: w.Parent(), id: id, depth: w.Depth()})
}

// passedForWriting reports whether id is an argument to an out or inout
// parameter.
func (f *inlineInitializerFinder) passedForWriting(w *scope.Walker, id *ast.Ident) bool {
	call, ok := w.Parent().(*ast.CallExpr)
	return ok && f.writesArg(call, id)
}

func (f *inlineInitializerFinder) allowed(w *scope.Walker, info *ast.VarDeclInfo) bool {
	if ast.CountNodes(info.Init) > initializerNodeLimit {
		return false
	}
	if f.ctx.ReduceEverywhere || f.dead(w) {
		return true
	}
	if injection.IsLoopLimiter(info.Name) {
		return false
	}
	if _, scalar := f.typeOf(info.Init).(*types.Scalar); !scalar || !initializerIsSideEffectFree(info) {
		return false
	}
	// "int x = y;" would see later writes to y.
	readsVariable := false
	ast.Inspect(info.Init, func(x ast.Node) bool {
		if _, ok := x.(*ast.Ident); ok {
			readsVariable = true
		}
		return !readsVariable
	})
	return !readsVariable
}
