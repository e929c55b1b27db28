package reduce

import (
	"fmt"
	"slices"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/types"
)

// inlineNodeLimit bounds the size of a function body that is inlined at a
// call site.
const inlineNodeLimit = 40

// callsLike reports whether tu, outside skip, has a call to name with
// arity arguments.
func callsLike(tu *ast.TranslationUnit, skip ast.Node, name string, arity int) bool {
	found := false
	for _, d := range tu.Decls {
		if d == skip {
			continue
		}
		ast.Inspect(d, func(n ast.Node) bool {
			if c, ok := n.(*ast.CallExpr); ok && c.Callee == name && len(c.Args) == arity {
				found = true
			}
			return !found
		})
		if found {
			return true
		}
	}
	return false
}

func protoOf(d ast.Decl) *ast.FunctionPrototype {
	switch d := d.(type) {
	case *ast.FunctionDef:
		return d.Proto
	case *ast.FunctionPrototype:
		return d
	}
	return nil
}

// definitions returns the function definitions of tu named name.
func definitions(tu *ast.TranslationUnit, name string) []*ast.FunctionDef {
	var out []*ast.FunctionDef
	for _, d := range tu.Decls {
		if fd, ok := d.(*ast.FunctionDef); ok && fd.Proto.Name == name {
			out = append(out, fd)
		}
	}
	return out
}

// ----------------------------------------------------------------------------
// Function Removal
// ----------------------------------------------------------------------------

// functionRemoval removes a function definition or prototype that nothing
// calls.
type functionRemoval struct {
	base
	tu   *ast.TranslationUnit
	decl ast.Decl
}

func (o *functionRemoval) Kind() Kind { return KindFunction }

func (o *functionRemoval) String() string {
	return "remove function " + protoOf(o.decl).Name
}

func (o *functionRemoval) Precondition() bool {
	p := protoOf(o.decl)
	return o.tu.IndexOf(o.decl) >= 0 && !callsLike(o.tu, o.decl, p.Name, len(p.Params))
}

func (o *functionRemoval) Apply() error {
	return drop(KindFunction, o.tu, o.decl)
}

type functionFinder struct {
	*walk
	called map[*ast.FunctionPrototype]bool
}

func findFunction(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &functionFinder{walk: newWalk(job, tu, ctx), called: make(map[*ast.FunctionPrototype]bool)}
	f.run(f)
	for _, d := range tu.Decls {
		p := protoOf(d)
		if p == nil || p.Name == "main" || f.isCalled(p) {
			continue
		}
		f.add(&functionRemoval{base: base{1}, tu: tu, decl: d})
	}
	return f.ops
}

func (f *functionFinder) Leave(w *scope.Walker, n ast.Node) {
	call, ok := n.(*ast.CallExpr)
	if !ok {
		return
	}
	for _, p := range f.typer.Prototypes(call.Callee) {
		if f.mayCall(call, p) {
			f.called[p] = true
		}
	}
}

// mayCall reports whether call may resolve to proto. Arguments whose type
// is unknown match any parameter.
func (f *walk) mayCall(call *ast.CallExpr, proto *ast.FunctionPrototype) bool {
	if proto.Name != call.Callee || len(proto.Params) != len(call.Args) {
		return false
	}
	params := f.typer.ParamTypes(proto)
	for i, a := range call.Args {
		t := f.typeOf(a)
		if t == nil || i >= len(params) || params[i] == nil {
			continue
		}
		if !t.Equals(params[i]) {
			return false
		}
	}
	return true
}

// isCalled reports whether some call may invoke p or a prototype with the
// same signature.
func (f *functionFinder) isCalled(p *ast.FunctionPrototype) bool {
	for q := range f.called {
		if q.Name == p.Name && sameSignature(f.typer.ParamTypes(q), f.typer.ParamTypes(p)) {
			return true
		}
	}
	return false
}

func sameSignature(a, b []types.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == nil || b[i] == nil {
			continue
		}
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

// ----------------------------------------------------------------------------
// Unused Parameter
// ----------------------------------------------------------------------------

// paramRemoval drops a parameter that the function body never reads, from
// the definition, from matching prototypes and from every call.
type paramRemoval struct {
	base
	tu    *ast.TranslationUnit
	fn    *ast.FunctionDef
	param *ast.ParamDecl
}

func (o *paramRemoval) Kind() Kind { return KindUnusedParam }

func (o *paramRemoval) String() string {
	return fmt.Sprintf("remove parameter %q of %s", o.param.Name, o.fn.Proto.Name)
}

func (o *paramRemoval) Precondition() bool {
	if o.tu.IndexOf(o.fn) < 0 || slices.Index(o.fn.Proto.Params, o.param) < 0 {
		return false
	}
	if len(definitions(o.tu, o.fn.Proto.Name)) != 1 {
		return false
	}
	return o.param.Name == "" || !mentions(o.fn.Body, o.param.Name)
}

func (o *paramRemoval) Apply() error {
	name := o.fn.Proto.Name
	arity := len(o.fn.Proto.Params)
	idx := slices.Index(o.fn.Proto.Params, o.param)
	if idx < 0 {
		return invariant(KindUnusedParam, "parameter %q is gone from %s", o.param.Name, name)
	}
	for _, d := range o.tu.Decls {
		if p := protoOf(d); p != nil && p.Name == name && len(p.Params) == arity {
			p.Params = slices.Delete(p.Params, idx, idx+1)
		}
	}
	ast.Inspect(o.tu, func(n ast.Node) bool {
		if c, ok := n.(*ast.CallExpr); ok && c.Callee == name && len(c.Args) == arity {
			c.Args = slices.Delete(c.Args, idx, idx+1)
		}
		return true
	})
	return nil
}

type unusedParamFinder struct {
	*walk
	unused map[*ast.FunctionDef][]*ast.ParamDecl
	order  []*ast.FunctionDef
}

// findUnusedParam only runs when reducing everywhere: an argument with side
// effects disappears along with its parameter.
func findUnusedParam(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	if !ctx.ReduceEverywhere {
		return nil
	}
	f := &unusedParamFinder{walk: newWalk(job, tu, ctx), unused: make(map[*ast.FunctionDef][]*ast.ParamDecl)}
	f.run(f)
	defs := make(map[string]int)
	for _, fd := range f.order {
		defs[fd.Proto.Name]++
	}
	for _, fd := range f.order {
		// Overloads are left alone.
		if defs[fd.Proto.Name] > 1 {
			continue
		}
		for _, p := range f.unused[fd] {
			f.add(&paramRemoval{base: base{1}, tu: tu, fn: fd, param: p})
		}
	}
	return f.ops
}

func (f *unusedParamFinder) Enter(w *scope.Walker, n ast.Node) bool {
	switch n := n.(type) {
	case *ast.FunctionDef:
		f.order = append(f.order, n)
		f.unused[n] = slices.Clone(n.Proto.Params)
	case *ast.Ident:
		fn := w.Function()
		if fn == nil {
			break
		}
		if e := w.Scope().Lookup(n.Name); e != nil && e.Param != nil {
			f.unused[fn] = slices.DeleteFunc(f.unused[fn], func(p *ast.ParamDecl) bool { return p == e.Param })
		}
	}
	return true
}

// ----------------------------------------------------------------------------
// Function Inlining
// ----------------------------------------------------------------------------

// inlining replaces a call with the callee's body. The body goes in a new
// block just before the statement holding the call, with the arguments
// bound to the parameter names; a value is passed back through a fresh
// variable declared before that block.
type inlining struct {
	base
	tu     *ast.TranslationUnit
	ids    *IDGenerator
	block  *ast.BlockStmt
	stmt   ast.Stmt
	parent ast.Node
	call   *ast.CallExpr
	callee *ast.FunctionDef
}

func (o *inlining) Kind() Kind { return KindInlineFunction }

func (o *inlining) String() string {
	return "inline call to " + o.call.Callee
}

func (o *inlining) Precondition() bool {
	if o.block.IndexOf(o.stmt) < 0 || !ast.HasChild(o.parent, o.call) || !ast.Contains(o.stmt, o.call) {
		return false
	}
	defs := definitions(o.tu, o.call.Callee)
	return len(defs) == 1 && defs[0] == o.callee && inlinable(o.callee) &&
		len(o.callee.Proto.Params) == len(o.call.Args)
}

func (o *inlining) Apply() error {
	i := o.block.IndexOf(o.stmt)
	if i < 0 {
		return invariant(KindInlineFunction, "call site is no longer in its block")
	}
	proto := o.callee.Proto
	var body []ast.Stmt
	for k, p := range proto.Params {
		body = append(body, &ast.DeclStmt{Decl: &ast.VariablesDecl{
			Type:  unqualified(p.Type),
			Decls: []*ast.VarDeclInfo{{Name: p.Name, Init: o.call.Args[k]}},
		}})
	}
	stmts := o.callee.Body.Stmts
	var ret *ast.ReturnStmt
	if n := len(stmts); n > 0 {
		ret, _ = stmts[n-1].(*ast.ReturnStmt)
		if ret != nil {
			stmts = stmts[:n-1]
		}
	}
	for _, s := range stmts {
		body = append(body, ast.CloneStmt(s))
	}

	if proto.ReturnType.Name == "void" {
		o.block.Stmts[i] = &ast.BlockStmt{Stmts: body, NewScope: true}
		return nil
	}

	if ret == nil || ret.X == nil {
		return invariant(KindInlineFunction, "%s does not end in a return", proto.Name)
	}
	result := fmt.Sprintf("%s_inline_return_value_%d", proto.Name, o.ids.Next())
	body = append(body, &ast.ExprStmt{X: &ast.BinaryExpr{
		Op: ast.BinAssign,
		X:  &ast.Ident{Name: result},
		Y:  ast.CloneExpr(ret.X),
	}})
	if err := replace(KindInlineFunction, o.parent, o.call, &ast.Ident{Name: result}); err != nil {
		return err
	}
	o.block.Insert(i,
		&ast.DeclStmt{Decl: &ast.VariablesDecl{
			Type:  unqualified(proto.ReturnType),
			Decls: []*ast.VarDeclInfo{{Name: result}},
		}},
		&ast.BlockStmt{Stmts: body, NewScope: true},
	)
	return nil
}

// unqualified returns a copy of t keeping only its precision qualifier.
func unqualified(t *ast.TypeSpec) *ast.TypeSpec {
	c := ast.CloneTypeSpec(t)
	c.Layout = nil
	c.Qualifiers = slices.DeleteFunc(c.Qualifiers, func(q string) bool {
		return q != "highp" && q != "mediump" && q != "lowp"
	})
	return c
}

// inlinable reports whether fd has a shape the inliner handles: small, no
// out or array parameters, and at most one return, which must be its last
// statement.
func inlinable(fd *ast.FunctionDef) bool {
	if fd.Proto.Name == "main" || ast.CountNodes(fd.Body) > inlineNodeLimit {
		return false
	}
	for _, p := range fd.Proto.Params {
		if p.Name == "" || p.Array != nil || p.Type.HasQualifier("out") || p.Type.HasQualifier("inout") {
			return false
		}
	}
	stmts := fd.Body.Stmts
	returns := 0
	ast.Inspect(fd.Body, func(n ast.Node) bool {
		if _, ok := n.(*ast.ReturnStmt); ok {
			returns++
		}
		return true
	})
	if fd.Proto.ReturnType.Name == "void" && returns == 0 {
		return true
	}
	return returns == 1 && len(stmts) > 0 && isReturn(stmts[len(stmts)-1])
}

func isReturn(s ast.Stmt) bool {
	_, ok := s.(*ast.ReturnStmt)
	return ok
}

type inlineFunctionFinder struct {
	*walk
}

func findInlineFunction(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &inlineFunctionFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *inlineFunctionFinder) Leave(w *scope.Walker, n ast.Node) {
	call, ok := n.(*ast.CallExpr)
	if !ok || w.Function() == nil {
		return
	}
	if !f.ctx.ReduceEverywhere && !f.dead(w) {
		return
	}
	defs := definitions(f.tu, call.Callee)
	if len(defs) != 1 || !f.mayCall(call, defs[0].Proto) || !inlinable(defs[0]) {
		return
	}
	// The callee's globals must already be declared at the call site.
	if f.tu.IndexOf(defs[0]) >= f.tu.IndexOf(w.Function()) {
		return
	}
	callee := defs[0]
	stmt, block, ok := f.callSite(w, call, callee)
	if !ok {
		return
	}
	// A variable the callee uses must mean the same at the call site, and
	// an argument must not see a parameter declared before it.
	params := make(map[string]bool)
	for _, p := range callee.Proto.Params {
		params[p.Name] = true
	}
	for _, a := range call.Args {
		for name := range params {
			if mentions(a, name) {
				return
			}
		}
	}
	if !f.freeNamesResolveGlobally(w.Scope(), callee, params) {
		return
	}
	f.add(&inlining{
		base:   base{w.Depth()},
		tu:     f.tu,
		ids:    f.ctx.IDs,
		block:  block,
		stmt:   stmt,
		parent: w.Parent(),
		call:   call,
		callee: callee,
	})
}

// callSite returns the statement holding call and the block holding that
// statement. The call must be evaluated exactly once, in order: it may not
// sit under a conditional operator, a short-circuiting operator or a
// comma, and a void call must be a whole expression statement.
func (f *inlineFunctionFinder) callSite(w *scope.Walker, call *ast.CallExpr, callee *ast.FunctionDef) (ast.Stmt, *ast.BlockStmt, bool) {
	stack := w.Stack()
	for i := len(stack) - 2; i >= 0; i-- {
		switch n := stack[i].(type) {
		case *ast.TernaryExpr:
			return nil, nil, false
		case *ast.BinaryExpr:
			if n.Op == ast.BinLogAnd || n.Op == ast.BinLogOr || n.Op == ast.BinComma {
				return nil, nil, false
			}
		case *ast.ArrayInfo:
			return nil, nil, false
		case *ast.ExprStmt, *ast.DeclStmt, *ast.ReturnStmt:
			block, ok := stack[i-1].(*ast.BlockStmt)
			if !ok {
				return nil, nil, false
			}
			s := n.(ast.Stmt)
			if callee.Proto.ReturnType.Name == "void" {
				es, ok := s.(*ast.ExprStmt)
				if !ok || es.X != ast.Expr(call) {
					return nil, nil, false
				}
			}
			return s, block, true
		case ast.Stmt:
			return nil, nil, false
		}
	}
	return nil, nil, false
}

// freeNamesResolveGlobally reports whether every identifier of callee that
// is not a parameter or a local resolves, at the call site, to the same
// global declaration it resolves to in callee.
func (f *inlineFunctionFinder) freeNamesResolveGlobally(sc *scope.Scope, callee *ast.FunctionDef, params map[string]bool) bool {
	locals := make(map[string]bool)
	ast.Inspect(callee.Body, func(n ast.Node) bool {
		if info, ok := n.(*ast.VarDeclInfo); ok {
			locals[info.Name] = true
		}
		return true
	})
	global := sc
	for global.Parent() != nil {
		global = global.Parent()
	}
	ok := true
	ast.Inspect(callee.Body, func(n ast.Node) bool {
		id, isIdent := n.(*ast.Ident)
		if !isIdent || params[id.Name] || locals[id.Name] {
			return ok
		}
		if sc.Lookup(id.Name) != global.Lookup(id.Name) {
			ok = false
		}
		return ok
	})
	return ok
}

// ----------------------------------------------------------------------------
// Unused Struct
// ----------------------------------------------------------------------------

// referencedStructNames returns the type names used anywhere in tu other
// than in the definition of the type itself. Builtin type names are
// included too; they never name a struct.
func referencedStructNames(tu *ast.TranslationUnit) map[string]bool {
	out := make(map[string]bool)
	ast.Inspect(tu, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.TypeSpec:
			if n.Struct == nil {
				out[n.Name] = true
			}
		case *ast.ConstructorExpr:
			out[n.Type] = true
		case *ast.ArrayConstructorExpr:
			out[n.Elem] = true
		}
		return true
	})
	return out
}

// structRemoval removes a struct definition that declares no variables and
// whose type is never named.
type structRemoval struct {
	base
	tu   *ast.TranslationUnit
	decl *ast.VariablesDecl
}

func (o *structRemoval) Kind() Kind { return KindUnusedStruct }

func (o *structRemoval) String() string {
	return "remove struct " + o.decl.Type.Struct.Name
}

func (o *structRemoval) Precondition() bool {
	return o.tu.IndexOf(o.decl) >= 0 && len(o.decl.Decls) == 0 &&
		!referencedStructNames(o.tu)[o.decl.Type.Struct.Name]
}

func (o *structRemoval) Apply() error {
	return drop(KindUnusedStruct, o.tu, o.decl)
}

func findUnusedStruct(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := newWalk(job, tu, ctx)
	refs := referencedStructNames(tu)
	for _, d := range tu.Decls {
		vd, ok := d.(*ast.VariablesDecl)
		if !ok || vd.Type.Struct == nil || len(vd.Decls) > 0 || refs[vd.Type.Struct.Name] {
			continue
		}
		f.add(&structRemoval{base: base{1}, tu: tu, decl: vd})
	}
	return f.ops
}
