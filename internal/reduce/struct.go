package reduce

import (
	"fmt"
	"slices"
	"strings"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/typer"
	"github.com/HugoDaniel/glslreduce/internal/types"
)

// structDef returns the top-level definition of the struct called name.
func structDef(tu *ast.TranslationUnit, name string) *ast.StructDef {
	for _, d := range tu.Decls {
		if vd, ok := d.(*ast.VariablesDecl); ok && vd.Type.Struct != nil && vd.Type.Struct.Name == name {
			return vd.Type.Struct
		}
	}
	return nil
}

func isStructificationField(name string) bool {
	return strings.HasPrefix(name, injection.FieldPrefix)
}

// structName returns the struct name of t, or "".
func structName(t types.Type) string {
	if s, ok := t.(*types.Struct); ok {
		return s.Name
	}
	return ""
}

// constructorsOf returns every constructor of the struct called name.
func constructorsOf(tu *ast.TranslationUnit, name string) []*ast.ConstructorExpr {
	var out []*ast.ConstructorExpr
	ast.Inspect(tu, func(n ast.Node) bool {
		if c, ok := n.(*ast.ConstructorExpr); ok && c.Type == name {
			out = append(out, c)
		}
		return true
	})
	return out
}

// fieldAccesses returns the member lookups of field on values of the
// struct called name. A lookup whose base has no known type is included.
func fieldAccesses(tu *ast.TranslationUnit, name, field string) []*ast.MemberExpr {
	ty := typer.New(tu)
	var out []*ast.MemberExpr
	ast.Inspect(tu, func(n ast.Node) bool {
		m, ok := n.(*ast.MemberExpr)
		if !ok || m.Member != field {
			return true
		}
		if t := ty.TypeOf(m.X); t == nil || structName(t) == name {
			out = append(out, m)
		}
		return true
	})
	return out
}

// ----------------------------------------------------------------------------
// Remove Struct Field
// ----------------------------------------------------------------------------

// fieldRemoval deletes a field that is never read or written, together
// with the matching argument of every constructor of the struct.
type fieldRemoval struct {
	base
	tu    *ast.TranslationUnit
	def   *ast.StructDef
	field string
}

func (o *fieldRemoval) Kind() Kind { return KindRemoveStructField }

func (o *fieldRemoval) String() string {
	return fmt.Sprintf("remove field %s.%s", o.def.Name, o.field)
}

func (o *fieldRemoval) Precondition() bool {
	i := o.def.FieldIndex(o.field)
	if i < 0 || len(o.def.Fields) < 2 || structDef(o.tu, o.def.Name) != o.def {
		return false
	}
	for _, c := range constructorsOf(o.tu, o.def.Name) {
		if len(c.Args) != len(o.def.Fields) || !sideEffectFree(c.Args[i]) {
			return false
		}
	}
	return len(fieldAccesses(o.tu, o.def.Name, o.field)) == 0
}

func (o *fieldRemoval) Apply() error {
	i := o.def.FieldIndex(o.field)
	if i < 0 {
		return invariant(KindRemoveStructField, "%s has no field %s", o.def.Name, o.field)
	}
	n := len(o.def.Fields)
	for _, c := range constructorsOf(o.tu, o.def.Name) {
		if len(c.Args) != n {
			return invariant(KindRemoveStructField, "constructor of %s has %d arguments", o.def.Name, len(c.Args))
		}
		c.Args = slices.Delete(c.Args, i, i+1)
	}
	o.def.Fields = slices.Delete(o.def.Fields, i, i+1)
	return nil
}

type structFieldFinder struct {
	*walk
	seen map[*ast.StructDef]bool
}

func findRemoveStructField(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &structFieldFinder{walk: newWalk(job, tu, ctx), seen: make(map[*ast.StructDef]bool)}
	return f.run(f)
}

func (f *structFieldFinder) Leave(w *scope.Walker, n ast.Node) {
	vd, ok := n.(*ast.VariablesDecl)
	if !ok || len(vd.Decls) == 0 {
		return
	}
	def := vd.Type.Struct
	if def == nil {
		def = w.Scope().LookupStructDef(vd.Type.Name)
	}
	f.visitStruct(w, def, w.Depth())
}

// visitStruct offers the removable fields of def and of the structs nested
// in it. Without reducing everywhere only structification structs are
// considered, and only fields that do not lead to the original variable.
func (f *structFieldFinder) visitStruct(w *scope.Walker, def *ast.StructDef, depth int) {
	if def == nil || f.seen[def] {
		return
	}
	if !f.ctx.ReduceEverywhere && !injection.IsStructified(def.Name) {
		return
	}
	f.seen[def] = true
	for _, fld := range def.Fields {
		if f.ctx.ReduceEverywhere || !f.reachesOriginal(w, fld) {
			f.add(&fieldRemoval{base: base{depth}, tu: f.tu, def: def, field: fld.Name})
		}
		f.visitStruct(w, w.Scope().LookupStructDef(fld.Type.Name), depth+1)
	}
}

// reachesOriginal reports whether fld is, or leads through nested
// structification structs to, the variable that was wrapped.
func (f *structFieldFinder) reachesOriginal(w *scope.Walker, fld *ast.StructField) bool {
	if !isStructificationField(fld.Name) {
		return true
	}
	inner := w.Scope().LookupStructDef(fld.Type.Name)
	if inner == nil {
		return false
	}
	return slices.ContainsFunc(inner.Fields, func(g *ast.StructField) bool { return f.reachesOriginal(w, g) })
}

// ----------------------------------------------------------------------------
// Destructify
// ----------------------------------------------------------------------------

// originalVariable is the variable a structification struct wraps: the
// path of fields leading to it, its field and its initial value.
type originalVariable struct {
	path  []string
	field *ast.StructField
	init  ast.Expr
}

// findOriginal follows the structification fields of the struct called
// name, and the arguments of init alongside, to the first field that is
// not a structification field.
func findOriginal(tu *ast.TranslationUnit, name string, init ast.Expr) (originalVariable, bool) {
	def := structDef(tu, name)
	if def == nil {
		return originalVariable{}, false
	}
	var args []ast.Expr
	if init != nil {
		c, ok := init.(*ast.ConstructorExpr)
		if !ok || c.Type != name || len(c.Args) != len(def.Fields) {
			return originalVariable{}, false
		}
		args = c.Args
	}
	for i, fld := range def.Fields {
		var arg ast.Expr
		if args != nil {
			arg = args[i]
		}
		if !isStructificationField(fld.Name) {
			return originalVariable{path: []string{fld.Name}, field: fld, init: arg}, true
		}
		if structDef(tu, fld.Type.Name) == nil {
			continue
		}
		if inner, ok := findOriginal(tu, fld.Type.Name, arg); ok {
			inner.path = append([]string{fld.Name}, inner.path...)
			return inner, true
		}
	}
	return originalVariable{}, false
}

// memberChain splits a chain of member lookups into its root identifier
// and the members, outermost last.
func memberChain(e ast.Expr) (root string, members []string) {
	for {
		switch x := e.(type) {
		case *ast.MemberExpr:
			members = append(members, x.Member)
			e = x.X
		case *ast.Ident:
			slices.Reverse(members)
			return x.Name, members
		default:
			return "", nil
		}
	}
}

// destructuring replaces a structification variable with the variable it
// wraps:
//
//	_GLF_struct_1 s = _GLF_struct_1(_GLF_struct_2(1.0), 2);  ->  float x = 1.0;
//	s._f0.x                                                   ->  x
type destructuring struct {
	base
	tu    *ast.TranslationUnit
	block *ast.BlockStmt
	stmt  *ast.DeclStmt
}

func (o *destructuring) Kind() Kind { return KindDestructify }

func (o *destructuring) String() string {
	return "destructify " + o.stmt.Decl.Decls[0].Name
}

func (o *destructuring) target() (*ast.VarDeclInfo, originalVariable, bool) {
	d := o.stmt.Decl
	if len(d.Decls) != 1 || !injection.IsStructified(d.Type.Name) {
		return nil, originalVariable{}, false
	}
	info := d.Decls[0]
	orig, ok := findOriginal(o.tu, d.Type.Name, info.Init)
	return info, orig, ok
}

func (o *destructuring) Precondition() bool {
	if o.block.IndexOf(o.stmt) < 0 {
		return false
	}
	info, orig, ok := o.target()
	if !ok || info.Array != nil {
		return false
	}
	name := orig.path[len(orig.path)-1]
	if declaredNames(o.block.Stmts)[name] || !scope.CanIntroduce(o.tu, o.block, name) {
		return false
	}
	// Every use must reach the wrapped variable.
	ok = true
	o.uses(info.Name, func(_ ast.Expr, _ []string, full bool) {
		if !full {
			ok = false
		}
	})
	return ok
}

// uses calls fn for every maximal member chain in the block rooted at the
// variable called name. full reports whether the chain starts with the
// path to the wrapped variable.
func (o *destructuring) uses(name string, fn func(e ast.Expr, members []string, full bool)) {
	_, orig, _ := o.target()
	var visit func(n ast.Node, inChain bool)
	visit = func(n ast.Node, inChain bool) {
		if e, ok := n.(ast.Expr); ok && !inChain {
			if root, members := memberChain(e); root == name {
				fn(e, members, hasPrefix(members, orig.path))
			}
		}
		_, isMember := n.(*ast.MemberExpr)
		for _, c := range ast.Children(n) {
			visit(c, isMember)
		}
	}
	for _, s := range o.block.Stmts {
		if s != ast.Stmt(o.stmt) {
			visit(s, false)
		}
	}
}

func hasPrefix(members, path []string) bool {
	return len(members) >= len(path) && slices.Equal(members[:len(path)], path)
}

func (o *destructuring) Apply() error {
	info, orig, ok := o.target()
	if !ok {
		return invariant(KindDestructify, "%s no longer wraps a variable", o.stmt.Decl.Decls[0].Name)
	}
	name := orig.path[len(orig.path)-1]
	pm := ast.NewParentMap(o.block)
	var err error
	o.uses(info.Name, func(e ast.Expr, members []string, _ bool) {
		if err != nil {
			return
		}
		// Find the lookup that selects the wrapped variable itself.
		target := e
		for i := len(members); i > len(orig.path); i-- {
			target = target.(*ast.MemberExpr).X
		}
		err = replace(KindDestructify, pm.Parent(target), target, &ast.Ident{Name: name})
	})
	if err != nil {
		return err
	}
	o.stmt.Decl.Type = ast.CloneTypeSpec(orig.field.Type)
	info.Name = name
	info.Array = orig.field.Array
	info.Init = orig.init
	return nil
}

type destructifyFinder struct {
	*walk
}

func findDestructify(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &destructifyFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *destructifyFinder) Leave(w *scope.Walker, n ast.Node) {
	stmt, ok := n.(*ast.DeclStmt)
	if !ok {
		return
	}
	block, ok := w.Parent().(*ast.BlockStmt)
	if !ok {
		return
	}
	f.add(&destructuring{base: base{w.Depth()}, tu: f.tu, block: block, stmt: stmt})
}

// ----------------------------------------------------------------------------
// Inline Structified Field
// ----------------------------------------------------------------------------

// fieldInlining replaces a structification field holding another
// structification struct by that struct's fields. Nested structification
// fields are renamed by prefixing the field being inlined:
//
//	struct _GLF_struct_0 { _GLF_struct_1 _f0; int y; };
//	struct _GLF_struct_1 { float _f0; float x; };
//
// turns the outer struct into { float _f0_f0; float x; int y; }.
type fieldInlining struct {
	base
	tu    *ast.TranslationUnit
	outer *ast.StructDef
	field string
}

func (o *fieldInlining) Kind() Kind { return KindInlineStructifiedField }

func (o *fieldInlining) String() string {
	return fmt.Sprintf("inline field %s.%s", o.outer.Name, o.field)
}

// inner returns the struct held by the field, and the new names of its
// fields.
func (o *fieldInlining) inner() (*ast.StructDef, []string, bool) {
	i := o.outer.FieldIndex(o.field)
	if i < 0 {
		return nil, nil, false
	}
	inner := structDef(o.tu, o.outer.Fields[i].Type.Name)
	if inner == nil || inner == o.outer {
		return nil, nil, false
	}
	names := make([]string, len(inner.Fields))
	for k, g := range inner.Fields {
		names[k] = g.Name
		if isStructificationField(g.Name) {
			names[k] = o.field + g.Name
		}
	}
	return inner, names, true
}

func (o *fieldInlining) Precondition() bool {
	if structDef(o.tu, o.outer.Name) != o.outer {
		return false
	}
	i := o.outer.FieldIndex(o.field)
	inner, names, ok := o.inner()
	if !ok || o.outer.Fields[i].Array != nil {
		return false
	}
	for _, name := range names {
		if j := o.outer.FieldIndex(name); j >= 0 && j != i {
			return false
		}
	}
	for _, c := range constructorsOf(o.tu, o.outer.Name) {
		if len(c.Args) != len(o.outer.Fields) {
			return false
		}
		arg, ok := c.Args[i].(*ast.ConstructorExpr)
		if !ok || arg.Type != inner.Name || len(arg.Args) != len(inner.Fields) {
			return false
		}
	}
	// The inner struct must only be reached through one of its fields.
	pm := ast.NewParentMap(o.tu)
	for _, m := range fieldAccesses(o.tu, o.outer.Name, o.field) {
		if _, ok := pm.Parent(m).(*ast.MemberExpr); !ok {
			return false
		}
	}
	return true
}

func (o *fieldInlining) Apply() error {
	i := o.outer.FieldIndex(o.field)
	inner, names, ok := o.inner()
	if !ok {
		return invariant(KindInlineStructifiedField, "%s.%s does not hold a struct", o.outer.Name, o.field)
	}
	rename := make(map[string]string, len(names))
	fields := make([]*ast.StructField, len(inner.Fields))
	for k, g := range inner.Fields {
		rename[g.Name] = names[k]
		fields[k] = &ast.StructField{Type: ast.CloneTypeSpec(g.Type), Name: names[k], Array: g.Array}
	}

	// Rewrite the lookups while the typer still knows the old layout.
	pm := ast.NewParentMap(o.tu)
	for _, m := range fieldAccesses(o.tu, o.outer.Name, o.field) {
		outerLookup, ok := pm.Parent(m).(*ast.MemberExpr)
		if !ok || outerLookup.X != ast.Expr(m) {
			return invariant(KindInlineStructifiedField, "%s.%s is used as a whole", o.outer.Name, o.field)
		}
		outerLookup.X = m.X
		outerLookup.Member = rename[outerLookup.Member]
	}
	for _, c := range constructorsOf(o.tu, o.outer.Name) {
		arg := c.Args[i].(*ast.ConstructorExpr)
		c.Args = slices.Replace(c.Args, i, i+1, arg.Args...)
	}
	o.outer.Fields = slices.Replace(o.outer.Fields, i, i+1, fields...)
	return nil
}

type inlineStructifiedFieldFinder struct {
	*walk
	seen map[*ast.StructDef]bool
}

func findInlineStructifiedField(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &inlineStructifiedFieldFinder{walk: newWalk(job, tu, ctx), seen: make(map[*ast.StructDef]bool)}
	return f.run(f)
}

func (f *inlineStructifiedFieldFinder) Leave(w *scope.Walker, n ast.Node) {
	stmt, ok := n.(*ast.DeclStmt)
	if !ok || !injection.IsStructified(stmt.Decl.Type.Name) {
		return
	}
	f.visitStruct(w, w.Scope().LookupStructDef(stmt.Decl.Type.Name), w.Depth())
}

func (f *inlineStructifiedFieldFinder) visitStruct(w *scope.Walker, def *ast.StructDef, depth int) {
	if def == nil || f.seen[def] {
		return
	}
	f.seen[def] = true
	for _, fld := range def.Fields {
		if !isStructificationField(fld.Name) {
			continue
		}
		inner := w.Scope().LookupStructDef(fld.Type.Name)
		if inner == nil {
			continue
		}
		f.add(&fieldInlining{base: base{depth}, tu: f.tu, outer: def, field: fld.Name})
		f.visitStruct(w, inner, depth+1)
	}
}
