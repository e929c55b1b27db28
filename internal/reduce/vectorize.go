package reduce

import (
	"fmt"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/types"
)

// componentExtraction undoes vectorization for one variable held in a
// merged vector: the variable is declared again at the top of the block
// and every swizzle of the vector that selects exactly its components is
// replaced by the variable.
type componentExtraction struct {
	base
	tu        *ast.TranslationUnit
	block     *ast.BlockStmt
	decl      *ast.VariablesDecl
	info      *ast.VarDeclInfo
	component injection.MergedComponent
}

func (o *componentExtraction) Kind() Kind { return KindVectorization }

func (o *componentExtraction) String() string {
	return fmt.Sprintf("pull %s out of %s", o.component.Name, o.info.Name)
}

// componentType returns the type the extracted variable is declared with.
func (o *componentExtraction) componentType() types.Type {
	elem := types.ElementScalar(types.Lookup(o.decl.Type.Name))
	if elem == nil {
		return nil
	}
	return types.VectorOf(elem, o.component.Width)
}

// isComponentAccess reports whether m selects the component from the
// vector declared by info, given the scope m is in.
func (o *componentExtraction) isComponentAccess(sc *scope.Scope, m *ast.MemberExpr) bool {
	id, ok := m.X.(*ast.Ident)
	if !ok || id.Name != o.info.Name {
		return false
	}
	if e := sc.Lookup(id.Name); e == nil || e.Info != o.info {
		return false
	}
	offsets, ok := types.SwizzleOffsets(m.Member)
	return ok && offsets[0] == o.component.Offset && len(offsets) == o.component.Width
}

// uses walks tu and reports whether the component is accessed and
// whether the vector is used other than through a swizzle.
func (o *componentExtraction) uses() (component, direct bool) {
	scope.Walk(o.tu, scope.Funcs{OnLeave: func(w *scope.Walker, n ast.Node) {
		switch n := n.(type) {
		case *ast.MemberExpr:
			if o.isComponentAccess(w.Scope(), n) {
				component = true
			}
		case *ast.Ident:
			if n.Name != o.info.Name {
				return
			}
			if _, ok := w.Parent().(*ast.MemberExpr); ok {
				return
			}
			if e := w.Scope().Lookup(n.Name); e != nil && e.Info == o.info {
				direct = true
			}
		}
	}})
	return component, direct
}

// existing reports whether the block already declares the component, and
// whether that declaration cannot stand for it.
func (o *componentExtraction) existing() (found, incompatible bool) {
	want := o.componentType()
	for _, s := range o.block.Stmts {
		d, ok := s.(*ast.DeclStmt)
		if !ok {
			continue
		}
		for _, info := range d.Decl.Decls {
			if info.Name != o.component.Name {
				continue
			}
			if t := types.Lookup(d.Decl.Type.Name); t == nil || want == nil || !t.Equals(want) || info.Array != nil {
				return true, true
			}
			found = true
		}
	}
	return found, false
}

func (o *componentExtraction) Precondition() bool {
	if o.componentType() == nil || !containsInfo(o.decl, o.info) || !blockDeclares(o.block, o.info) {
		return false
	}
	found, incompatible := o.existing()
	if incompatible {
		return false
	}
	if !found && !scope.CanIntroduce(o.tu, o.block, o.component.Name) {
		return false
	}
	component, direct := o.uses()
	return component && !direct
}

// blockDeclares reports whether a declaration statement of block declares
// info.
func blockDeclares(block *ast.BlockStmt, info *ast.VarDeclInfo) bool {
	for _, s := range block.Stmts {
		if d, ok := s.(*ast.DeclStmt); ok && containsInfo(d.Decl, info) {
			return true
		}
	}
	return false
}

func (o *componentExtraction) Apply() error {
	t := o.componentType()
	if t == nil {
		return invariant(KindVectorization, "%s is not a vector", o.info.Name)
	}
	var accesses []*ast.MemberExpr
	scope.Walk(o.tu, scope.Funcs{OnLeave: func(w *scope.Walker, n ast.Node) {
		if m, ok := n.(*ast.MemberExpr); ok && o.isComponentAccess(w.Scope(), m) {
			accesses = append(accesses, m)
		}
	}})
	pm := ast.NewParentMap(o.block)
	for _, m := range accesses {
		if err := replace(KindVectorization, pm.Parent(m), m, &ast.Ident{Name: o.component.Name}); err != nil {
			return err
		}
	}
	if found, _ := o.existing(); !found {
		o.block.Insert(0, &ast.DeclStmt{Decl: &ast.VariablesDecl{
			Type:  &ast.TypeSpec{Name: t.String()},
			Decls: []*ast.VarDeclInfo{{Name: o.component.Name}},
		}})
	}
	return nil
}

type vectorizationFinder struct {
	*walk
}

func findVectorization(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &vectorizationFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *vectorizationFinder) Leave(w *scope.Walker, n ast.Node) {
	info, ok := n.(*ast.VarDeclInfo)
	if !ok || !injection.IsMerged(info.Name) {
		return
	}
	decl, ok := w.Parent().(*ast.VariablesDecl)
	if !ok {
		return
	}
	block := w.CurrentBlock()
	if block == nil {
		return
	}
	components, ok := injection.ParseMerged(info.Name)
	if !ok {
		return
	}
	for _, c := range components {
		f.add(&componentExtraction{
			base:      base{w.Depth()},
			tu:        f.tu,
			block:     block,
			decl:      decl,
			info:      info,
			component: c,
		})
	}
}
