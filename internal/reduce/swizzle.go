package reduce

import (
	"fmt"
	"slices"
	"strings"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/printer"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/types"
)

// Both finders in this file change what a shader computes, so they only
// run when reducing everywhere.

// isSwizzleBase reports whether t is a type a member lookup swizzles.
func isSwizzleBase(t types.Type) bool {
	switch t.(type) {
	case *types.Scalar, *types.Vector:
		return true
	}
	return false
}

// largestComponent returns the highest component index a swizzle selects,
// or -1 if member is not a swizzle.
func largestComponent(member string) int {
	offsets, ok := types.SwizzleOffsets(member)
	if !ok {
		return -1
	}
	return slices.Max(offsets)
}

// swizzleSet returns the component set c belongs to.
func swizzleSet(c byte) string {
	for _, set := range []string{"xyzw", "rgba", "stpq"} {
		if strings.IndexByte(set, c) >= 0 {
			return set
		}
	}
	return ""
}

// ----------------------------------------------------------------------------
// Simplify Swizzle
// ----------------------------------------------------------------------------

// componentLowering replaces one component of a swizzle with a lower
// component of the same set, as in v.xz to v.xy.
type componentLowering struct {
	base
	swizzle *ast.MemberExpr
	index   int
	to      byte
	lvalue  bool
}

func (o *componentLowering) Kind() Kind { return KindSimplifySwizzle }

func (o *componentLowering) String() string {
	return fmt.Sprintf("use %c for component %d of %s", o.to, o.index, printer.ExprString(o.swizzle))
}

func (o *componentLowering) Precondition() bool {
	member := o.swizzle.Member
	if o.index >= len(member) {
		return false
	}
	// The components of an assigned swizzle must be distinct.
	if o.lvalue && strings.IndexByte(member, o.to) >= 0 {
		return false
	}
	set := swizzleSet(member[o.index])
	from := strings.IndexByte(set, member[o.index])
	to := strings.IndexByte(set, o.to)
	return set != "" && to >= 0 && to < from
}

func (o *componentLowering) Apply() error {
	if !o.Precondition() {
		return invariant(KindSimplifySwizzle, "cannot lower component %d of .%s", o.index, o.swizzle.Member)
	}
	b := []byte(o.swizzle.Member)
	b[o.index] = o.to
	o.swizzle.Member = string(b)
	return nil
}

type simplifySwizzleFinder struct {
	*walk
}

func findSimplifySwizzle(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	if !ctx.ReduceEverywhere {
		return nil
	}
	f := &simplifySwizzleFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *simplifySwizzleFinder) Leave(w *scope.Walker, n ast.Node) {
	m, ok := n.(*ast.MemberExpr)
	if !ok || !isSwizzleBase(f.typeOf(m.X)) {
		return
	}
	lvalue := f.tr.InLValueContext()
	for i := 0; i < len(m.Member); i++ {
		set := swizzleSet(m.Member[i])
		// Lower replacements first: x before y before z.
		for j := 0; j < strings.IndexByte(set, m.Member[i]); j++ {
			f.add(&componentLowering{base: base{w.Depth()}, swizzle: m, index: i, to: set[j], lvalue: lvalue})
		}
	}
}

// ----------------------------------------------------------------------------
// Remove Swizzle
// ----------------------------------------------------------------------------

// swizzleRemoval replaces a swizzle with the vector it swizzles. That is
// possible when the two have the same type, as in v.yx for a vec2 v, or
// when an enclosing swizzle only selects components the vector has, as in
// v.xyz.xx to v.xx.
type swizzleRemoval struct {
	base
	parent  ast.Node
	swizzle *ast.MemberExpr
	inner   ast.Expr
	same    bool
	width   int
}

func (o *swizzleRemoval) Kind() Kind { return KindRemoveSwizzle }

func (o *swizzleRemoval) String() string {
	return fmt.Sprintf("replace %s with %s", printer.ExprString(o.swizzle), printer.ExprString(o.inner))
}

func (o *swizzleRemoval) Precondition() bool {
	if !ast.HasChild(o.parent, o.swizzle) || o.swizzle.X != o.inner {
		return false
	}
	if o.same {
		return true
	}
	outer, ok := o.parent.(*ast.MemberExpr)
	if !ok {
		return false
	}
	largest := largestComponent(outer.Member)
	return largest >= 0 && largest < o.width
}

func (o *swizzleRemoval) Apply() error {
	return replace(KindRemoveSwizzle, o.parent, o.swizzle, o.inner)
}

type removeSwizzleFinder struct {
	*walk
}

func findRemoveSwizzle(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	if !ctx.ReduceEverywhere {
		return nil
	}
	f := &removeSwizzleFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *removeSwizzleFinder) Leave(w *scope.Walker, n ast.Node) {
	m, ok := n.(*ast.MemberExpr)
	if !ok {
		return
	}
	inner := f.typeOf(m.X)
	if !isSwizzleBase(inner) {
		return
	}
	op := &swizzleRemoval{
		base:    base{w.Depth()},
		parent:  w.Parent(),
		swizzle: m,
		inner:   m.X,
		width:   types.ComponentCount(inner),
	}
	if t := f.typeOf(m); t != nil && t.Equals(inner) {
		op.same = true
		f.add(op)
		return
	}
	if outer, ok := w.Parent().(*ast.MemberExpr); ok && isSwizzleBase(f.typeOf(outer.X)) {
		f.add(op)
	}
}
