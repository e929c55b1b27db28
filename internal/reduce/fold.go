package reduce

import (
	"math"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/types"
)

// foldFinder rewrites arithmetic on literals and identities such as x+0,
// x*1, x/1 and 0-x. Folding keeps the value of the expression, so it is
// offered in original code as well as injected code.
type foldFinder struct {
	*walk
}

func findFoldConstant(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &foldFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *foldFinder) Leave(w *scope.Walker, n ast.Node) {
	child, ok := n.(ast.Expr)
	if !ok || inArraySize(w) {
		return
	}
	parent := w.Parent()
	offer := func(repl ast.Expr) {
		f.add(&exprReplacement{
			base:   base{w.Depth()},
			kind:   KindFoldConstant,
			parent: parent,
			old:    child,
			repl:   repl,
		})
	}

	switch e := child.(type) {
	case *ast.CallExpr:
		if len(e.Args) != 1 || f.typer.IsUserDefined(e.Callee) || !f.zeroFloat(e.Args[0]) {
			return
		}
		switch e.Callee {
		case "sin":
			offer(newFloat("0.0"))
		case "cos":
			offer(newFloat("1.0"))
		}

	case *ast.BinaryExpr:
		f.foldBinary(e, offer)

	case *ast.UnaryExpr:
		if e.Op != ast.UnaryPlus && e.Op != ast.UnaryMinus {
			return
		}
		if f.zeroFloat(e.X) {
			offer(newFloat("0.0"))
		}
		if f.zeroInt(e.X) {
			offer(&ast.IntLit{Value: "0"})
		}

	case *ast.ConstructorExpr:
		if len(e.Args) != 1 {
			return
		}
		v, ok := floatAsInteger(e.Args[0])
		if !ok {
			return
		}
		switch e.Type {
		case "int":
			offer(&ast.IntLit{Value: strconv.Itoa(int(v))})
		case "uint":
			if v >= 0 {
				offer(&ast.UintLit{Value: strconv.Itoa(int(v))})
			}
		}

	case *ast.ParenExpr:
		switch e.X.(type) {
		case *ast.IntLit, *ast.UintLit, *ast.FloatLit, *ast.BoolLit, *ast.Ident,
			*ast.ParenExpr, *ast.CallExpr, *ast.MemberExpr, *ast.ConstructorExpr:
			offer(e.X)
		}

	case *ast.MemberExpr:
		if repl := f.constructorElement(e); repl != nil {
			offer(repl)
		}
	}
}

func (f *foldFinder) foldBinary(e *ast.BinaryExpr, offer func(ast.Expr)) {
	l, r := e.X, e.Y
	switch e.Op {
	case ast.BinAdd:
		f.addZero(e, l, r, offer)
		f.addZero(e, r, l, offer)
		f.foldFloats(l, r, func(a, b float32) float32 { return a + b }, offer)
		foldInts(l, r, offer)
		foldUints(l, r, offer)
		f.foldScalarVector(l, r, func(a, b float32) float32 { return a + b }, offer)

	case ast.BinSub:
		if f.zeroFloat(r) || (f.sameType(e, l) && f.zeroFloatVecOrSquareMat(r)) {
			offer(l)
		}
		if f.zeroFloat(l) || (f.sameType(e, r) && f.zeroFloatVecOrSquareMat(l)) {
			offer(&ast.ParenExpr{X: &ast.UnaryExpr{Op: ast.UnaryMinus, X: r}})
		}
		f.foldFloats(l, r, func(a, b float32) float32 { return a - b }, offer)
		f.foldScalarVector(l, r, func(a, b float32) float32 { return a - b }, offer)

	case ast.BinMul:
		f.mulIdentity(e, l, r, offer)
		f.mulIdentity(e, r, l, offer)
		f.mulZero(e, l, r, offer)
		f.mulZero(e, r, l, offer)
		f.foldFloats(l, r, func(a, b float32) float32 { return a * b }, offer)
		f.foldScalarVector(l, r, func(a, b float32) float32 { return a * b }, offer)

	case ast.BinDiv:
		if f.oneFloat(r) || (f.sameType(e, l) && f.oneFloatVec(r)) {
			offer(l)
		}
	}
}

func (f *foldFinder) addZero(e *ast.BinaryExpr, this, that ast.Expr, offer func(ast.Expr)) {
	if f.zeroFloat(this) {
		offer(that)
	}
	if f.sameType(e, that) && f.zeroFloatVecOrSquareMat(this) {
		offer(that)
	}
}

func (f *foldFinder) mulIdentity(e *ast.BinaryExpr, this, that ast.Expr, offer func(ast.Expr)) {
	if f.oneFloat(this) {
		offer(that)
	}
	if f.sameType(e, this) && (f.oneFloatVec(this) || f.identityMatrix(this)) {
		offer(that)
	}
}

// mulZero drops the other operand, so it must not have side effects.
func (f *foldFinder) mulZero(e *ast.BinaryExpr, this, that ast.Expr, offer func(ast.Expr)) {
	if !sideEffectFree(that) {
		return
	}
	if f.zeroFloat(this) {
		offer(newFloat("0.0"))
	}
	if f.sameType(e, that) && f.zeroFloatVecOrSquareMat(this) {
		offer(newFloat("0.0"))
	}
}

func (f *foldFinder) foldFloats(l, r ast.Expr, op func(a, b float32) float32, offer func(ast.Expr)) {
	a, aok := floatValue(l)
	b, bok := floatValue(r)
	if !aok || !bok {
		return
	}
	if lit, ok := floatLit(op(a, b)); ok {
		offer(lit)
	}
}

// foldInts folds a sum of int literals unless it overflows 32 bits.
func foldInts(l, r ast.Expr, offer func(ast.Expr)) {
	a, aok := l.(*ast.IntLit)
	b, bok := r.(*ast.IntLit)
	if !aok || !bok {
		return
	}
	x, err1 := strconv.ParseInt(a.Value, 0, 64)
	y, err2 := strconv.ParseInt(b.Value, 0, 64)
	if err1 != nil || err2 != nil {
		return
	}
	sum, err := safecast.Conv[int32](x + y)
	if err != nil {
		return
	}
	offer(&ast.IntLit{Value: strconv.FormatInt(int64(sum), 10)})
}

func foldUints(l, r ast.Expr, offer func(ast.Expr)) {
	a, aok := l.(*ast.UintLit)
	b, bok := r.(*ast.UintLit)
	if !aok || !bok {
		return
	}
	x, err1 := strconv.ParseUint(a.Value, 0, 64)
	y, err2 := strconv.ParseUint(b.Value, 0, 64)
	if err1 != nil || err2 != nil {
		return
	}
	sum, err := safecast.Conv[uint32](x + y)
	if err != nil {
		return
	}
	offer(&ast.UintLit{Value: strconv.FormatUint(uint64(sum), 10)})
}

// foldScalarVector folds s op vecN(c0, ...) and vecN(c0, ...) op s when
// every component is a float literal.
func (f *foldFinder) foldScalarVector(l, r ast.Expr, op func(a, b float32) float32, offer func(ast.Expr)) {
	build := func(vec *ast.ConstructorExpr, each func(c float32) float32) {
		args := make([]ast.Expr, len(vec.Args))
		for i, a := range vec.Args {
			c, _ := floatValue(a)
			lit, ok := floatLit(each(c))
			if !ok {
				return
			}
			args[i] = lit
		}
		offer(&ast.ConstructorExpr{Type: vec.Type, Args: args})
	}
	if s, ok := floatValue(l); ok {
		if vec := floatVectorConstant(r); vec != nil {
			build(vec, func(c float32) float32 { return op(s, c) })
		}
	}
	if s, ok := floatValue(r); ok {
		if vec := floatVectorConstant(l); vec != nil {
			build(vec, func(c float32) float32 { return op(c, s) })
		}
	}
}

// constructorElement folds vecN(a, b, ...).y to (b) when the constructor
// has one argument per component and none has side effects.
func (f *foldFinder) constructorElement(m *ast.MemberExpr) ast.Expr {
	c, ok := m.X.(*ast.ConstructorExpr)
	if !ok || len(m.Member) != 1 {
		return nil
	}
	offsets, ok := types.SwizzleOffsets(m.Member)
	if !ok {
		return nil
	}
	v, ok := f.typeOf(c).(*types.Vector)
	if !ok || v.Width != len(c.Args) || offsets[0] >= len(c.Args) || !sideEffectFree(c) {
		return nil
	}
	return &ast.ParenExpr{X: c.Args[offsets[0]]}
}

// ----------------------------------------------------------------------------
// Literal Recognition
// ----------------------------------------------------------------------------

func (f *foldFinder) sameType(a, b ast.Expr) bool {
	ta, tb := f.typeOf(a), f.typeOf(b)
	return ta != nil && tb != nil && ta.Equals(tb)
}

func (f *foldFinder) floatIs(e ast.Expr, want float64, spellings ...string) bool {
	lit, ok := e.(*ast.FloatLit)
	if !ok {
		return false
	}
	if f.ctx.Literals == LiteralNumeric {
		v, err := strconv.ParseFloat(strings.TrimRight(lit.Value, "fF"), 64)
		return err == nil && v == want
	}
	for _, s := range spellings {
		if lit.Value == s {
			return true
		}
	}
	return false
}

func (f *foldFinder) zeroFloat(e ast.Expr) bool { return f.floatIs(e, 0, "0.0", "0.") }
func (f *foldFinder) oneFloat(e ast.Expr) bool  { return f.floatIs(e, 1, "1.0", "1.") }

func (f *foldFinder) zeroInt(e ast.Expr) bool {
	lit, ok := e.(*ast.IntLit)
	if !ok {
		return false
	}
	if f.ctx.Literals == LiteralNumeric {
		v, err := strconv.ParseInt(lit.Value, 0, 64)
		return err == nil && v == 0
	}
	return lit.Value == "0"
}

func (f *foldFinder) zeroFloatVecOrSquareMat(e ast.Expr) bool {
	c, ok := e.(*ast.ConstructorExpr)
	if !ok {
		return false
	}
	switch t := f.typeOf(c).(type) {
	case *types.Vector:
		if t.Element.Kind != types.ScalarFloat {
			return false
		}
	case *types.Matrix:
		if t.Cols != t.Rows {
			return false
		}
	default:
		return false
	}
	for _, a := range c.Args {
		if !f.zeroFloat(a) && !f.zeroFloatVecOrSquareMat(a) {
			return false
		}
	}
	return true
}

func (f *foldFinder) oneFloatVec(e ast.Expr) bool {
	c, ok := e.(*ast.ConstructorExpr)
	if !ok {
		return false
	}
	if v, ok := f.typeOf(c).(*types.Vector); !ok || v.Element.Kind != types.ScalarFloat {
		return false
	}
	for _, a := range c.Args {
		if !f.oneFloat(a) && !f.oneFloatVec(a) {
			return false
		}
	}
	return true
}

// identityMatrix recognizes matN(1.0) and the fully spelled out identity.
func (f *foldFinder) identityMatrix(e ast.Expr) bool {
	c, ok := e.(*ast.ConstructorExpr)
	if !ok {
		return false
	}
	m, ok := f.typeOf(c).(*types.Matrix)
	if !ok || m.Cols != m.Rows {
		return false
	}
	if len(c.Args) == 1 {
		return f.oneFloat(c.Args[0])
	}
	dim := m.Cols
	if len(c.Args) != dim*dim {
		return false
	}
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			a := c.Args[i*dim+j]
			if i == j && !f.oneFloat(a) {
				return false
			}
			if i != j && !f.zeroFloat(a) {
				return false
			}
		}
	}
	return true
}

func floatValue(e ast.Expr) (float32, bool) {
	lit, ok := e.(*ast.FloatLit)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimRight(lit.Value, "fF"), 32)
	if err != nil {
		return 0, false
	}
	return float32(v), true
}

// floatLit formats v as a GLSL float literal. Infinities and NaN have no
// literal form.
func floatLit(v float32) (*ast.FloatLit, bool) {
	if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
		return nil, false
	}
	s := strconv.FormatFloat(float64(v), 'g', -1, 32)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return &ast.FloatLit{Value: s}, true
}

func floatVectorConstant(e ast.Expr) *ast.ConstructorExpr {
	c, ok := e.(*ast.ConstructorExpr)
	if !ok {
		return nil
	}
	switch c.Type {
	case "vec2", "vec3", "vec4":
	default:
		return nil
	}
	for _, a := range c.Args {
		if _, ok := a.(*ast.FloatLit); !ok {
			return nil
		}
	}
	return c
}

// floatAsInteger returns the value of a float literal written as digits
// with a decimal point and no fractional part, such as 3.0, 7. or .0.
func floatAsInteger(e ast.Expr) (int32, bool) {
	lit, ok := e.(*ast.FloatLit)
	if !ok {
		return 0, false
	}
	whole, frac, ok := strings.Cut(lit.Value, ".")
	if !ok {
		return 0, false
	}
	for _, part := range []string{whole, frac} {
		for i := 0; i < len(part); i++ {
			if part[i] < '0' || part[i] > '9' {
				return 0, false
			}
		}
	}
	if strings.Trim(frac, "0") != "" {
		return 0, false
	}
	if whole == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, false
	}
	n, err := safecast.Conv[int32](v)
	return n, err == nil
}

func newFloat(v string) ast.Expr { return &ast.FloatLit{Value: v} }
