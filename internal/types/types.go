// Package types provides the GLSL type system used by the reducer.
//
// Only the parts of the type system needed to decide whether a rewrite
// preserves well-typedness are modelled: basic scalar, vector and matrix
// types, opaque types, arrays and structs. Precision and storage qualifiers
// are not part of a Type; they live on the declaration.
package types

import (
	"fmt"
	"strings"

	"github.com/HugoDaniel/glslreduce/internal/ast"
)

// Type represents a GLSL type.
type Type interface {
	// String returns the GLSL syntax for this type.
	String() string
	// Equals returns true if this type equals another type.
	Equals(Type) bool
	// isType is a marker method.
	isType()
}

// ----------------------------------------------------------------------------
// Scalar Types
// ----------------------------------------------------------------------------

// ScalarKind represents the kind of scalar type.
type ScalarKind uint8

const (
	ScalarBool ScalarKind = iota
	ScalarInt
	ScalarUint
	ScalarFloat
)

// Scalar represents bool, int, uint and float.
type Scalar struct {
	Kind ScalarKind
}

func (s *Scalar) String() string {
	switch s.Kind {
	case ScalarBool:
		return "bool"
	case ScalarInt:
		return "int"
	case ScalarUint:
		return "uint"
	case ScalarFloat:
		return "float"
	}
	return "unknown"
}

func (s *Scalar) Equals(other Type) bool {
	if o, ok := other.(*Scalar); ok {
		return s.Kind == o.Kind
	}
	return false
}

func (s *Scalar) isType() {}

// IsNumeric returns true if this is a numeric scalar type.
func (s *Scalar) IsNumeric() bool {
	return s.Kind != ScalarBool
}

// IsInteger returns true for int and uint.
func (s *Scalar) IsInteger() bool {
	return s.Kind == ScalarInt || s.Kind == ScalarUint
}

// Predeclared scalar types.
var (
	Bool  = &Scalar{Kind: ScalarBool}
	Int   = &Scalar{Kind: ScalarInt}
	Uint  = &Scalar{Kind: ScalarUint}
	Float = &Scalar{Kind: ScalarFloat}
)

// ----------------------------------------------------------------------------
// Vector Types
// ----------------------------------------------------------------------------

// Vector represents vecN, ivecN, uvecN and bvecN.
type Vector struct {
	Width   int // 2, 3, or 4
	Element *Scalar
}

func (v *Vector) String() string {
	return vectorPrefix(v.Element.Kind) + fmt.Sprintf("vec%d", v.Width)
}

func (v *Vector) Equals(other Type) bool {
	if o, ok := other.(*Vector); ok {
		return v.Width == o.Width && v.Element.Equals(o.Element)
	}
	return false
}

func (v *Vector) isType() {}

func vectorPrefix(k ScalarKind) string {
	switch k {
	case ScalarBool:
		return "b"
	case ScalarInt:
		return "i"
	case ScalarUint:
		return "u"
	}
	return ""
}

// ----------------------------------------------------------------------------
// Matrix Types
// ----------------------------------------------------------------------------

// Matrix represents matCxR with float elements.
type Matrix struct {
	Cols int
	Rows int
}

func (m *Matrix) String() string {
	if m.Cols == m.Rows {
		return fmt.Sprintf("mat%d", m.Cols)
	}
	return fmt.Sprintf("mat%dx%d", m.Cols, m.Rows)
}

func (m *Matrix) Equals(other Type) bool {
	if o, ok := other.(*Matrix); ok {
		return m.Cols == o.Cols && m.Rows == o.Rows
	}
	return false
}

func (m *Matrix) isType() {}

// Column returns the type of one column.
func (m *Matrix) Column() *Vector {
	return &Vector{Width: m.Rows, Element: Float}
}

// ----------------------------------------------------------------------------
// Other Types
// ----------------------------------------------------------------------------

// Void is the return type of functions that return nothing.
type Void struct{}

func (*Void) String() string { return "void" }

func (*Void) Equals(o Type) bool {
	_, ok := o.(*Void)
	return ok
}

func (*Void) isType() {}

// VoidType is the void type.
var VoidType = &Void{}

// Opaque represents samplers, images and atomic counters.
type Opaque struct {
	Name string
}

func (o *Opaque) String() string { return o.Name }

func (o *Opaque) Equals(other Type) bool {
	if x, ok := other.(*Opaque); ok {
		return o.Name == x.Name
	}
	return false
}

func (o *Opaque) isType() {}

// Array represents an array type. Size is -1 when unknown.
type Array struct {
	Element Type
	Size    int
}

func (a *Array) String() string {
	if a.Size < 0 {
		return a.Element.String() + "[]"
	}
	return fmt.Sprintf("%s[%d]", a.Element.String(), a.Size)
}

func (a *Array) Equals(other Type) bool {
	if o, ok := other.(*Array); ok {
		return a.Size == o.Size && a.Element.Equals(o.Element)
	}
	return false
}

func (a *Array) isType() {}

// Struct represents a named struct type. Structs are equal by name.
type Struct struct {
	Name   string
	Fields []Field
}

// Field is a struct member.
type Field struct {
	Name string
	Type Type
}

func (s *Struct) String() string { return s.Name }

func (s *Struct) Equals(other Type) bool {
	if o, ok := other.(*Struct); ok {
		return s.Name == o.Name
	}
	return false
}

func (s *Struct) isType() {}

// FieldType returns the type of the named field, or nil.
func (s *Struct) FieldType(name string) Type {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Type
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Lookup
// ----------------------------------------------------------------------------

var basicTypes = map[string]Type{}

var opaquePrefixes = []string{"sampler", "isampler", "usampler", "image", "iimage", "uimage"}

func init() {
	for _, s := range []*Scalar{Bool, Int, Uint, Float} {
		basicTypes[s.String()] = s
		for w := 2; w <= 4; w++ {
			v := &Vector{Width: w, Element: s}
			basicTypes[v.String()] = v
		}
	}
	for c := 2; c <= 4; c++ {
		for r := 2; r <= 4; r++ {
			m := &Matrix{Cols: c, Rows: r}
			basicTypes[fmt.Sprintf("mat%dx%d", c, r)] = m
			if c == r {
				basicTypes[m.String()] = m
			}
		}
	}
	basicTypes["void"] = VoidType
}

// Lookup returns the builtin type with the given name, or nil for names
// that are not builtin types (struct names included).
func Lookup(name string) Type {
	if t, ok := basicTypes[name]; ok {
		return t
	}
	if IsOpaqueName(name) {
		return &Opaque{Name: name}
	}
	return nil
}

// IsBuiltinTypeName reports whether name is a builtin type.
func IsBuiltinTypeName(name string) bool {
	return Lookup(name) != nil
}

// IsOpaqueName reports whether name denotes a sampler, image or atomic
// counter type.
func IsOpaqueName(name string) bool {
	if name == "atomic_uint" {
		return true
	}
	for _, p := range opaquePrefixes {
		rest, ok := strings.CutPrefix(name, p)
		if !ok || rest == "" {
			continue
		}
		// sampler2D, samplerCube, image2DArray, ...
		if c := rest[0]; (c >= '1' && c <= '3') || c == 'C' || c == 'B' {
			return true
		}
	}
	return false
}

// ----------------------------------------------------------------------------
// Queries
// ----------------------------------------------------------------------------

// ElementScalar returns the scalar component type of a scalar, vector or
// matrix type, or nil.
func ElementScalar(t Type) *Scalar {
	switch t := t.(type) {
	case *Scalar:
		return t
	case *Vector:
		return t.Element
	case *Matrix:
		return Float
	}
	return nil
}

// ComponentCount returns the number of scalar components of a scalar,
// vector or matrix type, or 0.
func ComponentCount(t Type) int {
	switch t := t.(type) {
	case *Scalar:
		return 1
	case *Vector:
		return t.Width
	case *Matrix:
		return t.Cols * t.Rows
	}
	return 0
}

// VectorOf returns the vector type of the given element and width. Width 1
// returns the scalar itself.
func VectorOf(elem *Scalar, width int) Type {
	if width == 1 {
		return elem
	}
	return &Vector{Width: width, Element: elem}
}

// IsBoolean reports whether t is bool or a bvec.
func IsBoolean(t Type) bool {
	s := ElementScalar(t)
	return s != nil && s.Kind == ScalarBool
}

// SwizzleType returns the type of v.member for a vector v and a swizzle
// member, or nil if member is not a valid swizzle of v.
func SwizzleType(t Type, member string) Type {
	var elem *Scalar
	width := 1
	switch t := t.(type) {
	case *Vector:
		elem, width = t.Element, t.Width
	case *Scalar:
		elem = t
	default:
		return nil
	}
	offsets, ok := SwizzleOffsets(member)
	if !ok || len(offsets) > 4 {
		return nil
	}
	for _, o := range offsets {
		if o >= width {
			return nil
		}
	}
	return VectorOf(elem, len(offsets))
}

var swizzleSets = []string{"xyzw", "rgba", "stpq"}

// SwizzleOffsets returns the component index of each swizzle character.
// All characters must come from the same set.
func SwizzleOffsets(member string) ([]int, bool) {
	if member == "" {
		return nil, false
	}
	for _, set := range swizzleSets {
		if !strings.ContainsRune(set, rune(member[0])) {
			continue
		}
		out := make([]int, len(member))
		for i := 0; i < len(member); i++ {
			idx := strings.IndexByte(set, member[i])
			if idx < 0 {
				return nil, false
			}
			out[i] = idx
		}
		return out, true
	}
	return nil, false
}

// SwizzleString returns the xyzw swizzle for the given offsets.
func SwizzleString(offsets []int) string {
	var sb strings.Builder
	for _, o := range offsets {
		sb.WriteByte(swizzleSets[0][o])
	}
	return sb.String()
}

// IndexType returns the type of t[i].
func IndexType(t Type) Type {
	switch t := t.(type) {
	case *Array:
		return t.Element
	case *Vector:
		return t.Element
	case *Matrix:
		return t.Column()
	}
	return nil
}

// BinaryResultType returns the result type of l op r, or nil when it
// cannot be determined.
func BinaryResultType(op ast.BinaryOp, l, r Type) Type {
	switch op {
	case ast.BinComma:
		return r
	case ast.BinLt, ast.BinGt, ast.BinLe, ast.BinGe, ast.BinEq, ast.BinNe,
		ast.BinLogAnd, ast.BinLogOr, ast.BinLogXor:
		return Bool
	}
	if op.IsSideEffecting() {
		return l
	}
	if l == nil || r == nil {
		return nil
	}
	if op == ast.BinMul {
		lm, lok := l.(*Matrix)
		rm, rok := r.(*Matrix)
		switch {
		case lok && rok:
			return &Matrix{Cols: rm.Cols, Rows: lm.Rows}
		case lok:
			if v, ok := r.(*Vector); ok {
				return &Vector{Width: lm.Rows, Element: v.Element}
			}
		case rok:
			if v, ok := l.(*Vector); ok {
				return &Vector{Width: rm.Cols, Element: v.Element}
			}
		}
	}
	if op == ast.BinShl || op == ast.BinShr {
		return l
	}
	// Component-wise: the wider operand wins
	if ComponentCount(r) > ComponentCount(l) {
		return r
	}
	return l
}

// ----------------------------------------------------------------------------
// Canonical Constants
// ----------------------------------------------------------------------------

// HasCanonicalConstant reports whether CanonicalConstant(t) is non-nil.
func HasCanonicalConstant(t Type) bool {
	return CanonicalConstant(t) != nil
}

// CanonicalConstant returns the expression a value of type t is replaced
// with when an expression is reduced to a constant: 1, 1u, 1.0, true,
// vecN(1.0), matN(1.0). Returns nil for types without one.
func CanonicalConstant(t Type) ast.Expr {
	switch t := t.(type) {
	case *Scalar:
		switch t.Kind {
		case ScalarBool:
			return &ast.BoolLit{Value: true}
		case ScalarInt:
			return &ast.IntLit{Value: "1"}
		case ScalarUint:
			return &ast.UintLit{Value: "1"}
		case ScalarFloat:
			return &ast.FloatLit{Value: "1.0"}
		}
	case *Vector:
		return &ast.ConstructorExpr{Type: t.String(), Args: []ast.Expr{CanonicalConstant(t.Element)}}
	case *Matrix:
		return &ast.ConstructorExpr{Type: t.String(), Args: []ast.Expr{CanonicalConstant(Float)}}
	}
	return nil
}

// LiteralType returns the type of a literal expression, or nil.
func LiteralType(e ast.Expr) Type {
	switch e.(type) {
	case *ast.IntLit:
		return Int
	case *ast.UintLit:
		return Uint
	case *ast.FloatLit:
		return Float
	case *ast.BoolLit:
		return Bool
	}
	return nil
}
