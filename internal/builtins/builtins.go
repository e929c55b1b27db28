// Package builtins defines the GLSL built-in functions the reducer needs to
// know about: their names, which parameters are written through (out and
// inout), which calls touch shared state, and how to compute the result
// type of a call from its argument types.
package builtins

import (
	"github.com/HugoDaniel/glslreduce/internal/types"
)

// BuiltinKind identifies categories of builtin functions.
type BuiltinKind uint8

const (
	BuiltinAngle       BuiltinKind = iota // Angle and trigonometry
	BuiltinExponential                    // Exponential functions
	BuiltinCommon                         // Common math functions
	BuiltinPacking                        // Floating point pack/unpack
	BuiltinGeometric                      // Geometric functions
	BuiltinMatrix                         // Matrix functions
	BuiltinRelational                     // Vector relational functions
	BuiltinInteger                        // Integer functions
	BuiltinTexture                        // Texture lookup
	BuiltinAtomic                         // Atomic counter and memory functions
	BuiltinImage                          // Image functions
	BuiltinDerivative                     // Fragment processing functions
	BuiltinBarrier                        // Shader invocation control and memory barriers
)

// ParamQualifier is the direction of a builtin parameter.
type ParamQualifier uint8

const (
	ParamIn ParamQualifier = iota
	ParamOut
	ParamInout
)

// ResultFunc computes the result type of a call from its argument types.
// Argument types may be nil when unknown.
type ResultFunc func(args []types.Type) types.Type

// Builtin represents a built-in function.
type Builtin struct {
	Name string
	Kind BuiltinKind
	// Result computes the return type. nil means void.
	Result ResultFunc
	// Params records qualifiers of parameters that are not plain "in",
	// keyed by parameter index.
	Params map[int]ParamQualifier
	// Impure is set for calls that write memory other than their own
	// out parameters (atomics, image stores, barriers).
	Impure bool
}

// Table maps builtin function names to their definitions.
var Table = make(map[string]*Builtin)

func init() {
	registerAngle()
	registerExponential()
	registerCommon()
	registerPacking()
	registerGeometric()
	registerMatrix()
	registerRelational()
	registerInteger()
	registerTexture()
	registerAtomic()
	registerImage()
	registerDerivative()
	registerBarrier()
}

// Lookup returns the builtin function with the given name, or nil.
func Lookup(name string) *Builtin {
	return Table[name]
}

// IsBuiltin returns true if the name is a builtin function.
func IsBuiltin(name string) bool {
	return Table[name] != nil
}

// ParamQualifierAt returns the qualifier of parameter i of the builtin.
func (b *Builtin) ParamQualifierAt(i int) ParamQualifier {
	return b.Params[i]
}

// WritesParam reports whether parameter i is out or inout.
func (b *Builtin) WritesParam(i int) bool {
	q := b.Params[i]
	return q == ParamOut || q == ParamInout
}

// HasSideEffects reports whether a call to b may change program state.
func (b *Builtin) HasSideEffects() bool {
	return b.Impure || len(b.Params) > 0
}

// ResultType returns the type of a call to b with the given argument types.
func (b *Builtin) ResultType(args []types.Type) types.Type {
	if b.Result == nil {
		return types.VoidType
	}
	return b.Result(args)
}

// ImpureNames returns every builtin with side effects. It seeds the purity
// analysis.
func ImpureNames() map[string]bool {
	out := make(map[string]bool)
	for name, b := range Table {
		if b.HasSideEffects() {
			out[name] = true
		}
	}
	return out
}

// AllNames returns the set of every builtin function name.
func AllNames() map[string]bool {
	out := make(map[string]bool, len(Table))
	for name := range Table {
		out[name] = true
	}
	return out
}

func register(kind BuiltinKind, result ResultFunc, names ...string) {
	for _, name := range names {
		Table[name] = &Builtin{Name: name, Kind: kind, Result: result}
	}
}

func registerWith(b *Builtin) {
	Table[b.Name] = b
}

// ----------------------------------------------------------------------------
// Result Rules
// ----------------------------------------------------------------------------

// sameAsArg returns the type of argument i.
func sameAsArg(i int) ResultFunc {
	return func(args []types.Type) types.Type {
		if i < len(args) {
			return args[i]
		}
		return nil
	}
}

func fixed(t types.Type) ResultFunc {
	return func([]types.Type) types.Type { return t }
}

// boolLike returns bool or bvecN matching the width of argument 0.
func boolLike(args []types.Type) types.Type {
	if len(args) > 0 {
		if v, ok := args[0].(*types.Vector); ok {
			return &types.Vector{Width: v.Width, Element: types.Bool}
		}
	}
	return types.Bool
}

// withElement returns argument 0's shape with the given element type.
func withElement(elem *types.Scalar) ResultFunc {
	return func(args []types.Type) types.Type {
		if len(args) > 0 {
			if v, ok := args[0].(*types.Vector); ok {
				return &types.Vector{Width: v.Width, Element: elem}
			}
		}
		return elem
	}
}

// texel returns vec4, ivec4 or uvec4 depending on the sampler or image
// prefix of argument 0.
func texel(args []types.Type) types.Type {
	elem := types.Float
	if len(args) > 0 {
		if o, ok := args[0].(*types.Opaque); ok && len(o.Name) > 0 {
			switch o.Name[0] {
			case 'i':
				elem = types.Int
			case 'u':
				elem = types.Uint
			}
		}
	}
	return &types.Vector{Width: 4, Element: elem}
}

// ----------------------------------------------------------------------------
// Registration
// ----------------------------------------------------------------------------

func registerAngle() {
	register(BuiltinAngle, sameAsArg(0),
		"radians", "degrees", "sin", "cos", "tan", "asin", "acos", "atan",
		"sinh", "cosh", "tanh", "asinh", "acosh", "atanh")
}

func registerExponential() {
	register(BuiltinExponential, sameAsArg(0),
		"pow", "exp", "log", "exp2", "log2", "sqrt", "inversesqrt")
}

func registerCommon() {
	register(BuiltinCommon, sameAsArg(0),
		"abs", "sign", "floor", "trunc", "round", "roundEven", "ceil", "fract",
		"mod", "min", "max", "clamp", "fma")
	// mix(x, y, a) and the step functions follow the vector argument
	register(BuiltinCommon, func(args []types.Type) types.Type {
		return widest(args)
	}, "mix", "step", "smoothstep")
	register(BuiltinCommon, boolLike, "isnan", "isinf")
	register(BuiltinCommon, withElement(types.Int), "floatBitsToInt")
	register(BuiltinCommon, withElement(types.Uint), "floatBitsToUint")
	register(BuiltinCommon, withElement(types.Float), "intBitsToFloat", "uintBitsToFloat")

	registerWith(&Builtin{Name: "modf", Kind: BuiltinCommon, Result: sameAsArg(0),
		Params: map[int]ParamQualifier{1: ParamOut}})
	registerWith(&Builtin{Name: "frexp", Kind: BuiltinCommon, Result: sameAsArg(0),
		Params: map[int]ParamQualifier{1: ParamOut}})
	register(BuiltinCommon, sameAsArg(0), "ldexp")
}

func registerPacking() {
	register(BuiltinPacking, fixed(types.Uint),
		"packUnorm2x16", "packSnorm2x16", "packUnorm4x8", "packSnorm4x8", "packHalf2x16")
	register(BuiltinPacking, fixed(&types.Vector{Width: 2, Element: types.Float}),
		"unpackUnorm2x16", "unpackSnorm2x16", "unpackHalf2x16")
	register(BuiltinPacking, fixed(&types.Vector{Width: 4, Element: types.Float}),
		"unpackUnorm4x8", "unpackSnorm4x8")
}

func registerGeometric() {
	register(BuiltinGeometric, fixed(types.Float), "length", "distance", "dot")
	register(BuiltinGeometric, fixed(&types.Vector{Width: 3, Element: types.Float}), "cross")
	register(BuiltinGeometric, sameAsArg(0), "normalize", "faceforward", "reflect", "refract")
}

func registerMatrix() {
	register(BuiltinMatrix, sameAsArg(0), "matrixCompMult", "inverse")
	register(BuiltinMatrix, fixed(types.Float), "determinant")
	register(BuiltinMatrix, func(args []types.Type) types.Type {
		if len(args) > 0 {
			if m, ok := args[0].(*types.Matrix); ok {
				return &types.Matrix{Cols: m.Rows, Rows: m.Cols}
			}
		}
		return nil
	}, "transpose")
	register(BuiltinMatrix, func(args []types.Type) types.Type {
		if len(args) == 2 {
			c, ok1 := args[0].(*types.Vector)
			r, ok2 := args[1].(*types.Vector)
			if ok1 && ok2 {
				return &types.Matrix{Cols: r.Width, Rows: c.Width}
			}
		}
		return nil
	}, "outerProduct")
}

func registerRelational() {
	register(BuiltinRelational, boolLike,
		"lessThan", "lessThanEqual", "greaterThan", "greaterThanEqual",
		"equal", "notEqual", "not")
	register(BuiltinRelational, fixed(types.Bool), "any", "all")
}

func registerInteger() {
	register(BuiltinInteger, sameAsArg(0), "bitfieldExtract", "bitfieldInsert", "bitfieldReverse")
	register(BuiltinInteger, withElement(types.Int), "bitCount", "findLSB", "findMSB")

	registerWith(&Builtin{Name: "uaddCarry", Kind: BuiltinInteger, Result: sameAsArg(0),
		Params: map[int]ParamQualifier{2: ParamOut}})
	registerWith(&Builtin{Name: "usubBorrow", Kind: BuiltinInteger, Result: sameAsArg(0),
		Params: map[int]ParamQualifier{2: ParamOut}})
	registerWith(&Builtin{Name: "umulExtended", Kind: BuiltinInteger,
		Params: map[int]ParamQualifier{2: ParamOut, 3: ParamOut}})
	registerWith(&Builtin{Name: "imulExtended", Kind: BuiltinInteger,
		Params: map[int]ParamQualifier{2: ParamOut, 3: ParamOut}})
}

func registerTexture() {
	register(BuiltinTexture, texel,
		"texture", "textureProj", "textureLod", "textureOffset", "texelFetch",
		"texelFetchOffset", "textureProjOffset", "textureLodOffset",
		"textureProjLod", "textureProjLodOffset", "textureGrad",
		"textureGradOffset", "textureProjGrad", "textureProjGradOffset",
		"textureGather", "textureGatherOffset", "texture2D", "texture2DProj",
		"texture2DLod", "textureCube", "textureCubeLod")
	register(BuiltinTexture, fixed(&types.Vector{Width: 2, Element: types.Int}), "textureSize")
	register(BuiltinTexture, fixed(&types.Vector{Width: 2, Element: types.Float}), "textureQueryLod")
	register(BuiltinTexture, fixed(types.Int), "textureQueryLevels", "textureSamples")
}

func registerAtomic() {
	for _, name := range []string{"atomicCounterIncrement", "atomicCounterDecrement"} {
		registerWith(&Builtin{Name: name, Kind: BuiltinAtomic, Result: fixed(types.Uint), Impure: true})
	}
	register(BuiltinAtomic, fixed(types.Uint), "atomicCounter")
	for _, name := range []string{"atomicAdd", "atomicMin", "atomicMax", "atomicAnd",
		"atomicOr", "atomicXor", "atomicExchange", "atomicCompSwap"} {
		registerWith(&Builtin{Name: name, Kind: BuiltinAtomic, Result: sameAsArg(1),
			Params: map[int]ParamQualifier{0: ParamInout}, Impure: true})
	}
}

func registerImage() {
	register(BuiltinImage, texel, "imageLoad")
	register(BuiltinImage, fixed(&types.Vector{Width: 2, Element: types.Int}), "imageSize")
	registerWith(&Builtin{Name: "imageStore", Kind: BuiltinImage, Impure: true})
	for _, name := range []string{"imageAtomicAdd", "imageAtomicMin", "imageAtomicMax",
		"imageAtomicAnd", "imageAtomicOr", "imageAtomicXor", "imageAtomicExchange",
		"imageAtomicCompSwap"} {
		registerWith(&Builtin{Name: name, Kind: BuiltinImage, Result: fixed(types.Uint), Impure: true})
	}
}

func registerDerivative() {
	register(BuiltinDerivative, sameAsArg(0),
		"dFdx", "dFdy", "fwidth", "dFdxFine", "dFdyFine", "fwidthFine",
		"dFdxCoarse", "dFdyCoarse", "fwidthCoarse",
		"interpolateAtCentroid", "interpolateAtSample", "interpolateAtOffset")
}

func registerBarrier() {
	for _, name := range []string{"barrier", "memoryBarrier", "memoryBarrierAtomicCounter",
		"memoryBarrierBuffer", "memoryBarrierShared", "memoryBarrierImage", "groupMemoryBarrier"} {
		registerWith(&Builtin{Name: name, Kind: BuiltinBarrier, Impure: true})
	}
}

// widest returns the argument type with the most components.
func widest(args []types.Type) types.Type {
	var best types.Type
	for _, a := range args {
		if a == nil {
			continue
		}
		if best == nil || types.ComponentCount(a) > types.ComponentCount(best) {
			best = a
		}
	}
	return best
}
