// Package typer computes the type of every expression in a translation
// unit. The result is a snapshot: it must be recomputed after the tree is
// edited.
package typer

import (
	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/builtins"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/types"
)

// Typer holds the types computed for one translation unit.
type Typer struct {
	exprs      map[ast.Expr]types.Type
	functions  map[string][]*ast.FunctionPrototype
	paramTypes map[*ast.FunctionPrototype][]types.Type
	returns    map[*ast.FunctionPrototype]types.Type
	structs    map[string]*types.Struct
}

// New types every expression of tu.
func New(tu *ast.TranslationUnit) *Typer {
	t := &Typer{
		exprs:      make(map[ast.Expr]types.Type),
		functions:  make(map[string][]*ast.FunctionPrototype),
		paramTypes: make(map[*ast.FunctionPrototype][]types.Type),
		returns:    make(map[*ast.FunctionPrototype]types.Type),
		structs:    make(map[string]*types.Struct),
	}
	scope.Walk(tu, t)
	return t
}

// TypeOf returns the type of e, or nil when it could not be determined.
func (t *Typer) TypeOf(e ast.Expr) types.Type {
	return t.exprs[e]
}

// HasType reports whether a type is known for e.
func (t *Typer) HasType(e ast.Expr) bool {
	return t.exprs[e] != nil
}

// Prototypes returns every user-defined prototype (forward declarations
// and definition headers) with the given name.
func (t *Typer) Prototypes(name string) []*ast.FunctionPrototype {
	return t.functions[name]
}

// IsUserDefined reports whether name is a function declared in the
// translation unit.
func (t *Typer) IsUserDefined(name string) bool {
	return len(t.functions[name]) > 0
}

// Struct returns the named struct type, or nil.
func (t *Typer) Struct(name string) *types.Struct {
	return t.structs[name]
}

// ParamTypes returns the resolved parameter types of proto.
func (t *Typer) ParamTypes(proto *ast.FunctionPrototype) []types.Type {
	return t.paramTypes[proto]
}

// PrototypeMatches reports whether call may invoke proto: the callee name
// and the number of arguments agree, and every argument's type equals the
// parameter type. Qualifiers are ignored. An argument of unknown type
// never matches.
func (t *Typer) PrototypeMatches(proto *ast.FunctionPrototype, call *ast.CallExpr) bool {
	if proto.Name != call.Callee || len(proto.Params) != len(call.Args) {
		return false
	}
	params := t.paramTypes[proto]
	for i, arg := range call.Args {
		at := t.exprs[arg]
		if at == nil || i >= len(params) || params[i] == nil || !at.Equals(params[i]) {
			return false
		}
	}
	return true
}

// ----------------------------------------------------------------------------
// Visitor
// ----------------------------------------------------------------------------

func (t *Typer) Enter(w *scope.Walker, n ast.Node) bool {
	if proto, ok := n.(*ast.FunctionPrototype); ok {
		t.functions[proto.Name] = append(t.functions[proto.Name], proto)
		params := make([]types.Type, len(proto.Params))
		for i, p := range proto.Params {
			params[i] = w.Scope().Resolve(p.Type, p.Array)
		}
		t.paramTypes[proto] = params
		t.returns[proto] = w.Scope().Resolve(proto.ReturnType, nil)
	}
	return true
}

func (t *Typer) Leave(w *scope.Walker, n ast.Node) {
	switch n := n.(type) {
	case *ast.StructDef:
		if n.Name != "" {
			if st := w.Scope().LookupStruct(n.Name); st != nil {
				t.structs[n.Name] = st
			}
		}
	case ast.Expr:
		if typ := t.typeExpr(w.Scope(), n); typ != nil {
			t.exprs[n] = typ
		}
	}
}

// typeExpr computes the type of e from the already computed types of its
// children.
func (t *Typer) typeExpr(sc *scope.Scope, e ast.Expr) types.Type {
	switch e := e.(type) {
	case *ast.IntLit, *ast.UintLit, *ast.FloatLit, *ast.BoolLit:
		return types.LiteralType(e)

	case *ast.Ident:
		if typ := sc.LookupType(e.Name); typ != nil {
			return typ
		}
		return BuiltinVariableType(e.Name)

	case *ast.ParenExpr:
		return t.exprs[e.X]

	case *ast.UnaryExpr:
		if e.Op == ast.UnaryLogNot {
			return types.Bool
		}
		return t.exprs[e.X]

	case *ast.BinaryExpr:
		l, r := t.exprs[e.X], t.exprs[e.Y]
		switch e.Op {
		case ast.BinComma:
			return r
		case ast.BinEq, ast.BinNe, ast.BinLt, ast.BinGt, ast.BinLe, ast.BinGe,
			ast.BinLogAnd, ast.BinLogOr, ast.BinLogXor:
			return types.Bool
		}
		return types.BinaryResultType(e.Op, l, r)

	case *ast.TernaryExpr:
		if typ := t.exprs[e.Then]; typ != nil {
			return typ
		}
		return t.exprs[e.Else]

	case *ast.ConstructorExpr:
		if typ := types.Lookup(e.Type); typ != nil {
			return typ
		}
		if st := sc.LookupStruct(e.Type); st != nil {
			return st
		}
		return nil

	case *ast.ArrayConstructorExpr:
		elem := types.Lookup(e.Elem)
		if elem == nil {
			if st := sc.LookupStruct(e.Elem); st != nil {
				elem = st
			}
		}
		if elem == nil {
			return nil
		}
		size := len(e.Args)
		if e.Size != nil {
			size = scope.ArraySize(&ast.ArrayInfo{Size: e.Size})
		}
		return &types.Array{Element: elem, Size: size}

	case *ast.CallExpr:
		return t.typeCall(e)

	case *ast.IndexExpr:
		return types.IndexType(t.exprs[e.X])

	case *ast.MemberExpr:
		base := t.exprs[e.X]
		if st, ok := base.(*types.Struct); ok {
			return st.FieldType(e.Member)
		}
		return types.SwizzleType(base, e.Member)
	}
	return nil
}

func (t *Typer) typeCall(call *ast.CallExpr) types.Type {
	for _, proto := range t.functions[call.Callee] {
		if t.PrototypeMatches(proto, call) {
			return t.returns[proto]
		}
	}
	if typ := t.uniqueReturn(call); typ != nil {
		return typ
	}
	if m := injection.MacroOf(call); m != injection.NotAMacro {
		switch m {
		case injection.MacroMakeInBoundsInt:
			return types.Int
		case injection.MacroMakeInBoundsUint:
			return types.Uint
		}
		return t.exprs[injection.SemanticArg(call)]
	}
	if b := builtins.Lookup(call.Callee); b != nil {
		args := make([]types.Type, len(call.Args))
		for i, a := range call.Args {
			args[i] = t.exprs[a]
		}
		return b.ResultType(args)
	}
	return nil
}

// uniqueReturn types a call whose arguments could not all be typed when
// every prototype of that name and arity returns the same type.
func (t *Typer) uniqueReturn(call *ast.CallExpr) types.Type {
	var found types.Type
	for _, proto := range t.functions[call.Callee] {
		if len(proto.Params) != len(call.Args) {
			continue
		}
		ret := t.returns[proto]
		if ret == nil || (found != nil && !found.Equals(ret)) {
			return nil
		}
		found = ret
	}
	return found
}

// BuiltinVariableType returns the type of a gl_ builtin variable, or nil.
func BuiltinVariableType(name string) types.Type {
	switch name {
	case "gl_PointSize", "gl_FragDepth":
		return types.Float
	case "gl_FragCoord", "gl_FragColor", "gl_Position":
		return types.Lookup("vec4")
	case "gl_PointCoord":
		return types.Lookup("vec2")
	case "gl_FrontFacing":
		return types.Bool
	case "gl_VertexID", "gl_InstanceID":
		return types.Int
	case "gl_NumWorkGroups", "gl_WorkGroupID", "gl_LocalInvocationID",
		"gl_GlobalInvocationID", "gl_WorkGroupSize":
		return types.Lookup("uvec3")
	case "gl_LocalInvocationIndex":
		return types.Uint
	}
	return nil
}
