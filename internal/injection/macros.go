package injection

import (
	"strings"

	"github.com/HugoDaniel/glslreduce/internal/ast"
)

// Macro identifies one of the wrapper macros a fuzzer injects. Each
// expands to one of its arguments, so removing the wrapper is always safe
// once the right argument is kept.
type Macro uint8

const (
	NotAMacro Macro = iota
	MacroDead            // _GLF_DEAD(cond): cond is false at run time
	MacroFuzzed          // _GLF_FUZZED(e): e is arbitrary fuzzed code
	MacroIdentity        // _GLF_IDENTITY(orig, transformed)
	MacroZero            // _GLF_ZERO(zero, transformed)
	MacroOne             // _GLF_ONE(one, transformed)
	MacroFalse           // _GLF_FALSE(false, transformed)
	MacroTrue            // _GLF_TRUE(true, transformed)
	MacroWrappedLoop     // _GLF_WRAPPED_LOOP(cond)
	MacroWrappedIfTrue   // _GLF_WRAPPED_IF_TRUE(cond)
	MacroWrappedIfFalse  // _GLF_WRAPPED_IF_FALSE(cond)
	MacroSwitch          // _GLF_SWITCH(e)
	MacroMakeInBoundsInt // _GLF_MAKE_IN_BOUNDS_INT(index, size)
	MacroMakeInBoundsUint
)

var macroNames = map[string]Macro{
	"_GLF_DEAD":                MacroDead,
	"_GLF_FUZZED":              MacroFuzzed,
	"_GLF_IDENTITY":            MacroIdentity,
	"_GLF_ZERO":                MacroZero,
	"_GLF_ONE":                 MacroOne,
	"_GLF_FALSE":               MacroFalse,
	"_GLF_TRUE":                MacroTrue,
	"_GLF_WRAPPED_LOOP":        MacroWrappedLoop,
	"_GLF_WRAPPED_IF_TRUE":     MacroWrappedIfTrue,
	"_GLF_WRAPPED_IF_FALSE":    MacroWrappedIfFalse,
	"_GLF_SWITCH":              MacroSwitch,
	"_GLF_MAKE_IN_BOUNDS_INT":  MacroMakeInBoundsInt,
	"_GLF_MAKE_IN_BOUNDS_UINT": MacroMakeInBoundsUint,
}

// Arity returns the number of arguments the macro takes.
func (m Macro) Arity() int {
	switch m {
	case MacroIdentity, MacroZero, MacroOne, MacroFalse, MacroTrue,
		MacroMakeInBoundsInt, MacroMakeInBoundsUint:
		return 2
	case NotAMacro:
		return 0
	}
	return 1
}

// Name returns the canonical spelling of the macro.
func (m Macro) Name() string {
	for name, mm := range macroNames {
		if mm == m {
			return name
		}
	}
	return ""
}

// LookupMacro returns the macro a callee names. The spelling without the
// leading underscore is accepted too.
func LookupMacro(callee string) Macro {
	if m, ok := macroNames[callee]; ok {
		return m
	}
	if !strings.HasPrefix(callee, "_") {
		return macroNames["_"+callee]
	}
	return NotAMacro
}

// MacroOf returns the macro e is a well-formed call of, or NotAMacro.
func MacroOf(e ast.Expr) Macro {
	call, ok := e.(*ast.CallExpr)
	if !ok {
		return NotAMacro
	}
	m := LookupMacro(call.Callee)
	if m == NotAMacro || len(call.Args) != m.Arity() {
		return NotAMacro
	}
	return m
}

// IsMacroName reports whether name is any injection macro.
func IsMacroName(name string) bool {
	return LookupMacro(name) != NotAMacro
}

// MacroNames returns the set of every injection macro spelling, for use as
// a purity context.
func MacroNames() map[string]bool {
	out := make(map[string]bool, 2*len(macroNames))
	for name := range macroNames {
		out[name] = true
		out[strings.TrimPrefix(name, "_")] = true
	}
	return out
}

// IsDeadByConstruction reports whether e is a _GLF_DEAD guard.
func IsDeadByConstruction(e ast.Expr) bool {
	return MacroOf(e) == MacroDead
}

// IsFuzzed reports whether e is a _GLF_FUZZED wrapper.
func IsFuzzed(e ast.Expr) bool {
	return MacroOf(e) == MacroFuzzed
}

// IsSwitch reports whether e is the _GLF_SWITCH wrapper of an injected
// switch statement's selector.
func IsSwitch(e ast.Expr) bool {
	return MacroOf(e) == MacroSwitch
}

// IsIdentityMutation reports whether e is one of the identity wrappers
// (_GLF_IDENTITY, _GLF_ZERO, _GLF_ONE, _GLF_FALSE, _GLF_TRUE).
func IsIdentityMutation(e ast.Expr) bool {
	switch MacroOf(e) {
	case MacroIdentity, MacroZero, MacroOne, MacroFalse, MacroTrue:
		return true
	}
	return false
}

// IsWrapper reports whether e wraps the guard of an injected control-flow
// wrapper (_GLF_WRAPPED_LOOP, _GLF_WRAPPED_IF_TRUE, _GLF_WRAPPED_IF_FALSE).
func IsWrapper(e ast.Expr) bool {
	switch MacroOf(e) {
	case MacroWrappedLoop, MacroWrappedIfTrue, MacroWrappedIfFalse:
		return true
	}
	return false
}

// IsDeadCodeInjection reports whether s is "if (_GLF_DEAD(...)) ...".
func IsDeadCodeInjection(s ast.Stmt) bool {
	ifStmt, ok := s.(*ast.IfStmt)
	return ok && IsDeadByConstruction(ifStmt.Cond)
}

// SemanticArg returns the argument a macro call evaluates to: the second
// argument of the identity wrappers and the first of every other macro.
// The in-bounds macros have no single semantic argument and return nil.
func SemanticArg(call *ast.CallExpr) ast.Expr {
	switch MacroOf(call) {
	case MacroIdentity, MacroZero, MacroOne, MacroFalse, MacroTrue:
		return call.Args[1]
	case MacroMakeInBoundsInt, MacroMakeInBoundsUint, NotAMacro:
		return nil
	}
	return call.Args[0]
}
