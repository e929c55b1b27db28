package simplify

import (
	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/builtins"
	"github.com/HugoDaniel/glslreduce/internal/injection"
)

// ----------------------------------------------------------------------------
// Unused Declarations
// ----------------------------------------------------------------------------

// interfaceQualifiers mark globals that belong to the pipeline interface.
// They are kept even when the shader never reads them.
var interfaceQualifiers = []string{
	"in", "out", "inout", "uniform", "buffer", "shared", "attribute", "varying",
}

// StripUnused removes the functions, prototypes, globals and struct
// definitions that main cannot reach, and returns how many declarations or
// declarators were removed. A unit without main is left alone.
//
// Reachability works by:
//  1. Building a graph from each global name to the names it mentions
//  2. Marking everything reachable from main and the interface globals
//  3. Dropping the declarations of unmarked names
func StripUnused(tu *ast.TranslationUnit) int {
	if tu.MainFunction() == nil {
		return 0
	}
	deps := buildDependencyGraph(tu)

	live := map[string]bool{}
	markLive("main", deps, live)
	for _, d := range tu.Decls {
		if isRoot(d) {
			for _, name := range refs(d) {
				markLive(name, deps, live)
			}
			continue
		}
		if vd, ok := d.(*ast.VariablesDecl); ok {
			for _, info := range vd.Decls {
				if info.Init != nil && !sideEffectFree(info.Init) {
					markLive(info.Name, deps, live)
				}
			}
		}
	}

	removed := 0
	kept := tu.Decls[:0]
	for _, d := range tu.Decls {
		switch d := d.(type) {
		case *ast.FunctionDef:
			if !live[d.Proto.Name] {
				removed++
				continue
			}
		case *ast.FunctionPrototype:
			if !live[d.Name] {
				removed++
				continue
			}
		case *ast.VariablesDecl:
			if isRoot(d) {
				break
			}
			n := len(d.Decls)
			d.Decls = deleteDead(d.Decls, live)
			removed += n - len(d.Decls)
			if len(d.Decls) == 0 && (d.Type.Struct == nil || !live[d.Type.Struct.Name]) {
				if n == 0 {
					removed++
				}
				continue
			}
		}
		kept = append(kept, d)
	}
	tu.Decls = kept
	return removed
}

var purity = &ast.PurityContext{
	Builtins:       builtins.AllNames(),
	ImpureBuiltins: builtins.ImpureNames(),
	Macros:         injection.MacroNames(),
}

func sideEffectFree(e ast.Expr) bool {
	return purity.IsSideEffectFree(e)
}

func deleteDead(infos []*ast.VarDeclInfo, live map[string]bool) []*ast.VarDeclInfo {
	out := infos[:0]
	for _, info := range infos {
		if live[info.Name] {
			out = append(out, info)
		}
	}
	return out
}

// isRoot reports whether d is kept whatever main does: anything that is
// not a function or an ordinary global.
func isRoot(d ast.Decl) bool {
	switch d := d.(type) {
	case *ast.FunctionDef, *ast.FunctionPrototype:
		return false
	case *ast.VariablesDecl:
		for _, q := range interfaceQualifiers {
			if d.Type.HasQualifier(q) {
				return true
			}
		}
		return false
	}
	return true
}

// buildDependencyGraph maps each global name to the names its declaration
// mentions. Overloads of a function share one entry.
func buildDependencyGraph(tu *ast.TranslationUnit) map[string][]string {
	deps := make(map[string][]string)
	for _, d := range tu.Decls {
		switch d := d.(type) {
		case *ast.FunctionDef:
			deps[d.Proto.Name] = append(deps[d.Proto.Name], refs(d)...)
		case *ast.FunctionPrototype:
			deps[d.Name] = append(deps[d.Name], refs(d)...)
		case *ast.VariablesDecl:
			typeRefs := refs(d.Type)
			if d.Type.Struct != nil && d.Type.Struct.Name != "" {
				deps[d.Type.Struct.Name] = append(deps[d.Type.Struct.Name], typeRefs...)
			}
			for _, info := range d.Decls {
				deps[info.Name] = append(deps[info.Name], typeRefs...)
				deps[info.Name] = append(deps[info.Name], refs(info)...)
			}
		}
	}
	return deps
}

// refs collects every name n mentions: variables, callees, constructed
// types and declared types.
func refs(n ast.Node) []string {
	var out []string
	ast.Inspect(n, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Ident:
			out = append(out, n.Name)
		case *ast.CallExpr:
			out = append(out, n.Callee)
		case *ast.ConstructorExpr:
			out = append(out, n.Type)
		case *ast.ArrayConstructorExpr:
			out = append(out, n.Elem)
		case *ast.TypeSpec:
			out = append(out, n.Name)
		}
		return true
	})
	return out
}

// markLive marks a name and all its dependencies as live.
func markLive(name string, deps map[string][]string, live map[string]bool) {
	if live[name] {
		return
	}
	live[name] = true
	for _, dep := range deps[name] {
		markLive(dep, deps, live)
	}
}
