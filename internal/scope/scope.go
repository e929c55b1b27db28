// Package scope tracks lexical scopes during a traversal of a translation
// unit. Scopes are transient: they are rebuilt by every walk because
// reductions change which names are visible where.
package scope

import (
	"sort"
	"strconv"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/types"
)

// EntryKind tells what declared a name.
type EntryKind uint8

const (
	EntryVariable EntryKind = iota
	EntryParam
	EntryInterfaceBlock
)

// Entry is a name visible in a scope together with the declaration that
// introduced it. Exactly one of the declaration fields is set, according
// to Kind.
type Entry struct {
	Name string
	Kind EntryKind
	Type types.Type

	// EntryVariable
	Decl *ast.VariablesDecl
	Info *ast.VarDeclInfo

	// EntryParam
	Param *ast.ParamDecl

	// EntryInterfaceBlock
	Block *ast.InterfaceBlock

	// Scope is the scope the entry was added to.
	Scope *Scope
}

// TypeSpec returns the declared base type of the entry, or nil for
// interface block entries.
func (e *Entry) TypeSpec() *ast.TypeSpec {
	switch e.Kind {
	case EntryVariable:
		return e.Decl.Type
	case EntryParam:
		return e.Param.Type
	}
	return nil
}

// HasQualifier reports whether the declaring type carries qualifier q. For
// interface block entries the block's own qualifiers are checked.
func (e *Entry) HasQualifier(q string) bool {
	if e.Kind == EntryInterfaceBlock {
		for _, bq := range e.Block.Qualifiers {
			if bq == q {
				return true
			}
		}
		return false
	}
	ts := e.TypeSpec()
	return ts != nil && ts.HasQualifier(q)
}

// Scope maps names to entries and struct names to definitions. The global
// scope has no parent.
type Scope struct {
	parent  *Scope
	vars    map[string]*Entry
	structs map[string]*types.Struct
	defs    map[string]*ast.StructDef
}

// New returns an empty global scope.
func New() *Scope {
	return &Scope{
		vars:    make(map[string]*Entry),
		structs: make(map[string]*types.Struct),
		defs:    make(map[string]*ast.StructDef),
	}
}

// NewChild returns an empty scope nested in s.
func (s *Scope) NewChild() *Scope {
	c := New()
	c.parent = s
	return c
}

// Parent returns the enclosing scope, or nil for the global scope.
func (s *Scope) Parent() *Scope { return s.parent }

// IsGlobal reports whether s is the global scope.
func (s *Scope) IsGlobal() bool { return s.parent == nil }

// Add records entry e in s. A second declaration of the same name in one
// scope replaces the first; the parser does not reject redeclarations and
// the reducer only needs the most recent one.
func (s *Scope) Add(e *Entry) {
	e.Scope = s
	s.vars[e.Name] = e
}

// AddStruct records a named struct definition.
func (s *Scope) AddStruct(def *ast.StructDef) *types.Struct {
	st := &types.Struct{Name: def.Name}
	for _, f := range def.Fields {
		st.Fields = append(st.Fields, types.Field{
			Name: f.Name,
			Type: s.Resolve(f.Type, f.Array),
		})
	}
	if def.Name != "" {
		s.structs[def.Name] = st
		s.defs[def.Name] = def
	}
	return st
}

// Lookup finds the entry for name in s or an enclosing scope.
func (s *Scope) Lookup(name string) *Entry {
	for cur := s; cur != nil; cur = cur.parent {
		if e, ok := cur.vars[name]; ok {
			return e
		}
	}
	return nil
}

// LookupType returns the type of name, or nil.
func (s *Scope) LookupType(name string) types.Type {
	if e := s.Lookup(name); e != nil {
		return e.Type
	}
	return nil
}

// LookupStruct returns the struct type with the given name, or nil.
func (s *Scope) LookupStruct(name string) *types.Struct {
	for cur := s; cur != nil; cur = cur.parent {
		if st, ok := cur.structs[name]; ok {
			return st
		}
	}
	return nil
}

// LookupStructDef returns the definition of the named struct, or nil.
func (s *Scope) LookupStructDef(name string) *ast.StructDef {
	for cur := s; cur != nil; cur = cur.parent {
		if d, ok := cur.defs[name]; ok {
			return d
		}
	}
	return nil
}

// Declares reports whether name is declared directly in s.
func (s *Scope) Declares(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// IsShadowed reports whether name is declared in more than one of s and
// its enclosing scopes.
func (s *Scope) IsShadowed(name string) bool {
	seen := false
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			if seen {
				return true
			}
			seen = true
		}
	}
	return false
}

// Keys returns the names declared directly in s, sorted.
func (s *Scope) Keys() []string {
	out := make([]string, 0, len(s.vars))
	for k := range s.vars {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Names returns every name visible from s, sorted.
func (s *Scope) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for cur := s; cur != nil; cur = cur.parent {
		for k := range cur.vars {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Remove deletes the innermost entry for name and returns it, or nil.
func (s *Scope) Remove(name string) *Entry {
	for cur := s; cur != nil; cur = cur.parent {
		if e, ok := cur.vars[name]; ok {
			delete(cur.vars, name)
			return e
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Type Resolution
// ----------------------------------------------------------------------------

// Resolve returns the type denoted by a type specifier and optional array
// suffix. Struct names are resolved in s. Unknown names yield nil.
func (s *Scope) Resolve(ts *ast.TypeSpec, arr *ast.ArrayInfo) types.Type {
	if ts == nil {
		return nil
	}
	var base types.Type
	switch {
	case ts.Struct != nil:
		if st := s.LookupStruct(ts.Struct.Name); st != nil && ts.Struct.Name != "" {
			base = st
		} else {
			// Anonymous or not yet registered
			base = s.anonymousStruct(ts.Struct)
		}
	default:
		if t := types.Lookup(ts.Name); t != nil {
			base = t
		} else if st := s.LookupStruct(ts.Name); st != nil {
			base = st
		}
	}
	if base == nil || arr == nil {
		return base
	}
	return &types.Array{Element: base, Size: ArraySize(arr)}
}

func (s *Scope) anonymousStruct(def *ast.StructDef) *types.Struct {
	st := &types.Struct{Name: def.Name}
	for _, f := range def.Fields {
		st.Fields = append(st.Fields, types.Field{Name: f.Name, Type: s.Resolve(f.Type, f.Array)})
	}
	return st
}

// ArraySize returns the literal size of an array suffix, or -1 when the
// size is absent or not an integer literal.
func ArraySize(arr *ast.ArrayInfo) int {
	if arr == nil {
		return -1
	}
	switch lit := arr.Size.(type) {
	case *ast.IntLit:
		if n, err := strconv.ParseInt(lit.Value, 0, 32); err == nil {
			return int(n)
		}
	case *ast.UintLit:
		if n, err := strconv.ParseUint(lit.Value, 0, 32); err == nil {
			return int(n)
		}
	}
	return -1
}
