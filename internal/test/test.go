// Package test provides testing utilities shared by the reducer packages.
//
// This follows esbuild's testing patterns with helper functions for
// parsing fixtures and comparing printed shaders with a diff.
package test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/parser"
	"github.com/HugoDaniel/glslreduce/internal/printer"
)

// MustParse parses a shader and fails the test on any parse error.
func MustParse(t testing.TB, source string) *ast.TranslationUnit {
	t.Helper()
	tu, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse error: %v\nsource:\n%s", err, source)
	}
	return tu
}

// Canonical parses and reprints source so that expected outputs can be
// written in any layout.
func Canonical(t testing.TB, source string) string {
	t.Helper()
	return printer.String(MustParse(t, source))
}

// AssertPrinted checks that tu prints the same as the canonical form of
// expected, showing a diff if not.
func AssertPrinted(t testing.TB, tu *ast.TranslationUnit, expected string) {
	t.Helper()
	AssertEqualWithDiff(t, printer.String(tu), Canonical(t, expected))
}

// AssertEqual checks if two values are equal and reports a test error if not.
func AssertEqual[T comparable](t testing.TB, actual, expected T) {
	t.Helper()
	if actual != expected {
		t.Errorf("\nexpected: %v\nactual:   %v", expected, actual)
	}
}

// AssertEqualWithDiff checks if two strings are equal and shows a diff if not.
func AssertEqualWithDiff(t testing.TB, actual, expected string) {
	t.Helper()
	if diff := Diff(expected, actual); diff != "" {
		t.Errorf("output mismatch (-expected +actual):\n%s", diff)
	}
}

// Diff returns a line diff between two strings, or "" when they match.
func Diff(expected, actual string) string {
	return cmp.Diff(strings.Split(expected, "\n"), strings.Split(actual, "\n"))
}

// FindIdent returns the first identifier called name in the tree, or nil.
func FindIdent(root ast.Node, name string) *ast.Ident {
	var found *ast.Ident
	ast.Inspect(root, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		if id, ok := n.(*ast.Ident); ok && id.Name == name {
			found = id
		}
		return true
	})
	return found
}

// FindFunction returns the definition of the named function, or nil.
func FindFunction(tu *ast.TranslationUnit, name string) *ast.FunctionDef {
	for _, d := range tu.Decls {
		if fd, ok := d.(*ast.FunctionDef); ok && fd.Proto.Name == name {
			return fd
		}
	}
	return nil
}
