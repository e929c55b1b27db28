package reduce

import (
	"math/rand"
	"strings"

	"github.com/HugoDaniel/glslreduce/internal/ast"
)

// Context is the per-run configuration every finder consults. It is not
// modified once a run has started.
type Context struct {
	// ReduceEverywhere allows edits that change what the shader computes.
	// When false only injected code is reduced.
	ReduceEverywhere bool

	// Version is the text after #version, such as "310 es". Empty when the
	// shader has no #version line.
	Version string

	Rand *rand.Rand
	IDs  *IDGenerator

	// Enabled selects the finders that run.
	Enabled KindSet

	// Literals decides how constant folding recognizes zero and one.
	Literals LiteralPolicy

	// Validator, when set, wraps every opportunity so that an apply that
	// makes the job invalid is reported as an InvalidReductionError.
	Validator Validator
}

// NewContext returns a context with every finder enabled.
func NewContext(reduceEverywhere bool, seed int64) *Context {
	return &Context{
		ReduceEverywhere: reduceEverywhere,
		Rand:             rand.New(rand.NewSource(seed)),
		IDs:              &IDGenerator{},
		Enabled:          AllKindSet,
		Literals:         LiteralText,
	}
}

// VersionOf returns the #version text of tu.
func VersionOf(tu *ast.TranslationUnit) string {
	for _, d := range tu.Decls {
		if pp, ok := d.(*ast.PPDirective); ok {
			if rest, ok := strings.CutPrefix(strings.TrimSpace(pp.Text), "#version"); ok {
				return strings.TrimSpace(rest)
			}
		}
	}
	return ""
}

// IsES reports whether the context targets an OpenGL ES shading language.
func (c *Context) IsES() bool {
	return c.Version == "" || c.Version == "100" || strings.HasSuffix(c.Version, " es")
}

// IDGenerator hands out fresh ids for generated names.
type IDGenerator struct {
	next int
}

// Next returns a fresh id.
func (g *IDGenerator) Next() int {
	id := g.next
	g.next++
	return id
}

// LiteralPolicy decides when a literal counts as zero or one for constant
// folding.
type LiteralPolicy uint8

const (
	// LiteralText accepts only the spellings 0, 0.0, 0. (and 1, 1.0, 1.)
	// with an optional u suffix for unsigned literals.
	LiteralText LiteralPolicy = iota

	// LiteralNumeric accepts any literal whose parsed value is zero or one,
	// such as 0.000 or 1e0.
	LiteralNumeric
)

func (p LiteralPolicy) String() string {
	if p == LiteralNumeric {
		return "numeric"
	}
	return "text"
}

// ParseLiteralPolicy parses "text" or "numeric".
func ParseLiteralPolicy(s string) (LiteralPolicy, bool) {
	switch s {
	case "", "text":
		return LiteralText, true
	case "numeric":
		return LiteralNumeric, true
	}
	return 0, false
}
