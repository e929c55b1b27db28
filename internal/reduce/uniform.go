package reduce

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/types"
)

// ----------------------------------------------------------------------------
// Inline Uniform
// ----------------------------------------------------------------------------

// uniformLiteral returns the constant a uniform of type t is set to by
// args, or nil when the values do not fit the type.
func uniformLiteral(t types.Type, args []json.Number) ast.Expr {
	elem := types.ElementScalar(t)
	if elem == nil || len(args) != types.ComponentCount(t) {
		return nil
	}
	lits := make([]ast.Expr, len(args))
	for i, a := range args {
		if lits[i] = scalarLiteral(elem, a); lits[i] == nil {
			return nil
		}
	}
	if _, ok := t.(*types.Scalar); ok {
		return lits[0]
	}
	return &ast.ConstructorExpr{Type: t.String(), Args: lits}
}

func scalarLiteral(elem *types.Scalar, n json.Number) ast.Expr {
	s := n.String()
	switch elem.Kind {
	case types.ScalarBool:
		// Bools are set through the integer entry points.
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &ast.BoolLit{Value: v != 0}
	case types.ScalarInt:
		if _, err := strconv.ParseInt(s, 10, 32); err != nil {
			return nil
		}
		return &ast.IntLit{Value: s}
	case types.ScalarUint:
		if _, err := strconv.ParseUint(s, 10, 32); err != nil {
			return nil
		}
		return &ast.UintLit{Value: s}
	case types.ScalarFloat:
		if _, err := strconv.ParseFloat(s, 32); err != nil {
			return nil
		}
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return &ast.FloatLit{Value: s}
	}
	return nil
}

type inlineUniformFinder struct {
	*walk
}

func findInlineUniform(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &inlineUniformFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *inlineUniformFinder) Leave(w *scope.Walker, n ast.Node) {
	id, ok := n.(*ast.Ident)
	if !ok || inArraySize(w) {
		return
	}
	if !f.ctx.ReduceEverywhere && !f.dead(w) && !injection.IsLiveInjected(id.Name) {
		return
	}
	e := w.Scope().Lookup(id.Name)
	if e == nil || e.Type == nil || !e.HasQualifier("uniform") {
		return
	}
	u, ok := f.job.Uniforms[id.Name]
	if !ok || u.Count != nil {
		return
	}
	lit := uniformLiteral(e.Type, u.Args)
	if lit == nil {
		return
	}
	f.add(&exprReplacement{
		base:   base{w.Depth()},
		kind:   KindInlineUniform,
		parent: w.Parent(),
		old:    id,
		repl:   lit,
	})
}

// ----------------------------------------------------------------------------
// Redundant Uniform Metadata
// ----------------------------------------------------------------------------

// metadataRemoval deletes the pipeline entry of a uniform no stage
// declares or mentions.
type metadataRemoval struct {
	base
	job  *shaderjob.Job
	name string
}

func (o *metadataRemoval) Kind() Kind { return KindRedundantUniformMetadata }

func (o *metadataRemoval) String() string {
	return "remove metadata of uniform " + o.name
}

func (o *metadataRemoval) Precondition() bool {
	_, ok := o.job.Uniforms[o.name]
	return ok
}

func (o *metadataRemoval) Apply() error {
	if !o.Precondition() {
		return invariant(KindRedundantUniformMetadata, "no metadata for uniform %s", o.name)
	}
	delete(o.job.Uniforms, o.name)
	return nil
}

// findRedundantUniformMetadata looks at every stage at once: a uniform is
// redundant only if no stage uses it.
func findRedundantUniformMetadata(job *shaderjob.Job, ctx *Context) []Opportunity {
	used := make(map[string]bool)
	for _, tu := range job.TranslationUnits() {
		ast.Inspect(tu, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.VarDeclInfo:
				used[n.Name] = true
			case *ast.Ident:
				used[n.Name] = true
			case *ast.InterfaceBlock:
				used[n.Name] = true
				for _, name := range interfaceBlockNames(n) {
					used[name] = true
				}
				for _, m := range n.Members {
					used[m.Name] = true
				}
			}
			return true
		})
	}
	var ops []Opportunity
	for _, name := range job.Uniforms.Names() {
		if !used[name] {
			ops = append(ops, &metadataRemoval{job: job, name: name})
		}
	}
	return ops
}

// ----------------------------------------------------------------------------
// Literal to Uniform
// ----------------------------------------------------------------------------

// findLiteralToUniform offers nothing. Moving integer literals into a
// uniform array has no settled behavior, so the kind exists only to be
// named in configuration.
func findLiteralToUniform(*shaderjob.Job, *ast.TranslationUnit, *Context) []Opportunity {
	return nil
}
