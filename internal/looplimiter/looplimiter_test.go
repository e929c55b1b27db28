package looplimiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/test"
)

const nestedLimiters = `
void main() {
  int GLF_live0looplimiter1 = 0;
  while (true) {
    if (GLF_live0looplimiter1 >= 4) {
      for (int i = 0; i < 10; i++) {
      }
      break;
    }
    for (int j = 0; j < 1; j++) {
      GLF_live0looplimiter1++;
    }
    int GLF_live0looplimiter2 = 0;
    while (true) {
      if (GLF_live0looplimiter2 >= 3) {
        break;
      }
      GLF_live0looplimiter2++;
    }
  }
}`

func loops(tu *ast.TranslationUnit) []ast.Stmt {
	var out []ast.Stmt
	ast.Inspect(tu, func(n ast.Node) bool {
		if ast.IsLoop(n) {
			out = append(out, n.(ast.Stmt))
		}
		return true
	})
	return out
}

func TestDoesNotImpactLoopLimiting(t *testing.T) {
	tu := test.MustParse(t, nestedLimiters)
	c := New(tu)
	ls := loops(tu)
	require.Len(t, ls, 4)

	outer, inner, incrementer, second := ls[0], ls[1], ls[2], ls[3]
	assert.True(t, c.DoesNotImpactLoopLimiting(outer), "outermost loop seeing its limiter")
	assert.True(t, c.DoesNotImpactLoopLimiting(inner), "loop without limiter references")
	assert.False(t, c.DoesNotImpactLoopLimiting(incrementer), "loop incrementing an outer limiter")
	assert.True(t, c.DoesNotImpactLoopLimiting(second), "loop owning its limiter")
}

func TestReferencesNonRedundantLoopLimiter(t *testing.T) {
	tu := test.MustParse(t, nestedLimiters)
	c := New(tu)

	// Find the scope at the increment of the first limiter.
	var stmt ast.Node
	var sc *scope.Scope
	scope.Walk(tu, scope.Funcs{OnEnter: func(w *scope.Walker, n ast.Node) bool {
		if es, ok := n.(*ast.ExprStmt); ok && sc == nil {
			if u, ok := es.X.(*ast.UnaryExpr); ok {
				if id, ok := u.X.(*ast.Ident); ok && id.Name == "GLF_live0looplimiter1" {
					stmt, sc = es, w.Scope()
				}
			}
		}
		return true
	}})
	require.NotNil(t, sc)
	assert.True(t, c.ReferencesNonRedundantLoopLimiter(stmt, sc))

	// The second limiter is only used in the loop that declares it.
	main := test.FindFunction(tu, "main")
	assert.False(t, c.ReferencesNonRedundantLoopLimiter(main.Body, scope.New()))
}

func TestFuzzedReferencesAreIgnored(t *testing.T) {
	tu := test.MustParse(t, `
void main() {
  int GLF_live1looplimiter0 = 0;
  for (int i = 0; i < 2; i++) {
    int x = _GLF_FUZZED(GLF_live1looplimiter0);
  }
}`)
	c := New(tu)
	ls := loops(tu)
	require.Len(t, ls, 1)
	assert.True(t, c.DoesNotImpactLoopLimiting(ls[0]))
}
