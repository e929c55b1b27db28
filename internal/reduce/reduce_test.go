package reduce

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/test"
)

func parseJob(t *testing.T, source string) *shaderjob.Job {
	t.Helper()
	job, err := shaderjob.FromSource(shaderjob.Fragment, source)
	require.NoError(t, err)
	return job
}

func tuOf(job *shaderjob.Job) *ast.TranslationUnit {
	return job.Stages[0].TU
}

func findKind(t *testing.T, k Kind, job *shaderjob.Job, ctx *Context) []Opportunity {
	t.Helper()
	f, ok := FinderFor(k)
	require.True(t, ok, "no finder for %s", k)
	return f.Find(job, ctx)
}

func descriptions(ops []Opportunity) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.String()
	}
	return out
}

func TestStmtRemovesDeadCodeInjectionInConstrainedMode(t *testing.T) {
	job := parseJob(t, `
void main() {
  int x = 1;
  if (_GLF_DEAD(false)) {
    x = 9;
  }
  x = 3;
}
`)
	ctx := NewContext(false, 0)
	body := test.FindFunction(tuOf(job), "main").Body
	deadIf, last := body.Stmts[1], body.Stmts[2]

	var removal *stmtRemoval
	for _, op := range findKind(t, KindStmt, job, ctx) {
		r := op.(*stmtRemoval)
		assert.NotSame(t, last, r.stmt, "live assignment offered for removal")
		if r.stmt == deadIf {
			removal = r
		}
	}
	require.NotNil(t, removal, "dead-code injection not offered")
	require.NoError(t, removal.Apply())
	test.AssertPrinted(t, tuOf(job), `
void main() {
  int x = 1;
  x = 3;
}
`)
}

func TestLoopMerge(t *testing.T) {
	job := parseJob(t, `
void main() {
  int x;
  for (int GLF_SPLIT_0_i = 0; GLF_SPLIT_0_i < 5; GLF_SPLIT_0_i++) {
    x = 1;
  }
  for (int GLF_SPLIT_0_i = 5; GLF_SPLIT_0_i < 10; GLF_SPLIT_0_i++) {
    x = 2;
  }
}
`)
	ops := findKind(t, KindLoopMerge, job, NewContext(false, 0))
	require.Len(t, ops, 1)
	require.True(t, ops[0].Precondition())
	require.NoError(t, ops[0].Apply())
	test.AssertPrinted(t, tuOf(job), `
void main() {
  int x;
  for (int i = 0; i < 10; i++) {
    x = 1;
    x = 2;
  }
}
`)
}

func TestLoopMergeNeedsContiguousRanges(t *testing.T) {
	job := parseJob(t, `
void main() {
  int x;
  for (int GLF_SPLIT_0_i = 0; GLF_SPLIT_0_i < 5; GLF_SPLIT_0_i++) {
    x = 1;
  }
  for (int GLF_SPLIT_0_i = 6; GLF_SPLIT_0_i < 10; GLF_SPLIT_0_i++) {
    x = 2;
  }
}
`)
	assert.Empty(t, findKind(t, KindLoopMerge, job, NewContext(true, 0)))
}

func TestCompatibleIsSymmetric(t *testing.T) {
	for _, a := range AllKinds() {
		for _, b := range AllKinds() {
			assert.Equal(t, Compatible(a, b), Compatible(b, a), "%s vs %s", a, b)
		}
	}
	assert.False(t, Compatible(KindVectorization, KindStmt))
	assert.False(t, Compatible(KindLoopMerge, KindStmt))
	assert.True(t, Compatible(KindStmt, KindFunction))
}

const richShader = `
struct S {
  float a;
  float b;
};
float unused(float v) {
  return v * 2.0;
}
void main() {
  S s = S(1.0, 2.0);
  vec4 v = vec4(s.a);
  float x = v.xyz.x + 1.0;
  if (_GLF_DEAD(false)) {
    x = 9.0;
  }
  x = x * 3.0;
}
`

func TestFindingIsIdempotent(t *testing.T) {
	for _, everywhere := range []bool{false, true} {
		job := parseJob(t, richShader)
		ctx := NewContext(everywhere, 0)
		for _, f := range Finders() {
			first := descriptions(f.Find(job, ctx))
			second := descriptions(f.Find(job, ctx))
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("%s (everywhere=%v) found different opportunities (-first +second):\n%s", f.Kind, everywhere, diff)
			}
		}
	}
}

func TestShrinkingKindsDoNotGrowTheTree(t *testing.T) {
	kinds := []Kind{
		KindStmt,
		KindVariableDecl,
		KindFunction,
		KindCompoundExprToSubExpr,
		KindRemoveStructField,
		KindRemoveSwizzle,
		KindUnusedStruct,
	}
	for _, k := range kinds {
		t.Run(k.String(), func(t *testing.T) {
			n := len(findKind(t, k, parseJob(t, richShader), NewContext(true, 0)))
			for i := 0; i < n; i++ {
				job := parseJob(t, richShader)
				ops := findKind(t, k, job, NewContext(true, 0))
				require.Len(t, ops, n)
				before := job.NodeCount()
				require.True(t, ops[i].Precondition())
				require.NoError(t, ops[i].Apply(), ops[i].String())
				assert.LessOrEqual(t, job.NodeCount(), before, ops[i].String())
			}
		})
	}
}

func TestApplyAllSkipsStaleOpportunities(t *testing.T) {
	job := parseJob(t, `
void main() {
  if (_GLF_DEAD(false)) {
    int a;
  }
}
`)
	ops := findKind(t, KindStmt, job, NewContext(false, 0))
	require.NotEmpty(t, ops)
	SortByDepth(ops)
	applied, err := ApplyAll(ops)
	require.NoError(t, err)
	assert.Positive(t, applied)
	applied, err = ApplyAll(ops)
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestCheckValidReportsInvalidJob(t *testing.T) {
	job := parseJob(t, `
void main() {
  if (_GLF_DEAD(false)) {
    return;
  }
}
`)
	ops := findKind(t, KindStmt, job, NewContext(false, 0))
	require.NotEmpty(t, ops)
	boom := errors.New("boom")
	op := CheckValid(ops[0], job, ValidatorFunc(func(*shaderjob.Job) error { return boom }))

	err := op.Apply()
	var invalid *InvalidReductionError
	require.ErrorAs(t, err, &invalid)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, KindStmt, invalid.Kind)
	assert.Greater(t, invalid.Before.NodeCount(), invalid.After.NodeCount())
	assert.Same(t, ops[0], Unwrap(op))
}

func TestKindSetRoundTrip(t *testing.T) {
	for _, k := range AllKinds() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
		assert.True(t, AllKindSet.Has(k))
	}
	_, err := ParseKind("no-such-kind")
	assert.Error(t, err)
}

func TestStmtKeepsLoopLimitedByOuterLimiter(t *testing.T) {
	const source = `
void main() {
  int GLF_live0looplimiter0 = 0;
  for (int GLF_live0i = 0; GLF_live0i < 4; GLF_live0i++) {
    for (int GLF_live0j = 0; GLF_live0j < 4; GLF_live0j++) {
      if (GLF_live0looplimiter0 >= 8) {
        break;
      }
      GLF_live0looplimiter0++;
    }
  }
}
`
	removed := func(job *shaderjob.Job, ctx *Context) map[ast.Stmt]bool {
		out := make(map[ast.Stmt]bool)
		for _, op := range findKind(t, KindStmt, job, ctx) {
			out[op.(*stmtRemoval).stmt] = true
		}
		return out
	}

	job := parseJob(t, source)
	outer := test.FindFunction(tuOf(job), "main").Body.Stmts[1].(*ast.ForStmt)
	inner := outer.Body.(*ast.BlockStmt).Stmts[0]

	constrained := removed(job, NewContext(false, 0))
	assert.True(t, constrained[outer], "outer loop sees the limiter it is declared beside")
	assert.False(t, constrained[inner], "inner loop increments a limiter declared outside it")

	everywhere := removed(job, NewContext(true, 0))
	assert.True(t, everywhere[inner])
}
