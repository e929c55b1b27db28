package reduce

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/glslreduce/internal/test"
)

const foldShader = `
uniform float u;
uniform mat2 m;
void main() {
  float a = u + 0.0;
  float b = 0.0 - u;
  mat2 c = m * mat2(1.0);
  int d = 2 + 3;
  int e = 2147483647 + 1;
  float g = u * 1e0;
  float h = u + 0.000;
}
`

func TestFoldConstant(t *testing.T) {
	spelled := []string{
		"replace u + 0.0 with u",
		"replace 0.0 - u with (-u)",
		"replace m * mat2(1.0) with m",
		"replace 2 + 3 with 5",
	}
	tests := []struct {
		policy LiteralPolicy
		want   []string
	}{
		{LiteralText, spelled},
		{LiteralNumeric, append(slices.Clone(spelled),
			"replace u * 1e0 with u",
			"replace u + 0.000 with u",
		)},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			ctx := NewContext(false, 0)
			ctx.Literals = tt.policy
			ops := findKind(t, KindFoldConstant, parseJob(t, foldShader), ctx)
			assert.ElementsMatch(t, tt.want, descriptions(ops))
		})
	}
}

func TestFoldConstantNegatesSubtrahend(t *testing.T) {
	job := parseJob(t, `
uniform float u;
void main() {
  float b = 0.0 - u;
}
`)
	ops := findKind(t, KindFoldConstant, job, NewContext(false, 0))
	require.Len(t, ops, 1)
	require.NoError(t, ops[0].Apply())
	test.AssertPrinted(t, tuOf(job), `
uniform float u;
void main() {
  float b = (-u);
}
`)
}

func TestFoldConstantFloatLiterals(t *testing.T) {
	job := parseJob(t, `
void main() {
  float a = 1.5 * 2.0;
  vec2 v = 2.0 * vec2(1.0, 3.0);
}
`)
	ops := findKind(t, KindFoldConstant, job, NewContext(false, 0))
	assert.Contains(t, descriptions(ops), "replace 1.5 * 2.0 with 3.0")
	assert.Contains(t, descriptions(ops), "replace 2.0 * vec2(1.0, 3.0) with vec2(2.0, 6.0)")
}

func TestParseLiteralPolicy(t *testing.T) {
	for _, p := range []LiteralPolicy{LiteralText, LiteralNumeric} {
		got, ok := ParseLiteralPolicy(p.String())
		require.True(t, ok)
		assert.Equal(t, p, got)
	}
	_, ok := ParseLiteralPolicy("bits")
	assert.False(t, ok)
}

func TestIdentityMutation(t *testing.T) {
	job := parseJob(t, `
void main() {
  float x = 1.0;
  float y = _GLF_IDENTITY(x, x * 1.0);
  float z = _GLF_ZERO(0.0, x - x) + y;
}
`)
	ops := findKind(t, KindIdentityMutation, job, NewContext(false, 0))
	assert.Equal(t, []string{
		"replace _GLF_IDENTITY(x, x * 1.0) with (x)",
		"replace _GLF_ZERO(0.0, x - x) with (0.0)",
	}, descriptions(ops))

	for _, op := range ops {
		require.NoError(t, op.Apply(), op.String())
	}
	test.AssertPrinted(t, tuOf(job), `
void main() {
  float x = 1.0;
  float y = (x);
  float z = (0.0) + y;
}
`)
}

func TestExprToConstant(t *testing.T) {
	job := parseJob(t, `
void main() {
  float x = 1.0;
  float y = x * 2.0;
}
`)
	assert.Empty(t, findKind(t, KindExprToConstant, job, NewContext(false, 0)))

	ops := findKind(t, KindExprToConstant, job, NewContext(true, 0))
	assert.ElementsMatch(t, []string{
		"replace x with 1.0",
		"replace x * 2.0 with 1.0",
	}, descriptions(ops))
}
