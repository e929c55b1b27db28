package reduce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/glslreduce/internal/test"
)

func TestUnusedParam(t *testing.T) {
	const source = `
float f(float a, float b) {
  return a;
}
void main() {
  float x = f(1.0, 2.0);
}
`
	assert.Empty(t, findKind(t, KindUnusedParam, parseJob(t, source), NewContext(false, 0)))

	job := parseJob(t, source)
	ops := findKind(t, KindUnusedParam, job, NewContext(true, 0))
	require.Len(t, ops, 1)
	assert.Equal(t, `remove parameter "b" of f`, ops[0].String())
	require.NoError(t, ops[0].Apply())
	test.AssertPrinted(t, tuOf(job), `
float f(float a) {
  return a;
}
void main() {
  float x = f(1.0);
}
`)
}

func TestInlineFunction(t *testing.T) {
	const source = `
float twice(float v) {
  return v * 2.0;
}
void main() {
  float x = twice(3.0);
}
`
	assert.Empty(t, findKind(t, KindInlineFunction, parseJob(t, source), NewContext(false, 0)))

	job := parseJob(t, source)
	ops := findKind(t, KindInlineFunction, job, NewContext(true, 0))
	require.Len(t, ops, 1)
	assert.Equal(t, "inline call to twice", ops[0].String())
	require.NoError(t, ops[0].Apply())
	test.AssertPrinted(t, tuOf(job), `
float twice(float v) {
  return v * 2.0;
}
void main() {
  float twice_inline_return_value_0;
  {
    float v = 3.0;
    twice_inline_return_value_0 = v * 2.0;
  }
  float x = twice_inline_return_value_0;
}
`)
}

func TestInlineFunctionSkipsConditionalCalls(t *testing.T) {
	job := parseJob(t, `
float twice(float v) {
  return v * 2.0;
}
void main() {
  bool b = true;
  float x = b ? twice(3.0) : 0.0;
}
`)
	assert.Empty(t, findKind(t, KindInlineFunction, job, NewContext(true, 0)))
}
