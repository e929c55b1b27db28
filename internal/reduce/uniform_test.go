package reduce

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/test"
)

func uniformJob(t *testing.T) *shaderjob.Job {
	job := parseJob(t, `
uniform vec2 u;
uniform bool flag;
void main() {
  vec2 x = u;
  bool b = flag;
}
`)
	job.Uniforms = shaderjob.Uniforms{
		"u":      {Func: "glUniform2f", Args: []json.Number{"1", "2.5"}},
		"flag":   {Func: "glUniform1i", Args: []json.Number{"1"}},
		"unused": {Func: "glUniform1f", Args: []json.Number{"0.0"}},
	}
	return job
}

func TestInlineUniform(t *testing.T) {
	assert.Empty(t, findKind(t, KindInlineUniform, uniformJob(t), NewContext(false, 0)))

	job := uniformJob(t)
	ops := findKind(t, KindInlineUniform, job, NewContext(true, 0))
	require.Len(t, ops, 2)
	_, err := ApplyAll(ops)
	require.NoError(t, err)
	test.AssertPrinted(t, tuOf(job), `
uniform vec2 u;
uniform bool flag;
void main() {
  vec2 x = vec2(1.0, 2.5);
  bool b = true;
}
`)
}

func TestInlineUniformSkipsMismatchedMetadata(t *testing.T) {
	job := uniformJob(t)
	job.Uniforms["u"].Args = []json.Number{"1"}
	ops := findKind(t, KindInlineUniform, job, NewContext(true, 0))
	assert.Equal(t, []string{"replace flag with true"}, descriptions(ops))
}

func TestRedundantUniformMetadata(t *testing.T) {
	job := uniformJob(t)
	ops := findKind(t, KindRedundantUniformMetadata, job, NewContext(false, 0))
	require.Len(t, ops, 1)
	assert.Equal(t, "remove metadata of uniform unused", ops[0].String())
	require.NoError(t, ops[0].Apply())
	assert.Equal(t, []string{"flag", "u"}, job.Uniforms.Names())
	assert.False(t, ops[0].Precondition())
}

func TestLiteralToUniformOffersNothing(t *testing.T) {
	assert.Empty(t, findKind(t, KindLiteralToUniform, uniformJob(t), NewContext(true, 0)))
}
