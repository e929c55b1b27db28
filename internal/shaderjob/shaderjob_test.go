package shaderjob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/parser"
	"github.com/HugoDaniel/glslreduce/internal/printer"
)

const fragSource = `#version 310 es
precision highp float;
uniform vec2 resolution;
layout(location = 0) out vec4 color;
void main() {
    color = vec4(resolution, 0.0, 1.0);
}
`

const uniformsJSON = `{
  "resolution": {"func": "glUniform2f", "args": [256.0, 256.0]},
  "injectionSwitch": {"func": "glUniform2f", "args": [0.0, 1.0], "binding": 1}
}`

func writeJob(t *testing.T, dir string) string {
	t.Helper()
	prefix := filepath.Join(dir, "shader")
	require.NoError(t, os.WriteFile(prefix+".frag", []byte(fragSource), 0o644))
	require.NoError(t, os.WriteFile(prefix+".json", []byte(uniformsJSON), 0o644))
	return prefix + ".json"
}

func TestReadWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeJob(t, dir)

	job, err := Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, job.Stages, 1)
	assert.Equal(t, Fragment, job.Stages[0].Kind)
	assert.Nil(t, job.Stage(Vertex))
	assert.Equal(t, []string{"injectionSwitch", "resolution"}, job.Uniforms.Names())
	require.NotNil(t, job.Uniforms["injectionSwitch"].Binding)
	assert.Equal(t, 1, *job.Uniforms["injectionSwitch"].Binding)

	out := filepath.Join(dir, "out", "reduced.json")
	require.NoError(t, Write(job, out))

	again, err := Read(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, job.Hash(), again.Hash())
	assert.Equal(t, printer.String(job.Stages[0].TU), printer.String(again.Stages[0].TU))
}

func TestReadMissingStages(t *testing.T) {
	_, err := Read(context.Background(), filepath.Join(t.TempDir(), "nothing.json"))
	require.ErrorIs(t, err, ErrNoStages)
}

func TestReadParseError(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(prefix+".vert", []byte("void main() { int x = ; }"), 0o644))
	_, err := Read(context.Background(), prefix+".json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.vert")
	var serr *parser.SourceError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, err.Error(), "void main() { int x = ; }")
}

func TestCloneIsDeep(t *testing.T) {
	job, err := FromSource(Fragment, fragSource)
	require.NoError(t, err)
	job.Uniforms["resolution"] = &Uniform{Func: "glUniform2f", Args: []json.Number{"1.0", "2.0"}}

	before := job.Hash()
	c := job.Clone()
	main := c.Stages[0].TU.MainFunction()
	main.Body.Stmts = nil
	c.Uniforms["resolution"].Args[0] = "7.0"
	delete(c.Uniforms, "resolution")

	assert.Equal(t, before, job.Hash())
	assert.NotEqual(t, before, c.Hash())
	assert.NotEmpty(t, job.Stages[0].TU.MainFunction().Body.Stmts)
}

func TestNodeCount(t *testing.T) {
	job, err := FromSource(Vertex, "void main() { }")
	require.NoError(t, err)
	assert.Equal(t, ast.CountNodes(job.Stages[0].TU), job.NodeCount())
}

func TestUniformType(t *testing.T) {
	tests := []struct {
		fn     string
		expect string
	}{
		{"glUniform1f", "float"},
		{"glUniform3fv", "vec3"},
		{"glUniform2i", "ivec2"},
		{"glUniform1ui", "uint"},
		{"glUniform4uiv", "uvec4"},
		{"glUniformMatrix3fv", "mat3"},
		{"glUniformMatrix2x4fv", "mat2x4"},
		{"sampler2D", ""},
		{"glUniform5f", ""},
	}
	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			typ := (&Uniform{Func: tt.fn}).Type()
			if tt.expect == "" {
				assert.Nil(t, typ)
				return
			}
			require.NotNil(t, typ)
			assert.Equal(t, tt.expect, typ.String())
		})
	}
}

func TestUniformsValidate(t *testing.T) {
	count := 2
	u := Uniforms{
		"a": {Func: "glUniform2f", Args: []json.Number{"1.0", "2.0"}},
		"b": {Func: "glUniform1i", Args: []json.Number{"1", "2"}, Count: &count},
		"t": {Func: "sampler2D"},
	}
	require.NoError(t, u.Validate())

	u["c"] = &Uniform{Func: "glUniform3f", Args: []json.Number{"1.0"}}
	require.Error(t, u.Validate())
}

func TestStageKindOf(t *testing.T) {
	k, ok := StageKindOf("x/y/shader.comp")
	require.True(t, ok)
	assert.Equal(t, Compute, k)
	_, ok = StageKindOf("shader.glsl")
	assert.False(t, ok)
}
