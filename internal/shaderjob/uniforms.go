package shaderjob

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/HugoDaniel/glslreduce/internal/types"
)

// Uniform is the pipeline metadata of one uniform: the GL entry point used
// to set it and the values passed.
type Uniform struct {
	Func         string        `json:"func"`
	Args         []json.Number `json:"args"`
	Count        *int          `json:"count,omitempty"`
	Binding      *int          `json:"binding,omitempty"`
	PushConstant bool          `json:"push_constant,omitempty"`
}

// Uniforms maps uniform names to their metadata.
type Uniforms map[string]*Uniform

// Names returns the uniform names in sorted order.
func (u Uniforms) Names() []string {
	out := make([]string, 0, len(u))
	for name := range u {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy.
func (u Uniforms) Clone() Uniforms {
	out := make(Uniforms, len(u))
	for name, v := range u {
		c := *v
		c.Args = append([]json.Number(nil), v.Args...)
		if v.Count != nil {
			n := *v.Count
			c.Count = &n
		}
		if v.Binding != nil {
			n := *v.Binding
			c.Binding = &n
		}
		out[name] = &c
	}
	return out
}

// glUniform2f, glUniform4iv, glUniform1ui, glUniformMatrix3fv, glUniformMatrix2x4fv
var uniformFuncRe = regexp.MustCompile(`^glUniform(?:(Matrix)(\d)(?:x(\d))?|(\d))(f|i|ui)v?$`)

// Type returns the GLSL type the uniform's setter implies, or nil for
// entries such as samplers whose func is not a glUniform call.
func (u *Uniform) Type() types.Type {
	m := uniformFuncRe.FindStringSubmatch(u.Func)
	if m == nil {
		return nil
	}
	if m[1] == "Matrix" {
		if m[5] != "f" {
			return nil
		}
		cols, _ := strconv.Atoi(m[2])
		rows := cols
		if m[3] != "" {
			rows, _ = strconv.Atoi(m[3])
		}
		return &types.Matrix{Cols: cols, Rows: rows}
	}
	width, _ := strconv.Atoi(m[4])
	if width < 1 || width > 4 {
		return nil
	}
	var elem *types.Scalar
	switch m[5] {
	case "f":
		elem = types.Float
	case "i":
		elem = types.Int
	case "ui":
		elem = types.Uint
	}
	return types.VectorOf(elem, width)
}

// Validate reports the first uniform whose argument count does not match
// its setter.
func (u Uniforms) Validate() error {
	for _, name := range u.Names() {
		v := u[name]
		t := v.Type()
		if t == nil {
			continue
		}
		want := types.ComponentCount(t)
		if v.Count != nil {
			want *= *v.Count
		}
		if len(v.Args) != want {
			return fmt.Errorf("uniform %s: %s expects %d args, got %d", name, v.Func, want, len(v.Args))
		}
	}
	return nil
}
