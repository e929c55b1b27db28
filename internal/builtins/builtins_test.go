package builtins

import (
	"testing"

	"github.com/HugoDaniel/glslreduce/internal/types"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"sin", "texture", "modf", "atomicAdd", "barrier", "dot"} {
		if !IsBuiltin(name) {
			t.Errorf("%s should be a builtin", name)
		}
	}
	for _, name := range []string{"main", "vec4", "_GLF_IDENTITY"} {
		if IsBuiltin(name) {
			t.Errorf("%s should not be a builtin", name)
		}
	}
}

func TestOutParameters(t *testing.T) {
	tests := []struct {
		name   string
		index  int
		writes bool
	}{
		{"modf", 0, false},
		{"modf", 1, true},
		{"uaddCarry", 2, true},
		{"atomicAdd", 0, true},
		{"sin", 0, false},
	}
	for _, tt := range tests {
		if got := Lookup(tt.name).WritesParam(tt.index); got != tt.writes {
			t.Errorf("%s param %d: writes=%v, want %v", tt.name, tt.index, got, tt.writes)
		}
	}
}

func TestImpureNames(t *testing.T) {
	impure := ImpureNames()
	for _, name := range []string{"modf", "frexp", "atomicAdd", "imageStore", "barrier"} {
		if !impure[name] {
			t.Errorf("%s should be impure", name)
		}
	}
	for _, name := range []string{"sin", "texture", "mix"} {
		if impure[name] {
			t.Errorf("%s should be pure", name)
		}
	}
	if len(AllNames()) <= len(impure) {
		t.Errorf("most builtins are pure")
	}
}

func TestResultType(t *testing.T) {
	vec3 := &types.Vector{Width: 3, Element: types.Float}
	tests := []struct {
		name   string
		args   []types.Type
		expect string
	}{
		{"sin", []types.Type{vec3}, "vec3"},
		{"dot", []types.Type{vec3, vec3}, "float"},
		{"mix", []types.Type{types.Float, vec3, types.Float}, "vec3"},
		{"lessThan", []types.Type{vec3, vec3}, "bvec3"},
		{"any", []types.Type{&types.Vector{Width: 2, Element: types.Bool}}, "bool"},
		{"texture", []types.Type{&types.Opaque{Name: "sampler2D"}}, "vec4"},
		{"texture", []types.Type{&types.Opaque{Name: "usampler2D"}}, "uvec4"},
		{"transpose", []types.Type{&types.Matrix{Cols: 2, Rows: 3}}, "mat3x2"},
		{"floatBitsToInt", []types.Type{vec3}, "ivec3"},
		{"barrier", nil, "void"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lookup(tt.name).ResultType(tt.args)
			if got == nil || got.String() != tt.expect {
				t.Errorf("got %v, want %s", got, tt.expect)
			}
		})
	}
}
