package typer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/test"
)

// initType returns the type of the initializer of the named variable.
func initType(t *testing.T, tu *ast.TranslationUnit, typ *Typer, name string) string {
	t.Helper()
	var init ast.Expr
	ast.Inspect(tu, func(n ast.Node) bool {
		if info, ok := n.(*ast.VarDeclInfo); ok && info.Name == name {
			init = info.Init
		}
		return true
	})
	require.NotNil(t, init, "no initializer for %s", name)
	got := typ.TypeOf(init)
	if got == nil {
		return ""
	}
	return got.String()
}

func TestExpressionTypes(t *testing.T) {
	tu := test.MustParse(t, `
struct S { vec3 p; int n[2]; };
uniform S s;
float f(float x) { return x; }
int f(int x) { return x; }
void main() {
  vec4 v = vec4(1.0);
  mat3 m = mat3(1.0);
  float a = v.x;
  vec2 b = v.zy;
  vec3 c = s.p;
  int d = s.n[1];
  bool e = a < 2.0;
  float g = f(a);
  int h = f(d);
  vec3 i = m * c;
  float j = dot(c, c);
  vec4 k = d > 0 ? v : vec4(0.0);
  int l[2] = int[2](1, 2);
  uint n = 3u;
  float o = (a, 2.0);
  vec2 q = gl_FragCoord.xy;
  float r = -a;
}`)
	typ := New(tu)

	tests := map[string]string{
		"v": "vec4",
		"m": "mat3",
		"a": "float",
		"b": "vec2",
		"c": "vec3",
		"d": "int",
		"e": "bool",
		"g": "float",
		"h": "int",
		"i": "vec3",
		"j": "float",
		"k": "vec4",
		"l": "int[2]",
		"n": "uint",
		"o": "float",
		"q": "vec2",
		"r": "float",
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, initType(t, tu, typ, name))
		})
	}

	assert.True(t, typ.IsUserDefined("f"))
	assert.False(t, typ.IsUserDefined("dot"))
	assert.Len(t, typ.Prototypes("f"), 2)
	require.NotNil(t, typ.Struct("S"))
}

func TestMacroTypes(t *testing.T) {
	tu := test.MustParse(t, `
void main() {
  float x = 1.0;
  float a = _GLF_IDENTITY(x, x * 1.0);
  int b = _GLF_ZERO(0, 0);
  bool c = _GLF_FUZZED(true);
  int d = _GLF_MAKE_IN_BOUNDS_INT(b, 3);
  uint e = _GLF_MAKE_IN_BOUNDS_UINT(1u, 3u);
}`)
	typ := New(tu)
	assert.Equal(t, "float", initType(t, tu, typ, "a"))
	assert.Equal(t, "int", initType(t, tu, typ, "b"))
	assert.Equal(t, "bool", initType(t, tu, typ, "c"))
	assert.Equal(t, "int", initType(t, tu, typ, "d"))
	assert.Equal(t, "uint", initType(t, tu, typ, "e"))
}

func TestPrototypeMatches(t *testing.T) {
	tu := test.MustParse(t, `
void g(vec2 v);
void g(vec2 v) { }
void main() {
  g(vec2(1.0));
  g(1.0);
  g(unknown);
}`)
	typ := New(tu)
	protos := typ.Prototypes("g")
	require.Len(t, protos, 2)

	var calls []*ast.CallExpr
	ast.Inspect(tu, func(n ast.Node) bool {
		if c, ok := n.(*ast.CallExpr); ok && c.Callee == "g" {
			calls = append(calls, c)
		}
		return true
	})
	require.Len(t, calls, 3)
	assert.True(t, typ.PrototypeMatches(protos[0], calls[0]))
	assert.False(t, typ.PrototypeMatches(protos[0], calls[1]))
	assert.False(t, typ.PrototypeMatches(protos[0], calls[2]))

	// The call with an untyped argument still gets the shared return type.
	assert.Equal(t, "void", typ.TypeOf(calls[2]).String())
}

func TestScopedTypes(t *testing.T) {
	tu := test.MustParse(t, `
float x;
void main() {
  int y = 1;
  {
    vec2 x = vec2(0.0);
    vec2 inner = x;
  }
  float outer = x;
}`)
	typ := New(tu)
	assert.Equal(t, "vec2", initType(t, tu, typ, "inner"))
	assert.Equal(t, "float", initType(t, tu, typ, "outer"))
}
