package simplify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/test"
)

// ----------------------------------------------------------------------------
// EliminateMacros Tests
// ----------------------------------------------------------------------------

func TestEliminateMacros(t *testing.T) {
	tu := test.MustParse(t, `
void main() {
  int x = _GLF_IDENTITY(1, 1 + 0);
  if (_GLF_DEAD(false)) {
    x = 2;
  }
  x = _GLF_FUZZED(3) * _GLF_ONE(1, x);
  while (_GLF_WRAPPED_LOOP(x < 3)) {
    x++;
  }
  switch (_GLF_SWITCH(0)) {
    case 0:
      x = 4;
      break;
  }
}
`)
	assert.Equal(t, 6, EliminateMacros(tu))
	test.AssertPrinted(t, tu, `
void main() {
  int x = 1 + 0;
  if (false) {
    x = 2;
  }
  x = 3 * x;
  while (x < 3) {
    x++;
  }
  switch (0) {
    case 0:
      x = 4;
      break;
  }
}
`)
}

func TestEliminateNestedMacros(t *testing.T) {
	tu := test.MustParse(t, `
void main() {
  float f = _GLF_IDENTITY(1.0, _GLF_FUZZED(_GLF_ZERO(0.0, 0.0 * 2.0)) + 1.0);
}
`)
	assert.Equal(t, 3, EliminateMacros(tu))
	test.AssertPrinted(t, tu, `
void main() {
  float f = 0.0 * 2.0 + 1.0;
}
`)
}

func TestEliminateMakeInBounds(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name: "clamp",
			source: `#version 310 es
void main() {
  int a[4];
  int i;
  a[_GLF_MAKE_IN_BOUNDS_INT(i, 4)] = 1;
}
`,
			expected: `#version 310 es
void main() {
  int a[4];
  int i;
  a[clamp(i, 0, 4 - 1)] = 1;
}
`,
		},
		{
			name: "ternary",
			source: `
void main() {
  int a[4];
  int i;
  a[_GLF_MAKE_IN_BOUNDS_INT(i, 4)] = 1;
}
`,
			expected: `
void main() {
  int a[4];
  int i;
  a[(i) < 0 ? 0 : ((i) >= 4 ? 4 - 1 : (i))] = 1;
}
`,
		},
		{
			name: "unsigned ternary",
			source: `
void main() {
  int a[4];
  uint i;
  a[_GLF_MAKE_IN_BOUNDS_UINT(i, 4u)] = 1;
}
`,
			expected: `
void main() {
  int a[4];
  uint i;
  a[(i) >= 4u ? 4u - 1u : (i)] = 1;
}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tu := test.MustParse(t, tt.source)
			assert.Equal(t, 1, EliminateMacros(tu))
			test.AssertPrinted(t, tu, tt.expected)
		})
	}
}

// ----------------------------------------------------------------------------
// StripUnused Tests
// ----------------------------------------------------------------------------

func TestStripUnused(t *testing.T) {
	tu := test.MustParse(t, `
uniform float u;
struct S {
  float f;
};
struct T {
  int i;
};
float unused() {
  return 1.0;
}
float helper(S s) {
  return s.f;
}
int g = 1;
int h;
void main() {
  float x = helper(S(u));
  h = 2;
}
`)
	assert.Equal(t, 3, StripUnused(tu))
	test.AssertPrinted(t, tu, `
uniform float u;
struct S {
  float f;
};
float helper(S s) {
  return s.f;
}
int h;
void main() {
  float x = helper(S(u));
  h = 2;
}
`)
}

func TestStripUnusedKeepsTransitiveDependencies(t *testing.T) {
	tu := test.MustParse(t, `
const int a = 1;
const int b = a;
int c();
int c() {
  return b;
}
void main() {
  int x = c();
}
`)
	assert.Zero(t, StripUnused(tu))
}

func TestStripUnusedKeepsInterfaceAndImpureInitializers(t *testing.T) {
	tu := test.MustParse(t, `
out vec4 color;
in vec2 pos;
int counter;
int f() {
  counter++;
  return counter;
}
int unread = f();
void main() {
}
`)
	assert.Zero(t, StripUnused(tu))
}

func TestStripUnusedWithoutMain(t *testing.T) {
	tu := test.MustParse(t, `
float helper() {
  return 1.0;
}
`)
	assert.Zero(t, StripUnused(tu))
	require.NotNil(t, test.FindFunction(tu, "helper"))
}

func TestJobLeavesOriginalUntouched(t *testing.T) {
	job, err := shaderjob.FromSource(shaderjob.Fragment, `
float unused() {
  return 1.0;
}
void main() {
  float x = _GLF_FUZZED(2.0);
}
`)
	require.NoError(t, err)
	before := job.Hash()

	out := Job(job)
	assert.Equal(t, before, job.Hash())
	test.AssertPrinted(t, out.Stage(shaderjob.Fragment).TU, `
void main() {
  float x = 2.0;
}
`)
}
