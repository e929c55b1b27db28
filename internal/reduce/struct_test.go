package reduce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/glslreduce/internal/test"
)

func TestRemoveStructField(t *testing.T) {
	job := parseJob(t, `
struct S1 {
  float _f0;
  float _f1;
};
float f() {
  S1 s = S1(1.0, 2.0);
  return s._f1;
}
void main() {
  f();
}
`)
	ops := findKind(t, KindRemoveStructField, job, NewContext(true, 0))
	require.Len(t, ops, 1)
	assert.Equal(t, "remove field S1._f0", ops[0].String())
	require.NoError(t, ops[0].Apply())
	test.AssertPrinted(t, tuOf(job), `
struct S1 {
  float _f1;
};
float f() {
  S1 s = S1(2.0);
  return s._f1;
}
void main() {
  f();
}
`)
}

func TestRemoveStructFieldNeedsReduceEverywhereForPlainStructs(t *testing.T) {
	job := parseJob(t, `
struct S1 {
  float a;
  float b;
};
void main() {
  S1 s = S1(1.0, 2.0);
}
`)
	assert.Empty(t, findKind(t, KindRemoveStructField, job, NewContext(false, 0)))
	assert.Len(t, findKind(t, KindRemoveStructField, job, NewContext(true, 0)), 2)
}

func TestDestructify(t *testing.T) {
	job := parseJob(t, `
struct _GLF_struct_1 {
  float x;
  int _f0;
};
void main() {
  _GLF_struct_1 s = _GLF_struct_1(1.0, 2);
  float y = s.x;
}
`)
	ops := findKind(t, KindDestructify, job, NewContext(false, 0))
	require.Len(t, ops, 1)
	require.NoError(t, ops[0].Apply())
	test.AssertPrinted(t, tuOf(job), `
struct _GLF_struct_1 {
  float x;
  int _f0;
};
void main() {
  float x = 1.0;
  float y = x;
}
`)
}

func TestDestructifyRejectsPartialUse(t *testing.T) {
	job := parseJob(t, `
struct _GLF_struct_1 {
  float x;
  int _f0;
};
void main() {
  _GLF_struct_1 s = _GLF_struct_1(1.0, 2);
  int z = s._f0;
}
`)
	assert.Empty(t, findKind(t, KindDestructify, job, NewContext(false, 0)))
}

func TestInlineStructifiedField(t *testing.T) {
	job := parseJob(t, `
struct _GLF_struct_1 {
  float _f0;
  float x;
};
struct _GLF_struct_0 {
  _GLF_struct_1 _f0;
  int y;
};
void main() {
  _GLF_struct_0 s = _GLF_struct_0(_GLF_struct_1(1.0, 2.0), 3);
  float v = s._f0.x;
}
`)
	ops := findKind(t, KindInlineStructifiedField, job, NewContext(false, 0))
	require.Len(t, ops, 1)
	assert.Equal(t, "inline field _GLF_struct_0._f0", ops[0].String())
	require.NoError(t, ops[0].Apply())
	test.AssertPrinted(t, tuOf(job), `
struct _GLF_struct_1 {
  float _f0;
  float x;
};
struct _GLF_struct_0 {
  float _f0_f0;
  float x;
  int y;
};
void main() {
  _GLF_struct_0 s = _GLF_struct_0(1.0, 2.0, 3);
  float v = s.x;
}
`)
}

func TestInlineStructifiedFieldNeedsFieldLookups(t *testing.T) {
	job := parseJob(t, `
struct _GLF_struct_1 {
  float _f0;
  float x;
};
struct _GLF_struct_0 {
  _GLF_struct_1 _f0;
  int y;
};
void main() {
  _GLF_struct_0 s = _GLF_struct_0(_GLF_struct_1(1.0, 2.0), 3);
  _GLF_struct_1 inner = s._f0;
}
`)
	// s._f0 is used as a whole, so its fields cannot move into s.
	assert.Empty(t, findKind(t, KindInlineStructifiedField, job, NewContext(false, 0)))
}
