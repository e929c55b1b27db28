package reduce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/glslreduce/internal/test"
)

func TestUnswitchify(t *testing.T) {
	job := parseJob(t, `
void main() {
  int x;
  switch (_GLF_SWITCH(0)) {
    case 1:
      x = 5;
    case 0:
      x = 1;
    case 2:
      x = 2;
      break;
    default:
      x = 3;
  }
}
`)
	ops := findKind(t, KindUnswitchify, job, NewContext(false, 0))
	require.Len(t, ops, 1)
	require.NoError(t, ops[0].Apply())
	test.AssertPrinted(t, tuOf(job), `
void main() {
  int x;
  {
    x = 1;
    x = 2;
  }
}
`)
}

func TestUnswitchifyIgnoresOrdinarySwitch(t *testing.T) {
	job := parseJob(t, `
void main() {
  int x;
  switch (x) {
    case 0:
      x = 1;
      break;
  }
}
`)
	assert.Empty(t, findKind(t, KindUnswitchify, job, NewContext(true, 0)))
}

func TestUnswitchifyRejectsNestedBreak(t *testing.T) {
	job := parseJob(t, `
void main() {
  int x;
  switch (_GLF_SWITCH(0)) {
    case 0:
      if (x > 0) {
        break;
      }
      x = 1;
      break;
  }
}
`)
	assert.Empty(t, findKind(t, KindUnswitchify, job, NewContext(false, 0)))
}

func TestSwitchToLoop(t *testing.T) {
	source := `
void main() {
  int a;
  int x = 3;
  switch (x) {
    case 0:
      {
        x = 1;
      }
      break;
    case 1:
      a = 4;
      x = 2;
      break;
    case 3:
    default:
      x = 1;
      break;
  }
}
`
	assert.Empty(t, findKind(t, KindSwitchToLoop, parseJob(t, source), NewContext(false, 0)))

	job := parseJob(t, source)
	ops := findKind(t, KindSwitchToLoop, job, NewContext(true, 0))
	require.Len(t, ops, 1)
	require.NoError(t, ops[0].Apply())
	test.AssertPrinted(t, tuOf(job), `
void main() {
  int a;
  int x = 3;
  do {
    x;
    {
      x = 1;
    }
    break;
    a = 4;
    x = 2;
    break;
    x = 1;
    break;
  } while (false);
}
`)
}

func TestSwitchToLoopInDeadCode(t *testing.T) {
	job := parseJob(t, `
void main() {
  if (_GLF_DEAD(false)) {
    switch (0) {
      case 0:
        return;
    }
  }
}
`)
	ops := findKind(t, KindSwitchToLoop, job, NewContext(false, 0))
	require.Len(t, ops, 1)
	require.NoError(t, ops[0].Apply())
	test.AssertPrinted(t, tuOf(job), `
void main() {
  if (_GLF_DEAD(false)) {
    do {
      0;
      return;
    } while (false);
  }
}
`)
}

func TestLiveOutputWrite(t *testing.T) {
	job := parseJob(t, `
out vec4 color;
void main() {
  color = vec4(1.0);
  {
    vec4 _GLF_outVarBackupcolor;
    _GLF_outVarBackupcolor = color;
    color = vec4(0.0);
    if (_GLF_WRAPPED_IF_TRUE(true)) {
      color = _GLF_outVarBackupcolor;
    }
  }
}
`)
	ops := findKind(t, KindLiveOutputWrite, job, NewContext(false, 0))
	require.Len(t, ops, 1)
	assert.Equal(t, "remove live write to color", ops[0].String())
	require.NoError(t, ops[0].Apply())
	test.AssertPrinted(t, tuOf(job), `
out vec4 color;
void main() {
  color = vec4(1.0);
  {
  }
}
`)
}
