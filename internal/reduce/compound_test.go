package reduce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/glslreduce/internal/test"
)

const plainLoops = `
void main() {
  int x = 0;
  while (x < 3) {
    x++;
  }
  do {
    x--;
  } while (x > 0);
}
`

func TestCompoundToBlockLoops(t *testing.T) {
	job := parseJob(t, plainLoops)
	ops := findKind(t, KindCompoundToBlock, job, NewContext(true, 0))
	assert.Equal(t, []string{
		"replace while (x < 3) with block of 1 statements",
		"replace do-while (x > 0) with block of 1 statements",
	}, descriptions(ops))

	for _, op := range ops {
		require.True(t, op.Precondition(), op.String())
		require.NoError(t, op.Apply(), op.String())
	}
	test.AssertPrinted(t, tuOf(job), `
void main() {
  int x = 0;
  {
    x++;
  }
  {
    x--;
  }
}
`)
}

func TestCompoundToBlockLeavesOriginalLoopsInConstrainedMode(t *testing.T) {
	job := parseJob(t, plainLoops)
	assert.Empty(t, findKind(t, KindCompoundToBlock, job, NewContext(false, 0)))
}

func TestCompoundToBlockSkipsLoopWithBreak(t *testing.T) {
	job := parseJob(t, `
void main() {
  int x = 0;
  while (true) {
    x++;
    if (x > 2) {
      break;
    }
  }
}
`)
	ops := findKind(t, KindCompoundToBlock, job, NewContext(true, 0))
	assert.Equal(t, []string{"replace if (x > 2) with block of 1 statements"}, descriptions(ops))
}

func TestCompoundToGuard(t *testing.T) {
	job := parseJob(t, `
void main() {
  int x = 0;
  for (int i = 0; i < 2; i++) {
    x++;
  }
  if (x > 1) {
    x = 2;
  }
}
`)
	// The for loop declares the variable its guard reads.
	ops := findKind(t, KindCompoundToGuard, job, NewContext(true, 0))
	require.Len(t, ops, 1)
	assert.Equal(t, "replace if (x > 1) with x > 1;", ops[0].String())
	require.NoError(t, ops[0].Apply())
	test.AssertPrinted(t, tuOf(job), `
void main() {
  int x = 0;
  for (int i = 0; i < 2; i++) {
    x++;
  }
  x > 1;
}
`)
}

func TestFlattenControlFlow(t *testing.T) {
	tests := []struct {
		name   string
		source string
		pick   int
		want   string
	}{
		{
			name: "else branch",
			source: `
void main() {
  int x = 0;
  if (x > 1) {
    x = 2;
  } else {
    x = 3;
  }
}
`,
			pick: 1,
			want: `
void main() {
  int x = 0;
  {
    x > 1;
    {
      x = 3;
    }
  }
}
`,
		},
		{
			name: "while",
			source: `
void main() {
  int x = 0;
  while (x < 3) {
    x++;
  }
}
`,
			pick: 0,
			want: `
void main() {
  int x = 0;
  {
    x < 3;
    {
      x++;
    }
  }
}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := parseJob(t, tt.source)
			assert.Empty(t, findKind(t, KindFlattenControlFlow, job, NewContext(false, 0)))

			ops := findKind(t, KindFlattenControlFlow, job, NewContext(true, 0))
			require.Greater(t, len(ops), tt.pick)
			require.NoError(t, ops[tt.pick].Apply())
			test.AssertPrinted(t, tuOf(job), tt.want)
		})
	}
}

func TestUnwrap(t *testing.T) {
	job := parseJob(t, `
void main() {
  int x = 1;
  if (_GLF_WRAPPED_IF_TRUE(true)) {
    x = 2;
  }
  if (_GLF_WRAPPED_IF_FALSE(false)) {
  } else {
    x = 4;
  }
  do {
    x = 3;
  } while (_GLF_WRAPPED_LOOP(false));
}
`)
	ops := findKind(t, KindUnwrap, job, NewContext(false, 0))
	assert.Equal(t, []string{
		"unwrap if (_GLF_WRAPPED_IF_TRUE(true))",
		"unwrap if (_GLF_WRAPPED_IF_FALSE(false))",
		"unwrap do-while (_GLF_WRAPPED_LOOP(false))",
	}, descriptions(ops))

	for _, op := range ops {
		require.True(t, op.Precondition(), op.String())
		require.NoError(t, op.Apply(), op.String())
	}
	test.AssertPrinted(t, tuOf(job), `
void main() {
  int x = 1;
  {
    x = 2;
  }
  {
    x = 4;
  }
  {
    x = 3;
  }
}
`)
}

func TestUnwrapNestedBlock(t *testing.T) {
	job := parseJob(t, `
void main() {
  int x = 1;
  {
    int y = 2;
    x = y;
  }
}
`)
	ops := findKind(t, KindUnwrap, job, NewContext(false, 0))
	require.Len(t, ops, 1)
	require.NoError(t, ops[0].Apply())
	test.AssertPrinted(t, tuOf(job), `
void main() {
  int x = 1;
  int y = 2;
  x = y;
}
`)

	clash := parseJob(t, `
void main() {
  int x = 1;
  {
    int x = 2;
  }
}
`)
	assert.Empty(t, findKind(t, KindUnwrap, clash, NewContext(false, 0)))
}
