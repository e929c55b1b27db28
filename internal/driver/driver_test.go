package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/HugoDaniel/glslreduce/internal/printer"
	"github.com/HugoDaniel/glslreduce/internal/reduce"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

func fragment(job *shaderjob.Job) string {
	return printer.String(job.Stage(shaderjob.Fragment).TU)
}

func always(v bool) FuncJudge {
	return func(*shaderjob.Job) bool { return v }
}

// ----------------------------------------------------------------------------
// Run Tests
// ----------------------------------------------------------------------------

func TestRunRemovesDeadCode(t *testing.T) {
	dir := t.TempDir()
	job := parseJob(t, deadCodeShader)
	metrics := NewMetrics()
	d := New(reduce.NewContext(false, 0), always(true), Options{OutputDir: dir, Metrics: metrics})

	res, err := d.Run(context.Background(), job, "shader")
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.False(t, res.Incomplete)
	assert.Positive(t, res.Successes)

	out := fragment(res.Job)
	assert.NotContains(t, out, "_GLF_DEAD")
	assert.Contains(t, out, "x = x + 1")
	assert.Equal(t, filepath.Join(dir, "shader_reduced_final.json"), res.Final)

	for _, name := range []string{
		"shader_initial.frag",
		"shader_reduced_0001_success.frag",
		"shader_reduced_0001_success.json",
		"shader_reduced_final.frag",
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	assert.NoFileExists(t, filepath.Join(dir, "shader_reduced_0001.frag"))
	assert.NoFileExists(t, filepath.Join(dir, IncompleteMarker))

	metricsFile := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, metrics.WriteFile(metricsFile))
	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "glslreduce_steps_total")
	assert.Contains(t, string(data), `glslreduce_verdicts_total{verdict="success"}`)
}

func TestRunKeepsJudgedProperty(t *testing.T) {
	job := parseJob(t, `
int f(int a) {
  return a * 2;
}
void main() {
  int x = 1;
  int y = f(x);
  int z = y + 3;
  if (z > 4) {
    x = z;
  }
}
`)
	keepsCall := FuncJudge(func(j *shaderjob.Job) bool {
		return strings.Contains(fragment(j), "f(")
	})
	d := New(reduce.NewContext(true, 3), keepsCall, Options{})

	res, err := d.Run(context.Background(), job, "shader")
	require.NoError(t, err)
	assert.Contains(t, fragment(res.Job), "f(")
	assert.Less(t, res.Job.NodeCount(), job.NodeCount())
	assert.Empty(t, res.Final)
}

func TestRunRejectsUninterestingJob(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	judge := FuncJudge(func(*shaderjob.Job) bool {
		calls++
		return false
	})
	d := New(reduce.NewContext(false, 0), judge, Options{OutputDir: dir})

	_, err := d.Run(context.Background(), parseJob(t, deadCodeShader), "shader")
	assert.ErrorIs(t, err, ErrNotInteresting)
	assert.Equal(t, NumInitialTries, calls)
	assert.FileExists(t, filepath.Join(dir, NotInterestingMarker))
}

func TestRunStopsAtStepLimit(t *testing.T) {
	dir := t.TempDir()
	d := New(reduce.NewContext(false, 0), always(true), Options{OutputDir: dir, MaxSteps: 1})

	res, err := d.Run(context.Background(), parseJob(t, deadCodeShader), "shader")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Steps)
	assert.True(t, res.Incomplete)
	assert.FileExists(t, filepath.Join(dir, IncompleteMarker))
	assert.FileExists(t, filepath.Join(dir, "shader_reduced_final.frag"))
}

func TestRunStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	judge := FuncJudge(func(*shaderjob.Job) bool {
		cancel()
		return true
	})
	job := parseJob(t, deadCodeShader)
	d := New(reduce.NewContext(false, 0), judge, Options{})

	res, err := d.Run(ctx, job, "shader")
	require.NoError(t, err)
	assert.True(t, res.Incomplete)
	assert.Zero(t, res.Steps)
	assert.Equal(t, job.Hash(), res.Job.Hash())
}

func TestRunSimplifiesFinalJob(t *testing.T) {
	job := parseJob(t, `
void main() {
  int x = _GLF_IDENTITY(1, 1);
  x = x + 1;
}
`)
	ctx := reduce.NewContext(false, 0)
	ctx.Enabled = reduce.KindSetOf(reduce.KindStmt)
	d := New(ctx, always(true), Options{SimplifyFinal: true})

	res, err := d.Run(context.Background(), job, "shader")
	require.NoError(t, err)
	assert.NotContains(t, fragment(res.Job), "_GLF_IDENTITY")
}

func TestRunKeepsUnsimplifiedJobWhenSimplificationIsNotInteresting(t *testing.T) {
	job := parseJob(t, `
void main() {
  int x = _GLF_IDENTITY(1, 1);
  x = x + 1;
}
`)
	ctx := reduce.NewContext(false, 0)
	ctx.Enabled = reduce.KindSetOf(reduce.KindStmt)
	keepsMacro := FuncJudge(func(j *shaderjob.Job) bool {
		return strings.Contains(fragment(j), "_GLF_IDENTITY")
	})
	d := New(ctx, keepsMacro, Options{SimplifyFinal: true})

	res, err := d.Run(context.Background(), job, "shader")
	require.NoError(t, err)
	assert.Contains(t, fragment(res.Job), "_GLF_IDENTITY")
}

func TestRunUsesCache(t *testing.T) {
	cache := NewMemoryCache()
	calls := 0
	judge := FuncJudge(func(*shaderjob.Job) bool {
		calls++
		return false
	})
	job := parseJob(t, deadCodeShader)
	cache.Store(job.Hash(), true)

	ctx := reduce.NewContext(false, 0)
	ctx.Enabled = reduce.KindSetOf(reduce.KindStmt)
	d := New(ctx, judge, Options{Cache: cache, Plan: NewSystematicPass(ctx, reduce.KindStmt, 1)})

	// The initial job is always judged; the cache is only consulted for
	// candidates.
	_, err := d.Run(context.Background(), job, "shader")
	assert.ErrorIs(t, err, ErrNotInteresting)

	first := calls
	calls = 0
	judge2 := FuncJudge(func(j *shaderjob.Job) bool {
		calls++
		return j.Hash() == job.Hash()
	})
	d = New(ctx, judge2, Options{Cache: cache, Plan: NewSystematicPass(ctx, reduce.KindStmt, 1)})
	_, err = d.Run(context.Background(), job, "shader")
	require.NoError(t, err)
	secondRun := calls

	calls = 0
	d = New(ctx, judge2, Options{Cache: cache, Plan: NewSystematicPass(ctx, reduce.KindStmt, 1)})
	_, err = d.Run(context.Background(), job, "shader")
	require.NoError(t, err)

	assert.Equal(t, NumInitialTries, first)
	assert.Greater(t, secondRun, 1)
	assert.Equal(t, 1, calls, "every candidate verdict comes from the cache")
}

func TestRunDebugStopsOnInvalidReduction(t *testing.T) {
	ctx := reduce.NewContext(false, 0)
	ctx.Validator = reduce.ValidatorFunc(func(j *shaderjob.Job) error {
		if !strings.Contains(fragment(j), "_GLF_DEAD") {
			return assert.AnError
		}
		return nil
	})
	ctx.Enabled = reduce.KindSetOf(reduce.KindStmt)
	d := New(ctx, always(true), Options{Debug: true, Plan: NewSystematicPass(ctx, reduce.KindStmt, 0)})

	_, err := d.Run(context.Background(), parseJob(t, deadCodeShader), "shader")
	var invalid *reduce.InvalidReductionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, reduce.KindStmt, invalid.Kind)
	assert.Contains(t, fragment(invalid.Before), "_GLF_DEAD")
}

// ----------------------------------------------------------------------------
// Judge Tests
// ----------------------------------------------------------------------------

func TestCommandJudge(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "job")
	ctx := context.Background()

	ok := &CommandJudge{Args: []string{"sh", "-c", "exit 0"}}
	assert.True(t, ok.Interesting(ctx, nil, prefix))

	fail := &CommandJudge{Args: []string{"sh", "-c", "exit 1"}}
	assert.False(t, fail.Interesting(ctx, nil, prefix))

	slow := &CommandJudge{Args: []string{"sh", "-c", "exec sleep 5"}, Timeout: 20 * time.Millisecond}
	start := time.Now()
	assert.False(t, slow.Interesting(ctx, nil, prefix))
	assert.Less(t, time.Since(start), 4*time.Second)

	assert.False(t, (&CommandJudge{}).Interesting(ctx, nil, prefix))
}

func TestCommandJudgePassesMetadataPath(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "job")
	require.NoError(t, os.WriteFile(prefix+".json", []byte("{}"), 0o644))

	j := &CommandJudge{Args: []string{"sh", "-c", `test -f "$1"`, "judge"}}
	assert.True(t, j.Interesting(context.Background(), nil, prefix))
	assert.False(t, j.Interesting(context.Background(), nil, filepath.Join(dir, "missing")))
}

func TestValidatorJudge(t *testing.T) {
	ctx := context.Background()
	valid := &CommandJudge{Args: []string{"sh", "-c", "exit 0"}}
	invalid := &CommandJudge{Args: []string{"sh", "-c", "exit 1"}}

	assert.True(t, (&ValidatorJudge{Validator: valid}).Interesting(ctx, nil, "p"))
	assert.False(t, (&ValidatorJudge{Validator: invalid, Next: always(true)}).Interesting(ctx, nil, "p"))
	assert.False(t, (&ValidatorJudge{Validator: valid, Next: always(false)}).Interesting(ctx, nil, "p"))
}

func TestCommandValidator(t *testing.T) {
	job := parseJob(t, deadCodeShader)
	v := &CommandValidator{Judge: &CommandJudge{Args: []string{"sh", "-c", `test -f "${1%.json}.frag"`, "validator"}}}
	assert.NoError(t, v.Validate(job))

	v = &CommandValidator{Judge: &CommandJudge{Args: []string{"false"}}}
	assert.Error(t, v.Validate(job))
}

// ----------------------------------------------------------------------------
// Cache Tests
// ----------------------------------------------------------------------------

func TestFileCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "verdicts.mp")

	c, err := OpenFileCache(path)
	require.NoError(t, err)
	assert.Zero(t, c.Len())
	c.Store("a", true)
	c.Store("b", false)
	require.NoError(t, c.Save())

	c, err = OpenFileCache(path)
	require.NoError(t, err)
	v, ok := c.Lookup("a")
	assert.True(t, ok)
	assert.True(t, v)
	v, ok = c.Lookup("b")
	assert.True(t, ok)
	assert.False(t, v)
	_, ok = c.Lookup("c")
	assert.False(t, ok)
}

func TestFileCacheIgnoresOtherSchemas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verdicts.mp")
	data, err := msgpack.Marshal(&cachePayload{Schema: cacheSchemaVersion + 1, Verdicts: map[string]bool{"a": true}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	c, err := OpenFileCache(path)
	require.NoError(t, err)
	assert.Zero(t, c.Len())
}

func TestFileCacheRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verdicts.mp")
	require.NoError(t, os.WriteFile(path, []byte{0xc1}, 0o644))
	_, err := OpenFileCache(path)
	assert.Error(t, err)
}

func TestNilMetricsAndCache(t *testing.T) {
	var m *Metrics
	m.step(10)
	m.verdict(true, false)
	m.size(3)
	assert.NoError(t, m.WriteFile(filepath.Join(t.TempDir(), "m")))

	var c *FileCache
	assert.NoError(t, c.Save())
}

// ----------------------------------------------------------------------------
// File Naming Tests
// ----------------------------------------------------------------------------

func TestStepOf(t *testing.T) {
	n, ok := StepOf("shader_reduced_0042_success.frag")
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = StepOf("shader_reduced_final.frag")
	assert.False(t, ok)
	_, ok = StepOf("shader.frag")
	assert.False(t, ok)
	_, ok = StepOf("shader_reduced_+042_fail.frag")
	assert.False(t, ok, "a sign is not a digit")
	_, ok = StepOf("shader_reduced_12.frag")
	assert.False(t, ok)

	n, ok = StepOf("shader_reduced_9999_fail.frag")
	assert.True(t, ok)
	assert.Equal(t, 9999, n)
}

func TestRenameStep(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"v_reduced_0003.frag", "v_reduced_0003.json", "v_reduced_00031.frag"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, renameStep(dir, "v_reduced_0003", "fail"))
	assert.FileExists(t, filepath.Join(dir, "v_reduced_0003_fail.frag"))
	assert.FileExists(t, filepath.Join(dir, "v_reduced_0003_fail.json"))
	assert.FileExists(t, filepath.Join(dir, "v_reduced_00031.frag"))
}
