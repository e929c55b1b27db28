package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/glslreduce/internal/reduce"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
reduce_everywhere = true
max_steps = 250
seed = 42
timeout = "1m30s"
interestingness = "./check.sh --strict"
literal_policy = "numeric"
enabled = ["stmt", "function"]
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.ReduceEverywhere)
	assert.True(t, *cfg.ReduceEverywhere)
	require.NotNil(t, cfg.MaxSteps)
	assert.Equal(t, 250, *cfg.MaxSteps)
	require.NotNil(t, cfg.Timeout)
	assert.Equal(t, 90*time.Second, cfg.Timeout.Duration)
	assert.Nil(t, cfg.MaxPercentage)

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.True(t, s.ReduceEverywhere)
	assert.Equal(t, int64(42), s.Seed)
	assert.Equal(t, []string{"./check.sh", "--strict"}, s.Interestingness)
	assert.Equal(t, reduce.LiteralNumeric, s.Literals)
	assert.Equal(t, reduce.KindSetOf(reduce.KindStmt, reduce.KindFunction), s.Enabled)
	assert.Equal(t, 50, s.MaxPercentage, "unset fields keep their defaults")
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "max_step = 3\n")
	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "max_step")
}

func TestLoadFileRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `timeout = "soon"`)
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "project", "shaders")
	require.NoError(t, os.MkdirAll(subDir, 0o755))
	configPath := writeConfig(t, filepath.Join(tmpDir, "project"), "max_percentage = 20\n")

	cfg, foundPath, err := Load(subDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, configPath, foundPath)
	assert.Equal(t, 20, *cfg.MaxPercentage)
}

func TestLoadNotFound(t *testing.T) {
	cfg, path, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, cfg)
	assert.Empty(t, path)

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestSettingsValidation(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{name: "percentage", toml: "max_percentage = 0", want: "max_percentage"},
		{name: "step", toml: "aggression_step = -1", want: "aggression_step"},
		{name: "steps", toml: "max_steps = -5", want: "max_steps"},
		{name: "policy", toml: `literal_policy = "exact"`, want: "literal_policy"},
		{name: "kind", toml: `enabled = ["no-such-kind"]`, want: "no-such-kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFile(writeConfig(t, t.TempDir(), tt.toml))
			require.NoError(t, err)
			_, err = cfg.Settings()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("reduce", pflag.ContinueOnError)
	fs.Bool(FlagReduceEverywhere, false, "")
	fs.Int(FlagMaxSteps, 0, "")
	fs.Int64(FlagSeed, 0, "")
	fs.Duration(FlagTimeout, 0, "")
	fs.String(FlagInterestingness, "", "")
	fs.Bool(FlagSimplifyFinal, true, "")
	fs.StringSlice(FlagEnable, nil, "")
	return fs
}

func TestMerge(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, t.TempDir(), `
max_steps = 100
seed = 7
interestingness = "./file.sh"
`))
	require.NoError(t, err)

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{
		"--max-steps=3",
		"--timeout=2s",
		"--enable=stmt,loop-merge",
		"--simplify-final=false",
	}))
	require.NoError(t, cfg.Merge(fs))

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, 3, s.MaxSteps, "flags override the file")
	assert.Equal(t, int64(7), s.Seed, "unset flags keep file values")
	assert.Equal(t, []string{"./file.sh"}, s.Interestingness)
	assert.Equal(t, 2*time.Second, s.Timeout)
	assert.False(t, s.SimplifyFinal)
	assert.Equal(t, reduce.KindSetOf(reduce.KindStmt, reduce.KindLoopMerge), s.Enabled)
}

func TestMergeIgnoresDefaults(t *testing.T) {
	cfg := &Config{}
	fs := newFlags()
	require.NoError(t, fs.Parse(nil))
	require.NoError(t, cfg.Merge(fs))
	assert.Equal(t, &Config{}, cfg)
}

func TestSettingsContext(t *testing.T) {
	s := DefaultSettings()
	s.ReduceEverywhere = true
	s.Enabled = reduce.KindSetOf(reduce.KindStmt)
	s.Literals = reduce.LiteralNumeric

	ctx := s.Context()
	assert.True(t, ctx.ReduceEverywhere)
	assert.True(t, ctx.Enabled.Has(reduce.KindStmt))
	assert.False(t, ctx.Enabled.Has(reduce.KindFunction))
	assert.Equal(t, reduce.LiteralNumeric, ctx.Literals)
}
