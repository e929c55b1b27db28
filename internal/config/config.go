// Package config handles loading reducer configuration from files.
//
// Configuration is read from a TOML file named glslreduce.toml, searched for
// in the starting directory and its parents. Flags given on the command line
// take precedence over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/HugoDaniel/glslreduce/internal/reduce"
)

// FileName is the name of the configuration file.
const FileName = "glslreduce.toml"

// Config represents the configuration file structure.
// All fields are optional; unset fields keep their defaults.
type Config struct {
	// ReduceEverywhere allows reductions that change what the shader computes.
	ReduceEverywhere *bool `toml:"reduce_everywhere"`

	MaxSteps       *int   `toml:"max_steps"`
	MaxPercentage  *int   `toml:"max_percentage"`
	AggressionStep *int   `toml:"aggression_step"`
	Seed           *int64 `toml:"seed"`

	// Timeout bounds each run of the interestingness test, e.g. "30s".
	Timeout *Duration `toml:"timeout"`

	OutputDir string `toml:"output_dir"`

	// Validator and Interestingness are command lines split on whitespace.
	Validator       string `toml:"validator"`
	Interestingness string `toml:"interestingness"`

	DebugValidate *bool  `toml:"debug_validate"`
	LiteralPolicy string `toml:"literal_policy"`
	CacheFile     string `toml:"cache_file"`
	MetricsFile   string `toml:"metrics_file"`
	SimplifyFinal *bool  `toml:"simplify_final"`

	// Enabled lists opportunity kinds by name. Empty enables all of them.
	Enabled []string `toml:"enabled"`
}

// Duration is a time.Duration written as a string such as "1m30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Load searches for a config file starting from the given directory
// and walking up to parent directories. Returns nil if no config file is found.
func Load(startDir string) (*Config, string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, "", fmt.Errorf("resolving %q: %w", startDir, err)
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			cfg, err := LoadFile(path)
			return cfg, path, err
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path. Unknown keys are
// an error.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return &cfg, nil
}

// Flag names read by Merge.
const (
	FlagReduceEverywhere = "reduce-everywhere"
	FlagMaxSteps         = "max-steps"
	FlagMaxPercentage    = "max-percentage"
	FlagAggressionStep   = "aggression-step"
	FlagSeed             = "seed"
	FlagTimeout          = "timeout"
	FlagOutput           = "output"
	FlagValidator        = "validator"
	FlagInterestingness  = "interestingness"
	FlagDebugValidate    = "debug-validate"
	FlagLiteralPolicy    = "literal-policy"
	FlagCache            = "cache"
	FlagMetrics          = "metrics"
	FlagSimplifyFinal    = "simplify-final"
	FlagEnable           = "enable"
)

// Merge overlays the flags of fs that were set on the command line. Flags
// fs does not define are ignored.
func (c *Config) Merge(fs *pflag.FlagSet) error {
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}
	var errs []error
	setBool := func(name string, dst **bool) {
		if changed(name) {
			v, err := fs.GetBool(name)
			errs = append(errs, err)
			*dst = &v
		}
	}
	setInt := func(name string, dst **int) {
		if changed(name) {
			v, err := fs.GetInt(name)
			errs = append(errs, err)
			*dst = &v
		}
	}
	setString := func(name string, dst *string) {
		if changed(name) {
			v, err := fs.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}

	setBool(FlagReduceEverywhere, &c.ReduceEverywhere)
	setInt(FlagMaxSteps, &c.MaxSteps)
	setInt(FlagMaxPercentage, &c.MaxPercentage)
	setInt(FlagAggressionStep, &c.AggressionStep)
	if changed(FlagSeed) {
		v, err := fs.GetInt64(FlagSeed)
		errs = append(errs, err)
		c.Seed = &v
	}
	if changed(FlagTimeout) {
		v, err := fs.GetDuration(FlagTimeout)
		errs = append(errs, err)
		c.Timeout = &Duration{v}
	}
	setString(FlagOutput, &c.OutputDir)
	setString(FlagValidator, &c.Validator)
	setString(FlagInterestingness, &c.Interestingness)
	setBool(FlagDebugValidate, &c.DebugValidate)
	setString(FlagLiteralPolicy, &c.LiteralPolicy)
	setString(FlagCache, &c.CacheFile)
	setString(FlagMetrics, &c.MetricsFile)
	setBool(FlagSimplifyFinal, &c.SimplifyFinal)
	if changed(FlagEnable) {
		v, err := fs.GetStringSlice(FlagEnable)
		errs = append(errs, err)
		c.Enabled = v
	}
	return errors.Join(errs...)
}

// Settings are the resolved values of a Config.
type Settings struct {
	ReduceEverywhere bool
	MaxSteps         int
	MaxPercentage    int
	AggressionStep   int
	Seed             int64
	Timeout          time.Duration
	OutputDir        string
	Validator        []string
	Interestingness  []string
	DebugValidate    bool
	Literals         reduce.LiteralPolicy
	CacheFile        string
	MetricsFile      string
	SimplifyFinal    bool
	Enabled          reduce.KindSet
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		MaxPercentage:  50,
		AggressionStep: 10,
		Literals:       reduce.LiteralText,
		SimplifyFinal:  true,
		Enabled:        reduce.AllKindSet,
	}
}

// Settings resolves c on top of DefaultSettings. A nil Config yields the
// defaults.
func (c *Config) Settings() (Settings, error) {
	s := DefaultSettings()
	if c == nil {
		return s, nil
	}

	if c.ReduceEverywhere != nil {
		s.ReduceEverywhere = *c.ReduceEverywhere
	}
	if c.MaxSteps != nil {
		if *c.MaxSteps < 0 {
			return s, fmt.Errorf("max_steps must not be negative, got %d", *c.MaxSteps)
		}
		s.MaxSteps = *c.MaxSteps
	}
	if c.MaxPercentage != nil {
		if *c.MaxPercentage < 1 || *c.MaxPercentage > 100 {
			return s, fmt.Errorf("max_percentage must be between 1 and 100, got %d", *c.MaxPercentage)
		}
		s.MaxPercentage = *c.MaxPercentage
	}
	if c.AggressionStep != nil {
		if *c.AggressionStep < 1 {
			return s, fmt.Errorf("aggression_step must be positive, got %d", *c.AggressionStep)
		}
		s.AggressionStep = *c.AggressionStep
	}
	if c.Seed != nil {
		s.Seed = *c.Seed
	}
	if c.Timeout != nil {
		s.Timeout = c.Timeout.Duration
	}
	if c.DebugValidate != nil {
		s.DebugValidate = *c.DebugValidate
	}
	if c.SimplifyFinal != nil {
		s.SimplifyFinal = *c.SimplifyFinal
	}
	s.OutputDir = c.OutputDir
	s.Validator = strings.Fields(c.Validator)
	s.Interestingness = strings.Fields(c.Interestingness)
	s.CacheFile = c.CacheFile
	s.MetricsFile = c.MetricsFile

	lit, ok := reduce.ParseLiteralPolicy(c.LiteralPolicy)
	if !ok {
		return s, fmt.Errorf("literal_policy must be %q or %q, got %q",
			reduce.LiteralText, reduce.LiteralNumeric, c.LiteralPolicy)
	}
	s.Literals = lit

	enabled, err := reduce.ParseKindSet(slices.DeleteFunc(slices.Clone(c.Enabled), func(n string) bool {
		return strings.TrimSpace(n) == ""
	}))
	if err != nil {
		return s, err
	}
	s.Enabled = enabled
	return s, nil
}

// Context returns a reducer context for the settings.
func (s Settings) Context() *reduce.Context {
	ctx := reduce.NewContext(s.ReduceEverywhere, s.Seed)
	ctx.Enabled = s.Enabled
	ctx.Literals = s.Literals
	return ctx
}
