// Package api provides the public API for the GLSL reducer.
//
// This package is intended for programmatic use on a single shader whose
// interestingness is decided by a Go function. For shader jobs and
// external interestingness commands, see cmd/glsl-reduce.
package api

import (
	"context"
	"log/slog"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/astdiff"
	"github.com/HugoDaniel/glslreduce/internal/config"
	"github.com/HugoDaniel/glslreduce/internal/driver"
	"github.com/HugoDaniel/glslreduce/internal/parser"
	"github.com/HugoDaniel/glslreduce/internal/printer"
	"github.com/HugoDaniel/glslreduce/internal/reduce"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/simplify"
)

// ErrNotInteresting is returned by Reduce when the source itself is not
// interesting.
var ErrNotInteresting = driver.ErrNotInteresting

// ReduceOptions controls reduction behavior.
type ReduceOptions struct {
	// ReduceEverywhere allows reductions that change what the shader
	// computes. When false, only injected code is reduced.
	ReduceEverywhere bool

	// Seed makes runs repeatable.
	Seed int64

	// MaxSteps bounds the number of candidates tried. Zero means no bound.
	MaxSteps int

	// MaxPercentage and AggressionStep tune how many opportunities a
	// candidate takes. Zero keeps the defaults of 50 and 10.
	MaxPercentage  int
	AggressionStep int

	// Simplify removes injection macros and unused code from the result
	// when it stays interesting.
	Simplify bool

	// Kinds restricts the opportunity kinds by name, such as "stmt" or
	// "function". Empty means all.
	Kinds []string

	// LiteralPolicy is "text" (default) or "numeric".
	LiteralPolicy string

	// OutputDir, when set, receives the file of every step.
	OutputDir string

	// Logger receives one record per step. Nil discards them.
	Logger *slog.Logger
}

// ReduceResult contains the reduction output.
type ReduceResult struct {
	// Code is the reduced shader.
	Code string

	// Errors contains parse errors of the input. If non-empty, nothing was
	// reduced.
	Errors []string

	// OriginalNodes and ReducedNodes are the AST sizes before and after.
	OriginalNodes int
	ReducedNodes  int

	Steps     int
	Successes int

	// Incomplete is set when MaxSteps or cancellation stopped the run.
	Incomplete bool
}

// Reduce shrinks a fragment shader while interesting keeps returning true
// for the printed candidates.
func Reduce(ctx context.Context, source string, interesting func(code string) bool, opts ReduceOptions) (ReduceResult, error) {
	tu, errs := parse(source)
	if len(errs) > 0 {
		return ReduceResult{Errors: errs}, nil
	}
	settings, err := settingsFor(opts.ReduceEverywhere, opts.Kinds, opts.LiteralPolicy)
	if err != nil {
		return ReduceResult{}, err
	}
	settings.Seed = opts.Seed

	job := &shaderjob.Job{
		Stages:   []*shaderjob.Shader{{Kind: shaderjob.Fragment, TU: tu}},
		Uniforms: shaderjob.Uniforms{},
	}
	rctx := settings.Context()
	rctx.Version = reduce.VersionOf(tu)

	judge := driver.FuncJudge(func(j *shaderjob.Job) bool {
		return interesting(printer.String(j.Stages[0].TU))
	})
	d := driver.New(rctx, judge, driver.Options{
		OutputDir:      opts.OutputDir,
		MaxSteps:       opts.MaxSteps,
		MaxPercentage:  opts.MaxPercentage,
		AggressionStep: opts.AggressionStep,
		SimplifyFinal:  opts.Simplify,
		Logger:         opts.Logger,
	})
	originalNodes := job.NodeCount()
	res, err := d.Run(ctx, job, "shader")
	if err != nil {
		return ReduceResult{}, err
	}
	return ReduceResult{
		Code:          printer.String(res.Job.Stages[0].TU),
		OriginalNodes: originalNodes,
		ReducedNodes:  res.Job.NodeCount(),
		Steps:         res.Steps,
		Successes:     res.Successes,
		Incomplete:    res.Incomplete,
	}, nil
}

// ----------------------------------------------------------------------------
// Opportunity API
// ----------------------------------------------------------------------------

// FindOptions controls which opportunities Find counts.
type FindOptions struct {
	ReduceEverywhere bool
	Kinds            []string
	LiteralPolicy    string
}

// FindResult counts the reduction opportunities of a shader.
type FindResult struct {
	// Opportunities maps kind names to counts. Kinds without
	// opportunities are left out.
	Opportunities map[string]int `json:"opportunities"`

	// Errors contains any errors encountered during parsing.
	Errors []string `json:"errors,omitempty"`
}

// Find counts the reduction opportunities of a fragment shader by kind.
func Find(source string, opts FindOptions) (FindResult, error) {
	tu, errs := parse(source)
	if len(errs) > 0 {
		return FindResult{Errors: errs}, nil
	}
	settings, err := settingsFor(opts.ReduceEverywhere, opts.Kinds, opts.LiteralPolicy)
	if err != nil {
		return FindResult{}, err
	}
	rctx := settings.Context()
	rctx.Version = reduce.VersionOf(tu)
	job := &shaderjob.Job{
		Stages:   []*shaderjob.Shader{{Kind: shaderjob.Fragment, TU: tu}},
		Uniforms: shaderjob.Uniforms{},
	}

	result := FindResult{Opportunities: map[string]int{}}
	for _, op := range reduce.FindAll(job, rctx) {
		result.Opportunities[op.Kind().String()]++
	}
	return result, nil
}

// ----------------------------------------------------------------------------
// Simplification API
// ----------------------------------------------------------------------------

// SimplifyResult contains the simplified shader.
type SimplifyResult struct {
	Code   string   `json:"code"`
	Errors []string `json:"errors,omitempty"`

	// MacrosRemoved counts the injection macros replaced by their
	// arguments.
	MacrosRemoved int `json:"macrosRemoved"`

	// DeclarationsRemoved counts the unused functions and globals
	// removed.
	DeclarationsRemoved int `json:"declarationsRemoved"`
}

// Simplify removes injection macros and, unless keepUnused is set,
// functions and globals that main does not reach.
func Simplify(source string, keepUnused bool) SimplifyResult {
	tu, errs := parse(source)
	if len(errs) > 0 {
		return SimplifyResult{Errors: errs}
	}
	result := SimplifyResult{MacrosRemoved: simplify.EliminateMacros(tu)}
	if !keepUnused {
		result.DeclarationsRemoved = simplify.StripUnused(tu)
	}
	result.Code = printer.String(tu)
	return result
}

// ----------------------------------------------------------------------------
// Formatting API
// ----------------------------------------------------------------------------

// Format reprints a shader the way the reducer writes it. With minify set,
// unnecessary whitespace is removed.
func Format(source string, minify bool) (string, []string) {
	tu, errs := parse(source)
	if len(errs) > 0 {
		return "", errs
	}
	return printer.New(printer.Options{MinifyWhitespace: minify}).Print(tu), nil
}

// DiffResult describes how two shaders differ once printed.
type DiffResult struct {
	// Diff has one line per printed line, prefixed with "-", "+" or " ".
	// Empty when the shaders print the same.
	Diff    string   `json:"diff"`
	Removed int      `json:"removed"`
	Added   int      `json:"added"`
	Errors  []string `json:"errors,omitempty"`
}

// Diff compares two shaders after printing both.
func Diff(a, b string) DiffResult {
	ta, errs := parse(a)
	tb, errsB := parse(b)
	if errs = append(errs, errsB...); len(errs) > 0 {
		return DiffResult{Errors: errs}
	}
	d := astdiff.Compare(ta, tb)
	removed, added := d.Stats()
	result := DiffResult{Removed: removed, Added: added}
	if !d.Equal() {
		result.Diff = d.String()
	}
	return result
}

// parse converts parse errors to messages.
func parse(source string) (*ast.TranslationUnit, []string) {
	tu, perrs := parser.New(source).Parse()
	if len(perrs) == 0 {
		return tu, nil
	}
	errors := make([]string, len(perrs))
	for i, e := range perrs {
		errors[i] = e.Error()
	}
	return nil, errors
}

func settingsFor(everywhere bool, kinds []string, literals string) (config.Settings, error) {
	cfg := &config.Config{
		ReduceEverywhere: &everywhere,
		LiteralPolicy:    literals,
		Enabled:          kinds,
	}
	return cfg.Settings()
}
