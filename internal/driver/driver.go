package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/HugoDaniel/glslreduce/internal/reduce"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/simplify"
)

// ErrNotInteresting is returned by Run when the job it starts from is not
// interesting.
var ErrNotInteresting = errors.New("initial shader job is not interesting")

// NumInitialTries is how often the starting job is judged before the run
// gives up on it. Judges of flaky targets may need a few attempts.
const NumInitialTries = 5

// Marker files left in the output directory.
const (
	NotInterestingMarker = "NOT_INTERESTING"
	IncompleteMarker     = "REDUCTION_INCOMPLETE"
)

// Options configures a Driver. The zero value reduces with the default
// schedule, keeps no files and logs nothing.
type Options struct {
	// OutputDir receives the candidate of every step and the final job.
	// When empty the files go to a temporary directory that is removed
	// when Run returns.
	OutputDir string

	// MaxSteps bounds the number of candidates. Zero means no bound.
	MaxSteps int

	// MaxPercentage and AggressionStep configure the default schedule.
	MaxPercentage  int
	AggressionStep int

	// SimplifyFinal eliminates injection macros and unused declarations
	// from the final job when the result stays interesting.
	SimplifyFinal bool

	// Debug makes the run stop at the first opportunity that fails to
	// apply or, with a validator, leaves the job invalid.
	Debug bool

	// Plan replaces the default schedule.
	Plan Plan

	Cache   Cache
	Metrics *Metrics
	Logger  *slog.Logger
}

// Result describes a finished run.
type Result struct {
	RunID string

	// Job is the smallest interesting job found.
	Job *shaderjob.Job

	// Final is the metadata path of the final job, or "" when no output
	// directory was configured.
	Final string

	Steps      int
	Successes  int
	Incomplete bool
}

// Driver runs reductions.
type Driver struct {
	ctx   *reduce.Context
	judge Judge
	opts  Options
	log   *slog.Logger
}

// New returns a driver that reduces in ctx and asks judge about every
// candidate.
func New(ctx *reduce.Context, judge Judge, opts Options) *Driver {
	if opts.Cache == nil {
		opts.Cache = NewMemoryCache()
	}
	return &Driver{ctx: ctx, judge: judge, opts: opts, log: logger(opts.Logger)}
}

// Run reduces job and returns the smallest interesting job found. variant
// names the output files: "<variant>_reduced_0001_success.frag", ...,
// "<variant>_reduced_final.frag". Cancelling ctx stops the run after the
// current step; the result so far is kept and marked incomplete.
func (d *Driver) Run(ctx context.Context, job *shaderjob.Job, variant string) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	log := d.log.With("run", res.RunID, "variant", variant)

	dir := d.opts.OutputDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "glslreduce-*")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	if !d.initiallyInteresting(ctx, log, job, filepath.Join(dir, variant+"_initial")) {
		_ = touch(filepath.Join(dir, NotInterestingMarker), res.RunID)
		return nil, ErrNotInteresting
	}
	log.Info("initial job is interesting, reducing", "nodes", job.NodeCount())

	plan := d.opts.Plan
	if plan == nil {
		plan = NewSchedule(d.ctx, DefaultOrder, d.opts.MaxPercentage, d.opts.AggressionStep)
	}

	current := job
	accepted := map[string]bool{current.Hash(): true}
	d.opts.Metrics.size(current.NodeCount())

	for {
		if err := ctx.Err(); err != nil {
			log.Warn("reduction cancelled", "err", err)
			res.Incomplete = true
			break
		}
		if d.opts.MaxSteps > 0 && res.Steps >= d.opts.MaxSteps {
			log.Info("stopping at step limit", "max_steps", d.opts.MaxSteps)
			res.Incomplete = true
			break
		}

		candidate, err := plan.Next(current)
		if errors.Is(err, ErrNoMoreToReduce) {
			log.Info("no more to reduce")
			break
		}
		res.Steps++
		kind, pct, found := describe(plan)
		d.opts.Metrics.step(pct)

		if err != nil {
			if d.opts.Debug {
				return nil, fmt.Errorf("step %d: %w", res.Steps, err)
			}
			log.Warn("reduction step failed", "step", res.Steps, "kind", kind, "err", err)
			plan.Update(false)
			continue
		}

		prefix := filepath.Join(dir, stepName(variant, res.Steps))
		if err := shaderjob.Write(candidate, prefix+".json"); err != nil {
			return nil, err
		}
		interesting := d.interesting(ctx, candidate, prefix, accepted)
		if err := renameStep(dir, filepath.Base(prefix), verdictName(interesting)); err != nil {
			return nil, err
		}

		log.Info("step",
			"step", res.Steps,
			"kind", kind,
			"pct", pct,
			"opportunities", found,
			"interesting", interesting)

		plan.Update(interesting)
		if interesting {
			res.Successes++
			current = candidate
			accepted[current.Hash()] = true
			d.opts.Metrics.size(current.NodeCount())
		}
	}

	final, path, err := d.finish(ctx, log, current, dir, variant)
	if err != nil {
		return nil, err
	}
	res.Job = final
	if d.opts.OutputDir != "" {
		res.Final = path
		if res.Incomplete {
			if err := touch(filepath.Join(dir, IncompleteMarker), res.RunID); err != nil {
				return nil, err
			}
		}
	}
	log.Info("reduction finished",
		"steps", res.Steps,
		"successes", res.Successes,
		"nodes", final.NodeCount(),
		"incomplete", res.Incomplete)
	return res, nil
}

func (d *Driver) initiallyInteresting(ctx context.Context, log *slog.Logger, job *shaderjob.Job, prefix string) bool {
	if err := shaderjob.Write(job, prefix+".json"); err != nil {
		log.Error("writing initial job", "err", err)
		return false
	}
	for i := 1; i <= NumInitialTries; i++ {
		if d.judge.Interesting(ctx, job, prefix) {
			d.opts.Cache.Store(job.Hash(), true)
			return true
		}
		log.Info("initial job is not interesting", "attempt", i)
		if ctx.Err() != nil {
			return false
		}
	}
	return false
}

// interesting judges a candidate, consulting the cache first. A candidate
// identical to a job already accepted in this run would only send the
// reduction round in a loop, so it is rejected without asking.
func (d *Driver) interesting(ctx context.Context, job *shaderjob.Job, prefix string, accepted map[string]bool) bool {
	hash := job.Hash()
	if accepted[hash] {
		d.log.Debug("candidate repeats an accepted job", "prefix", prefix)
		d.opts.Metrics.verdict(false, true)
		return false
	}
	if v, ok := d.opts.Cache.Lookup(hash); ok {
		d.opts.Metrics.verdict(v, true)
		return v
	}
	v := d.judge.Interesting(ctx, job, prefix)
	if ctx.Err() == nil {
		d.opts.Cache.Store(hash, v)
	}
	d.opts.Metrics.verdict(v, false)
	return v
}

// finish writes the final job, simplified when that keeps it interesting.
func (d *Driver) finish(ctx context.Context, log *slog.Logger, job *shaderjob.Job, dir, variant string) (*shaderjob.Job, string, error) {
	prefix := filepath.Join(dir, variant+"_reduced_final")
	path := prefix + ".json"
	if d.opts.SimplifyFinal {
		simplified := simplify.Job(job)
		if err := shaderjob.Write(simplified, path); err != nil {
			return nil, "", err
		}
		if d.judge.Interesting(context.WithoutCancel(ctx), simplified, prefix) {
			return simplified, path, nil
		}
		log.Info("simplified job is not interesting, keeping the reduced job")
	}
	if err := shaderjob.Write(job, path); err != nil {
		return nil, "", err
	}
	return job, path, nil
}

// describe reports what the plan is currently doing, for logs.
func describe(p Plan) (kind string, pct, found int) {
	var sp *SimplePlan
	switch p := p.(type) {
	case *Schedule:
		sp = p.Current()
	case *SimplePlan:
		sp = p
	}
	if sp == nil {
		return "", 0, 0
	}
	return sp.Kind().String(), sp.Percentage(), sp.found
}

func stepName(variant string, step int) string {
	return fmt.Sprintf("%s_reduced_%04d", variant, step)
}

func verdictName(interesting bool) string {
	if interesting {
		return "success"
	}
	return "fail"
}

// renameStep appends "_<suffix>" to the base name of every file in dir
// named "<base>.<ext>".
func renameStep(dir, base, suffix string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		ext := filepath.Ext(name)
		if strings.TrimSuffix(name, ext) != base {
			continue
		}
		if err := os.Rename(filepath.Join(dir, name), filepath.Join(dir, base+"_"+suffix+ext)); err != nil {
			return err
		}
	}
	return nil
}

func touch(path, content string) error {
	return os.WriteFile(path, []byte(content+"\n"), 0o644)
}

// StepOf parses the step number out of a step file name such as
// "shader_reduced_0042_success.frag".
func StepOf(name string) (int, bool) {
	_, rest, ok := strings.Cut(name, "_reduced_")
	if !ok || len(rest) < 4 {
		return 0, false
	}
	digits := rest[:4]
	if strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, false
	}
	step, err := strconv.Atoi(digits)
	return step, err == nil
}
