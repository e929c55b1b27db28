package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/HugoDaniel/glslreduce/internal/config"
	"github.com/HugoDaniel/glslreduce/internal/driver"
	"github.com/HugoDaniel/glslreduce/internal/reduce"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

func newReduceCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reduce <job.json>",
		Short: "Reduce a shader job while the interestingness test passes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReduce(cmd, g, args[0])
		},
	}
	def := config.DefaultSettings()
	f := cmd.Flags()
	f.StringP(config.FlagInterestingness, "i", "", "interestingness test `command`; the candidate's .json path is appended")
	f.StringP(config.FlagOutput, "o", "", "output `dir` for step and final files (default \".\")")
	f.Bool(config.FlagReduceEverywhere, false, "also reduce code that was not injected")
	f.Int(config.FlagMaxSteps, 0, "stop after `n` candidates (0 for no limit)")
	f.Int(config.FlagMaxPercentage, def.MaxPercentage, "largest share of opportunities a candidate takes")
	f.Int(config.FlagAggressionStep, def.AggressionStep, "percentage dropped after each uninteresting candidate")
	f.Int64(config.FlagSeed, 0, "random seed")
	f.Duration(config.FlagTimeout, 0, "time limit for each interestingness run (0 for none)")
	f.String(config.FlagValidator, "", "validator `command` every candidate must pass")
	f.Bool(config.FlagDebugValidate, false, "validate after every single opportunity and stop at the first invalid one")
	f.String(config.FlagLiteralPolicy, def.Literals.String(), "how folding recognizes zero and one (text|numeric)")
	f.String(config.FlagCache, "", "verdict cache `file` kept across runs")
	f.String(config.FlagMetrics, "", "write Prometheus metrics to `file` when done")
	f.Bool(config.FlagSimplifyFinal, def.SimplifyFinal, "remove injection macros and unused code from the final job")
	f.StringSlice(config.FlagEnable, nil, "opportunity `kinds` to use (default all)")
	return cmd
}

func runReduce(cmd *cobra.Command, g *globals, path string) error {
	log := g.newLogger(cmd.ErrOrStderr())
	ui, err := g.palette(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	s, err := g.loadSettings(cmd, log)
	if err != nil {
		return err
	}
	if len(s.Interestingness) == 0 {
		return errors.New("no interestingness test: pass --interestingness or set it in " + config.FileName)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job, err := shaderjob.Read(ctx, path)
	if err != nil {
		return err
	}

	rctx := s.Context()
	rctx.Version = reduce.VersionOf(job.Stages[0].TU)

	var judge driver.Judge = &driver.CommandJudge{Args: s.Interestingness, Timeout: s.Timeout, Logger: log}
	if len(s.Validator) > 0 {
		validator := &driver.CommandJudge{Args: s.Validator, Timeout: s.Timeout, Logger: log}
		if s.DebugValidate {
			rctx.Validator = &driver.CommandValidator{Judge: validator}
		} else {
			judge = &driver.ValidatorJudge{Validator: validator, Next: judge}
		}
	} else if s.DebugValidate {
		return errors.New("--debug-validate needs a validator command")
	}

	opts := driver.Options{
		OutputDir:      s.OutputDir,
		MaxSteps:       s.MaxSteps,
		MaxPercentage:  s.MaxPercentage,
		AggressionStep: s.AggressionStep,
		SimplifyFinal:  s.SimplifyFinal,
		Debug:          s.DebugValidate,
		Logger:         log,
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	var cache *driver.FileCache
	if s.CacheFile != "" {
		cache, err = driver.OpenFileCache(s.CacheFile)
		if err != nil {
			return err
		}
		opts.Cache = cache
	}
	if s.MetricsFile != "" {
		opts.Metrics = driver.NewMetrics()
	}

	variant := filepath.Base(shaderjob.Prefix(path))
	res, runErr := driver.New(rctx, judge, opts).Run(ctx, job, variant)

	// The cache and the metrics are worth keeping even when the run failed.
	if err := cache.Save(); err != nil {
		log.Warn("saving verdict cache", "path", s.CacheFile, "err", err)
	}
	if err := opts.Metrics.WriteFile(s.MetricsFile); err != nil {
		log.Warn("writing metrics", "path", s.MetricsFile, "err", err)
	}

	if runErr != nil {
		if errors.Is(runErr, driver.ErrNotInteresting) {
			ui.fail.Fprintf(cmd.OutOrStdout(), "%s is not interesting\n", path)
		}
		return runErr
	}
	return reportRun(cmd, ui, job, res)
}

func reportRun(cmd *cobra.Command, ui *palette, before *shaderjob.Job, res *driver.Result) error {
	w := cmd.OutOrStdout()
	status := ui.ok
	verb := "reduced"
	if res.Incomplete {
		status = ui.fail
		verb = "partially reduced"
	}
	status.Fprintf(w, "%s %d -> %d nodes", verb, before.NodeCount(), res.Job.NodeCount())
	fmt.Fprintf(w, " in %d steps (%d interesting)\n", res.Steps, res.Successes)
	ui.note.Fprintf(w, "final job: %s\n", res.Final)
	return nil
}
