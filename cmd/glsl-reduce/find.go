package main

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/HugoDaniel/glslreduce/internal/config"
	"github.com/HugoDaniel/glslreduce/internal/reduce"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

func newFindCmd(g *globals) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "find <job.json>",
		Short: "List the reduction opportunities of a shader job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, g, args[0], asJSON)
		},
	}
	f := cmd.Flags()
	f.Bool(config.FlagReduceEverywhere, false, "also count opportunities in code that was not injected")
	f.String(config.FlagLiteralPolicy, reduce.LiteralText.String(), "how folding recognizes zero and one (text|numeric)")
	f.StringSlice(config.FlagEnable, nil, "opportunity `kinds` to look for (default all)")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// opportunityCount is one row of the find report. Stage is "job" for
// opportunities that span every stage.
type opportunityCount struct {
	Stage string `json:"stage"`
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

func runFind(cmd *cobra.Command, g *globals, path string, asJSON bool) error {
	log := g.newLogger(cmd.ErrOrStderr())
	s, err := g.loadSettings(cmd, log)
	if err != nil {
		return err
	}
	job, err := shaderjob.Read(cmd.Context(), path)
	if err != nil {
		return err
	}
	rows, err := countOpportunities(cmd, s, job)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tKIND\tCOUNT")
	total := 0
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", r.Stage, r.Kind, r.Count)
		total += r.Count
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d opportunities\n", total)
	return nil
}

// countOpportunities runs the enabled finders over every stage
// concurrently. Each goroutine works on its own clone of the job and its
// own reducer context.
func countOpportunities(cmd *cobra.Command, s config.Settings, job *shaderjob.Job) ([]opportunityCount, error) {
	version := reduce.VersionOf(job.Stages[0].TU)
	newContext := func() *reduce.Context {
		ctx := s.Context()
		ctx.Version = version
		return ctx
	}

	var (
		mu   sync.Mutex
		rows []opportunityCount
	)
	add := func(stage string, f reduce.Finder, n int) {
		if n == 0 {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		rows = append(rows, opportunityCount{Stage: stage, Kind: f.Kind.String(), Count: n})
	}

	eg, ctx := errgroup.WithContext(cmd.Context())
	for i := range job.Stages {
		eg.Go(func() error {
			work := job.Clone()
			stage := work.Stages[i]
			rctx := newContext()
			for _, f := range reduce.Finders() {
				if err := ctx.Err(); err != nil {
					return err
				}
				if rctx.Enabled.Has(f.Kind) {
					add(stage.Kind.String(), f, len(f.FindStage(work, stage, rctx)))
				}
			}
			return nil
		})
	}
	eg.Go(func() error {
		work := job.Clone()
		rctx := newContext()
		for _, f := range reduce.Finders() {
			if !rctx.Enabled.Has(f.Kind) || f.PerStage() {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			add("job", f, len(f.Find(work, rctx)))
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(rows, func(a, b opportunityCount) int {
		return cmp.Or(cmp.Compare(a.Stage, b.Stage), cmp.Compare(a.Kind, b.Kind))
	})
	return rows, nil
}
