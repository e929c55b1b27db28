package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/astdiff"
	"github.com/HugoDaniel/glslreduce/internal/parser"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

func newDiffCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <a> <b>",
		Short: "Show how two shaders or shader jobs differ once printed",
		Long: `Show how two shaders or shader jobs differ once printed.

Both arguments are shader files (.vert, .frag, .comp) or both are job
metadata files (.json). Formatting differences are ignored because both
sides are parsed and printed the same way.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ui, err := g.palette(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			report, err := diffFiles(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if report == "" {
				ui.note.Fprintln(w, "no differences")
				return nil
			}
			for line := range strings.Lines(report) {
				switch line[0] {
				case '-':
					ui.fail.Fprint(w, line)
				case '+':
					ui.ok.Fprint(w, line)
				default:
					fmt.Fprint(w, line)
				}
			}
			return nil
		},
	}
}

func diffFiles(cmd *cobra.Command, a, b string) (string, error) {
	isJob := func(p string) bool { return filepath.Ext(p) == ".json" }
	if isJob(a) != isJob(b) {
		return "", fmt.Errorf("cannot compare %s with %s: both must be shaders or both jobs", a, b)
	}
	if isJob(a) {
		ja, err := shaderjob.Read(cmd.Context(), a)
		if err != nil {
			return "", err
		}
		jb, err := shaderjob.Read(cmd.Context(), b)
		if err != nil {
			return "", err
		}
		return astdiff.ReportJobs(ja, jb), nil
	}

	ta, err := parseFile(a)
	if err != nil {
		return "", err
	}
	tb, err := parseFile(b)
	if err != nil {
		return "", err
	}
	return astdiff.Report(ta, tb), nil
}

func parseFile(path string) (*ast.TranslationUnit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tu, err := parser.Parse(string(src))
	if perrs, ok := err.(parser.ParseErrors); ok {
		return nil, perrs.In(path, string(src))
	} else if err != nil {
		return nil, err
	}
	return tu, nil
}
