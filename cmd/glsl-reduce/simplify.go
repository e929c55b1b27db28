package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/simplify"
)

func newSimplifyCmd(g *globals) *cobra.Command {
	var (
		output     string
		keepUnused bool
	)
	cmd := &cobra.Command{
		Use:   "simplify <job.json>",
		Short: "Remove injection macros and unused code from a shader job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New("missing output: pass -o <out.json>")
			}
			ui, err := g.palette(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			job, err := shaderjob.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := job.Clone()
			macros, decls := 0, 0
			for _, s := range out.Stages {
				macros += simplify.EliminateMacros(s.TU)
				if !keepUnused {
					decls += simplify.StripUnused(s.TU)
				}
			}
			if err := shaderjob.Write(out, output); err != nil {
				return err
			}
			ui.ok.Fprintf(cmd.OutOrStdout(), "wrote %s", output)
			ui.note.Fprintf(cmd.OutOrStdout(), " (%d macros, %d unused declarations removed)\n", macros, decls)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the simplified job to `file`")
	cmd.Flags().BoolVar(&keepUnused, "keep-unused", false, "only remove injection macros")
	return cmd
}
