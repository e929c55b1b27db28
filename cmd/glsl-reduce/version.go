package main

import (
	"fmt"
	"runtime/debug"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/HugoDaniel/glslreduce/internal/reduce"
)

type versionPayload struct {
	Tool    string   `json:"tool"`
	Version string   `json:"version"`
	Commit  string   `json:"commit"`
	Go      string   `json:"go,omitempty"`
	Kinds   []string `json:"kinds,omitempty"`
}

func newVersionCmd(g *globals) *cobra.Command {
	var (
		format    string
		showKinds bool
	)
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := versionPayload{Tool: "glsl-reduce", Version: version, Commit: commit}
			if info, ok := debug.ReadBuildInfo(); ok {
				payload.Go = info.GoVersion
			}
			if showKinds {
				for _, k := range reduce.AllKindSet.Kinds() {
					payload.Kinds = append(payload.Kinds, k.String())
				}
			}

			w := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			case "pretty", "":
			default:
				return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
			}

			ui, err := g.palette(w)
			if err != nil {
				return err
			}
			ui.ok.Fprintf(w, "glsl-reduce v%s", payload.Version)
			fmt.Fprintf(w, " (%s)\n", payload.Commit)
			if payload.Go != "" {
				ui.note.Fprintf(w, "built with %s\n", payload.Go)
			}
			if showKinds {
				fmt.Fprintf(w, "opportunity kinds: %s\n", strings.Join(payload.Kinds, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json)")
	cmd.Flags().BoolVar(&showKinds, "kinds", false, "list the opportunity kinds")
	return cmd
}
