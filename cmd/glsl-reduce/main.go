// Command glsl-reduce shrinks GLSL shader jobs while an interestingness
// test keeps passing.
//
// Usage:
//
//	glsl-reduce reduce <job.json> --interestingness <cmd> [options]
//	glsl-reduce find <job.json> [--reduce-everywhere]
//	glsl-reduce simplify <job.json> -o <out.json>
//	glsl-reduce diff <a> <b>
//	glsl-reduce version
//
// A shader job is a metadata file job.json next to stage files job.vert,
// job.frag and job.comp. The interestingness command is run with the
// metadata file of each candidate as its last argument; exit status 0
// means the candidate is interesting.
//
// Config file:
//
//	glsl-reduce looks for glslreduce.toml in the current directory and
//	parent directories. Config file options are overridden by CLI flags.
//
// Example glslreduce.toml:
//
//	interestingness = "./still-crashes.sh"
//	timeout = "30s"
//	max_steps = 2000
//	enabled = ["stmt", "function", "identity-mutation"]
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	os.Exit(Main())
}

// Main runs the command line and returns the exit status.
func Main() int {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.Execute()
}

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	verbose    bool
	quiet      bool
	color      string
	configFile string
	noConfig   bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "glsl-reduce",
		Short:         "Reduce GLSL shader jobs to minimal interesting test cases",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log every reduction step")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "only log warnings and errors")
	pf.StringVar(&g.color, "color", "auto", "colorize output (auto|on|off)")
	pf.StringVar(&g.configFile, "config", "", "use a specific config `file`")
	pf.BoolVar(&g.noConfig, "no-config", false, "ignore config files")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")
	root.MarkFlagsMutuallyExclusive("config", "no-config")

	root.AddCommand(
		newReduceCmd(g),
		newFindCmd(g),
		newSimplifyCmd(g),
		newDiffCmd(g),
		newVersionCmd(g),
	)
	return root
}
