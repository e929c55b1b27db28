package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/HugoDaniel/glslreduce/internal/config"
)

// newLogger returns a text logger on w at the level chosen by --verbose
// and --quiet.
func (g *globals) newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case g.verbose:
		level = slog.LevelDebug
	case g.quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// useColor decides whether output to w is colorized.
func (g *globals) useColor(w io.Writer) (bool, error) {
	switch g.color {
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	case "auto", "":
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == "", nil
	}
	return false, fmt.Errorf("--color must be auto, on or off, got %q", g.color)
}

// palette prints status lines.
type palette struct {
	ok, fail, note *color.Color
}

func (g *globals) palette(w io.Writer) (*palette, error) {
	on, err := g.useColor(w)
	if err != nil {
		return nil, err
	}
	p := &palette{
		ok:   color.New(color.FgGreen, color.Bold),
		fail: color.New(color.FgRed, color.Bold),
		note: color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.ok, p.fail, p.note} {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p, nil
}

// loadSettings resolves the config file, if any, and the flags of cmd.
func (g *globals) loadSettings(cmd *cobra.Command, log *slog.Logger) (config.Settings, error) {
	var cfg *config.Config
	switch {
	case g.configFile != "":
		c, err := config.LoadFile(g.configFile)
		if err != nil {
			return config.Settings{}, err
		}
		cfg = c
	case !g.noConfig:
		c, path, err := config.Load(".")
		if err != nil {
			return config.Settings{}, err
		}
		if c != nil {
			log.Debug("using config file", "path", path)
		}
		cfg = c
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	if err := cfg.Merge(cmd.Flags()); err != nil {
		return config.Settings{}, err
	}
	return cfg.Settings()
}
