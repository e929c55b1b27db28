package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

// Judge decides whether a candidate is still interesting. The candidate
// has already been written to disk under prefix, so "<prefix>.json" names
// its metadata file. A judge never fails: crashes and timeouts are
// verdicts.
type Judge interface {
	Interesting(ctx context.Context, job *shaderjob.Job, prefix string) bool
}

// FuncJudge adapts a function to a Judge.
type FuncJudge func(job *shaderjob.Job) bool

func (f FuncJudge) Interesting(_ context.Context, job *shaderjob.Job, _ string) bool {
	return f(job)
}

// CommandJudge runs an external command with the job's metadata file as
// its last argument. Exit status 0 means interesting.
type CommandJudge struct {
	Args    []string
	Timeout time.Duration
	Logger  *slog.Logger
}

func (c *CommandJudge) Interesting(ctx context.Context, _ *shaderjob.Job, prefix string) bool {
	if len(c.Args) == 0 {
		return false
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	args := append(c.Args[1:len(c.Args):len(c.Args)], prefix+".json")
	cmd := exec.CommandContext(ctx, c.Args[0], args...)
	cmd.WaitDelay = time.Second
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if err != nil {
		logger(c.Logger).Debug("judge rejected candidate",
			"prefix", prefix,
			"err", err,
			"timeout", errors.Is(ctx.Err(), context.DeadlineExceeded),
			"output", out.String())
		return false
	}
	return true
}

// ValidatorJudge accepts a candidate only when an external validator
// accepts every stage and the next judge finds it interesting.
type ValidatorJudge struct {
	Validator *CommandJudge
	Next      Judge
}

func (v *ValidatorJudge) Interesting(ctx context.Context, job *shaderjob.Job, prefix string) bool {
	if !v.Validator.Interesting(ctx, job, prefix) {
		return false
	}
	if v.Next == nil {
		return true
	}
	return v.Next.Interesting(ctx, job, prefix)
}

// CommandValidator checks jobs with an external validator, for use as a
// reduce.Validator when every opportunity is validated on its own.
type CommandValidator struct {
	Judge *CommandJudge
}

func (v *CommandValidator) Validate(job *shaderjob.Job) error {
	dir, err := os.MkdirTemp("", "glslreduce-validate-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "job")
	if err := shaderjob.Write(job, prefix+".json"); err != nil {
		return err
	}
	if !v.Judge.Interesting(context.Background(), job, prefix) {
		return fmt.Errorf("validator %q rejected the job", v.Judge.Args)
	}
	return nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
