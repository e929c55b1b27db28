// Package shaderjob models the unit a reducer works on: one parsed
// translation unit per shader stage plus the pipeline metadata that
// describes the stage's uniforms.
//
// On disk a job is a JSON file of uniform metadata, "<prefix>.json", with
// the stages next to it as "<prefix>.vert", "<prefix>.frag" and
// "<prefix>.comp", and an optional "<prefix>.license".
package shaderjob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/parser"
	"github.com/HugoDaniel/glslreduce/internal/printer"
)

// StageKind identifies a pipeline stage.
type StageKind uint8

const (
	Vertex StageKind = iota
	Fragment
	Compute
)

// AllStages lists the stage kinds in the order jobs store them.
var AllStages = []StageKind{Vertex, Fragment, Compute}

// Ext returns the file extension of the stage, including the dot.
func (k StageKind) Ext() string {
	switch k {
	case Vertex:
		return ".vert"
	case Fragment:
		return ".frag"
	case Compute:
		return ".comp"
	}
	return ""
}

func (k StageKind) String() string {
	return strings.TrimPrefix(k.Ext(), ".")
}

// Shader is one stage of a job.
type Shader struct {
	Kind StageKind
	TU   *ast.TranslationUnit
}

// Job is a shader job.
type Job struct {
	Stages   []*Shader
	Uniforms Uniforms
	License  string
}

// ErrNoStages is returned by Read when no stage file exists for a prefix.
var ErrNoStages = errors.New("shaderjob: no shader stages found")

// Stage returns the shader of the given kind, or nil.
func (j *Job) Stage(kind StageKind) *Shader {
	for _, s := range j.Stages {
		if s.Kind == kind {
			return s
		}
	}
	return nil
}

// TranslationUnits returns the translation unit of every stage.
func (j *Job) TranslationUnits() []*ast.TranslationUnit {
	out := make([]*ast.TranslationUnit, len(j.Stages))
	for i, s := range j.Stages {
		out[i] = s.TU
	}
	return out
}

// Clone returns a deep copy of the job. Edits to the copy never reach the
// original.
func (j *Job) Clone() *Job {
	out := &Job{Uniforms: j.Uniforms.Clone(), License: j.License}
	for _, s := range j.Stages {
		out.Stages = append(out.Stages, &Shader{Kind: s.Kind, TU: ast.CloneTU(s.TU)})
	}
	return out
}

// NodeCount returns the number of AST nodes over all stages.
func (j *Job) NodeCount() int {
	n := 0
	for _, s := range j.Stages {
		n += ast.CountNodes(s.TU)
	}
	return n
}

// Hash returns a digest of the printed stages and the uniforms. Two jobs
// that print identically have the same hash.
func (j *Job) Hash() string {
	h := sha256.New()
	for _, s := range j.Stages {
		fmt.Fprintf(h, "%s\x00%s\x00", s.Kind, printer.String(s.TU))
	}
	if data, err := json.Marshal(j.Uniforms); err == nil {
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Prefix strips the .json extension from a job path.
func Prefix(path string) string {
	return strings.TrimSuffix(path, ".json")
}

// ----------------------------------------------------------------------------
// Reading and Writing
// ----------------------------------------------------------------------------

// Read loads the job whose metadata file is path. Stage files are parsed
// concurrently.
func Read(ctx context.Context, path string) (*Job, error) {
	prefix := Prefix(path)
	job := &Job{Uniforms: Uniforms{}}

	data, err := os.ReadFile(prefix + ".json")
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &job.Uniforms); err != nil {
			return nil, fmt.Errorf("shaderjob: decoding %s.json: %w", prefix, err)
		}
		if job.Uniforms == nil {
			job.Uniforms = Uniforms{}
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("shaderjob: %w", err)
	}

	if lic, err := os.ReadFile(prefix + ".license"); err == nil {
		job.License = string(lic)
	}

	var kinds []StageKind
	for _, k := range AllStages {
		if _, err := os.Stat(prefix + k.Ext()); err == nil {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoStages, prefix)
	}

	stages := make([]*Shader, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			file := prefix + kind.Ext()
			src, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("shaderjob: %w", err)
			}
			tu, err := parser.Parse(string(src))
			if perrs, ok := err.(parser.ParseErrors); ok {
				return fmt.Errorf("shaderjob: %w", perrs.In(file, string(src)))
			} else if err != nil {
				return fmt.Errorf("shaderjob: parsing %s: %w", file, err)
			}
			stages[i] = &Shader{Kind: kind, TU: tu}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	job.Stages = stages
	return job, nil
}

// Write stores the job under path, which names the metadata file. Stage
// files of kinds the job lacks are not touched.
func Write(job *Job, path string) error {
	prefix := Prefix(path)
	if dir := filepath.Dir(prefix); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("shaderjob: %w", err)
		}
	}
	data, err := json.MarshalIndent(job.Uniforms, "", "  ")
	if err != nil {
		return fmt.Errorf("shaderjob: encoding uniforms: %w", err)
	}
	if err := os.WriteFile(prefix+".json", append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("shaderjob: %w", err)
	}
	if job.License != "" {
		if err := os.WriteFile(prefix+".license", []byte(job.License), 0o644); err != nil {
			return fmt.Errorf("shaderjob: %w", err)
		}
	}
	for _, s := range job.Stages {
		if err := os.WriteFile(prefix+s.Kind.Ext(), []byte(printer.String(s.TU)), 0o644); err != nil {
			return fmt.Errorf("shaderjob: %w", err)
		}
	}
	return nil
}

// FromSource builds a single-stage job from shader source, for tools and
// tests that start from a lone shader file.
func FromSource(kind StageKind, source string) (*Job, error) {
	tu, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	return &Job{Stages: []*Shader{{Kind: kind, TU: tu}}, Uniforms: Uniforms{}}, nil
}

// StageKindOf returns the stage kind for a file name by its extension.
func StageKindOf(name string) (StageKind, bool) {
	ext := filepath.Ext(name)
	for _, k := range AllStages {
		if k.Ext() == ext {
			return k, true
		}
	}
	return 0, false
}
