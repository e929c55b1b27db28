package reduce

import (
	"errors"
	"fmt"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

// InvariantError reports that an apply step met a tree its precondition
// should have excluded. It always points at a bug in the opportunity.
type InvariantError struct {
	Kind   Kind
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("reduce: %s: invariant violated: %s", e.Kind, e.Detail)
}

func invariant(k Kind, format string, args ...any) error {
	return &InvariantError{Kind: k, Detail: fmt.Sprintf(format, args...)}
}

// ErrChildNotFound is returned when an edit targets a parent that no
// longer holds the child it was found with.
var ErrChildNotFound = ast.ErrChildNotFound

// replace swaps child for repl under parent. A missing child is an
// invariant violation since every caller checks HasChild in its
// precondition.
func replace(k Kind, parent, child, repl ast.Node) error {
	if err := ast.ReplaceChild(parent, child, repl); err != nil {
		if errors.Is(err, ast.ErrChildNotFound) {
			return invariant(k, "%T no longer has the %T child", parent, child)
		}
		return invariant(k, "%v", err)
	}
	return nil
}

// InvalidReductionError is returned by a validating opportunity when its
// edit turned a valid job into an invalid one.
type InvalidReductionError struct {
	Kind   Kind
	Desc   string
	Before *shaderjob.Job
	After  *shaderjob.Job
	Err    error
}

func (e *InvalidReductionError) Error() string {
	return fmt.Sprintf("reduce: %s (%s) produced an invalid job: %v", e.Kind, e.Desc, e.Err)
}

func (e *InvalidReductionError) Unwrap() error { return e.Err }
