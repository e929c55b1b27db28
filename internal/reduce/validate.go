package reduce

import (
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

// Validator checks that a job is still a valid shader job.
type Validator interface {
	Validate(job *shaderjob.Job) error
}

// ValidatorFunc adapts a function to a Validator.
type ValidatorFunc func(job *shaderjob.Job) error

func (f ValidatorFunc) Validate(job *shaderjob.Job) error { return f(job) }

// checked wraps an opportunity and validates the job after every apply.
type checked struct {
	Opportunity
	job *shaderjob.Job
	v   Validator
}

// CheckValid wraps op so that Apply validates job afterwards. A failed
// validation is returned as an InvalidReductionError carrying copies of
// the job from before and after the edit.
func CheckValid(op Opportunity, job *shaderjob.Job, v Validator) Opportunity {
	return &checked{Opportunity: op, job: job, v: v}
}

func (c *checked) Apply() error {
	before := c.job.Clone()
	if err := c.Opportunity.Apply(); err != nil {
		return err
	}
	if err := c.v.Validate(c.job); err != nil {
		return &InvalidReductionError{
			Kind:   c.Kind(),
			Desc:   c.String(),
			Before: before,
			After:  c.job.Clone(),
			Err:    err,
		}
	}
	return nil
}

// Unwrap returns the opportunity a validating wrapper decorates.
func Unwrap(op Opportunity) Opportunity {
	if c, ok := op.(*checked); ok {
		return c.Opportunity
	}
	return op
}
