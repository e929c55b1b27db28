// Package driver runs a reduction: it repeatedly asks a plan for a smaller
// candidate job, asks a judge whether the candidate is still interesting,
// and keeps the candidate when it is.
package driver

import (
	"errors"
	"math"
	"slices"

	"github.com/HugoDaniel/glslreduce/internal/reduce"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

// ErrNoMoreToReduce is returned by Plan.Next when the plan has no further
// candidates to offer.
var ErrNoMoreToReduce = errors.New("no more to reduce")

// Plan proposes candidate jobs. After each candidate the driver reports
// the verdict with Update before asking for the next one.
type Plan interface {
	// Next returns a reduced copy of job. The job itself is not modified.
	Next(job *shaderjob.Job) (*shaderjob.Job, error)

	// Update records whether the last candidate was interesting.
	Update(interesting bool)

	// Replenish prepares an exhausted plan for a later round.
	Replenish()
}

// Defaults of SimplePlan.
const (
	DefaultMaxPercentage  = 50
	DefaultAggressionStep = 10
)

// ----------------------------------------------------------------------------
// Percentage Plan
// ----------------------------------------------------------------------------

// SimplePlan applies a percentage of the opportunities of one kind at a
// time. The percentage starts at MaxPercentage and drops by
// AggressionStep after every uninteresting candidate.
type SimplePlan struct {
	ctx    *reduce.Context
	finder reduce.Finder

	MaxPercentage  int
	AggressionStep int

	percentage int
	replenish  int
	found      int

	// history holds the indices, in the depth-sorted list, of the
	// opportunities taken first by candidates that were not interesting.
	history []int
}

// NewSimplePlan returns a plan over the opportunities of kind k.
func NewSimplePlan(ctx *reduce.Context, k reduce.Kind) *SimplePlan {
	f, _ := reduce.FinderFor(k)
	return &SimplePlan{
		ctx:            ctx,
		finder:         f,
		MaxPercentage:  DefaultMaxPercentage,
		AggressionStep: DefaultAggressionStep,
		percentage:     DefaultMaxPercentage,
	}
}

// Kind returns the kind of opportunity the plan applies.
func (p *SimplePlan) Kind() reduce.Kind { return p.finder.Kind }

// Percentage returns the share of opportunities the next candidate takes.
func (p *SimplePlan) Percentage() int { return p.percentage }

func (p *SimplePlan) Update(interesting bool) {
	if interesting {
		p.history = p.history[:0]
		return
	}
	p.percentage = max(0, p.percentage-p.AggressionStep)
}

func (p *SimplePlan) Replenish() {
	p.replenish++
	p.percentage = p.MaxPercentage
	for range p.replenish {
		p.percentage /= 2
	}
	p.percentage = max(p.percentage, 1)
}

func (p *SimplePlan) Next(job *shaderjob.Job) (*shaderjob.Job, error) {
	pct := p.percentage
	for {
		work := job.Clone()
		ok, err := p.attempt(work, pct)
		if err != nil {
			return nil, err
		}
		if ok {
			return work, nil
		}
		if p.found == 0 {
			return nil, ErrNoMoreToReduce
		}
		pct /= 2
		if pct <= 0 {
			return nil, ErrNoMoreToReduce
		}
		p.history = p.history[:0]
	}
}

func (p *SimplePlan) find(job *shaderjob.Job) []reduce.Opportunity {
	return find(p.finder, job, p.ctx)
}

// find returns the opportunities of f in job, validated after every apply
// when ctx has a validator.
func find(f reduce.Finder, job *shaderjob.Job, ctx *reduce.Context) []reduce.Opportunity {
	ops := f.Find(job, ctx)
	if ctx.Validator != nil {
		for i, op := range ops {
			ops[i] = reduce.CheckValid(op, job, ctx.Validator)
		}
	}
	return ops
}

// attempt applies pct percent of the opportunities in job. It reports
// false when there is nothing left to take.
func (p *SimplePlan) attempt(job *shaderjob.Job, pct int) (bool, error) {
	ops := p.find(job)
	reduce.SortByDepth(ops)
	p.found = len(ops)

	var options []int
	for i := range ops {
		if !slices.Contains(p.history, i) {
			options = append(options, i)
		}
	}
	if len(options) == 0 {
		return false, nil
	}

	want := opportunitiesToTake(len(ops), pct)
	taken := 0
	for taken < want && len(options) > 0 {
		i := options[p.skewed(len(options))]
		op := ops[i]
		if op.Precondition() {
			if err := op.Apply(); err != nil {
				return false, err
			}
		}
		taken++
		p.history = append(p.history, i)
		options = slices.DeleteFunc(options, func(j int) bool {
			return j == i || !reduce.Compatible(op.Kind(), ops[j].Kind())
		})
	}

	// Opportunities dropped as incompatible are found again on the edited
	// job and taken one at a time.
	for ; taken < want; taken++ {
		fresh := p.find(job)
		if len(fresh) == 0 {
			break
		}
		op := fresh[p.ctx.Rand.Intn(len(fresh))]
		if err := op.Apply(); err != nil {
			return false, err
		}
	}
	return true, nil
}

// skewed returns an index below n, favouring small indices, which are the
// deepest opportunities.
func (p *SimplePlan) skewed(n int) int {
	i := int(float64(n) * (1 - math.Sqrt(p.ctx.Rand.Float64())))
	return min(i, n-1)
}

func opportunitiesToTake(n, pct int) int {
	if pct == 0 {
		return 1
	}
	return max(1, int(math.Ceil(float64(pct)*float64(n)/100)))
}

// ----------------------------------------------------------------------------
// Systematic Pass
// ----------------------------------------------------------------------------

// SystematicPass tries the opportunities of one kind in consecutive
// chunks, halving the chunk size each time it runs off the end of the
// list, until single opportunities have been tried.
type SystematicPass struct {
	ctx            *reduce.Context
	finder         reduce.Finder
	maxGranularity int

	initialized bool
	index       int
	granularity int
}

// NewSystematicPass returns a pass over the opportunities of kind k. A
// maxGranularity of zero means unbounded.
func NewSystematicPass(ctx *reduce.Context, k reduce.Kind, maxGranularity int) *SystematicPass {
	f, _ := reduce.FinderFor(k)
	if maxGranularity <= 0 {
		maxGranularity = math.MaxInt
	}
	return &SystematicPass{ctx: ctx, finder: f, maxGranularity: maxGranularity}
}

func (s *SystematicPass) Next(job *shaderjob.Job) (*shaderjob.Job, error) {
	work := job.Clone()
	ops := find(s.finder, work, s.ctx)
	reduce.SortByDepth(ops)

	if !s.initialized {
		s.initialized = true
		s.index = 0
		s.granularity = min(s.maxGranularity, max(1, len(ops)))
	}
	if s.index >= len(ops) {
		s.index = 0
		s.granularity = max(1, s.granularity/2)
		return nil, ErrNoMoreToReduce
	}
	end := min(s.index+s.granularity, len(ops))
	if _, err := reduce.ApplyAll(ops[s.index:end]); err != nil {
		return nil, err
	}
	return work, nil
}

func (s *SystematicPass) Update(interesting bool) {
	if !interesting {
		s.index += s.granularity
	}
}

func (s *SystematicPass) Replenish() {}

// ReachedMinimumGranularity reports whether the pass is trying single
// opportunities.
func (s *SystematicPass) ReachedMinimumGranularity() bool {
	return s.initialized && s.granularity == 1
}

// ----------------------------------------------------------------------------
// Pass Schedule
// ----------------------------------------------------------------------------

// MaxStepsPerPass bounds how many candidates one plan of a Schedule may
// propose before the next plan gets a turn.
const MaxStepsPerPass = 200

// DefaultOrder is the order in which a Schedule visits opportunity kinds.
// Function removal recurs because other passes keep making functions
// unused.
var DefaultOrder = []reduce.Kind{
	reduce.KindVectorization,
	reduce.KindIdentityMutation,
	reduce.KindUnswitchify,
	reduce.KindStmt,
	reduce.KindFunction,
	reduce.KindExprToConstant,
	reduce.KindFunction,
	reduce.KindCompoundExprToSubExpr,
	reduce.KindFunction,
	reduce.KindLoopMerge,
	reduce.KindCompoundToBlock,
	reduce.KindCompoundToGuard,
	reduce.KindFlattenControlFlow,
	reduce.KindSwitchToLoop,
	reduce.KindInlineInitializer,
	reduce.KindOutlinedStatement,
	reduce.KindUnwrap,
	reduce.KindRemoveStructField,
	reduce.KindDestructify,
	reduce.KindInlineStructifiedField,
	reduce.KindUnusedStruct,
	reduce.KindLiveOutputWrite,
	reduce.KindInlineFunction,
	reduce.KindFunction,
	reduce.KindVariableDecl,
	reduce.KindGlobalVariablesDeclaration,
	reduce.KindVariableDeclToExpr,
	reduce.KindGlobalVariableDeclToExpr,
	reduce.KindUnusedParam,
	reduce.KindFoldConstant,
	reduce.KindInlineUniform,
	reduce.KindRedundantUniformMetadata,
	reduce.KindSimplifySwizzle,
	reduce.KindRemoveSwizzle,
	reduce.KindLiteralToUniform,
}

// Schedule runs one SimplePlan per kind in turn. A full round in which no
// plan produced an interesting candidate ends the reduction.
type Schedule struct {
	plans    []*SimplePlan
	index    int
	steps    int
	progress bool
	rounds   int
}

// NewSchedule returns a schedule over the kinds of order enabled in ctx.
func NewSchedule(ctx *reduce.Context, order []reduce.Kind, maxPercentage, aggressionStep int) *Schedule {
	s := &Schedule{}
	for _, k := range order {
		if !ctx.Enabled.Has(k) {
			continue
		}
		p := NewSimplePlan(ctx, k)
		if maxPercentage > 0 {
			p.MaxPercentage = maxPercentage
			p.percentage = maxPercentage
		}
		if aggressionStep > 0 {
			p.AggressionStep = aggressionStep
		}
		s.plans = append(s.plans, p)
	}
	return s
}

// Current returns the plan that proposes the next candidate.
func (s *Schedule) Current() *SimplePlan {
	if len(s.plans) == 0 {
		return nil
	}
	return s.plans[s.index]
}

// Rounds returns the number of completed rounds over every plan.
func (s *Schedule) Rounds() int { return s.rounds }

func (s *Schedule) Update(interesting bool) {
	if interesting {
		s.progress = true
	}
	if p := s.Current(); p != nil {
		p.Update(interesting)
	}
}

func (s *Schedule) Replenish() {}

func (s *Schedule) Next(job *shaderjob.Job) (*shaderjob.Job, error) {
	if len(s.plans) == 0 {
		return nil, ErrNoMoreToReduce
	}
	for {
		if s.steps < MaxStepsPerPass {
			out, err := s.Current().Next(job)
			if err == nil {
				s.steps++
				return out, nil
			}
			if !errors.Is(err, ErrNoMoreToReduce) {
				return nil, err
			}
			s.Current().Replenish()
		}
		s.index++
		s.steps = 0
		if s.index == len(s.plans) {
			if !s.progress {
				return nil, ErrNoMoreToReduce
			}
			s.rounds++
			s.index = 0
			s.progress = false
		}
	}
}
