// Package reduce finds and applies reduction opportunities: small edits
// that shrink a shader job while keeping it a valid shader.
//
// Opportunities are found by one traversal per kind over a snapshot of a
// translation unit and applied later, possibly after other opportunities
// from the same batch have already changed the tree. Every opportunity
// therefore carries a precondition that is checked when it is found and
// again immediately before it is applied:
//
//	for _, op := range batch {
//		if op.Precondition() {
//			if err := op.Apply(); err != nil {
//				...
//			}
//		}
//	}
package reduce

import (
	"cmp"
	"slices"
)

// Opportunity is one candidate edit. The concrete types are defined in this
// package; each holds the nodes it needs to find its target again.
type Opportunity interface {
	// Kind returns the category of the edit.
	Kind() Kind

	// Depth is the depth of the target node when the opportunity was
	// found. Deeper edits are tried first.
	Depth() int

	// Precondition reports whether the edit can still be applied. It has no
	// side effects.
	Precondition() bool

	// Apply performs the edit. It must only be called when Precondition
	// holds; an InvariantError means the precondition let through a tree
	// shape the edit cannot handle.
	Apply() error

	// String describes the edit for logs.
	String() string

	opportunity()
}

// base carries the fields every opportunity has.
type base struct {
	depth int
}

func (b base) Depth() int   { return b.depth }
func (base) opportunity() {}

// ApplyAll applies each opportunity whose precondition still holds, in
// order, and returns how many were applied. It stops at the first error.
func ApplyAll(ops []Opportunity) (int, error) {
	applied := 0
	for _, op := range ops {
		if !op.Precondition() {
			continue
		}
		if err := op.Apply(); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// SortByDepth orders opportunities deepest first. The sort is stable so
// that opportunities of equal depth keep discovery order.
func SortByDepth(ops []Opportunity) {
	slices.SortStableFunc(ops, func(a, b Opportunity) int {
		return cmp.Compare(b.Depth(), a.Depth())
	})
}
