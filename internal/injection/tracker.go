package injection

import (
	"github.com/HugoDaniel/glslreduce/internal/ast"
)

// SwitchStatus tracks where a traversal is inside an injected switch
// statement relative to the original code it wraps. By convention the
// original code starts at "case 0:" and ends at the first break after it.
type SwitchStatus uint8

const (
	// NotInjected marks a switch that is part of the original shader.
	NotInjected SwitchStatus = iota
	NoLabelYet
	BeforeOriginalCode
	InOriginalCode
	AfterOriginalCode
)

func (s SwitchStatus) String() string {
	switch s {
	case NotInjected:
		return "NOT_INJECTED"
	case NoLabelYet:
		return "NO_LABEL_YET"
	case BeforeOriginalCode:
		return "BEFORE_ORIGINAL_CODE"
	case InOriginalCode:
		return "IN_ORIGINAL_CODE"
	case AfterOriginalCode:
		return "AFTER_ORIGINAL_CODE"
	}
	return "UNKNOWN"
}

// OnCase returns the status after a case label. The label "case 0"
// enters the original code; any other first "case" label is before it.
// Default labels leave the status unchanged.
func (s SwitchStatus) OnCase(label ast.Stmt) SwitchStatus {
	if _, ok := label.(*ast.ExprCaseLabel); !ok || s == NotInjected {
		return s
	}
	if IsOriginalCodeLabel(label) {
		return InOriginalCode
	}
	if s == NoLabelYet {
		return BeforeOriginalCode
	}
	return s
}

// OnBreak returns the status after a break directly in the switch body.
func (s SwitchStatus) OnBreak() SwitchStatus {
	if s == InOriginalCode {
		return AfterOriginalCode
	}
	return s
}

// Unreachable reports whether code at this status never executes.
func (s SwitchStatus) Unreachable() bool {
	return s == BeforeOriginalCode || s == AfterOriginalCode
}

// IsOriginalCodeLabel reports whether label is "case 0:".
func IsOriginalCodeLabel(label ast.Stmt) bool {
	c, ok := label.(*ast.ExprCaseLabel)
	if !ok {
		return false
	}
	lit, ok := c.X.(*ast.IntLit)
	return ok && lit.Value == "0"
}

// ----------------------------------------------------------------------------
// Tracker
// ----------------------------------------------------------------------------

// Tracker is the per-traversal state answering whether the current program
// point is dead, under a fuzzed wrapper or under an unreachable case of an
// injected switch. The traversal reports what it enters and leaves.
type Tracker struct {
	fuzzed   int
	dead     int
	switches []SwitchStatus
}

// EnterFuzzedMacro records entering a _GLF_FUZZED call.
func (t *Tracker) EnterFuzzedMacro() { t.fuzzed++ }

// LeaveFuzzedMacro records leaving a _GLF_FUZZED call.
func (t *Tracker) LeaveFuzzedMacro() {
	if t.fuzzed > 0 {
		t.fuzzed--
	}
}

// UnderFuzzedMacro reports whether the current point is inside a
// _GLF_FUZZED call.
func (t *Tracker) UnderFuzzedMacro() bool { return t.fuzzed > 0 }

// EnterDeadCodeInjection records entering a branch of a dead-code
// injection.
func (t *Tracker) EnterDeadCodeInjection() { t.dead++ }

// LeaveDeadCodeInjection records leaving a branch of a dead-code
// injection.
func (t *Tracker) LeaveDeadCodeInjection() {
	if t.dead > 0 {
		t.dead--
	}
}

// EnclosedByDeadCodeInjection reports whether the current point is inside
// a dead-code injection.
func (t *Tracker) EnclosedByDeadCodeInjection() bool { return t.dead > 0 }

// EnterSwitch records entering a switch statement.
func (t *Tracker) EnterSwitch(s *ast.SwitchStmt) {
	status := NotInjected
	if IsSwitch(s.X) {
		status = NoLabelYet
	}
	t.switches = append(t.switches, status)
}

// LeaveSwitch records leaving the innermost switch statement.
func (t *Tracker) LeaveSwitch() {
	if n := len(t.switches); n > 0 {
		t.switches = t.switches[:n-1]
	}
}

// NotifyCase must be called before a case label of the innermost switch
// is visited.
func (t *Tracker) NotifyCase(label ast.Stmt) {
	if n := len(t.switches); n > 0 {
		t.switches[n-1] = t.switches[n-1].OnCase(label)
	}
}

// NotifyBreak must be called after a break directly in the body of the
// innermost switch is visited.
func (t *Tracker) NotifyBreak() {
	if n := len(t.switches); n > 0 {
		t.switches[n-1] = t.switches[n-1].OnBreak()
	}
}

// SwitchStatus returns the status of the innermost switch, or NotInjected
// outside any switch.
func (t *Tracker) SwitchStatus() SwitchStatus {
	if n := len(t.switches); n > 0 {
		return t.switches[n-1]
	}
	return NotInjected
}

// UnderUnreachableSwitchCase reports whether any enclosing injected
// switch is outside its original code.
func (t *Tracker) UnderUnreachableSwitchCase() bool {
	for _, s := range t.switches {
		if s.Unreachable() {
			return true
		}
	}
	return false
}

// IsDead reports whether the current point never executes, given whether
// the enclosing function is itself dead.
func (t *Tracker) IsDead(functionIsDead bool) bool {
	return t.EnclosedByDeadCodeInjection() || t.UnderUnreachableSwitchCase() || functionIsDead
}
