// Package injection recognizes the code a shader fuzzer injects: the
// naming conventions of injected variables, functions, structs and split
// loops, the opaque wrapper macros, and which regions of a translation unit
// are dead, live-injected or unreachable.
package injection

import (
	"regexp"
	"strconv"
	"strings"
)

// Naming conventions of injected code.
const (
	LivePrefix        = "GLF_live"
	DeadPrefix        = "GLF_dead"
	LoopLimiter       = "looplimiter"
	StructPrefix      = "_GLF_struct_"
	StructReplacement = "_GLF_struct_replacement_"
	FieldPrefix       = "_f"
	OutlinedPrefix    = "_GLF_outlined_"
	MergedPrefix      = "GLF_merged"
	SplitLoopPrefix   = "_GLF_SPLIT_LOOP_COUNTER"
	InjectionSwitch   = "injectionSwitch"
	OutVarBackup      = "_GLF_outVarBackup"
)

// IsLiveInjected reports whether name belongs to a live-injected variable.
func IsLiveInjected(name string) bool {
	return strings.HasPrefix(name, LivePrefix)
}

// IsLoopLimiter reports whether name is a loop limiter: a live-injected
// variable whose name contains "looplimiter".
func IsLoopLimiter(name string) bool {
	return IsLiveInjected(name) && strings.Contains(name, LoopLimiter)
}

// IsDeadFunction reports whether name is a function that is only ever
// called from dead code.
func IsDeadFunction(name string) bool {
	return strings.HasPrefix(name, DeadPrefix)
}

// IsStructified reports whether name is a struct introduced by
// structification.
func IsStructified(name string) bool {
	return strings.HasPrefix(name, StructPrefix)
}

// IsStructifiedField reports whether name is a field of a structified
// struct.
func IsStructifiedField(name string) bool {
	return strings.HasPrefix(name, FieldPrefix)
}

// IsOutlined reports whether name is a function introduced by outlining a
// statement.
func IsOutlined(name string) bool {
	return strings.HasPrefix(name, OutlinedPrefix)
}

// ----------------------------------------------------------------------------
// Split Loops
// ----------------------------------------------------------------------------

// Both "_GLF_SPLIT_LOOP_COUNTER_3i" and "GLF_SPLIT_3_i" are accepted.
var splitLoopRe = regexp.MustCompile(`^_?GLF_SPLIT(?:_LOOP_COUNTER)?_(\d+)_?(.+)$`)

// ParseSplitLoopCounter splits a loop counter introduced by loop
// splitting into its id and the original counter name.
func ParseSplitLoopCounter(name string) (id int, original string, ok bool) {
	m := splitLoopRe.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return id, m[2], true
}

// IsSplitLoopCounter reports whether name is a split loop counter.
func IsSplitLoopCounter(name string) bool {
	_, _, ok := ParseSplitLoopCounter(name)
	return ok
}

// ----------------------------------------------------------------------------
// Vectorization
// ----------------------------------------------------------------------------

// MergedComponent is one scalar or vector folded into a merged vector: it
// occupies Width components starting at Offset.
type MergedComponent struct {
	Name   string
	Offset int
	Width  int
}

// Full form: GLF_merged<n>(_<offset>_<width>_<name length>)*<names>, the
// names concatenated without separators.
var mergedFullRe = regexp.MustCompile(`^` + MergedPrefix + `(\d+)((?:_\d+_\d+_\d+)+)(\D.*)$`)

// Short form: GLF_merged<n>(_<offset>)*_<name>(_<name>)*, every component
// a scalar.
var mergedShortRe = regexp.MustCompile(`^` + MergedPrefix + `(\d+)((?:_\d+)+)_(\D.*)$`)

// IsMerged reports whether name is a vector produced by vectorization.
func IsMerged(name string) bool {
	return strings.HasPrefix(name, MergedPrefix)
}

// ParseMerged decodes the name of a vector produced by vectorization into
// the variables it holds.
func ParseMerged(name string) ([]MergedComponent, bool) {
	if m := mergedFullRe.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		nums := splitNums(m[2])
		if n == 0 || len(nums) < 3*n {
			return nil, false
		}
		names := m[3]
		out := make([]MergedComponent, n)
		for i := range out {
			length := nums[3*i+2]
			if length <= 0 || length > len(names) {
				return nil, false
			}
			out[i] = MergedComponent{Name: names[:length], Offset: nums[3*i], Width: nums[3*i+1]}
			names = names[length:]
		}
		return out, true
	}
	if m := mergedShortRe.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		nums := splitNums(m[2])
		if n == 0 || len(nums) != n {
			return nil, false
		}
		names, ok := splitNames(m[3], n)
		if !ok {
			return nil, false
		}
		out := make([]MergedComponent, n)
		for i := range out {
			out[i] = MergedComponent{Name: names[i], Offset: nums[i], Width: 1}
		}
		return out, true
	}
	return nil, false
}

func splitNums(s string) []int {
	var out []int
	for _, part := range strings.Split(strings.TrimPrefix(s, "_"), "_") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil
		}
		out = append(out, n)
	}
	return out
}

// splitNames splits s into count names at underscores. The last name
// takes whatever is left so that it may itself contain underscores.
func splitNames(s string, count int) ([]string, bool) {
	parts := strings.SplitN(s, "_", count)
	if len(parts) != count {
		return nil, false
	}
	for _, p := range parts {
		if p == "" {
			return nil, false
		}
	}
	return parts, true
}
