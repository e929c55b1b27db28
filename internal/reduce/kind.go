package reduce

import (
	"fmt"
	"math/bits"
	"strings"
)

// Kind identifies a category of reduction opportunity. Every finder
// produces opportunities of exactly one kind.
type Kind uint8

const (
	KindStmt Kind = iota
	KindCompoundToBlock
	KindCompoundToGuard
	KindFlattenControlFlow
	KindExprToConstant
	KindCompoundExprToSubExpr
	KindFoldConstant
	KindIdentityMutation
	KindVariableDecl
	KindGlobalVariablesDeclaration
	KindVariableDeclToExpr
	KindGlobalVariableDeclToExpr
	KindFunction
	KindUnusedStruct
	KindUnusedParam
	KindInlineFunction
	KindInlineInitializer
	KindLoopMerge
	KindDestructify
	KindInlineStructifiedField
	KindRemoveStructField
	KindOutlinedStatement
	KindVectorization
	KindUnswitchify
	KindSwitchToLoop
	KindUnwrap
	KindRedundantUniformMetadata
	KindInlineUniform
	KindLiteralToUniform
	KindLiveOutputWrite
	KindSimplifySwizzle
	KindRemoveSwizzle

	numKinds
)

var kindNames = [numKinds]string{
	KindStmt:                       "stmt",
	KindCompoundToBlock:            "compound-to-block",
	KindCompoundToGuard:            "compound-to-guard",
	KindFlattenControlFlow:         "flatten-control-flow",
	KindExprToConstant:             "expr-to-constant",
	KindCompoundExprToSubExpr:      "compound-expr-to-sub-expr",
	KindFoldConstant:               "fold-constant",
	KindIdentityMutation:           "identity-mutation",
	KindVariableDecl:               "variable-decl",
	KindGlobalVariablesDeclaration: "global-variables-decl",
	KindVariableDeclToExpr:         "variable-decl-to-expr",
	KindGlobalVariableDeclToExpr:   "global-variable-decl-to-expr",
	KindFunction:                   "function",
	KindUnusedStruct:               "unused-struct",
	KindUnusedParam:                "unused-param",
	KindInlineFunction:             "inline-function",
	KindInlineInitializer:          "inline-initializer",
	KindLoopMerge:                  "loop-merge",
	KindDestructify:                "destructify",
	KindInlineStructifiedField:     "inline-structified-field",
	KindRemoveStructField:          "remove-struct-field",
	KindOutlinedStatement:          "outlined-statement",
	KindVectorization:              "vectorization",
	KindUnswitchify:                "unswitchify",
	KindSwitchToLoop:               "switch-to-loop",
	KindUnwrap:                     "unwrap",
	KindRedundantUniformMetadata:   "redundant-uniform-metadata",
	KindInlineUniform:              "inline-uniform",
	KindLiteralToUniform:           "literal-to-uniform",
	KindLiveOutputWrite:            "live-output-write",
	KindSimplifySwizzle:            "simplify-swizzle",
	KindRemoveSwizzle:              "remove-swizzle",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// AllKinds returns every kind in declaration order.
func AllKinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown opportunity kind %q", name)
}

// KindSet is a set of kinds.
type KindSet uint64

// AllKindSet contains every kind.
const AllKindSet KindSet = 1<<numKinds - 1

// KindSetOf returns the set holding kinds.
func KindSetOf(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

// ParseKindSet parses a list of kind names. An empty list means every
// kind.
func ParseKindSet(names []string) (KindSet, error) {
	if len(names) == 0 {
		return AllKindSet, nil
	}
	var s KindSet
	for _, name := range names {
		k, err := ParseKind(strings.TrimSpace(name))
		if err != nil {
			return 0, err
		}
		s = s.With(k)
	}
	return s, nil
}

// Has reports whether k is in the set.
func (s KindSet) Has(k Kind) bool { return s&(1<<k) != 0 }

// With returns the set with k added.
func (s KindSet) With(k Kind) KindSet { return s | 1<<k }

// Without returns the set with k removed.
func (s KindSet) Without(k Kind) KindSet { return s &^ (1 << k) }

// Len returns the number of kinds in the set.
func (s KindSet) Len() int { return bits.OnesCount64(uint64(s & AllKindSet)) }

// Kinds returns the members in declaration order.
func (s KindSet) Kinds() []Kind {
	var out []Kind
	for k := Kind(0); k < numKinds; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s KindSet) String() string {
	names := make([]string, 0, s.Len())
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, ",")
}
