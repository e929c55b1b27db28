package reduce

// simplifyExpr holds the kinds whose edits replace an expression in place.
var simplifyExpr = KindSetOf(
	KindExprToConstant,
	KindCompoundExprToSubExpr,
	KindFoldConstant,
	KindInlineInitializer,
	KindInlineUniform,
)

// structRelated holds the kinds that may touch struct definitions, their
// constructors or member accesses.
var structRelated = KindSetOf(
	KindInlineStructifiedField,
	KindDestructify,
	KindRemoveStructField,
	KindOutlinedStatement,
) | simplifyExpr

func eitherWay(a, b Kind, x, y KindSet) bool {
	return (x.Has(a) && y.Has(b)) || (y.Has(a) && x.Has(b))
}

// Compatible reports whether opportunities of kinds a and b may be
// applied in the same batch. The relation is symmetric.
func Compatible(a, b Kind) bool {
	stmt := KindSetOf(KindStmt)
	loopMerge := KindSetOf(KindLoopMerge)
	identity := KindSetOf(KindIdentityMutation)

	switch {
	case a == KindVectorization || b == KindVectorization:
		return false
	case structRelated.Has(a) && structRelated.Has(b):
		return false
	case eitherWay(a, b, loopMerge, stmt):
		// Removing one of the loops breaks the merge.
		return false
	case eitherWay(a, b, loopMerge, simplifyExpr):
		// The merge needs the exact guard and counter shape.
		return false
	case eitherWay(a, b, identity, simplifyExpr), eitherWay(a, b, structRelated, identity):
		return false
	case eitherWay(a, b, stmt, KindSetOf(KindUnswitchify)):
		return false
	}
	return true
}

// CompatibleWithAll reports whether k is compatible with every kind in ops.
func CompatibleWithAll(k Kind, ops []Opportunity) bool {
	for _, op := range ops {
		if !Compatible(k, op.Kind()) {
			return false
		}
	}
	return true
}
