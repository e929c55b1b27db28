package injection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/test"
)

func TestNamePredicates(t *testing.T) {
	assert.True(t, IsLiveInjected("GLF_live3x"))
	assert.True(t, IsLoopLimiter("GLF_live0looplimiter"))
	assert.False(t, IsLoopLimiter("looplimiter"))
	assert.True(t, IsDeadFunction("GLF_dead2foo"))
	assert.False(t, IsDeadFunction("foo"))
	assert.True(t, IsStructified("_GLF_struct_3"))
	assert.True(t, IsStructifiedField("_f0"))
	assert.True(t, IsOutlined("_GLF_outlined_1"))
}

func TestParseSplitLoopCounter(t *testing.T) {
	tests := []struct {
		name     string
		id       int
		original string
		ok       bool
	}{
		{"_GLF_SPLIT_LOOP_COUNTER_3i", 3, "i", true},
		{"GLF_SPLIT_0_i", 0, "i", true},
		{"GLF_SPLIT_12_counter", 12, "counter", true},
		{"GLF_SPLIT_i", 0, "", false},
		{"i", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, original, ok := ParseSplitLoopCounter(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.original, original)
		})
	}
}

func TestParseMerged(t *testing.T) {
	t.Run("short form", func(t *testing.T) {
		comps, ok := ParseMerged("GLF_merged2_0_1_a_b")
		require.True(t, ok)
		assert.Equal(t, []MergedComponent{
			{Name: "a", Offset: 0, Width: 1},
			{Name: "b", Offset: 1, Width: 1},
		}, comps)
	})

	t.Run("full form", func(t *testing.T) {
		comps, ok := ParseMerged("GLF_merged2_0_2_1_2_1_3posz")
		require.True(t, ok)
		assert.Equal(t, []MergedComponent{
			{Name: "p", Offset: 0, Width: 2},
			{Name: "osz", Offset: 2, Width: 1},
		}, comps)
	})

	for _, bad := range []string{"GLF_merged", "GLF_merged2_0_a", "GLF_merged1_0_1_9ab", "x"} {
		_, ok := ParseMerged(bad)
		assert.False(t, ok, bad)
	}
}

func TestMacros(t *testing.T) {
	tu := test.MustParse(t, `
void main() {
  int a = _GLF_IDENTITY(1, 1 + 0);
  int b = GLF_ZERO(0, a - a);
  if (_GLF_DEAD(false)) { a = 2; }
  bool c = _GLF_FUZZED(a > b);
  int d = _GLF_MAKE_IN_BOUNDS_INT(a, 4);
  int e = _GLF_IDENTITY(a);
}`)
	calls := map[string]*ast.CallExpr{}
	ast.Inspect(tu, func(n ast.Node) bool {
		if c, ok := n.(*ast.CallExpr); ok {
			if _, seen := calls[c.Callee]; !seen {
				calls[c.Callee] = c
			}
		}
		return true
	})

	identity := calls["_GLF_IDENTITY"]
	require.NotNil(t, identity)
	assert.Equal(t, MacroIdentity, MacroOf(identity))
	assert.True(t, IsIdentityMutation(identity))
	assert.Equal(t, "1", SemanticArg(identity).(*ast.BinaryExpr).X.(*ast.IntLit).Value)

	assert.Equal(t, MacroZero, MacroOf(calls["GLF_ZERO"]))
	assert.True(t, IsDeadByConstruction(calls["_GLF_DEAD"]))
	assert.True(t, IsFuzzed(calls["_GLF_FUZZED"]))
	assert.Nil(t, SemanticArg(calls["_GLF_MAKE_IN_BOUNDS_INT"]))

	// The wrong number of arguments is not a macro use.
	var short *ast.CallExpr
	ast.Inspect(tu, func(n ast.Node) bool {
		if c, ok := n.(*ast.CallExpr); ok && c.Callee == "_GLF_IDENTITY" && len(c.Args) == 1 {
			short = c
		}
		return true
	})
	require.NotNil(t, short)
	assert.Equal(t, NotAMacro, MacroOf(short))

	main := test.FindFunction(tu, "main")
	assert.True(t, IsDeadCodeInjection(main.Body.Stmts[2]))
	assert.False(t, IsDeadCodeInjection(main.Body.Stmts[0]))
	assert.True(t, IsMacroName("GLF_DEAD"))
	assert.Equal(t, 2, MacroMakeInBoundsUint.Arity())
}

func TestSwitchStatusTransitions(t *testing.T) {
	zero := &ast.ExprCaseLabel{X: &ast.IntLit{Value: "0"}}
	one := &ast.ExprCaseLabel{X: &ast.IntLit{Value: "1"}}
	def := &ast.DefaultCaseLabel{}

	assert.Equal(t, InOriginalCode, NoLabelYet.OnCase(zero))
	assert.Equal(t, BeforeOriginalCode, NoLabelYet.OnCase(one))
	assert.Equal(t, NoLabelYet, NoLabelYet.OnCase(def))
	assert.Equal(t, InOriginalCode, BeforeOriginalCode.OnCase(zero))
	assert.Equal(t, InOriginalCode, InOriginalCode.OnCase(one))
	assert.Equal(t, AfterOriginalCode, InOriginalCode.OnBreak())
	assert.Equal(t, BeforeOriginalCode, BeforeOriginalCode.OnBreak())
	assert.Equal(t, NotInjected, NotInjected.OnCase(one))

	assert.True(t, BeforeOriginalCode.Unreachable())
	assert.True(t, AfterOriginalCode.Unreachable())
	assert.False(t, InOriginalCode.Unreachable())
	assert.False(t, NoLabelYet.Unreachable())
}

func TestTrackerInjectedSwitch(t *testing.T) {
	tu := test.MustParse(t, `
void main() {
  switch (_GLF_SWITCH(0)) {
    case 3:
      before();
    case 0:
      original();
      break;
    case 1:
      after();
  }
  switch (x) {
    case 2:
      plain();
      break;
    default:
      other();
  }
}`)
	var tr Tracker
	dead := map[string]bool{}
	main := test.FindFunction(tu, "main")
	for _, s := range main.Body.Stmts {
		sw := s.(*ast.SwitchStmt)
		tr.EnterSwitch(sw)
		for _, child := range sw.Body.Stmts {
			if ast.IsCaseLabel(child) {
				tr.NotifyCase(child)
				continue
			}
			if es, ok := child.(*ast.ExprStmt); ok {
				dead[es.X.(*ast.CallExpr).Callee] = tr.UnderUnreachableSwitchCase()
			}
			if _, ok := child.(*ast.BreakStmt); ok {
				tr.NotifyBreak()
			}
		}
		tr.LeaveSwitch()
	}

	assert.Equal(t, map[string]bool{
		"before":   true,
		"original": false,
		"after":    true,
		"plain":    false,
		"other":    false,
	}, dead)
	assert.Equal(t, NotInjected, tr.SwitchStatus())
}

func TestTrackerCounters(t *testing.T) {
	var tr Tracker
	assert.False(t, tr.IsDead(false))
	assert.True(t, tr.IsDead(true))

	tr.EnterDeadCodeInjection()
	tr.EnterFuzzedMacro()
	assert.True(t, tr.IsDead(false))
	assert.True(t, tr.UnderFuzzedMacro())
	tr.LeaveDeadCodeInjection()
	tr.LeaveFuzzedMacro()
	tr.LeaveFuzzedMacro()
	assert.False(t, tr.IsDead(false))
	assert.False(t, tr.UnderFuzzedMacro())
}

func TestLiveness(t *testing.T) {
	tu := test.MustParse(t, `
float init() { return 1.0; }
float g = init();
void leaf() { }
void reached() { leaf(); }
void onlyFromDead() { }
void onlyFromDeadCase() { }
void unused() { reached(); }
void GLF_dead3helper() { }
void main() {
  reached();
  if (_GLF_DEAD(false)) {
    onlyFromDead();
  }
  switch (_GLF_SWITCH(0)) {
    case 0:
      break;
    case 1:
      onlyFromDeadCase();
  }
  GLF_dead3helper();
}`)
	l := ComputeLiveness(tu)

	for _, name := range []string{"main", "reached", "leaf", "init"} {
		assert.True(t, l.IsLive(name), name)
		assert.False(t, l.FunctionIsDead(name), name)
	}
	for _, name := range []string{"onlyFromDead", "onlyFromDeadCase", "unused", "GLF_dead3helper"} {
		assert.True(t, l.FunctionIsDead(name), name)
	}
}

func TestLivenessWithoutMain(t *testing.T) {
	tu := test.MustParse(t, `void f() { } void GLF_dead0g() { }`)
	l := ComputeLiveness(tu)
	assert.False(t, l.NeverCalledFromLiveContext("f"))
	assert.False(t, l.FunctionIsDead("f"))
	assert.True(t, l.FunctionIsDead("GLF_dead0g"))
}

func TestTrackingVisitor(t *testing.T) {
	tu := test.MustParse(t, `
void GLF_dead0f() {
  inDeadFunction();
}
void main() {
  int x;
  if (_GLF_DEAD(cond())) {
    inDeadBranch();
  } else {
    inDeadElse();
  }
  switch (_GLF_SWITCH(0)) {
    case 1:
      beforeCase();
    case 0:
      inCase();
      break;
    default:
      afterCase();
  }
  x = _GLF_FUZZED(fuzzed());
  live();
}`)
	dead := map[string]bool{}
	fuzzed := map[string]bool{}
	var lvalue, rvalue int
	var tr *Tracking
	tr = NewTracking(tu, scope.Funcs{OnEnter: func(w *scope.Walker, n ast.Node) bool {
		switch n := n.(type) {
		case *ast.CallExpr:
			if !IsMacroName(n.Callee) {
				dead[n.Callee] = tr.ProgramPointIsDead(w)
				fuzzed[n.Callee] = tr.UnderFuzzedMacro()
			}
		case *ast.Ident:
			if n.Name == "x" {
				if tr.InLValueContext() {
					lvalue++
				} else {
					rvalue++
				}
			}
		}
		return true
	}})
	tr.Walk(tu)

	assert.Equal(t, map[string]bool{
		"inDeadFunction": true,
		"cond":           false,
		"inDeadBranch":   true,
		"inDeadElse":     true,
		"beforeCase":     true,
		"inCase":         false,
		"afterCase":      true,
		"fuzzed":         false,
		"live":           false,
	}, dead)
	assert.True(t, fuzzed["fuzzed"])
	assert.False(t, fuzzed["live"])
	assert.Equal(t, 1, lvalue)
	assert.Equal(t, 0, rvalue)
	assert.Equal(t, NotInjected, tr.SwitchStatus())
	assert.False(t, tr.EnclosedByDeadCodeInjection())
}
