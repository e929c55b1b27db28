package reduce

import (
	"strings"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/builtins"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/looplimiter"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
	"github.com/HugoDaniel/glslreduce/internal/typer"
	"github.com/HugoDaniel/glslreduce/internal/types"
)

// ----------------------------------------------------------------------------
// Finder Registry
// ----------------------------------------------------------------------------

// Finder discovers the opportunities of one kind.
type Finder struct {
	Kind Kind

	// stage finds opportunities in one translation unit.
	stage func(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity

	// job finds opportunities that span every stage. Exactly one of stage
	// and job is set.
	job func(job *shaderjob.Job, ctx *Context) []Opportunity
}

// Find returns the opportunities of f's kind in job.
func (f Finder) Find(job *shaderjob.Job, ctx *Context) []Opportunity {
	if f.job != nil {
		return f.job(job, ctx)
	}
	var out []Opportunity
	for _, s := range job.Stages {
		out = append(out, f.stage(job, s.TU, ctx)...)
	}
	return out
}

// FindStage returns the opportunities of f's kind in one stage. Finders
// that span every stage return nil.
func (f Finder) FindStage(job *shaderjob.Job, s *shaderjob.Shader, ctx *Context) []Opportunity {
	if f.stage == nil {
		return nil
	}
	return f.stage(job, s.TU, ctx)
}

// PerStage reports whether f looks at one stage at a time.
func (f Finder) PerStage() bool { return f.stage != nil }

// Finders returns every finder in the order their opportunities are
// pooled.
func Finders() []Finder {
	return []Finder{
		{Kind: KindLoopMerge, stage: findLoopMerge},
		{Kind: KindRemoveStructField, stage: findRemoveStructField},
		{Kind: KindDestructify, stage: findDestructify},
		{Kind: KindInlineStructifiedField, stage: findInlineStructifiedField},
		{Kind: KindOutlinedStatement, stage: findOutlinedStatement},
		{Kind: KindVariableDecl, stage: findVariableDecl},
		{Kind: KindGlobalVariablesDeclaration, stage: findGlobalVariablesDeclaration},
		{Kind: KindUnwrap, stage: findUnwrap},
		{Kind: KindUnswitchify, stage: findUnswitchify},
		{Kind: KindVectorization, stage: findVectorization},
		{Kind: KindFunction, stage: findFunction},
		{Kind: KindStmt, stage: findStmt},
		{Kind: KindExprToConstant, stage: findExprToConstant},
		{Kind: KindCompoundExprToSubExpr, stage: findCompoundExprToSubExpr},
		{Kind: KindIdentityMutation, stage: findIdentityMutation},
		{Kind: KindCompoundToBlock, stage: findCompoundToBlock},
		{Kind: KindInlineInitializer, stage: findInlineInitializer},
		{Kind: KindInlineFunction, stage: findInlineFunction},
		{Kind: KindLiveOutputWrite, stage: findLiveOutputWrite},
		{Kind: KindUnusedParam, stage: findUnusedParam},
		{Kind: KindFoldConstant, stage: findFoldConstant},
		{Kind: KindInlineUniform, stage: findInlineUniform},
		{Kind: KindCompoundToGuard, stage: findCompoundToGuard},
		{Kind: KindFlattenControlFlow, stage: findFlattenControlFlow},
		{Kind: KindSwitchToLoop, stage: findSwitchToLoop},
		{Kind: KindUnusedStruct, stage: findUnusedStruct},
		{Kind: KindGlobalVariableDeclToExpr, stage: findGlobalVariableDeclToExpr},
		{Kind: KindVariableDeclToExpr, stage: findVariableDeclToExpr},
		{Kind: KindSimplifySwizzle, stage: findSimplifySwizzle},
		{Kind: KindRemoveSwizzle, stage: findRemoveSwizzle},
		{Kind: KindRedundantUniformMetadata, job: findRedundantUniformMetadata},
		{Kind: KindLiteralToUniform, stage: findLiteralToUniform},
	}
}

// FinderFor returns the finder of kind k.
func FinderFor(k Kind) (Finder, bool) {
	for _, f := range Finders() {
		if f.Kind == k {
			return f, true
		}
	}
	return Finder{}, false
}

// FindAll pools the opportunities of every enabled finder. With a
// validator in ctx, each opportunity is wrapped to validate the job after
// it is applied.
func FindAll(job *shaderjob.Job, ctx *Context) []Opportunity {
	var out []Opportunity
	for _, f := range Finders() {
		if !ctx.Enabled.Has(f.Kind) {
			continue
		}
		out = append(out, f.Find(job, ctx)...)
	}
	if ctx.Validator != nil {
		for i, op := range out {
			out[i] = CheckValid(op, job, ctx.Validator)
		}
	}
	return out
}

// ----------------------------------------------------------------------------
// Traversal Base
// ----------------------------------------------------------------------------

var purity = &ast.PurityContext{
	Builtins:       builtins.AllNames(),
	ImpureBuiltins: builtins.ImpureNames(),
	Macros:         injection.MacroNames(),
}

func sideEffectFree(n ast.Node) bool {
	return purity.IsSideEffectFree(n)
}

// walk is the state shared by the finders: the translation unit, the
// injection tracking of the current traversal, and the type and loop
// limiter analyses of the snapshot being searched. Finders embed it and
// implement scope.Visitor.
type walk struct {
	ctx    *Context
	job    *shaderjob.Job
	tu     *ast.TranslationUnit
	tr     *injection.Tracking
	typer  *typer.Typer
	limits *looplimiter.Checker
	ops    []Opportunity
}

func newWalk(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) *walk {
	return &walk{
		ctx:    ctx,
		job:    job,
		tu:     tu,
		typer:  typer.New(tu),
		limits: looplimiter.New(tu),
	}
}

// run traverses the translation unit with v and returns what was added.
func (f *walk) run(v scope.Visitor) []Opportunity {
	f.tr = injection.NewTracking(f.tu, v)
	f.tr.Walk(f.tu)
	return f.ops
}

func (f *walk) Enter(*scope.Walker, ast.Node) bool { return true }
func (f *walk) Leave(*scope.Walker, ast.Node)      {}

// add records op if its precondition holds now. An opportunity that is
// not applicable when found would be offered again after every round.
func (f *walk) add(op Opportunity) {
	if op.Precondition() {
		f.ops = append(f.ops, op)
	}
}

func (f *walk) dead(w *scope.Walker) bool {
	return f.tr.ProgramPointIsDead(w)
}

func (f *walk) functionIsDead(w *scope.Walker) bool {
	return f.tr.FunctionIsDead(w)
}

// enclosing returns the innermost ancestor of the current node, excluding
// the node itself, that satisfies match.
func enclosing[T ast.Node](w *scope.Walker) (T, bool) {
	stack := w.Stack()
	for i := len(stack) - 2; i >= 0; i-- {
		if t, ok := stack[i].(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// enclosingStmt returns the innermost statement containing the current
// node, excluding the node itself.
func enclosingStmt(w *scope.Walker) ast.Stmt {
	s, _ := enclosing[ast.Stmt](w)
	return s
}

// inArraySize reports whether the current node is part of an array size.
func inArraySize(w *scope.Walker) bool {
	_, ok := enclosing[*ast.ArrayInfo](w)
	return ok
}

// initializerIsSideEffectFree reports whether info has an initializer
// that can be evaluated any number of times.
func initializerIsSideEffectFree(info *ast.VarDeclInfo) bool {
	return info.Init != nil && sideEffectFree(info.Init)
}

// isFullyReducedConstant reports whether e is a literal or a constructor
// of fully reduced constants.
func isFullyReducedConstant(e ast.Expr) bool {
	if ast.IsConstant(e) {
		return true
	}
	c, ok := e.(*ast.ConstructorExpr)
	if !ok {
		return false
	}
	for _, a := range c.Args {
		if !isFullyReducedConstant(a) {
			return false
		}
	}
	return true
}

func isDeadName(name string) bool {
	return strings.HasPrefix(name, injection.DeadPrefix)
}

// ----------------------------------------------------------------------------
// Live Code
// ----------------------------------------------------------------------------

// liveReference reports whether e, with member lookups stripped, names a
// live-injected variable.
func liveReference(e ast.Expr) bool {
	for {
		m, ok := e.(*ast.MemberExpr)
		if !ok {
			break
		}
		e = m.X
	}
	id, ok := e.(*ast.Ident)
	return ok && injection.IsLiveInjected(id.Name)
}

// isSimpleLiveCodeInjection reports whether s is an assignment to, or an
// increment of, a live-injected variable, or a call to a live-injected
// function.
func isSimpleLiveCodeInjection(s *ast.ExprStmt) bool {
	switch e := s.X.(type) {
	case *ast.BinaryExpr:
		return e.Op.IsSideEffecting() && liveReference(e.X)
	case *ast.UnaryExpr:
		return e.Op.IsSideEffecting() && liveReference(e.X)
	case *ast.CallExpr:
		return injection.IsLiveInjected(e.Callee)
	}
	return false
}

// isLiveCodeVariableDeclaration reports whether s declares a live-injected
// variable.
func isLiveCodeVariableDeclaration(s *ast.DeclStmt) bool {
	for _, info := range s.Decl.Decls {
		if injection.IsLiveInjected(info.Name) {
			return true
		}
	}
	return false
}

// refersDirectlyToLiveVariable reports whether e mentions a live-injected
// variable outside any _GLF_FUZZED wrapper.
func refersDirectlyToLiveVariable(e ast.Expr) bool {
	found := false
	ast.Inspect(e, func(n ast.Node) bool {
		if found || injection.IsFuzzed(asExpr(n)) {
			return false
		}
		if id, ok := n.(*ast.Ident); ok && injection.IsLiveInjected(id.Name) {
			found = true
		}
		return !found
	})
	return found
}

// isLiveCodeInjection reports whether s was injected as live code: a
// simple live statement, or a conditional, switch or loop whose header
// refers directly to a live-injected variable.
func isLiveCodeInjection(s ast.Stmt) bool {
	switch s := s.(type) {
	case *ast.ExprStmt:
		return isSimpleLiveCodeInjection(s)
	case *ast.IfStmt:
		return refersDirectlyToLiveVariable(s.Cond)
	case *ast.SwitchStmt:
		return refersDirectlyToLiveVariable(s.X)
	case *ast.ForStmt:
		if s.Incr != nil && refersDirectlyToLiveVariable(s.Incr) {
			return true
		}
		if s.Cond != nil && refersDirectlyToLiveVariable(s.Cond) {
			return true
		}
		return isLiveCodeInjection(s.Init)
	case *ast.WhileStmt:
		return refersDirectlyToLiveVariable(s.Cond)
	case *ast.DoStmt:
		return refersDirectlyToLiveVariable(s.Cond)
	}
	return false
}

// referencesLoopLimiter reports whether n mentions a loop limiter that is
// in scope.
func referencesLoopLimiter(n ast.Node, sc *scope.Scope) bool {
	found := false
	ast.Inspect(n, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && injection.IsLoopLimiter(id.Name) && sc.Lookup(id.Name) != nil {
			found = true
		}
		return !found
	})
	return found
}

func asExpr(n ast.Node) ast.Expr {
	e, _ := n.(ast.Expr)
	return e
}

// ----------------------------------------------------------------------------
// Expression Simplification
// ----------------------------------------------------------------------------

// inLiveInjectedStmtOrDecl reports whether the current node is inside a
// simple live-code statement or a live variable declaration.
func inLiveInjectedStmtOrDecl(w *scope.Walker) bool {
	stack := w.Stack()
	for i := len(stack) - 2; i >= 0; i-- {
		switch s := stack[i].(type) {
		case *ast.ExprStmt:
			return isSimpleLiveCodeInjection(s)
		case *ast.DeclStmt:
			return isLiveCodeVariableDeclaration(s)
		case ast.Stmt:
			return false
		}
	}
	return false
}

// inLoopLimiterDecl reports whether the current node belongs to the
// declarator of a loop limiter.
func inLoopLimiterDecl(w *scope.Walker) bool {
	info, ok := enclosing[*ast.VarDeclInfo](w)
	return ok && injection.IsLoopLimiter(info.Name)
}

// writesArg reports whether child is passed to an out or inout parameter
// of call.
func (f *walk) writesArg(call *ast.CallExpr, child ast.Expr) bool {
	idx := -1
	for i, a := range call.Args {
		if a == child {
			idx = i
		}
	}
	if idx < 0 {
		return false
	}
	for _, proto := range f.typer.Prototypes(call.Callee) {
		if !f.typer.PrototypeMatches(proto, call) {
			continue
		}
		ts := proto.Params[idx].Type
		if ts.HasQualifier("out") || ts.HasQualifier("inout") {
			return true
		}
	}
	if b := builtins.Lookup(call.Callee); b != nil && !f.typer.IsUserDefined(call.Callee) {
		return b.WritesParam(idx)
	}
	return false
}

// allowedToReduceExpr reports whether child, an expression child of
// parent, may be replaced by a simpler expression.
func (f *walk) allowedToReduceExpr(w *scope.Walker, parent ast.Node, child ast.Expr) bool {
	if inArraySize(w) {
		return false
	}
	if id, ok := child.(*ast.Ident); ok {
		if injection.IsLiveInjected(id.Name) && !injection.IsLoopLimiter(id.Name) {
			return true
		}
		if isDeadName(id.Name) {
			return true
		}
	}
	if call, ok := parent.(*ast.CallExpr); ok && f.writesArg(call, child) {
		return false
	}
	if f.ctx.ReduceEverywhere || f.dead(w) || f.tr.UnderFuzzedMacro() {
		return true
	}
	return inLiveInjectedStmtOrDecl(w) && !inLoopLimiterDecl(w) &&
		!f.limits.ReferencesNonRedundantLoopLimiter(child, w.Scope())
}

// typeOf returns the type of e in the snapshot.
func (f *walk) typeOf(e ast.Expr) types.Type {
	return f.typer.TypeOf(e)
}
