// Package ast defines the Abstract Syntax Tree types for GLSL.
//
// The AST is designed to be:
// - Closed: every node kind is a concrete pointer type behind a marker
//   interface, and every traversal is an exhaustive type switch
// - Mutable: reductions edit the tree in place through ReplaceChild and the
//   block helpers
// - Parent-free: nodes never point at their parents; a ParentMap is built on
//   demand for a snapshot of the tree
package ast

// ----------------------------------------------------------------------------
// Source Location
// ----------------------------------------------------------------------------

// Loc represents a location in source code.
type Loc struct {
	Start int32 // Byte offset of start
}

// ----------------------------------------------------------------------------
// Node
// ----------------------------------------------------------------------------

// Node is implemented by every AST node.
type Node interface {
	node()
}

// ----------------------------------------------------------------------------
// Translation Unit
// ----------------------------------------------------------------------------

// TranslationUnit is the root of one shader stage.
type TranslationUnit struct {
	Decls []Decl
}

// MainFunction returns the definition of main, or nil.
func (tu *TranslationUnit) MainFunction() *FunctionDef {
	for _, d := range tu.Decls {
		if fd, ok := d.(*FunctionDef); ok && fd.Proto.Name == "main" {
			return fd
		}
	}
	return nil
}

// IndexOf returns the index of d among the top-level declarations, or -1.
func (tu *TranslationUnit) IndexOf(d Decl) int {
	for i, x := range tu.Decls {
		if x == d {
			return i
		}
	}
	return -1
}

// InsertDecl inserts d at index i.
func (tu *TranslationUnit) InsertDecl(i int, d Decl) {
	tu.Decls = append(tu.Decls, nil)
	copy(tu.Decls[i+1:], tu.Decls[i:])
	tu.Decls[i] = d
}

// RemoveDecl removes the declaration at index i.
func (tu *TranslationUnit) RemoveDecl(i int) {
	tu.Decls = append(tu.Decls[:i], tu.Decls[i+1:]...)
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

// Decl is a top-level declaration.
type Decl interface {
	Node
	isDecl()
}

// PPDirective is a preprocessor line kept verbatim (#version, #define, ...).
type PPDirective struct {
	Loc  Loc
	Text string
}

// FunctionPrototype is a function signature. At top level it is a forward
// declaration; inside a FunctionDef it is the definition's header.
type FunctionPrototype struct {
	Loc        Loc
	ReturnType *TypeSpec
	Name       string
	Params     []*ParamDecl
}

// FunctionDef is a function definition.
type FunctionDef struct {
	Loc   Loc
	Proto *FunctionPrototype
	Body  *BlockStmt
}

// VariablesDecl declares zero or more variables sharing a base type. A
// struct definition with no declarators is a VariablesDecl with no Decls.
type VariablesDecl struct {
	Loc   Loc
	Type  *TypeSpec
	Decls []*VarDeclInfo
}

// PrecisionDecl is "precision <precision> <type>;".
type PrecisionDecl struct {
	Loc       Loc
	Precision string
	TypeName  string
}

// InterfaceBlock is a uniform/buffer/in/out block.
type InterfaceBlock struct {
	Loc        Loc
	Layout     []LayoutQualifier
	Qualifiers []string
	Name       string
	Members    []*StructField
	Instance   string     // "" when the block has no instance name
	Array      *ArrayInfo // nil unless the instance is an array
}

// DefaultLayoutDecl is a layout declaration without a variable, such as
// "layout(local_size_x = 1) in;".
type DefaultLayoutDecl struct {
	Loc       Loc
	Layout    []LayoutQualifier
	Qualifier string
}

func (*PPDirective) isDecl()       {}
func (*FunctionPrototype) isDecl() {}
func (*FunctionDef) isDecl()       {}
func (*VariablesDecl) isDecl()     {}
func (*PrecisionDecl) isDecl()     {}
func (*InterfaceBlock) isDecl()    {}
func (*DefaultLayoutDecl) isDecl() {}

// ----------------------------------------------------------------------------
// Declaration Parts
// ----------------------------------------------------------------------------

// LayoutQualifier is one entry of a layout(...) list. Value is empty for
// flag-style entries such as std140.
type LayoutQualifier struct {
	Name  string
	Value string
}

// TypeSpec is a (possibly qualified) type as written in a declaration.
type TypeSpec struct {
	Loc        Loc
	Layout     []LayoutQualifier
	Qualifiers []string   // storage, interpolation, parameter and precision qualifiers in source order
	Name       string     // "float", "vec4", "S", "void", ...
	Struct     *StructDef // non-nil when a struct is defined inline
}

// HasQualifier reports whether q is among the type's qualifiers.
func (t *TypeSpec) HasQualifier(q string) bool {
	if t == nil {
		return false
	}
	for _, x := range t.Qualifiers {
		if x == q {
			return true
		}
	}
	return false
}

// IsConst reports whether the type carries the const qualifier.
func (t *TypeSpec) IsConst() bool { return t.HasQualifier("const") }

// StructDef is a struct type definition.
type StructDef struct {
	Loc    Loc
	Name   string
	Fields []*StructField
}

// FieldIndex returns the index of the field named name, or -1.
func (s *StructDef) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// StructField is a member of a struct or interface block.
type StructField struct {
	Loc   Loc
	Type  *TypeSpec
	Name  string
	Array *ArrayInfo
}

// VarDeclInfo is one declarator of a VariablesDecl.
type VarDeclInfo struct {
	Loc   Loc
	Name  string
	Array *ArrayInfo
	Init  Expr // nil when there is no initializer
}

// ParamDecl is a function parameter. Name is empty for unnamed parameters
// in prototypes.
type ParamDecl struct {
	Loc   Loc
	Type  *TypeSpec
	Name  string
	Array *ArrayInfo
}

// ArrayInfo marks a declarator as an array. Size is nil for unsized arrays.
type ArrayInfo struct {
	Loc  Loc
	Size Expr
}

func (*TranslationUnit) node()   {}
func (*PPDirective) node()       {}
func (*FunctionPrototype) node() {}
func (*FunctionDef) node()       {}
func (*VariablesDecl) node()     {}
func (*PrecisionDecl) node()     {}
func (*InterfaceBlock) node()    {}
func (*DefaultLayoutDecl) node() {}
func (*TypeSpec) node()          {}
func (*StructDef) node()         {}
func (*StructField) node()       {}
func (*VarDeclInfo) node()       {}
func (*ParamDecl) node()         {}
func (*ArrayInfo) node()         {}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// Expr is an expression node.
type Expr interface {
	Node
	isExpr()
}

// Ident is a variable reference.
type Ident struct {
	Loc  Loc
	Name string
}

// IntLit is a signed integer literal; Value is the source text.
type IntLit struct {
	Loc   Loc
	Value string
}

// UintLit is an unsigned integer literal; Value excludes the u suffix.
type UintLit struct {
	Loc   Loc
	Value string
}

// FloatLit is a floating point literal; Value is the source text.
type FloatLit struct {
	Loc   Loc
	Value string
}

// BoolLit is true or false.
type BoolLit struct {
	Loc   Loc
	Value bool
}

// BinaryExpr is a binary operator application, including assignments and
// the comma operator.
type BinaryExpr struct {
	Loc Loc
	Op  BinaryOp
	X   Expr
	Y   Expr
}

// UnaryExpr is a prefix or postfix unary operator application.
type UnaryExpr struct {
	Loc Loc
	Op  UnaryOp
	X   Expr
}

// TernaryExpr is "cond ? then : else".
type TernaryExpr struct {
	Loc  Loc
	Cond Expr
	Then Expr
	Else Expr
}

// ParenExpr is a parenthesized expression.
type ParenExpr struct {
	Loc Loc
	X   Expr
}

// CallExpr calls a user-defined or builtin function (or a macro).
type CallExpr struct {
	Loc    Loc
	Callee string
	Args   []Expr
}

// ConstructorExpr constructs a builtin or struct type: vec4(...), S(...).
type ConstructorExpr struct {
	Loc  Loc
	Type string
	Args []Expr
}

// ArrayConstructorExpr is "T[n](...)"; Size may be nil.
type ArrayConstructorExpr struct {
	Loc  Loc
	Elem string
	Size Expr
	Args []Expr
}

// IndexExpr is "x[i]".
type IndexExpr struct {
	Loc   Loc
	X     Expr
	Index Expr
}

// MemberExpr is "x.member": a struct field or a swizzle.
type MemberExpr struct {
	Loc    Loc
	X      Expr
	Member string
}

func (*Ident) isExpr()                {}
func (*IntLit) isExpr()               {}
func (*UintLit) isExpr()              {}
func (*FloatLit) isExpr()             {}
func (*BoolLit) isExpr()              {}
func (*BinaryExpr) isExpr()           {}
func (*UnaryExpr) isExpr()            {}
func (*TernaryExpr) isExpr()          {}
func (*ParenExpr) isExpr()            {}
func (*CallExpr) isExpr()             {}
func (*ConstructorExpr) isExpr()      {}
func (*ArrayConstructorExpr) isExpr() {}
func (*IndexExpr) isExpr()            {}
func (*MemberExpr) isExpr()           {}

func (*Ident) node()                {}
func (*IntLit) node()               {}
func (*UintLit) node()              {}
func (*FloatLit) node()             {}
func (*BoolLit) node()              {}
func (*BinaryExpr) node()           {}
func (*UnaryExpr) node()            {}
func (*TernaryExpr) node()          {}
func (*ParenExpr) node()            {}
func (*CallExpr) node()             {}
func (*ConstructorExpr) node()      {}
func (*ArrayConstructorExpr) node() {}
func (*IndexExpr) node()            {}
func (*MemberExpr) node()           {}

// IsConstant reports whether e is a literal.
func IsConstant(e Expr) bool {
	switch e.(type) {
	case *IntLit, *UintLit, *FloatLit, *BoolLit:
		return true
	}
	return false
}

// BinaryOp represents binary operators.
type BinaryOp uint8

const (
	BinComma BinaryOp = iota
	BinMul
	BinDiv
	BinMod
	BinAdd
	BinSub
	BinShl
	BinShr
	BinLt
	BinGt
	BinLe
	BinGe
	BinEq
	BinNe
	BinBitAnd
	BinBitXor
	BinBitOr
	BinLogAnd
	BinLogXor
	BinLogOr
	BinAssign
	BinMulAssign
	BinDivAssign
	BinModAssign
	BinAddAssign
	BinSubAssign
	BinShlAssign
	BinShrAssign
	BinBitAndAssign
	BinBitXorAssign
	BinBitOrAssign
)

var binaryOpText = [...]string{
	BinComma:        ",",
	BinMul:          "*",
	BinDiv:          "/",
	BinMod:          "%",
	BinAdd:          "+",
	BinSub:          "-",
	BinShl:          "<<",
	BinShr:          ">>",
	BinLt:           "<",
	BinGt:           ">",
	BinLe:           "<=",
	BinGe:           ">=",
	BinEq:           "==",
	BinNe:           "!=",
	BinBitAnd:       "&",
	BinBitXor:       "^",
	BinBitOr:        "|",
	BinLogAnd:       "&&",
	BinLogXor:       "^^",
	BinLogOr:        "||",
	BinAssign:       "=",
	BinMulAssign:    "*=",
	BinDivAssign:    "/=",
	BinModAssign:    "%=",
	BinAddAssign:    "+=",
	BinSubAssign:    "-=",
	BinShlAssign:    "<<=",
	BinShrAssign:    ">>=",
	BinBitAndAssign: "&=",
	BinBitXorAssign: "^=",
	BinBitOrAssign:  "|=",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

// IsSideEffecting reports whether op writes its left operand.
func (op BinaryOp) IsSideEffecting() bool {
	return op >= BinAssign
}

// Precedence returns the binding strength of op; higher binds tighter.
func (op BinaryOp) Precedence() int {
	switch op {
	case BinComma:
		return 1
	case BinAssign, BinMulAssign, BinDivAssign, BinModAssign, BinAddAssign, BinSubAssign,
		BinShlAssign, BinShrAssign, BinBitAndAssign, BinBitXorAssign, BinBitOrAssign:
		return 2
	case BinLogOr:
		return 4
	case BinLogXor:
		return 5
	case BinLogAnd:
		return 6
	case BinBitOr:
		return 7
	case BinBitXor:
		return 8
	case BinBitAnd:
		return 9
	case BinEq, BinNe:
		return 10
	case BinLt, BinGt, BinLe, BinGe:
		return 11
	case BinShl, BinShr:
		return 12
	case BinAdd, BinSub:
		return 13
	case BinMul, BinDiv, BinMod:
		return 14
	}
	return 0
}

// TernaryPrecedence is the precedence of the conditional operator.
const TernaryPrecedence = 3

// UnaryOp represents unary operators.
type UnaryOp uint8

const (
	UnaryPreInc UnaryOp = iota
	UnaryPreDec
	UnaryPostInc
	UnaryPostDec
	UnaryPlus
	UnaryMinus
	UnaryBitNot
	UnaryLogNot
)

var unaryOpText = [...]string{
	UnaryPreInc:  "++",
	UnaryPreDec:  "--",
	UnaryPostInc: "++",
	UnaryPostDec: "--",
	UnaryPlus:    "+",
	UnaryMinus:   "-",
	UnaryBitNot:  "~",
	UnaryLogNot:  "!",
}

func (op UnaryOp) String() string {
	if int(op) < len(unaryOpText) {
		return unaryOpText[op]
	}
	return "?"
}

// IsSideEffecting reports whether op writes its operand.
func (op UnaryOp) IsSideEffecting() bool {
	return op <= UnaryPostDec
}

// IsPostfix reports whether op is written after its operand.
func (op UnaryOp) IsPostfix() bool {
	return op == UnaryPostInc || op == UnaryPostDec
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

// Stmt is a statement node.
type Stmt interface {
	Node
	isStmt()
}

// BlockStmt is "{ stmts }". NewScope is false for the bodies of functions
// and loops whose scope is opened by the enclosing construct.
type BlockStmt struct {
	Loc      Loc
	Stmts    []Stmt
	NewScope bool
}

// DeclStmt wraps a local VariablesDecl.
type DeclStmt struct {
	Loc  Loc
	Decl *VariablesDecl
}

// ExprStmt is an expression followed by a semicolon.
type ExprStmt struct {
	Loc Loc
	X   Expr
}

// IfStmt is "if (Cond) Then else Else"; Else may be nil.
type IfStmt struct {
	Loc  Loc
	Cond Expr
	Then Stmt
	Else Stmt
}

// ForStmt is a for loop. Init is a DeclStmt, ExprStmt or NullStmt; Cond and
// Incr may be nil.
type ForStmt struct {
	Loc  Loc
	Init Stmt
	Cond Expr
	Incr Expr
	Body Stmt
}

// WhileStmt is "while (Cond) Body".
type WhileStmt struct {
	Loc  Loc
	Cond Expr
	Body Stmt
}

// DoStmt is "do Body while (Cond);".
type DoStmt struct {
	Loc  Loc
	Body Stmt
	Cond Expr
}

// SwitchStmt is "switch (X) { ... }"; case labels are statements of Body.
type SwitchStmt struct {
	Loc  Loc
	X    Expr
	Body *BlockStmt
}

// ExprCaseLabel is "case X:".
type ExprCaseLabel struct {
	Loc Loc
	X   Expr
}

// DefaultCaseLabel is "default:".
type DefaultCaseLabel struct {
	Loc Loc
}

// BreakStmt is "break;".
type BreakStmt struct{ Loc Loc }

// ContinueStmt is "continue;".
type ContinueStmt struct{ Loc Loc }

// DiscardStmt is "discard;".
type DiscardStmt struct{ Loc Loc }

// ReturnStmt is "return X;"; X may be nil.
type ReturnStmt struct {
	Loc Loc
	X   Expr
}

// NullStmt is ";".
type NullStmt struct{ Loc Loc }

func (*BlockStmt) isStmt()        {}
func (*DeclStmt) isStmt()         {}
func (*ExprStmt) isStmt()         {}
func (*IfStmt) isStmt()           {}
func (*ForStmt) isStmt()          {}
func (*WhileStmt) isStmt()        {}
func (*DoStmt) isStmt()           {}
func (*SwitchStmt) isStmt()       {}
func (*ExprCaseLabel) isStmt()    {}
func (*DefaultCaseLabel) isStmt() {}
func (*BreakStmt) isStmt()        {}
func (*ContinueStmt) isStmt()     {}
func (*DiscardStmt) isStmt()      {}
func (*ReturnStmt) isStmt()       {}
func (*NullStmt) isStmt()         {}

func (*BlockStmt) node()        {}
func (*DeclStmt) node()         {}
func (*ExprStmt) node()         {}
func (*IfStmt) node()           {}
func (*ForStmt) node()          {}
func (*WhileStmt) node()        {}
func (*DoStmt) node()           {}
func (*SwitchStmt) node()       {}
func (*ExprCaseLabel) node()    {}
func (*DefaultCaseLabel) node() {}
func (*BreakStmt) node()        {}
func (*ContinueStmt) node()     {}
func (*DiscardStmt) node()      {}
func (*ReturnStmt) node()       {}
func (*NullStmt) node()         {}

// IsCaseLabel reports whether s is a case or default label.
func IsCaseLabel(s Stmt) bool {
	switch s.(type) {
	case *ExprCaseLabel, *DefaultCaseLabel:
		return true
	}
	return false
}

// IsLoop reports whether s is a for, while or do loop.
func IsLoop(s Node) bool {
	switch s.(type) {
	case *ForStmt, *WhileStmt, *DoStmt:
		return true
	}
	return false
}

// LoopBody returns the body of a loop statement, or nil.
func LoopBody(s Node) Stmt {
	switch s := s.(type) {
	case *ForStmt:
		return s.Body
	case *WhileStmt:
		return s.Body
	case *DoStmt:
		return s.Body
	}
	return nil
}

// LoopCond returns the condition of a loop statement, or nil.
func LoopCond(s Node) Expr {
	switch s := s.(type) {
	case *ForStmt:
		return s.Cond
	case *WhileStmt:
		return s.Cond
	case *DoStmt:
		return s.Cond
	}
	return nil
}

// ----------------------------------------------------------------------------
// Block Helpers
// ----------------------------------------------------------------------------

// IndexOf returns the index of s in the block, or -1.
func (b *BlockStmt) IndexOf(s Stmt) int {
	for i, x := range b.Stmts {
		if x == s {
			return i
		}
	}
	return -1
}

// Insert inserts stmts at index i.
func (b *BlockStmt) Insert(i int, stmts ...Stmt) {
	if len(stmts) == 0 {
		return
	}
	out := make([]Stmt, 0, len(b.Stmts)+len(stmts))
	out = append(out, b.Stmts[:i]...)
	out = append(out, stmts...)
	out = append(out, b.Stmts[i:]...)
	b.Stmts = out
}

// Remove removes the statement at index i.
func (b *BlockStmt) Remove(i int) {
	b.Stmts = append(b.Stmts[:i], b.Stmts[i+1:]...)
}

// Last returns the final statement of the block, or nil.
func (b *BlockStmt) Last() Stmt {
	if len(b.Stmts) == 0 {
		return nil
	}
	return b.Stmts[len(b.Stmts)-1]
}
