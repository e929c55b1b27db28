// Package printer outputs GLSL code from an AST.
//
// The printer can operate in two modes:
// - Pretty: Human-readable output with indentation
// - Minified: Minimal whitespace output
//
// Parentheses present in the tree as ParenExpr are always printed. When a
// rewrite has placed an expression under an operator that binds tighter,
// the printer adds the parentheses needed to keep the tree's meaning, so
// printed output always parses back to the same tree shape.
package printer

import (
	"strings"

	"github.com/HugoDaniel/glslreduce/internal/ast"
)

// Options controls printer output.
type Options struct {
	// MinifyWhitespace removes unnecessary whitespace
	MinifyWhitespace bool

	// IndentWidth is the number of spaces per indentation level; 0 means 4.
	IndentWidth int
}

// Printer outputs GLSL code.
type Printer struct {
	options Options
	buf     strings.Builder
	indent  int
}

// New creates a new printer.
func New(options Options) *Printer {
	if options.IndentWidth == 0 {
		options.IndentWidth = 4
	}
	return &Printer{options: options}
}

// Print outputs the translation unit as a string.
func (p *Printer) Print(tu *ast.TranslationUnit) string {
	p.buf.Reset()
	p.indent = 0
	p.printTranslationUnit(tu)
	return p.buf.String()
}

// PrintNode outputs a single declaration, statement or expression. It is
// used for diagnostics and diffs of individual nodes.
func (p *Printer) PrintNode(n ast.Node) string {
	p.buf.Reset()
	p.indent = 0
	switch n := n.(type) {
	case *ast.TranslationUnit:
		p.printTranslationUnit(n)
	case ast.Decl:
		p.printDecl(n)
	case ast.Stmt:
		p.printStmt(n)
	case ast.Expr:
		p.printExpr(n, precLowest)
	case *ast.TypeSpec:
		p.printTypeSpec(n)
	}
	return p.buf.String()
}

// String prints tu with default options.
func String(tu *ast.TranslationUnit) string {
	return New(Options{}).Print(tu)
}

// ExprString prints e with default options.
func ExprString(e ast.Expr) string {
	return New(Options{}).PrintNode(e)
}

// ----------------------------------------------------------------------------
// Output Helpers
// ----------------------------------------------------------------------------

func (p *Printer) print(s string) {
	if s == "" {
		return
	}
	// Keep adjacent tokens from fusing: "a" "b", "-" "-", "+" "+"
	if n := p.buf.Len(); n > 0 {
		last := p.buf.String()[n-1]
		first := s[0]
		if (isWordByte(last) && isWordByte(first)) ||
			((last == '+' || last == '-') && first == last) {
			p.buf.WriteByte(' ')
		}
	}
	p.buf.WriteString(s)
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *Printer) printSpace() {
	if !p.options.MinifyWhitespace {
		p.buf.WriteByte(' ')
	}
}

func (p *Printer) printNewline() {
	if !p.options.MinifyWhitespace {
		p.buf.WriteByte('\n')
		p.buf.WriteString(strings.Repeat(" ", p.indent*p.options.IndentWidth))
	}
}

// ----------------------------------------------------------------------------
// Translation Unit and Declarations
// ----------------------------------------------------------------------------

func (p *Printer) printTranslationUnit(tu *ast.TranslationUnit) {
	for i, d := range tu.Decls {
		if _, ok := d.(*ast.PPDirective); ok {
			// Directives always need their own line
			if p.buf.Len() > 0 && !strings.HasSuffix(p.buf.String(), "\n") {
				p.buf.WriteByte('\n')
			}
			p.buf.WriteString(d.(*ast.PPDirective).Text)
			p.buf.WriteByte('\n')
			continue
		}
		if i > 0 && !p.options.MinifyWhitespace {
			if _, ok := d.(*ast.FunctionDef); ok {
				p.buf.WriteByte('\n')
			}
		}
		p.printDecl(d)
		if !p.options.MinifyWhitespace {
			p.buf.WriteByte('\n')
		}
	}
}

func (p *Printer) printDecl(d ast.Decl) {
	switch d := d.(type) {
	case *ast.PPDirective:
		p.buf.WriteString(d.Text)
		p.buf.WriteByte('\n')

	case *ast.FunctionPrototype:
		p.printPrototype(d)
		p.print(";")

	case *ast.FunctionDef:
		p.printPrototype(d.Proto)
		p.printSpace()
		p.printBlock(d.Body)

	case *ast.VariablesDecl:
		p.printVariablesDecl(d)
		p.print(";")

	case *ast.PrecisionDecl:
		p.print("precision")
		p.print(d.Precision)
		p.print(d.TypeName)
		p.print(";")

	case *ast.InterfaceBlock:
		p.printLayout(d.Layout)
		for _, q := range d.Qualifiers {
			p.print(q)
			p.print(" ")
		}
		p.print(d.Name)
		p.printSpace()
		p.printFields(d.Members)
		if d.Instance != "" {
			p.printSpace()
			p.print(d.Instance)
			p.printArray(d.Array)
		}
		p.print(";")

	case *ast.DefaultLayoutDecl:
		p.printLayout(d.Layout)
		p.print(d.Qualifier)
		p.print(";")
	}
}

func (p *Printer) printPrototype(proto *ast.FunctionPrototype) {
	p.printTypeSpec(proto.ReturnType)
	p.print(" ")
	p.print(proto.Name)
	p.print("(")
	for i, param := range proto.Params {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		p.printTypeSpec(param.Type)
		if param.Name != "" {
			p.print(" ")
			p.print(param.Name)
		}
		p.printArray(param.Array)
	}
	p.print(")")
}

func (p *Printer) printVariablesDecl(d *ast.VariablesDecl) {
	p.printTypeSpec(d.Type)
	for i, vdi := range d.Decls {
		if i > 0 {
			p.print(",")
		}
		p.print(" ")
		p.print(vdi.Name)
		p.printArray(vdi.Array)
		if vdi.Init != nil {
			p.printSpace()
			p.print("=")
			p.printSpace()
			p.printExpr(vdi.Init, precAssign)
		}
	}
}

func (p *Printer) printLayout(layout []ast.LayoutQualifier) {
	if len(layout) == 0 {
		return
	}
	p.print("layout(")
	for i, q := range layout {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		p.print(q.Name)
		if q.Value != "" {
			p.printSpace()
			p.print("=")
			p.printSpace()
			p.print(q.Value)
		}
	}
	p.print(")")
	p.print(" ")
}

func (p *Printer) printTypeSpec(t *ast.TypeSpec) {
	if t == nil {
		return
	}
	p.printLayout(t.Layout)
	for _, q := range t.Qualifiers {
		p.print(q)
		p.print(" ")
	}
	if t.Struct != nil {
		p.print("struct")
		if t.Struct.Name != "" {
			p.print(" ")
			p.print(t.Struct.Name)
		}
		p.printSpace()
		p.printFields(t.Struct.Fields)
		return
	}
	p.print(t.Name)
}

func (p *Printer) printFields(fields []*ast.StructField) {
	p.print("{")
	p.indent++
	for _, f := range fields {
		p.printNewline()
		p.printTypeSpec(f.Type)
		p.print(" ")
		p.print(f.Name)
		p.printArray(f.Array)
		p.print(";")
	}
	p.indent--
	p.printNewline()
	p.print("}")
}

func (p *Printer) printArray(a *ast.ArrayInfo) {
	if a == nil {
		return
	}
	p.print("[")
	if a.Size != nil {
		p.printExpr(a.Size, precTernary)
	}
	p.print("]")
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// Expression precedence levels, loosest first. Binary operators use the
// values from ast.BinaryOp.Precedence, which sit between precTernary and
// precUnary.
const (
	precLowest  = 0
	precComma   = 1
	precAssign  = 2
	precTernary = ast.TernaryPrecedence
	precUnary   = 15
	precPostfix = 16
	precPrimary = 17
)

func exprPrecedence(e ast.Expr) int {
	switch e := e.(type) {
	case *ast.BinaryExpr:
		return e.Op.Precedence()
	case *ast.TernaryExpr:
		return precTernary
	case *ast.UnaryExpr:
		if e.Op.IsPostfix() {
			return precPostfix
		}
		return precUnary
	case *ast.IndexExpr, *ast.MemberExpr:
		return precPostfix
	}
	return precPrimary
}

// printExpr prints e, adding parentheses if e binds looser than minPrec.
func (p *Printer) printExpr(e ast.Expr, minPrec int) {
	if e == nil {
		return
	}
	if exprPrecedence(e) < minPrec {
		p.print("(")
		p.printExpr(e, precLowest)
		p.print(")")
		return
	}

	switch e := e.(type) {
	case *ast.Ident:
		p.print(e.Name)

	case *ast.IntLit:
		p.print(e.Value)

	case *ast.UintLit:
		p.print(e.Value + "u")

	case *ast.FloatLit:
		p.print(e.Value)

	case *ast.BoolLit:
		if e.Value {
			p.print("true")
		} else {
			p.print("false")
		}

	case *ast.BinaryExpr:
		prec := e.Op.Precedence()
		if e.Op == ast.BinComma {
			p.printExpr(e.X, prec)
			p.print(",")
			p.printSpace()
			p.printExpr(e.Y, prec+1)
			return
		}
		if e.Op.IsSideEffecting() {
			// Right associative; the target is a unary expression
			p.printExpr(e.X, precUnary)
			p.printSpace()
			p.print(e.Op.String())
			p.printSpace()
			p.printExpr(e.Y, prec)
			return
		}
		p.printExpr(e.X, prec)
		p.printSpace()
		p.print(e.Op.String())
		p.printSpace()
		p.printExpr(e.Y, prec+1)

	case *ast.UnaryExpr:
		if e.Op.IsPostfix() {
			p.printExpr(e.X, precPostfix)
			p.print(e.Op.String())
			return
		}
		p.print(e.Op.String())
		p.printExpr(e.X, precUnary)

	case *ast.TernaryExpr:
		p.printExpr(e.Cond, precTernary+1)
		p.printSpace()
		p.print("?")
		p.printSpace()
		p.printExpr(e.Then, precComma)
		p.printSpace()
		p.print(":")
		p.printSpace()
		p.printExpr(e.Else, precAssign)

	case *ast.ParenExpr:
		p.print("(")
		p.printExpr(e.X, precLowest)
		p.print(")")

	case *ast.CallExpr:
		p.print(e.Callee)
		p.printArgs(e.Args)

	case *ast.ConstructorExpr:
		p.print(e.Type)
		p.printArgs(e.Args)

	case *ast.ArrayConstructorExpr:
		p.print(e.Elem)
		p.print("[")
		if e.Size != nil {
			p.printExpr(e.Size, precTernary)
		}
		p.print("]")
		p.printArgs(e.Args)

	case *ast.IndexExpr:
		p.printExpr(e.X, precPostfix)
		p.print("[")
		p.printExpr(e.Index, precLowest)
		p.print("]")

	case *ast.MemberExpr:
		p.printExpr(e.X, precPostfix)
		p.print(".")
		p.print(e.Member)
	}
}

func (p *Printer) printArgs(args []ast.Expr) {
	p.print("(")
	for i, a := range args {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		p.printExpr(a, precAssign)
	}
	p.print(")")
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (p *Printer) printBlock(b *ast.BlockStmt) {
	p.print("{")
	p.indent++
	for _, s := range b.Stmts {
		p.printNewline()
		p.printStmt(s)
	}
	p.indent--
	p.printNewline()
	p.print("}")
}

// printBody prints the body of an if or loop: blocks stay on the same line,
// other statements go on their own indented line.
func (p *Printer) printBody(s ast.Stmt) {
	if b, ok := s.(*ast.BlockStmt); ok {
		p.printSpace()
		p.printBlock(b)
		return
	}
	p.indent++
	p.printNewline()
	p.printStmt(s)
	p.indent--
}

// printStmt prints a statement without a trailing newline.
func (p *Printer) printStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.BlockStmt:
		p.printBlock(s)

	case *ast.DeclStmt:
		p.printVariablesDecl(s.Decl)
		p.print(";")

	case *ast.ExprStmt:
		p.printExpr(s.X, precLowest)
		p.print(";")

	case *ast.IfStmt:
		p.print("if")
		p.printSpace()
		p.print("(")
		p.printExpr(s.Cond, precLowest)
		p.print(")")
		p.printBody(s.Then)
		if s.Else != nil {
			if _, ok := s.Then.(*ast.BlockStmt); ok {
				p.printSpace()
			} else {
				p.printNewline()
			}
			p.print("else")
			if elseIf, ok := s.Else.(*ast.IfStmt); ok {
				p.print(" ")
				p.printStmt(elseIf)
			} else {
				p.printBody(s.Else)
			}
		}

	case *ast.ForStmt:
		p.print("for")
		p.printSpace()
		p.print("(")
		p.printForInit(s.Init)
		if s.Cond != nil {
			p.printSpace()
			p.printExpr(s.Cond, precLowest)
		}
		p.print(";")
		if s.Incr != nil {
			p.printSpace()
			p.printExpr(s.Incr, precLowest)
		}
		p.print(")")
		p.printBody(s.Body)

	case *ast.WhileStmt:
		p.print("while")
		p.printSpace()
		p.print("(")
		p.printExpr(s.Cond, precLowest)
		p.print(")")
		p.printBody(s.Body)

	case *ast.DoStmt:
		p.print("do")
		p.printBody(s.Body)
		if _, ok := s.Body.(*ast.BlockStmt); ok {
			p.printSpace()
		} else {
			p.printNewline()
		}
		p.print("while")
		p.printSpace()
		p.print("(")
		p.printExpr(s.Cond, precLowest)
		p.print(");")

	case *ast.SwitchStmt:
		p.print("switch")
		p.printSpace()
		p.print("(")
		p.printExpr(s.X, precLowest)
		p.print(")")
		p.printSpace()
		p.printBlock(s.Body)

	case *ast.ExprCaseLabel:
		p.print("case")
		p.print(" ")
		p.printExpr(s.X, precTernary)
		p.print(":")

	case *ast.DefaultCaseLabel:
		p.print("default:")

	case *ast.BreakStmt:
		p.print("break;")

	case *ast.ContinueStmt:
		p.print("continue;")

	case *ast.DiscardStmt:
		p.print("discard;")

	case *ast.ReturnStmt:
		p.print("return")
		if s.X != nil {
			p.print(" ")
			p.printExpr(s.X, precLowest)
		}
		p.print(";")

	case *ast.NullStmt:
		p.print(";")
	}
}

func (p *Printer) printForInit(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.DeclStmt:
		p.printVariablesDecl(s.Decl)
		p.print(";")
	case *ast.ExprStmt:
		p.printExpr(s.X, precLowest)
		p.print(";")
	default:
		p.print(";")
	}
}
