// Package parser provides GLSL parsing into an AST.
//
// The parser is a hand-written recursive descent parser over the token
// stream produced by the lexer. Binary operators are parsed by precedence
// climbing using the precedence table on ast.BinaryOp.
//
// GLSL needs to know which identifiers are type names to tell declarations
// from expressions ("S x;" versus "S(1.0);"), so the parser tracks the
// names of structs declared so far.
package parser

import (
	"fmt"
	"strings"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/diagnostic"
	"github.com/HugoDaniel/glslreduce/internal/lexer"
	"github.com/HugoDaniel/glslreduce/internal/types"
)

// Parser parses GLSL source into an AST.
type Parser struct {
	source    string
	tokens    []lexer.Token
	pos       int
	lineIndex *diagnostic.LineIndex

	// Struct names declared so far; they act as type names.
	structNames map[string]bool

	errors []ParseError
}

// ParseError represents a parsing error.
type ParseError struct {
	Message string
	Code    diagnostic.Code
	Pos     int
	Line    int
	Column  int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// ParseErrors is the error returned by Parse when the source is invalid.
type ParseErrors []ParseError

func (errs ParseErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// In binds errs to the named source they were found in.
func (errs ParseErrors) In(name, source string) *SourceError {
	return &SourceError{Name: name, Source: source, Errs: errs}
}

// SourceError is a ParseErrors whose message quotes each offending line
// with a marker under the error position.
type SourceError struct {
	Name   string
	Source string
	Errs   ParseErrors
}

func (e *SourceError) Error() string {
	dl := diagnostic.NewList(e.Source)
	for _, pe := range e.Errs {
		dl.AddError(pe.Pos, pe.Pos+1, pe.Code, pe.Message)
	}
	return e.Name + ":\n" + strings.TrimSuffix(dl.Format(), "\n")
}

func (e *SourceError) Unwrap() error { return e.Errs }

// New creates a new parser for the given source.
func New(source string) *Parser {
	return &Parser{
		source:      source,
		tokens:      lexer.New(source).Tokenize(),
		lineIndex:   diagnostic.NewLineIndex(source),
		structNames: make(map[string]bool),
	}
}

// Parse parses the source and returns the translation unit.
func (p *Parser) Parse() (*ast.TranslationUnit, []ParseError) {
	tu := &ast.TranslationUnit{}
	for !p.atEnd() {
		start := p.pos
		if d := p.parseExternalDecl(); d != nil {
			tu.Decls = append(tu.Decls, d)
		}
		if p.pos == start {
			p.synchronize()
		}
	}
	if tok := p.current(); tok.Kind == lexer.TokError {
		p.errorAt(tok, errorCode(tok.Value), tok.Value)
	}
	return tu, p.errors
}

// Parse is a convenience wrapper that parses source and folds all parse
// errors into a single error.
func Parse(source string) (*ast.TranslationUnit, error) {
	tu, errs := New(source).Parse()
	if len(errs) > 0 {
		return nil, ParseErrors(errs)
	}
	return tu, nil
}

// ----------------------------------------------------------------------------
// Token Helpers
// ----------------------------------------------------------------------------

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.TokEOF, Start: len(p.source)}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(offset int) lexer.Token {
	pos := p.pos + offset
	if pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.TokEOF, Start: len(p.source)}
	}
	return p.tokens[pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) && tok.Kind != lexer.TokEOF && tok.Kind != lexer.TokError {
		p.pos++
	}
	return tok
}

func (p *Parser) atEnd() bool {
	k := p.current().Kind
	return k == lexer.TokEOF || k == lexer.TokError
}

func (p *Parser) expect(kind lexer.TokenKind) (lexer.Token, bool) {
	tok := p.current()
	if tok.Kind != kind {
		p.error(fmt.Sprintf("expected %s, got %s", kind, describe(tok)))
		return tok, false
	}
	p.advance()
	return tok, true
}

func (p *Parser) match(kind lexer.TokenKind) bool {
	if p.current().Kind == kind {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) error(msg string) {
	tok := p.current()
	if tok.Kind == lexer.TokError {
		// Report the lexer's message rather than the parser's reaction to it
		p.errorAt(tok, errorCode(tok.Value), tok.Value)
		return
	}
	p.errorAt(tok, diagnostic.CodeUnexpectedToken, msg)
}

func (p *Parser) errorAt(tok lexer.Token, code diagnostic.Code, msg string) {
	// One error per position is enough; recovery tends to repeat them
	if n := len(p.errors); n > 0 && p.errors[n-1].Pos == tok.Start {
		return
	}
	line, col := p.lineIndex.ByteOffsetToLineColumn(tok.Start)
	p.errors = append(p.errors, ParseError{
		Message: msg,
		Code:    code,
		Pos:     tok.Start,
		Line:    line + 1,
		Column:  col + 1,
	})
}

// synchronize skips to just after the next ';' or '}' so parsing can
// resume after an error.
func (p *Parser) synchronize() {
	for !p.atEnd() {
		switch p.advance().Kind {
		case lexer.TokSemicolon, lexer.TokRBrace:
			return
		}
	}
}

func describe(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.TokIdent, lexer.TokIntLiteral, lexer.TokUintLiteral, lexer.TokFloatLiteral, lexer.TokQualifier:
		return fmt.Sprintf("%s %q", tok.Kind, tok.Value)
	case lexer.TokError:
		return tok.Value
	}
	return fmt.Sprintf("%q", tok.Kind.String())
}

func errorCode(msg string) diagnostic.Code {
	switch {
	case strings.Contains(msg, "numeric"), strings.Contains(msg, "hex"):
		return diagnostic.CodeInvalidNumber
	case strings.HasPrefix(msg, "reserved word"):
		return diagnostic.CodeReservedWord
	}
	return diagnostic.CodeUnexpectedToken
}

func loc(tok lexer.Token) ast.Loc {
	return ast.Loc{Start: int32(tok.Start)}
}

// isTypeName reports whether name names a builtin type or a struct
// declared so far.
func (p *Parser) isTypeName(name string) bool {
	return p.structNames[name] || types.IsBuiltinTypeName(name)
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

func (p *Parser) parseExternalDecl() ast.Decl {
	tok := p.current()
	switch tok.Kind {
	case lexer.TokDirective:
		p.advance()
		return &ast.PPDirective{Loc: loc(tok), Text: tok.Value}

	case lexer.TokSemicolon:
		// Stray semicolon at file scope
		p.advance()
		return nil

	case lexer.TokPrecision:
		return p.parsePrecisionDecl()
	}

	start := tok
	typ := p.parseTypeSpec()
	if typ == nil {
		return nil
	}

	// layout(...) in; and similar
	if typ.Name == "" && typ.Struct == nil && p.current().Kind == lexer.TokSemicolon && len(typ.Layout) > 0 {
		p.advance()
		qualifier := ""
		if len(typ.Qualifiers) > 0 {
			qualifier = typ.Qualifiers[len(typ.Qualifiers)-1]
		}
		return &ast.DefaultLayoutDecl{Loc: loc(start), Layout: typ.Layout, Qualifier: qualifier}
	}

	// uniform Block { ... } instance;
	if typ.Struct == nil && typ.Name != "" && !p.isTypeName(typ.Name) && p.current().Kind == lexer.TokLBrace {
		return p.parseInterfaceBlock(start, typ)
	}

	if p.current().Kind == lexer.TokIdent && p.peek(1).Kind == lexer.TokLParen {
		return p.parseFunction(start, typ)
	}

	return p.parseVariablesDecl(start, typ)
}

func (p *Parser) parsePrecisionDecl() ast.Decl {
	start := p.advance()
	precision, _ := p.expect(lexer.TokQualifier)
	name, _ := p.expect(lexer.TokIdent)
	p.expect(lexer.TokSemicolon)
	return &ast.PrecisionDecl{Loc: loc(start), Precision: precision.Value, TypeName: name.Value}
}

// parseTypeSpec parses layout, qualifiers and a type name or inline struct.
// For interface blocks and default layout declarations the returned name is
// the block name or empty; the caller decides.
func (p *Parser) parseTypeSpec() *ast.TypeSpec {
	typ := &ast.TypeSpec{Loc: loc(p.current())}

	for {
		switch p.current().Kind {
		case lexer.TokLayout:
			typ.Layout = append(typ.Layout, p.parseLayout()...)
			continue
		case lexer.TokQualifier:
			typ.Qualifiers = append(typ.Qualifiers, p.advance().Value)
			continue
		}
		break
	}

	switch tok := p.current(); tok.Kind {
	case lexer.TokStruct:
		typ.Struct = p.parseStructDef()
		if typ.Struct != nil {
			typ.Name = typ.Struct.Name
		}
	case lexer.TokIdent:
		p.advance()
		typ.Name = tok.Value
	default:
		if len(typ.Layout) == 0 && len(typ.Qualifiers) == 0 {
			p.error(fmt.Sprintf("expected declaration, got %s", describe(tok)))
			return nil
		}
		// Qualifier-only declaration such as "layout(...) in;"
	}

	if p.current().Kind == lexer.TokLBracket && typ.Struct == nil {
		p.error("array type specifiers are not supported; put the array size on the declarator")
	}
	return typ
}

func (p *Parser) parseLayout() []ast.LayoutQualifier {
	p.advance() // layout
	p.expect(lexer.TokLParen)
	var out []ast.LayoutQualifier
	for !p.atEnd() && p.current().Kind != lexer.TokRParen {
		name := p.advance()
		if name.Kind != lexer.TokIdent && name.Kind != lexer.TokQualifier {
			p.errorAt(name, diagnostic.CodeUnexpectedToken, "expected layout qualifier name")
			break
		}
		q := ast.LayoutQualifier{Name: name.Value}
		if p.match(lexer.TokEq) {
			q.Value = p.advance().Value
		}
		out = append(out, q)
		if !p.match(lexer.TokComma) {
			break
		}
	}
	p.expect(lexer.TokRParen)
	return out
}

func (p *Parser) parseStructDef() *ast.StructDef {
	start := p.advance() // struct
	def := &ast.StructDef{Loc: loc(start)}
	if p.current().Kind == lexer.TokIdent {
		def.Name = p.advance().Value
		// Visible to its own fields' later uses and everything after
		p.structNames[def.Name] = true
	}
	if _, ok := p.expect(lexer.TokLBrace); !ok {
		return nil
	}
	def.Fields = p.parseFieldList()
	p.expect(lexer.TokRBrace)
	return def
}

// parseFieldList parses "T a, b[2]; U c;" up to the closing brace.
func (p *Parser) parseFieldList() []*ast.StructField {
	var fields []*ast.StructField
	for !p.atEnd() && p.current().Kind != lexer.TokRBrace {
		start := p.pos
		typ := p.parseTypeSpec()
		if typ == nil {
			p.synchronize()
			continue
		}
		for {
			name, ok := p.expect(lexer.TokIdent)
			if !ok {
				break
			}
			f := &ast.StructField{Loc: loc(name), Type: typ, Name: name.Value}
			if p.current().Kind == lexer.TokLBracket {
				f.Array = p.parseArrayInfo()
			}
			fields = append(fields, f)
			if !p.match(lexer.TokComma) {
				break
			}
			// Each field gets its own copy of the type
			typ = ast.CloneTypeSpec(typ)
		}
		p.expect(lexer.TokSemicolon)
		if p.pos == start {
			p.synchronize()
		}
	}
	return fields
}

func (p *Parser) parseArrayInfo() *ast.ArrayInfo {
	start := p.advance() // [
	info := &ast.ArrayInfo{Loc: loc(start)}
	if p.current().Kind != lexer.TokRBracket {
		info.Size = p.parseConditionalExpr()
	}
	p.expect(lexer.TokRBracket)
	return info
}

func (p *Parser) parseInterfaceBlock(start lexer.Token, typ *ast.TypeSpec) ast.Decl {
	block := &ast.InterfaceBlock{
		Loc:        loc(start),
		Layout:     typ.Layout,
		Qualifiers: typ.Qualifiers,
		Name:       typ.Name,
	}
	p.advance() // {
	block.Members = p.parseFieldList()
	p.expect(lexer.TokRBrace)
	if p.current().Kind == lexer.TokIdent {
		block.Instance = p.advance().Value
		if p.current().Kind == lexer.TokLBracket {
			block.Array = p.parseArrayInfo()
		}
	}
	p.expect(lexer.TokSemicolon)
	return block
}

func (p *Parser) parseFunction(start lexer.Token, ret *ast.TypeSpec) ast.Decl {
	name := p.advance()
	proto := &ast.FunctionPrototype{Loc: loc(start), ReturnType: ret, Name: name.Value}

	p.expect(lexer.TokLParen)
	// f(void) has no parameters
	if p.current().Kind == lexer.TokIdent && p.current().Value == "void" && p.peek(1).Kind == lexer.TokRParen {
		p.advance()
	}
	for !p.atEnd() && p.current().Kind != lexer.TokRParen {
		param := p.parseParam()
		if param == nil {
			break
		}
		proto.Params = append(proto.Params, param)
		if !p.match(lexer.TokComma) {
			break
		}
	}
	p.expect(lexer.TokRParen)

	if p.match(lexer.TokSemicolon) {
		return proto
	}
	if p.current().Kind != lexer.TokLBrace {
		p.error(fmt.Sprintf("expected function body, got %s", describe(p.current())))
		return proto
	}
	body := p.parseBlock(false)
	return &ast.FunctionDef{Loc: loc(start), Proto: proto, Body: body}
}

func (p *Parser) parseParam() *ast.ParamDecl {
	start := p.current()
	typ := p.parseTypeSpec()
	if typ == nil {
		return nil
	}
	param := &ast.ParamDecl{Loc: loc(start), Type: typ}
	if p.current().Kind == lexer.TokIdent {
		param.Name = p.advance().Value
	}
	if p.current().Kind == lexer.TokLBracket {
		param.Array = p.parseArrayInfo()
	}
	return param
}

// parseVariablesDecl parses the declarator list after a type and the
// terminating semicolon.
func (p *Parser) parseVariablesDecl(start lexer.Token, typ *ast.TypeSpec) *ast.VariablesDecl {
	decl := &ast.VariablesDecl{Loc: loc(start), Type: typ}
	if p.match(lexer.TokSemicolon) {
		return decl
	}
	for {
		name, ok := p.expect(lexer.TokIdent)
		if !ok {
			p.synchronize()
			return decl
		}
		vdi := &ast.VarDeclInfo{Loc: loc(name), Name: name.Value}
		if p.current().Kind == lexer.TokLBracket {
			vdi.Array = p.parseArrayInfo()
		}
		if p.match(lexer.TokEq) {
			vdi.Init = p.parseAssignmentExpr()
		}
		decl.Decls = append(decl.Decls, vdi)
		if !p.match(lexer.TokComma) {
			break
		}
	}
	p.expect(lexer.TokSemicolon)
	return decl
}

// isDeclStart reports whether the statement at the current position is a
// declaration.
func (p *Parser) isDeclStart() bool {
	tok := p.current()
	switch tok.Kind {
	case lexer.TokQualifier, lexer.TokLayout, lexer.TokStruct:
		return true
	case lexer.TokIdent:
		return p.isTypeName(tok.Value) && p.peek(1).Kind == lexer.TokIdent
	}
	return false
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

var binaryOps = map[lexer.TokenKind]ast.BinaryOp{
	lexer.TokStar:       ast.BinMul,
	lexer.TokSlash:      ast.BinDiv,
	lexer.TokPercent:    ast.BinMod,
	lexer.TokPlus:       ast.BinAdd,
	lexer.TokMinus:      ast.BinSub,
	lexer.TokLtLt:       ast.BinShl,
	lexer.TokGtGt:       ast.BinShr,
	lexer.TokLt:         ast.BinLt,
	lexer.TokGt:         ast.BinGt,
	lexer.TokLtEq:       ast.BinLe,
	lexer.TokGtEq:       ast.BinGe,
	lexer.TokEqEq:       ast.BinEq,
	lexer.TokBangEq:     ast.BinNe,
	lexer.TokAmp:        ast.BinBitAnd,
	lexer.TokCaret:      ast.BinBitXor,
	lexer.TokPipe:       ast.BinBitOr,
	lexer.TokAmpAmp:     ast.BinLogAnd,
	lexer.TokCaretCaret: ast.BinLogXor,
	lexer.TokPipePipe:   ast.BinLogOr,
}

var assignOps = map[lexer.TokenKind]ast.BinaryOp{
	lexer.TokEq:        ast.BinAssign,
	lexer.TokStarEq:    ast.BinMulAssign,
	lexer.TokSlashEq:   ast.BinDivAssign,
	lexer.TokPercentEq: ast.BinModAssign,
	lexer.TokPlusEq:    ast.BinAddAssign,
	lexer.TokMinusEq:   ast.BinSubAssign,
	lexer.TokLtLtEq:    ast.BinShlAssign,
	lexer.TokGtGtEq:    ast.BinShrAssign,
	lexer.TokAmpEq:     ast.BinBitAndAssign,
	lexer.TokCaretEq:   ast.BinBitXorAssign,
	lexer.TokPipeEq:    ast.BinBitOrAssign,
}

// parseExpression parses a full expression, including the comma operator.
func (p *Parser) parseExpression() ast.Expr {
	left := p.parseAssignmentExpr()
	for p.current().Kind == lexer.TokComma {
		tok := p.advance()
		right := p.parseAssignmentExpr()
		left = &ast.BinaryExpr{Loc: loc(tok), Op: ast.BinComma, X: left, Y: right}
	}
	return left
}

func (p *Parser) parseAssignmentExpr() ast.Expr {
	left := p.parseConditionalExpr()
	if op, ok := assignOps[p.current().Kind]; ok {
		tok := p.advance()
		right := p.parseAssignmentExpr()
		return &ast.BinaryExpr{Loc: loc(tok), Op: op, X: left, Y: right}
	}
	return left
}

func (p *Parser) parseConditionalExpr() ast.Expr {
	cond := p.parseBinaryExpr(ast.BinLogOr.Precedence())
	if p.current().Kind != lexer.TokQuestion {
		return cond
	}
	tok := p.advance()
	then := p.parseExpression()
	p.expect(lexer.TokColon)
	els := p.parseAssignmentExpr()
	return &ast.TernaryExpr{Loc: loc(tok), Cond: cond, Then: then, Else: els}
}

// parseBinaryExpr parses binary operators binding at least as tightly as
// minPrec. All binary operators are left associative.
func (p *Parser) parseBinaryExpr(minPrec int) ast.Expr {
	left := p.parseUnaryExpr()
	for {
		op, ok := binaryOps[p.current().Kind]
		if !ok || op.Precedence() < minPrec {
			return left
		}
		tok := p.advance()
		right := p.parseBinaryExpr(op.Precedence() + 1)
		left = &ast.BinaryExpr{Loc: loc(tok), Op: op, X: left, Y: right}
	}
}

func (p *Parser) parseUnaryExpr() ast.Expr {
	var op ast.UnaryOp
	switch p.current().Kind {
	case lexer.TokPlusPlus:
		op = ast.UnaryPreInc
	case lexer.TokMinusMinus:
		op = ast.UnaryPreDec
	case lexer.TokPlus:
		op = ast.UnaryPlus
	case lexer.TokMinus:
		op = ast.UnaryMinus
	case lexer.TokTilde:
		op = ast.UnaryBitNot
	case lexer.TokBang:
		op = ast.UnaryLogNot
	default:
		return p.parsePostfixExpr()
	}
	tok := p.advance()
	operand := p.parseUnaryExpr()
	return &ast.UnaryExpr{Loc: loc(tok), Op: op, X: operand}
}

func (p *Parser) parsePostfixExpr() ast.Expr {
	left := p.parsePrimaryExpr()
	if left == nil {
		return nil
	}
	for {
		switch tok := p.current(); tok.Kind {
		case lexer.TokDot:
			p.advance()
			name, ok := p.expect(lexer.TokIdent)
			if !ok {
				return left
			}
			if p.current().Kind == lexer.TokLParen {
				p.error("method calls are not supported")
				return left
			}
			left = &ast.MemberExpr{Loc: loc(tok), X: left, Member: name.Value}

		case lexer.TokLBracket:
			p.advance()
			index := p.parseExpression()
			p.expect(lexer.TokRBracket)
			left = &ast.IndexExpr{Loc: loc(tok), X: left, Index: index}

		case lexer.TokPlusPlus:
			p.advance()
			left = &ast.UnaryExpr{Loc: loc(tok), Op: ast.UnaryPostInc, X: left}

		case lexer.TokMinusMinus:
			p.advance()
			left = &ast.UnaryExpr{Loc: loc(tok), Op: ast.UnaryPostDec, X: left}

		default:
			return left
		}
	}
}

func (p *Parser) parsePrimaryExpr() ast.Expr {
	tok := p.current()

	switch tok.Kind {
	case lexer.TokIntLiteral:
		p.advance()
		return &ast.IntLit{Loc: loc(tok), Value: tok.Value}

	case lexer.TokUintLiteral:
		p.advance()
		return &ast.UintLit{Loc: loc(tok), Value: strings.TrimRight(tok.Value, "uU")}

	case lexer.TokFloatLiteral:
		p.advance()
		return &ast.FloatLit{Loc: loc(tok), Value: tok.Value}

	case lexer.TokTrue, lexer.TokFalse:
		p.advance()
		return &ast.BoolLit{Loc: loc(tok), Value: tok.Kind == lexer.TokTrue}

	case lexer.TokIdent:
		p.advance()
		name := tok.Value

		// T[n](...) array constructor
		if p.current().Kind == lexer.TokLBracket && p.isTypeName(name) {
			return p.parseArrayConstructor(tok)
		}

		if p.current().Kind == lexer.TokLParen {
			p.advance()
			args := p.parseCallArgs()
			p.expect(lexer.TokRParen)
			if p.isTypeName(name) {
				return &ast.ConstructorExpr{Loc: loc(tok), Type: name, Args: args}
			}
			return &ast.CallExpr{Loc: loc(tok), Callee: name, Args: args}
		}
		return &ast.Ident{Loc: loc(tok), Name: name}

	case lexer.TokLParen:
		p.advance()
		expr := p.parseExpression()
		p.expect(lexer.TokRParen)
		return &ast.ParenExpr{Loc: loc(tok), X: expr}

	default:
		p.error(fmt.Sprintf("expected expression, got %s", describe(tok)))
		return nil
	}
}

func (p *Parser) parseArrayConstructor(tok lexer.Token) ast.Expr {
	p.advance() // [
	ctor := &ast.ArrayConstructorExpr{Loc: loc(tok), Elem: tok.Value}
	if p.current().Kind != lexer.TokRBracket {
		ctor.Size = p.parseConditionalExpr()
	}
	p.expect(lexer.TokRBracket)
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return ctor
	}
	ctor.Args = p.parseCallArgs()
	p.expect(lexer.TokRParen)
	return ctor
}

// parseCallArgs parses a comma-separated argument list. f(void) is
// accepted as an empty list.
func (p *Parser) parseCallArgs() []ast.Expr {
	var args []ast.Expr
	if p.current().Kind == lexer.TokRParen {
		return args
	}
	if p.current().Kind == lexer.TokIdent && p.current().Value == "void" && p.peek(1).Kind == lexer.TokRParen {
		p.advance()
		return args
	}
	for {
		arg := p.parseAssignmentExpr()
		if arg == nil {
			return args
		}
		args = append(args, arg)
		if !p.match(lexer.TokComma) {
			return args
		}
	}
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (p *Parser) parseStatement() ast.Stmt {
	tok := p.current()
	switch tok.Kind {
	case lexer.TokLBrace:
		return p.parseBlock(true)

	case lexer.TokSemicolon:
		p.advance()
		return &ast.NullStmt{Loc: loc(tok)}

	case lexer.TokIf:
		return p.parseIfStmt()

	case lexer.TokFor:
		return p.parseForStmt()

	case lexer.TokWhile:
		p.advance()
		p.expect(lexer.TokLParen)
		cond := p.parseExpression()
		p.expect(lexer.TokRParen)
		body := p.parseLoopBody()
		return &ast.WhileStmt{Loc: loc(tok), Cond: cond, Body: body}

	case lexer.TokDo:
		p.advance()
		body := p.parseStatement()
		p.expect(lexer.TokWhile)
		p.expect(lexer.TokLParen)
		cond := p.parseExpression()
		p.expect(lexer.TokRParen)
		p.expect(lexer.TokSemicolon)
		return &ast.DoStmt{Loc: loc(tok), Body: body, Cond: cond}

	case lexer.TokSwitch:
		p.advance()
		p.expect(lexer.TokLParen)
		x := p.parseExpression()
		p.expect(lexer.TokRParen)
		if p.current().Kind != lexer.TokLBrace {
			p.error("expected '{' after switch")
			return nil
		}
		body := p.parseBlock(false)
		return &ast.SwitchStmt{Loc: loc(tok), X: x, Body: body}

	case lexer.TokCase:
		p.advance()
		x := p.parseConditionalExpr()
		p.expect(lexer.TokColon)
		return &ast.ExprCaseLabel{Loc: loc(tok), X: x}

	case lexer.TokDefault:
		p.advance()
		p.expect(lexer.TokColon)
		return &ast.DefaultCaseLabel{Loc: loc(tok)}

	case lexer.TokBreak:
		p.advance()
		p.expect(lexer.TokSemicolon)
		return &ast.BreakStmt{Loc: loc(tok)}

	case lexer.TokContinue:
		p.advance()
		p.expect(lexer.TokSemicolon)
		return &ast.ContinueStmt{Loc: loc(tok)}

	case lexer.TokDiscard:
		p.advance()
		p.expect(lexer.TokSemicolon)
		return &ast.DiscardStmt{Loc: loc(tok)}

	case lexer.TokReturn:
		p.advance()
		ret := &ast.ReturnStmt{Loc: loc(tok)}
		if p.current().Kind != lexer.TokSemicolon {
			ret.X = p.parseExpression()
		}
		p.expect(lexer.TokSemicolon)
		return ret

	case lexer.TokDirective:
		p.advance()
		p.errorAt(tok, diagnostic.CodeBadDirective, "preprocessor directives inside functions are not supported")
		return nil
	}

	if p.isDeclStart() {
		return p.parseDeclStmt()
	}

	x := p.parseExpression()
	if x == nil {
		p.synchronize()
		return nil
	}
	p.expect(lexer.TokSemicolon)
	return &ast.ExprStmt{Loc: loc(tok), X: x}
}

func (p *Parser) parseDeclStmt() ast.Stmt {
	start := p.current()
	typ := p.parseTypeSpec()
	if typ == nil {
		p.synchronize()
		return nil
	}
	return &ast.DeclStmt{Loc: loc(start), Decl: p.parseVariablesDecl(start, typ)}
}

// parseBlock parses "{ ... }". newScope is false for function and switch
// bodies.
func (p *Parser) parseBlock(newScope bool) *ast.BlockStmt {
	start, _ := p.expect(lexer.TokLBrace)
	block := &ast.BlockStmt{Loc: loc(start), NewScope: newScope}
	for !p.atEnd() && p.current().Kind != lexer.TokRBrace {
		before := p.pos
		if s := p.parseStatement(); s != nil {
			block.Stmts = append(block.Stmts, s)
		}
		if p.pos == before {
			p.synchronize()
		}
	}
	p.expect(lexer.TokRBrace)
	return block
}

// parseLoopBody parses the body of a for or while loop, whose scope is the
// loop's own.
func (p *Parser) parseLoopBody() ast.Stmt {
	if p.current().Kind == lexer.TokLBrace {
		return p.parseBlock(false)
	}
	return p.parseStatement()
}

func (p *Parser) parseIfStmt() ast.Stmt {
	tok := p.advance()
	p.expect(lexer.TokLParen)
	cond := p.parseExpression()
	p.expect(lexer.TokRParen)
	stmt := &ast.IfStmt{Loc: loc(tok), Cond: cond, Then: p.parseStatement()}
	if p.match(lexer.TokElse) {
		stmt.Else = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseForStmt() ast.Stmt {
	tok := p.advance()
	p.expect(lexer.TokLParen)
	stmt := &ast.ForStmt{Loc: loc(tok)}

	// Init always consumes its semicolon
	switch {
	case p.current().Kind == lexer.TokSemicolon:
		stmt.Init = &ast.NullStmt{Loc: loc(p.advance())}
	case p.isDeclStart():
		stmt.Init = p.parseDeclStmt()
	default:
		start := p.current()
		x := p.parseExpression()
		p.expect(lexer.TokSemicolon)
		stmt.Init = &ast.ExprStmt{Loc: loc(start), X: x}
	}

	if p.current().Kind != lexer.TokSemicolon {
		stmt.Cond = p.parseExpression()
	}
	p.expect(lexer.TokSemicolon)

	if p.current().Kind != lexer.TokRParen {
		stmt.Incr = p.parseExpression()
	}
	p.expect(lexer.TokRParen)
	stmt.Body = p.parseLoopBody()
	return stmt
}
