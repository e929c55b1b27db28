// Package lexer provides tokenization for GLSL source code.
//
// The lexer converts a GLSL source string into a sequence of tokens,
// handling:
// - Statement keywords and storage/interpolation qualifiers
// - Identifiers (type names such as vec4 are identifiers; the parser
//   resolves them)
// - Numeric literals (decimal, octal, hex, float, u and f suffixes)
// - Operators and punctuation
// - Comments (line and block)
// - Preprocessor lines, kept verbatim as a single directive token
package lexer

import "strings"

// ----------------------------------------------------------------------------
// Token Types
// ----------------------------------------------------------------------------

// TokenKind represents the type of a token.
type TokenKind uint8

const (
	TokError TokenKind = iota
	TokEOF

	// Literals
	TokIntLiteral
	TokUintLiteral
	TokFloatLiteral
	TokTrue
	TokFalse

	// Identifiers
	TokIdent

	// Preprocessor line (#version, #define, #extension, ...)
	TokDirective

	// Keywords
	TokBreak
	TokCase
	TokContinue
	TokDefault
	TokDiscard
	TokDo
	TokElse
	TokFor
	TokIf
	TokLayout
	TokPrecision
	TokReturn
	TokStruct
	TokSwitch
	TokWhile

	// Storage, parameter, interpolation, precision and memory qualifiers.
	// The qualifier text is kept in Token.Value.
	TokQualifier

	// Operators
	TokPlus     // +
	TokMinus    // -
	TokStar     // *
	TokSlash    // /
	TokPercent  // %
	TokAmp      // &
	TokPipe     // |
	TokCaret    // ^
	TokTilde    // ~
	TokBang     // !
	TokLt       // <
	TokGt       // >
	TokEq       // =
	TokDot      // .
	TokQuestion // ?

	// Multi-char operators
	TokPlusPlus    // ++
	TokMinusMinus  // --
	TokAmpAmp      // &&
	TokPipePipe    // ||
	TokCaretCaret  // ^^
	TokLtLt        // <<
	TokGtGt        // >>
	TokLtEq        // <=
	TokGtEq        // >=
	TokEqEq        // ==
	TokBangEq      // !=
	TokPlusEq      // +=
	TokMinusEq     // -=
	TokStarEq      // *=
	TokSlashEq     // /=
	TokPercentEq   // %=
	TokAmpEq       // &=
	TokPipeEq      // |=
	TokCaretEq     // ^=
	TokLtLtEq      // <<=
	TokGtGtEq      // >>=

	// Delimiters
	TokLParen    // (
	TokRParen    // )
	TokLBrace    // {
	TokRBrace    // }
	TokLBracket  // [
	TokRBracket  // ]
	TokSemicolon // ;
	TokColon     // :
	TokComma     // ,
)

// String returns the string representation of a token kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return "unknown"
}

var tokenNames = [...]string{
	TokError:        "error",
	TokEOF:          "EOF",
	TokIntLiteral:   "int",
	TokUintLiteral:  "uint",
	TokFloatLiteral: "float",
	TokTrue:         "true",
	TokFalse:        "false",
	TokIdent:        "identifier",
	TokDirective:    "directive",
	// Keywords
	TokBreak:     "break",
	TokCase:      "case",
	TokContinue:  "continue",
	TokDefault:   "default",
	TokDiscard:   "discard",
	TokDo:        "do",
	TokElse:      "else",
	TokFor:       "for",
	TokIf:        "if",
	TokLayout:    "layout",
	TokPrecision: "precision",
	TokReturn:    "return",
	TokStruct:    "struct",
	TokSwitch:    "switch",
	TokWhile:     "while",
	TokQualifier: "qualifier",
	// Operators
	TokPlus:     "+",
	TokMinus:    "-",
	TokStar:     "*",
	TokSlash:    "/",
	TokPercent:  "%",
	TokAmp:      "&",
	TokPipe:     "|",
	TokCaret:    "^",
	TokTilde:    "~",
	TokBang:     "!",
	TokLt:       "<",
	TokGt:       ">",
	TokEq:       "=",
	TokDot:      ".",
	TokQuestion: "?",
	// Multi-char operators
	TokPlusPlus:   "++",
	TokMinusMinus: "--",
	TokAmpAmp:     "&&",
	TokPipePipe:   "||",
	TokCaretCaret: "^^",
	TokLtLt:       "<<",
	TokGtGt:       ">>",
	TokLtEq:       "<=",
	TokGtEq:       ">=",
	TokEqEq:       "==",
	TokBangEq:     "!=",
	TokPlusEq:     "+=",
	TokMinusEq:    "-=",
	TokStarEq:     "*=",
	TokSlashEq:    "/=",
	TokPercentEq:  "%=",
	TokAmpEq:      "&=",
	TokPipeEq:     "|=",
	TokCaretEq:    "^=",
	TokLtLtEq:     "<<=",
	TokGtGtEq:     ">>=",
	// Delimiters
	TokLParen:    "(",
	TokRParen:    ")",
	TokLBrace:    "{",
	TokRBrace:    "}",
	TokLBracket:  "[",
	TokRBracket:  "]",
	TokSemicolon: ";",
	TokColon:     ":",
	TokComma:     ",",
}

// ----------------------------------------------------------------------------
// Token
// ----------------------------------------------------------------------------

// Token represents a lexical token.
type Token struct {
	Kind  TokenKind
	Start int    // Byte offset in source
	End   int    // Byte offset of end (exclusive)
	Value string // For identifiers, qualifiers, literals and directives
}

// Text returns the source text of the token.
func (t Token) Text(source string) string {
	if t.Start >= 0 && t.End <= len(source) {
		return source[t.Start:t.End]
	}
	return ""
}

// ----------------------------------------------------------------------------
// Keywords
// ----------------------------------------------------------------------------

// Keywords maps keyword strings to their token kinds.
var Keywords = map[string]TokenKind{
	"break":     TokBreak,
	"case":      TokCase,
	"continue":  TokContinue,
	"default":   TokDefault,
	"discard":   TokDiscard,
	"do":        TokDo,
	"else":      TokElse,
	"false":     TokFalse,
	"for":       TokFor,
	"if":        TokIf,
	"layout":    TokLayout,
	"precision": TokPrecision,
	"return":    TokReturn,
	"struct":    TokStruct,
	"switch":    TokSwitch,
	"true":      TokTrue,
	"while":     TokWhile,
}

// Qualifiers lists the words lexed as TokQualifier.
var Qualifiers = map[string]bool{
	"attribute": true, "buffer": true, "centroid": true, "coherent": true,
	"const": true, "flat": true, "highp": true, "in": true, "inout": true,
	"invariant": true, "lowp": true, "mediump": true, "noperspective": true,
	"out": true, "patch": true, "precise": true, "readonly": true,
	"restrict": true, "sample": true, "shared": true, "smooth": true,
	"uniform": true, "varying": true, "volatile": true, "writeonly": true,
}

// ReservedWords contains GLSL words reserved for future use. They cannot be
// used as identifiers.
var ReservedWords = map[string]bool{
	"asm": true, "cast": true, "class": true, "enum": true, "extern": true,
	"external": true, "filter": true, "fixed": true, "goto": true,
	"half": true, "hvec2": true, "hvec3": true, "hvec4": true,
	"inline": true, "input": true, "interface": true, "long": true,
	"namespace": true, "noinline": true, "output": true, "packed": true,
	"public": true, "short": true, "sizeof": true, "static": true,
	"superp": true, "template": true, "this": true, "typedef": true,
	"union": true, "unsigned": true, "using": true,
}

// ----------------------------------------------------------------------------
// Lexer
// ----------------------------------------------------------------------------

// Lexer tokenizes GLSL source code.
type Lexer struct {
	source string
	pos    int
	start  int
	tokens []Token

	// atLineStart is true when only whitespace has been seen on the
	// current line; a '#' there begins a preprocessor directive.
	atLineStart bool
}

// New creates a new lexer for the given source.
func New(source string) *Lexer {
	return &Lexer{
		source:      source,
		tokens:      make([]Token, 0, len(source)/4), // Estimate
		atLineStart: true,
	}
}

// Tokenize returns all tokens in the source.
func (l *Lexer) Tokenize() []Token {
	for {
		tok := l.Next()
		l.tokens = append(l.tokens, tok)
		if tok.Kind == TokEOF || tok.Kind == TokError {
			break
		}
	}
	return l.tokens
}

// Next returns the next token.
func (l *Lexer) Next() Token {
	l.skipWhitespaceAndComments()

	if l.pos >= len(l.source) {
		return Token{Kind: TokEOF, Start: l.pos, End: l.pos}
	}

	l.start = l.pos
	ch := l.source[l.pos]

	if ch == '#' && l.atLineStart {
		return l.scanDirective()
	}
	l.atLineStart = false

	switch {
	case isIdentStart(ch):
		return l.scanIdentOrKeyword()
	case isDigit(ch), ch == '.' && isDigit(l.peek(1)):
		return l.scanNumber()
	}
	return l.scanOperator()
}

// peek returns the byte off positions ahead, or 0 past the end.
func (l *Lexer) peek(off int) byte {
	if i := l.pos + off; i < len(l.source) {
		return l.source[i]
	}
	return 0
}

// skipWhile advances over bytes accepted by keep and reports how many
// were consumed.
func (l *Lexer) skipWhile(keep func(byte) bool) int {
	from := l.pos
	for l.pos < len(l.source) && keep(l.source[l.pos]) {
		l.pos++
	}
	return l.pos - from
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.source) {
		switch ch := l.source[l.pos]; {
		case ch == '\n':
			l.atLineStart = true
			l.pos++
		case ch == ' ', ch == '\t', ch == '\r', ch == '\v', ch == '\f':
			l.pos++
		case ch == '/' && l.peek(1) == '/':
			l.skipWhile(func(c byte) bool { return c != '\n' })
		case ch == '/' && l.peek(1) == '*':
			// Block comments do not nest.
			l.pos += 2
			for l.pos < len(l.source) && !(l.source[l.pos] == '*' && l.peek(1) == '/') {
				if l.source[l.pos] == '\n' {
					l.atLineStart = true
				}
				l.pos++
			}
			l.pos = min(l.pos+2, len(l.source))
		default:
			return
		}
	}
}

// scanDirective reads a preprocessor line, honouring backslash line
// continuations. The value is the directive text with trailing whitespace
// trimmed.
func (l *Lexer) scanDirective() Token {
	start := l.pos
	for l.pos < len(l.source) && l.source[l.pos] != '\n' {
		if l.source[l.pos] == '\\' && l.peek(1) == '\n' {
			l.pos++
		}
		l.pos++
	}
	text := strings.TrimRight(l.source[start:l.pos], " \t\r")
	return Token{Kind: TokDirective, Start: start, End: start + len(text), Value: text}
}

func (l *Lexer) scanIdentOrKeyword() Token {
	start := l.pos
	l.skipWhile(isIdentContinue)
	text := l.source[start:l.pos]
	tok := Token{Kind: TokIdent, Start: start, End: l.pos, Value: text}

	switch kind, ok := Keywords[text]; {
	case ok:
		tok.Kind = kind
	case Qualifiers[text]:
		tok.Kind = TokQualifier
	case ReservedWords[text]:
		tok.Kind, tok.Value = TokError, "reserved word: "+text
	}
	return tok
}

// scanNumber reads an integer or floating-point literal with its optional
// suffix. Literals running straight into an identifier are errors.
func (l *Lexer) scanNumber() Token {
	start := l.pos
	kind := TokIntLiteral

	if l.peek(0) == '0' && (l.peek(1) == 'x' || l.peek(1) == 'X') {
		l.pos += 2
		if l.skipWhile(isHexDigit) == 0 {
			return Token{Kind: TokError, Start: start, End: l.pos, Value: "invalid hex literal"}
		}
	} else {
		l.skipWhile(isDigit)
		// "1." is a float; member access never starts with a digit.
		if l.peek(0) == '.' {
			kind = TokFloatLiteral
			l.pos++
			l.skipWhile(isDigit)
		}
		if e := l.peek(0); e == 'e' || e == 'E' {
			digits := 1
			if sign := l.peek(1); sign == '+' || sign == '-' {
				digits = 2
			}
			if isDigit(l.peek(digits)) {
				kind = TokFloatLiteral
				l.pos += digits
				l.skipWhile(isDigit)
			}
		}
	}

	switch ch := l.peek(0); {
	case (ch == 'u' || ch == 'U') && kind == TokIntLiteral:
		kind = TokUintLiteral
		l.pos++
	case ch == 'f' || ch == 'F':
		kind = TokFloatLiteral
		l.pos++
	case (ch == 'l' || ch == 'L') && (l.peek(1) == 'f' || l.peek(1) == 'F'):
		kind = TokFloatLiteral
		l.pos += 2
	}

	if l.skipWhile(isIdentContinue) > 0 {
		return Token{Kind: TokError, Start: start, End: l.pos, Value: "invalid numeric literal"}
	}
	return Token{Kind: kind, Start: start, End: l.pos, Value: l.source[start:l.pos]}
}

func (l *Lexer) scanOperator() Token {
	start := l.pos
	ch := l.source[l.pos]
	l.pos++

	var next byte
	if l.pos < len(l.source) {
		next = l.source[l.pos]
	}

	tok := func(kind TokenKind, width int) Token {
		l.pos = start + width
		return Token{Kind: kind, Start: start, End: l.pos}
	}

	switch ch {
	case '+':
		switch next {
		case '+':
			return tok(TokPlusPlus, 2)
		case '=':
			return tok(TokPlusEq, 2)
		}
		return tok(TokPlus, 1)
	case '-':
		switch next {
		case '-':
			return tok(TokMinusMinus, 2)
		case '=':
			return tok(TokMinusEq, 2)
		}
		return tok(TokMinus, 1)
	case '*':
		if next == '=' {
			return tok(TokStarEq, 2)
		}
		return tok(TokStar, 1)
	case '/':
		if next == '=' {
			return tok(TokSlashEq, 2)
		}
		return tok(TokSlash, 1)
	case '%':
		if next == '=' {
			return tok(TokPercentEq, 2)
		}
		return tok(TokPercent, 1)
	case '&':
		switch next {
		case '&':
			return tok(TokAmpAmp, 2)
		case '=':
			return tok(TokAmpEq, 2)
		}
		return tok(TokAmp, 1)
	case '|':
		switch next {
		case '|':
			return tok(TokPipePipe, 2)
		case '=':
			return tok(TokPipeEq, 2)
		}
		return tok(TokPipe, 1)
	case '^':
		switch next {
		case '^':
			return tok(TokCaretCaret, 2)
		case '=':
			return tok(TokCaretEq, 2)
		}
		return tok(TokCaret, 1)
	case '<':
		if next == '<' {
			if start+2 < len(l.source) && l.source[start+2] == '=' {
				return tok(TokLtLtEq, 3)
			}
			return tok(TokLtLt, 2)
		}
		if next == '=' {
			return tok(TokLtEq, 2)
		}
		return tok(TokLt, 1)
	case '>':
		if next == '>' {
			if start+2 < len(l.source) && l.source[start+2] == '=' {
				return tok(TokGtGtEq, 3)
			}
			return tok(TokGtGt, 2)
		}
		if next == '=' {
			return tok(TokGtEq, 2)
		}
		return tok(TokGt, 1)
	case '=':
		if next == '=' {
			return tok(TokEqEq, 2)
		}
		return tok(TokEq, 1)
	case '!':
		if next == '=' {
			return tok(TokBangEq, 2)
		}
		return tok(TokBang, 1)
	case '~':
		return tok(TokTilde, 1)
	case '.':
		return tok(TokDot, 1)
	case '?':
		return tok(TokQuestion, 1)
	case '(':
		return tok(TokLParen, 1)
	case ')':
		return tok(TokRParen, 1)
	case '{':
		return tok(TokLBrace, 1)
	case '}':
		return tok(TokRBrace, 1)
	case '[':
		return tok(TokLBracket, 1)
	case ']':
		return tok(TokRBracket, 1)
	case ';':
		return tok(TokSemicolon, 1)
	case ':':
		return tok(TokColon, 1)
	case ',':
		return tok(TokComma, 1)
	}

	return Token{Kind: TokError, Start: start, End: l.pos, Value: "unexpected character: " + string(ch)}
}

func isDigit(ch byte) bool { return '0' <= ch && ch <= '9' }

func isHexDigit(ch byte) bool {
	return isDigit(ch) || ('a' <= ch|0x20 && ch|0x20 <= 'f')
}

// GLSL identifiers are ASCII only.
func isIdentStart(ch byte) bool {
	return ch == '_' || ('a' <= ch|0x20 && ch|0x20 <= 'z')
}

func isIdentContinue(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }
