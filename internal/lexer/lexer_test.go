package lexer

import (
	"testing"
)

// ----------------------------------------------------------------------------
// Test Helpers (esbuild-style)
// ----------------------------------------------------------------------------

func expectToken(t *testing.T, input string, expected TokenKind) {
	t.Helper()
	l := New(input)
	tok := l.Next()
	if tok.Kind != expected {
		t.Errorf("input %q: expected %v, got %v", input, expected, tok.Kind)
	}
}

func expectTokenValue(t *testing.T, input string, expectedKind TokenKind, expectedValue string) {
	t.Helper()
	l := New(input)
	tok := l.Next()
	if tok.Kind != expectedKind {
		t.Errorf("input %q: expected kind %v, got %v", input, expectedKind, tok.Kind)
	}
	if tok.Value != expectedValue {
		t.Errorf("input %q: expected value %q, got %q", input, expectedValue, tok.Value)
	}
}

func expectTokens(t *testing.T, input string, expected []TokenKind) {
	t.Helper()
	l := New(input)
	for i, exp := range expected {
		tok := l.Next()
		if tok.Kind != exp {
			t.Errorf("input %q token %d: expected %v, got %v", input, i, exp, tok.Kind)
		}
	}
}

func expectError(t *testing.T, input string) {
	t.Helper()
	l := New(input)
	tok := l.Next()
	if tok.Kind != TokError {
		t.Errorf("input %q: expected error, got %v", input, tok.Kind)
	}
}

// ----------------------------------------------------------------------------
// Keyword Tests
// ----------------------------------------------------------------------------

func TestKeywords(t *testing.T) {
	cases := []struct {
		input string
		kind  TokenKind
	}{
		{"break", TokBreak},
		{"case", TokCase},
		{"continue", TokContinue},
		{"default", TokDefault},
		{"discard", TokDiscard},
		{"do", TokDo},
		{"else", TokElse},
		{"false", TokFalse},
		{"for", TokFor},
		{"if", TokIf},
		{"layout", TokLayout},
		{"precision", TokPrecision},
		{"return", TokReturn},
		{"struct", TokStruct},
		{"switch", TokSwitch},
		{"true", TokTrue},
		{"while", TokWhile},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			expectToken(t, tc.input, tc.kind)
		})
	}
}

func TestQualifiers(t *testing.T) {
	for _, q := range []string{"const", "uniform", "in", "out", "inout", "highp", "flat", "buffer"} {
		t.Run(q, func(t *testing.T) {
			expectTokenValue(t, q, TokQualifier, q)
		})
	}
}

// ----------------------------------------------------------------------------
// Identifier Tests
// ----------------------------------------------------------------------------

func TestIdentifiers(t *testing.T) {
	cases := []string{
		"foo", "_bar", "vec4", "mat2x3", "gl_FragColor",
		"_GLF_DEAD", "GLF_live3_looplimiter0", "GLF_merged2_0_1_1_1_1_1ab",
		"void", "sampler2D",
	}

	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			expectTokenValue(t, input, TokIdent, input)
		})
	}
}

func TestReservedWords(t *testing.T) {
	expectError(t, "goto")
	expectError(t, "union")
}

// ----------------------------------------------------------------------------
// Number Tests
// ----------------------------------------------------------------------------

func TestNumbers(t *testing.T) {
	cases := []struct {
		input string
		kind  TokenKind
	}{
		{"0", TokIntLiteral},
		{"42", TokIntLiteral},
		{"0x1F", TokIntLiteral},
		{"017", TokIntLiteral},
		{"3u", TokUintLiteral},
		{"0xFFu", TokUintLiteral},
		{"1.0", TokFloatLiteral},
		{"1.", TokFloatLiteral},
		{".5", TokFloatLiteral},
		{"1e3", TokFloatLiteral},
		{"2.5E-2", TokFloatLiteral},
		{"1.0f", TokFloatLiteral},
		{"1.0lf", TokFloatLiteral},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			expectTokenValue(t, tc.input, tc.kind, tc.input)
		})
	}
}

func TestInvalidNumbers(t *testing.T) {
	expectError(t, "0x")
	expectError(t, "12abc")
}

// ----------------------------------------------------------------------------
// Operator Tests
// ----------------------------------------------------------------------------

func TestOperators(t *testing.T) {
	cases := []struct {
		input string
		kind  TokenKind
	}{
		{"+", TokPlus}, {"++", TokPlusPlus}, {"+=", TokPlusEq},
		{"-", TokMinus}, {"--", TokMinusMinus}, {"-=", TokMinusEq},
		{"*=", TokStarEq}, {"/=", TokSlashEq}, {"%=", TokPercentEq},
		{"&&", TokAmpAmp}, {"||", TokPipePipe}, {"^^", TokCaretCaret},
		{"<<", TokLtLt}, {"<<=", TokLtLtEq}, {">>", TokGtGt}, {">>=", TokGtGtEq},
		{"<=", TokLtEq}, {">=", TokGtEq}, {"==", TokEqEq}, {"!=", TokBangEq},
		{"?", TokQuestion}, {":", TokColon}, {"~", TokTilde},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			expectToken(t, tc.input, tc.kind)
		})
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	expectError(t, "@")
	expectError(t, "$")
}

// ----------------------------------------------------------------------------
// Directive and Comment Tests
// ----------------------------------------------------------------------------

func TestDirectives(t *testing.T) {
	expectTokenValue(t, "#version 300 es\nvoid", TokDirective, "#version 300 es")
	expectTokenValue(t, "  #define X(a, b) \\\n  (b)\n", TokDirective, "#define X(a, b) \\\n  (b)")
	expectTokens(t, "#version 100\nprecision mediump float;", []TokenKind{
		TokDirective, TokPrecision, TokQualifier, TokIdent, TokSemicolon, TokEOF,
	})
}

func TestHashNotAtLineStartIsError(t *testing.T) {
	expectTokens(t, "x #y", []TokenKind{TokIdent, TokError})
}

func TestComments(t *testing.T) {
	expectTokens(t, "a // comment\nb /* block\n # not a directive */ c", []TokenKind{
		TokIdent, TokIdent, TokIdent, TokEOF,
	})
}

func TestStatementTokens(t *testing.T) {
	expectTokens(t, "for (int i = 0; i < 10; i++) { x.y += 1.0; }", []TokenKind{
		TokFor, TokLParen, TokIdent, TokIdent, TokEq, TokIntLiteral, TokSemicolon,
		TokIdent, TokLt, TokIntLiteral, TokSemicolon, TokIdent, TokPlusPlus, TokRParen,
		TokLBrace, TokIdent, TokDot, TokIdent, TokPlusEq, TokFloatLiteral, TokSemicolon,
		TokRBrace, TokEOF,
	})
}

func TestTokenize(t *testing.T) {
	toks := New("void main() { }").Tokenize()
	if len(toks) != 7 {
		t.Fatalf("expected 7 tokens, got %d", len(toks))
	}
	if toks[len(toks)-1].Kind != TokEOF {
		t.Errorf("last token should be EOF, got %v", toks[len(toks)-1].Kind)
	}
	if got := toks[1].Text("void main() { }"); got != "main" {
		t.Errorf("expected text main, got %q", got)
	}
}
