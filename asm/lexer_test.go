package asm

import (
	"errors"
	"testing"
)

func lexAll(t *testing.T, source string) []Token {
	t.Helper()
	tokens, err := newLexer(source).run()
	if err != nil {
		t.Fatalf("lex failed: %v", err)
	}
	return tokens
}

func TestLexTokenTypes(t *testing.T) {
	tokens := lexAll(t, "main: LDA #0x69")
	exp := []TokenType{
		TokenIdentifier,
		TokenOperator,
		TokenInstruction,
		TokenOperator,
		TokenNumber,
	}
	if len(tokens) != len(exp) {
		t.Fatalf("token count incorrect. exp: %d, got: %d", len(exp), len(tokens))
	}
	for i, tt := range exp {
		if tokens[i].Type != tt {
			t.Errorf("token %d type incorrect. exp: %s, got: %s", i, tt, tokens[i].Type)
		}
	}
}

func TestLexMnemonicCase(t *testing.T) {
	tokens := lexAll(t, "lda Lda LDA")
	for _, tok := range tokens {
		if tok.Type != TokenInstruction {
			t.Errorf("expected instruction token, got %s %q", tok.Type, tok.Text)
		}
		if tok.Mnemonic != "LDA" {
			t.Errorf("mnemonic not normalized: %q", tok.Mnemonic)
		}
	}
}

func TestLexRadixes(t *testing.T) {
	tests := []struct {
		src string
		val int
	}{
		{"0x69", 0x69},
		{"0xFF", 0xff},
		{"0xff", 0xff},
		{"0o17", 017},
		{"0b1010", 10},
		{"42", 42},
		{"0", 0},
	}
	for _, tc := range tests {
		tokens := lexAll(t, tc.src)
		if len(tokens) != 1 || tokens[0].Type != TokenNumber {
			t.Fatalf("%q: expected a single number token", tc.src)
		}
		if tokens[0].Value != tc.val {
			t.Errorf("%q: value incorrect. exp: %d, got: %d", tc.src, tc.val, tokens[0].Value)
		}
	}
}

func TestLexSpans(t *testing.T) {
	tokens := lexAll(t, "LDA #0x05\nBRK")
	brk := tokens[len(tokens)-1]
	if brk.Span.Start != (Position{Line: 2, Col: 1}) {
		t.Errorf("BRK span start incorrect: %v", brk.Span.Start)
	}
	if tokens[0].Span.Start != (Position{Line: 1, Col: 1}) {
		t.Errorf("LDA span start incorrect: %v", tokens[0].Span.Start)
	}
}

func TestLexComments(t *testing.T) {
	tokens := lexAll(t, "LDA #1 // load\n/* multi\nline */ BRK")
	var kinds []TokenType
	for _, tok := range tokens {
		kinds = append(kinds, tok.Type)
	}
	exp := []TokenType{
		TokenInstruction,
		TokenOperator,
		TokenNumber,
		TokenComment,
		TokenComment,
		TokenInstruction,
	}
	if len(kinds) != len(exp) {
		t.Fatalf("token count incorrect. exp: %d, got: %d", len(exp), len(kinds))
	}
	for i := range exp {
		if kinds[i] != exp[i] {
			t.Errorf("token %d incorrect. exp: %s, got: %s", i, exp[i], kinds[i])
		}
	}
}

func TestLexUnexpectedChar(t *testing.T) {
	_, err := newLexer("LDA @5").run()
	var lexErr *LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected lex error, got %v", err)
	}
	if lexErr.Pos != (Position{Line: 1, Col: 5}) {
		t.Errorf("error position incorrect: %v", lexErr.Pos)
	}
}

func TestLexUnterminatedBlockComment(t *testing.T) {
	_, err := newLexer("BRK /* never closed").run()
	var lexErr *LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected lex error, got %v", err)
	}
}
