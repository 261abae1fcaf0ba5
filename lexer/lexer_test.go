package lexer

import (
	"testing"

	"github.com/lumenlang/lumenc/internal/domain"
)

func tokenize(t *testing.T, input string) []domain.Token {
	t.Helper()
	l := NewLexer()
	ctx := domain.NewContext(nil, "test", "test.lum", input)
	if err := l.SetInput("test.lum", input, ctx); err != nil {
		t.Fatalf("SetInput failed: %v", err)
	}
	var tokens []domain.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("NextToken failed: %v", err)
		}
		tokens = append(tokens, tok)
		if tok.Type == domain.TokenEOF {
			break
		}
	}
	return tokens
}

func TestLexerKeywords(t *testing.T) {
	tokens := tokenize(t, "if else while for step fun class return break continue pass import")
	expectedKeywords := []string{"IF", "ELSE", "WHILE", "FOR", "STEP", "FUN", "CLASS", "RETURN", "BREAK", "CONTINUE", "PASS", "IMPORT"}
	for i, kw := range expectedKeywords {
		if tokens[i].Type != domain.TokenKeyword {
			t.Fatalf("token %d: want keyword, got %s", i, tokens[i].Type)
		}
		if tokens[i].Value.(string) != kw {
			t.Fatalf("token %d: want %q, got %q", i, kw, tokens[i].Value)
		}
	}
}

func TestLexerOperators(t *testing.T) {
	tests := []struct {
		input string
		want  domain.TokenType
	}{
		{"+", domain.TokenPlus}, {"-", domain.TokenMinus}, {"*", domain.TokenMul},
		{"/", domain.TokenDiv}, {"%", domain.TokenMod}, {"^", domain.TokenPow},
		{"<-", domain.TokenAssign}, {"=", domain.TokenEquals}, {"<>", domain.TokenUnequals},
		{"<", domain.TokenLess}, {">", domain.TokenGreater},
		{"<=", domain.TokenLessEqual}, {">=", domain.TokenGreaterEqual},
		{"!", domain.TokenNot}, {"&", domain.TokenAnd}, {"|", domain.TokenOr}, {"~", domain.TokenXor},
		{"..", domain.TokenTo}, {".", domain.TokenDot}, {"->", domain.TokenArrow},
	}
	for _, tt := range tests {
		tokens := tokenize(t, tt.input)
		if tokens[0].Type != tt.want {
			t.Errorf("input %q: want %s, got %s", tt.input, tt.want, tokens[0].Type)
		}
	}
}

func TestLexerNumberLiterals(t *testing.T) {
	tokens := tokenize(t, "42 3.14")
	if tokens[0].Type != domain.TokenInt || tokens[0].Value.(int64) != 42 {
		t.Fatalf("want int 42, got %v", tokens[0])
	}
	if tokens[1].Type != domain.TokenFloat || tokens[1].Value.(float64) != 3.14 {
		t.Fatalf("want float 3.14, got %v", tokens[1])
	}
}

func TestLexerStringEscapes(t *testing.T) {
	tokens := tokenize(t, `'hello\nworld'`)
	if tokens[0].Type != domain.TokenString {
		t.Fatalf("want string, got %s", tokens[0].Type)
	}
	if tokens[0].Value.(string) != "hello\nworld" {
		t.Fatalf("want escaped newline, got %q", tokens[0].Value)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	l := NewLexer()
	ctx := domain.NewContext(nil, "test", "test.lum", "'abc")
	if err := l.SetInput("test.lum", "'abc", ctx); err != nil {
		t.Fatalf("SetInput failed: %v", err)
	}
	_, err := l.NextToken()
	if err == nil {
		t.Fatal("want error for unterminated string")
	}
	ce, ok := err.(*domain.CompilerError)
	if !ok || ce.Kind != domain.ErrInvalidSyntax {
		t.Fatalf("want ErrInvalidSyntax, got %v", err)
	}
}

func TestLexerIllegalCharacter(t *testing.T) {
	l := NewLexer()
	ctx := domain.NewContext(nil, "test", "test.lum", "@")
	if err := l.SetInput("test.lum", "@", ctx); err != nil {
		t.Fatalf("SetInput failed: %v", err)
	}
	_, err := l.NextToken()
	if err == nil {
		t.Fatal("want error for illegal character")
	}
	ce, ok := err.(*domain.CompilerError)
	if !ok || ce.Kind != domain.ErrIllegalChar {
		t.Fatalf("want ErrIllegalChar, got %v", err)
	}
}

func TestLexerCommentsAndNewlines(t *testing.T) {
	tokens := tokenize(t, "x <- 1 # comment\ny <- 2")
	var types []domain.TokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	want := []domain.TokenType{
		domain.TokenIdentifier, domain.TokenAssign, domain.TokenInt, domain.TokenNewline,
		domain.TokenIdentifier, domain.TokenAssign, domain.TokenInt, domain.TokenEOF,
	}
	if len(types) != len(want) {
		t.Fatalf("token count mismatch: got %v", types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("token %d: want %s, got %s", i, want[i], types[i])
		}
	}
}

func TestLexerPeekDoesNotConsume(t *testing.T) {
	l := NewLexer()
	ctx := domain.NewContext(nil, "test", "test.lum", "x y")
	if err := l.SetInput("test.lum", "x y", ctx); err != nil {
		t.Fatalf("SetInput failed: %v", err)
	}
	peeked, err := l.Peek()
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	next, err := l.NextToken()
	if err != nil {
		t.Fatalf("NextToken failed: %v", err)
	}
	if peeked.Value != next.Value {
		t.Fatalf("Peek should preview the same token NextToken returns: %v vs %v", peeked, next)
	}
}

// TestLexerLexemeLengthRoundTrip checks that every emitted token's
// Position.Len matches the actual lexeme length in the source, the
// property the diagnostic caret underline depends on.
func TestLexerLexemeLengthRoundTrip(t *testing.T) {
	input := "abc <- 123"
	tokens := tokenize(t, input)
	if tokens[0].Pos.Len != len("abc") {
		t.Errorf("identifier length: want %d, got %d", len("abc"), tokens[0].Pos.Len)
	}
	if tokens[2].Pos.Len != len("123") {
		t.Errorf("int length: want %d, got %d", len("123"), tokens[2].Pos.Len)
	}
}
