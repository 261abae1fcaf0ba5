package semantic

import (
	"testing"

	"github.com/lumenlang/lumenc/internal/domain"
	"github.com/lumenlang/lumenc/lexer"
	"github.com/lumenlang/lumenc/parser"
)

func analyze(t *testing.T, source string) error {
	t.Helper()
	l := lexer.NewLexer()
	ctx := domain.NewContext(nil, "test", "test.lum", source)
	if err := l.SetInput("test.lum", source, ctx); err != nil {
		t.Fatalf("SetInput failed: %v", err)
	}
	p := parser.NewParser(l, ctx)
	program, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	a := NewAnalyzer(ctx, domain.NewDefaultTypeRegistry())
	return a.Analyze(program)
}

func TestAnalyzerAcceptsWidenedArithmetic(t *testing.T) {
	if err := analyze(t, "x: float <- 1 + 2.0"); err != nil {
		t.Fatalf("want success, got %v", err)
	}
}

func TestAnalyzerRejectsTypeMismatchOnAssign(t *testing.T) {
	err := analyze(t, "x: int <- 'hello'")
	if err == nil {
		t.Fatal("want a type error")
	}
	ce := err.(*domain.CompilerError)
	if ce.Kind != domain.ErrType {
		t.Fatalf("want ErrType, got %s", ce.Kind)
	}
}

func TestAnalyzerRejectsUndeclaredVariable(t *testing.T) {
	err := analyze(t, "x <- y + 1")
	if err == nil {
		t.Fatal("want an undeclared-variable error")
	}
	ce := err.(*domain.CompilerError)
	if ce.Kind != domain.ErrNoSuchVar {
		t.Fatalf("want ErrNoSuchVar, got %s", ce.Kind)
	}
}

func TestAnalyzerScopeIsolation(t *testing.T) {
	err := analyze(t, "if true { y: int <- 1 }\nz <- y")
	if err == nil {
		t.Fatal("want y to be out of scope outside the if body")
	}
}

func TestAnalyzerShadowingInNestedScope(t *testing.T) {
	err := analyze(t, "x: int <- 1\nif true { x: float <- 2.0 }")
	if err != nil {
		t.Fatalf("want shadowing to be allowed, got %v", err)
	}
}

func TestAnalyzerBooleanLiteralsResolve(t *testing.T) {
	if err := analyze(t, "x: bool <- true\ny: bool <- false"); err != nil {
		t.Fatalf("want true/false to resolve as bool, got %v", err)
	}
}

func TestAnalyzerDuplicateFunctionNameFails(t *testing.T) {
	err := analyze(t, "fun f() { }\nfun f() { }")
	if err == nil {
		t.Fatal("want a duplicate-name error")
	}
	ce := err.(*domain.CompilerError)
	if ce.Kind != domain.ErrDuplicateName {
		t.Fatalf("want ErrDuplicateName, got %s", ce.Kind)
	}
}

func TestAnalyzerBreakOutsideLoopFails(t *testing.T) {
	err := analyze(t, "break")
	if err == nil {
		t.Fatal("want break-outside-loop to fail")
	}
	ce := err.(*domain.CompilerError)
	if ce.Kind != domain.ErrInvalidSyntax {
		t.Fatalf("want ErrInvalidSyntax, got %s", ce.Kind)
	}
}

func TestAnalyzerContinueInsideLoopSucceeds(t *testing.T) {
	if err := analyze(t, "while true { continue }"); err != nil {
		t.Fatalf("want success, got %v", err)
	}
}

func TestAnalyzerForLoopInductionTypeRule(t *testing.T) {
	if err := analyze(t, "s: int <- 0\nfor i <- 1 .. 5 { s <- s + i }"); err != nil {
		t.Fatalf("want the for-sum scenario to type-check, got %v", err)
	}
}

func TestAnalyzerForLoopAcceptsByteBounds(t *testing.T) {
	if err := analyze(t, "s: str <- 'hi'\nfor c <- s[0] .. s[0] { }"); err != nil {
		t.Fatalf("want byte-typed for-loop bounds to type-check, got %v", err)
	}
}

func TestAnalyzerForLoopRejectsMismatchedBoundTypes(t *testing.T) {
	err := analyze(t, "for i <- 1 .. 5.0 { }")
	if err == nil {
		t.Fatal("want mismatched for-loop bound types to fail")
	}
}

func TestAnalyzerListIndexRoundTrip(t *testing.T) {
	if err := analyze(t, "xs: list:int <- [1, 2, 3]\ny: int <- xs[0]"); err != nil {
		t.Fatalf("want list index to type-check, got %v", err)
	}
}

func TestAnalyzerStructFieldAccess(t *testing.T) {
	source := "class Point { x: int y: int }\np: Point <- Point(1, 2)\nv: int <- p.x"
	if err := analyze(t, source); err != nil {
		t.Fatalf("want struct field access to type-check, got %v", err)
	}
}

func TestAnalyzerMissingStructFieldFails(t *testing.T) {
	source := "class Point { x: int y: int }\np: Point <- Point(1, 2)\nv: int <- p.z"
	err := analyze(t, source)
	if err == nil {
		t.Fatal("want missing field access to fail")
	}
	ce := err.(*domain.CompilerError)
	if ce.Kind != domain.ErrNoSuchVar {
		t.Fatalf("want ErrNoSuchVar, got %s", ce.Kind)
	}
}

func TestAnalyzerFunctionArityMismatchFails(t *testing.T) {
	source := "fun add(a: int, b: int) -> int { return a + b }\nx: int <- add(1)"
	err := analyze(t, source)
	if err == nil {
		t.Fatal("want arity mismatch to fail")
	}
	ce := err.(*domain.CompilerError)
	if ce.Kind != domain.ErrType {
		t.Fatalf("want ErrType (arity folds into the type taxonomy), got %s", ce.Kind)
	}
}

func TestAnalyzerLenRejectsNonStrNonList(t *testing.T) {
	err := analyze(t, "x: int <- len(5)")
	if err == nil {
		t.Fatal("want len(int) to fail")
	}
}

func TestAnalyzerLenAcceptsStrAndList(t *testing.T) {
	if err := analyze(t, "a: int <- len('hi')\nb: int <- len([1, 2])"); err != nil {
		t.Fatalf("want len to accept str and list, got %v", err)
	}
}
