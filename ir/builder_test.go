package ir

import (
	"strings"
	"testing"

	"github.com/lumenlang/lumenc/internal/domain"
	"github.com/lumenlang/lumenc/internal/infrastructure"
	"github.com/lumenlang/lumenc/lexer"
	"github.com/lumenlang/lumenc/parser"
)

func build(t *testing.T, source string) (string, error) {
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
	b := NewBuilder(domain.NewDefaultTypeRegistry(), ctx, infrastructure.NewTrackingMemoryManager(), ".", "lum")
	mod, buildErr := b.Build(program, "test")
	if mod == nil {
		return "", buildErr
	}
	return mod.String(), buildErr
}

func TestBuilderSynthesizesReturnZeroWhenUnterminated(t *testing.T) {
	ir, err := build(t, "x: int <- 1")
	if err != nil {
		t.Fatalf("want success, got %v", err)
	}
	if !strings.Contains(ir, "ret") {
		t.Errorf("want a synthesized ret in the implicit main, got:\n%s", ir)
	}
}

func TestBuilderExplicitReturnSuppressesSynthesis(t *testing.T) {
	ir, err := build(t, "return 42")
	if err != nil {
		t.Fatalf("want success, got %v", err)
	}
	if strings.Count(ir, "ret") != 1 {
		t.Errorf("want exactly one ret (no double-termination), got:\n%s", ir)
	}
}

func TestBuilderListLiteralChainsGEP(t *testing.T) {
	ir, err := build(t, "xs: list:int <- [1, 2, 3]")
	if err != nil {
		t.Fatalf("want success, got %v", err)
	}
	if !strings.Contains(ir, "list.elem") || !strings.Contains(ir, "list.decay") {
		t.Errorf("want list element GEPs and a decay GEP, got:\n%s", ir)
	}
}

func TestBuilderStringLiteralBuildsCleanly(t *testing.T) {
	if _, err := build(t, `x: str <- 'a\nb'`); err != nil {
		t.Fatalf("want success, got %v", err)
	}
}

func TestLowerStringBytesInsertsNulAfterEmbeddedNewline(t *testing.T) {
	out := lowerStringBytes("a\nb")
	want := []byte{'a', '\n', 0, 'b', 0}
	if len(out) != len(want) {
		t.Fatalf("want %v, got %v", want, out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("want %v, got %v", want, out)
		}
	}
}

func TestLowerStringBytesPlainStringGetsSingleTerminator(t *testing.T) {
	out := lowerStringBytes("abc")
	want := []byte{'a', 'b', 'c', 0}
	if len(out) != len(want) {
		t.Fatalf("want %v, got %v", want, out)
	}
}

func TestBuilderLenResolvesStaticStringLength(t *testing.T) {
	if _, err := build(t, "n: int <- len('hello')"); err != nil {
		t.Fatalf("want success, got %v", err)
	}
}

func TestBuilderLenFailsOnUnknownRuntimeLength(t *testing.T) {
	source := "fun f(s: str) -> int { return len(s) }"
	_, err := build(t, source)
	if err == nil {
		t.Fatal("want len of a non-literal value to fail at build time")
	}
	ce := err.(*domain.CompilerError)
	if ce.Kind != domain.ErrRuntime {
		t.Fatalf("want ErrRuntime, got %s", ce.Kind)
	}
}

func TestBuilderIntegerPowerSynthesizesIPowHelper(t *testing.T) {
	ir, err := build(t, "x: int <- 2 ^ 3")
	if err != nil {
		t.Fatalf("want success, got %v", err)
	}
	if !strings.Contains(ir, "__ipow") {
		t.Errorf("want the synthesized __ipow helper to be called, got:\n%s", ir)
	}
}

func TestBuilderFloatPowerUsesIntrinsic(t *testing.T) {
	ir, err := build(t, "x: float <- 2.0 ^ 3.0")
	if err != nil {
		t.Fatalf("want success, got %v", err)
	}
	if !strings.Contains(ir, "pow") {
		t.Errorf("want llvm.pow.f64 intrinsic call, got:\n%s", ir)
	}
}

func TestBuilderListConcatenationRejected(t *testing.T) {
	source := "a: list:int <- [1]\nb: list:int <- [2]\nc: list:int <- a + b"
	_, err := build(t, source)
	if err == nil {
		t.Fatal("want list+list concatenation to be rejected")
	}
	ce := err.(*domain.CompilerError)
	if ce.Kind != domain.ErrRuntime {
		t.Fatalf("want ErrRuntime, got %s", ce.Kind)
	}
}

func TestBuilderBreakOutsideLoopFails(t *testing.T) {
	_, err := build(t, "break")
	if err == nil {
		t.Fatal("want break outside a loop to fail")
	}
	ce := err.(*domain.CompilerError)
	if ce.Kind != domain.ErrInvalidSyntax {
		t.Fatalf("want ErrInvalidSyntax, got %s", ce.Kind)
	}
}

func TestBuilderContinueOutsideLoopFails(t *testing.T) {
	_, err := build(t, "continue")
	if err == nil {
		t.Fatal("want continue outside a loop to fail")
	}
}

func TestBuilderForLoopEmitsFourBlocks(t *testing.T) {
	ir, err := build(t, "for i <- 0 .. 3 { }")
	if err != nil {
		t.Fatalf("want success, got %v", err)
	}
	for _, label := range []string{"for_cond1:", "for_body2:", "for_inc3:", "for_exit4:"} {
		if !strings.Contains(ir, label) {
			t.Errorf("want block %q, got:\n%s", label, ir)
		}
	}
}

func TestBuilderForLoopWithByteBoundsBuildsCleanly(t *testing.T) {
	source := "s: str <- 'hi'\nfor c <- s[0] .. s[0] { }"
	if _, err := build(t, source); err != nil {
		t.Fatalf("want byte-typed for-loop bounds to build, got %v", err)
	}
}

func TestBuilderWhileLoopWithBreakBuildsCleanly(t *testing.T) {
	if _, err := build(t, "while true { break }"); err != nil {
		t.Fatalf("want success, got %v", err)
	}
}

func TestBuilderStructConstructAndFieldAccess(t *testing.T) {
	source := "class Point { x: int y: int }\np: Point <- Point(1, 2)\nv: int <- p.x"
	ir, err := build(t, source)
	if err != nil {
		t.Fatalf("want success, got %v", err)
	}
	if !strings.Contains(ir, "getelementptr") {
		t.Errorf("want struct field access to lower through a GEP, got:\n%s", ir)
	}
	if !strings.Contains(ir, "load i32, i32*") {
		t.Errorf("want the field GEP to narrow to the field's own type (i32), not the struct type, got:\n%s", ir)
	}
	if strings.Contains(ir, "load %Point, %Point*") {
		t.Errorf("want the field load to never use the whole struct type, got:\n%s", ir)
	}
}

func TestBuilderStructFieldArithmeticUsesFieldType(t *testing.T) {
	source := "class Point { x: int y: int }\np: Point <- Point(1, 2)\nv: int <- p.x + p.y"
	ir, err := build(t, source)
	if err != nil {
		t.Fatalf("want success, got %v", err)
	}
	if !strings.Contains(ir, "add i32") {
		t.Errorf("want arithmetic on struct fields to operate on the narrowed field type (i32), got:\n%s", ir)
	}
	if strings.Contains(ir, "add %Point") {
		t.Errorf("want the struct type itself never to appear as an arithmetic operand type, got:\n%s", ir)
	}
}

func TestBuilderPrintMaterializesFormatArgument(t *testing.T) {
	ir, err := build(t, "print('hi')")
	if err != nil {
		t.Fatalf("want success, got %v", err)
	}
	if !strings.Contains(ir, "fmt.i8ptr") {
		t.Errorf("want print to bitcast its materialized format arg, got:\n%s", ir)
	}
}

func TestBuilderDuplicateMainFunctionNameIsImpossibleAtTopLevel(t *testing.T) {
	_, err := build(t, "fun main() { }")
	if err == nil {
		t.Fatal("want a user-defined main to collide with the implicit entry function")
	}
}

func TestBuilderStatsTrackNodesAndFunctions(t *testing.T) {
	l := lexer.NewLexer()
	source := "fun f() -> int { return 1 }\nx: int <- f()"
	ctx := domain.NewContext(nil, "test", "test.lum", source)
	if err := l.SetInput("test.lum", source, ctx); err != nil {
		t.Fatalf("SetInput failed: %v", err)
	}
	p := parser.NewParser(l, ctx)
	program, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	b := NewBuilder(domain.NewDefaultTypeRegistry(), ctx, infrastructure.NewTrackingMemoryManager(), ".", "lum")
	if _, err := b.Build(program, "test"); err != nil {
		t.Fatalf("want success, got %v", err)
	}
	stats := b.Stats()
	if stats.NodesVisited == 0 {
		t.Error("want NodesVisited to be nonzero")
	}
	if stats.FunctionsBuilt < 2 {
		t.Errorf("want at least 2 functions built (implicit main + f), got %d", stats.FunctionsBuilt)
	}
}
