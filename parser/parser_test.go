package parser

import (
	"testing"

	"github.com/lumenlang/lumenc/internal/domain"
	"github.com/lumenlang/lumenc/lexer"
)

func parse(t *testing.T, source string) *domain.StatementsNode {
	t.Helper()
	l := lexer.NewLexer()
	ctx := domain.NewContext(nil, "test", "test.lum", source)
	if err := l.SetInput("test.lum", source, ctx); err != nil {
		t.Fatalf("SetInput failed: %v", err)
	}
	p := NewParser(l, ctx)
	node, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	stmts, ok := node.(*domain.StatementsNode)
	if !ok {
		t.Fatalf("want *domain.StatementsNode, got %T", node)
	}
	return stmts
}

func TestParserVarAssign(t *testing.T) {
	stmts := parse(t, "x: int <- 1")
	if len(stmts.Expressions) != 1 {
		t.Fatalf("want 1 statement, got %d", len(stmts.Expressions))
	}
	assign, ok := stmts.Expressions[0].(*domain.VarAssignNode)
	if !ok {
		t.Fatalf("want *domain.VarAssignNode, got %T", stmts.Expressions[0])
	}
	if assign.Name.Value.(string) != "x" {
		t.Errorf("want name x, got %v", assign.Name.Value)
	}
	if assign.TypeAnnotation == nil || assign.TypeAnnotation.Value.(string) != "int" {
		t.Errorf("want type annotation int, got %v", assign.TypeAnnotation)
	}
}

// TestParserPrecedenceTower checks that `1 + 2 * 3` parses with `*`
// binding tighter than `+` (term nests inside arithmExpr).
func TestParserPrecedenceTower(t *testing.T) {
	stmts := parse(t, "1 + 2 * 3")
	bin, ok := stmts.Expressions[0].(*domain.BinOpNode)
	if !ok {
		t.Fatalf("want *domain.BinOpNode, got %T", stmts.Expressions[0])
	}
	if bin.Operator.Type != domain.TokenPlus {
		t.Fatalf("want top-level +, got %s", bin.Operator.Type)
	}
	right, ok := bin.Right.(*domain.BinOpNode)
	if !ok || right.Operator.Type != domain.TokenMul {
		t.Fatalf("want right child *, got %T", bin.Right)
	}
}

// TestParserPowerRightAssociative checks `2 ^ 3 ^ 2` nests on the right.
func TestParserPowerRightAssociative(t *testing.T) {
	stmts := parse(t, "2 ^ 3 ^ 2")
	bin, ok := stmts.Expressions[0].(*domain.BinOpNode)
	if !ok || bin.Operator.Type != domain.TokenPow {
		t.Fatalf("want top-level ^, got %T", stmts.Expressions[0])
	}
	if _, ok := bin.Left.(*domain.NumberNode); !ok {
		t.Fatalf("want left leaf, got %T", bin.Left)
	}
	if _, ok := bin.Right.(*domain.BinOpNode); !ok {
		t.Fatalf("want right-associative nesting, got %T", bin.Right)
	}
}

func TestParserIndexGetSynthesizesBinOp(t *testing.T) {
	stmts := parse(t, "xs[0]")
	bin, ok := stmts.Expressions[0].(*domain.BinOpNode)
	if !ok {
		t.Fatalf("want *domain.BinOpNode, got %T", stmts.Expressions[0])
	}
	if bin.Operator.Type != domain.TokenGet {
		t.Fatalf("want synthesized GET operator, got %s", bin.Operator.Type)
	}
}

func TestParserIndexAssignProducesListAssign(t *testing.T) {
	stmts := parse(t, "xs[0] <- 1")
	if _, ok := stmts.Expressions[0].(*domain.ListAssignNode); !ok {
		t.Fatalf("want *domain.ListAssignNode, got %T", stmts.Expressions[0])
	}
}

func TestParserIfAsExpression(t *testing.T) {
	stmts := parse(t, "x: int <- if true { 1 } else { 2 }")
	assign := stmts.Expressions[0].(*domain.VarAssignNode)
	ifNode, ok := assign.Value.(*domain.IfNode)
	if !ok {
		t.Fatalf("want *domain.IfNode as rvalue, got %T", assign.Value)
	}
	if ifNode.Else == nil {
		t.Fatal("want else branch to be parsed")
	}
}

func TestParserForWithStep(t *testing.T) {
	stmts := parse(t, "for i <- 1 .. 5 step 2 { }")
	forNode, ok := stmts.Expressions[0].(*domain.ForNode)
	if !ok {
		t.Fatalf("want *domain.ForNode, got %T", stmts.Expressions[0])
	}
	if forNode.Step == nil {
		t.Fatal("want explicit step to be parsed")
	}
}

func TestParserClassWithImplicitSelf(t *testing.T) {
	stmts := parse(t, "class Point { x: int y: int fun sum() -> int { return self.x + self.y } }")
	structDef, ok := stmts.Expressions[0].(*domain.StructDefNode)
	if !ok {
		t.Fatalf("want *domain.StructDefNode, got %T", stmts.Expressions[0])
	}
	if len(structDef.Functions) != 1 {
		t.Fatalf("want 1 method, got %d", len(structDef.Functions))
	}
	method := structDef.Functions[0]
	if len(method.Args) != 1 || method.Args[0].Value.(string) != "self" {
		t.Fatalf("want implicit self parameter, got %v", method.Args)
	}
	if method.ArgTypes[0].Value.(string) != "Point" {
		t.Fatalf("want self typed as Point, got %v", method.ArgTypes[0].Value)
	}
}

func TestParserNestedListType(t *testing.T) {
	stmts := parse(t, "fun f(xs: list:list:int) { }")
	fn := stmts.Expressions[0].(*domain.FunDefNode)
	if fn.ArgTypes[0].Value.(string) != "list:list:int" {
		t.Fatalf("want flattened nested list type, got %v", fn.ArgTypes[0].Value)
	}
}

func TestParserInvalidSyntaxReportsErrorKind(t *testing.T) {
	l := lexer.NewLexer()
	source := "x <- <-"
	ctx := domain.NewContext(nil, "test", "test.lum", source)
	if err := l.SetInput("test.lum", source, ctx); err != nil {
		t.Fatalf("SetInput failed: %v", err)
	}
	p := NewParser(l, ctx)
	_, err := p.Parse()
	if err == nil {
		t.Fatal("want a parse error")
	}
	ce, ok := err.(*domain.CompilerError)
	if !ok || ce.Kind != domain.ErrInvalidSyntax {
		t.Fatalf("want ErrInvalidSyntax, got %v", err)
	}
}

func TestParserPushesFunctionContextDuringBody(t *testing.T) {
	l := lexer.NewLexer()
	source := "fun f() { x <- <- }"
	ctx := domain.NewContext(nil, "test", "test.lum", source)
	if err := l.SetInput("test.lum", source, ctx); err != nil {
		t.Fatalf("SetInput failed: %v", err)
	}
	p := NewParser(l, ctx)
	_, err := p.Parse()
	if err == nil {
		t.Fatal("want a parse error inside the function body")
	}
	ce, ok := err.(*domain.CompilerError)
	if !ok {
		t.Fatalf("want *domain.CompilerError, got %T", err)
	}
	if ce.Ctx == nil || ce.Ctx.Name != "f" {
		t.Fatalf("want the error's context to carry the enclosing function's name %q, got %v", "f", ce.Ctx)
	}
	if p.ctx != ctx {
		t.Fatalf("want the outer context restored after the function body, got %v", p.ctx)
	}
}
