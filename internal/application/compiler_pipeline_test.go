package application

import (
	"bytes"
	"testing"

	"github.com/lumenlang/lumenc/internal/domain"
	"github.com/lumenlang/lumenc/internal/infrastructure"
)

func newTestPipeline() *Pipeline {
	reporter := infrastructure.NewConsoleErrorReporter(&bytes.Buffer{})
	return NewPipeline(domain.NewDefaultTypeRegistry(), infrastructure.NewTrackingMemoryManager(), reporter, ".", "lum")
}

func TestPipelineHelloWorld(t *testing.T) {
	p := newTestPipeline()
	mod, err := p.Compile("hello.lum", "print('hello, world')")
	if err != nil {
		t.Fatalf("want success, got %v", err)
	}
	if mod == nil {
		t.Fatal("want a module")
	}
}

func TestPipelineArithmeticWidening(t *testing.T) {
	p := newTestPipeline()
	if _, err := p.Compile("widen.lum", "x: float <- 1 + 2.5"); err != nil {
		t.Fatalf("want success, got %v", err)
	}
}

func TestPipelineForSum(t *testing.T) {
	p := newTestPipeline()
	source := "s: int <- 0\nfor i <- 1 .. 10 { s <- s + i }\nreturn s"
	if _, err := p.Compile("forsum.lum", source); err != nil {
		t.Fatalf("want success, got %v", err)
	}
	stats := p.GetStats()
	if stats.NodesVisited == 0 {
		t.Error("want NodesVisited to be tracked")
	}
}

func TestPipelineListIndex(t *testing.T) {
	p := newTestPipeline()
	source := "xs: list:int <- [10, 20, 30]\nx: int <- xs[1]"
	if _, err := p.Compile("listidx.lum", source); err != nil {
		t.Fatalf("want success, got %v", err)
	}
}

func TestPipelineStructField(t *testing.T) {
	p := newTestPipeline()
	source := "class Point { x: int y: int }\np: Point <- Point(3, 4)\nv: int <- p.y"
	if _, err := p.Compile("struct.lum", source); err != nil {
		t.Fatalf("want success, got %v", err)
	}
}

func TestPipelineUndeclaredVariableFails(t *testing.T) {
	p := newTestPipeline()
	_, err := p.Compile("undeclared.lum", "x <- y + 1")
	if err == nil {
		t.Fatal("want undeclared variable to fail semantic analysis")
	}
}

func TestPipelineTypeMismatchOnAssignFails(t *testing.T) {
	p := newTestPipeline()
	_, err := p.Compile("mismatch.lum", "x: int <- 'not a number'")
	if err == nil {
		t.Fatal("want a type mismatch to fail semantic analysis")
	}
}

func TestPipelineResetClearsStatsAndErrors(t *testing.T) {
	p := newTestPipeline()
	if _, err := p.Compile("bad.lum", "x <- y"); err == nil {
		t.Fatal("want the first compile to fail")
	}
	p.Reset()
	if _, err := p.Compile("good.lum", "x: int <- 1"); err != nil {
		t.Fatalf("want the pipeline to recover after Reset, got %v", err)
	}
}

func TestPipelineSyntaxErrorSurfacesThroughReporter(t *testing.T) {
	reporter := infrastructure.NewConsoleErrorReporter(&bytes.Buffer{})
	p := NewPipeline(domain.NewDefaultTypeRegistry(), infrastructure.NewTrackingMemoryManager(), reporter, ".", "lum")
	_, err := p.Compile("syntax.lum", "x <- <-")
	if err == nil {
		t.Fatal("want a parse error")
	}
	if !reporter.HasErrors() {
		t.Error("want the parser's returned error to also be pushed through the reporter")
	}
}
