package application

import (
	"fmt"

	"github.com/lumenlang/lumenc/internal/domain"
	"github.com/lumenlang/lumenc/internal/infrastructure"
	"github.com/lumenlang/lumenc/internal/interfaces"
	"github.com/lumenlang/lumenc/ir"
	"github.com/lumenlang/lumenc/lexer"
	"github.com/lumenlang/lumenc/parser"
	"github.com/lumenlang/lumenc/semantic"
)

// Pipeline runs lex -> parse -> analyze -> build for one entry file,
// per spec.md §4. The lexer and parser report failures by returning an
// error (fail-fast at the first bad token); the analyzer and IR builder
// additionally push every diagnostic through the shared ErrorReporter
// before returning (spec.md §4.3).
type Pipeline struct {
	types    domain.TypeRegistry
	memMgr   infrastructure.MemoryManager
	reporter domain.ErrorReporter

	baseDir   string
	extension string

	stats   interfaces.CompilationStats
	tokens  []domain.Token
	program domain.Node
}

func NewPipeline(types domain.TypeRegistry, memMgr infrastructure.MemoryManager, reporter domain.ErrorReporter, baseDir, extension string) *Pipeline {
	return &Pipeline{types: types, memMgr: memMgr, reporter: reporter, baseDir: baseDir, extension: extension}
}

func (p *Pipeline) Compile(filename, source string) (interfaces.LLVMModule, error) {
	p.reporter.Clear()
	ctx := domain.NewContext(nil, filename, filename, source)

	lx := lexer.NewLexer()
	if err := lx.SetInput(filename, source, ctx); err != nil {
		p.reportIfCompilerError(err)
		return nil, err
	}

	ps := parser.NewParser(lx, ctx)
	program, err := ps.Parse()
	if err != nil {
		p.reportIfCompilerError(err)
		return nil, err
	}
	p.program = program
	if tokens, terr := p.collectTokens(filename, source, ctx); terr == nil {
		p.tokens = tokens
	}
	p.memMgr.RecordNode()

	analyzer := semantic.NewAnalyzer(ctx, p.types)
	analyzer.SetErrorReporter(p.reporter)
	if err := analyzer.Analyze(program); err != nil {
		return nil, err
	}
	if p.reporter.HasErrors() {
		return nil, fmt.Errorf("semantic analysis failed with %d error(s)", len(p.reporter.GetErrors()))
	}

	builder := ir.NewBuilder(p.types, ctx, p.memMgr, p.baseDir, p.extension)
	builder.SetErrorReporter(p.reporter)
	module, err := builder.Build(program, filename)
	if err != nil {
		return nil, err
	}
	if p.reporter.HasErrors() {
		return nil, fmt.Errorf("IR building failed with %d error(s)", len(p.reporter.GetErrors()))
	}

	p.stats = interfaces.CompilationStats{
		ErrorCount:     len(p.reporter.GetErrors()),
		WarningCount:   0,
		NodesVisited:   builder.Stats().NodesVisited,
		FunctionsBuilt: builder.Stats().FunctionsBuilt,
	}
	return module, nil
}

func (p *Pipeline) GetStats() interfaces.CompilationStats { return p.stats }

// Tokens returns the token stream of the most recent successful Parse,
// re-lexed independently of the parser's own on-demand consumption, for
// the `-d tokens` dump (spec.md §7).
func (p *Pipeline) Tokens() []domain.Token { return p.tokens }

// Program returns the parsed AST of the most recent successful Parse,
// for the `-d ast` dump (spec.md §7).
func (p *Pipeline) Program() domain.Node { return p.program }

// collectTokens re-lexes the source independently of the parser's
// on-demand NextToken calls, so a `-d tokens` dump can see the whole
// stream without disturbing the parser's own cursor.
func (p *Pipeline) collectTokens(filename, source string, ctx *domain.Context) ([]domain.Token, error) {
	lx := lexer.NewLexer()
	if err := lx.SetInput(filename, source, ctx); err != nil {
		return nil, err
	}
	var tokens []domain.Token
	for {
		tok, err := lx.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == domain.TokenEOF {
			return tokens, nil
		}
	}
}

func (p *Pipeline) Reset() {
	p.reporter.Clear()
	p.memMgr.Reset()
	p.stats = interfaces.CompilationStats{}
	p.tokens = nil
	p.program = nil
}

// reportIfCompilerError surfaces a lexer/parser error (returned, not
// reported, per their discipline) through the shared reporter so the
// CLI driver only ever needs to look in one place for diagnostics.
func (p *Pipeline) reportIfCompilerError(err error) {
	if ce, ok := err.(*domain.CompilerError); ok {
		p.reporter.ReportError(ce)
	}
}
