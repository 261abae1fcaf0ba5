package infrastructure

import (
	"fmt"
	"io"
	"strings"

	"github.com/lumenlang/lumenc/internal/domain"
)

// ConsoleErrorReporter renders a *domain.CompilerError the way spec.md
// §4.3/§7 requires: the message, the Context chain, and the offending
// source line with a caret underline spanning the token's lexeme length,
// plus one line of context before and after.
type ConsoleErrorReporter struct {
	out      io.Writer
	errors   []*domain.CompilerError
	warnings []*domain.CompilerError
}

func NewConsoleErrorReporter(out io.Writer) *ConsoleErrorReporter {
	return &ConsoleErrorReporter{out: out}
}

func (r *ConsoleErrorReporter) ReportError(err *domain.CompilerError) {
	r.errors = append(r.errors, err)
	r.print(err, "error")
}

func (r *ConsoleErrorReporter) ReportWarning(warn *domain.CompilerError) {
	r.warnings = append(r.warnings, warn)
	r.print(warn, "warning")
}

func (r *ConsoleErrorReporter) HasErrors() bool { return len(r.errors) > 0 }

func (r *ConsoleErrorReporter) GetErrors() []*domain.CompilerError { return r.errors }

func (r *ConsoleErrorReporter) Clear() {
	r.errors = nil
	r.warnings = nil
}

func (r *ConsoleErrorReporter) print(err *domain.CompilerError, severity string) {
	fmt.Fprintf(r.out, "%s: %s: %s\n", severity, err.Stage, err.Message)
	fmt.Fprintf(r.out, "  kind: %s\n", err.Kind)
	r.printContextChain(err.Ctx)
	if err.Pos != nil {
		r.printSourceExcerpt(err.Ctx, *err.Pos)
	}
}

func (r *ConsoleErrorReporter) printContextChain(ctx *domain.Context) {
	frames := ctx.Chain()
	if len(frames) == 0 {
		return
	}
	names := make([]string, len(frames))
	for i, f := range frames {
		names[i] = fmt.Sprintf("%s (%s)", f.Name, f.File)
	}
	fmt.Fprintf(r.out, "  in: %s\n", strings.Join(names, " -> "))
}

func (r *ConsoleErrorReporter) printSourceExcerpt(ctx *domain.Context, pos domain.Position) {
	if ctx == nil || ctx.FileText == "" {
		return
	}
	lines := strings.Split(ctx.FileText, "\n")
	if pos.Line < 0 || pos.Line >= len(lines) {
		return
	}
	start := max(0, pos.Line-1)
	end := min(len(lines)-1, pos.Line+1)
	for i := start; i <= end; i++ {
		fmt.Fprintf(r.out, "  %4d | %s\n", i+1, lines[i])
		if i == pos.Line {
			length := pos.Len
			if length < 1 {
				length = 1
			}
			caret := strings.Repeat(" ", pos.Column) + strings.Repeat("^", length)
			fmt.Fprintf(r.out, "       | %s\n", caret)
		}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
