// Package application wires the lexer, parser, analyzer and IR builder
// into one pipeline (spec.md §4), the way a compiler driver composes its
// stages from independently testable packages.
package application

import (
	"io"
	"os"

	"github.com/lumenlang/lumenc/internal/domain"
	"github.com/lumenlang/lumenc/internal/infrastructure"
	"github.com/lumenlang/lumenc/internal/interfaces"
)

// CompilerConfig holds everything needed to build one CompilerPipeline.
type CompilerConfig struct {
	CompilationOptions domain.CompilationOptions

	// BaseDir anchors relative `IMPORT ident` lookups; SourceExtension
	// is appended (without a leading dot) to form the imported file's
	// path, e.g. "lum" -> "ident.lum".
	BaseDir         string
	SourceExtension string

	ErrorOutput io.Writer
}

// DefaultCompilerConfig returns the configuration the CLI driver uses
// absent any flag overrides.
func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{
		CompilationOptions: domain.CompilationOptions{},
		SourceExtension:    "lum",
		ErrorOutput:        os.Stderr,
	}
}

// CompilerFactory builds the concrete components a CompilerPipeline
// needs, keeping stage construction out of the pipeline itself.
type CompilerFactory struct {
	config CompilerConfig
}

func NewCompilerFactory(config CompilerConfig) *CompilerFactory {
	return &CompilerFactory{config: config}
}

func (f *CompilerFactory) CreateErrorReporter() domain.ErrorReporter {
	return infrastructure.NewConsoleErrorReporter(f.config.ErrorOutput)
}

func (f *CompilerFactory) CreateTypeRegistry() domain.TypeRegistry {
	return domain.NewDefaultTypeRegistry()
}

func (f *CompilerFactory) CreateMemoryManager() infrastructure.MemoryManager {
	return infrastructure.NewTrackingMemoryManager()
}

// CreatePipeline assembles a ready-to-use CompilerPipeline sharing one
// ErrorReporter, TypeRegistry and MemoryManager across every Compile call.
func (f *CompilerFactory) CreatePipeline() interfaces.CompilerPipeline {
	return NewPipeline(
		f.CreateTypeRegistry(),
		f.CreateMemoryManager(),
		f.CreateErrorReporter(),
		f.config.BaseDir,
		f.config.SourceExtension,
	)
}
