// Package main provides the CLI driver for the Lumen compiler front end.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/lumenlang/lumenc/internal/application"
	"github.com/lumenlang/lumenc/internal/domain"
	"github.com/lumenlang/lumenc/internal/obs"
)

const version = "0.1.0"

// dumpFlags collects repeated `-d {tokens|ast|ir|asm}` occurrences.
type dumpFlags []string

func (d *dumpFlags) String() string { return strings.Join(*d, ",") }

func (d *dumpFlags) Set(value string) error {
	switch value {
	case "tokens", "ast", "ir", "asm":
		*d = append(*d, value)
		return nil
	default:
		return fmt.Errorf("unknown -d value %q (want tokens, ast, ir or asm)", value)
	}
}

var (
	dumps        dumpFlags
	outputPath   = flag.String("o", "", "output basename")
	noOpt        = flag.Bool("no_opt", false, "disable optimization")
	run          = flag.Bool("run", false, "request JIT execution (no JIT backend in this build: prints a note, output is emitted as usual)")
	watch        = flag.Bool("watch", false, "re-run the pipeline when the entry file changes (imports are not watched)")
	configPath   = flag.String("config", "", "path to an optional lumenc.toml")
	verbose      = flag.Bool("v", false, "verbose logging")
	showVersion  = flag.Bool("version", false, "print version and exit")
)

func init() {
	flag.Var(&dumps, "d", "dump an artifact: tokens, ast, ir or asm (repeatable)")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("lumenc %s\n", version)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: lumenc [flags] <entry-file.lum>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	obs.Init(*verbose)
	entryFile := flag.Arg(0)

	config := application.DefaultCompilerConfig()
	config.CompilationOptions.Dumps = dumps
	config.CompilationOptions.NoOptimize = *noOpt
	config.CompilationOptions.Run = *run
	config.CompilationOptions.OutputBasename = outputBasename(entryFile, *outputPath)
	config.BaseDir = filepath.Dir(entryFile)

	if *configPath != "" {
		merged, err := application.LoadConfigFile(*configPath, config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		config = merged
	}

	sessionID := uuid.New()
	obs.Get().Info().Str("session_id", sessionID.String()).Str("file", entryFile).Msg("starting compilation")

	if *watch {
		runWatch(config, entryFile)
		return
	}

	if err := compileOnce(config, entryFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func outputBasename(entryFile, explicit string) string {
	if explicit != "" {
		return explicit
	}
	ext := filepath.Ext(entryFile)
	return strings.TrimSuffix(entryFile, ext)
}

func compileOnce(config application.CompilerConfig, entryFile string) error {
	source, err := os.ReadFile(entryFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", entryFile, err)
	}

	factory := application.NewCompilerFactory(config)
	pipeline := factory.CreatePipeline()

	obs.Stage("compile", entryFile)
	module, err := pipeline.Compile(entryFile, string(source))
	stats := pipeline.GetStats()
	obs.Result(entryFile, stats.ErrorCount, stats.NodesVisited, stats.FunctionsBuilt)
	if err != nil {
		return err
	}

	for _, dump := range config.CompilationOptions.Dumps {
		switch dump {
		case "ir":
			if err := writeDump(config.CompilationOptions.OutputBasename+".ll", module.String()); err != nil {
				return err
			}
		case "tokens":
			if err := writeDump(config.CompilationOptions.OutputBasename+".tokens", formatTokens(pipeline.Tokens())); err != nil {
				return err
			}
		case "ast":
			astJSON, err := application.DumpASTJSON(pipeline.Program())
			if err != nil {
				return err
			}
			if err := writeDump(config.CompilationOptions.OutputBasename+".json", string(astJSON)); err != nil {
				return err
			}
		case "asm":
			// No real LLVM backend is wired in (spec.md §1 puts object/asm
			// emission out of scope); nothing to persist here.
			fmt.Fprintln(os.Stderr, "note: -d asm requires a real LLVM backend; this build only emits textual IR")
		}
	}

	if config.CompilationOptions.Run {
		fmt.Fprintln(os.Stderr, "note: -run requires a JIT backend; this build only emits textual IR")
	}
	return nil
}

func writeDump(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

// formatTokens renders a token stream the way a lexed-only dump reads in
// the original driver: every token's own "kind: value" text, space-joined.
func formatTokens(tokens []domain.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// runWatch re-invokes compileOnce whenever the entry file changes,
// pure CLI ergonomics layered on top of the single-shot pipeline.
func runWatch(config application.CompilerConfig, entryFile string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(entryFile)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := compileOnce(config, entryFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}

	abs, _ := filepath.Abs(entryFile)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			eventAbs, _ := filepath.Abs(event.Name)
			if eventAbs != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			obs.Get().Info().Str("file", entryFile).Msg("change detected, recompiling")
			if err := compileOnce(config, entryFile); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			obs.Get().Warn().Err(err).Msg("watch error")
		}
	}
}
