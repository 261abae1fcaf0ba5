// Package obs wraps arbor so the compiler driver and pipeline can log
// stage transitions without the core diagnostic pipeline (domain.
// ErrorReporter) ever depending on a logging library itself.
package obs

import (
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

var (
	globalLogger arbor.ILogger
	mu           sync.RWMutex
)

// Get returns the process-wide logger, falling back to a plain console
// writer if Init hasn't run yet (e.g. in a unit test that imports a
// package transitively touching obs).
func Get() arbor.ILogger {
	mu.RLock()
	if globalLogger != nil {
		defer mu.RUnlock()
		return globalLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{
			Type:       models.LogWriterTypeConsole,
			TimeFormat: "15:04:05.000",
			OutputType: models.OutputFormatLogfmt,
		})
	}
	return globalLogger
}

// Init configures the global logger from CLI/config settings. verbose
// lowers the level to Debug; otherwise Info.
func Init(verbose bool) arbor.ILogger {
	mu.Lock()
	defer mu.Unlock()

	level := "info"
	if verbose {
		level = "debug"
	}

	logger := arbor.NewLogger().
		WithConsoleWriter(models.WriterConfiguration{
			Type:       models.LogWriterTypeConsole,
			TimeFormat: "15:04:05.000",
			OutputType: models.OutputFormatLogfmt,
		}).
		WithLevelFromString(level)

	globalLogger = logger
	return logger
}

// Stage logs entry into a named stage for file. The CLI logs a whole
// compile as the single stage "compile"; no timing is recorded, and the
// pipeline itself does not import arbor.
func Stage(name, file string) {
	Get().Info().Str("stage", name).Str("file", file).Msg("entering stage")
}

// Result logs a finished Compile call's outcome.
func Result(file string, errorCount, nodesVisited, functionsBuilt int) {
	if errorCount > 0 {
		Get().Warn().Str("file", file).Int("errors", errorCount).Msg("compilation finished with errors")
		return
	}
	Get().Info().
		Str("file", file).
		Int("nodes_visited", nodesVisited).
		Int("functions_built", functionsBuilt).
		Msg("compilation succeeded")
}
