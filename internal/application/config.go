package application

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// FileConfig is the on-disk shape of an optional lumenc.toml, overlaid
// onto DefaultCompilerConfig rather than replacing it (spec.md §10).
type FileConfig struct {
	Output  OutputConfig  `toml:"output"`
	Compile CompileConfig `toml:"compile"`
}

type OutputConfig struct {
	Basename string `toml:"basename"`
}

type CompileConfig struct {
	Dumps      []string `toml:"dumps"`
	NoOptimize bool     `toml:"no_optimize"`
	Run        bool     `toml:"run"`
}

// LoadConfigFile reads path as TOML and overlays non-zero fields onto
// cfg, returning the merged configuration. A missing file is not an
// error: it just means the programmatic defaults stand.
func LoadConfigFile(path string, cfg CompilerConfig) (CompilerConfig, error) {
	var file FileConfig
	if _, err := toml.DecodeFile(path, &file); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "loading config file %q", path)
	}

	if file.Output.Basename != "" {
		cfg.CompilationOptions.OutputBasename = file.Output.Basename
	}
	if len(file.Compile.Dumps) > 0 {
		cfg.CompilationOptions.Dumps = file.Compile.Dumps
	}
	cfg.CompilationOptions.NoOptimize = cfg.CompilationOptions.NoOptimize || file.Compile.NoOptimize
	cfg.CompilationOptions.Run = cfg.CompilationOptions.Run || file.Compile.Run

	return cfg, nil
}
