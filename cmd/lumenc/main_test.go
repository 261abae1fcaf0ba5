package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlang/lumenc/internal/application"
)

func TestOutputBasename(t *testing.T) {
	cases := []struct {
		name      string
		entryFile string
		explicit  string
		want      string
	}{
		{"explicit wins", "prog.lum", "out", "out"},
		{"derives from entry file", "path/to/prog.lum", "", "path/to/prog"},
		{"no extension", "prog", "", "prog"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, outputBasename(tc.entryFile, tc.explicit))
		})
	}
}

func TestDumpFlagsSetAcceptsKnownKinds(t *testing.T) {
	var d dumpFlags
	for _, kind := range []string{"tokens", "ast", "ir", "asm"} {
		require.NoError(t, d.Set(kind))
	}
	assert.Equal(t, dumpFlags{"tokens", "ast", "ir", "asm"}, d)
	assert.Equal(t, "tokens,ast,ir,asm", d.String())
}

func TestDumpFlagsSetRejectsUnknownKind(t *testing.T) {
	var d dumpFlags
	err := d.Set("bytecode")
	require.Error(t, err)
	assert.Empty(t, d)
}

func TestCompileOnceWritesTokensAndASTDumps(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "prog.lum")
	require.NoError(t, os.WriteFile(entry, []byte("x: int <- 1 + 2"), 0o644))

	config := application.DefaultCompilerConfig()
	config.CompilationOptions.Dumps = dumpFlags{"tokens", "ast", "ir"}
	config.CompilationOptions.OutputBasename = outputBasename(entry, "")
	config.BaseDir = dir

	require.NoError(t, compileOnce(config, entry))

	tokens, err := os.ReadFile(config.CompilationOptions.OutputBasename + ".tokens")
	require.NoError(t, err)
	assert.Contains(t, string(tokens), "IDENTIFIER: x")
	assert.Contains(t, string(tokens), "INT: 1")
	assert.Contains(t, string(tokens), "EOF")

	ast, err := os.ReadFile(config.CompilationOptions.OutputBasename + ".json")
	require.NoError(t, err)
	assert.Contains(t, string(ast), `"type": "var_assign"`)
	assert.Contains(t, string(ast), `"type": "bin_op"`)

	ir, err := os.ReadFile(config.CompilationOptions.OutputBasename + ".ll")
	require.NoError(t, err)
	assert.Contains(t, string(ir), "; module")
}
