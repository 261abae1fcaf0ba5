package application

import (
	"bytes"
	"testing"
)

func TestCompilerFactoryBuildsAWorkingPipeline(t *testing.T) {
	config := DefaultCompilerConfig()
	config.ErrorOutput = &bytes.Buffer{}
	config.BaseDir = "."

	factory := NewCompilerFactory(config)
	pipeline := factory.CreatePipeline()

	if _, err := pipeline.Compile("hello.lum", "print('hi')"); err != nil {
		t.Fatalf("want a working pipeline, got %v", err)
	}
}

func TestDefaultCompilerConfigUsesLumExtension(t *testing.T) {
	config := DefaultCompilerConfig()
	if config.SourceExtension != "lum" {
		t.Errorf("want source extension lum, got %q", config.SourceExtension)
	}
}
