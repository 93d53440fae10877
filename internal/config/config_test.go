package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Limits.MaxSteps != 500 {
		t.Errorf("MaxSteps = %d, want 500", cfg.Limits.MaxSteps)
	}
	if cfg.Limits.MaxLoopIterations != 10000 {
		t.Errorf("MaxLoopIterations = %d, want 10000", cfg.Limits.MaxLoopIterations)
	}
	if cfg.Output.Format != FormatText {
		t.Errorf("Format = %q, want %q", cfg.Output.Format, FormatText)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `limits:
  max_steps: 50
output:
  format: json
log_level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Limits.MaxSteps != 50 {
		t.Errorf("MaxSteps = %d, want 50", cfg.Limits.MaxSteps)
	}
	if cfg.Limits.MaxCallDepth != 200 {
		t.Errorf("MaxCallDepth = %d, want default 200", cfg.Limits.MaxCallDepth)
	}
	if cfg.Output.Format != FormatJSON {
		t.Errorf("Format = %q, want json", cfg.Output.Format)
	}
	if !cfg.Output.ShowOutput {
		t.Error("ShowOutput should keep its default")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeConfig(t, "limits:\n  max_stepz: 3\n"))
	if err == nil {
		t.Fatal("expected an error for an unknown field")
	}
	if !strings.Contains(err.Error(), "max_stepz") {
		t.Errorf("error %q should name the field", err)
	}
}

func TestLoadValidates(t *testing.T) {
	path := writeConfig(t, `limits:
  max_steps: 0
  max_call_depth: -1
output:
  format: xml
log_level: loud
`)
	_, err := Load(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Load() error = %v, want *ValidationError", err)
	}
	if len(verr.Issues) != 4 {
		t.Errorf("got %d issues, want 4: %v", len(verr.Issues), verr.Issues)
	}
	for _, want := range []string{"max_steps", "max_call_depth", "output.format", "log_level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.MaxSteps = 7
	opts := cfg.Options(nil)
	if opts.MaxSteps != 7 || opts.MaxCallDepth != 200 {
		t.Errorf("Options() = %+v", opts)
	}
}
