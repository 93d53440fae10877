// Package config loads steptrace settings from .steptrace.yml.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/itsmostafa/steptrace/internal/interpreter"
)

// FileName is the config file looked up in the working directory.
const FileName = ".steptrace.yml"

// Config holds everything the CLI can be configured with.
type Config struct {
	Limits   Limits  `yaml:"limits"`
	Output   Output  `yaml:"output"`
	Session  Session `yaml:"session"`
	LogLevel string  `yaml:"log_level"`
}

// Limits bound a single interpretation run.
type Limits struct {
	// MaxSteps is the number of recorded steps before a trace is truncated (default: 500)
	MaxSteps int `yaml:"max_steps"`

	// MaxLoopIterations caps the iterations of any one loop statement (default: 10000)
	MaxLoopIterations int `yaml:"max_loop_iterations"`

	// MaxCallDepth caps nested user function calls (default: 200)
	MaxCallDepth int `yaml:"max_call_depth"`
}

// Output controls how traces are printed.
type Output struct {
	// Format is "text" or "json"
	Format string `yaml:"format"`

	// ShowOutput prints the program's own output after the trace
	ShowOutput bool `yaml:"show_output"`
}

// Session controls where replay sessions are stored.
type Session struct {
	Dir string `yaml:"dir"`
}

const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	opts := interpreter.DefaultOptions()
	return Config{
		Limits: Limits{
			MaxSteps:          opts.MaxSteps,
			MaxLoopIterations: opts.MaxLoopIterations,
			MaxCallDepth:      opts.MaxCallDepth,
		},
		Output: Output{
			Format:     FormatText,
			ShowOutput: true,
		},
		Session:  Session{Dir: ".steptrace"},
		LogLevel: "warn",
	}
}

// ValidationError lists every problem found in a config file.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports out of range limits and unknown enum values.
func (c Config) Validate() error {
	var issues []string
	if c.Limits.MaxSteps <= 0 {
		issues = append(issues, fmt.Sprintf("limits.max_steps must be positive, got %d", c.Limits.MaxSteps))
	}
	if c.Limits.MaxLoopIterations <= 0 {
		issues = append(issues, fmt.Sprintf("limits.max_loop_iterations must be positive, got %d", c.Limits.MaxLoopIterations))
	}
	if c.Limits.MaxCallDepth <= 0 {
		issues = append(issues, fmt.Sprintf("limits.max_call_depth must be positive, got %d", c.Limits.MaxCallDepth))
	}
	if c.Output.Format != FormatText && c.Output.Format != FormatJSON {
		issues = append(issues, fmt.Sprintf("output.format must be %q or %q, got %q", FormatText, FormatJSON, c.Output.Format))
	}
	if c.Session.Dir == "" {
		issues = append(issues, "session.dir must not be empty")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		issues = append(issues, fmt.Sprintf("log_level %q is not a valid level", c.LogLevel))
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// Options converts the limits into interpreter options.
func (c Config) Options(log *zerolog.Logger) interpreter.Options {
	return interpreter.Options{
		MaxSteps:          c.Limits.MaxSteps,
		MaxLoopIterations: c.Limits.MaxLoopIterations,
		MaxCallDepth:      c.Limits.MaxCallDepth,
		Logger:            log,
	}
}
