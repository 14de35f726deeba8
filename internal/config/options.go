package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Options represents the vesper.yaml compiler configuration consumed by the
// surrounding toolchain and passed down to the checking/lowering core.
type Options struct {
	// Workers is the number of goroutines used for per-declaration type
	// checking. 0 means one worker per CPU. 1 disables parallelism.
	Workers int `yaml:"workers,omitempty"`

	// MaxDiagnostics caps how many diagnostics are collected before the
	// core stops reporting (it keeps checking so later phases see a
	// consistent tree). 0 means unlimited.
	MaxDiagnostics int `yaml:"max_diagnostics,omitempty"`

	// WarningsAsErrors promotes non-fatal diagnostics (e.g. unreachable
	// match arms) to compilation failures.
	WarningsAsErrors bool `yaml:"warnings_as_errors,omitempty"`
}

// DefaultOptions returns the options used when no vesper.yaml is present.
func DefaultOptions() Options {
	return Options{
		Workers:        runtime.NumCPU(),
		MaxDiagnostics: 100,
	}
}

// LoadOptions reads and validates a vesper.yaml file.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseOptions(data)
}

// ParseOptions parses vesper.yaml content, filling in defaults for
// omitted fields.
func ParseOptions(data []byte) (Options, error) {
	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("parsing options: %w", err)
	}
	if opts.Workers < 0 {
		return Options{}, fmt.Errorf("workers must be >= 0, got %d", opts.Workers)
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.MaxDiagnostics < 0 {
		return Options{}, fmt.Errorf("max_diagnostics must be >= 0, got %d", opts.MaxDiagnostics)
	}
	return opts, nil
}
