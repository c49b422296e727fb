package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// ProjectFileName is the file FindProject looks for.
const ProjectFileName = "bfjit.yaml"

// Project represents the top-level bfjit.yaml configuration.
type Project struct {
	// Mode selects the execution engine: "interpreted" or "native".
	// Defaults to "interpreted".
	Mode string `yaml:"mode,omitempty"`

	// TapeLength is the number of cells in the execution context.
	// Defaults to DefaultTapeLength.
	TapeLength int `yaml:"tape_length,omitempty"`

	// EOF is the value stored by Input at end of stream:
	// "zero" (default), "minus-one" or "unchanged".
	EOF string `yaml:"eof,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`

	// Passes lists compile passes by registry name, in application order.
	//
	// Example:
	//   passes:
	//     - stats
	//     - trace
	Passes []string `yaml:"passes,omitempty"`

	// Dir is the directory containing the config file (not serialized).
	Dir string `yaml:"-"`
}

// DefaultProject returns the configuration used when no bfjit.yaml exists.
func DefaultProject() *Project {
	p := &Project{}
	p.setDefaults()
	return p
}

// LoadProject reads and parses a bfjit.yaml file.
func LoadProject(path string) (*Project, error) {
	return LoadProjectWithMode(path, ModeInterpreted)
}

// LoadProjectWithMode is LoadProject with mode used when the file sets none.
func LoadProjectWithMode(path, mode string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return parseProject(data, path, mode)
}

// ParseProject parses bfjit.yaml content from bytes.
// The path argument is used for error messages and to set Dir.
func ParseProject(data []byte, path string) (*Project, error) {
	return parseProject(data, path, ModeInterpreted)
}

func parseProject(data []byte, path, mode string) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if p.Mode == "" {
		p.Mode = mode
	}
	p.setDefaults()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Dir = filepath.Dir(path)
	return &p, nil
}

// FindProject searches for bfjit.yaml starting from dir and walking up
// to parent directories.
// Returns the path to the config file and nil error if found,
// or empty string and nil error if not found.
func FindProject(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, ProjectFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		candidate = filepath.Join(dir, "bfjit.yml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Validate checks the configuration for semantic errors.
// Flag overrides are applied before calling it again from the CLI.
func (p *Project) Validate() error {
	switch p.Mode {
	case ModeInterpreted, ModeNative:
	default:
		return fmt.Errorf("mode: unknown mode %q (want %s or %s)", p.Mode, ModeInterpreted, ModeNative)
	}

	if p.TapeLength <= 0 {
		return fmt.Errorf("tape_length: must be positive, got %d", p.TapeLength)
	}

	switch p.EOF {
	case EOFZero, EOFMinusOne, EOFUnchanged:
	default:
		return fmt.Errorf("eof: unknown policy %q", p.EOF)
	}

	if !slices.Contains(LogLevels, p.LogLevel) {
		return fmt.Errorf("log_level: invalid level %q", p.LogLevel)
	}

	seen := make(map[string]bool)
	for i, name := range p.Passes {
		if name == "" {
			return fmt.Errorf("passes[%d]: empty pass name", i)
		}
		if seen[name] {
			return fmt.Errorf("passes[%d]: pass %q listed twice", i, name)
		}
		seen[name] = true
	}

	return nil
}

// setDefaults fills in default values for omitted fields.
func (p *Project) setDefaults() {
	if p.Mode == "" {
		p.Mode = ModeInterpreted
	}
	if p.TapeLength == 0 {
		p.TapeLength = DefaultTapeLength
	}
	if p.EOF == "" {
		p.EOF = EOFZero
	}
	if p.LogLevel == "" {
		p.LogLevel = DefaultLogLevel
	}
}
