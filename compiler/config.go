package compiler

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the build configuration, deserialized from schemabind.toml.
type Config struct {
	// Features lists enabled feature names. A module is retained only
	// when its mapped feature is enabled.
	Features []string `toml:"features"`
	// Modules maps host package names to output modules and gating
	// features. Packages without a mapping get a name-derived module.
	Modules map[string]ModuleMapping `toml:"modules"`
	// Blocklist names entities that must never be bound.
	Blocklist Blocklist `toml:"blocklist"`
	// Present names symbols already provided by the active environment;
	// generating them again would collide, so they are skipped like
	// blocklisted entries.
	Present Present `toml:"present"`
	// Paths locates schema input and generated output.
	Paths Paths `toml:"paths"`
	// Strict promotes every skip diagnostic to a generation failure.
	Strict bool `toml:"strict"`
}

// ModuleMapping binds a host package to an output module and a feature.
type ModuleMapping struct {
	Module  string `toml:"module"`
	Feature string `toml:"feature"`
}

// Blocklist names classes, structs, and functions excluded from binding.
// Functions use "Class.Function" form.
type Blocklist struct {
	Classes   []string `toml:"classes"`
	Structs   []string `toml:"structs"`
	Functions []string `toml:"functions"`
}

// Present lists classes and functions already live in the environment.
type Present struct {
	Classes   []string `toml:"classes"`
	Functions []string `toml:"functions"`
}

// Paths locates the schema input directory and the generated output
// directories.
type Paths struct {
	SchemaInput string `toml:"schema_input"`
	NativeOut   string `toml:"native_out"`
	SandboxOut  string `toml:"sandbox_out"`
}

// LoadConfig reads and parses a TOML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// FunctionPairs parses "Class.Function" entries into (class, function)
// tuples, ignoring malformed entries.
func functionPairs(entries []string) [][2]string {
	var out [][2]string
	for _, e := range entries {
		class, fn, ok := strings.Cut(e, ".")
		if !ok {
			continue
		}
		out = append(out, [2]string{class, fn})
	}
	return out
}

// BlockedFunctions returns the blocklist's function tuples.
func (b *Blocklist) BlockedFunctions() [][2]string {
	return functionPairs(b.Functions)
}

// PresentFunctions returns the present-set's function tuples.
func (p *Present) PresentFunctions() [][2]string {
	return functionPairs(p.Functions)
}
