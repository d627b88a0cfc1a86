// Package config resolves SecurityLevel default bundles and loads overrides
// from YAML, the way goa-ai's runtime loads agent and policy configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
)

// LevelDefaults mirrors enclave.LevelDefaults. Duplicated here (rather than
// imported) so this package has no dependency on the enclave package,
// avoiding an import cycle since enclave.New consumes config.DefaultsFor.
type LevelDefaults struct {
	Timeout                 time.Duration `yaml:"timeout"`
	MaxIterations           int           `yaml:"max_iterations"`
	MaxToolCalls            int           `yaml:"max_tool_calls"`
	SanitizeStackTraces     bool          `yaml:"sanitize_stack_traces"`
	MaxSanitizeDepth        int           `yaml:"max_sanitize_depth"`
	MaxSanitizeProperties   int           `yaml:"max_sanitize_properties"`
	AllowFunctionsInGlobals bool          `yaml:"allow_functions_in_globals"`
	MaxConsoleOutputBytes   int           `yaml:"max_console_output_bytes"`
	MaxConsoleCalls         int           `yaml:"max_console_calls"`
}

var defaultBundles = map[string]LevelDefaults{
	"strict": {
		Timeout:                 5 * time.Second,
		MaxIterations:           10_000,
		MaxToolCalls:            10,
		SanitizeStackTraces:     true,
		MaxSanitizeDepth:        4,
		MaxSanitizeProperties:   20,
		AllowFunctionsInGlobals: false,
		MaxConsoleOutputBytes:   4 * 1024,
		MaxConsoleCalls:         50,
	},
	"standard": {
		Timeout:                 30 * time.Second,
		MaxIterations:           100_000,
		MaxToolCalls:            50,
		SanitizeStackTraces:     true,
		MaxSanitizeDepth:        6,
		MaxSanitizeProperties:   50,
		AllowFunctionsInGlobals: false,
		MaxConsoleOutputBytes:   64 * 1024,
		MaxConsoleCalls:         500,
	},
	"relaxed": {
		Timeout:                 120 * time.Second,
		MaxIterations:           1_000_000,
		MaxToolCalls:            200,
		SanitizeStackTraces:     false,
		MaxSanitizeDepth:        10,
		MaxSanitizeProperties:   200,
		AllowFunctionsInGlobals: true,
		MaxConsoleOutputBytes:   1024 * 1024,
		MaxConsoleCalls:         5_000,
	},
}

// DefaultsFor returns the default bundle for a named security level. Unknown
// levels fall back to "standard".
func DefaultsFor(level string) LevelDefaults {
	if d, ok := defaultBundles[level]; ok {
		return d
	}
	return defaultBundles["standard"]
}

// levelOverride mirrors LevelDefaults but with pointer-typed bools, so a YAML
// document can distinguish "not set" (nil, keep the built-in default) from an
// explicit "false" (override to off) — a plain bool can't tell those apart.
type levelOverride struct {
	Timeout                 time.Duration `yaml:"timeout"`
	MaxIterations           int           `yaml:"max_iterations"`
	MaxToolCalls            int           `yaml:"max_tool_calls"`
	SanitizeStackTraces     *bool         `yaml:"sanitize_stack_traces"`
	MaxSanitizeDepth        int           `yaml:"max_sanitize_depth"`
	MaxSanitizeProperties   int           `yaml:"max_sanitize_properties"`
	AllowFunctionsInGlobals *bool         `yaml:"allow_functions_in_globals"`
	MaxConsoleOutputBytes   int           `yaml:"max_console_output_bytes"`
	MaxConsoleCalls         int           `yaml:"max_console_calls"`
}

// Bundle is a named LevelDefaults entry, used when loading a YAML document
// that overrides one or more security levels.
type Bundle struct {
	Levels map[string]levelOverride `yaml:"levels"`
}

// LoadSecurityLevels reads a YAML document describing security level
// overrides and merges them into the built-in defaults. The file format is:
//
//	levels:
//	  strict:
//	    timeout: 5s
//	    max_iterations: 10000
//
// Fields omitted from the document keep their built-in default value.
func LoadSecurityLevels(path string) (map[string]LevelDefaults, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, enclaveerrors.Wrap(enclaveerrors.CodeEnclave, fmt.Errorf("read security levels file %q: %w", path, err))
	}
	var bundle Bundle
	if err := yaml.Unmarshal(raw, &bundle); err != nil {
		return nil, enclaveerrors.Wrap(enclaveerrors.CodeEnclave, fmt.Errorf("parse security levels file %q: %w", path, err))
	}
	merged := make(map[string]LevelDefaults, len(defaultBundles))
	for name, d := range defaultBundles {
		merged[name] = d
	}
	for name, override := range bundle.Levels {
		merged[name] = mergeLevel(merged[name], override)
	}
	return merged, nil
}

// mergeLevel overlays non-zero fields of override onto base.
func mergeLevel(base LevelDefaults, override levelOverride) LevelDefaults {
	if override.Timeout != 0 {
		base.Timeout = override.Timeout
	}
	if override.MaxIterations != 0 {
		base.MaxIterations = override.MaxIterations
	}
	if override.MaxToolCalls != 0 {
		base.MaxToolCalls = override.MaxToolCalls
	}
	if override.MaxSanitizeDepth != 0 {
		base.MaxSanitizeDepth = override.MaxSanitizeDepth
	}
	if override.MaxSanitizeProperties != 0 {
		base.MaxSanitizeProperties = override.MaxSanitizeProperties
	}
	if override.MaxConsoleOutputBytes != 0 {
		base.MaxConsoleOutputBytes = override.MaxConsoleOutputBytes
	}
	if override.MaxConsoleCalls != 0 {
		base.MaxConsoleCalls = override.MaxConsoleCalls
	}
	if override.SanitizeStackTraces != nil {
		base.SanitizeStackTraces = *override.SanitizeStackTraces
	}
	if override.AllowFunctionsInGlobals != nil {
		base.AllowFunctionsInGlobals = *override.AllowFunctionsInGlobals
	}
	return base
}
