// Package config loads the engine's ambient options -- provenance variant,
// top-k width, CSV defaults, and the fixpoint iteration limit -- from a
// YAML document via goccy/go-yaml, mirroring the teacher's practice of
// decoding structured configuration rather than hand-parsing flags for
// anything beyond a handful of CLI overrides.
package config

import (
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/monitor"
	"github.com/ramonfmir/scallop/internal/provenance"
)

// Config is the top-level engine configuration document.
type Config struct {
	// Provenance names a key in provenance.ByName, e.g. "unit",
	// "min-max-prob", "top-k-proofs". Empty selects "unit".
	Provenance string `yaml:"provenance"`

	// K is the top-k width passed to width-parameterized provenance
	// variants (top-k-proofs, top-bottom-k-clauses,
	// diff-top-bottom-k-clauses). Ignored by variants that don't take one.
	K int `yaml:"k"`

	// CSV holds the default ingestion/output options applied to relations
	// that don't declare their own in source.
	CSV CSVDefaults `yaml:"csv"`

	// IterationLimit caps the total number of fixpoint iterations across all
	// strata (monitor.IterationLimit).
	// Zero means unbounded.
	IterationLimit int `yaml:"iteration_limit"`
}

// CSVDefaults mirrors ast.CSVOptions as a YAML-decodable value; Delimiter
// is a one-character string in the document rather than a byte so ","
// round-trips through YAML as plain text.
type CSVDefaults struct {
	Delimiter      string `yaml:"delimiter"`
	HasHeader      bool   `yaml:"has_header"`
	HasProbability bool   `yaml:"has_probability"`
}

// Default returns the configuration the engine runs with when no document
// is supplied: unit provenance, comma-delimited headerless CSV, no
// iteration limit.
func Default() Config {
	return Config{
		Provenance: "unit",
		CSV:        CSVDefaults{Delimiter: ","},
	}
}

// Load decodes a YAML document into a Config, starting from Default() so
// a document that sets only a few fields still produces a usable whole.
func Load(doc []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(doc, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ToCSVOptions converts CSV into the ast.CSVOptions the §6 loaders/writers
// consume.
func (c CSVDefaults) ToCSVOptions() ast.CSVOptions {
	delim := byte(',')
	if len(c.Delimiter) > 0 {
		delim = c.Delimiter[0]
	}
	return ast.CSVOptions{
		Delimiter:      delim,
		HasHeader:      c.HasHeader,
		HasProbability: c.HasProbability,
	}
}

// NewProvenance resolves c's named variant via provenance.ByName, defaulting
// to "unit" when unset and erroring on an unknown name rather than
// silently falling back, since a typo'd variant name is a configuration
// bug the caller should see immediately.
func (c Config) NewProvenance() (provenance.Context, error) {
	name := c.Provenance
	if name == "" {
		name = "unit"
	}
	ctor, ok := provenance.ByName[name]
	if !ok {
		return nil, fmt.Errorf("config: unknown provenance variant %q", name)
	}
	return ctor(c.K), nil
}

// NewMonitor wraps inner in a monitor.IterationLimit when c.IterationLimit
// is set, otherwise returns inner unchanged (nil becomes monitor.NoOp).
func (c Config) NewMonitor(inner monitor.Monitor) monitor.Monitor {
	if c.IterationLimit <= 0 {
		if inner == nil {
			return monitor.NoOp{}
		}
		return inner
	}
	return monitor.NewIterationLimit(inner, c.IterationLimit)
}
