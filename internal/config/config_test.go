package config_test

import (
	"testing"

	"github.com/ramonfmir/scallop/internal/config"
	"github.com/ramonfmir/scallop/internal/monitor"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load([]byte(`provenance: min-max-prob`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provenance != "min-max-prob" {
		t.Fatalf("expected provenance override, got %q", cfg.Provenance)
	}
	if cfg.CSV.Delimiter != "," {
		t.Fatalf("expected default delimiter to survive a partial document, got %q", cfg.CSV.Delimiter)
	}
}

func TestNewProvenanceUnknownName(t *testing.T) {
	cfg, err := config.Load([]byte(`provenance: nonsense`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := cfg.NewProvenance(); err == nil {
		t.Fatalf("expected an error for an unknown provenance variant")
	}
}

func TestNewProvenanceTopK(t *testing.T) {
	cfg, err := config.Load([]byte("provenance: top-k-proofs\nk: 3\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	prov, err := cfg.NewProvenance()
	if err != nil {
		t.Fatalf("NewProvenance: %v", err)
	}
	if prov.Name() != "top-k-proofs" {
		t.Fatalf("unexpected provenance name %q", prov.Name())
	}
}

func TestToCSVOptionsUsesFirstByte(t *testing.T) {
	cfg := config.Default()
	cfg.CSV.Delimiter = ";"
	cfg.CSV.HasHeader = true
	opts := cfg.CSV.ToCSVOptions()
	if opts.Delimiter != ';' || !opts.HasHeader {
		t.Fatalf("unexpected CSV options: %+v", opts)
	}
}

func TestNewMonitorWrapsOnlyWhenLimitSet(t *testing.T) {
	cfg := config.Default()
	if _, ok := cfg.NewMonitor(nil).(*monitor.IterationLimit); ok {
		t.Fatalf("expected no IterationLimit wrapper when unset")
	}
	cfg.IterationLimit = 5
	if _, ok := cfg.NewMonitor(nil).(*monitor.IterationLimit); !ok {
		t.Fatalf("expected an IterationLimit wrapper when set")
	}
}
