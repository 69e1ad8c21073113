package examples_test

import (
	"testing"

	"github.com/ramonfmir/scallop/internal/examples"
)

func TestLookupKnownNames(t *testing.T) {
	for _, name := range examples.Names() {
		p, err := examples.Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if len(p.Relations) == 0 || len(p.Rules) == 0 {
			t.Fatalf("example %q built an empty program", name)
		}
	}
}

func TestLookupUnknownName(t *testing.T) {
	if _, err := examples.Lookup("does-not-exist"); err == nil {
		t.Fatalf("expected an error for an unknown example name")
	}
}
