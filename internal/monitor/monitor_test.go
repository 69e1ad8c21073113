package monitor_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ramonfmir/scallop/internal/monitor"
)

func TestIterationLimitAborts(t *testing.T) {
	lim := monitor.NewIterationLimit(monitor.NoOp{}, 3)
	for i := 0; i < 3; i++ {
		if err := lim.StratumIteration(i); err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
	}
	if err := lim.StratumIteration(3); err == nil {
		t.Fatalf("expected the 4th iteration to exceed the limit")
	}
}

func TestIterationLimitZeroMeansUnbounded(t *testing.T) {
	lim := monitor.NewIterationLimit(monitor.NoOp{}, 0)
	for i := 0; i < 1000; i++ {
		if err := lim.StratumIteration(i); err != nil {
			t.Fatalf("iteration %d: unexpected error with zero limit: %v", i, err)
		}
	}
}

func TestLoggingWritesOneLinePerHook(t *testing.T) {
	var buf bytes.Buffer
	m := monitor.NewLogging(&buf)
	_ = m.ExecutingStratum(0, []string{"path10", "path2"})
	_ = m.StratumIteration(1)
	_ = m.LoadingRelationFromEDB("edge")
	_ = m.RecoveringRelation("path")

	out := buf.String()
	for _, want := range []string{"stratum 0", "[path2 path10]", "iteration 1", `"edge"`, `"path"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestSortRelationNamesIsNatural(t *testing.T) {
	got := monitor.SortRelationNames([]string{"path10", "path2", "edge"})
	want := []string{"edge", "path2", "path10"}
	if len(got) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("at %d: expected %q, got %q (full: %v)", i, want[i], got[i], got)
		}
	}
}
