// Package monitor implements the §6 Monitor hooks: an observer interface
// the fixpoint scheduler (internal/runtime) notifies at stratum/iteration
// boundaries and relation load points, plus three implementations (no-op,
// logging, iteration-limit enforcing) in the teacher's own compiler
// diagnostics style.
package monitor

// Monitor is notified at the points §6 names. A monitor may abort a run by
// returning a non-nil error from any hook; internal/runtime propagates it
// wrapped as errors.ErrCancelledByMonitor's category.
type Monitor interface {
	// ExecutingStratum is notified with the stratum's full relation set so a
	// logging monitor can report which relations a stratum touches, not just
	// its index.
	ExecutingStratum(index int, relations []string) error
	StratumIteration(n int) error
	LoadingRelationFromEDB(name string) error
	LoadingRelationFromIDB(name string) error
	RecoveringRelation(name string) error
}

// NoOp observes nothing and never aborts a run. It is the default monitor
// when the caller does not need observability.
type NoOp struct{}

func (NoOp) ExecutingStratum(int, []string) error { return nil }
func (NoOp) StratumIteration(int) error          { return nil }
func (NoOp) LoadingRelationFromEDB(string) error { return nil }
func (NoOp) LoadingRelationFromIDB(string) error { return nil }
func (NoOp) RecoveringRelation(string) error     { return nil }
