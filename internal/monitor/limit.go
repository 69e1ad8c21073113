package monitor

import "fmt"

// IterationLimit wraps another Monitor and aborts the run once the total
// number of fixpoint iterations across every stratum exceeds Max,
// returning an error from StratumIteration (internal/runtime propagates it
// as the run's error rather than looping forever on a misbehaving or
// non-terminating provenance).
type IterationLimit struct {
	Inner Monitor
	Max   int

	total int
}

func NewIterationLimit(inner Monitor, max int) *IterationLimit {
	if inner == nil {
		inner = NoOp{}
	}
	return &IterationLimit{Inner: inner, Max: max}
}

func (m *IterationLimit) ExecutingStratum(index int, relations []string) error {
	return m.Inner.ExecutingStratum(index, relations)
}

func (m *IterationLimit) StratumIteration(n int) error {
	m.total++
	if m.Max > 0 && m.total > m.Max {
		return fmt.Errorf("monitor: iteration limit %d exceeded", m.Max)
	}
	return m.Inner.StratumIteration(n)
}

func (m *IterationLimit) LoadingRelationFromEDB(name string) error {
	return m.Inner.LoadingRelationFromEDB(name)
}

func (m *IterationLimit) LoadingRelationFromIDB(name string) error {
	return m.Inner.LoadingRelationFromIDB(name)
}

func (m *IterationLimit) RecoveringRelation(name string) error {
	return m.Inner.RecoveringRelation(name)
}
