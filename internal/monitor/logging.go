package monitor

import (
	"fmt"
	"io"
	"sort"

	"github.com/maruel/natural"
)

// Logging is a Monitor that writes one line per hook invocation to Out,
// matching the granularity of the reference implementation's logging
// monitor (one line per stratum/iteration transition, one per relation
// load).
type Logging struct {
	Out io.Writer
}

func NewLogging(out io.Writer) *Logging { return &Logging{Out: out} }

func (m *Logging) ExecutingStratum(index int, relations []string) error {
	fmt.Fprintf(m.Out, "stratum %d: executing %v\n", index, SortRelationNames(relations))
	return nil
}

func (m *Logging) StratumIteration(n int) error {
	fmt.Fprintf(m.Out, "  iteration %d\n", n)
	return nil
}

func (m *Logging) LoadingRelationFromEDB(name string) error {
	fmt.Fprintf(m.Out, "  loading %q from EDB\n", name)
	return nil
}

func (m *Logging) LoadingRelationFromIDB(name string) error {
	fmt.Fprintf(m.Out, "  loading %q from IDB\n", name)
	return nil
}

func (m *Logging) RecoveringRelation(name string) error {
	fmt.Fprintf(m.Out, "  recovering %q\n", name)
	return nil
}

// SortRelationNames orders names the way log output should present a
// stratum's relation set: natural order so "path2" sorts before "path10"
// instead of the lexicographic "path10" < "path2".
func SortRelationNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Slice(out, func(i, j int) bool { return natural.Less(out[i], out[j]) })
	return out
}
