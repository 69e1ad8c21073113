package database

import (
	"fmt"
	"sort"

	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/provenance"
	"github.com/ramonfmir/scallop/internal/runtime/dynamic"
	"github.com/ramonfmir/scallop/internal/value"
)

// Context is the execution context of §5: it owns the relation registry,
// the EDB facts attached to each relation's declaration, and the foreign
// function/predicate registries a compiled program runs against. Mutation
// (registering a foreign implementation, adding a fact programmatically)
// is only permitted before Freeze is called; internal/runtime calls Freeze
// itself at the start of Run, matching §5's "mutation is permitted only
// before run() begins".
type Context struct {
	Relations  map[string]*Relation
	Prov       provenance.Context
	Functions  *dynamic.ForeignFunctionRegistry
	Predicates *dynamic.ForeignPredicateRegistry

	frozen bool
}

// NewContext builds an execution context for p under the given provenance,
// with one empty Relation per declared relation. Static facts are not
// loaded here -- that happens per relation, at the point its owning
// stratum is scheduled (§4.9 step 1), via LoadEDB.
func NewContext(p *ast.Program, prov provenance.Context) *Context {
	ctx := &Context{
		Relations:  map[string]*Relation{},
		Prov:       prov,
		Functions:  dynamic.NewForeignFunctionRegistry(),
		Predicates: dynamic.NewForeignPredicateRegistry(prov.One()),
	}
	for _, decl := range p.Relations {
		ctx.Relations[decl.Name] = NewRelation(decl, prov)
	}
	return ctx
}

// errFrozen is returned by every mutator once Freeze has been called.
var errFrozen = fmt.Errorf("database: context is frozen, mutation only allowed before run()")

// RegisterForeignFunction installs name's native implementation, used by
// expr.Eval's Call handling (§6 Foreign function contract).
func (c *Context) RegisterForeignFunction(name string, impl dynamic.ForeignFunctionImpl) error {
	if c.frozen {
		return errFrozen
	}
	c.Functions.Register(name, impl)
	return nil
}

// RegisterForeignPredicate installs name's native implementation (§6
// Foreign predicate contract).
func (c *Context) RegisterForeignPredicate(name string, impl dynamic.ForeignPredicateImpl) error {
	if c.frozen {
		return errFrozen
	}
	c.Predicates.Register(name, impl)
	return nil
}

// AddFact appends one programmatically supplied fact to an EDB relation's
// declaration, as an alternative to a parsed `rel name = {...}` literal
// set. cols must already match the relation's declared arity; the caller
// is expected to have validated this against Decl.ArgTypes.
func (c *Context) AddFact(relation string, cols []value.Value, tag ast.InputTagKind, disjID int, prob float64) error {
	if c.frozen {
		return errFrozen
	}
	rel, ok := c.Relations[relation]
	if !ok {
		return fmt.Errorf("database: unknown relation %q", relation)
	}
	args := make([]ast.Arg, len(cols))
	for i, v := range cols {
		args[i] = ast.Lit(v)
	}
	rel.Decl.Facts = append(rel.Decl.Facts, ast.Fact{Tag: tag, DisjID: disjID, Prob: prob, Tuple: args})
	return nil
}

// Freeze ends the mutation window (§5). internal/runtime calls this once,
// at the start of Run.
func (c *Context) Freeze() { c.frozen = true }

// Frozen reports whether Freeze has already been called.
func (c *Context) Frozen() bool { return c.frozen }

// Store builds the dynamic.Store the dataflow evaluator reads and writes,
// sharing each Relation's live DynamicRelation directly (no copy) so that
// further evaluation against Store mutates the same storage Context owns.
func (c *Context) Store() *dynamic.Store {
	s := dynamic.NewStore()
	for name, rel := range c.Relations {
		s.Relations[name] = rel.Dynamic
	}
	return s
}

// LoadEDB loads relation's statically declared facts into its dynamic
// storage (§4.9 step 1). A non-input relation is a no-op: its contents
// come entirely from rule evaluation, not EDB loading.
func (c *Context) LoadEDB(relation string) error {
	rel, ok := c.Relations[relation]
	if !ok {
		return fmt.Errorf("database: unknown relation %q", relation)
	}
	if !rel.IsEDB() {
		return nil
	}
	rows, err := FactsToRows(rel.Decl, c.Prov)
	if err != nil {
		return err
	}
	rel.Dynamic.LoadEDB(rows)
	return nil
}

// RelationNames returns every declared relation name in sorted order (§5
// "iteration order is deterministic").
func (c *Context) RelationNames() []string {
	names := make([]string, 0, len(c.Relations))
	for name := range c.Relations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Outputs returns the relations whose output disposition is not Hidden, in
// sorted order, with their current stable contents -- the set a CLI or
// embedder would report after a run completes.
func (c *Context) Outputs() []*Relation {
	var out []*Relation
	for _, name := range c.RelationNames() {
		rel := c.Relations[name]
		if rel.Decl.Output != ast.OutputHidden {
			out = append(out, rel)
		}
	}
	return out
}
