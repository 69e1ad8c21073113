package front

import "github.com/ramonfmir/scallop/internal/ast"

// Pass represents a single semantic analysis pass, modeled directly on the
// teacher's semantic.Pass: passes read and write a shared context, collect
// diagnostics rather than halting, and return a Go error only for a fatal
// internal failure (never for a semantic error in the user's program).
type Pass interface {
	Name() string
	Run(p *ast.Program, ctx *Context) error
}

// PassManager coordinates a fixed ordered list of passes, exactly as the
// teacher's semantic.PassManager does: run every pass regardless of what
// diagnostics earlier passes reported, aggregating the full diagnostic
// list for display (§7).
type PassManager struct {
	passes []Pass
}

func NewPassManager(passes ...Pass) *PassManager {
	return &PassManager{passes: passes}
}

func (pm *PassManager) AddPass(p Pass) { pm.passes = append(pm.passes, p) }

func (pm *PassManager) Passes() []Pass { return pm.passes }

// RunAll executes every pass in order (§7: "the front-end runs every
// analysis pass even in the presence of errors from earlier passes and
// aggregates a vector of diagnostics"). It stops early only when a pass
// itself returns a Go error, which is reserved for a fatal internal
// failure, never for a semantic error in the user's program -- those go
// through ctx.Diagnostics and never abort the loop.
func (pm *PassManager) RunAll(p *ast.Program, ctx *Context) error {
	for _, pass := range pm.passes {
		if err := pass.Run(p, ctx); err != nil {
			return err
		}
	}
	return nil
}
