// Package front implements the semantic analyses that establish a
// well-formed Scallop program (§4.1-§4.4) and the PassManager that
// orchestrates them (§7 "the front-end runs every analysis pass even in the
// presence of errors from earlier passes").
package front

import (
	"fmt"
	"strings"

	"github.com/ramonfmir/scallop/internal/ast"
)

// Severity classifies a Diagnostic (§7).
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one front-end compile-time finding, modeled on the
// teacher's internal/errors.CompilerError: a message, a source location,
// and the severity driving §7's "fails if any diagnostic has severity
// Error" rule.
type Diagnostic struct {
	Kind     string // e.g. "DuplicatedConstant", "HeadExprUnbound"
	Message  string
	Loc      ast.Location
	Severity Severity
}

func Errorf(kind string, loc ast.Location, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Loc: loc, Severity: SeverityError}
}

func Warnf(kind string, loc ast.Location, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Loc: loc, Severity: SeverityWarning}
}

// Format renders a diagnostic the way the teacher's CompilerError.Format
// does: a header line with file:line:column, then the message. Source-line
// caret rendering is omitted here since the front end operates purely on
// resolved ASTs with no retained source text (surface lexing is out of
// scope, §1).
func (d Diagnostic) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s: %s", d.Loc.String(), d.Severity, d.Kind)
	if d.Message != "" {
		fmt.Fprintf(&sb, ": %s", d.Message)
	}
	return sb.String()
}

func (d Diagnostic) Error() string { return d.Format() }

// Diagnostics aggregates findings across every pass, mirroring the
// teacher's semantic.PassContext error list plus HasCriticalErrors check.
type Diagnostics struct {
	items []Diagnostic
}

func (d *Diagnostics) Add(diag Diagnostic) { d.items = append(d.items, diag) }

func (d *Diagnostics) Errorf(kind string, loc ast.Location, format string, args ...any) {
	d.Add(Errorf(kind, loc, format, args...))
}

func (d *Diagnostics) Warnf(kind string, loc ast.Location, format string, args ...any) {
	d.Add(Warnf(kind, loc, format, args...))
}

// HasErrors reports whether any collected diagnostic has SeverityError.
func (d *Diagnostics) HasErrors() bool {
	for _, it := range d.items {
		if it.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (d *Diagnostics) All() []Diagnostic { return d.items }

// Error implements the error interface so a Diagnostics value can be
// returned directly from Compile when HasErrors() is true.
func (d *Diagnostics) Error() string {
	lines := make([]string, len(d.items))
	for i, it := range d.items {
		lines[i] = it.Format()
	}
	return strings.Join(lines, "\n")
}
