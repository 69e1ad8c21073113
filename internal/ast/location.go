package ast

import "fmt"

// Location is the source position carried by every AST node, used solely
// for diagnostics (§3). Equality on AST nodes ignores Location except where
// a pass explicitly compares it (e.g. duplicate-declaration reporting).
type Location struct {
	File        string
	StartOffset int
	EndOffset   int
	Line        int
	Column      int
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// NodeID is a small integer handed out by a Program's node table, the
// alternative the teacher's design notes allow to threading Location
// through every algebraic match (§9 Design Notes).
type NodeID int
