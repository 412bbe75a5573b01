// Package condition models the enabled_if expressions that gate whether a
// check is scheduled, and evaluates them against filesystem and PATH probes.
package condition

import (
	"fmt"
	"strings"
)

// Expr is a condition expression. The set of implementations is closed.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// FileExists holds when path names an existing regular file.
type FileExists struct {
	Path string
}

// DirExists holds when path names an existing directory.
type DirExists struct {
	Path string
}

// CommandExists holds when name resolves to an executable on PATH.
type CommandExists struct {
	Name string
}

// All holds when every operand holds. Evaluation stops at the first false operand.
type All struct {
	Exprs []Expr
}

// Any holds when at least one operand holds. Evaluation stops at the first true operand.
type Any struct {
	Exprs []Expr
}

// Not negates its operand.
type Not struct {
	Expr Expr
}

func (FileExists) isExpr()    {}
func (DirExists) isExpr()     {}
func (CommandExists) isExpr() {}
func (All) isExpr()           {}
func (Any) isExpr()           {}
func (Not) isExpr()           {}

func (e FileExists) String() string    { return fmt.Sprintf("file_exists(%q)", e.Path) }
func (e DirExists) String() string     { return fmt.Sprintf("dir_exists(%q)", e.Path) }
func (e CommandExists) String() string { return fmt.Sprintf("command_exists(%q)", e.Name) }
func (e All) String() string           { return "all(" + joinExprs(e.Exprs) + ")" }
func (e Any) String() string           { return "any(" + joinExprs(e.Exprs) + ")" }
func (e Not) String() string           { return "not(" + e.Expr.String() + ")" }

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
