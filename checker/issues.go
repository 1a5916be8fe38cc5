package checker

import (
	"fmt"
	"strings"

	"github.com/ezachrisen/cobalt/ast"
	"github.com/ezachrisen/cobalt/types"
)

// Severity classifies an issue found during checking.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInformation
	SeverityDeprecated
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	case SeverityDeprecated:
		return "deprecated"
	}
	return "unspecified"
}

// Issue is a single finding attributed to an AST node.
type Issue struct {
	Severity Severity
	// ID of the expression node the issue is attributed to.
	ID int64
	// Location in the source, when source info was supplied.
	Location ast.Location
	Message  string
}

func (i Issue) String() string {
	if i.Location.Line > 0 {
		return fmt.Sprintf("%s: %d:%d: %s", i.Severity, i.Location.Line, i.Location.Column, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

// Reference records what a name in the expression resolved to: either a
// declared variable (qualified name) or one or more candidate function
// overloads.
type Reference struct {
	// Name is the fully qualified variable name; empty for function
	// references.
	Name string
	// OverloadIDs are the candidate overload ids for a call, in
	// declaration order. A single entry means the checker resolved the
	// call unambiguously.
	OverloadIDs []string
}

// Result is the outcome of checking an expression: the (unmodified)
// input AST, the annotation maps, and any issues found. The result is
// valid when no issue has error severity.
type Result struct {
	Expr       *ast.Expr
	SourceInfo *ast.SourceInfo
	// TypeMap annotates every checked node with its resolved type.
	TypeMap map[int64]*types.Type
	// RefMap annotates name and call nodes with their resolution.
	RefMap map[int64]*Reference
	Issues []Issue
}

// Valid reports whether the result contains no error issues.
func (r *Result) Valid() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Err returns all error issues as a single error, or nil when the
// result is valid.
func (r *Result) Err() error {
	var msgs []string
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			msgs = append(msgs, i.String())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(msgs, "\n"))
}

// Type returns the annotated type for a node ID, defaulting to dyn.
func (r *Result) Type(id int64) *types.Type {
	if t, ok := r.TypeMap[id]; ok {
		return t
	}
	return types.DynType
}

// Reference returns the reference recorded for a node ID, if any.
func (r *Result) Reference(id int64) (*Reference, bool) {
	ref, ok := r.RefMap[id]
	return ref, ok
}
