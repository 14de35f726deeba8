package analyzer

import (
	"github.com/vesper-lang/vesper/internal/ast"
	"github.com/vesper-lang/vesper/internal/typesystem"
)

// ConstraintKind represents the kind of constraint.
type ConstraintKind string

const (
	ConstraintEqual   ConstraintKind = "Equal"   // T1 ~ T2
	ConstraintSubtype ConstraintKind = "Subtype" // T1 ⊑ T2 (numeric promotion)
)

// Constraint represents a typing constraint to be solved later. Node is
// the source position for diagnostics, and for Subtype constraints also
// the operand whose widening conversion is recorded when discharged.
type Constraint struct {
	Kind  ConstraintKind
	Left  typesystem.Type
	Right typesystem.Type
	Node  ast.Node
}
