package analyzer

import (
	"errors"

	"github.com/vesper-lang/vesper/internal/diagnostics"
	"github.com/vesper-lang/vesper/internal/typesystem"
)

// Solve resolves the collected constraint set in one pass per
// declaration. Equality constraints run through unification in
// collection order; subtype constraints are held back and closed over
// the numeric lattice afterwards, since their upper bounds may only
// become concrete once unification has done its work. Failures become
// diagnostics on the bag; solving continues past them so one
// declaration reports all of its independent errors.
func Solve(ctx *InferenceContext, bag *diagnostics.Bag) {
	var pending []Constraint

	for _, c := range ctx.Constraints {
		switch c.Kind {
		case ConstraintEqual:
			left := c.Left.Apply(ctx.GlobalSubst)
			right := c.Right.Apply(ctx.GlobalSubst)
			s, err := typesystem.Unify(left, right)
			if err != nil {
				bag.Add(equalityDiagnostic(c, left, right, err))
				continue
			}
			ctx.GlobalSubst = s.Compose(ctx.GlobalSubst)
		case ConstraintSubtype:
			pending = append(pending, c)
		}
	}

	pending = closeSubtypes(ctx, bag, pending)
	pending = defaultUpperBounds(ctx, bag, pending)
	pending = closeSubtypes(ctx, bag, pending)

	for _, c := range pending {
		left := c.Left.Apply(ctx.GlobalSubst)
		right := c.Right.Apply(ctx.GlobalSubst)
		bag.Add(diagnostics.NewError(diagnostics.ErrUnresolvedSubtype, c.Node.GetToken(),
			"cannot resolve %s as a subtype of %s", left, right))
	}
}

// closeSubtypes discharges every subtype constraint whose sides are
// concrete, iterating to a fixpoint because discharging one constraint
// can concretize another's sides. Concrete-over-concrete pairs are
// checked against the numeric lattice and, when the sides differ,
// recorded as widening points for lowering.
func closeSubtypes(ctx *InferenceContext, bag *diagnostics.Bag, pending []Constraint) []Constraint {
	for {
		var next []Constraint
		progress := false
		for _, c := range pending {
			left := c.Left.Apply(ctx.GlobalSubst)
			right := c.Right.Apply(ctx.GlobalSubst)

			if !typesystem.IsResolved(left) || !typesystem.IsResolved(right) {
				next = append(next, c)
				continue
			}
			progress = true
			if left.String() == right.String() {
				continue
			}
			if typesystem.NumericPrecedes(left, right) {
				ctx.Widenings[c.Node] = right
				continue
			}
			bag.Add(diagnostics.NewError(diagnostics.ErrUnresolvedSubtype, c.Node.GetToken(),
				"type %s is not a subtype of %s", left, right))
		}
		if !progress {
			return next
		}
		pending = next
	}
}

// defaultUpperBounds resolves residual subtype constraints that still
// carry a type variable. An upper-bound variable with concrete numeric
// lower bounds defaults to their lattice join; a lower-bound variable
// under a concrete upper bound defaults to that bound. Variables tied
// only to other variables are unified together.
func defaultUpperBounds(ctx *InferenceContext, bag *diagnostics.Bag, pending []Constraint) []Constraint {
	// Join the concrete lower bounds per upper-bound variable first, so
	// Int ⊑ t and Double ⊑ t settle t at Double in one step.
	joins := map[string]typesystem.Type{}
	for _, c := range pending {
		left := c.Left.Apply(ctx.GlobalSubst)
		right := c.Right.Apply(ctx.GlobalSubst)
		upper, ok := right.(typesystem.TVar)
		if !ok || !typesystem.IsNumeric(left) {
			continue
		}
		if prev, seen := joins[upper.Name]; seen {
			if widest, ok := typesystem.WidestNumeric(prev, left); ok {
				joins[upper.Name] = widest
			}
		} else {
			joins[upper.Name] = left
		}
	}
	for name, t := range joins {
		ctx.GlobalSubst = typesystem.Subst{name: t}.Compose(ctx.GlobalSubst)
	}

	var remaining []Constraint
	for _, c := range pending {
		left := c.Left.Apply(ctx.GlobalSubst)
		right := c.Right.Apply(ctx.GlobalSubst)

		_, leftVar := left.(typesystem.TVar)
		_, rightVar := right.(typesystem.TVar)
		if !leftVar && !rightVar {
			remaining = append(remaining, c)
			continue
		}

		// Subtype bounds only arise from numeric promotion sites, so a
		// concrete non-numeric side can never discharge one.
		if leftVar != rightVar {
			concrete := left
			if leftVar {
				concrete = right
			}
			if typesystem.IsResolved(concrete) && !typesystem.IsNumeric(concrete) {
				bag.Add(diagnostics.NewError(diagnostics.ErrUnresolvedSubtype, c.Node.GetToken(),
					"type %s cannot satisfy a numeric bound", concrete))
				continue
			}
		}

		s, err := typesystem.Unify(left, right)
		if err != nil {
			bag.Add(equalityDiagnostic(c, left, right, err))
			continue
		}
		ctx.GlobalSubst = s.Compose(ctx.GlobalSubst)
		remaining = append(remaining, c)
	}
	return remaining
}

func equalityDiagnostic(c Constraint, left, right typesystem.Type, err error) *diagnostics.DiagnosticError {
	var occurs *typesystem.OccursError
	if errors.As(err, &occurs) {
		return diagnostics.NewError(diagnostics.ErrOccursCheck, c.Node.GetToken(),
			"cannot construct infinite type: %s occurs in %s", occurs.Var, occurs.In)
	}
	return diagnostics.NewError(diagnostics.ErrTypeMismatch, c.Node.GetToken(),
		"type mismatch: expected %s, got %s", right, left)
}
