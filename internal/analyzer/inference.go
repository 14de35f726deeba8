// Package analyzer implements the type-checking phase: constraint
// collection over the name-resolved AST, constraint solving into a
// substitution, and match exhaustiveness analysis.
package analyzer

import (
	"fmt"

	"github.com/vesper-lang/vesper/internal/ast"
	"github.com/vesper-lang/vesper/internal/typesystem"
)

// InferenceContext holds the state for one declaration's inference pass.
// Using a context instead of global state keeps type variable names
// predictable and makes parallel per-declaration checking safe.
type InferenceContext struct {
	counter int

	// TypeMap stores the inferred type of every expression and pattern
	// node. After solving, ResolveTypes applies the final substitution
	// so downstream phases read only concrete types.
	TypeMap map[ast.Node]typesystem.Type

	// Constraints accumulates monotonically during collection; nothing
	// is ever removed. The solver consumes the whole set at once.
	Constraints []Constraint

	// GlobalSubst is the substitution produced by solving.
	GlobalSubst typesystem.Subst

	// Widenings records solver-discharged numeric promotions, keyed by
	// the AST node whose value must be converted. Lowering materializes
	// each entry as a conversion instruction.
	Widenings map[ast.Node]typesystem.Type

	// Matches lists every match expression seen during collection,
	// paired with its scrutinee type, for the exhaustiveness pass.
	Matches []CollectedMatch
}

// CollectedMatch pairs a match expression with its scrutinee type as
// known at collection time (type variables are resolved after solving).
type CollectedMatch struct {
	Expr      *ast.MatchExpression
	Scrutinee typesystem.Type
}

// NewInferenceContext creates a fresh context.
func NewInferenceContext() *InferenceContext {
	return &InferenceContext{
		TypeMap:     make(map[ast.Node]typesystem.Type),
		GlobalSubst: typesystem.Subst{},
		Widenings:   make(map[ast.Node]typesystem.Type),
	}
}

// FreshVar mints a unique type variable.
func (ctx *InferenceContext) FreshVar() typesystem.TVar {
	ctx.counter++
	return typesystem.TVar{Name: fmt.Sprintf("t%d", ctx.counter)}
}

// Instantiate replaces the quantified variables of a scheme with fresh
// ones. Monotypes pass through unchanged.
func (ctx *InferenceContext) Instantiate(t typesystem.Type) typesystem.Type {
	forall, ok := t.(typesystem.TForall)
	if !ok {
		return t
	}
	s := typesystem.Subst{}
	for _, v := range forall.Vars {
		s[v.Name] = ctx.FreshVar()
	}
	return forall.Body.Apply(s)
}

// Generalize quantifies the type variables of t that do not occur free
// in the environment, producing a scheme.
func Generalize(envFree map[string]bool, t typesystem.Type) typesystem.Type {
	var vars []typesystem.TVar
	for _, v := range t.FreeTypeVariables() {
		if !envFree[v.Name] {
			vars = append(vars, v)
		}
	}
	if len(vars) == 0 {
		return t
	}
	return typesystem.TForall{Vars: vars, Body: t}
}

// SetType records the inferred type of a node.
func (ctx *InferenceContext) SetType(n ast.Node, t typesystem.Type) {
	ctx.TypeMap[n] = t
}

// addConstraint appends to the constraint set. Constraints are produced,
// never mutated.
func (ctx *InferenceContext) addConstraint(c Constraint) {
	ctx.Constraints = append(ctx.Constraints, c)
}

// ResolveTypes applies the final substitution to every recorded type,
// so downstream phases never see an unapplied type variable.
func (ctx *InferenceContext) ResolveTypes() {
	for n, t := range ctx.TypeMap {
		ctx.TypeMap[n] = t.Apply(ctx.GlobalSubst)
	}
	for i := range ctx.Matches {
		ctx.Matches[i].Scrutinee = ctx.Matches[i].Scrutinee.Apply(ctx.GlobalSubst)
	}
}
