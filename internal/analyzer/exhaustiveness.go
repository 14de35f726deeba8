package analyzer

import (
	"fmt"
	"strings"

	"github.com/vesper-lang/vesper/internal/ast"
	"github.com/vesper-lang/vesper/internal/config"
	"github.com/vesper-lang/vesper/internal/diagnostics"
	"github.com/vesper-lang/vesper/internal/typesystem"
)

// CheckExhaustiveness verifies every collected match after solving.
// It walks arms top to bottom against a residual frontier of value
// shapes: each unguarded arm subtracts what it irrefutably covers,
// arms that cannot intersect the residual are flagged unreachable,
// and a non-empty residual after the last arm names its witnesses.
// Guarded arms never subtract; a guard can fail at runtime.
func CheckExhaustiveness(ctx *InferenceContext, bag *diagnostics.Bag) {
	for _, m := range ctx.Matches {
		checkMatch(ctx, m, bag)
	}
}

// matchDomain is the frontier for one scrutinee type. Closed domains
// enumerate their shapes; open domains (numbers, strings, chars,
// products) hold a single shape only an irrefutable pattern covers.
type matchDomain struct {
	residual map[string]bool
	order    []string
	open     bool
}

func newDomain(shapes []string, open bool) *matchDomain {
	d := &matchDomain{residual: make(map[string]bool, len(shapes)), order: shapes, open: open}
	for _, s := range shapes {
		d.residual[s] = true
	}
	return d
}

func (d *matchDomain) subtract(shapes []string) {
	for _, s := range shapes {
		delete(d.residual, s)
	}
}

func (d *matchDomain) all() []string {
	out := make([]string, 0, len(d.order))
	for _, s := range d.order {
		if d.residual[s] {
			out = append(out, s)
		}
	}
	return out
}

const openShape = "_"

func checkMatch(ctx *InferenceContext, m CollectedMatch, bag *diagnostics.Bag) {
	scrutinee := m.Scrutinee.Apply(ctx.GlobalSubst)
	domain := domainFor(scrutinee)
	seenLiterals := map[string]bool{}

	for _, arm := range m.Expr.Arms {
		pattern, guarded := stripGuards(arm.Pattern)
		if arm.Guard != nil {
			guarded = true
		}

		matchable := matchableShapes(pattern, domain)
		reachable := false
		for _, s := range matchable {
			if domain.residual[s] {
				reachable = true
				break
			}
		}
		if domain.open && reachable {
			// Duplicate literals over an open domain never run twice.
			if lit, ok := pattern.(*ast.LiteralPattern); ok {
				key := fmt.Sprintf("%v", lit.Value)
				if seenLiterals[key] {
					reachable = false
				} else if !guarded {
					seenLiterals[key] = true
				}
			}
		}
		if !reachable {
			bag.Add(diagnostics.NewWarning(diagnostics.ErrUnreachablePattern, arm.Pattern.GetToken(),
				"pattern can never match: preceding arms already cover it"))
			continue
		}
		if guarded {
			continue
		}
		domain.subtract(coveredShapes(pattern, domain))
	}

	if missing := domain.all(); len(missing) > 0 {
		bag.Add(diagnostics.NewError(diagnostics.ErrNonExhaustiveMatch, m.Expr.Token,
			"match is not exhaustive: %s not covered", witnessList(missing, scrutinee)))
	}
}

func witnessList(missing []string, scrutinee typesystem.Type) string {
	if len(missing) == 1 && missing[0] == openShape {
		return fmt.Sprintf("values of type %s", scrutinee)
	}
	return strings.Join(missing, ", ")
}

func domainFor(t typesystem.Type) *matchDomain {
	switch st := t.(type) {
	case typesystem.TUnion:
		shapes := make([]string, len(st.Variants))
		for i, v := range st.Variants {
			if len(v.Fields) > 0 {
				shapes[i] = v.Name + "(_)"
			} else {
				shapes[i] = v.Name
			}
		}
		return newDomain(shapes, false)
	case typesystem.TCon:
		if st.Name == typesystem.Bool.Name {
			return newDomain([]string{"true", "false"}, false)
		}
	case typesystem.TNullable:
		return newDomain([]string{"null", "non-null value"}, false)
	case typesystem.TApp:
		if con, ok := st.Constructor.(typesystem.TCon); ok {
			switch con.Name {
			case config.ListTypeName:
				return newDomain([]string{"[]", "[_, ...]"}, false)
			case config.OptionTypeName:
				return newDomain([]string{config.SomeCtorName + "(_)", config.NoneCtorName}, false)
			case config.ResultTypeName:
				return newDomain([]string{config.OkCtorName + "(_)", config.ErrCtorName + "(_)"}, false)
			}
		}
	}
	return newDomain([]string{openShape}, true)
}

// stripGuards unwraps guard and alias layers down to the structural
// pattern; any guard encountered marks the arm refutable regardless of
// shape.
func stripGuards(p ast.Pattern) (ast.Pattern, bool) {
	guarded := false
	for {
		switch pat := p.(type) {
		case *ast.GuardedPattern:
			guarded = true
			p = pat.Pattern
		case *ast.AliasPattern:
			p = pat.Pattern
		default:
			return p, guarded
		}
	}
}

// irrefutable reports whether a pattern matches every value of its
// type. Guards are handled before this is consulted.
func irrefutable(p ast.Pattern) bool {
	switch pat := p.(type) {
	case *ast.WildcardPattern, *ast.BindingPattern:
		return true
	case *ast.AliasPattern:
		return irrefutable(pat.Pattern)
	case *ast.GuardedPattern:
		return false
	default:
		return false
	}
}

// matchableShapes is the optimistic set: which frontier shapes could
// this pattern possibly select. Sub-patterns do not narrow membership
// here, only top-level shape does.
func matchableShapes(p ast.Pattern, d *matchDomain) []string {
	if irrefutable(p) {
		return d.order
	}
	switch pat := p.(type) {
	case *ast.LiteralPattern:
		if b, ok := pat.Value.(bool); ok {
			if b {
				return []string{"true"}
			}
			return []string{"false"}
		}
		return []string{openShape}
	case *ast.NullPattern:
		return []string{"null"}
	case *ast.VariantPattern:
		return []string{variantShape(pat.Name, d)}
	case *ast.ListPattern:
		if len(pat.Elements) == 0 && pat.Tail == nil {
			return []string{"[]"}
		}
		if len(pat.Elements) == 0 && pat.Tail != nil {
			return []string{"[]", "[_, ...]"}
		}
		return []string{"[_, ...]"}
	case *ast.TypeTestPattern:
		// A type test over a non-union scrutinee either always or never
		// passes; treat it as potentially selecting anything.
		return d.order
	}
	return d.order
}

// coveredShapes is the pessimistic set: which frontier shapes this
// pattern removes for every possible value. Refutable sub-patterns
// keep their shape on the frontier.
func coveredShapes(p ast.Pattern, d *matchDomain) []string {
	if irrefutable(p) {
		return d.order
	}
	switch pat := p.(type) {
	case *ast.LiteralPattern:
		if b, ok := pat.Value.(bool); ok {
			if b {
				return []string{"true"}
			}
			return []string{"false"}
		}
		return nil
	case *ast.NullPattern:
		return []string{"null"}
	case *ast.VariantPattern:
		for _, f := range pat.Fields {
			if !irrefutable(f.Pattern) {
				return nil
			}
		}
		return []string{variantShape(pat.Name, d)}
	case *ast.ListPattern:
		switch {
		case len(pat.Elements) == 0 && pat.Tail == nil:
			return []string{"[]"}
		case len(pat.Elements) == 0 && pat.Tail != nil:
			return []string{"[]", "[_, ...]"}
		case len(pat.Elements) == 1 && pat.Tail != nil && irrefutable(pat.Elements[0]):
			return []string{"[_, ...]"}
		}
		return nil
	}
	return nil
}

// variantShape finds the frontier key for a variant name, which may
// carry a field marker.
func variantShape(name string, d *matchDomain) string {
	for _, s := range d.order {
		if s == name || s == name+"(_)" {
			return s
		}
	}
	return name
}
