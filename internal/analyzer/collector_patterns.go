package analyzer

import (
	"fmt"

	"github.com/vesper-lang/vesper/internal/ast"
	"github.com/vesper-lang/vesper/internal/config"
	"github.com/vesper-lang/vesper/internal/diagnostics"
	"github.com/vesper-lang/vesper/internal/symbols"
	"github.com/vesper-lang/vesper/internal/typesystem"
)

// collectPattern types a pattern against the scrutinee type, defining
// bindings into the arm's scope. Sub-pattern constraints flow into the
// same context as the surrounding expression.
func collectPattern(ctx *InferenceContext, p ast.Pattern, scrutinee typesystem.Type, table *symbols.SymbolTable) error {
	scrutinee = scrutinee.Apply(ctx.GlobalSubst)

	switch pat := p.(type) {
	case *ast.WildcardPattern:
		ctx.SetType(pat, scrutinee)
		return nil

	case *ast.BindingPattern:
		table.Define(pat.Name, scrutinee)
		ctx.SetType(pat, scrutinee)
		return nil

	case *ast.LiteralPattern:
		litType, err := literalPatternType(pat)
		if err != nil {
			return err
		}
		if typesystem.IsNumeric(litType) {
			// Numeric literals widen toward the scrutinee kind.
			ctx.addConstraint(Constraint{Kind: ConstraintSubtype, Left: litType, Right: scrutinee, Node: pat})
		} else {
			ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: litType, Right: scrutinee, Node: pat})
		}
		// The pattern keeps its own literal type so lowering can see the
		// narrow-to-wide conversion the solver recorded against it.
		ctx.SetType(pat, litType)
		return nil

	case *ast.NullPattern:
		if _, ok := scrutinee.(typesystem.TNullable); !ok {
			if _, isVar := scrutinee.(typesystem.TVar); !isVar {
				return diagnostics.NewError(diagnostics.ErrTypeMismatch, pat.Token,
					"null pattern against non-nullable type %s", scrutinee)
			}
			ctx.addConstraint(Constraint{
				Kind: ConstraintEqual, Left: scrutinee,
				Right: typesystem.TNullable{Elem: ctx.FreshVar()}, Node: pat,
			})
		}
		ctx.SetType(pat, scrutinee)
		return nil

	case *ast.VariantPattern:
		return collectVariantPattern(ctx, pat, scrutinee, table)

	case *ast.ListPattern:
		elem := listElemType(ctx, pat, scrutinee)
		for _, sub := range pat.Elements {
			if err := collectPattern(ctx, sub, elem, table); err != nil {
				return err
			}
		}
		if pat.Tail != nil {
			if err := collectPattern(ctx, pat.Tail, listOf(elem), table); err != nil {
				return err
			}
		}
		ctx.SetType(pat, scrutinee)
		return nil

	case *ast.GuardedPattern:
		if err := collectPattern(ctx, pat.Pattern, scrutinee, table); err != nil {
			return err
		}
		// The guard sees the inner pattern's bindings.
		guardType, err := Collect(ctx, pat.Cond, table)
		if err != nil {
			return err
		}
		ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: guardType, Right: typesystem.Bool, Node: pat.Cond})
		ctx.SetType(pat, scrutinee)
		return nil

	case *ast.TypeTestPattern:
		// The test is a runtime check; the tested type does not constrain
		// the scrutinee. Bindings and sub-patterns see the narrowed type.
		if pat.Binding != "" {
			table.Define(pat.Binding, pat.Type)
		}
		if pat.Inner != nil {
			if err := collectPattern(ctx, pat.Inner, pat.Type, table); err != nil {
				return err
			}
		}
		ctx.SetType(pat, pat.Type)
		return nil

	case *ast.AliasPattern:
		if err := collectPattern(ctx, pat.Pattern, scrutinee, table); err != nil {
			return err
		}
		table.Define(pat.Name, scrutinee)
		ctx.SetType(pat, scrutinee)
		return nil

	default:
		return fmt.Errorf("collector: unhandled pattern %T", p)
	}
}

func collectVariantPattern(ctx *InferenceContext, pat *ast.VariantPattern, scrutinee typesystem.Type, table *symbols.SymbolTable) error {
	// Builtin generic constructors deconstruct their type arguments.
	switch pat.Name {
	case config.SomeCtorName, config.NoneCtorName:
		elem := appArgType(ctx, pat, scrutinee, config.OptionTypeName, 1, 0)
		if pat.Name == config.SomeCtorName {
			if len(pat.Fields) != 1 {
				return diagnostics.NewError(diagnostics.ErrInvalidField, pat.Token,
					"%s pattern takes exactly one sub-pattern", pat.Name)
			}
			if err := collectPattern(ctx, pat.Fields[0].Pattern, elem, table); err != nil {
				return err
			}
		} else if len(pat.Fields) != 0 {
			return diagnostics.NewError(diagnostics.ErrInvalidField, pat.Token,
				"%s pattern takes no sub-patterns", pat.Name)
		}
		ctx.SetType(pat, scrutinee)
		return nil

	case config.OkCtorName, config.ErrCtorName:
		idx := 0
		if pat.Name == config.ErrCtorName {
			idx = 1
		}
		elem := appArgType(ctx, pat, scrutinee, config.ResultTypeName, 2, idx)
		if len(pat.Fields) != 1 {
			return diagnostics.NewError(diagnostics.ErrInvalidField, pat.Token,
				"%s pattern takes exactly one sub-pattern", pat.Name)
		}
		if err := collectPattern(ctx, pat.Fields[0].Pattern, elem, table); err != nil {
			return err
		}
		ctx.SetType(pat, scrutinee)
		return nil
	}

	union, ok := scrutinee.(typesystem.TUnion)
	if !ok {
		if _, isVar := scrutinee.(typesystem.TVar); !isVar {
			return diagnostics.NewError(diagnostics.ErrTypeMismatch, pat.Token,
				"variant pattern %s against non-union type %s", pat.Name, scrutinee)
		}
		u, found := table.FindUnionByVariant(pat.Name)
		if !found {
			return fmt.Errorf("unbound constructor %q reached the checker at %s", pat.Name, pat.Token.Pos())
		}
		ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: scrutinee, Right: u, Node: pat})
		union = u
	}

	variant, ok := union.VariantNamed(pat.Name)
	if !ok {
		return diagnostics.NewError(diagnostics.ErrTypeMismatch, pat.Token,
			"union %s has no variant %s", union.Name, pat.Name)
	}

	named := false
	for _, f := range pat.Fields {
		if f.Name != "" {
			named = true
			break
		}
	}

	if named || pat.Rest {
		for _, f := range pat.Fields {
			if f.Name == "" {
				return diagnostics.NewError(diagnostics.ErrInvalidField, pat.Token,
					"variant pattern %s mixes positional and named fields", pat.Name)
			}
			field, ok := variant.FieldNamed(f.Name)
			if !ok {
				return diagnostics.NewError(diagnostics.ErrInvalidField, pat.Token,
					"variant %s.%s has no field '%s'", union.Name, variant.Name, f.Name)
			}
			if err := collectPattern(ctx, f.Pattern, field.Type, table); err != nil {
				return err
			}
		}
		if !pat.Rest && len(pat.Fields) != len(variant.Fields) {
			return diagnostics.NewError(diagnostics.ErrInvalidField, pat.Token,
				"variant pattern %s names %d of %d fields without '..'", pat.Name, len(pat.Fields), len(variant.Fields))
		}
	} else {
		if len(pat.Fields) != len(variant.Fields) {
			return diagnostics.NewError(diagnostics.ErrInvalidField, pat.Token,
				"variant %s.%s has %d fields, pattern has %d", union.Name, variant.Name, len(variant.Fields), len(pat.Fields))
		}
		for i, f := range pat.Fields {
			if err := collectPattern(ctx, f.Pattern, variant.Fields[i].Type, table); err != nil {
				return err
			}
		}
	}
	ctx.SetType(pat, union)
	return nil
}

// literalPatternType maps the literal's Go representation to a source
// type: int → Int, int64 → Long, float32 → Float, float64 → Double.
func literalPatternType(pat *ast.LiteralPattern) (typesystem.Type, error) {
	switch pat.Value.(type) {
	case int:
		return typesystem.Int, nil
	case int64:
		return typesystem.Long, nil
	case float32:
		return typesystem.Float, nil
	case float64:
		return typesystem.Double, nil
	case bool:
		return typesystem.Bool, nil
	case rune:
		return typesystem.Char, nil
	case string:
		return typesystem.String, nil
	default:
		return nil, fmt.Errorf("collector: unsupported literal pattern value %T", pat.Value)
	}
}

// listElemType extracts the element type from a List scrutinee,
// constraining a type-variable scrutinee to List<fresh> when needed.
func listElemType(ctx *InferenceContext, pat ast.Pattern, scrutinee typesystem.Type) typesystem.Type {
	if app, ok := scrutinee.(typesystem.TApp); ok {
		if con, ok := app.Constructor.(typesystem.TCon); ok && con.Name == config.ListTypeName && len(app.Args) == 1 {
			return app.Args[0]
		}
	}
	elem := ctx.FreshVar()
	ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: scrutinee, Right: listOf(elem), Node: pat})
	return elem
}

// appArgType extracts type argument idx from an applied constructor
// scrutinee (Option or Result), constraining a variable scrutinee to a
// fresh application first.
func appArgType(ctx *InferenceContext, pat ast.Pattern, scrutinee typesystem.Type, ctorName string, arity, idx int) typesystem.Type {
	if app, ok := scrutinee.(typesystem.TApp); ok {
		if con, ok := app.Constructor.(typesystem.TCon); ok && con.Name == ctorName && len(app.Args) == arity {
			return app.Args[idx]
		}
	}
	args := make([]typesystem.Type, arity)
	for i := range args {
		args[i] = ctx.FreshVar()
	}
	ctx.addConstraint(Constraint{
		Kind: ConstraintEqual, Left: scrutinee,
		Right: typesystem.TApp{Constructor: typesystem.TCon{Name: ctorName}, Args: args}, Node: pat,
	})
	return args[idx]
}
