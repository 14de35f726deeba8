package analyzer

import (
	"fmt"

	"github.com/vesper-lang/vesper/internal/ast"
	"github.com/vesper-lang/vesper/internal/config"
	"github.com/vesper-lang/vesper/internal/diagnostics"
	"github.com/vesper-lang/vesper/internal/symbols"
	"github.com/vesper-lang/vesper/internal/typesystem"
)

// Collect walks an expression and returns its (possibly unresolved)
// type, accumulating constraints into the context. Parent constraint
// sets are the union of their children's plus whatever the parent node
// introduces; no constraint is ever dropped.
func Collect(ctx *InferenceContext, node ast.Expression, table *symbols.SymbolTable) (typesystem.Type, error) {
	t, err := collect(ctx, node, table)
	if err != nil {
		return nil, err
	}
	ctx.SetType(node, t)
	return t, nil
}

func collect(ctx *InferenceContext, node ast.Expression, table *symbols.SymbolTable) (typesystem.Type, error) {
	switch n := node.(type) {
	case *ast.IntLiteral:
		return typesystem.Int, nil
	case *ast.LongLiteral:
		return typesystem.Long, nil
	case *ast.FloatLiteral:
		return typesystem.Float, nil
	case *ast.DoubleLiteral:
		return typesystem.Double, nil
	case *ast.BoolLiteral:
		return typesystem.Bool, nil
	case *ast.CharLiteral:
		return typesystem.Char, nil
	case *ast.StringLiteral:
		return typesystem.String, nil
	case *ast.UnitLiteral:
		return typesystem.Unit, nil
	case *ast.NullLiteral:
		return typesystem.TNullable{Elem: ctx.FreshVar()}, nil

	case *ast.Identifier:
		sym, ok := table.Find(n.Name)
		if !ok {
			// The input tree is name-resolved; an unbound identifier is a
			// contract breach by the resolver, not a user error.
			return nil, fmt.Errorf("unbound identifier %q reached the checker at %s", n.Name, n.Token.Pos())
		}
		return ctx.Instantiate(sym.Type), nil

	case *ast.BinaryExpression:
		return collectBinary(ctx, n, table)

	case *ast.CallExpression:
		fnType, err := Collect(ctx, n.Function, table)
		if err != nil {
			return nil, err
		}
		params := make([]typesystem.Type, len(n.Arguments))
		for i, arg := range n.Arguments {
			at, err := Collect(ctx, arg, table)
			if err != nil {
				return nil, err
			}
			params[i] = at
		}
		ret := ctx.FreshVar()
		ctx.addConstraint(Constraint{
			Kind:  ConstraintEqual,
			Left:  fnType,
			Right: typesystem.TFunc{Params: params, Return: ret},
			Node:  n,
		})
		return ret, nil

	case *ast.IfExpression:
		condType, err := Collect(ctx, n.Condition, table)
		if err != nil {
			return nil, err
		}
		ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: condType, Right: typesystem.Bool, Node: n.Condition})

		thenType, err := Collect(ctx, n.Consequence, table)
		if err != nil {
			return nil, err
		}
		if n.Alternative == nil {
			ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: thenType, Right: typesystem.Unit, Node: n.Consequence})
			return typesystem.Unit, nil
		}
		altType, err := Collect(ctx, n.Alternative, table)
		if err != nil {
			return nil, err
		}
		ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: thenType, Right: altType, Node: n})
		return thenType, nil

	case *ast.LetExpression:
		valType, err := Collect(ctx, n.Value, table)
		if err != nil {
			return nil, err
		}
		scope := symbols.NewEnclosedSymbolTable(table)
		scope.Define(n.Name, valType)
		return Collect(ctx, n.Body, scope)

	case *ast.BlockExpression:
		scope := symbols.NewEnclosedSymbolTable(table)
		var last typesystem.Type = typesystem.Unit
		for _, e := range n.Expressions {
			t, err := Collect(ctx, e, scope)
			if err != nil {
				return nil, err
			}
			last = t
		}
		return last, nil

	case *ast.ListLiteral:
		elem := ctx.FreshVar()
		for _, e := range n.Elements {
			et, err := Collect(ctx, e, table)
			if err != nil {
				return nil, err
			}
			ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: et, Right: elem, Node: e})
		}
		return listOf(elem), nil

	case *ast.ConstructExpression:
		return collectConstruct(ctx, n, table)

	case *ast.RecordExpression:
		return collectRecord(ctx, n, table)

	case *ast.FieldAccess:
		targetType, err := Collect(ctx, n.Target, table)
		if err != nil {
			return nil, err
		}
		targetType = targetType.Apply(ctx.GlobalSubst)
		product, ok := targetType.(typesystem.TProduct)
		if !ok {
			return nil, diagnostics.NewError(diagnostics.ErrTypeMismatch, n.Token,
				"field access requires a product type, got %s", targetType)
		}
		field, ok := product.FieldNamed(n.Field)
		if !ok {
			return nil, diagnostics.NewError(diagnostics.ErrInvalidField, n.Token,
				"type %s has no field '%s'", product.Name, n.Field)
		}
		return field.Type, nil

	case *ast.AnnotatedExpression:
		t, err := Collect(ctx, n.Expr, table)
		if err != nil {
			return nil, err
		}
		ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: t, Right: n.Type, Node: n})
		return n.Type, nil

	case *ast.MatchExpression:
		return collectMatch(ctx, n, table)

	default:
		return nil, fmt.Errorf("collector: unhandled expression %T", node)
	}
}

// Operator categories. The elision boundary is fixed here deliberately:
// arithmetic on two already-concrete numeric operands resolves without
// constraints, comparisons always emit theirs. Constraint counts are a
// pure function of static operand types either way.
func isArithOp(op string) bool {
	switch op {
	case "+", "-", "*", "/", "%":
		return true
	}
	return false
}

func isCompareOp(op string) bool {
	switch op {
	case "<", "<=", ">", ">=":
		return true
	}
	return false
}

func isEqualityOp(op string) bool {
	return op == "==" || op == "!="
}

func isLogicOp(op string) bool {
	return op == "&&" || op == "||"
}

func collectBinary(ctx *InferenceContext, n *ast.BinaryExpression, table *symbols.SymbolTable) (typesystem.Type, error) {
	leftType, err := Collect(ctx, n.Left, table)
	if err != nil {
		return nil, err
	}
	rightType, err := Collect(ctx, n.Right, table)
	if err != nil {
		return nil, err
	}

	switch {
	case isArithOp(n.Operator):
		if typesystem.IsResolved(leftType) && !typesystem.IsNumeric(leftType) {
			return nil, diagnostics.NewError(diagnostics.ErrUnresolvedSubtype, n.Left.GetToken(),
				"operator %q needs numeric operands, got %s", n.Operator, leftType)
		}
		if typesystem.IsResolved(rightType) && !typesystem.IsNumeric(rightType) {
			return nil, diagnostics.NewError(diagnostics.ErrUnresolvedSubtype, n.Right.GetToken(),
				"operator %q needs numeric operands, got %s", n.Operator, rightType)
		}
		if typesystem.IsNumeric(leftType) && typesystem.IsNumeric(rightType) {
			wider, _ := typesystem.WidestNumeric(leftType, rightType)
			if leftType.String() == rightType.String() {
				// Both operands already share a concrete numeric kind:
				// resolve immediately, no constraints.
				return leftType, nil
			}
			if !sameType(leftType, wider) {
				ctx.addConstraint(Constraint{Kind: ConstraintSubtype, Left: leftType, Right: wider, Node: n.Left})
			}
			if !sameType(rightType, wider) {
				ctx.addConstraint(Constraint{Kind: ConstraintSubtype, Left: rightType, Right: wider, Node: n.Right})
			}
			return wider, nil
		}
		// At least one operand is unresolved: defer to the solver via a
		// fresh numeric upper bound.
		upper := ctx.FreshVar()
		ctx.addConstraint(Constraint{Kind: ConstraintSubtype, Left: leftType, Right: upper, Node: n.Left})
		ctx.addConstraint(Constraint{Kind: ConstraintSubtype, Left: rightType, Right: upper, Node: n.Right})
		return upper, nil

	case isCompareOp(n.Operator):
		// Comparisons never elide: both operands are constrained against
		// the comparison kind even when concrete.
		if typesystem.IsNumeric(leftType) && typesystem.IsNumeric(rightType) {
			wider, _ := typesystem.WidestNumeric(leftType, rightType)
			ctx.addConstraint(Constraint{Kind: ConstraintSubtype, Left: leftType, Right: wider, Node: n.Left})
			ctx.addConstraint(Constraint{Kind: ConstraintSubtype, Left: rightType, Right: wider, Node: n.Right})
			return typesystem.Bool, nil
		}
		upper := ctx.FreshVar()
		ctx.addConstraint(Constraint{Kind: ConstraintSubtype, Left: leftType, Right: upper, Node: n.Left})
		ctx.addConstraint(Constraint{Kind: ConstraintSubtype, Left: rightType, Right: upper, Node: n.Right})
		return typesystem.Bool, nil

	case isEqualityOp(n.Operator):
		ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: leftType, Right: rightType, Node: n})
		return typesystem.Bool, nil

	case isLogicOp(n.Operator):
		ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: leftType, Right: typesystem.Bool, Node: n.Left})
		ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: rightType, Right: typesystem.Bool, Node: n.Right})
		return typesystem.Bool, nil

	default:
		return nil, fmt.Errorf("collector: unknown operator %q", n.Operator)
	}
}

func collectConstruct(ctx *InferenceContext, n *ast.ConstructExpression, table *symbols.SymbolTable) (typesystem.Type, error) {
	argTypes := make([]typesystem.Type, len(n.Arguments))
	for i, arg := range n.Arguments {
		t, err := Collect(ctx, arg, table)
		if err != nil {
			return nil, err
		}
		argTypes[i] = t
	}

	// Builtin generic constructors.
	switch n.Ctor {
	case config.SomeCtorName:
		if len(argTypes) != 1 {
			return nil, diagnostics.NewError(diagnostics.ErrInvalidField, n.Token, "%s takes exactly one argument", n.Ctor)
		}
		return optionOf(argTypes[0]), nil
	case config.NoneCtorName:
		if len(argTypes) != 0 {
			return nil, diagnostics.NewError(diagnostics.ErrInvalidField, n.Token, "%s takes no arguments", n.Ctor)
		}
		return optionOf(ctx.FreshVar()), nil
	case config.OkCtorName:
		if len(argTypes) != 1 {
			return nil, diagnostics.NewError(diagnostics.ErrInvalidField, n.Token, "%s takes exactly one argument", n.Ctor)
		}
		return resultOf(argTypes[0], ctx.FreshVar()), nil
	case config.ErrCtorName:
		if len(argTypes) != 1 {
			return nil, diagnostics.NewError(diagnostics.ErrInvalidField, n.Token, "%s takes exactly one argument", n.Ctor)
		}
		return resultOf(ctx.FreshVar(), argTypes[0]), nil
	}

	union, ok := table.FindUnionByVariant(n.Ctor)
	if !ok {
		return nil, fmt.Errorf("unbound constructor %q reached the checker at %s", n.Ctor, n.Token.Pos())
	}
	variant, _ := union.VariantNamed(n.Ctor)
	if len(argTypes) != len(variant.Fields) {
		return nil, diagnostics.NewError(diagnostics.ErrInvalidField, n.Token,
			"variant %s.%s has %d fields, got %d arguments", union.Name, variant.Name, len(variant.Fields), len(argTypes))
	}
	for i, at := range argTypes {
		ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: at, Right: variant.Fields[i].Type, Node: n.Arguments[i]})
	}
	return union, nil
}

func collectRecord(ctx *InferenceContext, n *ast.RecordExpression, table *symbols.SymbolTable) (typesystem.Type, error) {
	t, ok := table.FindType(n.TypeName)
	if !ok {
		return nil, fmt.Errorf("unbound type %q reached the checker at %s", n.TypeName, n.Token.Pos())
	}
	product, ok := t.(typesystem.TProduct)
	if !ok {
		return nil, diagnostics.NewError(diagnostics.ErrTypeMismatch, n.Token,
			"%s is not a product type", n.TypeName)
	}
	if len(n.Fields) != len(product.Fields) {
		return nil, diagnostics.NewError(diagnostics.ErrInvalidField, n.Token,
			"type %s has %d fields, got %d initializers", product.Name, len(product.Fields), len(n.Fields))
	}
	for _, init := range n.Fields {
		field, ok := product.FieldNamed(init.Name)
		if !ok {
			return nil, diagnostics.NewError(diagnostics.ErrInvalidField, n.Token,
				"type %s has no field '%s'", product.Name, init.Name)
		}
		vt, err := Collect(ctx, init.Value, table)
		if err != nil {
			return nil, err
		}
		ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: vt, Right: field.Type, Node: init.Value})
	}
	return product, nil
}

func collectMatch(ctx *InferenceContext, n *ast.MatchExpression, table *symbols.SymbolTable) (typesystem.Type, error) {
	scrutineeType, err := Collect(ctx, n.Expression, table)
	if err != nil {
		return nil, err
	}
	ctx.Matches = append(ctx.Matches, CollectedMatch{Expr: n, Scrutinee: scrutineeType})

	result := ctx.FreshVar()
	for _, arm := range n.Arms {
		armTable := symbols.NewEnclosedSymbolTable(table)
		if err := collectPattern(ctx, arm.Pattern, scrutineeType, armTable); err != nil {
			return nil, err
		}

		// Guards always emit their Bool constraint; their boolean-ness is
		// never short-circuited away.
		if arm.Guard != nil {
			guardType, err := Collect(ctx, arm.Guard, armTable)
			if err != nil {
				return nil, err
			}
			ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: guardType, Right: typesystem.Bool, Node: arm.Guard})
		}

		armType, err := Collect(ctx, arm.Expression, armTable)
		if err != nil {
			return nil, err
		}
		ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: result, Right: armType, Node: arm.Expression})
	}
	return result, nil
}

func sameType(a, b typesystem.Type) bool {
	return a.String() == b.String()
}

func listOf(t typesystem.Type) typesystem.Type {
	return typesystem.TApp{Constructor: typesystem.TCon{Name: config.ListTypeName}, Args: []typesystem.Type{t}}
}

func optionOf(t typesystem.Type) typesystem.Type {
	return typesystem.TApp{Constructor: typesystem.TCon{Name: config.OptionTypeName}, Args: []typesystem.Type{t}}
}

func resultOf(ok, errT typesystem.Type) typesystem.Type {
	return typesystem.TApp{Constructor: typesystem.TCon{Name: config.ResultTypeName}, Args: []typesystem.Type{ok, errT}}
}
