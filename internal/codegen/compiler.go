package codegen

import (
	"fmt"

	"github.com/vesper-lang/vesper/internal/analyzer"
	"github.com/vesper-lang/vesper/internal/ast"
	"github.com/vesper-lang/vesper/internal/config"
	"github.com/vesper-lang/vesper/internal/symbols"
	"github.com/vesper-lang/vesper/internal/typesystem"
)

// Compiler lowers one checked declaration. It reads resolved types and
// widening points from the analysis context; by the time lowering runs
// every type is concrete.
type Compiler struct {
	code      *Code
	asm       *Assembler
	slots     *SlotAllocator
	types     map[ast.Node]typesystem.Type
	widenings map[ast.Node]typesystem.Type
	locals    []local
}

type local struct {
	name string
	slot int
	wide bool
}

// Compile lowers a checked declaration into executable form.
func Compile(checked *analyzer.CheckedDeclaration, file string) (*Code, error) {
	code := &Code{Name: checked.Decl.Name, File: file, Tags: symbols.NewInterner()}
	c := &Compiler{
		code:      code,
		asm:       NewAssembler(code),
		slots:     NewSlotAllocator(),
		types:     checked.Ctx.TypeMap,
		widenings: checked.Ctx.Widenings,
	}

	for i, p := range checked.Decl.Params {
		c.defineLocal(p.Name, checked.ParamTypes[i])
	}

	if err := c.compileExpr(checked.Decl.Body); err != nil {
		return nil, err
	}
	c.asm.Emit(OpReturn, checked.Decl.Token.Line)
	c.asm.Resolve()
	code.FrameSlots = c.slots.Max()
	return code, nil
}

func (c *Compiler) typeOf(n ast.Node) typesystem.Type {
	if t, ok := c.types[n]; ok {
		return t
	}
	return typesystem.Unit
}

// compileExpr lowers a node and leaves its value on the stack, applying
// any solver-recorded widening afterwards so every consumer sees the
// promoted representation.
func (c *Compiler) compileExpr(node ast.Expression) error {
	if err := c.compileExprInner(node); err != nil {
		return err
	}
	c.emitWidening(node)
	return nil
}

func (c *Compiler) compileExprInner(node ast.Expression) error {
	line := node.GetToken().Line

	switch n := node.(type) {
	case *ast.IntLiteral:
		c.asm.EmitConstant(n.Value, line)
	case *ast.LongLiteral:
		c.asm.EmitConstant(n.Value, line)
	case *ast.FloatLiteral:
		c.asm.EmitConstant(n.Value, line)
	case *ast.DoubleLiteral:
		c.asm.EmitConstant(n.Value, line)
	case *ast.BoolLiteral:
		c.asm.EmitConstant(n.Value, line)
	case *ast.CharLiteral:
		c.asm.EmitConstant(n.Value, line)
	case *ast.StringLiteral:
		c.asm.EmitConstant(n.Value, line)
	case *ast.UnitLiteral:
		c.asm.Emit(OpUnit, line)
	case *ast.NullLiteral:
		c.asm.Emit(OpNull, line)

	case *ast.Identifier:
		l, ok := c.resolveLocal(n.Name)
		if !ok {
			return fmt.Errorf("codegen: %s is not a local; only direct calls reference globals", n.Name)
		}
		c.loadLocal(l, line)

	case *ast.BinaryExpression:
		if err := c.compileExpr(n.Left); err != nil {
			return err
		}
		if err := c.compileExpr(n.Right); err != nil {
			return err
		}
		op, ok := binaryOpcodes[n.Operator]
		if !ok {
			return fmt.Errorf("codegen: unknown operator %q", n.Operator)
		}
		c.asm.Emit(op, line)

	case *ast.IfExpression:
		if err := c.compileExpr(n.Condition); err != nil {
			return err
		}
		elseL := c.asm.NewLabel()
		endL := c.asm.NewLabel()
		c.asm.Branch(OpBranchFalse, elseL, line)
		if err := c.compileExpr(n.Consequence); err != nil {
			return err
		}
		c.asm.Branch(OpJump, endL, line)
		c.asm.Place(elseL)
		if n.Alternative != nil {
			if err := c.compileExpr(n.Alternative); err != nil {
				return err
			}
		} else {
			c.asm.Emit(OpUnit, line)
		}
		c.asm.Place(endL)

	case *ast.LetExpression:
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		l := c.defineLocal(n.Name, c.typeOf(n.Value))
		c.storeLocal(l, line)
		if err := c.compileExpr(n.Body); err != nil {
			return err
		}
		c.dropLocals(1)

	case *ast.BlockExpression:
		for i, e := range n.Expressions {
			if err := c.compileExpr(e); err != nil {
				return err
			}
			if i < len(n.Expressions)-1 {
				c.asm.Emit(OpPop, e.GetToken().Line)
			}
		}
		if len(n.Expressions) == 0 {
			c.asm.Emit(OpUnit, line)
		}

	case *ast.CallExpression:
		callee, ok := n.Function.(*ast.Identifier)
		if !ok {
			return fmt.Errorf("codegen: computed call targets are not supported")
		}
		for _, arg := range n.Arguments {
			if err := c.compileExpr(arg); err != nil {
				return err
			}
		}
		c.asm.EmitSym(OpCall, callee.Name, len(n.Arguments), line)

	case *ast.ListLiteral:
		for _, e := range n.Elements {
			if err := c.compileExpr(e); err != nil {
				return err
			}
			c.boxIfPrimitive(e, line)
		}
		c.asm.EmitArg(OpMakeList, len(n.Elements), line)

	case *ast.ConstructExpression:
		boxed := isBuiltinCtor(n.Ctor)
		for _, arg := range n.Arguments {
			if err := c.compileExpr(arg); err != nil {
				return err
			}
			if boxed {
				c.boxIfPrimitive(arg, line)
			}
		}
		c.code.Tags.Intern(n.Ctor)
		c.asm.EmitSym(OpMakeVariant, n.Ctor, len(n.Arguments), line)

	case *ast.RecordExpression:
		product, ok := c.typeOf(n).(typesystem.TProduct)
		if !ok {
			return fmt.Errorf("codegen: record %s has no resolved product type", n.TypeName)
		}
		byName := make(map[string]ast.Expression, len(n.Fields))
		for _, f := range n.Fields {
			byName[f.Name] = f.Value
		}
		// Initializers run in declared field order so GetField indices
		// line up regardless of how the source spelled them.
		for _, f := range product.Fields {
			if err := c.compileExpr(byName[f.Name]); err != nil {
				return err
			}
		}
		c.asm.EmitSym(OpMakeRecord, product.Name, len(product.Fields), line)

	case *ast.FieldAccess:
		if err := c.compileExpr(n.Target); err != nil {
			return err
		}
		product, ok := c.typeOf(n.Target).(typesystem.TProduct)
		if !ok {
			return fmt.Errorf("codegen: field access on non-product %s", c.typeOf(n.Target))
		}
		idx := product.FieldIndex(n.Field)
		if idx < 0 {
			return fmt.Errorf("codegen: %s has no field %s", product.Name, n.Field)
		}
		c.asm.EmitArg(OpGetField, idx, line)

	case *ast.AnnotatedExpression:
		return c.compileExpr(n.Expr)

	case *ast.MatchExpression:
		return c.compileMatch(n)

	default:
		return fmt.Errorf("codegen: unhandled expression %T", node)
	}
	return nil
}

var binaryOpcodes = map[string]Opcode{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod,
	"==": OpEq, "!=": OpNe,
	"<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe,
	"&&": OpAnd, "||": OpOr,
}

// emitWidening materializes a solver-recorded promotion for the value
// the node just pushed.
func (c *Compiler) emitWidening(node ast.Node) {
	target, ok := c.widenings[node]
	if !ok {
		return
	}
	from := c.typeOf(node)
	line := node.GetToken().Line
	switch {
	case sameName(from, typesystem.Int) && sameName(target, typesystem.Long):
		c.asm.Emit(OpI2L, line)
	case sameName(from, typesystem.Int) && sameName(target, typesystem.Double):
		c.asm.Emit(OpI2D, line)
	case sameName(from, typesystem.Long) && sameName(target, typesystem.Double):
		c.asm.Emit(OpL2D, line)
	case sameName(from, typesystem.Float) && sameName(target, typesystem.Double):
		c.asm.Emit(OpF2D, line)
	default:
		// Equal kinds need no conversion; anything else was rejected by
		// the solver before lowering ran.
	}
}

func sameName(a, b typesystem.Type) bool {
	return a.String() == b.String()
}

// isPrimitive reports whether values of t live unboxed on the stack.
func isPrimitive(t typesystem.Type) bool {
	con, ok := t.(typesystem.TCon)
	if !ok {
		return false
	}
	switch con.Name {
	case typesystem.Int.Name, typesystem.Long.Name, typesystem.Float.Name,
		typesystem.Double.Name, typesystem.Bool.Name, typesystem.Char.Name:
		return true
	}
	return false
}

// boxIfPrimitive boxes the top of stack when it enters a generic
// container. Widening already ran, so the boxed representation carries
// the promoted kind.
func (c *Compiler) boxIfPrimitive(node ast.Node, line int) {
	t := c.typeOf(node)
	if target, ok := c.widenings[node]; ok {
		t = target
	}
	if isPrimitive(t) {
		c.asm.Emit(OpBox, line)
	}
}

func isBuiltinCtor(name string) bool {
	switch name {
	case config.SomeCtorName, config.NoneCtorName, config.OkCtorName, config.ErrCtorName:
		return true
	}
	return false
}

// Local management, teacher-style linear scan over a small slice.

func (c *Compiler) defineLocal(name string, t typesystem.Type) local {
	wide := typesystem.IsWide(t)
	var slot int
	if wide {
		slot = c.slots.AllocWide()
	} else {
		slot = c.slots.Alloc()
	}
	l := local{name: name, slot: slot, wide: wide}
	c.locals = append(c.locals, l)
	return l
}

func (c *Compiler) resolveLocal(name string) (local, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return c.locals[i], true
		}
	}
	return local{}, false
}

func (c *Compiler) dropLocals(n int) {
	for i := 0; i < n; i++ {
		l := c.locals[len(c.locals)-1]
		if l.wide {
			c.slots.ReleaseWide(l.slot)
		} else {
			c.slots.Release(l.slot)
		}
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *Compiler) loadLocal(l local, line int) {
	if l.wide {
		c.asm.EmitArg(OpLoadWide, l.slot, line)
	} else {
		c.asm.EmitArg(OpLoadSlot, l.slot, line)
	}
}

func (c *Compiler) storeLocal(l local, line int) {
	if l.wide {
		c.asm.EmitArg(OpStoreWide, l.slot, line)
	} else {
		c.asm.EmitArg(OpStoreSlot, l.slot, line)
	}
}
