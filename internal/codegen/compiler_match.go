package codegen

import (
	"fmt"

	"github.com/vesper-lang/vesper/internal/ast"
	"github.com/vesper-lang/vesper/internal/typesystem"
)

// Match lowering is strictly two-phase. Phase one emits every arm's
// test sequence in arm order: each test branches to the next arm's test
// label on mismatch and jumps forward to the arm's still-unplaced body
// label on success, with a trap after the last arm. Phase two places
// the body labels and emits extraction, guards, and bodies, each ending
// in a jump to the shared end label. Keeping tests contiguous means the
// dispatch chain never interleaves with body code, and extraction cost
// is paid only on the taken branch.

// loadFn pushes the value a pattern inspects. Tests compose these to
// reach sub-values transiently; only phase-two extraction stores them.
type loadFn func(line int)

func (c *Compiler) compileMatch(m *ast.MatchExpression) error {
	line := m.Token.Line

	if err := c.compileExpr(m.Expression); err != nil {
		return err
	}
	scrutType := c.typeOf(m.Expression)
	if target, ok := c.widenings[m.Expression]; ok {
		scrutType = target
	}
	scrut := c.defineLocal("<scrutinee>", scrutType)
	c.storeLocal(scrut, line)
	loadScrut := func(line int) { c.loadLocal(scrut, line) }

	endL := c.asm.NewLabel()
	trapL := c.asm.NewLabel()
	tests := make([]Label, len(m.Arms))
	bodies := make([]Label, len(m.Arms))
	for i := range m.Arms {
		tests[i] = c.asm.NewLabel()
		bodies[i] = c.asm.NewLabel()
	}
	nextTest := func(i int) Label {
		if i+1 < len(m.Arms) {
			return tests[i+1]
		}
		return trapL
	}

	// Phase one: dispatch chain.
	for i, arm := range m.Arms {
		c.asm.Place(tests[i])
		armLine := arm.Pattern.GetToken().Line
		if err := c.compileTest(arm.Pattern, loadScrut, nextTest(i), false); err != nil {
			return err
		}
		c.asm.Branch(OpJump, bodies[i], armLine)
	}
	c.asm.Place(trapL)
	c.asm.Emit(OpTrap, line)

	// Phase two: extraction, guards, bodies.
	for i, arm := range m.Arms {
		c.asm.Place(bodies[i])
		armLine := arm.Pattern.GetToken().Line
		mark := len(c.locals)

		if err := c.compileBind(arm.Pattern, loadScrut, false); err != nil {
			return err
		}
		if arm.Guard != nil {
			if err := c.compileExpr(arm.Guard); err != nil {
				return err
			}
			// Guard failure resumes dispatch at the next arm's test,
			// placed during phase one.
			c.asm.Branch(OpBranchFalse, nextTest(i), arm.Guard.GetToken().Line)
		}
		if err := c.compileExpr(arm.Expression); err != nil {
			return err
		}
		c.dropLocals(len(c.locals) - mark)
		c.asm.Branch(OpJump, endL, armLine)
	}
	c.asm.Place(endL)

	c.dropLocals(1) // scrutinee
	return nil
}

// compileTest emits the refutability checks for a pattern, branching to
// fail on the first mismatch. boxed marks values fetched out of generic
// containers, which are unboxed before primitive comparison.
func (c *Compiler) compileTest(p ast.Pattern, load loadFn, fail Label, boxed bool) error {
	line := p.GetToken().Line

	switch pat := p.(type) {
	case *ast.WildcardPattern, *ast.BindingPattern:
		return nil

	case *ast.AliasPattern:
		return c.compileTest(pat.Pattern, load, fail, boxed)

	case *ast.GuardedPattern:
		// The guard itself runs in phase two, after extraction.
		return c.compileTest(pat.Pattern, load, fail, boxed)

	case *ast.LiteralPattern:
		load(line)
		if boxed {
			c.asm.Emit(OpUnbox, line)
		}
		c.asm.EmitConstant(pat.Value, line)
		c.emitWidening(pat)
		c.asm.Emit(OpEq, line)
		c.asm.Branch(OpBranchFalse, fail, line)
		return nil

	case *ast.NullPattern:
		load(line)
		c.asm.Emit(OpIsNull, line)
		c.asm.Branch(OpBranchFalse, fail, line)
		return nil

	case *ast.VariantPattern:
		load(line)
		c.code.Tags.Intern(pat.Name)
		c.asm.EmitSym(OpCheckTag, pat.Name, 0, line)
		c.asm.Branch(OpBranchFalse, fail, line)
		generic := isBuiltinCtor(pat.Name)
		for i, f := range pat.Fields {
			idx, err := c.variantFieldIndex(pat, i)
			if err != nil {
				return err
			}
			fieldLoad := func(line int) {
				load(line)
				c.asm.EmitArg(OpGetField, idx, line)
			}
			if err := c.compileTest(f.Pattern, fieldLoad, fail, generic); err != nil {
				return err
			}
		}
		return nil

	case *ast.ListPattern:
		load(line)
		mode := "=="
		if pat.Tail != nil {
			mode = ">="
		}
		c.asm.EmitSym(OpCheckListLen, mode, len(pat.Elements), line)
		c.asm.Branch(OpBranchFalse, fail, line)
		for i, sub := range pat.Elements {
			i := i
			elemLoad := func(line int) {
				load(line)
				c.asm.EmitArg(OpGetListElem, i, line)
			}
			if err := c.compileTest(sub, elemLoad, fail, true); err != nil {
				return err
			}
		}
		return nil

	case *ast.TypeTestPattern:
		load(line)
		c.asm.EmitSym(OpCheckType, pat.Type.String(), 0, line)
		c.asm.Branch(OpBranchFalse, fail, line)
		if pat.Inner != nil {
			return c.compileTest(pat.Inner, load, fail, boxed)
		}
		return nil

	default:
		return fmt.Errorf("codegen: unhandled pattern %T", p)
	}
}

// compileBind stores the pattern's bindings into fresh slots. This runs
// only on the taken branch; refutable siblings were already verified by
// phase one, so no checks are repeated here.
func (c *Compiler) compileBind(p ast.Pattern, load loadFn, boxed bool) error {
	line := p.GetToken().Line

	switch pat := p.(type) {
	case *ast.WildcardPattern, *ast.LiteralPattern, *ast.NullPattern:
		return nil

	case *ast.BindingPattern:
		c.storeBinding(pat.Name, c.typeOf(pat), load, boxed, line)
		return nil

	case *ast.AliasPattern:
		c.storeBinding(pat.Name, c.typeOf(pat), load, boxed, line)
		return c.compileBind(pat.Pattern, load, boxed)

	case *ast.GuardedPattern:
		return c.compileBind(pat.Pattern, load, boxed)

	case *ast.VariantPattern:
		generic := isBuiltinCtor(pat.Name)
		for i, f := range pat.Fields {
			idx, err := c.variantFieldIndex(pat, i)
			if err != nil {
				return err
			}
			fieldLoad := func(line int) {
				load(line)
				c.asm.EmitArg(OpGetField, idx, line)
			}
			if err := c.compileBind(f.Pattern, fieldLoad, generic); err != nil {
				return err
			}
		}
		return nil

	case *ast.ListPattern:
		for i, sub := range pat.Elements {
			i := i
			elemLoad := func(line int) {
				load(line)
				c.asm.EmitArg(OpGetListElem, i, line)
			}
			if err := c.compileBind(sub, elemLoad, true); err != nil {
				return err
			}
		}
		if pat.Tail != nil {
			n := len(pat.Elements)
			tailLoad := func(line int) {
				load(line)
				c.asm.EmitArg(OpGetListRest, n, line)
			}
			if err := c.compileBind(pat.Tail, tailLoad, false); err != nil {
				return err
			}
		}
		return nil

	case *ast.TypeTestPattern:
		if pat.Binding != "" {
			c.storeBinding(pat.Binding, pat.Type, load, boxed, line)
		}
		if pat.Inner != nil {
			return c.compileBind(pat.Inner, load, boxed)
		}
		return nil

	default:
		return fmt.Errorf("codegen: unhandled pattern %T", p)
	}
}

// storeBinding loads a value, normalizes its representation, and pins
// it to a fresh slot for the arm's body.
func (c *Compiler) storeBinding(name string, t typesystem.Type, load loadFn, boxed bool, line int) {
	load(line)
	if boxed && isPrimitive(t) {
		c.asm.Emit(OpUnbox, line)
	}
	l := c.defineLocal(name, t)
	c.storeLocal(l, line)
}

// variantFieldIndex resolves a field pattern to its extraction index.
// Builtin constructors carry a single payload at index zero; user
// variants resolve positionally or by name against the checked union.
func (c *Compiler) variantFieldIndex(pat *ast.VariantPattern, fieldPos int) (int, error) {
	if isBuiltinCtor(pat.Name) {
		return 0, nil
	}
	f := pat.Fields[fieldPos]
	if f.Name == "" {
		return fieldPos, nil
	}
	union, ok := c.typeOf(pat).(typesystem.TUnion)
	if !ok {
		return 0, fmt.Errorf("codegen: variant pattern %s has no resolved union type", pat.Name)
	}
	variant, ok := union.VariantNamed(pat.Name)
	if !ok {
		return 0, fmt.Errorf("codegen: union %s has no variant %s", union.Name, pat.Name)
	}
	idx := variant.FieldIndex(f.Name)
	if idx < 0 {
		return 0, fmt.Errorf("codegen: variant %s has no field %s", pat.Name, f.Name)
	}
	return idx, nil
}
