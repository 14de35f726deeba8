package codegen

import (
	"testing"

	"github.com/vesper-lang/vesper/internal/ast"
	"github.com/vesper-lang/vesper/internal/symbols"
	"github.com/vesper-lang/vesper/internal/typesystem"
)

func shapeGlobals() *symbols.SymbolTable {
	globals := symbols.NewSymbolTable()
	globals.DefineType("Shape", shapeUnion())
	return globals
}

// area(s: Shape): Double, the running match example.
func areaDecl() *ast.FunctionDeclaration {
	return &ast.FunctionDeclaration{
		Token:      tok(),
		Name:       "area",
		Params:     []ast.Param{{Name: "s", Type: shapeUnion()}},
		ReturnType: typesystem.Double,
		Body: &ast.MatchExpression{
			Token:      tok(),
			Expression: ident("s"),
			Arms: []*ast.MatchArm{
				{Pattern: variantPat("Circle", bindingPat("r")), Expression: ident("r")},
				{Pattern: variantPat("Square", bindingPat("side")), Expression: binary("*", ident("side"), ident("side"))},
				{Pattern: variantPat("Point"), Expression: doubleLit(0)},
			},
		},
	}
}

func trapIndex(t *testing.T, code *Code) int {
	t.Helper()
	idx := -1
	for i, ins := range code.Instructions {
		if ins.Op == OpTrap {
			if idx >= 0 {
				t.Fatalf("multiple TRAP instructions\n%s", Disassemble(code))
			}
			idx = i
		}
	}
	if idx < 0 {
		t.Fatalf("no TRAP emitted\n%s", Disassemble(code))
	}
	return idx
}

func TestMatchTestsPrecedeTrapAndBodies(t *testing.T) {
	code := compileFn(t, areaDecl(), shapeGlobals())
	trap := trapIndex(t, code)

	for i, ins := range code.Instructions {
		switch ins.Op {
		case OpCheckTag:
			if i > trap {
				t.Errorf("dispatch test at %d after TRAP at %d", i, trap)
			}
		case OpGetField, OpStoreWide:
			if i < trap {
				t.Errorf("extraction at %d before TRAP at %d; extraction belongs to bodies", i, trap)
			}
		}
	}
}

func TestMatchBranchTargetsAllResolve(t *testing.T) {
	code := compileFn(t, areaDecl(), shapeGlobals())
	for i, ins := range code.Instructions {
		if ins.Op == OpJump || ins.Op == OpBranchFalse {
			if ins.Arg < 0 || ins.Arg > code.Len() {
				t.Errorf("instruction %d: branch target %d outside [0,%d]", i, ins.Arg, code.Len())
			}
		}
	}
}

func TestMatchDispatchFallsThroughInArmOrder(t *testing.T) {
	code := compileFn(t, areaDecl(), shapeGlobals())
	trap := trapIndex(t, code)

	// Every mismatch branch inside the dispatch chain lands further down
	// the chain, never in a body.
	for i, ins := range code.Instructions[:trap] {
		if ins.Op == OpBranchFalse {
			if ins.Arg <= i || ins.Arg > trap {
				t.Errorf("mismatch branch at %d -> %d escapes the dispatch chain (trap at %d)", i, ins.Arg, trap)
			}
		}
		if ins.Op == OpJump && ins.Arg <= trap {
			t.Errorf("arm-taken jump at %d -> %d does not reach a body", i, ins.Arg)
		}
	}
}

func TestMatchBodiesConvergeOnSingleEnd(t *testing.T) {
	code := compileFn(t, areaDecl(), shapeGlobals())
	trap := trapIndex(t, code)

	end := -1
	for i := trap + 1; i < code.Len(); i++ {
		ins := code.Instructions[i]
		if ins.Op == OpJump {
			if end < 0 {
				end = ins.Arg
			} else if ins.Arg != end {
				t.Errorf("body jump at %d -> %d, want shared end %d", i, ins.Arg, end)
			}
		}
	}
	if end < 0 {
		t.Fatal("no body jumps found")
	}
	if code.Instructions[end].Op != OpReturn {
		t.Errorf("end label resolves to %s, want RETURN", code.Instructions[end].Op.Name())
	}
}

func TestMatchSiblingArmsReuseReleasedSlots(t *testing.T) {
	code := compileFn(t, areaDecl(), shapeGlobals())

	var wideStores []int
	for _, ins := range code.Instructions {
		if ins.Op == OpStoreWide {
			wideStores = append(wideStores, ins.Arg)
		}
	}
	if len(wideStores) != 2 {
		t.Fatalf("wide stores = %v, want one per binding arm", wideStores)
	}
	if wideStores[0] != wideStores[1] {
		t.Errorf("sibling arm pairs at %d and %d, want the released pair reused", wideStores[0], wideStores[1])
	}
}

func TestMatchGuardBranchesBackToNextTest(t *testing.T) {
	// positive(n: Int): Int = match n { x if x > 0 => 1; _ => 0 }
	decl := &ast.FunctionDeclaration{
		Token:      tok(),
		Name:       "positive",
		Params:     []ast.Param{{Name: "n", Type: typesystem.Int}},
		ReturnType: typesystem.Int,
		Body: &ast.MatchExpression{
			Token:      tok(),
			Expression: ident("n"),
			Arms: []*ast.MatchArm{
				{
					Pattern:    bindingPat("x"),
					Guard:      binary(">", ident("x"), intLit(0)),
					Expression: intLit(1),
				},
				{Pattern: &ast.WildcardPattern{Token: tok()}, Expression: intLit(0)},
			},
		},
	}
	code := compileFn(t, decl, nil)
	trap := trapIndex(t, code)

	backward := 0
	for i := trap + 1; i < code.Len(); i++ {
		ins := code.Instructions[i]
		if ins.Op == OpBranchFalse {
			if ins.Arg >= i {
				t.Errorf("guard failure at %d -> %d, want a backward branch into the dispatch chain", i, ins.Arg)
			}
			if ins.Arg > trap {
				t.Errorf("guard failure at %d -> %d lands past the dispatch chain", i, ins.Arg)
			}
			backward++
		}
	}
	if backward != 1 {
		t.Fatalf("guard branches = %d, want 1\n%s", backward, Disassemble(code))
	}
}

func TestMatchLiteralAgainstWideScrutineeWidensInTest(t *testing.T) {
	// isOne(d: Double): Bool = match d { 1 => true; _ => false }
	decl := &ast.FunctionDeclaration{
		Token:      tok(),
		Name:       "isOne",
		Params:     []ast.Param{{Name: "d", Type: typesystem.Double}},
		ReturnType: typesystem.Bool,
		Body: &ast.MatchExpression{
			Token:      tok(),
			Expression: ident("d"),
			Arms: []*ast.MatchArm{
				{
					Pattern:    &ast.LiteralPattern{Token: tok(), Value: 1},
					Expression: &ast.BoolLiteral{Token: tok(), Value: true},
				},
				{
					Pattern:    &ast.WildcardPattern{Token: tok()},
					Expression: &ast.BoolLiteral{Token: tok(), Value: false},
				},
			},
		},
	}
	code := compileFn(t, decl, nil)
	trap := trapIndex(t, code)

	sawWiden := false
	for i, ins := range code.Instructions[:trap] {
		if ins.Op == OpI2D {
			sawWiden = true
			if code.Instructions[i+1].Op != OpEq {
				t.Errorf("widened literal at %d not followed by EQ", i)
			}
		}
	}
	if !sawWiden {
		t.Fatalf("no I2D in the dispatch chain\n%s", Disassemble(code))
	}
}

func TestMatchListDeconstruction(t *testing.T) {
	// head(xs: List<Int>): Int = match xs { [x, ...rest] => x; _ => 0 }
	listInt := typesystem.TApp{Constructor: typesystem.TCon{Name: "List"}, Args: []typesystem.Type{typesystem.Int}}
	decl := &ast.FunctionDeclaration{
		Token:      tok(),
		Name:       "head",
		Params:     []ast.Param{{Name: "xs", Type: listInt}},
		ReturnType: typesystem.Int,
		Body: &ast.MatchExpression{
			Token:      tok(),
			Expression: ident("xs"),
			Arms: []*ast.MatchArm{
				{
					Pattern: &ast.ListPattern{
						Token:    tok(),
						Elements: []ast.Pattern{bindingPat("x")},
						Tail:     bindingPat("rest"),
					},
					Expression: ident("x"),
				},
				{Pattern: &ast.WildcardPattern{Token: tok()}, Expression: intLit(0)},
			},
		},
	}
	code := compileFn(t, decl, nil)
	trap := trapIndex(t, code)

	var lenCheck *Instruction
	for i := range code.Instructions[:trap] {
		if code.Instructions[i].Op == OpCheckListLen {
			lenCheck = &code.Instructions[i]
		}
	}
	if lenCheck == nil {
		t.Fatalf("no length check in dispatch chain\n%s", Disassemble(code))
	}
	if lenCheck.Sym != ">=" || lenCheck.Arg != 1 {
		t.Errorf("length check = len %s %d, want len >= 1", lenCheck.Sym, lenCheck.Arg)
	}

	sawElem, sawRest, sawUnbox := false, false, false
	for _, ins := range code.Instructions[trap:] {
		switch ins.Op {
		case OpGetListElem:
			sawElem = true
		case OpGetListRest:
			sawRest = true
		case OpUnbox:
			sawUnbox = true
		}
	}
	if !sawElem || !sawRest || !sawUnbox {
		t.Errorf("extraction elem/rest/unbox = %v/%v/%v, want all\n%s", sawElem, sawRest, sawUnbox, Disassemble(code))
	}
}

func TestMatchOptionUnboxesPayload(t *testing.T) {
	optionInt := typesystem.TApp{Constructor: typesystem.TCon{Name: "Option"}, Args: []typesystem.Type{typesystem.Int}}
	decl := &ast.FunctionDeclaration{
		Token:      tok(),
		Name:       "unwrapOr0",
		Params:     []ast.Param{{Name: "o", Type: optionInt}},
		ReturnType: typesystem.Int,
		Body: &ast.MatchExpression{
			Token:      tok(),
			Expression: ident("o"),
			Arms: []*ast.MatchArm{
				{Pattern: variantPat("Some", bindingPat("x")), Expression: ident("x")},
				{Pattern: variantPat("None"), Expression: intLit(0)},
			},
		},
	}
	code := compileFn(t, decl, nil)
	trap := trapIndex(t, code)

	sawUnbox := false
	for i := trap + 1; i < code.Len()-1; i++ {
		if code.Instructions[i].Op == OpUnbox && code.Instructions[i-1].Op == OpGetField {
			sawUnbox = true
		}
	}
	if !sawUnbox {
		t.Fatalf("Some payload not unboxed after extraction\n%s", Disassemble(code))
	}
}

// Follows the branch graph from entry, taking both edges of every
// conditional, and fails on any edge that leaves the instruction range.
func TestMatchBranchGraphReachesReturnOnEveryPath(t *testing.T) {
	for _, decl := range []*ast.FunctionDeclaration{areaDecl()} {
		code := compileFn(t, decl, shapeGlobals())

		type state struct{ pc int }
		seen := make(map[int]bool)
		stack := []state{{0}}
		reachedReturn := false
		for len(stack) > 0 {
			s := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if s.pc < 0 || s.pc >= code.Len() {
				t.Fatalf("walk escaped code at %d", s.pc)
			}
			if seen[s.pc] {
				continue
			}
			seen[s.pc] = true
			ins := code.Instructions[s.pc]
			switch ins.Op {
			case OpReturn:
				reachedReturn = true
			case OpTrap:
				// dead end
			case OpJump:
				stack = append(stack, state{ins.Arg})
			case OpBranchFalse:
				stack = append(stack, state{ins.Arg}, state{s.pc + 1})
			default:
				stack = append(stack, state{s.pc + 1})
			}
		}
		if !reachedReturn {
			t.Fatalf("no path reaches RETURN\n%s", Disassemble(code))
		}
	}
}

func TestMatchInternsTagsInDispatchOrder(t *testing.T) {
	code := compileFn(t, areaDecl(), shapeGlobals())

	if got := code.Tags.Len(); got != 3 {
		t.Fatalf("tag table has %d entries, want 3", got)
	}
	for i, name := range []string{"Circle", "Square", "Point"} {
		id, ok := code.Tags.Lookup(name)
		if !ok {
			t.Fatalf("tag %s not interned", name)
		}
		if id != i {
			t.Errorf("tag %s has id %d, want %d", name, id, i)
		}
	}
}

func TestMatchNamedFieldPatternUsesDeclaredIndex(t *testing.T) {
	box := typesystem.TUnion{
		Name: "Box",
		Variants: []typesystem.Variant{
			{Name: "Rect", Fields: []typesystem.Field{
				{Name: "w", Type: typesystem.Double},
				{Name: "h", Type: typesystem.Double},
			}},
			{Name: "Empty"},
		},
	}
	globals := symbols.NewSymbolTable()
	globals.DefineType("Box", box)

	decl := &ast.FunctionDeclaration{
		Token:      tok(),
		Name:       "height",
		Params:     []ast.Param{{Name: "b", Type: box}},
		ReturnType: typesystem.Double,
		Body: &ast.MatchExpression{
			Token:      tok(),
			Expression: ident("b"),
			Arms: []*ast.MatchArm{
				{
					Pattern: &ast.VariantPattern{
						Token:  tok(),
						Name:   "Rect",
						Fields: []ast.FieldPattern{{Name: "h", Pattern: bindingPat("x")}},
						Rest:   true,
					},
					Expression: ident("x"),
				},
				{Pattern: &ast.WildcardPattern{Token: tok()}, Expression: doubleLit(0)},
			},
		},
	}
	code := compileFn(t, decl, globals)

	var sawTag, sawField bool
	for _, ins := range code.Instructions {
		if ins.Op == OpCheckTag && ins.Sym == "Rect" {
			sawTag = true
		}
		if ins.Op == OpGetField {
			sawField = true
			if ins.Arg != 1 {
				t.Errorf("GET_FIELD arg = %d, want 1 (declared position of h)\n%s", ins.Arg, Disassemble(code))
			}
		}
	}
	if !sawTag || !sawField {
		t.Fatalf("missing CHECK_TAG Rect or GET_FIELD\n%s", Disassemble(code))
	}
}
