package codegen

import (
	"testing"

	"github.com/vesper-lang/vesper/internal/analyzer"
	"github.com/vesper-lang/vesper/internal/ast"
	"github.com/vesper-lang/vesper/internal/config"
	"github.com/vesper-lang/vesper/internal/symbols"
	"github.com/vesper-lang/vesper/internal/token"
	"github.com/vesper-lang/vesper/internal/typesystem"
)

// All helper trees carry the same position; listings stay column-stable
// and the line marker collapses to a continuation bar.
func tok() token.Token { return token.At(1, 1) }

func intLit(v int64) ast.Expression    { return &ast.IntLiteral{Token: tok(), Value: v} }
func doubleLit(v float64) ast.Expression {
	return &ast.DoubleLiteral{Token: tok(), Value: v}
}
func ident(name string) ast.Expression { return &ast.Identifier{Token: tok(), Name: name} }

func binary(op string, l, r ast.Expression) ast.Expression {
	return &ast.BinaryExpression{Token: tok(), Operator: op, Left: l, Right: r}
}

func bindingPat(name string) ast.Pattern { return &ast.BindingPattern{Token: tok(), Name: name} }

func variantPat(name string, subs ...ast.Pattern) ast.Pattern {
	fields := make([]ast.FieldPattern, len(subs))
	for i, s := range subs {
		fields[i] = ast.FieldPattern{Pattern: s}
	}
	return &ast.VariantPattern{Token: tok(), Name: name, Fields: fields}
}

func shapeUnion() typesystem.TUnion {
	return typesystem.TUnion{
		Name: "Shape",
		Variants: []typesystem.Variant{
			{Name: "Circle", Fields: []typesystem.Field{{Name: "radius", Type: typesystem.Double}}},
			{Name: "Square", Fields: []typesystem.Field{{Name: "side", Type: typesystem.Double}}},
			{Name: "Point"},
		},
	}
}

// compileFn checks the declaration and lowers it, failing the test on
// any diagnostic.
func compileFn(t *testing.T, decl *ast.FunctionDeclaration, globals *symbols.SymbolTable) *Code {
	t.Helper()
	if globals == nil {
		globals = symbols.NewSymbolTable()
	}
	opts := config.DefaultOptions()
	opts.Workers = 1
	result, err := analyzer.New(opts).CheckProgram(
		&ast.Program{File: "test.vs", Declarations: []*ast.FunctionDeclaration{decl}}, globals)
	if err != nil {
		t.Fatalf("CheckProgram failed: %v", err)
	}
	if len(result.Diagnostics) != 0 {
		t.Fatalf("diagnostics: %v", result.Diagnostics)
	}
	code, err := Compile(result.Checked[0], "test.vs")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return code
}

func opcodes(code *Code) []Opcode {
	ops := make([]Opcode, len(code.Instructions))
	for i, ins := range code.Instructions {
		ops[i] = ins.Op
	}
	return ops
}

func requireOps(t *testing.T, code *Code, want ...Opcode) {
	t.Helper()
	got := opcodes(code)
	if len(got) != len(want) {
		t.Fatalf("ops = %v, want %v\n%s", got, want, Disassemble(code))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("op %d = %s, want %s\n%s", i, got[i].Name(), want[i].Name(), Disassemble(code))
		}
	}
}

func TestCompileIntArithmetic(t *testing.T) {
	decl := &ast.FunctionDeclaration{
		Token:      tok(),
		Name:       "inc",
		Params:     []ast.Param{{Name: "n", Type: typesystem.Int}},
		ReturnType: typesystem.Int,
		Body:       binary("+", ident("n"), intLit(1)),
	}
	code := compileFn(t, decl, nil)
	requireOps(t, code, OpLoadSlot, OpConst, OpAdd, OpReturn)
	if code.FrameSlots != 1 {
		t.Errorf("frame = %d slots, want 1", code.FrameSlots)
	}
}

func TestCompileWideningMaterializedAtNarrowOperand(t *testing.T) {
	// mix(n: Int, d: Double): Double = n + d
	decl := &ast.FunctionDeclaration{
		Token: tok(),
		Name:  "mix",
		Params: []ast.Param{
			{Name: "n", Type: typesystem.Int},
			{Name: "d", Type: typesystem.Double},
		},
		ReturnType: typesystem.Double,
		Body:       binary("+", ident("n"), ident("d")),
	}
	code := compileFn(t, decl, nil)
	requireOps(t, code, OpLoadSlot, OpI2D, OpLoadWide, OpAdd, OpReturn)
	if code.Instructions[2].Arg != 1 {
		t.Errorf("wide param slot = %d, want 1", code.Instructions[2].Arg)
	}
	if code.FrameSlots != 3 {
		t.Errorf("frame = %d slots, want 3 (one narrow + one pair)", code.FrameSlots)
	}
}

func TestCompileLongFloatPromotesBothSides(t *testing.T) {
	decl := &ast.FunctionDeclaration{
		Token: tok(),
		Name:  "join",
		Params: []ast.Param{
			{Name: "l", Type: typesystem.Long},
			{Name: "f", Type: typesystem.Float},
		},
		ReturnType: typesystem.Double,
		Body:       binary("+", ident("l"), ident("f")),
	}
	code := compileFn(t, decl, nil)
	requireOps(t, code, OpLoadWide, OpL2D, OpLoadSlot, OpF2D, OpAdd, OpReturn)
}

func TestCompileIfElseBranches(t *testing.T) {
	decl := &ast.FunctionDeclaration{
		Token:      tok(),
		Name:       "pick",
		Params:     []ast.Param{{Name: "b", Type: typesystem.Bool}},
		ReturnType: typesystem.Int,
		Body: &ast.IfExpression{
			Token:       tok(),
			Condition:   ident("b"),
			Consequence: intLit(1),
			Alternative: intLit(2),
		},
	}
	code := compileFn(t, decl, nil)
	requireOps(t, code, OpLoadSlot, OpBranchFalse, OpConst, OpJump, OpConst, OpReturn)
	if got := code.Instructions[1].Arg; got != 4 {
		t.Errorf("false branch -> %d, want 4 (else arm)", got)
	}
	if got := code.Instructions[3].Arg; got != 5 {
		t.Errorf("then jump -> %d, want 5 (join point)", got)
	}
}

func TestCompileLetStoresAndReleases(t *testing.T) {
	// half(d: Double): Double = let x = d in x
	// then reuse: the let body's pair frees when the let ends.
	decl := &ast.FunctionDeclaration{
		Token:      tok(),
		Name:       "half",
		Params:     []ast.Param{{Name: "d", Type: typesystem.Double}},
		ReturnType: typesystem.Double,
		Body: &ast.LetExpression{
			Token: tok(),
			Name:  "x",
			Value: ident("d"),
			Body:  ident("x"),
		},
	}
	code := compileFn(t, decl, nil)
	requireOps(t, code, OpLoadWide, OpStoreWide, OpLoadWide, OpReturn)
	if got := code.Instructions[1].Arg; got != 2 {
		t.Errorf("let binding stored at %d, want the pair at 2", got)
	}
}

func TestCompileListBoxesPrimitiveElements(t *testing.T) {
	decl := &ast.FunctionDeclaration{
		Token:      tok(),
		Name:       "pair",
		ReturnType: typesystem.TApp{Constructor: typesystem.TCon{Name: "List"}, Args: []typesystem.Type{typesystem.Int}},
		Body:       &ast.ListLiteral{Token: tok(), Elements: []ast.Expression{intLit(1), intLit(2)}},
	}
	code := compileFn(t, decl, nil)
	requireOps(t, code, OpConst, OpBox, OpConst, OpBox, OpMakeList, OpReturn)
	if code.Instructions[4].Arg != 2 {
		t.Errorf("MAKE_LIST arg = %d, want 2", code.Instructions[4].Arg)
	}
}

func TestCompileCallEmitsCalleeAndArity(t *testing.T) {
	globals := symbols.NewSymbolTable()
	globals.Define("wrap", typesystem.TFunc{
		Params: []typesystem.Type{typesystem.Int},
		Return: typesystem.Int,
	})
	decl := &ast.FunctionDeclaration{
		Token:      tok(),
		Name:       "use",
		Params:     []ast.Param{{Name: "n", Type: typesystem.Int}},
		ReturnType: typesystem.Int,
		Body: &ast.CallExpression{
			Token:     tok(),
			Function:  ident("wrap"),
			Arguments: []ast.Expression{ident("n")},
		},
	}
	code := compileFn(t, decl, globals)
	requireOps(t, code, OpLoadSlot, OpCall, OpReturn)
	call := code.Instructions[1]
	if call.Sym != "wrap" || call.Arg != 1 {
		t.Errorf("call = %s/%d, want wrap/1", call.Sym, call.Arg)
	}
}

func TestCompileConstructBoxesBuiltinPayload(t *testing.T) {
	decl := &ast.FunctionDeclaration{
		Token:      tok(),
		Name:       "some",
		Params:     []ast.Param{{Name: "n", Type: typesystem.Int}},
		ReturnType: typesystem.TApp{Constructor: typesystem.TCon{Name: "Option"}, Args: []typesystem.Type{typesystem.Int}},
		Body: &ast.ConstructExpression{
			Token:     tok(),
			Ctor:      "Some",
			Arguments: []ast.Expression{ident("n")},
		},
	}
	code := compileFn(t, decl, nil)
	requireOps(t, code, OpLoadSlot, OpBox, OpMakeVariant, OpReturn)
}

func TestCompileFieldAccess(t *testing.T) {
	pt := typesystem.TProduct{Name: "Pt", Fields: []typesystem.Field{
		{Name: "x", Type: typesystem.Int},
		{Name: "y", Type: typesystem.Int},
	}}
	decl := &ast.FunctionDeclaration{
		Token:      tok(),
		Name:       "getY",
		Params:     []ast.Param{{Name: "p", Type: pt}},
		ReturnType: typesystem.Int,
		Body:       &ast.FieldAccess{Token: tok(), Target: ident("p"), Field: "y"},
	}
	code := compileFn(t, decl, nil)

	requireOps(t, code, OpLoadSlot, OpGetField, OpReturn)
	if code.Instructions[1].Arg != 1 {
		t.Errorf("GET_FIELD arg = %d, want 1 (declared position of y)", code.Instructions[1].Arg)
	}
}
