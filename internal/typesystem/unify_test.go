package typesystem

import (
	"errors"
	"strings"
	"testing"
)

func optionOf(t Type) Type {
	return TApp{Constructor: TCon{Name: "Option"}, Args: []Type{t}}
}

func TestUnifyIdentical(t *testing.T) {
	for _, typ := range []Type{Int, Bool, String, TNullable{Elem: Int}, optionOf(Int)} {
		s, err := Unify(typ, typ)
		if err != nil {
			t.Errorf("Unify(%s, %s): %v", typ, typ, err)
		}
		if len(s) != 0 {
			t.Errorf("Unify(%s, %s): expected empty substitution, got %v", typ, typ, s)
		}
	}
}

func TestUnifyBindsVariable(t *testing.T) {
	tv := TVar{Name: "t1"}
	s, err := Unify(tv, Int)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tv.Apply(s); got.String() != "Int" {
		t.Errorf("expected t1 -> Int, got %s", got)
	}

	// Variable on the right binds too.
	s, err = Unify(Bool, TVar{Name: "t2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := (TVar{Name: "t2"}).Apply(s); got.String() != "Bool" {
		t.Errorf("expected t2 -> Bool, got %s", got)
	}
}

func TestUnifyConMismatch(t *testing.T) {
	if _, err := Unify(Int, Bool); err == nil {
		t.Fatal("expected mismatch unifying Int with Bool")
	}
}

func TestUnifyOccursCheck(t *testing.T) {
	tv := TVar{Name: "t1"}
	_, err := Unify(tv, TApp{Constructor: TCon{Name: "List"}, Args: []Type{tv}})
	if err == nil {
		t.Fatal("expected occurs check failure for t1 = List<t1>")
	}
	var occ *OccursError
	if !errors.As(err, &occ) {
		t.Fatalf("expected *OccursError, got %T: %v", err, err)
	}
	if occ.Var.Name != "t1" {
		t.Errorf("expected offending variable t1, got %s", occ.Var.Name)
	}
}

func TestUnifyFunc(t *testing.T) {
	f1 := TFunc{Params: []Type{TVar{Name: "a"}, Int}, Return: TVar{Name: "b"}}
	f2 := TFunc{Params: []Type{Bool, Int}, Return: String}
	s, err := Unify(f1, f2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f1.Apply(s).String(); got != "(Bool, Int) -> String" {
		t.Errorf("expected (Bool, Int) -> String, got %s", got)
	}

	arity := TFunc{Params: []Type{Int}, Return: Int}
	if _, err := Unify(f2, arity); err == nil {
		t.Error("expected arity mismatch")
	}
}

func TestUnifyGenericApplication(t *testing.T) {
	s, err := Unify(optionOf(TVar{Name: "t1"}), optionOf(Int))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := (TVar{Name: "t1"}).Apply(s).String(); got != "Int" {
		t.Errorf("expected t1 -> Int, got %s", got)
	}

	result := TApp{Constructor: TCon{Name: "Result"}, Args: []Type{Int, String}}
	if _, err := Unify(optionOf(Int), result); err == nil {
		t.Error("expected constructor mismatch between Option and Result")
	}
}

func TestUnifyUnionNominal(t *testing.T) {
	shape := func(radius Type) TUnion {
		return TUnion{Name: "Shape", Variants: []Variant{
			{Name: "Circle", Fields: []Field{{Name: "radius", Type: radius}}},
			{Name: "Point"},
		}}
	}
	s, err := Unify(shape(TVar{Name: "t1"}), shape(Double))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := (TVar{Name: "t1"}).Apply(s).String(); got != "Double" {
		t.Errorf("expected t1 -> Double, got %s", got)
	}

	other := TUnion{Name: "Color", Variants: []Variant{{Name: "Red"}, {Name: "Blue"}}}
	if _, err := Unify(shape(Double), other); err == nil {
		t.Error("expected nominal mismatch between Shape and Color")
	}
}

func TestUnifyProduct(t *testing.T) {
	point := func(x Type) TProduct {
		return TProduct{Name: "Vec2", Fields: []Field{
			{Name: "x", Type: x},
			{Name: "y", Type: Double},
		}}
	}
	s, err := Unify(point(TVar{Name: "t3"}), point(Double))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := (TVar{Name: "t3"}).Apply(s).String(); got != "Double" {
		t.Errorf("expected t3 -> Double, got %s", got)
	}
}

func TestUnifyNullable(t *testing.T) {
	s, err := Unify(TNullable{Elem: TVar{Name: "t1"}}, TNullable{Elem: String})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := (TVar{Name: "t1"}).Apply(s).String(); got != "String" {
		t.Errorf("expected t1 -> String, got %s", got)
	}
	if _, err := Unify(TNullable{Elem: Int}, Int); err == nil {
		t.Error("expected mismatch between Int? and Int")
	}
}

func TestUnifyPolytypeRejected(t *testing.T) {
	forall := TForall{Vars: []TVar{{Name: "T"}}, Body: TFunc{Params: []Type{TVar{Name: "T"}}, Return: TVar{Name: "T"}}}
	_, err := Unify(forall, Int)
	if err == nil || !strings.Contains(err.Error(), "polytype") {
		t.Errorf("expected polytype error, got %v", err)
	}
}
