package typesystem

import (
	"fmt"
	"reflect"
)

// Unify attempts to find the most general substitution making t1 and t2
// structurally equal. It enforces strict equality (invariant); numeric
// promotion is handled separately by the solver's subtype constraints.
func Unify(t1, t2 Type) (Subst, error) {
	if reflect.DeepEqual(t1, t2) {
		return Subst{}, nil
	}

	switch t1 := t1.(type) {
	case TVar:
		return Bind(t1, t2)

	case TCon:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TCon:
			if t1.Name == t2.Name {
				return Subst{}, nil
			}
			return nil, errUnifyMsg(t1, t2, "type constant mismatch")
		default:
			return nil, errUnify(t1, t2)
		}

	case TNullable:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TNullable:
			return Unify(t1.Elem, t2.Elem)
		default:
			return nil, errUnifyMsg(t1, t2, "cannot unify nullable type")
		}

	case TUnion:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TUnion:
			// Nominal: same union name, pairwise-unifiable variant fields.
			if t1.Name != t2.Name {
				return nil, errUnifyMsg(t1, t2, "union type mismatch")
			}
			if len(t1.Variants) != len(t2.Variants) {
				return nil, errMismatch(fmt.Sprintf("union %s variant count mismatch: %d vs %d", t1.Name, len(t1.Variants), len(t2.Variants)))
			}
			s := Subst{}
			for i := range t1.Variants {
				v1, v2 := t1.Variants[i], t2.Variants[i]
				if v1.Name != v2.Name || len(v1.Fields) != len(v2.Fields) {
					return nil, errMismatch(fmt.Sprintf("union %s variant shape mismatch at %s", t1.Name, v1.Name))
				}
				for j := range v1.Fields {
					s2, err := Unify(v1.Fields[j].Type.Apply(s), v2.Fields[j].Type.Apply(s))
					if err != nil {
						return nil, errUnifyContext(fmt.Sprintf("variant %s.%s field '%s'", t1.Name, v1.Name, v1.Fields[j].Name), err)
					}
					s = s.Compose(s2)
				}
			}
			return s, nil
		default:
			return nil, errUnifyMsg(t1, t2, "cannot unify union")
		}

	case TProduct:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TProduct:
			if t1.Name != t2.Name {
				return nil, errUnifyMsg(t1, t2, "product type mismatch")
			}
			if len(t1.Fields) != len(t2.Fields) {
				return nil, errMismatch(fmt.Sprintf("product %s field count mismatch: %d vs %d", t1.Name, len(t1.Fields), len(t2.Fields)))
			}
			s := Subst{}
			for i := range t1.Fields {
				f1, f2 := t1.Fields[i], t2.Fields[i]
				if f1.Name != f2.Name {
					return nil, errMismatch(fmt.Sprintf("product %s field name mismatch: %s vs %s", t1.Name, f1.Name, f2.Name))
				}
				s2, err := Unify(f1.Type.Apply(s), f2.Type.Apply(s))
				if err != nil {
					return nil, errUnifyContext(fmt.Sprintf("product field '%s'", f1.Name), err)
				}
				s = s.Compose(s2)
			}
			return s, nil
		default:
			return nil, errUnifyMsg(t1, t2, "cannot unify product")
		}

	case TFunc:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TFunc:
			if len(t1.Params) != len(t2.Params) {
				return nil, errMismatch(fmt.Sprintf("function parameter count mismatch: %d vs %d", len(t1.Params), len(t2.Params)))
			}
			s := Subst{}
			for i := range t1.Params {
				s2, err := Unify(t1.Params[i].Apply(s), t2.Params[i].Apply(s))
				if err != nil {
					return nil, err
				}
				s = s.Compose(s2)
			}
			s3, err := Unify(t1.Return.Apply(s), t2.Return.Apply(s))
			if err != nil {
				return nil, err
			}
			return s.Compose(s3), nil
		default:
			return nil, errUnifyMsg(t1, t2, "cannot unify function type")
		}

	case TApp:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TApp:
			s, err := Unify(t1.Constructor, t2.Constructor)
			if err != nil {
				return nil, err
			}
			if len(t1.Args) != len(t2.Args) {
				return nil, errMismatch(fmt.Sprintf("type arguments length mismatch: %d vs %d", len(t1.Args), len(t2.Args)))
			}
			for i := range t1.Args {
				s2, err := Unify(t1.Args[i].Apply(s), t2.Args[i].Apply(s))
				if err != nil {
					return nil, err
				}
				s = s.Compose(s2)
			}
			return s, nil
		default:
			return nil, errUnifyMsg(t1, t2, "cannot unify generic application")
		}

	case TForall:
		// Schemes must be instantiated before unification; reaching here
		// with a polytype is a checker bug upstream, reported as mismatch.
		return nil, errUnifyMsg(t1, t2, "cannot unify polytype with monotype")

	default:
		return nil, errMismatch(fmt.Sprintf("unknown type kind: %T", t1))
	}
}

// Bind binds a type variable to a type, performing the occurs check.
func Bind(tv TVar, t Type) (Subst, error) {
	if tVal, ok := t.(TVar); ok && tVal.Name == tv.Name {
		return Subst{}, nil
	}

	// Occurs check: avoid infinite types like t1 = List<t1>.
	if OccursCheck(tv, t) {
		return nil, &OccursError{Var: tv, In: t}
	}

	return Subst{tv.Name: t}, nil
}

// OccursCheck returns true if tv appears free in t.
func OccursCheck(tv TVar, t Type) bool {
	for _, v := range t.FreeTypeVariables() {
		if v.Name == tv.Name {
			return true
		}
	}
	return false
}

// OccursError signals an infinite type: tv would be bound to a type
// containing itself.
type OccursError struct {
	Var TVar
	In  Type
}

func (e *OccursError) Error() string {
	return fmt.Sprintf("infinite type detected: %s in %s", e.Var, e.In)
}

func errUnify(t1, t2 Type) error {
	return fmt.Errorf("cannot unify %s with %s", t1, t2)
}

func errUnifyMsg(t1, t2 Type, msg string) error {
	return fmt.Errorf("%s: %s vs %s", msg, t1, t2)
}

func errMismatch(msg string) error {
	return fmt.Errorf("type mismatch: %s", msg)
}

func errUnifyContext(ctx string, err error) error {
	return fmt.Errorf("in %s: %w", ctx, err)
}
