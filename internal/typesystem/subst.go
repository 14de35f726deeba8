package typesystem

import "fmt"

// Subst is a mapping from type variable names to types. Application is
// transitive: a variable mapped to another variable resolves through to
// its final type.
type Subst map[string]Type

// Compose combines two substitutions, left-biased: bindings in s1 win
// over bindings for the same variable in s2, and s2 is applied to every
// type s1 maps to.
func (s1 Subst) Compose(s2 Subst) Subst {
	subst := Subst{}
	for k, v := range s2 {
		subst[k] = v
	}
	for k, v := range s1 {
		subst[k] = v.Apply(s2)
	}
	return subst
}

// applyChecked applies a substitution to a type, following variable
// chains transitively. A cycle in the substitution is a fatal internal
// error: substitutions produced by the solver are acyclic by
// construction (occurs check), so a cycle here means a core bug.
func applyChecked(t Type, s Subst, visiting map[string]bool) Type {
	if t == nil || len(s) == 0 {
		return t
	}

	switch typ := t.(type) {
	case TVar:
		replacement, ok := s[typ.Name]
		if !ok {
			return typ
		}
		if tv, ok := replacement.(TVar); ok && tv.Name == typ.Name {
			return typ
		}
		if visiting[typ.Name] {
			panic(fmt.Sprintf("typesystem: cycle in substitution at %s", typ.Name))
		}
		next := copyVisiting(visiting)
		next[typ.Name] = true
		return applyChecked(replacement, s, next)

	case TCon:
		return typ

	case TNullable:
		return TNullable{Elem: applyChecked(typ.Elem, s, visiting)}

	case TUnion:
		variants := make([]Variant, len(typ.Variants))
		for i, v := range typ.Variants {
			fields := make([]Field, len(v.Fields))
			for j, f := range v.Fields {
				fields[j] = Field{Name: f.Name, Type: applyChecked(f.Type, s, visiting)}
			}
			variants[i] = Variant{Name: v.Name, Fields: fields}
		}
		return TUnion{Name: typ.Name, Variants: variants}

	case TProduct:
		fields := make([]Field, len(typ.Fields))
		for i, f := range typ.Fields {
			fields[i] = Field{Name: f.Name, Type: applyChecked(f.Type, s, visiting)}
		}
		return TProduct{Name: typ.Name, Fields: fields}

	case TFunc:
		params := make([]Type, len(typ.Params))
		for i, p := range typ.Params {
			params[i] = applyChecked(p, s, visiting)
		}
		return TFunc{Params: params, Return: applyChecked(typ.Return, s, visiting)}

	case TApp:
		args := make([]Type, len(typ.Args))
		for i, a := range typ.Args {
			args[i] = applyChecked(a, s, visiting)
		}
		return TApp{Constructor: applyChecked(typ.Constructor, s, visiting), Args: args}

	case TForall:
		return typ.Apply(s)

	default:
		return t.Apply(s)
	}
}

func copyVisiting(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
