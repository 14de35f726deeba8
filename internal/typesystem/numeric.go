package typesystem

// The numeric promotion lattice. Implicit widening is permitted along
// lattice order only:
//
//	Int ⊑ Long ⊑ Double
//	      Float ⊑ Double
//
// numericRank orders the tower for WidestNumeric; promotion validity is
// decided by NumericPrecedes, which excludes Long -> Float (a Long does
// not fit a Float losslessly enough for implicit conversion).
var numericRank = map[string]int{
	Int.Name:    0,
	Long.Name:   1,
	Float.Name:  2,
	Double.Name: 3,
}

// IsNumeric reports whether t is a member of the numeric tower.
func IsNumeric(t Type) bool {
	c, ok := t.(TCon)
	if !ok {
		return false
	}
	_, ok = numericRank[c.Name]
	return ok
}

// NumericPrecedes reports whether a ⊑ b in the promotion lattice,
// i.e. a value of type a may be implicitly widened to type b.
func NumericPrecedes(a, b Type) bool {
	ca, ok1 := a.(TCon)
	cb, ok2 := b.(TCon)
	if !ok1 || !ok2 {
		return false
	}
	ra, ok1 := numericRank[ca.Name]
	rb, ok2 := numericRank[cb.Name]
	if !ok1 || !ok2 {
		return false
	}
	if ca.Name == cb.Name {
		return true
	}
	// Long -> Float is not a promotion path even though Float outranks Long.
	if ca.Name == Long.Name && cb.Name == Float.Name {
		return false
	}
	// Float accepts nothing narrower: Int -> Float would silently route
	// integer arithmetic through single precision.
	if cb.Name == Float.Name {
		return false
	}
	return ra < rb
}

// WidestNumeric returns the wider of two numeric types, following the
// lattice, and false when the pair has no common promotion target other
// than Double.
func WidestNumeric(a, b Type) (Type, bool) {
	if !IsNumeric(a) || !IsNumeric(b) {
		return nil, false
	}
	if NumericPrecedes(a, b) {
		return b, true
	}
	if NumericPrecedes(b, a) {
		return a, true
	}
	// Long vs Float: joined at Double.
	return Double, true
}
