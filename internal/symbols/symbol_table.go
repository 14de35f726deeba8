// Package symbols provides the scoped type environment used during
// checking and the process-wide interned type-name table.
package symbols

import (
	"github.com/vesper-lang/vesper/internal/typesystem"
)

// Symbol is a single environment binding.
type Symbol struct {
	Name string
	Type typesystem.Type
}

// SymbolTable is the type environment. Child scopes wrap their parent
// instead of copying it; a parent is never mutated once a child scope
// exists, which keeps concurrent per-declaration checking safe.
type SymbolTable struct {
	outer *SymbolTable
	store map[string]Symbol
	types map[string]typesystem.Type
}

// NewSymbolTable creates a root environment.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		store: make(map[string]Symbol),
		types: make(map[string]typesystem.Type),
	}
}

// NewEnclosedSymbolTable creates a child scope of outer.
func NewEnclosedSymbolTable(outer *SymbolTable) *SymbolTable {
	st := NewSymbolTable()
	st.outer = outer
	return st
}

// Define binds a value name in the current scope.
func (st *SymbolTable) Define(name string, t typesystem.Type) Symbol {
	sym := Symbol{Name: name, Type: t}
	st.store[name] = sym
	return sym
}

// Find resolves a value name, walking outward through enclosing scopes.
func (st *SymbolTable) Find(name string) (Symbol, bool) {
	if sym, ok := st.store[name]; ok {
		return sym, true
	}
	if st.outer != nil {
		return st.outer.Find(name)
	}
	return Symbol{}, false
}

// DefineType registers a named type (union, product, or alias) in the
// current scope.
func (st *SymbolTable) DefineType(name string, t typesystem.Type) {
	st.types[name] = t
}

// FindType resolves a type name, walking outward through enclosing scopes.
func (st *SymbolTable) FindType(name string) (typesystem.Type, bool) {
	if t, ok := st.types[name]; ok {
		return t, true
	}
	if st.outer != nil {
		return st.outer.FindType(name)
	}
	return nil, false
}

// FindUnionByVariant locates the union type declaring the given variant
// constructor. Name resolution guarantees variant names are unique per
// scope chain, so the first hit wins.
func (st *SymbolTable) FindUnionByVariant(ctor string) (typesystem.TUnion, bool) {
	for _, t := range st.types {
		if u, ok := t.(typesystem.TUnion); ok {
			if _, ok := u.VariantNamed(ctor); ok {
				return u, true
			}
		}
	}
	if st.outer != nil {
		return st.outer.FindUnionByVariant(ctor)
	}
	return typesystem.TUnion{}, false
}
