// Package ast defines the name-resolved tree handed to the checking and
// lowering core.
//
// Parsing and name resolution happen upstream: every identifier is
// already bound and every present type annotation is already a
// typesystem.Type. The core only reads this tree, attaches inferred
// types to it through the inference context, and lowers it.
package ast

import (
	"github.com/vesper-lang/vesper/internal/token"
	"github.com/vesper-lang/vesper/internal/typesystem"
)

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	GetToken() token.Token
}

// Expression is a Node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node: an ordered list of top-level declarations.
type Program struct {
	File         string
	Declarations []*FunctionDeclaration
}

// Param is a declared function parameter. Type is nil when the
// parameter carries no annotation and is left to inference.
type Param struct {
	Name string
	Type typesystem.Type
}

// FunctionDeclaration is a top-level function with an expression body.
// ReturnType is nil when unannotated.
type FunctionDeclaration struct {
	Token      token.Token
	Name       string
	Params     []Param
	ReturnType typesystem.Type
	Body       Expression
}

func (fd *FunctionDeclaration) TokenLiteral() string  { return fd.Token.Lexeme }
func (fd *FunctionDeclaration) GetToken() token.Token { return fd.Token }
