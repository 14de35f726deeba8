// Package token defines source positions carried by AST nodes.
//
// The core consumes an already-parsed, name-resolved tree, so only the
// position information needed for diagnostics survives from the front end.
package token

import "fmt"

// Token pins an AST node to its source location.
type Token struct {
	Lexeme string
	Line   int
	Column int
}

// Pos renders the position as "line:column".
func (t Token) Pos() string {
	return fmt.Sprintf("%d:%d", t.Line, t.Column)
}

// At is a shorthand constructor used heavily by tests that build trees by hand.
func At(line, column int) Token {
	return Token{Line: line, Column: column}
}
