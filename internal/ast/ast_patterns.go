package ast

import (
	"github.com/vesper-lang/vesper/internal/token"
	"github.com/vesper-lang/vesper/internal/typesystem"
)

// Pattern is a Node usable on the left side of a match arm. A pattern's
// shape is fixed at construction; its type is attached during checking
// and read by lowering.
type Pattern interface {
	Node
	patternNode()
}

// MatchArm represents a single case in a match expression. Order is
// semantically significant: the first arm whose pattern matches, and
// whose guard (if present) evaluates true, is selected.
type MatchArm struct {
	Pattern    Pattern
	Guard      Expression // optional: condition after 'if', nil if no guard
	Expression Expression
}

// MatchExpression: match subject { arms }. Owns a non-empty arm list.
type MatchExpression struct {
	Token      token.Token
	Expression Expression
	Arms       []*MatchArm
}

func (me *MatchExpression) expressionNode()       {}
func (me *MatchExpression) TokenLiteral() string  { return me.Token.Lexeme }
func (me *MatchExpression) GetToken() token.Token { return me.Token }

// WildcardPattern: _
type WildcardPattern struct {
	Token token.Token
}

func (p *WildcardPattern) patternNode()          {}
func (p *WildcardPattern) TokenLiteral() string  { return p.Token.Lexeme }
func (p *WildcardPattern) GetToken() token.Token { return p.Token }

// BindingPattern: x. Matches anything and binds it.
type BindingPattern struct {
	Token token.Token
	Name  string
}

func (p *BindingPattern) patternNode()          {}
func (p *BindingPattern) TokenLiteral() string  { return p.Token.Lexeme }
func (p *BindingPattern) GetToken() token.Token { return p.Token }

// LiteralPattern: 1, true, "s", 'c'
type LiteralPattern struct {
	Token token.Token
	Value interface{}
}

func (p *LiteralPattern) patternNode()          {}
func (p *LiteralPattern) TokenLiteral() string  { return p.Token.Lexeme }
func (p *LiteralPattern) GetToken() token.Token { return p.Token }

// NullPattern matches the absent side of a nullable scrutinee.
type NullPattern struct {
	Token token.Token
}

func (p *NullPattern) patternNode()          {}
func (p *NullPattern) TokenLiteral() string  { return p.Token.Lexeme }
func (p *NullPattern) GetToken() token.Token { return p.Token }

// FieldPattern is one sub-pattern of a variant pattern. Name is empty
// for positional matching and set for named-field matching.
type FieldPattern struct {
	Name    string
	Pattern Pattern
}

// VariantPattern: Circle(r), Circle { radius: r, .. }. Rest permits
// partial field matching: only the named fields are deconstructed.
type VariantPattern struct {
	Token  token.Token
	Union  string // owning union, bound by upstream resolution
	Name   string // variant name
	Fields []FieldPattern
	Rest   bool
}

func (p *VariantPattern) patternNode()          {}
func (p *VariantPattern) TokenLiteral() string  { return p.Token.Lexeme }
func (p *VariantPattern) GetToken() token.Token { return p.Token }

// ListPattern: [], [x, y], [x, ...rest]. Elements is the fixed prefix;
// Tail, when non-nil, binds the remainder and makes the pattern match
// any list at least len(Elements) long.
type ListPattern struct {
	Token    token.Token
	Elements []Pattern
	Tail     Pattern // nil, or a binding/wildcard for the remainder
}

func (p *ListPattern) patternNode()          {}
func (p *ListPattern) TokenLiteral() string  { return p.Token.Lexeme }
func (p *ListPattern) GetToken() token.Token { return p.Token }

// GuardedPattern: p if cond. Matches when p matches and cond is true.
type GuardedPattern struct {
	Token   token.Token
	Pattern Pattern
	Cond    Expression
}

func (p *GuardedPattern) patternNode()          {}
func (p *GuardedPattern) TokenLiteral() string  { return p.Token.Lexeme }
func (p *GuardedPattern) GetToken() token.Token { return p.Token }

// TypeTestPattern: n: Int. Matches when the value has the expected
// type, optionally binding it and deconstructing further.
type TypeTestPattern struct {
	Token   token.Token
	Type    typesystem.Type
	Binding string  // "" when no binding
	Inner   Pattern // optional nested deconstruction, nil otherwise
}

func (p *TypeTestPattern) patternNode()          {}
func (p *TypeTestPattern) TokenLiteral() string  { return p.Token.Lexeme }
func (p *TypeTestPattern) GetToken() token.Token { return p.Token }

// AliasPattern: p @ name. Matches p and binds the whole value to name.
type AliasPattern struct {
	Token   token.Token
	Pattern Pattern
	Name    string
}

func (p *AliasPattern) patternNode()          {}
func (p *AliasPattern) TokenLiteral() string  { return p.Token.Lexeme }
func (p *AliasPattern) GetToken() token.Token { return p.Token }
