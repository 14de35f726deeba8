package ast

import (
	"github.com/vesper-lang/vesper/internal/token"
	"github.com/vesper-lang/vesper/internal/typesystem"
)

// IntLiteral: 42
type IntLiteral struct {
	Token token.Token
	Value int64
}

func (e *IntLiteral) expressionNode()       {}
func (e *IntLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *IntLiteral) GetToken() token.Token { return e.Token }

// LongLiteral: 42L. A wide integer, occupying two slots at runtime.
type LongLiteral struct {
	Token token.Token
	Value int64
}

func (e *LongLiteral) expressionNode()       {}
func (e *LongLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *LongLiteral) GetToken() token.Token { return e.Token }

// FloatLiteral: 1.5f
type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (e *FloatLiteral) expressionNode()       {}
func (e *FloatLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *FloatLiteral) GetToken() token.Token { return e.Token }

// DoubleLiteral: 1.5. Wide, two slots.
type DoubleLiteral struct {
	Token token.Token
	Value float64
}

func (e *DoubleLiteral) expressionNode()       {}
func (e *DoubleLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *DoubleLiteral) GetToken() token.Token { return e.Token }

// BoolLiteral: true, false
type BoolLiteral struct {
	Token token.Token
	Value bool
}

func (e *BoolLiteral) expressionNode()       {}
func (e *BoolLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *BoolLiteral) GetToken() token.Token { return e.Token }

// CharLiteral: 'x'
type CharLiteral struct {
	Token token.Token
	Value rune
}

func (e *CharLiteral) expressionNode()       {}
func (e *CharLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *CharLiteral) GetToken() token.Token { return e.Token }

// StringLiteral: "text"
type StringLiteral struct {
	Token token.Token
	Value string
}

func (e *StringLiteral) expressionNode()       {}
func (e *StringLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *StringLiteral) GetToken() token.Token { return e.Token }

// UnitLiteral: ()
type UnitLiteral struct {
	Token token.Token
}

func (e *UnitLiteral) expressionNode()       {}
func (e *UnitLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *UnitLiteral) GetToken() token.Token { return e.Token }

// NullLiteral: the absent reference of a nullable type.
type NullLiteral struct {
	Token token.Token
}

func (e *NullLiteral) expressionNode()       {}
func (e *NullLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *NullLiteral) GetToken() token.Token { return e.Token }

// Identifier: a name already bound by upstream resolution.
type Identifier struct {
	Token token.Token
	Name  string
}

func (e *Identifier) expressionNode()       {}
func (e *Identifier) TokenLiteral() string  { return e.Token.Lexeme }
func (e *Identifier) GetToken() token.Token { return e.Token }

// BinaryExpression: a + b, a < b, a == b
type BinaryExpression struct {
	Token    token.Token // the operator token
	Operator string
	Left     Expression
	Right    Expression
}

func (e *BinaryExpression) expressionNode()       {}
func (e *BinaryExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *BinaryExpression) GetToken() token.Token { return e.Token }

// CallExpression: f(a, b)
type CallExpression struct {
	Token     token.Token
	Function  Expression
	Arguments []Expression
}

func (e *CallExpression) expressionNode()       {}
func (e *CallExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *CallExpression) GetToken() token.Token { return e.Token }

// IfExpression: if cond { then } else { alt }
type IfExpression struct {
	Token       token.Token
	Condition   Expression
	Consequence Expression
	Alternative Expression // nil when there is no else
}

func (e *IfExpression) expressionNode()       {}
func (e *IfExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *IfExpression) GetToken() token.Token { return e.Token }

// LetExpression: let x = value; body. Scopes x over body.
type LetExpression struct {
	Token token.Token
	Name  string
	Value Expression
	Body  Expression
}

func (e *LetExpression) expressionNode()       {}
func (e *LetExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *LetExpression) GetToken() token.Token { return e.Token }

// BlockExpression: { e1; e2; e3 }. Evaluates to the last expression.
type BlockExpression struct {
	Token       token.Token
	Expressions []Expression
}

func (e *BlockExpression) expressionNode()       {}
func (e *BlockExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *BlockExpression) GetToken() token.Token { return e.Token }

// ListLiteral: [1, 2, 3]
type ListLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (e *ListLiteral) expressionNode()       {}
func (e *ListLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *ListLiteral) GetToken() token.Token { return e.Token }

// ConstructExpression builds a union variant value: Circle(1.5),
// Some(x). The union is resolved from the constructor name upstream.
type ConstructExpression struct {
	Token     token.Token
	Union     string // owning union type name, bound by resolution
	Ctor      string // variant name
	Arguments []Expression
}

func (e *ConstructExpression) expressionNode()       {}
func (e *ConstructExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *ConstructExpression) GetToken() token.Token { return e.Token }

// RecordExpression builds a product value: Vec2 { x: 1.0, y: 2.0 }.
type RecordExpression struct {
	Token    token.Token
	TypeName string
	Fields   []RecordField
}

// RecordField is a single named initializer of a RecordExpression.
type RecordField struct {
	Name  string
	Value Expression
}

func (e *RecordExpression) expressionNode()       {}
func (e *RecordExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *RecordExpression) GetToken() token.Token { return e.Token }

// FieldAccess: p.x
type FieldAccess struct {
	Token  token.Token
	Target Expression
	Field  string
}

func (e *FieldAccess) expressionNode()       {}
func (e *FieldAccess) TokenLiteral() string  { return e.Token.Lexeme }
func (e *FieldAccess) GetToken() token.Token { return e.Token }

// AnnotatedExpression wraps an expression with an explicit type supplied
// by upstream resolution: (e : T).
type AnnotatedExpression struct {
	Token token.Token
	Expr  Expression
	Type  typesystem.Type
}

func (e *AnnotatedExpression) expressionNode()       {}
func (e *AnnotatedExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *AnnotatedExpression) GetToken() token.Token { return e.Token }
