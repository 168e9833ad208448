// Package token defines the lexical tokens of the Quel retrieval language.
//
// The token set is closed: Quel has no dialects, so every kind is a
// constant here and the lexer never registers new ones at runtime.
package token

import "fmt"

// Type identifies the kind of a lexical token.
type Type int32

const (
	// Special tokens
	EOF Type = iota
	ILLEGAL

	// Identifiers and literals
	IDENT  // x, customerId, Products
	INT    // 42
	FLOAT  // 3.14, 1e10
	STRING // 'hello', "hello"
	REGEX  // /^abc/i (literal includes delimiters and flags)
	PARAM  // :name (literal is the bare name)

	// Operators
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	PERCENT  // %
	EQ       // =
	NE       // != or <>
	LT       // <
	GT       // >
	LE       // <=
	GE       // >=
	MATCH    // =~
	NOTMATCH // !~
	LAND     // &&
	LOR      // ||
	BANG     // !
	AMP      // &
	PIPE     // |
	CARET    // ^
	TILDE    // ~
	ARROW    // ->

	// Punctuation
	DOT       // .
	COMMA     // ,
	COLON     // :
	DCOLON    // ::
	SEMICOLON // ;
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	LBRACE    // {
	RBRACE    // }
	DOLLAR    // $
	AT        // @
	QUESTION  // ?

	// Keywords. The keyword set is case-sensitive and deliberately tiny:
	// clause words such as "range", "retrieve" or "where" stay ordinary
	// identifiers and are recognized by the parser from grammar position,
	// so entity properties may reuse them freely.
	TRUE
	FALSE
)

// String returns a human-readable representation of the token type.
func (t Type) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// tokenNames maps token types to their string representations.
var tokenNames = map[Type]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:  "IDENT",
	INT:    "INT",
	FLOAT:  "FLOAT",
	STRING: "STRING",
	REGEX:  "REGEX",
	PARAM:  "PARAM",

	PLUS:     "+",
	MINUS:    "-",
	STAR:     "*",
	SLASH:    "/",
	PERCENT:  "%",
	EQ:       "=",
	NE:       "!=",
	LT:       "<",
	GT:       ">",
	LE:       "<=",
	GE:       ">=",
	MATCH:    "=~",
	NOTMATCH: "!~",
	LAND:     "&&",
	LOR:      "||",
	BANG:     "!",
	AMP:      "&",
	PIPE:     "|",
	CARET:    "^",
	TILDE:    "~",
	ARROW:    "->",

	DOT:       ".",
	COMMA:     ",",
	COLON:     ":",
	DCOLON:    "::",
	SEMICOLON: ";",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACKET:  "[",
	RBRACKET:  "]",
	LBRACE:    "{",
	RBRACE:    "}",
	DOLLAR:    "$",
	AT:        "@",
	QUESTION:  "?",

	TRUE:  "true",
	FALSE: "false",
}

// keywords maps keyword strings to their token types.
// Lookup is case-sensitive: True and TRUE are plain identifiers.
var keywords = map[string]Type{
	"true":  TRUE,
	"false": FALSE,
}

// LookupIdent returns the token type for the given identifier.
// If the identifier is a keyword, the keyword token type is returned.
// Otherwise, IDENT is returned.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a keyword.
func IsKeyword(t Type) bool {
	return t >= TRUE && t <= FALSE
}

// IsOperator returns true if the token type is an operator.
func IsOperator(t Type) bool {
	return t >= PLUS && t <= ARROW
}

// IsLiteral returns true if the token type carries a literal value.
func IsLiteral(t Type) bool {
	return t >= INT && t <= PARAM
}

// Token represents a lexical token with position information.
type Token struct {
	Type    Type
	Literal string
	Pos     Position
}
