package parser

import (
	"fmt"

	"github.com/quellabs/quel/pkg/token"
)

// LexError represents a lexical analysis error at the position of the
// offending input.
type LexError struct {
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// ParseError represents a grammar violation: what the parser expected
// against what it found, with the source position of the found token.
type ParseError struct {
	Pos      token.Position
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: expected %s, found %s",
		e.Pos.Line, e.Pos.Column, e.Expected, e.Found)
}

// Common error messages
const (
	ErrUnterminatedString = "unterminated string literal"
	ErrUnterminatedRegex  = "unterminated regular expression"
	ErrInvalidEscape      = "invalid escape sequence \\%c"
	ErrInvalidNumber      = "invalid number literal"
	ErrUnexpectedChar     = "unexpected character %q"
)
