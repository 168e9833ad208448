package parser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/quellabs/quel/pkg/token"
)

// Lexer tokenizes Quel input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)

	// prev is the kind of the last emitted token. A '/' opens a regex
	// literal only in expression position, i.e. after an operator, a
	// comma, an opening paren/bracket or at the start of input; in value
	// position it is division.
	prev token.Type

	err error // first lexical error, sticky
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
		prev:  token.EOF, // start of input counts as expression position
	}
	l.readChar()
	return l
}

// Err returns the first lexical error encountered, or nil.
func (l *Lexer) Err() error {
	return l.err
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	tok := l.scan()
	l.prev = tok.Type
	return tok
}

// scan produces the next token without updating expression-position state.
func (l *Lexer) scan() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()

	var tok token.Token
	tok.Pos = pos

	switch l.ch {
	case 0:
		tok.Type = token.EOF
		tok.Literal = ""
		return tok
	case '+':
		tok = l.newToken(token.PLUS, "+")
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			tok = token.Token{Type: token.ARROW, Literal: "->", Pos: pos}
		} else {
			tok = l.newToken(token.MINUS, "-")
		}
	case '*':
		tok = l.newToken(token.STAR, "*")
	case '/':
		if l.regexAllowed() {
			return l.readRegex(pos)
		}
		tok = l.newToken(token.SLASH, "/")
	case '%':
		tok = l.newToken(token.PERCENT, "%")
	case '=':
		if l.peekChar() == '~' {
			l.readChar()
			tok = token.Token{Type: token.MATCH, Literal: "=~", Pos: pos}
		} else {
			tok = l.newToken(token.EQ, "=")
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = token.Token{Type: token.LE, Literal: "<=", Pos: pos}
		case '>':
			l.readChar()
			tok = token.Token{Type: token.NE, Literal: "<>", Pos: pos}
		default:
			tok = l.newToken(token.LT, "<")
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.GE, Literal: ">=", Pos: pos}
		} else {
			tok = l.newToken(token.GT, ">")
		}
	case '!':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = token.Token{Type: token.NE, Literal: "!=", Pos: pos}
		case '~':
			l.readChar()
			tok = token.Token{Type: token.NOTMATCH, Literal: "!~", Pos: pos}
		default:
			tok = l.newToken(token.BANG, "!")
		}
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			tok = token.Token{Type: token.LAND, Literal: "&&", Pos: pos}
		} else {
			tok = l.newToken(token.AMP, "&")
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok = token.Token{Type: token.LOR, Literal: "||", Pos: pos}
		} else {
			tok = l.newToken(token.PIPE, "|")
		}
	case '^':
		tok = l.newToken(token.CARET, "^")
	case '~':
		tok = l.newToken(token.TILDE, "~")
	case '.':
		tok = l.newToken(token.DOT, ".")
	case ',':
		tok = l.newToken(token.COMMA, ",")
	case ';':
		tok = l.newToken(token.SEMICOLON, ";")
	case ':':
		if l.peekChar() == ':' {
			l.readChar()
			tok = token.Token{Type: token.DCOLON, Literal: "::", Pos: pos}
		} else if isLetter(l.peekChar()) || l.peekChar() == '_' {
			l.readChar() // skip ':'
			name := l.readIdentifier()
			return token.Token{Type: token.PARAM, Literal: name, Pos: pos}
		} else {
			tok = l.newToken(token.COLON, ":")
		}
	case '(':
		tok = l.newToken(token.LPAREN, "(")
	case ')':
		tok = l.newToken(token.RPAREN, ")")
	case '[':
		tok = l.newToken(token.LBRACKET, "[")
	case ']':
		tok = l.newToken(token.RBRACKET, "]")
	case '{':
		tok = l.newToken(token.LBRACE, "{")
	case '}':
		tok = l.newToken(token.RBRACE, "}")
	case '$':
		tok = l.newToken(token.DOLLAR, "$")
	case '@':
		tok = l.newToken(token.AT, "@")
	case '?':
		tok = l.newToken(token.QUESTION, "?")
	case '\'', '"':
		return l.readString(pos, l.ch)
	default:
		switch {
		case isLetter(l.ch) || l.ch == '_':
			tok.Literal = l.readIdentifier()
			tok.Type = token.LookupIdent(tok.Literal)
			tok.Pos = pos
			return tok
		case isDigit(l.ch):
			return l.readNumber(pos)
		default:
			l.setError(pos, fmt.Sprintf(ErrUnexpectedChar, l.ch))
			tok = l.newToken(token.ILLEGAL, string(l.ch))
		}
	}

	l.readChar()
	return tok
}

// regexAllowed reports whether a '/' at the current position opens a
// regex literal.
func (l *Lexer) regexAllowed() bool {
	switch {
	case l.prev == token.EOF: // start of input
		return true
	case token.IsOperator(l.prev):
		return true
	case l.prev == token.COMMA, l.prev == token.LPAREN, l.prev == token.LBRACKET:
		return true
	}
	return false
}

// newToken creates a new token.
func (l *Lexer) newToken(tokenType token.Type, literal string) token.Token {
	return token.Token{Type: tokenType, Literal: literal, Pos: l.currentPos()}
}

// setError records the first lexical error.
func (l *Lexer) setError(pos token.Position, msg string) {
	if l.err == nil {
		l.err = &LexError{Pos: pos, Message: msg}
	}
}

// skipWhitespaceAndComments skips whitespace, -- line comments and
// /* */ block comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}

		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}

		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar() // skip '/'
			l.readChar() // skip '*'
			for l.ch != 0 {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar() // skip '*'
					l.readChar() // skip '/'
					break
				}
				l.readChar()
			}
			continue
		}

		break
	}
}

// readString reads a quoted string literal. Both quote characters are
// accepted; backslash escapes \\ \' \" \n \t \r are resolved. A missing
// closing quote or an unknown escape is a lexical error.
func (l *Lexer) readString(pos token.Position, quote byte) token.Token {
	l.readChar() // skip opening quote

	var result strings.Builder
	for {
		switch l.ch {
		case 0:
			l.setError(pos, ErrUnterminatedString)
			return token.Token{Type: token.ILLEGAL, Literal: result.String(), Pos: pos}
		case quote:
			l.readChar() // skip closing quote
			return token.Token{Type: token.STRING, Literal: result.String(), Pos: pos}
		case '\\':
			escPos := l.currentPos()
			l.readChar()
			switch l.ch {
			case '\\':
				result.WriteByte('\\')
			case '\'':
				result.WriteByte('\'')
			case '"':
				result.WriteByte('"')
			case 'n':
				result.WriteByte('\n')
			case 't':
				result.WriteByte('\t')
			case 'r':
				result.WriteByte('\r')
			case 0:
				l.setError(pos, ErrUnterminatedString)
				return token.Token{Type: token.ILLEGAL, Literal: result.String(), Pos: pos}
			default:
				l.setError(escPos, fmt.Sprintf(ErrInvalidEscape, l.ch))
				return token.Token{Type: token.ILLEGAL, Literal: result.String(), Pos: escPos}
			}
			l.readChar()
		default:
			result.WriteByte(l.ch)
			l.readChar()
		}
	}
}

// readRegex reads a /pattern/flags regex literal. The returned literal
// keeps the raw source form, delimiters and flags included; backslash
// escapes the delimiter inside the pattern.
func (l *Lexer) readRegex(pos token.Position) token.Token {
	start := l.pos
	l.readChar() // skip opening '/'

	for {
		switch l.ch {
		case 0:
			l.setError(pos, ErrUnterminatedRegex)
			return token.Token{Type: token.ILLEGAL, Literal: l.input[start:l.pos], Pos: pos}
		case '\\':
			l.readChar()
			if l.ch != 0 {
				l.readChar()
			}
		case '/':
			l.readChar() // skip closing '/'
			for isLetter(l.ch) {
				l.readChar() // trailing flag letters
			}
			return token.Token{Type: token.REGEX, Literal: l.input[start:l.pos], Pos: pos}
		default:
			l.readChar()
		}
	}
}

// readIdentifier reads an identifier.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber(pos token.Position) token.Token {
	start := l.pos
	kind := token.INT

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		kind = token.FLOAT
		l.readChar() // skip '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if l.ch == 'e' || l.ch == 'E' {
		kind = token.FLOAT
		l.readChar() // skip 'e' or 'E'
		if l.ch == '+' || l.ch == '-' {
			l.readChar() // skip sign
		}
		if !isDigit(l.ch) {
			l.setError(pos, ErrInvalidNumber)
			return token.Token{Type: token.ILLEGAL, Literal: l.input[start:l.pos], Pos: pos}
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	return token.Token{Type: kind, Literal: l.input[start:l.pos], Pos: pos}
}

// isLetter returns true if ch is a letter.
func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch))
}

// isDigit returns true if ch is a digit.
func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize returns all tokens from the input, EOF included. The first
// malformed literal or unrecognized character aborts with a LexError.
func Tokenize(input string) ([]token.Token, error) {
	l := NewLexer(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		if tok.Type == token.ILLEGAL {
			return nil, l.Err()
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens, nil
}
