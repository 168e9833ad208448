// Package parser implements lexing and parsing of the Quel retrieval
// language.
//
// # Usage
//
//	q, err := parser.Parse("range of x is Products\nretrieve (x.id) where x.id = 5")
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
// A query is zero or more range declarations followed by exactly one
// retrieve clause:
//
//	query      → rangeDecl* retrieve
//	rangeDecl  → "range" "of" alias "is" entityName ["via" expr]
//	           | alias "is" "SOURCE" "(" locator "," pathExpr ")"
//	entityName → IDENT ("::" IDENT)*
//	retrieve   → "retrieve" ["unique"] "(" projList ")" ["where" expr]
//	projList   → expr ["as" IDENT] ("," expr ["as" IDENT])*
//
// Clause words (range, of, is, via, retrieve, unique, where, as, and,
// or, not, null, SOURCE) are not reserved: the lexer emits them as plain
// identifiers and the parser recognizes them by grammar position, so
// entity properties may use them freely. Only true and false are
// keywords. See parser_expr.go for the expression grammar.
package parser

import (
	"fmt"

	"github.com/quellabs/quel/pkg/ast"
	"github.com/quellabs/quel/pkg/token"
)

// Clause words recognized by grammar position.
const (
	wordRange    = "range"
	wordOf       = "of"
	wordIs       = "is"
	wordVia      = "via"
	wordRetrieve = "retrieve"
	wordUnique   = "unique"
	wordWhere    = "where"
	wordSource   = "SOURCE"
	wordAs       = "as"
	wordAnd      = "and"
	wordOr       = "or"
	wordNot      = "not"
	wordNull     = "null"
)

// Parser parses Quel input into an AST.
type Parser struct {
	lexer *Lexer
	token token.Token // current token
	peek  token.Token // lookahead token
	peek2 token.Token // second lookahead token

	errors    []error
	lexFailed bool
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses the input and returns the retrieve AST. The first error,
// lexical or syntactic, aborts parsing; the caller must re-supply
// corrected source.
func Parse(input string) (*ast.Retrieve, error) {
	p := NewParser(input)
	q := p.parseQuery()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return q, nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()

	// Surface a lexer failure the moment the broken token becomes current.
	if p.token.Type == token.ILLEGAL && !p.lexFailed {
		p.lexFailed = true
		if err := p.lexer.Err(); err != nil {
			p.errors = append(p.errors, err)
		} else {
			p.errors = append(p.errors, &LexError{
				Pos:     p.token.Pos,
				Message: fmt.Sprintf(ErrUnexpectedChar, p.token.Literal),
			})
		}
	}
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.Type) bool {
	return p.token.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.Type) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.Type) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("%q", t.String()))
	return false
}

// isWord returns true if tok is the given clause word. Clause words are
// ordinary identifiers; the comparison is case-sensitive.
func (p *Parser) isWord(tok token.Token, word string) bool {
	return tok.Type == token.IDENT && tok.Literal == word
}

// checkWord returns true if the current token is the given clause word.
func (p *Parser) checkWord(word string) bool {
	return p.isWord(p.token, word)
}

// matchWord consumes the current token if it is the given clause word.
func (p *Parser) matchWord(word string) bool {
	if p.checkWord(word) {
		p.nextToken()
		return true
	}
	return false
}

// addError records a parse error against the current token.
func (p *Parser) addError(expected string) {
	p.errors = append(p.errors, &ParseError{
		Pos:      p.token.Pos,
		Expected: expected,
		Found:    p.describeToken(p.token),
	})
}

// describeToken renders a token for error messages.
func (p *Parser) describeToken(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.INT, token.FLOAT, token.STRING, token.REGEX:
		return fmt.Sprintf("%q", tok.Literal)
	case token.PARAM:
		return fmt.Sprintf("%q", ":"+tok.Literal)
	case token.ILLEGAL:
		return fmt.Sprintf("%q", tok.Literal)
	default:
		return fmt.Sprintf("%q", tok.Type.String())
	}
}

// failed returns true once any error has been recorded.
func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

// ---------- Query Grammar ----------

// parseQuery parses range declarations followed by the retrieve clause.
func (p *Parser) parseQuery() *ast.Retrieve {
	var ranges []ast.RangeDecl
	seen := make(map[string]bool)

	for {
		var r ast.RangeDecl
		switch {
		case p.checkWord(wordRange) && p.isWord(p.peek, wordOf):
			r = p.parseEntityRange()
		case p.check(token.IDENT) && p.isWord(p.peek, wordIs) && p.isWord(p.peek2, wordSource):
			r = p.parseSourceRange()
		default:
			r = nil
		}
		if r == nil {
			break
		}
		if seen[r.RangeAlias()] {
			pos := p.token.Pos
			switch d := r.(type) {
			case *ast.EntityRange:
				pos = d.Pos
			case *ast.SourceRange:
				pos = d.Pos
			}
			p.errors = append(p.errors, &ParseError{
				Pos:      pos,
				Expected: "a distinct range alias",
				Found:    fmt.Sprintf("duplicate alias %q", r.RangeAlias()),
			})
			return nil
		}
		seen[r.RangeAlias()] = true
		ranges = append(ranges, r)
	}
	if p.failed() {
		return nil
	}

	if !p.checkWord(wordRetrieve) {
		p.addError(`"retrieve" clause`)
		return nil
	}
	q := p.parseRetrieve()
	if q == nil {
		return nil
	}
	q.Ranges = ranges

	if !p.check(token.EOF) {
		p.addError("end of input")
		return nil
	}
	return q
}

// parseEntityRange parses: range of <alias> is <EntityName> [via <expr>]
func (p *Parser) parseEntityRange() ast.RangeDecl {
	pos := p.token.Pos
	p.nextToken() // range
	p.nextToken() // of

	if !p.check(token.IDENT) {
		p.addError("range alias")
		return nil
	}
	alias := p.token.Literal
	p.nextToken()

	if !p.matchWord(wordIs) {
		p.addError(`"is"`)
		return nil
	}

	entity := p.parseEntityName()
	if entity == "" {
		return nil
	}

	r := &ast.EntityRange{Pos: pos, Alias: alias, Entity: entity}
	if p.matchWord(wordVia) {
		via := p.parseExpr()
		if via == nil {
			return nil
		}
		r.Via = via
	}
	return r
}

// parseEntityName parses a possibly namespaced entity name: a::b::Name.
func (p *Parser) parseEntityName() string {
	if !p.check(token.IDENT) {
		p.addError("entity name")
		return ""
	}
	name := p.token.Literal
	p.nextToken()

	for p.check(token.DCOLON) {
		p.nextToken()
		if !p.check(token.IDENT) {
			p.addError("entity name segment")
			return ""
		}
		name += "::" + p.token.Literal
		p.nextToken()
	}
	return name
}

// parseSourceRange parses: <alias> is SOURCE(<locator>, <pathExpr>)
func (p *Parser) parseSourceRange() ast.RangeDecl {
	pos := p.token.Pos
	alias := p.token.Literal
	p.nextToken() // alias
	p.nextToken() // is
	p.nextToken() // SOURCE

	if !p.expect(token.LPAREN) {
		return nil
	}
	if !p.check(token.STRING) {
		p.addError("source locator string")
		return nil
	}
	locator := p.token.Literal
	p.nextToken()

	if !p.expect(token.COMMA) {
		return nil
	}

	var path ast.Expr
	switch p.token.Type {
	case token.DOLLAR:
		path = p.parsePath()
	case token.STRING:
		path = &ast.StringLit{Pos: p.token.Pos, Value: p.token.Literal}
		p.nextToken()
	default:
		p.addError("document path")
		return nil
	}
	if path == nil {
		return nil
	}

	if !p.expect(token.RPAREN) {
		return nil
	}
	return &ast.SourceRange{Pos: pos, Alias: alias, Locator: locator, Path: path}
}

// parseRetrieve parses: retrieve [unique] (<projection-list>) [where <expr>]
func (p *Parser) parseRetrieve() *ast.Retrieve {
	pos := p.token.Pos
	p.nextToken() // retrieve

	q := &ast.Retrieve{Pos: pos}
	q.Unique = p.matchWord(wordUnique)

	if !p.expect(token.LPAREN) {
		return nil
	}
	q.Projection = p.parseProjection()
	if q.Projection == nil {
		return nil
	}
	if !p.expect(token.RPAREN) {
		return nil
	}

	if p.matchWord(wordWhere) {
		where := p.parseExpr()
		if where == nil {
			return nil
		}
		q.Where = where
	}
	return q
}

// parseProjection parses the comma-separated projection list.
func (p *Parser) parseProjection() []*ast.ProjectionItem {
	var items []*ast.ProjectionItem
	for {
		e := p.parseExpr()
		if e == nil {
			return nil
		}
		item := &ast.ProjectionItem{Expr: e}
		if p.matchWord(wordAs) {
			if !p.check(token.IDENT) {
				p.addError("projection alias")
				return nil
			}
			item.Alias = p.token.Literal
			p.nextToken()
		}
		items = append(items, item)
		if !p.match(token.COMMA) {
			return items
		}
	}
}
