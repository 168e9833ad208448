package parser

import (
	"strconv"
	"strings"

	"github.com/quellabs/quel/pkg/ast"
	"github.com/quellabs/quel/pkg/token"
)

// Expression grammar, lowest precedence first:
//
//	expr       → andExpr (("or" | "||") andExpr)*
//	andExpr    → comparison (("and" | "&&") comparison)*
//	comparison → term [("=" | "<>" | "!=" | "<" | ">" | "<=" | ">=" | "=~" | "!~") term]
//	term       → factor (("+" | "-") factor)*
//	factor     → unary (("*" | "/" | "%") unary)*
//	unary      → ("not" | "!" | "-") unary | postfix
//	postfix    → primary ("is" ["not"] "null")*
//	primary    → literal | param | regex | path | identChain | "(" expr ")"
//
// The chaining binary operators are left-associative; comparisons do
// not chain, so a = b = c needs explicit parentheses. The word forms
// and/or/not and the symbol forms &&/||/! are interchangeable on input;
// the AST carries a single operator for each.

// parseExpr parses an expression at the lowest precedence level.
func (p *Parser) parseExpr() ast.Expr {
	left := p.parseAnd()
	if left == nil {
		return nil
	}
	for p.check(token.LOR) || p.checkWord(wordOr) {
		pos := p.token.Pos
		p.nextToken()
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{Pos: pos, Op: token.LOR, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	left := p.parseComparison()
	if left == nil {
		return nil
	}
	for p.check(token.LAND) || p.checkWord(wordAnd) {
		pos := p.token.Pos
		p.nextToken()
		right := p.parseComparison()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{Pos: pos, Op: token.LAND, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseTerm()
	if left == nil {
		return nil
	}
	if ast.IsComparison(p.token.Type) {
		pos := p.token.Pos
		op := p.token.Type
		p.nextToken()
		right := p.parseTerm()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseTerm() ast.Expr {
	left := p.parseFactor()
	if left == nil {
		return nil
	}
	for p.check(token.PLUS) || p.check(token.MINUS) {
		pos := p.token.Pos
		op := p.token.Type
		p.nextToken()
		right := p.parseFactor()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseFactor() ast.Expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for p.check(token.STAR) || p.check(token.SLASH) || p.check(token.PERCENT) {
		pos := p.token.Pos
		op := p.token.Type
		p.nextToken()
		right := p.parseUnary()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	// "not x" and "!x" produce the same node.
	if p.check(token.BANG) || p.checkWord(wordNot) {
		pos := p.token.Pos
		p.nextToken()
		inner := p.parseUnary()
		if inner == nil {
			return nil
		}
		return &ast.UnaryExpr{Pos: pos, Op: token.BANG, Expr: inner}
	}
	if p.check(token.MINUS) {
		pos := p.token.Pos
		p.nextToken()
		inner := p.parseUnary()
		if inner == nil {
			return nil
		}
		return &ast.UnaryExpr{Pos: pos, Op: token.MINUS, Expr: inner}
	}
	return p.parsePostfix()
}

// parsePostfix handles the "is null" / "is not null" suffix. The words
// is/not/null are identifiers everywhere else, so the suffix is only
// taken when the full form is present; "x is y" stays a parse error
// instead of swallowing "is" as an operator.
func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	if e == nil {
		return nil
	}
	for p.checkWord(wordIs) &&
		(p.isWord(p.peek, wordNull) || (p.isWord(p.peek, wordNot) && p.isWord(p.peek2, wordNull))) {
		pos := p.token.Pos
		p.nextToken() // is
		negated := p.matchWord(wordNot)
		p.nextToken() // null
		e = &ast.NullCheck{Pos: pos, Expr: e, Negated: negated}
	}
	return e
}

func (p *Parser) parsePrimary() ast.Expr {
	pos := p.token.Pos
	switch p.token.Type {
	case token.INT:
		lit := &ast.NumberLit{Pos: pos, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.FLOAT:
		lit := &ast.NumberLit{Pos: pos, Value: p.token.Literal, Float: true}
		p.nextToken()
		return lit

	case token.STRING:
		lit := &ast.StringLit{Pos: pos, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.TRUE, token.FALSE:
		lit := &ast.BoolLit{Pos: pos, Value: p.token.Type == token.TRUE}
		p.nextToken()
		return lit

	case token.REGEX:
		lit := p.regexLit()
		p.nextToken()
		return lit

	case token.PARAM:
		lit := &ast.ParamLit{Pos: pos, Name: p.token.Literal}
		p.nextToken()
		return lit

	case token.DOLLAR:
		return p.parsePath()

	case token.LPAREN:
		p.nextToken()
		e := p.parseExpr()
		if e == nil {
			return nil
		}
		if !p.expect(token.RPAREN) {
			return nil
		}
		// Grouping only shapes the parse; no node is retained for it.
		return e

	case token.IDENT:
		return p.parseIdentChain()

	default:
		p.addError("expression")
		return nil
	}
}

// regexLit splits the raw /pattern/flags literal at its closing slash.
func (p *Parser) regexLit() *ast.RegexLit {
	raw := p.token.Literal
	end := strings.LastIndexByte(raw, '/')
	return &ast.RegexLit{
		Pos:     p.token.Pos,
		Pattern: raw[1:end],
		Flags:   raw[end+1:],
	}
}

// parseIdentChain parses a dotted identifier chain: alias, alias.prop,
// alias.rel.prop. Binding to a range happens during semantic analysis.
func (p *Parser) parseIdentChain() ast.Expr {
	pos := p.token.Pos
	segments := []string{p.token.Literal}
	p.nextToken()

	for p.check(token.DOT) {
		p.nextToken()
		if !p.check(token.IDENT) {
			p.addError("property name")
			return nil
		}
		segments = append(segments, p.token.Literal)
		p.nextToken()
	}
	return &ast.Ident{Pos: pos, Segments: segments, Binding: ast.Unbound}
}

// parsePath parses a $-rooted document path: $.items[0].@id
func (p *Parser) parsePath() ast.Expr {
	pos := p.token.Pos
	p.nextToken() // $

	var steps []ast.PathStep
	for {
		switch {
		case p.check(token.DOT) && p.peek.Type == token.AT:
			p.nextToken() // .
			p.nextToken() // @
			if !p.check(token.IDENT) {
				p.addError("attribute name")
				return nil
			}
			steps = append(steps, ast.PathStep{Kind: ast.PathAttr, Name: p.token.Literal})
			p.nextToken()

		case p.check(token.DOT):
			p.nextToken()
			if !p.check(token.IDENT) {
				p.addError("path key")
				return nil
			}
			steps = append(steps, ast.PathStep{Kind: ast.PathKey, Name: p.token.Literal})
			p.nextToken()

		case p.check(token.LBRACKET):
			p.nextToken()
			if !p.check(token.INT) {
				p.addError("path index")
				return nil
			}
			idx, err := strconv.Atoi(p.token.Literal)
			if err != nil {
				p.addError("path index")
				return nil
			}
			p.nextToken()
			if !p.expect(token.RBRACKET) {
				return nil
			}
			steps = append(steps, ast.PathStep{Kind: ast.PathIndex, Index: idx})

		default:
			return &ast.PathLit{Pos: pos, Steps: steps}
		}
	}
}
