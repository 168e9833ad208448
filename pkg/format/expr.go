package format

import (
	"github.com/quellabs/quel/pkg/ast"
	"github.com/quellabs/quel/pkg/token"
)

// Precedence levels, loosest first, mirroring the grammar layers.
const (
	precOr = iota + 1
	precAnd
	precCmp
	precTerm
	precFactor
	precUnary
	precPostfix
	precPrimary
)

func opPrec(op token.Type) int {
	switch op {
	case token.LOR:
		return precOr
	case token.LAND:
		return precAnd
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE,
		token.MATCH, token.NOTMATCH:
		return precCmp
	case token.PLUS, token.MINUS:
		return precTerm
	default: // STAR, SLASH, PERCENT
		return precFactor
	}
}

// prec reports the precedence level e parses back at.
func prec(e ast.Expr) int {
	switch x := e.(type) {
	case *ast.BinaryExpr:
		return opPrec(x.Op)
	case *ast.UnaryExpr:
		return precUnary
	case *ast.NullCheck:
		return precPostfix
	default:
		return precPrimary
	}
}

func (p *printer) formatExpr(e ast.Expr) {
	if e == nil {
		return
	}

	switch expr := e.(type) {
	case *ast.Ident:
		p.write(expr.String())
	case *ast.BinaryExpr:
		p.formatBinaryExpr(expr)
	case *ast.UnaryExpr:
		p.formatUnaryExpr(expr)
	case *ast.NullCheck:
		p.formatNullCheck(expr)
	case *ast.StringLit:
		p.quote(expr.Value)
	case *ast.NumberLit:
		p.write(expr.Value)
	case *ast.BoolLit:
		if expr.Value {
			p.write("true")
		} else {
			p.write("false")
		}
	case *ast.RegexLit:
		p.write("/")
		p.write(expr.Pattern)
		p.write("/")
		p.write(expr.Flags)
	case *ast.ParamLit:
		p.write(":")
		p.write(expr.Name)
	case *ast.PathLit:
		p.write(expr.String())
	}
}

// child renders e, parenthesized when it would parse back at a looser
// level than its position requires.
func (p *printer) child(e ast.Expr, min int) {
	if prec(e) < min {
		p.write("(")
		p.formatExpr(e)
		p.write(")")
		return
	}
	p.formatExpr(e)
}

func (p *printer) formatBinaryExpr(expr *ast.BinaryExpr) {
	level := opPrec(expr.Op)
	leftMin := level
	if level == precCmp {
		// Comparisons do not chain; a comparison operand needs parens
		// on either side.
		leftMin = level + 1
	}
	p.child(expr.Left, leftMin)
	p.space()
	p.op(expr.Op)
	p.space()
	p.child(expr.Right, level+1)
}

// op writes the canonical operator spelling: word forms for the logical
// operators, the token's symbol otherwise.
func (p *printer) op(op token.Type) {
	switch op {
	case token.LAND:
		p.write("and")
	case token.LOR:
		p.write("or")
	default:
		p.write(op.String())
	}
}

func (p *printer) formatUnaryExpr(expr *ast.UnaryExpr) {
	if expr.Op == token.BANG {
		p.write("not ")
		p.child(expr.Expr, precUnary)
		return
	}
	p.write("-")
	// -- would open a line comment.
	if inner, ok := expr.Expr.(*ast.UnaryExpr); ok && inner.Op == token.MINUS {
		p.space()
	}
	p.child(expr.Expr, precUnary)
}

func (p *printer) formatNullCheck(expr *ast.NullCheck) {
	p.child(expr.Expr, precPostfix)
	p.write(" is ")
	if expr.Negated {
		p.write("not ")
	}
	p.write("null")
}
