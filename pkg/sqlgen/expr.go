package sqlgen

import (
	"strings"

	"github.com/quellabs/quel/pkg/ast"
	"github.com/quellabs/quel/pkg/token"
)

// Precedence levels of the SQL being emitted, loosest first. SQL lays
// its operators out differently from the query language: NOT sits
// between AND and the comparisons, and IS NULL parses at comparison
// level. Parenthesization follows this ladder, not the source
// grammar's.
const (
	precOr = iota + 1
	precAnd
	precNot
	precCmp
	precTerm
	precFactor
	precNeg
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
	default:
		return precFactor
	}
}

func prec(e ast.Expr) int {
	switch x := e.(type) {
	case *ast.BinaryExpr:
		return opPrec(x.Op)
	case *ast.UnaryExpr:
		if x.Op == token.BANG {
			return precNot
		}
		return precNeg
	case *ast.NullCheck:
		return precCmp
	default:
		return precPrimary
	}
}

func sqlOp(op token.Type) string {
	switch op {
	case token.EQ:
		return "="
	case token.NE:
		return "<>"
	case token.MATCH:
		return "REGEXP"
	case token.NOTMATCH:
		return "NOT REGEXP"
	case token.LAND:
		return "AND"
	case token.LOR:
		return "OR"
	default:
		return op.String()
	}
}

func (g *generator) expr(e ast.Expr) {
	switch x := e.(type) {
	case *ast.Ident:
		g.ident(x)
	case *ast.BinaryExpr:
		g.binary(x)
	case *ast.UnaryExpr:
		g.unary(x)
	case *ast.NullCheck:
		g.child(x.Expr, precTerm)
		g.write(" IS ")
		if x.Negated {
			g.write("NOT ")
		}
		g.write("NULL")
	case *ast.StringLit:
		g.quote(x.Value)
	case *ast.NumberLit:
		g.write(x.Value)
	case *ast.BoolLit:
		if x.Value {
			g.write("TRUE")
		} else {
			g.write("FALSE")
		}
	case *ast.RegexLit:
		g.regex(x)
	case *ast.ParamLit:
		g.write("?")
		g.params = append(g.params, x.Name)
	case *ast.PathLit:
		g.fail("document path %s has no SQL form", x.String())
	}
}

// child renders e, parenthesized when SQL would parse it back at a
// looser level than its position requires.
func (g *generator) child(e ast.Expr, min int) {
	if prec(e) < min {
		g.write("(")
		g.expr(e)
		g.write(")")
		return
	}
	g.expr(e)
}

func (g *generator) binary(x *ast.BinaryExpr) {
	level := opPrec(x.Op)
	leftMin := level
	if level == precCmp {
		leftMin = level + 1
	}
	g.child(x.Left, leftMin)
	g.write(" ")
	g.write(sqlOp(x.Op))
	g.write(" ")
	g.child(x.Right, level+1)
}

func (g *generator) unary(x *ast.UnaryExpr) {
	if x.Op == token.BANG {
		g.write("NOT ")
		g.child(x.Expr, precNot)
		return
	}
	g.write("-")
	// -- would open a line comment.
	if inner, ok := x.Expr.(*ast.UnaryExpr); ok && inner.Op == token.MINUS {
		g.write(" ")
	}
	g.child(x.Expr, precNeg)
}

// ident renders alias.column through the entity's column map.
func (g *generator) ident(id *ast.Ident) {
	if id.IsEntity() {
		g.fail("entity %s cannot appear in an expression", id.Root())
		return
	}
	if len(id.Segments) > 2 {
		g.fail("nested property %s has no SQL column", id)
		return
	}
	rng, ok := g.query.Range(id.Binding).(*ast.EntityRange)
	if !ok {
		g.fail("unresolved identifier %s", id)
		return
	}
	entity, ok := g.store.Entity(rng.Entity)
	if !ok {
		g.fail("unknown entity %s", rng.Entity)
		return
	}
	g.write(id.Root())
	g.write(".")
	g.write(entity.Column(id.Property()))
}

// quote renders a SQL string literal, doubling embedded quotes.
func (g *generator) quote(s string) {
	g.write("'")
	g.write(strings.ReplaceAll(s, "'", "''"))
	g.write("'")
}

// regex renders a regex literal as a REGEXP pattern string. Flags fold
// in as an inline group; the \/ delimiter escape unwraps.
func (g *generator) regex(x *ast.RegexLit) {
	pattern := strings.ReplaceAll(x.Pattern, `\/`, "/")
	if x.Flags != "" {
		pattern = "(?" + x.Flags + ")" + pattern
	}
	g.quote(pattern)
}
