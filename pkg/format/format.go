// Package format renders a parsed query back to canonical source text.
//
// The canonical form is a fixed point: formatting a query, parsing the
// result and formatting again yields byte-identical text. Word operators
// (and, or, not) are canonical; their symbol spellings and <> normalize
// away. Grouping parentheses are re-derived from precedence, so only the
// ones that change the parse survive.
package format

import (
	"github.com/quellabs/quel/pkg/ast"
)

// Query renders q in canonical form, one range declaration per line
// followed by the retrieve clause. The result ends in a newline.
func Query(q *ast.Retrieve) string {
	p := newPrinter()
	p.formatQuery(q)
	return p.text()
}

// Expr renders a single expression on one line, without a trailing
// newline.
func Expr(e ast.Expr) string {
	p := newPrinter()
	p.formatExpr(e)
	return p.buf.String()
}
