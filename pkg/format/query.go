package format

import (
	"github.com/quellabs/quel/pkg/ast"
)

func (p *printer) formatQuery(q *ast.Retrieve) {
	if q == nil {
		return
	}
	for _, r := range q.Ranges {
		p.formatRange(r)
		p.writeln()
	}
	p.formatRetrieve(q)
}

func (p *printer) formatRange(r ast.RangeDecl) {
	switch decl := r.(type) {
	case *ast.EntityRange:
		p.write("range of ")
		p.write(decl.Alias)
		p.write(" is ")
		p.write(decl.Entity)
		if decl.Via != nil {
			p.write(" via ")
			p.formatExpr(decl.Via)
		}
	case *ast.SourceRange:
		p.write(decl.Alias)
		p.write(" is SOURCE(")
		p.quote(decl.Locator)
		p.write(", ")
		p.formatExpr(decl.Path)
		p.write(")")
	}
}

func (p *printer) formatRetrieve(q *ast.Retrieve) {
	p.write("retrieve ")
	if q.Unique {
		p.write("unique ")
	}
	p.write("(")
	for i, item := range q.Projection {
		if i > 0 {
			p.write(", ")
		}
		p.formatExpr(item.Expr)
		if item.Alias != "" {
			p.write(" as ")
			p.write(item.Alias)
		}
	}
	p.write(")")
	if q.Where != nil {
		p.write(" where ")
		p.formatExpr(q.Where)
	}
}
