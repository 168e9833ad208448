// Package sqlgen renders an analyzed all-relational query as a single
// SQL SELECT statement. Queries that read document sources have no
// single-statement form and must go through the execution planner.
package sqlgen

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/quellabs/quel/pkg/ast"
	"github.com/quellabs/quel/pkg/metadata"
	"github.com/quellabs/quel/pkg/semantic"
)

// Statement is a generated SQL statement. Params lists the names of the
// bound parameters in placeholder order.
type Statement struct {
	SQL    string
	Params []string
}

// Generate renders res as one SELECT statement against the tables and
// columns described by store.
func Generate(res *semantic.Result, store metadata.Store) (Statement, error) {
	if res == nil || res.Query == nil {
		return Statement{}, errors.New("nil semantic result")
	}
	if store == nil {
		return Statement{}, errors.New("nil metadata store")
	}
	for _, r := range res.Query.Ranges {
		if src, ok := r.(*ast.SourceRange); ok {
			return Statement{}, fmt.Errorf("range %s reads a document source; use the execution planner", src.Alias)
		}
	}

	g := &generator{query: res.Query, store: store}
	g.selectClause()
	g.fromClause()
	g.whereClause()
	if g.err != nil {
		return Statement{}, g.err
	}
	return Statement{SQL: g.buf.String(), Params: g.params}, nil
}

type generator struct {
	buf    strings.Builder
	query  *ast.Retrieve
	store  metadata.Store
	params []string
	err    error
}

// fail records the first generation error; rendering keeps going but
// the output is discarded.
func (g *generator) fail(format string, args ...any) {
	if g.err == nil {
		g.err = fmt.Errorf(format, args...)
	}
}

func (g *generator) write(s string) {
	g.buf.WriteString(s)
}

func (g *generator) selectClause() {
	g.write("SELECT ")
	if g.query.Unique {
		g.write("DISTINCT ")
	}

	first := true
	item := func(render func()) {
		if !first {
			g.write(", ")
		}
		first = false
		render()
	}

	for _, proj := range g.query.Projection {
		if id, ok := proj.Expr.(*ast.Ident); ok && id.IsEntity() {
			g.expandEntity(proj, id, item)
			continue
		}
		item(func() {
			g.expr(proj.Expr)
			if proj.Alias != "" {
				g.write(" AS ")
				g.write(proj.Alias)
			}
		})
	}
}

// expandEntity replaces a whole-entity projection with the entity's
// columns: identifier properties in declared order, then the remaining
// mapped properties sorted by name.
func (g *generator) expandEntity(proj *ast.ProjectionItem, id *ast.Ident, item func(func())) {
	if proj.Alias != "" {
		g.fail("cannot alias the entity projection %s", id.Root())
		return
	}
	rng, ok := g.query.Range(id.Binding).(*ast.EntityRange)
	if !ok {
		g.fail("unresolved identifier %s", id.Root())
		return
	}
	entity, ok := g.store.Entity(rng.Entity)
	if !ok {
		g.fail("unknown entity %s", rng.Entity)
		return
	}

	emit := func(col string) {
		item(func() {
			g.write(id.Root())
			g.write(".")
			g.write(col)
		})
	}
	seen := make(map[string]bool)
	for _, prop := range entity.ID {
		emit(entity.Column(prop))
		seen[prop] = true
	}
	props := make([]string, 0, len(entity.Columns))
	for prop := range entity.Columns {
		if !seen[prop] {
			props = append(props, prop)
		}
	}
	sort.Strings(props)
	for _, prop := range props {
		emit(entity.Column(prop))
	}
}

func (g *generator) fromClause() {
	if len(g.query.Ranges) == 0 {
		return
	}
	g.write(" FROM ")
	for i, r := range g.query.Ranges {
		rng := r.(*ast.EntityRange)
		entity, ok := g.store.Entity(rng.Entity)
		if !ok {
			g.fail("unknown entity %s", rng.Entity)
			return
		}
		if i > 0 {
			g.write(", ")
		}
		g.write(entity.Table)
		g.write(" ")
		g.write(rng.Alias)
	}
}

// whereClause joins the via expressions, in declaration order, with the
// where clause under AND.
func (g *generator) whereClause() {
	var conjuncts []ast.Expr
	for _, r := range g.query.Ranges {
		if rng, ok := r.(*ast.EntityRange); ok && rng.Via != nil {
			conjuncts = append(conjuncts, rng.Via)
		}
	}
	if g.query.Where != nil {
		conjuncts = append(conjuncts, g.query.Where)
	}
	if len(conjuncts) == 0 {
		return
	}
	g.write(" WHERE ")
	for i, c := range conjuncts {
		if i > 0 {
			g.write(" AND ")
		}
		g.child(c, precAnd)
	}
}
