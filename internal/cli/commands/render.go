package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/quellabs/quel/internal/cli/config"
	"github.com/quellabs/quel/pkg/ast"
	"github.com/quellabs/quel/pkg/format"
	"github.com/quellabs/quel/pkg/metadata"
	"github.com/quellabs/quel/pkg/plan"
	"github.com/quellabs/quel/pkg/semantic"
	"github.com/quellabs/quel/pkg/sqlgen"
	"github.com/quellabs/quel/pkg/token"
)

// writeTable renders one table in the configured output style: a light
// box drawing for table, pipes for markdown, tab-separated rows for
// plain.
func writeTable(w io.Writer, style string, header table.Row, rows []table.Row) {
	if style == config.OutputPlain {
		for _, row := range rows {
			cells := make([]string, len(row))
			for i, cell := range row {
				cells[i] = fmt.Sprint(cell)
			}
			_, _ = fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.AppendRows(rows)

	if style == config.OutputMarkdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
}

// renderEntityRefs lists the distinct entity ranges a compiled query
// reads, with the table each entity maps to.
func renderEntityRefs(w io.Writer, style string, refs []semantic.EntityRef, store metadata.Store) {
	if len(refs) == 0 {
		return
	}

	rows := make([]table.Row, 0, len(refs))
	for _, ref := range refs {
		tableName := ""
		if e, ok := store.Entity(ref.Entity); ok {
			tableName = e.Table
		}
		rows = append(rows, table.Row{ref.Alias, ref.Entity, tableName})
	}
	writeTable(w, style, table.Row{"Range", "Entity", "Table"}, rows)
}

// renderStatement prints generated SQL with its placeholder names in
// emission order.
func renderStatement(w io.Writer, style string, stmt sqlgen.Statement) {
	if style == config.OutputMarkdown {
		_, _ = fmt.Fprintf(w, "```sql\n%s\n```\n", stmt.SQL)
	} else {
		_, _ = fmt.Fprintln(w, stmt.SQL)
	}
	if len(stmt.Params) > 0 {
		_, _ = fmt.Fprintf(w, "params: %s\n", strings.Join(stmt.Params, ", "))
	}
}

// renderStages prints the stage table for a plan, the join conditions
// of the non-main stages, and which stage carries the final rows.
func renderStages(w io.Writer, style string, p *plan.Plan) {
	rows := make([]table.Row, 0, len(p.Stages))
	for _, s := range p.Stages {
		rows = append(rows, table.Row{
			s.Name,
			stageKind(s),
			strings.Join(stageRanges(s), ", "),
			string(s.JoinType()),
			strings.Join(paramNames(s.StaticParams), ", "),
		})
	}
	writeTable(w, style, table.Row{"Stage", "Kind", "Ranges", "Join", "Params"}, rows)

	for _, s := range p.Stages {
		if s.JoinCondition != nil {
			_, _ = fmt.Fprintf(w, "%s joins on %s\n", s.Name, format.Expr(s.JoinCondition))
		}
	}
	_, _ = fmt.Fprintf(w, "main stage: %s\n", p.MainStage())
}

func stageKind(s *plan.Stage) string {
	for _, r := range s.Query.Ranges {
		if _, ok := r.(*ast.SourceRange); ok {
			return "document"
		}
	}
	return "database"
}

func stageRanges(s *plan.Stage) []string {
	aliases := make([]string, len(s.Query.Ranges))
	for i, r := range s.Query.Ranges {
		aliases[i] = r.RangeAlias()
	}
	return aliases
}

func paramNames(params map[string]any) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// renderTokens prints the lexed token stream with source positions.
func renderTokens(w io.Writer, style string, toks []token.Token) {
	rows := make([]table.Row, 0, len(toks))
	for _, tok := range toks {
		rows = append(rows, table.Row{tok.Pos.String(), tok.Type.String(), tok.Literal})
	}
	writeTable(w, style, table.Row{"Pos", "Type", "Literal"}, rows)
}

// writeAST prints an indented sketch of a syntax tree. Identifiers show
// the range index they resolved to, so the dump doubles as a binding
// check.
func writeAST(w io.Writer, q *ast.Retrieve) {
	p := &astPrinter{w: w}
	p.retrieve(q)
}

type astPrinter struct {
	w     io.Writer
	depth int
}

func (p *astPrinter) line(msg string, args ...any) {
	_, _ = fmt.Fprintf(p.w, "%s", strings.Repeat("  ", p.depth))
	_, _ = fmt.Fprintf(p.w, msg, args...)
	_, _ = fmt.Fprintln(p.w)
}

func (p *astPrinter) nested(f func()) {
	p.depth++
	f()
	p.depth--
}

func (p *astPrinter) retrieve(q *ast.Retrieve) {
	label := "retrieve"
	if q.Unique {
		label += " unique"
	}
	p.line("%s", label)
	p.nested(func() {
		for _, r := range q.Ranges {
			p.rangeDecl(r)
		}
		for _, item := range q.Projection {
			if item.Alias != "" {
				p.line("project as %s", item.Alias)
			} else {
				p.line("project")
			}
			p.nested(func() { p.expr(item.Expr) })
		}
		if q.Where != nil {
			p.line("where")
			p.nested(func() { p.expr(q.Where) })
		}
	})
}

func (p *astPrinter) rangeDecl(r ast.RangeDecl) {
	switch r := r.(type) {
	case *ast.EntityRange:
		p.line("range %s is %s", r.Alias, r.Entity)
		if r.Via != nil {
			p.nested(func() {
				p.line("via")
				p.nested(func() { p.expr(r.Via) })
			})
		}
	case *ast.SourceRange:
		p.line("range %s is source %q", r.Alias, r.Locator)
		p.nested(func() { p.expr(r.Path) })
	}
}

func (p *astPrinter) expr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.BinaryExpr:
		p.line("binary %s", e.Op)
		p.nested(func() {
			p.expr(e.Left)
			p.expr(e.Right)
		})
	case *ast.UnaryExpr:
		p.line("unary %s", e.Op)
		p.nested(func() { p.expr(e.Expr) })
	case *ast.NullCheck:
		if e.Negated {
			p.line("is not null")
		} else {
			p.line("is null")
		}
		p.nested(func() { p.expr(e.Expr) })
	case *ast.Ident:
		if e.Bound() {
			p.line("ident %s (range %d)", e, e.Binding)
		} else {
			p.line("ident %s", e)
		}
	case *ast.StringLit:
		p.line("string %q", e.Value)
	case *ast.NumberLit:
		p.line("number %s", e.Value)
	case *ast.BoolLit:
		p.line("bool %t", e.Value)
	case *ast.RegexLit:
		p.line("regex /%s/%s", e.Pattern, e.Flags)
	case *ast.ParamLit:
		p.line("param :%s", e.Name)
	case *ast.PathLit:
		p.line("path %s", e)
	}
}
