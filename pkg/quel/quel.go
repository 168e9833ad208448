package quel

import (
	"log/slog"

	"github.com/quellabs/quel/pkg/ast"
	"github.com/quellabs/quel/pkg/metadata"
	"github.com/quellabs/quel/pkg/parser"
	"github.com/quellabs/quel/pkg/plan"
	"github.com/quellabs/quel/pkg/semantic"
	"github.com/quellabs/quel/pkg/sqlgen"
)

// Compiler compiles query text against one entity catalog. It is safe
// for concurrent use: every compilation owns its lexer, parser and AST,
// and the catalog is read-only.
type Compiler struct {
	store  metadata.Store
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger routes the compiler's debug logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Compiler over store.
func New(store metadata.Store, opts ...Option) *Compiler {
	c := &Compiler{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compiled is a compiled query: the analyzed AST, with relation
// comparisons rewritten and identifiers bound, plus the database ranges
// the query reads.
type Compiled struct {
	Query      *ast.Retrieve
	EntityRefs []semantic.EntityRef

	store metadata.Store
	res   *semantic.Result
}

// Compile lexes, parses and analyzes src. Failures come back as the
// stage's typed error (parser.LexError, parser.ParseError,
// semantic.Error) without further wrapping.
func (c *Compiler) Compile(src string) (*Compiled, error) {
	query, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	res, err := semantic.Analyze(query, c.store)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("compiled query",
		"ranges", len(res.Query.Ranges),
		"entity_refs", len(res.EntityRefs))
	return &Compiled{
		Query:      res.Query,
		EntityRefs: res.EntityRefs,
		store:      c.store,
		res:        res,
	}, nil
}

// Plan compiles src and builds its execution plan.
func (c *Compiler) Plan(src string, opts ...plan.Option) (*plan.Plan, error) {
	compiled, err := c.Compile(src)
	if err != nil {
		return nil, err
	}
	p, err := compiled.Plan(opts...)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("planned query",
		"stages", len(p.Stages),
		"main_stage", p.MainStage())
	return p, nil
}

// SQL compiles src and renders it as a single SQL statement.
func (c *Compiler) SQL(src string) (sqlgen.Statement, error) {
	compiled, err := c.Compile(src)
	if err != nil {
		return sqlgen.Statement{}, err
	}
	return compiled.SQL()
}

// Plan builds the execution plan for the compiled query.
func (q *Compiled) Plan(opts ...plan.Option) (*plan.Plan, error) {
	return plan.Build(q.res, opts...)
}

// SQL renders the compiled query as a single SQL statement. Queries
// that read document sources have no single-statement form; use Plan.
func (q *Compiled) SQL() (sqlgen.Statement, error) {
	return sqlgen.Generate(q.res, q.store)
}
