// Package plan turns an analyzed retrieve into an ordered execution
// plan: one stage for the relational ranges plus one stage per
// document-source range. Stages are produced for an external executor;
// nothing in this package runs them.
package plan

import (
	"github.com/quellabs/quel/pkg/ast"
)

// Error is a planning failure.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "plan error: " + e.Message
}

// JoinType describes how a stage's rows combine with the rows gathered
// so far.
type JoinType string

const (
	JoinLeft  JoinType = "left"
	JoinCross JoinType = "cross"
)

// Row is one result row as handed around between stages.
type Row map[string]any

// ResultProcessor transforms a stage's raw rows after it executes.
type ResultProcessor func(rows []Row) []Row

// Stage is one unit of execution. Its query shares subtrees with the
// compiled retrieve; identifier bindings stay indexes into the compiled
// query's range list, while Ranges lists only the declarations this
// stage reads.
type Stage struct {
	Name          string
	Query         *ast.Retrieve
	Range         ast.RangeDecl // set when the stage reads exactly one range
	StaticParams  map[string]any
	JoinCondition ast.Expr

	// ResultProcessor runs in the executor after the stage completes.
	// Document stages default to projecting raw rows down to the
	// stage's projected properties.
	ResultProcessor ResultProcessor
}

// JoinType derives the stage's join behavior: a join condition makes it
// a left join, no condition a cross join.
func (s *Stage) JoinType() JoinType {
	if s.JoinCondition != nil {
		return JoinLeft
	}
	return JoinCross
}

// Plan is the ordered stage list for one compiled query. It owns its
// stages exclusively.
type Plan struct {
	Stages []*Stage
}

// MainStage returns the name of the stage whose rows form the final
// result: the sole stage's name, or the literal "main" when several
// stages exist.
func (p *Plan) MainStage() string {
	if len(p.Stages) == 1 {
		return p.Stages[0].Name
	}
	return "main"
}

// Stage returns the named stage, or nil.
func (p *Plan) Stage(name string) *Stage {
	for _, s := range p.Stages {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Option configures Build.
type Option func(*builder)

// WithParams supplies values for the query's :name parameters. Each
// stage receives the values it references; a referenced parameter with
// no value fails the build.
func WithParams(params map[string]any) Option {
	return func(b *builder) {
		for name, value := range params {
			b.params[name] = value
		}
	}
}

// WithResultProcessor overrides the result processor of one stage.
func WithResultProcessor(stageName string, fn ResultProcessor) Option {
	return func(b *builder) {
		b.procs[stageName] = fn
	}
}
