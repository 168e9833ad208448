// Package semantic runs the analysis pipeline over a parsed retrieve:
// range binding, relation-to-join rewriting, validation, and entity
// reference collection. Passes run in a fixed order and the first
// failure aborts the compilation.
package semantic

import (
	"fmt"

	"github.com/quellabs/quel/pkg/ast"
	"github.com/quellabs/quel/pkg/metadata"
)

// Clause names used in error reporting.
const (
	ClauseRange      = "range"
	ClauseVia        = "via"
	ClauseProjection = "projection"
	ClauseWhere      = "where"
)

// Error is a semantic failure tied to the clause it was found in.
type Error struct {
	Message string
	Clause  string
}

func (e *Error) Error() string {
	if e.Clause == "" {
		return "semantic error: " + e.Message
	}
	return fmt.Sprintf("semantic error in %s clause: %s", e.Clause, e.Message)
}

// EntityRef is one distinct database range referenced by the query.
type EntityRef struct {
	Range  *ast.EntityRange
	Alias  string
	Entity string
}

// Result carries the analyzed query and the entity references collected
// from it, in first-appearance order.
type Result struct {
	Query      *ast.Retrieve
	EntityRefs []EntityRef
}

// Analyze runs the pass pipeline over q, mutating it in place:
//
//  1. bind identifiers to their ranges by first segment
//  2. rewrite relation-property comparisons into join equalities
//  3. validate entity operands, via targets, and identifier resolution
//  4. collect distinct entity references
//
// q must not be shared with another compilation.
func Analyze(q *ast.Retrieve, store metadata.Store) (*Result, error) {
	if q == nil {
		return nil, &Error{Message: "nil query"}
	}
	if store == nil {
		return nil, &Error{Message: "nil metadata store"}
	}

	a := &analyzer{query: q, store: store}
	if err := a.bindRanges(); err != nil {
		return nil, err
	}
	if err := a.rewriteRelations(); err != nil {
		return nil, err
	}
	if err := a.validateEntityOperands(); err != nil {
		return nil, err
	}
	if err := a.validateViaTargets(); err != nil {
		return nil, err
	}
	if err := a.validateResolution(); err != nil {
		return nil, err
	}
	return &Result{Query: q, EntityRefs: a.collectEntityRefs()}, nil
}

// analyzer holds the state shared by the passes of one compilation.
type analyzer struct {
	query *ast.Retrieve
	store metadata.Store
}

// bindRanges attaches each unbound identifier to the range matching its
// first segment. Identifiers matching no alias stay unbound for the
// resolution validator. Every declared entity range must exist in the
// metadata store.
func (a *analyzer) bindRanges() error {
	for _, r := range a.query.Ranges {
		er, ok := r.(*ast.EntityRange)
		if !ok {
			continue
		}
		if _, found := a.store.Entity(er.Entity); !found {
			return &Error{
				Clause:  ClauseRange,
				Message: fmt.Sprintf("unknown entity %s", er.Entity),
			}
		}
	}

	ast.Inspect(a.query, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && !id.Bound() {
			if idx := a.query.FindRange(id.Root()); idx >= 0 {
				id.Binding = idx
			}
		}
		return true
	})
	return nil
}

// entityRange returns the database range at index idx, or nil when the
// index is unbound or names a document range.
func (a *analyzer) entityRange(idx int) *ast.EntityRange {
	if idx < 0 || idx >= len(a.query.Ranges) {
		return nil
	}
	er, _ := a.query.Ranges[idx].(*ast.EntityRange)
	return er
}

// collectEntityRefs gathers the distinct (range, entity) pairs of all
// identifiers bound to database ranges, in traversal order.
func (a *analyzer) collectEntityRefs() []EntityRef {
	var refs []EntityRef
	seen := make(map[int]bool)

	ast.Inspect(a.query, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok || !id.Bound() {
			return true
		}
		er := a.entityRange(id.Binding)
		if er == nil || seen[id.Binding] {
			return true
		}
		seen[id.Binding] = true
		refs = append(refs, EntityRef{Range: er, Alias: er.Alias, Entity: er.Entity})
		return true
	})
	return refs
}
