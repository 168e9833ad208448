package semantic

import (
	"fmt"

	"github.com/quellabs/quel/pkg/ast"
)

// validateEntityOperands rejects whole-entity identifiers used where
// only property-level values make sense: as an operand of an arithmetic
// or comparison operator, or as the where-clause root.
func (a *analyzer) validateEntityOperands() error {
	if id, ok := a.query.Where.(*ast.Ident); ok && len(id.Segments) == 1 {
		return &Error{
			Clause:  ClauseWhere,
			Message: fmt.Sprintf("expressions on entities are not allowed: %s", id.String()),
		}
	}

	for _, r := range a.query.Ranges {
		if er, ok := r.(*ast.EntityRange); ok && er.Via != nil {
			if err := a.checkEntityOperands(er.Via, ClauseVia); err != nil {
				return err
			}
		}
	}
	for _, item := range a.query.Projection {
		if err := a.checkEntityOperands(item.Expr, ClauseProjection); err != nil {
			return err
		}
	}
	if a.query.Where != nil {
		if err := a.checkEntityOperands(a.query.Where, ClauseWhere); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) checkEntityOperands(e ast.Expr, clause string) error {
	var found *ast.Ident
	ast.Inspect(e, func(n ast.Node) bool {
		b, ok := n.(*ast.BinaryExpr)
		if !ok || (!ast.IsArithmetic(b.Op) && !ast.IsComparison(b.Op)) {
			return true
		}
		for _, side := range []ast.Expr{b.Left, b.Right} {
			if id := a.wholeEntityIdent(side); id != nil {
				found = id
				return false
			}
		}
		return true
	})
	if found == nil {
		return nil
	}
	return &Error{
		Clause:  clause,
		Message: fmt.Sprintf("expressions on entities are not allowed: %s", found.String()),
	}
}

// wholeEntityIdent returns id when it denotes an entire database-range
// entity rather than one of its properties.
func (a *analyzer) wholeEntityIdent(e ast.Expr) *ast.Ident {
	id, ok := e.(*ast.Ident)
	if !ok || len(id.Segments) != 1 || !id.Bound() {
		return nil
	}
	if a.entityRange(id.Binding) == nil {
		return nil
	}
	return id
}

// validateViaTargets requires every identifier inside a via join
// expression to resolve to a declared range.
func (a *analyzer) validateViaTargets() error {
	for _, r := range a.query.Ranges {
		er, ok := r.(*ast.EntityRange)
		if !ok || er.Via == nil {
			continue
		}
		if id := firstUnbound(er.Via); id != nil {
			return &Error{
				Clause: ClauseVia,
				Message: fmt.Sprintf("identifier %s in via expression does not resolve to a declared range",
					id.String()),
			}
		}
	}
	return nil
}

// validateResolution enforces that every identifier left in the
// projection or where clause is bound to a range.
func (a *analyzer) validateResolution() error {
	for _, item := range a.query.Projection {
		if id := firstUnbound(item.Expr); id != nil {
			return &Error{
				Clause:  ClauseProjection,
				Message: fmt.Sprintf("unresolved identifier %s", id.String()),
			}
		}
	}
	if a.query.Where != nil {
		if id := firstUnbound(a.query.Where); id != nil {
			return &Error{
				Clause:  ClauseWhere,
				Message: fmt.Sprintf("unresolved identifier %s", id.String()),
			}
		}
	}
	return nil
}

// firstUnbound returns the first unbound identifier in traversal order.
func firstUnbound(e ast.Expr) *ast.Ident {
	var found *ast.Ident
	ast.Inspect(e, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && !id.Bound() {
			found = id
			return false
		}
		return true
	})
	return found
}
