package semantic

import (
	"fmt"

	"github.com/quellabs/quel/pkg/ast"
	"github.com/quellabs/quel/pkg/metadata"
	"github.com/quellabs/quel/pkg/token"
)

// rewriteRelations replaces every comparison over a relation property
// with a join equality between the relation's target range and its
// owning range. The rewrite is functional: subtrees are returned
// new-or-unchanged and spliced back through the node setters.
func (a *analyzer) rewriteRelations() error {
	for _, r := range a.query.Ranges {
		er, ok := r.(*ast.EntityRange)
		if !ok || er.Via == nil {
			continue
		}
		via, err := a.rewriteExpr(er.Via, ClauseVia)
		if err != nil {
			return err
		}
		er.SetVia(via)
	}
	for _, item := range a.query.Projection {
		expr, err := a.rewriteExpr(item.Expr, ClauseProjection)
		if err != nil {
			return err
		}
		item.SetExpr(expr)
	}
	if a.query.Where != nil {
		where, err := a.rewriteExpr(a.query.Where, ClauseWhere)
		if err != nil {
			return err
		}
		a.query.SetWhere(where)
	}
	return nil
}

func (a *analyzer) rewriteExpr(e ast.Expr, clause string) (ast.Expr, error) {
	switch n := e.(type) {
	case *ast.BinaryExpr:
		if ast.IsComparison(n.Op) {
			repl, err := a.rewriteComparison(n, clause)
			if err != nil {
				return nil, err
			}
			if repl != nil {
				return repl, nil
			}
		}
		left, err := a.rewriteExpr(n.Left, clause)
		if err != nil {
			return nil, err
		}
		n.SetLeft(left)
		right, err := a.rewriteExpr(n.Right, clause)
		if err != nil {
			return nil, err
		}
		n.SetRight(right)
		return n, nil

	case *ast.UnaryExpr:
		inner, err := a.rewriteExpr(n.Expr, clause)
		if err != nil {
			return nil, err
		}
		n.SetExpr(inner)
		return n, nil

	case *ast.NullCheck:
		inner, err := a.rewriteExpr(n.Expr, clause)
		if err != nil {
			return nil, err
		}
		n.SetExpr(inner)
		return n, nil

	default:
		return e, nil
	}
}

// rewriteComparison returns the replacement equality when either operand
// is a relation property, nil when the comparison is left alone.
func (a *analyzer) rewriteComparison(cmp *ast.BinaryExpr, clause string) (ast.Expr, error) {
	if repl, err := a.rewriteRelationOperand(cmp, cmp.Left, cmp.Right, clause); repl != nil || err != nil {
		return repl, err
	}
	return a.rewriteRelationOperand(cmp, cmp.Right, cmp.Left, clause)
}

func (a *analyzer) rewriteRelationOperand(cmp *ast.BinaryExpr, operand, other ast.Expr, clause string) (ast.Expr, error) {
	id, ok := operand.(*ast.Ident)
	if !ok || !id.Bound() || len(id.Segments) != 2 {
		return nil, nil
	}
	owner := a.entityRange(id.Binding)
	if owner == nil {
		return nil, nil
	}
	ownerEntity, ok := a.store.Entity(owner.Entity)
	if !ok {
		return nil, nil
	}
	rel, ok := ownerEntity.Relation(id.Segments[1])
	if !ok {
		return nil, nil
	}

	targetIdx := a.targetRange(rel, other)
	if targetIdx < 0 {
		return nil, &Error{
			Clause: clause,
			Message: fmt.Sprintf("relation %s targets entity %s, but no range over it is declared",
				id.String(), rel.Target),
		}
	}
	targetEntity, ok := a.store.Entity(rel.Target)
	if !ok {
		return nil, &Error{
			Clause:  clause,
			Message: fmt.Sprintf("relation %s targets unknown entity %s", id.String(), rel.Target),
		}
	}

	// Join column hint: explicit column, then inversedBy, then mappedBy,
	// then the owning entity's primary key.
	hint := rel.Column
	if hint == "" {
		hint = rel.InversedBy
	}
	if hint == "" {
		hint = rel.MappedBy
	}
	if hint == "" {
		hint = ownerEntity.PrimaryKey()
	}

	target := a.query.Ranges[targetIdx].(*ast.EntityRange)
	return &ast.BinaryExpr{
		Pos: cmp.Pos,
		Op:  token.EQ,
		Left: &ast.Ident{
			Pos:      cmp.Pos,
			Segments: []string{target.Alias, targetEntity.PrimaryKey()},
			Binding:  targetIdx,
		},
		Right: &ast.Ident{
			Pos:      cmp.Pos,
			Segments: []string{owner.Alias, hint},
			Binding:  id.Binding,
		},
	}, nil
}

// targetRange picks the range the synthesized equality joins against:
// the other operand's range when it is bound to the relation's target
// entity, otherwise the first declared range over that entity.
func (a *analyzer) targetRange(rel metadata.Relation, other ast.Expr) int {
	if oid, ok := other.(*ast.Ident); ok && oid.Bound() {
		if er := a.entityRange(oid.Binding); er != nil && er.Entity == rel.Target {
			return oid.Binding
		}
	}
	for i, r := range a.query.Ranges {
		if er, ok := r.(*ast.EntityRange); ok && er.Entity == rel.Target {
			return i
		}
	}
	return -1
}
