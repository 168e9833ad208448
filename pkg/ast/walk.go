package ast

// Visitor is the single-method traversal contract. Visit observes a node
// and returns the visitor to use for its children (commonly itself), or
// nil to skip the subtree. A non-nil error aborts the walk immediately.
type Visitor interface {
	Visit(n Node) (w Visitor, err error)
}

// Walk traverses the tree rooted at n in depth-first order, calling
// v.Visit for each node. Child order is fixed: binary forms visit left
// before right, unary forms visit the inner expression, and a Retrieve
// visits its range list (each range's join expression included), then
// its projection list, then the where clause.
func Walk(v Visitor, n Node) error {
	if n == nil {
		return nil
	}
	w, err := v.Visit(n)
	if err != nil {
		return err
	}
	if w == nil {
		return nil
	}

	switch n := n.(type) {
	case *Retrieve:
		for _, r := range n.Ranges {
			if err := Walk(w, r); err != nil {
				return err
			}
		}
		for _, item := range n.Projection {
			if err := Walk(w, item.Expr); err != nil {
				return err
			}
		}
		if n.Where != nil {
			if err := Walk(w, n.Where); err != nil {
				return err
			}
		}

	case *EntityRange:
		if n.Via != nil {
			if err := Walk(w, n.Via); err != nil {
				return err
			}
		}

	case *SourceRange:
		if n.Path != nil {
			if err := Walk(w, n.Path); err != nil {
				return err
			}
		}

	case *BinaryExpr:
		if err := Walk(w, n.Left); err != nil {
			return err
		}
		if err := Walk(w, n.Right); err != nil {
			return err
		}

	case *UnaryExpr:
		if err := Walk(w, n.Expr); err != nil {
			return err
		}

	case *NullCheck:
		if err := Walk(w, n.Expr); err != nil {
			return err
		}

	case *Ident, *StringLit, *NumberLit, *BoolLit, *RegexLit, *ParamLit, *PathLit:
		// leaves
	}

	return nil
}

// inspector adapts a func(Node) bool to the Visitor interface.
type inspector func(Node) bool

func (f inspector) Visit(n Node) (Visitor, error) {
	if f(n) {
		return f, nil
	}
	return nil, nil
}

// Inspect traverses the tree rooted at n, calling f for each node.
// Returning false from f skips the node's children.
func Inspect(n Node, f func(Node) bool) {
	// The inspector never returns an error.
	_ = Walk(inspector(f), n)
}
