// Package ast defines the abstract syntax tree for the Quel retrieval
// language.
//
// The node set is closed. Passes traverse it either with Walk/Inspect or
// with their own type switches; mutation happens through the explicit
// Set* operations so a rewriting pass can splice a replacement subtree
// without re-visiting it.
package ast

import (
	"strconv"
	"strings"

	"github.com/quellabs/quel/pkg/token"
)

// Node is implemented by every AST node.
type Node interface {
	node()
	// Position returns the node's source position.
	Position() token.Position
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// RangeDecl is a declared range: a database-backed entity range or a
// document-source range. Aliases are unique within one retrieve scope.
type RangeDecl interface {
	Node
	rangeNode()
	RangeAlias() string
}

// Unbound marks an identifier that has not been bound to a range.
const Unbound = -1

// Ident is a (possibly dotted) identifier such as x or x.customer.name.
// The segments are stored flat; the first segment is the range alias or
// entity name, deeper segments are property names. Binding is the index
// of the resolved range in the enclosing Retrieve's range list, or
// Unbound until the range-binding pass has run (and afterwards for
// identifiers whose first segment matches no declared alias).
type Ident struct {
	Pos      token.Position
	Segments []string
	Binding  int
}

func (*Ident) node()     {}
func (*Ident) exprNode() {}

// IsEntity returns true if the identifier is an entity-level reference,
// i.e. has no property segment.
func (i *Ident) IsEntity() bool { return len(i.Segments) == 1 }

// Root returns the first segment (range alias or entity name).
func (i *Ident) Root() string { return i.Segments[0] }

// Property returns the final segment, or "" for entity-level references.
func (i *Ident) Property() string {
	if i.IsEntity() {
		return ""
	}
	return i.Segments[len(i.Segments)-1]
}

// Bound returns true once the identifier is bound to a range.
func (i *Ident) Bound() bool { return i.Binding != Unbound }

func (i *Ident) String() string { return strings.Join(i.Segments, ".") }

// BinaryExpr is a binary operation: logical (and/or), equality/relational
// comparison, additive term or multiplicative factor, distinguished by Op.
type BinaryExpr struct {
	Pos   token.Position // operator position
	Op    token.Type
	Left  Expr
	Right Expr
}

func (*BinaryExpr) node()     {}
func (*BinaryExpr) exprNode() {}

// SetLeft replaces the left operand.
func (b *BinaryExpr) SetLeft(e Expr) { b.Left = e }

// SetRight replaces the right operand.
func (b *BinaryExpr) SetRight(e Expr) { b.Right = e }

// UnaryExpr is a prefix operation: logical not (BANG) or arithmetic
// negation (MINUS).
type UnaryExpr struct {
	Pos  token.Position
	Op   token.Type
	Expr Expr
}

func (*UnaryExpr) node()     {}
func (*UnaryExpr) exprNode() {}

// SetExpr replaces the inner expression.
func (u *UnaryExpr) SetExpr(e Expr) { u.Expr = e }

// NullCheck is the postfix null test: <expr> is null / is not null.
type NullCheck struct {
	Pos     token.Position
	Expr    Expr
	Negated bool
}

func (*NullCheck) node()     {}
func (*NullCheck) exprNode() {}

// SetExpr replaces the tested expression.
func (n *NullCheck) SetExpr(e Expr) { n.Expr = e }

// StringLit is a quoted string literal with escapes resolved.
type StringLit struct {
	Pos   token.Position
	Value string
}

func (*StringLit) node()     {}
func (*StringLit) exprNode() {}

// NumberLit is a numeric literal. Value keeps the source spelling;
// Float distinguishes 2.5 and 1e3 from plain integers.
type NumberLit struct {
	Pos   token.Position
	Value string
	Float bool
}

func (*NumberLit) node()     {}
func (*NumberLit) exprNode() {}

// BoolLit is true or false.
type BoolLit struct {
	Pos   token.Position
	Value bool
}

func (*BoolLit) node()     {}
func (*BoolLit) exprNode() {}

// RegexLit is a regular-expression literal with its trailing flags.
type RegexLit struct {
	Pos     token.Position
	Pattern string
	Flags   string
}

func (*RegexLit) node()     {}
func (*RegexLit) exprNode() {}

// ParamLit is a bound query parameter, :name in source.
type ParamLit struct {
	Pos  token.Position
	Name string
}

func (*ParamLit) node()     {}
func (*ParamLit) exprNode() {}

// PathStepKind discriminates the step forms of a document path.
type PathStepKind int

// Document path step kinds.
const (
	PathKey   PathStepKind = iota // .name
	PathIndex                     // [0]
	PathAttr                      // .@name
)

// PathStep is one step of a document path.
type PathStep struct {
	Kind  PathStepKind
	Name  string // PathKey, PathAttr
	Index int    // PathIndex
}

// PathLit is a $-rooted document path such as $.order.items[0].@id,
// addressing into a document source.
type PathLit struct {
	Pos   token.Position
	Steps []PathStep
}

func (*PathLit) node()     {}
func (*PathLit) exprNode() {}

func (p *PathLit) String() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, s := range p.Steps {
		switch s.Kind {
		case PathKey:
			b.WriteByte('.')
			b.WriteString(s.Name)
		case PathIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
		case PathAttr:
			b.WriteString(".@")
			b.WriteString(s.Name)
		}
	}
	return b.String()
}

// EntityRange declares a database-backed range:
// range of <alias> is <Entity> [via <expr>].
type EntityRange struct {
	Pos    token.Position
	Alias  string
	Entity string // possibly namespaced, e.g. shop::Products
	Via    Expr   // optional join expression
}

func (*EntityRange) node()      {}
func (*EntityRange) rangeNode() {}

// RangeAlias returns the declared alias.
func (r *EntityRange) RangeAlias() string { return r.Alias }

// SetVia replaces the join expression.
func (r *EntityRange) SetVia(e Expr) { r.Via = e }

// SourceRange declares a document-source range:
// <alias> is SOURCE(<locator>, <path>).
type SourceRange struct {
	Pos     token.Position
	Alias   string
	Locator string
	Path    Expr // PathLit or StringLit
}

func (*SourceRange) node()      {}
func (*SourceRange) rangeNode() {}

// RangeAlias returns the declared alias.
func (r *SourceRange) RangeAlias() string { return r.Alias }

// ProjectionItem is one element of the projection list: an expression
// with an optional "as" alias.
type ProjectionItem struct {
	Expr  Expr
	Alias string
}

// SetExpr replaces the projected expression.
func (p *ProjectionItem) SetExpr(e Expr) { p.Expr = e }

// Retrieve is the root of a compiled query: the declared ranges, the
// projection list, the optional where clause and the uniqueness flag.
type Retrieve struct {
	Pos        token.Position
	Unique     bool
	Ranges     []RangeDecl
	Projection []*ProjectionItem
	Where      Expr
}

func (*Retrieve) node() {}

// SetWhere replaces the where clause.
func (r *Retrieve) SetWhere(e Expr) { r.Where = e }

// FindRange returns the index of the range declared under alias, or
// Unbound when no range carries it.
func (r *Retrieve) FindRange(alias string) int {
	for i, rng := range r.Ranges {
		if rng.RangeAlias() == alias {
			return i
		}
	}
	return Unbound
}

// Range returns the range at index i, or nil when i is out of bounds.
func (r *Retrieve) Range(i int) RangeDecl {
	if i < 0 || i >= len(r.Ranges) {
		return nil
	}
	return r.Ranges[i]
}

func (i *Ident) Position() token.Position       { return i.Pos }
func (b *BinaryExpr) Position() token.Position  { return b.Pos }
func (u *UnaryExpr) Position() token.Position   { return u.Pos }
func (n *NullCheck) Position() token.Position   { return n.Pos }
func (s *StringLit) Position() token.Position   { return s.Pos }
func (n *NumberLit) Position() token.Position   { return n.Pos }
func (b *BoolLit) Position() token.Position     { return b.Pos }
func (r *RegexLit) Position() token.Position    { return r.Pos }
func (p *ParamLit) Position() token.Position    { return p.Pos }
func (p *PathLit) Position() token.Position     { return p.Pos }
func (r *EntityRange) Position() token.Position { return r.Pos }
func (r *SourceRange) Position() token.Position { return r.Pos }
func (r *Retrieve) Position() token.Position    { return r.Pos }

// IsComparison returns true for equality, relational and match operators.
func IsComparison(op token.Type) bool {
	switch op {
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE,
		token.MATCH, token.NOTMATCH:
		return true
	}
	return false
}

// IsArithmetic returns true for additive and multiplicative operators.
func IsArithmetic(op token.Type) bool {
	switch op {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT:
		return true
	}
	return false
}

// IsLogical returns true for the and/or operators.
func IsLogical(op token.Type) bool {
	return op == token.LAND || op == token.LOR
}
