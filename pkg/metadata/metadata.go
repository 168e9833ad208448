// Package metadata defines the entity catalog consumed during semantic
// analysis: entity descriptors, relation descriptors, and the read-only
// Store interface handed to the compiler.
package metadata

import (
	"fmt"
	"sort"
)

// RelationKind classifies a relation between two entities.
type RelationKind string

const (
	OneToOne  RelationKind = "one-to-one"
	ManyToOne RelationKind = "many-to-one"
	OneToMany RelationKind = "one-to-many"
)

// FetchMode controls how an external executor loads a relation.
type FetchMode string

const (
	FetchLazy  FetchMode = "LAZY"
	FetchEager FetchMode = "EAGER"
)

// Relation describes a named relation property on an entity.
type Relation struct {
	Kind       RelationKind
	Target     string // entity name the relation points at
	InversedBy string // property on the target pointing back (owning side)
	MappedBy   string // property on the target owning the relation (inverse side)
	Column     string // explicit join column, overrides the name hints
	Fetch      FetchMode
}

// Validate checks the descriptor's shape. Target existence is checked
// later, against the ranges of the query being compiled.
func (r Relation) Validate() error {
	switch r.Kind {
	case OneToOne, ManyToOne, OneToMany:
	default:
		return fmt.Errorf("unknown relation kind %q", r.Kind)
	}
	if r.Target == "" {
		return fmt.Errorf("relation has no target entity")
	}
	switch r.Fetch {
	case FetchLazy, FetchEager, "":
	default:
		return fmt.Errorf("unknown fetch mode %q", r.Fetch)
	}
	return nil
}

// Entity describes one mapped entity: its table, identifier properties,
// column mapping, and relations.
type Entity struct {
	Name      string
	Table     string
	ID        []string          // identifier properties, first is the primary key
	Columns   map[string]string // property → column; absent properties map to themselves
	Relations map[string]Relation
}

// PrimaryKey returns the first identifier property.
func (e *Entity) PrimaryKey() string {
	if len(e.ID) == 0 {
		return ""
	}
	return e.ID[0]
}

// Column maps a property name to its column name.
func (e *Entity) Column(property string) string {
	if col, ok := e.Columns[property]; ok {
		return col
	}
	return property
}

// Relation looks up a relation property.
func (e *Entity) Relation(property string) (Relation, bool) {
	r, ok := e.Relations[property]
	return r, ok
}

// Validate checks the descriptor and all its relations.
func (e *Entity) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("entity has no name")
	}
	if e.Table == "" {
		return fmt.Errorf("entity %s has no table", e.Name)
	}
	if len(e.ID) == 0 {
		return fmt.Errorf("entity %s has no identifier properties", e.Name)
	}
	for prop, rel := range e.Relations {
		if err := rel.Validate(); err != nil {
			return fmt.Errorf("entity %s, relation %s: %w", e.Name, prop, err)
		}
	}
	return nil
}

// Store is the read-only entity lookup threaded through compilation.
type Store interface {
	// Entity returns the descriptor for an exact (namespaced) entity name.
	Entity(name string) (*Entity, bool)
}

// Catalog is an immutable in-memory Store. It takes ownership of the
// entities passed to NewCatalog; callers must not modify them afterwards.
type Catalog struct {
	entities map[string]*Entity
}

// NewCatalog validates the entities and freezes them into a Store.
func NewCatalog(entities ...*Entity) (*Catalog, error) {
	m := make(map[string]*Entity, len(entities))
	for _, e := range entities {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := m[e.Name]; dup {
			return nil, fmt.Errorf("duplicate entity %s", e.Name)
		}
		for prop, rel := range e.Relations {
			if rel.Fetch == "" {
				rel.Fetch = FetchLazy
				e.Relations[prop] = rel
			}
		}
		m[e.Name] = e
	}
	return &Catalog{entities: m}, nil
}

// Entity implements Store.
func (c *Catalog) Entity(name string) (*Entity, bool) {
	e, ok := c.entities[name]
	return e, ok
}

// Names returns all entity names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entities))
	for name := range c.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
