package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog file format:
//
//	entities:
//	  Products:
//	    table: products
//	    id: [id]
//	    columns:
//	      name: product_name
//	    relations:
//	      orders:
//	        kind: one-to-many
//	        target: Orders
//	        mappedBy: customer
//
// Unknown fields are rejected.

type catalogFile struct {
	Entities map[string]entityFile `yaml:"entities"`
}

type entityFile struct {
	Table     string                  `yaml:"table"`
	ID        []string                `yaml:"id"`
	Columns   map[string]string       `yaml:"columns"`
	Relations map[string]relationFile `yaml:"relations"`
}

type relationFile struct {
	Kind       string `yaml:"kind"`
	Target     string `yaml:"target"`
	InversedBy string `yaml:"inversedBy"`
	MappedBy   string `yaml:"mappedBy"`
	Column     string `yaml:"column"`
	Fetch      string `yaml:"fetch"`
}

// LoadFile reads and parses a YAML catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse parses a YAML catalog document. An empty document yields an
// empty catalog.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return NewCatalog()
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	// Sorted for deterministic validation order.
	names := make([]string, 0, len(file.Entities))
	for name := range file.Entities {
		names = append(names, name)
	}
	sort.Strings(names)

	entities := make([]*Entity, 0, len(names))
	for _, name := range names {
		ef := file.Entities[name]
		e := &Entity{
			Name:    name,
			Table:   ef.Table,
			ID:      ef.ID,
			Columns: ef.Columns,
		}
		if len(ef.Relations) > 0 {
			e.Relations = make(map[string]Relation, len(ef.Relations))
			for prop, rf := range ef.Relations {
				e.Relations[prop] = Relation{
					Kind:       RelationKind(rf.Kind),
					Target:     rf.Target,
					InversedBy: rf.InversedBy,
					MappedBy:   rf.MappedBy,
					Column:     rf.Column,
					Fetch:      FetchMode(rf.Fetch),
				}
			}
		}
		entities = append(entities, e)
	}
	return NewCatalog(entities...)
}
