package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quellabs/quel/pkg/metadata"
)

func productsEntity() *metadata.Entity {
	return &metadata.Entity{
		Name:    "Products",
		Table:   "products",
		ID:      []string{"id"},
		Columns: map[string]string{"name": "product_name"},
	}
}

func TestCatalogLookup(t *testing.T) {
	cat, err := metadata.NewCatalog(productsEntity())
	require.NoError(t, err)

	e, ok := cat.Entity("Products")
	require.True(t, ok)
	assert.Equal(t, "products", e.Table)

	_, ok = cat.Entity("Missing")
	assert.False(t, ok)
}

func TestCatalogNamesSorted(t *testing.T) {
	cat, err := metadata.NewCatalog(
		&metadata.Entity{Name: "Zeta", Table: "z", ID: []string{"id"}},
		&metadata.Entity{Name: "Alpha", Table: "a", ID: []string{"id"}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Zeta"}, cat.Names())
}

func TestCatalogRejectsDuplicates(t *testing.T) {
	_, err := metadata.NewCatalog(productsEntity(), productsEntity())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate entity Products")
}

func TestColumnDefaultsToProperty(t *testing.T) {
	e := productsEntity()
	assert.Equal(t, "product_name", e.Column("name"), "mapped property uses its column")
	assert.Equal(t, "price", e.Column("price"), "unmapped property maps to itself")
}

func TestPrimaryKey(t *testing.T) {
	e := &metadata.Entity{Name: "X", Table: "x", ID: []string{"tenant", "id"}}
	assert.Equal(t, "tenant", e.PrimaryKey())

	empty := &metadata.Entity{}
	assert.Equal(t, "", empty.PrimaryKey())
}

func TestEntityValidate(t *testing.T) {
	tests := []struct {
		name    string
		entity  *metadata.Entity
		wantErr string
	}{
		{
			name:    "missing name",
			entity:  &metadata.Entity{Table: "t", ID: []string{"id"}},
			wantErr: "entity has no name",
		},
		{
			name:    "missing table",
			entity:  &metadata.Entity{Name: "X", ID: []string{"id"}},
			wantErr: "entity X has no table",
		},
		{
			name:    "missing id",
			entity:  &metadata.Entity{Name: "X", Table: "x"},
			wantErr: "no identifier properties",
		},
		{
			name: "bad relation kind",
			entity: &metadata.Entity{
				Name: "X", Table: "x", ID: []string{"id"},
				Relations: map[string]metadata.Relation{
					"other": {Kind: "many-to-many", Target: "Y"},
				},
			},
			wantErr: `unknown relation kind "many-to-many"`,
		},
		{
			name: "relation without target",
			entity: &metadata.Entity{
				Name: "X", Table: "x", ID: []string{"id"},
				Relations: map[string]metadata.Relation{
					"other": {Kind: metadata.OneToOne},
				},
			},
			wantErr: "no target entity",
		},
		{
			name: "bad fetch mode",
			entity: &metadata.Entity{
				Name: "X", Table: "x", ID: []string{"id"},
				Relations: map[string]metadata.Relation{
					"other": {Kind: metadata.OneToOne, Target: "Y", Fetch: "SOMETIMES"},
				},
			},
			wantErr: `unknown fetch mode "SOMETIMES"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entity.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCatalogDefaultsFetchToLazy(t *testing.T) {
	e := &metadata.Entity{
		Name: "Orders", Table: "orders", ID: []string{"id"},
		Relations: map[string]metadata.Relation{
			"customer": {Kind: metadata.ManyToOne, Target: "Customers"},
		},
	}
	cat, err := metadata.NewCatalog(e)
	require.NoError(t, err)

	got, _ := cat.Entity("Orders")
	rel, ok := got.Relation("customer")
	require.True(t, ok)
	assert.Equal(t, metadata.FetchLazy, rel.Fetch)
}
