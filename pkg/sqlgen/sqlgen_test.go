package sqlgen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quellabs/quel/pkg/metadata"
	"github.com/quellabs/quel/pkg/parser"
	"github.com/quellabs/quel/pkg/semantic"
	"github.com/quellabs/quel/pkg/sqlgen"
)

func testCatalog(t *testing.T) *metadata.Catalog {
	t.Helper()
	cat, err := metadata.NewCatalog(
		&metadata.Entity{
			Name:  "Products",
			Table: "products",
			ID:    []string{"id"},
			Columns: map[string]string{
				"name":  "product_name",
				"price": "price_amount",
			},
		},
		&metadata.Entity{
			Name:  "Orders",
			Table: "orders",
			ID:    []string{"id"},
			Relations: map[string]metadata.Relation{
				"customerId": {
					Kind:       metadata.ManyToOne,
					Target:     "Products",
					InversedBy: "orders",
				},
			},
		},
	)
	require.NoError(t, err)
	return cat
}

func generate(t *testing.T, src string) sqlgen.Statement {
	t.Helper()
	cat := testCatalog(t)
	q, err := parser.Parse(src)
	require.NoError(t, err)
	res, err := semantic.Analyze(q, cat)
	require.NoError(t, err)
	stmt, err := sqlgen.Generate(res, cat)
	require.NoError(t, err)
	return stmt
}

// ---------- Statements ----------

func TestGenerateSimpleQuery(t *testing.T) {
	stmt := generate(t, "range of x is Products\nretrieve (x.id) where x.id = 5")

	assert.Equal(t, "SELECT x.id FROM products x WHERE x.id = 5", stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestColumnMapping(t *testing.T) {
	stmt := generate(t, "range of x is Products\nretrieve (x.name as n) where x.name = 'chair'")

	assert.Equal(t, "SELECT x.product_name AS n FROM products x WHERE x.product_name = 'chair'", stmt.SQL)
}

func TestEntityExpansion(t *testing.T) {
	stmt := generate(t, "range of x is Products\nretrieve (x)")

	// Identifier columns first, remaining properties sorted by name.
	assert.Equal(t, "SELECT x.id, x.product_name, x.price_amount FROM products x", stmt.SQL)
}

func TestEntityExpansionBetweenItems(t *testing.T) {
	stmt := generate(t, "range of x is Products\nretrieve (1, x, x.id as i)")

	assert.Equal(t, "SELECT 1, x.id, x.product_name, x.price_amount, x.id AS i FROM products x", stmt.SQL)
}

func TestPlaceholderOrdering(t *testing.T) {
	stmt := generate(t, "range of x is Products\nretrieve (x.id, :tag) where x.price = :min and x.name = :n")

	assert.Equal(t, "SELECT x.id, ? FROM products x WHERE x.price_amount = ? AND x.product_name = ?", stmt.SQL)
	assert.Equal(t, []string{"tag", "min", "n"}, stmt.Params)
}

func TestViaAndWhereJoined(t *testing.T) {
	stmt := generate(t, "range of x is Products\nrange of y is Orders via y.customerId = x.id\nretrieve (x.id) where x.price > 10")

	// The rewritten via equality lands in WHERE ahead of the where clause.
	assert.Equal(t,
		"SELECT x.id FROM products x, orders y WHERE x.id = y.orders AND x.price_amount > 10",
		stmt.SQL)
}

func TestDistinct(t *testing.T) {
	stmt := generate(t, "range of x is Products\nretrieve unique (x.name)")

	assert.Equal(t, "SELECT DISTINCT x.product_name FROM products x", stmt.SQL)
}

func TestRangelessProjection(t *testing.T) {
	stmt := generate(t, "retrieve (1 + 2 as three)")

	assert.Equal(t, "SELECT 1 + 2 AS three", stmt.SQL)
}

// ---------- Operators ----------

func TestOrParenthesizedUnderAnd(t *testing.T) {
	stmt := generate(t, "range of x is Products\nrange of y is Orders via y.customerId = x.id\nretrieve (x.id) where x.id = 1 or x.id = 2")

	assert.Equal(t,
		"SELECT x.id FROM products x, orders y WHERE x.id = y.orders AND (x.id = 1 OR x.id = 2)",
		stmt.SQL)
}

func TestOperatorSpellings(t *testing.T) {
	stmt := generate(t, "range of x is Products\nretrieve (x.id) where x.id != 1 and x.name =~ /^ch\\/air/i and x.price is not null")

	assert.Equal(t,
		"SELECT x.id FROM products x WHERE x.id <> 1 AND x.product_name REGEXP '(?i)^ch/air' AND x.price_amount IS NOT NULL",
		stmt.SQL)
}

func TestNotRendersAtSQLPrecedence(t *testing.T) {
	stmt := generate(t, "range of x is Products\nretrieve (x.id) where not (x.id = 1 and x.id = 2) and not x.price is null")

	// The grouped conjunction keeps its parens under SQL's NOT; the
	// null-check result needs none.
	assert.Equal(t,
		"SELECT x.id FROM products x WHERE NOT (x.id = 1 AND x.id = 2) AND NOT x.price_amount IS NULL",
		stmt.SQL)
}

func TestStringQuoteDoubling(t *testing.T) {
	stmt := generate(t, `range of x is Products`+"\n"+`retrieve (x.id) where x.name = 'it\'s'`)

	assert.Equal(t, "SELECT x.id FROM products x WHERE x.product_name = 'it''s'", stmt.SQL)
}

// ---------- Errors ----------

func TestDocumentSourceRejected(t *testing.T) {
	cat := testCatalog(t)
	q, err := parser.Parse("d is SOURCE('inv.xml', $.items)\nretrieve (d.sku)")
	require.NoError(t, err)
	res, err := semantic.Analyze(q, cat)
	require.NoError(t, err)

	_, err = sqlgen.Generate(res, cat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document source")
	assert.Contains(t, err.Error(), "planner")
}

func TestEntityProjectionAliasRejected(t *testing.T) {
	cat := testCatalog(t)
	q, err := parser.Parse("range of x is Products\nretrieve (x as everything)")
	require.NoError(t, err)
	res, err := semantic.Analyze(q, cat)
	require.NoError(t, err)

	_, err = sqlgen.Generate(res, cat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot alias the entity projection x")
}

func TestPathLiteralRejected(t *testing.T) {
	cat := testCatalog(t)
	q, err := parser.Parse("retrieve ($.a)")
	require.NoError(t, err)
	res, err := semantic.Analyze(q, cat)
	require.NoError(t, err)

	_, err = sqlgen.Generate(res, cat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no SQL form")
}

func TestGenerateNilInputs(t *testing.T) {
	_, err := sqlgen.Generate(nil, testCatalog(t))
	assert.Error(t, err)

	q, qerr := parser.Parse("retrieve (1)")
	require.NoError(t, qerr)
	res, aerr := semantic.Analyze(q, testCatalog(t))
	require.NoError(t, aerr)
	_, err = sqlgen.Generate(res, nil)
	assert.Error(t, err)
}
