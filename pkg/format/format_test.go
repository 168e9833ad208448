package format_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quellabs/quel/pkg/ast"
	"github.com/quellabs/quel/pkg/format"
	"github.com/quellabs/quel/pkg/parser"
)

func mustParse(t *testing.T, src string) *ast.Retrieve {
	t.Helper()
	q, err := parser.Parse(src)
	require.NoError(t, err, "source: %s", src)
	return q
}

// ---------- Fixed Point ----------

// Already-canonical sources format to themselves (plus the trailing
// newline), and formatting is idempotent from there.
func TestRoundTripFixedPoint(t *testing.T) {
	corpus := []string{
		"retrieve (1)",
		"range of x is Products\nretrieve (x.id) where x.id = 5",
		"range of x is Products\nretrieve unique (x.id as i, x.name)",
		"range of x is Products\nrange of y is Orders via y.customerId = x.id\nretrieve (x, y)",
		"range of i is crm::billing::Invoice\nretrieve (i.total)",
		"d is SOURCE('inventory.xml', $.items[0].@id)\nretrieve (d.sku)",
		"d is SOURCE('feed.json', '$.rows')\nretrieve (d.v as value)",
		"range of x is Products\nretrieve (x.a + x.b * 2 - x.c % 2) where x.a > 1 and x.b <= 2 or not x.d",
		"range of x is Products\nretrieve (x.name) where x.name =~ /^Ab.*c$/i and x.id = :pid",
		"range of x is Products\nretrieve (x.id) where x.name is not null and x.tag is null",
		"range of x is Products\nretrieve ((x.a + x.b) * 2) where (x.a or x.b) and x.c = 1",
		"retrieve (x.a / 2, - -1)",
		"range of x is Products\nretrieve (x.id) where not not x.active",
		"retrieve ('it\\'s', 'tab\\there')",
		"range of x is Products\nretrieve (x.id) where x.a is null is not null",
	}

	for _, src := range corpus {
		first := format.Query(mustParse(t, src))
		assert.Equal(t, src+"\n", first, "canonical source must be a fixed point")

		second := format.Query(mustParse(t, first))
		assert.Equal(t, first, second, "formatting must be idempotent")
	}
}

// ---------- Canonicalization ----------

func TestCanonicalSpellings(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{
			"retrieve (x.a) where x.a = 1 && x.b = 2 || !x.c",
			"retrieve (x.a) where x.a = 1 and x.b = 2 or not x.c",
		},
		{
			"retrieve (x.a) where x.a <> 1",
			"retrieve (x.a) where x.a != 1",
		},
		{
			`retrieve ("double")`,
			"retrieve ('double')",
		},
		{
			`s is SOURCE("f.xml", $.a)` + "\nretrieve (s.v)",
			"s is SOURCE('f.xml', $.a)\nretrieve (s.v)",
		},
	}

	for _, tc := range cases {
		got := format.Query(mustParse(t, tc.src))
		assert.Equal(t, tc.want+"\n", got)

		again := format.Query(mustParse(t, got))
		assert.Equal(t, got, again, "canonical output must be stable")
	}
}

func TestRedundantParensDropped(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"retrieve ((x.a))", "retrieve (x.a)"},
		{"retrieve (((x.a + x.b)) * 2)", "retrieve ((x.a + x.b) * 2)"},
		{"retrieve (x.a + (x.b * 2))", "retrieve (x.a + x.b * 2)"},
		{"retrieve (x.a) where (x.a = 1) and (x.b = 2)", "retrieve (x.a) where x.a = 1 and x.b = 2"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want+"\n", format.Query(mustParse(t, tc.src)))
	}
}

func TestParensKeptWhereTheParseNeedsThem(t *testing.T) {
	cases := []string{
		"retrieve ((x.a or x.b) and x.c)",
		"retrieve (1 - (2 - 3))",
		"retrieve ((1 + 2) * 3)",
		"retrieve ((x.a = 1) = true)",
		"retrieve (true = (x.a = 1))",
		"retrieve (x.a) where not (x.a and x.b)",
		"retrieve ((x.a + x.b) is null)",
		"retrieve ((not x.a) is null)",
	}

	for _, src := range cases {
		got := format.Query(mustParse(t, src))
		assert.Equal(t, src+"\n", got, "these parens change the parse and must survive")
	}
}

// ---------- Expressions ----------

func TestExprRendersWithoutNewline(t *testing.T) {
	q := mustParse(t, "retrieve (x.a) where x.price * 2 >= :floor")
	assert.Equal(t, "x.price * 2 >= :floor", format.Expr(q.Where))
}

func TestExprNil(t *testing.T) {
	assert.Equal(t, "", format.Expr(nil))
}

func TestStringEscapesRoundTrip(t *testing.T) {
	q := mustParse(t, `retrieve ('a\nb\t\'q\'\\')`)
	lit := q.Projection[0].Expr.(*ast.StringLit)
	assert.Equal(t, "a\nb\t'q'\\", lit.Value)

	rendered := format.Expr(lit)
	assert.Equal(t, `'a\nb\t\'q\'\\'`, rendered)

	back := mustParse(t, "retrieve ("+rendered+")")
	assert.Equal(t, lit.Value, back.Projection[0].Expr.(*ast.StringLit).Value)
}

func TestDoubleNegationStaysParseable(t *testing.T) {
	// Emitting the two minus signs adjacently would open a -- comment.
	got := format.Query(mustParse(t, "retrieve (- - 1)"))
	assert.Equal(t, "retrieve (- -1)\n", got)
}
