package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quellabs/quel/internal/cli/config"
	"github.com/quellabs/quel/internal/testutil"
	"github.com/quellabs/quel/pkg/metadata"
	"github.com/quellabs/quel/pkg/quel"
)

// exampleCatalog points at the shipped sample catalog; the commands
// resolve it through the QUEL_CATALOG fallback.
var exampleCatalog = filepath.Join("..", "..", "..", "examples", "catalog.yaml")

// execute runs a command with the given args, capturing stdout+stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(""))
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func setupCatalogEnv(t *testing.T) {
	t.Helper()
	t.Setenv("QUEL_CATALOG", exampleCatalog)
	t.Setenv("QUEL_OUTPUT", "plain")
}

// writeQueryFile drops query text into a temp file and returns its path.
func writeQueryFile(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

// ---------- compile ----------

func TestCompileExpr(t *testing.T) {
	setupCatalogEnv(t)

	out, err := execute(t, NewCompileCommand(), "-e",
		"range of p is Products\nretrieve (p.name as n) where p.id = :pid")
	require.NoError(t, err)

	assert.Contains(t, out, "p\tProducts\tproducts")
	assert.Contains(t, out, "SELECT p.product_name AS n FROM products p WHERE p.id = ?")
	assert.Contains(t, out, "params: pid")
}

func TestCompileFromStdin(t *testing.T) {
	setupCatalogEnv(t)

	cmd := NewCompileCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader("retrieve (1 + 2 as three)"))
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "SELECT 1 + 2 AS three")
}

func TestCompileSeveralFiles(t *testing.T) {
	setupCatalogEnv(t)

	first := writeQueryFile(t, "first.quel", "range of p is Products\nretrieve (p.id)")
	second := writeQueryFile(t, "second.quel", "range of c is Customers\nretrieve (c.email as mail)")

	out, err := execute(t, NewCompileCommand(), first, second)
	require.NoError(t, err)

	// Output keeps the input order, one header per file.
	assert.Contains(t, out, "-- "+first)
	assert.Contains(t, out, "-- "+second)
	assert.Contains(t, out, "SELECT p.id FROM products p")
	assert.Contains(t, out, "SELECT c.email_address AS mail FROM customers c")
	assert.Less(t, strings.Index(out, first), strings.Index(out, second))
}

func TestCompileErrorNamesSource(t *testing.T) {
	setupCatalogEnv(t)

	broken := writeQueryFile(t, "broken.quel", "range of p is\nretrieve (p.id)")

	_, err := execute(t, NewCompileCommand(), broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.quel")
	assert.Contains(t, err.Error(), "parse error")
}

func TestCompileUnknownEntity(t *testing.T) {
	setupCatalogEnv(t)

	_, err := execute(t, NewCompileCommand(), "-e", "range of g is Gadgets\nretrieve (g.id)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown entity Gadgets")
}

func TestCompileNoInput(t *testing.T) {
	setupCatalogEnv(t)

	_, err := execute(t, NewCompileCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input")
}

func TestCompileExprAndFilesConflict(t *testing.T) {
	setupCatalogEnv(t)

	_, err := execute(t, NewCompileCommand(), "-e", "retrieve (1)", "also.quel")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not both")
}

// ---------- plan ----------

func TestPlanMixedSources(t *testing.T) {
	setupCatalogEnv(t)

	out, err := execute(t, NewPlanCommand(), "-e",
		"range of x is Products\nd is SOURCE('inventory.xml', $.items)\n"+
			"retrieve (x.name, d.qty) where d.sku = x.name and d.qty > 0")
	require.NoError(t, err)

	assert.Contains(t, out, "main\tdatabase\tx\tcross\t")
	assert.Contains(t, out, "d\tdocument\td\tleft\t")
	assert.Contains(t, out, "d joins on d.sku = x.name")
	assert.Contains(t, out, "main stage: main")
}

func TestPlanSingleStageKeepsAlias(t *testing.T) {
	setupCatalogEnv(t)

	out, err := execute(t, NewPlanCommand(), "-e", "range of p is Products\nretrieve (p.id)")
	require.NoError(t, err)

	assert.Contains(t, out, "p\tdatabase\tp\tcross\t")
	assert.Contains(t, out, "main stage: p")
}

func TestPlanMissingParam(t *testing.T) {
	setupCatalogEnv(t)

	_, err := execute(t, NewPlanCommand(), "-e",
		"range of p is Products\nretrieve (p.id) where p.id = :pid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown parameter :pid")
}

// ---------- tokens ----------

func TestTokensStream(t *testing.T) {
	setupCatalogEnv(t)

	out, err := execute(t, NewTokensCommand(), "-e", "retrieve (1 + 2)")
	require.NoError(t, err)

	assert.Contains(t, out, "1:1\tIDENT\tretrieve")
	assert.Contains(t, out, "1:11\tINT\t1")
	assert.Contains(t, out, "1:13\t+\t+")
	assert.Contains(t, out, "1:15\tINT\t2")
}

func TestTokensLexError(t *testing.T) {
	setupCatalogEnv(t)

	out, err := execute(t, NewTokensCommand(), "-e", "retrieve ('oops")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated string literal")
	// Tokens scanned before the error still show.
	assert.Contains(t, out, "IDENT\tretrieve")
}

// ---------- fmt ----------

func TestFmtStdin(t *testing.T) {
	cmd := NewFmtCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(`retrieve (x.a&&x.b, "it")`))
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "retrieve (x.a and x.b, 'it')\n", buf.String())
}

func TestFmtWrite(t *testing.T) {
	path := writeQueryFile(t, "messy.quel", "retrieve (1+1 as two)")

	_, err := execute(t, NewFmtCommand(), "--write", path)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "retrieve (1 + 1 as two)\n", string(content))

	// Rewriting canonical text is the identity.
	_, err = execute(t, NewFmtCommand(), "--write", path)
	require.NoError(t, err)
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(content), string(again))
}

func TestFmtList(t *testing.T) {
	canonical := writeQueryFile(t, "clean.quel", "retrieve (1 + 1 as two)\n")
	messy := writeQueryFile(t, "messy.quel", "retrieve (1+1 as two)")

	out, err := execute(t, NewFmtCommand(), "--list", canonical, messy)
	require.NoError(t, err)

	assert.NotContains(t, out, "clean.quel")
	assert.Contains(t, out, "messy.quel")
}

func TestFmtWriteNeedsFiles(t *testing.T) {
	_, err := execute(t, NewFmtCommand(), "--write")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file arguments")
}

// ---------- repl session ----------

func newTestSession(t *testing.T) (*replSession, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	catalog, err := metadata.LoadFile(exampleCatalog)
	require.NoError(t, err)

	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	sess := &replSession{
		compiler: quel.New(catalog, quel.WithLogger(testutil.NewTestLogger(t))),
		cfg:      &config.Config{Output: config.OutputPlain},
		catalog:  catalog,
		mode:     modeSQL,
		out:      out,
		errOut:   errOut,
	}
	return sess, out, errOut
}

func TestReplEvalSQL(t *testing.T) {
	sess, out, errOut := newTestSession(t)

	sess.eval("range of p is Products\nretrieve (p.id)")

	assert.Contains(t, out.String(), "SELECT p.id FROM products p")
	assert.Empty(t, errOut.String())
}

func TestReplEvalError(t *testing.T) {
	sess, out, errOut := newTestSession(t)

	sess.eval("range of g is Gadgets\nretrieve (g.id)")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "unknown entity Gadgets")
}

func TestReplModeSwitching(t *testing.T) {
	sess, out, _ := newTestSession(t)

	quit := sess.handleMeta(`\plan`)
	assert.False(t, quit)
	assert.Equal(t, modePlan, sess.mode)
	assert.Contains(t, out.String(), "output mode: plan")

	out.Reset()
	sess.eval("range of p is Products\nretrieve (p.id)")
	assert.Contains(t, out.String(), "main stage: p")
}

func TestReplASTMode(t *testing.T) {
	sess, out, _ := newTestSession(t)

	sess.handleMeta(`\ast`)
	out.Reset()
	sess.eval("range of p is Products\nretrieve (p.id) where p.id = 5")

	dump := out.String()
	assert.Contains(t, dump, "range p is Products")
	assert.Contains(t, dump, "ident p.id (range 0)")
	assert.Contains(t, dump, "binary =")
	assert.Contains(t, dump, "number 5")
}

func TestReplFmtMode(t *testing.T) {
	sess, out, _ := newTestSession(t)

	sess.handleMeta(`\fmt`)
	out.Reset()
	sess.eval("retrieve (1+2 as three)")

	assert.Contains(t, out.String(), "retrieve (1 + 2 as three)\n")
}

func TestReplEntities(t *testing.T) {
	sess, out, _ := newTestSession(t)

	sess.handleMeta(`\entities`)

	listing := out.String()
	assert.Contains(t, listing, "Customers\tcustomers\tid")
	assert.Contains(t, listing, "Orders\torders\tid")
	assert.Contains(t, listing, "Products\tproducts\tid")
}

func TestReplQuitAndUnknown(t *testing.T) {
	sess, _, errOut := newTestSession(t)

	assert.True(t, sess.handleMeta(`\quit`))
	assert.True(t, sess.handleMeta(`\q`))
	assert.False(t, sess.handleMeta(`\nope`))
	assert.Contains(t, errOut.String(), "Unknown command")
}

func TestReplCompleterCoversCatalog(t *testing.T) {
	catalog, err := metadata.LoadFile(exampleCatalog)
	require.NoError(t, err)

	completer := newReplCompleter(catalog)

	line := []rune("Prod")
	candidates, _ := completer.Do(line, len(line))
	require.NotEmpty(t, candidates, "entity names should complete")
	assert.Equal(t, "ucts", strings.TrimSpace(string(candidates[0])))
}
