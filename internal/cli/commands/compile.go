package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quellabs/quel/pkg/semantic"
	"github.com/quellabs/quel/pkg/sqlgen"
)

// compileResult is one source compiled down to SQL.
type compileResult struct {
	source source
	refs   []semantic.EntityRef
	stmt   sqlgen.Statement
}

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	var expr string

	cmd := &cobra.Command{
		Use:   "compile [file ...]",
		Short: "Compile queries to SQL",
		Long: `Compile retrieval queries against the entity catalog and print the
entity ranges they read plus the generated SQL.

Queries come from the named files, from --expr, or from piped stdin.
Several files compile concurrently and render in input order.`,
		Example: `  # Compile a query directly
  quel compile -c shop.yaml -e 'range of x is Products
  retrieve (x.name) where x.id = :pid'

  # Compile files
  quel compile -c shop.yaml reports/*.quel

  # Markdown output for docs
  quel compile -c shop.yaml -o markdown top_products.quel`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			sources, err := gatherSources(cmd, args, expr)
			if err != nil {
				return err
			}
			return runCompile(cmd.OutOrStdout(), cmdCtx, sources)
		},
	}

	cmd.Flags().StringVarP(&expr, "expr", "e", "", "compile the given query text instead of reading files")

	return cmd
}

func runCompile(w io.Writer, cmdCtx *CommandContext, sources []source) error {
	compiler := cmdCtx.Compiler()

	results := make([]compileResult, len(sources))
	g := new(errgroup.Group)
	for i, src := range sources {
		g.Go(func() error {
			compiled, err := compiler.Compile(src.text)
			if err != nil {
				return fmt.Errorf("%s: %w", src.name, err)
			}
			stmt, err := compiled.SQL()
			if err != nil {
				return fmt.Errorf("%s: %w", src.name, err)
			}
			results[i] = compileResult{source: src, refs: compiled.EntityRefs, stmt: stmt}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	style := cmdCtx.Cfg.Output
	for i, res := range results {
		if len(sources) > 1 {
			if i > 0 {
				_, _ = fmt.Fprintln(w)
			}
			_, _ = fmt.Fprintf(w, "-- %s\n", res.source.name)
		}
		renderEntityRefs(w, style, res.refs, cmdCtx.Catalog)
		renderStatement(w, style, res.stmt)
	}
	return nil
}
