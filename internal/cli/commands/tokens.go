package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quellabs/quel/pkg/parser"
	"github.com/quellabs/quel/pkg/token"
)

// NewTokensCommand creates the tokens command.
func NewTokensCommand() *cobra.Command {
	var expr string

	cmd := &cobra.Command{
		Use:   "tokens [file ...]",
		Short: "Show the token stream for queries",
		Long: `Lex retrieval queries and print the token stream with source
positions. No parsing or analysis happens; this is a debugging aid for
unexpected syntax errors.`,
		Example: `  quel tokens -e 'retrieve (1 + 2)'
  quel tokens query.quel`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			sources, err := gatherSources(cmd, args, expr)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for i, src := range sources {
				if len(sources) > 1 {
					if i > 0 {
						_, _ = fmt.Fprintln(w)
					}
					_, _ = fmt.Fprintf(w, "-- %s\n", src.name)
				}
				toks, err := lexAll(src.text)
				renderTokens(w, cmdCtx.Cfg.Output, toks)
				if err != nil {
					return fmt.Errorf("%s: %w", src.name, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&expr, "expr", "e", "", "lex the given query text instead of reading files")

	return cmd
}

// lexAll drains the lexer. The tokens scanned before a lexical error
// are returned alongside it, so the table still shows where scanning
// derailed.
func lexAll(src string) ([]token.Token, error) {
	l := parser.NewLexer(src)
	var toks []token.Token
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		toks = append(toks, tok)
	}
	return toks, l.Err()
}
