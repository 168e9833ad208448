package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quellabs/quel/pkg/format"
	"github.com/quellabs/quel/pkg/parser"
)

// NewFmtCommand creates the fmt command.
func NewFmtCommand() *cobra.Command {
	var (
		write bool
		list  bool
	)

	cmd := &cobra.Command{
		Use:   "fmt [file ...]",
		Short: "Canonically format queries",
		Long: `Parse retrieval queries and print them in canonical form: word
operators, single-quoted strings, and only the parentheses precedence
requires. Formatting an already canonical query is the identity.

No catalog is needed; formatting stops at the parser.`,
		Example: `  # Print the canonical form
  quel fmt query.quel

  # Rewrite files in place
  quel fmt --write reports/monthly.quel

  # List files whose formatting differs
  quel fmt --list reports/monthly.quel`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (write || list) && len(args) == 0 {
				return fmt.Errorf("--write and --list need file arguments")
			}
			sources, err := gatherSources(cmd, args, "")
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, src := range sources {
				q, err := parser.Parse(src.text)
				if err != nil {
					return fmt.Errorf("%s: %w", src.name, err)
				}
				formatted := format.Query(q)

				switch {
				case list:
					if formatted != src.text {
						_, _ = fmt.Fprintln(w, src.name)
					}
				case write:
					if formatted != src.text {
						if err := os.WriteFile(src.name, []byte(formatted), 0644); err != nil {
							return fmt.Errorf("failed to write %s: %w", src.name, err)
						}
					}
				default:
					_, _ = fmt.Fprint(w, formatted)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite files in place instead of printing")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list files whose formatting differs")

	return cmd
}
