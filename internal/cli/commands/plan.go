package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quellabs/quel/pkg/plan"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	var expr string

	cmd := &cobra.Command{
		Use:   "plan [file ...]",
		Short: "Show the execution plan for queries",
		Long: `Compile retrieval queries and print the staged execution plan: one
stage for the relational ranges plus one per document source, with each
stage's join behavior and the parameter values routed to it.

Parameter values come from the config file's params map and --params.`,
		Example: `  # Plan a mixed-source query
  quel plan -c shop.yaml -p sku=AB-1 mixed.quel

  # Plan from stdin
  cat mixed.quel | quel plan -c shop.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			sources, err := gatherSources(cmd, args, expr)
			if err != nil {
				return err
			}

			compiler := cmdCtx.Compiler()
			w := cmd.OutOrStdout()
			for i, src := range sources {
				p, err := compiler.Plan(src.text, plan.WithParams(cmdCtx.Cfg.Params))
				if err != nil {
					return fmt.Errorf("%s: %w", src.name, err)
				}
				if len(sources) > 1 {
					if i > 0 {
						_, _ = fmt.Fprintln(w)
					}
					_, _ = fmt.Fprintf(w, "-- %s\n", src.name)
				}
				renderStages(w, cmdCtx.Cfg.Output, p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&expr, "expr", "e", "", "plan the given query text instead of reading files")

	return cmd
}
