package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	planio "github.com/matzehuels/tierplan/pkg/io"
)

func (c *CLI) solveCommand() *cobra.Command {
	var (
		rf     requestFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "solve [request.toml|request.json]",
		Short: "Compute the cheapest tiered plan for a set of goals",
		Example: `  tierplan solve factory.toml
  tierplan solve -c recipes.toml -g gear=5 -r ore
  tierplan solve factory.toml -o plan.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, cat, err := c.solveRequest(cmd.Context(), args, &rf)
			if err != nil {
				return err
			}
			p := res.Plan

			printSuccess("Solved in %s", res.Duration.Round(time.Microsecond))
			printPlanStats(p, res.CacheHit)
			fmt.Fprintln(stdout, planTable(cat, p))
			printNetFlow(cat, p)
			if p.Deadlock {
				printWarning("Some recipes could not be ordered; the last tier holds them all")
			}

			if output != "" {
				if err := planio.ExportPlan(output, cat, p); err != nil {
					return err
				}
				printFile(output)
				printNextStep("Render it", fmt.Sprintf("%s render --plan %s", appName, output))
			}
			return nil
		},
	}
	rf.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the plan as JSON")
	return cmd
}
