package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tierplan/pkg/catalog"
	planio "github.com/matzehuels/tierplan/pkg/io"
	"github.com/matzehuels/tierplan/pkg/pipeline"
	"github.com/matzehuels/tierplan/pkg/planner"
	"github.com/matzehuels/tierplan/pkg/render/nodelink"
)

func (c *CLI) renderCommand() *cobra.Command {
	var (
		rf        requestFlags
		planPath  string
		format    string
		output    string
		direction string
		detailed  bool
	)
	cmd := &cobra.Command{
		Use:   "render [request.toml|request.json]",
		Short: "Draw a plan as a Graphviz diagram (dot, svg, png)",
		Example: `  tierplan render factory.toml -o factory.svg
  tierplan render --plan plan.json -f png --detailed
  tierplan render factory.toml -f dot -o - | dot -Tpdf > plan.pdf`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := nodelink.ParseFormat(format)
			if err != nil {
				return err
			}

			var (
				cat *catalog.Catalog
				p   *planner.Plan
			)
			if planPath != "" {
				if cat, err = c.openCatalog(ctx, rf.catalog); err != nil {
					return err
				}
				if p, err = planio.ImportPlan(planPath, cat); err != nil {
					return err
				}
			} else {
				res, solvedCat, err := c.solveRequest(ctx, args, &rf)
				if err != nil {
					return err
				}
				cat, p = solvedCat, res.Plan
			}

			runner, err := c.newRunner(ctx, rf.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			out, hit, err := runner.Render(ctx, cat, p, pipeline.RenderOptions{
				Format:    f,
				Direction: direction,
				Detailed:  detailed,
			})
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := stdout.Write(out)
				return err
			}
			if output == "" {
				output = "plan." + string(f)
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return err
			}
			printSuccess("Rendered %s", f)
			printPlanStats(p, hit)
			printFile(output)
			return nil
		},
	}
	rf.register(cmd.Flags())
	cmd.Flags().StringVar(&planPath, "plan", "", "render a saved plan instead of solving")
	cmd.Flags().StringVarP(&format, "format", "f", string(nodelink.FormatSVG), "output format: dot, svg or png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default plan.<format>)")
	cmd.Flags().StringVar(&direction, "direction", pipeline.DefaultDirection, "layout direction: LR or TB")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "list ingredients and products on each recipe")
	return cmd
}
