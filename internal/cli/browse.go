package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func (c *CLI) browseCommand() *cobra.Command {
	var rf requestFlags
	cmd := &cobra.Command{
		Use:   "browse [request.toml|request.json]",
		Short: "Solve a request and explore the plan interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, cat, err := c.solveRequest(ctx, args, &rf)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(NewBrowseModel(cat, res.Plan), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
	rf.register(cmd.Flags())
	return cmd
}
