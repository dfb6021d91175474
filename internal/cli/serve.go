package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/tierplan/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		catalogPath string
		addr        string
		noCache     bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cat, err := c.openCatalog(ctx, catalogPath)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			if addr == "" {
				addr = c.Config.Server.Addr
			}
			srv, err := server.New(server.Config{
				Addr:         addr,
				Catalog:      cat,
				Runner:       runner,
				Logger:       logger,
				JobRetention: c.Config.Server.JobRetention.Duration,
			})
			if err != nil {
				return err
			}
			srv.Metrics().Install()
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&catalogPath, "catalog", "c", "", "catalog file or database (default from config)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+server.DefaultAddr+")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the plan cache")
	return cmd
}
