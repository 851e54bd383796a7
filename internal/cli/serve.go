package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/autotag/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tagger over HTTP",
		Long: `Serve the tagger over HTTP:

  POST /v1/place   decide tags for a posted snapshot (?apply=true to apply)
  GET  /v1/rules   decision table as JSON (?format=dot|svg for a diagram)
  GET  /healthz    liveness check

Set [cache] backend = "redis" or "mongo" to share cached results between
instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner, cfg.PipelineOptions(), c.Logger)
			c.printInfo("Listening on %s", StyleHighlight.Render(addr))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the directive cache")
	return cmd
}
