package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autotag/pkg/cache"
	"github.com/matzehuels/autotag/pkg/pipeline"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune cached directive sets",
		Long: `Every place run stores its directive set under a key derived from the
snapshot contents, the view and the placement options. Re-running an
unchanged snapshot reuses the stored set instead of deciding again.`,
	}

	cmd.AddCommand(c.cacheKeyCommand())
	cmd.AddCommand(c.cacheForgetCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheKeyCommand prints the directive-set key a place run would use.
func (c *CLI) cacheKeyCommand() *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:     "key <snapshot>",
		Short:   "Print the cache key of a snapshot's directive set",
		Example: `  autotag cache key examples/floorplan.json --view section`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, opts, err := c.cacheRunner(cmd, view, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			snap, err := loadSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			key, err := runner.DirectivesKey(snap, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Out, key)
			return nil
		},
	}
	cmd.Flags().StringVar(&view, "view", "", "view type override, as for place")
	return cmd
}

// cacheForgetCommand drops one snapshot's directive set from the configured
// backend, shared backends included.
func (c *CLI) cacheForgetCommand() *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:   "forget <snapshot>",
		Short: "Drop the cached directive set of one snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, opts, err := c.cacheRunner(cmd, view, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			snap, err := loadSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			key, err := runner.Forget(cmd.Context(), snap, opts)
			if err != nil {
				return err
			}
			c.printSuccess("Dropped cached directives for %s", args[0])
			c.printDetail("Key: %s", key)
			return nil
		},
	}
	cmd.Flags().StringVar(&view, "view", "", "view type override, as for place")
	return cmd
}

// cacheRunner builds a runner and run options from the loaded config.
func (c *CLI) cacheRunner(cmd *cobra.Command, view string, noCache bool) (*pipeline.Runner, pipeline.Options, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	opts := cfg.PipelineOptions()
	opts.View = view
	runner, err := c.newRunner(cmd.Context(), noCache)
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	return runner, opts, nil
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var expired bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove directive sets from the local file cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if b, _ := cache.ParseBackend(cfg.Cache.Backend); b != cache.BackendFile {
				c.printWarning("The %s backend is shared; its entries expire after %s", b, cfg.Cache.TTL)
				c.printNextStep("Drop a single snapshot's entry", "autotag cache forget <snapshot>")
				return nil
			}

			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				c.printInfo("No cached directive sets")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			sweep, what := fc.Clear, "cached"
			if expired {
				sweep, what = fc.Prune, "expired"
			}
			count, err := sweep()
			if err != nil {
				return err
			}
			c.printSuccess("Removed %d %s directive sets", count, what)
			c.printDetail("Directory: %s", dir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&expired, "expired", false, "only remove expired or unreadable entries")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the local cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.Out, dir)
			return nil
		},
	}
}
