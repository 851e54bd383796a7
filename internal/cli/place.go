package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autotag/pkg/document"
	"github.com/matzehuels/autotag/pkg/pipeline"
)

// placeOptions holds flags for the place command.
type placeOptions struct {
	view           string
	parallel       bool
	workers        int
	abortOnInvalid bool
	noCache        bool
	refresh        bool
	output         string
	interactive    bool
	dryRun         bool
	failOn         []string
}

// placeCommand creates the place command.
func (c *CLI) placeCommand() *cobra.Command {
	var opts placeOptions

	cmd := &cobra.Command{
		Use:   "place <snapshot>",
		Short: "Decide and apply tags for a model view",
		Long: `Decide a tag placement for every element of a snapshot and apply the tags
to an in-memory document in one transaction.

The snapshot is a JSON or YAML file, or a scene script (.tag, .lisp).`,
		Example: `  autotag place examples/floorplan.json
  autotag place examples/floorplan.tag --view section -o result.json
  autotag place plan.yaml --parallel --workers 16 --interactive`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlace(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.view, "view", "", "override the snapshot's view type (floor-plan, ceiling-plan, area-plan, section)")
	f.BoolVar(&opts.parallel, "parallel", false, "decide placements with a worker pool")
	f.IntVar(&opts.workers, "workers", pipeline.DefaultWorkers, "worker pool size with --parallel")
	f.BoolVar(&opts.abortOnInvalid, "abort-on-invalid", false, "fail on non-finite geometry instead of skipping")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the directive cache")
	f.BoolVar(&opts.refresh, "refresh", false, "recompute even if a cached result exists")
	f.StringVarP(&opts.output, "output", "o", "", "write the run result as JSON")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "browse the decisions before applying")
	f.BoolVar(&opts.dryRun, "dry-run", false, "decide only, do not apply")
	f.StringSliceVar(&opts.failOn, "fail-on", nil, "make placing a tag for these element IDs fail (debugging)")

	return cmd
}

func (c *CLI) runPlace(cmd *cobra.Command, path string, po placeOptions) error {
	ctx := cmd.Context()

	snap, err := loadSnapshot(ctx, path)
	if err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts := cfg.PipelineOptions()
	opts.View = po.view
	opts.Refresh = po.refresh
	flags := cmd.Flags()
	if flags.Changed("parallel") {
		opts.Parallel = po.parallel
	}
	if flags.Changed("workers") {
		opts.Workers = po.workers
	}
	if flags.Changed("abort-on-invalid") {
		opts.AbortOnInvalidGeometry = po.abortOnInvalid
	}

	runner, err := c.newRunner(ctx, po.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinner(ctx, "Deciding placements...")
	spinner.Start()
	res, err := runner.Execute(ctx, snap, opts)
	spinner.Stop()
	if err != nil {
		return err
	}

	c.printSuccess("Decided %d placements for %s", res.Stats.Placed, StyleHighlight.Render(res.View.String()))
	c.printStats(res.Stats, res.CacheInfo.Hit)
	c.printSkips(res)

	if po.output != "" {
		if err := pipeline.ExportResult(res, po.output); err != nil {
			return err
		}
		c.printFile(po.output)
	}

	if po.interactive {
		proceed, err := browseResults(ctx, res)
		if err != nil {
			return err
		}
		if !proceed {
			c.printInfo("Aborted, nothing applied")
			return nil
		}
	}

	if po.dryRun {
		c.printInfo("Dry run, nothing applied")
		return nil
	}

	rl := newRunLog(c.Logger, res)
	doc := document.New()
	doc.FailOn(po.failOn...)
	report, err := runner.Apply(ctx, doc, res)
	if err != nil {
		rl.rolledBack(err)
		c.printError("No tags placed")
		return err
	}
	rl.applied(report)
	c.printSuccess("Placed %d tags in %q", report.Placed(), pipeline.TransactionName)
	return nil
}

// browseResults shows the result browser and reports whether the user
// confirmed applying.
func browseResults(ctx context.Context, res *pipeline.Result) (bool, error) {
	p := tea.NewProgram(NewResultListModel(res), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(ResultListModel)
	return ok && m.Confirmed, nil
}
