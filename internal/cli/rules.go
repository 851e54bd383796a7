package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/placement"
	"github.com/matzehuels/autotag/pkg/render/rulegraph"
	"github.com/matzehuels/autotag/pkg/symbols"
	"github.com/matzehuels/autotag/pkg/tag"
)

// rulesCommand creates the rules command.
func (c *CLI) rulesCommand() *cobra.Command {
	var (
		format string
		output string
		view   string
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the placement decision table",
		Long: `Show which categories are tagged in each view type, with which tag family,
and how the anchor is adjusted. Offsets and families reflect the config file.`,
		Example: `  autotag rules
  autotag rules --view floor-plan
  autotag rules --format svg -o rules.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := cfg.PipelineOptions()
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			rules := placement.New(*opts.Policy).Rules()
			if view != "" {
				rules = filterRules(rules, tag.ParseViewType(view))
			}

			if format == "table" {
				fmt.Fprintln(c.Out, renderRuleTable(rules, opts.Families))
				return nil
			}

			out, err := rulegraph.Render(cmd.Context(), rules, rulegraph.Options{Families: opts.Families}, format)
			if err != nil {
				return err
			}
			if output == "" {
				_, err := c.Out.Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", output)
			}
			c.printSuccess("Rendered %d rules", len(rules))
			c.printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, "+strings.Join(rulegraph.Formats, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the diagram to a file")
	cmd.Flags().StringVar(&view, "view", "", "only show rules for this view type")
	return cmd
}

func filterRules(rules []placement.Rule, v tag.ViewType) []placement.Rule {
	var out []placement.Rule
	for _, r := range rules {
		if r.View == v {
			out = append(out, r)
		}
	}
	return out
}

// renderRuleTable renders rules as a lipgloss table.
func renderRuleTable(rules []placement.Rule, families symbols.FamilyNames) string {
	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		symbol := families[r.Symbol]
		if r.CurtainSymbol.Valid() {
			symbol += " / " + families[r.CurtainSymbol] + " (curtain)"
		}
		adjust := r.Adjust.String()
		if r.Adjust == placement.AdjustOffsetAnchor || r.Adjust == placement.AdjustPostOffset {
			adjust += " " + r.Offset.String()
		}
		rows = append(rows, []string{r.View.String(), r.Category.String(), symbol, adjust})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("View", "Category", "Tag family", "Adjustment").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}
