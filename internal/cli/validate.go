package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/scene"
)

var errStrict = errors.New(errors.ErrCodeInvalidSnapshot, "snapshot has warnings")

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <snapshot>",
		Short: "Check a snapshot for problems without placing tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fs := scene.Validate(snap)
			kept, filtered := scene.Collect(snap.Elements)

			c.printKeyValue("view", snap.View.String())
			c.printKeyValue("elements", formatCount(len(kept), filtered))
			c.printKeyValue("library", fmt.Sprintf("%d symbols", len(snap.Library)))
			c.printFindings(fs)

			if err := fs.Err(); err != nil {
				return err
			}
			if strict && len(fs.Warnings()) > 0 {
				c.printError("%d warning(s) in strict mode", len(fs.Warnings()))
				return errStrict
			}
			c.printSuccess("Snapshot is valid")
			c.printNextStep("Place tags", "autotag place "+args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return cmd
}

func formatCount(kept, filtered int) string {
	if filtered == 0 {
		return fmt.Sprintf("%d", kept)
	}
	return fmt.Sprintf("%d (%d filtered)", kept, filtered)
}
