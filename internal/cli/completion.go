package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autotag/pkg/tag"
)

// snapshotExts are the file extensions loadSnapshot accepts.
var snapshotExts = []string{"json", "yaml", "yml", "tag", "lisp"}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for autotag.

Snapshot arguments complete to .json, .yaml, .tag and .lisp files, and
--view completes to the view types that have placement rules.`,
		Example: `  source <(autotag completion bash)
  autotag completion zsh > "${fpath[1]}/_autotag"
  autotag completion fish > ~/.config/fish/completions/autotag.fish`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(c.Out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(c.Out)
			case "fish":
				return cmd.Root().GenFishCompletion(c.Out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(c.Out)
			}
			return nil
		},
	}

	return cmd
}

// registerCompletions wires snapshot and view completion into every command
// under root that takes a snapshot argument or a --view flag.
func registerCompletions(root *cobra.Command) {
	var walk func(*cobra.Command)
	walk = func(cmd *cobra.Command) {
		if strings.Contains(cmd.Use, "<snapshot>") && cmd.ValidArgsFunction == nil {
			cmd.ValidArgsFunction = completeSnapshot
		}
		if cmd.Flags().Lookup("view") != nil {
			_ = cmd.RegisterFlagCompletionFunc("view", completeView)
		}
		for _, sub := range cmd.Commands() {
			walk(sub)
		}
	}
	walk(root)
}

func completeSnapshot(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return snapshotExts, cobra.ShellCompDirectiveFilterFileExt
}

// completeView offers the kebab-case names of view types with rules.
func completeView(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, v := range tag.AllViewTypes() {
		if v == tag.ViewOther {
			continue
		}
		name := kebab(v.String())
		if strings.HasPrefix(name, strings.ToLower(toComplete)) {
			out = append(out, name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// kebab turns "CeilingPlan" into "ceiling-plan".
func kebab(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
