package cli

import (
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// Root help groups.
const (
	groupCheck  = "check"
	groupConfig = "config"
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for group registration
func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupCheck, Title: "Checks:"},
		&cobra.Group{ID: groupConfig, Title: "Configuration:"},
	)
	rootCmd.SetHelpCommandGroupID(groupConfig)
	rootCmd.SetCompletionCommandGroupID(groupConfig)
}

// walkCommands calls fn for cmd and every command below it, parents first.
func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}

// subcommandSummary lists the visible children of cmd as aligned
// "name  short" rows.
func subcommandSummary(cmd *cobra.Command) string {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	for _, sub := range cmd.Commands() {
		if !sub.IsAvailableCommand() {
			continue
		}
		_, _ = tw.Write([]byte("  " + sub.Name() + "\t" + sub.Short + "\n"))
	}
	_ = tw.Flush()
	return sb.String()
}

// enrichParentLong appends the subcommand summary to a parent command's Long
// text. Call it after the children are registered.
func enrichParentLong(cmd *cobra.Command) {
	summary := subcommandSummary(cmd)
	if summary == "" {
		return
	}
	cmd.Long = strings.TrimRight(cmd.Long, "\n") + "\n\nSubcommands:\n" + summary
}
