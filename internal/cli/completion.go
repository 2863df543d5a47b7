package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// completionShells maps each supported shell to its script generator.
//
//nolint:gochecknoglobals // static lookup table
var completionShells = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":  func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish": func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(w)
	},
}

// completionCmd prints a shell completion script.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Print a completion script for the given shell to stdout.

Completion covers subcommands, flags and the keys accepted by "config get"
and "config set". Source the script from your shell profile, or write it to
the shell's completion directory, to keep it across sessions.`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Example: `  safecheck completion zsh > "${fpath[1]}/_safecheck"
  safecheck completion fish | source
  source <(safecheck completion bash)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return completionShells[args[0]](cmd.Root(), cmd.OutOrStdout())
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(completionCmd)
	completionCmd.GroupID = groupConfig
}
