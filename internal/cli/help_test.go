package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(*cobra.Command, []string) {}

func renderHelp(t *testing.T, cmd *cobra.Command) string {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	t.Cleanup(func() { cmd.SetOut(nil) })
	require.NoError(t, cmd.Help())
	return buf.String()
}

// Every command in the tree must satisfy each rule. Cobra's generated help
// command is exempt from the example rule.
func TestCommandTreeConventions(t *testing.T) {
	isLeaf := func(cmd *cobra.Command) bool {
		return (cmd.RunE != nil || cmd.Run != nil) && !(cmd.Name() == "help" && cmd.Parent() == rootCmd)
	}

	rules := map[string]func(t *testing.T, cmd *cobra.Command){
		"short": func(t *testing.T, cmd *cobra.Command) {
			assert.NotEmpty(t, cmd.Short)
		},
		"long": func(t *testing.T, cmd *cobra.Command) {
			assert.NotEmpty(t, cmd.Long)
			assert.NotContains(t, cmd.Long, "\nExample:")
			assert.NotContains(t, cmd.Long, "\nExamples:")
		},
		"example": func(t *testing.T, cmd *cobra.Command) {
			if isLeaf(cmd) {
				assert.NotEmpty(t, cmd.Example)
			}
		},
		"flag usage": func(t *testing.T, cmd *cobra.Command) {
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				assert.NotEmpty(t, f.Usage, "--%s", f.Name)
			})
		},
		"group": func(t *testing.T, cmd *cobra.Command) {
			if cmd.Parent() == rootCmd && cmd.IsAvailableCommand() {
				assert.NotEmpty(t, cmd.GroupID)
			}
		},
	}

	walkCommands(rootCmd, func(cmd *cobra.Command) {
		for name, rule := range rules {
			t.Run(cmd.CommandPath()+"/"+name, func(t *testing.T) {
				rule(t, cmd)
			})
		}
	})
}

func TestWalkCommands_VisitsTree(t *testing.T) {
	var visited []string
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		visited = append(visited, cmd.CommandPath())
	})

	require.NotEmpty(t, visited)
	assert.Equal(t, "safecheck", visited[0], "parents come first")
	assert.Subset(t, visited, []string{
		"safecheck check",
		"safecheck interactive",
		"safecheck token set",
		"safecheck token show",
		"safecheck token clear",
		"safecheck config init",
		"safecheck config show",
		"safecheck config get",
		"safecheck config set",
		"safecheck config keys",
		"safecheck completion",
		"safecheck version",
	})
}

func TestRootHelp_Groups(t *testing.T) {
	help := renderHelp(t, rootCmd)

	checks := strings.Index(help, "Checks:")
	configuration := strings.Index(help, "Configuration:")
	require.GreaterOrEqual(t, checks, 0)
	require.Greater(t, configuration, checks)

	checkSection := help[checks:configuration]
	assert.Contains(t, checkSection, "check")
	assert.Contains(t, checkSection, "interactive")
	assert.Contains(t, help[configuration:], "token")
	assert.NotContains(t, help, "Available Commands:")
}

func TestParentHelp_ListsSubcommands(t *testing.T) {
	for _, parent := range []*cobra.Command{tokenCmd, configCmd} {
		t.Run(parent.Name(), func(t *testing.T) {
			help := renderHelp(t, parent)
			assert.Equal(t, 1, strings.Count(parent.Long, "Subcommands:"), "enriched once")
			for _, sub := range parent.Commands() {
				if sub.IsAvailableCommand() {
					assert.Contains(t, help, "  "+sub.Name())
				}
			}
		})
	}
}

func TestLeafHelp_ShowsExamples(t *testing.T) {
	for _, cmd := range []*cobra.Command{checkCmd, interactiveCmd, tokenSetCmd, configSetCmd, completionCmd} {
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			help := renderHelp(t, cmd)
			assert.Contains(t, help, "Examples:\n  safecheck ")
		})
	}
}

func TestSubcommandSummary(t *testing.T) {
	t.Parallel()

	parent := &cobra.Command{Use: "token", Long: "Manage the token.\n"}
	parent.AddCommand(
		&cobra.Command{Use: "set", Short: "Store a token", Run: noop},
		&cobra.Command{Use: "clear", Short: "Remove the token", Run: noop},
		&cobra.Command{Use: "rotate", Short: "Hidden rotation", Hidden: true, Run: noop},
	)

	summary := subcommandSummary(parent)
	assert.Equal(t, "  clear  Remove the token\n  set    Store a token\n", summary)

	enrichParentLong(parent)
	assert.Equal(t, "Manage the token.\n\nSubcommands:\n"+summary, parent.Long)
}

func TestEnrichParentLong_LeafUnchanged(t *testing.T) {
	t.Parallel()

	leaf := &cobra.Command{Use: "show", Long: "Show the token."}
	enrichParentLong(leaf)
	assert.Equal(t, "Show the token.", leaf.Long)
}
