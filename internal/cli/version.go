package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// BuildInfo describes the running binary. main sets it from linker flags.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// formatVersion renders info as "v1.2.3 (commit: abc1234, built: 2024-01-15)".
func formatVersion(info BuildInfo) string {
	version := info.Version
	if version == "" {
		version = "dev"
	}
	commit := info.Commit
	if commit == "" {
		commit = "unknown"
	}
	date := info.Date
	if date == "" {
		date = "unknown"
	}
	return version + " (commit: " + commit + ", built: " + date + ")"
}

// versionCmd prints build information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show version information",
	Long:    `Show the safecheck version, the commit it was built from and the build date.`,
	Example: `  safecheck version
  safecheck version -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return renderDoc(cmd, buildInfo, func(w io.Writer) error {
			outln(w, "safecheck "+formatVersion(buildInfo))
			return nil
		})
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.GroupID = groupConfig
}
