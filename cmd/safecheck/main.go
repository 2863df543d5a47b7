// Package main is the entry point for the safecheck CLI.
package main

import (
	"os"

	"github.com/mrz1836/safecheck/internal/cli"
)

// Set by the linker.
//
//nolint:gochecknoglobals // ldflags targets
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	if err := cli.Execute(cli.BuildInfo{Version: version, Commit: commit, Date: date}); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
