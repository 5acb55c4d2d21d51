// Package main is the entry point for the crossdrop CLI.
package main

import (
	"os"

	"github.com/mrz1836/crossdrop/internal/cli"
)

// Set by the linker: -ldflags "-X main.version=v0.1.0 -X main.commit=... -X main.date=..."
//
//nolint:gochecknoglobals // Build metadata stamped at link time
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
