// Package main is the entry point for the natan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/dshills/natan/cmd/natan/commands"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	info := commands.BuildInfo{Version: version, Commit: commit, Date: date}
	if err := commands.Execute(info); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
