// Package commands provides the CLI commands for natan.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/natan/internal/logging"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Global flags
type rootOptions struct {
	printLogs bool
	logLevel  string
}

// NewRootCommand builds the natan command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "natan",
		Short: "natan - hierarchical configuration loader",
		Long: `natan loads a configuration file together with the files that overlap it
in parent directories and local override files, merges them, and resolves
k{} t{} p{} r{} f{} placeholders.

Run 'natan load <file>' to print the resolved configuration, or
'natan files <file>' to see which files contribute to it.`,
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.initLogging(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&opts.printLogs, "print-logs", false, "Print logs to stderr")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")

	rootCmd.SetVersionTemplate(fmt.Sprintf("natan %s (commit %s, built %s)\n", info.Version, info.Commit, info.Date))

	rootCmd.AddCommand(newLoadCommand())
	rootCmd.AddCommand(newFilesCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute(info BuildInfo) error {
	return NewRootCommand(info).Execute()
}

func (o *rootOptions) initLogging(cmd *cobra.Command) {
	level := logging.Disabled
	if o.printLogs {
		level = logging.ParseLevel(o.logLevel)
	}
	logging.Init(logging.Config{
		Level:  level,
		Output: cmd.ErrOrStderr(),
		Pretty: true,
	})
}
