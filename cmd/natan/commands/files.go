package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/natan"
)

type filesOptions struct {
	source sourceFlags
	key    string
}

func newFilesCommand() *cobra.Command {
	opts := &filesOptions{}

	cmd := &cobra.Command{
		Use:   "files <file>",
		Short: "List the files that contribute to a configuration",
		Long: `List the files merged when loading a configuration, least specific first.

Examples:
  natan files app.config                 # All contributing files
  natan files app.config --key db.host   # File that sets db.host`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(cmd, opts, args[0])
		},
	}

	opts.source.register(cmd)
	cmd.Flags().StringVarP(&opts.key, "key", "k", "", "Show only the most specific file defining this key")

	return cmd
}

func runFiles(cmd *cobra.Command, opts *filesOptions, target string) error {
	loadOpts, err := opts.source.options(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	if opts.key == "" {
		cands, err := natan.Discover(target, loadOpts...)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "RANK\tKIND\tPATH\t")
		for _, c := range cands {
			fmt.Fprintf(w, "%d\t%s\t%s\t\n", c.Rank, c.Kind, c.Path)
		}
		return w.Flush()
	}

	// Sources are tracked before placeholders run, so skip resolving them.
	loadOpts = append(loadOpts, natan.WithInterpolation(false))
	cfg, err := natan.LoadConfig(cmd.Context(), target, loadOpts...)
	if err != nil {
		return err
	}
	c, ok := cfg.Source(opts.key)
	if !ok {
		return fmt.Errorf("%w: %s", natan.ErrSettingNotFound, opts.key)
	}
	fmt.Fprintln(w, "RANK\tKIND\tPATH\t")
	fmt.Fprintf(w, "%d\t%s\t%s\t\n", c.Rank, c.Kind, c.Path)
	return w.Flush()
}
