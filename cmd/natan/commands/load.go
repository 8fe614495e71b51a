package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/natan"
	"github.com/dshills/natan/internal/config/interp"
)

type loadOptions struct {
	source          sourceFlags
	noInterpolation bool
	evaluator       string
	timeout         time.Duration
	format          string
	query           string
}

func newLoadCommand() *cobra.Command {
	opts := &loadOptions{}

	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Print the merged and resolved configuration",
		Long: `Load a configuration file with its overlapping files, resolve placeholders
and print the result.

Examples:
  natan load app.config                      # Resolved config as JSON
  natan load app.config --format yaml        # ... as YAML
  natan load app.config --query .server.port # Run a jq query over it
  natan load app.config --no-interpolation   # Merge only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, opts, args[0])
		},
	}

	opts.source.register(cmd)
	cmd.Flags().BoolVar(&opts.noInterpolation, "no-interpolation", false, "Leave placeholders unresolved")
	cmd.Flags().StringVar(&opts.evaluator, "evaluator", "", "Snippet engine for f{} (lua|jq)")
	cmd.Flags().DurationVar(&opts.timeout, "snippet-timeout", 0, "Time limit for each f{} snippet (default 1s)")
	cmd.Flags().StringVarP(&opts.format, "format", "o", "json", "Output format (json|yaml)")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "jq query to apply to the result")

	return cmd
}

func runLoad(cmd *cobra.Command, opts *loadOptions, target string) error {
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("unknown format %q (want json or yaml)", opts.format)
	}

	loadOpts, err := opts.source.options(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("no-interpolation") {
		loadOpts = append(loadOpts, natan.WithInterpolation(!opts.noInterpolation))
	}
	if opts.evaluator != "" {
		loadOpts = append(loadOpts, natan.WithEvaluator(opts.evaluator))
	}
	if opts.timeout > 0 {
		loadOpts = append(loadOpts, natan.WithSnippetTimeout(opts.timeout))
	}

	ctx := cmd.Context()
	result, err := natan.LoadContext(ctx, target, loadOpts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.query == "" {
		return writeValue(out, opts.format, result)
	}

	values, err := interp.Query(ctx, opts.query, result)
	if err != nil {
		return err
	}
	for _, v := range values {
		if err := writeValue(out, opts.format, v); err != nil {
			return err
		}
	}
	return nil
}

func writeValue(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
