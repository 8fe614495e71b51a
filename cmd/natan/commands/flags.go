package commands

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dshills/natan"
	"github.com/dshills/natan/internal/config/loader"
	"github.com/dshills/natan/internal/logging"
)

// sourceFlags select which files take part in a load.
type sourceFlags struct {
	noOverlapping bool
	stopDir       string
	rootMarkers   []string
	settingsFile  string
	envFiles      []string
	workDir       string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVar(&f.noOverlapping, "no-overlapping", false, "Load only the named file")
	flags.StringVar(&f.stopDir, "stop-dir", "", "Do not look for overlapping files above this directory")
	flags.StringSliceVar(&f.rootMarkers, "root-marker", nil, "Stop at the first directory containing this entry (repeatable)")
	flags.StringVar(&f.settingsFile, "settings-file", "", "Name of the per-directory settings file (default .natan)")
	flags.StringSliceVar(&f.envFiles, "env-file", nil, "Read extra environment variables from a dotenv file (repeatable)")
	flags.StringVarP(&f.workDir, "dir", "C", "", "Resolve relative paths against this directory")
}

// options converts the flags into load options. Variables from env files
// never override the process environment.
func (f *sourceFlags) options(cmd *cobra.Command) ([]natan.Option, error) {
	opts := []natan.Option{
		natan.WithLogger(logging.Component("cli")),
	}

	if cmd.Flags().Changed("no-overlapping") {
		opts = append(opts, natan.WithOverlapping(!f.noOverlapping))
	}
	if f.stopDir != "" {
		opts = append(opts, natan.WithStopDir(f.stopDir))
	}
	if len(f.rootMarkers) > 0 {
		opts = append(opts, natan.WithRootMarkers(f.rootMarkers...))
	}
	if f.settingsFile != "" {
		opts = append(opts, natan.WithSettingsFile(f.settingsFile))
	}
	if f.workDir != "" {
		opts = append(opts, natan.WithWorkDir(f.workDir))
	}
	if len(f.envFiles) > 0 {
		env, err := loader.LoadDotenv(afero.NewOsFs(), loader.OSEnv{}, f.envFiles...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, natan.WithEnv(env))
	}
	return opts, nil
}
