// Package walker discovers the overlapping configuration files that apply
// to a target file.
//
// For every directory between the top of the walk and the target's own
// directory the walker looks for a base file with the target's basename,
// a conventional local override (test.local.config or test.config.local)
// and a local override declared in the directory's settings file. The
// returned candidates are ordered by ascending precedence.
package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/dshills/natan/internal/config/layer"
)

// ErrTargetNotFound is returned when the target file does not exist.
var ErrTargetNotFound = errors.New("config file not found")

// Walker discovers candidate files.
type Walker struct {
	fs           afero.Fs
	settingsName string
	stopDir      string
	markers      []string
	overlapping  bool
	log          zerolog.Logger
}

// Option configures a Walker.
type Option func(*Walker)

// WithFS sets the file system to walk.
func WithFS(fsys afero.Fs) Option {
	return func(w *Walker) {
		if fsys != nil {
			w.fs = fsys
		}
	}
}

// WithSettingsFile sets the name of the per-directory settings file.
func WithSettingsFile(name string) Option {
	return func(w *Walker) {
		if name != "" {
			w.settingsName = name
		}
	}
}

// WithStopDir stops the upward walk at dir. dir itself is still visited.
func WithStopDir(dir string) Option {
	return func(w *Walker) {
		if dir == "" {
			w.stopDir = ""
			return
		}
		if abs, err := filepath.Abs(dir); err == nil {
			w.stopDir = abs
		}
	}
}

// WithRootMarkers stops the upward walk at the first directory containing
// any of the named entries, for example ".git".
func WithRootMarkers(names ...string) Option {
	return func(w *Walker) {
		w.markers = append(w.markers[:0:0], names...)
	}
}

// WithOverlapping enables or disables the directory walk. When disabled
// the target is the only candidate.
func WithOverlapping(enabled bool) Option {
	return func(w *Walker) {
		w.overlapping = enabled
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(log zerolog.Logger) Option {
	return func(w *Walker) {
		w.log = log
	}
}

// New creates a Walker over the OS file system with overlapping enabled.
func New(opts ...Option) *Walker {
	w := &Walker{
		fs:           afero.NewOsFs(),
		settingsName: DefaultSettingsFile,
		overlapping:  true,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Discover returns the candidate files for target, least specific first.
// Ranks are dense and start at zero.
func (w *Walker) Discover(target string) ([]layer.Candidate, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", target, err)
	}
	abs = filepath.Clean(abs)

	info, err := w.fs.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, abs)
		}
		return nil, fmt.Errorf("reading %s: %w", abs, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrTargetNotFound, abs)
	}

	targetDir := filepath.Dir(abs)
	if !w.overlapping {
		return []layer.Candidate{{Path: abs, Rank: 0, Kind: layer.KindBase, Dir: targetDir}}, nil
	}

	basename := filepath.Base(abs)
	dirs, settings := w.collectDirs(targetDir)

	var out []layer.Candidate
	add := func(path string, kind layer.Kind, dir string) {
		for _, c := range out {
			if c.Path == path {
				return
			}
		}
		out = append(out, layer.Candidate{Path: path, Rank: len(out), Kind: kind, Dir: dir})
	}

	for _, dir := range dirs {
		base := filepath.Join(dir, basename)
		if dir == targetDir || w.isFile(base) {
			add(base, layer.KindBase, dir)
		}

		for _, name := range conventionLocalNames(basename) {
			if p := filepath.Join(dir, name); w.isFile(p) {
				add(p, layer.KindConventionLocal, dir)
			}
		}

		if name := settings[dir].LocalFor(basename); name != "" {
			p := filepath.Join(dir, name)
			if w.isFile(p) {
				add(p, layer.KindDeclaredLocal, dir)
			} else {
				w.log.Debug().Str("dir", dir).Str("file", name).Msg("declared local file not found")
			}
		}
	}

	w.log.Debug().Str("target", abs).Int("candidates", len(out)).Msg("discovered config files")
	return out, nil
}

// collectDirs returns the directories to visit from the top of the walk
// down to targetDir, with the settings found in each.
func (w *Walker) collectDirs(targetDir string) ([]string, map[string]*dirSettings) {
	settings := make(map[string]*dirSettings)
	var dirs []string

	dir := targetDir
	for {
		dirs = append(dirs, dir)
		s := w.readSettings(dir)
		settings[dir] = s

		if w.isBoundary(dir, s) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	for i, j := 0, len(dirs)-1; i < j; i, j = i+1, j-1 {
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}
	return dirs, settings
}

func (w *Walker) isBoundary(dir string, s *dirSettings) bool {
	if s != nil && s.Root {
		w.log.Debug().Str("dir", dir).Msg("settings file marks root")
		return true
	}
	if w.stopDir != "" && dir == w.stopDir {
		return true
	}
	for _, m := range w.markers {
		if _, err := w.fs.Stat(filepath.Join(dir, m)); err == nil {
			w.log.Debug().Str("dir", dir).Str("marker", m).Msg("root marker found")
			return true
		}
	}
	return false
}

// readSettings returns nil when the directory has no usable settings file.
func (w *Walker) readSettings(dir string) *dirSettings {
	path := filepath.Join(dir, w.settingsName)
	if !w.isFile(path) {
		return nil
	}
	data, err := afero.ReadFile(w.fs, path)
	if err != nil {
		w.log.Debug().Err(err).Str("file", path).Msg("skipping unreadable settings file")
		return nil
	}
	s, err := parseSettings(data)
	if err != nil {
		w.log.Debug().Err(err).Str("file", path).Msg("skipping malformed settings file")
		return nil
	}
	return s
}

func (w *Walker) isFile(path string) bool {
	info, err := w.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// conventionLocalNames returns the conventional local names for basename,
// highest precedence last: "test.local.config" then "test.config.local".
func conventionLocalNames(basename string) []string {
	ext := filepath.Ext(basename)
	stem := strings.TrimSuffix(basename, ext)
	if ext == "" || stem == "" {
		return []string{basename + ".local"}
	}
	return []string{stem + ".local" + ext, basename + ".local"}
}
