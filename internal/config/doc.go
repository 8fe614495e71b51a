// Package config loads overlapping configuration files and resolves the
// placeholders in them.
//
// # Overlapping files
//
// Loading /srv/app/test.config visits every directory from the top of the
// walk down to /srv/app. In each directory, in ascending precedence:
//
//	test.config          base file with the target's name
//	test.local.config    conventional local override
//	test.config.local    conventional local override
//	<declared>           local override named in the .natan settings file
//
// Deeper directories outrank shallower ones. The walk stops at the
// filesystem root, at a directory passed to WithStopDir, at a directory
// holding one of the WithRootMarkers entries, or at a directory whose
// settings file sets "root: true".
//
// All contributing trees are merged: maps merge key by key, anything else
// is replaced by the more specific value.
//
// # Placeholders
//
// String values may hold placeholders, resolved after the merge:
//
//	k{a.b}      value of another key (maps and arrays are deep-copied)
//	t{1 hour}   duration in milliseconds
//	p{./src}    absolute path
//	r{^\d+$}    compiled *regexp.Regexp
//	f{1 + 1}    sandboxed Lua (default) or jq snippet
//
// # Settings
//
// Each switch resolves as explicit option, then environment variable
// (NATAN_OVERLAPPING, NATAN_INTERPOLATION, NATAN_EVALUATOR), then default.
// Only the exact string "false" turns a switch off.
//
// # Basic Usage
//
//	l := config.New(config.WithRootMarkers(".git"))
//	cfg, err := l.LoadConfig(ctx, "test.config")
//	if err != nil {
//	    return err
//	}
//	timeout, _ := cfg.GetDuration("server.timeout")
package config
