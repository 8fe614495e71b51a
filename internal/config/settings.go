package config

import (
	"fmt"

	"github.com/dshills/natan/internal/config/interp"
	"github.com/dshills/natan/internal/config/loader"
)

// Environment variables consulted when the matching option is not set.
const (
	EnvOverlapping   = "NATAN_OVERLAPPING"
	EnvInterpolation = "NATAN_INTERPOLATION"
	EnvEvaluator     = "NATAN_EVALUATOR"
)

// Settings are the switches that shape a load.
type Settings struct {
	// UseOverlapping enables discovery of ancestor and local files.
	UseOverlapping bool
	// UseInterpolation enables placeholder resolution.
	UseInterpolation bool
	// Evaluator names the snippet engine, "lua" or "jq".
	Evaluator string
}

// DefaultSettings returns the compiled-in defaults.
func DefaultSettings() Settings {
	return Settings{
		UseOverlapping:   true,
		UseInterpolation: true,
		Evaluator:        interp.DefaultEvaluator,
	}
}

// resolveSettings applies explicit options, then the environment, then
// defaults. Only the exact string "false" disables a switch.
func resolveSettings(env loader.Env, overlapping, interpolation *bool, evaluator string) (Settings, error) {
	s := DefaultSettings()

	if overlapping != nil {
		s.UseOverlapping = *overlapping
	} else {
		s.UseOverlapping = loader.Flag(env, EnvOverlapping, s.UseOverlapping)
	}

	if interpolation != nil {
		s.UseInterpolation = *interpolation
	} else {
		s.UseInterpolation = loader.Flag(env, EnvInterpolation, s.UseInterpolation)
	}

	if evaluator != "" {
		s.Evaluator = evaluator
	} else {
		s.Evaluator = loader.GetEnvOrDefault(env, EnvEvaluator, s.Evaluator)
	}
	if !interp.IsEvaluator(s.Evaluator) {
		return s, fmt.Errorf("%w: %q (available: %v)", ErrUnknownEvaluator, s.Evaluator, interp.Evaluators())
	}

	return s, nil
}
