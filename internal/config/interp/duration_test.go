package interp

import (
	"errors"
	"testing"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"one minute", 60000},
		{"a minute", 60000},
		{"1.5 minutes", 90000},
		{"1 minute and 30 seconds", 90000},
		{"1 hour and 30 minutes", 5400000},
		{"2 hours, 36 minutes", 9360000},
		{"3 days and 4 hours", 273600000},
		{"3 days, 4 hours and 36 seconds", 273636000},
		{"76 hours 36 seconds", 273636000},
		{"90s", 90000},
		{"1.5h", 5400000},
		{"1h 30m", 5400000},
		{"250 ms", 250},
		{"1 ms", 1},
		{"0.0004 seconds", 0},
		{"twenty-one seconds", 21000},
		{"Two Weeks", 1209600000},
		{"1 year", 31536000000},
		{"an hour", 3600000},
		{"zero seconds", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if err != nil {
				t.Fatalf("ParseDuration(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDuration_Errors(t *testing.T) {
	for _, in := range []string{
		"",
		"and",
		"ten",
		"one fortnight",
		"minute",
		"-1 minute",
		"many minutes",
		"inf hours",
		"ten-one minutes",
		"1e3s",
		"9223372036854775807 ms",
		"9223372036854775808 ms",
		"300000000 years",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDuration(in)
			if err == nil {
				t.Fatalf("ParseDuration(%q) expected error", in)
			}
			if !errors.Is(err, ErrDurationParse) {
				t.Errorf("error %v does not match ErrDurationParse", err)
			}
			var de *DurationParseError
			if !errors.As(err, &de) || de.Input != in {
				t.Errorf("error %v is not a DurationParseError for %q", err, in)
			}
		})
	}
}
