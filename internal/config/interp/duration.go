package interp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	millisecond = 1.0
	second      = 1000 * millisecond
	minute      = 60 * second
	hour        = 60 * minute
	day         = 24 * hour
	week        = 7 * day
	year        = 365 * day
)

var durationUnits = map[string]float64{
	"ms": millisecond, "msec": millisecond, "msecs": millisecond,
	"millisecond": millisecond, "milliseconds": millisecond,
	"s": second, "sec": second, "secs": second, "second": second, "seconds": second,
	"m": minute, "min": minute, "mins": minute, "minute": minute, "minutes": minute,
	"h": hour, "hr": hour, "hrs": hour, "hour": hour, "hours": hour,
	"d": day, "day": day, "days": day,
	"w": week, "wk": week, "wks": week, "week": week, "weeks": week,
	"y": year, "yr": year, "yrs": year, "year": year, "years": year,
}

var numberWords = map[string]float64{
	"a": 1, "an": 1, "zero": 0,
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	"hundred": 100,
}

// ParseDuration converts a human-readable duration such as
// "1 hour and 30 minutes", "two days, 4h" or "1.5 minutes" into whole
// milliseconds. Clauses are "<number> <unit>" pairs separated by "and",
// commas or whitespace; number and unit may also be written together
// ("90s"). The result is rounded to the nearest millisecond.
func ParseDuration(input string) (int64, error) {
	fail := func(format string, args ...any) (int64, error) {
		return 0, &DurationParseError{Input: input, Message: fmt.Sprintf(format, args...)}
	}

	var tokens []string
	for _, f := range strings.Fields(strings.ToLower(strings.ReplaceAll(input, ",", " "))) {
		if f != "and" {
			tokens = append(tokens, f)
		}
	}
	if len(tokens) == 0 {
		return fail("empty expression")
	}

	var total float64
	for i := 0; i < len(tokens); {
		tok := tokens[i]
		i++

		n, unit, compact := splitCompact(tok)
		if !compact {
			var ok bool
			if n, ok = parseNumber(tok); !ok {
				return fail("expected a number, got %q", tok)
			}
			if i >= len(tokens) {
				return fail("missing unit after %q", tok)
			}
			unit = tokens[i]
			i++
		}

		scale, ok := durationUnits[unit]
		if !ok {
			return fail("unknown unit %q", unit)
		}
		total += n * scale
	}

	if !(total < 1<<63) {
		return fail("duration overflows")
	}
	return int64(math.Round(total)), nil
}

// splitCompact splits tokens like "90s" or "1.5h" into number and unit.
func splitCompact(tok string) (float64, string, bool) {
	i := 0
	for i < len(tok) && (tok[i] >= '0' && tok[i] <= '9' || tok[i] == '.') {
		i++
	}
	if i == 0 || i == len(tok) {
		return 0, "", false
	}
	n, err := strconv.ParseFloat(tok[:i], 64)
	if err != nil {
		return 0, "", false
	}
	unit := tok[i:]
	if _, ok := durationUnits[unit]; !ok {
		return 0, "", false
	}
	return n, unit, true
}

// parseNumber accepts non-negative decimals and English number words,
// including hyphenated compounds like "twenty-one".
func parseNumber(tok string) (float64, bool) {
	if tok[0] >= '0' && tok[0] <= '9' || tok[0] == '.' {
		n, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	}

	if n, ok := numberWords[tok]; ok {
		return n, true
	}
	tens, ones, found := strings.Cut(tok, "-")
	if !found {
		return 0, false
	}
	t, ok := numberWords[tens]
	if !ok || t < 20 || t > 90 {
		return 0, false
	}
	o, ok := numberWords[ones]
	if !ok || o < 1 || o > 9 {
		return 0, false
	}
	return t + o, true
}
