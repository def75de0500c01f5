// Package numeric holds the best-effort number conversions used on untrusted values.
// A value that cannot become a finite float64 degrades to a fallback, never to an error.
package numeric

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

var firstNumber = regexp.MustCompile(`[0-9]+(\.[0-9]+)?`)

// ToFloat64 converts v to float64. Strings must parse whole ("12", " 1e3 "); "12abc" is
// not a number. The result may be NaN or Inf.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint64:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case interface{ Float64() (float64, error) }:
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Extract converts v the lenient way client-reported intake needs: strings yield their
// first decimal number ("about 300kcal" -> 300) and booleans are not numbers.
func Extract(v any) (float64, bool) {
	switch val := v.(type) {
	case bool:
		return 0, false
	case string:
		return ParseString(val)
	}
	return ToFloat64(v)
}

// ParseString parses s as a float, falling back to the first decimal number inside it.
func ParseString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	m := firstNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Finite returns f, or 0 when f is NaN or infinite.
func Finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Coerce converts v with ToFloat64 to a finite float64, returning fallback and logging at
// debug when the value is unusable. field only labels the log line.
func Coerce(log zerolog.Logger, field string, v any, fallback float64) float64 {
	return coerce(log, field, v, fallback, ToFloat64)
}

// CoerceExtract is Coerce with Extract's lenient conversion.
func CoerceExtract(log zerolog.Logger, field string, v any, fallback float64) float64 {
	return coerce(log, field, v, fallback, Extract)
}

func coerce(log zerolog.Logger, field string, v any, fallback float64, convert func(any) (float64, bool)) float64 {
	f, ok := convert(v)
	if !ok {
		log.Debug().Str("field", field).Interface("value", v).Msg("unconvertible value, using fallback")
		return fallback
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		log.Debug().Str("field", field).Float64("value", f).Msg("non-finite value, using fallback")
		return fallback
	}
	return f
}
