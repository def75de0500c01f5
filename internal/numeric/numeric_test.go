package numeric

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float", 1.5, 1.5, true},
		{"int", 7, 7, true},
		{"bool true", true, 1, true},
		{"bool false", false, 0, true},
		{"plain string", "42.5", 42.5, true},
		{"padded string", " 1e3 ", 1000, true},
		{"string with unit", "about 300mg", 0, false},
		{"trailing garbage", "12abc", 0, false},
		{"overflowing string", "1e400", 0, false},
		{"json number", json.Number("12"), 12, true},
		{"overflowing json number", json.Number("1e400"), 0, false},
		{"nil", nil, 0, false},
		{"empty string", "  ", 0, false},
		{"no digits", "n/a", 0, false},
		{"slice", []any{1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat64(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ToFloat64(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"number", 12.5, 12.5, true},
		{"string with unit", "about 300kcal", 300, true},
		{"thousands separator", "2,000", 2, true},
		{"json number", json.Number("7"), 7, true},
		{"bool true", true, 0, false},
		{"bool false", false, 0, false},
		{"no digits", "none", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Extract(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseStringKeepsSpecialFloats(t *testing.T) {
	f, ok := ParseString("NaN")
	if !ok || !math.IsNaN(f) {
		t.Errorf("expected NaN, got %v, %v", f, ok)
	}
}

func TestCoerce(t *testing.T) {
	log := zerolog.Nop()

	if got := Coerce(log, "x", "12.5", -1); got != 12.5 {
		t.Errorf("expected 12.5, got %v", got)
	}
	if got := Coerce(log, "x", "about 300mg", 0); got != 0 {
		t.Errorf("expected fallback for text, got %v", got)
	}
	if got := CoerceExtract(log, "x", "about 300mg", 0); got != 300 {
		t.Errorf("expected 300 from lenient extraction, got %v", got)
	}
	if got := CoerceExtract(log, "x", true, 0); got != 0 {
		t.Errorf("expected fallback for bool, got %v", got)
	}
	if got := Coerce(log, "x", math.Inf(1), -1); got != -1 {
		t.Errorf("expected fallback for Inf, got %v", got)
	}
	if got := Coerce(log, "x", math.NaN(), 0); got != 0 {
		t.Errorf("expected fallback for NaN, got %v", got)
	}
	if got := Coerce(log, "x", map[string]any{}, 3); got != 3 {
		t.Errorf("expected fallback for object, got %v", got)
	}
}

func TestFinite(t *testing.T) {
	if Finite(math.Inf(-1)) != 0 || Finite(math.NaN()) != 0 || Finite(2) != 2 {
		t.Error("Finite should keep finite values and zero the rest")
	}
}
