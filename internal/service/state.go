package service

import (
	"strconv"

	"github.com/actuallystonmai/meal-recommendation-service/internal/domain"
	"github.com/actuallystonmai/meal-recommendation-service/internal/numeric"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// UserStateFromMap reads the 12 known fields from a decoded JSON object. Missing fields
// stay 0, values that are not whole numbers become 0, unknown keys are ignored.
func UserStateFromMap(log zerolog.Logger, raw map[string]any) domain.UserState {
	var state domain.UserState
	for i, name := range domain.UserFieldNames {
		v, ok := raw[name]
		if !ok {
			continue
		}
		state[i] = numeric.Coerce(log, name, v, 0)
	}
	return state
}

// NamesFromList keeps string elements as-is, formats numbers, and drops everything else.
func NamesFromList(raw []any) []string {
	names := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			names = append(names, val)
		case float64:
			names = append(names, strconv.FormatFloat(val, 'f', -1, 64))
		case json.Number:
			names = append(names, val.String())
		}
	}
	return names
}
