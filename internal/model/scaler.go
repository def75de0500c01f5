package model

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// StandardScaler applies (x - mean) / scale per column.
type StandardScaler struct {
	FeatureNames []string
	Mean         []float64
	Scale        []float64
}

type scalerFile struct {
	FeatureNames  []string  `json:"feature_names"`
	FeatureNamesA []string  `json:"feature_names_in_"`
	Mean          []float64 `json:"mean"`
	MeanA         []float64 `json:"mean_"`
	Scale         []float64 `json:"scale"`
	ScaleA        []float64 `json:"scale_"`
}

// LoadStandardScaler reads a scaler exported as JSON:
//
//	{"feature_names": [...], "mean": [...], "scale": [...]}
//
// scikit-learn attribute spellings (mean_, scale_, feature_names_in_) are accepted too.
func LoadStandardScaler(path string) (*StandardScaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler: %w", err)
	}
	return ParseStandardScaler(data)
}

func ParseStandardScaler(data []byte) (*StandardScaler, error) {
	var raw scalerFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}

	s := &StandardScaler{
		FeatureNames: firstNonEmpty(raw.FeatureNames, raw.FeatureNamesA),
		Mean:         firstNonEmpty(raw.Mean, raw.MeanA),
		Scale:        firstNonEmpty(raw.Scale, raw.ScaleA),
	}
	if len(s.Mean) == 0 {
		return nil, errors.New("scaler has no mean vector")
	}
	if len(s.Scale) != len(s.Mean) {
		return nil, fmt.Errorf("scaler mean has %d values but scale has %d", len(s.Mean), len(s.Scale))
	}
	if len(s.FeatureNames) > 0 && len(s.FeatureNames) != len(s.Mean) {
		return nil, fmt.Errorf("scaler has %d feature names for %d columns", len(s.FeatureNames), len(s.Mean))
	}
	return s, nil
}

func (s *StandardScaler) Width() int {
	return len(s.Mean)
}

func (s *StandardScaler) Transform(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != len(s.Mean) {
			return nil, inferenceErrorf("row %d has %d features, scaler expects %d", i, len(row), len(s.Mean))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scale := s.Scale[j]
			if scale == 0 {
				scale = 1
			}
			scaled[j] = (v - s.Mean[j]) / scale
		}
		out[i] = scaled
	}
	return out, nil
}

// CheckFeatureOrder verifies that the scaler was fitted on columns in the given order.
// match decides whether a stored name equals an expected one. A scaler without stored
// names only has its width checked.
func (s *StandardScaler) CheckFeatureOrder(order []string, match func(pos int, stored string) bool) error {
	if len(s.Mean) != len(order) {
		return fmt.Errorf("scaler has %d columns, expected %d", len(s.Mean), len(order))
	}
	for i, name := range s.FeatureNames {
		if !match(i, name) {
			return fmt.Errorf("scaler column %d is %q, expected %q", i, name, order[i])
		}
	}
	return nil
}

func firstNonEmpty[T any](a, b []T) []T {
	if len(a) > 0 {
		return a
	}
	return b
}
