// Package model loads the pretrained feature scaler and regression model and runs batch
// inference over feature matrices.
package model

import (
	"errors"
	"fmt"
)

// Scaler normalizes an N×F feature matrix.
type Scaler interface {
	Transform(x [][]float64) ([][]float64, error)
}

// Regressor predicts one score per row of an N×F feature matrix.
type Regressor interface {
	Predict(x [][]float64) ([]float64, error)
}

type ModelInferenceError struct {
	Msg string
}

func (e *ModelInferenceError) Error() string {
	return e.Msg
}

func inferenceErrorf(format string, args ...any) error {
	return &ModelInferenceError{Msg: fmt.Sprintf(format, args...)}
}

func IsModelInferenceError(err error) bool {
	var target *ModelInferenceError
	return errors.As(err, &target)
}

// Pipeline runs a scaler followed by a regressor.
type Pipeline struct {
	Scaler    Scaler
	Regressor Regressor
}

func (p Pipeline) Score(x [][]float64) ([]float64, error) {
	scaled, err := p.Scaler.Transform(x)
	if err != nil {
		return nil, fmt.Errorf("scale features: %w", err)
	}
	preds, err := p.Regressor.Predict(scaled)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(preds) != len(x) {
		return nil, inferenceErrorf("model returned %d scores for %d rows", len(preds), len(x))
	}
	return preds, nil
}
