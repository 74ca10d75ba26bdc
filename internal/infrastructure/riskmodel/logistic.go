// Package riskmodel loads a trained logistic-regression artifact and serves
// fraud-probability inference. The artifact is optional: when none is present
// the scorer runs on its heuristic instead.
package riskmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
)

type LogisticModel struct {
	intercept    float64
	coefficients []float64
}

type artifact struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// Load reads the model artifact at path. An empty path or a missing file is a
// normal configuration and returns a nil model without error.
func Load(path string) (*LogisticModel, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("fraud model artifact not found, heuristic scoring active", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("read fraud model artifact: %w", err)
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("parse fraud model artifact: %w", err)
	}
	if len(art.Coefficients) == 0 {
		return nil, fmt.Errorf("fraud model artifact has no coefficients")
	}
	return &LogisticModel{intercept: art.Intercept, coefficients: art.Coefficients}, nil
}

func (m *LogisticModel) PredictFraudProbability(features []float64) (float64, error) {
	if len(features) != len(m.coefficients) {
		return 0, fmt.Errorf("fraud model expects %d features, got %d", len(m.coefficients), len(features))
	}
	z := m.intercept
	for i, f := range features {
		z += m.coefficients[i] * f
	}
	return 1.0 / (1.0 + math.Exp(-z)), nil
}
