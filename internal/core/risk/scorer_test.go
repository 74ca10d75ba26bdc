package risk

import (
	"errors"
	"testing"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
)

type modelFake struct {
	prob     float64
	err      error
	features []float64
}

func (m *modelFake) PredictFraudProbability(features []float64) (float64, error) {
	m.features = features
	if m.err != nil {
		return 0, m.err
	}
	return m.prob, nil
}

func TestHeuristicStrongSignals(t *testing.T) {
	got := New(nil).Score(90, 90, true, 100)
	if got.Score != 10 {
		t.Fatalf("expected risk 10, got %v", got.Score)
	}
	if got.Source != domain.RiskSourceHeuristic {
		t.Fatalf("expected heuristic source, got %s", got.Source)
	}
}

func TestHeuristicInvalidChecksumClampsAtHundred(t *testing.T) {
	got := New(nil).Score(10, 10, false, 20)
	if got.Score != 100 {
		t.Fatalf("expected clamped risk 100, got %v", got.Score)
	}
}

func TestHeuristicFractionalInputsScale(t *testing.T) {
	// 0.9 is a fraction and must behave exactly like 90.
	got := New(nil).Score(0.9, 0.9, true, 100)
	if got.Score != 10 {
		t.Fatalf("expected scaled risk 10, got %v", got.Score)
	}
}

func TestHeuristicBlurryDocumentPenalty(t *testing.T) {
	got := New(nil).Score(90, 90, true, 40)
	if got.Score != 30 {
		t.Fatalf("expected risk 30 with blur penalty, got %v", got.Score)
	}
}

func TestModelPathScalesProbability(t *testing.T) {
	model := &modelFake{prob: 0.42}
	got := New(model).Score(90, 90, true, 100)
	if got.Score != 42 {
		t.Fatalf("expected model risk 42, got %v", got.Score)
	}
	if got.Source != domain.RiskSourceModel {
		t.Fatalf("expected model source, got %s", got.Source)
	}
	want := []float64{90, 90, 1}
	for i, f := range want {
		if model.features[i] != f {
			t.Fatalf("feature %d: expected %v, got %v", i, f, model.features[i])
		}
	}
}

func TestModelFailureFallsBackToHeuristic(t *testing.T) {
	model := &modelFake{err: errors.New("artifact dimension mismatch")}
	got := New(model).Score(90, 90, true, 100)
	if got.Source != domain.RiskSourceHeuristic {
		t.Fatalf("expected heuristic fallback, got %s", got.Source)
	}
	if got.Score != 10 {
		t.Fatalf("expected heuristic risk 10 after fallback, got %v", got.Score)
	}
}
