// Package risk combines the pipeline's fraud signals into a 0-100 risk score.
// A trained model is used when one is loaded; the deterministic heuristic is
// always available as the fallback path. The score accompanies the decision
// for audit and does not gate it.
package risk

import (
	"log/slog"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/ports"
)

const (
	baseRisk            = 50
	invalidChecksumRisk = 50
	blurryImageRisk     = 20
	strongSignalReward  = 20
	blurryThreshold     = 60
	strongSignalPct     = 80
)

type Scorer struct {
	model ports.FraudModel // nil when no artifact is loaded
}

// New builds a Scorer. A nil model is a normal configuration and selects the
// heuristic path.
func New(model ports.FraudModel) *Scorer {
	return &Scorer{model: model}
}

// Score produces a risk assessment from the face similarity, the identifier
// match signal, the primary identifier's checksum validity, and the document
// blur score. Fractional inputs in [0,1] are treated as unscaled percentages.
// Score never fails: a model runtime error falls through to the heuristic.
func (s *Scorer) Score(facePct, identifierPct float64, checksumValid bool, blurScore float64) domain.RiskAssessment {
	facePct = toPercent(facePct)
	identifierPct = toPercent(identifierPct)

	if s.model != nil {
		checksumFlag := 0.0
		if checksumValid {
			checksumFlag = 1.0
		}
		prob, err := s.model.PredictFraudProbability([]float64{facePct, identifierPct, checksumFlag})
		if err == nil {
			return domain.RiskAssessment{
				Score:  clamp(prob * 100),
				Source: domain.RiskSourceModel,
			}
		}
		slog.Warn("fraud model inference failed, using heuristic", "error", err)
	}

	score := float64(baseRisk)
	if !checksumValid {
		// An invalid government-ID checksum dominates every other signal.
		score += invalidChecksumRisk
	}
	if blurScore < blurryThreshold {
		score += blurryImageRisk
	}
	if identifierPct > strongSignalPct {
		score -= strongSignalReward
	}
	if facePct > strongSignalPct {
		score -= strongSignalReward
	}

	return domain.RiskAssessment{
		Score:  clamp(score),
		Source: domain.RiskSourceHeuristic,
	}
}

func toPercent(v float64) float64 {
	if v <= 1 {
		return v * 100
	}
	return v
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
