package score

import (
	"github.com/ppiankov/credence/internal/model"
)

// Leveler derives the qualitative confidence level of an analysis
type Leveler struct {
	cfg model.DecisionConfig
}

// NewLeveler creates a confidence leveler
func NewLeveler(cfg model.DecisionConfig) *Leveler {
	return &Leveler{cfg: cfg}
}

// Level averages the two model confidences; only a fact-checked post can reach the top level
func (l *Leveler) Level(contentConfidence, fakeConfidence float64, hasFactCheck bool) model.ConfidenceLevel {
	avg := (contentConfidence + fakeConfidence) / 2

	switch {
	case hasFactCheck && avg > l.cfg.ConfidenceVeryHigh:
		return model.ConfidenceVeryHigh
	case avg > l.cfg.ConfidenceHigh:
		return model.ConfidenceHigh
	case avg > l.cfg.ConfidenceMedium:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
