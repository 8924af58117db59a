package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/credence/internal/model"
)

// ContentScorer scores a post from its content category and model confidences
type ContentScorer struct {
	cfg model.ScoringConfig
}

// NewContentScorer creates a content scorer
func NewContentScorer(cfg model.ScoringConfig) *ContentScorer {
	return &ContentScorer{cfg: cfg}
}

// Score returns the content reliability score in [0,100]
func (s *ContentScorer) Score(category model.ContentCategory, fakeConfidence, categoryConfidence float64) float64 {
	score, _ := s.score(category, fakeConfidence, categoryConfidence)
	return score
}

// Signal returns the score along with its breakdown
func (s *ContentScorer) Signal(category model.ContentCategory, fakeConfidence, categoryConfidence float64) (float64, model.Signal) {
	return s.score(category, fakeConfidence, categoryConfidence)
}

func (s *ContentScorer) score(category model.ContentCategory, fakeConfidence, categoryConfidence float64) (float64, model.Signal) {
	categoryAdj := s.categoryAdjustment(category)

	fakeAdj := 0.0
	if fakeConfidence > s.cfg.FakePenaltyThreshold {
		fakeAdj = -s.cfg.FakePenalty
	}

	confidenceAdj := (categoryConfidence - s.cfg.ConfidenceMidpoint) * s.cfg.ConfidenceFactor

	raw := s.cfg.BaseScore + categoryAdj + fakeAdj + confidenceAdj
	score := clamp(raw, 0, 100)

	return score, model.Signal{
		Type:        model.SignalContent,
		Description: fmt.Sprintf("Content score %.2f for %q", score, category),
		Data: map[string]any{
			"base":                  s.cfg.BaseScore,
			"category":              string(category),
			"category_adjustment":   categoryAdj,
			"fake_confidence":       fakeConfidence,
			"fake_adjustment":       fakeAdj,
			"category_confidence":   categoryConfidence,
			"confidence_adjustment": confidenceAdj,
			"score":                 score,
			"formula":               "clamp(base + category_adj + fake_adj + (category_confidence - 0.5) * 20, 0, 100)",
		},
	}
}

// categoryAdjustment returns the configured delta, 0 for unknown categories
func (s *ContentScorer) categoryAdjustment(category model.ContentCategory) float64 {
	for _, adj := range s.cfg.CategoryAdjustments {
		if strings.EqualFold(string(adj.Category), string(category)) {
			return adj.Delta
		}
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
