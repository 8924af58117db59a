package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/credence/internal/model"
)

// ExternalScorer converts a fact-check rating into an external reliability score
type ExternalScorer struct {
	neutral float64
	table   []model.RatingRule
}

// NewExternalScorer creates an external scorer. The rating table is scanned in order.
func NewExternalScorer(cfg model.ScoringConfig) *ExternalScorer {
	table := make([]model.RatingRule, 0, len(cfg.RatingTable))
	for _, rule := range cfg.RatingTable {
		keywords := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		table = append(table, model.RatingRule{Keywords: keywords, Score: rule.Score})
	}

	return &ExternalScorer{
		neutral: cfg.NeutralExternalScore,
		table:   table,
	}
}

// Score returns the score for a verdict; nil means no fact-check and yields the neutral score
func (s *ExternalScorer) Score(verdict *model.FactCheckVerdict) float64 {
	score, _ := s.Signal(verdict)
	return score
}

// ScoreRating scores a rating text directly
func (s *ExternalScorer) ScoreRating(rating string) float64 {
	score, _ := s.match(rating)
	return score
}

// Signal returns the score along with the keyword that decided it
func (s *ExternalScorer) Signal(verdict *model.FactCheckVerdict) (float64, model.Signal) {
	if verdict == nil {
		return s.neutral, model.Signal{
			Type:        model.SignalExternal,
			Description: "No fact-check available, neutral external score",
			Data:        map[string]any{"score": s.neutral},
		}
	}

	score, keyword := s.match(verdict.Rating)
	desc := fmt.Sprintf("Rating %q matched %q", verdict.Rating, keyword)
	if keyword == "" {
		desc = fmt.Sprintf("Rating %q matched no keyword, default score", verdict.Rating)
	}

	return score, model.Signal{
		Type:        model.SignalExternal,
		Description: desc,
		Data: map[string]any{
			"rating":  verdict.Rating,
			"source":  verdict.Source,
			"keyword": keyword,
			"score":   score,
		},
	}
}

// match returns the score of the first keyword contained in the lower-cased rating
func (s *ExternalScorer) match(rating string) (float64, string) {
	lower := strings.ToLower(rating)
	for _, rule := range s.table {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Score, kw
			}
		}
	}
	return s.neutral, ""
}
