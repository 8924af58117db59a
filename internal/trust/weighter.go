package trust

import (
	"github.com/ppiankov/credence/internal/model"
)

// Blend is the outcome of weighting content and external scores
type Blend struct {
	Global         float64
	Tier           model.TrustTier
	ExternalWeight float64
}

// Weighter blends content and external scores by the trust tier of the fact-check source
type Weighter struct {
	classifier *Classifier
	weights    map[model.TrustTier]float64
}

// NewWeighter creates a weighter from trust configuration
func NewWeighter(cfg *model.TrustConfig) *Weighter {
	if cfg == nil {
		def := model.DefaultTrustConfig()
		cfg = &def
	}

	return &Weighter{
		classifier: NewClassifier(cfg),
		weights: map[model.TrustTier]float64{
			model.TrustHigh:    cfg.HighWeight,
			model.TrustMedium:  cfg.MediumWeight,
			model.TrustUnknown: cfg.UnknownWeight,
		},
	}
}

// Classify returns the trust tier of a source
func (w *Weighter) Classify(source string) model.TrustTier {
	return w.classifier.Classify(source)
}

// Weight returns the external-score weight for a tier; the content weight is 1 minus it
func (w *Weighter) Weight(tier model.TrustTier) float64 {
	return w.weights[tier]
}

// Blend computes the global score. Without a fact-check the content score passes through.
func (w *Weighter) Blend(source string, hasFactCheck bool, contentScore, externalScore float64) Blend {
	if !hasFactCheck {
		return Blend{Global: contentScore, Tier: model.TrustUnknown}
	}

	tier := w.classifier.Classify(source)
	weight := w.Weight(tier)

	return Blend{
		Global:         weight*externalScore + (1-weight)*contentScore,
		Tier:           tier,
		ExternalWeight: weight,
	}
}
