package score

import (
	"github.com/ppiankov/credence/internal/model"
)

// TierClassifier resolves the trust tier of a fact-check source
type TierClassifier interface {
	Classify(source string) model.TrustTier
}

// DecisionInput holds everything the final category depends on
type DecisionInput struct {
	GlobalScore     float64
	IsFakeNews      bool
	FakeConfidence  float64
	HasFactCheck    bool
	ExternalScore   float64
	FactCheckSource string
}

// InputFromResult extracts the decision inputs from a stored analysis
func InputFromResult(a *model.AnalysisResult) DecisionInput {
	return DecisionInput{
		GlobalScore:     a.GlobalReliabilityScore,
		IsFakeNews:      a.IsFakeNews,
		FakeConfidence:  a.FakeNewsConfidence,
		HasFactCheck:    a.HasFactCheck,
		ExternalScore:   a.ExternalReliabilityScore,
		FactCheckSource: a.FactCheckSource,
	}
}

// Rule is one entry of the decision table. Match reports whether the rule applies.
type Rule struct {
	Name  string
	Match func(in DecisionInput, tier model.TrustTier) (model.Category, bool)
}

// Decision is the category picked and the rule that picked it
type Decision struct {
	Category model.Category
	Rule     string
}

// Decider maps decision inputs to a final category. First matching rule wins.
type Decider struct {
	tiers TierClassifier
	rules []Rule
}

// NewDecider builds the ordered rule list from thresholds
func NewDecider(cfg model.DecisionConfig, tiers TierClassifier) *Decider {
	return &Decider{
		tiers: tiers,
		rules: []Rule{
			trustedSourceRule(cfg),
			confidentFakeRule(cfg),
			notFakeRule(cfg),
			uncertainFakeRule(cfg),
			fallbackRule(cfg),
		},
	}
}

// Rules returns the rule list in evaluation order
func (d *Decider) Rules() []Rule {
	return d.rules
}

// Decide evaluates the rules in order
func (d *Decider) Decide(in DecisionInput) Decision {
	tier := model.TrustUnknown
	if in.HasFactCheck {
		tier = d.tiers.Classify(in.FactCheckSource)
	}

	for _, rule := range d.rules {
		if category, ok := rule.Match(in, tier); ok {
			return Decision{Category: category, Rule: rule.Name}
		}
	}

	return Decision{Category: model.CategoryUnreliable, Rule: "none"}
}

// trustedSourceRule lets a high-trust external verdict override the models
func trustedSourceRule(cfg model.DecisionConfig) Rule {
	return Rule{
		Name: "trusted_source_override",
		Match: func(in DecisionInput, tier model.TrustTier) (model.Category, bool) {
			if !in.HasFactCheck || tier != model.TrustHigh {
				return "", false
			}
			switch {
			case in.ExternalScore >= cfg.TrustedReliable:
				return model.CategoryReliable, true
			case in.ExternalScore >= cfg.TrustedMostlyReliable:
				return model.CategoryMostlyReliable, true
			case in.ExternalScore <= cfg.TrustedFake:
				return model.CategoryFakeNews, true
			default:
				return model.CategoryDoubtful, true
			}
		},
	}
}

func confidentFakeRule(cfg model.DecisionConfig) Rule {
	return Rule{
		Name: "confident_fake_flag",
		Match: func(in DecisionInput, _ model.TrustTier) (model.Category, bool) {
			if in.IsFakeNews && in.FakeConfidence > cfg.FakeHighConfidence {
				return model.CategoryFakeNews, true
			}
			return "", false
		},
	}
}

func notFakeRule(cfg model.DecisionConfig) Rule {
	return Rule{
		Name: "not_fake",
		Match: func(in DecisionInput, _ model.TrustTier) (model.Category, bool) {
			if in.IsFakeNews {
				return "", false
			}
			switch {
			case in.GlobalScore >= cfg.RealReliable:
				return model.CategoryReliable, true
			case in.GlobalScore >= cfg.RealMostlyReliable:
				return model.CategoryMostlyReliable, true
			case in.GlobalScore >= cfg.RealDoubtful:
				return model.CategoryDoubtful, true
			default:
				return model.CategoryLowReliability, true
			}
		},
	}
}

func uncertainFakeRule(cfg model.DecisionConfig) Rule {
	return Rule{
		Name: "uncertain_fake_flag",
		Match: func(in DecisionInput, _ model.TrustTier) (model.Category, bool) {
			if !in.IsFakeNews {
				return "", false
			}
			switch {
			case in.FakeConfidence > cfg.FakeMediumConfidence:
				return model.CategoryFakeNews, true
			case in.GlobalScore < cfg.FakeLowScore:
				return model.CategoryLowReliability, true
			default:
				return model.CategoryDoubtful, true
			}
		},
	}
}

// fallbackRule is unreachable while the two fake-flag rules cover both flag values
func fallbackRule(cfg model.DecisionConfig) Rule {
	return Rule{
		Name: "fallback",
		Match: func(in DecisionInput, _ model.TrustTier) (model.Category, bool) {
			switch {
			case in.GlobalScore >= cfg.FallbackReliable:
				return model.CategoryReliable, true
			case in.GlobalScore >= cfg.FallbackMostlyReliable:
				return model.CategoryMostlyReliable, true
			case in.GlobalScore >= cfg.FallbackDoubtful:
				return model.CategoryDoubtful, true
			case in.GlobalScore >= cfg.FallbackLowReliability:
				return model.CategoryLowReliability, true
			default:
				return model.CategoryUnreliable, true
			}
		},
	}
}
