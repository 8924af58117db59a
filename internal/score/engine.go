package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/trust"
)

// Inputs are the per-post signals gathered from the providers
type Inputs struct {
	Category           model.ContentCategory
	CategoryConfidence float64
	IsFakeNews         bool
	FakeConfidence     float64
	FactCheck          *model.FactCheckVerdict
}

// Assessment is the full scoring breakdown for one post
type Assessment struct {
	ContentConfidence float64
	FakeConfidence    float64
	ContentScore      float64
	ExternalScore     float64
	GlobalScore       float64
	Tier              model.TrustTier
	Decision          Decision
	Confidence        model.ConfidenceLevel
	Signals           []model.Signal
}

// Engine runs content scoring, external scoring, trust weighting, category decision and confidence leveling
type Engine struct {
	content  *ContentScorer
	external *ExternalScorer
	weighter *trust.Weighter
	decider  *Decider
	leveler  *Leveler
}

// NewEngine creates an engine from configuration
func NewEngine(cfg *model.Config) *Engine {
	if cfg == nil {
		def := model.DefaultConfig()
		cfg = &def
	}

	weighter := trust.NewWeighter(&cfg.Trust)

	return &Engine{
		content:  NewContentScorer(cfg.Scoring),
		external: NewExternalScorer(cfg.Scoring),
		weighter: weighter,
		decider:  NewDecider(cfg.Decision, weighter),
		leveler:  NewLeveler(cfg.Decision),
	}
}

// Decider returns the decision table shared by live analysis and reconciliation
func (e *Engine) Decider() *Decider {
	return e.decider
}

// Evaluate scores one post. Values are rounded to their stored precision before the
// category is decided, so deciding again from a stored row gives the same answer.
func (e *Engine) Evaluate(in Inputs) Assessment {
	var signals []model.Signal

	contentConf := RoundConfidence(in.CategoryConfidence)
	fakeConf := RoundConfidence(in.FakeConfidence)

	// 1. Content score
	contentScore, contentSignal := e.content.Signal(in.Category, fakeConf, contentConf)
	contentScore = RoundScore(contentScore)
	signals = append(signals, contentSignal)

	// 2. External score
	externalScore, externalSignal := e.external.Signal(in.FactCheck)
	externalScore = RoundScore(externalScore)
	signals = append(signals, externalSignal)

	// 3. Trust-weighted global score
	hasFactCheck := in.FactCheck != nil
	source := ""
	if hasFactCheck {
		source = in.FactCheck.Source
	}
	blend := e.weighter.Blend(source, hasFactCheck, contentScore, externalScore)
	globalScore := RoundScore(blend.Global)
	signals = append(signals, model.Signal{
		Type:        model.SignalTrust,
		Description: fmt.Sprintf("Global score %.2f (source tier %s)", globalScore, blend.Tier),
		Data: map[string]any{
			"has_fact_check":  hasFactCheck,
			"source":          source,
			"tier":            blend.Tier.String(),
			"external_weight": blend.ExternalWeight,
			"score":           globalScore,
			"formula":         "external_weight * external + (1 - external_weight) * content",
		},
	})

	// 4. Final category
	decision := e.decider.Decide(DecisionInput{
		GlobalScore:     globalScore,
		IsFakeNews:      in.IsFakeNews,
		FakeConfidence:  fakeConf,
		HasFactCheck:    hasFactCheck,
		ExternalScore:   externalScore,
		FactCheckSource: source,
	})
	signals = append(signals, model.Signal{
		Type:        model.SignalCategory,
		Description: fmt.Sprintf("%s by rule %s", decision.Category, decision.Rule),
		Data: map[string]any{
			"category": string(decision.Category),
			"rule":     decision.Rule,
		},
	})

	// 5. Confidence level
	level := e.leveler.Level(contentConf, fakeConf, hasFactCheck)
	signals = append(signals, model.Signal{
		Type:        model.SignalConfidence,
		Description: fmt.Sprintf("Confidence %s", level),
		Data: map[string]any{
			"content_confidence": contentConf,
			"fake_confidence":    fakeConf,
			"average":            (contentConf + fakeConf) / 2,
		},
	})

	return Assessment{
		ContentConfidence: contentConf,
		FakeConfidence:    fakeConf,
		ContentScore:      contentScore,
		ExternalScore:     externalScore,
		GlobalScore:       globalScore,
		Tier:              blend.Tier,
		Decision:          decision,
		Confidence:        level,
		Signals:           signals,
	}
}

// Analyze evaluates the inputs and builds a validated AnalysisResult for the post
func (e *Engine) Analyze(postID int64, in Inputs) (*model.AnalysisResult, Assessment, error) {
	assessment := e.Evaluate(in)

	result := &model.AnalysisResult{
		PostID:                   postID,
		ContentCategory:          in.Category,
		ContentConfidence:        assessment.ContentConfidence,
		IsFakeNews:               in.IsFakeNews,
		FakeNewsConfidence:       assessment.FakeConfidence,
		ContentReliabilityScore:  assessment.ContentScore,
		HasFactCheck:             in.FactCheck != nil,
		ExternalReliabilityScore: assessment.ExternalScore,
		GlobalReliabilityScore:   assessment.GlobalScore,
		FinalCategory:            assessment.Decision.Category,
		ConfidenceLevel:          assessment.Confidence,
	}
	if in.FactCheck != nil {
		result.FactCheckRating = in.FactCheck.Rating
		result.FactCheckSource = in.FactCheck.Source
		result.FactCheckLink = in.FactCheck.Link
	}

	if err := result.Validate(); err != nil {
		return nil, assessment, err
	}

	return result, assessment, nil
}

// Recategorize decides the category of a stored analysis from its stored fields only
func (e *Engine) Recategorize(a *model.AnalysisResult) Decision {
	return e.decider.Decide(InputFromResult(a))
}

// RoundScore rounds a score to 2 decimals
func RoundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

// RoundConfidence rounds a confidence to 4 decimals
func RoundConfidence(v float64) float64 {
	return math.Round(v*10000) / 10000
}
