package model

import "time"

// ContentCategory is the business vocabulary produced by the content classifier
type ContentCategory string

const (
	ContentFactual         ContentCategory = "Information factuelle"
	ContentGeneral         ContentCategory = "Information générale"
	ContentNeutralOpinion  ContentCategory = "Opinion neutre"
	ContentPositiveOpinion ContentCategory = "Opinion positive"
	ContentNegativeOpinion ContentCategory = "Opinion négative"
	ContentUndetermined    ContentCategory = "Indéterminé"
)

// ContentCategories lists the known content categories
var ContentCategories = []ContentCategory{
	ContentFactual,
	ContentGeneral,
	ContentNeutralOpinion,
	ContentPositiveOpinion,
	ContentNegativeOpinion,
	ContentUndetermined,
}

// Known reports whether c belongs to the fixed vocabulary
func (c ContentCategory) Known() bool {
	for _, known := range ContentCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Category is the final reliability verdict. The scale is ordinal, see Rank.
type Category string

const (
	CategoryReliable       Category = "Fiable"
	CategoryMostlyReliable Category = "Plutôt fiable"
	CategoryDoubtful       Category = "Douteux"
	CategoryLowReliability Category = "Peu fiable"
	CategoryUnreliable     Category = "Non fiable"
	CategoryFakeNews       Category = "Fake News"
)

// Categories lists final categories from most to least reliable
var Categories = []Category{
	CategoryReliable,
	CategoryMostlyReliable,
	CategoryDoubtful,
	CategoryLowReliability,
	CategoryUnreliable,
	CategoryFakeNews,
}

// Rank returns the ordinal position of c (0 = most reliable), or -1 if unknown
func (c Category) Rank() int {
	for i, known := range Categories {
		if c == known {
			return i
		}
	}
	return -1
}

// ConfidenceLevel qualifies how much to trust an analysis
type ConfidenceLevel string

const (
	ConfidenceLow      ConfidenceLevel = "Faible"
	ConfidenceMedium   ConfidenceLevel = "Moyenne"
	ConfidenceHigh     ConfidenceLevel = "Élevée"
	ConfidenceVeryHigh ConfidenceLevel = "Très élevée"
)

// ConfidenceLevels lists confidence levels from lowest to highest
var ConfidenceLevels = []ConfidenceLevel{
	ConfidenceLow,
	ConfidenceMedium,
	ConfidenceHigh,
	ConfidenceVeryHigh,
}

// TrustTier classifies a fact-check source
type TrustTier int

const (
	TrustUnknown TrustTier = 0
	TrustHigh    TrustTier = 1
	TrustMedium  TrustTier = 2
)

func (t TrustTier) String() string {
	switch t {
	case TrustHigh:
		return "high"
	case TrustMedium:
		return "medium"
	default:
		return "unknown"
	}
}

// EmotionProfile holds per-emotion percentages (0-100)
type EmotionProfile map[string]int

// AnalysisResult is the persisted verdict for one post. At most one exists per post.
type AnalysisResult struct {
	ID     int64 `json:"id"`
	PostID int64 `json:"post_id" validate:"gt=0"`

	ContentCategory    ContentCategory `json:"content_category" validate:"content_category"`
	ContentConfidence  float64         `json:"content_confidence" validate:"gte=0,lte=1"`
	IsFakeNews         bool            `json:"is_fake_news"`
	FakeNewsConfidence float64         `json:"fake_news_confidence" validate:"gte=0,lte=1"`

	ContentReliabilityScore float64 `json:"content_reliability_score" validate:"gte=0,lte=100"`

	HasFactCheck    bool   `json:"has_fact_check"`
	FactCheckRating string `json:"fact_check_rating,omitempty"`
	FactCheckSource string `json:"fact_check_source,omitempty"`
	FactCheckLink   string `json:"fact_check_link,omitempty"`

	ExternalReliabilityScore float64 `json:"external_reliability_score" validate:"gte=0,lte=100"`
	GlobalReliabilityScore   float64 `json:"global_reliability_score" validate:"gte=0,lte=100"`

	FinalCategory   Category        `json:"final_category" validate:"final_category"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level" validate:"confidence_level"`

	Emotions EmotionProfile `json:"emotions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// FakeFlag returns the fake-news flag in its persisted 0/1 form
func (a *AnalysisResult) FakeFlag() int {
	if a.IsFakeNews {
		return 1
	}
	return 0
}

// Validate checks ranges, enum membership and fact-check field consistency
func (a *AnalysisResult) Validate() error {
	return validateStruct(a)
}

// Signal is a transparent scoring step: what was computed and from which inputs
type Signal struct {
	Type        SignalType     `json:"type"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// SignalType classifies a scoring signal
type SignalType string

const (
	SignalContent    SignalType = "content_reliability"
	SignalExternal   SignalType = "external_reliability"
	SignalTrust      SignalType = "trust_weighting"
	SignalCategory   SignalType = "final_category"
	SignalConfidence SignalType = "confidence_level"
)
