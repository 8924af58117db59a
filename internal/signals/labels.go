package signals

import (
	"math"
	"strings"

	"github.com/ppiankov/credence/internal/model"
)

// Emotions is the emotion vocabulary kept in profiles
var Emotions = []string{"anger", "joy", "love", "sadness", "fear", "surprise", "disgust", "neutral"}

// MapLabel maps a raw sentiment label to the content vocabulary.
// Unrecognized labels are general information.
func MapLabel(label string) model.ContentCategory {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "label_0", "negative":
		return model.ContentNegativeOpinion
	case "label_1":
		return model.ContentNeutralOpinion
	case "label_2", "positive":
		return model.ContentPositiveOpinion
	case "neutral":
		return model.ContentFactual
	default:
		return model.ContentGeneral
	}
}

// isFakeLabel reports whether a detector label means fake
func isFakeLabel(label string) bool {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "FAKE", "FALSE":
		return true
	}
	return false
}

// labelScore is one entry of a classifier output
type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// top returns the highest-scoring entry, first wins on ties
func top(scores []labelScore) (labelScore, bool) {
	if len(scores) == 0 {
		return labelScore{}, false
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best, true
}

// fakeVerdict turns detector scores into a verdict. With a single score
// for a non-fake label the fake probability is its complement.
func fakeVerdict(scores []labelScore) (FakeNewsVerdict, bool) {
	best, ok := top(scores)
	if !ok {
		return FakeNewsVerdict{}, false
	}

	fakeProb := -1.0
	for _, s := range scores {
		if isFakeLabel(s.Label) {
			fakeProb = s.Score
			break
		}
	}
	if fakeProb < 0 {
		fakeProb = 1 - best.Score
	}

	return FakeNewsVerdict{
		IsFake:     isFakeLabel(best.Label),
		Confidence: clampUnit(fakeProb),
	}, true
}

// emotionProfile converts scores in [0,1] to whole percentages over the known emotions
func emotionProfile(scores []labelScore) model.EmotionProfile {
	known := make(map[string]bool, len(Emotions))
	for _, e := range Emotions {
		known[e] = true
	}

	profile := make(model.EmotionProfile, len(scores))
	for _, s := range scores {
		name := strings.ToLower(strings.TrimSpace(s.Label))
		if !known[name] {
			continue
		}
		profile[name] = int(math.Round(clampUnit(s.Score) * 100))
	}
	return profile
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
