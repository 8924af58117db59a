package signals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/credence/internal/llm"
	"github.com/ppiankov/credence/internal/model"
)

const contentPrompt = `You classify French social media posts.
Return the sentiment of the post as one of: negative, neutral, positive.
Answer with JSON: {"label": "<negative|neutral|positive>", "score": <confidence between 0 and 1>}`

const fakeNewsPrompt = `You detect fake news in French social media posts.
Decide whether the post spreads false or fabricated information.
Answer with JSON: {"label": "<FAKE|REAL>", "fake_probability": <probability between 0 and 1 that the post is fake>}`

const emotionPrompt = `You detect emotions in French social media posts.
Score each emotion between 0 and 1: anger, joy, love, sadness, fear, surprise, disgust, neutral.
Answer with JSON mapping each emotion to its score, e.g. {"anger": 0.1, "joy": 0.7, ...}`

// LLMTask runs one task through a completion provider and parses its JSON answer
type LLMTask[T any] struct {
	provider llm.Provider
	task     string
	system   string
	model    string
	parse    func(text string) (T, error)
}

// Name returns the provider name
func (t *LLMTask[T]) Name() string {
	return t.provider.Name()
}

// Infer classifies text
func (t *LLMTask[T]) Infer(ctx context.Context, text string) (T, error) {
	var zero T

	resp, err := t.provider.Complete(ctx, llm.CompletionRequest{
		System:    t.system,
		Prompt:    text,
		Model:     t.model,
		MaxTokens: 200,
		JSON:      true,
	})
	if err != nil {
		return zero, inferenceError(t.Name(), t.task, llm.IsTemporary(err), err)
	}

	out, err := t.parse(resp.Text)
	if err != nil {
		return zero, inferenceError(t.Name(), t.task, false, fmt.Errorf("parse answer %q: %w", truncate(resp.Text, 80), err))
	}
	return out, nil
}

// NewLLMContentClassifier classifies content with a completion provider
func NewLLMContentClassifier(p llm.Provider, modelName string) *LLMTask[ContentLabel] {
	return &LLMTask[ContentLabel]{
		provider: p,
		task:     TaskContent,
		system:   contentPrompt,
		model:    modelName,
		parse:    parseContentAnswer,
	}
}

// NewLLMFakeNewsDetector detects fake news with a completion provider
func NewLLMFakeNewsDetector(p llm.Provider, modelName string) *LLMTask[FakeNewsVerdict] {
	return &LLMTask[FakeNewsVerdict]{
		provider: p,
		task:     TaskFakeNews,
		system:   fakeNewsPrompt,
		model:    modelName,
		parse:    parseFakeNewsAnswer,
	}
}

// NewLLMEmotionClassifier scores emotions with a completion provider
func NewLLMEmotionClassifier(p llm.Provider, modelName string) *LLMTask[model.EmotionProfile] {
	return &LLMTask[model.EmotionProfile]{
		provider: p,
		task:     TaskEmotion,
		system:   emotionPrompt,
		model:    modelName,
		parse:    parseEmotionAnswer,
	}
}

func parseContentAnswer(text string) (ContentLabel, error) {
	var answer labelScore
	if err := decodeJSONObject(text, &answer); err != nil {
		return ContentLabel{}, err
	}
	if answer.Label == "" {
		return ContentLabel{}, errors.New("missing label")
	}
	return ContentLabel{
		Label:      answer.Label,
		Category:   MapLabel(answer.Label),
		Confidence: clampUnit(answer.Score),
	}, nil
}

func parseFakeNewsAnswer(text string) (FakeNewsVerdict, error) {
	var answer struct {
		Label           string   `json:"label"`
		FakeProbability *float64 `json:"fake_probability"`
	}
	if err := decodeJSONObject(text, &answer); err != nil {
		return FakeNewsVerdict{}, err
	}
	if answer.Label == "" || answer.FakeProbability == nil {
		return FakeNewsVerdict{}, errors.New("missing label or fake_probability")
	}
	return FakeNewsVerdict{
		IsFake:     isFakeLabel(answer.Label),
		Confidence: clampUnit(*answer.FakeProbability),
	}, nil
}

func parseEmotionAnswer(text string) (model.EmotionProfile, error) {
	var answer map[string]float64
	if err := decodeJSONObject(text, &answer); err != nil {
		return nil, err
	}
	scores := make([]labelScore, 0, len(answer))
	for label, score := range answer {
		scores = append(scores, labelScore{Label: label, Score: score})
	}
	profile := emotionProfile(scores)
	if len(profile) == 0 {
		return nil, errors.New("no known emotion in answer")
	}
	return profile, nil
}

// decodeJSONObject decodes the first JSON object in text. Models sometimes
// wrap the object in prose or code fences.
func decodeJSONObject(text string, v any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return errors.New("no JSON object")
	}
	return json.Unmarshal([]byte(text[start:end+1]), v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
