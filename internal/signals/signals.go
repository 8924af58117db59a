// Package signals provides the model-backed inputs of an analysis: content
// category, fake-news verdict and emotion profile.
package signals

import (
	"context"
	"errors"

	"github.com/ppiankov/credence/internal/model"
)

// Task names, used in errors, cache keys and limiter keys
const (
	TaskContent  = "content"
	TaskFakeNews = "fake_news"
	TaskEmotion  = "emotion"
)

// Provider runs one inference task over a post text
type Provider[T any] interface {
	Name() string
	Infer(ctx context.Context, text string) (T, error)
}

// ContentLabel is the output of a content classifier
type ContentLabel struct {
	Label      string                `json:"label"`
	Category   model.ContentCategory `json:"category"`
	Confidence float64               `json:"confidence"`
}

// FakeNewsVerdict is the output of a fake-news detector.
// Confidence is the probability that the text is fake.
type FakeNewsVerdict struct {
	IsFake     bool    `json:"is_fake"`
	Confidence float64 `json:"confidence"`
}

// ContentClassifier maps a post text to a content category
type ContentClassifier = Provider[ContentLabel]

// FakeNewsDetector flags a post text as fake or not
type FakeNewsDetector = Provider[FakeNewsVerdict]

// EmotionClassifier returns per-emotion percentages
type EmotionClassifier = Provider[model.EmotionProfile]

// Set groups the providers of one analysis run. Emotion may be nil.
type Set struct {
	Content  ContentClassifier
	FakeNews FakeNewsDetector
	Emotion  EmotionClassifier
}

// inferenceError wraps err unless it already is an InferenceError
func inferenceError(provider, task string, transient bool, err error) error {
	if err == nil {
		return nil
	}
	var ie *model.InferenceError
	if errors.As(err, &ie) {
		return err
	}
	return &model.InferenceError{Provider: provider, Task: task, Transient: transient, Err: err}
}
