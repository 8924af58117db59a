package signals

import (
	"context"
	"errors"
	"testing"

	"github.com/ppiankov/credence/internal/llm"
	"github.com/ppiankov/credence/internal/model"
)

// stubProvider implements llm.Provider with a canned answer
type stubProvider struct {
	text string
	err  error
	last llm.CompletionRequest
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Text: s.text}, nil
}

func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }

func TestLLMContentClassifier(t *testing.T) {
	p := &stubProvider{text: "```json\n{\"label\": \"neutral\", \"score\": 0.87}\n```"}
	c := NewLLMContentClassifier(p, "gpt-4o-mini")

	got, err := c.Infer(context.Background(), "Le Sénat adopte le budget")
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if got.Category != model.ContentFactual || got.Confidence != 0.87 {
		t.Errorf("unexpected label: %+v", got)
	}
	if !p.last.JSON || p.last.Model != "gpt-4o-mini" || p.last.Prompt != "Le Sénat adopte le budget" {
		t.Errorf("unexpected request: %+v", p.last)
	}
}

func TestLLMFakeNewsDetector(t *testing.T) {
	p := &stubProvider{text: `{"label": "FAKE", "fake_probability": 0.93}`}
	d := NewLLMFakeNewsDetector(p, "")

	got, err := d.Infer(context.Background(), "Un remède miracle")
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if !got.IsFake || got.Confidence != 0.93 {
		t.Errorf("unexpected verdict: %+v", got)
	}
}

func TestLLMEmotionClassifier(t *testing.T) {
	p := &stubProvider{text: `{"joy": 0.1, "fear": 0.72, "weather": 0.5}`}
	e := NewLLMEmotionClassifier(p, "")

	got, err := e.Infer(context.Background(), "Panique")
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if got["fear"] != 72 || got["joy"] != 10 {
		t.Errorf("unexpected profile: %v", got)
	}
	if _, ok := got["weather"]; ok {
		t.Error("unknown emotions must be dropped")
	}
}

func TestLLMTask_Errors(t *testing.T) {
	tests := []struct {
		name          string
		provider      *stubProvider
		wantTransient bool
	}{
		{"rate limited", &stubProvider{err: &llm.StatusError{Provider: "stub", StatusCode: 429}}, true},
		{"bad request", &stubProvider{err: &llm.StatusError{Provider: "stub", StatusCode: 400}}, false},
		{"unparseable answer", &stubProvider{text: "I cannot help with that"}, false},
		{"missing label", &stubProvider{text: `{"score": 0.4}`}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLLMContentClassifier(tt.provider, "").Infer(context.Background(), "x")

			var ie *model.InferenceError
			if !errors.As(err, &ie) {
				t.Fatalf("expected InferenceError, got %v", err)
			}
			if ie.Task != TaskContent || ie.Provider != "stub" {
				t.Errorf("unexpected error fields: %+v", ie)
			}
			if ie.Transient != tt.wantTransient {
				t.Errorf("Transient = %v, want %v", ie.Transient, tt.wantTransient)
			}
		})
	}
}
