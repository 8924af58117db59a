package signals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ppiankov/credence/internal/model"
)

func newInferenceServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer hf-key" {
			t.Errorf("Expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload["inputs"] == "" {
			t.Errorf("Expected inputs payload, got %v (%v)", payload, err)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHTTPContentClassifier_NestedResponse(t *testing.T) {
	server := newInferenceServer(t, http.StatusOK,
		`[[{"label": "negative", "score": 0.12}, {"label": "neutral", "score": 0.81}, {"label": "positive", "score": 0.07}]]`)

	c := HTTPContentClassifier{NewHTTPClient(server.URL, "hf-key", server.Client())}
	got, err := c.Infer(context.Background(), "Le Sénat adopte le budget")
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if got.Label != "neutral" || got.Category != model.ContentFactual || got.Confidence != 0.81 {
		t.Errorf("unexpected label: %+v", got)
	}
}

func TestHTTPFakeNewsDetector_FlatResponse(t *testing.T) {
	server := newInferenceServer(t, http.StatusOK, `[{"label": "FAKE", "score": 0.88}, {"label": "TRUE", "score": 0.12}]`)

	d := HTTPFakeNewsDetector{NewHTTPClient(server.URL, "hf-key", server.Client())}
	got, err := d.Infer(context.Background(), "Un remède miracle")
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if !got.IsFake || got.Confidence != 0.88 {
		t.Errorf("unexpected verdict: %+v", got)
	}
}

func TestHTTPEmotionClassifier(t *testing.T) {
	server := newInferenceServer(t, http.StatusOK, `[[{"label": "joy", "score": 0.5}, {"label": "anger", "score": 0.25}]]`)

	e := HTTPEmotionClassifier{NewHTTPClient(server.URL, "hf-key", server.Client())}
	got, err := e.Infer(context.Background(), "Quelle joie")
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if got["joy"] != 50 || got["anger"] != 25 {
		t.Errorf("unexpected profile: %v", got)
	}
}

func TestHTTPClient_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantTransient bool
	}{
		{"model loading", http.StatusServiceUnavailable, `{"error": "Model is currently loading"}`, true},
		{"rate limited", http.StatusTooManyRequests, `{"error": "rate limit"}`, true},
		{"unauthorized", http.StatusUnauthorized, `{"error": "invalid token"}`, false},
		{"empty labels", http.StatusOK, `[]`, false},
		{"garbage", http.StatusOK, `{"label": "x"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newInferenceServer(t, tt.status, tt.body)
			c := HTTPContentClassifier{NewHTTPClient(server.URL, "hf-key", server.Client())}

			_, err := c.Infer(context.Background(), "x")
			var ie *model.InferenceError
			if !errors.As(err, &ie) {
				t.Fatalf("expected InferenceError, got %v", err)
			}
			if ie.Task != TaskContent {
				t.Errorf("Task = %q, want %q", ie.Task, TaskContent)
			}
			if ie.Transient != tt.wantTransient {
				t.Errorf("Transient = %v, want %v (%v)", ie.Transient, tt.wantTransient, err)
			}
		})
	}
}
