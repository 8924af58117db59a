package signals

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ppiankov/credence/internal/model"
)

// HTTPClient talks to a text-classification inference server. The server
// takes {"inputs": text} and answers with label/score pairs, either flat
// or nested one level as the Hugging Face inference API does.
type HTTPClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewHTTPClient creates a reusable inference client
func NewHTTPClient(endpoint, apiKey string, client *http.Client) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     client,
	}
}

// Name returns the provider name
func (c *HTTPClient) Name() string {
	return "http"
}

// classify returns all label scores for text
func (c *HTTPClient) classify(ctx context.Context, task, text string) ([]labelScore, error) {
	payload := map[string]any{"inputs": text}

	var raw json.RawMessage
	if err := c.post(ctx, payload, &raw); err != nil {
		return nil, err
	}

	scores, err := decodeScores(raw)
	if err != nil {
		return nil, inferenceError(c.Name(), task, false, fmt.Errorf("decode response: %w", err))
	}
	if len(scores) == 0 {
		return nil, inferenceError(c.Name(), task, false, errors.New("no labels in response"))
	}
	return scores, nil
}

func (c *HTTPClient) post(ctx context.Context, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &model.InferenceError{Provider: c.Name(), Transient: ctx.Err() == nil, Err: fmt.Errorf("do request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &model.InferenceError{
			Provider:  c.Name(),
			Transient: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			Err:       fmt.Errorf("unexpected status %s: %s", resp.Status, bytes.TrimSpace(msg)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeScores accepts [{label,score}] and [[{label,score}]]
func decodeScores(raw json.RawMessage) ([]labelScore, error) {
	var flat []labelScore
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	var nested [][]labelScore
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, err
	}
	if len(nested) == 0 {
		return nil, nil
	}
	return nested[0], nil
}

// HTTPContentClassifier classifies content through an inference server
type HTTPContentClassifier struct{ *HTTPClient }

// Infer classifies text
func (c HTTPContentClassifier) Infer(ctx context.Context, text string) (ContentLabel, error) {
	scores, err := c.classify(ctx, TaskContent, text)
	if err != nil {
		return ContentLabel{}, withTask(err, TaskContent)
	}
	best, _ := top(scores)
	return ContentLabel{
		Label:      best.Label,
		Category:   MapLabel(best.Label),
		Confidence: clampUnit(best.Score),
	}, nil
}

// HTTPFakeNewsDetector detects fake news through an inference server
type HTTPFakeNewsDetector struct{ *HTTPClient }

// Infer classifies text
func (c HTTPFakeNewsDetector) Infer(ctx context.Context, text string) (FakeNewsVerdict, error) {
	scores, err := c.classify(ctx, TaskFakeNews, text)
	if err != nil {
		return FakeNewsVerdict{}, withTask(err, TaskFakeNews)
	}
	verdict, _ := fakeVerdict(scores)
	return verdict, nil
}

// HTTPEmotionClassifier scores emotions through an inference server
type HTTPEmotionClassifier struct{ *HTTPClient }

// Infer classifies text
func (c HTTPEmotionClassifier) Infer(ctx context.Context, text string) (model.EmotionProfile, error) {
	scores, err := c.classify(ctx, TaskEmotion, text)
	if err != nil {
		return nil, withTask(err, TaskEmotion)
	}
	return emotionProfile(scores), nil
}

// withTask fills the task of an InferenceError, wrapping other errors
func withTask(err error, task string) error {
	var ie *model.InferenceError
	if errors.As(err, &ie) {
		if ie.Task == "" {
			ie.Task = task
		}
		return err
	}
	return &model.InferenceError{Provider: "http", Task: task, Err: err}
}
