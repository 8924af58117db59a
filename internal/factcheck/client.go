// Package factcheck collects claim reviews for posts from the Google Fact
// Check Tools API and selects the record used for scoring.
package factcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/worker"
)

// Claim is one claim returned by claims:search
type Claim struct {
	Text        string   `json:"text"`
	Claimant    string   `json:"claimant,omitempty"`
	ClaimDate   string   `json:"claimDate,omitempty"`
	ClaimReview []Review `json:"claimReview"`
}

// Review is one publisher's review of a claim
type Review struct {
	Publisher struct {
		Name string `json:"name"`
		Site string `json:"site"`
	} `json:"publisher"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	ReviewDate    string `json:"reviewDate,omitempty"`
	TextualRating string `json:"textualRating"`
	LanguageCode  string `json:"languageCode,omitempty"`
}

type searchResponse struct {
	Claims        []Claim `json:"claims"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// ErrNoAPIKey is returned when the client has no API key configured
var ErrNoAPIKey = errors.New("fact-check API key is not configured")

// Searcher looks up claims matching a query
type Searcher interface {
	Search(ctx context.Context, query string) ([]Claim, error)
}

// Client queries the claims:search endpoint
type Client struct {
	baseURL  string
	apiKey   string
	language string
	pageSize int
	http     *http.Client
	limiter  *worker.Limiter
}

// NewClient creates a client from the fact-check configuration
func NewClient(cfg model.FactCheckConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		pageSize: cfg.PageSize,
		http:     httpClient,
		limiter:  worker.NewLimiter(cfg.RequestsPerSecond, 1),
	}
}

// Search returns the claims matching query
func (c *Client) Search(ctx context.Context, query string) ([]Claim, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)
	if c.language != "" {
		params.Set("languageCode", c.language)
	}
	if c.pageSize > 0 {
		params.Set("pageSize", strconv.Itoa(c.pageSize))
	}

	endpoint := c.baseURL
	if strings.Contains(endpoint, "?") {
		endpoint += "&" + params.Encode()
	} else {
		endpoint += "?" + params.Encode()
	}

	if err := c.limiter.WaitURL(ctx, endpoint); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("claims search (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Claims, nil
}
