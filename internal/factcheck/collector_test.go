package factcheck

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/store"
)

// fakeSearcher answers queries containing match (any query when empty) with the same claims
type fakeSearcher struct {
	match   string
	claims  []Claim
	err     error
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]Claim, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if f.match != "" && !strings.Contains(query, f.match) {
		return nil, nil
	}
	return f.claims, nil
}

func review(site, rating, link string) Review {
	var r Review
	r.Publisher.Name = site
	r.TextualRating = rating
	r.URL = link
	r.Title = "Vérification"
	return r
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() model.FactCheckConfig {
	cfg := model.DefaultConfig().FactCheck
	cfg.APIKey = "key"
	return cfg
}

func TestCollector_MatchKeepsBestUniqueRecords(t *testing.T) {
	searcher := &fakeSearcher{claims: []Claim{
		{
			Text: "Le vaccin contre la covid provoque l'autisme",
			ClaimReview: []Review{
				review("AFP Factuel", "Faux", "https://factuel.afp.com/a"),
				review("Les Décodeurs", "Faux", "https://lemonde.fr/b"),
			},
		},
		{Text: "Météo: pluie", ClaimReview: []Review{review("X", "Vrai", "https://x.fr/c")}},
		{Text: "Le vaccin covid et l'autisme", ClaimReview: nil},
	}}
	c := NewCollector(searcher, store.NewMemoryStore(), testConfig(), quietLogger())

	post := &model.Post{ID: 7, Title: "Vaccin covid", Content: "Le vaccin contre la covid provoque l'autisme"}
	records, err := c.Match(context.Background(), post)
	require.NoError(t, err)

	// every query returns the same claims, duplicates collapse
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, int64(7), r.PostID)
		assert.Equal(t, "Faux", r.Rating)
		assert.GreaterOrEqual(t, r.Similarity, 0.3)
	}
	assert.Equal(t, []string{
		"vaccin covid contre provoque autisme",
		"vaccin OR covid OR contre",
		"vaccin",
		"covid",
	}, searcher.queries)
}

func TestCollector_MatchWrapsLookupErrors(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("claims search (503): backend error")}
	c := NewCollector(searcher, store.NewMemoryStore(), testConfig(), quietLogger())

	_, err := c.Match(context.Background(), &model.Post{ID: 3, Content: "vaccin covid autisme"})
	var lookup *model.ExternalLookupError
	require.True(t, errors.As(err, &lookup))
	assert.Equal(t, int64(3), lookup.PostID)
}

func TestCollector_CollectPending(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	matching, _, err := st.InsertPost(ctx, &model.Post{Title: "Vaccin", Content: "Le vaccin contre la covid provoque l'autisme"})
	require.NoError(t, err)
	_, _, err = st.InsertPost(ctx, &model.Post{Title: "Météo", Content: "Il fera beau demain sur la Bretagne"})
	require.NoError(t, err)

	searcher := &fakeSearcher{match: "vaccin", claims: []Claim{{
		Text:        "Le vaccin contre la covid provoque l'autisme",
		ClaimReview: []Review{review("AFP Factuel", "Faux", "https://factuel.afp.com/a")},
	}}}
	c := NewCollector(searcher, st, testConfig(), quietLogger())

	report, err := c.CollectPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Examined)
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.Records)
	assert.Equal(t, 0, report.Failed)

	records, err := st.FactChecks(ctx, matching)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "AFP Factuel", records[0].SourceSite)
}

func TestCollector_CollectPendingStopsWithoutKey(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	_, _, err := st.InsertPost(ctx, &model.Post{Title: "Vaccin", Content: "vaccin covid"})
	require.NoError(t, err)

	client := NewClient(model.DefaultConfig().FactCheck, nil)
	c := NewCollector(client, st, model.DefaultConfig().FactCheck, quietLogger())

	_, err = c.CollectPending(ctx)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "vaccin OR covid", q.Get("query"))
		assert.Equal(t, "fr", q.Get("languageCode"))
		assert.Equal(t, "key", q.Get("key"))
		assert.Equal(t, "10", q.Get("pageSize"))

		_, _ = w.Write([]byte(`{"claims": [{"text": "Le vaccin rend malade", "claimReview": [
			{"publisher": {"name": "AFP Factuel", "site": "factuel.afp.com"}, "url": "https://factuel.afp.com/x",
			 "title": "Non", "textualRating": "Faux", "languageCode": "fr"}]}]}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.BaseURL = server.URL + "/v1alpha1/claims:search"
	cfg.RequestsPerSecond = 0

	claims, err := NewClient(cfg, server.Client()).Search(context.Background(), "vaccin OR covid")
	require.NoError(t, err)
	require.Len(t, claims, 1)
	require.Len(t, claims[0].ClaimReview, 1)
	assert.Equal(t, "AFP Factuel", claims[0].ClaimReview[0].Publisher.Name)
	assert.Equal(t, "Faux", claims[0].ClaimReview[0].TextualRating)
}

func TestClient_SearchStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"message": "API key not valid"}}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.BaseURL = server.URL
	cfg.RequestsPerSecond = 0

	_, err := NewClient(cfg, server.Client()).Search(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "403"), err.Error())
}
