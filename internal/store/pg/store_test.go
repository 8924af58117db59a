package pg

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ppiankov/credence/internal/model"
)

// newTestStore starts a disposable Postgres and returns a migrated store.
// Set CREDENCE_PG_TESTS=1 to run; Docker is required.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("CREDENCE_PG_TESTS") != "1" {
		t.Skip("set CREDENCE_PG_TESTS=1 to run Postgres integration tests")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:17.5",
		postgres.WithDatabase("credence_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStore_PostsAndAnalyses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, created, err := s.InsertPost(ctx, &model.Post{Title: "Un", Content: "premier", Link: "https://x.com/1", Hashtags: []string{"a"}})
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = s.InsertPost(ctx, &model.Post{Title: "Doublon", Link: "https://x.com/1"})
	require.NoError(t, err)
	assert.False(t, created)

	id2, _, err := s.InsertPost(ctx, &model.Post{Title: "Deux", Content: "second"})
	require.NoError(t, err)

	post, err := s.GetPost(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, "https://x.com/1", post.Link)
	assert.Equal(t, []string{"a"}, post.Hashtags)

	analysis := &model.AnalysisResult{
		PostID:                   id1,
		ContentCategory:          model.ContentFactual,
		ContentConfidence:        0.9,
		FakeNewsConfidence:       0.1,
		ContentReliabilityScore:  78,
		ExternalReliabilityScore: 50,
		GlobalReliabilityScore:   78,
		FinalCategory:            model.CategoryReliable,
		ConfidenceLevel:          model.ConfidenceLow,
		Emotions:                 model.EmotionProfile{"joy": 60, "fear": 5},
	}
	require.NoError(t, s.SaveAnalysis(ctx, analysis))
	assert.NotZero(t, analysis.ID)

	err = s.SaveAnalysis(ctx, &model.AnalysisResult{
		PostID:          id1,
		ContentCategory: model.ContentFactual,
		FinalCategory:   model.CategoryReliable,
		ConfidenceLevel: model.ConfidenceLow,
	})
	var dup *model.DuplicateAnalysisError
	require.True(t, errors.As(err, &dup), "expected duplicate error, got %v", err)

	pending, err := s.UnanalyzedPosts(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id2, pending[0].ID)

	got, err := s.GetAnalysis(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, 60, got.Emotions["joy"])
	assert.False(t, got.HasFactCheck)
	assert.Empty(t, got.FactCheckSource)

	require.NoError(t, s.UpdateCategory(ctx, got.ID, model.CategoryDoubtful))
	all, err := s.ListAnalyses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, model.CategoryDoubtful, all[0].FinalCategory)

	_, err = s.GetAnalysis(ctx, id2)
	assert.ErrorIs(t, err, model.ErrAnalysisNotFound)
}

func TestStore_ReplaceFactChecks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _, err := s.InsertPost(ctx, &model.Post{Title: "Vaccin", Content: "texte"})
	require.NoError(t, err)

	require.NoError(t, s.ReplaceFactChecks(ctx, id, []model.FactCheckRecord{
		{ClaimText: "a", Rating: "Faux", SourceSite: "AFP Factuel", Link: "https://factuel.afp.com/a", Similarity: 0.6},
		{ClaimText: "b", Rating: "Vrai", SourceSite: "Le Monde", Similarity: 0.4},
	}))
	require.NoError(t, s.ReplaceFactChecks(ctx, id, []model.FactCheckRecord{
		{ClaimText: "c", Rating: "Trompeur", SourceSite: "Reuters", Similarity: 0.5},
	}))

	records, err := s.FactChecks(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Trompeur", records[0].Rating)

	without, err := s.PostsWithoutFactChecks(ctx)
	require.NoError(t, err)
	assert.Empty(t, without)

	err = s.ReplaceFactChecks(ctx, 9999, nil)
	assert.ErrorIs(t, err, model.ErrPostNotFound)
}
