package factcheck

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/store"
)

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name    string
		records []model.FactCheckRecord
		wantID  int64
	}{
		{"empty", nil, 0},
		{"highest similarity", []model.FactCheckRecord{{ID: 1, Similarity: 0.4}, {ID: 2, Similarity: 0.7}, {ID: 3, Similarity: 0.5}}, 2},
		{"tie goes to lowest id", []model.FactCheckRecord{{ID: 5, Similarity: 0.6}, {ID: 4, Similarity: 0.6}}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectBest(tt.records)
			if tt.wantID == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

// failingReader fails every read
type failingReader struct{}

func (failingReader) FactChecks(ctx context.Context, postID int64) ([]model.FactCheckRecord, error) {
	return nil, errors.New("connection refused")
}

func (failingReader) PostsWithoutFactChecks(ctx context.Context) ([]model.Post, error) {
	return nil, errors.New("connection refused")
}

func TestStoreLookup(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	id, _, err := st.InsertPost(ctx, &model.Post{Title: "t", Content: "c"})
	require.NoError(t, err)

	lookup := NewStoreLookup(st)

	verdict, err := lookup.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, verdict)

	require.NoError(t, st.ReplaceFactChecks(ctx, id, []model.FactCheckRecord{
		{Rating: "Vrai", SourceSite: "Reuters", Similarity: 0.4},
		{Rating: "Faux", SourceSite: "AFP Factuel", Link: "https://factuel.afp.com/a", Similarity: 0.8},
	}))

	verdict, err = lookup.Lookup(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, verdict)
	assert.Equal(t, &model.FactCheckVerdict{Rating: "Faux", Source: "AFP Factuel", Link: "https://factuel.afp.com/a"}, verdict)

	_, err = NewStoreLookup(failingReader{}).Lookup(ctx, id)
	var pe *model.PersistenceError
	assert.True(t, errors.As(err, &pe), "expected PersistenceError, got %v", err)
}
