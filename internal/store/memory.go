package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ppiankov/credence/internal/model"
)

// MemoryStore is an in-process Store. Safe for concurrent use.
type MemoryStore struct {
	mu sync.RWMutex

	posts      map[int64]model.Post
	postLinks  map[string]int64
	factChecks map[int64][]model.FactCheckRecord
	analyses   map[int64]model.AnalysisResult // keyed by post id

	nextPostID      int64
	nextFactCheckID int64
	nextAnalysisID  int64

	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts:      make(map[int64]model.Post),
		postLinks:  make(map[string]int64),
		factChecks: make(map[int64][]model.FactCheckRecord),
		analyses:   make(map[int64]model.AnalysisResult),
		now:        time.Now,
	}
}

// GetPost returns a post by id
func (s *MemoryStore) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, model.ErrPostNotFound)
	}
	return clonePost(post), nil
}

// ListPosts returns all posts ordered by id
func (s *MemoryStore) ListPosts(ctx context.Context) ([]model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedPosts(func(model.Post) bool { return true }), nil
}

// UnanalyzedPosts returns posts with no analysis, ordered by id
func (s *MemoryStore) UnanalyzedPosts(ctx context.Context) ([]model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedPosts(func(p model.Post) bool {
		_, analyzed := s.analyses[p.ID]
		return !analyzed
	}), nil
}

// InsertPost stores a post, skipping links already stored
func (s *MemoryStore) InsertPost(ctx context.Context, post *model.Post) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.Link != "" {
		if id, ok := s.postLinks[post.Link]; ok {
			return id, false, nil
		}
	}

	s.nextPostID++
	stored := *clonePost(*post)
	stored.ID = s.nextPostID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	s.posts[stored.ID] = stored
	if stored.Link != "" {
		s.postLinks[stored.Link] = stored.ID
	}

	post.ID = stored.ID
	return stored.ID, true, nil
}

// FactChecks returns the records of a post ordered by id
func (s *MemoryStore) FactChecks(ctx context.Context, postID int64) ([]model.FactCheckRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := append([]model.FactCheckRecord(nil), s.factChecks[postID]...)
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// PostsWithoutFactChecks returns posts with no record, ordered by id
func (s *MemoryStore) PostsWithoutFactChecks(ctx context.Context) ([]model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedPosts(func(p model.Post) bool {
		return len(s.factChecks[p.ID]) == 0
	}), nil
}

// ReplaceFactChecks replaces all records of a post
func (s *MemoryStore) ReplaceFactChecks(ctx context.Context, postID int64, records []model.FactCheckRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return fmt.Errorf("post %d: %w", postID, model.ErrPostNotFound)
	}

	stored := make([]model.FactCheckRecord, 0, len(records))
	for _, r := range records {
		s.nextFactCheckID++
		r.ID = s.nextFactCheckID
		r.PostID = postID
		if r.CreatedAt.IsZero() {
			r.CreatedAt = s.now()
		}
		stored = append(stored, r)
	}

	if len(stored) == 0 {
		delete(s.factChecks, postID)
		return nil
	}
	s.factChecks[postID] = stored
	return nil
}

// GetAnalysis returns the analysis of a post
func (s *MemoryStore) GetAnalysis(ctx context.Context, postID int64) (*model.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.analyses[postID]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", postID, model.ErrAnalysisNotFound)
	}
	return cloneAnalysis(a), nil
}

// SaveAnalysis inserts an analysis, failing on a second write for the same post
func (s *MemoryStore) SaveAnalysis(ctx context.Context, result *model.AnalysisResult) error {
	if err := ctx.Err(); err != nil {
		return &model.PersistenceError{Op: "save analysis", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.analyses[result.PostID]; exists {
		return &model.DuplicateAnalysisError{PostID: result.PostID}
	}

	s.nextAnalysisID++
	result.ID = s.nextAnalysisID
	if result.CreatedAt.IsZero() {
		result.CreatedAt = s.now()
	}
	s.analyses[result.PostID] = *cloneAnalysis(*result)
	return nil
}

// ListAnalyses returns all analyses ordered by post id
func (s *MemoryStore) ListAnalyses(ctx context.Context) ([]model.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.AnalysisResult, 0, len(s.analyses))
	for _, a := range s.analyses {
		out = append(out, *cloneAnalysis(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostID < out[j].PostID })
	return out, nil
}

// UpdateCategory rewrites the final category of one analysis
func (s *MemoryStore) UpdateCategory(ctx context.Context, analysisID int64, category model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for postID, a := range s.analyses {
		if a.ID == analysisID {
			a.FinalCategory = category
			s.analyses[postID] = a
			return nil
		}
	}
	return fmt.Errorf("analysis %d: %w", analysisID, model.ErrAnalysisNotFound)
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) sortedPosts(keep func(model.Post) bool) []model.Post {
	out := make([]model.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, *clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneAnalysis(a model.AnalysisResult) *model.AnalysisResult {
	if a.Emotions != nil {
		emotions := make(model.EmotionProfile, len(a.Emotions))
		for k, v := range a.Emotions {
			emotions[k] = v
		}
		a.Emotions = emotions
	}
	return &a
}

func clonePost(p model.Post) *model.Post {
	if p.Hashtags != nil {
		p.Hashtags = append([]string(nil), p.Hashtags...)
	}
	return &p
}
