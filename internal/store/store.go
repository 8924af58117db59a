// Package store defines the persistence ports of the analysis pipeline.
package store

import (
	"context"

	"github.com/ppiankov/credence/internal/model"
)

// PostReader reads scraped posts
type PostReader interface {
	// GetPost returns model.ErrPostNotFound when the id is unknown
	GetPost(ctx context.Context, id int64) (*model.Post, error)

	// ListPosts returns all posts ordered by id ascending
	ListPosts(ctx context.Context) ([]model.Post, error)

	// UnanalyzedPosts returns posts without an analysis, ordered by id ascending
	UnanalyzedPosts(ctx context.Context) ([]model.Post, error)
}

// PostWriter stores scraped posts
type PostWriter interface {
	// InsertPost stores a post and returns its id. A post whose link is already
	// stored is not inserted again; created is false and the existing id is returned.
	InsertPost(ctx context.Context, post *model.Post) (id int64, created bool, err error)
}

// FactCheckReader reads fact-check records
type FactCheckReader interface {
	// FactChecks returns the records of a post ordered by record id ascending
	FactChecks(ctx context.Context, postID int64) ([]model.FactCheckRecord, error)

	// PostsWithoutFactChecks returns posts with no record, ordered by id ascending
	PostsWithoutFactChecks(ctx context.Context) ([]model.Post, error)
}

// FactCheckWriter stores fact-check records
type FactCheckWriter interface {
	// ReplaceFactChecks atomically replaces all records of a post
	ReplaceFactChecks(ctx context.Context, postID int64, records []model.FactCheckRecord) error
}

// AnalysisStore persists analysis results. At most one result exists per post.
type AnalysisStore interface {
	// GetAnalysis returns model.ErrAnalysisNotFound when the post has no analysis
	GetAnalysis(ctx context.Context, postID int64) (*model.AnalysisResult, error)

	// SaveAnalysis inserts a result. A second result for the same post fails
	// with *model.DuplicateAnalysisError. ID and CreatedAt are set on success.
	SaveAnalysis(ctx context.Context, result *model.AnalysisResult) error

	// ListAnalyses returns all results ordered by post id ascending
	ListAnalyses(ctx context.Context) ([]model.AnalysisResult, error)

	// UpdateCategory rewrites the final category of one result in place
	UpdateCategory(ctx context.Context, analysisID int64, category model.Category) error
}

// Store is the full persistence surface
type Store interface {
	PostReader
	PostWriter
	FactCheckReader
	FactCheckWriter
	AnalysisStore

	Ping(ctx context.Context) error
	Close() error
}
