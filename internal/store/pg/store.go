package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/store"
)

const (
	postsTable      = "posts"
	factChecksTable = "fact_checks_sources"
	analysisTable   = "comprehensive_reliability_analysis"

	uniqueViolation = "23505"
)

var postColumns = []string{
	"p.id", "p.title", "p.content", "p.author", "p.link", "p.publi_date",
	"p.likes", "p.comments", "p.reposts", "p.hashtags", "p.created_at",
}

var factCheckColumns = []string{
	"id", "post_id", "claim_id", "claim_text", "source_title", "source_link",
	"source_excerpt", "source_site", "similarity", "created_at",
}

var analysisColumns = []string{
	"id", "post_id", "content_category", "content_confidence", "is_fake_news",
	"fake_news_confidence", "content_reliability_score", "has_fact_check",
	"fact_check_rating", "fact_check_source", "fact_check_link",
	"external_reliability_score", "global_reliability_score", "final_category",
	"confidence_level", "emotions", "created_at",
}

// Store is the Postgres implementation of store.Store
type Store struct {
	pool *ConnectionPool
	db   *pgxpool.Pool
	psql sq.StatementBuilderType
}

var _ store.Store = (*Store)(nil)

// NewStore creates a store over an open pool
func NewStore(pool *ConnectionPool) *Store {
	return &Store{
		pool: pool,
		db:   pool.GetConn(),
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects, pings and migrates
func Open(ctx context.Context, connStr string) (*Store, error) {
	pool, err := NewConnectionPool(ctx, PoolConfig{ConnStr: connStr})
	if err != nil {
		return nil, &model.PersistenceError{Op: "connect", Err: err}
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, &model.PersistenceError{Op: "migrate", Err: err}
	}

	return NewStore(pool), nil
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return &model.PersistenceError{Op: "ping", Err: err}
	}
	return nil
}

// Close closes the pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// GetPost returns a post by id
func (s *Store) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	query, args, err := s.psql.Select(postColumns...).
		From(postsTable + " p").
		Where(sq.Eq{"p.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build post query: %w", err)
	}

	post, err := scanPost(s.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", id, model.ErrPostNotFound)
	}
	if err != nil {
		return nil, &model.PersistenceError{Op: "get post", Err: err}
	}
	return post, nil
}

// ListPosts returns all posts ordered by id
func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	return s.queryPosts(ctx, "list posts", s.psql.Select(postColumns...).
		From(postsTable+" p").
		OrderBy("p.id"))
}

// UnanalyzedPosts left-anti-joins posts against analyses
func (s *Store) UnanalyzedPosts(ctx context.Context) ([]model.Post, error) {
	return s.queryPosts(ctx, "unanalyzed posts", s.psql.Select(postColumns...).
		From(postsTable+" p").
		LeftJoin(analysisTable+" cra ON p.id = cra.post_id").
		Where(sq.Eq{"cra.post_id": nil}).
		OrderBy("p.id"))
}

// PostsWithoutFactChecks returns posts with no fact-check record
func (s *Store) PostsWithoutFactChecks(ctx context.Context) ([]model.Post, error) {
	return s.queryPosts(ctx, "posts without fact-checks", s.psql.Select(postColumns...).
		From(postsTable+" p").
		Where(sq.Expr("NOT EXISTS (SELECT 1 FROM " + factChecksTable + " f WHERE f.post_id = p.id)")).
		OrderBy("p.id"))
}

// InsertPost stores a post, skipping links already stored
func (s *Store) InsertPost(ctx context.Context, post *model.Post) (int64, bool, error) {
	var link, published any
	if post.Link != "" {
		link = post.Link
	}
	if !post.PublishedAt.IsZero() {
		published = post.PublishedAt
	}
	hashtags := post.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}

	query, args, err := s.psql.Insert(postsTable).
		Columns("title", "content", "author", "link", "publi_date", "likes", "comments", "reposts", "hashtags").
		Values(post.Title, post.Content, post.Author, link, published, post.Likes, post.Comments, post.Reposts, hashtags).
		Suffix("ON CONFLICT (link) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return 0, false, fmt.Errorf("build insert post: %w", err)
	}

	var id int64
	err = s.db.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		// Link conflict: return the existing row
		existing, lookupErr := s.postIDByLink(ctx, post.Link)
		if lookupErr != nil {
			return 0, false, lookupErr
		}
		post.ID = existing
		return existing, false, nil
	}
	if err != nil {
		return 0, false, &model.PersistenceError{Op: "insert post", Err: err}
	}

	post.ID = id
	return id, true, nil
}

// FactChecks returns the records of a post ordered by id
func (s *Store) FactChecks(ctx context.Context, postID int64) ([]model.FactCheckRecord, error) {
	query, args, err := s.psql.Select(factCheckColumns...).
		From(factChecksTable).
		Where(sq.Eq{"post_id": postID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build fact-check query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &model.PersistenceError{Op: "fact-checks", Err: err}
	}
	defer rows.Close()

	var records []model.FactCheckRecord
	for rows.Next() {
		var r model.FactCheckRecord
		if err := rows.Scan(&r.ID, &r.PostID, &r.ClaimID, &r.ClaimText, &r.SourceTitle, &r.Link,
			&r.Rating, &r.SourceSite, &r.Similarity, &r.CreatedAt); err != nil {
			return nil, &model.PersistenceError{Op: "scan fact-check", Err: err}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.PersistenceError{Op: "fact-checks", Err: err}
	}

	return records, nil
}

// ReplaceFactChecks deletes and re-inserts the records of a post in one transaction
func (s *Store) ReplaceFactChecks(ctx context.Context, postID int64, records []model.FactCheckRecord) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM "+postsTable+" WHERE id = $1)", postID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("post %d: %w", postID, model.ErrPostNotFound)
		}

		del, args, err := s.psql.Delete(factChecksTable).Where(sq.Eq{"post_id": postID}).ToSql()
		if err != nil {
			return fmt.Errorf("build delete: %w", err)
		}
		if _, err := tx.Exec(ctx, del, args...); err != nil {
			return err
		}

		if len(records) == 0 {
			return nil
		}

		insert := s.psql.Insert(factChecksTable).
			Columns("post_id", "claim_id", "claim_text", "source_title", "source_link", "source_excerpt", "source_site", "similarity")
		for _, r := range records {
			insert = insert.Values(postID, r.ClaimID, r.ClaimText, r.SourceTitle, r.Link, r.Rating, r.SourceSite, r.Similarity)
		}
		ins, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		_, err = tx.Exec(ctx, ins, args...)
		return err
	})

	if errors.Is(err, model.ErrPostNotFound) {
		return err
	}
	if err != nil {
		return &model.PersistenceError{Op: "replace fact-checks", Err: err}
	}
	return nil
}

// GetAnalysis returns the analysis of a post
func (s *Store) GetAnalysis(ctx context.Context, postID int64) (*model.AnalysisResult, error) {
	query, args, err := s.psql.Select(analysisColumns...).
		From(analysisTable).
		Where(sq.Eq{"post_id": postID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build analysis query: %w", err)
	}

	a, err := scanAnalysis(s.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", postID, model.ErrAnalysisNotFound)
	}
	if err != nil {
		return nil, &model.PersistenceError{Op: "get analysis", Err: err}
	}
	return a, nil
}

// SaveAnalysis inserts an analysis. The unique post_id constraint rejects a second write.
func (s *Store) SaveAnalysis(ctx context.Context, result *model.AnalysisResult) error {
	var rating, source, link, emotions any
	if result.HasFactCheck {
		rating, source, link = result.FactCheckRating, result.FactCheckSource, result.FactCheckLink
	}
	if result.Emotions != nil {
		raw, err := json.Marshal(result.Emotions)
		if err != nil {
			return fmt.Errorf("marshal emotions: %w", err)
		}
		emotions = string(raw)
	}
	createdAt := result.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query, args, err := s.psql.Insert(analysisTable).
		Columns(analysisColumns[1:]...).
		Values(
			result.PostID,
			string(result.ContentCategory),
			result.ContentConfidence,
			result.FakeFlag(),
			result.FakeNewsConfidence,
			result.ContentReliabilityScore,
			result.HasFactCheck,
			rating, source, link,
			result.ExternalReliabilityScore,
			result.GlobalReliabilityScore,
			string(result.FinalCategory),
			string(result.ConfidenceLevel),
			emotions,
			createdAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert analysis: %w", err)
	}

	var id int64
	if err := s.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &model.DuplicateAnalysisError{PostID: result.PostID}
		}
		return &model.PersistenceError{Op: "save analysis", Err: err}
	}

	result.ID = id
	result.CreatedAt = createdAt
	return nil
}

// ListAnalyses returns all analyses ordered by post id
func (s *Store) ListAnalyses(ctx context.Context) ([]model.AnalysisResult, error) {
	query, args, err := s.psql.Select(analysisColumns...).
		From(analysisTable).
		OrderBy("post_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build analyses query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &model.PersistenceError{Op: "list analyses", Err: err}
	}
	defer rows.Close()

	var out []model.AnalysisResult
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, &model.PersistenceError{Op: "scan analysis", Err: err}
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.PersistenceError{Op: "list analyses", Err: err}
	}

	return out, nil
}

// UpdateCategory rewrites the final category of one analysis
func (s *Store) UpdateCategory(ctx context.Context, analysisID int64, category model.Category) error {
	query, args, err := s.psql.Update(analysisTable).
		Set("final_category", string(category)).
		Where(sq.Eq{"id": analysisID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return &model.PersistenceError{Op: "update category", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("analysis %d: %w", analysisID, model.ErrAnalysisNotFound)
	}
	return nil
}

func (s *Store) queryPosts(ctx context.Context, op string, builder sq.SelectBuilder) ([]model.Post, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", op, err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &model.PersistenceError{Op: op, Err: err}
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, &model.PersistenceError{Op: op, Err: err}
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.PersistenceError{Op: op, Err: err}
	}

	return posts, nil
}

func (s *Store) postIDByLink(ctx context.Context, link string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, "SELECT id FROM "+postsTable+" WHERE link = $1", link).Scan(&id)
	if err != nil {
		return 0, &model.PersistenceError{Op: "post by link", Err: err}
	}
	return id, nil
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var (
		p         model.Post
		link      *string
		published *time.Time
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Author, &link, &published,
		&p.Likes, &p.Comments, &p.Reposts, &p.Hashtags, &p.CreatedAt); err != nil {
		return nil, err
	}
	if link != nil {
		p.Link = *link
	}
	if published != nil {
		p.PublishedAt = *published
	}
	return &p, nil
}

func scanAnalysis(row pgx.Row) (*model.AnalysisResult, error) {
	var (
		a                      model.AnalysisResult
		category, final, level string
		fake                   int16
		rating, source, link   *string
		emotions               []byte
	)
	if err := row.Scan(&a.ID, &a.PostID, &category, &a.ContentConfidence, &fake,
		&a.FakeNewsConfidence, &a.ContentReliabilityScore, &a.HasFactCheck,
		&rating, &source, &link,
		&a.ExternalReliabilityScore, &a.GlobalReliabilityScore, &final,
		&level, &emotions, &a.CreatedAt); err != nil {
		return nil, err
	}

	a.ContentCategory = model.ContentCategory(category)
	a.IsFakeNews = fake == 1
	a.FinalCategory = model.Category(final)
	a.ConfidenceLevel = model.ConfidenceLevel(level)
	if rating != nil {
		a.FactCheckRating = *rating
	}
	if source != nil {
		a.FactCheckSource = *source
	}
	if link != nil {
		a.FactCheckLink = *link
	}
	if len(emotions) > 0 {
		if err := json.Unmarshal(emotions, &a.Emotions); err != nil {
			return nil, fmt.Errorf("unmarshal emotions: %w", err)
		}
	}
	return &a, nil
}
