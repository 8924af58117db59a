package factcheck

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/store"
)

// CollectorStore is what the collector reads and writes
type CollectorStore interface {
	PostsWithoutFactChecks(ctx context.Context) ([]model.Post, error)
	store.FactCheckWriter
}

// CollectReport summarizes one collection run
type CollectReport struct {
	Examined int           `json:"examined"`
	Matched  int           `json:"matched"`
	Records  int           `json:"records"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Collector searches claim reviews for posts and stores the best matches
type Collector struct {
	searcher      Searcher
	store         CollectorStore
	minSimilarity float64
	maxRecords    int
	log           logrus.FieldLogger
}

// NewCollector creates a collector
func NewCollector(searcher Searcher, st CollectorStore, cfg model.FactCheckConfig, log logrus.FieldLogger) *Collector {
	maxRecords := cfg.MaxRecords
	if maxRecords <= 0 {
		maxRecords = 3
	}
	return &Collector{
		searcher:      searcher,
		store:         st,
		minSimilarity: cfg.MinSimilarity,
		maxRecords:    maxRecords,
		log:           log,
	}
}

// CollectPending runs over posts with no record in ascending id order.
// Lookup failures skip the post; store failures abort the run.
func (c *Collector) CollectPending(ctx context.Context) (CollectReport, error) {
	start := time.Now()
	var report CollectReport

	posts, err := c.store.PostsWithoutFactChecks(ctx)
	if err != nil {
		return report, &model.PersistenceError{Op: "list posts without fact-checks", Err: err}
	}

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
		report.Examined++

		records, err := c.Match(ctx, &post)
		if err != nil {
			report.Failed++
			c.log.WithFields(logrus.Fields{"post_id": post.ID, "error": err}).Warn("fact-check lookup failed, skipping post")
			if errors.Is(err, ErrNoAPIKey) {
				report.Duration = time.Since(start)
				return report, err
			}
			continue
		}
		if len(records) == 0 {
			c.log.WithField("post_id", post.ID).Debug("no matching claim review")
			continue
		}

		if err := c.store.ReplaceFactChecks(ctx, post.ID, records); err != nil {
			report.Duration = time.Since(start)
			return report, &model.PersistenceError{Op: "replace fact-checks", Err: err}
		}
		report.Matched++
		report.Records += len(records)
		c.log.WithFields(logrus.Fields{"post_id": post.ID, "records": len(records)}).Info("fact-checks stored")
	}

	report.Duration = time.Since(start)
	return report, nil
}

// Match searches claim reviews for a post and returns the best records,
// most similar first. It does not write anything.
func (c *Collector) Match(ctx context.Context, post *model.Post) ([]model.FactCheckRecord, error) {
	text := post.Text()
	queries := Queries(Keywords(text))
	if len(queries) == 0 {
		return nil, nil
	}

	type key struct{ claim, link string }
	best := make(map[key]model.FactCheckRecord)
	var order []key

	for _, q := range queries {
		claims, err := c.searcher.Search(ctx, q)
		if err != nil {
			return nil, &model.ExternalLookupError{PostID: post.ID, Err: err}
		}

		for _, r := range c.records(post.ID, text, claims) {
			k := key{r.ClaimText, r.Link}
			prev, seen := best[k]
			if !seen {
				order = append(order, k)
			}
			if !seen || r.Similarity > prev.Similarity {
				best[k] = r
			}
		}
	}

	out := make([]model.FactCheckRecord, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > c.maxRecords {
		out = out[:c.maxRecords]
	}
	return out, nil
}

// records turns the claims of one query into candidate records
func (c *Collector) records(postID int64, text string, claims []Claim) []model.FactCheckRecord {
	var out []model.FactCheckRecord
	for _, claim := range claims {
		if len(claim.ClaimReview) == 0 {
			continue
		}

		similarity := Similarity(text, claim.Text)
		if similarity < c.minSimilarity {
			continue
		}

		for _, review := range claim.ClaimReview {
			out = append(out, model.FactCheckRecord{
				PostID:      postID,
				ClaimID:     "similarity_" + strconv.FormatFloat(similarity, 'f', -1, 64),
				ClaimText:   claim.Text,
				Rating:      review.TextualRating,
				SourceTitle: review.Title,
				SourceSite:  review.Publisher.Name,
				Link:        review.URL,
				Similarity:  similarity,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > c.maxRecords {
		out = out[:c.maxRecords]
	}
	return out
}
