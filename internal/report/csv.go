package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ppiankov/credence/internal/model"
)

var csvHeader = []string{
	"ID", "Titre", "Auteur", "Date Publication", "Catégorie",
	"Score Fiabilité", "Fake News", "Rating Fact-Check",
	"Source Fact-Check", "Likes", "Commentaires", "Reposts",
}

// ExportCSV writes every analysis joined with its post, one row per analysis
func ExportCSV(ctx context.Context, src Source, w io.Writer) (int, error) {
	analyses, err := src.ListAnalyses(ctx)
	if err != nil {
		return 0, fmt.Errorf("list analyses: %w", err)
	}
	posts, err := src.ListPosts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list posts: %w", err)
	}

	if err := WriteCSV(w, analyses, indexPosts(posts)); err != nil {
		return 0, err
	}
	return len(analyses), nil
}

// WriteCSV writes the detailed analysis table
func WriteCSV(w io.Writer, analyses []model.AnalysisResult, posts map[int64]model.Post) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, a := range analyses {
		post := posts[a.PostID]

		published := ""
		if !post.PublishedAt.IsZero() {
			published = post.PublishedAt.Format("2006-01-02 15:04")
		}
		fake := "Non"
		if a.IsFakeNews {
			fake = "Oui"
		}

		row := []string{
			strconv.FormatInt(a.PostID, 10),
			truncate(post.DisplayTitle(), 50),
			post.Author,
			published,
			string(a.FinalCategory),
			strconv.FormatFloat(round1(a.GlobalReliabilityScore), 'f', 1, 64),
			fake,
			a.FactCheckRating,
			a.FactCheckSource,
			strconv.Itoa(post.Likes),
			strconv.Itoa(post.Comments),
			strconv.Itoa(post.Reposts),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for post %d: %w", a.PostID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
