// Package report builds the synthetic reliability report over stored analyses.
package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/credence/internal/model"
)

// problematicThreshold is the global score under which a post is listed as problematic
const problematicThreshold = 50

// maxProblematic caps the problematic posts listed
const maxProblematic = 5

// Source is what a report is read from
type Source interface {
	ListPosts(ctx context.Context) ([]model.Post, error)
	ListAnalyses(ctx context.Context) ([]model.AnalysisResult, error)
}

// CategoryStat is the count and average global score of one final category
type CategoryStat struct {
	Category     model.Category `json:"category"`
	Count        int            `json:"count"`
	AverageScore float64        `json:"average_score"`
}

// Problem is a post with a low global score
type Problem struct {
	PostID      int64          `json:"post_id"`
	Title       string         `json:"title"`
	Category    model.Category `json:"category"`
	GlobalScore float64        `json:"global_score"`
}

// Summary is the synthetic report
type Summary struct {
	GeneratedAt      time.Time      `json:"generated_at"`
	Total            int            `json:"total"`
	AverageScore     float64        `json:"average_score"`
	FakeNews         int            `json:"fake_news"`
	Reliable         int            `json:"reliable"`
	Others           int            `json:"others"`
	FactChecked      int            `json:"fact_checked"`
	FactCheckedRatio float64        `json:"fact_checked_ratio"`
	Categories       []CategoryStat `json:"categories"`
	MostProblematic  []Problem      `json:"most_problematic"`
}

// Generate loads posts and analyses and builds the summary
func Generate(ctx context.Context, src Source) (*Summary, error) {
	analyses, err := src.ListAnalyses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	posts, err := src.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return Build(analyses, indexPosts(posts), time.Now().UTC()), nil
}

// Build computes the summary. Posts missing from the index are listed without title.
func Build(analyses []model.AnalysisResult, posts map[int64]model.Post, now time.Time) *Summary {
	s := &Summary{
		GeneratedAt:     now,
		Total:           len(analyses),
		Categories:      []CategoryStat{},
		MostProblematic: []Problem{},
	}
	if len(analyses) == 0 {
		return s
	}

	type acc struct {
		count int
		sum   float64
	}
	byCategory := make(map[model.Category]*acc)

	var total float64
	for _, a := range analyses {
		total += a.GlobalReliabilityScore

		switch a.FinalCategory {
		case model.CategoryFakeNews:
			s.FakeNews++
		case model.CategoryReliable:
			s.Reliable++
		}
		if a.HasFactCheck {
			s.FactChecked++
		}

		c, ok := byCategory[a.FinalCategory]
		if !ok {
			c = &acc{}
			byCategory[a.FinalCategory] = c
		}
		c.count++
		c.sum += a.GlobalReliabilityScore
	}

	s.AverageScore = round1(total / float64(len(analyses)))
	s.Others = s.Total - s.FakeNews - s.Reliable
	s.FactCheckedRatio = round1(float64(s.FactChecked) / float64(s.Total) * 100)

	for category, c := range byCategory {
		s.Categories = append(s.Categories, CategoryStat{
			Category:     category,
			Count:        c.count,
			AverageScore: round1(c.sum / float64(c.count)),
		})
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		if s.Categories[i].Count != s.Categories[j].Count {
			return s.Categories[i].Count > s.Categories[j].Count
		}
		return s.Categories[i].Category.Rank() < s.Categories[j].Category.Rank()
	})

	s.MostProblematic = problematic(analyses, posts)
	return s
}

func problematic(analyses []model.AnalysisResult, posts map[int64]model.Post) []Problem {
	var out []Problem
	for _, a := range analyses {
		if a.GlobalReliabilityScore >= problematicThreshold {
			continue
		}
		title := "Sans titre"
		if p, ok := posts[a.PostID]; ok {
			title = p.DisplayTitle()
		}
		out = append(out, Problem{
			PostID:      a.PostID,
			Title:       title,
			Category:    a.FinalCategory,
			GlobalScore: a.GlobalReliabilityScore,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GlobalScore != out[j].GlobalScore {
			return out[i].GlobalScore < out[j].GlobalScore
		}
		return out[i].PostID < out[j].PostID
	})
	if len(out) > maxProblematic {
		out = out[:maxProblematic]
	}
	if out == nil {
		out = []Problem{}
	}
	return out
}

// Render writes the summary as a console report
func (s *Summary) Render(w io.Writer) error {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "           RAPPORT SYNTHÉTIQUE DE FIABILITÉ")
	fmt.Fprintln(&b, rule)

	if s.Total == 0 {
		fmt.Fprintln(&b, "\nAucune analyse enregistrée.")
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintln(&b, "\nSTATISTIQUES GÉNÉRALES:")
	fmt.Fprintf(&b, "   • Total posts analysés: %d\n", s.Total)
	fmt.Fprintf(&b, "   • Score de fiabilité moyen: %.1f%%\n", s.AverageScore)
	fmt.Fprintf(&b, "   • Posts fact-checkés: %d (%.1f%%)\n", s.FactChecked, s.FactCheckedRatio)

	fmt.Fprintln(&b, "\nRÉPARTITION PAR CATÉGORIE:")
	fmt.Fprintf(&b, "   • Fake News détectées: %d\n", s.FakeNews)
	fmt.Fprintf(&b, "   • Informations fiables: %d\n", s.Reliable)
	fmt.Fprintf(&b, "   • Autres catégories: %d\n", s.Others)

	fmt.Fprintln(&b, "\nDÉTAIL PAR CATÉGORIE:")
	for _, c := range s.Categories {
		fmt.Fprintf(&b, "   • %s: %d posts (score moyen: %.1f%%)\n", c.Category, c.Count, c.AverageScore)
	}

	if len(s.MostProblematic) > 0 {
		fmt.Fprintf(&b, "\nTOP %d POSTS LES PLUS PROBLÉMATIQUES:\n", maxProblematic)
		for i, p := range s.MostProblematic {
			fmt.Fprintf(&b, "   %d. %s (%s, %.1f%%)\n", i+1, truncate(p.Title, 50), p.Category, p.GlobalScore)
		}
	}

	fmt.Fprintln(&b, "\n"+rule)

	_, err := io.WriteString(w, b.String())
	return err
}

func indexPosts(posts []model.Post) map[int64]model.Post {
	index := make(map[int64]model.Post, len(posts))
	for _, p := range posts {
		index[p.ID] = p
	}
	return index
}

// truncate shortens s to n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
