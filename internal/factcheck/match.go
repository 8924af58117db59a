package factcheck

import (
	"math"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/ppiankov/credence/internal/textclean"
)

const (
	keywordMinLen = 3
	keywordMax    = 10
)

// Keywords extracts the search keywords of a text
func Keywords(text string) []string {
	return textclean.Keywords(text, keywordMinLen, keywordMax)
}

// Queries builds the search queries for a keyword list, broadest first:
// the first five keywords together, the first three OR-ed, then the
// first two alone.
func Queries(keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}

	var queries []string
	if len(keywords) > 1 {
		queries = append(queries, strings.Join(keywords[:min(5, len(keywords))], " "))
	}
	queries = append(queries, strings.Join(keywords[:min(3, len(keywords))], " OR "))
	queries = append(queries, keywords[:min(2, len(keywords))]...)

	return queries
}

// Similarity scores how close a claim is to a post text, in [0,1] rounded
// to three decimals: 0.7 of the character sequence ratio plus 0.3 of the
// keyword Jaccard index when both texts have keywords.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	similarity := sequenceRatio(textclean.Squash(a), textclean.Squash(b))

	ka, kb := Keywords(a), Keywords(b)
	if len(ka) > 0 && len(kb) > 0 {
		similarity = 0.7*similarity + 0.3*jaccard(ka, kb)
	}

	return math.Round(similarity*1000) / 1000
}

// sequenceRatio is the character-level matching ratio of two strings
func sequenceRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func jaccard(a, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, w := range a {
		set[w] = true
	}

	inter := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, w := range b {
		if seen[w] {
			continue
		}
		seen[w] = true
		if set[w] {
			inter++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
