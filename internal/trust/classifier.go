package trust

import (
	"strings"

	"github.com/ppiankov/credence/internal/model"
)

// Classifier classifies fact-check sources into trust tiers
type Classifier struct {
	high   []string
	medium []string
}

// NewClassifier creates a classifier from configured source lists
func NewClassifier(cfg *model.TrustConfig) *Classifier {
	if cfg == nil {
		def := model.DefaultTrustConfig()
		cfg = &def
	}

	return &Classifier{
		high:   normalizeSources(cfg.HighSources),
		medium: normalizeSources(cfg.MediumSources),
	}
}

// Classify returns the tier of a source by case-insensitive substring match.
// High-trust lists are checked before medium-trust lists.
func (c *Classifier) Classify(source string) model.TrustTier {
	s := strings.ToLower(strings.TrimSpace(source))
	if s == "" {
		return model.TrustUnknown
	}

	for _, trusted := range c.high {
		if strings.Contains(s, trusted) {
			return model.TrustHigh
		}
	}

	for _, medium := range c.medium {
		if strings.Contains(s, medium) {
			return model.TrustMedium
		}
	}

	return model.TrustUnknown
}

// normalizeSources lower-cases entries and drops empty ones, which would match everything
func normalizeSources(sources []string) []string {
	out := make([]string, 0, len(sources))
	for _, src := range sources {
		src = strings.ToLower(strings.TrimSpace(src))
		if src != "" {
			out = append(out, src)
		}
	}
	return out
}
