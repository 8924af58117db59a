package textclean

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	mentionPattern = regexp.MustCompile(`@\w+`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// Normalizer turns raw post text into classifier input
type Normalizer struct {
	// KeepHashtags keeps "#tag" tokens as plain words instead of dropping them
	KeepHashtags bool
}

// NewNormalizer creates a normalizer with default options
func NewNormalizer() *Normalizer {
	return &Normalizer{KeepHashtags: true}
}

// Normalize strips markup, links and mentions, applies NFC and collapses whitespace
func (n *Normalizer) Normalize(text string) string {
	if strings.ContainsAny(text, "<&") {
		text = StripHTML(text)
	}

	text = norm.NFC.String(text)
	text = urlPattern.ReplaceAllString(text, " ")
	text = mentionPattern.ReplaceAllString(text, " ")

	if n.KeepHashtags {
		text = strings.ReplaceAll(text, "#", " ")
	} else {
		text = dropHashtags(text)
	}

	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

// StripHTML returns the visible text of an HTML fragment, skipping scripts and styles
func StripHTML(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "br", "p", "div", "li":
				buf.WriteString(" ")
			}
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return strings.TrimSpace(buf.String())
}

func dropHashtags(text string) string {
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, f := range fields {
		if !strings.HasPrefix(f, "#") {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}
