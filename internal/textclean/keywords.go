package textclean

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// frenchStopWords are dropped before keyword extraction
var frenchStopWords = map[string]bool{
	"le": true, "la": true, "les": true, "de": true, "des": true, "du": true,
	"un": true, "une": true, "et": true, "à": true, "dans": true, "sur": true,
	"pour": true, "par": true, "avec": true, "au": true, "aux": true, "ce": true,
	"ces": true, "se": true, "sa": true, "son": true, "que": true, "qui": true,
	"dont": true, "où": true, "quand": true, "comment": true, "pourquoi": true,
	"mais": true, "ou": true, "car": true, "donc": true, "or": true, "ni": true,
	"puis": true, "alors": true, "ainsi": true, "aussi": true, "cependant": true,
	"néanmoins": true, "toutefois": true, "pourtant": true, "en": true,
	"effet": true, "exemple": true,
}

var lowerFrench = cases.Lower(language.French)

// Words lower-cases text and splits it on anything that is not a letter, digit or underscore
func Words(text string) []string {
	text = lowerFrench.String(norm.NFC.String(text))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
}

// Keywords returns up to max unique non-stop words of at least minLen runes, in order of appearance
func Keywords(text string, minLen, max int) []string {
	seen := make(map[string]bool)
	var keywords []string

	for _, w := range Words(text) {
		if frenchStopWords[w] || len([]rune(w)) < minLen || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
		if max > 0 && len(keywords) >= max {
			break
		}
	}

	return keywords
}

// Squash lower-cases text and removes punctuation, keeping word characters and whitespace
func Squash(text string) string {
	text = lowerFrench.String(norm.NFC.String(text))

	var b strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
