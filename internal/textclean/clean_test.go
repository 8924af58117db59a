package textclean

import (
	"reflect"
	"testing"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		desc     string
		input    string
		expected string
	}{
		{desc: "Plain text", input: "Bonjour  le\tmonde", expected: "Bonjour le monde"},
		{desc: "Links and mentions removed", input: "Voir https://example.com/x @user maintenant", expected: "Voir maintenant"},
		{desc: "Hashtag kept as word", input: "Grève #retraites demain", expected: "Grève retraites demain"},
		{desc: "HTML stripped", input: "<p>Le <b>vaccin</b> est sûr</p><script>alert(1)</script>", expected: "Le vaccin est sûr"},
		{desc: "Entities decoded", input: "Tom &amp; Jerry", expected: "Tom & Jerry"},
		{desc: "Decomposed accents composed", input: "e\u0301lection", expected: "\u00e9lection"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := n.Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizer_DropHashtags(t *testing.T) {
	n := &Normalizer{KeepHashtags: false}

	if got := n.Normalize("Grève #retraites demain"); got != "Grève demain" {
		t.Errorf("Expected hashtag dropped, got %q", got)
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		desc     string
		text     string
		max      int
		expected []string
	}{
		{
			desc:     "Stop words and short words dropped",
			text:     "Le vaccin de la grippe est dangereux pour les enfants",
			max:      10,
			expected: []string{"vaccin", "grippe", "est", "dangereux", "enfants"},
		},
		{
			desc:     "Punctuation split and lower-cased",
			text:     "Macron: réforme, RÉFORME! retraites?",
			max:      10,
			expected: []string{"macron", "réforme", "retraites"},
		},
		{
			desc:     "Capped at max",
			text:     "alpha beta gamma delta epsilon",
			max:      2,
			expected: []string{"alpha", "beta"},
		},
		{
			desc:     "Empty",
			text:     "",
			max:      10,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := Keywords(tt.text, 3, tt.max)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Keywords = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSquash(t *testing.T) {
	if got := Squash("C'est FAUX !"); got != "cest faux" {
		t.Errorf("Squash = %q", got)
	}
}
