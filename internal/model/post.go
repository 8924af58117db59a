package model

import (
	"strings"
	"time"
)

// Post is a scraped social-media post. Read-only once stored.
type Post struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	Link        string    `json:"link"` // unique when set; http(s) or at:// URIs
	PublishedAt time.Time `json:"published_at"`
	Likes       int       `json:"likes" validate:"gte=0"`
	Comments    int       `json:"comments" validate:"gte=0"`
	Reposts     int       `json:"reposts" validate:"gte=0"`
	Hashtags    []string  `json:"hashtags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the post has something to analyze and sane counters
func (p *Post) Validate() error {
	if strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.Content) == "" {
		return &ValidationError{Field: "Content", Reason: "post has neither title nor content"}
	}
	return validateStruct(p)
}

// Text combines title and content the way they are fed to classifiers
func (p *Post) Text() string {
	title := strings.TrimSpace(p.Title)
	if title == "None" {
		title = ""
	}
	content := strings.TrimSpace(p.Content)
	switch {
	case title == "":
		return content
	case content == "":
		return title
	default:
		return title + " " + content
	}
}

// DisplayTitle returns the title or a placeholder when missing
func (p *Post) DisplayTitle() string {
	if t := strings.TrimSpace(p.Title); t != "" && t != "None" {
		return t
	}
	return "Sans titre"
}

// FactCheckRecord is one claim review associated with a post
type FactCheckRecord struct {
	ID          int64     `json:"id"`
	PostID      int64     `json:"post_id" validate:"gt=0"`
	ClaimID     string    `json:"claim_id,omitempty"`
	ClaimText   string    `json:"claim_text"`
	Rating      string    `json:"rating"`
	SourceTitle string    `json:"source_title,omitempty"`
	SourceSite  string    `json:"source_site"`
	Link        string    `json:"link,omitempty" validate:"omitempty,url"`
	Similarity  float64   `json:"similarity" validate:"gte=0,lte=1"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the record references a post and has a similarity in range
func (f *FactCheckRecord) Validate() error {
	return validateStruct(f)
}

// FactCheckVerdict is the single record selected for scoring a post
type FactCheckVerdict struct {
	Rating string `json:"rating"`
	Source string `json:"source"`
	Link   string `json:"link,omitempty"`
}

// Verdict projects the record onto the fields used by scoring
func (f *FactCheckRecord) Verdict() *FactCheckVerdict {
	return &FactCheckVerdict{
		Rating: f.Rating,
		Source: f.SourceSite,
		Link:   f.Link,
	}
}
