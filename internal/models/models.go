package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// SourceType classifies a source and drives the engagement-threshold policy.
type SourceType string

const (
	SourceTypeForum  SourceType = "forum"
	SourceTypeBlog   SourceType = "blog"
	SourceTypeReview SourceType = "review"
	SourceTypeSocial SourceType = "social"
	SourceTypeVideo  SourceType = "video"
	SourceTypeNews   SourceType = "news"
)

// SentimentLabel is the coarse sentiment bucket of a mention.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// Sentiment holds the scored sentiment of a mention. Score is in [-1, 1].
type Sentiment struct {
	Label SentimentLabel `json:"label"`
	Score float64        `json:"score"`
}

// Engagement carries the sparse engagement counters of a mention.
// A nil field means the source does not expose that signal, not zero.
type Engagement struct {
	Upvotes  *int `json:"upvotes,omitempty"`
	Comments *int `json:"comments,omitempty"`
	Shares   *int `json:"shares,omitempty"`
	Views    *int `json:"views,omitempty"`
}

// Score is the combined engagement score used by the deduplicator:
// upvotes plus comments, missing counters counting as zero.
func (e Engagement) Score() int {
	return intOrZero(e.Upvotes) + intOrZero(e.Comments)
}

// Int returns a pointer to v, for filling sparse Engagement fields.
func Int(v int) *int {
	return &v
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Mention is one normalized observation of brand-related content.
type Mention struct {
	ID               string     `json:"id"`
	Source           string     `json:"source"`
	SourceType       SourceType `json:"source_type"`
	URL              string     `json:"url"`
	Title            string     `json:"title"`
	Snippet          string     `json:"snippet"`
	FullText         string     `json:"full_text,omitempty"`
	MatchedKeyword   string     `json:"matched_keyword"`
	PublishedAt      time.Time  `json:"published_at"`
	ScrapedAt        time.Time  `json:"scraped_at"`
	Engagement       Engagement `json:"engagement"`
	Sentiment        *Sentiment `json:"sentiment,omitempty"`
	IsHighEngagement bool       `json:"is_high_engagement"`
	ContentHash      string     `json:"content_hash"`
}

// NewMention builds the canonical mention record for one raw item.
// ID, snippet, content hash and the high-engagement flag are all computed
// here so every adapter produces the same shape.
func NewMention(source string, sourceType SourceType, url, title, body, keyword string, publishedAt time.Time, engagement Engagement) Mention {
	snippet := Excerpt(body, keyword, SnippetRadius)
	if snippet == "" {
		snippet = Excerpt(title, keyword, SnippetRadius)
	}

	return Mention{
		ID:               MentionID(url, keyword),
		Source:           source,
		SourceType:       sourceType,
		URL:              url,
		Title:            title,
		Snippet:          snippet,
		MatchedKeyword:   keyword,
		PublishedAt:      publishedAt,
		ScrapedAt:        time.Now().UTC(),
		Engagement:       engagement,
		IsHighEngagement: HighEngagement(sourceType, engagement),
		ContentHash:      ContentHash(title, snippet),
	}
}

// MentionID derives the stable mention identifier from (url, keyword).
// The same item found again on a later fetch keeps the same ID even if its
// content was edited in the meantime.
func MentionID(url, keyword string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(url+"\x1f"+strings.ToLower(keyword)))
}

// ContentHash fingerprints the normalized title+snippet text. Near-duplicate
// postings are meant to collide here so the deduplicator can merge them;
// this is deliberately not the same thing as the mention ID.
func ContentHash(title, snippet string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(NormalizeText(title+" "+snippet)))
}

// NormalizeText lowercases the text, strips punctuation, and collapses
// whitespace runs to a single space.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r > 127 && !isSpaceRune(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}

func isSpaceRune(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', ' ':
		return true
	}
	return false
}

// SnippetRadius is how many characters of context Excerpt keeps on each
// side of the matched keyword.
const SnippetRadius = 160

// Excerpt returns a bounded excerpt of text centered on the first
// case-insensitive occurrence of keyword. When the keyword is not found the
// head of the text is returned instead.
func Excerpt(text, keyword string, radius int) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}

	runes := []rune(text)
	start, end := 0, len(runes)

	idx := strings.Index(strings.ToLower(text), strings.ToLower(keyword))
	if idx >= 0 {
		center := len([]rune(text[:idx]))
		start = center - radius
		end = center + len([]rune(keyword)) + radius
	} else {
		end = 2 * radius
	}

	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}

	out := string(runes[start:end])
	if start > 0 {
		out = "…" + out
	}
	if end < len(runes) {
		out += "…"
	}
	return out
}
