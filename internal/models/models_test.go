package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMentionID_Deterministic(t *testing.T) {
	a := MentionID("https://example.com/post/1", "glossier")
	b := MentionID("https://example.com/post/1", "glossier")
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, MentionID("https://example.com/post/2", "glossier"))
	assert.NotEqual(t, a, MentionID("https://example.com/post/1", "boy brow"))
}

func TestMentionID_KeywordCaseInsensitive(t *testing.T) {
	assert.Equal(t,
		MentionID("https://example.com/p", "Glossier"),
		MentionID("https://example.com/p", "glossier"))
}

func TestContentHash_CollidesAcrossNearDuplicates(t *testing.T) {
	// Same text with different punctuation and casing must collide so
	// the deduplicator can merge the postings.
	a := ContentHash("Glossier Boy Brow review!", "Loved it, 10/10.")
	b := ContentHash("glossier boy brow REVIEW", "loved it 10 10")
	assert.Equal(t, a, b)

	c := ContentHash("Glossier Boy Brow review", "Hated it.")
	assert.NotEqual(t, a, c)
}

func TestContentHash_DiffersFromID(t *testing.T) {
	m := NewMention("reddit", SourceTypeForum, "https://example.com/p", "Title", "Body glossier body", "glossier", time.Now(), Engagement{})
	assert.NotEqual(t, m.ID, m.ContentHash)
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "HeLLo World", "hello world"},
		{"strips punctuation", "it's great - really!!", "it s great really"},
		{"collapses whitespace", "a  b\t\nc", "a b c"},
		{"trims", "  padded  ", "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeText(tt.input))
		})
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("before ", 60) + "glossier" + strings.Repeat(" after", 60)

	excerpt := Excerpt(long, "glossier", 40)
	assert.Contains(t, excerpt, "glossier")
	assert.True(t, len(excerpt) < len(long))
	assert.True(t, strings.HasPrefix(excerpt, "…"))
	assert.True(t, strings.HasSuffix(excerpt, "…"))
}

func TestExcerpt_KeywordMissing(t *testing.T) {
	long := strings.Repeat("word ", 100)
	excerpt := Excerpt(long, "absent", 40)
	assert.NotEmpty(t, excerpt)
	assert.True(t, strings.HasPrefix(long, strings.TrimSuffix(excerpt, "…")))
}

func TestExcerpt_ShortText(t *testing.T) {
	assert.Equal(t, "short glossier text", Excerpt("short glossier text", "glossier", 160))
	assert.Equal(t, "", Excerpt("", "glossier", 160))
}

func TestHighEngagement_PolicyTable(t *testing.T) {
	tests := []struct {
		name       string
		sourceType SourceType
		engagement Engagement
		expected   bool
	}{
		{"social high upvotes", SourceTypeSocial, Engagement{Upvotes: Int(150)}, true},
		{"social low upvotes", SourceTypeSocial, Engagement{Upvotes: Int(99)}, false},
		{"social high comments", SourceTypeSocial, Engagement{Comments: Int(25)}, true},
		{"forum matches social row", SourceTypeForum, Engagement{Upvotes: Int(100)}, true},
		{"video follows social row", SourceTypeVideo, Engagement{Upvotes: Int(150)}, true},
		{"review lower bar", SourceTypeReview, Engagement{Upvotes: Int(50)}, true},
		{"review comments", SourceTypeReview, Engagement{Comments: Int(10)}, true},
		{"blog has no upvote concept", SourceTypeBlog, Engagement{Upvotes: Int(150)}, false},
		{"blog comments", SourceTypeBlog, Engagement{Comments: Int(10)}, true},
		{"news matches blog row", SourceTypeNews, Engagement{Upvotes: Int(500), Comments: Int(9)}, false},
		{"no engagement data", SourceTypeSocial, Engagement{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HighEngagement(tt.sourceType, tt.engagement))
		})
	}
}

func TestEngagementScore(t *testing.T) {
	assert.Equal(t, 0, Engagement{}.Score())
	assert.Equal(t, 5, Engagement{Upvotes: Int(5)}.Score())
	assert.Equal(t, 12, Engagement{Upvotes: Int(5), Comments: Int(7)}.Score())
	// Views and shares do not count toward the dedup score.
	assert.Equal(t, 0, Engagement{Views: Int(9999), Shares: Int(50)}.Score())
}

func TestNewMention(t *testing.T) {
	published := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMention("reddit", SourceTypeForum,
		"https://reddit.com/r/beauty/x", "Boy Brow thoughts?",
		"Has anyone tried glossier boy brow? Wondering if it is worth it.",
		"glossier", published,
		Engagement{Upvotes: Int(120), Comments: Int(3)})

	assert.Equal(t, MentionID("https://reddit.com/r/beauty/x", "glossier"), m.ID)
	assert.Equal(t, "reddit", m.Source)
	assert.Equal(t, SourceTypeForum, m.SourceType)
	assert.Equal(t, "glossier", m.MatchedKeyword)
	assert.Equal(t, published, m.PublishedAt)
	assert.False(t, m.ScrapedAt.IsZero())
	assert.Contains(t, m.Snippet, "glossier")
	assert.True(t, m.IsHighEngagement)
	assert.Nil(t, m.Sentiment, "sentiment must be absent until enrichment")
	assert.NotEmpty(t, m.ContentHash)
}
