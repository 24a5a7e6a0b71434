package sources

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse/mentions-bot/internal/models"
)

func TestSourceIdentities(t *testing.T) {
	tests := []struct {
		src     Source
		name    string
		srcType models.SourceType
		enabled bool
	}{
		{NewRedditSource("id", "secret"), "reddit", models.SourceTypeForum, true},
		{NewRedditSource("", ""), "reddit", models.SourceTypeForum, false},
		{NewTwitterSource("token"), "twitter", models.SourceTypeSocial, true},
		{NewTwitterSource(""), "twitter", models.SourceTypeSocial, false},
		{NewYouTubeSource("key"), "youtube", models.SourceTypeVideo, true},
		{NewYouTubeSource(""), "youtube", models.SourceTypeVideo, false},
		{NewTemptaliaSource(), "temptalia", models.SourceTypeBlog, true},
		{NewGoogleNewsSource(), "googlenews", models.SourceTypeNews, true},
		{NewMakeupAlleySource(), "makeupalley", models.SourceTypeReview, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.src.Name())
		assert.Equal(t, tt.srcType, tt.src.Type())
		assert.Equal(t, tt.enabled, tt.src.Enabled(), "%s enabled", tt.name)
	}
}

func TestDedupeLocal(t *testing.T) {
	m := func(hash string, upvoteCount int) models.Mention {
		return models.Mention{
			ID:          hash + "-" + time.Now().String(),
			ContentHash: hash,
			Engagement:  models.Engagement{Upvotes: models.Int(upvoteCount)},
		}
	}

	t.Run("keeps higher upvotes", func(t *testing.T) {
		out := dedupeLocal([]models.Mention{m("h1", 5), m("h1", 40), m("h1", 12)})
		require.Len(t, out, 1)
		assert.Equal(t, 40, *out[0].Engagement.Upvotes)
	})

	t.Run("tie keeps first parsed", func(t *testing.T) {
		first := m("h1", 10)
		first.ID = "first"
		second := m("h1", 10)
		second.ID = "second"

		out := dedupeLocal([]models.Mention{first, second})
		require.Len(t, out, 1)
		assert.Equal(t, "first", out[0].ID)
	})

	t.Run("distinct hashes kept in order", func(t *testing.T) {
		out := dedupeLocal([]models.Mention{m("h1", 1), m("h2", 2), m("h3", 3)})
		require.Len(t, out, 3)
		assert.Equal(t, "h1", out[0].ContentHash)
		assert.Equal(t, "h3", out[2].ContentHash)
	})

	t.Run("nil upvotes counts as zero", func(t *testing.T) {
		unknown := models.Mention{ContentHash: "h1"}
		out := dedupeLocal([]models.Mention{unknown, m("h1", 1)})
		require.Len(t, out, 1)
		assert.Equal(t, 1, *out[0].Engagement.Upvotes)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, dedupeLocal(nil))
	})
}

func TestTruncate(t *testing.T) {
	mentions := []models.Mention{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	assert.Len(t, truncate(mentions, 2), 2)
	assert.Len(t, truncate(mentions, 5), 3)
	assert.Len(t, truncate(mentions, 0), 3, "non-positive max means unbounded")
}

func TestTermErrors(t *testing.T) {
	assert.NoError(t, termErrors("reddit", nil))

	err := termErrors("reddit", []string{`"boy brow": status 500`, `"cloud paint": timeout`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reddit")
	assert.Contains(t, err.Error(), "boy brow")
	assert.Contains(t, err.Error(), "cloud paint")
}

func TestErrNotConfigured(t *testing.T) {
	err := errNotConfigured("twitter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "twitter")
	assert.Contains(t, err.Error(), "not configured")
}

func TestContainsFold(t *testing.T) {
	assert.True(t, containsFold("Glossier Boy Brow review", "glossier"))
	assert.True(t, containsFold("loved GLOSSIER's new launch", "Glossier"))
	assert.False(t, containsFold("generic mascara review", "glossier"))
}

func TestCutoffTime(t *testing.T) {
	sevenDaysAgo := time.Now().AddDate(0, 0, -7)

	assert.WithinDuration(t, sevenDaysAgo, cutoffTime(0), time.Minute, "default window is a week")
	assert.WithinDuration(t, sevenDaysAgo, cutoffTime(-3), time.Minute)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -30), cutoffTime(30), time.Minute)
}

const temptaliaFeedSample = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
	xmlns:content="http://purl.org/rss/1.0/modules/content/"
	xmlns:slash="http://purl.org/rss/1.0/modules/slash/">
<channel>
	<title>Temptalia</title>
	<item>
		<title>Glossier Cloud Paint in Dusk Review</title>
		<link>https://www.temptalia.com/glossier-cloud-paint-dusk/</link>
		<pubDate>%s</pubDate>
		<description>Glossier Cloud Paint in Dusk is a warm beige blush.</description>
		<slash:comments>14</slash:comments>
	</item>
	<item>
		<title>Best Mascaras of the Season</title>
		<link>https://www.temptalia.com/best-mascaras/</link>
		<pubDate>%s</pubDate>
		<description>A roundup of drugstore mascaras.</description>
	</item>
	<item>
		<title>Glossier Archive Post</title>
		<link>https://www.temptalia.com/glossier-archive/</link>
		<pubDate>%s</pubDate>
		<description>An old Glossier look from last year.</description>
	</item>
	<item>
		<title>Glossier Post Without A Link</title>
		<pubDate>%s</pubDate>
		<description>Glossier content missing its permalink.</description>
	</item>
</channel>
</rss>`

func parseTestFeed(t *testing.T, raw string) *gofeed.Feed {
	t.Helper()
	feed, err := gofeed.NewParser().ParseString(raw)
	require.NoError(t, err)
	return feed
}

func TestTemptaliaMentionsFromFeed(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-24 * time.Hour).Format(time.RFC1123Z)
	old := now.AddDate(0, 0, -30).Format(time.RFC1123Z)

	feed := parseTestFeed(t, fmt.Sprintf(temptaliaFeedSample, recent, recent, old, recent))

	src := NewTemptaliaSource()
	mentions := src.mentionsFromFeed(feed, []string{"glossier"}, now.AddDate(0, 0, -7))

	require.Len(t, mentions, 1, "term match, cutoff, and missing-link rules all apply")
	m := mentions[0]
	assert.Equal(t, "temptalia", m.Source)
	assert.Equal(t, models.SourceTypeBlog, m.SourceType)
	assert.Equal(t, "https://www.temptalia.com/glossier-cloud-paint-dusk/", m.URL)
	assert.Equal(t, "glossier", m.MatchedKeyword)
	require.NotNil(t, m.Engagement.Comments)
	assert.Equal(t, 14, *m.Engagement.Comments)
	assert.Nil(t, m.Engagement.Upvotes, "blogs expose no upvote counter")
	assert.NotEmpty(t, m.ID)
	assert.NotEmpty(t, m.ContentHash)
}

func TestTemptaliaMentionsFromFeed_MatchesBody(t *testing.T) {
	recent := time.Now().UTC().Add(-time.Hour).Format(time.RFC1123Z)
	feed := parseTestFeed(t, fmt.Sprintf(temptaliaFeedSample, recent, recent, recent, recent))

	src := NewTemptaliaSource()
	mentions := src.mentionsFromFeed(feed, []string{"drugstore"}, time.Now().AddDate(0, 0, -7))

	require.Len(t, mentions, 1, "description text is searched, not just titles")
	assert.Equal(t, "https://www.temptalia.com/best-mascaras/", mentions[0].URL)
	assert.Nil(t, mentions[0].Engagement.Comments, "no slash:comments extension on this item")
}

const googleNewsFeedSample = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>"glossier" - Google News</title>
	<item>
		<title>Glossier Opens New Flagship Store</title>
		<link>https://example.com/glossier-flagship</link>
		<pubDate>%s</pubDate>
		<description>The beauty brand expands retail.</description>
	</item>
	<item>
		<title>Glossier Undated Wire Item</title>
		<link>https://example.com/glossier-undated</link>
		<description>No publish date on this one.</description>
	</item>
</channel>
</rss>`

func TestGoogleNewsMentionsFromFeed(t *testing.T) {
	recent := time.Now().UTC().Add(-2 * time.Hour).Format(time.RFC1123Z)
	feed := parseTestFeed(t, fmt.Sprintf(googleNewsFeedSample, recent))

	src := NewGoogleNewsSource()
	mentions := src.mentionsFromFeed(feed, "glossier", time.Now().AddDate(0, 0, -7))

	require.Len(t, mentions, 2, "undated items count as just published")
	for _, m := range mentions {
		assert.Equal(t, "googlenews", m.Source)
		assert.Equal(t, models.SourceTypeNews, m.SourceType)
		assert.Equal(t, "glossier", m.MatchedKeyword)
		assert.Nil(t, m.Engagement.Upvotes)
		assert.Nil(t, m.Engagement.Comments)
		assert.False(t, m.IsHighEngagement, "news items carry no engagement signal")
	}
}

const makeupAlleyPageSample = `<html><body>
<div class="review-item">
	<a class="review-link" href="/product/glossier-boy-brow/review/1">view</a>
	<span class="review-title">Glossier Boy Brow</span>
	<div class="review-body">Holy grail brow gel, repurchased three times.</div>
	<span class="review-date">%s</span>
	<span class="helpful-count">12</span>
	<span class="comment-count">3</span>
</div>
<div class="review-item">
	<a class="review-link" href="/product/other-mascara/review/2">view</a>
	<span class="review-title">Some Other Mascara</span>
	<div class="review-body">Flaked within hours.</div>
	<span class="review-date">%s</span>
</div>
<div class="review-item">
	<span class="review-title">Glossier Card Missing Its Link</span>
	<div class="review-body">Glossier review with no anchor.</div>
</div>
</body></html>`

func TestMakeupAlleyMentionsFromDocument(t *testing.T) {
	recent := time.Now().Format("Jan 2, 2006")
	doc, err := goquery.NewDocumentFromReader(
		strings.NewReader(fmt.Sprintf(makeupAlleyPageSample, recent, recent)))
	require.NoError(t, err)

	src := NewMakeupAlleySource()
	mentions := src.mentionsFromDocument(doc, "glossier", time.Now().AddDate(0, 0, -7))

	require.Len(t, mentions, 1)
	m := mentions[0]
	assert.Equal(t, "makeupalley", m.Source)
	assert.Equal(t, models.SourceTypeReview, m.SourceType)
	assert.Equal(t, "https://www.makeupalley.com/product/glossier-boy-brow/review/1", m.URL,
		"relative hrefs are resolved against the site base")
	require.NotNil(t, m.Engagement.Upvotes)
	assert.Equal(t, 12, *m.Engagement.Upvotes)
	require.NotNil(t, m.Engagement.Comments)
	assert.Equal(t, 3, *m.Engagement.Comments)
}

func TestParseReviewDate(t *testing.T) {
	parsed := parseReviewDate("Mar 5, 2026")
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), parsed)

	assert.WithinDuration(t, time.Now().UTC(), parseReviewDate("yesterday"), time.Minute,
		"unparseable dates are treated as just published")
}

func TestParseCardCount(t *testing.T) {
	require.NotNil(t, parseCardCount(" 42 "))
	assert.Equal(t, 42, *parseCardCount(" 42 "))
	assert.Nil(t, parseCardCount(""))
	assert.Nil(t, parseCardCount("n/a"))
}
