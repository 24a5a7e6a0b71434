package sources

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/brandpulse/mentions-bot/internal/models"
)

// TemptaliaSource fetches brand mentions from the Temptalia beauty blog's
// WordPress feed. The whole feed is fetched once and matched against every
// term locally.
type TemptaliaSource struct {
	feedURL string
	client  *resty.Client
	parser  *gofeed.Parser
	limiter *rate.Limiter
}

// NewTemptaliaSource creates a Temptalia source. The feed is public, so
// the source is always enabled.
func NewTemptaliaSource() *TemptaliaSource {
	return &TemptaliaSource{
		feedURL: "https://www.temptalia.com/feed/",
		client:  resty.New().SetTimeout(defaultTimeout).SetHeader("User-Agent", userAgent),
		parser:  gofeed.NewParser(),
		limiter: newLimiter(0.5, 1),
	}
}

func (t *TemptaliaSource) Name() string            { return "temptalia" }
func (t *TemptaliaSource) Type() models.SourceType { return models.SourceTypeBlog }
func (t *TemptaliaSource) Enabled() bool           { return true }

func (t *TemptaliaSource) Fetch(ctx context.Context, terms []string, maxResults, daysBack int) ([]models.Mention, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := t.client.R().SetContext(ctx).Get(t.feedURL)
	if err != nil {
		return nil, fmt.Errorf("temptalia feed fetch failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("temptalia feed returned status %d", resp.StatusCode())
	}

	feed, err := t.parser.ParseString(string(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("temptalia feed parse failed: %w", err)
	}

	mentions := t.mentionsFromFeed(feed, terms, cutoffTime(daysBack))
	return truncate(dedupeLocal(mentions), maxResults), nil
}

// mentionsFromFeed matches feed items against the search terms. Items
// without a link or publish date are skipped, never fatal.
func (t *TemptaliaSource) mentionsFromFeed(feed *gofeed.Feed, terms []string, cutoff time.Time) []models.Mention {
	var mentions []models.Mention

	for _, item := range feed.Items {
		if item.Link == "" || item.PublishedParsed == nil {
			continue
		}
		publishedAt := item.PublishedParsed.UTC()
		if publishedAt.Before(cutoff) {
			continue
		}

		body := item.Description
		if item.Content != "" {
			body = item.Content
		}

		term, ok := firstMatch(item.Title+" "+body, terms)
		if !ok {
			continue
		}

		mentions = append(mentions, models.NewMention(
			t.Name(), t.Type(),
			item.Link, item.Title, body, term, publishedAt,
			models.Engagement{Comments: wordpressCommentCount(item)},
		))
	}

	return mentions
}

// firstMatch returns the first term the text contains, case-insensitively.
func firstMatch(text string, terms []string) (string, bool) {
	for _, term := range terms {
		if containsFold(text, term) {
			return term, true
		}
	}
	return "", false
}

// wordpressCommentCount reads the slash:comments extension WordPress feeds
// carry. Nil when the feed does not expose it.
func wordpressCommentCount(item *gofeed.Item) *int {
	exts, ok := item.Extensions["slash"]
	if !ok {
		return nil
	}
	comments, ok := exts["comments"]
	if !ok || len(comments) == 0 {
		return nil
	}
	n, err := strconv.Atoi(comments[0].Value)
	if err != nil {
		return nil
	}
	return models.Int(n)
}
