package sources

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/brandpulse/mentions-bot/internal/models"
)

// GoogleNewsSource fetches brand mentions from the Google News RSS search
// feed, one feed per term.
type GoogleNewsSource struct {
	client  *resty.Client
	parser  *gofeed.Parser
	limiter *rate.Limiter
}

// NewGoogleNewsSource creates a Google News source. The RSS endpoint is
// public, so the source is always enabled.
func NewGoogleNewsSource() *GoogleNewsSource {
	return &GoogleNewsSource{
		client:  resty.New().SetTimeout(defaultTimeout).SetHeader("User-Agent", userAgent),
		parser:  gofeed.NewParser(),
		limiter: newLimiter(1, 1),
	}
}

func (g *GoogleNewsSource) Name() string            { return "googlenews" }
func (g *GoogleNewsSource) Type() models.SourceType { return models.SourceTypeNews }
func (g *GoogleNewsSource) Enabled() bool           { return true }

func (g *GoogleNewsSource) Fetch(ctx context.Context, terms []string, maxResults, daysBack int) ([]models.Mention, error) {
	if daysBack <= 0 {
		daysBack = 7
	}

	var mentions []models.Mention
	var failures []string

	for _, term := range terms {
		found, err := g.searchTerm(ctx, term, daysBack)
		if err != nil {
			logrus.Warnf("Google News search failed for %q: %v", term, err)
			failures = append(failures, fmt.Sprintf("%q: %v", term, err))
			continue
		}
		mentions = append(mentions, found...)
	}

	return truncate(dedupeLocal(mentions), maxResults), termErrors(g.Name(), failures)
}

func (g *GoogleNewsSource) searchTerm(ctx context.Context, term string, daysBack int) ([]models.Mention, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feedURL := fmt.Sprintf("https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en",
		url.QueryEscape(fmt.Sprintf("%q when:%dd", term, daysBack)))

	resp, err := g.client.R().SetContext(ctx).Get(feedURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("google news returned status %d", resp.StatusCode())
	}

	feed, err := g.parser.ParseString(string(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("google news feed parse failed: %w", err)
	}

	return g.mentionsFromFeed(feed, term, cutoffTime(daysBack)), nil
}

// mentionsFromFeed converts feed items for one term. News feeds expose no
// engagement counters, so the engagement record stays empty; publish dates
// are approximate when the feed omits them.
func (g *GoogleNewsSource) mentionsFromFeed(feed *gofeed.Feed, term string, cutoff time.Time) []models.Mention {
	var mentions []models.Mention

	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}

		publishedAt := time.Now().UTC()
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed.UTC()
		}
		if publishedAt.Before(cutoff) {
			continue
		}

		mentions = append(mentions, models.NewMention(
			g.Name(), g.Type(),
			item.Link, item.Title, item.Description, term, publishedAt,
			models.Engagement{},
		))
	}

	return mentions
}
