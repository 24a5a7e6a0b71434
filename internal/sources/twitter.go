package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/brandpulse/mentions-bot/internal/models"
)

// TwitterSource fetches brand mentions from the X/Twitter recent-search
// API.
type TwitterSource struct {
	bearerToken string
	client      *resty.Client
	limiter     *rate.Limiter
}

type twitterSearchResponse struct {
	Data []twitterTweet `json:"data"`
}

type twitterTweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	CreatedAt     string `json:"created_at"`
	PublicMetrics struct {
		RetweetCount int `json:"retweet_count"`
		LikeCount    int `json:"like_count"`
		ReplyCount   int `json:"reply_count"`
	} `json:"public_metrics"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
}

// NewTwitterSource creates a Twitter source; a bearer token is required.
func NewTwitterSource(bearerToken string) *TwitterSource {
	return &TwitterSource{
		bearerToken: bearerToken,
		client:      resty.New().SetTimeout(defaultTimeout).SetHeader("User-Agent", userAgent),
		limiter:     newLimiter(0.35, 1), // the recent-search tier allows roughly one call per 3s
	}
}

func (t *TwitterSource) Name() string            { return "twitter" }
func (t *TwitterSource) Type() models.SourceType { return models.SourceTypeSocial }

func (t *TwitterSource) Enabled() bool {
	return t.bearerToken != ""
}

func (t *TwitterSource) Fetch(ctx context.Context, terms []string, maxResults, daysBack int) ([]models.Mention, error) {
	if !t.Enabled() {
		return nil, errNotConfigured(t.Name())
	}

	// The recent-search endpoint only covers the last 7 days.
	cutoff := cutoffTime(daysBack)
	if weekAgo := time.Now().AddDate(0, 0, -7); cutoff.Before(weekAgo) {
		cutoff = weekAgo
	}

	var mentions []models.Mention
	var failures []string

	for _, term := range terms {
		found, err := t.searchTerm(ctx, term, cutoff)
		if err != nil {
			logrus.Warnf("Twitter search failed for %q: %v", term, err)
			failures = append(failures, fmt.Sprintf("%q: %v", term, err))
			continue
		}
		mentions = append(mentions, found...)
	}

	return truncate(dedupeLocal(mentions), maxResults), termErrors(t.Name(), failures)
}

func (t *TwitterSource) searchTerm(ctx context.Context, term string, cutoff time.Time) ([]models.Mention, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.QueryEscape(fmt.Sprintf("%q -is:retweet lang:en", term))
	searchURL := fmt.Sprintf(
		"https://api.twitter.com/2/tweets/search/recent?query=%s&start_time=%s&max_results=100&tweet.fields=created_at,public_metrics,referenced_tweets",
		query, cutoff.UTC().Format(time.RFC3339))

	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+t.bearerToken).
		Get(searchURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == 429 {
		return nil, fmt.Errorf("twitter API rate limited")
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("twitter API returned status %d", resp.StatusCode())
	}

	var searchResp twitterSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse twitter response: %w", err)
	}

	var mentions []models.Mention
	for _, tweet := range searchResp.Data {
		if isRetweet(tweet) {
			continue
		}

		publishedAt, err := time.Parse(time.RFC3339, tweet.CreatedAt)
		if err != nil {
			logrus.Debugf("Skipping tweet %s with bad timestamp: %v", tweet.ID, err)
			continue
		}

		mentions = append(mentions, models.NewMention(
			t.Name(), t.Type(),
			"https://twitter.com/i/status/"+tweet.ID,
			"", tweet.Text, term, publishedAt.UTC(),
			models.Engagement{
				Upvotes:  models.Int(tweet.PublicMetrics.LikeCount),
				Comments: models.Int(tweet.PublicMetrics.ReplyCount),
				Shares:   models.Int(tweet.PublicMetrics.RetweetCount),
			},
		))
	}

	return mentions, nil
}

func isRetweet(tweet twitterTweet) bool {
	for _, ref := range tweet.ReferencedTweets {
		if ref.Type == "retweeted" {
			return true
		}
	}
	return false
}
