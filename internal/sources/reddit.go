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

// RedditSource fetches brand mentions from Reddit's search API.
type RedditSource struct {
	clientID     string
	clientSecret string
	client       *resty.Client
	limiter      *rate.Limiter
	accessToken  string
}

// Subreddits searched for brand mentions.
var redditSubreddits = []string{
	"MakeupAddiction",
	"SkincareAddiction",
	"beauty",
	"muacjdiscussion",
	"Sephora",
	"drugstoreMUA",
}

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditSearchResponse struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	Created     float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
}

// NewRedditSource creates a Reddit source. Both OAuth credentials are
// required; without them the source reports itself as not configured.
func NewRedditSource(clientID, clientSecret string) *RedditSource {
	return &RedditSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       resty.New().SetTimeout(defaultTimeout).SetHeader("User-Agent", userAgent),
		limiter:      newLimiter(1, 2),
	}
}

func (r *RedditSource) Name() string            { return "reddit" }
func (r *RedditSource) Type() models.SourceType { return models.SourceTypeForum }

func (r *RedditSource) Enabled() bool {
	return r.clientID != "" && r.clientSecret != ""
}

func (r *RedditSource) Fetch(ctx context.Context, terms []string, maxResults, daysBack int) ([]models.Mention, error) {
	if !r.Enabled() {
		return nil, errNotConfigured(r.Name())
	}

	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	cutoff := cutoffTime(daysBack)

	var mentions []models.Mention
	var failures []string

	for _, term := range terms {
		for _, subreddit := range redditSubreddits {
			found, err := r.searchSubreddit(ctx, subreddit, term, cutoff)
			if err != nil {
				logrus.Warnf("Reddit search failed for %q in r/%s: %v", term, subreddit, err)
				failures = append(failures, fmt.Sprintf("%q in r/%s: %v", term, subreddit, err))
				continue
			}
			mentions = append(mentions, found...)
		}
	}

	return truncate(dedupeLocal(mentions), maxResults), termErrors(r.Name(), failures)
}

func (r *RedditSource) authenticate(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		Post("https://www.reddit.com/api/v1/access_token")
	if err != nil {
		return err
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return err
	}
	if authResp.AccessToken == "" {
		return fmt.Errorf("reddit returned no access token (status %d)", resp.StatusCode())
	}

	r.accessToken = authResp.AccessToken
	return nil
}

func (r *RedditSource) searchSubreddit(ctx context.Context, subreddit, term string, cutoff time.Time) ([]models.Mention, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	searchURL := fmt.Sprintf("https://oauth.reddit.com/r/%s/search.json?q=%s&restrict_sr=1&sort=new&limit=100",
		subreddit, url.QueryEscape(term))

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+r.accessToken).
		Get(searchURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var searchResp redditSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, err
	}

	var mentions []models.Mention
	for _, child := range searchResp.Data.Children {
		post := child.Data
		publishedAt := time.Unix(int64(post.Created), 0).UTC()
		if publishedAt.Before(cutoff) {
			continue
		}
		if !containsFold(post.Title+" "+post.Selftext, term) {
			continue
		}

		mentions = append(mentions, models.NewMention(
			r.Name(), r.Type(),
			"https://reddit.com"+post.Permalink,
			post.Title, post.Selftext, term, publishedAt,
			models.Engagement{
				Upvotes:  models.Int(post.Score),
				Comments: models.Int(post.NumComments),
			},
		))
	}

	return mentions, nil
}
