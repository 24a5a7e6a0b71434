package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/brandpulse/mentions-bot/internal/models"
)

// YouTubeSource fetches brand mentions from the YouTube Data API. Each term
// costs two calls: a search, then a statistics lookup for the matched
// videos so mentions carry view, like and comment counts.
type YouTubeSource struct {
	apiKey  string
	client  *resty.Client
	limiter *rate.Limiter
}

type youTubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			PublishedAt string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

type youTubeStatsResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// NewYouTubeSource creates a YouTube source; an API key is required.
func NewYouTubeSource(apiKey string) *YouTubeSource {
	return &YouTubeSource{
		apiKey:  apiKey,
		client:  resty.New().SetTimeout(defaultTimeout).SetHeader("User-Agent", userAgent),
		limiter: newLimiter(2, 2),
	}
}

func (y *YouTubeSource) Name() string            { return "youtube" }
func (y *YouTubeSource) Type() models.SourceType { return models.SourceTypeVideo }

func (y *YouTubeSource) Enabled() bool {
	return y.apiKey != ""
}

func (y *YouTubeSource) Fetch(ctx context.Context, terms []string, maxResults, daysBack int) ([]models.Mention, error) {
	if !y.Enabled() {
		return nil, errNotConfigured(y.Name())
	}

	cutoff := cutoffTime(daysBack)

	var mentions []models.Mention
	var failures []string

	for _, term := range terms {
		found, err := y.searchTerm(ctx, term, cutoff)
		if err != nil {
			logrus.Warnf("YouTube search failed for %q: %v", term, err)
			failures = append(failures, fmt.Sprintf("%q: %v", term, err))
			continue
		}
		mentions = append(mentions, found...)
	}

	return truncate(dedupeLocal(mentions), maxResults), termErrors(y.Name(), failures)
}

func (y *YouTubeSource) searchTerm(ctx context.Context, term string, cutoff time.Time) ([]models.Mention, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	searchURL := fmt.Sprintf(
		"https://www.googleapis.com/youtube/v3/search?part=snippet&q=%s&type=video&publishedAfter=%s&maxResults=50&key=%s",
		url.QueryEscape(term), cutoff.UTC().Format(time.RFC3339), y.apiKey)

	resp, err := y.client.R().SetContext(ctx).Get(searchURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("youtube API returned status %d", resp.StatusCode())
	}

	var searchResp youTubeSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse youtube response: %w", err)
	}

	type candidate struct {
		videoID     string
		title       string
		description string
		publishedAt time.Time
	}

	var candidates []candidate
	for _, item := range searchResp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		if !containsFold(item.Snippet.Title+" "+item.Snippet.Description, term) {
			continue
		}
		publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if err != nil {
			logrus.Debugf("Skipping youtube video %s with bad timestamp: %v", item.ID.VideoID, err)
			continue
		}
		candidates = append(candidates, candidate{
			videoID:     item.ID.VideoID,
			title:       item.Snippet.Title,
			description: item.Snippet.Description,
			publishedAt: publishedAt.UTC(),
		})
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.videoID)
	}
	stats, err := y.videoStats(ctx, ids)
	if err != nil {
		// Stats are an enrichment; the search results still stand.
		logrus.Debugf("YouTube statistics lookup failed: %v", err)
		stats = nil
	}

	var mentions []models.Mention
	for _, c := range candidates {
		mentions = append(mentions, models.NewMention(
			y.Name(), y.Type(),
			"https://www.youtube.com/watch?v="+c.videoID,
			c.title, c.description, term, c.publishedAt,
			stats[c.videoID],
		))
	}

	return mentions, nil
}

// videoStats resolves engagement counters for a batch of video IDs, keyed
// by video ID. Missing or unparsable counters stay nil.
func (y *YouTubeSource) videoStats(ctx context.Context, videoIDs []string) (map[string]models.Engagement, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	statsURL := fmt.Sprintf(
		"https://www.googleapis.com/youtube/v3/videos?part=statistics&id=%s&key=%s",
		strings.Join(videoIDs, ","), y.apiKey)

	resp, err := y.client.R().SetContext(ctx).Get(statsURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("youtube API returned status %d", resp.StatusCode())
	}

	var statsResp youTubeStatsResponse
	if err := json.Unmarshal(resp.Body(), &statsResp); err != nil {
		return nil, fmt.Errorf("failed to parse youtube statistics: %w", err)
	}

	out := make(map[string]models.Engagement, len(statsResp.Items))
	for _, item := range statsResp.Items {
		out[item.ID] = models.Engagement{
			Upvotes:  parseCount(item.Statistics.LikeCount),
			Comments: parseCount(item.Statistics.CommentCount),
			Views:    parseCount(item.Statistics.ViewCount),
		}
	}
	return out, nil
}

func parseCount(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return models.Int(n)
}
