package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/brandpulse/mentions-bot/internal/models"
)

// MakeupAlleySource scrapes brand mentions from MakeupAlley review search
// pages.
type MakeupAlleySource struct {
	baseURL string
	client  *resty.Client
	limiter *rate.Limiter
}

// NewMakeupAlleySource creates a MakeupAlley source. Scraping needs no
// credentials, so the source is always enabled.
func NewMakeupAlleySource() *MakeupAlleySource {
	return &MakeupAlleySource{
		baseURL: "https://www.makeupalley.com",
		client:  resty.New().SetTimeout(defaultTimeout).SetHeader("User-Agent", userAgent),
		limiter: newLimiter(0.5, 1),
	}
}

func (m *MakeupAlleySource) Name() string            { return "makeupalley" }
func (m *MakeupAlleySource) Type() models.SourceType { return models.SourceTypeReview }
func (m *MakeupAlleySource) Enabled() bool           { return true }

func (m *MakeupAlleySource) Fetch(ctx context.Context, terms []string, maxResults, daysBack int) ([]models.Mention, error) {
	cutoff := cutoffTime(daysBack)

	var mentions []models.Mention
	var failures []string

	for _, term := range terms {
		found, err := m.searchTerm(ctx, term, cutoff)
		if err != nil {
			logrus.Warnf("MakeupAlley search failed for %q: %v", term, err)
			failures = append(failures, fmt.Sprintf("%q: %v", term, err))
			continue
		}
		mentions = append(mentions, found...)
	}

	return truncate(dedupeLocal(mentions), maxResults), termErrors(m.Name(), failures)
}

func (m *MakeupAlleySource) searchTerm(ctx context.Context, term string, cutoff time.Time) ([]models.Mention, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	searchURL := fmt.Sprintf("%s/search/?q=%s&type=reviews", m.baseURL, url.QueryEscape(term))

	resp, err := m.client.R().SetContext(ctx).Get(searchURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("makeupalley returned status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("makeupalley parse failed: %w", err)
	}

	return m.mentionsFromDocument(doc, term, cutoff), nil
}

// mentionsFromDocument walks review cards in a search-result document.
// A malformed card is skipped, never fatal.
func (m *MakeupAlleySource) mentionsFromDocument(doc *goquery.Document, term string, cutoff time.Time) []models.Mention {
	var mentions []models.Mention

	doc.Find(".review-item").Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find("a.review-link").Attr("href")
		if !ok || href == "" {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = m.baseURL + href
		}

		title := strings.TrimSpace(card.Find(".review-title").Text())
		body := strings.TrimSpace(card.Find(".review-body").Text())
		if !containsFold(title+" "+body, term) {
			return
		}

		publishedAt := parseReviewDate(strings.TrimSpace(card.Find(".review-date").Text()))
		if publishedAt.Before(cutoff) {
			return
		}

		mentions = append(mentions, models.NewMention(
			m.Name(), m.Type(),
			href, title, body, term, publishedAt,
			models.Engagement{
				Upvotes:  parseCardCount(card.Find(".helpful-count").Text()),
				Comments: parseCardCount(card.Find(".comment-count").Text()),
			},
		))
	})

	return mentions
}

// parseReviewDate handles the "Jan 2, 2006" format the review cards use.
// Undated cards are treated as just published so they survive the cutoff;
// that approximation is recorded in the mention's PublishedAt contract.
func parseReviewDate(s string) time.Time {
	t, err := time.Parse("Jan 2, 2006", s)
	if err != nil {
		return time.Now().UTC()
	}
	return t.UTC()
}

func parseCardCount(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return models.Int(n)
}
