package sentiment

import (
	"context"
	"sync"
	"time"

	"github.com/brandpulse/mentions-bot/internal/models"
)

const (
	// DefaultBatchSize keeps concurrent scoring calls within provider
	// rate limits.
	DefaultBatchSize = 8
	// DefaultBatchDelay separates successive batches.
	DefaultBatchDelay = 500 * time.Millisecond
)

// Enricher scores mention batches through a Scorer. A nil Scorer means
// enrichment runs without credentials: every mention gets the neutral
// default and no call is attempted.
type Enricher struct {
	scorer     Scorer
	batchSize  int
	batchDelay time.Duration
}

// NewEnricher creates an enricher. Non-positive batch settings fall back
// to the defaults.
func NewEnricher(scorer Scorer, batchSize int, batchDelay time.Duration) *Enricher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchDelay <= 0 {
		batchDelay = DefaultBatchDelay
	}

	return &Enricher{scorer: scorer, batchSize: batchSize, batchDelay: batchDelay}
}

// Enrich returns a copy of mentions where every item carries a sentiment.
// Items are scored in fixed-size batches, concurrently within a batch, with
// a short delay between batches. No item is ever dropped: a failed score
// resolves to the neutral fallback.
func (e *Enricher) Enrich(ctx context.Context, mentions []models.Mention, subject string) []models.Mention {
	out := make([]models.Mention, len(mentions))
	copy(out, mentions)

	if e.scorer == nil {
		for i := range out {
			neutral := Neutral
			out[i].Sentiment = &neutral
		}
		return out
	}

	for start := 0; start < len(out); start += e.batchSize {
		end := start + e.batchSize
		if end > len(out) {
			end = len(out)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s, err := e.scorer.Score(ctx, scoreText(out[i]), subject)
				if err != nil {
					// Scoring is best-effort.
					s = Neutral
				}
				out[i].Sentiment = &s
			}(i)
		}
		wg.Wait()

		if end < len(out) {
			select {
			case <-ctx.Done():
				// Remaining items resolve to neutral rather than
				// being dropped.
				for i := end; i < len(out); i++ {
					neutral := Neutral
					out[i].Sentiment = &neutral
				}
				return out
			case <-time.After(e.batchDelay):
			}
		}
	}

	return out
}

// scoreText picks the richest text a mention carries.
func scoreText(m models.Mention) string {
	if m.FullText != "" {
		return m.FullText
	}
	if m.Title == "" {
		return m.Snippet
	}
	return m.Title + " " + m.Snippet
}
