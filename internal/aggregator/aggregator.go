// Package aggregator fans mention requests out to every active source,
// merges the results through the cache and deduplicator, and aggregates
// partial failures into one unified result.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brandpulse/mentions-bot/internal/cache"
	"github.com/brandpulse/mentions-bot/internal/dedup"
	"github.com/brandpulse/mentions-bot/internal/models"
	"github.com/brandpulse/mentions-bot/internal/sentiment"
	"github.com/brandpulse/mentions-bot/internal/sources"
)

const (
	// DefaultFetchBatchSize keeps concurrent source fetches small enough
	// to stay within third-party politeness expectations.
	DefaultFetchBatchSize = 2
	// DefaultFetchBatchDelay separates successive fetch groups.
	DefaultFetchBatchDelay = time.Second
)

// Request describes one aggregation call.
type Request struct {
	// Sources filters the active adapter set by name; empty means all
	// enabled adapters.
	Sources []string
	// Terms are the search terms handed to every adapter.
	Terms []string
	// Brand is the cache-key subject and the sentiment subject.
	Brand string
	// MaxPerSource bounds each adapter's result list.
	MaxPerSource int
	// DaysBack bounds how far back adapters search.
	DaysBack int
	// IncludeSentiment runs the enricher over the deduplicated set.
	IncludeSentiment bool
}

// Aggregator is the single entry point of the aggregation core.
type Aggregator struct {
	cache      *cache.Cache
	sources    []sources.Source
	enricher   *sentiment.Enricher
	batchSize  int
	batchDelay time.Duration

	mu      sync.RWMutex
	metrics Metrics
}

// Metrics holds the bookkeeping of the most recent aggregation run.
type Metrics struct {
	TotalMentions   int                           `json:"total_mentions"`
	LastRun         time.Time                     `json:"last_run"`
	LastRunDuration string                        `json:"last_run_duration"`
	SourceCounts    map[string]int                `json:"source_counts"`
	SentimentCounts map[models.SentimentLabel]int `json:"sentiment_counts"`
	ErrorCount      int                           `json:"error_count"`
}

// New creates an aggregator owning the given cache and adapter set.
// Non-positive batch settings fall back to the defaults.
func New(c *cache.Cache, srcs []sources.Source, enricher *sentiment.Enricher, batchSize int, batchDelay time.Duration) *Aggregator {
	if batchSize <= 0 {
		batchSize = DefaultFetchBatchSize
	}
	if batchDelay <= 0 {
		batchDelay = DefaultFetchBatchDelay
	}

	return &Aggregator{
		cache:      c,
		sources:    srcs,
		enricher:   enricher,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// resolution is the terminal state one source reached in a run.
type resolution struct {
	source   string
	mentions []models.Mention
	outcome  models.SourceOutcome
	errMsg   string
	failed   bool
}

// Aggregate runs the full pipeline: per-source cache-or-fetch resolution in
// small concurrent groups, stale fallback on fetch failure, global dedup,
// optional sentiment enrichment, and the final sort. A source failure never
// aborts its siblings; the returned error is non-nil only for a contract
// violation (no active source matches the request).
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (*models.AggregateResult, error) {
	start := time.Now()

	active := a.activeSources(req.Sources)
	if len(active) == 0 {
		return nil, fmt.Errorf("no active sources match request (filter: %v)", req.Sources)
	}

	logrus.Infof("Aggregating %d sources for brand %q (terms: %v)", len(active), req.Brand, req.Terms)

	resolutions := make([]resolution, len(active))
batches:
	for batchStart := 0; batchStart < len(active); batchStart += a.batchSize {
		batchEnd := batchStart + a.batchSize
		if batchEnd > len(active) {
			batchEnd = len(active)
		}

		var wg sync.WaitGroup
		for i := batchStart; i < batchEnd; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				resolutions[i] = a.resolveSource(ctx, active[i], req)
			}(i)
		}
		wg.Wait()

		if batchEnd == len(active) {
			break
		}

		select {
		case <-ctx.Done():
			// Remaining sources resolve as failed attempts.
			for i := batchEnd; i < len(active); i++ {
				resolutions[i] = a.staleOrEmpty(active[i].Name(), req.Brand, ctx.Err())
			}
			break batches
		case <-time.After(a.batchDelay):
		}
	}

	var combined []models.Mention
	var errs []string
	outcomes := make(map[string]models.SourceOutcome, len(active))
	failedCount := 0

	for _, r := range resolutions {
		outcomes[r.source] = r.outcome
		combined = append(combined, r.mentions...)
		if r.errMsg != "" {
			errs = append(errs, r.errMsg)
		}
		if r.failed {
			failedCount++
		}
	}

	merged := dedup.Merge(combined)
	if req.IncludeSentiment && a.enricher != nil {
		merged = a.enricher.Enrich(ctx, merged, req.Brand)
	}
	sortMentions(merged)

	result := &models.AggregateResult{
		Mentions:    merged,
		BySource:    countBySource(merged),
		BySentiment: countBySentiment(merged),
		Outcomes:    outcomes,
		Errors:      errs,
		Duration:    time.Since(start),
		Success:     failedCount < len(active),
		GeneratedAt: time.Now().UTC(),
	}

	a.updateMetrics(result)
	logrus.Infof("Aggregation finished: %d mentions, %d errors, success=%t in %v",
		len(merged), len(errs), result.Success, result.Duration)

	return result, nil
}

// FetchSource is the narrow single-source refresh entry point. It runs the
// same cache-or-fetch resolution as Aggregate for exactly one source.
func (a *Aggregator) FetchSource(ctx context.Context, name string, req Request) (*models.SourceFetchResult, error) {
	var src sources.Source
	for _, s := range a.sources {
		if strings.EqualFold(s.Name(), name) {
			src = s
			break
		}
	}
	if src == nil {
		return nil, fmt.Errorf("unknown source %q", name)
	}

	r := a.resolveSource(ctx, src, req)
	sortMentions(r.mentions)

	return &models.SourceFetchResult{
		Source:   r.source,
		Outcome:  r.outcome,
		Mentions: r.mentions,
		Error:    r.errMsg,
		Success:  !r.failed,
	}, nil
}

// resolveSource walks one source through its per-request state machine:
// cache hit, else fetch; on fetch failure stale cache, else empty. Each
// call reaches exactly one terminal outcome.
func (a *Aggregator) resolveSource(ctx context.Context, src sources.Source, req Request) resolution {
	name := src.Name()

	if data, ok := a.cache.Get(name, req.Brand); ok {
		logrus.Debugf("Cache hit for %s/%s", name, req.Brand)
		return resolution{source: name, mentions: data, outcome: models.SourceCached}
	}

	mentions, err := src.Fetch(ctx, req.Terms, req.MaxPerSource, req.DaysBack)
	if len(mentions) > 0 {
		a.cache.Put(name, req.Brand, mentions)
		r := resolution{source: name, mentions: mentions, outcome: models.SourceLive}
		if err != nil {
			// Partial failure: some terms or pages failed but the
			// source still contributed. Recorded, not fatal.
			r.errMsg = err.Error()
		}
		return r
	}

	if err == nil {
		// A clean empty fetch is still a successful fetch; caching it
		// conserves quota until the TTL lapses.
		a.cache.Put(name, req.Brand, mentions)
		return resolution{source: name, mentions: mentions, outcome: models.SourceLive}
	}

	logrus.Warnf("Fetch failed for %s: %v", name, err)
	return a.staleOrEmpty(name, req.Brand, err)
}

// staleOrEmpty is the fetch-failure tail of the state machine.
func (a *Aggregator) staleOrEmpty(name, brand string, err error) resolution {
	if data, ok := a.cache.GetStale(name, brand); ok {
		logrus.Infof("Serving stale cache for %s/%s after fetch failure", name, brand)
		return resolution{source: name, mentions: data, outcome: models.SourceCachedStale}
	}
	return resolution{
		source:  name,
		outcome: models.SourceEmpty,
		errMsg:  fmt.Sprintf("%s: %v", name, err),
		failed:  true,
	}
}

// activeSources intersects the enabled adapters with the caller's filter.
func (a *Aggregator) activeSources(filter []string) []sources.Source {
	wanted := make(map[string]bool, len(filter))
	for _, name := range filter {
		wanted[strings.ToLower(name)] = true
	}

	var active []sources.Source
	for _, src := range a.sources {
		if !src.Enabled() {
			continue
		}
		if len(wanted) > 0 && !wanted[strings.ToLower(src.Name())] {
			continue
		}
		active = append(active, src)
	}
	return active
}

// sortMentions orders high-engagement mentions first, most recent first
// within each group. Stable so equal items keep their merge order.
func sortMentions(mentions []models.Mention) {
	sort.SliceStable(mentions, func(i, j int) bool {
		if mentions[i].IsHighEngagement != mentions[j].IsHighEngagement {
			return mentions[i].IsHighEngagement
		}
		return mentions[i].PublishedAt.After(mentions[j].PublishedAt)
	})
}

func countBySource(mentions []models.Mention) map[string]int {
	out := make(map[string]int)
	for _, m := range mentions {
		out[m.Source]++
	}
	return out
}

func countBySentiment(mentions []models.Mention) map[models.SentimentLabel]int {
	out := make(map[models.SentimentLabel]int)
	for _, m := range mentions {
		if m.Sentiment != nil {
			out[m.Sentiment.Label]++
		}
	}
	return out
}

func (a *Aggregator) updateMetrics(result *models.AggregateResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.metrics = Metrics{
		TotalMentions:   len(result.Mentions),
		LastRun:         result.GeneratedAt,
		LastRunDuration: result.Duration.String(),
		SourceCounts:    result.BySource,
		SentimentCounts: result.BySentiment,
		ErrorCount:      len(result.Errors),
	}
}

// MetricsSnapshot returns the metrics of the most recent run.
func (a *Aggregator) MetricsSnapshot() Metrics {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.metrics
}
