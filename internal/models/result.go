package models

import "time"

// SourceOutcome is the terminal state a source reached during one
// aggregation call. Every source resolves to exactly one of these.
type SourceOutcome string

const (
	// SourceLive means the adapter was called and its result cached.
	SourceLive SourceOutcome = "live"
	// SourceCached means fresh cached data was served without a fetch.
	SourceCached SourceOutcome = "cached"
	// SourceCachedStale means the fetch failed and stale cached data
	// covered for it.
	SourceCachedStale SourceOutcome = "cached_stale"
	// SourceEmpty means the fetch failed and no cached data existed.
	SourceEmpty SourceOutcome = "empty"
)

// AggregateResult is the unified outcome of one aggregation call.
type AggregateResult struct {
	Mentions    []Mention                `json:"mentions"`
	BySource    map[string]int           `json:"by_source"`
	BySentiment map[SentimentLabel]int   `json:"by_sentiment"`
	Outcomes    map[string]SourceOutcome `json:"outcomes"`
	Errors      []string                 `json:"errors"`
	Duration    time.Duration            `json:"duration"`
	Success     bool                     `json:"success"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// SourceFetchResult is the outcome of a targeted single-source refresh.
type SourceFetchResult struct {
	Source   string        `json:"source"`
	Outcome  SourceOutcome `json:"outcome"`
	Mentions []Mention     `json:"mentions"`
	Error    string        `json:"error,omitempty"`
	Success  bool          `json:"success"`
}

// Report is the digest of a completed aggregation run, as archived and
// sent out by the notification channels.
type Report struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Period      string                 `json:"period"`
	Brand       string                 `json:"brand"`
	Total       int                    `json:"total_mentions"`
	BySource    map[string]int         `json:"by_source"`
	BySentiment map[SentimentLabel]int `json:"by_sentiment"`
	Errors      []string               `json:"errors,omitempty"`
	Mentions    []Mention              `json:"mentions"`
}
