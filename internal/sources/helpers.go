package sources

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/brandpulse/mentions-bot/internal/models"
)

const userAgent = "BrandPulse-Mentions-Bot/1.0"

const defaultTimeout = 30 * time.Second

// newLimiter builds the per-source politeness limiter. Each adapter owns
// its own limiter because third-party quotas are per provider, not global.
func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// errNotConfigured is the uniform "missing credentials" failure so the
// orchestrator's partial-failure path handles unconfigured sources like any
// other fetch error.
func errNotConfigured(source string) error {
	return fmt.Errorf("%s source not configured", source)
}

// termErrors folds per-term failures into the single error an adapter
// returns alongside its partial results. Nil when nothing failed.
func termErrors(source string, failures []string) error {
	if len(failures) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %s", source, strings.Join(failures, "; "))
}

// dedupeLocal is the adapter-level pass that collapses duplicates by
// content hash before results leave the adapter, keeping the item with the
// higher upvote count. Ties keep whichever was parsed first. Cross-adapter
// dedup happens later in the global merge.
func dedupeLocal(mentions []models.Mention) []models.Mention {
	best := make(map[string]int, len(mentions))
	out := make([]models.Mention, 0, len(mentions))

	for _, m := range mentions {
		idx, seen := best[m.ContentHash]
		if !seen {
			best[m.ContentHash] = len(out)
			out = append(out, m)
			continue
		}
		if upvotes(m) > upvotes(out[idx]) {
			out[idx] = m
		}
	}

	return out
}

func upvotes(m models.Mention) int {
	if m.Engagement.Upvotes == nil {
		return 0
	}
	return *m.Engagement.Upvotes
}

// truncate bounds a result list to maxResults, keeping the head.
func truncate(mentions []models.Mention, maxResults int) []models.Mention {
	if maxResults > 0 && len(mentions) > maxResults {
		return mentions[:maxResults]
	}
	return mentions
}

// containsFold reports whether text contains term case-insensitively.
func containsFold(text, term string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(term))
}

// cutoffTime converts the daysBack request parameter into the oldest
// acceptable publish time. Non-positive daysBack means one week.
func cutoffTime(daysBack int) time.Time {
	if daysBack <= 0 {
		daysBack = 7
	}
	return time.Now().AddDate(0, 0, -daysBack)
}
