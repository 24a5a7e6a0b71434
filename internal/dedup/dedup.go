// Package dedup collapses near-duplicate mentions by content hash.
package dedup

import "github.com/brandpulse/mentions-bot/internal/models"

// Merge reduces the input to at most one mention per content hash, keeping
// the highest-engagement instance. The reduction is a streaming fold over a
// hash -> best map, so the surviving set does not depend on input order.
func Merge(mentions []models.Mention) []models.Mention {
	best := make(map[string]models.Mention, len(mentions))
	order := make([]string, 0, len(mentions))

	for _, m := range mentions {
		incumbent, ok := best[m.ContentHash]
		if !ok {
			best[m.ContentHash] = m
			order = append(order, m.ContentHash)
			continue
		}
		if replaces(m, incumbent) {
			best[m.ContentHash] = m
		}
	}

	out := make([]models.Mention, 0, len(order))
	for _, h := range order {
		out = append(out, best[h])
	}
	return out
}

// replaces decides whether candidate displaces incumbent. A strictly higher
// engagement score always wins. Ties at equal nonzero scores keep the
// first-seen mention; ties where both items carry no engagement at all are
// broken in favor of the more recently published one.
func replaces(candidate, incumbent models.Mention) bool {
	cs, is := candidate.Engagement.Score(), incumbent.Engagement.Score()
	if cs != is {
		return cs > is
	}
	if cs == 0 {
		return candidate.PublishedAt.After(incumbent.PublishedAt)
	}
	return false
}
