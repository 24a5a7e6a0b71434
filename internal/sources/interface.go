package sources

import (
	"context"

	"github.com/brandpulse/mentions-bot/internal/models"
)

// Source is the contract every mention source implements.
//
// Fetch gathers mentions for the given search terms going back daysBack
// days, returning at most maxResults items. A source never aborts on a
// single malformed item, and it returns whatever partial results it
// gathered even when some terms or pages failed; in that case the error
// describes the failed portion while the mention slice still carries the
// successful one. A source whose credentials are missing reports a clean
// "not configured" error instead of attempting the call.
type Source interface {
	Name() string
	Type() models.SourceType
	Enabled() bool
	Fetch(ctx context.Context, terms []string, maxResults, daysBack int) ([]models.Mention, error)
}
