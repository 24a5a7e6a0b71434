package notifications

import "github.com/brandpulse/mentions-bot/internal/models"

// Notifier delivers the digest of a completed aggregation run.
type Notifier interface {
	SendDigest(report *models.Report) error
}
