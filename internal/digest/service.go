// Package digest runs scheduled aggregations and fans the outcome out to
// the snapshot archive and the notification channels.
package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brandpulse/mentions-bot/internal/aggregator"
	"github.com/brandpulse/mentions-bot/internal/config"
	"github.com/brandpulse/mentions-bot/internal/models"
	"github.com/brandpulse/mentions-bot/internal/notifications"
	"github.com/brandpulse/mentions-bot/internal/storage"
)

// Service drives one scheduled monitoring run end to end.
type Service struct {
	config     *config.Config
	aggregator *aggregator.Aggregator
	archive    storage.Archive
	notifier   notifications.Notifier
}

// NewService creates a digest service. archive and notifier may be nil
// when the corresponding channel is not configured.
func NewService(cfg *config.Config, agg *aggregator.Aggregator, archive storage.Archive, notifier notifications.Notifier) *Service {
	return &Service{
		config:     cfg,
		aggregator: agg,
		archive:    archive,
		notifier:   notifier,
	}
}

// Run performs one full monitoring run: aggregate, archive, notify.
func (s *Service) Run() error {
	logrus.Infof("Starting %s monitoring run for brand %q", s.config.ReportSchedule, s.config.Brand)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	result, err := s.aggregator.Aggregate(ctx, aggregator.Request{
		Terms:            s.config.Keywords,
		Brand:            s.config.Brand,
		MaxPerSource:     s.config.MaxPerSource,
		DaysBack:         s.config.SearchWindowDays(),
		IncludeSentiment: s.config.SentimentProvider != "off",
	})
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}

	report := s.buildReport(result)

	if err := s.archiveSnapshot(ctx, result); err != nil {
		logrus.Errorf("Failed to archive snapshot: %v", err)
	}

	if s.notifier != nil {
		if err := s.notifier.SendDigest(report); err != nil {
			return fmt.Errorf("failed to send digest: %w", err)
		}
	}

	logrus.Infof("Monitoring run completed: %d mentions, success=%t", report.Total, result.Success)
	return nil
}

func (s *Service) buildReport(result *models.AggregateResult) *models.Report {
	return &models.Report{
		GeneratedAt: result.GeneratedAt,
		Period:      s.config.ReportSchedule,
		Brand:       s.config.Brand,
		Total:       len(result.Mentions),
		BySource:    result.BySource,
		BySentiment: result.BySentiment,
		Errors:      result.Errors,
		Mentions:    result.Mentions,
	}
}

func (s *Service) archiveSnapshot(ctx context.Context, result *models.AggregateResult) error {
	if s.archive == nil {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	name := fmt.Sprintf("mentions-%s-%s.json", s.config.Brand, result.GeneratedAt.Format("2006-01-02-15-04-05"))
	return s.archive.SaveSnapshot(ctx, name, data)
}
