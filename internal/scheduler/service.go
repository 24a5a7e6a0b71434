package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/brandpulse/mentions-bot/internal/config"
	"github.com/brandpulse/mentions-bot/internal/digest"
)

// Service schedules the periodic monitoring runs.
type Service struct {
	config *config.Config
	digest *digest.Service
	cron   *cron.Cron
}

// NewService creates a scheduler service.
func NewService(cfg *config.Config, digestService *digest.Service) *Service {
	return &Service{
		config: cfg,
		digest: digestService,
		cron:   cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled monitoring.
func (s *Service) Start() error {
	var cronExpression string

	switch s.config.ReportSchedule {
	case "daily":
		// Run daily at 9 AM UTC
		cronExpression = "0 0 9 * * *"
	case "weekly":
		// Run weekly on Monday at 9 AM UTC
		cronExpression = "0 0 9 * * MON"
	default:
		cronExpression = "0 0 9 * * *"
	}

	_, err := s.cron.AddFunc(cronExpression, func() {
		logrus.Info("Starting scheduled monitoring run")
		if err := s.digest.Run(); err != nil {
			logrus.Errorf("Scheduled monitoring run failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s schedule", s.config.ReportSchedule)
	return nil
}

// Stop stops the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
