package digest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse/mentions-bot/internal/aggregator"
	"github.com/brandpulse/mentions-bot/internal/cache"
	"github.com/brandpulse/mentions-bot/internal/config"
	"github.com/brandpulse/mentions-bot/internal/models"
	"github.com/brandpulse/mentions-bot/internal/sentiment"
	"github.com/brandpulse/mentions-bot/internal/sources"
)

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) SaveSnapshot(ctx context.Context, name string, data []byte) error {
	args := m.Called(ctx, name, data)
	return args.Error(0)
}

func (m *MockArchive) LoadSnapshot(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockArchive) ListSnapshots(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).([]string), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendDigest(report *models.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

type stubSource struct {
	mentions []models.Mention
	err      error
}

func (s *stubSource) Name() string            { return "stub" }
func (s *stubSource) Type() models.SourceType { return models.SourceTypeForum }
func (s *stubSource) Enabled() bool           { return true }

func (s *stubSource) Fetch(context.Context, []string, int, int) ([]models.Mention, error) {
	return s.mentions, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		Brand:             "glossier",
		Keywords:          []string{"glossier", "boy brow"},
		ReportSchedule:    "daily",
		MaxPerSource:      50,
		SentimentProvider: "off",
	}
}

func testAggregator(src sources.Source) *aggregator.Aggregator {
	c := cache.New(time.Minute, 24*time.Hour)
	return aggregator.New(c, []sources.Source{src},
		sentiment.NewEnricher(nil, 5, time.Millisecond), 2, time.Millisecond)
}

func testMention() models.Mention {
	return models.Mention{
		ID:          "m1",
		Source:      "stub",
		SourceType:  models.SourceTypeForum,
		Title:       "Boy Brow holy grail",
		ContentHash: "h1",
		PublishedAt: time.Now().UTC(),
	}
}

func TestRun_ArchivesAndNotifies(t *testing.T) {
	archive := new(MockArchive)
	notifier := new(MockNotifier)

	archive.On("SaveSnapshot", mock.Anything, mock.MatchedBy(func(name string) bool {
		return len(name) > 0
	}), mock.Anything).Return(nil)
	notifier.On("SendDigest", mock.MatchedBy(func(r *models.Report) bool {
		return r.Brand == "glossier" && r.Period == "daily" && r.Total == 1
	})).Return(nil)

	svc := NewService(testConfig(), testAggregator(&stubSource{mentions: []models.Mention{testMention()}}), archive, notifier)

	require.NoError(t, svc.Run())
	archive.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestRun_ArchiveFailureIsNotFatal(t *testing.T) {
	archive := new(MockArchive)
	notifier := new(MockNotifier)

	archive.On("SaveSnapshot", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("blob unavailable"))
	notifier.On("SendDigest", mock.Anything).Return(nil)

	svc := NewService(testConfig(), testAggregator(&stubSource{mentions: []models.Mention{testMention()}}), archive, notifier)

	assert.NoError(t, svc.Run(), "archiving is best effort, the digest still goes out")
	notifier.AssertExpectations(t)
}

func TestRun_NotifierFailureIsFatal(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("SendDigest", mock.Anything).Return(errors.New("webhook rejected"))

	svc := NewService(testConfig(), testAggregator(&stubSource{mentions: []models.Mention{testMention()}}), nil, notifier)

	assert.Error(t, svc.Run())
}

func TestRun_WithoutArchiveOrNotifier(t *testing.T) {
	svc := NewService(testConfig(), testAggregator(&stubSource{mentions: []models.Mention{testMention()}}), nil, nil)
	assert.NoError(t, svc.Run())
}

func TestRun_ReportsPartialFailures(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("SendDigest", mock.MatchedBy(func(r *models.Report) bool {
		return r.Total == 0 && len(r.Errors) == 1
	})).Return(nil)

	svc := NewService(testConfig(), testAggregator(&stubSource{err: errors.New("rate limited")}), nil, notifier)

	require.NoError(t, svc.Run(), "source failures are carried in the report, not returned")
	notifier.AssertExpectations(t)
}
