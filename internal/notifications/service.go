package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/brandpulse/mentions-bot/internal/config"
	"github.com/brandpulse/mentions-bot/internal/models"
)

// Service sends run digests to every configured channel. Channels fail
// independently; one failing does not stop the other.
type Service struct {
	config *config.Config
	client *resty.Client
}

var _ Notifier = (*Service)(nil)

// TeamsMessage is a Microsoft Teams MessageCard payload.
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a notification service.
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendDigest delivers the report to Teams and email as configured.
func (s *Service) SendDigest(report *models.Report) error {
	var errs []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(report); err != nil {
			logrus.Errorf("Failed to send Teams digest: %v", err)
			errs = append(errs, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Sent digest to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email digest: %v", err)
			errs = append(errs, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Sent digest via email")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(report *models.Report) error {
	message := s.buildTeamsMessage(report)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)
	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(report *models.Report) *TeamsMessage {
	facts := []TeamsFact{
		{Name: "Brand", Value: report.Brand},
		{Name: "Total Mentions", Value: fmt.Sprintf("%d", report.Total)},
		{Name: "Generated", Value: report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}

	for _, label := range []models.SentimentLabel{models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative} {
		if n, ok := report.BySentiment[label]; ok {
			facts = append(facts, TeamsFact{Name: strings.Title(string(label)), Value: fmt.Sprintf("%d", n)})
		}
	}

	var sourceParts []string
	for source, n := range report.BySource {
		sourceParts = append(sourceParts, fmt.Sprintf("%s (%d)", source, n))
	}

	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("%s Mentions Digest - %s", report.Brand, strings.Title(report.Period)),
		Text:    fmt.Sprintf("Found %d mentions of %s in the last %s period", report.Total, report.Brand, report.Period),
		Sections: []TeamsSection{
			{ActivityTitle: "Summary", Facts: facts, Markdown: true},
			{ActivityTitle: "Sources", Facts: []TeamsFact{{Name: "Breakdown", Value: strings.Join(sourceParts, ", ")}}},
		},
	}

	if len(report.Errors) > 0 {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Source Errors",
			Facts:         []TeamsFact{{Name: "Errors", Value: strings.Join(report.Errors, "; ")}},
		})
	}

	return message
}

var emailTemplate = template.Must(template.New("digest").Parse(`
<h2>{{.Brand}} Mentions Digest ({{.Period}})</h2>
<p>{{.Total}} mentions found. Generated {{.GeneratedAt.Format "2006-01-02 15:04 UTC"}}.</p>
<h3>By source</h3>
<ul>{{range $source, $count := .BySource}}<li>{{$source}}: {{$count}}</li>{{end}}</ul>
<h3>By sentiment</h3>
<ul>{{range $label, $count := .BySentiment}}<li>{{$label}}: {{$count}}</li>{{end}}</ul>
{{if .Errors}}<h3>Source errors</h3><ul>{{range .Errors}}<li>{{.}}</li>{{end}}</ul>{{end}}
<h3>Top mentions</h3>
<ul>
{{range .Mentions}}<li><a href="{{.URL}}">{{if .Title}}{{.Title}}{{else}}{{.Snippet}}{{end}}</a> ({{.Source}}{{if .IsHighEngagement}}, high engagement{{end}})</li>
{{end}}</ul>
`))

func (s *Service) sendEmail(report *models.Report) error {
	// Cap the inline mention list; the archive holds the full run.
	trimmed := *report
	if len(trimmed.Mentions) > 25 {
		trimmed.Mentions = trimmed.Mentions[:25]
	}

	var body bytes.Buffer
	if err := emailTemplate.Execute(&body, &trimmed); err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", fmt.Sprintf("%s mentions digest: %d mentions", report.Brand, report.Total))
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
