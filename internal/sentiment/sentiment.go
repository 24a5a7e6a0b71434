// Package sentiment scores mention text and enriches mention batches.
// Enrichment is strictly best-effort: every failure resolves to the neutral
// sentiment and never surfaces to the caller.
package sentiment

import (
	"context"

	"github.com/jonreiter/govader"

	"github.com/brandpulse/mentions-bot/internal/models"
)

// Scorer scores one piece of text toward a subject.
type Scorer interface {
	Score(ctx context.Context, text, subject string) (models.Sentiment, error)
}

// Neutral is the fallback sentiment used whenever scoring fails or no
// scorer is configured.
var Neutral = models.Sentiment{Label: models.SentimentNeutral, Score: 0}

// VaderScorer scores locally with the VADER lexicon. It needs no
// credentials and ignores the subject.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer creates a local VADER scorer.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score maps the VADER compound score to a label at +/-0.20.
func (v *VaderScorer) Score(_ context.Context, text, _ string) (models.Sentiment, error) {
	compound := v.analyzer.PolarityScores(text).Compound

	label := models.SentimentNeutral
	switch {
	case compound >= 0.20:
		label = models.SentimentPositive
	case compound <= -0.20:
		label = models.SentimentNegative
	}

	return models.Sentiment{Label: label, Score: compound}, nil
}
