package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/brandpulse/mentions-bot/internal/models"
)

const scoreSystemPrompt = `You rate the sentiment of social media and blog text toward a named brand.
Reply with a single JSON object: {"label":"positive|neutral|negative","score":<number in [-1,1]>}.
No prose, no markdown.`

// OpenAIScorer scores text through the OpenAI chat-completions API with a
// strict per-call timeout.
type OpenAIScorer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIScorer creates an external scorer. model defaults to gpt-4o-mini
// and timeout to 10s when unset.
func NewOpenAIScorer(apiKey, model string, timeout time.Duration) *OpenAIScorer {
	if model == "" {
		model = openai.GPT4oMini
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &OpenAIScorer{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

func (s *OpenAIScorer) Score(ctx context.Context, text, subject string) (models.Sentiment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.2,
		MaxTokens:   40,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: scoreSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Brand: %s\n\n%s", subject, text)},
		},
	})
	if err != nil {
		return Neutral, fmt.Errorf("sentiment completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Neutral, fmt.Errorf("sentiment completion returned no choices")
	}

	return parseScoreReply(resp.Choices[0].Message.Content)
}

func parseScoreReply(content string) (models.Sentiment, error) {
	content = strings.TrimSpace(content)
	// Some models wrap the object in a code fence despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.Trim(content, "` \n")

	var reply struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return Neutral, fmt.Errorf("malformed sentiment reply %q: %w", content, err)
	}

	label := models.SentimentLabel(strings.ToLower(reply.Label))
	switch label {
	case models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative:
	default:
		return Neutral, fmt.Errorf("unknown sentiment label %q", reply.Label)
	}

	score := reply.Score
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}

	return models.Sentiment{Label: label, Score: score}, nil
}
