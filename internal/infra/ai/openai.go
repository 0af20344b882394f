package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/duskvale/werearena/internal/platform/logger"
)

const (
	defaultModel      = "gpt-4o-mini"
	defaultMaxRetries = 2
	maxReplyTokens    = 600
)

// OpenAIProvider talks to the OpenAI chat completion API with bounded
// retries and exponential backoff.
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	maxRetries int
	log        *logger.Logger
}

// NewOpenAIProvider builds a provider. An empty apiKey yields a provider
// that reports unavailable, which the acquisition chain skips over.
func NewOpenAIProvider(apiKey, model string, log *logger.Logger) *OpenAIProvider {
	p := &OpenAIProvider{
		model:      model,
		maxRetries: defaultMaxRetries,
		log:        log,
	}
	if p.model == "" {
		p.model = defaultModel
	}
	if apiKey != "" {
		p.client = openai.NewClient(apiKey)
	}
	return p
}

func (p *OpenAIProvider) Name() string { return "openai/" + p.model }

func (p *OpenAIProvider) IsAvailable() bool { return p.client != nil }

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	if !p.IsAvailable() {
		return "", ErrUnavailable
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       p.model,
			Temperature: temperature,
			MaxTokens:   maxReplyTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			lastErr = err
			p.log.Warn("completion attempt %d failed: %v", attempt+1, err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("completion returned no choices")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("completion exhausted retries: %w", lastErr)
}
