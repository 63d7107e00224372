// Package recommend produces mitigation advice for a finished simulation.
// Generation is best-effort: a failed or unconfigured generator yields the
// Unavailable sentinel, never an aborted simulation.
package recommend

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Unavailable is placed in the terminal event when no recommendation could
// be generated. Consumers can match on it.
const Unavailable = "recommendation unavailable"

const systemPrompt = "You are a cybersecurity advisor."

type Generator interface {
	// Recommend never returns an error; degradation is the contract.
	Recommend(ctx context.Context, prompt string) string
}

// OpenAIGenerator asks a chat-completion model for mitigation strategies.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	log    *zap.Logger
}

func NewOpenAIGenerator(apiKey, model string, log *zap.Logger) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    log,
	}
}

func (g *OpenAIGenerator) Recommend(ctx context.Context, prompt string) string {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.7,
		MaxTokens:   150,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		g.log.Warn("recommendation generation failed", zap.Error(err))
		return Unavailable
	}
	if len(resp.Choices) == 0 {
		g.log.Warn("recommendation model returned no choices")
		return Unavailable
	}
	return resp.Choices[0].Message.Content
}

// NoopGenerator is used when no API key is configured.
type NoopGenerator struct{}

func (NoopGenerator) Recommend(context.Context, string) string { return Unavailable }
