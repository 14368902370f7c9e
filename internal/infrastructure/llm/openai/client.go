// Package openai provides a Generator implementation using OpenAI.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/bobibcgroup/qadim/internal/infrastructure/config"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.3
	defaultMaxTokens   = 1500
)

// Client implements the Generator interface using OpenAI chat completions.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewClient creates a new OpenAI generation client.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	client := openai.NewClient(cfg.APIKey)

	model := defaultModel
	if cfg.Model != "" {
		model = cfg.Model
	}

	temperature := float32(defaultTemperature)
	if cfg.Temperature > 0 {
		temperature = cfg.Temperature
	}

	maxTokens := defaultMaxTokens
	if cfg.MaxTokens > 0 {
		maxTokens = cfg.MaxTokens
	}

	return &Client{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Generate produces a completion for the given system and user prompts.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}
