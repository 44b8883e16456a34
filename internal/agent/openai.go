package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/Zaphkiel07/Pawtine2/internal/config"
)

// ErrUpstream wraps failures of the completion provider.
var ErrUpstream = errors.New("completion provider error")

const (
	completionTemperature = 0.6
	completionMaxTokens   = 400
)

// Completer turns a conversation into the assistant's next message.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type completionRequest struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// OpenAIClient calls an OpenAI compatible /chat/completions endpoint.
type OpenAIClient struct {
	client *resty.Client
	model  string
}

// NewOpenAIClient builds a client from cfg.
func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout)

	return &OpenAIClient{client: client, model: cfg.Model}
}

// Complete implements Completer. It returns an empty string when the provider
// sends no choices.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	var out completionResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(completionRequest{
			Model:       c.model,
			Temperature: completionTemperature,
			MaxTokens:   completionMaxTokens,
			Messages:    messages,
		}).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode(), truncate(resp.String(), 300))
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}
