// Package openai implements the completion provider backed by the
// OpenAI chat completions API.
package openai

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/dshills/redline/internal/completion"
)

const systemPrompt = "You continue the user's document text. Reply with only the " +
	"continuation, no preamble and no quotation marks."

// Config holds the OpenAI connection settings.
type Config struct {
	APIKey string

	// Model defaults to GPT-4o mini.
	Model string

	// BaseURL overrides the API endpoint, for proxies and tests.
	BaseURL string
}

// Client is a completion.Provider over the OpenAI chat API.
type Client struct {
	client sdk.Client
	model  sdk.ChatModel
}

// New creates an OpenAI client.
func New(cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := sdk.ChatModel(cfg.Model)
	if cfg.Model == "" {
		model = sdk.ChatModelGPT4oMini
	}
	return &Client{
		client: sdk.NewClient(opts...),
		model:  model,
	}
}

// Complete implements completion.Provider.
func (c *Client) Complete(ctx context.Context, req completion.Request) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model: c.model,
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.SystemMessage(systemPrompt),
			sdk.UserMessage(req.Preceding),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", completion.ErrNoSuggestion)
	}
	return strings.TrimRight(resp.Choices[0].Message.Content, "\n"), nil
}
