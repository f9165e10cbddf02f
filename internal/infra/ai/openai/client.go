package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/gradebench/internal/domain/chat"
)

const (
	DefaultModel = "gpt-5"
	maxTokens    = 20000
)

type Client struct {
	*openai.Client
}

// NewClient builds a chat completions client. baseURL is optional and lets the
// client talk to OpenAI-compatible gateways.
func NewClient(apiKey, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{Client: openai.NewClientWithConfig(cfg)}
}

func (c *Client) Name() string { return "openai" }

func (c *Client) Complete(ctx context.Context, in chat.Request) (chat.Response, error) {
	model := in.Model
	if model == "" {
		model = DefaultModel
	}
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(in.Messages)),
	}
	for _, m := range in.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == chat.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(model) {
		req.MaxCompletionTokens = maxTokens
		if in.HighReasoning {
			req.ReasoningEffort = reasoningEffort(model)
		}
	} else {
		req.MaxTokens = maxTokens
	}
	if in.WebSearch {
		clog.FromContext(ctx).With("model", model).Warn("Web search is not available on chat completions, sending without it")
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		if isQuotaError(err) {
			return chat.Response{}, fmt.Errorf("%w: %v", chat.ErrQuotaExceeded, err)
		}
		return chat.Response{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return chat.Response{}, chat.ErrEmptyResponse
	}

	return chat.Response{
		Text: resp.Choices[0].Message.Content,
		Usage: chat.Usage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
		},
	}, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// gpt-5.2 accepts a higher effort tier than the other reasoning models.
func reasoningEffort(model string) string {
	if model == "gpt-5.2" {
		return "xhigh"
	}
	return "high"
}

func isQuotaError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
