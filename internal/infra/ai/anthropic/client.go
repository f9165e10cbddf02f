package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bryanwahyu/gradebench/internal/domain/chat"
)

const (
	DefaultModel   = "claude-opus-4-5-20251101"
	maxTokens      = 20000
	thinkingBudget = 12000
)

type Client struct {
	client anthropic.Client
}

// NewClient builds a Messages API client. Extra options are applied after the
// API key, so tests can point it at a local server.
func NewClient(apiKey string, opts ...option.RequestOption) *Client {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{client: anthropic.NewClient(opts...)}
}

func (c *Client) Name() string { return "anthropic" }

func (c *Client) Complete(ctx context.Context, in chat.Request) (chat.Response, error) {
	model := in.Model
	if model == "" {
		model = DefaultModel
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  make([]anthropic.MessageParam, 0, len(in.Messages)),
	}
	for _, m := range in.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == chat.RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}
	if in.WebSearch {
		params.Tools = []anthropic.ToolUnionParam{{
			OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{},
		}}
		// forced tool use is rejected while thinking is enabled
		if in.ForceSearch && !in.HighReasoning {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{
				OfTool: &anthropic.ToolChoiceToolParam{Name: "web_search"},
			}
		}
	}
	// temperature stays at its default of 1.0, required with thinking
	if in.HighReasoning {
		params.Thinking = anthropic.ThinkingConfigParamUnion{
			OfEnabled: &anthropic.ThinkingConfigEnabledParam{
				BudgetTokens: thinkingBudget,
			},
		}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return chat.Response{}, fmt.Errorf("%w: %v", chat.ErrQuotaExceeded, err)
		}
		return chat.Response{}, fmt.Errorf("failed to create message: %w", err)
	}

	// thinking and tool blocks are dropped, only text reaches the caller
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return chat.Response{
		Text: sb.String(),
		Usage: chat.Usage{
			InputTokens:    msg.Usage.InputTokens,
			OutputTokens:   msg.Usage.OutputTokens,
			WebSearchCalls: msg.Usage.ServerToolUse.WebSearchRequests,
		},
	}, nil
}
