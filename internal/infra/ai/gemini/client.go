package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/bryanwahyu/gradebench/internal/domain/chat"
)

const (
	DefaultModel   = "gemini-2.5-pro"
	maxTokens      = 20000
	thinkingBudget = 12000
)

type Client struct {
	client *genai.Client
}

// NewClient builds a Gemini API client. baseURL is optional.
func NewClient(ctx context.Context, apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) Complete(ctx context.Context, in chat.Request) (chat.Response, error) {
	model := in.Model
	if model == "" {
		model = DefaultModel
	}
	contents := make([]*genai.Content, 0, len(in.Messages))
	for _, m := range in.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == chat.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	config := &genai.GenerateContentConfig{MaxOutputTokens: maxTokens}
	if in.WebSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	if in.HighReasoning {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr[int32](thinkingBudget),
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return chat.Response{}, fmt.Errorf("%w: %v", chat.ErrQuotaExceeded, err)
		}
		return chat.Response{}, fmt.Errorf("failed to generate content: %w", err)
	}

	out := chat.Response{Text: resp.Text()}
	if u := resp.UsageMetadata; u != nil {
		out.Usage.InputTokens = int64(u.PromptTokenCount)
		// thoughts are billed as output
		out.Usage.OutputTokens = int64(u.CandidatesTokenCount) + int64(u.ThoughtsTokenCount)
	}
	for _, cand := range resp.Candidates {
		if cand.GroundingMetadata != nil {
			out.Usage.WebSearchCalls += int64(len(cand.GroundingMetadata.WebSearchQueries))
		}
	}
	return out, nil
}
