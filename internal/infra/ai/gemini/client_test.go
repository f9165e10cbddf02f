package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/gradebench/internal/domain/chat"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(context.Background(), "key", srv.URL)
	require.NoError(t, err)
	return c
}

func TestComplete(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.5-pro:generateContent"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "VERDICT: 4"}]},
				"groundingMetadata": {"webSearchQueries": ["a", "b"]}
			}],
			"usageMetadata": {"promptTokenCount": 5, "candidatesTokenCount": 7, "thoughtsTokenCount": 3}
		}`))
	})

	resp, err := c.Complete(context.Background(), chat.Request{
		Messages: []chat.Message{
			{Role: chat.RoleUser, Content: "q1"},
			{Role: chat.RoleAssistant, Content: "a1"},
			{Role: chat.RoleUser, Content: "q2"},
		},
		WebSearch:     true,
		HighReasoning: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "VERDICT: 4", resp.Text)
	assert.Equal(t, chat.Usage{InputTokens: 5, OutputTokens: 10, WebSearchCalls: 2}, resp.Usage)

	contents, ok := got["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 3)
	assert.Equal(t, "model", contents[1].(map[string]any)["role"])
}

func TestCompleteQuotaExceeded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": 429, "message": "Resource exhausted", "status": "RESOURCE_EXHAUSTED"}}`))
	})

	_, err := c.Complete(context.Background(), chat.Request{
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "q"}},
	})
	assert.ErrorIs(t, err, chat.ErrQuotaExceeded)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "")
	assert.Error(t, err)
}
