package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/chainguard-dev/clog"

	domain "github.com/bryanwahyu/gradebench/internal/domain/chat"
	"github.com/bryanwahyu/gradebench/internal/metrics"
)

// Session is a running conversation with one provider and model. It keeps
// the full history and the estimated spend of every turn.
type Session struct {
	Provider      domain.Provider
	Model         string
	WebSearch     bool
	HighReasoning bool

	mu        sync.Mutex
	history   []domain.Message
	totalCost float64
}

func NewSession(p domain.Provider, model string, webSearch, highReasoning bool) *Session {
	return &Session{Provider: p, Model: model, WebSearch: webSearch, HighReasoning: highReasoning}
}

// Send appends prompt as a user turn, calls the provider with the whole
// history and appends the answer as an assistant turn. On error the history
// is left as it was before the call.
func (s *Session) Send(ctx context.Context, prompt string, forceSearch bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := append(append([]domain.Message(nil), s.history...), domain.Message{Role: domain.RoleUser, Content: prompt})
	resp, err := s.Provider.Complete(ctx, domain.Request{
		Model:         s.Model,
		Messages:      msgs,
		WebSearch:     s.WebSearch,
		ForceSearch:   forceSearch && s.WebSearch,
		HighReasoning: s.HighReasoning,
	})
	if err != nil {
		return "", fmt.Errorf("%s/%s: %w", s.Provider.Name(), s.Model, err)
	}

	s.history = append(msgs, domain.Message{Role: domain.RoleAssistant, Content: resp.Text})

	cost := domain.Cost(s.Model, resp.Usage)
	s.totalCost += cost
	metrics.ProviderCost.WithLabelValues(s.Provider.Name(), s.Model).Add(cost)

	log := clog.FromContext(ctx).With("provider", s.Provider.Name()).With("model", s.Model)
	if resp.Usage.WebSearchCalls > 0 {
		log = log.With("web_searches", resp.Usage.WebSearchCalls)
	}
	log.Infof("Turn cost: $%.6f | Total: $%.4f", cost, s.totalCost)
	return resp.Text, nil
}

// History returns a copy of the conversation so far.
func (s *Session) History() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.history...)
}

// TotalCost is the estimated spend of every successful turn.
func (s *Session) TotalCost() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalCost
}
