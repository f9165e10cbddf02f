package chat

import "context"

// Provider sends a conversation to a chat completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
}
