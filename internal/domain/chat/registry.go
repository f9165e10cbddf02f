package chat

import (
	"fmt"
	"sort"
)

// Registry maps provider names ("openai", "anthropic", "gemini") to adapters.
type Registry map[string]Provider

func (r Registry) Get(name string) (Provider, error) {
	p, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (configured: %v)", ErrUnknownProvider, name, r.Names())
	}
	return p, nil
}

// Names lists the registered providers in sorted order.
func (r Registry) Names() []string {
	out := make([]string, 0, len(r))
	for n := range r {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
