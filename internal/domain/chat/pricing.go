package chat

// Price is per 1M tokens, except Search which is a flat fee per search call.
type Price struct {
	Input  float64
	Output float64
	Search float64
}

// Pricing holds the known model prices. Models not listed cost nothing.
var Pricing = map[string]Price{
	"gpt-5.2":                  {Input: 1.75, Output: 14.00, Search: 0.01},
	"gpt-5.1":                  {Input: 1.25, Output: 10.00, Search: 0.01},
	"gpt-5":                    {Input: 1.00, Output: 8.00, Search: 0.01},
	"claude-opus-4-5-20251101": {Input: 5.00, Output: 25.00, Search: 0.01},
}

// Cost estimates the dollar cost of one call.
func Cost(model string, u Usage) float64 {
	p, ok := Pricing[model]
	if !ok {
		return 0
	}
	return float64(u.InputTokens)*p.Input/1e6 +
		float64(u.OutputTokens)*p.Output/1e6 +
		float64(u.WebSearchCalls)*p.Search
}
