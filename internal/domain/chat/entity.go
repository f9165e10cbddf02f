package chat

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion call over the full conversation so far.
type Request struct {
	Model         string
	Messages      []Message
	WebSearch     bool
	ForceSearch   bool
	HighReasoning bool
}

// Usage is what the provider billed for one call. Reasoning tokens are
// included in OutputTokens.
type Usage struct {
	InputTokens    int64 `json:"input_tokens"`
	OutputTokens   int64 `json:"output_tokens"`
	WebSearchCalls int64 `json:"web_search_calls"`
}

// Response is the assistant text of one call.
type Response struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}
