package llm

import (
	"context"
)

// Message roles, matching the wire convention of chat-completion APIs.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply is the model's answer to one Predict call. InputLen and
// OutputLen are provider unit counts: token counts where the provider
// reports usage, character counts otherwise.
type Reply struct {
	Text      string
	InputLen  int
	OutputLen int
}

// Params are the sampling knobs shared by all providers.
type Params struct {
	MaxTokens   int
	Temperature float64
}

// Client is a stateless connection to one model. Callers own the
// conversation and pass the full history on every call; Predict blocks
// until the provider answers or ctx is done.
type Client interface {
	Predict(ctx context.Context, conversation []Message) (Reply, error)

	// Close releases provider resources (subprocesses, connections).
	Close() error
}

// NewClient builds the provider-specific client for a registry entry.
func NewClient(ctx context.Context, spec ModelSpec, params Params) (Client, error) {
	switch spec.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, spec.ModelID, params)
	case ProviderCopilot:
		return NewCopilotClient(spec.ModelID, params), nil
	default:
		return nil, &UnknownProviderError{Provider: string(spec.Provider)}
	}
}

// UnknownProviderError is returned when a registry entry names a
// provider this build has no adapter for.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return "unknown model provider: " + e.Provider
}
