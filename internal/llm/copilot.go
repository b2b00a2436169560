package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	copilot "github.com/github/copilot-sdk/go"
)

// CopilotClient serves predictions through the GitHub Copilot SDK.
//
// The SDK is session-oriented while the executor treats every call as
// stateless, so each Predict replays the full transcript into a fresh
// session. The SDK reports no usage numbers, so unit counts are
// character counts.
type CopilotClient struct {
	client *copilot.Client
	model  string
	params Params

	startOnce sync.Once
	startErr  error
}

// NewCopilotClient builds a Copilot-backed client. The underlying CLI
// process is started lazily on the first Predict.
func NewCopilotClient(modelID string, params Params) *CopilotClient {
	client := copilot.NewClient(&copilot.ClientOptions{
		LogLevel: "error",
		// NOTE: autostart runs into issues when triggered from separate
		// goroutines, so the client is started explicitly instead.
		AutoStart: copilot.Bool(false),
	})

	return &CopilotClient{
		client: client,
		model:  modelID,
		params: params,
	}
}

func (c *CopilotClient) Predict(ctx context.Context, conversation []Message) (Reply, error) {
	c.startOnce.Do(func() {
		c.startErr = c.client.Start(ctx)
	})
	if c.startErr != nil {
		return Reply{}, fmt.Errorf("copilot failed to start: %w", c.startErr)
	}

	session, err := c.client.CreateSession(ctx, &copilot.SessionConfig{
		Model:               c.model,
		OnPermissionRequest: approveAllTools,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("copilot: creating session: %w", err)
	}

	var parts []string
	unsubscribe := session.On(func(evt copilot.SessionEvent) {
		if evt.Type == copilot.AssistantMessage && evt.Data.Content != nil {
			parts = append(parts, *evt.Data.Content)
		}
	})
	defer unsubscribe()

	prompt := flattenConversation(conversation)

	if _, err := session.SendAndWait(ctx, copilot.MessageOptions{Prompt: prompt}); err != nil {
		return Reply{}, fmt.Errorf("copilot: send: %w", err)
	}

	text := strings.Join(parts, "\n")
	return Reply{
		Text:      text,
		InputLen:  len(prompt),
		OutputLen: len(text),
	}, nil
}

// Close stops the underlying CLI process.
func (c *CopilotClient) Close() error {
	return c.client.Stop()
}

func approveAllTools(request copilot.PermissionRequest, invocation copilot.PermissionInvocation) (copilot.PermissionRequestResult, error) {
	return copilot.PermissionRequestResult{Kind: "approved"}, nil
}

// flattenConversation renders a multi-turn conversation as a single
// prompt. A lone user message passes through unchanged.
func flattenConversation(conversation []Message) string {
	if len(conversation) == 1 {
		return conversation[0].Content
	}

	var b strings.Builder
	for i, m := range conversation {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch m.Role {
		case RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
	}
	return b.String()
}
