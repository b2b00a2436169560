package llm

import (
	"context"
	"sync"
)

// ScriptStep is one canned Predict outcome for a ScriptedClient.
type ScriptStep struct {
	Reply Reply
	Err   error
}

// ScriptedClient is a deterministic Client for tests: it plays back a
// fixed sequence of replies and errors and records every conversation
// it was asked about.
type ScriptedClient struct {
	mu    sync.Mutex
	steps []ScriptStep
	next  int

	// Conversations holds a copy of the conversation passed to each
	// Predict call, in order.
	Conversations [][]Message
}

// NewScriptedClient builds a client that answers with steps in order.
// Once the script is exhausted the last step repeats.
func NewScriptedClient(steps ...ScriptStep) *ScriptedClient {
	return &ScriptedClient{steps: steps}
}

func (s *ScriptedClient) Predict(ctx context.Context, conversation []Message) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]Message, len(conversation))
	copy(copied, conversation)
	s.Conversations = append(s.Conversations, copied)

	if len(s.steps) == 0 {
		return Reply{}, nil
	}
	step := s.steps[min(s.next, len(s.steps)-1)]
	s.next++
	return step.Reply, step.Err
}

func (s *ScriptedClient) Close() error {
	return nil
}

// Calls reports how many Predict calls were made.
func (s *ScriptedClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Conversations)
}
