package llm

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// GeminiClient serves predictions through the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	params Params
}

// NewGeminiClient builds a Gemini-backed client. The API key is taken
// from the GEMINI_API_KEY environment variable.
func NewGeminiClient(ctx context.Context, modelID string, params Params) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  modelID,
		params: params,
	}, nil
}

func (g *GeminiClient) Predict(ctx context.Context, conversation []Message) (Reply, error) {
	contents := make([]*genai.Content, 0, len(conversation))
	for _, m := range conversation {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.params.MaxTokens),
		Temperature:     genai.Ptr(float32(g.params.Temperature)),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return Reply{}, fmt.Errorf("gemini: generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return Reply{}, fmt.Errorf("gemini: no candidates in response")
	}

	reply := Reply{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		reply.InputLen = int(resp.UsageMetadata.PromptTokenCount)
		reply.OutputLen = int(resp.UsageMetadata.CandidatesTokenCount)
	} else {
		// Usage is normally present; fall back to character counts.
		for _, m := range conversation {
			reply.InputLen += len(m.Content)
		}
		reply.OutputLen = len(reply.Text)
	}

	return reply, nil
}

// Close is a no-op; the underlying client is plain HTTP.
func (g *GeminiClient) Close() error {
	return nil
}
