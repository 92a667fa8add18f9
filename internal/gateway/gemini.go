package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiProvider talks to the Gemini API via the generative-ai SDK.
type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGemini(apiKey, model string) (*geminiProvider, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &geminiProvider{client: client, model: model}, nil
}

func (p *geminiProvider) name() string {
	return "Gemini"
}

func (p *geminiProvider) complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	m := p.client.GenerativeModel(p.model)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	m.SetMaxOutputTokens(maxCompletionTokens)

	resp, err := m.GenerateContent(ctx, genai.Text(userText))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates in response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("no text in response")
	}
	return text, nil
}
