package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// ollamaProvider talks to a local Ollama server through its Go client.
type ollamaProvider struct {
	client *api.Client
	model  string
}

func newOllama(host, model string) (*ollamaProvider, error) {
	base, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	return &ollamaProvider{
		client: api.NewClient(base, &http.Client{Timeout: completionTimeout}),
		model:  model,
	}, nil
}

func (p *ollamaProvider) name() string {
	return "Ollama"
}

func (p *ollamaProvider) complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:  p.model,
		Stream: &stream,
		Messages: []api.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userText},
		},
	}

	var sb strings.Builder
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(sb.String()), nil
}
