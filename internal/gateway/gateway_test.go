package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/figurabot/figura/internal/config"
)

type stubProvider struct {
	reply string
	err   error

	gotSystem string
	gotUser   string
}

func (s *stubProvider) name() string { return "Stub" }

func (s *stubProvider) complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	s.gotSystem = systemPrompt
	s.gotUser = userText
	return s.reply, s.err
}

func TestCompletePassesPromptsThrough(t *testing.T) {
	stub := &stubProvider{reply: "certainly"}
	g := &Gateway{provider: stub}

	got := g.Complete(context.Background(), "be wise", "hello")
	assert.Equal(t, "certainly", got)
	assert.Equal(t, "be wise", stub.gotSystem)
	assert.Equal(t, "hello", stub.gotUser)
}

func TestCompleteConvertsFailureToText(t *testing.T) {
	stub := &stubProvider{err: errors.New("quota exceeded")}
	g := &Gateway{provider: stub}

	got := g.Complete(context.Background(), "sys", "hi")
	assert.Equal(t, "Stub error: quota exceeded", got)
}

func TestNotConfigured(t *testing.T) {
	cases := []struct {
		provider string
		want     string
	}{
		{"openai", "OpenAI key not set."},
		{"anthropic", "Anthropic key not set."},
		{"gemini", "Gemini key not set."},
	}
	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			g := New(config.Config{Provider: tc.provider})
			assert.Equal(t, tc.want, g.Complete(context.Background(), "sys", "hi"))
		})
	}
}

func TestUnknownProvider(t *testing.T) {
	g := New(config.Config{Provider: "psychic"})
	assert.Contains(t, g.Complete(context.Background(), "sys", "hi"), `"psychic"`)
}

func TestConfiguredProviderSelected(t *testing.T) {
	g := New(config.Config{Provider: "openai", OpenAIKey: "sk-test", OpenAIModel: "gpt-3.5-turbo"})
	assert.NotNil(t, g.provider)
	assert.Equal(t, "OpenAI", g.provider.name())
}
