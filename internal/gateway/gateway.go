// Package gateway wraps the language-model completion call. The contract
// is deliberately narrow: one system prompt, one user message, one attempt.
// The caller always gets text back; provider failures come out as
// human-readable diagnostics, never as errors.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/figurabot/figura/internal/config"
	"github.com/figurabot/figura/internal/logging"
)

// maxCompletionTokens bounds every completion request.
const maxCompletionTokens = 600

// completionTimeout bounds the outbound provider call.
const completionTimeout = 60 * time.Second

// Completer is the boundary call to the language-model provider.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userText string) string
}

// provider is one concrete LLM backend. Implementations may fail; Gateway
// converts the failure into the diagnostic reply.
type provider interface {
	name() string
	complete(ctx context.Context, systemPrompt, userText string) (string, error)
}

// Gateway selects a provider from configuration and degrades to a
// "not configured" reply when credentials are missing.
type Gateway struct {
	provider provider
	// reason explains why no provider is available; delivered verbatim
	// as the reply so the failure is visible in chat.
	reason string
}

var _ Completer = (*Gateway)(nil)

// New builds the gateway for the configured provider. It never fails:
// missing or bad configuration yields a gateway whose replies say so.
func New(cfg config.Config) *Gateway {
	switch cfg.Provider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return &Gateway{reason: "OpenAI key not set."}
		}
		return &Gateway{provider: newOpenAI(cfg.OpenAIKey, cfg.OpenAIModel)}
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return &Gateway{reason: "Anthropic key not set."}
		}
		return &Gateway{provider: newAnthropic(cfg.AnthropicKey, cfg.AnthropicModel)}
	case "gemini":
		if cfg.GeminiKey == "" {
			return &Gateway{reason: "Gemini key not set."}
		}
		p, err := newGemini(cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return &Gateway{reason: fmt.Sprintf("Gemini error: %v", err)}
		}
		return &Gateway{provider: p}
	case "ollama":
		p, err := newOllama(cfg.OllamaHost, cfg.OllamaModel)
		if err != nil {
			return &Gateway{reason: fmt.Sprintf("Ollama error: %v", err)}
		}
		return &Gateway{provider: p}
	default:
		return &Gateway{reason: fmt.Sprintf("Unknown LLM provider %q.", cfg.Provider)}
	}
}

// Complete runs one completion turn. Exactly one attempt is made; any
// failure is returned as diagnostic text so the bot always has something
// to send back.
func (g *Gateway) Complete(ctx context.Context, systemPrompt, userText string) string {
	if g.provider == nil {
		return g.reason
	}

	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	text, err := g.provider.complete(ctx, systemPrompt, userText)
	if err != nil {
		logging.Warnf("[Gateway] %s completion failed: %v", g.provider.name(), err)
		return fmt.Sprintf("%s error: %v", g.provider.name(), err)
	}
	return text
}
