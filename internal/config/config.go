package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the environment-provided configuration surface.
// All values are optional: a missing credential degrades the corresponding
// outbound call to a "not configured" response instead of preventing startup.
type Config struct {
	// Telegram
	TelegramToken string
	BaseURL       string // externally reachable base URL for webhook registration
	AdminIDs      []int64

	// LLM provider selection and credentials
	Provider       string // openai (default), anthropic, gemini, ollama
	OpenAIKey      string
	OpenAIModel    string
	AnthropicKey   string
	AnthropicModel string
	GeminiKey      string
	GeminiModel    string
	OllamaHost     string
	OllamaModel    string

	// Storage and serving
	DatabasePath string
	Port         int
}

// Load reads configuration from the process environment.
func Load() Config {
	return Config{
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		BaseURL:        os.Getenv("BASE_URL"),
		AdminIDs:       parseIDList(os.Getenv("ADMIN_IDS")),
		Provider:       getenvDefault("LLM_PROVIDER", "openai"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getenvDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel: getenvDefault("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getenvDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		OllamaHost:     getenvDefault("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:    getenvDefault("OLLAMA_MODEL", "llama3:latest"),
		DatabasePath:   getenvDefault("DATABASE_PATH", "data.db"),
		Port:           getenvInt("PORT", 8000),
	}
}

// IsAdmin reports whether the given Telegram user id may register personas.
func (c Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// parseIDList parses a comma-separated list of numeric ids.
// Malformed entries are skipped.
func parseIDList(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
