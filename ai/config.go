package ai

import (
	"net/http"
	"time"
)

// Config carries provider credentials. Providers without credentials are
// left unconfigured.
type Config struct {
	OpenAIKey     string
	GroqKey       string
	GeminiKey     string
	AnthropicKey  string
	OllamaBaseURL string
	Timeout       time.Duration
}

// NewModels builds a model for every configured provider.
func NewModels(cfg Config) map[Provider]Model {
	client := &http.Client{}
	models := map[Provider]Model{}
	if cfg.OpenAIKey != "" {
		models[ProviderOpenAI] = NewOpenAIClient(cfg.OpenAIKey, client)
	}
	if cfg.GroqKey != "" {
		models[ProviderGroq] = NewGroqClient(cfg.GroqKey, client)
	}
	if cfg.GeminiKey != "" {
		models[ProviderGemini] = NewGeminiClient(cfg.GeminiKey, client)
	}
	if cfg.AnthropicKey != "" {
		models[ProviderClaude] = NewAnthropicClient(cfg.AnthropicKey, client)
	}
	if cfg.OllamaBaseURL != "" {
		models[ProviderOllama] = NewOllamaClient(cfg.OllamaBaseURL, client)
	}
	return models
}
