package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	openaiBaseURL = "https://api.openai.com/v1"
	openaiModel   = "gpt-4o-mini"
	groqBaseURL   = "https://api.groq.com/openai/v1"
	groqModel     = "llama-3.1-8b-instant"
	ollamaModel   = "llama3"
)

// ChatClient talks to any OpenAI-compatible chat completions API. OpenAI,
// Groq and Ollama all expose one.
type ChatClient struct {
	httpModel
	apiKey  string
	baseURL string
	model   string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewOpenAIClient(apiKey string, client *http.Client) *ChatClient {
	return &ChatClient{httpModel: newHTTPModel("OpenAI", client), apiKey: apiKey, baseURL: openaiBaseURL, model: openaiModel}
}

func NewGroqClient(apiKey string, client *http.Client) *ChatClient {
	return &ChatClient{httpModel: newHTTPModel("Groq", client), apiKey: apiKey, baseURL: groqBaseURL, model: groqModel}
}

// NewOllamaClient targets a local Ollama server, e.g. http://localhost:11434.
func NewOllamaClient(baseURL string, client *http.Client) *ChatClient {
	return &ChatClient{httpModel: newHTTPModel("Ollama", client), baseURL: strings.TrimRight(baseURL, "/") + "/v1", model: ollamaModel}
}

func (c *ChatClient) Evaluate(ctx context.Context, content string) (Evaluation, error) {
	if c.apiKey == "" && c.name != "Ollama" {
		return Evaluation{}, fmt.Errorf("%s API key not set", c.name)
	}
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(content)},
		},
		Temperature:    0.2,
		ResponseFormat: map[string]any{"type": "json_object"},
	}
	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}
	var resp chatResponse
	if err := c.postJSON(ctx, c.baseURL+"/chat/completions", header, req, &resp); err != nil {
		return Evaluation{}, err
	}
	if len(resp.Choices) == 0 {
		return Evaluation{}, errEmptyCompletion
	}
	return parseEvaluation(resp.Choices[0].Message.Content)
}
