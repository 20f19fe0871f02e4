package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicModel   = "claude-3-5-haiku-latest"
	anthropicVersion = "2023-06-01"
)

// AnthropicClient calls the Claude messages API.
type AnthropicClient struct {
	httpModel
	apiKey  string
	baseURL string
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func NewAnthropicClient(apiKey string, client *http.Client) *AnthropicClient {
	return &AnthropicClient{httpModel: newHTTPModel("Claude", client), apiKey: apiKey, baseURL: anthropicBaseURL}
}

func (c *AnthropicClient) Evaluate(ctx context.Context, content string) (Evaluation, error) {
	if c.apiKey == "" {
		return Evaluation{}, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}
	header := http.Header{}
	header.Set("x-api-key", c.apiKey)
	header.Set("anthropic-version", anthropicVersion)
	req := anthropicRequest{
		Model:     anthropicModel,
		MaxTokens: 1024,
		System:    systemPrompt,
		Messages:  []chatMessage{{Role: "user", Content: userPrompt(content)}},
	}
	var resp anthropicResponse
	if err := c.postJSON(ctx, c.baseURL+"/messages", header, req, &resp); err != nil {
		return Evaluation{}, err
	}
	var sb strings.Builder
	for _, part := range resp.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	return parseEvaluation(sb.String())
}
