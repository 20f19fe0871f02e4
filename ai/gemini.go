package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiModel   = "gemini-1.5-flash"
)

// GeminiClient calls the generateContent endpoint.
type GeminiClient struct {
	httpModel
	apiKey  string
	baseURL string
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction geminiContent   `json:"systemInstruction"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		ResponseMimeType string  `json:"responseMimeType"`
		Temperature      float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func NewGeminiClient(apiKey string, client *http.Client) *GeminiClient {
	return &GeminiClient{httpModel: newHTTPModel("Gemini", client), apiKey: apiKey, baseURL: geminiBaseURL}
}

func (c *GeminiClient) Evaluate(ctx context.Context, content string) (Evaluation, error) {
	if c.apiKey == "" {
		return Evaluation{}, fmt.Errorf("GEMINI_API_KEY not set")
	}
	var req geminiRequest
	req.SystemInstruction = geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	req.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: userPrompt(content)}}}}
	req.GenerationConfig.ResponseMimeType = "application/json"
	req.GenerationConfig.Temperature = 0.2

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, geminiModel, url.QueryEscape(c.apiKey))
	var resp geminiResponse
	if err := c.postJSON(ctx, endpoint, http.Header{}, req, &resp); err != nil {
		return Evaluation{}, err
	}
	if len(resp.Candidates) == 0 {
		return Evaluation{}, errEmptyCompletion
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return parseEvaluation(sb.String())
}
