package ai

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/bytedance/sonic"
)

const systemPrompt = `You review task descriptions written for a team task board.
Score how clear, specific and actionable the task is on a scale from 0 to 100.
Respond with a single JSON object and nothing else, using exactly these keys:
{"aiScore": <integer 0-100>, "reasons": "<why the score was given>", "suggestions": "<how to improve the task>"}`

func userPrompt(content string) string {
	return "Evaluate this task:\n\n" + content
}

type modelVerdict struct {
	AIScore     *float64 `json:"aiScore"`
	Reasons     string   `json:"reasons"`
	Suggestions string   `json:"suggestions"`
}

var errEmptyCompletion = errors.New("model returned no content")

// parseEvaluation extracts the JSON verdict from model output, tolerating
// markdown code fences and surrounding prose.
func parseEvaluation(text string) (Evaluation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Evaluation{}, errEmptyCompletion
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return Evaluation{}, fmt.Errorf("no JSON object in model output %q", truncate(text, 80))
	}
	var v modelVerdict
	if err := sonic.UnmarshalString(text[start:end+1], &v); err != nil {
		return Evaluation{}, fmt.Errorf("decode model output: %w", err)
	}
	if v.AIScore == nil {
		return Evaluation{}, errors.New("model output has no aiScore")
	}
	score := math.Round(*v.AIScore)
	score = math.Max(0, math.Min(100, score))
	return Evaluation{
		AIScore:     int(score),
		Reasons:     strings.TrimSpace(v.Reasons),
		Suggestions: strings.TrimSpace(v.Suggestions),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
