// Package ai scores task descriptions with a selectable language model.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Provider selects the model backend.
type Provider string

const (
	ProviderOpenAI Provider = "OpenAI"
	ProviderGroq   Provider = "Groq"
	ProviderGemini Provider = "Gemini"
	ProviderClaude Provider = "Claude"
	ProviderOllama Provider = "Ollama"
)

var Providers = [...]Provider{ProviderOpenAI, ProviderGroq, ProviderGemini, ProviderClaude, ProviderOllama}

// ParseProvider matches s against the known providers ignoring case.
func ParseProvider(s string) (Provider, error) {
	for _, p := range Providers {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown AI provider %q", s)
}

// Evaluation is the model's verdict on a piece of task content.
type Evaluation struct {
	AIScore     int    `json:"aiScore"`
	Reasons     string `json:"reasons"`
	Suggestions string `json:"suggestions"`
}

var (
	// EmptyContent is returned for blank input without consulting a model.
	EmptyContent = Evaluation{
		Reasons:     "Content is empty.",
		Suggestions: "Please provide some content to evaluate.",
	}
	// Fallback replaces the result of any failed evaluation.
	Fallback = Evaluation{
		Reasons:     "An error occurred during evaluation.",
		Suggestions: "Please check the console for details and try again later.",
	}
)

var ErrProviderNotConfigured = errors.New("provider not configured")

// Model invokes a single model backend.
type Model interface {
	Evaluate(ctx context.Context, content string) (Evaluation, error)
}

// Result is either an evaluation or the cause of its failure.
type Result struct {
	Evaluation Evaluation
	Err        error
}

func (r Result) OK() bool { return r.Err == nil }

// Evaluator routes evaluations to the model of the requested provider.
type Evaluator struct {
	models  map[Provider]Model
	timeout time.Duration
	log     *log.Logger
}

// NewEvaluator creates an Evaluator. Providers missing from models fail with
// ErrProviderNotConfigured. A zero timeout leaves deadlines to ctx.
func NewEvaluator(models map[Provider]Model, timeout time.Duration, logger *log.Logger) *Evaluator {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if models == nil {
		models = map[Provider]Model{}
	}
	return &Evaluator{models: models, timeout: timeout, log: logger}
}

// Configured lists the providers that have a model.
func (e *Evaluator) Configured() []Provider {
	var out []Provider
	for _, p := range Providers {
		if _, ok := e.models[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Try runs the evaluation and reports failures to the caller.
func (e *Evaluator) Try(ctx context.Context, p Provider, content string) Result {
	if strings.TrimSpace(content) == "" {
		return Result{Evaluation: EmptyContent}
	}
	m, ok := e.models[p]
	if !ok {
		return Result{Err: fmt.Errorf("%s: %w", p, ErrProviderNotConfigured)}
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	ev, err := m.Evaluate(ctx, content)
	if err != nil {
		return Result{Err: err}
	}
	ev.AIScore = clampScore(ev.AIScore)
	return Result{Evaluation: ev}
}

// Evaluate never fails: errors are logged and replaced by Fallback.
func (e *Evaluator) Evaluate(ctx context.Context, p Provider, content string) Evaluation {
	start := time.Now()
	r := e.Try(ctx, p, content)
	entry := e.log.WithFields(log.Fields{
		"provider":    string(p),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if !r.OK() {
		entry.WithError(r.Err).Error("AI evaluation failed")
		return Fallback
	}
	entry.WithField("ai_score", r.Evaluation.AIScore).Debug("AI evaluation completed")
	return r.Evaluation
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
