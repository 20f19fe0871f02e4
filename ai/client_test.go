package ai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseEvaluation(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		score int
		ok    bool
	}{
		{name: "plain", in: `{"aiScore": 82, "reasons": "r", "suggestions": "s"}`, score: 82, ok: true},
		{name: "fenced", in: "```json\n{\"aiScore\": 40.6, \"reasons\": \"r\", \"suggestions\": \"s\"}\n```", score: 41, ok: true},
		{name: "prose around", in: `Sure! {"aiScore": 120, "reasons": "r", "suggestions": "s"} Hope that helps.`, score: 100, ok: true},
		{name: "missing score", in: `{"reasons": "r"}`, ok: false},
		{name: "no json", in: `I cannot help with that`, ok: false},
		{name: "empty", in: ``, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := parseEvaluation(tt.in)
			if tt.ok != (err == nil) {
				t.Fatalf("parse(%q) err=%v", tt.in, err)
			}
			if tt.ok && ev.AIScore != tt.score {
				t.Fatalf("score = %d, want %d", ev.AIScore, tt.score)
			}
		})
	}
}

func TestChatClientRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/chat/completions" || r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("unexpected request %s %q", r.URL.Path, r.Header.Get("Authorization"))
		}
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"message":"overloaded"}}`))
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"aiScore\":65,\"reasons\":\"ok\",\"suggestions\":\"more detail\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", srv.Client())
	c.baseURL = srv.URL
	c.retryDelay = time.Millisecond

	ev, err := c.Evaluate(context.Background(), "Plan sprint")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if ev.AIScore != 65 || ev.Suggestions != "more detail" || calls != 2 {
		t.Fatalf("unexpected result %+v after %d calls", ev, calls)
	}
}

func TestChatClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	c := NewGroqClient("key", srv.Client())
	c.baseURL = srv.URL
	c.retryDelay = time.Millisecond

	_, err := c.Evaluate(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "bad key") || calls != 1 {
		t.Fatalf("expected single failed call, got err=%v calls=%d", err, calls)
	}
}

func TestOllamaNeedsNoKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" || r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected request %s", r.URL.Path)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"aiScore\":10,\"reasons\":\"vague\",\"suggestions\":\"s\"}"}}]}`))
	}))
	defer srv.Close()

	ev, err := NewOllamaClient(srv.URL+"/", srv.Client()).Evaluate(context.Background(), "x")
	if err != nil || ev.AIScore != 10 {
		t.Fatalf("unexpected %+v %v", ev, err)
	}
}

func TestAnthropicClientHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" || r.Header.Get("x-api-key") != "ak" || r.Header.Get("anthropic-version") == "" {
			t.Errorf("unexpected request %s %v", r.URL.Path, r.Header)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"system"`) {
			t.Errorf("system prompt missing: %s", body)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"{\"aiScore\":55,\"reasons\":\"r\",\"suggestions\":\"s\"}"}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("ak", srv.Client())
	c.baseURL = srv.URL
	ev, err := c.Evaluate(context.Background(), "x")
	if err != nil || ev.AIScore != 55 {
		t.Fatalf("unexpected %+v %v", ev, err)
	}
}

func TestGeminiClientKeyInQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "gk" || !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"aiScore\":77,\"reasons\":\"r\",\"suggestions\":\"s\"}"}]}}]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient("gk", srv.Client())
	c.baseURL = srv.URL
	ev, err := c.Evaluate(context.Background(), "x")
	if err != nil || ev.AIScore != 77 {
		t.Fatalf("unexpected %+v %v", ev, err)
	}
}

func TestMissingKeyFailsFast(t *testing.T) {
	if _, err := NewOpenAIClient("", nil).Evaluate(context.Background(), "x"); err == nil {
		t.Fatalf("expected missing key error")
	}
}
