package main

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"taskwise/ai"
	"taskwise/payments"
	"taskwise/storage"
)

type config struct {
	Debug bool
	Port  int

	// Storage is nil when no connection string is set; tasks then live in
	// process memory.
	Storage *storage.Config

	RedisConn     string
	TasksCacheTTL time.Duration
	DedupeTTL     time.Duration

	Auth0Domain   string
	Auth0Audience string
	JWKSCacheTTL  time.Duration
	LocalSecret   string

	Payments payments.Config
	AppURL   string

	AI ai.Config
}

func loadConfig() (config, error) {
	var (
		cfg config
		err error
	)
	if cfg.Debug, err = envBool("DEBUG", false); err != nil {
		return cfg, err
	}
	portVar := "PORT"
	if _, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		portVar = "FUNCTIONS_CUSTOMHANDLER_PORT"
	}
	if cfg.Port, err = envInt(portVar, 8080); err != nil {
		return cfg, err
	}

	if conn := os.Getenv("STORAGE_CONNECTION_STRING"); conn != "" {
		sc := &storage.Config{
			ConnectionString:   conn,
			TasksTable:         os.Getenv("TASKS_TABLE"),
			UsersTable:         os.Getenv("USERS_TABLE"),
			PaymentsTable:      os.Getenv("PAYMENTS_TABLE"),
			PaymentEventsQueue: os.Getenv("PAYMENT_EVENTS_QUEUE"),
		}
		if sc.TasksTable == "" || sc.UsersTable == "" || sc.PaymentsTable == "" {
			return cfg, errors.New("missing storage config: TASKS_TABLE, USERS_TABLE and PAYMENTS_TABLE are required")
		}
		cfg.Storage = sc
	}

	cfg.RedisConn = os.Getenv("REDIS_CONNECTION_STRING")
	if cfg.TasksCacheTTL, err = envDur("TASKS_CACHE_TTL", 5*time.Minute); err != nil {
		return cfg, err
	}
	if cfg.DedupeTTL, err = envDur("WEBHOOK_DEDUPE_TTL", 24*time.Hour); err != nil {
		return cfg, err
	}

	cfg.Auth0Domain = os.Getenv("AUTH0_DOMAIN")
	cfg.Auth0Audience = os.Getenv("AUTH0_AUDIENCE")
	if cfg.JWKSCacheTTL, err = envDur("JWKS_CACHE_TTL", 5*time.Minute); err != nil {
		return cfg, err
	}
	switch mode := strings.ToLower(os.Getenv("LOCAL_AUTH_MODE")); mode {
	case "":
		if cfg.Auth0Domain == "" || cfg.Auth0Audience == "" {
			return cfg, errors.New("missing Auth0 config: set AUTH0_DOMAIN and AUTH0_AUDIENCE or LOCAL_AUTH_MODE=hs256")
		}
	case "hs256":
		cfg.LocalSecret = os.Getenv("LOCAL_AUTH_SHARED_SECRET")
		if cfg.LocalSecret == "" {
			return cfg, errors.New("LOCAL_AUTH_SHARED_SECRET is required with LOCAL_AUTH_MODE=hs256")
		}
	default:
		return cfg, fmt.Errorf("unsupported LOCAL_AUTH_MODE %q", mode)
	}

	cfg.AppURL = envStr("APP_URL", "http://localhost:9002")
	cfg.Payments = payments.Config{
		Provider: os.Getenv("PAYMENT_PROVIDER"),
		Stripe: payments.StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		},
		Razorpay: payments.RazorpayConfig{
			KeyID:         os.Getenv("RAZORPAY_KEY_ID"),
			KeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
			WebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		},
		GatewayX: payments.GatewayXConfig{
			BaseURL:       os.Getenv("GATEWAYX_API_BASE"),
			APIKey:        os.Getenv("GATEWAYX_API_KEY"),
			WebhookSecret: os.Getenv("GATEWAYX_WEBHOOK_SECRET"),
		},
	}

	cfg.AI = ai.Config{
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		GroqKey:       os.Getenv("GROQ_API_KEY"),
		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		AnthropicKey:  os.Getenv("ANTHROPIC_API_KEY"),
		OllamaBaseURL: os.Getenv("OLLAMA_BASE_URL"),
	}
	if cfg.AI.Timeout, err = envDur("AI_TIMEOUT", 30*time.Second); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be greater than zero", key)
	}
	return n, nil
}

func envDur(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// redisOptions accepts a redis:// URL or the Azure style
// "host:port,password=...,ssl=true" connection string.
func redisOptions(conn string) *redis.Options {
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(kv[1], "true") {
				opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			}
		}
	}
	return opts
}
