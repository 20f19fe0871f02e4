package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskwise/ai"
	"taskwise/api"
	"taskwise/domain"
	"taskwise/payments"
	"taskwise/storage"
)

// backend is the persistence a server runs on: Azure Tables or memory.
type backend interface {
	domain.TaskRepository
	domain.UserDirectory
	api.Profiles
	payments.Store
	payments.EventPublisher
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.StandardLogger()

	var store backend
	if cfg.Storage != nil {
		s, err := storage.New(*cfg.Storage)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		store = s
	} else {
		logger.Warn("STORAGE_CONNECTION_STRING not set, keeping data in memory")
		store = storage.NewMemory()
	}

	var (
		tasks  domain.TaskRepository = store
		dedupe payments.Deduper
		health []api.HealthCheck
	)
	if cfg.RedisConn != "" {
		rc := redis.NewClient(redisOptions(cfg.RedisConn))
		tasks = storage.NewCache(store, rc, cfg.TasksCacheTTL)
		dedupe = api.NewRedisDeduper(rc, cfg.DedupeTTL)
		health = append(health, api.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rc.Ping(ctx).Err() },
		})
	} else {
		logger.Warn("REDIS_CONNECTION_STRING not set, task cache and webhook deduplication disabled")
	}

	auth, err := newAuth(cfg)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	gateway, err := payments.NewGateway(cfg.Payments)
	if err != nil {
		log.Fatalf("payments: %v", err)
	}
	pay := payments.NewService(payments.ServiceOptions{
		Gateway: gateway,
		Store:   store,
		Events:  store,
		Dedupe:  dedupe,
		AppURL:  cfg.AppURL,
		Logger:  logger,
	})

	models := ai.NewModels(cfg.AI)
	evaluator := ai.NewEvaluator(models, cfg.AI.Timeout, logger)
	logger.WithField("providers", evaluator.Configured()).Info("ai providers configured")

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentEncoding},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.WithFields(log.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			}).Debug("request")
			return nil
		},
	}))
	e.Use(api.InflateRequests(api.InflateConfig{}))

	api.Register(e, api.Deps{
		Tasks:     domain.NewTaskService(tasks, store, logger),
		Auth:      auth,
		Evaluator: evaluator,
		Payments:  pay,
		Profiles:  store,
		Health:    health,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
}

func newAuth(cfg config) (*api.Auth, error) {
	if cfg.LocalSecret != "" {
		log.Warn("local HS256 auth mode enabled")
		return api.NewAuth(nil, api.AuthConfig{LocalSecret: []byte(cfg.LocalSecret)})
	}
	jwks, err := keyfunc.Get(api.JWKSURL(cfg.Auth0Domain), keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.WithError(err).Warn("jwks refresh failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}
	return api.NewAuth(jwks, api.AuthConfig{
		Audience:     cfg.Auth0Audience,
		Issuer:       api.IssuerURL(cfg.Auth0Domain),
		JWKSCacheTTL: cfg.JWKSCacheTTL,
	})
}
