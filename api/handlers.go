// Package api exposes the task board over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskwise/domain"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, deps Deps, logger *log.Logger) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	g := e.Group("/api", Observe(logger))
	g.GET("/tasks", listTasks(deps.Tasks, deps.Auth, logger))
	g.POST("/tasks", createTask(deps.Tasks, deps.Auth, logger))
	g.GET("/tasks/:id", getTask(deps.Tasks, deps.Auth, logger))
	g.PUT("/tasks/:id", updateTask(deps.Tasks, deps.Auth, logger))
	g.DELETE("/tasks/:id", deleteTask(deps.Tasks, deps.Auth, logger))
	g.GET("/assignees", listAssignees())
	g.POST("/evaluate", evaluate(deps.Evaluator, deps.Auth, logger))
	g.POST("/payments/session", createPaymentSession(deps.Payments, deps.Auth, logger))
	g.POST("/payments/webhook", paymentWebhook(deps.Payments, logger))
	g.GET("/payments", listPayments(deps.Payments, deps.Auth, logger))
	g.GET("/profile", getProfile(deps.Payments, deps.Profiles, deps.Auth, logger))
	g.PUT("/profile", putProfile(deps.Profiles, deps.Auth, logger))
	e.GET("/healthz", healthz(deps.Health))
}

type tasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

type taskResponse struct {
	Task domain.Task `json:"task"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

func listTasks(svc TaskService, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		metrics := metricsFrom(c)

		// Listing is permissive: callers without a valid token see no tasks.
		who, err := callerIdentity(c, auth)
		if err != nil {
			logger.WithError(err).Debug("anonymous task list")
		}

		start := time.Now()
		tasks, err := svc.List(ctx, who)
		metrics.ObserveStore(time.Since(start))
		if err != nil {
			return fail(c, logger, "storage", err)
		}
		metrics.SetTasksReturned(len(tasks))
		return c.JSON(http.StatusOK, tasksResponse{Tasks: tasks})
	}
}

func getTask(svc TaskService, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		who, err := callerIdentity(c, auth)
		if err != nil {
			return fail(c, logger, "auth", err)
		}
		task, err := observeStore(c, func(ctx context.Context) (domain.Task, error) {
			return svc.Get(ctx, who, c.Param("id"))
		})
		if err != nil {
			return fail(c, logger, "storage", err)
		}
		return c.JSON(http.StatusOK, taskResponse{Task: task})
	}
}

func createTask(svc TaskService, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		who, err := callerIdentity(c, auth)
		if err != nil {
			return fail(c, logger, "auth", err)
		}
		var in domain.NewTask
		if err := decodeBody(c, &in); err != nil {
			return fail(c, logger, "decode", err)
		}
		task, err := observeStore(c, func(ctx context.Context) (domain.Task, error) {
			return svc.Create(ctx, who, in)
		})
		if err != nil {
			return fail(c, logger, "storage", err)
		}
		return c.JSON(http.StatusOK, taskResponse{Task: task})
	}
}

func updateTask(svc TaskService, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		who, err := callerIdentity(c, auth)
		if err != nil {
			return fail(c, logger, "auth", err)
		}
		var patch domain.TaskPatch
		if err := decodeBody(c, &patch); err != nil {
			return fail(c, logger, "decode", err)
		}
		task, err := observeStore(c, func(ctx context.Context) (domain.Task, error) {
			return svc.Update(ctx, who, c.Param("id"), patch)
		})
		if errors.Is(err, domain.ErrNotFound) {
			metricsFrom(c).SetErrorStage("not_found")
			return respondError(c, http.StatusBadRequest, "failed to update")
		}
		if err != nil {
			return fail(c, logger, "storage", err)
		}
		return c.JSON(http.StatusOK, taskResponse{Task: task})
	}
}

func deleteTask(svc TaskService, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		who, err := callerIdentity(c, auth)
		if err != nil {
			return fail(c, logger, "auth", err)
		}
		removed, err := observeStore(c, func(ctx context.Context) (bool, error) {
			return svc.Delete(ctx, who, c.Param("id"))
		})
		if err != nil {
			return fail(c, logger, "storage", err)
		}
		if !removed {
			metricsFrom(c).SetErrorStage("not_found")
			return respondError(c, http.StatusBadRequest, "failed to delete")
		}
		return c.JSON(http.StatusOK, deleteResponse{Success: true})
	}
}

func observeStore[T any](c echo.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()
	v, err := fn(c.Request().Context())
	metricsFrom(c).ObserveStore(time.Since(start))
	return v, err
}

func listAssignees() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string][]domain.Assignee{"assignees": domain.Assignees})
	}
}

func healthz(checks []HealthCheck) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		var failed []string
		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				failed = append(failed, hc.Name+": "+err.Error())
			}
		}
		if len(failed) > 0 {
			return respondError(c, http.StatusServiceUnavailable, strings.Join(failed, "; "))
		}
		return c.NoContent(http.StatusOK)
	}
}
