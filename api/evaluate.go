package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskwise/ai"
	"taskwise/domain"
)

type evaluateRequest struct {
	Provider string `json:"provider"`
	Content  string `json:"content"`
}

func evaluate(ev Evaluator, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := callerIdentity(c, auth); err != nil {
			return fail(c, logger, "auth", err)
		}
		var in evaluateRequest
		if err := decodeBody(c, &in); err != nil {
			return fail(c, logger, "decode", err)
		}
		provider, err := ai.ParseProvider(in.Provider)
		if err != nil {
			return fail(c, logger, "validate", &domain.ValidationError{Field: "provider", Message: err.Error()})
		}
		if ev == nil {
			return c.JSON(http.StatusOK, ai.Fallback)
		}
		return c.JSON(http.StatusOK, ev.Evaluate(c.Request().Context(), provider, in.Content))
	}
}
