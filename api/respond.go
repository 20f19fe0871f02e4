package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskwise/domain"
	"taskwise/payments"
)

const maxBodySize = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

func respondError(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorResponse{Error: msg})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.As(err, &ve),
		errors.Is(err, payments.ErrInvalidPlan),
		errors.Is(err, payments.ErrInvalidSignature),
		errors.Is(err, payments.ErrNotConfigured):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail records the stage, logs server faults and writes the error body.
func fail(c echo.Context, logger *log.Logger, stage string, err error) error {
	metricsFrom(c).SetErrorStage(stage)
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithField("stage", stage).Error("request failed")
	}
	return respondError(c, status, err.Error())
}

// decodeBody strictly decodes a size-limited JSON body into v.
func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, maxBodySize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &domain.ValidationError{Message: "invalid body"}
	}
	return nil
}
