package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskwise/domain"
	"taskwise/payments"
)

const maxWebhookSize = 256 << 10

type sessionRequest struct {
	Plan string `json:"plan"`
}

type pendingSessionResponse struct {
	Message   string `json:"message"`
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}

type redirectSessionResponse struct {
	URL string `json:"url"`
}

type checkoutSessionResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

var errPaymentsUnavailable = errors.New("payments are not available")

func createPaymentSession(svc PaymentService, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in sessionRequest
		if err := decodeBody(c, &in); err != nil {
			return fail(c, logger, "decode", err)
		}
		if _, err := payments.LookupPlan(in.Plan); err != nil {
			return fail(c, logger, "plan", err)
		}
		who, err := callerIdentity(c, auth)
		if err != nil {
			return fail(c, logger, "auth", err)
		}
		if svc == nil {
			metricsFrom(c).SetErrorStage("payments")
			return respondError(c, http.StatusServiceUnavailable, errPaymentsUnavailable.Error())
		}
		out, err := svc.Checkout(c.Request().Context(), who, in.Plan)
		if err != nil {
			return fail(c, logger, "checkout", err)
		}
		switch {
		case out.Pending():
			return c.JSON(http.StatusOK, pendingSessionResponse{
				Message:   "Payment created. No payment provider is configured, so the payment stays pending.",
				PaymentID: out.PaymentID,
				Status:    string(payments.StatusPending),
			})
		case out.Order != nil:
			return c.JSON(http.StatusOK, out.Order)
		case out.Provider == "stripe":
			return c.JSON(http.StatusOK, redirectSessionResponse{URL: out.RedirectURL})
		default:
			return c.JSON(http.StatusOK, checkoutSessionResponse{CheckoutURL: out.RedirectURL})
		}
	}
}

func paymentWebhook(svc PaymentService, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if svc == nil {
			return fail(c, logger, "payments", payments.ErrNotConfigured)
		}
		raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookSize))
		if err != nil {
			return respondError(c, http.StatusBadRequest, "invalid body")
		}
		if err := svc.HandleWebhook(c.Request().Context(), raw, c.Request().Header); err != nil {
			var ue *domain.UpstreamError
			if errors.As(err, &ue) {
				return fail(c, logger, "webhook", err)
			}
			stage := "webhook"
			if errors.Is(err, payments.ErrInvalidSignature) {
				stage = "signature"
			}
			// Verification and payload errors are client errors.
			metricsFrom(c).SetErrorStage(stage)
			return respondError(c, http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	}
}

func listPayments(svc PaymentService, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		who, err := callerIdentity(c, auth)
		if err != nil {
			return fail(c, logger, "auth", err)
		}
		if svc == nil {
			return c.JSON(http.StatusOK, map[string][]payments.Payment{"payments": {}})
		}
		ps, err := svc.Payments(c.Request().Context(), who)
		if err != nil {
			return fail(c, logger, "storage", err)
		}
		return c.JSON(http.StatusOK, map[string][]payments.Payment{"payments": ps})
	}
}
