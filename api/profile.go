package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskwise/domain"
)

type profileResponse struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Pro    bool   `json:"pro"`
}

// getProfile merges the stored account with token claims. A caller that never
// saved a profile still gets the claims back.
func getProfile(pay PaymentService, profiles Profiles, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		who, err := callerIdentity(c, auth)
		if err != nil {
			return fail(c, logger, "auth", err)
		}
		ctx := c.Request().Context()
		out := profileResponse{ID: who.UserID, Email: who.Email, Name: who.Name}
		if profiles != nil {
			u, err := observeStore(c, func(ctx context.Context) (*domain.User, error) {
				return profiles.GetUser(ctx, who.UserID)
			})
			if err != nil {
				return fail(c, logger, "storage", &domain.UpstreamError{Op: "get user", Err: err})
			}
			if u != nil {
				if u.Name != "" {
					out.Name = u.Name
				}
				out.Avatar = u.Avatar
			}
		}
		if pay != nil {
			pro, err := pay.IsPro(ctx, who)
			if err != nil {
				return fail(c, logger, "payments", err)
			}
			out.Pro = pro
		}
		return c.JSON(http.StatusOK, out)
	}
}

func putProfile(profiles Profiles, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		who, err := callerIdentity(c, auth)
		if err != nil {
			return fail(c, logger, "auth", err)
		}
		var in domain.ProfileUpdate
		if err := decodeBody(c, &in); err != nil {
			return fail(c, logger, "decode", err)
		}
		if err := in.Validate(); err != nil {
			return fail(c, logger, "validate", err)
		}
		if who.Email == "" {
			return fail(c, logger, "validate", &domain.ValidationError{Field: "email", Message: "token carries no email"})
		}
		if profiles == nil {
			metricsFrom(c).SetErrorStage("profiles")
			return respondError(c, http.StatusServiceUnavailable, "profiles are not available")
		}
		u := domain.UserFromIdentity(who, in)
		if _, err := observeStore(c, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, profiles.UpsertUser(ctx, u)
		}); err != nil {
			return fail(c, logger, "storage", &domain.UpstreamError{Op: "upsert user", Err: err})
		}
		return c.JSON(http.StatusOK, profileResponse{ID: u.ID, Email: u.Email, Name: u.Name, Avatar: u.Avatar})
	}
}
