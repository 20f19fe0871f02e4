package api

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"taskwise/domain"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
)

const bearerPrefix = "Bearer "

// bearerToken extracts a three-segment JWT from an Authorization value.
func bearerToken(raw string) (string, error) {
	raw = strings.Trim(raw, " ")
	if raw == "" {
		return "", errMissingAuthorization
	}
	if len(raw) <= len(bearerPrefix) || !strings.HasPrefix(raw, bearerPrefix) {
		return "", errBadAuthorization
	}
	token := raw[len(bearerPrefix):]
	if strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return token, nil
}

// callerIdentity authenticates the request. Failures are returned as
// domain.ErrUnauthenticated wrapping the cause.
func callerIdentity(c echo.Context, auth Authenticator) (domain.Identity, error) {
	who, err := auth.IdentityFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return domain.Identity{}, &authError{cause: err}
	}
	if !who.Authenticated() {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return who, nil
}

type authError struct{ cause error }

func (e *authError) Error() string { return e.cause.Error() }

func (e *authError) Is(target error) bool { return target == domain.ErrUnauthenticated }

func (e *authError) Unwrap() error { return e.cause }
