package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"userdir/internal/auth"
	"userdir/internal/errors"
)

// IdentityContextKey is where the session middleware stores the actor.
const IdentityContextKey = "identity"

// actorFrom returns the authenticated actor or nil for anonymous requests.
func actorFrom(c echo.Context) *auth.Identity {
	identity, _ := c.Get(IdentityContextKey).(*auth.Identity)
	return identity
}

// fail converts a service error into an echo HTTP error with a stable body.
func fail(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode == http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  "INVALID_REQUEST",
	})
}
