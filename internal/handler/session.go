package handler

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"userdir/internal/auth"
	"userdir/internal/errors"
	"userdir/internal/service"
)

const sessionErrorKey = "session_error"

// sessionExtractor reads the token from the accessToken cookie, falling back
// to the Authorization header.
func sessionExtractor(c echo.Context) ([]string, error) {
	token, err := auth.TokenFromRequest(c.Request())
	if err != nil {
		return nil, err
	}
	return []string{token}, nil
}

func sessionConfig(guard service.AuthGuard) echojwt.Config {
	return echojwt.Config{
		ContextKey:       IdentityContextKey,
		TokenLookupFuncs: []middleware.ValuesExtractor{sessionExtractor},
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			identity, err := guard.Authenticate(c.Request().Context(), token)
			if err != nil {
				c.Set(sessionErrorKey, err)
				return nil, err
			}
			return identity, nil
		},
	}
}

// sessionError recovers the guard's error; anything else means no usable
// token was presented.
func sessionError(c echo.Context) error {
	if err, ok := c.Get(sessionErrorKey).(error); ok {
		return err
	}
	return errors.ErrNoToken
}

// RequireSession rejects requests without a valid session with 401.
func RequireSession(guard service.AuthGuard) echo.MiddlewareFunc {
	cfg := sessionConfig(guard)
	cfg.ErrorHandler = func(c echo.Context, _ error) error {
		return fail(c, sessionError(c))
	}
	return echojwt.WithConfig(cfg)
}

// OptionalSession attaches the actor when a valid session is presented and
// lets anonymous requests through otherwise.
func OptionalSession(guard service.AuthGuard) echo.MiddlewareFunc {
	cfg := sessionConfig(guard)
	cfg.ContinueOnIgnoredError = true
	cfg.ErrorHandler = func(c echo.Context, _ error) error {
		err := sessionError(c)
		if errors.IsAuthentication(err) {
			return nil
		}
		return fail(c, err)
	}
	return echojwt.WithConfig(cfg)
}
