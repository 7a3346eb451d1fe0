package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"userdir/internal/handler"
	"userdir/internal/service"
)

// Handlers groups everything Register wires. OAuth may be nil when no
// provider is configured.
type Handlers struct {
	Auth  *handler.AuthHandler
	OAuth *handler.OAuthHandler
	Users *handler.UserHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, guard service.AuthGuard, h Handlers) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	session := handler.RequireSession(guard)

	// Public routes
	api.POST("/auth/register", h.Auth.Register, handler.OptionalSession(guard))
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/logout", h.Auth.Logout)
	if h.OAuth != nil {
		api.GET("/auth/google", h.OAuth.Start)
		api.GET("/auth/google/callback", h.OAuth.Callback)
	}

	// Secured routes
	api.GET("/auth/me", h.Users.Me, session)

	users := api.Group("/users", session)
	users.POST("", h.Users.CreateUser)
	users.GET("", h.Users.ListUsers)
	users.GET("/inactive", h.Users.ListInactiveUsers)
	users.GET("/:id", h.Users.GetUser)
	users.PATCH("/:id", h.Users.UpdateUser)
	users.DELETE("/:id", h.Users.DeleteUser)
}
