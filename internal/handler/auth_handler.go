package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"userdir/internal/auth"
	"userdir/internal/errors"
	"userdir/internal/model"
	"userdir/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	cookies     auth.CookieOptions
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookies auth.CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name" example:"Alice"`
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"secret1"`
	Role     string `json:"role,omitempty" example:"user"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"secret1"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	user, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	}, actorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary Login with email and password
// @Description Sets the httpOnly accessToken cookie and returns the token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.Session
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	session, err := h.authService.Login(c.Request().Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return fail(c, err)
	}

	c.SetCookie(auth.NewSessionCookie(session.Token, h.cookies))
	return c.JSON(http.StatusOK, session)
}

// Logout godoc
// @Summary Logout
// @Description Revokes the presented token and clears the session cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token, err := auth.TokenFromRequest(c.Request())
	if err != nil && !stderrors.Is(err, errors.ErrNoToken) {
		return fail(c, err)
	}
	if token != "" {
		if err := h.authService.Logout(c.Request().Context(), token); err != nil {
			return fail(c, err)
		}
	}

	c.SetCookie(auth.ClearSessionCookie(h.cookies))
	return c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}
