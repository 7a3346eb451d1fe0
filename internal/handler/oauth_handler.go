package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"

	"userdir/internal/auth"
	"userdir/internal/errors"
	"userdir/internal/service"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthVerifierCookie = "oauth_verifier"
	oauthCookiePath     = "/api/auth"
	oauthCookieTTL      = 10 * time.Minute
)

// ProfileProvider runs an OAuth authorization code flow.
type ProfileProvider interface {
	AuthCodeURL(state, verifier string) string
	Profile(ctx context.Context, code, verifier string) (service.ExternalProfile, error)
}

// OAuthHandler handles third-party sign-in.
type OAuthHandler struct {
	provider     ProfileProvider
	oauthService service.OAuthService
	authService  service.AuthService
	cookies      auth.CookieOptions
	frontendURL  string
}

// NewOAuthHandler creates a new OAuth handler.
func NewOAuthHandler(
	provider ProfileProvider,
	oauthService service.OAuthService,
	authService service.AuthService,
	cookies auth.CookieOptions,
	frontendURL string,
) *OAuthHandler {
	return &OAuthHandler{
		provider:     provider,
		oauthService: oauthService,
		authService:  authService,
		cookies:      cookies,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
	}
}

// Start godoc
// @Summary Start Google sign-in
// @Tags auth
// @Success 302
// @Router /auth/google [get]
func (h *OAuthHandler) Start(c echo.Context) error {
	state := oauth2.GenerateVerifier()
	verifier := oauth2.GenerateVerifier()

	c.SetCookie(h.flowCookie(oauthStateCookie, state, oauthCookieTTL))
	c.SetCookie(h.flowCookie(oauthVerifierCookie, verifier, oauthCookieTTL))
	return c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state, verifier))
}

// Callback godoc
// @Summary Google sign-in callback
// @Description Resolves or creates the user, sets the session cookie and redirects to the frontend.
// @Tags auth
// @Param code query string true "Authorization code"
// @Param state query string true "Opaque state"
// @Success 302
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/google/callback [get]
func (h *OAuthHandler) Callback(c echo.Context) error {
	state, stateErr := c.Cookie(oauthStateCookie)
	verifier, verifierErr := c.Cookie(oauthVerifierCookie)
	// the flow cookies are single use
	c.SetCookie(h.flowCookie(oauthStateCookie, "", -1))
	c.SetCookie(h.flowCookie(oauthVerifierCookie, "", -1))

	if c.QueryParam("error") != "" {
		return fail(c, errors.ErrInvalidCredentials)
	}
	if stateErr != nil || state.Value == "" ||
		subtle.ConstantTimeCompare([]byte(state.Value), []byte(c.QueryParam("state"))) != 1 {
		return fail(c, errors.ErrOAuthState)
	}
	if verifierErr != nil || verifier.Value == "" {
		return fail(c, errors.ErrOAuthState)
	}

	code := c.QueryParam("code")
	if code == "" {
		return badRequest("missing code")
	}

	ctx := c.Request().Context()
	profile, err := h.provider.Profile(ctx, code, verifier.Value)
	if err != nil {
		c.Logger().Warnf("oauth profile: %v", err)
		return fail(c, errors.ErrInvalidCredentials)
	}

	user, err := h.oauthService.ResolveOrCreate(ctx, profile)
	if err != nil {
		return fail(c, err)
	}
	session, err := h.authService.LoginUser(ctx, user)
	if err != nil {
		return fail(c, err)
	}

	c.SetCookie(auth.NewSessionCookie(session.Token, h.cookies))
	return c.Redirect(http.StatusFound, h.frontendURL+"/auth/callback")
}

func (h *OAuthHandler) flowCookie(name, value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     oauthCookiePath,
		Domain:   h.cookies.Domain,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		// the provider redirect is a cross-site top-level navigation
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl.Seconds())
	}
	return c
}
