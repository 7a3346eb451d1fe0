package auth

import (
	"net/http"
	"strings"
	"time"

	apperrors "userdir/internal/errors"
)

// SessionCookieName is the cookie that carries the session token.
const SessionCookieName = "accessToken"

const bearerPrefix = "Bearer "

// CookieOptions controls the attributes of the session cookie.
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string
	MaxAge   time.Duration
}

// NewSessionCookie builds the httpOnly cookie that carries token.
func NewSessionCookie(token string, opts CookieOptions) *http.Cookie {
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultTokenTTL
	}
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   int(maxAge.Seconds()),
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		// browsers drop SameSite=None cookies that are not Secure
		Secure:   opts.Secure || opts.SameSite == http.SameSiteNoneMode,
		SameSite: opts.SameSite,
	}
}

// ClearSessionCookie builds a cookie that makes the browser forget the session.
func ClearSessionCookie(opts CookieOptions) *http.Cookie {
	c := NewSessionCookie("", opts)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

// ExtractToken picks the session token from the cookie value, falling back to
// an "Authorization: Bearer <token>" header. The cookie wins when both exist.
func ExtractToken(cookieValue, authorization string) (string, error) {
	if cookieValue != "" {
		return cookieValue, nil
	}
	if len(authorization) > len(bearerPrefix) && strings.EqualFold(authorization[:len(bearerPrefix)], bearerPrefix) {
		if token := strings.TrimSpace(authorization[len(bearerPrefix):]); token != "" {
			return token, nil
		}
	}
	return "", apperrors.ErrNoToken
}

// TokenFromRequest applies ExtractToken to an incoming request.
func TokenFromRequest(r *http.Request) (string, error) {
	var cookieValue string
	if c, err := r.Cookie(SessionCookieName); err == nil {
		cookieValue = c.Value
	}
	return ExtractToken(cookieValue, r.Header.Get("Authorization"))
}
