package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrDuplicateEmail is returned when a user with the same email already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid is returned for tokens with a bad signature or that were revoked.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when the token lifetime has elapsed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed is returned when the token cannot be decoded.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrNoToken is returned when a request carries neither a session cookie nor a bearer header.
	ErrNoToken = errors.New("no token provided")
	// ErrUserNotFound is returned when a valid token names a user that no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrForbidden is returned when the actor lacks permission for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when the target of a directory operation does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMissingEmail is returned when an external identity profile carries no email.
	ErrMissingEmail = errors.New("external profile has no email")
	// ErrEmailNotVerified is returned when the provider has not verified the profile's email.
	ErrEmailNotVerified = errors.New("external email not verified")
	// ErrOAuthState is returned when the OAuth callback state does not match the issued one.
	ErrOAuthState = errors.New("oauth state mismatch")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

var statusByError = []struct {
	err    error
	status int
	code   string
}{
	{ErrDuplicateEmail, http.StatusBadRequest, "DUPLICATE_EMAIL"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrTokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
	{ErrTokenMalformed, http.StatusUnauthorized, "TOKEN_MALFORMED"},
	{ErrTokenInvalid, http.StatusUnauthorized, "TOKEN_INVALID"},
	{ErrNoToken, http.StatusUnauthorized, "NO_TOKEN"},
	{ErrUserNotFound, http.StatusUnauthorized, "USER_NOT_FOUND"},
	{ErrMissingEmail, http.StatusUnauthorized, "MISSING_EMAIL"},
	{ErrEmailNotVerified, http.StatusUnauthorized, "EMAIL_NOT_VERIFIED"},
	{ErrOAuthState, http.StatusUnauthorized, "OAUTH_STATE_MISMATCH"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return NewHTTPError(http.StatusBadRequest, validationErr.Error(), "VALIDATION_FAILED")
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return NewHTTPError(m.status, m.err.Error(), m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}

// IsAuthentication reports whether err belongs to the authentication family (401).
func IsAuthentication(err error) bool {
	return MapErrorToHTTP(err).StatusCode == http.StatusUnauthorized
}
