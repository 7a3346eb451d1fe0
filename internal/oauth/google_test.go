package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeGoogle struct {
	*httptest.Server
	gotVerifier string
	gotCode     string
	userInfo    map[string]any
	infoStatus  int
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{infoStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.gotCode = r.PostForm.Get("code")
		f.gotVerifier = r.PostForm.Get("code_verifier")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "google-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer google-access-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.infoStatus)
		_ = json.NewEncoder(w).Encode(f.userInfo)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeGoogle) provider() *GoogleProvider {
	return NewGoogleProvider(GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/api/auth/google/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   f.URL + "/auth",
			TokenURL:  f.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		UserInfoURL: f.URL + "/userinfo",
		HTTPClient:  f.Client(),
	})
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	f := newFakeGoogle(t)
	verifier := oauth2.GenerateVerifier()

	raw := f.provider().AuthCodeURL("state-123", verifier)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), q.Get("code_challenge"))
	assert.Contains(t, q.Get("scope"), "email")
	assert.Empty(t, q.Get("code_verifier"))
}

func TestGoogleProvider_Profile(t *testing.T) {
	t.Run("maps userinfo to a profile", func(t *testing.T) {
		f := newFakeGoogle(t)
		f.userInfo = map[string]any{
			"sub":            "1234",
			"name":           "Gina Gopher",
			"given_name":     "Gina",
			"family_name":    "Gopher",
			"email":          "gina@example.com",
			"email_verified": true,
		}

		profile, err := f.provider().Profile(context.Background(), "auth-code", "the-verifier")

		require.NoError(t, err)
		assert.Equal(t, "auth-code", f.gotCode)
		assert.Equal(t, "the-verifier", f.gotVerifier)
		assert.Equal(t, ProviderGoogle, profile.Provider)
		assert.Equal(t, "Gina", profile.Name.GivenName)
		assert.Equal(t, "Gopher", profile.Name.FamilyName)
		assert.Equal(t, "Gina Gopher", profile.DisplayName)
		require.Len(t, profile.Emails, 1)
		assert.Equal(t, "gina@example.com", profile.Emails[0].Value)
		assert.True(t, profile.Emails[0].Verified)
	})

	t.Run("profile without email has no emails", func(t *testing.T) {
		f := newFakeGoogle(t)
		f.userInfo = map[string]any{"sub": "1234", "name": "Ghost"}

		profile, err := f.provider().Profile(context.Background(), "auth-code", "v")

		require.NoError(t, err)
		assert.Empty(t, profile.Emails)
	})

	t.Run("userinfo failure", func(t *testing.T) {
		f := newFakeGoogle(t)
		f.infoStatus = http.StatusInternalServerError
		f.userInfo = map[string]any{"error": "boom"}

		_, err := f.provider().Profile(context.Background(), "auth-code", "v")

		assert.ErrorContains(t, err, "status 500")
	})
}

func TestNewGoogleProvider_Defaults(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{ClientID: "id", ClientSecret: "secret"})

	assert.Contains(t, p.AuthCodeURL("s", oauth2.GenerateVerifier()), "accounts.google.com")
	assert.Equal(t, googleUserInfoURL, p.userInfoURL)
}
