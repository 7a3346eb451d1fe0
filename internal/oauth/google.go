package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"userdir/internal/service"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	// ProviderGoogle names the Google provider in external profiles.
	ProviderGoogle = "google"
)

// GoogleConfig configures the Google sign-in client. Endpoint and UserInfoURL
// default to Google's production endpoints when empty.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
	HTTPClient   *http.Client
}

// GoogleProvider runs the authorization code flow against Google.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewGoogleProvider creates a provider requesting the email and profile scopes.
func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = googleUserInfoURL
	}
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: userInfoURL,
		httpClient:  cfg.HTTPClient,
	}
}

// AuthCodeURL returns the consent page URL bound to state and the PKCE verifier.
func (p *GoogleProvider) AuthCodeURL(state, verifier string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
}

// googleUserInfo is the OpenID Connect userinfo document.
type googleUserInfo struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// Profile exchanges code for a token and fetches the caller's profile.
func (p *GoogleProvider) Profile(ctx context.Context, code, verifier string) (service.ExternalProfile, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	token, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return service.ExternalProfile{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return service.ExternalProfile{}, fmt.Errorf("build userinfo request: %w", err)
	}
	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return service.ExternalProfile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return service.ExternalProfile{}, fmt.Errorf("fetch userinfo: status %d: %s", resp.StatusCode, body)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return service.ExternalProfile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	return info.profile(), nil
}

func (u googleUserInfo) profile() service.ExternalProfile {
	profile := service.ExternalProfile{
		Provider:    ProviderGoogle,
		Name:        service.ProfileName{GivenName: u.GivenName, FamilyName: u.FamilyName},
		DisplayName: u.Name,
	}
	if u.Email != "" {
		profile.Emails = []service.ProfileEmail{{Value: u.Email, Verified: u.EmailVerified}}
	}
	return profile
}
