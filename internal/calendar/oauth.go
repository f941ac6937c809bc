package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTokenURL = "https://oauth2.googleapis.com/token"

// GoogleTokenSource exchanges a refresh token for a fresh access token at the
// OAuth token endpoint. It implements TokenSource.
type GoogleTokenSource struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
	now          func() time.Time
}

// NewGoogleTokenSource constructs a GoogleTokenSource for the given OAuth
// application. When httpClient is nil a client with a conservative timeout is
// used.
func NewGoogleTokenSource(httpClient *http.Client, clientID, clientSecret string) *GoogleTokenSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &GoogleTokenSource{
		httpClient:   httpClient,
		tokenURL:     defaultTokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Refresh requests a new access token using the stored refresh token. The
// provider may rotate the refresh token; when it does not, the existing one
// is kept.
func (s *GoogleTokenSource) Refresh(ctx context.Context, creds Credentials) (Credentials, error) {
	if s == nil {
		return Credentials{}, fmt.Errorf("calendar: token source not configured")
	}
	if creds.RefreshToken == "" {
		return Credentials{}, ErrUnauthenticated
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {creds.RefreshToken},
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Credentials{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Credentials{}, fmt.Errorf("calendar: token refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Credentials{}, apiError("token refresh", resp)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return Credentials{}, fmt.Errorf("calendar: decoding token response: %w", err)
	}
	if token.AccessToken == "" {
		return Credentials{}, fmt.Errorf("calendar: provider returned no access token")
	}

	refreshed := Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = creds.RefreshToken
	}
	if token.ExpiresIn > 0 {
		refreshed.Expiry = s.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	return refreshed, nil
}
