package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	authorizeURL = "https://www.strava.com/oauth/authorize"
	tokenURL     = "https://www.strava.com/oauth/token"
	redirectURI  = "http://localhost:8080/callback"
	oauthScope   = "activity:read_all"

	// expirySkew treats tokens expiring within the next minute as expired,
	// so a token cannot lapse mid-export.
	expirySkew = 60 * time.Second
)

// Env holds the Strava application credentials.
type Env struct {
	ClientID     string
	ClientSecret string
}

// Tokens is the persisted OAuth token set.
type Tokens struct {
	RefreshToken string
	AccessToken  string
	ExpiresAt    int64 // unix seconds
	AthleteID    int64
}

// Expired reports whether the access token is expired or about to be.
func (t Tokens) Expired(now time.Time) bool {
	if t.ExpiresAt == 0 {
		return true
	}
	return t.ExpiresAt <= now.Add(expirySkew).Unix()
}

// Authenticator drives the OAuth flow against the token endpoint and keeps
// the state DB in sync.
type Authenticator struct {
	Env   Env
	Store *StateDB
	Log   *slog.Logger

	// TokenURL is overridable in tests.
	TokenURL   string
	HTTPClient *http.Client
	now        func() time.Time
}

// NewAuthenticator wires an authenticator with production endpoints.
func NewAuthenticator(env Env, store *StateDB, log *slog.Logger) *Authenticator {
	return &Authenticator{
		Env:        env,
		Store:      store,
		Log:        log,
		TokenURL:   tokenURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// AuthorizeURL builds the URL the athlete opens to grant access.
func (a *Authenticator) AuthorizeURL() string {
	params := url.Values{
		"client_id":       {a.Env.ClientID},
		"redirect_uri":    {redirectURI},
		"response_type":   {"code"},
		"scope":           {oauthScope},
		"approval_prompt": {"auto"},
	}
	return authorizeURL + "?" + params.Encode()
}

type tokenResponse struct {
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
	ExpiresAt    int64  `json:"expires_at"`
	Athlete      struct {
		ID int64 `json:"id"`
	} `json:"athlete"`
}

func (a *Authenticator) postToken(ctx context.Context, form url.Values) (Tokens, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return Tokens{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return Tokens{}, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Tokens{}, fmt.Errorf("token request failed (status %d): %s", resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Tokens{}, fmt.Errorf("decoding token response: %w", err)
	}
	return Tokens{
		RefreshToken: tr.RefreshToken,
		AccessToken:  tr.AccessToken,
		ExpiresAt:    tr.ExpiresAt,
		AthleteID:    tr.Athlete.ID,
	}, nil
}

// ExchangeCode trades an authorization code for a token set.
func (a *Authenticator) ExchangeCode(ctx context.Context, code string) (Tokens, error) {
	return a.postToken(ctx, url.Values{
		"client_id":     {a.Env.ClientID},
		"client_secret": {a.Env.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	})
}

// Refresh trades a refresh token for a fresh token set.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	tokens, err := a.postToken(ctx, url.Values{
		"client_id":     {a.Env.ClientID},
		"client_secret": {a.Env.ClientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	})
	if err != nil {
		return Tokens{}, err
	}
	// Strava may omit a rotated refresh token; keep the old one then.
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	return tokens, nil
}

// EnsureValidTokens loads the persisted tokens, refreshing and re-saving
// them when expired. It fails when auth has never run.
func (a *Authenticator) EnsureValidTokens(ctx context.Context) (Tokens, error) {
	saved, err := a.Store.LoadTokens()
	if err != nil {
		return Tokens{}, fmt.Errorf("loading tokens: %w", err)
	}
	if saved == nil || saved.RefreshToken == "" {
		return Tokens{}, fmt.Errorf("no refresh token found; run the auth command first")
	}
	if !saved.Expired(a.now()) {
		return *saved, nil
	}

	a.Log.Info("access token expired, refreshing")
	tokens, err := a.Refresh(ctx, saved.RefreshToken)
	if err != nil {
		return Tokens{}, fmt.Errorf("refreshing tokens: %w", err)
	}
	if err := a.Store.SaveTokens(tokens); err != nil {
		return Tokens{}, fmt.Errorf("saving tokens: %w", err)
	}
	return tokens, nil
}

// RunInteractive walks the athlete through the browser grant: prints the
// authorize URL, captures the code on the localhost callback, exchanges it
// and persists the result.
func (a *Authenticator) RunInteractive(ctx context.Context) (Tokens, error) {
	fmt.Println("Open this URL to authorize the application:")
	fmt.Println(a.AuthorizeURL())

	code, err := waitForCode(ctx, "localhost:8080", 3*time.Minute, a.Log)
	if err != nil {
		return Tokens{}, fmt.Errorf("waiting for authorization code: %w", err)
	}

	tokens, err := a.ExchangeCode(ctx, code)
	if err != nil {
		return Tokens{}, err
	}
	if err := a.Store.SaveTokens(tokens); err != nil {
		return Tokens{}, fmt.Errorf("saving tokens: %w", err)
	}
	a.Log.Info("auth complete", "athlete_id", tokens.AthleteID)
	return tokens, nil
}
