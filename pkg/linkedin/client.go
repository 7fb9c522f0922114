// Package linkedin provides a minimal client for the LinkedIn OAuth code
// exchange and userinfo endpoints, used to verify organizing-team profiles.
package linkedin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the network verification operations.
type Client interface {
	// ExchangeCode trades an OAuth authorization code for an access token.
	ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error)
	// FetchProfile returns the profile of the access token's owner.
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// Token is the parsed access-token response.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Profile is the subset of the userinfo response the pipeline cares about.
type Profile struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// Option configures the client.
type Option func(*httpClient)

// WithTokenURL overrides the token endpoint (for testing).
func WithTokenURL(u string) Option {
	return func(c *httpClient) { c.tokenURL = u }
}

// WithProfileURL overrides the userinfo endpoint (for testing).
func WithProfileURL(u string) Option {
	return func(c *httpClient) { c.profileURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	clientID     string
	clientSecret string
	tokenURL     string
	profileURL   string
	http         *http.Client
}

// NewClient creates a LinkedIn client with the given app credentials.
func NewClient(clientID, clientSecret string, opts ...Option) Client {
	c := &httpClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     "https://www.linkedin.com/oauth/v2/accessToken",
		profileURL:   "https://api.linkedin.com/v2/userinfo",
		http:         &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "linkedin: build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("linkedin: token exchange failed with status %d: %s", status, string(body))
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, eris.Wrap(err, "linkedin: decode token response")
	}
	if token.AccessToken == "" {
		return nil, eris.New("linkedin: empty access token in response")
	}
	return &token, nil
}

func (c *httpClient) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "linkedin: build profile request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("linkedin: profile fetch failed with status %d: %s", status, string(body))
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, eris.Wrap(err, "linkedin: decode profile response")
	}
	return &profile, nil
}

func (c *httpClient) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, eris.Wrap(err, "linkedin: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, eris.Wrap(err, "linkedin: read response body")
	}
	return body, resp.StatusCode, nil
}

// Verify exchanges the code, fetches the profile, and checks it against the
// allow list. Allowed entries match on either the profile id or email,
// case-insensitively.
func Verify(ctx context.Context, c Client, code, redirectURI string, allowed []string) (*Profile, bool, error) {
	token, err := c.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, false, err
	}
	profile, err := c.FetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, false, err
	}
	for _, a := range allowed {
		if strings.EqualFold(a, profile.Sub) || strings.EqualFold(a, profile.Email) {
			return profile, true, nil
		}
	}
	return profile, false, nil
}
