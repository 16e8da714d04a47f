package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-session-client/internal/config"
	"github.com/jrsteele09/go-session-client/token"
)

// Endpoint paths relative to the API base URL.
const (
	loginPath     = "/auth/login"
	refreshPath   = "/auth/refresh"
	revokePath    = "/auth/revoke"
	adminInfoPath = "/admin/me"
)

const defaultTimeout = 30 * time.Second

// Client talks to the authentication endpoints of the admin API: login,
// refresh, revoke and the admin profile. The refresh endpoint exchanges
// the current access token for a new one - there is no separate refresh
// token in this design.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	nowFunc    func() time.Time
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowFunc = now
	}
}

func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[NewClient] baseURL is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "go-session-client",
		nowFunc:    time.Now,
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// NewClientFromConfig builds a client from the environment configuration.
func NewClientFromConfig(cfg config.EnvConfig, options ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("[NewClientFromConfig] config is required")
	}
	options = append([]ClientOption{WithUserAgent(cfg.GetAppName())}, options...)
	return NewClient(cfg.GetBaseURL(), options...)
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Login] marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Login] build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Login] do request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		logErrorBody(resp.Body, "login rejected")
		return nil, ErrInvalidCredentials
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Errorf("[Client.Login] unexpected status %d", resp.StatusCode)
	}

	return c.decodeToken(resp.Body, "[Client.Login]")
}

// Refresh exchanges the current access token for a new one.
func (c *Client) Refresh(ctx context.Context, accessToken string) (*Token, error) {
	resp, err := c.bearerRequest(ctx, accessToken, http.MethodPost, refreshPath)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Refresh] do request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		logErrorBody(resp.Body, "refresh rejected")
		return nil, ErrRefreshRejected
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Errorf("[Client.Refresh] unexpected status %d", resp.StatusCode)
	}

	return c.decodeToken(resp.Body, "[Client.Refresh]")
}

// Revoke invalidates the access token server-side. Callers treat this as
// best-effort: local sign-out proceeds whether or not it succeeds.
func (c *Client) Revoke(ctx context.Context, accessToken string) error {
	resp, err := c.bearerRequest(ctx, accessToken, http.MethodPost, revokePath)
	if err != nil {
		return errors.Wrap(err, "[Client.Revoke] do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return errors.Errorf("[Client.Revoke] unexpected status %d", resp.StatusCode)
	}
	return nil
}

// AdminInfo fetches the signed-in admin's profile.
func (c *Client) AdminInfo(ctx context.Context, accessToken string) (AdminInfo, error) {
	resp, err := c.bearerRequest(ctx, accessToken, http.MethodGet, adminInfoPath)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.AdminInfo] do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("[Client.AdminInfo] unexpected status %d", resp.StatusCode)
	}

	var info AdminInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Wrap(err, "[Client.AdminInfo] decode response")
	}
	return info, nil
}

// bearerRequest issues a request authorised with the supplied access
// token, using an oauth2 token source so the Authorization header is set
// consistently across endpoints.
func (c *Client) bearerRequest(ctx context.Context, accessToken, method, path string) (*http.Response, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	authedClient := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), src)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	return authedClient.Do(req)
}

func (c *Client) decodeToken(body io.Reader, wrap string) (*Token, error) {
	var tr TokenResponse
	if err := json.NewDecoder(body).Decode(&tr); err != nil {
		return nil, errors.Wrap(err, wrap+" decode response")
	}

	access := tr.Access()
	if access == "" {
		return nil, ErrMissingAccessToken
	}

	return &Token{
		AccessToken: access,
		ExpiresAt:   c.resolveExpiry(access, tr.ExpiresIn),
	}, nil
}

// resolveExpiry prefers the expires_in hint, then the token's own exp
// claim. A nil result means the expiry is unknown and the caller must
// fail closed.
func (c *Client) resolveExpiry(accessToken string, expiresIn int) *time.Time {
	if expiresIn > 0 {
		expiresAt := c.nowFunc().Add(time.Duration(expiresIn) * time.Second)
		return &expiresAt
	}

	expiresAt, err := token.ExpiryFromJWT(accessToken)
	if err != nil {
		log.Debug().Err(err).Msg("token expiry could not be determined")
		return nil
	}
	return &expiresAt
}

func logErrorBody(body io.Reader, msg string) {
	var er errorResponse
	if err := json.NewDecoder(body).Decode(&er); err == nil && er.Error != "" {
		log.Debug().Str("error", er.Error).Msg(msg)
	}
}
