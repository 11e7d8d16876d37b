// Package profile talks to the profile service: stored TradingView
// credential presence, credential saving and the current user.
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/netutil"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/session"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/types"
)

const (
	credentialsPath = "/api/profile/tradingview-credentials"
	mePath          = "/api/profile/me"
)

var validate = validator.New()

// Credentials are the third-party login collected by the prompt.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Validate reports missing or malformed fields as a VALIDATION error.
func (c Credentials) Validate() error {
	if err := validate.Struct(c); err != nil {
		return types.NewError(types.CodeValidation, "email and password are required", err)
	}
	return nil
}

// Client is bound to one session's token.
type Client struct {
	rest   *resty.Client
	tokens session.TokenSource
}

// NewClient creates a profile client for baseURL.
func NewClient(baseURL string, timeout time.Duration, transport http.RoundTripper, tokens session.TokenSource) *Client {
	return &Client{rest: netutil.NewRESTClient(baseURL, timeout, transport), tokens: tokens}
}

// WithTokens returns a client sharing the connection pool but sending another
// session's token.
func (c *Client) WithTokens(tokens session.TokenSource) *Client {
	return &Client{rest: c.rest, tokens: tokens}
}

// HasCredentials treats any failure as "no credentials".
func (c *Client) HasCredentials(ctx context.Context) bool {
	var out struct {
		HasCredentials bool `json:"hasCredentials"`
	}
	resp, err := c.request(ctx).SetResult(&out).Get(credentialsPath)
	if err != nil {
		slog.Warn("credential check failed", "error", err)
		return false
	}
	if !resp.IsSuccess() {
		slog.Warn("credential check rejected", "status", resp.StatusCode())
		return false
	}
	return out.HasCredentials
}

// SaveCredentials persists creds; failures are returned, never retried.
func (c *Client) SaveCredentials(ctx context.Context, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	resp, err := c.request(ctx).SetBody(creds).Post(credentialsPath)
	if err != nil {
		return types.NewError(types.CodeCredentialsSaveFailed, "failed to save credentials", err)
	}
	if !resp.IsSuccess() {
		return types.NewError(types.CodeCredentialsSaveFailed, "failed to save credentials", fmt.Errorf("status=%d", resp.StatusCode()))
	}
	return nil
}

// Me returns the profile behind the token.
func (c *Client) Me(ctx context.Context) (session.Profile, error) {
	var out session.Profile
	resp, err := c.request(ctx).SetResult(&out).Get(mePath)
	if err != nil {
		return session.Profile{}, types.NewError(types.CodeUpstreamUnavailable, "profile service unreachable", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return session.Profile{}, types.NewError(types.CodeAccessDenied, "token rejected by profile service", nil)
	}
	if !resp.IsSuccess() {
		return session.Profile{}, types.NewError(types.CodeUpstreamUnavailable, "profile lookup failed", fmt.Errorf("status=%d", resp.StatusCode()))
	}
	return out, nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.rest.R().SetContext(ctx)
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.SetAuthToken(tok)
		}
	}
	return req
}
