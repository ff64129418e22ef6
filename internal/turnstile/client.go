// Package turnstile verifies bot-challenge tokens against Cloudflare's
// siteverify endpoint.
package turnstile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/estudiolume/leads-api/pkg/logging"
)

const defaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Client calls the challenge-verification service with the server-held
// secret. Verification fails closed: any transport error, non-2xx status,
// or malformed payload rejects the token.
type Client struct {
	secret     string
	verifyURL  string
	httpClient *http.Client
	logger     *logging.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithVerifyURL overrides the verification endpoint.
func WithVerifyURL(verifyURL string) Option {
	return func(c *Client) {
		if verifyURL != "" {
			c.verifyURL = verifyURL
		}
	}
}

// NewClient creates a verifier. A single verification attempt is bounded
// by the client timeout; there are no retries.
func NewClient(secret string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		secret:    secret,
		verifyURL: defaultVerifyURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the server-held secret is present.
func (c *Client) Configured() bool {
	return c.secret != ""
}

type verifyResponse struct {
	Success bool `json:"success"`
}

// Verify checks a client-supplied token, passing the client IP along when
// known. Returns true only when the service reports success.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) bool {
	if c.secret == "" || token == "" {
		return false
	}

	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)
	if remoteIP != "" && remoteIP != "unknown" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		c.logger.Error("turnstile request build failed", "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("turnstile verify failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("turnstile verify non-success status", "status", resp.StatusCode)
		return false
	}

	var payload verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Error("turnstile response decode failed", "error", err)
		return false
	}
	return payload.Success
}
