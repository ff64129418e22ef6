// Package identity resolves bearer tokens to user emails via the hosted
// identity service.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/estudiolume/leads-api/pkg/logging"
)

// ErrUnauthenticated is returned when the token cannot be resolved to a
// user email.
var ErrUnauthenticated = errors.New("identity: token could not be resolved")

// Resolver turns a bearer token into the authenticated user's email.
type Resolver interface {
	Configured() bool
	ResolveEmail(ctx context.Context, token string) (string, error)
}

// Client queries the identity service's user endpoint with the public
// anon key. It holds no session state; every call re-verifies the token.
type Client struct {
	baseURL    string
	anonKey    string
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

// NewClient creates an identity resolver for the given service URL and
// anon key.
func NewClient(baseURL, anonKey string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
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

// Configured reports whether the service URL and anon key are present.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.anonKey != ""
}

type userResponse struct {
	Email string `json:"email"`
}

// ResolveEmail resolves a bearer token to the user's lower-cased email.
func (c *Client) ResolveEmail(ctx context.Context, token string) (string, error) {
	if !c.Configured() {
		return "", errors.New("identity: client not configured")
	}
	if token == "" {
		return "", ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.anonKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("identity resolve failed", "error", err)
		return "", ErrUnauthenticated
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrUnauthenticated
	}

	var payload userResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Error("identity response decode failed", "error", err)
		return "", ErrUnauthenticated
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" {
		return "", ErrUnauthenticated
	}
	return email, nil
}

var _ Resolver = (*Client)(nil)
