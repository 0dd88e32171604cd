package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/importconfig"
	"github.com/custodia-labs/loam/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of retries after a 429 response.
	MaxRetries = 3

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 512
)

// Client issues authenticated, rate-limited GET requests.
type Client struct {
	http        *http.Client
	headers     map[string]string
	auth        *importconfig.APIAuth
	rateLimiter *RateLimiter
}

// NewClient creates a client. A nil httpClient uses one with DefaultTimeout.
func NewClient(httpClient *http.Client, spec *importconfig.APIConnector) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		http:        httpClient,
		headers:     spec.Headers,
		auth:        spec.Auth,
		rateLimiter: NewRateLimiter(spec.RateLimit),
	}
}

// Get fetches url and returns the body and response headers.
func (c *Client) Get(ctx context.Context, url string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if err := c.authorize(req); err != nil {
		return nil, nil, err
	}

	for attempt := 0; ; attempt++ {
		body, header, err := c.do(ctx, req)
		if err == nil {
			return body, header, nil
		}
		var rle *RateLimitError
		if !errors.As(err, &rle) || attempt >= MaxRetries {
			return nil, nil, err
		}
		logger.Warn("rate limited by %s, retrying at %s", url, rle.ResetAt.Format(time.RFC3339))
		if err := sleep(ctx, time.Until(rle.ResetAt)); err != nil {
			return nil, nil, err
		}
	}
}

func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, http.Header, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("GET %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if err := c.rateLimiter.CheckRateLimit(resp); err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
			URL:        req.URL.String(),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", req.URL, err)
	}
	return body, resp.Header, nil
}

// authorize adds the configured credential header.
func (c *Client) authorize(req *http.Request) error {
	if c.auth == nil {
		return nil
	}
	token := c.auth.Token
	if token == "" && c.auth.TokenEnv != "" {
		token = os.Getenv(c.auth.TokenEnv)
	}
	if token == "" {
		return fmt.Errorf("%w: api token is empty (token_env %q)", domain.ErrConfiguration, c.auth.TokenEnv)
	}
	switch c.auth.Type {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+token)
	case "api_key":
		req.Header.Set(c.auth.Header, token)
	default:
		return fmt.Errorf("%w: auth type %q", domain.ErrUnsupportedType, c.auth.Type)
	}
	return nil
}
