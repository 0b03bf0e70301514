// Package rest is the HTTP transport for the Open To Close API: a
// retrying client with api_token query authentication, client-side rate
// limiting, bounded response reads and response-to-error mapping.
package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/yourorg/opentoclose-go/apierr"
)

const (
	// DefaultBaseURL is the vendor's v1 API root.
	DefaultBaseURL = "https://api.opentoclose.com/v1"

	// EnvAPIKey names the environment variable consulted when no key is
	// configured explicitly.
	EnvAPIKey = "OPEN_TO_CLOSE_API_KEY"

	defaultTimeout  = 30 * time.Second
	defaultRetryMax = 3
	userAgent       = "opentoclose-go/1.0.0"
	maxBodyBytes    = 4 << 20 // response size guard
)

// Record is a single API object as the vendor returns it.
type Record = map[string]any

// Config tunes the transport. The zero value works as long as the API key
// is available in the environment.
type Config struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RetryMax          int // negative disables retries
	RequestsPerSecond float64
	Logger            *slog.Logger
	HTTPClient        *http.Client
}

type Client struct {
	key     string
	baseURL string
	http    *retryablehttp.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

func NewClient(cfg Config) (*Client, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(EnvAPIKey)
	}
	if strings.TrimSpace(key) == "" {
		return nil, apierr.NewAuthenticationError(
			"API key is required. Set " + EnvAPIKey + " or pass Config.APIKey.")
	}

	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, apierr.NewConfigurationError(
			fmt.Sprintf("invalid base URL %q: must be a HTTP/HTTPS URL", base))
	}
	base = strings.TrimRight(base, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retryMax := cfg.RetryMax
	if retryMax == 0 {
		retryMax = defaultRetryMax
	} else if retryMax < 0 {
		retryMax = 0
	}

	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 8 * time.Second
	rc.RetryMax = retryMax
	rc.Logger = nil
	// keep the final 429/5xx response so it maps onto the error taxonomy
	// instead of being swallowed by a "giving up" error
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.HTTPClient.Timeout = timeout
	if cfg.HTTPClient != nil {
		// shallow copy so the caller's client is not mutated
		hc := *cfg.HTTPClient
		hc.Timeout = timeout
		rc.HTTPClient = &hc
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		key:     key,
		baseURL: base,
		http:    rc,
		limiter: limiter,
		log:     log,
	}, nil
}

// BaseURL reports the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Logger exposes the client's logger so resource services share it.
func (c *Client) Logger() *slog.Logger { return c.log }

func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (any, error) {
	return c.do(ctx, http.MethodGet, endpoint, params, nil)
}

func (c *Client) Post(ctx context.Context, endpoint string, body any) (any, error) {
	return c.do(ctx, http.MethodPost, endpoint, nil, body)
}

func (c *Client) Put(ctx context.Context, endpoint string, body any) (any, error) {
	return c.do(ctx, http.MethodPut, endpoint, nil, body)
}

func (c *Client) Delete(ctx context.Context, endpoint string) (any, error) {
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// GetRaw performs a GET and returns the response body verbatim on success.
// Error statuses map to apierr kinds the same way as the decoding paths.
func (c *Client) GetRaw(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	raw, _, err := c.roundTrip(ctx, http.MethodGet, endpoint, params, nil)
	return raw, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, body any) (any, error) {
	raw, header, err := c.roundTrip(ctx, method, endpoint, params, body)
	if err != nil {
		return nil, err
	}
	return decodeSuccess(raw, header)
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, params url.Values, body any) ([]byte, http.Header, error) {
	endpoint, err := normalizeEndpoint(endpoint)
	if err != nil {
		return nil, nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, &apierr.NetworkError{
			APIError: apierr.APIError{
				Message:  fmt.Sprintf("request canceled for %s %s: %v", method, endpoint, err),
				Method:   method,
				Endpoint: endpoint,
			},
			Err: err,
		}
	}

	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("api_token", c.key)
	u := c.baseURL + endpoint + "?" + q.Encode()

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, nil, apierr.Validationf("request body for %s %s is not serializable: %v", method, endpoint, err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return nil, nil, apierr.NewConfigurationError(fmt.Sprintf("building %s %s: %v", method, endpoint, err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	reqID := uuid.NewString()
	c.log.Debug("api request", "request_id", reqID, "method", method, "endpoint", endpoint)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("api request failed", "request_id", reqID, "method", method, "endpoint", endpoint, "error", err)
		return nil, nil, &apierr.NetworkError{
			APIError: apierr.APIError{
				Message:  fmt.Sprintf("network error for %s %s: %v", method, endpoint, err),
				Method:   method,
				Endpoint: endpoint,
			},
			Err: err,
		}
	}
	defer resp.Body.Close()

	raw, err := readAllLimit(resp.Body, maxBodyBytes)
	if err != nil {
		return nil, nil, &apierr.NetworkError{
			APIError: apierr.APIError{
				Message:    fmt.Sprintf("reading response for %s %s: %v", method, endpoint, err),
				StatusCode: resp.StatusCode,
				Method:     method,
				Endpoint:   endpoint,
			},
			Err: err,
		}
	}

	c.log.Debug("api response", "request_id", reqID, "method", method, "endpoint", endpoint,
		"status", resp.StatusCode, "bytes", len(raw))

	if err := mapError(method, endpoint, resp.StatusCode, resp.Header, raw); err != nil {
		return nil, nil, err
	}
	return raw, resp.Header, nil
}

func normalizeEndpoint(endpoint string) (string, error) {
	if endpoint == "" {
		return "", apierr.NewValidationError("endpoint cannot be empty")
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return endpoint, nil
}

func readAllLimit(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, errors.New("response payload too large")
	}
	return b, nil
}
