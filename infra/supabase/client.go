package supabase

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	maxResponseBytes  = 8 << 20  // 8 MiB
	maxErrorBodyBytes = 32 << 10 // 32 KiB
)

// credential selects which key authorizes a request.
type credential int

const (
	credServiceRole credential = iota
	credUserToken
)

// Client is the Supabase client.
type Client struct {
	config     Config
	httpClient *http.Client
	breaker    *CircuitBreaker

	// Derived values
	baseURL      string
	restURL      string
	authURL      string
	allowedHosts map[string]struct{}

	// Sub-clients
	auth     *AuthClient
	database *DatabaseClient
}

// New creates a new Supabase client.
func New(cfg Config) (*Client, error) {
	if cfg.ProjectURL == "" {
		return nil, fmt.Errorf("project URL is required")
	}
	if cfg.ServiceRoleKey == "" {
		return nil, fmt.Errorf("service role key is required")
	}

	// Parse and validate URL
	baseURL := strings.TrimRight(cfg.ProjectURL, "/")
	parsedURL, err := url.Parse(baseURL)
	if err != nil || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid project URL: %q", cfg.ProjectURL)
	}

	// Build allowed hosts
	allowedHosts := make(map[string]struct{})
	if len(cfg.AllowedHosts) == 0 {
		allowedHosts[parsedURL.Hostname()] = struct{}{}
	} else {
		for _, h := range cfg.AllowedHosts {
			if h != "" {
				allowedHosts[h] = struct{}{}
			}
		}
	}

	// Set default timeout
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.APIKey == "" {
		cfg.APIKey = cfg.ServiceRoleKey
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: defaultTransport()}
	}

	c := &Client{
		config:       cfg,
		httpClient:   httpClient,
		breaker:      NewCircuitBreaker(cfg.Breaker),
		baseURL:      baseURL,
		restURL:      baseURL + "/rest/v1",
		authURL:      baseURL + "/auth/v1",
		allowedHosts: allowedHosts,
	}

	// Initialize sub-clients
	c.auth = &AuthClient{client: c}
	c.database = &DatabaseClient{client: c}

	return c, nil
}

func defaultTransport() http.RoundTripper {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return http.DefaultTransport
	}
	cloned := base.Clone()
	if cloned.TLSClientConfig == nil {
		cloned.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	} else if cloned.TLSClientConfig.MinVersion < tls.VersionTLS12 {
		cloned.TLSClientConfig = cloned.TLSClientConfig.Clone()
		cloned.TLSClientConfig.MinVersion = tls.VersionTLS12
	}
	return cloned
}

// Auth returns the auth client.
func (c *Client) Auth() *AuthClient {
	return c.auth
}

// Database returns the database client.
func (c *Client) Database() *DatabaseClient {
	return c.database
}

// Breaker returns the circuit breaker guarding outbound requests.
func (c *Client) Breaker() *CircuitBreaker {
	return c.breaker
}

// =============================================================================
// Internal HTTP Methods
// =============================================================================

type request struct {
	operation   string
	method      string
	url         string
	body        []byte
	headers     map[string]string
	credential  credential
	accessToken string
}

// do performs one request. It never retries. Transport failures and 5xx
// responses count against the circuit breaker.
func (c *Client) do(ctx context.Context, req request) ([]byte, int, error) {
	start := time.Now()
	body, status, err := c.doOnce(ctx, req)
	if c.config.Observer != nil {
		c.config.Observer(req.operation, time.Since(start), err)
	}
	return body, status, err
}

func (c *Client) doOnce(ctx context.Context, req request) ([]byte, int, error) {
	if err := c.validateURL(req.url); err != nil {
		return nil, 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var reqBody io.Reader
	if req.body != nil {
		reqBody = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.buildHeaders(req) {
		httpReq.Header.Set(k, v)
	}

	// Every path after Allow must record an outcome.
	if err := c.breaker.Allow(); err != nil {
		return nil, 0, ErrUnavailable
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.breaker.RecordFailure(err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, ErrTimeout
		}
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		c.breaker.RecordFailure(fmt.Errorf("status %d", resp.StatusCode))
	} else {
		c.breaker.RecordSuccess()
	}

	limit := int64(maxResponseBytes)
	if resp.StatusCode >= 400 {
		limit = maxErrorBodyBytes
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

// buildHeaders builds request headers.
func (c *Client) buildHeaders(req request) map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}

	switch req.credential {
	case credUserToken:
		headers["apikey"] = c.config.APIKey
		headers["Authorization"] = "Bearer " + req.accessToken
	default:
		headers["apikey"] = c.config.ServiceRoleKey
		headers["Authorization"] = "Bearer " + c.config.ServiceRoleKey
	}

	for k, v := range req.headers {
		headers[k] = v
	}
	return headers
}

// validateURL validates that the URL is allowed.
func (c *Client) validateURL(rawURL string) error {
	if len(c.allowedHosts) == 0 {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("invalid URL host")
	}

	if _, ok := c.allowedHosts[host]; !ok {
		return fmt.Errorf("host not allowed: %s", host)
	}

	return nil
}

// parseError parses an error response from GoTrue or PostgREST.
//
// GoTrue reports {"code":404,"error_code":"user_not_found","msg":"..."} or
// the OAuth shape {"error":"...","error_description":"..."}; PostgREST
// reports {"code":"PGRST116","message":"...","details":"...","hint":"..."}.
func parseError(body []byte, statusCode int) error {
	if !gjson.ValidBytes(body) {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(statusCode)
		}
		return &Error{
			Code:       "unknown",
			Message:    msg,
			StatusCode: statusCode,
		}
	}

	parsed := gjson.ParseBytes(body)
	msg := firstString(parsed, "msg", "message", "error_description", "error")
	if msg == "" {
		msg = http.StatusText(statusCode)
	}

	return &Error{
		Code:       firstString(parsed, "error_code", "code", "error"),
		Message:    msg,
		Details:    parsed.Get("details").String(),
		Hint:       parsed.Get("hint").String(),
		StatusCode: statusCode,
	}
}

func firstString(result gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := result.Get(p); v.Exists() && v.Type != gjson.Null {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}
