package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"hubclient/internal/config"
	"hubclient/internal/metrics"
)

// TokenSource supplies the bearer token attached to authenticated calls.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource holding a fixed token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client is the configured HTTP transport for the hub API. All resource
// operations go through do(), which applies auth, rate limiting, retry
// with backoff, envelope unwrapping, and error normalization.
type Client struct {
	baseURL     string
	tokens      TokenSource
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
}

func New(cfg config.APIConfig, tokens TokenSource) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 5
	}
	backoff := time.Duration(cfg.BaseBackoffMs) * time.Millisecond
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		tokens:      tokens,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     newLimiter(cfg.RPS, cfg.Burst),
		maxAttempts: attempts,
		baseBackoff: backoff,
	}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) auth(req *http.Request) {
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	req.Header.Set("Accept", "application/json")
}

// envelope is the `{content: ...}` wrapper the server places around
// payloads. Envelope-less bodies are tolerated as a fallback.
type envelope struct {
	Content json.RawMessage `json:"content"`
	Errors  []string        `json:"errors"`
}

// do issues one API call and decodes the response payload into out (out
// may be nil for operations with no payload). Failures are normalized to
// *APIError; context cancellation passes through untouched so callers
// can distinguish it from failure.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: "encode request body: " + err.Error(), URL: u, Method: method}
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return &APIError{Message: err.Error(), URL: u, Method: method}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.auth(req)

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	resource := metricResource(path)
	start := time.Now()
	resp, err := c.doWithRetry(ctx, req)
	metrics.ObserveRequestDuration(start)
	if err != nil {
		if IsCanceled(err) {
			metrics.IncAPIRequest(resource, "canceled")
			return err
		}
		metrics.IncAPIRequest(resource, "error")
		return &APIError{Message: err.Error(), URL: u, Method: method}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncAPIRequest(resource, "error")
		return &APIError{Message: err.Error(), Status: resp.StatusCode, URL: u, Method: method}
	}

	if resp.StatusCode >= 400 {
		metrics.IncAPIRequest(resource, "error")
		return c.normalize(raw, resp.StatusCode, u, method)
	}
	metrics.IncAPIRequest(resource, "ok")

	if out == nil || len(raw) == 0 {
		return nil
	}
	var env envelope
	payload := raw
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Content) > 0 {
		payload = env.Content
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &APIError{Message: "decode response: " + err.Error(), Status: resp.StatusCode, URL: u, Method: method}
	}
	return nil
}

// normalize extracts the first server-reported error string, falling
// back to a transport-level message, and logs the failure once.
func (c *Client) normalize(raw []byte, status int, u, method string) error {
	msg := fmt.Sprintf("server returned status %d", status)
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Errors) > 0 {
		msg = env.Errors[0]
	}
	ae := &APIError{Message: msg, Status: status, URL: u, Method: method}
	log.Error().Int("status", status).Str("method", method).Str("url", u).Msg(msg)
	return ae
}

// metricResource collapses a request path to its resource family so
// entity ids never become label values.
func metricResource(path string) string {
	p := strings.TrimPrefix(path, "/api/v1/")
	parts := strings.Split(p, "/")
	keep := parts[:0]
	for _, s := range parts {
		if len(s) == 36 && strings.Count(s, "-") == 4 {
			continue
		}
		keep = append(keep, s)
	}
	return strings.Join(keep, ".")
}

// doWithRetry retries 429/5xx responses and transport errors with
// exponential backoff, honoring Retry-After when present. When retries
// run out on a retryable status, the final response is returned as-is
// so the caller still sees its status.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
	}
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		r := req.Clone(ctx)
		if bodyBytes != nil {
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
		resp, err := c.httpClient.Do(r)
		if err == nil {
			if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599) {
				if attempt == c.maxAttempts {
					return resp, nil
				}
				metrics.IncAPIRetry(metricResource(req.URL.Path))
				wait := retryWait(resp, backoff)
				_ = resp.Body.Close()
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				backoff *= 2
				continue
			}
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %v", c.maxAttempts, lastErr)
}

func retryWait(resp *http.Response, backoff time.Duration) time.Duration {
	wait := backoff
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			wait = time.Duration(secs) * time.Second
		} else if t, err := http.ParseTime(ra); err == nil {
			if d := time.Until(t); d > 0 {
				wait = d
			}
		}
	}
	// jitter +/-20%
	jitter := time.Duration(float64(wait) * 0.2)
	if jitter > 0 {
		wait = wait - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter))
	}
	return wait
}
