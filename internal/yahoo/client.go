// Package yahoo provides a client for the public Yahoo Finance JSON endpoints
// (chart, quoteSummary and search). Canonical symbols are Yahoo symbols.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/net/publicsuffix"
)

const (
	// DefaultBaseURL is the query host for all data endpoints.
	DefaultBaseURL = "https://query1.finance.yahoo.com"

	// DefaultSessionURL is visited once to obtain the cookies the crumb is bound to.
	DefaultSessionURL = "https://fc.yahoo.com"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 20 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// APIError represents a failed Yahoo response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("Yahoo API error: %s: %s (status: %d, endpoint: %s)", e.Code, e.Message, e.StatusCode, e.Endpoint)
	}
	return fmt.Sprintf("Yahoo API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// ErrNoData is returned when Yahoo answers successfully but without a result.
var ErrNoData = errors.New("no data returned")

// Client is a Yahoo Finance client. Call pacing is the caller's concern.
type Client struct {
	baseURL    string
	sessionURL string
	httpClient *http.Client
	logger     arbor.ILogger

	mu    sync.Mutex
	crumb string
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom query host.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithSessionURL sets the cookie bootstrap URL. Empty disables the crumb session.
func WithSessionURL(sessionURL string) ClientOption {
	return func(c *Client) {
		c.sessionURL = sessionURL
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Yahoo client with its own cookie jar.
func NewClient(opts ...ClientOption) *Client {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	c := &Client{
		baseURL:    DefaultBaseURL,
		sessionURL: DefaultSessionURL,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetChart returns bars for symbol over rng ("1mo", "5d", ...) at interval ("1d", "1h", ...).
func (c *Client) GetChart(ctx context.Context, symbol, rng, interval string) (*ChartResult, error) {
	values := url.Values{}
	values.Set("range", rng)
	values.Set("interval", interval)
	values.Set("includePrePost", "false")

	path := "/v8/finance/chart/" + url.PathEscape(symbol)

	var resp ChartResponse
	if err := c.get(ctx, path, values, false, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, &APIError{StatusCode: http.StatusOK, Code: resp.Chart.Error.Code, Message: resp.Chart.Error.Description, Endpoint: path}
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart %s: %w", symbol, ErrNoData)
	}
	return &resp.Chart.Result[0], nil
}

// GetQuoteSummary returns the requested quoteSummary modules for symbol.
func (c *Client) GetQuoteSummary(ctx context.Context, symbol string, modules ...string) (*QuoteSummaryResult, error) {
	values := url.Values{}
	values.Set("modules", strings.Join(modules, ","))

	path := "/v10/finance/quoteSummary/" + url.PathEscape(symbol)

	var resp QuoteSummaryResponse
	if err := c.get(ctx, path, values, true, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil {
		return nil, &APIError{StatusCode: http.StatusOK, Code: resp.QuoteSummary.Error.Code, Message: resp.QuoteSummary.Error.Description, Endpoint: path}
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("quoteSummary %s: %w", symbol, ErrNoData)
	}
	return &resp.QuoteSummary.Result[0], nil
}

// SearchNews returns up to count news items mentioning symbol.
func (c *Client) SearchNews(ctx context.Context, symbol string, count int) ([]SearchNews, error) {
	values := url.Values{}
	values.Set("q", symbol)
	values.Set("quotesCount", "0")
	values.Set("newsCount", fmt.Sprintf("%d", count))
	values.Set("lang", "en-US")

	var resp SearchResponse
	if err := c.get(ctx, "/v1/finance/search", values, false, &resp); err != nil {
		return nil, err
	}
	return resp.News, nil
}

// get performs a GET and decodes the JSON body. Crumb-protected endpoints
// refresh the session once on 401.
func (c *Client) get(ctx context.Context, path string, params url.Values, needsCrumb bool, result interface{}) error {
	err := c.do(ctx, path, params, needsCrumb, result)

	var apiErr *APIError
	if needsCrumb && errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		c.resetCrumb()
		err = c.do(ctx, path, params, needsCrumb, result)
	}
	return err
}

func (c *Client) do(ctx context.Context, path string, params url.Values, needsCrumb bool, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	if needsCrumb {
		if crumb := c.ensureCrumb(ctx); crumb != "" {
			params.Set("crumb", crumb)
		}
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("Yahoo API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ensureCrumb bootstraps the cookie session and fetches a crumb once.
// Failures are logged and the request proceeds without a crumb.
func (c *Client) ensureCrumb(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.crumb != "" || c.sessionURL == "" {
		return c.crumb
	}

	if req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sessionURL, nil); err == nil {
		req.Header.Set("User-Agent", userAgent)
		if resp, err := c.httpClient.Do(req); err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/test/getcrumb", nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn().Err(err).Msg("Failed to fetch Yahoo crumb")
		}
		return ""
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	if resp.StatusCode != http.StatusOK || len(body) == 0 {
		if c.logger != nil {
			c.logger.Warn().Int("status", resp.StatusCode).Msg("Yahoo crumb request rejected")
		}
		return ""
	}

	c.crumb = strings.TrimSpace(string(body))
	return c.crumb
}

func (c *Client) resetCrumb() {
	c.mu.Lock()
	c.crumb = ""
	c.mu.Unlock()
}
