package vpic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Outcome is the result of a make/model existence check.
type Outcome int

const (
	// Unknown means the lookup could not be completed; existence is undetermined.
	Unknown Outcome = iota
	// Confirmed means the make lists the requested model.
	Confirmed
	// NotFound means the lookup succeeded and the model is not listed for the make.
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ErrUnavailable wraps every failure that leaves the outcome Unknown.
var ErrUnavailable = errors.New("vpic: lookup unavailable")

// Validator decides whether a make/model pair exists.
type Validator interface {
	Exists(ctx context.Context, vehicleMake, model string) (Outcome, error)
}

// Options tunes the HTTP client. Zero values fall back to sensible defaults.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	RateLimit  float64
	RateBurst  int
	Logger     *zap.Logger
}

// Client implements Validator against the NHTSA vPIC API.
type Client struct {
	baseURL    *url.URL
	client     *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

const maxRetryDelay = 2 * time.Second

// NewClient constructs a vPIC client rooted at baseURL, e.g. https://vpic.nhtsa.dot.gov/api.
func NewClient(baseURL string, opts Options) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse vpic url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("vpic url must be absolute: %q", baseURL)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 200 * time.Millisecond
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL: parsed,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost:   10,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		limiter:    rate.NewLimiter(limit, burst),
		timeout:    timeout,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger.Named("vpic"),
	}, nil
}

// Exists reports whether model is listed for vehicleMake. The whole check,
// retries included, is bounded by the client timeout. Any failure yields
// Unknown together with an error wrapping ErrUnavailable.
func (c *Client) Exists(ctx context.Context, vehicleMake, model string) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	models, err := c.modelsForMake(ctx, vehicleMake)
	if err != nil {
		return Unknown, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if containsModel(models, model) {
		return Confirmed, nil
	}
	return NotFound, nil
}

func (c *Client) modelsForMake(ctx context.Context, vehicleMake string) ([]modelResult, error) {
	const route = "/vehicles/GetModelsForMake/"
	endpoint := *c.baseURL
	endpoint.Path = c.baseURL.Path + route + vehicleMake
	endpoint.RawPath = c.baseURL.EscapedPath() + route + url.PathEscape(vehicleMake)
	endpoint.RawQuery = url.Values{"format": []string{"json"}}.Encode()

	var lastErr error
	delay := c.retryDelay
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying model lookup",
				zap.String("make", vehicleMake),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
			case <-time.After(delay):
			}
			delay = min(delay*2, maxRetryDelay)
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		models, retry, err := c.fetch(ctx, endpoint.String())
		if err == nil {
			return models, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// fetch performs one request. The boolean reports whether the failure is worth retrying.
func (c *Client) fetch(ctx context.Context, endpoint string) ([]modelResult, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, shouldRetry(resp.StatusCode), fmt.Errorf("upstream returned %d", resp.StatusCode)
	}

	var payload modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("decode vpic response: %w", err)
	}
	return payload.Results, false, nil
}

func shouldRetry(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

type modelsResponse struct {
	Count          int           `json:"Count"`
	Message        string        `json:"Message"`
	SearchCriteria string        `json:"SearchCriteria"`
	Results        []modelResult `json:"Results"`
}

type modelResult struct {
	MakeID    int    `json:"Make_ID"`
	MakeName  string `json:"Make_Name"`
	ModelID   int    `json:"Model_ID"`
	ModelName string `json:"Model_Name"`
}

// containsModel matches model names exactly; vPIC casing is significant.
func containsModel(results []modelResult, model string) bool {
	for _, r := range results {
		if r.ModelName == model {
			return true
		}
	}
	return false
}
