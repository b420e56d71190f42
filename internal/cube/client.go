package cube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/FNNDSC/pl-dylld/internal/domain"
	"github.com/FNNDSC/pl-dylld/internal/orchestrator"
	"github.com/FNNDSC/pl-dylld/internal/seed"
	"github.com/FNNDSC/pl-dylld/internal/telemetry"
)

const (
	// DefaultTimeout — таймаут одного HTTP-запроса.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRequests — одновременных запросов к платформе.
	DefaultMaxRequests = 8

	// maxErrorBody — сколько байт тела ошибки попадает в APIError.
	maxErrorBody = 2048
)

// Config — параметры подключения к CUBE.
type Config struct {
	// URL — корень API, например http://localhost:8000/api/v1/.
	URL string

	User     string
	Password string

	// Timeout — таймаут запроса (default: 30s).
	Timeout time.Duration

	// MaxRequests — предел одновременных запросов (default: 8).
	MaxRequests int64

	// RequestsPerSecond — предел частоты запросов (0 — без ограничения).
	RequestsPerSecond float64

	// HTTPClient — опционально, для тестов.
	HTTPClient *http.Client
}

// Client — HTTP-клиент CUBE API.
type Client struct {
	base       *url.URL
	user       string
	password   string
	httpClient *http.Client
	sem        *semaphore.Weighted
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New создаёт клиент.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidConfig)
	}

	raw := cfg.URL
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidConfig, base.Scheme)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		base:       base,
		user:       cfg.User,
		password:   cfg.Password,
		httpClient: httpClient,
		sem:        semaphore.NewWeighted(cfg.MaxRequests),
		limiter:    limiter,
		logger:     logger.With("component", "cube"),
	}, nil
}

// URL возвращает корень API.
func (c *Client) URL() string {
	return c.base.String()
}

// --- DRF wrappers ---

type page struct {
	Count   int               `json:"count"`
	Next    string            `json:"next"`
	Results []json.RawMessage `json:"results"`
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	return c.doJSON(ctx, http.MethodGet, c.resolve(path, params), nil, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPost, c.resolve(path, nil), body, result)
}

// list собирает все страницы списка.
func (c *Client) list(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	var items []json.RawMessage

	next := c.resolve(path, params)
	for next != "" {
		var p page
		if err := c.doJSON(ctx, http.MethodGet, next, nil, &p); err != nil {
			return nil, err
		}
		items = append(items, p.Results...)
		next = p.Next
	}
	return items, nil
}

func (c *Client) resolve(path string, params url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: path})
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

func (c *Client) doJSON(ctx context.Context, method, target string, body any, result any) error {
	resp, err := c.do(ctx, method, target, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(method, target, resp); err != nil {
		return err
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, target, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, target string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	telemetry.PlatformRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if err != nil {
		telemetry.PlatformRequests.WithLabelValues(method, "error").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Debug("request failed", "method", method, "url", target, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrRemoteUnavailable, method, target, err)
	}
	telemetry.PlatformRequests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	return resp, nil
}

func (c *Client) checkError(method, target string, resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, method, target)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s %s: HTTP %d", domain.ErrRemoteUnavailable, method, target, resp.StatusCode)
	default:
		return &APIError{
			Method:     method,
			Path:       target,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}
}

// IsAPIError проверяет, что err — ответ 4xx с кодом code.
func IsAPIError(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

var (
	_ orchestrator.Platform = (*Client)(nil)
	_ seed.Platform         = (*Client)(nil)
)
