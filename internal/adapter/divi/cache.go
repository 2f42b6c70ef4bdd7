package divi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/divi-occupancy-etl/internal/observability"
	"github.com/google/renameio/v2"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// Request describes one cached fetch.
type Request struct {
	URL       string
	CacheFile string
	Method    string     // http.MethodGet or http.MethodPost
	Form      url.Values // sent form-encoded with POST
	MaxAge    time.Duration
	Kind      string // metrics label: "listing" or "report"
}

// FileCache fetches URLs through a file cache. A cache file younger than the
// request's MaxAge is returned without touching the network. Network requests
// are throttled and never retried.
type FileCache struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	clock      clockwork.Clock
	userAgent  string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewFileCache creates a FileCache. perSecond limits network requests.
func NewFileCache(timeout time.Duration, perSecond float64, userAgent string, metrics *observability.Metrics, logger *slog.Logger) *FileCache {
	return &FileCache{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
		clock:      clockwork.NewRealClock(),
		userAgent:  userAgent,
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch returns the body for req, from the cache file when fresh.
func (c *FileCache) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if body, ok := c.fresh(req); ok {
		c.metrics.FetchRequests.WithLabelValues(req.Kind, "hit").Inc()
		c.logger.Debug("cache hit", "url", req.URL, "cache_file", req.CacheFile)
		return body, nil
	}

	body, err := c.download(ctx, req)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(req.Kind, "error").Inc()
		return nil, err
	}
	c.metrics.FetchRequests.WithLabelValues(req.Kind, "miss").Inc()
	c.metrics.DownloadedBytes.Add(float64(len(body)))

	if err := writeFile(req.CacheFile, body); err != nil {
		return nil, err
	}
	c.logger.Info("fetched", "url", req.URL, "cache_file", req.CacheFile, "bytes", len(body))
	return body, nil
}

func (c *FileCache) fresh(req Request) ([]byte, bool) {
	info, err := os.Stat(req.CacheFile)
	if err != nil || info.IsDir() {
		return nil, false
	}
	if c.clock.Since(info.ModTime()) >= req.MaxAge {
		return nil, false
	}
	body, err := os.ReadFile(req.CacheFile)
	if err != nil {
		return nil, false
	}
	return body, true
}

func (c *FileCache) download(ctx context.Context, req Request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader(req.Form.Encode())
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if method == http.MethodPost {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	start := c.clock.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}
	defer resp.Body.Close()
	c.metrics.FetchDuration.WithLabelValues(req.Kind).Observe(c.clock.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s %s: status %d: %s", method, req.URL, resp.StatusCode, snippet)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.URL, err)
	}
	return data, nil
}

// writeFile replaces path atomically, creating parent directories.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write cache file %s: %w", path, err)
	}
	return nil
}
