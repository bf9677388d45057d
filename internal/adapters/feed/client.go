// Package feed downloads and parses the NVD yearly JSON feeds.
package feed

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/ports"
	"github.com/lcalzada-xor/cvelens/internal/telemetry"
)

// DefaultBaseURL is the NVD 2.0 feed directory.
const DefaultBaseURL = "https://nvd.nist.gov/feeds/json/cve/2.0/"

// DefaultMaxAttempts bounds the download retries.
const DefaultMaxAttempts = 6

// Client fetches feed files with bounded exponential backoff.
type Client struct {
	baseURL     string
	apiKey      string
	http        *http.Client
	maxAttempts int
	newBackOff  func() backoff.BackOff
	logger      *slog.Logger
}

var _ ports.FeedSource = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends key in the apiKey header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMaxAttempts sets the attempt budget.
func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

// WithBackOff replaces the delay schedule. f is called once per download.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a feed client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c := &Client{
		baseURL:     baseURL,
		http:        &http.Client{Timeout: 5 * time.Minute},
		maxAttempts: DefaultMaxAttempts,
		newBackOff:  NewExponentialBackOff,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewExponentialBackOff waits about 1s before the first retry and doubles the wait
// after each one, randomized by up to half either way.
func NewExponentialBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Get downloads url. Rate limiting, server errors and transport failures are retried;
// other client errors fail at once.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	attempts := 0
	op := func() ([]byte, error) {
		attempts++
		return c.attempt(ctx, url)
	}
	notify := func(err error, delay time.Duration) {
		c.logger.Warn("Feed request failed, retrying", "url", url, "attempt", attempts, "delay", delay, "error", err)
	}

	retries := 0
	if c.maxAttempts > 1 {
		retries = c.maxAttempts - 1
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(retries)), ctx)

	body, err := backoff.RetryNotifyWithData(op, policy, notify)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &FetchError{URL: url, Attempts: attempts, Err: err}
	}
	telemetry.FeedRequests.WithLabelValues("ok").Inc()
	c.logger.Info("Fetched feed", "url", url)
	return body, nil
}

// attempt performs one request. Errors that must not be retried are wrapped with
// backoff.Permanent.
func (c *Client) attempt(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", "cvelens/1.0")
	if c.apiKey != "" {
		req.Header.Set("apiKey", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		telemetry.FeedRequests.WithLabelValues("error").Inc()
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		telemetry.FeedRequests.WithLabelValues("rate_limited").Inc()
		return nil, &StatusError{Code: resp.StatusCode}
	case resp.StatusCode >= 500:
		telemetry.FeedRequests.WithLabelValues("server_error").Inc()
		return nil, &StatusError{Code: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		telemetry.FeedRequests.WithLabelValues("client_error").Inc()
		return nil, backoff.Permanent(&StatusError{Code: resp.StatusCode})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.FeedRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	return body, nil
}

// YearURL returns the feed file URL of a year.
func (c *Client) YearURL(year int) string {
	return fmt.Sprintf("%snvdcve-2.0-%d.json.gz", c.baseURL, year)
}

// FetchYear downloads and parses one yearly feed. Items that cannot be parsed are
// skipped with a warning.
func (c *Client) FetchYear(ctx context.Context, year int) ([]domain.CVERecord, error) {
	c.logger.Info("Fetching feed", "year", year)
	raw, err := c.Get(ctx, c.YearURL(year))
	if err != nil {
		return nil, err
	}
	data, err := maybeGunzip(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress feed %d: %w", year, err)
	}

	items, err := splitItems(data)
	if err != nil {
		return nil, fmt.Errorf("parse feed %d: %w", year, err)
	}

	records := make([]domain.CVERecord, 0, len(items))
	for _, item := range items {
		rec, err := ParseItem(item)
		if err != nil {
			c.logger.Warn("Skipping feed item", "year", year, "error", err)
			continue
		}
		records = append(records, rec)
	}
	telemetry.RecordsHarvested.WithLabelValues(strconv.Itoa(year)).Add(float64(len(records)))
	c.logger.Info("Finished fetching feed", "year", year, "records", len(records))
	return records, nil
}

func maybeGunzip(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return out, nil
}
