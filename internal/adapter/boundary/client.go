package boundary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/floreser-dashboard/internal/observability"
)

// ErrUpstream reports that the boundary source failed or returned an unusable payload.
var ErrUpstream = errors.New("boundary upstream error")

const (
	breakerName     = "boundary-geojson"
	maxBodyBytes    = 128 << 20
	maxErrorExcerpt = 512
)

// Fetcher returns the raw boundary feature collection.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Client downloads the municipality boundary GeoJSON from a fixed URL.
type Client struct {
	url        string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a boundary client. Requests are bounded by timeout and
// pass through a circuit breaker that opens after five consecutive failures.
func NewClient(url string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	c := &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A caller that gave up says nothing about the upstream's health.
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return c
}

// Fetch downloads the feature collection. The payload is returned unchanged
// once it is known to be well-formed JSON.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doRequest(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.metrics.BoundaryRequests.WithLabelValues("rejected").Inc()
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		if errors.Is(err, context.Canceled) {
			c.metrics.BoundaryRequests.WithLabelValues("canceled").Inc()
			return nil, err
		}
		c.metrics.BoundaryRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.BoundaryRequests.WithLabelValues("success").Inc()
	return body, nil
}

func (c *Client) doRequest(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.BoundaryFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: request: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorExcerpt))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, excerpt)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrUpstream, maxBodyBytes)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrUpstream)
	}

	c.logger.Debug("boundary fetched", "url", c.url, "bytes", len(body), "duration_ms", time.Since(start).Milliseconds())
	return body, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
