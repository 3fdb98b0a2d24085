package spc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/couchcryptid/storm-data-reconciler/internal/observability"
)

const metricSource = "spc"

// Client downloads daily report files, revalidating with the ETag returned
// by the previous download.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a report client rooted at baseURL. Redirects are not
// followed; they surface as protocol errors.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		metrics: metrics,
		logger:  logger,
	}
}

// URL returns the report location for a weather day.
func (c *Client) URL(day time.Time) string {
	return c.baseURL + day.Format("060102") + "_rpts_filtered.csv"
}

// Fetch downloads the report for day unconditionally and returns its body
// and ETag.
func (c *Client) Fetch(ctx context.Context, day time.Time) (body, etag string, err error) {
	resp, err := c.get(ctx, day, "")
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, c.URL(day)); err != nil {
		c.observe("error")
		return "", "", err
	}
	return c.readContent(resp, day)
}

// FetchIfChanged downloads the report for day unless it still matches etag.
// changed is false when the server answers 304 Not Modified.
func (c *Client) FetchIfChanged(ctx context.Context, day time.Time, etag string) (body, newETag string, changed bool, err error) {
	resp, err := c.get(ctx, day, etag)
	if err != nil {
		return "", "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		c.observe("not_modified")
		return "", "", false, nil
	}
	if err := checkStatus(resp, c.URL(day)); err != nil {
		c.observe("error")
		return "", "", false, err
	}

	body, newETag, err = c.readContent(resp, day)
	if err != nil {
		return "", "", false, err
	}
	return body, newETag, true, nil
}

func (c *Client) get(ctx context.Context, day time.Time, etag string) (*http.Response, error) {
	u := c.URL(day)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.WithLabelValues(metricSource).Observe(time.Since(start).Seconds())
	if err != nil {
		c.observe("error")
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: get %s: %v", domain.ErrTransient, u, err)
	}
	return resp, nil
}

func (c *Client) readContent(resp *http.Response, day time.Time) (string, string, error) {
	etag := resp.Header.Get("ETag")
	if etag == "" {
		c.observe("error")
		return "", "", fmt.Errorf("%w: %s: response has no ETag", domain.ErrProtocol, c.URL(day))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe("error")
		return "", "", fmt.Errorf("%w: read %s: %v", domain.ErrTransient, c.URL(day), err)
	}

	c.observe("changed")
	c.logger.Debug("spc report downloaded", "day", day.Format(time.DateOnly), "etag", etag, "bytes", len(data))
	return string(data), etag, nil
}

func (c *Client) observe(outcome string) {
	c.metrics.FetchRequests.WithLabelValues(metricSource, outcome).Inc()
}

// checkStatus classifies non-success responses. Server errors are transient;
// redirects and client errors are protocol violations.
func checkStatus(resp *http.Response, u string) error {
	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s: status %d", domain.ErrTransient, u, resp.StatusCode)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return fmt.Errorf("%w: %s: status %d", domain.ErrProtocol, u, resp.StatusCode)
	default:
		return nil
	}
}
