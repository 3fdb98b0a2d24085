package stormevents

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/couchcryptid/storm-data-reconciler/internal/observability"
)

const metricSource = "storm_events"

// detailsFileRe matches a quoted link to a yearly details file and captures
// the file name, the year, and the revision stamp.
var detailsFileRe = regexp.MustCompile(`href="(StormEvents_details-ftp_v1\.0_d(\d{4})_c(\d{8})\.csv\.gz)"`)

// ArchiveFile is one yearly details file published in the listing.
type ArchiveFile struct {
	Name     string
	Year     int
	Revision string
}

// Client lists and downloads bulk files from the NCEI directory index.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a client rooted at the csvfiles directory URL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// ListFiles returns the details files linked from the directory index,
// ordered by year then revision.
func (c *Client) ListFiles(ctx context.Context) ([]ArchiveFile, error) {
	body, err := c.get(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}
	files := ParseListing(string(body))
	c.logger.Debug("storm events listing fetched", "files", len(files))
	return files, nil
}

// FetchBytes downloads a file from the directory by name.
func (c *Client) FetchBytes(ctx context.Context, name string) ([]byte, error) {
	return c.get(ctx, c.baseURL+name)
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
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
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		c.observe("error")
		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrTransient, u, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		c.observe("error")
		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrProtocol, u, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe("error")
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrTransient, u, err)
	}
	c.observe("changed")
	return data, nil
}

func (c *Client) observe(outcome string) {
	c.metrics.FetchRequests.WithLabelValues(metricSource, outcome).Inc()
}

// ParseListing extracts the distinct details files linked from an index page.
func ParseListing(html string) []ArchiveFile {
	seen := make(map[string]bool)
	var files []ArchiveFile
	for _, m := range detailsFileRe.FindAllStringSubmatch(html, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true

		year, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		files = append(files, ArchiveFile{Name: m[1], Year: year, Revision: m[3]})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Year != files[j].Year {
			return files[i].Year < files[j].Year
		}
		return files[i].Revision < files[j].Revision
	})
	return files
}
