package spc

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/couchcryptid/storm-data-reconciler/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testETag = `"5f2b-61a3c0d4e8b00"`

func testClient(baseURL string) *Client {
	return NewClient(baseURL+"/", 5*time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_URL(t *testing.T) {
	c := testClient("https://example.test/climo/reports")
	assert.Equal(t, "https://example.test/climo/reports/240426_rpts_filtered.csv", c.URL(reportDay))
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/240426_rpts_filtered.csv", r.URL.Path)
		assert.Empty(t, r.Header.Get("If-None-Match"))
		w.Header().Set("ETag", testETag)
		_, _ = io.WriteString(w, hailHeader+"\n")
	}))
	defer srv.Close()

	body, etag, err := testClient(srv.URL).Fetch(context.Background(), reportDay)
	require.NoError(t, err)
	assert.Equal(t, hailHeader+"\n", body)
	assert.Equal(t, testETag, etag)
}

func TestClient_Fetch_MissingETag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, hailHeader)
	}))
	defer srv.Close()

	_, _, err := testClient(srv.URL).Fetch(context.Background(), reportDay)
	assert.ErrorIs(t, err, domain.ErrProtocol)
}

func TestClient_Fetch_RedirectNotFollowed(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path == "/index.html" {
			w.Header().Set("ETag", testETag)
			return
		}
		http.Redirect(w, r, "/index.html", http.StatusFound)
	}))
	defer srv.Close()

	_, _, err := testClient(srv.URL).Fetch(context.Background(), reportDay)
	assert.ErrorIs(t, err, domain.ErrProtocol)
	assert.Equal(t, 1, hits)
}

func TestClient_Fetch_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrProtocol},
		{http.StatusForbidden, domain.ErrProtocol},
		{http.StatusBadGateway, domain.ErrTransient},
		{http.StatusServiceUnavailable, domain.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, _, err := testClient(srv.URL).Fetch(context.Background(), reportDay)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_Fetch_TransportErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	u := srv.URL
	srv.Close()

	_, _, err := testClient(u).Fetch(context.Background(), reportDay)
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestClient_FetchIfChanged_NotModified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testETag, r.Header.Get("If-None-Match"))
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	body, etag, changed, err := testClient(srv.URL).FetchIfChanged(context.Background(), reportDay, testETag)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, body)
	assert.Empty(t, etag)
}

func TestClient_FetchIfChanged_Changed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("ETag", `"new"`)
		_, _ = io.WriteString(w, windHeader)
	}))
	defer srv.Close()

	body, etag, changed, err := testClient(srv.URL).FetchIfChanged(context.Background(), reportDay, testETag)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, windHeader, body)
	assert.Equal(t, `"new"`, etag)
}

func TestClient_FetchIfChanged_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	_, _, _, err := testClient(srv.URL).FetchIfChanged(context.Background(), reportDay, testETag)
	assert.ErrorIs(t, err, domain.ErrProtocol)
}

func TestClient_Fetch_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("ETag", testETag)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := testClient(srv.URL).Fetch(ctx, reportDay)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrTransient)
}
