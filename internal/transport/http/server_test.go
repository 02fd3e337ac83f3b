package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshdurbin/shortlink/internal/cache/maintainer"
	"github.com/joshdurbin/shortlink/internal/cache/memory"
	rediscache "github.com/joshdurbin/shortlink/internal/cache/redis"
	"github.com/joshdurbin/shortlink/internal/domain"
	"github.com/joshdurbin/shortlink/internal/logging"
	"github.com/joshdurbin/shortlink/internal/metrics"
	"github.com/joshdurbin/shortlink/internal/repository/sqlite"
	"github.com/joshdurbin/shortlink/internal/service"
	"github.com/joshdurbin/shortlink/internal/shortener"
)

type stack struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
	local  *memory.Cache
	client *http.Client
}

func setupStack(t *testing.T) *stack {
	t.Helper()
	ctx := context.Background()
	logger := logging.Discard()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	repo, err := sqlite.New(filepath.Join(t.TempDir(), "shortlink.db"))
	require.NoError(t, err)

	local, err := memory.New(100)
	require.NoError(t, err)

	redisServer := miniredis.RunT(t)
	distributed, err := rediscache.New(ctx, rediscache.Options{Addr: redisServer.Addr(), TTL: time.Hour})
	require.NoError(t, err)

	cfg := maintainer.DefaultConfig()
	cfg.TaskTimeout = 200 * time.Millisecond
	cacheMaintainer := maintainer.New(cfg, local, distributed, logger, m)

	encoder, err := shortener.NewEncoder(shortener.DefaultConfig())
	require.NoError(t, err)

	shortlinks := service.New(
		service.NewResolver(local, distributed, repo, cacheMaintainer, logger, m),
		service.NewWriter(service.WriterConfig{}, repo, encoder, local, cacheMaintainer, logger, m),
	)

	server := httptest.NewServer(NewRouter(NewHandler(shortlinks, logger), registry))
	t.Cleanup(func() {
		server.Close()
		cacheMaintainer.Close()
		distributed.Close()
		repo.Close()
	})

	return &stack{
		server: server,
		redis:  redisServer,
		local:  local,
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (s *stack) write(t *testing.T, body string) []domain.WriteItem {
	t.Helper()
	resp, err := s.client.Post(s.server.URL+"/api/mappings", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []domain.WriteItem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	return items
}

func (s *stack) redirect(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := s.client.Get(s.server.URL + "/" + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode, resp.Header.Get("Location")
}

// location follows no redirect and reports the Location header, or "" on error
func (s *stack) location(path string) string {
	resp, err := s.client.Get(s.server.URL + "/" + path)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	return resp.Header.Get("Location")
}

func (s *stack) cachedLocally(path, url string) func() bool {
	return func() bool {
		cached, found, _ := s.local.Get(context.Background(), path)
		return found && cached == url
	}
}

func TestServer_EndToEnd(t *testing.T) {
	s := setupStack(t)

	items := s.write(t, `[{"url":"https://example.com"},{"path":"docs/home","url":"https://example.com/v1"},{"path":"nosep","url":"https://example.com"}]`)
	require.Len(t, items, 3)
	assert.Equal(t, domain.WriteItem{Path: "EAaArV", URL: "https://example.com"}, items[0])
	assert.Equal(t, domain.WriteItem{Path: "docs/home", URL: "https://example.com/v1"}, items[1])
	assert.Equal(t, "path must contain a separator", items[2].Error)

	status, location := s.redirect(t, "EAaArV")
	assert.Equal(t, http.StatusFound, status)
	assert.Equal(t, "https://example.com", location)

	// a store hit fills both cache tiers in the background
	assert.Eventually(t, func() bool {
		cached, err := s.redis.Get("shortlink:EAaArV")
		return err == nil && cached == "https://example.com"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, s.cachedLocally("EAaArV", "https://example.com"), 2*time.Second, 10*time.Millisecond)

	status, location = s.redirect(t, "docs/home")
	assert.Equal(t, http.StatusFound, status)
	assert.Equal(t, "https://example.com/v1", location)
	require.Eventually(t, s.cachedLocally("docs/home", "https://example.com/v1"), 2*time.Second, 10*time.Millisecond)

	items = s.write(t, `{"path":"docs/home","url":"https://example.com/v2"}`)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Error)

	// the distributed tier is cleared in the background; once it is, v1 never comes back
	require.Eventually(t, func() bool {
		return s.location("docs/home") == "https://example.com/v2"
	}, 2*time.Second, 10*time.Millisecond)
	for i := 0; i < 3; i++ {
		status, location = s.redirect(t, "docs/home")
		assert.Equal(t, http.StatusFound, status)
		assert.Equal(t, "https://example.com/v2", location)
	}

	// later store hits refill the distributed tier with v2
	assert.Eventually(t, func() bool {
		s.location("docs/home")
		cached, err := s.redis.Get("shortlink:docs/home")
		return err == nil && cached == "https://example.com/v2"
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := s.client.Get(s.server.URL + "/api/mappings/docs/home")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mapping domain.ResolveResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&mapping))
	assert.Equal(t, "https://example.com/v2", mapping.URL)

	status, _ = s.redirect(t, "unknown/path")
	assert.Equal(t, http.StatusNotFound, status)

	// repeat writes of the same URL reuse the short link
	items = s.write(t, `[{"url":"https://example.com"}]`)
	assert.Equal(t, "EAaArV", items[0].Path)

	// the API routes would shadow any mapping under api/
	items = s.write(t, `[{"path":"api/mappings/x","url":"https://example.com"}]`)
	assert.Equal(t, "path uses the reserved api/ prefix", items[0].Error)
}

func TestServer_DistributedCacheDown(t *testing.T) {
	s := setupStack(t)
	s.redis.Close()

	items := s.write(t, `[{"url":"https://go.dev"}]`)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Error)
	assert.Equal(t, "bn9Y9r", items[0].Path)

	status, location := s.redirect(t, "bn9Y9r")
	assert.Equal(t, http.StatusFound, status)
	assert.Equal(t, "https://go.dev", location)
}
