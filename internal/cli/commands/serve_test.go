package commands

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmcp/buildmcp/internal/cache"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	a := &app{logLevel: "error"}
	require.NoError(t, a.setup(context.Background()))
	t.Cleanup(a.teardown)
	a.cfg.Server.RateLimit = 1

	svc, err := a.buildServices(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	handler, buckets, err := newAPIHandler(a, svc)
	require.NoError(t, err)
	require.NotNil(t, buckets, "in-memory limiter without redis")

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestServe_HealthAndRateLimit(t *testing.T) {
	isolate(t)
	srv := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := `{"description":"Notes search","target_clients":["Cursor"],"deployment_preference":"local"}`
	post := func() int {
		resp, err := http.Post(srv.URL+"/api/v1/generate", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	resp, err = http.Get(srv.URL + "/api/v1/rules")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "rules are not rate limited")
}

func TestServe_PackagesUnavailableWithoutStore(t *testing.T) {
	isolate(t)
	srv := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/api/v1/packages/abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestBuildServices_InProcessCache(t *testing.T) {
	isolate(t)
	a := &app{logLevel: "error"}
	require.NoError(t, a.setup(context.Background()))
	t.Cleanup(a.teardown)
	a.cfg.Cache.Enabled = true
	a.cfg.Cache.RedisAddr = ""

	svc, err := a.buildServices(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	assert.IsType(t, &cache.MemoryCache{}, svc.Cache)
	assert.Nil(t, svc.Redis)

	_, buckets, err := newAPIHandler(a, svc)
	require.NoError(t, err)
	assert.NotNil(t, buckets, "rate limiting stays in memory without redis")
}
