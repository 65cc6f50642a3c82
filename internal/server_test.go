package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymflow/internal/auth"
	"github.com/2beens/gymflow/internal/config"
	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/capture"
	"github.com/2beens/gymflow/internal/gymflow/exercises"
	gymflowmcp "github.com/2beens/gymflow/internal/gymflow/mcp"
	"github.com/2beens/gymflow/internal/gymflow/storage"
	"github.com/2beens/gymflow/internal/middleware"
	"github.com/2beens/gymflow/internal/telemetry/metrics"
)

const testToken = "test-token"

type tokenChecker struct{}

func (tokenChecker) IsLogged(_ context.Context, token string) (bool, error) {
	return token == testToken, nil
}

type staticSchema struct{}

func (staticSchema) GetGymflowColumns(context.Context) ([]gymflowmcp.SchemaColumn, error) {
	return nil, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg, err := config.Parse("dev", `
[development]
port = 9000
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "gymflow_db"
redis_host = "localhost"
redis_port = "6379"
cors_allowed_origins = ["https://gymflow.app"]
`)
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	library, err := exercises.Library()
	require.NoError(t, err)
	_, err = exercises.Seed(context.Background(), store, library)
	require.NoError(t, err)

	rdb, _ := redismock.NewClientMock()
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	return &Server{
		config:         cfg,
		versionInfo:    "v-test",
		mcpSecret:      "mcp-secret",
		store:          store,
		schemaRepo:     staticSchema{},
		speech:         capture.UnavailableSpeech{},
		redisClient:    rdb,
		loginChecker:   tokenChecker{},
		authService:    auth.NewAuthService(&auth.Admin{Username: "admin"}, auth.DefaultTTL, rdb),
		metricsManager: metrics.NewTestManager(),
		otelShutdown:   func() {},
	}
}

func doRequest(t *testing.T, h http.Handler, method, path, body string, token bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "test-agent")
	if token {
		req.Header.Set(auth.TokenHeader, testToken)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_RouterSetup(t *testing.T) {
	s := newTestServer(t)
	r, err := s.routerSetup()
	require.NoError(t, err)

	rec := doRequest(t, r, http.MethodGet, "/version", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v-test", rec.Body.String())

	rec = doRequest(t, r, http.MethodGet, "/members", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/members", `{"name":"Ana"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var member gymflow.Member
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &member))
	assert.Equal(t, "Ana", member.Name)

	rec = doRequest(t, r, http.MethodGet, "/members/"+member.ID.String(), "", true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/exercises", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []*gymflow.Exercise
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.NotEmpty(t, list)

	rec = doRequest(t, r, http.MethodPost, "/plans", "", true)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/sessions", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)

	// registered behind the insights rate limiter
	rec = doRequest(t, r, http.MethodPost, "/members/"+member.ID.String()+"/insights", "", true)
	assert.NotEqual(t, http.StatusNotFound, rec.Code)

	assert.Greater(t, testutil.ToFloat64(s.metricsManager.CounterRequests.WithLabelValues("GET", "200")), float64(0))
}

func TestServer_RouterSetup_CorsAndMCP(t *testing.T) {
	s := newTestServer(t)
	r, err := s.routerSetup()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/members", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	req.Header.Set(auth.TokenHeader, testToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/members", nil)
	req.Header.Set("Origin", "https://gymflow.app")
	req.Header.Set(auth.TokenHeader, testToken)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://gymflow.app", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
	req.Header.Set(middleware.MCPSecretHeader, "mcp-secret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
	assert.NotEqual(t, http.StatusForbidden, rec.Code)
}
