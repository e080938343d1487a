package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linebridge/bridge/internal/healthcheck"
)

type staticSnapshot healthcheck.Snapshot

func (s staticSnapshot) Snapshot() healthcheck.Snapshot { return healthcheck.Snapshot(s) }

func TestHealthRoutes(t *testing.T) {
	t.Parallel()

	e := echo.New()
	NewHealthHandler(nil, staticSnapshot{Status: healthcheck.StatusOK, Checks: []healthcheck.CheckResult{{ID: "line.token.1", Status: healthcheck.StatusOK}}}).Register(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var snap healthcheck.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, healthcheck.StatusOK, snap.Status)
	require.Len(t, snap.Checks, 1)
	assert.Equal(t, "line.token.1", snap.Checks[0].ID)
}

func TestHealthErrorIsUnavailable(t *testing.T) {
	t.Parallel()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	h := NewHealthHandler(nil, staticSnapshot{Status: healthcheck.StatusError})
	require.NoError(t, h.Health(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthWithoutSource(t *testing.T) {
	t.Parallel()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	require.NoError(t, NewHealthHandler(nil, nil).Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unknown"`)
}
