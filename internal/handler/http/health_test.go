package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimcheck/internal/domain/entity"
	"claimcheck/internal/resilience/health"
)

func getHealth(t *testing.T, router http.Handler) healthResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint_OK(t *testing.T) {
	router, _ := newTestRouter(t, 10, &fakeProvider{name: "alpha", verdict: entity.VerdictTrue, conf: 90})

	body := getHealth(t, router)
	assert.Equal(t, "ok", body.Status)
	assert.Empty(t, body.Providers.InCooldown)
	assert.Equal(t, 0, body.CacheEntries)
}

func TestHealthEndpoint_DegradedWhenProviderTripped(t *testing.T) {
	router, tracker := newTestRouter(t, 10, &fakeProvider{name: "alpha", verdict: entity.VerdictTrue, conf: 90})

	for i := 0; i < health.DefaultConfig().FailureThreshold; i++ {
		tracker.RecordFailure("alpha", 503)
	}

	body := getHealth(t, router)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, []string{"alpha"}, body.Providers.InCooldown)
}

func TestHealthEndpoint_ReportsUsageStats(t *testing.T) {
	router, _ := newTestRouter(t, 10, &fakeProvider{name: "alpha", verdict: entity.VerdictTrue, conf: 90})

	rec := postVerify(t, router, `{"claim":"warm the cache"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := getHealth(t, router)
	assert.Equal(t, 1, body.CacheEntries)
	assert.Equal(t, 1, body.ActiveCallers)
}
