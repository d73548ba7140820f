package http

import (
	"net/http"

	"claimcheck/internal/handler/http/respond"
	"claimcheck/internal/resilience/health"
	"claimcheck/internal/usecase/verify"
)

// HealthHandler reports service liveness and the provider circuit state.
type HealthHandler struct {
	svc *verify.Service
}

// NewHealthHandler creates the health endpoint handler.
func NewHealthHandler(svc *verify.Service) *HealthHandler {
	return &HealthHandler{svc: svc}
}

type healthResponse struct {
	Status        string        `json:"status"`
	Providers     health.Status `json:"providers"`
	CacheEntries  int           `json:"cache_entries"`
	ActiveCallers int           `json:"active_callers"`
}

// Health handles GET /healthz. The status degrades to "degraded" when any
// provider circuit is open; the endpoint itself always answers 200 while
// the process is alive.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	providers := h.svc.ProviderStatus()

	status := "ok"
	if len(providers.InCooldown) > 0 {
		status = "degraded"
	}

	active, err := h.svc.ActiveCallers(r.Context())
	if err != nil {
		active = -1
	}

	respond.JSON(w, http.StatusOK, healthResponse{
		Status:        status,
		Providers:     providers,
		CacheEntries:  h.svc.CacheLen(),
		ActiveCallers: active,
	})
}
