package http

import (
	"log/slog"
	"net/http"

	"claimcheck/internal/handler/http/requestid"
	"claimcheck/internal/observability/tracing"
	"claimcheck/internal/usecase/verify"
)

// NewRouter assembles the HTTP surface: the verification endpoint, health
// reporting, and the Prometheus scrape endpoint, wrapped in the standard
// middleware chain.
func NewRouter(svc *verify.Service, logger *slog.Logger) http.Handler {
	verifyHandler := NewVerifyHandler(svc)
	healthHandler := NewHealthHandler(svc)

	mux := http.NewServeMux()
	mux.Handle("POST /v1/verify",
		MetricsMiddleware("/v1/verify", http.HandlerFunc(verifyHandler.Verify)))
	mux.Handle("GET /healthz",
		MetricsMiddleware("/healthz", http.HandlerFunc(healthHandler.Health)))
	mux.Handle("GET /metrics", MetricsHandler())

	return Chain(mux,
		Recover(logger),
		requestid.Middleware,
		tracing.Middleware,
		Logging(logger),
		LimitRequestBody(maxVerifyBodyBytes),
	)
}
