package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// The package-level tracer is an OTel global delegate that binds permanently
// to the first SetTracerProvider call, so all tests must share one
// provider/exporter pair and reset recorded spans between tests.
var (
	setupOnce      sync.Once
	sharedExporter *tracetest.InMemoryExporter
	sharedProvider *sdktrace.TracerProvider
)

func setupExporter(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	setupOnce.Do(func() {
		sharedExporter = tracetest.NewInMemoryExporter()
		sharedProvider = sdktrace.NewTracerProvider(sdktrace.WithSyncer(sharedExporter))
		otel.SetTracerProvider(sharedProvider)
	})
	sharedExporter.Reset()
	return sharedExporter, sharedProvider
}

func TestMiddleware_CreatesSpan(t *testing.T) {
	exporter, tp := setupExporter(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"verdict":"TRUE"}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/verify", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "POST /v1/verify" {
		t.Errorf("span name = %q, want 'POST /v1/verify'", spans[0].Name)
	}

	var gotStatus int64 = -1
	for _, attr := range spans[0].Attributes {
		if attr.Key == "http.status_code" {
			gotStatus = attr.Value.AsInt64()
		}
	}
	if gotStatus != http.StatusOK {
		t.Errorf("http.status_code attribute = %d, want 200", gotStatus)
	}
}

func TestMiddleware_AddsTraceIDHeader(t *testing.T) {
	setupExporter(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Header().Get("X-Trace-Id") == "" {
		t.Error("X-Trace-Id header not set")
	}
}

func TestMiddleware_MarksErrorSpansFor5xx(t *testing.T) {
	exporter, tp := setupExporter(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/verify", nil))

	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	found := false
	for _, attr := range spans[0].Attributes {
		if attr.Key == attribute.Key("error") && attr.Value.AsBool() {
			found = true
		}
	}
	if !found {
		t.Error("error attribute not set on 5xx span")
	}
}
