package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	Init()

	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/v1/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpReqs.WithLabelValues("/v1/items/{id}", http.MethodGet, "404"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/items/abc", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	after := testutil.ToFloat64(httpReqs.WithLabelValues("/v1/items/{id}", http.MethodGet, "404"))
	if after != before+1 {
		t.Errorf("counter went from %v to %v, want +1", before, after)
	}
}

func TestObserveUnlock(t *testing.T) {
	Init()
	Init() // idempotent

	locked := testutil.ToFloat64(UnlockEvaluations.WithLabelValues("locked"))
	unlocked := testutil.ToFloat64(UnlockEvaluations.WithLabelValues("unlocked"))

	ObserveUnlock(false)
	ObserveUnlock(true)
	ObserveUnlock(true)

	if got := testutil.ToFloat64(UnlockEvaluations.WithLabelValues("locked")); got != locked+1 {
		t.Errorf("locked = %v, want %v", got, locked+1)
	}
	if got := testutil.ToFloat64(UnlockEvaluations.WithLabelValues("unlocked")); got != unlocked+2 {
		t.Errorf("unlocked = %v, want %v", got, unlocked+2)
	}
}

func TestSetupTracing_NoopWithoutEndpoint(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupTracing_WithEndpoint(t *testing.T) {
	// Non-routable address; nothing is exported before shutdown.
	shutdown, err := SetupTracing(context.Background(), "http://192.0.2.1:4318")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, span := Tracer().Start(context.Background(), "test")
	if !span.SpanContext().IsValid() {
		t.Error("expected a recording span from the SDK provider")
	}
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
