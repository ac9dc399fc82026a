package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("GET", "/api/v1/accounts/:id", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest("GET", "/api/v1/accounts/:id", http.StatusOK, 30*time.Millisecond)
	m.ObserveRequest("GET", "/api/v1/accounts/:id", http.StatusNotFound, time.Millisecond)

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/v1/accounts/:id", "200")); got != 2 {
		t.Errorf("expected 2 OK requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/v1/accounts/:id", "404")); got != 1 {
		t.Errorf("expected 1 not-found request, got %v", got)
	}
}

func TestIncrValidationFailure(t *testing.T) {
	m := New()

	m.IncrValidationFailure("OVERLAPPING_BUDGET")
	m.IncrValidationFailure("OVERLAPPING_BUDGET")

	if got := testutil.ToFloat64(m.validationFailures.WithLabelValues("OVERLAPPING_BUDGET")); got != 2 {
		t.Errorf("expected 2 failures, got %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.IncrValidationFailure("INVALID_AMOUNT")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `prism_validation_failures_total{code="INVALID_AMOUNT"} 1`) {
		t.Error("expected validation counter in exposition output")
	}
}

func TestNewIsIndependent(t *testing.T) {
	a, b := New(), New()
	a.IncrValidationFailure("X")

	if got := testutil.ToFloat64(b.validationFailures.WithLabelValues("X")); got != 0 {
		t.Errorf("expected separate registries, got %v", got)
	}
}
