package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAccumulate(t *testing.T) {
	before := testutil.ToFloat64(SettlementsTotal.WithLabelValues("Cash", "success"))
	SettlementsTotal.WithLabelValues("Cash", "success").Inc()
	SettlementsTotal.WithLabelValues("Cash", "success").Inc()

	if got := testutil.ToFloat64(SettlementsTotal.WithLabelValues("Cash", "success")); got != before+2 {
		t.Errorf("settlements = %v, want %v", got, before+2)
	}
}

func TestHandlerExposesRegisteredMetrics(t *testing.T) {
	ClockExpirations.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tempo_clock_expirations_total") {
		t.Error("expiration counter missing from exposition")
	}
}
