package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
	m.AddImportRows("students", "created", 1)
	m.IncAdmission("admitted")
	m.AddRecomputed(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("nil 指标应返回 503，实际 %d", rec.Code)
	}
}

func TestCounters(t *testing.T) {
	m := New()
	m.AddImportRows("courses", "created", 2)
	m.AddImportRows("courses", "created", 1)
	m.AddImportRows("courses", "skipped", 0)
	m.IncAdmission("conflict")

	if got := testutil.ToFloat64(m.importRows.WithLabelValues("courses", "created")); got != 3 {
		t.Errorf("期望 3，实际 %v", got)
	}
	if got := testutil.ToFloat64(m.admissions.WithLabelValues("conflict")); got != 1 {
		t.Errorf("期望 1，实际 %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "academic_import_rows_total") {
		t.Error("/metrics 输出缺少导入指标")
	}
}
