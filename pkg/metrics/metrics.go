// Package metrics HTTP 请求与业务事件的 Prometheus 指标。
// 所有方法对 nil 接收者安全，未启用指标时可直接传 nil。
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标注册表
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	importRows      *prometheus.CounterVec
	importDuration  *prometheus.HistogramVec
	admissions      *prometheus.CounterVec
	recomputed      prometheus.Counter
}

// New 注册全部指标
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "academic_import_rows_total",
		Help: "Spreadsheet import outcomes by entity and result",
	}, []string{"entity", "outcome"})

	importDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "academic_import_duration_seconds",
		Help:    "Duration of spreadsheet import batches",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	admissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "academic_admissions_total",
		Help: "Enrollment admission attempts by result",
	}, []string{"outcome"})

	recomputed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "academic_final_grades_recomputed_total",
		Help: "Final grades rewritten after a weight change",
	})

	registry.MustRegister(requestDuration, requestTotal, importRows, importDuration, admissions, recomputed,
		collectors.NewGoCollector())

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		importRows:      importRows,
		importDuration:  importDuration,
		admissions:      admissions,
		recomputed:      recomputed,
	}
}

// Handler 暴露 /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry 供测试读取
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest 记录一次 HTTP 请求
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// AddImportRows 累加导入结果，outcome 取 created/skipped/enriched/updated/error
func (m *Metrics) AddImportRows(entity, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importRows.WithLabelValues(entity, outcome).Add(float64(n))
}

// ObserveImport 记录一次导入批次耗时，kind 取 courses/roster
func (m *Metrics) ObserveImport(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.importDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// IncAdmission 记录选课准入结果
func (m *Metrics) IncAdmission(outcome string) {
	if m == nil {
		return
	}
	m.admissions.WithLabelValues(outcome).Inc()
}

// AddRecomputed 记录占比变更后重算的总评条数
func (m *Metrics) AddRecomputed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recomputed.Add(float64(n))
}
