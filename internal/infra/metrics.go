package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько времени заняла обработка HTTP-запроса
	RequestDuration *prometheus.HistogramVec

	// Traffic: общее кол-во запросов
	TotalRequests *prometheus.CounterVec

	// Бизнес: сколько анкет принято
	AssessmentsCreated prometheus.Counter

	// Errors: отказы хранилища по операции
	StoreErrors *prometheus.CounterVec

	// Сколько строк ушло в выгрузки по формату
	ExportedRows *prometheus.CounterVec

	// Кэш: hit, miss, error
	CacheResults *prometheus.CounterVec

	// Audit: заполненность буфера (backpressure)
	AuditBufferFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carbon_http_request_duration_seconds",
			Help:    "Histogram of request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "status"}),

		TotalRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "carbon_http_requests_total",
			Help: "Total number of processed requests.",
		}, []string{"route", "method", "status"}),

		AssessmentsCreated: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "carbon_assessments_created_total",
			Help: "Total number of stored assessments.",
		}),

		StoreErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "carbon_store_errors_total",
			Help: "Total number of store failures by operation.",
		}, []string{"op"}),

		ExportedRows: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "carbon_exported_rows_total",
			Help: "Total number of rows written to exports.",
		}, []string{"format"}), // csv, txt

		CacheResults: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "carbon_cache_results_total",
			Help: "Report cache lookups by result.",
		}, []string{"key", "result"}),

		AuditBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "carbon_audit_buffer_utilization",
			Help: "Current number of events in audit buffer.",
		}),
	}
}
