package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Pipeline metrics
	collectRuns      *prometheus.CounterVec
	collectDuration  prometheus.Histogram
	pricesCollected  prometheus.Counter
	evaluateRuns     *prometheus.CounterVec
	evaluateDuration prometheus.Histogram
	alertsChecked    prometheus.Counter
	alertsTriggered  prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Pipeline metrics
	r.collectRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptoalert_collect_runs_total",
			Help: "Total number of price collection runs",
		},
		[]string{"status"},
	)
	r.collectDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cryptoalert_collect_duration_seconds",
			Help:    "Price collection run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	r.pricesCollected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cryptoalert_prices_collected_total",
			Help: "Total number of price points recorded",
		},
	)
	r.evaluateRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptoalert_evaluate_runs_total",
			Help: "Total number of alert evaluation runs",
		},
		[]string{"status"},
	)
	r.evaluateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cryptoalert_evaluate_duration_seconds",
			Help:    "Alert evaluation run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	r.alertsChecked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cryptoalert_alerts_checked_total",
			Help: "Total number of alert rules evaluated",
		},
	)
	r.alertsTriggered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cryptoalert_alerts_triggered_total",
			Help: "Total number of alert rules triggered",
		},
	)

	reg.MustRegister(r.collectRuns)
	reg.MustRegister(r.collectDuration)
	reg.MustRegister(r.pricesCollected)
	reg.MustRegister(r.evaluateRuns)
	reg.MustRegister(r.evaluateDuration)
	reg.MustRegister(r.alertsChecked)
	reg.MustRegister(r.alertsTriggered)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordCollect records a completed price collection run.
func (r *Registry) RecordCollect(status string, collected int, duration float64) {
	r.collectRuns.WithLabelValues(status).Inc()
	r.collectDuration.Observe(duration)
	r.pricesCollected.Add(float64(collected))
}

// RecordEvaluate records a completed alert evaluation run.
func (r *Registry) RecordEvaluate(status string, checked, triggered int, duration float64) {
	r.evaluateRuns.WithLabelValues(status).Inc()
	r.evaluateDuration.Observe(duration)
	r.alertsChecked.Add(float64(checked))
	r.alertsTriggered.Add(float64(triggered))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
