package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestsTotal *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	uploadedRows  prometheus.Counter
	ftcFlagged    prometheus.Counter
	emailsSent    *prometheus.CounterVec
	loginFailures prometheus.Counter
}

// Snapshot is a point-in-time view of the domain counters.
type Snapshot struct {
	UploadedRows  float64
	FTCFlagged    float64
	EmailsSent    float64
	EmailsFailed  float64
	LoginFailures float64
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callpurity_http_requests_total",
				Help: "Total HTTP requests by route and status code.",
			},
			[]string{"route", "status"},
		),
		storeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "callpurity_store_operation_duration_seconds",
				Help:    "Duration of record store operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		uploadedRows: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "callpurity_numbers_uploaded_rows_total",
				Help: "Total phone number rows accepted from uploads.",
			},
		),
		ftcFlagged: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "callpurity_numbers_ftc_flagged_total",
				Help: "Total stored phone numbers flagged by FTC cross-checks.",
			},
		),
		emailsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callpurity_emails_total",
				Help: "Total transactional emails by outcome.",
			},
			[]string{"outcome"},
		),
		loginFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "callpurity_login_failures_total",
				Help: "Total rejected login attempts.",
			},
		),
	}
}

// IncrRequest counts a finished HTTP request.
func (m *Metrics) IncrRequest(route string, status int) {
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// ObserveStore records the duration of a store operation.
func (m *Metrics) ObserveStore(operation string, d time.Duration) {
	m.storeDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// AddUploadedRows counts rows persisted by an upload.
func (m *Metrics) AddUploadedRows(n int) {
	m.uploadedRows.Add(float64(n))
}

// AddFTCFlagged counts numbers flagged by a cross-check.
func (m *Metrics) AddFTCFlagged(n int) {
	m.ftcFlagged.Add(float64(n))
}

// IncrEmail counts an email delivery attempt; outcome is "sent" or "failed".
func (m *Metrics) IncrEmail(outcome string) {
	m.emailsSent.WithLabelValues(outcome).Inc()
}

// IncrLoginFailure counts a rejected login.
func (m *Metrics) IncrLoginFailure() {
	m.loginFailures.Inc()
}

// Snapshot reads the current cumulative counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		UploadedRows:  counterValue(m.uploadedRows),
		FTCFlagged:    counterValue(m.ftcFlagged),
		EmailsSent:    getCounterValue(m.emailsSent, "sent"),
		EmailsFailed:  getCounterValue(m.emailsSent, "failed"),
		LoginFailures: counterValue(m.loginFailures),
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return counterValue(cv.WithLabelValues(label))
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
