package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service exports. Collectors are
// registered on the registry given to New, so tests can use a private one.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueryDuration *prometheus.HistogramVec

	cacheHitsTotal   *prometheus.CounterVec
	cacheMissesTotal *prometheus.CounterVec

	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	advisorFallbacks   *prometheus.CounterVec

	sosTransitions *prometheus.CounterVec
	sosTriggers    prometheus.Counter

	locationUpdates  *prometheus.CounterVec
	locationRejected *prometheus.CounterVec

	reportsSubmitted *prometheus.CounterVec
	reportsPruned    prometheus.Counter
	chatMessages     *prometheus.CounterVec

	notificationsSent *prometheus.CounterVec

	sseClients prometheus.Gauge
	sseDropped *prometheus.CounterVec
}

// NewRegistry returns a registry preloaded with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,

		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		dbQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "table"}),

		cacheHitsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		}, []string{"cache"}),

		cacheMissesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		}, []string{"cache"}),

		llmRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Model API calls by operation and outcome",
		}, []string{"operation", "provider", "outcome"}),

		llmRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Model API call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"operation", "provider"}),

		advisorFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_fallbacks_total",
			Help: "Advisory answers replaced by a fallback",
		}, []string{"operation", "reason"}),

		sosTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sos_transitions_total",
			Help: "SOS state machine transitions",
		}, []string{"from", "to"}),

		sosTriggers: f.NewCounter(prometheus.CounterOpts{
			Name: "sos_triggers_total",
			Help: "SOS alerts fired",
		}),

		locationUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "location_updates_total",
			Help: "Accepted location fixes by source",
		}, []string{"source"}),

		locationRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "location_rejected_total",
			Help: "Rejected location fixes by source",
		}, []string{"source"}),

		reportsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reports_submitted_total",
			Help: "Community reports created",
		}, []string{"type", "summarized"}),

		reportsPruned: f.NewCounter(prometheus.CounterOpts{
			Name: "reports_pruned_total",
			Help: "Community reports removed by retention",
		}),

		chatMessages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Chat transcript messages by role",
		}, []string{"role"}),

		notificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Emergency contact notifications by outcome",
		}, []string{"channel", "outcome"}),

		sseClients: f.NewGauge(prometheus.GaugeOpts{
			Name: "sse_clients",
			Help: "Connected event stream clients",
		}),

		sseDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sse_events_dropped_total",
			Help: "Events discarded for slow stream clients",
		}, []string{"event"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
// Record methods are no-ops on a nil *Metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

func (m *Metrics) RecordCacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheHitsTotal.WithLabelValues(cache).Inc()
}

func (m *Metrics) RecordCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordLLMCall counts one model call. outcome is "ok" or "error".
func (m *Metrics) RecordLLMCall(operation, provider, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.llmRequestsTotal.WithLabelValues(operation, provider, outcome).Inc()
	m.llmRequestDuration.WithLabelValues(operation, provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordFallback(operation, reason string) {
	if m == nil {
		return
	}
	m.advisorFallbacks.WithLabelValues(operation, reason).Inc()
}

func (m *Metrics) RecordSOSTransition(from, to string) {
	if m == nil {
		return
	}
	m.sosTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordSOSTrigger() {
	if m == nil {
		return
	}
	m.sosTriggers.Inc()
}

func (m *Metrics) RecordLocation(source string, accepted bool) {
	if m == nil {
		return
	}
	if accepted {
		m.locationUpdates.WithLabelValues(source).Inc()
		return
	}
	m.locationRejected.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordReport(reportType string, summarized bool) {
	if m == nil {
		return
	}
	s := "false"
	if summarized {
		s = "true"
	}
	m.reportsSubmitted.WithLabelValues(reportType, s).Inc()
}

func (m *Metrics) RecordReportsPruned(n int) {
	if m == nil {
		return
	}
	m.reportsPruned.Add(float64(n))
}

func (m *Metrics) RecordChatMessage(role string) {
	if m == nil {
		return
	}
	m.chatMessages.WithLabelValues(role).Inc()
}

func (m *Metrics) RecordNotification(channel string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.notificationsSent.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) SetSSEClients(n int) {
	if m == nil {
		return
	}
	m.sseClients.Set(float64(n))
}

func (m *Metrics) RecordSSEDrop(event string) {
	if m == nil {
		return
	}
	m.sseDropped.WithLabelValues(event).Inc()
}
