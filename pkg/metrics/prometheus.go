// Package metrics provides Prometheus metrics for the rebound service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload results used as label values.
const (
	UploadAccepted = "accepted"
	UploadRejected = "rejected"
)

// Manager manages all Prometheus metrics for the rebound service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Roster
	studentsScored  prometheus.Counter
	rosterSize      prometheus.Gauge
	studentsByLevel *prometheus.GaugeVec
	uploads         *prometheus.CounterVec
	scoringLatency  prometheus.Histogram
	scoringErrors   prometheus.Counter

	// Ad hoc predictions
	predictions *prometheus.CounterVec

	// Plans and progress
	plansGenerated   prometheus.Counter
	planNotFound     prometheus.Counter
	modulesCompleted prometheus.Counter
	trackedStudents  prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rebound",
		subsystem:        "roster",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

//nolint:funlen // one place for every metric definition
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.studentsScored = auto.NewCounter(m.counterOpts(
		"students_scored_total", "Total number of student records scored"))
	m.rosterSize = auto.NewGauge(m.gaugeOpts(
		"size", "Number of students in the current roster"))
	m.studentsByLevel = auto.NewGaugeVec(m.gaugeOpts(
		"students_by_risk_level", "Students in the current roster per risk level"),
		[]string{"level"})
	m.uploads = auto.NewCounterVec(m.counterOpts(
		"uploads_total", "Roster uploads by result"),
		[]string{"result"})
	m.scoringLatency = auto.NewHistogram(m.histogramOpts(
		"scoring_latency_milliseconds", "Latency of scoring a whole roster in milliseconds", m.histogramBuckets))
	m.scoringErrors = auto.NewCounter(m.counterOpts(
		"scoring_errors_total", "Total number of records rejected by the scorer"))

	m.predictions = auto.NewCounterVec(m.counterOpts(
		"predictions_total", "Ad hoc single-record predictions by risk level"),
		[]string{"level"})

	m.plansGenerated = auto.NewCounter(m.counterOpts(
		"plans_generated_total", "Total number of recommendation plans built"))
	m.planNotFound = auto.NewCounter(m.counterOpts(
		"plan_not_found_total", "Plan lookups for student ids missing from the roster"))
	m.modulesCompleted = auto.NewCounter(m.counterOpts(
		"modules_completed_total", "Total number of completed modules recorded"))
	m.trackedStudents = auto.NewGauge(m.gaugeOpts(
		"progress_students", "Number of student ids with recorded progress"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts(
		"errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordStudentsScored adds n to the scored students counter.
func RecordStudentsScored(n int) {
	globalManager.studentsScored.Add(float64(n))
}

// UpdateRosterSize sets the number of students in the roster.
func UpdateRosterSize(n int) {
	globalManager.rosterSize.Set(float64(n))
}

// UpdateStudentsByLevel sets the per-level roster gauge.
func UpdateStudentsByLevel(level string, n int) {
	globalManager.studentsByLevel.WithLabelValues(level).Set(float64(n))
}

// RecordUpload counts a roster upload with the given result.
func RecordUpload(result string) {
	globalManager.uploads.WithLabelValues(result).Inc()
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordScoringError increments the scoring errors counter.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// RecordPrediction counts an ad hoc prediction.
func RecordPrediction(level string) {
	globalManager.predictions.WithLabelValues(level).Inc()
}

// RecordPlanGenerated increments the plans counter.
func RecordPlanGenerated() {
	globalManager.plansGenerated.Inc()
}

// RecordPlanNotFound increments the plan miss counter.
func RecordPlanNotFound() {
	globalManager.planNotFound.Inc()
}

// RecordModuleCompleted increments the completed modules counter.
func RecordModuleCompleted() {
	globalManager.modulesCompleted.Inc()
}

// UpdateTrackedStudents sets the number of ids in the progress store.
func UpdateTrackedStudents(n int) {
	globalManager.trackedStudents.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
