package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the scoring service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Throw intake
	throwsReceived  prometheus.Counter
	throwsDuplicate prometheus.Counter
	throwsRejected  *prometheus.CounterVec

	// Scoring
	throwsScored   *prometheus.CounterVec
	pointsAwarded  prometheus.Counter
	scoringErrors  *prometheus.CounterVec
	scoringLatency prometheus.Histogram

	// Leaderboard
	leaderboardUpdates prometheus.Counter
	leaderboardErrors  prometheus.Counter
	totalPlayers       prometheus.Gauge
	snapshotDuration   prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// Journal
	journalWrites  prometheus.Counter
	journalErrors  *prometheus.CounterVec
	journalLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "oche",
		subsystem:        "scoring",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.throwsReceived = m.counter("throws_received_total", "Total number of throws accepted for scoring")
	m.throwsDuplicate = m.counter("throws_duplicate_total", "Total number of duplicate throws detected")
	m.throwsRejected = m.counterVec("throws_rejected_total", "Total number of throws rejected at intake by reason", "reason")

	m.throwsScored = m.counterVec("throws_scored_total", "Total number of throws scored by ring", "ring")
	m.pointsAwarded = m.counter("points_awarded_total", "Total number of points awarded across all players")
	m.scoringErrors = m.counterVec("errors_total", "Total number of scoring errors by kind", "kind")
	m.scoringLatency = m.histogram("latency_milliseconds", "Histogram of scoring latency in milliseconds")

	m.leaderboardUpdates = m.counter("leaderboard_updates_total", "Total number of running total updates")
	m.leaderboardErrors = m.counter("leaderboard_errors_total", "Total number of leaderboard update errors")
	m.totalPlayers = m.gauge("total_players", "Number of players on the leaderboard")
	m.snapshotDuration = m.histogram("leaderboard_snapshot_duration_milliseconds", "Time taken to rebuild the leaderboard snapshot")

	m.queueSize = m.gauge("queue_size", "Current number of throws waiting to be scored")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of throws the queue can hold")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Total number of throws enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Total number of throws dequeued")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Total number of failed enqueues by reason", "reason")

	m.workerCount = m.gauge("worker_count", "Current number of scoring workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time a worker spends on one throw")

	m.journalWrites = m.counter("journal_writes_total", "Total number of throws written to the journal")
	m.journalErrors = m.counterVec("journal_errors_total", "Total number of journal errors by operation", "op")
	m.journalLatency = m.histogram("journal_latency_milliseconds", "Journal write latency in milliseconds")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.httpErrors = m.counterVec("http_errors_total", "Total number of HTTP error responses by endpoint and type",
		"endpoint", "error_type", "severity")
}

// ThrowScored records one scored throw.
func (m *Manager) ThrowScored(ring string, points int) {
	m.throwsScored.WithLabelValues(ring).Inc()
	if points > 0 {
		m.pointsAwarded.Add(float64(points))
	}
}

// ScoringError records a failed scoring attempt.
func (m *Manager) ScoringError(kind string) {
	m.scoringErrors.WithLabelValues(kind).Inc()
}

// Global recorders.

// RecordThrowReceived increments the accepted throws counter.
func RecordThrowReceived() {
	globalManager.throwsReceived.Inc()
}

// RecordThrowDuplicate increments the duplicate throws counter.
func RecordThrowDuplicate() {
	globalManager.throwsDuplicate.Inc()
}

// RecordThrowRejected counts a throw rejected at intake.
func RecordThrowRejected(reason string) {
	globalManager.throwsRejected.WithLabelValues(reason).Inc()
}

// RecordThrowScored records a scored throw by ring and the points it awarded.
func RecordThrowScored(ring string, points int) {
	globalManager.ThrowScored(ring, points)
}

// RecordScoringError counts a scoring failure by kind.
func RecordScoringError(kind string) {
	globalManager.ScoringError(kind)
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordLeaderboardUpdate increments the leaderboard updates counter.
func RecordLeaderboardUpdate() {
	globalManager.leaderboardUpdates.Inc()
}

// RecordLeaderboardError increments the leaderboard errors counter.
func RecordLeaderboardError() {
	globalManager.leaderboardErrors.Inc()
}

// UpdateTotalPlayers sets the number of players on the leaderboard.
func UpdateTotalPlayers(count int) {
	globalManager.totalPlayers.Set(float64(count))
}

// RecordSnapshotDuration records how long a leaderboard snapshot took to build.
func RecordSnapshotDuration(latencyMs float64) {
	globalManager.snapshotDuration.Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a failed enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records the time spent on one throw.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordJournalWrite increments the journal writes counter.
func RecordJournalWrite() {
	globalManager.journalWrites.Inc()
}

// RecordJournalError counts a journal failure by operation.
func RecordJournalError(op string) {
	globalManager.journalErrors.WithLabelValues(op).Inc()
}

// RecordJournalLatency records journal write latency in milliseconds.
func RecordJournalLatency(latencyMs float64) {
	globalManager.journalLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method string, statusCode int) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method string, statusCode int, latencyMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Observe(latencyMs)
}

// RecordHTTPError records an HTTP error response.
func RecordHTTPError(endpoint, errorType, severity string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType, severity).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
