// Package metrics provides Prometheus metrics for the speech-rate pipeline.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// stageLatencyBuckets covers sub-second WAV work up to multi-minute transcriptions.
var stageLatencyBuckets = []float64{5, 25, 100, 500, 1000, 5000, 15000, 60000, 180000, 600000} //nolint:gochecknoglobals // static bucket layout

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	rateBuckets    []float64
	customLabels   map[string]string
	metricPrefix   string
	registry       prometheus.Registerer

	// Recording metrics
	recordingsProcessed prometheus.Counter
	recordingsFailed    *prometheus.CounterVec
	recordingsSkipped   *prometheus.CounterVec
	stageLatency        *prometheus.HistogramVec
	inputLoudness       prometheus.Histogram
	silenceRemoved      prometheus.Histogram

	// Transcript metrics
	wordsTranscribed prometheus.Counter
	wordsDropped     prometheus.Counter

	// Subject metrics
	subjectsAggregated  prometheus.Counter
	subjectsWithoutRate prometheus.Counter
	subjectMeanRate     prometheus.Histogram

	// Queue and worker metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors prometheus.Counter
	workerActiveCount  prometheus.Gauge

	// Publication metrics
	publishErrors *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "speechrate",
		subsystem:      "pipeline",
		latencyBuckets: stageLatencyBuckets,
		rateBuckets:    prometheus.LinearBuckets(0, 1, 16),
		customLabels:   make(map[string]string),
		metricPrefix:   "",
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.recordingsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("recordings_processed_total"),
		Help:        "Recordings that reached the rates-extracted stage",
		ConstLabels: labels,
	})

	m.recordingsFailed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("recordings_failed_total"),
			Help:        "Recordings excluded from aggregation, by failing stage and reason",
			ConstLabels: labels,
		},
		[]string{"stage", "reason"},
	)

	m.recordingsSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("recordings_skipped_total"),
			Help:        "Files ignored during discovery, by reason",
			ConstLabels: labels,
		},
		[]string{"reason"},
	)

	m.stageLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("stage_latency_milliseconds"),
			Help:        "Latency of each pipeline stage in milliseconds",
			Buckets:     m.latencyBuckets,
			ConstLabels: labels,
		},
		[]string{"stage"},
	)

	m.inputLoudness = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("input_loudness_dbfs"),
		Help:        "Overall loudness of canonical recordings in dBFS",
		Buckets:     prometheus.LinearBuckets(-70, 5, 15),
		ConstLabels: labels,
	})

	m.silenceRemoved = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("silence_removed_ratio"),
		Help:        "Share of each recording removed as silence",
		Buckets:     prometheus.LinearBuckets(0, 0.1, 11),
		ConstLabels: labels,
	})

	m.wordsTranscribed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("words_transcribed_total"),
		Help:        "Word spans returned by the transcription engine",
		ConstLabels: labels,
	})

	m.wordsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("words_dropped_total"),
		Help:        "Word spans dropped before rate computation (non-positive duration)",
		ConstLabels: labels,
	})

	m.subjectsAggregated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("subjects_aggregated_total"),
		Help:        "Subjects with a computable mean speech rate",
		ConstLabels: labels,
	})

	m.subjectsWithoutRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("subjects_without_rate_total"),
		Help:        "Subjects for which no recording yielded a valid rate",
		ConstLabels: labels,
	})

	m.subjectMeanRate = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("subject_mean_rate_chars_per_second"),
		Help:        "Distribution of subject mean speech rates",
		Buckets:     m.rateBuckets,
		ConstLabels: labels,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_size"),
		Help:        "Recordings waiting for a worker",
		ConstLabels: labels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_capacity"),
		Help:        "Maximum number of queued recordings",
		ConstLabels: labels,
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_enqueue_errors_total"),
		Help:        "Recordings rejected by the queue",
		ConstLabels: labels,
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_active_count"),
		Help:        "Workers currently running a recording through the pipeline",
		ConstLabels: labels,
	})

	m.publishErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("publish_errors_total"),
			Help:        "Failed report publications by sink",
			ConstLabels: labels,
		},
		[]string{"sink"},
	)
}

// RecordRecordingProcessed increments the processed recordings counter.
func RecordRecordingProcessed() {
	globalManager.recordingsProcessed.Inc()
}

// RecordRecordingFailed counts a recording that left the pipeline at stage.
func RecordRecordingFailed(stage, reason string) {
	globalManager.recordingsFailed.WithLabelValues(stage, reason).Inc()
}

// RecordRecordingSkipped counts a file ignored during discovery.
func RecordRecordingSkipped(reason string) {
	globalManager.recordingsSkipped.WithLabelValues(reason).Inc()
}

// RecordStageLatency records how long a stage took.
func RecordStageLatency(stage string, d time.Duration) {
	globalManager.stageLatency.WithLabelValues(stage).Observe(float64(d.Milliseconds()))
}

// RecordInputLoudness records the overall loudness of a canonical recording.
// Digital silence (-Inf) is clamped to the lowest bucket.
func RecordInputLoudness(dbfs float64) {
	if dbfs < -70 {
		dbfs = -70
	}
	globalManager.inputLoudness.Observe(dbfs)
}

// RecordSilenceRemoved records the removed share of a recording (0..1).
func RecordSilenceRemoved(ratio float64) {
	globalManager.silenceRemoved.Observe(ratio)
}

// RecordWordsTranscribed adds n transcribed spans.
func RecordWordsTranscribed(n int) {
	globalManager.wordsTranscribed.Add(float64(n))
}

// RecordWordsDropped adds n dropped spans.
func RecordWordsDropped(n int) {
	globalManager.wordsDropped.Add(float64(n))
}

// RecordSubjectAggregated records a subject with a valid mean rate.
func RecordSubjectAggregated(meanRate float64) {
	globalManager.subjectsAggregated.Inc()
	globalManager.subjectMeanRate.Observe(meanRate)
}

// RecordSubjectWithoutRate records a subject whose rate was not computable.
func RecordSubjectWithoutRate() {
	globalManager.subjectsWithoutRate.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// WorkerStarted marks one more worker as busy.
func WorkerStarted() {
	globalManager.workerActiveCount.Inc()
}

// WorkerFinished marks one worker as idle again.
func WorkerFinished() {
	globalManager.workerActiveCount.Dec()
}

// RecordPublishError counts a failed publication on sink.
func RecordPublishError(sink string) {
	globalManager.publishErrors.WithLabelValues(sink).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the registry in the text exposition format, for
// node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	return nil
}
