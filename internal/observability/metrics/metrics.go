// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "live_transcription"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsTotal  prometheus.Counter
	SessionsActive prometheus.Gauge

	// Audio metrics
	ChunksReceived     prometheus.Counter
	ChunksDiscarded    *prometheus.CounterVec
	AudioBytesReceived prometheus.Counter

	// Drain metrics
	DrainsTotal      *prometheus.CounterVec
	DrainsSuppressed prometheus.Counter
	DrainPayloadSize prometheus.Histogram

	// Engine metrics
	EngineLatency  prometheus.Histogram
	EngineErrors   *prometheus.CounterVec
	NoSpeechTotal  prometheus.Counter
	ResultsEmitted prometheus.Counter

	// Spool metrics
	SpoolCleanupErrors prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of live sessions opened",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently connected live sessions",
		}),

		ChunksReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_received_total",
			Help:      "Total audio chunks accepted into session buffers",
		}),
		ChunksDiscarded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_discarded_total",
			Help:      "Total audio chunks discarded",
		}, []string{"reason"}),
		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes accepted into session buffers",
		}),

		DrainsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drains_total",
			Help:      "Total buffer drains dispatched to the engine",
		}, []string{"trigger"}),
		DrainsSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drains_suppressed_total",
			Help:      "Drains skipped because a prior engine call was still in flight",
		}),
		DrainPayloadSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "drain_payload_bytes",
			Help:      "Size of the concatenated audio payload per drain",
			Buckets:   []float64{4096, 16384, 65536, 262144, 1048576, 4194304},
		}),

		EngineLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_latency_seconds",
			Help:      "Transcription engine invocation latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		}),
		EngineErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_errors_total",
			Help:      "Total transcription engine failures",
		}, []string{"error_type"}),
		NoSpeechTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "no_speech_total",
			Help:      "Drains where the engine recognized no speech",
		}),
		ResultsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_emitted_total",
			Help:      "Non-empty transcription results emitted to clients",
		}),

		SpoolCleanupErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spool_cleanup_errors_total",
			Help:      "Failed removals of transient spool files",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordSessionOpened records a new live session connecting.
func (m *Metrics) RecordSessionOpened() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionClosed records a live session disconnecting.
func (m *Metrics) RecordSessionClosed() {
	m.SessionsActive.Dec()
}

// RecordChunkAccepted records an audio chunk buffered for a session.
func (m *Metrics) RecordChunkAccepted(bytes int) {
	m.ChunksReceived.Inc()
	m.AudioBytesReceived.Add(float64(bytes))
}

// RecordChunkDiscarded records an audio chunk thrown away.
func (m *Metrics) RecordChunkDiscarded(reason string) {
	m.ChunksDiscarded.WithLabelValues(reason).Inc()
}

// RecordDrain records a drain dispatched to the engine.
func (m *Metrics) RecordDrain(trigger string, payloadBytes int) {
	m.DrainsTotal.WithLabelValues(trigger).Inc()
	m.DrainPayloadSize.Observe(float64(payloadBytes))
}

// RecordDrainSuppressed records a trigger skipped due to an in-flight drain.
func (m *Metrics) RecordDrainSuppressed() {
	m.DrainsSuppressed.Inc()
}

// RecordEngineResult records an engine invocation outcome.
func (m *Metrics) RecordEngineResult(latencySeconds float64, noSpeech bool) {
	m.EngineLatency.Observe(latencySeconds)
	if noSpeech {
		m.NoSpeechTotal.Inc()
	} else {
		m.ResultsEmitted.Inc()
	}
}

// RecordEngineError records an engine failure.
func (m *Metrics) RecordEngineError(errorType string, latencySeconds float64) {
	m.EngineLatency.Observe(latencySeconds)
	m.EngineErrors.WithLabelValues(errorType).Inc()
}

// RecordSpoolCleanupError records a failed spool file removal.
func (m *Metrics) RecordSpoolCleanupError() {
	m.SpoolCleanupErrors.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic).Inc()
	}
}
