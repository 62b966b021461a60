package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gauges
var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aispeech_ws_active_connections",
		Help: "Number of connected live transcription clients",
	})
	ActiveTranscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aispeech_active_transcriptions",
		Help: "Number of recognition streams currently open",
	})
)

// Counters
var (
	// ProviderCallsTotal counts provider calls by operation and outcome.
	// outcome is "ok" or a domain error kind.
	ProviderCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aispeech_provider_calls_total",
		Help: "Total provider calls by operation and outcome",
	}, []string{"operation", "outcome"})
	TranscriptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aispeech_transcriptions_total",
		Help: "Total finished live transcriptions by status",
	}, []string{"status"})
	AudioBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aispeech_audio_bytes_total",
		Help: "Audio bytes handled by direction",
	}, []string{"direction"})
	TranscriptionsPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aispeech_transcriptions_pruned_total",
		Help: "Transcription records removed by the retention sweep",
	})
)

// Histograms
var (
	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aispeech_provider_duration_ms",
		Help:    "Provider call duration in milliseconds by operation",
		Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	}, []string{"operation"})
	RecordingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aispeech_recording_duration_seconds",
		Help:    "Length of live recordings",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 180},
	})
)

// Operation labels
const (
	OpSynthesize = "synthesize"
	OpTranslate  = "translate"
	OpDiarize    = "diarize"
)

// Outcome returns the outcome label for a provider call result
func Outcome(kind string, err error) string {
	if err == nil {
		return "ok"
	}
	if kind == "" {
		return "error"
	}
	return kind
}
