// Package observe provides application-wide observability primitives for
// audioscribe: OpenTelemetry metrics, tracing, structured logging, and HTTP
// middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still
// be scraped via the standard /metrics endpoint. Tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all audioscribe metrics.
const meterName = "github.com/MrWong99/audioscribe"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// AcquireDuration tracks how long source acquisition takes (upload
	// write, or download + transcode). Use with attribute:
	//   attribute.String("source", ...)
	AcquireDuration metric.Float64Histogram

	// TranscribeDuration tracks recognizer latency per run.
	TranscribeDuration metric.Float64Histogram

	// NormalizeDuration tracks normalization + word-dedupe latency per run.
	NormalizeDuration metric.Float64Histogram

	// --- Counters ---

	// PipelineRuns counts completed pipeline invocations. Use with attributes:
	//   attribute.String("source", ...), attribute.String("status", ...)
	PipelineRuns metric.Int64Counter

	// RecognizerErrors counts failed recognizer calls.
	RecognizerErrors metric.Int64Counter

	// CleanupFailures counts artifact deletions that errored. Cleanup errors
	// never fail a run, so this counter is the only place they surface
	// besides the log.
	CleanupFailures metric.Int64Counter

	// --- Gauges ---

	// ActiveRuns tracks the number of pipeline runs currently in flight.
	ActiveRuns metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// stageBuckets defines histogram bucket boundaries (in seconds) for pipeline
// stages. Downloads and batch inference run for minutes, so the upper
// buckets reach far beyond typical HTTP latencies.
var stageBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.AcquireDuration, err = m.Float64Histogram("audioscribe.acquire.duration",
		metric.WithDescription("Latency of audio source acquisition."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscribeDuration, err = m.Float64Histogram("audioscribe.transcribe.duration",
		metric.WithDescription("Latency of speech recognition."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageBuckets...),
	); err != nil {
		return nil, err
	}
	if met.NormalizeDuration, err = m.Float64Histogram("audioscribe.normalize.duration",
		metric.WithDescription("Latency of transcript normalization."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageBuckets...),
	); err != nil {
		return nil, err
	}
	// Transcription requests block for the full pipeline run, so the HTTP
	// histogram shares the wide stage buckets.
	if met.HTTPRequestDuration, err = m.Float64Histogram("audioscribe.http.request.duration",
		metric.WithDescription("HTTP request processing time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.PipelineRuns, err = m.Int64Counter("audioscribe.pipeline.runs",
		metric.WithDescription("Completed pipeline invocations by source and status."),
	); err != nil {
		return nil, err
	}
	if met.RecognizerErrors, err = m.Int64Counter("audioscribe.recognizer.errors",
		metric.WithDescription("Failed recognizer calls."),
	); err != nil {
		return nil, err
	}
	if met.CleanupFailures, err = m.Int64Counter("audioscribe.artifact.cleanup_failures",
		metric.WithDescription("Artifact deletions that errored."),
	); err != nil {
		return nil, err
	}

	// Gauges.
	if met.ActiveRuns, err = m.Int64UpDownCounter("audioscribe.pipeline.active_runs",
		metric.WithDescription("Pipeline runs currently in flight."),
	); err != nil {
		return nil, err
	}

	return met, nil
}
