// Package observe provides application-wide observability primitives for
// EchoInStone: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all EchoInStone
// metrics.
const meterName = "github.com/echoinstone/echoinstone"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// DownloadDuration tracks audio acquisition latency (YouTube, podcast
	// feed, or direct download).
	DownloadDuration metric.Float64Histogram

	// ConvertDuration tracks ffmpeg WAV conversion latency.
	ConvertDuration metric.Float64Histogram

	// TranscribeDuration tracks transcription provider latency.
	TranscribeDuration metric.Float64Histogram

	// DiarizeDuration tracks diarization provider latency.
	DiarizeDuration metric.Float64Histogram

	// AlignDuration tracks transcript/diarization alignment latency.
	AlignDuration metric.Float64Histogram

	// PipelineDuration tracks end-to-end run latency from input reference
	// to persisted result.
	PipelineDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// RunsCompleted counts finished pipeline runs. Use with attribute:
	//   attribute.String("status", ...)
	RunsCompleted metric.Int64Counter

	// ChunksDropped counts transcript chunks dropped during alignment
	// because no speaker reached the overlap threshold.
	ChunksDropped metric.Int64Counter

	// SegmentsProduced counts merged segments emitted by alignment.
	SegmentsProduced metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveRuns tracks the number of pipeline runs currently in flight.
	ActiveRuns metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// batch audio processing, where a single stage can run for minutes on long
// recordings.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.DownloadDuration, err = m.Float64Histogram("echoinstone.download.duration",
		metric.WithDescription("Latency of audio acquisition."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ConvertDuration, err = m.Float64Histogram("echoinstone.convert.duration",
		metric.WithDescription("Latency of WAV conversion."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscribeDuration, err = m.Float64Histogram("echoinstone.transcribe.duration",
		metric.WithDescription("Latency of transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DiarizeDuration, err = m.Float64Histogram("echoinstone.diarize.duration",
		metric.WithDescription("Latency of speaker diarization."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AlignDuration, err = m.Float64Histogram("echoinstone.align.duration",
		metric.WithDescription("Latency of transcript/diarization alignment."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PipelineDuration, err = m.Float64Histogram("echoinstone.pipeline.duration",
		metric.WithDescription("End-to-end pipeline run latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("echoinstone.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.RunsCompleted, err = m.Int64Counter("echoinstone.runs.completed",
		metric.WithDescription("Total finished pipeline runs by status."),
	); err != nil {
		return nil, err
	}
	if met.ChunksDropped, err = m.Int64Counter("echoinstone.chunks.dropped",
		metric.WithDescription("Total transcript chunks dropped during alignment."),
	); err != nil {
		return nil, err
	}
	if met.SegmentsProduced, err = m.Int64Counter("echoinstone.segments.produced",
		metric.WithDescription("Total merged segments emitted by alignment."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("echoinstone.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveRuns, err = m.Int64UpDownCounter("echoinstone.active_runs",
		metric.WithDescription("Number of pipeline runs currently in flight."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("echoinstone.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest records a provider request counter increment with
// the standard attribute set, and the matching error counter when the status
// is "error".
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
	if status == "error" {
		m.ProviderErrors.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("provider", provider),
				attribute.String("kind", kind),
			),
		)
	}
}

// RecordAlignment records the per-run alignment outcome: how many chunks
// were dropped and how many merged segments were produced.
func (m *Metrics) RecordAlignment(ctx context.Context, dropped, produced int) {
	if dropped > 0 {
		m.ChunksDropped.Add(ctx, int64(dropped))
	}
	m.SegmentsProduced.Add(ctx, int64(produced))
}
