package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestStageHistograms(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	histograms := []struct {
		name string
		h    metric.Float64Histogram
	}{
		{"echoinstone.download.duration", m.DownloadDuration},
		{"echoinstone.convert.duration", m.ConvertDuration},
		{"echoinstone.transcribe.duration", m.TranscribeDuration},
		{"echoinstone.diarize.duration", m.DiarizeDuration},
		{"echoinstone.align.duration", m.AlignDuration},
		{"echoinstone.pipeline.duration", m.PipelineDuration},
	}

	for _, tc := range histograms {
		tc.h.Record(ctx, 1.5)
		tc.h.Record(ctx, 30)
	}

	rm := collect(t, reader)

	for _, tc := range histograms {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			hist, ok := met.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("metric %q is %T, want Histogram[float64]", tc.name, met.Data)
			}
			if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 2 {
				t.Errorf("metric %q data points = %+v, want one point with count 2", tc.name, hist.DataPoints)
			}
		})
	}
}

func TestRecordProviderRequest_ErrorIncrementsBothCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderRequest(ctx, "whisper", "transcribe", "ok")
	m.RecordProviderRequest(ctx, "pyannote", "diarize", "error")

	rm := collect(t, reader)

	reqs := findMetric(rm, "echoinstone.provider.requests")
	if reqs == nil {
		t.Fatal("provider request counter not found")
	}
	sum, ok := reqs.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("requests data is %T, want Sum[int64]", reqs.Data)
	}
	if len(sum.DataPoints) != 2 {
		t.Fatalf("requests data points = %d, want 2", len(sum.DataPoints))
	}

	errs := findMetric(rm, "echoinstone.provider.errors")
	if errs == nil {
		t.Fatal("provider error counter not found")
	}
	errSum, ok := errs.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("errors data is %T, want Sum[int64]", errs.Data)
	}
	if len(errSum.DataPoints) != 1 || errSum.DataPoints[0].Value != 1 {
		t.Errorf("errors data points = %+v, want one point with value 1", errSum.DataPoints)
	}
	wantProvider := attribute.String("provider", "pyannote")
	if v, found := errSum.DataPoints[0].Attributes.Value(wantProvider.Key); !found || v.AsString() != "pyannote" {
		t.Errorf("error counter attributes = %v, want provider=pyannote", errSum.DataPoints[0].Attributes)
	}
}

func TestRecordAlignment(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAlignment(ctx, 3, 12)
	m.RecordAlignment(ctx, 0, 5)

	rm := collect(t, reader)

	dropped := findMetric(rm, "echoinstone.chunks.dropped")
	if dropped == nil {
		t.Fatal("dropped chunk counter not found")
	}
	if sum := dropped.Data.(metricdata.Sum[int64]); sum.DataPoints[0].Value != 3 {
		t.Errorf("chunks dropped = %d, want 3", sum.DataPoints[0].Value)
	}

	produced := findMetric(rm, "echoinstone.segments.produced")
	if produced == nil {
		t.Fatal("segments produced counter not found")
	}
	if sum := produced.Data.(metricdata.Sum[int64]); sum.DataPoints[0].Value != 17 {
		t.Errorf("segments produced = %d, want 17", sum.DataPoints[0].Value)
	}
}
