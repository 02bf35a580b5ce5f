// Package orchestrator runs the end-to-end transcription pipeline: acquire
// audio, convert it to 16 kHz mono WAV, run transcription and diarization in
// parallel, align the two streams into speaker-attributed segments, and
// persist the result.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/echoinstone/echoinstone/internal/align"
	"github.com/echoinstone/echoinstone/internal/capture"
	"github.com/echoinstone/echoinstone/internal/observe"
	"github.com/echoinstone/echoinstone/internal/store"
	"github.com/echoinstone/echoinstone/pkg/provider/diarize"
	"github.com/echoinstone/echoinstone/pkg/provider/transcribe"
	"github.com/echoinstone/echoinstone/pkg/types"
	"go.opentelemetry.io/otel/metric"
)

// DebugSink receives intermediate pipeline artifacts (raw chunks, raw turns)
// when debug dumping is enabled. [store.FileStore] satisfies this.
type DebugSink interface {
	SaveDebug(runID, name string, v any) error
}

// WAVConverter normalises an arbitrary media file into the WAV format the
// providers expect. [media.Converter] satisfies this.
type WAVConverter interface {
	ToWAV(ctx context.Context, inputPath string) (string, error)
}

// Config wires a [Pipeline]. Transcriber, Diarizer, Converter, Aligner, and
// Store are required.
type Config struct {
	Transcriber transcribe.Provider
	Diarizer    diarize.Provider
	Converter   WAVConverter
	Aligner     *align.Aligner
	Store       store.Store

	// TranscriberName and DiarizerName label provider metrics; use the
	// configured provider names ("whisper", "pyannote", ...).
	TranscriberName string
	DiarizerName    string

	// WorkDir is where downloaded audio lands before conversion.
	WorkDir string

	// Metrics defaults to [observe.DefaultMetrics] when nil.
	Metrics *observe.Metrics

	// DebugSink, when non-nil, receives the raw transcript chunks and
	// speaker turns of every run. Enable only at debug log level; the dumps
	// can be large.
	DebugSink DebugSink
}

// Pipeline executes runs. It is stateless across runs and safe for
// concurrent use as long as its providers are.
type Pipeline struct {
	cfg     Config
	metrics *observe.Metrics
}

// New validates cfg and returns a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	var errs []error
	if cfg.Transcriber == nil {
		errs = append(errs, errors.New("orchestrator: transcriber is required"))
	}
	if cfg.Diarizer == nil {
		errs = append(errs, errors.New("orchestrator: diarizer is required"))
	}
	if cfg.Converter == nil {
		errs = append(errs, errors.New("orchestrator: converter is required"))
	}
	if cfg.Aligner == nil {
		errs = append(errs, errors.New("orchestrator: aligner is required"))
	}
	if cfg.Store == nil {
		errs = append(errs, errors.New("orchestrator: store is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	m := cfg.Metrics
	if m == nil {
		m = observe.DefaultMetrics()
	}
	return &Pipeline{cfg: cfg, metrics: m}, nil
}

// Result is the outcome of one pipeline run.
type Result struct {
	// Run holds the persisted run data.
	Run *store.Run

	// Location is where the store put the result.
	Location string
}

// Run processes input through the full pipeline and returns the persisted
// result. Failures in any stage abort the run; alignment itself never fails,
// it only degrades (fewer segments).
func (p *Pipeline) Run(ctx context.Context, input string) (*Result, error) {
	runID := newRunID(time.Now().UTC())
	ctx, span := observe.StartSpan(ctx, "pipeline.run")
	defer span.End()
	log := observe.Logger(ctx).With(slog.String("run_id", runID), slog.String("input", input))

	p.metrics.ActiveRuns.Add(ctx, 1)
	defer p.metrics.ActiveRuns.Add(ctx, -1)

	pipelineStart := time.Now()
	res, err := p.run(ctx, log, runID, input)
	p.metrics.PipelineDuration.Record(ctx, time.Since(pipelineStart).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
		log.Error("run failed", slog.Any("error", err))
	}
	p.metrics.RunsCompleted.Add(ctx, 1, metric.WithAttributes(observe.Attr("status", status)))
	return res, err
}

func (p *Pipeline) run(ctx context.Context, log *slog.Logger, runID, input string) (*Result, error) {
	// Acquire.
	downloader, err := capture.ForInput(input, p.cfg.WorkDir)
	if err != nil {
		return nil, err
	}
	var audioPath string
	err = p.stage(ctx, p.metrics.DownloadDuration, func() error {
		var err error
		audioPath, err = downloader.Download(ctx, input)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: download %q: %w", input, err)
	}
	log.Info("audio acquired", slog.String("path", audioPath))

	// Convert.
	var wavPath string
	err = p.stage(ctx, p.metrics.ConvertDuration, func() error {
		var err error
		wavPath, err = p.cfg.Converter.ToWAV(ctx, audioPath)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: convert %q: %w", audioPath, err)
	}

	// Transcribe and diarize in parallel; the two providers are independent
	// and both read the same WAV file.
	var (
		transcript *types.TranscriptResult
		turns      []types.SpeakerTurn
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return p.providerStage(egCtx, p.metrics.TranscribeDuration, p.cfg.TranscriberName, "transcribe", func() error {
			var err error
			transcript, err = p.cfg.Transcriber.Transcribe(egCtx, wavPath)
			return err
		})
	})
	eg.Go(func() error {
		return p.providerStage(egCtx, p.metrics.DiarizeDuration, p.cfg.DiarizerName, "diarize", func() error {
			var err error
			turns, err = p.cfg.Diarizer.Diarize(egCtx, wavPath)
			return err
		})
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	log.Info("providers finished",
		slog.Int("chunks", len(transcript.Chunks)),
		slog.Int("turns", len(turns)),
		slog.String("language", transcript.Language),
	)

	if p.cfg.DebugSink != nil {
		if err := p.cfg.DebugSink.SaveDebug(runID, "debug_chunks.json", transcript.Chunks); err != nil {
			log.Warn("debug dump failed", slog.Any("error", err))
		}
		if err := p.cfg.DebugSink.SaveDebug(runID, "debug_turns.json", turns); err != nil {
			log.Warn("debug dump failed", slog.Any("error", err))
		}
	}

	// Align.
	alignStart := time.Now()
	segments, stats := p.cfg.Aligner.AlignStats(transcript.Chunks, turns)
	p.metrics.AlignDuration.Record(ctx, time.Since(alignStart).Seconds())
	p.metrics.RecordAlignment(ctx, stats.ChunksDropped, stats.Segments)
	log.Info("alignment finished",
		slog.Int("chunks_in", stats.ChunksIn),
		slog.Int("chunks_dropped", stats.ChunksDropped),
		slog.Int("segments", stats.Segments),
	)

	// Persist.
	run := &store.Run{
		ID:          runID,
		Input:       input,
		Language:    transcript.Language,
		GeneratedAt: time.Now().UTC(),
		Segments:    segments,
	}
	location, err := p.cfg.Store.SaveRun(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: persist run %q: %w", runID, err)
	}
	log.Info("run persisted", slog.String("location", location))
	return &Result{Run: run, Location: location}, nil
}

// stage times fn into hist.
func (p *Pipeline) stage(ctx context.Context, hist metric.Float64Histogram, fn func() error) error {
	start := time.Now()
	err := fn()
	hist.Record(ctx, time.Since(start).Seconds())
	return err
}

// providerStage times fn into hist and records the provider request counter
// with its outcome.
func (p *Pipeline) providerStage(ctx context.Context, hist metric.Float64Histogram, provider, kind string, fn func() error) error {
	err := p.stage(ctx, hist, fn)
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordProviderRequest(ctx, provider, kind, status)
	return err
}

// newRunID formats a run identifier from t, e.g. "run_20240102-150405".
func newRunID(t time.Time) string {
	return "run_" + t.Format("20060102-150405")
}
