// Command echoinstone transcribes audio sources into speaker-attributed
// transcripts, either as a one-shot CLI run or as an HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/echoinstone/echoinstone/internal/align"
	"github.com/echoinstone/echoinstone/internal/config"
	"github.com/echoinstone/echoinstone/internal/health"
	"github.com/echoinstone/echoinstone/internal/media"
	"github.com/echoinstone/echoinstone/internal/observe"
	"github.com/echoinstone/echoinstone/internal/orchestrator"
	"github.com/echoinstone/echoinstone/internal/resilience"
	"github.com/echoinstone/echoinstone/internal/server"
	"github.com/echoinstone/echoinstone/internal/store"
	"github.com/echoinstone/echoinstone/pkg/provider/diarize"
	"github.com/echoinstone/echoinstone/pkg/provider/diarize/energy"
	"github.com/echoinstone/echoinstone/pkg/provider/diarize/pyannote"
	"github.com/echoinstone/echoinstone/pkg/provider/transcribe"
	openaistt "github.com/echoinstone/echoinstone/pkg/provider/transcribe/openai"
	"github.com/echoinstone/echoinstone/pkg/provider/transcribe/whisper"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	input := flag.String("input", "", "audio source to process once (YouTube URL, RSS feed, or .mp3/.wav); mutually exclusive with -serve")
	serve := flag.Bool("serve", false, "run the HTTP server instead of a one-shot pipeline run")
	outputDir := flag.String("output-dir", "", "override output.dir: root directory for file results")
	outputName := flag.String("output-name", "", "override output.result_name: the result file name written per run")
	flag.Parse()

	if *input == "" && !*serve {
		fmt.Fprintln(os.Stderr, "echoinstone: either -input or -serve is required")
		flag.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "echoinstone: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "echoinstone: %v\n", err)
		}
		return 1
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *outputName != "" {
		if *outputName != filepath.Base(*outputName) {
			fmt.Fprintf(os.Stderr, "echoinstone: -output-name %q must be a bare file name\n", *outputName)
			return 2
		}
		cfg.Output.ResultName = *outputName
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "echoinstone",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	pipeline, checkers, cleanup, err := buildPipeline(ctx, cfg)
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		return 1
	}
	defer cleanup()

	if *serve {
		return serveHTTP(ctx, cfg, pipeline, checkers)
	}
	return runOnce(ctx, pipeline, *input)
}

// runOnce processes a single input and prints the result location.
func runOnce(ctx context.Context, pipeline *orchestrator.Pipeline, input string) int {
	slog.Info("processing input", "input", input)
	res, err := pipeline.Run(ctx, input)
	if err != nil {
		slog.Error("run failed", "err", err)
		return 1
	}
	slog.Info("run finished",
		"run_id", res.Run.ID,
		"segments", len(res.Run.Segments),
		"location", res.Location,
	)
	fmt.Println(res.Location)
	return 0
}

// serveHTTP runs the HTTP server until the signal context is cancelled.
func serveHTTP(ctx context.Context, cfg *config.Config, pipeline *orchestrator.Pipeline, checkers []health.Checker) int {
	srv, err := server.New(server.Config{
		Pipeline:       pipeline,
		Health:         health.New(checkers...),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	if err != nil {
		slog.Error("failed to build server", "err", err)
		return 1
	}

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		slog.Error("http server error", "err", err)
		return 1
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received, stopping…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// buildPipeline constructs the providers, store, and orchestrator from cfg.
// The returned cleanup closes provider and store resources.
func buildPipeline(ctx context.Context, cfg *config.Config) (*orchestrator.Pipeline, []health.Checker, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	transcriber, err := buildTranscriber(cfg.Providers.Transcribe)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	if closer, ok := transcriber.(interface{ Close() error }); ok {
		cleanups = append(cleanups, func() { _ = closer.Close() })
	}
	if fb := cfg.Providers.TranscribeFallback; fb != nil {
		secondary, err := buildTranscriber(*fb)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		if closer, ok := secondary.(interface{ Close() error }); ok {
			cleanups = append(cleanups, func() { _ = closer.Close() })
		}
		wrapped := resilience.NewTranscribeFallback(transcriber, cfg.Providers.Transcribe.Name, resilience.FallbackConfig{})
		wrapped.AddFallback(fb.Name, secondary)
		transcriber = wrapped
	}

	diarizer, err := buildDiarizer(cfg.Providers.Diarize)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	if fb := cfg.Providers.DiarizeFallback; fb != nil {
		secondary, err := buildDiarizer(*fb)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		wrapped := resilience.NewDiarizeFallback(diarizer, cfg.Providers.Diarize.Name, resilience.FallbackConfig{})
		wrapped.AddFallback(fb.Name, secondary)
		diarizer = wrapped
	}

	workDir := cfg.Media.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	var convOpts []media.Option
	if cfg.Media.VoiceFilter {
		convOpts = append(convOpts, media.WithVoiceFilter())
	}
	converter := media.NewConverter(workDir, convOpts...)

	alignCfg := align.DefaultConfig()
	if cfg.Align.OverlapThreshold != nil {
		alignCfg.OverlapThreshold = *cfg.Align.OverlapThreshold
	}
	if cfg.Align.GapTolerance != nil {
		alignCfg.GapTolerance = *cfg.Align.GapTolerance
	}
	aligner, err := align.New(alignCfg)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	st, debugSink, checkers, err := buildStore(ctx, cfg.Output, &cleanups)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	pipelineCfg := orchestrator.Config{
		Transcriber:     transcriber,
		Diarizer:        diarizer,
		Converter:       converter,
		Aligner:         aligner,
		Store:           st,
		TranscriberName: cfg.Providers.Transcribe.Name,
		DiarizerName:    cfg.Providers.Diarize.Name,
		WorkDir:         workDir,
	}
	if cfg.Server.LogLevel == config.LogDebug {
		pipelineCfg.DebugSink = debugSink
	}

	pipeline, err := orchestrator.New(pipelineCfg)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return pipeline, checkers, cleanup, nil
}

func buildTranscriber(entry config.ProviderEntry) (transcribe.Provider, error) {
	switch entry.Name {
	case "whisper":
		var opts []whisper.Option
		if entry.Language != "" {
			opts = append(opts, whisper.WithLanguage(entry.Language))
		}
		return whisper.New(entry.Model, opts...)
	case "openai", "":
		var opts []openaistt.Option
		if entry.BaseURL != "" {
			opts = append(opts, openaistt.WithBaseURL(entry.BaseURL))
		}
		model := entry.Model
		if model == "" {
			model = openaistt.DefaultModel
		}
		return openaistt.New(entry.APIKey, model, opts...)
	default:
		return nil, fmt.Errorf("unknown transcribe provider %q", entry.Name)
	}
}

func buildDiarizer(entry config.ProviderEntry) (diarize.Provider, error) {
	switch entry.Name {
	case "pyannote", "":
		return pyannote.New(entry.BaseURL)
	case "energy":
		return energy.New(), nil
	default:
		return nil, fmt.Errorf("unknown diarize provider %q", entry.Name)
	}
}

// buildStore returns the configured store, the debug sink when the backend
// supports one, and readiness checkers for the server.
func buildStore(ctx context.Context, out config.OutputConfig, cleanups *[]func()) (store.Store, orchestrator.DebugSink, []health.Checker, error) {
	switch out.Backend {
	case config.StoragePostgres:
		pg, err := store.NewPostgresStore(ctx, out.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		*cleanups = append(*cleanups, pg.Close)
		checkers := []health.Checker{{
			Name:  "store",
			Check: func(ctx context.Context) error { return pg.Ping(ctx) },
		}}
		return pg, nil, checkers, nil
	case config.StorageFile, "":
		dir := out.Dir
		if dir == "" {
			dir = "results"
		}
		var opts []store.FileOption
		if out.ResultName != "" {
			opts = append(opts, store.WithResultName(out.ResultName))
		}
		fs := store.NewFileStore(dir, opts...)
		return fs, fs, nil, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown output backend %q", out.Backend)
	}
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
