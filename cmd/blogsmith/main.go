package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/blogsmith/internal/api"
	"github.com/snarg/blogsmith/internal/config"
	"github.com/snarg/blogsmith/internal/database"
	"github.com/snarg/blogsmith/internal/events"
	"github.com/snarg/blogsmith/internal/media"
	"github.com/snarg/blogsmith/internal/pipeline"
	"github.com/snarg/blogsmith/internal/synthesize"
	"github.com/snarg/blogsmith/internal/transcribe"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "http listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level")
	flag.StringVar(&overrides.DatabaseURL, "database-url", "", "postgres connection url")
	flag.StringVar(&overrides.MediaDir, "media-dir", "", "directory for temporary audio artifacts")
	flag.Parse()

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("blogsmith starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	dbLog := log.With().Str("component", "database").Logger()
	db, err := database.Connect(ctx, cfg.DatabaseURL, dbLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize schema")
	}

	// Media fetcher
	fetcher := media.NewYtdlpFetcher(cfg.YtdlpPath, cfg.MediaDir,
		log.With().Str("component", "media").Logger())
	if err := fetcher.CheckBinary(); err != nil {
		log.Fatal().Err(err).Str("path", cfg.YtdlpPath).Msg("yt-dlp binary not found")
	}

	// Transcription provider
	var provider transcribe.Provider
	switch cfg.TranscribeProvider {
	case "whisper":
		provider = transcribe.NewWhisperClient(cfg.WhisperURL, cfg.WhisperModel, cfg.WhisperAPIKey)
	default:
		provider = transcribe.NewAssemblyAIClient(cfg.AssemblyAIAPIKey)
	}
	log.Info().Str("provider", provider.Name()).Str("model", provider.Model()).Msg("transcription provider configured")

	// Synthesis
	generator := synthesize.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.SynthesisModel)

	// Events + orchestrator
	bus := events.NewBus(256)
	orch := pipeline.New(pipeline.Options{
		Fetcher:      fetcher,
		Provider:     provider,
		Generator:    generator,
		Store:        db,
		StageTimeout: cfg.StageTimeout,
		Publish: func(evtType, runID string, payload map[string]any) {
			bus.Publish(evtType, runID, payload)
		},
		Log: log.With().Str("component", "pipeline").Logger(),
	})

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, api.Deps{
		DB:     db,
		Runner: orch,
		Bus:    bus,
	}, version, startTime, httpLog)

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("blogsmith stopped")
}
