package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"live-transcription-service/internal/api/ws"
	"live-transcription-service/internal/app"
	"live-transcription-service/internal/config"
	"live-transcription-service/internal/events"
	apphttp "live-transcription-service/internal/http"
	"live-transcription-service/internal/observability"
	"live-transcription-service/internal/service/live"
	"live-transcription-service/internal/service/session"
	"live-transcription-service/internal/service/stt"
	"live-transcription-service/internal/service/stt/stub"
	"live-transcription-service/internal/service/stt/whisper"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("application start failed")
	}

	publisher := events.New(&events.Config{
		Enabled: cfg.Kafka.Enabled,
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	defer publisher.Close()

	engine := newEngine(cfg)
	log.Info().Str("engine", engine.Name()).Msg("Transcription engine selected")

	store := session.NewStore()
	svc := live.NewService(store, engine, publisher, live.Config{
		Policy: session.Policy{
			ChunkThreshold: cfg.Live.ChunkThreshold,
			DrainInterval:  cfg.Live.DrainInterval,
			RetainChunks:   cfg.Live.RetainChunks,
		},
		SpoolDir:         cfg.Live.SpoolDir,
		EngineTimeout:    cfg.Engine.Timeout,
		MaxBufferedBytes: cfg.Live.MaxBufferedBytes,
	})

	obsServer := observability.NewServer(":" + cfg.Service.MetricsPort)
	obsServer.Start()

	router := apphttp.NewRouter(ws.NewHandler(svc))
	server := &http.Server{
		Addr:    ":" + cfg.Service.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Live transcription service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := obsServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Observability server shutdown error")
	}
	application.Shutdown()
}

// newEngine selects the transcription engine implementation by provider
// name. Unknown providers fall back to the stub so a misconfigured dev
// environment still serves sessions.
func newEngine(cfg *config.Config) stt.Engine {
	switch cfg.Engine.Provider {
	case "whisper":
		return whisper.New(whisper.Config{
			Python:      cfg.Engine.Python,
			Model:       cfg.Engine.Model,
			Device:      cfg.Engine.Device,
			ComputeType: cfg.Engine.ComputeType,
			BeamSize:    cfg.Engine.BeamSize,
		})
	case "stub":
		return stub.New()
	default:
		log.Warn().Str("provider", cfg.Engine.Provider).Msg("Unknown engine provider, using stub")
		return stub.New()
	}
}
