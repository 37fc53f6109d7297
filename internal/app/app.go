package app

import (
	"time"

	"live-transcription-service/internal/config"
	"live-transcription-service/internal/observability/logging"

	"github.com/rs/zerolog"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Config) *Application {
	logging.Init(logging.Config{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})

	a := &Application{
		Cfg:    cfg,
		Logger: logging.WithComponent("application").With().Str("service", cfg.Service.Principal).Logger(),
	}

	a.Logger.Info().
		Str("logLevel", cfg.Observability.LogLevel).
		Msg("Live transcription service application created")
	return a
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Live transcription service starting")
	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("Live transcription service shutting down")
}
