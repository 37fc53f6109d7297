// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ServiceConfig holds process-level settings.
type ServiceConfig struct {
	Principal   string
	HTTPPort    string
	MetricsPort string
}

// LiveConfig holds the live session buffering and trigger policy settings.
// The defaults are the values the trigger policy was tuned with; changing
// them changes perceived latency.
type LiveConfig struct {
	ChunkThreshold   int           // minimum buffered chunks before a drain may fire
	DrainInterval    time.Duration // minimum elapsed time between drains
	RetainChunks     int           // chunks kept after a drain for continuity
	SpoolDir         string        // scratch directory for per-drain audio clips
	MaxBufferedBytes int64         // per-session buffer cap, 0 disables
}

// EngineConfig holds the transcription engine invocation parameters.
type EngineConfig struct {
	Provider    string // whisper | stub
	Python      string
	Model       string
	Device      string
	ComputeType string
	BeamSize    int
	Timeout     time.Duration
}

// KafkaConfig holds transcript event publishing settings.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json | console
}

// Config is the root configuration for the service.
type Config struct {
	Service       ServiceConfig
	Live          LiveConfig
	Engine        EngineConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// Load reads configuration from environment variables, applying defaults for
// anything unset.
func Load() *Config {
	return &Config{
		Service: ServiceConfig{
			Principal:   envOrDefault("SERVICE_PRINCIPAL", "svc-live-transcription"),
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			MetricsPort: envOrDefault("METRICS_PORT", "9091"),
		},
		Live: LiveConfig{
			ChunkThreshold:   envIntOrDefault("LIVE_CHUNK_THRESHOLD", 2),
			DrainInterval:    envDurationOrDefault("LIVE_DRAIN_INTERVAL", 3*time.Second),
			RetainChunks:     envIntOrDefault("LIVE_RETAIN_CHUNKS", 1),
			SpoolDir:         envOrDefault("LIVE_SPOOL_DIR", os.TempDir()),
			MaxBufferedBytes: envInt64OrDefault("LIVE_MAX_BUFFERED_BYTES", 5*1024*1024),
		},
		Engine: EngineConfig{
			Provider:    envOrDefault("ENGINE_PROVIDER", "whisper"),
			Python:      envOrDefault("ENGINE_PYTHON", "python3"),
			Model:       envOrDefault("ENGINE_MODEL", "tiny"),
			Device:      envOrDefault("ENGINE_DEVICE", "cpu"),
			ComputeType: envOrDefault("ENGINE_COMPUTE_TYPE", "int8"),
			BeamSize:    envIntOrDefault("ENGINE_BEAM_SIZE", 1),
			Timeout:     envDurationOrDefault("ENGINE_TIMEOUT", 15*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled: envBoolOrDefault("KAFKA_ENABLED", false),
			Brokers: envListOrDefault("KAFKA_BROKERS", nil),
			Topic:   envOrDefault("KAFKA_TOPIC_TRANSCRIPT", "live.transcript.final"),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64OrDefault(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envBoolOrDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDurationOrDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envListOrDefault(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
