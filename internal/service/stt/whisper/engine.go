// Package whisper invokes faster-whisper as a Python subprocess.
package whisper

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"live-transcription-service/internal/observability/logging"
	"live-transcription-service/internal/service/stt"
)

// Config holds the inference parameters passed to faster-whisper.
type Config struct {
	Python      string // interpreter with faster-whisper installed
	Model       string // model size tier: tiny, base, small, ...
	Device      string // cpu or cuda
	ComputeType string // numeric precision, e.g. int8
	BeamSize    int    // decoding beam width
}

// Engine transcribes spooled clips with faster-whisper. Each call spawns one
// interpreter, so cold-start cost recurs per drain; small model tiers keep
// that under the invocation timeout.
type Engine struct {
	cfg Config
	log zerolog.Logger
}

// New creates a faster-whisper engine with the given inference parameters.
func New(cfg Config) *Engine {
	return &Engine{
		cfg: cfg,
		log: logging.WithComponent("engine.whisper"),
	}
}

// Name implements stt.Engine.
func (e *Engine) Name() string {
	return "faster-whisper"
}

// Transcribe implements stt.Engine. The context deadline kills the
// interpreter via CommandContext; a killed run is reported as an error with
// the context cause wrapped.
func (e *Engine) Transcribe(ctx context.Context, path string) (string, error) {
	text, err := e.run(ctx, e.script(path))
	if err != nil {
		return "", err
	}
	e.log.Debug().Str("path", path).Int("textLen", len(text)).Msg("Transcription completed")
	return text, nil
}

// run executes one interpreter invocation and returns trimmed stdout.
func (e *Engine) run(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, e.cfg.Python, "-c", script)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", &stt.InvocationError{Engine: e.Name(), Stderr: strings.TrimSpace(stderr.String()), Err: ctxErr}
	}
	if err != nil {
		return "", &stt.InvocationError{Engine: e.Name(), Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// script renders the one-shot faster-whisper invocation. The clip path comes
// from the spool directory and contains no quoting hazards.
func (e *Engine) script(path string) string {
	return fmt.Sprintf(
		"from faster_whisper import WhisperModel; "+
			"model = WhisperModel('%s', device='%s', compute_type='%s'); "+
			"segments, info = model.transcribe('%s', beam_size=%d, best_of=1, temperature=0); "+
			"print(''.join(segment.text for segment in segments))",
		e.cfg.Model, e.cfg.Device, e.cfg.ComputeType, path, e.cfg.BeamSize,
	)
}
