// Package stub provides a deterministic engine for tests and engine-less
// development environments.
package stub

import (
	"context"
	"sync"

	"live-transcription-service/internal/observability/logging"
)

// DefaultPhrases are cycled through by a zero-value engine.
var DefaultPhrases = []string{
	"okay so the first item on the agenda",
	"we should follow up with the vendor next week",
	"can someone take notes on this part",
	"let's circle back to the budget question",
	"thanks everyone see you tomorrow",
}

// Engine implements stt.Engine with canned phrases. Every Nth call can be
// made to return silence via SilenceEvery, to exercise the no-speech path.
type Engine struct {
	mu           sync.Mutex
	phrases      []string
	next         int
	calls        int
	SilenceEvery int
}

// New creates a stub engine cycling through the given phrases, or
// DefaultPhrases when none are provided.
func New(phrases ...string) *Engine {
	if len(phrases) == 0 {
		phrases = DefaultPhrases
	}
	return &Engine{phrases: phrases}
}

// Name implements stt.Engine.
func (e *Engine) Name() string {
	return "stub"
}

// Transcribe implements stt.Engine.
func (e *Engine) Transcribe(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls++
	if e.SilenceEvery > 0 && e.calls%e.SilenceEvery == 0 {
		return "", nil
	}

	text := e.phrases[e.next%len(e.phrases)]
	e.next++

	logger := logging.WithComponent("engine.stub")
	logger.Debug().
		Str("path", path).
		Str("text", text).
		Msg("Stub transcription")
	return text, nil
}

// Calls returns how many times Transcribe has been invoked.
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
