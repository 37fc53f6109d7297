// Package stt defines the boundary to the speech-to-text engine.
package stt

import (
	"context"
	"fmt"
)

// Engine wraps a single-shot "transcribe this clip, return text" capability.
// Implementations are stateless per call; one invocation handles one spooled
// audio clip. A returned empty string means the engine ran and heard nothing.
type Engine interface {
	// Transcribe recognizes speech in the audio file at path. The context
	// bounds the invocation; on expiry any underlying process must be
	// terminated, not left running.
	Transcribe(ctx context.Context, path string) (string, error)

	// Name identifies the implementation for logging and metrics.
	Name() string
}

// InvocationError carries diagnostics from a failed engine invocation.
type InvocationError struct {
	Engine string
	Stderr string
	Err    error
}

func (e *InvocationError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s invocation failed: %v: %s", e.Engine, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s invocation failed: %v", e.Engine, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
