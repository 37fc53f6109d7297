package whisper

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"live-transcription-service/internal/service/stt"
)

// shEngine returns an engine whose "interpreter" is sh, so run() can be
// exercised with shell one-liners instead of a faster-whisper install.
func shEngine() *Engine {
	return New(Config{Python: "sh", Model: "tiny", Device: "cpu", ComputeType: "int8", BeamSize: 1})
}

func TestScript_ContainsInferenceParameters(t *testing.T) {
	e := New(Config{Python: "python3", Model: "base", Device: "cuda", ComputeType: "float16", BeamSize: 5})

	script := e.script("/tmp/live_1_abc.wav")

	for _, want := range []string{
		"WhisperModel('base', device='cuda', compute_type='float16')",
		"model.transcribe('/tmp/live_1_abc.wav', beam_size=5",
		"best_of=1",
		"temperature=0",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q:\n%s", want, script)
		}
	}
}

func TestRun_TrimsStdout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	text, err := shEngine().run(ctx, "echo '  hello world  '")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q, want trimmed %q", text, "hello world")
	}
}

func TestRun_NonZeroExitReturnsInvocationError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := shEngine().run(ctx, "echo 'model load failed' >&2; exit 3")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	var ie *stt.InvocationError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InvocationError, got %T: %v", err, err)
	}
	if !strings.Contains(ie.Stderr, "model load failed") {
		t.Errorf("stderr diagnostics missing, got %q", ie.Stderr)
	}
}

func TestRun_TimeoutKillsProcess(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := shEngine().run(ctx, "sleep 10")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded in chain, got %v", err)
	}
	if elapsed > 5*time.Second {
		t.Errorf("process was not killed on timeout, took %v", elapsed)
	}
}
