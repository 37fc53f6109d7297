package live

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"live-transcription-service/internal/models"
	"live-transcription-service/internal/service/session"
	"live-transcription-service/internal/service/stt"
)

// drainContext bounds one engine invocation. Deliberately detached from the
// connection context: a disconnect mid-invocation lets the engine finish and
// the result is discarded afterward.
func (s *Service) drainContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.cfg.EngineTimeout)
}

// transcribe runs one drain-and-transcribe cycle: spool the payload, invoke
// the engine, emit the outcome, clean up. The caller must hold the session's
// drain slot; it is released on return.
func (s *Service) transcribe(sess *session.Session, payload []byte, sink Sink) {
	defer sess.EndDrain()

	sessionID := sess.ID()
	log := s.log.With().Str("sessionId", sessionID).Logger()

	path := filepath.Join(s.cfg.SpoolDir, spoolName(s.now()))
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to spool audio payload")
		s.sendError(sink, sessionID, "could not spool audio for transcription")
		return
	}
	defer s.cleanupSpool(path)

	ctx, cancel := s.drainContext()
	defer cancel()

	start := time.Now()
	text, err := s.engine.Transcribe(ctx, path)
	latency := time.Since(start)

	// The session may have disconnected while the engine ran; its result has
	// nowhere to go.
	if _, ok := s.store.Get(sessionID); !ok {
		log.Debug().Msg("Discarding engine result for removed session")
		return
	}

	if err != nil {
		errType := "invocation"
		if errors.Is(err, context.DeadlineExceeded) {
			errType = "timeout"
		}
		s.metrics.RecordEngineError(errType, latency.Seconds())
		log.Error().Err(err).Str("errorType", errType).Dur("latency", latency).Msg("Engine invocation failed")

		details := err.Error()
		var ie *stt.InvocationError
		if errors.As(err, &ie) && ie.Stderr != "" {
			details = ie.Stderr
		}
		s.sendError(sink, sessionID, details)
		return
	}

	if text = strings.TrimSpace(text); text == "" {
		s.metrics.RecordEngineResult(latency.Seconds(), true)
		log.Info().Dur("latency", latency).Msg("No speech detected")
		s.send(sink, sessionID, models.LiveTranscription{Text: "", Status: models.StatusNoSpeech})
		return
	}

	s.metrics.RecordEngineResult(latency.Seconds(), false)
	log.Info().
		Dur("latency", latency).
		Int("payloadBytes", len(payload)).
		Int("textLen", len(text)).
		Msg("Transcription result")
	s.send(sink, sessionID, models.LiveTranscription{Text: text})

	if s.publisher != nil {
		ev := models.TranscriptEvent{
			EventType:    "live.transcript.final",
			SessionID:    sessionID,
			Text:         text,
			AudioBytes:   int64(len(payload)),
			ProcessingMs: latency.Milliseconds(),
			Timestamp:    time.Now().UnixMilli(),
		}
		if err := s.publisher.PublishTranscript(context.Background(), sessionID, ev); err != nil {
			log.Warn().Err(err).Msg("Failed to publish transcript event")
		}
	}
}

func (s *Service) send(sink Sink, sessionID string, payload models.LiveTranscription) {
	if err := sink.SendTranscription(payload); err != nil {
		s.log.Debug().Err(err).Str("sessionId", sessionID).Msg("Failed to deliver transcription event")
	}
}

func (s *Service) sendError(sink Sink, sessionID, details string) {
	err := sink.SendError(models.TranscriptionError{
		Error:   "Transcription failed",
		Details: details,
	})
	if err != nil {
		s.log.Debug().Err(err).Str("sessionId", sessionID).Msg("Failed to deliver error event")
	}
}

// cleanupSpool removes a transient clip, best effort. A leftover file is a
// logged nuisance, never a session failure.
func (s *Service) cleanupSpool(path string) {
	if err := os.Remove(path); err != nil {
		s.metrics.RecordSpoolCleanupError()
		s.log.Warn().Err(err).Str("path", path).Msg("Failed to remove spool file")
	}
}

// spoolName builds a collision-free transient file name. Timestamp plus a
// random token: concurrent drains across sessions may land in the same
// nanosecond.
func spoolName(now time.Time) string {
	return fmt.Sprintf("live_%d_%s.wav", now.UnixNano(), uuid.NewString()[:8])
}
