package live

import (
	"time"

	"live-transcription-service/internal/events"
	"live-transcription-service/internal/observability/logging"
	"live-transcription-service/internal/observability/metrics"
	"live-transcription-service/internal/service/session"
	"live-transcription-service/internal/service/stt"

	"github.com/rs/zerolog"
)

// Config holds the tunables of the live session manager.
type Config struct {
	Policy           session.Policy
	SpoolDir         string
	EngineTimeout    time.Duration
	MaxBufferedBytes int64
}

// Service owns the live transcription sessions of one process. It applies
// the trigger policy on every inbound chunk and dispatches drains to the
// engine, at most one in flight per session.
type Service struct {
	store     *session.Store
	engine    stt.Engine
	publisher *events.Publisher
	cfg       Config
	metrics   *metrics.Metrics
	log       zerolog.Logger

	// now is swapped out in tests to drive the trigger policy clock.
	now func() time.Time
}

// NewService wires the session manager to its collaborators. The store is
// injected so the composition root owns session lifecycle visibility.
func NewService(store *session.Store, engine stt.Engine, publisher *events.Publisher, cfg Config) *Service {
	return &Service{
		store:     store,
		engine:    engine,
		publisher: publisher,
		cfg:       cfg,
		metrics:   metrics.DefaultMetrics,
		log:       logging.WithComponent("live"),
		now:       time.Now,
	}
}

// Connect registers a fresh idle session for a new connection.
func (s *Service) Connect(sessionID string) {
	s.store.Create(sessionID)
	s.metrics.RecordSessionOpened()
	s.log.Info().Str("sessionId", sessionID).Msg("Session created")
}

// HandleEvent processes one session event per the protocol state table. The
// transport must deliver a connection's events in arrival order; events for
// different sessions may be handled concurrently.
func (s *Service) HandleEvent(sessionID string, ev Event, sink Sink) {
	switch ev.Kind {
	case EventStart:
		s.handleStart(sessionID)
	case EventAudioChunk:
		s.handleChunk(sessionID, ev.Chunk, sink)
	case EventStop:
		s.handleStop(sessionID, sink)
	case EventDisconnect:
		s.handleDisconnect(sessionID)
	default:
		s.log.Warn().Str("sessionId", sessionID).Stringer("event", ev.Kind).Msg("Unknown session event")
	}
}

func (s *Service) handleStart(sessionID string) {
	sess, ok := s.store.Get(sessionID)
	if !ok {
		s.log.Warn().Str("sessionId", sessionID).Msg("Start for unknown session")
		return
	}
	sess.Begin(s.now())
	s.log.Info().Str("sessionId", sessionID).Msg("Live transcription started")
}

func (s *Service) handleChunk(sessionID string, chunk []byte, sink Sink) {
	sess, ok := s.store.Get(sessionID)
	if !ok {
		s.log.Warn().Str("sessionId", sessionID).Msg("Audio chunk for unknown session")
		return
	}

	switch err := sess.Append(chunk, s.cfg.MaxBufferedBytes); err {
	case nil:
		s.metrics.RecordChunkAccepted(len(chunk))
	case session.ErrInactive:
		// Capture must be bracketed by start/stop; a chunk outside that
		// window is a client timing quirk, not a failure.
		s.metrics.RecordChunkDiscarded("idle")
		s.log.Warn().Str("sessionId", sessionID).Int("bytes", len(chunk)).Msg("Discarding chunk for idle session")
		return
	case session.ErrBufferFull:
		s.metrics.RecordChunkDiscarded("buffer_full")
		s.log.Warn().
			Str("sessionId", sessionID).
			Int64("bufferedBytes", sess.BufferedBytes()).
			Msg("Discarding chunk, session buffer cap reached")
		return
	default:
		s.log.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to buffer chunk")
		return
	}

	if !sess.TryTrigger(s.now(), s.cfg.Policy) {
		return
	}
	if !sess.TryBeginDrain() {
		// A prior engine call is still outstanding; keep buffering and let a
		// later chunk re-trigger once the slot frees up.
		s.metrics.RecordDrainSuppressed()
		s.log.Debug().Str("sessionId", sessionID).Msg("Drain suppressed, engine call in flight")
		return
	}

	payload := sess.TakeRollover(s.cfg.Policy.RetainChunks)
	if payload == nil {
		sess.EndDrain()
		return
	}
	s.metrics.RecordDrain("interval", len(payload))
	go s.transcribe(sess, payload, sink)
}

func (s *Service) handleStop(sessionID string, sink Sink) {
	sess, ok := s.store.Get(sessionID)
	if !ok {
		s.log.Warn().Str("sessionId", sessionID).Msg("Stop for unknown session")
		return
	}

	payload := sess.TakeAll()
	sess.End()
	s.log.Info().Str("sessionId", sessionID).Int("remainderBytes", len(payload)).Msg("Live transcription stopped")
	if payload == nil {
		return
	}

	s.metrics.RecordDrain("stop", len(payload))
	go func() {
		// Serialize the final flush behind any in-flight drain. The prior
		// invocation is itself bounded by the engine timeout.
		ctx, cancel := s.drainContext()
		defer cancel()
		if err := sess.AcquireDrain(ctx); err != nil {
			s.log.Warn().Err(err).Str("sessionId", sessionID).Msg("Gave up waiting for in-flight drain, final flush dropped")
			return
		}
		s.transcribe(sess, payload, sink)
	}()
}

func (s *Service) handleDisconnect(sessionID string) {
	if _, ok := s.store.Get(sessionID); !ok {
		return
	}
	s.store.Remove(sessionID)
	s.metrics.RecordSessionClosed()
	s.log.Info().Str("sessionId", sessionID).Msg("Session removed")
}
