package ws

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"live-transcription-service/internal/observability/logging"
	"live-transcription-service/internal/service/live"
)

// Handler upgrades HTTP requests to live transcription WebSocket sessions.
// Each connection gets a server-allocated session id; the read loop decodes
// frames into session events and feeds them to the session manager in
// arrival order.
type Handler struct {
	svc      *live.Service
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewHandler creates the WebSocket endpoint for the given session manager.
func NewHandler(svc *live.Service) *Handler {
	return &Handler{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  32 * 1024,
			WriteBufferSize: 4 * 1024,
			// The UI is served from a different origin in development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: logging.WithComponent("ws"),
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	sessionID := uuid.NewString()
	sink := newConnSink(conn)
	log := h.log.With().Str("sessionId", sessionID).Str("remote", r.RemoteAddr).Logger()

	h.svc.Connect(sessionID)
	log.Info().Msg("Client connected")

	defer func() {
		h.svc.HandleEvent(sessionID, live.Event{Kind: live.EventDisconnect}, sink)
		_ = conn.Close()
		log.Info().Msg("Client disconnected")
	}()

	h.readLoop(conn, sessionID, sink, log)
}

func (h *Handler) readLoop(conn *websocket.Conn, sessionID string, sink live.Sink, log zerolog.Logger) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("Connection closed unexpectedly")
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			h.svc.HandleEvent(sessionID, live.Event{Kind: live.EventAudioChunk, Chunk: data}, sink)

		case websocket.TextMessage:
			var env envelope
			if err := json.Unmarshal(data, &env); err != nil {
				log.Warn().Err(err).Msg("Unparseable control frame")
				continue
			}
			switch env.Event {
			case EventStartLiveTranscription:
				h.svc.HandleEvent(sessionID, live.Event{Kind: live.EventStart}, sink)
			case EventStopLiveTranscription:
				h.svc.HandleEvent(sessionID, live.Event{Kind: live.EventStop}, sink)
			default:
				log.Warn().Str("event", env.Event).Msg("Unknown control event")
			}
		}
	}
}
