package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"live-transcription-service/internal/models"
)

const writeTimeout = 5 * time.Second

// connSink delivers server-to-client events over one WebSocket connection.
// gorilla/websocket allows a single concurrent writer, so writes from engine
// completion goroutines are serialized with a mutex.
type connSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newConnSink(conn *websocket.Conn) *connSink {
	return &connSink{conn: conn}
}

// SendTranscription implements live.Sink.
func (s *connSink) SendTranscription(ev models.LiveTranscription) error {
	return s.write(EventLiveTranscription, ev)
}

// SendError implements live.Sink.
func (s *connSink) SendError(ev models.TranscriptionError) error {
	return s.write(EventTranscriptionError, ev)
}

func (s *connSink) write(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(envelope{Event: event, Data: data})
}
