package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"live-transcription-service/internal/events"
	"live-transcription-service/internal/models"
	"live-transcription-service/internal/service/live"
	"live-transcription-service/internal/service/session"
	"live-transcription-service/internal/service/stt/stub"
)

func newTestServer(t *testing.T) (*httptest.Server, *session.Store) {
	t.Helper()
	store := session.NewStore()
	svc := live.NewService(store, stub.New("hello world"), events.New(&events.Config{Enabled: false}), live.Config{
		Policy: session.Policy{
			ChunkThreshold: 2,
			DrainInterval:  0, // drain as soon as the chunk floor is met
			RetainChunks:   1,
		},
		SpoolDir:      t.TempDir(),
		EngineTimeout: 5 * time.Second,
	})
	srv := httptest.NewServer(NewHandler(svc))
	t.Cleanup(srv.Close)
	return srv, store
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendControl(t *testing.T, conn *websocket.Conn, event string) {
	t.Helper()
	if err := conn.WriteJSON(envelope{Event: event}); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read envelope: %v", err)
	}
	return env
}

func TestLiveSession_OverWebSocket(t *testing.T) {
	srv, store := newTestServer(t)
	conn := dial(t, srv)

	sendControl(t, conn, EventStartLiveTranscription)
	for i := 0; i < 2; i++ {
		if err := conn.WriteMessage(websocket.BinaryMessage, make([]byte, 16000)); err != nil {
			t.Fatalf("write chunk %d: %v", i, err)
		}
	}

	env := readEnvelope(t, conn)
	if env.Event != EventLiveTranscription {
		t.Fatalf("event = %q, want %q", env.Event, EventLiveTranscription)
	}
	var result models.LiveTranscription
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.Text != "hello world" {
		t.Errorf("text = %q, want %q", result.Text, "hello world")
	}

	// The rollover chunk is flushed by stop as a forced drain.
	sendControl(t, conn, EventStopLiveTranscription)
	env = readEnvelope(t, conn)
	if env.Event != EventLiveTranscription {
		t.Fatalf("event after stop = %q, want %q", env.Event, EventLiveTranscription)
	}

	if store.Len() != 1 {
		t.Errorf("store has %d sessions while connected, want 1", store.Len())
	}
}

func TestDisconnect_RemovesSession(t *testing.T) {
	srv, store := newTestServer(t)
	conn := dial(t, srv)

	sendControl(t, conn, EventStartLiveTranscription)
	deadline := time.Now().Add(2 * time.Second)
	for store.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("session was never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for store.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not removed after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestChunkBeforeStart_ProducesNoEvents(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	if err := conn.WriteMessage(websocket.BinaryMessage, make([]byte, 16000)); err != nil {
		t.Fatalf("write chunk: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var env envelope
	if err := conn.ReadJSON(&env); err == nil {
		t.Fatalf("unexpected event %q for a chunk sent while idle", env.Event)
	}
}
