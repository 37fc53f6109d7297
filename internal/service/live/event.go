// Package live implements the streaming transcription session manager: the
// per-connection state machine, the drain trigger handling, and the dispatch
// of buffered audio to the transcription engine.
package live

import (
	"fmt"

	"live-transcription-service/internal/models"
)

// EventKind enumerates the session events a transport can deliver. Using a
// closed set instead of string event names keeps the state machine testable
// without a live connection.
type EventKind int

const (
	// EventStart begins transcribing: resets the buffer and the drain timer.
	EventStart EventKind = iota
	// EventAudioChunk carries one capture slice.
	EventAudioChunk
	// EventStop ends transcribing and forces a final drain of any remainder.
	EventStop
	// EventDisconnect removes the session.
	EventDisconnect
)

// String returns the wire-level event name where one exists.
func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start-live-transcription"
	case EventAudioChunk:
		return "audio-blob"
	case EventStop:
		return "stop-live-transcription"
	case EventDisconnect:
		return "disconnect"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Event is one transport-delivered session event.
type Event struct {
	Kind  EventKind
	Chunk []byte // set for EventAudioChunk
}

// Sink delivers server-to-client events for one connection. Implementations
// must be safe for calls from engine completion goroutines.
type Sink interface {
	SendTranscription(models.LiveTranscription) error
	SendError(models.TranscriptionError) error
}
