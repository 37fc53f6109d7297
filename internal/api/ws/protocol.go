// Package ws exposes the live transcription session manager over a
// WebSocket connection. Text frames carry JSON control and result events;
// binary frames carry raw audio chunks.
package ws

import "encoding/json"

// Client-to-server and server-to-client event names.
const (
	EventStartLiveTranscription = "start-live-transcription"
	EventStopLiveTranscription  = "stop-live-transcription"
	EventLiveTranscription      = "live-transcription"
	EventTranscriptionError     = "transcription-error"
)

// envelope is the JSON frame shape in both directions. Audio is not
// enveloped; it travels as binary frames.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}
