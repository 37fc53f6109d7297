// Package models defines the data structures for live transcription events.
package models

// StatusNoSpeech marks a drain cycle where the engine ran but recognized
// nothing. It lets clients distinguish "heard silence" from "not yet run".
const StatusNoSpeech = "no_speech"

// LiveTranscription is the payload of the live-transcription event.
type LiveTranscription struct {
	Text   string `json:"text"`
	Status string `json:"status,omitempty"`
}

// TranscriptionError is the payload of the transcription-error event.
type TranscriptionError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// TranscriptEvent is the Kafka event published for every drain that produced
// recognized text.
type TranscriptEvent struct {
	EventType    string `json:"eventType"`
	SessionID    string `json:"sessionId"`
	Text         string `json:"text"`
	AudioBytes   int64  `json:"audioBytes"`
	ProcessingMs int64  `json:"processingMs"`
	Timestamp    int64  `json:"timestamp"`
}
