// Package session holds per-connection live transcription state: the audio
// buffer, the activity flag, and the drain trigger policy.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Errors returned when a chunk cannot be buffered.
var (
	ErrInactive   = errors.New("session is not transcribing")
	ErrBufferFull = errors.New("session buffer limit exceeded")
)

// Policy decides when accumulated audio is worth submitting to the engine.
// Both conditions must hold: a chunk-count floor (a single slice transcribes
// poorly) and a minimum interval since the last drain (paces engine calls).
type Policy struct {
	ChunkThreshold int
	DrainInterval  time.Duration
	RetainChunks   int
}

// ShouldDrain reports whether a drain may fire for the given buffer size and
// elapsed time since the last drain.
func (p Policy) ShouldDrain(chunks int, elapsed time.Duration) bool {
	if chunks == 0 {
		return false
	}
	return chunks >= p.ChunkThreshold && elapsed >= p.DrainInterval
}

// Session is the state for one live connection. All mutating methods are
// safe for concurrent use; the transport delivers a connection's events in
// order, but drain completions re-enter from engine goroutines.
type Session struct {
	mu            sync.Mutex
	id            string
	chunks        [][]byte
	bufferedBytes int64
	active        bool
	lastDrain     time.Time

	// drainSlot is a one-token semaphore enforcing at most one outstanding
	// engine invocation per session.
	drainSlot chan struct{}
}

func newSession(id string) *Session {
	s := &Session{
		id:        id,
		drainSlot: make(chan struct{}, 1),
	}
	s.drainSlot <- struct{}{}
	return s
}

// ID returns the connection identifier this session is keyed by.
func (s *Session) ID() string {
	return s.id
}

// Begin resets the buffer and marks the session as transcribing. The drain
// timer starts from now.
func (s *Session) Begin(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.bufferedBytes = 0
	s.active = true
	s.lastDrain = now
}

// End marks the session as no longer transcribing. The buffer is cleared;
// any remainder must be drained before calling End.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.chunks = nil
	s.bufferedBytes = 0
}

// Active reports whether the session is between start and stop.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Append buffers one audio chunk. maxBytes caps the buffered total when
// positive; chunks beyond the cap are rejected rather than buffered
// unboundedly while the engine is busy.
func (s *Session) Append(chunk []byte, maxBytes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrInactive
	}
	if maxBytes > 0 && s.bufferedBytes+int64(len(chunk)) > maxBytes {
		return ErrBufferFull
	}
	s.chunks = append(s.chunks, chunk)
	s.bufferedBytes += int64(len(chunk))
	return nil
}

// ChunkCount returns the number of buffered chunks.
func (s *Session) ChunkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// BufferedBytes returns the buffered payload size.
func (s *Session) BufferedBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bufferedBytes
}

// TryTrigger checks the policy against the current buffer and, if the drain
// fires, resets the drain timer. Check and reset happen under one lock so
// two qualifying chunks cannot both claim the same window.
func (s *Session) TryTrigger(now time.Time, p Policy) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	if !p.ShouldDrain(len(s.chunks), now.Sub(s.lastDrain)) {
		return false
	}
	s.lastDrain = now
	return true
}

// TakeRollover concatenates the buffered chunks into one payload and retains
// the last `retain` chunks as the continuity seed for the next window.
// Returns nil if the buffer is empty.
func (s *Session) TakeRollover(retain int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.chunks) == 0 {
		return nil
	}
	payload := concat(s.chunks)
	if retain < 0 {
		retain = 0
	}
	if retain > len(s.chunks) {
		retain = len(s.chunks)
	}
	kept := s.chunks[len(s.chunks)-retain:]
	s.chunks = append([][]byte(nil), kept...)
	s.bufferedBytes = 0
	for _, c := range s.chunks {
		s.bufferedBytes += int64(len(c))
	}
	return payload
}

// TakeAll concatenates and clears the whole buffer. Used by the forced drain
// on stop, which has no next window to seed.
func (s *Session) TakeAll() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.chunks) == 0 {
		return nil
	}
	payload := concat(s.chunks)
	s.chunks = nil
	s.bufferedBytes = 0
	return payload
}

// TryBeginDrain claims the single in-flight engine slot for this session.
// Returns false if a prior drain has not completed yet.
func (s *Session) TryBeginDrain() bool {
	select {
	case <-s.drainSlot:
		return true
	default:
		return false
	}
}

// AcquireDrain blocks until the engine slot is free or the context expires.
// Used by the forced drain on stop, which serializes behind an in-flight
// invocation instead of dropping the remainder.
func (s *Session) AcquireDrain(ctx context.Context) error {
	select {
	case <-s.drainSlot:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EndDrain releases the in-flight engine slot.
func (s *Session) EndDrain() {
	select {
	case s.drainSlot <- struct{}{}:
	default:
	}
}

// DrainInFlight reports whether an engine invocation is outstanding.
func (s *Session) DrainInFlight() bool {
	return len(s.drainSlot) == 0
}

func concat(chunks [][]byte) []byte {
	var n int
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
