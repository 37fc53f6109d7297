package session

import (
	"bytes"
	"math/rand"
	"testing"
	"time"
)

func defaultPolicy() Policy {
	return Policy{
		ChunkThreshold: 2,
		DrainInterval:  3 * time.Second,
		RetainChunks:   1,
	}
}

func TestPolicy_ShouldDrain(t *testing.T) {
	p := defaultPolicy()

	cases := []struct {
		name    string
		chunks  int
		elapsed time.Duration
		want    bool
	}{
		{"empty buffer never drains", 0, time.Hour, false},
		{"one chunk below floor", 1, 10 * time.Second, false},
		{"two chunks too soon", 2, 2999 * time.Millisecond, false},
		{"two chunks at interval", 2, 3 * time.Second, true},
		{"many chunks past interval", 7, time.Minute, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.ShouldDrain(tc.chunks, tc.elapsed); got != tc.want {
				t.Errorf("ShouldDrain(%d, %v) = %v, want %v", tc.chunks, tc.elapsed, got, tc.want)
			}
		})
	}
}

// Replays random chunk-arrival timings against the session and checks every
// trigger decision against an independently computed prediction.
func TestTryTrigger_RandomArrivalSequences(t *testing.T) {
	p := defaultPolicy()
	rng := rand.New(rand.NewSource(42))

	for seq := 0; seq < 50; seq++ {
		s := newSession("sess")
		now := time.Unix(1000, 0)
		s.Begin(now)

		lastDrain := now
		buffered := 0

		for i := 0; i < 40; i++ {
			now = now.Add(time.Duration(rng.Intn(2500)) * time.Millisecond)
			if err := s.Append(make([]byte, 16), 0); err != nil {
				t.Fatalf("seq %d chunk %d: append: %v", seq, i, err)
			}
			buffered++

			want := buffered >= p.ChunkThreshold && now.Sub(lastDrain) >= p.DrainInterval
			got := s.TryTrigger(now, p)
			if got != want {
				t.Fatalf("seq %d chunk %d: trigger = %v, want %v (buffered=%d elapsed=%v)",
					seq, i, got, want, buffered, now.Sub(lastDrain))
			}
			if got {
				lastDrain = now
				payload := s.TakeRollover(p.RetainChunks)
				if payload == nil {
					t.Fatalf("seq %d chunk %d: drain fired with empty payload", seq, i)
				}
				buffered = p.RetainChunks
			}
		}
	}
}

func TestTryTrigger_InactiveSessionNeverFires(t *testing.T) {
	s := newSession("sess")
	// Never started; force chunks in via Begin+Append then End.
	s.Begin(time.Unix(0, 0))
	_ = s.Append(make([]byte, 8), 0)
	_ = s.Append(make([]byte, 8), 0)
	s.End()

	if s.TryTrigger(time.Unix(100, 0), defaultPolicy()) {
		t.Error("trigger fired on inactive session")
	}
}

func TestAppend_InactiveRejected(t *testing.T) {
	s := newSession("sess")
	if err := s.Append([]byte{1}, 0); err != ErrInactive {
		t.Errorf("expected ErrInactive before start, got %v", err)
	}
	s.Begin(time.Now())
	s.End()
	if err := s.Append([]byte{1}, 0); err != ErrInactive {
		t.Errorf("expected ErrInactive after stop, got %v", err)
	}
}

func TestAppend_BufferCap(t *testing.T) {
	s := newSession("sess")
	s.Begin(time.Now())

	if err := s.Append(make([]byte, 60), 100); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := s.Append(make([]byte, 60), 100); err != ErrBufferFull {
		t.Errorf("expected ErrBufferFull, got %v", err)
	}
	if s.ChunkCount() != 1 {
		t.Errorf("rejected chunk must not be buffered, count = %d", s.ChunkCount())
	}
}

func TestTakeRollover_KeepsLastChunk(t *testing.T) {
	s := newSession("sess")
	s.Begin(time.Now())
	_ = s.Append([]byte("aaaa"), 0)
	_ = s.Append([]byte("bbbb"), 0)
	_ = s.Append([]byte("cccc"), 0)

	payload := s.TakeRollover(1)
	if !bytes.Equal(payload, []byte("aaaabbbbcccc")) {
		t.Errorf("payload = %q, want concatenation in arrival order", payload)
	}
	if s.ChunkCount() != 1 {
		t.Fatalf("expected exactly 1 retained chunk, got %d", s.ChunkCount())
	}
	if s.BufferedBytes() != 4 {
		t.Errorf("retained bytes = %d, want 4", s.BufferedBytes())
	}

	// The retained chunk is the tail of the drained payload.
	next := s.TakeAll()
	if !bytes.Equal(next, []byte("cccc")) {
		t.Errorf("retained chunk = %q, want %q", next, "cccc")
	}
}

func TestTakeRollover_EmptyBuffer(t *testing.T) {
	s := newSession("sess")
	s.Begin(time.Now())
	if payload := s.TakeRollover(1); payload != nil {
		t.Errorf("expected nil payload for empty buffer, got %q", payload)
	}
}

func TestTakeRollover_RetainExceedsBuffer(t *testing.T) {
	s := newSession("sess")
	s.Begin(time.Now())
	_ = s.Append([]byte("xy"), 0)

	payload := s.TakeRollover(3)
	if !bytes.Equal(payload, []byte("xy")) {
		t.Errorf("payload = %q, want %q", payload, "xy")
	}
	if s.ChunkCount() != 1 {
		t.Errorf("expected the single chunk retained, got %d", s.ChunkCount())
	}
}

func TestTakeAll_ClearsBuffer(t *testing.T) {
	s := newSession("sess")
	s.Begin(time.Now())
	_ = s.Append([]byte("12"), 0)
	_ = s.Append([]byte("34"), 0)

	payload := s.TakeAll()
	if !bytes.Equal(payload, []byte("1234")) {
		t.Errorf("payload = %q, want %q", payload, "1234")
	}
	if s.ChunkCount() != 0 || s.BufferedBytes() != 0 {
		t.Error("forced drain must empty the buffer")
	}
}

func TestDrainSlot_SingleOwner(t *testing.T) {
	s := newSession("sess")
	if !s.TryBeginDrain() {
		t.Fatal("first claim should succeed")
	}
	if s.TryBeginDrain() {
		t.Error("second claim should fail while in flight")
	}
	s.EndDrain()
	if !s.TryBeginDrain() {
		t.Error("claim after release should succeed")
	}
}

func TestBegin_ResetsBuffer(t *testing.T) {
	s := newSession("sess")
	s.Begin(time.Unix(0, 0))
	_ = s.Append([]byte("stale"), 0)

	s.Begin(time.Unix(50, 0))
	if s.ChunkCount() != 0 {
		t.Errorf("restart must reset the buffer, count = %d", s.ChunkCount())
	}
	if !s.Active() {
		t.Error("session should be active after Begin")
	}
}

func TestStore_CreateGetRemove(t *testing.T) {
	st := NewStore()

	s := st.Create("conn-1")
	if got, ok := st.Get("conn-1"); !ok || got != s {
		t.Fatal("Get should return the created session")
	}
	if st.Len() != 1 {
		t.Errorf("Len = %d, want 1", st.Len())
	}

	st.Remove("conn-1")
	if _, ok := st.Get("conn-1"); ok {
		t.Error("session should be gone after Remove")
	}

	// Idempotent: removing again must not panic or error.
	st.Remove("conn-1")
	if st.Len() != 0 {
		t.Errorf("Len = %d, want 0", st.Len())
	}
}

func TestStore_CreateReplacesStaleSession(t *testing.T) {
	st := NewStore()

	old := st.Create("conn-1")
	old.Begin(time.Now())
	_ = old.Append([]byte("stale"), 0)

	fresh := st.Create("conn-1")
	if fresh == old {
		t.Fatal("Create should replace the existing session")
	}
	if fresh.ChunkCount() != 0 {
		t.Error("replacement session must start with an empty buffer")
	}
}
