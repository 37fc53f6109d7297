package audio

import "testing"

func TestEncodeStreamHeader_RoundTrip(t *testing.T) {
	f := DefaultCaptureFormat()
	h := EncodeStreamHeader(f)

	if len(h) != HeaderSize {
		t.Fatalf("header length = %d, want %d", len(h), HeaderSize)
	}

	parsed, err := ParseHeader(h)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if parsed != f {
		t.Errorf("round trip = %+v, want %+v", parsed, f)
	}
}

func TestBytesPerSecond(t *testing.T) {
	f := Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16}
	if got := f.BytesPerSecond(); got != 32000 {
		t.Errorf("BytesPerSecond = %d, want 32000", got)
	}
	stereo := Format{SampleRate: 44100, Channels: 2, BitsPerSample: 16}
	if got := stereo.BytesPerSecond(); got != 176400 {
		t.Errorf("BytesPerSecond = %d, want 176400", got)
	}
}

func TestParseHeader_Rejections(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 10)); err == nil {
		t.Error("expected error for short header")
	}

	h := EncodeStreamHeader(DefaultCaptureFormat())
	copy(h[0:4], "OGGS")
	if _, err := ParseHeader(h); err == nil {
		t.Error("expected error for non-RIFF data")
	}

	h = EncodeStreamHeader(DefaultCaptureFormat())
	h[20] = 3 // IEEE float, not PCM
	if _, err := ParseHeader(h); err == nil {
		t.Error("expected error for non-PCM format")
	}
}
