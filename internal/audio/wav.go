// Package audio provides the small amount of WAV plumbing the capture
// client needs: a streaming PCM header for live capture and header parsing
// for file replay.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the standard PCM WAV header length in bytes.
const HeaderSize = 44

// streaming RIFF sizes; decoders treat the max placeholder as "read until EOF".
const unknownSize = 0xFFFFFFFF

// Format describes a PCM audio stream.
type Format struct {
	SampleRate    uint32
	Channels      uint16
	BitsPerSample uint16
}

// DefaultCaptureFormat is 16 kHz mono 16-bit, the layout speech models are
// trained on.
func DefaultCaptureFormat() Format {
	return Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16}
}

// BytesPerSecond returns the PCM data rate for this format.
func (f Format) BytesPerSecond() int {
	return int(f.SampleRate) * int(f.Channels) * int(f.BitsPerSample) / 8
}

// EncodeStreamHeader renders a PCM WAV header with placeholder sizes, for a
// capture stream whose length is unknown up front. The first slice of a live
// stream carries this header; subsequent slices are raw PCM, mirroring how
// browser media recorders emit continuation chunks.
func EncodeStreamHeader(f Format) []byte {
	h := make([]byte, HeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], unknownSize)
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // audio format: PCM
	binary.LittleEndian.PutUint16(h[22:24], f.Channels)
	binary.LittleEndian.PutUint32(h[24:28], f.SampleRate)
	binary.LittleEndian.PutUint32(h[28:32], uint32(f.BytesPerSecond()))
	binary.LittleEndian.PutUint16(h[32:34], f.Channels*f.BitsPerSample/8)
	binary.LittleEndian.PutUint16(h[34:36], f.BitsPerSample)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], unknownSize)
	return h
}

// ParseHeader extracts the format from a PCM WAV header.
func ParseHeader(h []byte) (Format, error) {
	if len(h) < HeaderSize {
		return Format{}, fmt.Errorf("wav header too short: %d bytes", len(h))
	}
	if string(h[0:4]) != "RIFF" || string(h[8:12]) != "WAVE" {
		return Format{}, errors.New("not a WAV file")
	}
	if audioFormat := binary.LittleEndian.Uint16(h[20:22]); audioFormat != 1 {
		return Format{}, fmt.Errorf("unsupported audio format %d, only PCM", audioFormat)
	}
	return Format{
		SampleRate:    binary.LittleEndian.Uint32(h[24:28]),
		Channels:      binary.LittleEndian.Uint16(h[22:24]),
		BitsPerSample: binary.LittleEndian.Uint16(h[34:36]),
	}, nil
}
