// Command audioclient streams audio to the live transcription service and
// prints the incremental transcript. It captures the microphone by default,
// or replays a PCM WAV file at real-time pace.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/gorilla/websocket"

	"live-transcription-service/internal/audio"
	"live-transcription-service/internal/models"
)

type clientEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func main() {
	serverURL := flag.String("server", "ws://localhost:8080/ws/live", "WebSocket endpoint")
	mode := flag.String("mode", "mic", "capture mode: mic | file")
	file := flag.String("file", "", "WAV file to replay in file mode")
	slice := flag.Duration("slice", time.Second, "duration of each audio slice")
	sampleRate := flag.Uint("rate", 16000, "microphone sample rate in Hz")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", *serverURL, err)
	}
	defer conn.Close()
	log.Printf("Connected to %s", *serverURL)

	// Print transcript events until the connection closes.
	done := make(chan struct{})
	go receiveLoop(conn, done)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := writeControl(conn, "start-live-transcription"); err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}

	switch *mode {
	case "mic":
		err = captureMicrophone(ctx, conn, uint32(*sampleRate), *slice)
	case "file":
		if *file == "" {
			log.Fatal("file mode requires -file")
		}
		err = replayFile(ctx, conn, *file, *slice)
	default:
		log.Fatalf("Unknown mode %q", *mode)
	}
	if err != nil {
		log.Printf("Capture ended with error: %v", err)
	}

	if err := writeControl(conn, "stop-live-transcription"); err != nil {
		log.Printf("Failed to send stop: %v", err)
	}

	// Let the final forced drain come back before closing.
	select {
	case <-time.After(20 * time.Second):
		log.Println("Timed out waiting for the final transcript")
	case <-done:
	}
}

func writeControl(conn *websocket.Conn, event string) error {
	return conn.WriteJSON(clientEnvelope{Event: event})
}

func receiveLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		var env clientEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		switch env.Event {
		case "live-transcription":
			var result models.LiveTranscription
			if err := json.Unmarshal(env.Data, &result); err != nil {
				log.Printf("Bad result payload: %v", err)
				continue
			}
			if result.Status == models.StatusNoSpeech {
				log.Println("... (no speech detected)")
			} else {
				log.Printf("📝 %s", result.Text)
			}
		case "transcription-error":
			var e models.TranscriptionError
			_ = json.Unmarshal(env.Data, &e)
			log.Printf("Transcription error: %s (%s)", e.Error, e.Details)
		}
	}
}

// captureMicrophone records 16-bit mono PCM and forwards one slice per
// interval, the first slice prefixed with a streaming WAV header. The device
// is always released, including on permission or init failure paths.
func captureMicrophone(ctx context.Context, conn *websocket.Conn, sampleRate uint32, slice time.Duration) error {
	format := audio.Format{SampleRate: sampleRate, Channels: 1, BitsPerSample: 16}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
	}()

	var mu sync.Mutex
	var pending []byte

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = format.SampleRate

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			buf := make([]byte, len(input))
			copy(buf, input)
			mu.Lock()
			pending = append(pending, buf...)
			mu.Unlock()
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return err
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return err
	}
	defer func() { _ = device.Stop() }()

	log.Printf("Recording at %d Hz, %v slices. Ctrl-C to stop.", sampleRate, slice)

	ticker := time.NewTicker(slice)
	defer ticker.Stop()

	first := true
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			mu.Lock()
			chunk := pending
			pending = nil
			mu.Unlock()
			if len(chunk) == 0 {
				continue
			}
			if first {
				chunk = append(audio.EncodeStreamHeader(format), chunk...)
				first = false
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				return err
			}
		}
	}
}

// replayFile streams a PCM WAV file in real-time slices, header included in
// the first slice so each session's concatenated clip stays decodable.
func replayFile(ctx context.Context, conn *websocket.Conn, path string, slice time.Duration) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, audio.HeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return err
	}
	format, err := audio.ParseHeader(header)
	if err != nil {
		return err
	}

	sliceBytes := int(float64(format.BytesPerSecond()) * slice.Seconds())
	log.Printf("Replaying %s: %d Hz, %d channels, %d bytes per slice",
		path, format.SampleRate, format.Channels, sliceBytes)

	buf := make([]byte, sliceBytes)
	first := true
	for {
		n, err := f.Read(buf)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		chunk := make([]byte, 0, audio.HeaderSize+n)
		if first {
			chunk = append(chunk, header...)
			first = false
		}
		chunk = append(chunk, buf[:n]...)

		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(slice):
		}
	}
}
