// This file contains the NativeRecognizer implementation backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/MrWong99/audioscribe/pkg/asr"
)

// Compile-time assertion that NativeRecognizer satisfies asr.Recognizer.
var _ asr.Recognizer = (*NativeRecognizer)(nil)

// NativeRecognizer implements asr.Recognizer using the whisper.cpp Go
// bindings (CGO). The model is loaded once at construction and shared across
// all transcriptions; each Transcribe call runs on its own whisper context,
// so concurrent calls do not interfere.
type NativeRecognizer struct {
	model    whisperlib.Model
	language string
}

// NativeOption is a functional option for configuring a NativeRecognizer.
type NativeOption func(*NativeRecognizer)

// WithNativeLanguage sets the BCP-47 language code for transcription
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithNativeLanguage(lang string) NativeOption {
	return func(r *NativeRecognizer) { r.language = lang }
}

// NewNative creates a NativeRecognizer that loads the whisper.cpp ggml model
// from the given file path. Loading is expensive (hundreds of MB for larger
// models), so construct one recognizer per process and share it. The caller
// must call Close when the recognizer is no longer needed.
func NewNative(modelPath string, opts ...NativeOption) (*NativeRecognizer, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	r := &NativeRecognizer{
		model:    model,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Close releases the whisper model. Must be called when the recognizer is no
// longer needed.
func (r *NativeRecognizer) Close() error {
	if r.model != nil {
		return r.model.Close()
	}
	return nil
}

// Transcribe decodes the 16-bit PCM WAV file at audioPath, runs whisper.cpp
// inference on a fresh context, and returns one chunk per whisper segment
// with its start/end offsets.
//
// The audio must be mono-downmixable 16-bit PCM at 16 kHz — the sample rate
// whisper.cpp operates on. The acquisition pipeline's ffmpeg transcode
// produces exactly this format; arbitrary uploads may need the server-backed
// [Recognizer] instead.
func (r *NativeRecognizer) Transcribe(ctx context.Context, audioPath string) ([]asr.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("whisper: context already cancelled: %w", err)
	}

	samples, sampleRate, err := decodeWAVFile(audioPath)
	if err != nil {
		return nil, err
	}
	if sampleRate != whisperSampleRate {
		return nil, fmt.Errorf("whisper: audio must be %d Hz, got %d Hz", whisperSampleRate, sampleRate)
	}

	// Each whisper context is NOT thread-safe, but the model can be shared
	// across goroutines.
	wctx, err := r.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper: create context: %w", err)
	}

	if err := wctx.SetLanguage(r.language); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", r.language, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper: process audio: %w", err)
	}

	var chunks []asr.Chunk
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whisper: read segment: %w", err)
		}
		chunks = append(chunks, asr.Chunk{
			Text: segment.Text,
			Timestamp: &asr.TimeRange{
				Start: segment.Start.Seconds(),
				End:   segment.End.Seconds(),
			},
		})
	}

	return chunks, nil
}
