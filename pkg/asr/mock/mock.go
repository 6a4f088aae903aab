// Package mock provides a test double for the asr.Recognizer interface.
//
// Use Recognizer to feed controlled chunk sequences into the pipeline and to
// inspect which audio paths were submitted for transcription.
//
// Example:
//
//	rec := &mock.Recognizer{
//	    Chunks: []asr.Chunk{{Text: "hello"}},
//	}
//	chunks, _ := rec.Transcribe(ctx, "/tmp/audio.wav")
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/audioscribe/pkg/asr"
)

// TranscribeCall records a single invocation of Recognizer.Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// AudioPath is the file path passed to Transcribe.
	AudioPath string
}

// Recognizer is a mock implementation of asr.Recognizer. The zero value is
// ready to use and returns no chunks.
type Recognizer struct {
	mu sync.Mutex

	// Chunks is returned by every Transcribe call when Err is nil.
	Chunks []asr.Chunk

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// TranscribeFunc, if non-nil, overrides the canned Chunks/Err behaviour
	// entirely. The call is still recorded.
	TranscribeFunc func(ctx context.Context, audioPath string) ([]asr.Chunk, error)

	// TranscribeCalls records every call to Transcribe.
	TranscribeCalls []TranscribeCall
}

// Transcribe records the call and returns Chunks, Err (or delegates to
// TranscribeFunc when set).
func (r *Recognizer) Transcribe(ctx context.Context, audioPath string) ([]asr.Chunk, error) {
	r.mu.Lock()
	r.TranscribeCalls = append(r.TranscribeCalls, TranscribeCall{Ctx: ctx, AudioPath: audioPath})
	fn := r.TranscribeFunc
	chunks, err := r.Chunks, r.Err
	r.mu.Unlock()

	if fn != nil {
		return fn(ctx, audioPath)
	}
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// Calls returns a snapshot of the recorded Transcribe calls.
func (r *Recognizer) Calls() []TranscribeCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TranscribeCall, len(r.TranscribeCalls))
	copy(out, r.TranscribeCalls)
	return out
}

// Compile-time assertion that Recognizer satisfies asr.Recognizer.
var _ asr.Recognizer = (*Recognizer)(nil)
