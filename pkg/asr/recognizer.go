// Package asr defines the Recognizer interface for batch speech-to-text
// backends.
//
// A recognizer wraps a transcription engine (a local whisper.cpp model, a
// whisper.cpp server, or the hosted OpenAI API) and exposes a uniform
// file-in, chunks-out contract. The central type is [Chunk]: one recognized
// speech segment with its text and, when the backend reports one, a start/end
// time range in seconds.
//
// Implementations must be safe for concurrent use — a single recognizer is
// shared by all pipeline runs in the process.
package asr

import "context"

// Recognizer is the abstraction over any batch speech-to-text backend.
//
// Transcribe reads the audio file at audioPath and returns the recognized
// chunks in chronological order. The recognizer never modifies or deletes the
// file; the caller retains ownership of it.
//
// Implementations must be safe for concurrent use. Multiple transcriptions
// may be in flight simultaneously (one per pipeline run).
type Recognizer interface {
	// Transcribe performs batch recognition on the audio file at audioPath.
	//
	// The returned slice preserves the chronological order emitted by the
	// engine and must not be mutated by the recognizer after return. An empty
	// slice with a nil error means the audio contained no recognizable speech.
	//
	// Returns an error if the file cannot be read, the audio format is
	// unsupported, or the backend call fails.
	Transcribe(ctx context.Context, audioPath string) ([]Chunk, error)
}
