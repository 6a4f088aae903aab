// Package whisper provides whisper.cpp-backed recognizers.
//
// Two implementations are available:
//
//   - [Recognizer] talks to a running whisper-server binary (which exposes a
//     REST API at POST /inference) and submits the whole audio file as a
//     single batch inference request.
//   - [NativeRecognizer] uses the whisper.cpp CGO bindings directly,
//     eliminating the server round-trip. The ggml model is loaded once at
//     construction and shared by all transcriptions.
//
// Usage:
//
//	r, err := whisper.New("http://localhost:8080",
//	    whisper.WithLanguage("en"),
//	)
//	chunks, err := r.Transcribe(ctx, "/tmp/audio.wav")
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrWong99/audioscribe/pkg/asr"
)

const (
	defaultLanguage = "en"

	// defaultTimeout bounds a single inference request. Batch transcription
	// of long recordings is slow, so this is deliberately generous.
	defaultTimeout = 10 * time.Minute
)

// Compile-time assertion that Recognizer implements asr.Recognizer.
var _ asr.Recognizer = (*Recognizer)(nil)

// Option is a functional option for configuring a Recognizer.
type Option func(*Recognizer)

// WithModel sets the model identifier forwarded to the whisper.cpp server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with — this is the default.
func WithModel(model string) Option {
	return func(r *Recognizer) {
		r.model = model
	}
}

// WithLanguage sets the BCP-47 language code sent to the whisper.cpp server
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(r *Recognizer) {
		r.language = lang
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 10 minutes.
func WithTimeout(d time.Duration) Option {
	return func(r *Recognizer) {
		r.httpClient.Timeout = d
	}
}

// Recognizer implements asr.Recognizer backed by a whisper.cpp HTTP server.
// It is safe for concurrent use; each Transcribe call is an independent
// request.
type Recognizer struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// New creates a Recognizer that connects to the whisper.cpp HTTP server at
// serverURL (e.g., "http://localhost:8080"). serverURL must be non-empty.
// Functional options may be provided to override defaults.
func New(serverURL string, opts ...Option) (*Recognizer, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	r := &Recognizer{
		serverURL:  serverURL,
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// inferenceResponse is the verbose_json response shape of whisper-server's
// POST /inference endpoint. Servers configured for plain "json" output omit
// the segments array and report only the concatenated text.
type inferenceResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads the audio file at audioPath to the whisper.cpp server as
// multipart/form-data and converts the returned segments to chunks.
//
// When the server returns no segment timing (plain "json" response format),
// the whole text is returned as a single chunk without a timestamp.
func (r *Recognizer) Transcribe(ctx context.Context, audioPath string) ([]asr.Chunk, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: open audio file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, fmt.Errorf("whisper: read audio file: %w", err)
	}

	// Request per-segment timing so chunks carry timestamps.
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("whisper: write response_format field: %w", err)
	}
	if r.language != "" {
		if err := mw.WriteField("language", r.language); err != nil {
			return nil, fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if r.model != "" {
		if err := mw.WriteField("model", r.model); err != nil {
			return nil, fmt.Errorf("whisper: write model field: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	endpoint := r.serverURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("whisper: server returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whisper: read response body: %w", err)
	}

	var result inferenceResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	if len(result.Segments) == 0 {
		text := strings.TrimSpace(result.Text)
		if text == "" {
			return nil, nil
		}
		return []asr.Chunk{{Text: text}}, nil
	}

	chunks := make([]asr.Chunk, 0, len(result.Segments))
	for _, seg := range result.Segments {
		chunks = append(chunks, asr.Chunk{
			Text:      seg.Text,
			Timestamp: &asr.TimeRange{Start: seg.Start, End: seg.End},
		})
	}
	return chunks, nil
}
