// Package openai provides a recognizer backed by the hosted OpenAI
// transcription API. It is the no-local-model deployment option: audio files
// are uploaded to the API and segment timings come back in the verbose JSON
// response.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MrWong99/audioscribe/pkg/asr"
)

// defaultModel is the transcription model used when none is configured.
// Segment-level timestamps require whisper-1; the gpt-4o transcribe models
// only report text.
const defaultModel = "whisper-1"

// Compile-time assertion that Recognizer implements asr.Recognizer.
var _ asr.Recognizer = (*Recognizer)(nil)

// config holds optional configuration for the recognizer.
type config struct {
	baseURL  string
	model    string
	language string
	timeout  time.Duration
}

// Option is a functional option for Recognizer.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Useful for
// API-compatible proxies and self-hosted gateways.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithModel selects the transcription model (e.g., "whisper-1").
func WithModel(model string) Option {
	return func(c *config) {
		c.model = model
	}
}

// WithLanguage sets the ISO-639-1 input language hint (e.g., "en").
func WithLanguage(lang string) Option {
	return func(c *config) {
		c.language = lang
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// Recognizer implements asr.Recognizer using the OpenAI transcription API.
type Recognizer struct {
	client   oai.Client
	model    string
	language string
}

// New constructs a new OpenAI-backed Recognizer.
func New(apiKey string, opts ...Option) (*Recognizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	model := cfg.model
	if model == "" {
		model = defaultModel
	}

	client := oai.NewClient(reqOpts...)
	return &Recognizer{client: client, model: model, language: cfg.language}, nil
}

// verboseTranscription is the verbose_json response shape. The SDK's typed
// Transcription value does not surface per-segment timing, so segments are
// re-parsed from the raw response body.
type verboseTranscription struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads the audio file at audioPath and converts the returned
// segments to chunks. When the API reports no segments the whole text is
// returned as a single chunk without a timestamp.
func (r *Recognizer) Transcribe(ctx context.Context, audioPath string) ([]asr.Chunk, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("openai: open audio file: %w", err)
	}
	defer f.Close()

	params := oai.AudioTranscriptionNewParams{
		File:           f,
		Model:          oai.AudioModel(r.model),
		ResponseFormat: oai.AudioResponseFormatVerboseJSON,
	}
	if r.language != "" {
		params.Language = oai.String(r.language)
	}

	resp, err := r.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: transcription request: %w", err)
	}

	var verbose verboseTranscription
	if err := json.Unmarshal([]byte(resp.RawJSON()), &verbose); err != nil {
		return nil, fmt.Errorf("openai: parse verbose response: %w", err)
	}

	if len(verbose.Segments) == 0 {
		if verbose.Text == "" {
			return nil, nil
		}
		return []asr.Chunk{{Text: verbose.Text}}, nil
	}

	chunks := make([]asr.Chunk, 0, len(verbose.Segments))
	for _, seg := range verbose.Segments {
		chunks = append(chunks, asr.Chunk{
			Text:      seg.Text,
			Timestamp: &asr.TimeRange{Start: seg.Start, End: seg.End},
		})
	}
	return chunks, nil
}
