// Package pipeline sequences acquisition, recognition, and normalization
// into one blocking run per transcription request.
//
// A [Pipeline] owns no per-run state: the recognizer handle is injected once
// at construction and shared read-only by all runs, temp artifacts belong to
// the run that acquired them, and nothing is cached between invocations.
// Every failure is terminal for its run — no stage is retried — and every
// temp file created before the failure is deleted before the error reaches
// the caller.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/audioscribe/internal/acquire"
	"github.com/MrWong99/audioscribe/internal/observe"
	"github.com/MrWong99/audioscribe/internal/transcript"
	"github.com/MrWong99/audioscribe/pkg/asr"
)

// Stage identifies the pipeline stage an error originated from.
type Stage string

const (
	// StageAcquire covers download, transcode, and temp-storage failures.
	StageAcquire Stage = "acquire"

	// StageTranscribe covers recognizer failures.
	StageTranscribe Stage = "transcribe"
)

// StageError wraps a stage failure so callers can classify it without
// inspecting error strings. Unwrap exposes the underlying cause (e.g., an
// *acquire.DownloadError).
type StageError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error { return e.Err }

// Result holds the two transcripts produced by a successful run. Partial
// results are never returned: a failed run yields a nil Result.
type Result struct {
	// Formatted is the line-per-chunk transcript with timestamp annotations.
	Formatted string

	// Flat is the single-string transcript with consecutive duplicate chunk
	// texts removed (and, when enabled, adjacent duplicate words collapsed).
	Flat string

	// Chunks is the number of recognizer chunks the transcripts were built
	// from.
	Chunks int
}

// Acquirer resolves a source into a local audio artifact. Satisfied by
// *acquire.Acquirer; an interface so tests can inject failures without
// touching the filesystem.
type Acquirer interface {
	Acquire(ctx context.Context, src acquire.Source) (*acquire.Artifact, error)
}

// Option is a functional option for [New].
type Option func(*Pipeline)

// WithMetrics attaches metric instruments to the pipeline. Without it, runs
// are not measured.
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithWordDedupe toggles the adjacent-word deduplication refinement applied
// to the flat transcript. Disabled by default.
func WithWordDedupe(enabled bool) Option {
	return func(p *Pipeline) { p.dedupeWords = enabled }
}

// Pipeline runs the acquire → transcribe → normalize sequence. It is safe
// for concurrent use; concurrent runs share only the injected recognizer.
type Pipeline struct {
	acquirer    Acquirer
	recognizer  asr.Recognizer
	metrics     *observe.Metrics
	dedupeWords bool
}

// New creates a Pipeline around the given acquirer and recognizer. The
// recognizer is expected to be initialized once by the caller (model loading
// is expensive) and shared across all pipeline instances and runs.
func New(acquirer Acquirer, recognizer asr.Recognizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		acquirer:   acquirer,
		recognizer: recognizer,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run executes one full transcription of src and returns both transcripts.
//
// On any stage failure Run halts immediately and returns a [*StageError];
// the audio artifacts acquired so far are deleted before the error is
// returned, including when the recognizer itself fails. Artifact cleanup
// errors are logged and counted but never replace the run's outcome.
func (p *Pipeline) Run(ctx context.Context, src acquire.Source) (_ *Result, err error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.run")
	defer span.End()

	log := observe.Logger(ctx).With("source", src.Kind())
	srcAttr := attribute.String("source", src.Kind())

	if p.metrics != nil {
		p.metrics.ActiveRuns.Add(ctx, 1)
		defer func() {
			p.metrics.ActiveRuns.Add(ctx, -1)
			status := "ok"
			if err != nil {
				status = "error"
			}
			p.metrics.PipelineRuns.Add(ctx, 1,
				metric.WithAttributes(srcAttr, attribute.String("status", status)))
		}()
	}

	// --- Acquire ---
	start := time.Now()
	artifact, err := p.acquirer.Acquire(ctx, src)
	if err != nil {
		log.Error("acquisition failed", "err", err)
		return nil, &StageError{Stage: StageAcquire, Err: err}
	}
	if p.metrics != nil {
		p.metrics.AcquireDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(srcAttr))
	}

	// The run owns the artifact from here on: release on every exit path,
	// and never let a cleanup error mask the run's outcome.
	defer func() {
		if relErr := artifact.Release(); relErr != nil {
			log.Warn("artifact cleanup failed", "err", relErr)
			if p.metrics != nil {
				p.metrics.CleanupFailures.Add(ctx, 1)
			}
		}
	}()

	// --- Transcribe ---
	start = time.Now()
	tctx, tspan := observe.StartSpan(ctx, "pipeline.transcribe")
	chunks, err := p.recognizer.Transcribe(tctx, artifact.Path())
	tspan.End()
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecognizerErrors.Add(ctx, 1)
		}
		log.Error("transcription failed", "err", err)
		return nil, &StageError{Stage: StageTranscribe, Err: err}
	}
	if p.metrics != nil {
		p.metrics.TranscribeDuration.Record(ctx, time.Since(start).Seconds())
	}

	// --- Normalize ---
	start = time.Now()
	formatted, flat := transcript.Normalize(chunks)
	if p.dedupeWords {
		flat = transcript.DedupeAdjacentWords(flat)
	}
	if p.metrics != nil {
		p.metrics.NormalizeDuration.Record(ctx, time.Since(start).Seconds())
	}

	log.Info("transcription completed", "chunks", len(chunks))

	return &Result{
		Formatted: formatted,
		Flat:      flat,
		Chunks:    len(chunks),
	}, nil
}
