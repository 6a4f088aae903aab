package pipeline_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/MrWong99/audioscribe/internal/acquire"
	"github.com/MrWong99/audioscribe/internal/pipeline"
	"github.com/MrWong99/audioscribe/pkg/asr"
	"github.com/MrWong99/audioscribe/pkg/asr/mock"
)

// newUploadAcquirer returns an acquirer writing into a per-test temp dir,
// plus the dir for filesystem assertions.
func newUploadAcquirer(t *testing.T) (*acquire.Acquirer, string) {
	t.Helper()
	dir := t.TempDir()
	return acquire.New(dir, nil, nil), dir
}

// dirEntries returns the names in dir.
func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// failingAcquirer always fails without creating files.
type failingAcquirer struct{ err error }

func (f *failingAcquirer) Acquire(context.Context, acquire.Source) (*acquire.Artifact, error) {
	return nil, f.err
}

func upload() acquire.Upload {
	return acquire.Upload{Data: []byte("fake-audio"), Format: "wav"}
}

func TestRun_Success(t *testing.T) {
	t.Parallel()
	acq, dir := newUploadAcquirer(t)
	rec := &mock.Recognizer{Chunks: []asr.Chunk{
		{Text: " hello world ", Timestamp: &asr.TimeRange{Start: 0, End: 1}},
		{Text: "hello world", Timestamp: &asr.TimeRange{Start: 1, End: 2}},
		{Text: "goodbye", Timestamp: &asr.TimeRange{Start: 2, End: 3}},
	}}
	p := pipeline.New(acq, rec)

	res, err := p.Run(context.Background(), upload())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantFormatted := "[0.00 - 1.00] hello world\n[1.00 - 2.00] hello world\n[2.00 - 3.00] goodbye"
	if res.Formatted != wantFormatted {
		t.Errorf("Formatted = %q, want %q", res.Formatted, wantFormatted)
	}
	if res.Flat != "hello world goodbye" {
		t.Errorf("Flat = %q, want %q", res.Flat, "hello world goodbye")
	}
	if res.Chunks != 3 {
		t.Errorf("Chunks = %d, want 3", res.Chunks)
	}

	// The run must have cleaned up its artifact.
	if got := dirEntries(t, dir); len(got) != 0 {
		t.Errorf("temp files left after successful run: %v", got)
	}
}

func TestRun_RecognizerSeesArtifactPath(t *testing.T) {
	t.Parallel()
	acq, _ := newUploadAcquirer(t)
	rec := &mock.Recognizer{
		TranscribeFunc: func(_ context.Context, audioPath string) ([]asr.Chunk, error) {
			// The artifact must still exist while the recognizer runs.
			if _, err := os.Stat(audioPath); err != nil {
				return nil, err
			}
			return []asr.Chunk{{Text: "ok"}}, nil
		},
	}
	p := pipeline.New(acq, rec)

	if _, err := p.Run(context.Background(), upload()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls := rec.Calls(); len(calls) != 1 {
		t.Fatalf("recognizer called %d times, want 1", len(calls))
	}
}

func TestRun_AcquisitionFailure_SkipsRecognizer(t *testing.T) {
	t.Parallel()
	cause := &acquire.DownloadError{URL: "https://example.com/x", Output: "403 forbidden"}
	rec := &mock.Recognizer{}
	p := pipeline.New(&failingAcquirer{err: cause}, rec)

	_, err := p.Run(context.Background(), acquire.RemoteVideo{URL: "https://example.com/x"})

	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != pipeline.StageAcquire {
		t.Fatalf("err = %v, want StageError{acquire}", err)
	}
	var dlErr *acquire.DownloadError
	if !errors.As(err, &dlErr) {
		t.Errorf("cause should unwrap to *DownloadError, got %v", err)
	}
	if len(rec.Calls()) != 0 {
		t.Error("recognizer must not run after a failed acquisition")
	}
}

func TestRun_RecognizerFailure_ReleasesArtifact(t *testing.T) {
	t.Parallel()
	acq, dir := newUploadAcquirer(t)
	rec := &mock.Recognizer{Err: errors.New("model ran out of memory")}
	p := pipeline.New(acq, rec)

	_, err := p.Run(context.Background(), upload())

	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != pipeline.StageTranscribe {
		t.Fatalf("err = %v, want StageError{transcribe}", err)
	}
	// Cleanup is guaranteed even when the recognizer fails.
	if got := dirEntries(t, dir); len(got) != 0 {
		t.Errorf("temp files left after failed run: %v", got)
	}
}

func TestRun_EmptyChunks_YieldsEmptyTranscripts(t *testing.T) {
	t.Parallel()
	acq, _ := newUploadAcquirer(t)
	p := pipeline.New(acq, &mock.Recognizer{})

	res, err := p.Run(context.Background(), upload())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Formatted != "" || res.Flat != "" {
		t.Errorf("empty recognition should yield empty transcripts, got (%q, %q)", res.Formatted, res.Flat)
	}
}

func TestRun_WordDedupeOption(t *testing.T) {
	t.Parallel()
	acq, _ := newUploadAcquirer(t)
	rec := &mock.Recognizer{Chunks: []asr.Chunk{{Text: "the the cat sat sat down"}}}

	plain := pipeline.New(acq, rec)
	res, err := plain.Run(context.Background(), upload())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Flat != "the the cat sat sat down" {
		t.Errorf("dedupe disabled: Flat = %q", res.Flat)
	}

	deduped := pipeline.New(acq, rec, pipeline.WithWordDedupe(true))
	res, err = deduped.Run(context.Background(), upload())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Flat != "the cat sat down" {
		t.Errorf("dedupe enabled: Flat = %q, want %q", res.Flat, "the cat sat down")
	}
}
