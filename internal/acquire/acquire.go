// Package acquire resolves heterogeneous transcription inputs — uploaded
// audio bytes or a remote video URL — into a single local audio file ready
// for recognition.
//
// The two input kinds are modelled as a tagged [Source] variant ([Upload],
// [RemoteVideo]) so downstream pipeline stages share one code path after
// acquisition. Every file the acquirer creates is tracked by the returned
// [Artifact], whose Release method deletes them all exactly once. Temp
// filenames embed a fresh UUID, so concurrent pipeline runs never collide.
//
// No other package performs network or disk access on behalf of the
// pipeline: the downloader and decoder collaborators live behind interfaces
// here and their subprocess implementations ([YtDlp], [FFmpeg]) are the only
// places external tools are invoked.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// uploadExts maps the accepted upload formats to their file extensions.
var uploadExts = map[string]string{
	"mp3": ".mp3",
	"wav": ".wav",
	"ogg": ".ogg",
}

// ErrUnsupportedFormat is returned by Acquire for an Upload whose declared
// format is not one of mp3, wav, or ogg.
var ErrUnsupportedFormat = errors.New("acquire: unsupported upload format")

// Source is an input the acquirer can resolve into a local audio file.
// Exactly two implementations exist: [Upload] and [RemoteVideo].
type Source interface {
	// Kind returns the source's short name ("upload" or "remote_video"),
	// used in logs and metric attributes.
	Kind() string
}

// Upload is an audio file delivered as an in-memory byte buffer with a
// declared container format.
type Upload struct {
	// Data is the raw file content.
	Data []byte

	// Format declares the container: "mp3", "wav", or "ogg".
	Format string
}

// Kind implements Source.
func (Upload) Kind() string { return "upload" }

// RemoteVideo is a video URL whose audio track should be downloaded and
// transcoded.
type RemoteVideo struct {
	// URL is the video page address (e.g., a YouTube watch URL).
	URL string
}

// Kind implements Source.
func (RemoteVideo) Kind() string { return "remote_video" }

// Artifact is a local audio file produced by [Acquirer.Acquire], together
// with the cleanup obligation for every temp file created along the way.
// The pipeline run that received it owns it exclusively and must call
// Release exactly once when done, on every exit path.
type Artifact struct {
	path string

	mu       sync.Mutex
	files    []string
	released bool
}

// Path returns the local audio file to feed into the recognizer. The file
// remains valid until Release is called.
func (a *Artifact) Path() string { return a.path }

// Release deletes every file tracked by the artifact. It is idempotent:
// the second and later calls return nil without touching the filesystem.
// Already-missing files are not an error; any other deletion failures are
// joined and returned.
func (a *Artifact) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return nil
	}
	a.released = true

	var errs []error
	for _, f := range a.files {
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Acquirer turns a [Source] into an [Artifact]. It is safe for concurrent
// use; each Acquire call works on its own uniquely named temp files.
type Acquirer struct {
	workDir    string
	downloader Downloader
	decoder    Decoder
}

// New creates an Acquirer that stores temp files under workDir (the system
// temp directory when empty) and uses the given downloader and decoder for
// remote-video sources.
func New(workDir string, downloader Downloader, decoder Decoder) *Acquirer {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Acquirer{
		workDir:    workDir,
		downloader: downloader,
		decoder:    decoder,
	}
}

// Acquire resolves src into a local audio file.
//
// On failure no temp files are left behind: whatever was created before the
// failing step is removed before the error is returned. On success the
// caller owns the returned Artifact and must Release it.
func (a *Acquirer) Acquire(ctx context.Context, src Source) (*Artifact, error) {
	switch s := src.(type) {
	case Upload:
		return a.acquireUpload(s)
	case *Upload:
		return a.acquireUpload(*s)
	case RemoteVideo:
		return a.acquireRemote(ctx, s)
	case *RemoteVideo:
		return a.acquireRemote(ctx, *s)
	default:
		return nil, fmt.Errorf("acquire: unknown source type %T", src)
	}
}

// acquireUpload writes the uploaded bytes to a uniquely named file. The
// buffer is stored verbatim; recognizers handle container decoding.
func (a *Acquirer) acquireUpload(up Upload) (*Artifact, error) {
	ext, ok := uploadExts[up.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want mp3, wav, or ogg)", ErrUnsupportedFormat, up.Format)
	}

	path := filepath.Join(a.workDir, "upload-"+uuid.NewString()+ext)
	if err := os.WriteFile(path, up.Data, 0o600); err != nil {
		return nil, fmt.Errorf("acquire: write upload: %w", err)
	}

	return &Artifact{path: path, files: []string{path}}, nil
}

// acquireRemote downloads the URL's best audio stream and transcodes it to
// 16-bit PCM WAV. Both the downloaded container and the WAV are tracked by
// the returned artifact.
func (a *Acquirer) acquireRemote(ctx context.Context, rv RemoteVideo) (*Artifact, error) {
	id := uuid.NewString()
	downloaded := filepath.Join(a.workDir, "download-"+id+".m4a")
	wav := filepath.Join(a.workDir, "audio-"+id+".wav")

	if err := a.downloader.Download(ctx, rv.URL, downloaded); err != nil {
		// The downloader may have written a partial file before failing.
		_ = os.Remove(downloaded)
		return nil, err
	}

	if err := a.decoder.DecodeToWAV(ctx, downloaded, wav); err != nil {
		_ = os.Remove(wav)
		_ = os.Remove(downloaded)
		return nil, err
	}

	return &Artifact{path: wav, files: []string{wav, downloaded}}, nil
}
