package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Downloader fetches a remote video's audio stream to a local destination
// path. Implementations must not retry internally; a failed download is
// terminal for the pipeline run.
type Downloader interface {
	// Download fetches the best available audio stream for url and writes it
	// to dest. On success dest exists and is non-empty; on failure dest may
	// contain a partial file that the caller removes.
	Download(ctx context.Context, url, dest string) error
}

// DownloadError reports a failed video download. The Output field carries
// the tool's diagnostic output so the caller can surface a human-readable
// cause (invalid URL, geo-block, age restriction, network error).
type DownloadError struct {
	URL    string
	Output string
	Err    error
}

// Error implements the error interface.
func (e *DownloadError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("acquire: download %q: %s", e.URL, e.Output)
	}
	return fmt.Sprintf("acquire: download %q: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *DownloadError) Unwrap() error { return e.Err }

// Compile-time assertion that YtDlp implements Downloader.
var _ Downloader = (*YtDlp)(nil)

// YtDlp is a Downloader that shells out to the yt-dlp binary.
type YtDlp struct {
	// Path is the yt-dlp executable. Defaults to "yt-dlp" on PATH.
	Path string
}

// NewYtDlp creates a YtDlp downloader using the given executable path, or
// "yt-dlp" from PATH when empty.
func NewYtDlp(path string) *YtDlp {
	if path == "" {
		path = "yt-dlp"
	}
	return &YtDlp{Path: path}
}

// Download runs yt-dlp to fetch the best audio stream for url into dest.
// Failures are wrapped in a [DownloadError] carrying yt-dlp's stderr.
func (y *YtDlp) Download(ctx context.Context, url, dest string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, y.Path,
		"--format", "bestaudio/best",
		"--no-playlist",
		"--quiet",
		"--output", dest,
		url,
	)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &DownloadError{
			URL:    url,
			Output: lastLine(stderr.String()),
			Err:    err,
		}
	}
	return nil
}

// lastLine returns the final non-empty line of s, which for yt-dlp and
// ffmpeg is where the actual error message lives.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// errToolMissing helps callers distinguish a missing binary from a failed
// invocation when probing tool availability.
var errToolMissing = errors.New("acquire: tool not found")

// LookPath reports whether the downloader's executable can be found. Used by
// readiness checks.
func (y *YtDlp) LookPath() error {
	if _, err := exec.LookPath(y.Path); err != nil {
		return fmt.Errorf("%w: %s", errToolMissing, y.Path)
	}
	return nil
}
