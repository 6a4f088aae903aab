package acquire

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Decoder transcodes a downloaded audio/video container into the 16-bit PCM
// WAV format recognizers consume.
type Decoder interface {
	// DecodeToWAV reads the media file at src and writes a 16-bit PCM WAV
	// file to dest. On failure dest may contain a partial file that the
	// caller removes.
	DecodeToWAV(ctx context.Context, src, dest string) error
}

// DecodeError reports a failed transcode, carrying the tool's diagnostic
// output (corrupt container, unsupported codec, truncated download).
type DecodeError struct {
	Src    string
	Output string
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("acquire: decode %q: %s", e.Src, e.Output)
	}
	return fmt.Sprintf("acquire: decode %q: %v", e.Src, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error { return e.Err }

// Compile-time assertion that FFmpeg implements Decoder.
var _ Decoder = (*FFmpeg)(nil)

// FFmpeg is a Decoder that shells out to the ffmpeg binary.
type FFmpeg struct {
	// Path is the ffmpeg executable. Defaults to "ffmpeg" on PATH.
	Path string
}

// NewFFmpeg creates an FFmpeg decoder using the given executable path, or
// "ffmpeg" from PATH when empty.
func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path}
}

// DecodeToWAV transcodes src to 16-bit PCM WAV at 16 kHz mono — the format
// whisper.cpp operates on. Failures are wrapped in a [DecodeError] carrying
// ffmpeg's stderr.
func (f *FFmpeg) DecodeToWAV(ctx context.Context, src, dest string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.Path,
		"-y",
		"-i", src,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		dest,
	)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &DecodeError{
			Src:    src,
			Output: lastLine(stderr.String()),
			Err:    err,
		}
	}
	return nil
}

// LookPath reports whether the decoder's executable can be found. Used by
// readiness checks.
func (f *FFmpeg) LookPath() error {
	if _, err := exec.LookPath(f.Path); err != nil {
		return fmt.Errorf("%w: %s", errToolMissing, f.Path)
	}
	return nil
}
