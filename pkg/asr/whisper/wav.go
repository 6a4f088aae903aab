package whisper

import (
	"encoding/binary"
	"fmt"
	"os"
)

const (
	// whisperSampleRate is the only sample rate whisper.cpp accepts.
	whisperSampleRate = 16000

	// bitsPerSample is fixed at 16 for the signed little-endian PCM audio
	// that whisper.cpp expects.
	bitsPerSample = 16
)

// decodeWAVFile reads the RIFF/WAV file at path and returns its audio as
// normalized float32 mono samples in [-1, 1] plus the sample rate. Only
// 16-bit PCM data is supported; multi-channel audio is downmixed by
// averaging.
func decodeWAVFile(path string) ([]float32, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("whisper: read wav file: %w", err)
	}
	samples, rate, err := decodeWAV(data)
	if err != nil {
		return nil, 0, fmt.Errorf("whisper: %q: %w", path, err)
	}
	return samples, rate, nil
}

// decodeWAV parses a RIFF/WAV container. It walks the chunk list rather than
// assuming the canonical 44-byte header, since encoders routinely insert
// LIST/INFO chunks before the data chunk.
func decodeWAV(data []byte) ([]float32, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		sampleRate int
		channels   int
		bits       int
		audioFmt   int
		pcm        []byte
	)

	// Walk sub-chunks: each is an 8-byte header (id + size) plus payload,
	// padded to an even byte count.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		off += 8
		if off+size > len(data) {
			return nil, 0, fmt.Errorf("truncated %q chunk", id)
		}
		body := data[off : off+size]

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too short (%d bytes)", size)
			}
			audioFmt = int(binary.LittleEndian.Uint16(body[0:2]))
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bits = int(binary.LittleEndian.Uint16(body[14:16]))
		case "data":
			pcm = body
		}

		off += size
		if size%2 == 1 {
			off++
		}
	}

	if sampleRate == 0 || channels == 0 {
		return nil, 0, fmt.Errorf("missing fmt chunk")
	}
	if pcm == nil {
		return nil, 0, fmt.Errorf("missing data chunk")
	}
	if audioFmt != 1 || bits != bitsPerSample {
		return nil, 0, fmt.Errorf("unsupported encoding (format %d, %d-bit); need 16-bit PCM", audioFmt, bits)
	}

	frameBytes := channels * (bitsPerSample / 8)
	frames := len(pcm) / frameBytes
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			o := i*frameBytes + c*2
			sum += float64(int16(binary.LittleEndian.Uint16(pcm[o : o+2])))
		}
		samples[i] = float32(sum / float64(channels) / 32768.0)
	}

	return samples, sampleRate, nil
}
