package whisper

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// encodeWAV builds a minimal RIFF/WAVE file with 16-bit PCM samples. extra is
// inserted between the fmt and data chunks to simulate encoder metadata.
func encodeWAV(sampleRate, channels int, pcm []int16, extra []byte) []byte {
	dataSize := len(pcm) * 2
	fmtChunk := make([]byte, 16)
	binary.LittleEndian.PutUint16(fmtChunk[0:2], 1) // PCM
	binary.LittleEndian.PutUint16(fmtChunk[2:4], uint16(channels))
	binary.LittleEndian.PutUint32(fmtChunk[4:8], uint32(sampleRate))
	binary.LittleEndian.PutUint32(fmtChunk[8:12], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(fmtChunk[12:14], uint16(channels*2))
	binary.LittleEndian.PutUint16(fmtChunk[14:16], 16)

	var buf []byte
	appendChunk := func(id string, body []byte) {
		buf = append(buf, id...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(body)))
		buf = append(buf, body...)
		if len(body)%2 == 1 {
			buf = append(buf, 0)
		}
	}

	appendChunk("fmt ", fmtChunk)
	if extra != nil {
		appendChunk("LIST", extra)
	}
	pcmBytes := make([]byte, dataSize)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(pcmBytes[i*2:], uint16(s))
	}
	appendChunk("data", pcmBytes)

	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(4+len(buf)))
	out = append(out, "WAVE"...)
	return append(out, buf...)
}

func TestDecodeWAV_Mono(t *testing.T) {
	t.Parallel()
	data := encodeWAV(16000, 1, []int16{0, 16384, -16384, 32767, -32768}, nil)

	samples, rate, err := decodeWAV(data)
	if err != nil {
		t.Fatalf("decodeWAV: %v", err)
	}
	if rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	want := []float32{0, 0.5, -0.5, 32767.0 / 32768.0, -1}
	if len(samples) != len(want) {
		t.Fatalf("len(samples) = %d, want %d", len(samples), len(want))
	}
	for i := range want {
		if math.Abs(float64(samples[i]-want[i])) > 1e-6 {
			t.Errorf("samples[%d] = %v, want %v", i, samples[i], want[i])
		}
	}
}

func TestDecodeWAV_StereoDownmix(t *testing.T) {
	t.Parallel()
	// Interleaved L/R frames; each output sample is the channel average.
	data := encodeWAV(16000, 2, []int16{16384, 0, -16384, 16384}, nil)

	samples, _, err := decodeWAV(data)
	if err != nil {
		t.Fatalf("decodeWAV: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("len(samples) = %d, want 2", len(samples))
	}
	if math.Abs(float64(samples[0]-0.25)) > 1e-6 {
		t.Errorf("samples[0] = %v, want 0.25", samples[0])
	}
	if math.Abs(float64(samples[1]-0)) > 1e-6 {
		t.Errorf("samples[1] = %v, want 0", samples[1])
	}
}

func TestDecodeWAV_SkipsForeignChunks(t *testing.T) {
	t.Parallel()
	data := encodeWAV(16000, 1, []int16{100, 200}, []byte("INFOsome encoder tag"))

	samples, rate, err := decodeWAV(data)
	if err != nil {
		t.Fatalf("decodeWAV: %v", err)
	}
	if rate != 16000 || len(samples) != 2 {
		t.Errorf("rate = %d, len(samples) = %d", rate, len(samples))
	}
}

func TestDecodeWAV_PreservesSampleRate(t *testing.T) {
	t.Parallel()
	data := encodeWAV(44100, 1, []int16{1}, nil)

	_, rate, err := decodeWAV(data)
	if err != nil {
		t.Fatalf("decodeWAV: %v", err)
	}
	if rate != 44100 {
		t.Errorf("sample rate = %d, want 44100", rate)
	}
}

func TestDecodeWAV_Errors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"not riff", []byte("OggS this is not a wav file")},
		{"riff but not wave", append([]byte("RIFF\x04\x00\x00\x00"), "AVI "...)},
		{"missing data chunk", encodeWAV(16000, 1, nil, nil)[:12+8+16]},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, _, err := decodeWAV(tc.data); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDecodeWAV_RejectsNonPCM(t *testing.T) {
	t.Parallel()
	data := encodeWAV(16000, 1, []int16{1, 2}, nil)
	// Flip the audio format field (offset 12+8) to 3 (IEEE float).
	binary.LittleEndian.PutUint16(data[20:22], 3)

	if _, _, err := decodeWAV(data); err == nil {
		t.Error("expected error for non-PCM encoding, got nil")
	}
}

func TestDecodeWAVFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := os.WriteFile(path, encodeWAV(16000, 1, []int16{0, 1000}, nil), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	samples, rate, err := decodeWAVFile(path)
	if err != nil {
		t.Fatalf("decodeWAVFile: %v", err)
	}
	if rate != whisperSampleRate || len(samples) != 2 {
		t.Errorf("rate = %d, len(samples) = %d", rate, len(samples))
	}

	if _, _, err := decodeWAVFile(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
