package transcript_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/audioscribe/internal/transcript"
	"github.com/MrWong99/audioscribe/pkg/asr"
)

// ts is a test helper constructing a timestamped chunk.
func ts(text string, start, end float64) asr.Chunk {
	return asr.Chunk{Text: text, Timestamp: &asr.TimeRange{Start: start, End: end}}
}

func TestNormalize_TimestampedChunks(t *testing.T) {
	t.Parallel()
	chunks := []asr.Chunk{
		ts("hello world", 0.0, 1.0),
		ts("hello world", 1.0, 2.0),
		ts("goodbye", 2.0, 3.0),
	}

	formatted, flat := transcript.Normalize(chunks)

	wantFormatted := "[0.00 - 1.00] hello world\n[1.00 - 2.00] hello world\n[2.00 - 3.00] goodbye"
	if formatted != wantFormatted {
		t.Errorf("formatted = %q, want %q", formatted, wantFormatted)
	}
	if flat != "hello world goodbye" {
		t.Errorf("flat = %q, want %q", flat, "hello world goodbye")
	}
}

func TestNormalize_MissingTimestamp(t *testing.T) {
	t.Parallel()
	formatted, flat := transcript.Normalize([]asr.Chunk{{Text: "test"}})

	if formatted != "[No Timestamp] test" {
		t.Errorf("formatted = %q, want %q", formatted, "[No Timestamp] test")
	}
	if flat != "test" {
		t.Errorf("flat = %q, want %q", flat, "test")
	}
}

func TestNormalize_EmptySequence(t *testing.T) {
	t.Parallel()
	formatted, flat := transcript.Normalize(nil)
	if formatted != "" || flat != "" {
		t.Errorf("Normalize(nil) = (%q, %q), want two empty strings", formatted, flat)
	}
}

func TestNormalize_OneLinePerChunk(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		chunks []asr.Chunk
	}{
		{"all timestamped", []asr.Chunk{ts("a", 0, 1), ts("b", 1, 2), ts("c", 2, 3)}},
		{"mixed", []asr.Chunk{ts("a", 0, 1), {Text: "b"}, ts("c", 2, 3)}},
		{"duplicates", []asr.Chunk{ts("a", 0, 1), ts("a", 1, 2), ts("a", 2, 3)}},
		{"empty texts", []asr.Chunk{{Text: "  "}, {Text: ""}, ts("a", 0, 1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			formatted, _ := transcript.Normalize(tc.chunks)
			// Trailing trim removes the final newline but never a line:
			// empty-text chunks still contribute their marker prefix.
			lines := strings.Split(formatted, "\n")
			if len(lines) != len(tc.chunks) {
				t.Errorf("got %d formatted lines for %d chunks:\n%s", len(lines), len(tc.chunks), formatted)
			}
		})
	}
}

func TestNormalize_NoAdjacentDuplicatesInFlat(t *testing.T) {
	t.Parallel()
	chunks := []asr.Chunk{
		ts(" repeat ", 0, 1),
		ts("repeat", 1, 2),
		ts("repeat", 2, 3),
		ts("next", 3, 4),
		ts("repeat", 4, 5),
	}

	_, flat := transcript.Normalize(chunks)

	// Duplicates are only collapsed when adjacent; the later "repeat" after
	// "next" survives.
	if flat != "repeat next repeat" {
		t.Errorf("flat = %q, want %q", flat, "repeat next repeat")
	}
}

func TestNormalize_TrimsChunkText(t *testing.T) {
	t.Parallel()
	formatted, flat := transcript.Normalize([]asr.Chunk{ts("  padded text \n", 0.5, 1.25)})

	if formatted != "[0.50 - 1.25] padded text" {
		t.Errorf("formatted = %q", formatted)
	}
	if flat != "padded text" {
		t.Errorf("flat = %q", flat)
	}
}

func TestNormalize_ConsecutiveEmptyChunksCollapse(t *testing.T) {
	t.Parallel()
	chunks := []asr.Chunk{
		ts("speech", 0, 1),
		ts("   ", 1, 2),
		ts("", 2, 3),
		ts("more", 3, 4),
	}

	formatted, flat := transcript.Normalize(chunks)

	if got := len(strings.Split(formatted, "\n")); got != 4 {
		t.Errorf("formatted has %d lines, want 4", got)
	}
	// The two empty-after-trim chunks compare equal, so only the first
	// contributes (an empty string) to the flat accumulator.
	if flat != "speech  more" {
		t.Errorf("flat = %q, want %q", flat, "speech  more")
	}
}

func TestNormalize_TwoDecimalFormatting(t *testing.T) {
	t.Parallel()
	formatted, _ := transcript.Normalize([]asr.Chunk{ts("x", 1.005, 73.333333)})

	// Go's %.2f rounds half to even.
	want := "[1.00 - 73.33] x"
	if formatted != want {
		t.Errorf("formatted = %q, want %q", formatted, want)
	}
}
