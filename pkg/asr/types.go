package asr

import "fmt"

// TimeRange is the time span a recognized chunk covers, in seconds from the
// start of the audio.
type TimeRange struct {
	// Start is the chunk's start offset in seconds.
	Start float64

	// End is the chunk's end offset in seconds. Always >= Start for
	// well-formed recognizer output.
	End float64
}

// String renders the range as "[start - end]" with two decimal digits, the
// form used in formatted transcripts.
func (r TimeRange) String() string {
	return fmt.Sprintf("[%.2f - %.2f]", r.Start, r.End)
}

// Chunk is a single recognized speech segment. Chunks are immutable once
// returned by a [Recognizer]; their order is chronological and significant.
type Chunk struct {
	// Text is the recognized speech content, as emitted by the engine.
	// It may carry leading/trailing whitespace; normalization trims it.
	Text string

	// Timestamp is the time range the chunk covers. Nil when the backend did
	// not report timing for this segment.
	Timestamp *TimeRange
}
