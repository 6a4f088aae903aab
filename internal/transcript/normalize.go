// Package transcript turns raw recognizer output into user-presentable text.
//
// [Normalize] consumes an ordered chunk sequence in a single pass and
// produces two views of the same speech:
//
//   - a formatted transcript — one line per chunk, each prefixed with its
//     "[start - end]" time range or "[No Timestamp]" when the recognizer
//     reported no timing; and
//   - a flat transcript — the chunk texts joined with spaces, with
//     consecutive duplicate chunk texts collapsed, since batch recognizers
//     routinely emit the same segment twice around window boundaries.
//
// [DedupeAdjacentWords] is a finer-grained, optional cleanup that collapses
// immediately repeated tokens within a string ("the the cat" → "the cat").
package transcript

import (
	"fmt"
	"strings"

	"github.com/MrWong99/audioscribe/pkg/asr"
)

// noTimestampMarker prefixes formatted lines for chunks without timing.
const noTimestampMarker = "[No Timestamp]"

// Normalize converts chunks into the formatted and flat transcripts.
//
// Each chunk contributes exactly one formatted line, malformed or not — a
// chunk is never dropped. A chunk's trimmed text is appended to the flat
// transcript only when it differs from the previously accepted text; the
// comparison is on the literal trimmed string, so two consecutive
// empty-after-trim chunks collapse like any other duplicate. Timestamps are
// rendered with two decimal digits using Go's round-half-to-even %.2f
// formatting. An empty chunk sequence yields two empty strings.
func Normalize(chunks []asr.Chunk) (formatted, flat string) {
	var (
		fb   strings.Builder
		tb   strings.Builder
		prev string
	)

	for _, c := range chunks {
		text := strings.TrimSpace(c.Text)

		if c.Timestamp != nil {
			fmt.Fprintf(&fb, "[%.2f - %.2f] %s\n", c.Timestamp.Start, c.Timestamp.End, text)
		} else {
			fmt.Fprintf(&fb, "%s %s\n", noTimestampMarker, text)
		}

		if text != prev {
			tb.WriteString(text)
			tb.WriteString(" ")
			prev = text
		}
	}

	return strings.TrimSpace(fb.String()), strings.TrimSpace(tb.String())
}
