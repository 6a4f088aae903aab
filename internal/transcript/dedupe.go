package transcript

import "strings"

// DedupeAdjacentWords collapses immediately repeated whitespace-delimited
// tokens: a token is kept unless it is byte-for-byte equal to the previously
// kept token. Kept tokens are rejoined with single spaces, so the result is
// also whitespace-normalized.
//
// The pass is independent of chunk boundaries and idempotent — applying it
// twice yields the same result as once.
func DedupeAdjacentWords(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	kept := words[:1]
	for _, w := range words[1:] {
		if w != kept[len(kept)-1] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
