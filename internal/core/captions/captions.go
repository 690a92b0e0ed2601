// Package captions turns narration text plus a measured clip duration into
// per-word display windows. Timing is a uniform division of the clip length
// over the word count; it is an approximation, not forced alignment, and
// drifts on clips with long pauses or uneven pacing.
package captions

import (
	"math"
	"strings"
)

// Word is one caption token with its display window. Offsets are relative to
// the story clip's own timeline; the composer shifts them by the opening
// clip's duration when it builds overlay enable windows.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// Build tokenizes text on whitespace and lays the words out back to back
// over [0, duration]. No tokens, or a non-positive or non-finite duration,
// yields nil so a bad probe never reaches the filter graph.
func Build(duration float64, text string) []Word {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil
	}
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}
	per := duration / float64(len(tokens))
	words := make([]Word, len(tokens))
	for i, t := range tokens {
		words[i] = Word{
			Text:  t,
			Start: float64(i) * per,
			End:   float64(i+1) * per,
		}
	}
	// Pin the last window to the clip end so rounding never leaves a gap.
	words[len(words)-1].End = duration
	return words
}
