package captions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUniformWindows(t *testing.T) {
	words := Build(3.0, "one two three")
	require.Len(t, words, 3)

	assert.Equal(t, "one", words[0].Text)
	assert.Equal(t, "two", words[1].Text)
	assert.Equal(t, "three", words[2].Text)

	for i, w := range words {
		assert.InDelta(t, float64(i)*1.0, w.Start, 1e-9)
		assert.InDelta(t, float64(i+1)*1.0, w.End, 1e-9)
	}
}

func TestBuildCoversDurationWithoutGaps(t *testing.T) {
	cases := []struct {
		name     string
		duration float64
		text     string
	}{
		{"single word", 7.3, "hello"},
		{"many words", 12.48, "a b c d e f g h i j k"},
		{"awkward division", 10.0, "one two three"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			words := Build(tc.duration, tc.text)
			require.NotEmpty(t, words)

			assert.InDelta(t, 0, words[0].Start, 1e-9)
			assert.Equal(t, tc.duration, words[len(words)-1].End)
			for i, w := range words {
				assert.Less(t, w.Start, w.End, "window %d must have positive length", i)
				if i > 0 {
					assert.Equal(t, words[i-1].End, w.Start, "windows must be back to back")
				}
			}
		})
	}
}

func TestBuildCollapsesWhitespace(t *testing.T) {
	words := Build(2.0, "  one \t two \n ")
	require.Len(t, words, 2)
	assert.Equal(t, "one", words[0].Text)
	assert.Equal(t, "two", words[1].Text)
}

func TestBuildEmptyResults(t *testing.T) {
	assert.Nil(t, Build(5.0, ""))
	assert.Nil(t, Build(5.0, "   \t  "))
	assert.Nil(t, Build(0, "one two"))
	assert.Nil(t, Build(-1.5, "one two"))
	assert.Nil(t, Build(math.NaN(), "one two"))
	assert.Nil(t, Build(math.Inf(1), "one two"))
}
