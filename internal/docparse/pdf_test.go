package docparse

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRowWordsGapBreaks(t *testing.T) {
	runs := []pdf.Text{
		{S: "John", X: 10, W: 20, Y: 700, FontSize: 10},
		// Gap of 20pt at font size 10 is far past the merge threshold.
		{S: "Smith", X: 50, W: 25, Y: 700, FontSize: 10},
	}

	words := splitRowWords(runs, 792)
	require.Len(t, words, 2)
	assert.Equal(t, "John", words[0].text)
	assert.Equal(t, "Smith", words[1].text)
}

func TestSplitRowWordsMergesAdjacentRuns(t *testing.T) {
	runs := []pdf.Text{
		{S: "Uni", X: 10, W: 15, Y: 700, FontSize: 10},
		// Sub-threshold gap: the renderer split one word into two runs.
		{S: "versity", X: 25.5, W: 35, Y: 700, FontSize: 10},
	}

	words := splitRowWords(runs, 792)
	require.Len(t, words, 1)
	assert.Equal(t, "University", words[0].text)
	assert.InDelta(t, 10, words[0].x0, 0.01)
	assert.InDelta(t, 60.5, words[0].x1, 0.01)
}

func TestSplitRowWordsSplitsLiteralSpaces(t *testing.T) {
	runs := []pdf.Text{
		{S: "New York", X: 0, W: 80, Y: 700, FontSize: 10},
	}

	words := splitRowWords(runs, 792)
	require.Len(t, words, 2)

	// The run width is apportioned evenly over its eight characters.
	assert.Equal(t, "New", words[0].text)
	assert.InDelta(t, 0, words[0].x0, 0.01)
	assert.InDelta(t, 30, words[0].x1, 0.01)

	assert.Equal(t, "York", words[1].text)
	assert.InDelta(t, 40, words[1].x0, 0.01)
	assert.InDelta(t, 80, words[1].x1, 0.01)
}

func TestSplitRowWordsFlipsVerticalAxis(t *testing.T) {
	runs := []pdf.Text{
		{S: "top", X: 0, W: 20, Y: 700, FontSize: 10},
	}

	words := splitRowWords(runs, 792)
	require.Len(t, words, 1)
	assert.InDelta(t, 82, words[0].top, 0.01)
	assert.InDelta(t, 92, words[0].bottom, 0.01)
}

func TestSplitRowWordsSkipsEmptyRuns(t *testing.T) {
	runs := []pdf.Text{
		{S: "", X: 0, W: 0, Y: 700, FontSize: 10},
		{S: "only", X: 100, W: 20, Y: 700, FontSize: 10},
	}

	words := splitRowWords(runs, 792)
	require.Len(t, words, 1)
	assert.Equal(t, "only", words[0].text)
}

func TestAnchorTextJoinsIntersectingWords(t *testing.T) {
	words := []wordBox{
		{text: "Email", x0: 10, x1: 40, top: 100, bottom: 110},
		{text: "jane@example.com", x0: 45, x1: 140, top: 100, bottom: 110},
		{text: "Unrelated", x0: 10, x1: 60, top: 200, bottom: 210},
	}

	rect := rectBox{x0: 44, x1: 150, top: 98, bottom: 112}
	assert.Equal(t, "jane@example.com", anchorText(words, rect))

	wide := rectBox{x0: 0, x1: 150, top: 98, bottom: 112}
	assert.Equal(t, "Email jane@example.com", anchorText(words, wide))

	miss := rectBox{x0: 300, x1: 400, top: 98, bottom: 112}
	assert.Equal(t, "", anchorText(words, miss))
}

func TestWordBoxIntersects(t *testing.T) {
	w := wordBox{x0: 10, x1: 40, top: 100, bottom: 110}

	assert.True(t, w.intersects(rectBox{x0: 0, x1: 100, top: 90, bottom: 120}))
	assert.True(t, w.intersects(rectBox{x0: 40, x1: 50, top: 110, bottom: 115}), "touching edges count")
	assert.False(t, w.intersects(rectBox{x0: 41, x1: 50, top: 100, bottom: 110}))
	assert.False(t, w.intersects(rectBox{x0: 10, x1: 40, top: 111, bottom: 120}))
}
