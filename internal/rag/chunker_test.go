package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("a short document", 1000, 150)
	assert.Equal(t, []string{"a short document"}, chunks)
}

func TestSplitTextEmptyInput(t *testing.T) {
	assert.Nil(t, SplitText("   \n  ", 1000, 150))
}

func TestSplitTextRespectsSizeLimit(t *testing.T) {
	text := strings.Repeat("word ", 500)
	chunks := SplitText(text, 200, 20)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 200)
		assert.NotEmpty(t, c)
	}
}

func TestSplitTextPrefersParagraphBoundary(t *testing.T) {
	para := strings.Repeat("x", 90)
	text := para + "\n\n" + para + "\n\n" + para

	chunks := SplitText(text, 100, 0)
	require.GreaterOrEqual(t, len(chunks), 2)
	// The first cut lands on the paragraph break inside the last quarter of
	// the window, so the first chunk is exactly the first paragraph.
	assert.Equal(t, para, chunks[0])
}

func TestSplitTextOverlapCarriesContent(t *testing.T) {
	text := strings.Repeat("abcdefghij", 50)
	chunks := SplitText(text, 100, 30)

	require.Greater(t, len(chunks), 1)
	// With no natural boundaries the cut is hard, so consecutive chunks
	// share the overlap window.
	tail := chunks[0][len(chunks[0])-30:]
	assert.True(t, strings.HasPrefix(chunks[1], tail))
}

func TestSplitTextCoversAllContent(t *testing.T) {
	text := strings.Repeat("0123456789", 100)
	chunks := SplitText(text, 333, 0)

	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitTextInvalidParams(t *testing.T) {
	// Bad size and overlap fall back to defaults instead of panicking.
	chunks := SplitText("some text", -5, -1)
	assert.Equal(t, []string{"some text"}, chunks)

	chunks = SplitText(strings.Repeat("a", 50), 10, 10)
	assert.NotEmpty(t, chunks)
}
