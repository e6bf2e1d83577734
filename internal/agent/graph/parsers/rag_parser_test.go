package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRAGResponse(t *testing.T) {
	resp, err := ParseRAGResponse(`{"answer": "The coat is 100% silk.", "used_sources": ["silk_retro_coat.txt"]}`)
	require.NoError(t, err)
	assert.Equal(t, "The coat is 100% silk.", resp.Answer)
	assert.Equal(t, []string{"silk_retro_coat.txt"}, resp.UsedSources)
}

func TestParseRAGResponseReducesPathsToBasenames(t *testing.T) {
	resp, err := ParseRAGResponse(`{"answer": "ok", "used_sources": ["data/docs/coat.txt", "data\\docs\\scarf.md", "  ", "plain.txt"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"coat.txt", "scarf.md", "plain.txt"}, resp.UsedSources)
}

func TestParseRAGResponseFenced(t *testing.T) {
	resp, err := ParseRAGResponse("```json\n{\"answer\": \"hand wash cold\", \"used_sources\": []}\n```")
	require.NoError(t, err)
	assert.Equal(t, "hand wash cold", resp.Answer)
	assert.Empty(t, resp.UsedSources)
}

func TestParseRAGResponseMalformed(t *testing.T) {
	resp, err := ParseRAGResponse("no json here")
	require.Error(t, err)
	assert.Nil(t, resp)
}
