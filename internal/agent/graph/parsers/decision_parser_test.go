package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
)

func TestParseRouteDecision(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{
			name:    "bare json",
			content: `{"intent": "direct_response"}`,
			want:    model.IntentDirectResponse,
		},
		{
			name:    "fenced json",
			content: "```json\n{\"intent\": \"needs_tools\"}\n```",
			want:    model.IntentNeedsTools,
		},
		{
			name:    "json with surrounding prose",
			content: "Sure, here is my classification:\n{\"intent\": \"needs_tools\"}\nHope that helps!",
			want:    model.IntentNeedsTools,
		},
		{
			name:    "whitespace padded intent",
			content: `{"intent": "  direct_response  "}`,
			want:    model.IntentDirectResponse,
		},
		{
			name:    "unknown intent is an error",
			content: `{"intent": "maybe_tools"}`,
			wantErr: true,
		},
		{
			name:    "empty intent is an error",
			content: `{"notintent": true}`,
			wantErr: true,
		},
		{
			name:    "no json at all",
			content: "I cannot classify this.",
			wantErr: true,
		},
		{
			name:    "unbalanced json",
			content: `{"intent": "direct_response"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := ParseRouteDecision(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, dec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, dec.Intent)
		})
	}
}

func TestParseReflectDecision(t *testing.T) {
	dec, err := ParseReflectDecision(`{"satisfied": false, "feedback": "need store-level data", "updated_todo": ["query stores", "query revenue"]}`)
	require.NoError(t, err)
	assert.False(t, dec.Satisfied)
	assert.Equal(t, "need store-level data", dec.Feedback)
	assert.Equal(t, []string{"query stores", "query revenue"}, dec.UpdatedTodo)
}

func TestParseReflectDecisionFenced(t *testing.T) {
	dec, err := ParseReflectDecision("```json\n{\"satisfied\": true, \"feedback\": \"done\", \"updated_todo\": []}\n```")
	require.NoError(t, err)
	assert.True(t, dec.Satisfied)
}

func TestParseReflectDecisionCapsTodo(t *testing.T) {
	items := make([]string, 0, maxTodoItems+10)
	for i := 0; i < maxTodoItems+10; i++ {
		items = append(items, `"item"`)
	}
	content := `{"satisfied": false, "feedback": "", "updated_todo": [` + strings.Join(items, ",") + `]}`

	dec, err := ParseReflectDecision(content)
	require.NoError(t, err)
	assert.Len(t, dec.UpdatedTodo, maxTodoItems)
}

func TestParseReflectDecisionMalformed(t *testing.T) {
	dec, err := ParseReflectDecision("not even close")
	require.Error(t, err)
	assert.Nil(t, dec)
}

func TestExtractJSONObjectIgnoresBracesInStrings(t *testing.T) {
	raw, err := extractJSONObject(`{"feedback": "use GROUP BY {store} and \"quotes\"", "satisfied": true}`)
	require.NoError(t, err)
	assert.Contains(t, raw, "GROUP BY {store}")
}

func TestExtractJSONObjectTruncatesOversizedContent(t *testing.T) {
	content := `{"intent": "direct_response"}` + strings.Repeat(" ", maxContentLen)
	dec, err := ParseRouteDecision(content)
	require.NoError(t, err)
	assert.Equal(t, model.IntentDirectResponse, dec.Intent)
}
