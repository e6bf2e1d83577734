package nodes

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/graph/tools"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
)

func plannerMessage(calls ...schema.ToolCall) *schema.Message {
	return &schema.Message{Role: schema.Assistant, ToolCalls: calls}
}

func schemaToolCall(id, name string) schema.ToolCall {
	return schema.ToolCall{ID: id, Function: schema.FunctionCall{Name: name}}
}

func toolResult(callID, toolName, content string) *schema.Message {
	return &schema.Message{Role: schema.Tool, ToolCallID: callID, ToolName: toolName, Content: content}
}

func TestCollectToolResultsTagsFragments(t *testing.T) {
	history := []*schema.Message{
		schema.UserMessage("how did store 5 perform?"),
		plannerMessage(
			schema.ToolCall{ID: "call_1", Function: schema.FunctionCall{Name: model.ToolQuerySQL}},
			schema.ToolCall{ID: "call_2", Function: schema.FunctionCall{Name: model.ToolQueryRAG}},
		),
		toolResult("call_1", "", "store_id | revenue\n-----\n5 | 120000"),
		toolResult("call_2", model.ToolQueryRAG, `{"answer":"Made of organic cotton.","used_sources":["docs/tee.txt","scarf.md"]}`),
	}

	collected, sources := CollectToolResults(history, nil, nil)

	// Newest result first; the SQL fragment resolves its tool name through
	// the planner's tool call ID.
	require.Len(t, collected, 2)
	assert.Equal(t, "[query_rag] Made of organic cotton.", collected[0])
	assert.Equal(t, "[query_sql] store_id | revenue\n-----\n5 | 120000", collected[1])

	require.Len(t, sources, 2)
	assert.Equal(t, model.SourceRef{Source: "tee.txt", Tool: model.ToolQueryRAG}, sources[0])
	assert.Equal(t, model.SourceRef{Source: "scarf.md", Tool: model.ToolQueryRAG}, sources[1])
}

func TestCollectToolResultsMalformedRAGDegrades(t *testing.T) {
	history := []*schema.Message{
		plannerMessage(schema.ToolCall{ID: "call_1", Function: schema.FunctionCall{Name: model.ToolQueryRAG}}),
		toolResult("call_1", model.ToolQueryRAG, tools.NoContextMessage),
	}

	collected, sources := CollectToolResults(history, nil, nil)

	require.Len(t, collected, 1)
	assert.Equal(t, "[query_rag] "+tools.NoContextMessage, collected[0])
	assert.Empty(t, sources)
}

func TestCollectToolResultsStopsAtAssistantBoundary(t *testing.T) {
	firstRound := []*schema.Message{
		plannerMessage(schema.ToolCall{ID: "call_1", Function: schema.FunctionCall{Name: model.ToolQuerySQL}}),
		toolResult("call_1", "", "round one data"),
	}

	collected, sources := CollectToolResults(firstRound, nil, nil)
	require.Len(t, collected, 1)

	// Second planning round appends a new boundary and result. Collecting
	// again must only pick up the new round.
	history := append(firstRound,
		plannerMessage(schema.ToolCall{ID: "call_2", Function: schema.FunctionCall{Name: model.ToolQuerySQL}}),
		toolResult("call_2", "", "round two data"),
	)

	collected, sources = CollectToolResults(history, collected, sources)
	require.Len(t, collected, 2)
	assert.Equal(t, "[query_sql] round one data", collected[0])
	assert.Equal(t, "[query_sql] round two data", collected[1])
	assert.Empty(t, sources)
}

func TestCollectToolResultsNoTrailingResults(t *testing.T) {
	history := []*schema.Message{
		schema.UserMessage("hello"),
		plannerMessage(),
	}

	collected, sources := CollectToolResults(history, nil, nil)
	assert.Empty(t, collected)
	assert.Empty(t, sources)
}

func TestDedupSources(t *testing.T) {
	sources := []model.SourceRef{
		{Source: "coat.txt", Tool: model.ToolQueryRAG},
		{Source: "scarf.md", Tool: model.ToolQueryRAG},
		{Source: "coat.txt", Tool: model.ToolQueryRAG},
		{Source: "", Tool: model.ToolQueryRAG},
	}

	assert.Equal(t, []string{"coat.txt", "scarf.md"}, DedupSources(sources))
}

func TestBuildSourcesSection(t *testing.T) {
	sources := []model.SourceRef{
		{Source: "coat.txt", Tool: model.ToolQueryRAG},
		{Source: "coat.txt", Tool: model.ToolQueryRAG},
		{Source: "scarf.md", Tool: model.ToolQueryRAG},
	}

	section := BuildSourcesSection(sources)
	assert.Equal(t, "\n\n---\n**Sources (Product Technical Sheets):**\n- coat.txt\n- scarf.md", section)
}

func TestBuildSourcesSectionEmpty(t *testing.T) {
	assert.Empty(t, BuildSourcesSection(nil))
}
