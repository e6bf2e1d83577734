package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
)

func TestRouteAfterReflect(t *testing.T) {
	tests := []struct {
		name      string
		satisfied bool
		iteration int
		max       int
		want      string
	}{
		{"satisfied goes to synthesis", true, 1, 4, NodeSynthAssembler},
		{"unsatisfied loops back", false, 1, 4, NodePlanAssembler},
		{"budget spent forces synthesis", false, 4, 4, NodeSynthAssembler},
		{"over budget forces synthesis", false, 5, 4, NodeSynthAssembler},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RouteAfterReflect(tt.satisfied, tt.iteration, tt.max))
		})
	}
}

func TestRouteCondition(t *testing.T) {
	cond := NewRouteCondition()

	node, err := cond(context.Background(), model.RouteDecision{Intent: model.IntentDirectResponse})
	require.NoError(t, err)
	assert.Equal(t, NodeRespondAssembler, node)

	node, err = cond(context.Background(), model.RouteDecision{Intent: model.IntentNeedsTools})
	require.NoError(t, err)
	assert.Equal(t, NodePlanAssembler, node)
}

func TestToolDispatchCondition(t *testing.T) {
	cond := NewToolDispatchCondition()

	node, err := cond(context.Background(), plannerMessage(schemaToolCall("call_1", model.ToolQuerySQL)))
	require.NoError(t, err)
	assert.Equal(t, NodeToolExecutor, node)

	node, err = cond(context.Background(), plannerMessage())
	require.NoError(t, err)
	assert.Equal(t, NodeSynthAssembler, node)
}

func TestReflectParserPostHandlerForcesTermination(t *testing.T) {
	handler := NewReflectParserPostHandler()
	state := &model.AgentState{SessionID: "s1", Iteration: 4, MaxIterations: 4}

	out, err := handler(context.Background(), model.ReflectDecision{
		Satisfied:   false,
		Feedback:    "still missing data",
		UpdatedTodo: []string{"one more query"},
	}, state)
	require.NoError(t, err)

	// The code-level guard overrides the model's answer once the budget is
	// spent, in both the returned decision and the recorded state.
	assert.True(t, out.Satisfied)
	assert.True(t, state.ReflectionSatisfied)
	assert.Equal(t, "still missing data", state.Reflection)
	assert.Equal(t, []string{"one more query"}, state.Todo)
}

func TestReflectParserPostHandlerBelowBudget(t *testing.T) {
	handler := NewReflectParserPostHandler()
	state := &model.AgentState{Iteration: 1, MaxIterations: 4}

	out, err := handler(context.Background(), model.ReflectDecision{
		Satisfied: false,
		Feedback:  "need store breakdown",
	}, state)
	require.NoError(t, err)

	assert.False(t, out.Satisfied)
	assert.False(t, state.ReflectionSatisfied)
	assert.Equal(t, "need store breakdown", state.Reflection)
	assert.Empty(t, state.Todo)
}

func TestTurnSetupPreHandlerResetsState(t *testing.T) {
	handler := NewTurnSetupPreHandler()
	state := &model.AgentState{
		SessionID:        "old",
		Question:         "old question",
		Intent:           model.IntentNeedsTools,
		Iteration:        3,
		MaxIterations:    6,
		CollectedResults: []string{"stale"},
		Todo:             []string{"stale"},
		Reflection:       "stale",
		RAGSources:       []model.SourceRef{{Source: "stale.txt"}},
		TotalCostUSD:     1.5,
	}

	in := model.TurnInput{SessionID: "thread-1", Query: "top products?", Depth: 3}
	out, err := handler(context.Background(), in, state)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	assert.Equal(t, "thread-1", state.SessionID)
	assert.Equal(t, "top products?", state.Question)
	assert.Empty(t, state.Intent)
	assert.Zero(t, state.Iteration)
	assert.Equal(t, 6, state.MaxIterations)
	assert.Empty(t, state.CollectedResults)
	assert.Empty(t, state.Todo)
	assert.Empty(t, state.Reflection)
	assert.Empty(t, state.RAGSources)
	assert.Zero(t, state.TotalCostUSD)
}

func TestTurnSetupPreHandlerRejectsEmptyQuery(t *testing.T) {
	handler := NewTurnSetupPreHandler()
	_, err := handler(context.Background(), model.TurnInput{SessionID: "t", Query: "   "}, &model.AgentState{})
	assert.Error(t, err)
}

func TestNormalizeToolCallIDs(t *testing.T) {
	state := &model.AgentState{}
	out := plannerMessage(
		schemaToolCall("", model.ToolQuerySQL),
		schemaToolCall("call_keep", model.ToolQueryRAG),
		schemaToolCall("  ", model.ToolQuerySQL),
	)

	normalizeToolCallIDs(out, state)

	assert.Equal(t, "call_1", out.ToolCalls[0].ID)
	assert.Equal(t, "call_keep", out.ToolCalls[1].ID)
	assert.Equal(t, "call_2", out.ToolCalls[2].ID)
	assert.Equal(t, 2, state.ToolCallIDSeq)
}
