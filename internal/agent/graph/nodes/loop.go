package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/graph/conversations"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/graph/parsers"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/graph/prompts"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
	logx "github.com/xyadam/delaware-hybrid-langgraph/pkg/logger"
)

const reflectUserMessage = "Evaluate the collected data and decide if more queries are needed."

// NewPlanAssemblerNode builds the planner context for the next round and
// advances the iteration counter. Input is untyped because both the router
// branch and the reflect branch feed this node; everything it needs lives
// in state.
func NewPlanAssemblerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ any) ([]*schema.Message, error) {
		var vars prompts.PlanVars
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AgentState) error {
			vars = prompts.PlanVars{
				Question:      state.Question,
				Iteration:     state.Iteration,
				MaxIterations: state.MaxIterations,
				Todo:          state.Todo,
				Collected:     state.CollectedResults,
				Reflection:    state.Reflection,
			}
			state.Iteration++
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		planSystem, err := prompts.RenderPlanSystem(ctx, vars)
		if err != nil {
			return nil, fmt.Errorf("render plan prompt: %w", err)
		}

		logx.Debug().
			Int("iteration", vars.Iteration+1).
			Int("max_iterations", vars.MaxIterations).
			Msg("Planning round started")

		return []*schema.Message{
			schema.SystemMessage(planSystem),
			schema.UserMessage(vars.Question),
		}, nil
	})
}

// NewPlannerChatModelPostHandler records usage, backfills missing tool call
// IDs, and appends the planner output to the turn's working history.
func NewPlannerChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.AgentState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AgentState) (*schema.Message, error) {
		recordUsage(NodePlannerChatModel, modelName, out, state)
		normalizeToolCallIDs(out, state)
		state.History = append(state.History, out)

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Planner requested tools")
		} else {
			logx.Debug().Msg("Planner produced no tool calls")
		}
		return out, nil
	}
}

// NewToolDispatchCondition routes planner output with tool calls to the
// executor; a planner that answers in prose skips straight to synthesis.
func NewToolDispatchCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		if len(input.ToolCalls) > 0 {
			return NodeToolExecutor, nil
		}
		return NodeSynthAssembler, nil
	}
}

// NewToolExecutorPostHandler appends the tool result messages to the turn's
// working history, preserving dispatch order.
func NewToolExecutorPostHandler() func(context.Context, []*schema.Message, *model.AgentState) ([]*schema.Message, error) {
	return func(ctx context.Context, out []*schema.Message, state *model.AgentState) ([]*schema.Message, error) {
		state.History = append(state.History, out...)
		logx.Debug().Int("results", len(out)).Msg("Tool results recorded")
		return out, nil
	}
}

// NewCollectResultsNode folds the newest round's tool results into the
// collected-results list and accumulates retrieval sources. The tool result
// messages pass through unchanged.
func NewCollectResultsNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in []*schema.Message) ([]*schema.Message, error) {
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AgentState) error {
			state.CollectedResults, state.RAGSources = CollectToolResults(state.History, state.CollectedResults, state.RAGSources)
			logx.Debug().
				Int("collected", len(state.CollectedResults)).
				Int("sources", len(state.RAGSources)).
				Msg("Tool results collected")
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return in, nil
	})
}

// NewReflectAssemblerNode builds the sufficiency-evaluation messages.
func NewReflectAssemblerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ []*schema.Message) ([]*schema.Message, error) {
		var vars prompts.ReflectVars
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AgentState) error {
			vars = prompts.ReflectVars{
				Question:      state.Question,
				Iteration:     state.Iteration,
				MaxIterations: state.MaxIterations,
				Collected:     state.CollectedResults,
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		reflectSystem, err := prompts.RenderReflectSystem(ctx, vars)
		if err != nil {
			return nil, fmt.Errorf("render reflect prompt: %w", err)
		}

		return []*schema.Message{
			schema.SystemMessage(reflectSystem),
			schema.UserMessage(reflectUserMessage),
		}, nil
	})
}

// NewReflectChatModelPostHandler computes and logs usage cost for the reflect call.
func NewReflectChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.AgentState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AgentState) (*schema.Message, error) {
		recordUsage(NodeReflectChatModel, modelName, out, state)
		return out, nil
	}
}

// NewReflectParserNode parses the reflect output into a reflect decision.
func NewReflectParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (model.ReflectDecision, error) {
		result, err := parsers.ParseReflectDecision(resp.Content)
		if err != nil {
			logx.Error().Err(err).Msg("Error parsing reflect decision")
			return model.ReflectDecision{}, err
		}
		return *result, nil
	})
}

// NewReflectParserPostHandler applies the reflect decision to state. The
// iteration bound is enforced in code here, independent of what the model
// answered: once the budget is spent the turn always moves to synthesis.
func NewReflectParserPostHandler() func(context.Context, model.ReflectDecision, *model.AgentState) (model.ReflectDecision, error) {
	return func(ctx context.Context, out model.ReflectDecision, state *model.AgentState) (model.ReflectDecision, error) {
		if !out.Satisfied && state.Iteration >= state.MaxIterations {
			logx.Warn().
				Str("session_id", state.SessionID).
				Int("iteration", state.Iteration).
				Int("max_iterations", state.MaxIterations).
				Msg("Iteration budget spent - forcing synthesis")
			out.Satisfied = true
		}

		state.Reflection = out.Feedback
		state.ReflectionSatisfied = out.Satisfied
		state.Todo = out.UpdatedTodo

		logx.Debug().
			Bool("satisfied", out.Satisfied).
			Int("todo_items", len(out.UpdatedTodo)).
			Msg("Reflection recorded")
		return out, nil
	}
}

// RouteAfterReflect decides where a reflect decision sends the turn. The
// iteration check repeats here so a stale Satisfied flag can never loop the
// graph past its budget.
func RouteAfterReflect(satisfied bool, iteration, maxIterations int) string {
	if satisfied || iteration >= maxIterations {
		return NodeSynthAssembler
	}
	return NodePlanAssembler
}

// NewReflectCondition routes back into planning or on to synthesis.
func NewReflectCondition() func(context.Context, model.ReflectDecision) (string, error) {
	return func(ctx context.Context, input model.ReflectDecision) (string, error) {
		var iteration, maxIterations int
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AgentState) error {
			iteration = state.Iteration
			maxIterations = state.MaxIterations
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}
		return RouteAfterReflect(input.Satisfied, iteration, maxIterations), nil
	}
}

// NewSynthAssemblerNode builds the final-answer context from everything
// collected this turn. Input is untyped: the planner branch hands over a
// message while the reflect branch hands over a decision, and neither is used.
func NewSynthAssemblerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ any) ([]*schema.Message, error) {
		var question string
		var collected []string
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AgentState) error {
			question = state.Question
			collected = state.CollectedResults
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		synthSystem, err := prompts.RenderSynthesizeSystem(ctx, collected)
		if err != nil {
			return nil, fmt.Errorf("render synthesize prompt: %w", err)
		}

		return []*schema.Message{
			schema.SystemMessage(synthSystem),
			schema.UserMessage(question),
		}, nil
	})
}

// NewSynthChatModelPostHandler computes and logs usage cost for the synthesis call.
func NewSynthChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.AgentState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AgentState) (*schema.Message, error) {
		recordUsage(NodeSynthChatModel, modelName, out, state)
		return out, nil
	}
}

// NewFinalizerNode appends the deduplicated sources section to the
// synthesized answer and persists the result as the turn's assistant message.
func NewFinalizerNode(mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, out *schema.Message) (*schema.Message, error) {
		var sessionID string
		var sourcesSection string
		var totalCost float64
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AgentState) error {
			sessionID = state.SessionID
			sourcesSection = BuildSourcesSection(state.RAGSources)
			totalCost = state.TotalCostUSD
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		out.Content += sourcesSection

		if err := mm.SaveResponse(ctx, sessionID, out.Content); err != nil {
			logx.Error().
				Str("session_id", sessionID).
				Err(err).
				Msg("Error saving synthesized response")
		}

		logx.Debug().
			Str("session_id", sessionID).
			Float64("turn_cost_usd", totalCost).
			Msg("Turn finished")
		return out, nil
	})
}
