package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/graph/conversations"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/graph/parsers"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/graph/prompts"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
	logx "github.com/xyadam/delaware-hybrid-langgraph/pkg/logger"
)

// NewTurnSetupPreHandler resets all per-turn state before anything else runs.
func NewTurnSetupPreHandler() func(context.Context, model.TurnInput, *model.AgentState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.AgentState) (model.TurnInput, error) {
		if strings.TrimSpace(in.Query) == "" {
			return in, fmt.Errorf("empty query")
		}

		maxIterations := model.MaxIterationsForDepth(in.Depth)
		s.ResetTurn(in.SessionID, in.Query, maxIterations)

		logx.Debug().
			Str("session_id", in.SessionID).
			Int("depth", in.Depth).
			Int("max_iterations", maxIterations).
			Msg("Turn started")
		return in, nil
	}
}

// NewTurnSetupNode persists the user question and assembles the router's
// classification messages.
func NewTurnSetupNode(mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.TurnInput) ([]*schema.Message, error) {
		if err := mm.RecordQuestion(ctx, input.SessionID, input.Query); err != nil {
			return nil, fmt.Errorf("record question: %w", err)
		}

		routerSystem, err := prompts.RenderRouterSystem(ctx)
		if err != nil {
			return nil, fmt.Errorf("render router prompt: %w", err)
		}

		return []*schema.Message{
			schema.SystemMessage(routerSystem),
			schema.UserMessage(input.Query),
		}, nil
	})
}

// NewRouterChatModelPostHandler computes and logs usage cost for the router call.
func NewRouterChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.AgentState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AgentState) (*schema.Message, error) {
		recordUsage(NodeRouterChatModel, modelName, out, state)
		return out, nil
	}
}

// NewRouteParserNode parses the router output into a routing decision.
// Unknown intents fail the turn; there is no silent fallback.
func NewRouteParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (model.RouteDecision, error) {
		result, err := parsers.ParseRouteDecision(resp.Content)
		if err != nil {
			logx.Error().Err(err).Msg("Error parsing route decision")
			return model.RouteDecision{}, err
		}
		return *result, nil
	})
}

// NewRouteParserPostHandler stores the classified intent in state.
func NewRouteParserPostHandler() func(context.Context, model.RouteDecision, *model.AgentState) (model.RouteDecision, error) {
	return func(ctx context.Context, out model.RouteDecision, state *model.AgentState) (model.RouteDecision, error) {
		state.Intent = out.Intent
		logx.Debug().
			Str("session_id", state.SessionID).
			Str("intent", out.Intent).
			Msg("Question classified")
		return out, nil
	}
}

// NewRouteCondition routes a classified question to the conversational
// responder or into the planning loop.
func NewRouteCondition() func(context.Context, model.RouteDecision) (string, error) {
	return func(ctx context.Context, input model.RouteDecision) (string, error) {
		if input.Intent == model.IntentDirectResponse {
			return NodeRespondAssembler, nil
		}
		return NodePlanAssembler, nil
	}
}

// NewRespondAssemblerNode builds the direct-response context: the general
// system prompt plus the thread's user/assistant history.
func NewRespondAssemblerNode(mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.RouteDecision) ([]*schema.Message, error) {
		var sessionID string
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AgentState) error {
			sessionID = state.SessionID
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		messages, err := mm.BuildChatContext(ctx, sessionID, prompts.System())
		if err != nil {
			return nil, fmt.Errorf("build chat context: %w", err)
		}
		return messages, nil
	})
}

// NewRespondChatModelPostHandler records usage and persists the direct answer.
func NewRespondChatModelPostHandler(
	mm *conversations.MessagesManager,
	modelName string,
) func(context.Context, *schema.Message, *model.AgentState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AgentState) (*schema.Message, error) {
		recordUsage(NodeRespondChatModel, modelName, out, state)

		if out != nil && strings.TrimSpace(out.Content) != "" {
			if err := mm.SaveResponse(ctx, state.SessionID, out.Content); err != nil {
				logx.Error().
					Str("session_id", state.SessionID).
					Err(err).
					Msg("Error saving direct response")
			}
		}
		return out, nil
	}
}
