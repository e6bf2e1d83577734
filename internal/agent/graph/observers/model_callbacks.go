package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/xyadam/delaware-hybrid-langgraph/pkg/logger"
)

// newChatModelHandler builds a typed ModelCallbackHandler (not yet wrapped).
func newChatModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *einomodel.CallbackInput) context.Context {
			msgCount := 0
			if input != nil {
				msgCount = len(input.Messages)
			}
			logx.Debug().
				Str("node", info.Name).
				Int("messages", msgCount).
				Msg("chat model call started")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *einomodel.CallbackOutput) context.Context {
			ev := logx.Info().Str("node", info.Name)
			if output != nil && output.TokenUsage != nil {
				ev = ev.
					Int("prompt_tokens", output.TokenUsage.PromptTokens).
					Int("completion_tokens", output.TokenUsage.CompletionTokens).
					Int("total_tokens", output.TokenUsage.TotalTokens)
			}
			ev.Msg("chat model call finished")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().
				Str("node", info.Name).
				Err(err).
				Msg("chat model call failed")
			return ctx
		},
	}
}
