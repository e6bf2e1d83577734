// Package observers wires eino callback handlers that trace the graph's
// tool calls, chat model calls, and prompt rendering through the shared
// structured logger.
package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewAllCallbacks aggregates the tool, chat model, and prompt handlers
// into a single callbacks.Handler. Attach it per invocation via
// compose.WithCallbacks(...).
func NewAllCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		Tool(newToolHandler()).
		ChatModel(newChatModelHandler()).
		Prompt(newPromptHandler()).
		Handler()
}
