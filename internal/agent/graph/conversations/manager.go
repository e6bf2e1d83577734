package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
)

// MessagesManager mediates between graph nodes and the session repository:
// recording turns, and assembling chat context from durable history.
type MessagesManager struct {
	sessionRepo model.SessionRepository
}

func NewMessagesManager(sessionRepo model.SessionRepository) *MessagesManager {
	return &MessagesManager{sessionRepo: sessionRepo}
}

// RecordQuestion persists the user message that opens a turn.
func (mm *MessagesManager) RecordQuestion(ctx context.Context, sessionID, query string) error {
	return mm.sessionRepo.AddMessage(ctx, sessionID, schema.UserMessage(query))
}

// BuildChatContext returns the system prompt followed by the thread's
// user/assistant exchanges. Tool and system messages never enter the
// direct-response context.
func (mm *MessagesManager) BuildChatContext(ctx context.Context, sessionID, systemPrompt string) ([]*schema.Message, error) {
	history, err := mm.sessionRepo.LoadHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
	}
	for _, msg := range history.Messages {
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case schema.User, schema.Assistant:
			messages = append(messages, msg)
		}
	}

	return messages, nil
}

// SaveResponse persists a final assistant answer.
func (mm *MessagesManager) SaveResponse(ctx context.Context, sessionID, content string) error {
	return mm.sessionRepo.AddMessage(ctx, sessionID, schema.AssistantMessage(content, nil))
}
