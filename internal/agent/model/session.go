package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// SessionRepository persists the append-only message history of a thread.
// Concurrent turns on different session IDs are independent; turns on the
// same session ID must be serialized by the caller.
type SessionRepository interface {
	// AddMessage appends a message to the thread's history.
	AddMessage(ctx context.Context, sessionID string, message *schema.Message) error

	// LoadHistory retrieves the full message history for a thread.
	LoadHistory(ctx context.Context, sessionID string) (*SessionHistory, error)

	// ClearHistory removes all history for a thread.
	ClearHistory(ctx context.Context, sessionID string) error

	// GetMessageCount returns the number of messages in the thread.
	GetMessageCount(ctx context.Context, sessionID string) (int, error)
}

// SessionHistory represents loaded thread data.
type SessionHistory struct {
	SessionID string
	Messages  []*schema.Message
}
