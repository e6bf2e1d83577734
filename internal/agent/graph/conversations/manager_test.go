package conversations

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
)

type fakeSessionRepo struct {
	messages map[string][]*schema.Message
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{messages: map[string][]*schema.Message{}}
}

func (f *fakeSessionRepo) AddMessage(_ context.Context, sessionID string, message *schema.Message) error {
	f.messages[sessionID] = append(f.messages[sessionID], message)
	return nil
}

func (f *fakeSessionRepo) LoadHistory(_ context.Context, sessionID string) (*model.SessionHistory, error) {
	return &model.SessionHistory{SessionID: sessionID, Messages: f.messages[sessionID]}, nil
}

func (f *fakeSessionRepo) ClearHistory(_ context.Context, sessionID string) error {
	delete(f.messages, sessionID)
	return nil
}

func (f *fakeSessionRepo) GetMessageCount(_ context.Context, sessionID string) (int, error) {
	return len(f.messages[sessionID]), nil
}

var _ model.SessionRepository = (*fakeSessionRepo)(nil)

func TestRecordQuestionAndSaveResponse(t *testing.T) {
	repo := newFakeSessionRepo()
	mm := NewMessagesManager(repo)
	ctx := context.Background()

	require.NoError(t, mm.RecordQuestion(ctx, "t1", "what sold best?"))
	require.NoError(t, mm.SaveResponse(ctx, "t1", "Jackets did."))

	msgs := repo.messages["t1"]
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.User, msgs[0].Role)
	assert.Equal(t, "what sold best?", msgs[0].Content)
	assert.Equal(t, schema.Assistant, msgs[1].Role)
	assert.Equal(t, "Jackets did.", msgs[1].Content)
}

func TestBuildChatContextFiltersRoles(t *testing.T) {
	repo := newFakeSessionRepo()
	ctx := context.Background()

	repo.messages["t1"] = []*schema.Message{
		schema.UserMessage("hi"),
		schema.SystemMessage("should never appear"),
		{Role: schema.Tool, ToolCallID: "call_1", Content: "tool output"},
		schema.AssistantMessage("hello!", nil),
		schema.AssistantMessage("", nil),
		nil,
		schema.UserMessage("   "),
	}

	mm := NewMessagesManager(repo)
	msgs, err := mm.BuildChatContext(ctx, "t1", "SYSTEM PROMPT")
	require.NoError(t, err)

	require.Len(t, msgs, 3)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "SYSTEM PROMPT", msgs[0].Content)
	assert.Equal(t, "hi", msgs[1].Content)
	assert.Equal(t, "hello!", msgs[2].Content)
}

func TestBuildChatContextEmptyThread(t *testing.T) {
	mm := NewMessagesManager(newFakeSessionRepo())
	msgs, err := mm.BuildChatContext(context.Background(), "fresh", "SYSTEM")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, schema.System, msgs[0].Role)
}
