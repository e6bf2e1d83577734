package model

import (
	"github.com/cloudwego/eino/schema"
)

// SourceRef records the provenance of one semantic-retrieval source.
type SourceRef struct {
	Source string `json:"source"`
	Tool   string `json:"tool"`
}

// AgentState stores per-turn state for the Eino graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
//   - Durable conversation turns are persisted through the session repository,
//     not through this struct.
type AgentState struct {
	SessionID string
	Question  string

	// Intent holds the router's classification tag. It is deliberately a
	// separate field from Reflection; the two must never share a slot.
	Intent string

	// History is the working message window for the current turn: planner
	// outputs and tool results, appended in order inside state handlers.
	History []*schema.Message

	Iteration     int
	MaxIterations int

	// CollectedResults holds tagged fragments ("[toolname] text"), one per
	// tool result observed this turn. Append-only within a turn.
	CollectedResults []string

	// Todo is replaced wholesale by each reflect round.
	Todo []string

	Reflection          string
	ReflectionSatisfied bool

	// RAGSources accumulates {source, tool} pairs at collection time.
	// Deduplication happens only when the sources section is rendered.
	RAGSources []SourceRef

	// ToolCallIDSeq synthesizes tool_call_id values when the provider omits them.
	ToolCallIDSeq int

	// TotalCostUSD accumulates LLM cost across model invocations for this turn.
	TotalCostUSD float64
}

// ResetTurn clears all per-turn fields at the start of a new turn.
func (s *AgentState) ResetTurn(sessionID, question string, maxIterations int) {
	s.SessionID = sessionID
	s.Question = question
	s.Intent = ""
	s.History = nil
	s.Iteration = 0
	s.MaxIterations = maxIterations
	s.CollectedResults = nil
	s.Todo = nil
	s.Reflection = ""
	s.ReflectionSatisfied = true
	s.RAGSources = nil
	s.ToolCallIDSeq = 0
	s.TotalCostUSD = 0
}

// TurnInput represents one user turn entering the graph.
type TurnInput struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
	Depth     int    `json:"depth"`
}
