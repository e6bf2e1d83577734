package model

import "fmt"

// Intent labels produced by the router.
const (
	IntentDirectResponse = "direct_response"
	IntentNeedsTools     = "needs_tools"
)

// RouteDecision is the router's structured output: exactly one of the two
// intent labels.
type RouteDecision struct {
	Intent string `json:"intent"`
}

// Validate rejects anything but the two known intent labels. There is no
// fallback for an unknown label; the turn fails.
func (d RouteDecision) Validate() error {
	switch d.Intent {
	case IntentDirectResponse, IntentNeedsTools:
		return nil
	default:
		return fmt.Errorf("unknown intent %q", d.Intent)
	}
}

// ReflectDecision is the reflect node's structured output.
type ReflectDecision struct {
	Satisfied   bool     `json:"satisfied"`
	Feedback    string   `json:"feedback"`
	UpdatedTodo []string `json:"updated_todo"`
}

// RAGResponse is the semantic retrieval tool's JSON output contract.
// UsedSources lists only filenames (no paths) the answer actually relied on.
type RAGResponse struct {
	Answer      string   `json:"answer"`
	UsedSources []string `json:"used_sources"`
}
