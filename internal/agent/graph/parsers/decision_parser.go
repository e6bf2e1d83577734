// Package parsers turns raw model output into the structured decision
// payloads the graph branches on. Models are prompted to reply with bare
// JSON, but real output arrives wrapped in code fences or prose often
// enough that extraction has to be defensive.
package parsers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
	errx "github.com/xyadam/delaware-hybrid-langgraph/internal/core/error"
	logx "github.com/xyadam/delaware-hybrid-langgraph/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxTodoItems  = 50
)

// ParseRouteDecision extracts and validates a RouteDecision. There is no
// fallback intent: an unparseable or unknown decision fails the turn.
func ParseRouteDecision(content string) (dec *model.RouteDecision, err error) {
	defer recoverParse("route_parser", &dec, &err)

	raw, err := extractJSONObject(content)
	if err != nil {
		return nil, errx.New(fmt.Errorf("route decision: %w", err), http.StatusBadGateway, errx.DecisionErrorMessage)
	}

	var d model.RouteDecision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, errx.New(fmt.Errorf("route decision: %w", err), http.StatusBadGateway, errx.DecisionErrorMessage)
	}
	d.Intent = strings.TrimSpace(d.Intent)
	if err := d.Validate(); err != nil {
		return nil, errx.New(fmt.Errorf("route decision: %w", err), http.StatusBadGateway, errx.DecisionErrorMessage)
	}
	return &d, nil
}

// ParseReflectDecision extracts a ReflectDecision. The iteration guard is
// applied by the caller, not here; this only handles the payload shape.
func ParseReflectDecision(content string) (dec *model.ReflectDecision, err error) {
	defer recoverParse("reflect_parser", &dec, &err)

	raw, err := extractJSONObject(content)
	if err != nil {
		return nil, errx.New(fmt.Errorf("reflect decision: %w", err), http.StatusBadGateway, errx.DecisionErrorMessage)
	}

	var d model.ReflectDecision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, errx.New(fmt.Errorf("reflect decision: %w", err), http.StatusBadGateway, errx.DecisionErrorMessage)
	}
	if len(d.UpdatedTodo) > maxTodoItems {
		logx.Warn().Int("items", len(d.UpdatedTodo)).Int("max", maxTodoItems).Msg("todo list capped")
		d.UpdatedTodo = d.UpdatedTodo[:maxTodoItems]
	}
	return &d, nil
}

func recoverParse[T any](component string, dec **T, err *error) {
	if r := recover(); r != nil {
		logx.Error().Str("component", component).Msgf("panic recovered: %v", r)
		*err = errx.New(fmt.Errorf("%s panic", component), http.StatusInternalServerError, errx.SystemErrorMessage)
		*dec = nil
	}
}

// extractJSONObject returns the first balanced top-level JSON object in
// content, tolerating code fences and surrounding prose.
func extractJSONObject(content string) (string, error) {
	if len(content) > maxContentLen {
		logx.Warn().Int("orig_len", len(content)).Int("max_len", maxContentLen).Msg("decision content truncated")
		content = content[:maxContentLen]
	}
	content = stripFences(strings.TrimSpace(content))

	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object")
}

func stripFences(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	if idx := strings.LastIndex(content, "```"); idx >= 0 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}
