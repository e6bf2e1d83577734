package nodes

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
)

// CollectToolResults gathers tool results from the newest planning round
// into tagged fragments and source refs. It walks history backward and
// stops at the first assistant message: that boundary is what keeps
// repeated collection from double-counting earlier rounds, so it must not
// be widened.
func CollectToolResults(history []*schema.Message, collected []string, sources []model.SourceRef) ([]string, []model.SourceRef) {
	boundary := -1
	nameByCallID := map[string]string{}
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg == nil {
			continue
		}
		if msg.Role == schema.Assistant {
			boundary = i
			for _, tc := range msg.ToolCalls {
				nameByCallID[tc.ID] = tc.Function.Name
			}
			break
		}
	}

	for i := len(history) - 1; i > boundary; i-- {
		msg := history[i]
		if msg == nil || msg.Role != schema.Tool {
			continue
		}

		name := msg.ToolName
		if name == "" {
			name = nameByCallID[msg.ToolCallID]
		}

		if name == model.ToolQueryRAG {
			if answer, used, ok := parseRAGToolContent(msg.Content); ok {
				collected = append(collected, taggedFragment(name, answer))
				for _, src := range used {
					sources = append(sources, model.SourceRef{
						Source: path.Base(strings.ReplaceAll(src, "\\", "/")),
						Tool:   model.ToolQueryRAG,
					})
				}
				continue
			}
			// Malformed output degrades to a plain fragment, no sources.
		}
		collected = append(collected, taggedFragment(name, msg.Content))
	}

	return collected, sources
}

func taggedFragment(tool, content string) string {
	return fmt.Sprintf("[%s] %s", tool, content)
}

// parseRAGToolContent accepts only the tool's structured success shape: a
// JSON object with a string "answer". Anything else (including the plain
// no-context sentinel) reports !ok.
func parseRAGToolContent(content string) (answer string, used []string, ok bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(content), &m); err != nil {
		return "", nil, false
	}
	answer, ok = m["answer"].(string)
	if !ok {
		return "", nil, false
	}
	if raw, isList := m["used_sources"].([]any); isList {
		for _, s := range raw {
			used = append(used, fmt.Sprint(s))
		}
	}
	return answer, used, true
}

// DedupSources returns unique source names in first-occurrence order.
func DedupSources(sources []model.SourceRef) []string {
	seen := map[string]bool{}
	var unique []string
	for _, s := range sources {
		if s.Source == "" || seen[s.Source] {
			continue
		}
		seen[s.Source] = true
		unique = append(unique, s.Source)
	}
	return unique
}

// BuildSourcesSection renders the sources block appended to synthesized
// answers. Empty when no sources were recorded this turn.
func BuildSourcesSection(sources []model.SourceRef) string {
	unique := DedupSources(sources)
	if len(unique) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n---\n**Sources (Product Technical Sheets):**\n")
	for i, src := range unique {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + src)
	}
	return b.String()
}
