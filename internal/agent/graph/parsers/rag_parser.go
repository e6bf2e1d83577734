package parsers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
	errx "github.com/xyadam/delaware-hybrid-langgraph/internal/core/error"
)

// ParseRAGResponse extracts the answer model's {answer, used_sources}
// payload. Source entries are reduced to basenames; the model is told to
// return basenames already, but a stray path must not leak to the user.
func ParseRAGResponse(content string) (resp *model.RAGResponse, err error) {
	defer recoverParse("rag_parser", &resp, &err)

	raw, err := extractJSONObject(content)
	if err != nil {
		return nil, errx.New(fmt.Errorf("rag response: %w", err), http.StatusBadGateway, errx.DecisionErrorMessage)
	}

	var r model.RAGResponse
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, errx.New(fmt.Errorf("rag response: %w", err), http.StatusBadGateway, errx.DecisionErrorMessage)
	}

	cleaned := make([]string, 0, len(r.UsedSources))
	for _, src := range r.UsedSources {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		cleaned = append(cleaned, path.Base(strings.ReplaceAll(src, "\\", "/")))
	}
	r.UsedSources = cleaned

	return &r, nil
}
