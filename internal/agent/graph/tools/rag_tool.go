package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/graph/parsers"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/graph/prompts"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/rag"
	logx "github.com/xyadam/delaware-hybrid-langgraph/pkg/logger"
)

// NoContextMessage is the plain-text sentinel for an empty retrieval.
// Callers must accept either this string or the JSON success payload.
const NoContextMessage = "No relevant product technical sheet context found for this question."

// RAGTool answers product-knowledge questions from the vector store:
// embed the question, retrieve the nearest chunks, then ask the answer
// model to respond strictly from that context.
type RAGTool struct {
	embedder    *rag.Embedder
	store       *rag.VectorStore
	answerModel einomodel.BaseChatModel
	topK        int
}

func NewRAGTool(embedder *rag.Embedder, store *rag.VectorStore, answerModel einomodel.BaseChatModel, topK int) *RAGTool {
	if topK <= 0 {
		topK = 5
	}
	return &RAGTool{
		embedder:    embedder,
		store:       store,
		answerModel: answerModel,
		topK:        topK,
	}
}

type ragInput struct {
	Question string `json:"question"`
}

func (t *RAGTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: model.ToolQueryRAG,
		Desc: "Search product technical sheets for product knowledge (materials, care instructions, sizing, sustainability, style notes). " +
			"Use this tool for questions about what products are made of, how to care for them, size guides, eco certifications, and outfit pairing suggestions. " +
			"Do NOT use this for sales numbers, revenue, or customer data -- use " + model.ToolQuerySQL + " instead. " +
			"IMPORTANT: Always use product names/descriptions in your question, NOT product IDs. " +
			"Semantic search matches on text similarity, so 'silk retro coat' will find results but 'product 7021' will not.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"question": {
				Type:     "string",
				Desc:     "A natural-language product knowledge question referencing products by name or description.",
				Required: true,
			},
		}),
	}, nil
}

func (t *RAGTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var in ragInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &in); err != nil {
		return "", fmt.Errorf("parse %s arguments: %w", model.ToolQueryRAG, err)
	}
	if strings.TrimSpace(in.Question) == "" {
		return "", fmt.Errorf("%s: question is required", model.ToolQueryRAG)
	}

	embedding, err := t.embedder.EmbedQuery(ctx, in.Question)
	if err != nil {
		return "", fmt.Errorf("%s embed: %w", model.ToolQueryRAG, err)
	}

	matches, err := t.store.Search(ctx, embedding, t.topK)
	if err != nil {
		return "", fmt.Errorf("%s search: %w", model.ToolQueryRAG, err)
	}
	if len(matches) == 0 {
		logx.Debug().Str("tool", model.ToolQueryRAG).Msg("no context retrieved")
		return NoContextMessage, nil
	}

	blocks := make([]string, len(matches))
	for i, m := range matches {
		source := path.Base(strings.ReplaceAll(m.Source, "\\", "/"))
		blocks[i] = fmt.Sprintf("Source: %s\n%s", source, m.Content)
	}
	contextText := strings.Join(blocks, "\n\n---\n\n")

	prompt := prompts.RAGAnswerPrompt(in.Question, contextText)
	out, err := t.answerModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("%s answer: %w", model.ToolQueryRAG, err)
	}

	resp, err := parsers.ParseRAGResponse(out.Content)
	if err != nil {
		return "", fmt.Errorf("%s: %w", model.ToolQueryRAG, err)
	}

	// Re-encode so result collection downstream gets a stable JSON shape.
	b, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("%s encode: %w", model.ToolQueryRAG, err)
	}

	logx.Debug().Str("tool", model.ToolQueryRAG).Int("chunks", len(matches)).Int("sources", len(resp.UsedSources)).Msg("rag answer produced")
	return string(b), nil
}

var _ tool.InvokableTool = (*RAGTool)(nil)
