package tools

import (
	"context"
	"database/sql"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/rag"
)

// Deps carries the external collaborators the query tools run against.
type Deps struct {
	SalesDB     *sql.DB
	Embedder    *rag.Embedder
	VectorStore *rag.VectorStore
	AnswerModel einomodel.BaseChatModel
	TopK        int
}

// GetQueryTools returns the retrieval tools bound to the planner, in the
// order they are advertised to the model.
func GetQueryTools(d Deps) []tool.BaseTool {
	return []tool.BaseTool{
		NewSQLTool(d.SalesDB),
		NewRAGTool(d.Embedder, d.VectorStore, d.AnswerModel, d.TopK),
	}
}

// GetToolInfos resolves ToolInfo for each tool so they can be bound to the
// planner model.
func GetToolInfos(ctx context.Context, ts []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
