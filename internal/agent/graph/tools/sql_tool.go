package tools

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
	logx "github.com/xyadam/delaware-hybrid-langgraph/pkg/logger"
)

const (
	// RejectedStatementMessage is the soft error returned for non-SELECT
	// input. It flows back to the planner as a normal tool result.
	RejectedStatementMessage = "Error: only SELECT queries are allowed."
	// ZeroRowsMessage is returned verbatim for empty result sets.
	ZeroRowsMessage = "Query returned 0 rows."

	maxResultRows = 200
)

// SQLTool executes read-only SELECT queries against the sales database.
// Disallowed statements come back as a soft error string; SQL the engine
// rejects propagates as a hard error that aborts the turn.
type SQLTool struct {
	db *sql.DB
}

func NewSQLTool(db *sql.DB) *SQLTool {
	return &SQLTool{db: db}
}

type sqlInput struct {
	SQL string `json:"sql"`
}

func (t *SQLTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: model.ToolQuerySQL,
		Desc: "Execute a read-only SQL SELECT query against the fashion retail sales database. " +
			"The database contains: products, stores, customers, employees, discounts, transactions. " +
			"All data is from 2024. Only SELECT statements are allowed. " +
			"Returns query results as formatted text with column headers, or an error message.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"sql": {
				Type:     "string",
				Desc:     "A SELECT SQL query to execute.",
				Required: true,
			},
		}),
	}, nil
}

func (t *SQLTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var in sqlInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &in); err != nil {
		return "", fmt.Errorf("parse %s arguments: %w", model.ToolQuerySQL, err)
	}
	return RunQuery(ctx, t.db, in.SQL)
}

// RunQuery implements the tool body: prefix guard, execution, and text
// table formatting with the 200 row cap.
func RunQuery(ctx context.Context, db *sql.DB, query string) (string, error) {
	trimmed := strings.TrimSpace(query)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		logx.Debug().Str("tool", model.ToolQuerySQL).Msg("non-SELECT statement rejected")
		return RejectedStatementMessage, nil
	}

	rows, err := db.QueryContext(ctx, trimmed)
	if err != nil {
		// Engine rejection is the designed hard-failure path.
		return "", fmt.Errorf("%s: %w", model.ToolQuerySQL, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("%s columns: %w", model.ToolQuerySQL, err)
	}

	header := strings.Join(columns, " | ")
	lines := []string{header, strings.Repeat("-", len(header))}

	total := 0
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		total++
		if total > maxResultRows {
			continue
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", fmt.Errorf("%s scan: %w", model.ToolQuerySQL, err)
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatCell(v)
		}
		lines = append(lines, strings.Join(cells, " | "))
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("%s rows: %w", model.ToolQuerySQL, err)
	}

	if total == 0 {
		return ZeroRowsMessage, nil
	}
	if total > maxResultRows {
		lines = append(lines, fmt.Sprintf("... (%d total rows, showing first %d)", total, maxResultRows))
	}

	logx.Debug().Str("tool", model.ToolQuerySQL).Int("rows", total).Msg("query executed")
	return strings.Join(lines, "\n"), nil
}

func formatCell(v any) string {
	switch vv := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(vv)
	default:
		return fmt.Sprint(vv)
	}
}

var _ tool.InvokableTool = (*SQLTool)(nil)
