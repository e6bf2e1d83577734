package model

// Tool names referenced across prompts, collection, and dispatch.
const (
	ToolQuerySQL = "query_sql"
	ToolQueryRAG = "query_rag"
)
