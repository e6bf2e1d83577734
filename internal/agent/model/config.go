package model

// ================ Config ================

// DecisionModelConfig drives the structured-output model used by the
// router and reflect nodes. Low temperature keeps decisions stable.
type DecisionModelConfig struct {
	Model       string  `envconfig:"DECISION_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"DECISION_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"DECISION_TEMPERATURE" default:"0.1"`
}

// PlannerModelConfig drives the tool-calling planner.
type PlannerModelConfig struct {
	Model       string  `envconfig:"PLANNER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"PLANNER_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"PLANNER_TEMPERATURE" default:"0.6"`
}

// SynthesisModelConfig drives the final-answer model shared by the
// synthesize and respond nodes (no tools bound).
type SynthesisModelConfig struct {
	Model       string  `envconfig:"SYNTHESIS_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"SYNTHESIS_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"SYNTHESIS_TEMPERATURE" default:"0.6"`
}

// SessionConfig controls thread persistence and turn depth.
// Depth 1/2/3 maps to 2/4/6 planning rounds per turn.
type SessionConfig struct {
	TTL   string `envconfig:"SESSION_TTL" default:"24h"`
	Depth int    `envconfig:"SESSION_DEPTH" default:"2"`
}

// AnalyticsConfig locates the read-only sales database.
type AnalyticsConfig struct {
	DBPath string `envconfig:"SALES_DB_PATH" default:"db/sales.db"`
}

// RAGConfig configures the semantic retrieval stack: the sqlite-vec store,
// the embedding model, and the answer model that reads retrieved context.
type RAGConfig struct {
	DBPath            string  `envconfig:"RAG_DB_PATH" default:"db/rag.db"`
	Table             string  `envconfig:"RAG_TABLE" default:"product_knowledge"`
	EmbedModel        string  `envconfig:"RAG_EMBED_MODEL" default:"gemini-embedding-001"`
	EmbedDimensions   int     `envconfig:"RAG_EMBED_DIMENSIONS" default:"768"`
	TopK              int     `envconfig:"RAG_TOP_K" default:"5"`
	AnswerModel       string  `envconfig:"RAG_ANSWER_MODEL" default:"gemini-2.5-flash"`
	AnswerMaxTokens   int     `envconfig:"RAG_ANSWER_MAX_TOKENS" default:"2000"`
	AnswerTemperature float32 `envconfig:"RAG_ANSWER_TEMPERATURE" default:"0.7"`
	DocsDir           string  `envconfig:"RAG_DOCS_DIR" default:"data/docs"`
	ChunkSize         int     `envconfig:"RAG_CHUNK_SIZE" default:"1000"`
	ChunkOverlap      int     `envconfig:"RAG_CHUNK_OVERLAP" default:"150"`
}

const (
	MinDepth = 1
	MaxDepth = 3
)

// MaxIterationsForDepth converts the user-facing depth setting into the
// planning-round bound for a turn. Out-of-range depths are clamped.
func MaxIterationsForDepth(depth int) int {
	if depth < MinDepth {
		depth = MinDepth
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}
	return depth * 2
}
