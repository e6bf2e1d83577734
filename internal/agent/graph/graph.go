package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/graph/conversations"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/graph/nodes"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/graph/observers"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/graph/tools"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/rag"
	logx "github.com/xyadam/delaware-hybrid-langgraph/pkg/logger"
)

// Runner is a thin wrapper to execute the compiled graph with the public TurnInput.
type Runner interface {
	Invoke(ctx context.Context, in model.TurnInput) (string, error)
}

// Config holds everything needed to compose the full agent graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs ChatModels,
// the embedder, the query tools, and the MessagesManager.
type Config struct {
	APIKey  string
	BaseURL string

	DecisionModel  model.DecisionModelConfig
	PlannerModel   model.PlannerModelConfig
	SynthesisModel model.SynthesisModelConfig
	RAG            model.RAGConfig

	SessionRepo model.SessionRepository
	SalesDB     *sql.DB
	VectorStore *rag.VectorStore
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels      *nodes.ChatModels
	MessagesManager *conversations.MessagesManager
	ToolDeps        tools.Deps
}

// GraphBuilder handles the construction of the agent graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.TurnInput, *schema.Message]
}

type graphRunner struct {
	runnable compose.Runnable[model.TurnInput, *schema.Message]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.TurnInput) (string, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", nil
	}
	// Best-effort print Extra (e.g., usage_cost) if present
	if len(out.Extra) > 0 {
		if b, err := json.MarshalIndent(out.Extra, "", "  "); err == nil {
			logx.Debug().RawJSON("extra", b).Msg("final message extra")
		}
	}
	return out.Content, nil
}

// BuildAgentGraph composes ChatModels, tools, the MessagesManager, builds the
// graph, and returns a Runner.
func BuildAgentGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.SessionRepo == nil {
		return nil, fmt.Errorf("session repo is nil")
	}
	if cfg.SalesDB == nil {
		return nil, fmt.Errorf("sales db is nil")
	}
	if cfg.VectorStore == nil {
		return nil, fmt.Errorf("vector store is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		DecisionConfig:  &cfg.DecisionModel,
		PlannerConfig:   &cfg.PlannerModel,
		SynthesisConfig: &cfg.SynthesisModel,
		RAGConfig:       &cfg.RAG,
	})
	if err != nil {
		return nil, err
	}

	embedder := rag.NewEmbedder(cms.Client, cfg.RAG.EmbedModel, cfg.RAG.EmbedDimensions)
	mm := conversations.NewMessagesManager(cfg.SessionRepo)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:      cms,
		MessagesManager: mm,
		ToolDeps: tools.Deps{
			SalesDB:     cfg.SalesDB,
			Embedder:    embedder,
			VectorStore: cfg.VectorStore,
			AnswerModel: cms.RAGAnswer,
			TopK:        cfg.RAG.TopK,
		},
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Agent graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled agent graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TurnInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Decision == nil ||
		config.ChatModels.Planner == nil || config.ChatModels.Synthesis == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AgentState {
				return &model.AgentState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools configures the query tools, binds them to the planner model,
// and registers the tool executor node.
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	queryTools := tools.GetQueryTools(b.config.ToolDeps)
	toolInfos, err := tools.GetToolInfos(ctx, queryTools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}

	if err := b.config.ChatModels.BindToolsToPlannerModel(ctx, toolInfos); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to planner model")
		return fmt.Errorf("failed to bind tools to planner model: %w", err)
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		// Sequential dispatch keeps collected results in call order.
		Tools:               queryTools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			// Gracefully handle hallucinated or malformed tool calls (e.g., empty name)
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
		ToolArgumentsHandler: func(ctx context.Context, name, arguments string) (string, error) {
			// Best-effort sanitize; never fail hard here
			var m map[string]any
			if err := json.Unmarshal([]byte(arguments), &m); err != nil {
				return arguments, nil
			}

			trimKey := func(key string) {
				if v, ok := m[key]; ok {
					switch vv := v.(type) {
					case string:
						m[key] = strings.TrimSpace(vv)
					default:
						m[key] = strings.TrimSpace(fmt.Sprint(v))
					}
				}
			}
			switch name {
			case model.ToolQuerySQL:
				trimKey("sql")
			case model.ToolQueryRAG:
				trimKey("question")
			}

			b, err := json.Marshal(m)
			if err != nil {
				return arguments, nil
			}
			return string(b), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePostHandler(nodes.NewToolExecutorPostHandler()),
	)

	return nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeTurnSetup,
		nodes.NewTurnSetupNode(b.config.MessagesManager),
		compose.WithStatePreHandler(nodes.NewTurnSetupPreHandler()),
	)

	b.graph.AddChatModelNode(nodes.NodeRouterChatModel,
		b.config.ChatModels.Decision,
		compose.WithStatePostHandler(nodes.NewRouterChatModelPostHandler(b.config.ChatModels.DecisionModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeRouteParser,
		nodes.NewRouteParserNode(),
		compose.WithStatePostHandler(nodes.NewRouteParserPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeRespondAssembler,
		nodes.NewRespondAssemblerNode(b.config.MessagesManager),
	)

	b.graph.AddChatModelNode(nodes.NodeRespondChatModel,
		b.config.ChatModels.Synthesis,
		compose.WithStatePostHandler(nodes.NewRespondChatModelPostHandler(b.config.MessagesManager, b.config.ChatModels.SynthesisModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodePlanAssembler,
		nodes.NewPlanAssemblerNode(),
	)

	b.graph.AddChatModelNode(nodes.NodePlannerChatModel,
		b.config.ChatModels.Planner,
		compose.WithStatePostHandler(nodes.NewPlannerChatModelPostHandler(b.config.ChatModels.PlannerModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeCollectResults,
		nodes.NewCollectResultsNode(),
	)

	b.graph.AddLambdaNode(nodes.NodeReflectAssembler,
		nodes.NewReflectAssemblerNode(),
	)

	b.graph.AddChatModelNode(nodes.NodeReflectChatModel,
		b.config.ChatModels.Decision,
		compose.WithStatePostHandler(nodes.NewReflectChatModelPostHandler(b.config.ChatModels.DecisionModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeReflectParser,
		nodes.NewReflectParserNode(),
		compose.WithStatePostHandler(nodes.NewReflectParserPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeSynthAssembler,
		nodes.NewSynthAssemblerNode(),
	)

	b.graph.AddChatModelNode(nodes.NodeSynthChatModel,
		b.config.ChatModels.Synthesis,
		compose.WithStatePostHandler(nodes.NewSynthChatModelPostHandler(b.config.ChatModels.SynthesisModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeFinalizer,
		nodes.NewFinalizerNode(b.config.MessagesManager),
	)
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeTurnSetup},
		{nodes.NodeTurnSetup, nodes.NodeRouterChatModel},
		{nodes.NodeRouterChatModel, nodes.NodeRouteParser},
		{nodes.NodeRespondAssembler, nodes.NodeRespondChatModel},
		{nodes.NodeRespondChatModel, compose.END},
		{nodes.NodePlanAssembler, nodes.NodePlannerChatModel},
		{nodes.NodeToolExecutor, nodes.NodeCollectResults},
		{nodes.NodeCollectResults, nodes.NodeReflectAssembler},
		{nodes.NodeReflectAssembler, nodes.NodeReflectChatModel},
		{nodes.NodeReflectChatModel, nodes.NodeReflectParser},
		{nodes.NodeSynthAssembler, nodes.NodeSynthChatModel},
		{nodes.NodeSynthChatModel, nodes.NodeFinalizer},
		{nodes.NodeFinalizer, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	routeBranch := compose.NewGraphBranch(
		nodes.NewRouteCondition(),
		map[string]bool{
			nodes.NodeRespondAssembler: true,
			nodes.NodePlanAssembler:    true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeRouteParser, routeBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding route branch")
		return fmt.Errorf("error adding route branch: %w", err)
	}

	dispatchBranch := compose.NewGraphBranch(
		nodes.NewToolDispatchCondition(),
		map[string]bool{
			nodes.NodeToolExecutor:   true,
			nodes.NodeSynthAssembler: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodePlannerChatModel, dispatchBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding tool dispatch branch")
		return fmt.Errorf("error adding tool dispatch branch: %w", err)
	}

	reflectBranch := compose.NewGraphBranch(
		nodes.NewReflectCondition(),
		map[string]bool{
			nodes.NodePlanAssembler:  true,
			nodes.NodeSynthAssembler: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeReflectParser, reflectBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding reflect branch")
		return fmt.Errorf("error adding reflect branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *schema.Message], error) {
	// Bound total run steps by the deepest possible turn: seven graph steps
	// per planning round at maximum depth, plus the setup and synthesis tail.
	maxSteps := 12 + model.MaxIterationsForDepth(model.MaxDepth)*7

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
