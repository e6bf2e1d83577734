package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
	logx "github.com/xyadam/delaware-hybrid-langgraph/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey          string
	BaseURL         string
	DecisionConfig  *model.DecisionModelConfig
	PlannerConfig   *model.PlannerModelConfig
	SynthesisConfig *model.SynthesisModelConfig
	RAGConfig       *model.RAGConfig
}

// ChatModels holds the chat models behind the graph nodes. Decision backs
// the router and reflect nodes, Planner carries the bound tools, Synthesis
// backs respond and synthesize, and RAGAnswer serves the retrieval tool.
type ChatModels struct {
	Decision  *gemini.ChatModel
	Planner   *gemini.ChatModel
	Synthesis *gemini.ChatModel
	RAGAnswer *gemini.ChatModel

	DecisionModelName  string
	PlannerModelName   string
	SynthesisModelName string

	// Client is the shared genai client, reused by the embedder.
	Client *genai.Client
}

// NewChatModels creates all chat models on a single Gemini client.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	decision, err := newGeminiModel(ctx, client, config.DecisionConfig.Model, config.DecisionConfig.Temperature, config.DecisionConfig.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("error creating decision model: %w", err)
	}

	planner, err := newGeminiModel(ctx, client, config.PlannerConfig.Model, config.PlannerConfig.Temperature, config.PlannerConfig.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("error creating planner model: %w", err)
	}

	synthesis, err := newGeminiModel(ctx, client, config.SynthesisConfig.Model, config.SynthesisConfig.Temperature, config.SynthesisConfig.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("error creating synthesis model: %w", err)
	}

	ragAnswer, err := newGeminiModel(ctx, client, config.RAGConfig.AnswerModel, config.RAGConfig.AnswerTemperature, config.RAGConfig.AnswerMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("error creating rag answer model: %w", err)
	}

	return &ChatModels{
		Decision:           decision,
		Planner:            planner,
		Synthesis:          synthesis,
		RAGAnswer:          ragAnswer,
		DecisionModelName:  config.DecisionConfig.Model,
		PlannerModelName:   config.PlannerConfig.Model,
		SynthesisModelName: config.SynthesisConfig.Model,
		Client:             client,
	}, nil
}

func newGeminiModel(ctx context.Context, client *genai.Client, modelName string, temperature float32, maxTokens int) (*gemini.ChatModel, error) {
	return gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       modelName,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(int32(2000)),
		},
	})
}

// BindToolsToPlannerModel binds the query tools to the planner chat model.
// Only the planner may call tools; every other model answers in prose.
func (cm *ChatModels) BindToolsToPlannerModel(ctx context.Context, tools []*schema.ToolInfo) error {
	if err := cm.Planner.BindTools(tools); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return fmt.Errorf("failed to bind tools: %w", err)
	}

	logx.Debug().Int("tools", len(tools)).Msg("Successfully bound tools to planner model")
	return nil
}
