package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/graph"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/repo"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/analytics"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/core"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/rag"
	"github.com/xyadam/delaware-hybrid-langgraph/internal/render"
	logx "github.com/xyadam/delaware-hybrid-langgraph/pkg/logger"
	pkgredis "github.com/xyadam/delaware-hybrid-langgraph/pkg/redis"
)

// AppConfig defines all configurable parameters for the assistant, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis       pkgredis.Config
	Environment string `envconfig:"APP_ENV" default:"development"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Decision  model.DecisionModelConfig
	Planner   model.PlannerModelConfig
	Synthesis model.SynthesisModelConfig
	Session   model.SessionConfig
	Analytics model.AnalyticsConfig
	RAG       model.RAGConfig
}

func loadConfig() (*AppConfig, error) {
	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("Could not load .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})
	return &cfg, nil
}

func depthLabel(depth int) string {
	switch depth {
	case 1:
		return "Quick"
	case 3:
		return "Deep"
	default:
		return "Standard"
	}
}

// Execute runs the root command.
func Execute() error {
	var (
		threadID string
		depth    int
	)

	rootCmd := &cobra.Command{
		Use:           "retail-assistant",
		Short:         "Conversational retail analytics assistant",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if depth == 0 {
				depth = cfg.Session.Depth
			}
			return runChat(cmd.Context(), cfg, threadID, depth)
		},
	}
	chatCmd.Flags().StringVar(&threadID, "thread", "", "thread ID to resume (default: a fresh thread)")
	chatCmd.Flags().IntVar(&depth, "depth", 0, "research depth 1-3 (default from SESSION_DEPTH)")

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Rebuild the product knowledge vector store from the docs directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runIngest(cmd.Context(), cfg)
		},
	}

	rootCmd.AddCommand(chatCmd, ingestCmd)
	return rootCmd.Execute()
}

func runChat(ctx context.Context, cfg *AppConfig, threadID string, depth int) error {
	rdb, err := cfg.Redis.New()
	if err != nil {
		return fmt.Errorf("initialise Redis client: %w", err)
	}
	defer rdb.Close()

	ttl, err := time.ParseDuration(cfg.Session.TTL)
	if err != nil {
		return fmt.Errorf("invalid SESSION_TTL %q: %w", cfg.Session.TTL, err)
	}

	salesDB, err := analytics.Open(cfg.Analytics.DBPath)
	if err != nil {
		return err
	}
	defer salesDB.Close()

	store, err := rag.OpenVectorStore(cfg.RAG.DBPath, cfg.RAG.Table, cfg.RAG.EmbedDimensions)
	if err != nil {
		return err
	}
	defer store.Close()

	runner, err := graph.BuildAgentGraph(ctx, graph.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		DecisionModel:  cfg.Decision,
		PlannerModel:   cfg.Planner,
		SynthesisModel: cfg.Synthesis,
		RAG:            cfg.RAG,
		SessionRepo:    repo.NewRedisSessionRepository(rdb, ttl),
		SalesDB:        salesDB,
		VectorStore:    store,
	})
	if err != nil {
		return fmt.Errorf("build agent graph: %w", err)
	}

	if threadID == "" {
		threadID = uuid.NewString()
	}

	fmt.Printf("Retail analytics assistant (thread %s, %s mode)\n", threadID, depthLabel(depth))
	fmt.Println("Type a question, or 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		answer, err := runner.Invoke(ctx, model.TurnInput{
			SessionID: threadID,
			Query:     line,
			Depth:     depth,
		})
		if err != nil {
			logx.Error().Err(err).Msg("turn failed")
			fmt.Printf("Sorry, something went wrong: %v\n", err)
			continue
		}

		fmt.Println(render.Answer(answer))
	}
	return scanner.Err()
}

func runIngest(ctx context.Context, cfg *AppConfig) error {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return fmt.Errorf("create Gemini client: %w", err)
	}

	store, err := rag.OpenVectorStore(cfg.RAG.DBPath, cfg.RAG.Table, cfg.RAG.EmbedDimensions)
	if err != nil {
		return err
	}
	defer store.Close()

	embedder := rag.NewEmbedder(client, cfg.RAG.EmbedModel, cfg.RAG.EmbedDimensions)
	ingester := rag.NewIngester(store, embedder, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)

	files, chunks, err := ingester.IngestDir(ctx, cfg.RAG.DocsDir)
	if err != nil {
		return fmt.Errorf("ingest docs: %w", err)
	}

	fmt.Printf("Ingested %d files (%d chunks) from %s into %s\n", files, chunks, cfg.RAG.DocsDir, cfg.RAG.DBPath)
	return nil
}
