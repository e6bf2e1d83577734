// Package prompts holds the embedded prompt templates and renders them via
// the Eino prompt component so prompt callbacks fire for every render.
//
// Templates use simple {token} placeholders resolved with a string replacer
// instead of a template engine: the texts are full of JSON braces, and a
// replacer cannot be confused by them.
package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/xyadam/delaware-hybrid-langgraph/internal/agent/model"
)

//go:embed template/system_prompt.txt
var systemPrompt string

//go:embed template/router_prompt.txt
var routerPrompt string

//go:embed template/plan_prompt.txt
var planPrompt string

//go:embed template/reflect_prompt.txt
var reflectPrompt string

//go:embed template/synthesize_prompt.txt
var synthesizePrompt string

//go:embed template/rag_answer_prompt.txt
var ragAnswerPrompt string

const (
	noDataYet = "(none yet)"
	noData    = "(no data)"
)

func toolNames() *strings.Replacer {
	return strings.NewReplacer(
		"{sql_tool}", model.ToolQuerySQL,
		"{rag_tool}", model.ToolQueryRAG,
	)
}

// System returns the general system prompt (schema, rules, examples).
func System() string {
	return toolNames().Replace(systemPrompt)
}

// RenderRouterSystem renders the route-classification instruction.
func RenderRouterSystem(ctx context.Context) (string, error) {
	return emitCallbacks(ctx, toolNames().Replace(routerPrompt))
}

// PlanVars carries everything the planner context is assembled from.
type PlanVars struct {
	Question      string
	Iteration     int
	MaxIterations int
	Todo          []string
	Collected     []string
	Reflection    string
}

// RenderPlanSystem assembles the planner's system context: general system
// prompt, planning instructions, the question, iteration progress, and the
// optional todo/collected/reflection sections. Reflection feedback is only
// included after the first planning round.
func RenderPlanSystem(ctx context.Context, v PlanVars) (string, error) {
	parts := []string{
		System(),
		toolNames().Replace(planPrompt),
		fmt.Sprintf("\nUser question: %s", v.Question),
		fmt.Sprintf("\nIteration: %d / %d", v.Iteration+1, v.MaxIterations),
	}

	if len(v.Todo) > 0 {
		var b strings.Builder
		b.WriteString("\nCurrent TODO list:\n")
		for _, t := range v.Todo {
			b.WriteString("- " + t + "\n")
		}
		parts = append(parts, strings.TrimRight(b.String(), "\n"))
	}

	if len(v.Collected) > 0 {
		parts = append(parts, "\nData collected so far:\n"+joinCollected(v.Collected, noDataYet))
	}

	if v.Reflection != "" && v.Iteration > 0 {
		parts = append(parts, "\nReflection from previous iteration:\n"+v.Reflection)
	}

	return emitCallbacks(ctx, strings.Join(parts, "\n"))
}

// ReflectVars carries the reflect prompt inputs.
type ReflectVars struct {
	Question      string
	Iteration     int
	MaxIterations int
	Collected     []string
}

// RenderReflectSystem renders the sufficiency-evaluation prompt.
func RenderReflectSystem(ctx context.Context, v ReflectVars) (string, error) {
	content := strings.NewReplacer(
		"{question}", v.Question,
		"{iteration}", fmt.Sprintf("%d", v.Iteration),
		"{max_iterations}", fmt.Sprintf("%d", v.MaxIterations),
		"{collected_data}", joinCollected(v.Collected, noDataYet),
	).Replace(toolNames().Replace(reflectPrompt))

	return emitCallbacks(ctx, content)
}

// RenderSynthesizeSystem renders the final-answer prompt embedding the
// system context and all collected results.
func RenderSynthesizeSystem(ctx context.Context, collected []string) (string, error) {
	content := strings.NewReplacer(
		"{system_prompt}", System(),
		"{collected_data}", joinCollected(collected, noData),
	).Replace(synthesizePrompt)

	return emitCallbacks(ctx, content)
}

// RAGAnswerPrompt renders the answer-from-context prompt used inside the
// semantic retrieval tool. No callbacks here: the tool calls the model
// directly, outside the graph's prompt nodes.
func RAGAnswerPrompt(question, contextText string) string {
	return strings.NewReplacer(
		"{question}", question,
		"{context}", contextText,
	).Replace(ragAnswerPrompt)
}

func joinCollected(collected []string, placeholder string) string {
	if len(collected) == 0 {
		return placeholder
	}
	return strings.Join(collected, "\n---\n")
}

// emitCallbacks routes the final text through the Eino prompt component
// using a messages placeholder, purely so Prompt callbacks observe it.
func emitCallbacks(ctx context.Context, content string) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}
