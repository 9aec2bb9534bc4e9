package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/vishnusiva/callmate/backend/internal/config"
	"github.com/vishnusiva/callmate/backend/internal/model/call"
)

// Generator produces assistant replies through a prompt chain over the
// configured chat model. The system instruction is re-sent on every
// turn; the stored transcript is replayed as alternating user and
// assistant messages.
type Generator struct {
	cfg   config.AIConfig
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewGenerator builds the chat model from configuration and compiles
// the reply chain.
func NewGenerator(ctx context.Context, cfg config.AIConfig) (*Generator, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return newGeneratorWithModel(ctx, chatModel, cfg)
}

func newGeneratorWithModel(ctx context.Context, chatModel model.ChatModel, cfg config.AIConfig) (*Generator, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reply chain: %w", err)
	}

	return &Generator{cfg: cfg, chain: runnable}, nil
}

// GenerateReply runs the chain for one turn and returns the cleaned
// reply text. An empty completion is an error.
func (g *Generator) GenerateReply(ctx context.Context, turns []call.Turn, userText string) (string, error) {
	input := g.buildChainInput(turns, userText)

	response, err := g.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run reply chain: %w", err)
	}

	reply := StripRoleLabel(strings.TrimSpace(response.Content))
	if reply == "" {
		return "", fmt.Errorf("model returned an empty reply")
	}

	return reply, nil
}

func (g *Generator) buildChainInput(turns []call.Turn, userText string) map[string]any {
	return map[string]any{
		"system":  g.cfg.SystemPrompt,
		"history": g.buildHistoryMessages(turns),
		"query":   userText,
	}
}

// buildHistoryMessages replays the most recent turns, bounded by the
// configured history limit so long calls keep a stable prompt size.
func (g *Generator) buildHistoryMessages(turns []call.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	limit := g.cfg.HistoryLimit
	startIdx := 0
	if limit > 0 && len(turns) > limit {
		startIdx = len(turns) - limit
	}

	history := make([]*schema.Message, 0, 2*(len(turns)-startIdx))
	for _, turn := range turns[startIdx:] {
		history = append(history, schema.UserMessage(turn.UserText))
		history = append(history, schema.AssistantMessage(turn.ReplyText, nil))
	}

	return history
}

// StripRoleLabel removes a leading conversational role label such as
// "AI:" (case-insensitive) that models sometimes prepend when the
// transcript format leaks into the completion.
func StripRoleLabel(text string) string {
	const label = "ai:"
	if len(text) >= len(label) && strings.EqualFold(text[:len(label)], label) {
		return strings.TrimLeft(text[len(label):], " \t\n")
	}
	return text
}
