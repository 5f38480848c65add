package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/code-mentor/backend/internal/model/chat"
)

// ChainGenerator runs conversations through an eino chain: a chat template
// carrying the system prompt and the full history, followed by the model.
type ChainGenerator struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewChainGenerator compiles the conversation chain around chatModel.
func NewChainGenerator(ctx context.Context, chatModel model.ChatModel) (*ChainGenerator, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ChainGenerator{chain: runnable}, nil
}

// GenerateReply implements Generator.
func (g *ChainGenerator) GenerateReply(ctx context.Context, system string, turns []chat.Turn) (string, error) {
	input := map[string]any{
		"system":  system,
		"history": toSchemaMessages(turns),
	}

	response, err := g.chain.Invoke(ctx, input)
	if err != nil {
		return "", Classify(fmt.Errorf("failed to run AI chain: %w", err))
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", Classify(ErrEmptyReply)
	}

	return response.Content, nil
}
