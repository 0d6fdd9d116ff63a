package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/persona-chat/internal/model/persona"
)

// ChainGenerator answers through an eino chain: system prompt template
// followed by the chat model.
type ChainGenerator struct {
	characters persona.Store
	chain      compose.Runnable[map[string]any, *schema.Message]
	logger     *zap.Logger
}

// NewChainGenerator compiles the reply chain around chatModel.
func NewChainGenerator(ctx context.Context, chatModel model.BaseChatModel, characters persona.Store, logger *zap.Logger) (*ChainGenerator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ChainGenerator{
		characters: characters,
		chain:      runnable,
		logger:     logger.Named("ai"),
	}, nil
}

// Reply runs the chain for one message. Unregistered characters get a
// generic persona built from the id.
func (g *ChainGenerator) Reply(ctx context.Context, characterID, message string) (string, error) {
	c, ok := g.characters.FindByID(characterID)
	if !ok {
		c = persona.Character{ID: characterID, Name: characterID, Subtitle: "a character"}
	}

	input := map[string]any{
		"system": SystemPrompt(c),
		"query":  message,
	}

	response, err := g.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	reply := strings.TrimSpace(response.Content)
	g.logger.Info("generated reply", zap.String("character", characterID), zap.Int("length", len(reply)))
	return reply, nil
}
