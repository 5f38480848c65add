package ai

import (
	"context"

	"github.com/zhouzirui/code-mentor/backend/internal/model/chat"
)

// Generator produces the assistant reply for an ordered conversation.
//
// turns is the full context in chronological order and ends with the user
// turn being answered. Implementations must not retain or modify the slice.
type Generator interface {
	GenerateReply(ctx context.Context, system string, turns []chat.Turn) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, system string, turns []chat.Turn) (string, error)

// GenerateReply calls f.
func (f GeneratorFunc) GenerateReply(ctx context.Context, system string, turns []chat.Turn) (string, error) {
	return f(ctx, system, turns)
}
