package ai

import (
	"context"
	"fmt"

	"github.com/tiktoken-go/tokenizer"

	"github.com/zhouzirui/code-mentor/backend/internal/model/chat"
)

// perMessageOverhead approximates the role/separator tokens the chat
// formats add around each message.
const perMessageOverhead = 4

// TokenCounter counts tokens in text.
type TokenCounter interface {
	Count(text string) int
}

// Tiktoken counts tokens with the cl100k_base encoding.
type Tiktoken struct {
	codec tokenizer.Codec
}

// NewTiktoken loads the cl100k_base codec.
func NewTiktoken() (*Tiktoken, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &Tiktoken{codec: codec}, nil
}

// Count returns the number of tokens in text. Text the codec cannot encode
// falls back to a four-bytes-per-token estimate.
func (t *Tiktoken) Count(text string) int {
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return len(text)/4 + 1
	}
	return len(ids)
}

// Windowed limits the history forwarded to the next Generator to a token
// budget. The newest turn is always sent; older turns are dropped from the
// front, and a leading assistant turn is dropped so the window opens on a
// user turn.
type Windowed struct {
	next    Generator
	counter TokenCounter
	limit   int
}

// NewWindowed wraps next. A limit <= 0 disables trimming.
func NewWindowed(next Generator, counter TokenCounter, limit int) *Windowed {
	return &Windowed{next: next, counter: counter, limit: limit}
}

// GenerateReply implements Generator.
func (w *Windowed) GenerateReply(ctx context.Context, system string, turns []chat.Turn) (string, error) {
	return w.next.GenerateReply(ctx, system, w.Trim(system, turns))
}

// Trim returns the suffix of turns that fits the budget.
func (w *Windowed) Trim(system string, turns []chat.Turn) []chat.Turn {
	if w.limit <= 0 || len(turns) == 0 {
		return turns
	}

	budget := w.limit - w.counter.Count(system)
	start := len(turns) - 1
	budget -= w.counter.Count(turns[start].Text) + perMessageOverhead

	for start > 0 {
		cost := w.counter.Count(turns[start-1].Text) + perMessageOverhead
		if cost > budget {
			break
		}
		budget -= cost
		start--
	}

	for start < len(turns)-1 && turns[start].Role != chat.RoleUser {
		start++
	}

	return turns[start:]
}
