package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/code-mentor/backend/internal/model/chat"
)

type fakeChatModel struct {
	reply string
	err   error
	input []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(f.reply, nil)}), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

func TestChainGeneratorBuildsSystemAndHistory(t *testing.T) {
	fake := &fakeChatModel{reply: "Recursion is a function calling itself."}
	gen, err := NewChainGenerator(context.Background(), fake)
	if err != nil {
		t.Fatalf("NewChainGenerator err: %v", err)
	}

	turns := []chat.Turn{
		chat.UserTurn("Explain recursion"),
		chat.AssistantTurn("It calls itself."),
		chat.UserTurn("Now explain it in Rust"),
	}
	reply, err := gen.GenerateReply(context.Background(), "You are a mentor.", turns)
	if err != nil {
		t.Fatalf("GenerateReply err: %v", err)
	}
	if reply != fake.reply {
		t.Fatalf("unexpected reply %q", reply)
	}

	if len(fake.input) != 4 {
		t.Fatalf("expected system + 3 history messages, got %d", len(fake.input))
	}
	if fake.input[0].Role != schema.System || fake.input[0].Content != "You are a mentor." {
		t.Fatalf("unexpected system message %+v", fake.input[0])
	}
	if fake.input[3].Role != schema.User || fake.input[3].Content != "Now explain it in Rust" {
		t.Fatalf("unexpected last message %+v", fake.input[3])
	}
}

func TestChainGeneratorClassifiesFailures(t *testing.T) {
	fake := &fakeChatModel{err: context.DeadlineExceeded}
	gen, err := NewChainGenerator(context.Background(), fake)
	if err != nil {
		t.Fatalf("NewChainGenerator err: %v", err)
	}

	_, err = gen.GenerateReply(context.Background(), "sys", []chat.Turn{chat.UserTurn("hi")})
	var aiErr *Error
	if !errors.As(err, &aiErr) || aiErr.Kind != KindTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestChainGeneratorEmptyReply(t *testing.T) {
	gen, err := NewChainGenerator(context.Background(), &fakeChatModel{reply: "  "})
	if err != nil {
		t.Fatalf("NewChainGenerator err: %v", err)
	}

	_, err = gen.GenerateReply(context.Background(), "sys", []chat.Turn{chat.UserTurn("hi")})
	var aiErr *Error
	if !errors.As(err, &aiErr) || aiErr.Kind != KindMalformed {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestNewChainGeneratorRequiresModel(t *testing.T) {
	if _, err := NewChainGenerator(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil chat model")
	}
}
