package ai

import (
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/code-mentor/backend/internal/model/chat"
)

// toSchemaMessages maps turns onto eino messages. Notice turns are dropped.
func toSchemaMessages(turns []chat.Turn) []*schema.Message {
	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		if turn.IsNotice() {
			continue
		}
		switch turn.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(turn.Text))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Text, nil))
		}
	}
	return history
}

// toOpenAIMessages maps the system prompt and turns onto chat completion
// messages. Notice turns are dropped.
func toOpenAIMessages(system string, turns []chat.Turn) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, turn := range turns {
		if turn.IsNotice() {
			continue
		}
		var role string
		switch turn.Role {
		case chat.RoleUser:
			role = openai.ChatMessageRoleUser
		case chat.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		default:
			continue
		}
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Text,
		})
	}
	return msgs
}
