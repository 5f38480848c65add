package chat

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single utterance in a conversation.
//
// Notice is empty for real utterances. A non-empty Notice marks an assistant
// placeholder shown in place of a reply that could not be produced; such
// turns are displayed but never replayed to the model.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Notice    string    `json:"notice,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsNotice reports whether the turn is a failure placeholder.
func (t Turn) IsNotice() bool {
	return t.Notice != ""
}

// UserTurn builds a user turn stamped with the current time.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text, CreatedAt: time.Now().UTC()}
}

// AssistantTurn builds an assistant reply turn stamped with the current time.
func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Text: text, CreatedAt: time.Now().UTC()}
}

// NoticeTurn builds an assistant placeholder carrying the failure kind.
func NoticeTurn(kind, text string) Turn {
	return Turn{Role: RoleAssistant, Text: text, Notice: kind, CreatedAt: time.Now().UTC()}
}
