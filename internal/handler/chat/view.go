package chat

import (
	"time"

	"github.com/zhouzirui/code-mentor/backend/internal/model/chat"
	"github.com/zhouzirui/code-mentor/backend/pkg/utils"
)

// turnView 是前端渲染用的对话轮次, 附带 markdown 转换后的 HTML
type turnView struct {
	Role      chat.Role `json:"role"`
	Text      string    `json:"text"`
	HTML      string    `json:"html"`
	Notice    string    `json:"notice,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toTurnViews(turns []chat.Turn) []turnView {
	views := make([]turnView, 0, len(turns))
	for _, t := range turns {
		views = append(views, turnView{
			Role:      t.Role,
			Text:      t.Text,
			HTML:      utils.RenderMarkdown(t.Text),
			Notice:    t.Notice,
			CreatedAt: t.CreatedAt,
		})
	}
	return views
}

type noticeView struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type sessionView struct {
	Session chat.Session `json:"session"`
	Turns   []turnView   `json:"turns"`
}

type submitView struct {
	Turns  []turnView  `json:"turns"`
	Notice *noticeView `json:"notice,omitempty"`
}
