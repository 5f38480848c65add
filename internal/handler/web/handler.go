package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/code-mentor/backend/internal/model/persona"
)

//go:embed static/index.html
var assets embed.FS

var indexTemplate = template.Must(template.ParseFS(assets, "static/index.html"))

// Handler 提供内嵌的聊天页面
type Handler struct {
	personas persona.Store
}

// New 创建页面处理器
func New(personas persona.Store) *Handler {
	return &Handler{personas: personas}
}

// RegisterRoutes 注册页面路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
}

type pageData struct {
	Personas []persona.Persona
	Default  string
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{Personas: h.personas.List(), Default: persona.MentorID}
	if err := indexTemplate.Execute(w, data); err != nil {
		slog.Error("render index failed", "component", "web", "error", err)
	}
}
