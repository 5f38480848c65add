package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/code-mentor/backend/internal/handler/chat"
	"github.com/zhouzirui/code-mentor/backend/internal/handler/persona"
	"github.com/zhouzirui/code-mentor/backend/internal/handler/review"
	"github.com/zhouzirui/code-mentor/backend/internal/handler/web"
	middlewarePkg "github.com/zhouzirui/code-mentor/backend/internal/middleware"
	personaModel "github.com/zhouzirui/code-mentor/backend/internal/model/persona"
	chatService "github.com/zhouzirui/code-mentor/backend/internal/service/chat"
	reviewService "github.com/zhouzirui/code-mentor/backend/internal/service/review"
	"github.com/zhouzirui/code-mentor/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, chatSvc *chatService.Service, reviewSvc *reviewService.Service, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))

	// Create handlers
	personaHandler := persona.New(personas)
	chatHandler := chat.New(chatSvc)
	reviewHandler := review.New(reviewSvc)

	web.New(personas).RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": chatSvc.Count(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		reviewHandler.RegisterRoutes(api)
	})

	// 兼容旧前端的审查接口
	r.Post("/ai/get-review", reviewHandler.HandleReview)

	return r
}
