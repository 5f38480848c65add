package review

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/code-mentor/backend/internal/service/ai"
	reviewService "github.com/zhouzirui/code-mentor/backend/internal/service/review"
	"github.com/zhouzirui/code-mentor/backend/pkg/utils"
)

// Handler 代码审查的HTTP处理器
type Handler struct {
	reviewSvc *reviewService.Service
	logger    *slog.Logger
}

// New 创建代码审查处理器
func New(reviewSvc *reviewService.Service) *Handler {
	return &Handler{
		reviewSvc: reviewSvc,
		logger:    slog.Default().With("component", "review_handler"),
	}
}

// RegisterRoutes 注册审查路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/review", h.HandleReview)
}

type response struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// HandleReview 处理审查请求, 同时挂载在旧路径 /ai/get-review
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	var req reviewService.Request
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondJSON(w, http.StatusBadRequest, response{Message: "invalid request body"})
		return
	}

	review, err := h.reviewSvc.Review(r.Context(), req)
	if err != nil {
		var aiErr *ai.Error
		switch {
		case errors.Is(err, reviewService.ErrInvalidCode), errors.Is(err, reviewService.ErrInvalidLanguages):
			utils.RespondJSON(w, http.StatusBadRequest, response{Message: err.Error()})
		case errors.As(err, &aiErr):
			h.logger.Warn("review failed", "kind", aiErr.Kind, "error", aiErr.Err)
			utils.RespondJSON(w, http.StatusBadGateway, response{
				Message: "Failed to generate code review",
				Error:   aiErr.UserMessage(),
			})
		default:
			h.logger.Error("review failed", "error", err)
			utils.RespondJSON(w, http.StatusInternalServerError, response{Message: "internal error"})
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, response{
		Success:  true,
		Message:  "Code review completed successfully",
		Response: review,
	})
}
