package tasks

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"picture-analysis/internal/shared/server/middleware"
	"picture-analysis/internal/shared/server/respond"
)

// Handler exposes task enqueueing over HTTP.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches task routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/tasks/edge-detect", h.single(TaskEdgeDetect))
	rg.POST("/tasks/scale", h.single(TaskScaleImage))
	rg.POST("/tasks/distort", h.single(TaskDistortImage))
	rg.POST("/tasks/chain", h.chain)
}

func (h *Handler) single(task string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var raw json.RawMessage
		if err := c.ShouldBindJSON(&raw); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "request body must be a JSON object", nil)
			return
		}
		h.enqueue(c, []RawStep{{Task: task, Args: raw}})
	}
}

type chainRequest struct {
	Steps []RawStep `json:"steps" binding:"required,min=1"`
}

func (h *Handler) chain(c *gin.Context) {
	var req chainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "steps are required", nil)
		return
	}
	h.enqueue(c, req.Steps)
}

func (h *Handler) enqueue(c *gin.Context, steps []RawStep) {
	out, err := h.Svc.EnqueueChain(c.Request.Context(), middleware.RequestIDFromContext(c), steps)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidArgs), errors.Is(err, ErrUnknownTask):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to enqueue task", nil)
		}
		return
	}
	respond.Accepted(c, out)
}
