package pictures

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"picture-analysis/internal/shared/server/middleware"
	"picture-analysis/internal/shared/server/respond"
)

const maxListLimit = 200

// Handler wires HTTP handlers to the picture service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches picture routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/pictures", h.register)
	rg.GET("/pictures", h.list)
	rg.GET("/pictures/:id", h.get)
	rg.GET("/pictures/:id/brightness", h.brightness)
}

func (h *Handler) register(c *gin.Context) {
	var in RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "uri is required", nil)
		return
	}
	pic, err := h.Svc.Register(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyExists):
			respond.Error(c, http.StatusConflict, "conflict", "picture already exists", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to register picture", nil)
		}
		return
	}
	c.Set(middleware.PictureIDKey, pic.ID)
	respond.Created(c, pic)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.PictureIDKey, id)
	pic, err := h.Svc.Repo.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "picture not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch picture", nil)
		}
		return
	}
	respond.OK(c, pic)
}

func (h *Handler) list(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	items, err := h.Svc.Repo.Search(c.Request.Context(), Filter{
		SourceImageID: c.Query("source_image_id"),
		GroupID:       c.Query("group_id"),
		SnapID:        c.Query("snap_id"),
		AnalysisType:  c.Query("analysis_type"),
		Limit:         limit,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list pictures", nil)
		return
	}
	respond.OK(c, gin.H{"items": items, "count": len(items)})
}

func (h *Handler) brightness(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.PictureIDKey, id)

	var threshold *float64
	if v := c.Query("threshold"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "threshold must be a number", nil)
			return
		}
		threshold = &parsed
	}

	out, err := h.Svc.Brightness(c.Request.Context(), id, threshold)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "picture not found", nil)
		default:
			respond.Error(c, http.StatusUnprocessableEntity, "unreadable_image", "failed to measure picture", nil)
		}
		return
	}
	respond.OK(c, out)
}
