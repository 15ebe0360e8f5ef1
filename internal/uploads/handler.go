package uploads

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"picture-analysis/internal/imaging"
	"picture-analysis/internal/pictures"
	"picture-analysis/internal/shared/server/middleware"
	"picture-analysis/internal/shared/server/respond"
	"picture-analysis/internal/shared/telemetry"
	"picture-analysis/internal/shared/util"
)

const (
	maxUploadBytes   = 20 << 20
	defaultUploadDir = "uploads"
)

// Handler stores uploaded source images and registers them as pictures.
type Handler struct {
	Pictures *pictures.Service
	Dir      string
	MaxBytes int64
	NewID    func() string
}

// NewHandler stores uploads under pictureDir/uploads.
func NewHandler(svc *pictures.Service, pictureDir string) *Handler {
	return &Handler{
		Pictures: svc,
		Dir:      filepath.Join(pictureDir, defaultUploadDir),
		MaxBytes: maxUploadBytes,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/uploads", h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	limit := h.MaxBytes
	if limit <= 0 {
		limit = maxUploadBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+(1<<20))

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "file exceeds limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fh.Size <= 0 || fh.Size > limit {
		respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "file exceeds limit", nil)
		return
	}

	sanitized, err := util.SanitizeFileName(fh.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		return
	}
	if !imaging.SupportedFile(sanitized) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file type is not allowed", gin.H{"extension": filepath.Ext(sanitized)})
		return
	}

	id := strings.TrimSpace(c.PostForm("id"))
	if id == "" {
		id = h.newID()
	}
	if _, err := util.SanitizeFileName(id); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid id", nil)
		return
	}
	c.Set(middleware.PictureIDKey, id)

	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		telemetry.Error("uploads.mkdir.failed", map[string]any{"dir": h.Dir, "error": err.Error()})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store upload", nil)
		return
	}
	dst := filepath.Join(h.Dir, id+"-"+sanitized)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		telemetry.Error("uploads.save.failed", map[string]any{"path": dst, "error": err.Error()})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store upload", nil)
		return
	}

	pic, err := h.Pictures.Register(c.Request.Context(), pictures.RegisterInput{
		ID:       id,
		GroupID:  strings.TrimSpace(c.PostForm("groupId")),
		SnapID:   strings.TrimSpace(c.PostForm("snapId")),
		URI:      dst,
		Filename: sanitized,
	})
	if err != nil {
		_ = os.Remove(dst)
		if errors.Is(err, pictures.ErrAlreadyExists) {
			respond.Error(c, http.StatusConflict, "conflict", "picture already exists", nil)
			return
		}
		telemetry.Error("uploads.register.failed", map[string]any{"picture_id": id, "error": err.Error()})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to register picture", nil)
		return
	}

	telemetry.Info("uploads.stored", map[string]any{"picture_id": pic.ID, "bytes": fh.Size, "path": dst})
	respond.Created(c, pic)
}

func (h *Handler) newID() string {
	if h.NewID == nil {
		return uuid.NewString()
	}
	return h.NewID()
}
