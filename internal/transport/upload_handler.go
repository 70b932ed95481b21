package transport

import (
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"mylover-shop/internal/config"
	"mylover-shop/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadHandler stores product images on disk and returns the public URL
// they will be served from.
type UploadHandler struct {
	cfg    config.UploadConfig
	logger *zap.Logger
}

func NewUploadHandler(cfg config.UploadConfig, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{cfg: cfg, logger: logger}
}

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".avif": true,
}

// RegisterRoutes mounts the upload endpoint on the admin router.
func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.Post("/upload", h.Upload)
}

// Upload handles POST /admin/api/upload. The multipart field is named
// "file"; the stored name is a fresh UUID so uploads never collide.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	maxSize := int64(h.cfg.MaxSizeMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExtensions[ext] {
		middleware.RespondWithError(w, http.StatusBadRequest, "unsupported file type")
		return
	}

	if err := os.MkdirAll(h.cfg.Dir, 0o755); err != nil {
		h.logger.Error("Failed to create upload directory", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(h.cfg.Dir, name))
	if err != nil {
		h.logger.Error("Failed to create upload file", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		h.logger.Error("Failed to write upload file", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	url := path.Join(h.cfg.PublicPath, name)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"url": url})
}
