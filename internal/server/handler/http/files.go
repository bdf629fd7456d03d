package http

import (
	"errors"
	"net/http"

	"github.com/atinyakov/StudyNotes/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FileResolver maps upload-root relative paths to files on disk.
type FileResolver interface {
	Resolve(rel string) (string, error)
}

// FileHandler serves staged files and extracted images.
type FileHandler struct {
	Files FileResolver
	Log   *zap.Logger
}

// Image handles GET /{image_name} and GET /images/*. The requested path is
// looked up under the upload root.
func (h *FileHandler) Image(w http.ResponseWriter, r *http.Request) {
	rel := param(r, "image_name")
	if rel == "" {
		rel = param(r, "*")
	}

	path, err := h.Files.Resolve(rel)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}
	if err != nil {
		h.Log.Error("resolve image", zap.String("path", rel), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	http.ServeFile(w, r, path)
}

// static serves dir under /static/.
func static(r chi.Router, dir string) {
	fs := http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
	r.Get("/static/*", fs.ServeHTTP)
}
