package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/omara/internal/imaging"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/store"
)

// ImagesHandler handles listing photo upload and retrieval.
type ImagesHandler struct {
	DB        *sql.DB
	Processor *imaging.Processor
}

// Upload handles PUT /api/images.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+(64<<10))
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := h.Processor.Process(file)
	if errors.Is(err, imaging.ErrUnsupportedFormat) {
		jsonError(w, http.StatusBadRequest, "image must be JPEG or PNG")
		return
	}
	if err != nil {
		slog.Warn("image processing failed", "user", claims.Email, "error", err)
		jsonError(w, http.StatusBadRequest, "could not process image")
		return
	}

	img, err := store.CreateImage(r.Context(), h.DB, claims.UserID, photo.MIME, photo.Data)
	if err != nil {
		storeError(w, err, "failed to save image")
		return
	}

	slog.Info("image uploaded", "user", claims.Email, "image_id", img.ID, "size", img.Size)
	jsonResponse(w, http.StatusCreated, map[string]any{"id": img.ID, "url": model.ImageURL(img.ID)})
}

// Get handles GET /api/images/{id}.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "image")
	if !ok {
		return
	}

	data, mime, err := store.GetImage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "image not found")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.Write(data)
}
