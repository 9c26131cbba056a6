package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dreamcanvas-app/dreamcanvas/internal/models"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

const galleryPageSize = 50

type galleryImage struct {
	ID            uint      `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	PromptPreview string    `json:"promptPreview"`
	URL           string    `json:"url"`
	ArchiveKey    string    `json:"archiveKey,omitempty"`
	Size          string    `json:"size"`
}

// HandleGallery lists the most recent generations. Without a database the
// gallery is simply empty.
func (h *Handler) HandleGallery(w http.ResponseWriter, r *http.Request) {
	images := []galleryImage{}

	if h.db != nil {
		var rows []models.GeneratedImage
		if err := h.db.WithContext(r.Context()).
			Order("created_at DESC").
			Limit(galleryPageSize).
			Find(&rows).Error; err != nil {
			h.log.WithError(err).Error("Gallery query failed")
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"error":   "Failed to load gallery",
			})
			return
		}
		for _, row := range rows {
			images = append(images, galleryImage{
				ID:            row.ID,
				CreatedAt:     row.CreatedAt,
				PromptPreview: row.PromptPreview,
				URL:           row.URL,
				ArchiveKey:    row.ArchiveKey,
				Size:          row.Size,
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"images": images})
}

// HandleGalleryImage serves the archived bytes for one gallery entry. The
// provider URL in the row expires shortly after generation; this is the
// durable copy. 404 covers every miss: unknown id, a row not yet mirrored,
// archiving disabled, or an expired archive entry.
func (h *Handler) HandleGalleryImage(w http.ResponseWriter, r *http.Request) {
	if h.db == nil || h.store == nil {
		http.NotFound(w, r)
		return
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid image id", http.StatusBadRequest)
		return
	}

	var row models.GeneratedImage
	if err := h.db.WithContext(r.Context()).First(&row, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.log.WithError(err).Error("Gallery image lookup failed")
		}
		http.NotFound(w, r)
		return
	}
	if row.ArchiveKey == "" {
		http.NotFound(w, r)
		return
	}

	content, contentType, err := h.store.Get(r.Context(), row.ArchiveKey)
	if err != nil {
		h.log.WithError(err).WithField("key", row.ArchiveKey).Warn("Archived image fetch failed")
		http.NotFound(w, r)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(content)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(content)
}
