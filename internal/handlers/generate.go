package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dreamcanvas-app/dreamcanvas/internal/models"
	"github.com/dreamcanvas-app/dreamcanvas/internal/security"
	"github.com/sirupsen/logrus"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResult is the discriminated outcome of one generation attempt. The
// endpoint always answers 200 with exactly one variant set; only transport
// and edge-limit failures use non-200 statuses.
type GenerateResult struct {
	Success            bool       `json:"success"`
	Images             []string   `json:"images,omitempty"`
	Error              string     `json:"error,omitempty"`
	RateLimited        bool       `json:"rateLimited,omitempty"`
	AdminDisabled      bool       `json:"adminDisabled,omitempty"`
	NextGenerationTime *time.Time `json:"nextGenerationTime,omitempty"`
	HoursRemaining     *int       `json:"hoursRemaining,omitempty"`
	MinutesRemaining   *int       `json:"minutesRemaining,omitempty"`
	SecondsRemaining   *int       `json:"secondsRemaining,omitempty"`
}

// HandleGenerate runs the full generation flow: admin switch, per-visitor
// limit, prompt validation, provider call, then the usage record. The record
// is written only after the provider succeeds, so a failed call never
// consumes the visitor's quota.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, GenerateResult{Success: false, Error: "Invalid request body"})
		return
	}

	st, tracker := h.stores(w, r)

	if !st.Get().Enabled {
		writeJSON(w, http.StatusOK, GenerateResult{
			Success:       false,
			Error:         "Image generation is currently disabled by the administrator.",
			AdminDisabled: true,
		})
		return
	}

	check := tracker.Check()
	if !check.CanGenerate {
		writeJSON(w, http.StatusOK, GenerateResult{
			Success:            false,
			Error:              "Rate limit exceeded. You can generate only one image per day.",
			RateLimited:        true,
			NextGenerationTime: check.NextGenerationTime,
			HoursRemaining:     check.HoursRemaining,
			MinutesRemaining:   check.MinutesRemaining,
			SecondsRemaining:   check.SecondsRemaining,
		})
		return
	}

	preview := security.PromptPreview(req.Prompt)
	security.LogEvent(h.logger, "image_generation_request", logrus.Fields{
		"prompt_length":  len(req.Prompt),
		"prompt_preview": preview,
	})

	if validation := security.ValidatePrompt(req.Prompt); !validation.Valid {
		security.LogEvent(h.logger, "prompt_validation_failed", logrus.Fields{
			"error":          validation.Error,
			"prompt_preview": preview,
		})
		writeJSON(w, http.StatusOK, GenerateResult{Success: false, Error: validation.Error})
		return
	}

	if !h.provider.Configured() {
		security.LogEvent(h.logger, "api_config_validation_failed", nil)
		writeJSON(w, http.StatusOK, GenerateResult{Success: false, Error: "Image provider API key is not configured"})
		return
	}

	images, err := h.provider.Generate(r.Context(), req.Prompt, h.cfg.ImageSize, 1)
	if err != nil {
		security.LogEvent(h.logger, "image_generation_error", logrus.Fields{"error": err.Error()})
		writeJSON(w, http.StatusOK, GenerateResult{Success: false, Error: err.Error()})
		return
	}

	tracker.Record()
	h.recordGallery(r, preview, len(req.Prompt), images)

	security.LogEvent(h.logger, "image_generation_success", logrus.Fields{"image_count": len(images)})
	writeJSON(w, http.StatusOK, GenerateResult{Success: true, Images: images})
}

// recordGallery persists the generation for the gallery and queues the S3
// mirror. Both are best-effort and never fail the response.
func (h *Handler) recordGallery(r *http.Request, preview string, promptLength int, images []string) {
	if h.db == nil || len(images) == 0 {
		return
	}

	row := models.GeneratedImage{
		CreatedAt:     time.Now(),
		PromptPreview: preview,
		PromptLength:  promptLength,
		URL:           images[0],
		Size:          h.cfg.ImageSize,
		ClientIP:      getClientIP(r),
	}
	if err := h.db.Create(&row).Error; err != nil {
		h.log.WithError(err).Warn("Failed to save gallery record")
		return
	}
	if h.archiver != nil {
		h.archiver.Enqueue(row)
	}
}
