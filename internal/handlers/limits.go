package handlers

import (
	"net/http"
	"time"
)

// HandleCheckLimit reports the visitor's current eligibility. The read alone
// can clear a stale usage record when a newer global reset is present.
func (h *Handler) HandleCheckLimit(w http.ResponseWriter, r *http.Request) {
	_, tracker := h.stores(w, r)
	writeJSON(w, http.StatusOK, tracker.Check())
}

// HandleAPIStatus reports whether the image provider is configured.
func (h *Handler) HandleAPIStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"configured": h.provider.Configured(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
