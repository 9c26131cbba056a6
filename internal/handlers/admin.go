package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dreamcanvas-app/dreamcanvas/internal/admin"
	"github.com/dreamcanvas-app/dreamcanvas/internal/settings"
)

// AdminResult is the uniform response of every password-gated operation.
type AdminResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type toggleRequest struct {
	Password string `json:"password"`
	Enabled  bool   `json:"enabled"`
}

type limitsRequest struct {
	Password   string `json:"password"`
	LimitCount int    `json:"limitCount"`
	LimitHours int    `json:"limitHours"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

// HandleAdminStatus reports the effective settings; it is not gated since it
// reveals nothing the UI does not already show.
func (h *Handler) HandleAdminStatus(w http.ResponseWriter, r *http.Request) {
	st, _ := h.stores(w, r)
	writeJSON(w, http.StatusOK, st.Get())
}

func (h *Handler) HandleToggleGeneration(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AdminResult{Success: false, Message: "Invalid request body"})
		return
	}

	st, _ := h.stores(w, r)
	if err := st.Update(req.Password, settings.Partial{Enabled: &req.Enabled}); err != nil {
		h.writeAdminError(w, err)
		return
	}

	message := "Image generation enabled"
	if !req.Enabled {
		message = "Image generation disabled"
	}
	writeJSON(w, http.StatusOK, AdminResult{Success: true, Message: message})
}

func (h *Handler) HandleUpdateLimits(w http.ResponseWriter, r *http.Request) {
	var req limitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AdminResult{Success: false, Message: "Invalid request body"})
		return
	}

	// The settings store takes whatever it is given; range checks happen here.
	if req.LimitCount < 1 || req.LimitHours < 1 {
		writeJSON(w, http.StatusBadRequest, AdminResult{Success: false, Message: "Limit values must be at least 1"})
		return
	}

	st, _ := h.stores(w, r)
	err := st.Update(req.Password, settings.Partial{
		LimitCount: &req.LimitCount,
		LimitHours: &req.LimitHours,
	})
	if err != nil {
		h.writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AdminResult{Success: true, Message: "Generation limits updated"})
}

func (h *Handler) HandleResetUserLimit(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AdminResult{Success: false, Message: "Invalid request body"})
		return
	}

	_, tracker := h.stores(w, r)
	if err := tracker.ResetUser(req.Password); err != nil {
		h.writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AdminResult{Success: true, Message: "User generation limit reset"})
}

// HandleResetAllLimits stamps the global reset signal and broadcasts a
// limits-reset event. The broadcast is best-effort; its failure never turns
// a successful reset into an error response.
func (h *Handler) HandleResetAllLimits(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusInternalServerError, AdminResult{Success: false, Message: "Internal server error"})
		return
	}

	_, tracker := h.stores(w, r)
	if _, err := tracker.TriggerGlobalReset(req.Password); err != nil {
		if errors.Is(err, admin.ErrInvalidPassword) {
			writeJSON(w, http.StatusUnauthorized, AdminResult{Success: false, Message: "Invalid password"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, AdminResult{Success: false, Message: "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, AdminResult{
		Success: true,
		Message: "Limits reset for all users in real time.",
	})
}

func (h *Handler) writeAdminError(w http.ResponseWriter, err error) {
	if errors.Is(err, admin.ErrInvalidPassword) {
		writeJSON(w, http.StatusUnauthorized, AdminResult{Success: false, Message: "Invalid password"})
		return
	}
	h.log.WithError(err).Error("Admin operation failed")
	writeJSON(w, http.StatusInternalServerError, AdminResult{Success: false, Message: "Internal server error"})
}
