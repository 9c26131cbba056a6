package handlers

import (
	"github.com/dreamcanvas-app/dreamcanvas/internal/config"
	"github.com/dreamcanvas-app/dreamcanvas/internal/notify"
	"github.com/gorilla/mux"
)

func RegisterRoutes(r *mux.Router, h *Handler, hub *notify.Hub, cfg *config.Config) {
	r.HandleFunc("/healthz", HandleHealthz).Methods("GET")
	r.HandleFunc("/ws", hub.HandleWS).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(SecurityHeadersMiddleware)
	api.Use(RateLimitMiddleware(cfg))

	api.HandleFunc("/generate", h.HandleGenerate).Methods("POST")
	api.HandleFunc("/limit", h.HandleCheckLimit).Methods("GET")
	api.HandleFunc("/status", h.HandleAPIStatus).Methods("GET")
	api.HandleFunc("/gallery", h.HandleGallery).Methods("GET")
	api.HandleFunc("/gallery/{id}/image", h.HandleGalleryImage).Methods("GET")

	adminAPI := api.PathPrefix("/admin").Subrouter()
	adminAPI.HandleFunc("/status", h.HandleAdminStatus).Methods("GET")
	adminAPI.HandleFunc("/toggle", h.HandleToggleGeneration).Methods("POST")
	adminAPI.HandleFunc("/limits", h.HandleUpdateLimits).Methods("POST")
	adminAPI.HandleFunc("/reset-user", h.HandleResetUserLimit).Methods("POST")
	adminAPI.HandleFunc("/reset-all-limits", h.HandleResetAllLimits).Methods("POST")
}
