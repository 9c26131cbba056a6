package handlers

import (
	"context"
	"net/http"

	"github.com/dreamcanvas-app/dreamcanvas/internal/admin"
	"github.com/dreamcanvas-app/dreamcanvas/internal/clientstate"
	"github.com/dreamcanvas-app/dreamcanvas/internal/config"
	"github.com/dreamcanvas-app/dreamcanvas/internal/models"
	"github.com/dreamcanvas-app/dreamcanvas/internal/notify"
	"github.com/dreamcanvas-app/dreamcanvas/internal/ratelimit"
	"github.com/dreamcanvas-app/dreamcanvas/internal/settings"
	"github.com/dreamcanvas-app/dreamcanvas/internal/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ImageGenerator is the provider boundary: one call, one batch of image URLs.
type ImageGenerator interface {
	Configured() bool
	Generate(ctx context.Context, prompt, size string, count int) ([]string, error)
}

// ImageArchiver schedules a best-effort mirror of a generated image.
type ImageArchiver interface {
	Enqueue(img models.GeneratedImage)
}

type Handler struct {
	cfg      *config.Config
	logger   *logrus.Logger
	log      *logrus.Entry
	provider ImageGenerator
	hub      *notify.Hub
	gate     *admin.Gate
	db       *gorm.DB        // nil when no database is configured
	store    storage.Storage // nil when archiving is disabled
	archiver ImageArchiver   // nil when archiving is disabled
}

func NewHandler(logger *logrus.Logger, cfg *config.Config, provider ImageGenerator, hub *notify.Hub, db *gorm.DB, store storage.Storage, archiver ImageArchiver) *Handler {
	return &Handler{
		cfg:      cfg,
		logger:   logger,
		log:      logger.WithField("component", "api_handler"),
		provider: provider,
		hub:      hub,
		gate:     admin.NewGate(cfg.AdminPassword),
		db:       db,
		store:    store,
		archiver: archiver,
	}
}

// stores builds the request-scoped view of the visitor's client-held state.
// All persisted reads and writes for this request flow through one cookie
// store so later reads observe earlier writes.
func (h *Handler) stores(w http.ResponseWriter, r *http.Request) (*settings.Store, *ratelimit.Tracker) {
	state := clientstate.NewCookieStore(w, r, h.cfg.Production())
	st := settings.NewStore(h.logger, state, h.gate, settings.GenerationSettings{
		Enabled:    true,
		LimitCount: h.cfg.DefaultLimitCount,
		LimitHours: h.cfg.DefaultLimitHours,
	})
	tracker := ratelimit.NewTracker(h.logger, state, st, h.gate, h.hub)
	return st, tracker
}
