// Package archive mirrors generated images into the object store and prunes
// aged rows. Provider URLs stop working shortly after generation, so the
// mirror is the only durable copy; it is still strictly best-effort and a
// failed mirror never affects the generation that produced it.
package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dreamcanvas-app/dreamcanvas/internal/config"
	"github.com/dreamcanvas-app/dreamcanvas/internal/models"
	"github.com/dreamcanvas-app/dreamcanvas/internal/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	queueSize     = 64
	maxImageBytes = 10 << 20
	purgeInterval = 30 * time.Minute
)

type Archiver struct {
	logger     *logrus.Logger
	db         *gorm.DB
	storage    storage.Storage
	cfg        *config.Config
	httpClient *http.Client
	queue      chan models.GeneratedImage
}

func NewArchiver(logger *logrus.Logger, db *gorm.DB, store storage.Storage, cfg *config.Config) *Archiver {
	return &Archiver{
		logger:     logger,
		db:         db,
		storage:    store,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		queue:      make(chan models.GeneratedImage, queueSize),
	}
}

// Enqueue schedules a generated image for mirroring. If the queue is full the
// image is skipped; its database row stays without an archive key.
func (a *Archiver) Enqueue(img models.GeneratedImage) {
	select {
	case a.queue <- img:
	default:
		a.logger.WithFields(logrus.Fields{
			"component": "archiver",
			"image_id":  img.ID,
		}).Warn("Archive queue full, skipping image")
	}
}

func (a *Archiver) Start(ctx context.Context) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	logEntry := a.logger.WithField("component", "archiver")
	logEntry.Info("Starting archive worker")

	for {
		select {
		case img := <-a.queue:
			a.mirror(ctx, logEntry, img)
		case <-ticker.C:
			a.purge(ctx, logEntry)
		case <-ctx.Done():
			logEntry.Info("Stopping archive worker")
			return
		}
	}
}

func (a *Archiver) mirror(ctx context.Context, log *logrus.Entry, img models.GeneratedImage) {
	log = log.WithFields(logrus.Fields{
		"operation": "mirror",
		"image_id":  img.ID,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, img.URL, nil)
	if err != nil {
		log.WithError(err).Error("Failed to build image fetch request")
		return
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Error("Image fetch failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status_code", resp.StatusCode).Error("Image fetch returned non-OK status")
		return
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		log.WithError(err).Error("Failed to read image bytes")
		return
	}

	key := fmt.Sprintf("images/%d", img.ID)
	contentType := resp.Header.Get("Content-Type")
	if err := a.storage.Put(ctx, key, content, contentType, a.cfg.ArchiveTTL); err != nil {
		log.WithError(err).Error("Failed to store image in archive")
		return
	}

	if err := a.db.WithContext(ctx).Model(&models.GeneratedImage{}).
		Where("id = ?", img.ID).
		Update("archive_key", key).Error; err != nil {
		log.WithError(err).Error("Failed to record archive key")
		return
	}

	log.WithField("bytes", len(content)).Info("Image archived")
}

func (a *Archiver) purge(ctx context.Context, log *logrus.Entry) {
	log = log.WithField("operation", "purge")

	result := a.db.WithContext(ctx).
		Where("timestamp < ?", time.Now().Add(-a.cfg.AccessLogRetention)).
		Delete(&models.AccessLog{})
	if result.Error != nil {
		log.WithError(result.Error).Error("Access log purge failed")
	} else if result.RowsAffected > 0 {
		log.WithField("count", result.RowsAffected).Info("Purged old access logs")
	}

	var expired []models.ArchiveEntry
	if err := a.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Find(&expired).Error; err != nil {
		log.WithError(err).Error("Archive purge query failed")
		return
	}

	for _, entry := range expired {
		if err := a.storage.Delete(ctx, entry.Key); err != nil {
			log.WithFields(logrus.Fields{"key": entry.Key, "error": err}).Error("Failed to delete archived image")
		}
	}

	if len(expired) > 0 {
		log.WithField("count", len(expired)).Info("Processed expired archive entries")
	}
}
