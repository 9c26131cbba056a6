package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/dreamcanvas-app/dreamcanvas/internal/config"
	"github.com/dreamcanvas-app/dreamcanvas/internal/models"
	"github.com/dreamcanvas-app/dreamcanvas/internal/notify"
	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStorage struct {
	objects map[string]fakeObject
	gets    []string
}

type fakeObject struct {
	content     []byte
	contentType string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]fakeObject{}}
}

func (s *fakeStorage) Get(ctx context.Context, key string) ([]byte, string, error) {
	s.gets = append(s.gets, key)
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("no such key: %s", key)
	}
	return obj.content, obj.contentType, nil
}

func (s *fakeStorage) Put(ctx context.Context, key string, content []byte, contentType string, ttl time.Duration) error {
	s.objects[key] = fakeObject{content: content, contentType: contentType}
	return nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func setupGalleryDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:gallery_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.GeneratedImage{}, &models.ArchiveEntry{}))
	return db
}

func newGalleryEnv(t *testing.T, db *gorm.DB, store *fakeStorage) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Env:               "development",
		AdminPassword:     testPassword,
		ImageSize:         "1024x1024",
		DefaultLimitCount: 1,
		DefaultLimitHours: 24,
		RateLimit:         1000,
		RateLimitWindow:   time.Minute,
	}

	provider := &fakeProvider{configured: true}
	hub := notify.NewHub(logger)
	t.Cleanup(hub.Close)

	handler := NewHandler(logger, cfg, provider, hub, db, store, nil)
	router := mux.NewRouter()
	RegisterRoutes(router, handler, hub, cfg)

	return &testEnv{router: router, provider: provider, hub: hub}
}

func TestGalleryListsPersistedGenerations(t *testing.T) {
	db := setupGalleryDB(t)
	env := newGalleryEnv(t, db, newFakeStorage())

	require.NoError(t, db.Create(&models.GeneratedImage{
		CreatedAt:     time.Now(),
		PromptPreview: "a red fox in sn...",
		PromptLength:  17,
		URL:           "https://images.example.com/generated/1.png",
		Size:          "1024x1024",
	}).Error)

	w := env.do("GET", "/api/gallery", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Images []galleryImage `json:"images"`
	}
	decodeBody(t, w, &body)
	require.Len(t, body.Images, 1)
	assert.Equal(t, "a red fox in sn...", body.Images[0].PromptPreview)
}

func TestGalleryImageServesArchivedBytes(t *testing.T) {
	db := setupGalleryDB(t)
	store := newFakeStorage()
	env := newGalleryEnv(t, db, store)

	row := models.GeneratedImage{
		CreatedAt:  time.Now(),
		URL:        "https://images.example.com/generated/1.png",
		Size:       "1024x1024",
		ArchiveKey: "images/1",
	}
	require.NoError(t, db.Create(&row).Error)
	require.NoError(t, store.Put(context.Background(), "images/1", []byte("png-bytes"), "image/png", time.Hour))

	w := env.do("GET", fmt.Sprintf("/api/gallery/%d/image", row.ID), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", w.Body.String())
	assert.Equal(t, []string{"images/1"}, store.gets)
}

func TestGalleryImageUnknownID(t *testing.T) {
	db := setupGalleryDB(t)
	env := newGalleryEnv(t, db, newFakeStorage())

	w := env.do("GET", "/api/gallery/999/image", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGalleryImageNotYetMirrored(t *testing.T) {
	db := setupGalleryDB(t)
	store := newFakeStorage()
	env := newGalleryEnv(t, db, store)

	row := models.GeneratedImage{
		CreatedAt: time.Now(),
		URL:       "https://images.example.com/generated/1.png",
		Size:      "1024x1024",
	}
	require.NoError(t, db.Create(&row).Error)

	w := env.do("GET", fmt.Sprintf("/api/gallery/%d/image", row.ID), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, store.gets, "a row without an archive key must not hit the object store")
}

func TestGalleryImageMissingFromStore(t *testing.T) {
	db := setupGalleryDB(t)
	env := newGalleryEnv(t, db, newFakeStorage())

	row := models.GeneratedImage{
		CreatedAt:  time.Now(),
		URL:        "https://images.example.com/generated/1.png",
		Size:       "1024x1024",
		ArchiveKey: "images/expired",
	}
	require.NoError(t, db.Create(&row).Error)

	w := env.do("GET", fmt.Sprintf("/api/gallery/%d/image", row.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGalleryImageBadID(t *testing.T) {
	db := setupGalleryDB(t)
	env := newGalleryEnv(t, db, newFakeStorage())

	w := env.do("GET", "/api/gallery/not-a-number/image", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGalleryImageWithoutArchiveBackend(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/api/gallery/1/image", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
