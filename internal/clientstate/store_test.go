package clientstate

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(cookies map[string]string) (*CookieStore, *httptest.ResponseRecorder) {
	r := httptest.NewRequest("GET", "/", nil)
	for name, value := range cookies {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	w := httptest.NewRecorder()
	return NewCookieStore(w, r, false), w
}

func TestCookieStoreReadsRequestCookies(t *testing.T) {
	store, _ := newTestStore(map[string]string{"foo": "bar"})

	value, ok := store.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, "bar", value)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestCookieStoreSetWritesHeaderAndOverlay(t *testing.T) {
	store, w := newTestStore(nil)

	store.Set("foo", "bar", time.Hour)

	value, ok := store.Get("foo")
	require.True(t, ok, "same-request read must see the write")
	assert.Equal(t, "bar", value)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "foo", cookies[0].Name)
	assert.Equal(t, "bar", cookies[0].Value)
	assert.Equal(t, "/", cookies[0].Path)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}

func TestCookieStoreDeleteMasksRequestCookie(t *testing.T) {
	store, w := newTestStore(map[string]string{"foo": "bar"})

	store.Delete("foo")

	_, ok := store.Get("foo")
	assert.False(t, ok, "deleted cookie must be invisible in the same request")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestCookieStoreOverlayWinsOverRequestCookie(t *testing.T) {
	store, _ := newTestStore(map[string]string{"foo": "old"})

	store.Set("foo", "new", 0)

	value, ok := store.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, "new", value)
}

func TestMemoryStoreTTL(t *testing.T) {
	store := NewMemoryStore()
	base := time.Now()
	store.now = func() time.Time { return base }

	store.Set("foo", "bar", time.Minute)

	value, ok := store.Get("foo")
	require.True(t, ok)
	assert.Equal(t, "bar", value)

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, ok = store.Get("foo")
	assert.False(t, ok, "value must expire after its TTL")
}
