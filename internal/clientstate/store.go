// Package clientstate holds visitor-scoped state in client-held storage.
// There is no server-side database for this data: every value lives in a
// cookie on the visitor's own browser and is re-read on each request.
package clientstate

import (
	"net/http"
	"time"
)

// Store is a minimal key/value view over a single visitor's persisted state.
type Store interface {
	Get(name string) (string, bool)
	Set(name, value string, ttl time.Duration)
	Delete(name string)
}

// CookieStore reads values from the request's cookies and writes them as
// Set-Cookie headers on the response. Writes are layered over the request
// cookies so a read after a same-request write observes the new value.
type CookieStore struct {
	w       http.ResponseWriter
	r       *http.Request
	secure  bool
	overlay map[string]*string // nil value marks a same-request delete
}

func NewCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *CookieStore {
	return &CookieStore{
		w:       w,
		r:       r,
		secure:  secure,
		overlay: make(map[string]*string),
	}
}

func (s *CookieStore) Get(name string) (string, bool) {
	if value, ok := s.overlay[name]; ok {
		if value == nil {
			return "", false
		}
		return *value, true
	}
	cookie, err := s.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

// Set writes the value with the given lifetime. A zero ttl means no Expires
// attribute: the cookie outlives the session until the browser drops it.
func (s *CookieStore) Set(name, value string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	}
	if ttl > 0 {
		cookie.Expires = time.Now().Add(ttl)
		cookie.MaxAge = int(ttl / time.Second)
	}
	http.SetCookie(s.w, cookie)
	s.overlay[name] = &value
}

func (s *CookieStore) Delete(name string) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	s.overlay[name] = nil
}
