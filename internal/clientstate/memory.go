package clientstate

import (
	"sync"
	"time"
)

// MemoryStore is a Store backed by an in-process map. It exists for tests and
// for deployments that front the service with their own session layer; TTLs
// are honored lazily on read.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string]string
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:  make(map[string]string),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[name]
	if !ok {
		return "", false
	}
	if deadline, has := s.expires[name]; has && s.now().After(deadline) {
		delete(s.values, name)
		delete(s.expires, name)
		return "", false
	}
	return value, true
}

func (s *MemoryStore) Set(name, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	if ttl > 0 {
		s.expires[name] = s.now().Add(ttl)
	} else {
		delete(s.expires, name)
	}
}

func (s *MemoryStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
	delete(s.expires, name)
}
