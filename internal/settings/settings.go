// Package settings persists the administrator-controlled generation settings
// in the visitor's client-held state. Absent values fall back to defaults, so
// a fresh visitor always sees generation enabled with a 1-per-24h limit.
package settings

import (
	"strconv"

	"github.com/dreamcanvas-app/dreamcanvas/internal/admin"
	"github.com/dreamcanvas-app/dreamcanvas/internal/clientstate"
	"github.com/sirupsen/logrus"
)

const (
	enabledCookie    = "generation_enabled"
	limitCountCookie = "generation_limit_count"
	limitHoursCookie = "generation_limit_hours"
)

type GenerationSettings struct {
	Enabled    bool `json:"enabled"`
	LimitCount int  `json:"limitCount"`
	LimitHours int  `json:"limitHours"`
}

// Partial carries the fields an admin chose to change; nil fields keep their
// current value.
type Partial struct {
	Enabled    *bool
	LimitCount *int
	LimitHours *int
}

type Store struct {
	state    clientstate.Store
	gate     *admin.Gate
	defaults GenerationSettings
	log      *logrus.Entry
}

func NewStore(logger *logrus.Logger, state clientstate.Store, gate *admin.Gate, defaults GenerationSettings) *Store {
	return &Store{
		state:    state,
		gate:     gate,
		defaults: defaults,
		log:      logger.WithField("component", "settings_store"),
	}
}

// Get returns the current settings, falling back to defaults for any value
// that is absent or unparseable. It never fails.
func (s *Store) Get() GenerationSettings {
	out := s.defaults

	if raw, ok := s.state.Get(enabledCookie); ok {
		out.Enabled = raw == "true"
	}
	if raw, ok := s.state.Get(limitCountCookie); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			out.LimitCount = n
		}
	}
	if raw, ok := s.state.Get(limitHoursCookie); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			out.LimitHours = n
		}
	}
	return out
}

// Update merges the supplied fields over the current settings. Only the
// fields present in the partial are persisted; the rest keep their stored
// value. Numeric ranges are the caller's obligation to validate, the store
// writes whatever it is given.
func (s *Store) Update(secret string, p Partial) error {
	if !s.gate.Authorize(secret) {
		s.log.Warn("Settings update rejected: bad admin password")
		return admin.ErrInvalidPassword
	}

	if p.Enabled != nil {
		s.state.Set(enabledCookie, strconv.FormatBool(*p.Enabled), 0)
	}
	if p.LimitCount != nil {
		s.state.Set(limitCountCookie, strconv.Itoa(*p.LimitCount), 0)
	}
	if p.LimitHours != nil {
		s.state.Set(limitHoursCookie, strconv.Itoa(*p.LimitHours), 0)
	}

	s.log.WithFields(logrus.Fields{
		"enabled_changed":     p.Enabled != nil,
		"limit_count_changed": p.LimitCount != nil,
		"limit_hours_changed": p.LimitHours != nil,
	}).Info("Generation settings updated")
	return nil
}
