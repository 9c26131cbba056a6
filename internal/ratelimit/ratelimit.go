// Package ratelimit tracks each visitor's last generation and decides
// eligibility for the next one. The record lives in the visitor's client-held
// state; a global reset is a shared timestamp that any later eligibility read
// compares itself against and self-clears when the reset is newer.
package ratelimit

import (
	"strconv"
	"time"

	"github.com/dreamcanvas-app/dreamcanvas/internal/admin"
	"github.com/dreamcanvas-app/dreamcanvas/internal/clientstate"
	"github.com/dreamcanvas-app/dreamcanvas/internal/settings"
	"github.com/sirupsen/logrus"
)

const (
	lastGenerationCookie  = "last_image_generation"
	generationCountCookie = "image_generation_count"
	globalResetCookie     = "global_reset_timestamp"

	// EventLimitsReset is broadcast on the notification hub after a global
	// reset. Purely advisory: eligibility never depends on receiving it.
	EventLimitsReset = "limits-reset"

	globalResetTTL = 7 * 24 * time.Hour
)

// Check is the result of one eligibility read. The remaining-time fields are
// whole hours, then whole minutes of the remainder, then whole seconds of the
// remainder, floored at each step. They are pointers so a rate-limited answer
// serializes a component that floors to zero as an explicit 0 while an
// eligible answer omits all three.
type Check struct {
	CanGenerate        bool       `json:"canGenerate"`
	NextGenerationTime *time.Time `json:"nextGenerationTime,omitempty"`
	HoursRemaining     *int       `json:"hoursRemaining,omitempty"`
	MinutesRemaining   *int       `json:"minutesRemaining,omitempty"`
	SecondsRemaining   *int       `json:"secondsRemaining,omitempty"`
	GenerationsLeft    int        `json:"generationsLeft"`
	TotalGenerations   int        `json:"totalGenerations"`
}

// Publisher is the advisory notification channel. Publish failures are logged
// and swallowed, never propagated to the admin operation that triggered them.
type Publisher interface {
	Publish(event string, payload map[string]any) error
}

type Tracker struct {
	state    clientstate.Store
	settings *settings.Store
	gate     *admin.Gate
	notifier Publisher // may be nil
	log      *logrus.Entry
	now      func() time.Time
}

func NewTracker(logger *logrus.Logger, state clientstate.Store, st *settings.Store, gate *admin.Gate, notifier Publisher) *Tracker {
	return &Tracker{
		state:    state,
		settings: st,
		gate:     gate,
		notifier: notifier,
		log:      logger.WithField("component", "rate_limit"),
		now:      time.Now,
	}
}

// Check computes the visitor's current eligibility. A global reset newer than
// the visitor's last generation clears their record on the spot. The limit
// window always uses the current settings, so lowering limitHours applies
// retroactively to an existing record.
func (t *Tracker) Check() Check {
	now := t.now()
	cfg := t.settings.Get()

	if raw, ok := t.state.Get(globalResetCookie); ok {
		if resetMs, err := strconv.ParseInt(raw, 10, 64); err == nil {
			lastMs := int64(0)
			if lastRaw, has := t.state.Get(lastGenerationCookie); has {
				if last, errParse := time.Parse(time.RFC3339, lastRaw); errParse == nil {
					lastMs = last.UnixMilli()
				}
			}
			if resetMs > lastMs {
				t.state.Delete(lastGenerationCookie)
				t.state.Delete(generationCountCookie)
				t.log.WithField("reset_at_ms", resetMs).Info("Usage record cleared by global reset")
				return t.eligible(cfg)
			}
		}
	}

	lastRaw, ok := t.state.Get(lastGenerationCookie)
	if !ok {
		return t.eligible(cfg)
	}

	last, err := time.Parse(time.RFC3339, lastRaw)
	if err != nil {
		// An unreadable marker is treated as no marker.
		t.log.WithError(err).Warn("Discarding unparseable generation timestamp")
		t.state.Delete(lastGenerationCookie)
		return t.eligible(cfg)
	}

	limit := time.Duration(cfg.LimitHours) * time.Hour
	elapsed := now.Sub(last)
	if elapsed >= limit {
		return t.eligible(cfg)
	}

	next := last.Add(limit)
	remaining := limit - elapsed
	hours := int(remaining / time.Hour)
	minutes := int((remaining % time.Hour) / time.Minute)
	seconds := int((remaining % time.Minute) / time.Second)
	return Check{
		CanGenerate:        false,
		NextGenerationTime: &next,
		HoursRemaining:     &hours,
		MinutesRemaining:   &minutes,
		SecondsRemaining:   &seconds,
		GenerationsLeft:    0,
		TotalGenerations:   cfg.LimitCount,
	}
}

// Record marks a successful generation now. Both entries expire after the
// current limit window; a later change to limitHours does not stretch or
// shrink an already-written cookie's lifetime, only the comparison in Check.
func (t *Tracker) Record() {
	now := t.now()
	cfg := t.settings.Get()
	ttl := time.Duration(cfg.LimitHours) * time.Hour

	t.state.Set(lastGenerationCookie, now.UTC().Format(time.RFC3339), ttl)

	count := 0
	if raw, ok := t.state.Get(generationCountCookie); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			count = n
		}
	}
	t.state.Set(generationCountCookie, strconv.Itoa(count+1), ttl)

	t.log.WithField("count", count+1).Info("Generation recorded")
}

// ResetUser clears the calling visitor's own usage record.
func (t *Tracker) ResetUser(secret string) error {
	if !t.gate.Authorize(secret) {
		t.log.Warn("User limit reset rejected: bad admin password")
		return admin.ErrInvalidPassword
	}
	t.state.Delete(lastGenerationCookie)
	t.state.Delete(generationCountCookie)
	t.log.Info("User generation limit reset")
	return nil
}

// TriggerGlobalReset stamps the shared reset signal with the current time and
// broadcasts a limits-reset event to connected clients. The broadcast is
// best-effort: a publish failure is logged and the reset still succeeds.
func (t *Tracker) TriggerGlobalReset(secret string) (time.Time, error) {
	if !t.gate.Authorize(secret) {
		t.log.Warn("Global reset rejected: bad admin password")
		return time.Time{}, admin.ErrInvalidPassword
	}

	resetAt := t.now()
	stamp := strconv.FormatInt(resetAt.UnixMilli(), 10)
	t.state.Set(globalResetCookie, stamp, globalResetTTL)
	t.log.WithField("reset_at_ms", stamp).Info("Global generation reset triggered")

	if t.notifier != nil {
		if err := t.notifier.Publish(EventLimitsReset, map[string]any{"timestamp": stamp}); err != nil {
			t.log.WithError(err).Warn("Failed to broadcast limits-reset event")
		}
	}
	return resetAt, nil
}

func (t *Tracker) eligible(cfg settings.GenerationSettings) Check {
	return Check{
		CanGenerate:      true,
		GenerationsLeft:  cfg.LimitCount,
		TotalGenerations: cfg.LimitCount,
	}
}
