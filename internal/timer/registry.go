// Package timer owns kitchen timer state. The Registry is the single writer
// of that state; the Supervisor drives it from a once-a-second tick and
// announces expiries.
package timer

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/souschef/internal/clock"
	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// entry is a timer plus the instant its remaining time was last settled.
type entry struct {
	timer  domain.Timer
	anchor time.Time
}

// Registry holds every timer. All methods are safe for concurrent use and
// hand out copies, never the stored timers.
type Registry struct {
	mu     sync.Mutex
	clock  clock.Clock
	log    *logger.Logger
	timers map[string]*entry
	order  []string // creation order
}

// NewRegistry creates an empty registry reading time from c.
func NewRegistry(c clock.Clock, log *logger.Logger) *Registry {
	if c == nil {
		c = clock.System{}
	}
	return &Registry{
		clock:  c,
		log:    log,
		timers: make(map[string]*entry),
	}
}

// Create starts a new running timer. An empty label becomes "kitchen".
func (r *Registry) Create(label string, seconds int) (*domain.Timer, error) {
	if seconds <= 0 {
		return nil, fmt.Errorf("creating timer %q for %ds: %w", label, seconds, domain.ErrInvalidDuration)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = domain.DefaultTimerLabel
	}

	now := r.clock.Now()
	d := time.Duration(seconds) * time.Second
	e := &entry{
		timer: domain.Timer{
			ID:        uuid.NewString(),
			Label:     label,
			Duration:  d,
			Remaining: d,
			Active:    true,
			CreatedAt: now,
		},
		anchor: now,
	}

	r.mu.Lock()
	r.timers[e.timer.ID] = e
	r.order = append(r.order, e.timer.ID)
	r.mu.Unlock()

	r.log.Debug("timer %s (%s) created for %s", e.timer.ID, label, d)
	cp := e.timer
	return &cp, nil
}

// Remove deletes a timer. It reports whether anything was removed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(id)
}

func (r *Registry) removeLocked(id string) bool {
	if _, ok := r.timers[id]; !ok {
		return false
	}
	delete(r.timers, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.log.Debug("timer %s removed", id)
	return true
}

// Toggle pauses a running timer or resumes a paused one. Expired timers are
// left untouched. Pausing charges the time run since the last settlement;
// resuming re-anchors at the current time, so only the paused interval goes
// uncharged. A timer that ran out before the pause stays running so the
// next Tick expires it exactly once.
func (r *Registry) Toggle(id string) (*domain.Timer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.timers[id]
	if !ok {
		return nil, fmt.Errorf("toggling timer %s: %w", id, domain.ErrNotFound)
	}
	if e.timer.Expired() {
		cp := e.timer
		return &cp, nil
	}

	now := r.clock.Now()
	if e.timer.Active {
		if elapsed := now.Sub(e.anchor); elapsed > 0 {
			e.timer.Remaining = max(e.timer.Remaining-elapsed, 0)
			e.anchor = now
		}
		if e.timer.Remaining == 0 {
			// Ran out before the pause; Tick announces it.
			cp := e.timer
			return &cp, nil
		}
	} else {
		e.anchor = now
	}
	e.timer.Active = !e.timer.Active
	r.log.Debug("timer %s toggled, active=%v, remaining=%s", id, e.timer.Active, e.timer.Remaining)

	cp := e.timer
	return &cp, nil
}

// Tick settles every active timer against now and returns one event for
// each timer that reached zero in this call, in creation order.
func (r *Registry) Tick(now time.Time) []domain.ExpiredEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []domain.ExpiredEvent
	for _, id := range r.order {
		e := r.timers[id]
		if !e.timer.Active {
			continue
		}

		elapsed := now.Sub(e.anchor)
		if elapsed < 0 || (elapsed == 0 && e.timer.Remaining > 0) {
			continue
		}
		e.anchor = now

		e.timer.Remaining -= elapsed
		if e.timer.Remaining > 0 {
			continue
		}

		e.timer.Remaining = 0
		e.timer.Active = false
		e.timer.ExpiredAt = now
		events = append(events, domain.ExpiredEvent{ID: id, Label: e.timer.Label})
		r.log.Debug("timer %s (%s) expired", id, e.timer.Label)
	}
	return events
}

// List returns copies of all timers in creation order.
func (r *Registry) List() []domain.Timer {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Timer, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.timers[id].timer)
	}
	return out
}

// Get returns a copy of one timer.
func (r *Registry) Get(id string) (*domain.Timer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.timers[id]
	if !ok {
		return nil, fmt.Errorf("timer %s: %w", id, domain.ErrNotFound)
	}
	cp := e.timer
	return &cp, nil
}

// ClearExpired removes every expired timer and returns how many went.
func (r *Registry) ClearExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []string
	for _, id := range r.order {
		if r.timers[id].timer.Expired() {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		r.removeLocked(id)
	}
	return len(expired)
}

// Len returns the number of timers, expired ones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
