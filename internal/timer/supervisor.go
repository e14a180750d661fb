package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hammamikhairi/souschef/internal/clock"
	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// Option configures the supervisor.
type Option func(*Supervisor)

// WithTickInterval sets how often the supervisor settles timers.
func WithTickInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		s.ticker = clock.NewTicker(d)
	}
}

// WithAlmostDoneThreshold enables a single "almost done" heads-up when a
// timer's remaining time drops under d. Zero disables it.
func WithAlmostDoneThreshold(d time.Duration) Option {
	return func(s *Supervisor) {
		s.almostDoneThreshold = d
	}
}

// WithWatcher runs a Watcher alongside the tick loop.
func WithWatcher(opts ...WatcherOption) Option {
	return func(s *Supervisor) {
		s.watcherOpts = opts
		s.watch = true
	}
}

// Supervisor runs in the background, advancing the registry on every tick
// and announcing expired timers.
type Supervisor struct {
	registry            *Registry
	notifier            domain.Notifier
	log                 *logger.Logger
	ticker              *clock.Ticker
	almostDoneThreshold time.Duration

	watch       bool
	watcherOpts []WatcherOption

	warned map[string]bool // only touched from the tick goroutine

	mu      sync.Mutex
	running bool
	stop    func()
	cancel  context.CancelFunc
}

// New creates a timer supervisor with the given dependencies and options.
func New(registry *Registry, notifier domain.Notifier, log *logger.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		registry: registry,
		notifier: notifier,
		log:      log,
		ticker:   clock.NewTicker(clock.DefaultInterval),
		warned:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the background tick loop. Non-blocking.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Warn("timer supervisor already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stop = s.ticker.Start(childCtx, func(now time.Time) {
		s.tick(childCtx, now)
	})
	s.running = true

	if s.watch {
		w := NewWatcher(s.registry, s.notifier, s.log, s.watcherOpts...)
		go w.Run(childCtx)
	}

	s.log.Info("timer supervisor started (tick=%s)", s.ticker.Interval())
}

// Stop shuts the loop down and waits for an in-flight tick to finish.
// Safe to call more than once.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.stop()
	s.running = false
	s.log.Info("timer supervisor stopped")
}

// Running reports whether the loop is active.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// tick runs one cycle: settle timers, fire notifications.
func (s *Supervisor) tick(ctx context.Context, now time.Time) {
	for _, ev := range s.registry.Tick(now) {
		delete(s.warned, ev.ID)
		if err := s.notifier.NotifyUrgent(ctx, ExpiredMessage(ev.Label)); err != nil {
			s.log.Error("supervisor: notifying expiry of %s: %v", ev.ID, err)
		}
	}

	if s.almostDoneThreshold <= 0 {
		return
	}
	for _, t := range s.registry.List() {
		if !t.Active || s.warned[t.ID] {
			continue
		}
		// Short timers would warn almost immediately.
		if t.Remaining > s.almostDoneThreshold || t.Duration <= s.almostDoneThreshold*2 {
			continue
		}
		s.warned[t.ID] = true
		msg := fmt.Sprintf("%s timer, %s left.", t.Label, formatRemaining(t.Remaining))
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.log.Error("supervisor: almost-done notify: %v", err)
		}
	}
}

// ExpiredMessage is the announcement for a finished timer.
func ExpiredMessage(label string) string {
	return fmt.Sprintf("%s timer is done.", label)
}

// formatRemaining returns a spoken duration for reminders.
// Rounds to the nearest minute once there's at least 1 minute left.
func formatRemaining(d time.Duration) string {
	totalSec := int(d.Round(time.Second).Seconds())
	if totalSec < 60 {
		if totalSec == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", totalSec)
	}
	m := (totalSec + 30) / 60
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
