package timer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithWatchInterval sets how often the watcher looks at the registry.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.interval = d
	}
}

// Watcher nags about expired timers nobody has dismissed. Expired timers
// stay in the registry until removed, so without a nudge a missed alarm
// would sit there silently. Runs on a slower cycle than the supervisor
// (default: 1 minute).
type Watcher struct {
	registry *Registry
	notifier domain.Notifier
	log      *logger.Logger
	interval time.Duration
}

// NewWatcher creates a watcher with the given dependencies.
func NewWatcher(registry *Registry, notifier domain.Notifier, log *logger.Logger, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		registry: registry,
		notifier: notifier,
		log:      log,
		interval: 1 * time.Minute,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the watcher loop. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("watcher started (interval=%s)", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

// check runs one watcher cycle.
func (w *Watcher) check(ctx context.Context) {
	msg := w.buildMessage(w.registry.List())
	if msg == "" {
		return
	}
	if err := w.notifier.Notify(ctx, msg); err != nil {
		w.log.Error("watcher: notify: %v", err)
	}
}

// buildMessage decides what to say, or "" when nothing needs attention.
func (w *Watcher) buildMessage(timers []domain.Timer) string {
	var running, expired []string
	for _, t := range timers {
		switch t.Status() {
		case domain.TimerExpired:
			expired = append(expired, t.Label)
		case domain.TimerRunning:
			running = append(running, fmt.Sprintf("%s (%s left)", t.Label, t.Remaining.Round(time.Second)))
		}
	}

	if len(running) > 0 {
		w.log.Debug("watcher: running timers: %s", strings.Join(running, ", "))
	}
	if len(expired) == 0 {
		return ""
	}

	verb := "is"
	if len(expired) > 1 {
		verb = "are"
	}
	return fmt.Sprintf("Heads up, %s %s done and waiting on you.", joinNames(expired), verb)
}

// joinNames joins names as spoken: "a", "a and b", "a, b and c".
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
