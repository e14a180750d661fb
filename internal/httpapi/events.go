package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/hammamikhairi/souschef/internal/clock"
	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

var _ domain.Notifier = (*Broker)(nil)

// Event kinds sent on the narration feed.
const (
	EventNarration = "narration"
	EventAlert     = "alert"
)

// DefaultEventBuffer is the per-subscriber backlog.
const DefaultEventBuffer = 16

// Event is one line for the browser to speak.
type Event struct {
	Kind string    `json:"kind"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Broker fans notifier messages out to every open event stream. A
// subscriber that falls behind loses narration instead of stalling the
// engine. Alerts push out queued narration to make room, so they are only
// lost when a subscriber's whole backlog is alerts.
type Broker struct {
	buffer int
	clock  clock.Clock
	log    *logger.Logger

	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewBroker creates a broker with the given per-subscriber buffer.
func NewBroker(buffer int, c clock.Clock, log *logger.Logger) *Broker {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	if c == nil {
		c = clock.System{}
	}
	return &Broker{buffer: buffer, clock: c, log: log, subs: make(map[int]chan Event)}
}

// Subscribe opens a feed. cancel closes it and is safe to call twice.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of open feeds.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Notify publishes a narration event.
func (b *Broker) Notify(_ context.Context, message string) error {
	b.publish(EventNarration, message)
	return nil
}

// NotifyUrgent publishes an alert event.
func (b *Broker) NotifyUrgent(_ context.Context, message string) error {
	b.publish(EventAlert, message)
	return nil
}

func (b *Broker) publish(kind, text string) {
	ev := Event{Kind: kind, Text: text, At: b.clock.Now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			if kind == EventAlert {
				b.forceAlert(id, ch, ev)
				continue
			}
			b.log.Warn("event subscriber %d is behind, dropped %s", id, kind)
		}
	}
}

// forceAlert discards the oldest queued narration to fit ev. Queued alerts
// are put back ahead of it. publish is the only sender and holds b.mu, so
// the re-sends cannot block.
func (b *Broker) forceAlert(id int, ch chan Event, ev Event) {
	var kept []Event
	freed := false
	for !freed && len(kept) < cap(ch) {
		select {
		case old := <-ch:
			if old.Kind == EventAlert {
				kept = append(kept, old)
				continue
			}
			freed = true
			b.log.Warn("event subscriber %d is behind, dropped narration for an alert", id)
		default:
			freed = true
		}
	}
	for _, k := range kept {
		ch <- k
	}
	if !freed {
		b.log.Error("event subscriber %d backlog is all alerts, dropped %q", id, ev.Text)
		return
	}
	ch <- ev
}
