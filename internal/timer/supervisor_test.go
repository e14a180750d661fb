package timer

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/souschef/internal/clock"
	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// mockNotifier collects notifications for testing.
type mockNotifier struct {
	mu       sync.Mutex
	messages []string
	urgent   []string
}

func (m *mockNotifier) Notify(_ context.Context, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockNotifier) NotifyUrgent(_ context.Context, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urgent = append(m.urgent, msg)
	return nil
}

func (m *mockNotifier) urgentMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urgent...)
}

func (m *mockNotifier) plainMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

func TestSupervisorAnnouncesExpiry(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	c := clock.NewFake(epoch)
	reg := NewRegistry(c, log)
	notifier := &mockNotifier{}
	sup := New(reg, notifier, log)
	ctx := context.Background()

	reg.Create("pasta", 3)
	for i := 0; i < 10; i++ {
		sup.tick(ctx, c.Advance(time.Second))
	}

	got := notifier.urgentMessages()
	if len(got) != 1 {
		t.Fatalf("got %d urgent notifications, want 1: %v", len(got), got)
	}
	if got[0] != "pasta timer is done." {
		t.Errorf("message = %q", got[0])
	}
}

func TestSupervisorAlmostDoneWarnsOnce(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	c := clock.NewFake(epoch)
	reg := NewRegistry(c, log)
	notifier := &mockNotifier{}
	sup := New(reg, notifier, log, WithAlmostDoneThreshold(10*time.Second))
	ctx := context.Background()

	reg.Create("roast", 60)
	reg.Create("quick", 15) // too short to warn
	for i := 0; i < 60; i++ {
		sup.tick(ctx, c.Advance(time.Second))
	}

	plain := notifier.plainMessages()
	if len(plain) != 1 {
		t.Fatalf("got %d heads-up messages, want 1: %v", len(plain), plain)
	}
	if !strings.HasPrefix(plain[0], "roast timer, ") {
		t.Errorf("unexpected heads-up %q", plain[0])
	}
	if n := len(notifier.urgentMessages()); n != 2 {
		t.Errorf("got %d expiries, want 2", n)
	}
}

func TestSupervisorLoopFires(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	reg := NewRegistry(clock.System{}, log)
	notifier := &mockNotifier{}
	sup := New(reg, notifier, log, WithTickInterval(20*time.Millisecond))

	reg.Create("egg", 1)
	sup.Start(context.Background())
	defer sup.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if len(notifier.urgentMessages()) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if got := notifier.urgentMessages(); len(got) != 1 {
		t.Fatalf("got %d urgent notifications, want 1", len(got))
	}
}

func TestSupervisorStartStop(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	sup := New(NewRegistry(nil, log), &mockNotifier{}, log, WithTickInterval(time.Millisecond))
	ctx := context.Background()

	sup.Start(ctx)
	sup.Start(ctx) // no-op
	if !sup.Running() {
		t.Fatal("expected running")
	}
	sup.Stop()
	sup.Stop()
	if sup.Running() {
		t.Fatal("expected stopped")
	}

	sup.Start(ctx)
	sup.Stop()
}

func TestWatcherMessage(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	w := NewWatcher(nil, nil, log)

	tests := []struct {
		name   string
		timers []domain.Timer
		want   string
	}{
		{"empty", nil, ""},
		{"running only", []domain.Timer{{Label: "rice", Remaining: time.Minute, Active: true}}, ""},
		{"one expired", []domain.Timer{{Label: "pasta"}}, "Heads up, pasta is done and waiting on you."},
		{
			"several expired",
			[]domain.Timer{{Label: "pasta"}, {Label: "eggs"}, {Label: "toast"}},
			"Heads up, pasta, eggs and toast are done and waiting on you.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.buildMessage(tt.timers); got != tt.want {
				t.Errorf("buildMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{time.Second, "1 second"},
		{45 * time.Second, "45 seconds"},
		{80 * time.Second, "1 minute"},
		{150 * time.Second, "3 minutes"},
	}
	for _, tt := range tests {
		if got := formatRemaining(tt.in); got != tt.want {
			t.Errorf("formatRemaining(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
