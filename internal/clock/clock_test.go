package clock

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

func TestFakeAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewFake(start)

	if got := c.Advance(90 * time.Second); !got.Equal(start.Add(90 * time.Second)) {
		t.Errorf("Advance returned %v", got)
	}
	if got := c.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Errorf("Now = %v", got)
	}

	c.Set(start)
	if !c.Now().Equal(start) {
		t.Errorf("Set did not pin the clock")
	}
}

func TestTickerDeliversTicks(t *testing.T) {
	var count atomic.Int32
	stop := NewTicker(5*time.Millisecond).Start(context.Background(), func(time.Time) {
		count.Add(1)
	})

	time.Sleep(60 * time.Millisecond)
	stop()
	after := count.Load()
	if after == 0 {
		t.Fatal("expected at least one tick")
	}

	time.Sleep(30 * time.Millisecond)
	if count.Load() != after {
		t.Error("ticks delivered after stop")
	}
}

func TestTickerStopIdempotent(t *testing.T) {
	stop := NewTicker(time.Millisecond).Start(context.Background(), func(time.Time) {})
	stop()
	stop()
}

func TestTickerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var count atomic.Int32
	stop := NewTicker(5*time.Millisecond).Start(ctx, func(time.Time) { count.Add(1) })
	defer stop()

	cancel()
	time.Sleep(20 * time.Millisecond)
	n := count.Load()
	time.Sleep(30 * time.Millisecond)
	if count.Load() != n {
		t.Error("ticks delivered after context cancel")
	}
}

func TestTickerRepeatedStartStopNoLeak(t *testing.T) {
	before := runtime.NumGoroutine()
	tk := NewTicker(time.Millisecond)
	for i := 0; i < 50; i++ {
		stop := tk.Start(context.Background(), func(time.Time) {})
		stop()
	}

	// Allow the scheduler to settle.
	time.Sleep(20 * time.Millisecond)
	if after := runtime.NumGoroutine(); after > before+2 {
		t.Errorf("goroutines grew from %d to %d", before, after)
	}
}

func TestNewTickerDefaultInterval(t *testing.T) {
	if got := NewTicker(0).Interval(); got != DefaultInterval {
		t.Errorf("Interval = %v, want %v", got, DefaultInterval)
	}
}
