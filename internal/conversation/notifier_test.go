package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hammamikhairi/souschef/internal/logger"
)

type failingNotifier struct{ err error }

func (f failingNotifier) Notify(context.Context, string) error       { return f.err }
func (f failingNotifier) NotifyUrgent(context.Context, string) error { return f.err }

func TestCLINotifierFormats(t *testing.T) {
	var lines []string
	n := NewCLINotifier(logger.New(logger.LevelOff, nil), func(format string, a ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, a...))
	})

	n.Notify(context.Background(), "hello")
	n.NotifyUrgent(context.Background(), "pasta timer is done.")

	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], cyan) || !strings.Contains(lines[0], "hello") {
		t.Errorf("normal line %q", lines[0])
	}
	if !strings.Contains(lines[1], red) || !strings.Contains(lines[1], "pasta timer is done.") {
		t.Errorf("urgent line %q", lines[1])
	}
}

func TestMultiNotifierContinuesPastFailure(t *testing.T) {
	var got []string
	printer := NewCLINotifier(logger.New(logger.LevelOff, nil), func(format string, a ...interface{}) {
		got = append(got, fmt.Sprintf(format, a...))
	})
	boom := errors.New("boom")
	m := MultiNotifier{failingNotifier{boom}, printer}

	err := m.Notify(context.Background(), "step two")
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if len(got) != 1 {
		t.Errorf("second notifier saw %d messages, want 1", len(got))
	}
	if err := (MultiNotifier{printer}).NotifyUrgent(context.Background(), "x"); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}
