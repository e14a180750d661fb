package speech

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

var _ domain.Notifier = (*SpeakingNotifier)(nil)

// Speaker is the part of the Narrator the notifier needs.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Say(text string, priority Priority)
}

// SpeakingNotifier prints through an inner notifier and speaks the same
// message. Regular messages interrupt current narration; urgent ones
// queue at PriorityHigh so they survive later interruptions.
type SpeakingNotifier struct {
	text    domain.Notifier
	speaker Speaker
	log     *logger.Logger
}

// NewSpeakingNotifier creates a notifier that both prints and speaks.
// text may be nil when nothing should be printed.
func NewSpeakingNotifier(text domain.Notifier, speaker Speaker, log *logger.Logger) *SpeakingNotifier {
	return &SpeakingNotifier{text: text, speaker: speaker, log: log}
}

// Notify prints message and speaks it in place of current narration.
func (n *SpeakingNotifier) Notify(ctx context.Context, message string) error {
	if n.text != nil {
		if err := n.text.Notify(ctx, message); err != nil {
			return err
		}
	}
	return n.speaker.Speak(ctx, cleanForSpeech(message))
}

// NotifyUrgent prints message and queues it ahead of normal narration.
func (n *SpeakingNotifier) NotifyUrgent(ctx context.Context, message string) error {
	if n.text != nil {
		if err := n.text.NotifyUrgent(ctx, message); err != nil {
			return err
		}
	}
	if cleaned := cleanForSpeech(message); cleaned != "" {
		n.speaker.Say(cleaned, PriorityHigh)
	}
	return nil
}

var (
	bracketPrefix = regexp.MustCompile(`^\[[A-Za-z]+\]\s*`)
	ansiCodes     = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// cleanForSpeech strips terminal colors and "[TAG]" prefixes.
func cleanForSpeech(msg string) string {
	cleaned := ansiCodes.ReplaceAllString(msg, "")
	cleaned = bracketPrefix.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}
