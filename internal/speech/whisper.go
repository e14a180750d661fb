package speech

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/hammamikhairi/souschef/internal/logger"
)

// whisperTranscriber records from the default microphone and runs
// whisper-cli on the clip. The recorder invokes whisper-cli without a
// language flag, so the model decides: multilingual models auto-detect and
// ".en" models only understand English. A session language the model
// cannot handle is reported once.
type whisperTranscriber struct {
	bin     string
	model   string
	tempDir string
	log     *logger.Logger
	verbose bool

	warnOnce sync.Once
}

func (w *whisperTranscriber) Transcribe(ctx context.Context, d time.Duration, language string) (string, error) {
	if !modelSupports(w.model, language) {
		w.warnOnce.Do(func() {
			w.log.Warn("whisper model %s is English-only; language %s will be transcribed as English",
				filepath.Base(w.model), language)
		})
	}

	done := make(chan string, 1)
	t, err := audiotranscriber.NewTranscriber(w.bin, w.model, w.tempDir, "wav",
		func(text string) { done <- text }, w.verbose)
	if err != nil {
		return "", fmt.Errorf("whisper init: %w", err)
	}
	if err := t.Start(); err != nil {
		return "", fmt.Errorf("whisper record: %w", err)
	}

	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
	t.Stop()
	text := <-done
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return text, nil
}

// whisperLanguage maps a BCP 47 tag to whisper's two-letter code:
// "en-US" becomes "en".
func whisperLanguage(tag string) string {
	base, _, _ := strings.Cut(strings.TrimSpace(tag), "-")
	return strings.ToLower(base)
}

// modelSupports reports whether a GGML model can transcribe language.
// English-only models are named like "ggml-base.en.bin".
func modelSupports(model, language string) bool {
	lang := whisperLanguage(language)
	if lang == "" || lang == "en" {
		return true
	}
	return !strings.Contains(strings.ToLower(filepath.Base(model)), ".en.")
}

var (
	// envAnnotation matches whisper sound annotations like
	// "(keyboard clicking)" or "[laughter]".
	envAnnotation = regexp.MustCompile(`[\(\[][a-zA-Z][a-zA-Z_\s]*[\)\]]`)
	timestamp     = regexp.MustCompile(`\[\d{2}:\d{2}:\d{2}\.\d{3} --> \d{2}:\d{2}:\d{2}\.\d{3}\]`)
	spaces        = regexp.MustCompile(`\s+`)
)

// Whole-clip outputs Whisper invents on silence.
var hallucinations = map[string]bool{
	"...":                     true,
	"you":                     true,
	"thank you.":              true,
	"thanks for watching!":    true,
	"thank you for watching.": true,
	"bye.":                    true,
	"the end.":                true,
}

// cleanTranscription strips timestamps, annotations such as
// "[BLANK_AUDIO]" and known silence hallucinations.
func cleanTranscription(s string) string {
	s = timestamp.ReplaceAllString(s, " ")
	s = envAnnotation.ReplaceAllString(s, " ")
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))
	if hallucinations[strings.ToLower(s)] {
		return ""
	}
	return s
}
