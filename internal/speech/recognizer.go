package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// ErrAlreadyListening is returned by Start while a session is open.
var ErrAlreadyListening = errors.New("speech: recognition session already open")

// ListenOptions configures one recognition session. Callbacks run on the
// session goroutine and must not block for long.
type ListenOptions struct {
	// Language is a BCP 47 tag such as "en-US", handed to the transcriber
	// for every clip.
	Language string
	// Quiet opens the session without cutting off narration or speaking
	// the cue. Recording still waits for the narrator to finish.
	Quiet    bool
	OnResult func(transcript string)
	OnEnd    func()
	OnError  func(err error)
}

// Transcriber records a clip of the given length and returns its text.
// language is the session's BCP 47 tag.
type Transcriber interface {
	Transcribe(ctx context.Context, d time.Duration, language string) (string, error)
}

// RecognizerOption configures the Recognizer.
type RecognizerOption func(*Recognizer)

// WithTranscriber replaces the Whisper transcriber. The binary and model
// checks are skipped.
func WithTranscriber(t Transcriber) RecognizerOption {
	return func(r *Recognizer) { r.transcriber = t }
}

// WithChunkDuration sets how long each recorded clip lasts.
func WithChunkDuration(d time.Duration) RecognizerOption {
	return func(r *Recognizer) { r.chunk = d }
}

// WithListenTimeout caps a session's length.
func WithListenTimeout(d time.Duration) RecognizerOption {
	return func(r *Recognizer) { r.timeout = d }
}

// WithSilence sets how many empty clips end a session, before and after
// the cook starts talking.
func WithSilence(before, after int) RecognizerOption {
	return func(r *Recognizer) {
		r.graceEmpty = before
		r.postSpeechEmpty = after
	}
}

// WithTempDir sets the directory for temporary WAV files.
func WithTempDir(dir string) RecognizerOption {
	return func(r *Recognizer) { r.tempDir = dir }
}

// WithNarrator makes sessions cut off narration when they open, speak a
// short cue, and wait for the speaker to go quiet before recording.
func WithNarrator(n *Narrator) RecognizerOption {
	return func(r *Recognizer) { r.narrator = n }
}

// Recognizer turns microphone audio into transcripts with a local
// Whisper model. Each session delivers at most one transcript: clips are
// recorded until the cook stops talking or the timeout hits, then joined.
type Recognizer struct {
	whisperBin  string
	modelPath   string
	tempDir     string
	log         *logger.Logger
	narrator    *Narrator
	transcriber Transcriber

	chunk           time.Duration
	timeout         time.Duration
	graceEmpty      int
	postSpeechEmpty int

	mu          sync.Mutex
	unsupported error
	checked     bool
	active      bool
}

// NewRecognizer creates a recognizer for the given whisper-cli binary and
// GGML model.
func NewRecognizer(whisperBin, modelPath string, log *logger.Logger, opts ...RecognizerOption) *Recognizer {
	r := &Recognizer{
		whisperBin:      whisperBin,
		modelPath:       modelPath,
		tempDir:         ".souschef-stt",
		log:             log,
		chunk:           time.Second,
		timeout:         15 * time.Second,
		graceEmpty:      4,
		postSpeechEmpty: 2,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.transcriber == nil {
		r.transcriber = &whisperTranscriber{
			bin:     whisperBin,
			model:   modelPath,
			tempDir: r.tempDir,
			log:     log,
			verbose: log.GetLevel() >= logger.LevelVerbose,
		}
	} else {
		r.checked = true
	}
	return r
}

// Available returns domain.ErrRecognitionUnsupported when the binary or
// model is missing. The result is remembered.
func (r *Recognizer) Available() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.checkLocked()
}

func (r *Recognizer) checkLocked() error {
	if r.checked {
		return r.unsupported
	}
	r.checked = true
	if _, err := exec.LookPath(r.whisperBin); err != nil {
		r.unsupported = fmt.Errorf("%w: whisper binary %q: %v", domain.ErrRecognitionUnsupported, r.whisperBin, err)
	} else if _, err := os.Stat(r.modelPath); err != nil {
		r.unsupported = fmt.Errorf("%w: model %q: %v", domain.ErrRecognitionUnsupported, r.modelPath, err)
	}
	if r.unsupported != nil {
		r.log.Warn("speech recognition unavailable: %v", r.unsupported)
	}
	return r.unsupported
}

// Start opens a session and returns immediately. stop ends it early; a
// stopped session delivers no transcript. OnEnd fires exactly once per
// session, whatever the outcome.
func (r *Recognizer) Start(ctx context.Context, opts ListenOptions) (stop func(), err error) {
	r.mu.Lock()
	if err := r.checkLocked(); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	if r.active {
		r.mu.Unlock()
		return nil, ErrAlreadyListening
	}
	r.active = true
	r.mu.Unlock()

	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if r.narrator != nil && !opts.Quiet {
		r.narrator.Interrupt()
		r.narrator.Say(LineListening(), PriorityHigh)
	}

	sctx, cancel := context.WithCancel(ctx)
	go r.session(sctx, opts)
	return cancel, nil
}

// Listening reports whether a session is open.
func (r *Recognizer) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Recognizer) session(ctx context.Context, opts ListenOptions) {
	defer func() {
		r.mu.Lock()
		r.active = false
		r.mu.Unlock()
		if opts.OnEnd != nil {
			opts.OnEnd()
		}
	}()

	r.log.Debug("listening (language=%s)", opts.Language)
	text, err := r.listen(ctx, opts.Language)
	switch {
	case ctx.Err() != nil:
		r.log.Debug("session stopped")
	case err != nil:
		r.log.Error("recognition failed: %v", err)
		if opts.OnError != nil {
			opts.OnError(err)
		}
	case text == "":
		r.log.Debug("session ended with no speech")
	default:
		r.log.Info("heard %q", text)
		if opts.OnResult != nil {
			opts.OnResult(text)
		}
	}
}

// listen records clips until silence follows speech, the grace period
// passes without speech, or the timeout hits.
func (r *Recognizer) listen(ctx context.Context, language string) (string, error) {
	r.waitForNarrator(ctx)

	deadline := time.NewTimer(r.timeout)
	defer deadline.Stop()

	var parts []string
	empty := 0
	heard := false
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			r.log.Debug("listen timeout reached")
			return strings.Join(parts, " "), nil
		default:
		}

		raw, err := r.transcriber.Transcribe(ctx, r.chunk, language)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", err
		}
		clip := cleanTranscription(raw)
		if clip == "" {
			empty++
			limit := r.graceEmpty
			if heard {
				limit = r.postSpeechEmpty
			}
			if empty >= limit {
				return strings.Join(parts, " "), nil
			}
			continue
		}
		empty = 0
		heard = true
		parts = append(parts, clip)
	}
}

// waitForNarrator keeps the microphone from picking up our own voice.
func (r *Recognizer) waitForNarrator(ctx context.Context) {
	if r.narrator == nil {
		return
	}
	for r.narrator.IsSpeaking() || r.narrator.QueueLen() > 0 {
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return
		}
	}
}
