package speech

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

var _ domain.Narrator = (*Narrator)(nil)

// NarratorOption configures the Narrator.
type NarratorOption func(*Narrator)

// WithChunkSize sets the approximate max characters per synthesis
// request. Longer text is split at sentence boundaries and the pieces
// are synthesized in parallel. Zero disables chunking.
func WithChunkSize(n int) NarratorOption {
	return func(nr *Narrator) {
		nr.chunkSize = n
	}
}

// WithCacheDir sets the on-disk audio cache directory.
func WithCacheDir(dir string) NarratorOption {
	return func(nr *Narrator) {
		nr.cacheDir = dir
	}
}

// WithDiskWrite controls whether new clips are written to the cache
// directory. Existing clips are read either way.
func WithDiskWrite(enabled bool) NarratorOption {
	return func(nr *Narrator) {
		nr.diskWrite = enabled
	}
}

// Narrator serializes speech output: queue, chunk, synthesize in
// parallel, then play in order. One utterance plays at a time and
// higher priority items go first.
type Narrator struct {
	tts    Synthesizer
	player Playback
	log    *logger.Logger
	cache  *AudioCache

	chunkSize int
	cacheDir  string
	diskWrite bool

	mu       sync.Mutex
	queue    []utterance
	notify   chan struct{}
	speaking bool
	gen      uint64 // bumped by Interrupt; playback stops when it changes
}

// NewNarrator creates a narrator over the given synthesizer and player.
func NewNarrator(tts Synthesizer, player Playback, log *logger.Logger, opts ...NarratorOption) *Narrator {
	n := &Narrator{
		tts:       tts,
		player:    player,
		log:       log,
		notify:    make(chan struct{}, 1),
		chunkSize: 200,
		diskWrite: true,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.cache = NewAudioCache(tts.Voice(), n.cacheDir, n.diskWrite, log)
	return n
}

// Speak cuts off whatever is being said and queues text in its place.
// It does not wait for playback.
func (n *Narrator) Speak(_ context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	n.Interrupt()
	n.Say(text, PriorityNormal)
	return nil
}

// Say queues text without interrupting. Queuing at PriorityNormal or
// above drops pending PriorityLow items.
func (n *Narrator) Say(text string, priority Priority) {
	n.mu.Lock()
	if priority >= PriorityNormal {
		n.flushBelowLocked(PriorityNormal)
	}
	n.queue = append(n.queue, utterance{text: text, priority: priority, queuedAt: time.Now()})
	qLen := len(n.queue)
	n.mu.Unlock()

	n.log.Debug("queued (priority=%d, queue_len=%d): %s", priority, qLen, truncate(text, 60))
	select {
	case n.notify <- struct{}{}:
	default:
	}
}

// Interrupt stops playback and drops queued narration. Timer alerts
// (PriorityHigh) stay queued.
func (n *Narrator) Interrupt() {
	n.mu.Lock()
	n.gen++
	n.flushBelowLocked(PriorityHigh)
	n.mu.Unlock()

	n.player.Stop()
}

// IsSpeaking reports whether something is being synthesized or played.
func (n *Narrator) IsSpeaking() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.speaking
}

// QueueLen returns the number of pending utterances.
func (n *Narrator) QueueLen() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queue)
}

// Cache exposes the audio cache for stats.
func (n *Narrator) Cache() *AudioCache { return n.cache }

// Start launches the playback goroutine. It exits when ctx is done.
func (n *Narrator) Start(ctx context.Context) {
	go n.loop(ctx)
	n.log.Info("narrator started")
}

func (n *Narrator) flushBelowLocked(p Priority) {
	kept := n.queue[:0]
	for _, u := range n.queue {
		if u.priority >= p {
			kept = append(kept, u)
		}
	}
	n.queue = kept
}

func (n *Narrator) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			n.player.Stop()
			n.log.Info("narrator stopped")
			return
		case <-n.notify:
			n.drain(ctx)
		}
	}
}

func (n *Narrator) drain(ctx context.Context) {
	for ctx.Err() == nil {
		u, gen, ok := n.dequeue()
		if !ok {
			return
		}
		n.process(ctx, u, gen)

		n.mu.Lock()
		n.speaking = false
		n.mu.Unlock()
	}
}

// dequeue pops the highest priority item, oldest first among equals,
// and marks the narrator as speaking.
func (n *Narrator) dequeue() (utterance, uint64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.queue) == 0 {
		return utterance{}, 0, false
	}
	best := 0
	for i, u := range n.queue {
		if u.priority > n.queue[best].priority {
			best = i
		}
	}
	u := n.queue[best]
	n.queue = append(n.queue[:best], n.queue[best+1:]...)
	n.speaking = true
	return u, n.gen, true
}

func (n *Narrator) current(gen uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.gen == gen
}

func (n *Narrator) process(ctx context.Context, u utterance, gen uint64) {
	n.log.Debug("speaking (priority=%d, waited=%s): %s",
		u.priority, time.Since(u.queuedAt).Round(time.Millisecond), truncate(u.text, 60))

	chunks := n.splitChunks(u.text)
	clips := make([][]byte, len(chunks))
	if len(chunks) == 1 {
		audio, err := n.synthesize(ctx, chunks[0])
		if err != nil {
			n.log.Error("synthesis failed: %v", err)
			return
		}
		clips[0] = audio
	} else {
		var wg sync.WaitGroup
		for i, chunk := range chunks {
			wg.Add(1)
			go func(i int, text string) {
				defer wg.Done()
				audio, err := n.synthesize(ctx, text)
				if err != nil {
					n.log.Error("chunk %d synthesis failed: %v", i, err)
					return
				}
				clips[i] = audio
			}(i, chunk)
		}
		wg.Wait()
	}

	for i, clip := range clips {
		if clip == nil {
			continue
		}
		if ctx.Err() != nil || !n.current(gen) {
			n.log.Debug("dropping rest of utterance (interrupted)")
			return
		}
		if err := n.player.Play(clip); err != nil {
			n.log.Error("chunk %d playback failed: %v", i, err)
		}
	}
}

func (n *Narrator) synthesize(ctx context.Context, text string) ([]byte, error) {
	if audio, ok := n.cache.Get(text); ok {
		return audio, nil
	}
	audio, err := n.tts.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	n.cache.Put(text, audio)
	return audio, nil
}

// Prefetch synthesizes texts in the background so a later Speak plays
// without delay. Cached chunks are skipped.
func (n *Narrator) Prefetch(ctx context.Context, texts ...string) {
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, chunk := range n.splitChunks(text) {
			if n.cache.Has(chunk) {
				continue
			}
			go func(t string) {
				audio, err := n.tts.Synthesize(ctx, t)
				if err != nil {
					n.log.Debug("prefetch failed: %v", err)
					return
				}
				n.cache.Put(t, audio)
			}(chunk)
		}
	}
}

// splitChunks groups sentences into chunks of about chunkSize chars.
func (n *Narrator) splitChunks(text string) []string {
	if n.chunkSize <= 0 || len(text) <= n.chunkSize {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}
	for _, s := range splitSentences(text) {
		if cur.Len() > 0 && cur.Len()+len(s) > n.chunkSize {
			flush()
		}
		cur.WriteString(s)
	}
	flush()
	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

// splitSentences splits at . ! or ? keeping the punctuation and any
// trailing whitespace with the sentence.
func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		cur.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
				cur.WriteRune(runes[i])
			}
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
