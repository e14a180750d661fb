package speech

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

func testLog() *logger.Logger { return logger.New(logger.LevelOff, nil) }

// ── Fakes ────────────────────────────────────────────────────────

type echoSynth struct {
	mu    sync.Mutex
	calls int
}

func (s *echoSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return []byte(text), nil
}

func (s *echoSynth) Voice() string { return "test-voice" }

// blockingPlayer holds "first" until Stop is called.
type blockingPlayer struct {
	mu      sync.Mutex
	played  []string
	playing bool
	started chan string
	stop    chan struct{}
}

func newBlockingPlayer() *blockingPlayer {
	return &blockingPlayer{started: make(chan string, 8), stop: make(chan struct{}, 1)}
}

func (p *blockingPlayer) Play(wav []byte) error {
	p.mu.Lock()
	p.played = append(p.played, string(wav))
	p.playing = true
	p.mu.Unlock()

	p.started <- string(wav)
	if string(wav) == "first" {
		select {
		case <-p.stop:
		case <-time.After(5 * time.Second):
		}
	}

	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
	return nil
}

func (p *blockingPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		select {
		case p.stop <- struct{}{}:
		default:
		}
	}
}

type recordingSpeaker struct {
	spoken []string
	queued []string
}

func (s *recordingSpeaker) Speak(_ context.Context, text string) error {
	s.spoken = append(s.spoken, text)
	return nil
}

func (s *recordingSpeaker) Say(text string, _ Priority) {
	s.queued = append(s.queued, text)
}

type scriptTranscriber struct {
	mu        sync.Mutex
	clips     []string
	err       error
	block     bool
	languages []string
}

func (s *scriptTranscriber) Transcribe(ctx context.Context, _ time.Duration, language string) (string, error) {
	s.mu.Lock()
	s.languages = append(s.languages, language)
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clips) == 0 {
		return "", nil
	}
	c := s.clips[0]
	s.clips = s.clips[1:]
	return c, nil
}

func waitFor(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
		return ""
	}
}

// ── Narrator ─────────────────────────────────────────────────────

func TestSpeakInterruptsCurrentUtterance(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	player := newBlockingPlayer()
	n := NewNarrator(&echoSynth{}, player, testLog())
	n.Start(ctx)

	if err := n.Speak(ctx, "first"); err != nil {
		t.Fatal(err)
	}
	if got := waitFor(t, player.started); got != "first" {
		t.Fatalf("expected first, got %q", got)
	}

	start := time.Now()
	n.Speak(ctx, "second")
	if got := waitFor(t, player.started); got != "second" {
		t.Fatalf("expected second, got %q", got)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("second utterance waited for the first to finish")
	}
}

func TestInterruptKeepsAlerts(t *testing.T) {
	n := NewNarrator(&echoSynth{}, newBlockingPlayer(), testLog())
	n.Say("you have a lingering timer", PriorityLow)
	n.Say("step two", PriorityNormal)
	n.Say("eggs timer is done.", PriorityHigh)

	n.Interrupt()
	if n.QueueLen() != 1 {
		t.Fatalf("expected 1 queued item, got %d", n.QueueLen())
	}
	u, _, ok := n.dequeue()
	if !ok || u.text != "eggs timer is done." {
		t.Errorf("unexpected item %+v", u)
	}
}

func TestSayFlushesLowPriority(t *testing.T) {
	n := NewNarrator(&echoSynth{}, newBlockingPlayer(), testLog())
	n.Say("reminder", PriorityLow)
	n.Say("alert", PriorityHigh)
	n.Say("step", PriorityNormal)

	var got []string
	for {
		u, _, ok := n.dequeue()
		if !ok {
			break
		}
		got = append(got, u.text)
	}
	if strings.Join(got, ",") != "alert,step" {
		t.Errorf("unexpected order %v", got)
	}
}

func TestSpeakIgnoresBlank(t *testing.T) {
	n := NewNarrator(&echoSynth{}, newBlockingPlayer(), testLog())
	n.Speak(context.Background(), "   ")
	if n.QueueLen() != 0 {
		t.Error("blank text should not be queued")
	}
}

func TestSplitChunks(t *testing.T) {
	n := NewNarrator(&echoSynth{}, newBlockingPlayer(), testLog(), WithChunkSize(20))

	got := n.splitChunks("Heat the oil. Add garlic! Stir well? Serve.")
	want := []string{"Heat the oil.", "Add garlic!", "Stir well? Serve."}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	if got := n.splitChunks("short"); len(got) != 1 || got[0] != "short" {
		t.Errorf("short text should stay whole, got %v", got)
	}
}

// ── Audio cache ──────────────────────────────────────────────────

func TestAudioCacheDiskLayer(t *testing.T) {
	dir := t.TempDir()
	c := NewAudioCache("voice-a", dir, true, testLog())
	c.Put("hello", []byte("wav"))

	fresh := NewAudioCache("voice-a", dir, false, testLog())
	if !fresh.Has("hello") {
		t.Fatal("expected disk hit")
	}
	if got, ok := fresh.Get("hello"); !ok || string(got) != "wav" {
		t.Errorf("unexpected %q %v", got, ok)
	}

	other := NewAudioCache("voice-b", dir, false, testLog())
	if _, ok := other.Get("hello"); ok {
		t.Error("different voice should miss")
	}
	if hits, misses := other.Stats(); hits != 0 || misses != 1 {
		t.Errorf("unexpected stats %d/%d", hits, misses)
	}
}

func TestAudioCacheEvictsOldest(t *testing.T) {
	c := NewAudioCache("v", "", false, testLog())
	c.maxEntries = 2
	c.Put("a", []byte("1"))
	c.Put("b", []byte("2"))
	c.Put("c", []byte("3"))

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if c.Has("a") {
		t.Error("oldest entry should be evicted")
	}
	if !c.Has("c") {
		t.Error("newest entry missing")
	}
}

// ── Azure / WAV ──────────────────────────────────────────────────

func TestAzureSynthesize(t *testing.T) {
	var body, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		key = r.Header.Get("Ocp-Apim-Subscription-Key")
		w.Write([]byte("RIFF"))
	}))
	defer srv.Close()

	c := NewAzureClient("secret", "westeurope", testLog(), WithEndpoint(srv.URL), WithVoice("en-GB-SoniaNeural"))
	audio, err := c.Synthesize(context.Background(), "salt & pepper <to taste>")
	if err != nil {
		t.Fatal(err)
	}
	if string(audio) != "RIFF" {
		t.Errorf("unexpected audio %q", audio)
	}
	if key != "secret" {
		t.Errorf("unexpected key %q", key)
	}
	if !strings.Contains(body, "salt &amp; pepper &lt;to taste&gt;") {
		t.Errorf("text not escaped: %s", body)
	}
	if !strings.Contains(body, "en-GB-SoniaNeural") {
		t.Errorf("voice missing: %s", body)
	}
}

func TestAzureSynthesizeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewAzureClient("nope", "x", testLog(), WithEndpoint(srv.URL))
	_, err := c.Synthesize(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("expected 401 error, got %v", err)
	}
}

func TestExtractPCM(t *testing.T) {
	wav := []byte("RIFF\x00\x00\x00\x00WAVE")
	wav = appendChunk(wav, "fmt ", make([]byte, 16))
	wav = appendChunk(wav, "data", []byte{1, 2, 3, 4})

	pcm, err := extractPCM(wav)
	if err != nil {
		t.Fatal(err)
	}
	if len(pcm) != 4 || pcm[0] != 1 {
		t.Errorf("unexpected pcm %v", pcm)
	}

	if _, err := extractPCM([]byte("short")); err == nil {
		t.Error("expected error for short input")
	}
	if _, err := extractPCM(append([]byte("RIFF\x00\x00\x00\x00WAVE"), appendChunk(nil, "fmt ", make([]byte, 16))...)); err == nil {
		t.Error("expected error without data chunk")
	}
}

func appendChunk(b []byte, id string, payload []byte) []byte {
	b = append(b, id...)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(payload)))
	return append(b, payload...)
}

// ── Notifier ─────────────────────────────────────────────────────

func TestSpeakingNotifier(t *testing.T) {
	s := &recordingSpeaker{}
	n := NewSpeakingNotifier(nil, s, testLog())

	n.Notify(context.Background(), "\033[36m\033[1mStep two.\033[0m")
	n.NotifyUrgent(context.Background(), "[TIMER] eggs timer is done.")

	if len(s.spoken) != 1 || s.spoken[0] != "Step two." {
		t.Errorf("unexpected spoken %v", s.spoken)
	}
	if len(s.queued) != 1 || s.queued[0] != "eggs timer is done." {
		t.Errorf("unexpected queued %v", s.queued)
	}
}

func TestCleanTranscription(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  next step\n", "next step"},
		{"[BLANK_AUDIO]", ""},
		{"(keyboard clicking) go back", "go back"},
		{"[00:00:00.000 --> 00:00:02.000]  say again", "say again"},
		{"Thank you.", ""},
		{"set timer\r\nfor 5 minutes", "set timer for 5 minutes"},
	}
	for _, tt := range tests {
		if got := cleanTranscription(tt.in); got != tt.want {
			t.Errorf("cleanTranscription(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ── Recognizer ───────────────────────────────────────────────────

type sessionResult struct {
	mu      sync.Mutex
	results []string
	errs    []error
	ends    int
	done    chan struct{}
}

func newSessionResult() *sessionResult { return &sessionResult{done: make(chan struct{})} }

func (s *sessionResult) options() ListenOptions {
	return ListenOptions{
		OnResult: func(text string) {
			s.mu.Lock()
			s.results = append(s.results, text)
			s.mu.Unlock()
		},
		OnError: func(err error) {
			s.mu.Lock()
			s.errs = append(s.errs, err)
			s.mu.Unlock()
		},
		OnEnd: func() {
			s.mu.Lock()
			s.ends++
			s.mu.Unlock()
			close(s.done)
		},
	}
}

func (s *sessionResult) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end")
	}
}

func TestRecognizerUnsupported(t *testing.T) {
	r := NewRecognizer("souschef-missing-whisper-binary", "missing.bin", testLog())

	_, err := r.Start(context.Background(), ListenOptions{})
	if !errors.Is(err, domain.ErrRecognitionUnsupported) {
		t.Fatalf("expected ErrRecognitionUnsupported, got %v", err)
	}
	if err := r.Available(); !errors.Is(err, domain.ErrRecognitionUnsupported) {
		t.Errorf("expected the result to stick, got %v", err)
	}
	if r.Listening() {
		t.Error("no session should be open")
	}
}

func TestRecognizerDeliversOneTranscript(t *testing.T) {
	tr := &scriptTranscriber{clips: []string{"", "Set a pasta timer", "[BLANK_AUDIO]", "to 8 minutes", "", "", "next step"}}
	r := NewRecognizer("", "", testLog(), WithTranscriber(tr))
	res := newSessionResult()

	stop, err := r.Start(context.Background(), res.options())
	if err != nil {
		t.Fatal(err)
	}
	defer stop()
	res.wait(t)

	if len(res.results) != 1 || res.results[0] != "Set a pasta timer to 8 minutes" {
		t.Errorf("unexpected results %v", res.results)
	}
	if res.ends != 1 {
		t.Errorf("expected OnEnd once, got %d", res.ends)
	}
}

func TestRecognizerPassesLanguage(t *testing.T) {
	tr := &scriptTranscriber{}
	r := NewRecognizer("", "", testLog(), WithTranscriber(tr), WithSilence(1, 1))

	for _, lang := range []string{"", "fr-FR"} {
		res := newSessionResult()
		opts := res.options()
		opts.Language = lang
		if _, err := r.Start(context.Background(), opts); err != nil {
			t.Fatal(err)
		}
		res.wait(t)
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.languages) != 2 || tr.languages[0] != DefaultLanguage || tr.languages[1] != "fr-FR" {
		t.Errorf("transcriber saw languages %q", tr.languages)
	}
}

func TestModelSupports(t *testing.T) {
	tests := []struct {
		model, lang string
		want        bool
	}{
		{"models/ggml-base.en.bin", "en-US", true},
		{"models/ggml-base.en.bin", "fr-FR", false},
		{"models/ggml-base.bin", "fr-FR", true},
		{"models/ggml-small.en.bin", "", true},
	}
	for _, tt := range tests {
		if got := modelSupports(tt.model, tt.lang); got != tt.want {
			t.Errorf("modelSupports(%q, %q) = %v, want %v", tt.model, tt.lang, got, tt.want)
		}
	}
	if got := whisperLanguage("pt-BR"); got != "pt" {
		t.Errorf("whisperLanguage = %q", got)
	}
}

func TestRecognizerSilence(t *testing.T) {
	r := NewRecognizer("", "", testLog(), WithTranscriber(&scriptTranscriber{}), WithSilence(2, 1))
	res := newSessionResult()

	if _, err := r.Start(context.Background(), res.options()); err != nil {
		t.Fatal(err)
	}
	res.wait(t)
	if len(res.results) != 0 || len(res.errs) != 0 {
		t.Errorf("expected a silent end, got %v %v", res.results, res.errs)
	}
}

func TestRecognizerStop(t *testing.T) {
	r := NewRecognizer("", "", testLog(), WithTranscriber(&scriptTranscriber{block: true}))
	res := newSessionResult()

	stop, err := r.Start(context.Background(), res.options())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Start(context.Background(), ListenOptions{}); !errors.Is(err, ErrAlreadyListening) {
		t.Errorf("expected ErrAlreadyListening, got %v", err)
	}

	stop()
	stop()
	res.wait(t)

	if len(res.results) != 0 || len(res.errs) != 0 {
		t.Errorf("stopped session should deliver nothing, got %v %v", res.results, res.errs)
	}
	if res.ends != 1 {
		t.Errorf("expected OnEnd once, got %d", res.ends)
	}
}

func TestRecognizerError(t *testing.T) {
	boom := errors.New("mic unplugged")
	r := NewRecognizer("", "", testLog(), WithTranscriber(&scriptTranscriber{err: boom}))
	res := newSessionResult()

	if _, err := r.Start(context.Background(), res.options()); err != nil {
		t.Fatal(err)
	}
	res.wait(t)
	if len(res.errs) != 1 || !errors.Is(res.errs[0], boom) {
		t.Errorf("unexpected errors %v", res.errs)
	}
}

func TestRecognizerCue(t *testing.T) {
	n := NewNarrator(&echoSynth{}, newBlockingPlayer(), testLog())
	n.Say("step two", PriorityNormal)

	r := NewRecognizer("", "", testLog(), WithTranscriber(&scriptTranscriber{block: true}), WithNarrator(n))
	res := newSessionResult()
	stop, err := r.Start(context.Background(), res.options())
	if err != nil {
		t.Fatal(err)
	}
	u, _, ok := n.dequeue()
	if !ok || u.priority != PriorityHigh || n.QueueLen() != 0 {
		t.Errorf("expected only the cue to be queued, got %+v", u)
	}
	stop()
	res.wait(t)

	n.Say("step three", PriorityNormal)
	opts := newSessionResult().options()
	opts.Quiet = true
	stop, err = r.Start(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	defer stop()
	if u, _, _ := n.dequeue(); u.text != "step three" {
		t.Errorf("quiet session should leave narration alone, got %q", u.text)
	}
}
