package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/souschef/internal/logger"
)

// Playback plays audio synchronously and can be cut short.
type Playback interface {
	Play(wav []byte) error
	Stop()
}

var _ Playback = (*Player)(nil)

// Player plays WAV audio through oto.
type Player struct {
	ctx *oto.Context
	log *logger.Logger

	mu     sync.Mutex
	active *oto.Player
}

// NewPlayer opens the system audio device. It fails when no device is
// available.
func NewPlayer(log *logger.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	log.Debug("audio player initialized (rate=%d, channels=%d)", SampleRate, ChannelCount)
	return &Player{ctx: ctx, log: log}, nil
}

// Play blocks until the clip finishes or Stop is called.
func (p *Player) Play(wav []byte) error {
	pcm, err := extractPCM(wav)
	if err != nil {
		return err
	}

	player := p.ctx.NewPlayer(bytes.NewReader(pcm))
	p.mu.Lock()
	p.active = player
	p.mu.Unlock()

	player.Play()
	tick := time.NewTicker(10 * time.Millisecond)
	for player.IsPlaying() {
		<-tick.C
	}
	tick.Stop()

	p.mu.Lock()
	p.active = nil
	p.mu.Unlock()
	return player.Close()
}

// Stop pauses whatever is playing. Safe when idle.
func (p *Player) Stop() {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()
	if active != nil {
		active.Pause()
		p.log.Debug("playback interrupted")
	}
}

var (
	errWavShort  = errors.New("wav data too short")
	errNotWav    = errors.New("not a RIFF/WAVE file")
	errNoDataChk = errors.New("data chunk not found in wav")
)

// extractPCM walks the RIFF chunks and returns the payload of "data".
func extractPCM(wav []byte) ([]byte, error) {
	if len(wav) < 12 {
		return nil, errWavShort
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, errNotWav
	}

	pos := 12
	for pos+8 <= len(wav) {
		id := string(wav[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		if id == "data" {
			start := pos + 8
			end := min(start+size, len(wav))
			return wav[start:end], nil
		}
		pos += 8 + size
		if size%2 != 0 {
			pos++
		}
	}
	return nil, errNoDataChk
}
