package speech

import "time"

// Default voice for TTS.
// Full list: https://learn.microsoft.com/en-us/azure/ai-services/speech-service/language-support
const DefaultVoice = "en-US-AvaNeural"

// Audio format returned by Azure and expected by the player.
const DefaultAudioFormat = "riff-24khz-16bit-mono-pcm"

// Audio parameters matching the default format.
const (
	SampleRate   = 24000
	ChannelCount = 1
	BitDepth     = 16
)

// DefaultLanguage is used when ListenOptions.Language is empty.
const DefaultLanguage = "en-US"

// Priority orders queued utterances. Higher value speaks first.
type Priority int

const (
	PriorityLow    Priority = iota // reminders about lingering timers
	PriorityNormal                 // step narration, replies
	PriorityHigh                   // timer expiry
)

// utterance is a queued item waiting to be spoken.
type utterance struct {
	text     string
	priority Priority
	queuedAt time.Time
}
