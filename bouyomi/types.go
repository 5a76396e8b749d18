package bouyomi

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrUnavailable reports that the remote application could not be reached or did not
	// answer. Malformed replies also match it.
	ErrUnavailable = errors.New("remote application unavailable")

	// ErrMalformedResponse reports a short or undecodable reply.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrInvalidRequest reports talk options outside the accepted ranges.
	ErrInvalidRequest = errors.New("invalid talk request")
)

// Unset marks a numeric talk option that should keep the application's current setting.
const Unset = -1

// Voice selects a synthesis voice. Zero uses the application's default.
type Voice int

const (
	VoiceDefault  Voice = 0
	VoiceFemale1  Voice = 1
	VoiceFemale2  Voice = 2
	VoiceMale1    Voice = 3
	VoiceMale2    Voice = 4
	VoiceNeutral  Voice = 5
	VoiceRobot    Voice = 6
	VoiceMachine1 Voice = 7
	VoiceMachine2 Voice = 8

	// VoiceExternalBase is the first id assigned to external synthesis engines.
	VoiceExternalBase Voice = 10001
)

var voiceNames = map[Voice]string{
	VoiceDefault:  "default",
	VoiceFemale1:  "female1",
	VoiceFemale2:  "female2",
	VoiceMale1:    "male1",
	VoiceMale2:    "male2",
	VoiceNeutral:  "neutral",
	VoiceRobot:    "robot",
	VoiceMachine1: "machine1",
	VoiceMachine2: "machine2",
}

// IsExternal reports whether v refers to an external engine rather than a built-in voice.
func (v Voice) IsExternal() bool { return v >= VoiceExternalBase }

func (v Voice) String() string {
	if name, ok := voiceNames[v]; ok {
		return name
	}
	if v.IsExternal() {
		return fmt.Sprintf("external(%d)", int(v))
	}
	return fmt.Sprintf("voice(%d)", int(v))
}

// TalkRequest is one line of speech. Build it with NewTalkRequest so unset options carry the
// Unset sentinel.
type TalkRequest struct {
	Text   string
	Speed  int // 50-300
	Tone   int // 50-200
	Volume int // 0-100
	Voice  Voice

	// Host overrides the client's address for this request ("host:port").
	Host string
	// Timeout bounds the whole connect and send. Zero means no limit beyond the context.
	Timeout time.Duration
}

// TalkOption customises a TalkRequest.
type TalkOption func(*TalkRequest)

// NewTalkRequest returns a request for text with every numeric option unset.
func NewTalkRequest(text string, opts ...TalkOption) TalkRequest {
	req := TalkRequest{
		Text:   text,
		Speed:  Unset,
		Tone:   Unset,
		Volume: Unset,
		Voice:  VoiceDefault,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

func WithSpeed(speed int) TalkOption   { return func(r *TalkRequest) { r.Speed = speed } }
func WithTone(tone int) TalkOption     { return func(r *TalkRequest) { r.Tone = tone } }
func WithVolume(volume int) TalkOption { return func(r *TalkRequest) { r.Volume = volume } }
func WithVoice(voice Voice) TalkOption { return func(r *TalkRequest) { r.Voice = voice } }

// ToHost sends the request to addr instead of the client's default.
func ToHost(addr string) TalkOption { return func(r *TalkRequest) { r.Host = addr } }

// WithinTimeout bounds delivery of the request.
func WithinTimeout(d time.Duration) TalkOption { return func(r *TalkRequest) { r.Timeout = d } }

// Validate checks option ranges. Unset values are always accepted.
func (r TalkRequest) Validate() error {
	if err := checkRange("speed", r.Speed, 50, 300); err != nil {
		return err
	}
	if err := checkRange("tone", r.Tone, 50, 200); err != nil {
		return err
	}
	if err := checkRange("volume", r.Volume, 0, 100); err != nil {
		return err
	}
	if r.Voice < 0 || (r.Voice > VoiceMachine2 && !r.Voice.IsExternal()) {
		return fmt.Errorf("%w: voice %d is neither built-in (0-8) nor external (>= %d)", ErrInvalidRequest, int(r.Voice), int(VoiceExternalBase))
	}
	if r.Voice > math.MaxInt16 {
		return fmt.Errorf("%w: voice %d does not fit the wire format", ErrInvalidRequest, int(r.Voice))
	}
	return nil
}

func checkRange(name string, v, lo, hi int) error {
	if v == Unset {
		return nil
	}
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s %d out of range %d-%d", ErrInvalidRequest, name, v, lo, hi)
	}
	return nil
}

// Status summarises the remote application's playback state.
type Status struct {
	Paused     bool
	NowPlaying bool
	TaskCount  int
	// NowTaskID is only reported by the HTTP endpoint.
	NowTaskID int
}

// VoiceInfo describes one entry of the HTTP voice list.
type VoiceInfo struct {
	ID    int    `json:"id"`
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Alias string `json:"alias"`
}

// CallOption adjusts a single control command.
type CallOption func(*callOptions)

type callOptions struct {
	host    string
	timeout time.Duration
}

// WithHost sends the command to addr instead of the client's default.
func WithHost(addr string) CallOption { return func(o *callOptions) { o.host = addr } }

// WithTimeout bounds connect, send and receive of the command.
func WithTimeout(d time.Duration) CallOption { return func(o *callOptions) { o.timeout = d } }

func resolveCall(host string, timeout time.Duration, opts []CallOption) callOptions {
	o := callOptions{host: host, timeout: timeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
