// Package tts defines the speech-synthesis capability the narration
// pipeline drives, plus the voice configuration it is driven with. The
// default implementation shells out to the edge-tts CLI; tests and
// alternative engines plug in through the Speaker interface.
package tts

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable means the synthesis engine cannot run on this host.
// Callers treat it as a missing capability, not a transient failure.
var ErrUnavailable = errors.New("tts: engine unavailable")

// DefaultVoice is used when a request does not name one.
const DefaultVoice = "en-US-AndrewNeural"

// Speaker turns one piece of text into encoded audio. Implementations
// must be safe for concurrent use.
type Speaker interface {
	Speak(ctx context.Context, text string, cfg VoiceConfig) ([]byte, error)
}

// VoiceLister enumerates the voices an engine offers.
type VoiceLister interface {
	ListVoices(ctx context.Context) ([]Voice, error)
}

// Voice describes one synthesis voice.
type Voice struct {
	ID     string `json:"id"`
	Locale string `json:"locale"`
	Gender string `json:"gender"`
}

// FallbackVoices is the static catalog served when the engine cannot be
// queried. All are known-good English neural voices.
var FallbackVoices = []Voice{
	{ID: "en-US-AndrewNeural", Locale: "en-US", Gender: "Male"},
	{ID: "en-US-JennyNeural", Locale: "en-US", Gender: "Female"},
	{ID: "en-US-GuyNeural", Locale: "en-US", Gender: "Male"},
	{ID: "en-US-AriaNeural", Locale: "en-US", Gender: "Female"},
	{ID: "en-GB-LibbyNeural", Locale: "en-GB", Gender: "Female"},
	{ID: "en-GB-RyanNeural", Locale: "en-GB", Gender: "Male"},
}

// VoiceConfig carries the per-run synthesis parameters. Rate is a
// relative percentage, pitch a relative offset in Hz; both are encoded
// as signed strings on the wire ("+10%", "-300Hz").
type VoiceConfig struct {
	Voice       string `json:"voice" yaml:"voice"`
	RatePercent int    `json:"rate_percent" yaml:"rate_percent"`
	PitchHz     int    `json:"pitch_hz" yaml:"pitch_hz"`
}

// Validate checks the parameter ranges the engines accept.
func (c VoiceConfig) Validate() error {
	if c.RatePercent < -50 || c.RatePercent > 50 {
		return fmt.Errorf("tts: rate %d%% outside [-50,50]", c.RatePercent)
	}
	if c.PitchHz < -300 || c.PitchHz > 300 {
		return fmt.Errorf("tts: pitch %dHz outside [-300,300]", c.PitchHz)
	}
	return nil
}

// VoiceID returns the configured voice or the default.
func (c VoiceConfig) VoiceID() string {
	if c.Voice != "" {
		return c.Voice
	}
	return DefaultVoice
}

// RateString renders the rate the way the engine wants it: always with
// an explicit sign.
func (c VoiceConfig) RateString() string {
	return signed(c.RatePercent) + "%"
}

// PitchString renders the pitch offset with an explicit sign.
func (c VoiceConfig) PitchString() string {
	return signed(c.PitchHz) + "Hz"
}

func signed(v int) string {
	if v >= 0 {
		return fmt.Sprintf("+%d", v)
	}
	return fmt.Sprintf("%d", v)
}
