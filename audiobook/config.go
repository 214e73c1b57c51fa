package audiobook

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/lector/clean"
	"github.com/hazyhaar/lector/synth"
	"github.com/hazyhaar/lector/tts"
)

// Config holds all conversion service configuration.
type Config struct {
	// MaxFileSize caps accepted input documents in bytes.
	MaxFileSize int64 `yaml:"max_file_size"`

	// Voice is the default narration voice. Requests may override it.
	Voice tts.VoiceConfig `yaml:"voice"`

	// Clean selects the destructive text passes run before narration.
	Clean clean.Options `yaml:"clean"`

	// MaxChunkChars fixes the chunk size. Zero means adaptive sizing
	// from the document's sentence profile.
	MaxChunkChars int `yaml:"max_chunk_chars"`

	// PartLimit is the per-synthesis-call character ceiling.
	PartLimit int `yaml:"part_limit"`

	// MinAudioBytes is the smallest engine output accepted as real audio.
	MinAudioBytes int `yaml:"min_audio_bytes"`

	// Retry is the backoff policy for transient synthesis failures.
	Retry synth.Policy `yaml:"retry"`

	// VoiceTTL is how long a fetched voice catalog stays fresh before
	// the next Voices call refreshes it from the engine.
	VoiceTTL time.Duration `yaml:"voice_ttl"`
}

// DefaultConfig returns the configuration used when none is supplied.
// Both destructive cleaning passes are on: narration wants headers and
// footnotes gone unless the caller says otherwise.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:   100 * 1024 * 1024,
		Voice:         tts.VoiceConfig{Voice: tts.DefaultVoice},
		Clean:         clean.Options{StripHeaders: true, StripFootnotes: true},
		PartLimit:     4000,
		MinAudioBytes: 2000,
		Retry:         synth.DefaultPolicy(),
		VoiceTTL:      24 * time.Hour,
	}
}

func (c *Config) defaults() {
	d := DefaultConfig()
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = d.MaxFileSize
	}
	if c.PartLimit <= 0 {
		c.PartLimit = d.PartLimit
	}
	if c.MinAudioBytes <= 0 {
		c.MinAudioBytes = d.MinAudioBytes
	}
	if c.Retry == (synth.Policy{}) {
		c.Retry = d.Retry
	}
	if c.VoiceTTL <= 0 {
		c.VoiceTTL = d.VoiceTTL
	}
}

// Validate checks the parts of the configuration that cannot be fixed
// by defaulting.
func (c *Config) Validate() error {
	return c.Voice.Validate()
}

// LoadConfigFile reads a YAML config file. Values unmarshal over the
// defaults, so a partial file only overrides what it names.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
