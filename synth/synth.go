// Package synth drives a speech engine over an ordered list of text
// chunks and reassembles the audio. Every fragment is keyed by a hash
// of its sanitized text and voice parameters, so finished work is
// cached and a re-run after partial failure only synthesizes what is
// missing. Fragments that exhaust their retries are skipped and
// reported, not fatal; the run fails only when nothing at all could be
// synthesized.
package synth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/sethvargo/go-retry"

	"github.com/hazyhaar/lector/tts"
)

// ErrNoAudio means no fragment produced audio at all.
var ErrNoAudio = errors.New("synth: no audio produced")

// Config carries the orchestrator collaborators and limits.
type Config struct {
	// Speaker is the synthesis engine. Required.
	Speaker tts.Speaker
	// Cache memoizes synthesized fragments by content key. Nil disables
	// caching.
	Cache Cache
	// PartLimit is the per-call character ceiling the engine enforces.
	// Chunks above it are sliced at fixed boundaries.
	PartLimit int
	// MinAudioBytes is the smallest output accepted as real audio.
	// Engines sometimes return a truncated stub instead of failing.
	MinAudioBytes int
	// Retry is the backoff policy for transient engine failures.
	Retry Policy
	// Progress, when set, is called after each fragment with the count
	// of fragments handled so far and the total.
	Progress func(done, total int)
	// Logger receives per-fragment diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.PartLimit <= 0 {
		c.PartLimit = 4000
	}
	if c.MinAudioBytes <= 0 {
		c.MinAudioBytes = 2000
	}
	if c.Retry == (Policy{}) {
		c.Retry = DefaultPolicy()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Orchestrator synthesizes chunk lists sequentially, in order.
type Orchestrator struct {
	cfg Config
}

// New returns an Orchestrator for the given configuration.
func New(cfg Config) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{cfg: cfg}
}

// Skipped records one fragment that produced no audio.
type Skipped struct {
	Chunk  int    `json:"chunk_index"`
	Part   int    `json:"part_index"`
	Reason string `json:"reason"`
	Text   string `json:"text"`
}

// Result is the outcome of one synthesis run.
type Result struct {
	// Audio is the concatenation of all produced fragments in
	// chunk/part order.
	Audio []byte `json:"-"`
	// Parts counts the fragments that produced audio.
	Parts int `json:"parts"`
	// Calls counts engine invocations that yielded accepted audio.
	Calls int `json:"calls"`
	// CacheHits counts fragments served from the cache.
	CacheHits int `json:"cache_hits"`
	// Skipped lists the fragments that failed past the retry ceiling.
	Skipped []Skipped `json:"skipped,omitempty"`
}

type fragment struct {
	chunk int
	part  int
	text  string
}

// Synthesize converts the chunks into one audio stream. Chunk order is
// the document's reading order and is preserved in the output. A
// missing engine or a cancelled context aborts the run; individual
// fragment failures do not.
func (o *Orchestrator) Synthesize(ctx context.Context, chunks []string, vc tts.VoiceConfig) (*Result, error) {
	if o.cfg.Speaker == nil {
		return nil, tts.ErrUnavailable
	}
	if err := vc.Validate(); err != nil {
		return nil, err
	}

	var frags []fragment
	for i, c := range chunks {
		text := tts.Sanitize(c)
		if text == "" {
			continue
		}
		for j, part := range splitParts(text, o.cfg.PartLimit) {
			frags = append(frags, fragment{chunk: i, part: j, text: part})
		}
	}
	if len(frags) == 0 {
		return nil, fmt.Errorf("%w: nothing speakable in %d chunks", ErrNoAudio, len(chunks))
	}

	res := &Result{}
	for n, f := range frags {
		data, cached, err := o.synthFragment(ctx, f.text, vc)
		switch {
		case err == nil:
			if cached {
				res.CacheHits++
			} else {
				res.Calls++
			}
			res.Audio = append(res.Audio, data...)
			res.Parts++
		case errors.Is(err, tts.ErrUnavailable):
			return nil, err
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			o.cfg.Logger.Warn("fragment skipped",
				"chunk", f.chunk,
				"part", f.part,
				"chars", len(f.text),
				"error", err)
			res.Skipped = append(res.Skipped, Skipped{
				Chunk:  f.chunk,
				Part:   f.part,
				Reason: err.Error(),
				Text:   f.text,
			})
		}
		if o.cfg.Progress != nil {
			o.cfg.Progress(n+1, len(frags))
		}
	}

	if res.Parts == 0 {
		return nil, fmt.Errorf("%w: all %d fragments failed", ErrNoAudio, len(frags))
	}
	return res, nil
}

// synthFragment produces audio for one fragment, consulting the cache
// first and retrying transient engine failures.
func (o *Orchestrator) synthFragment(ctx context.Context, text string, vc tts.VoiceConfig) ([]byte, bool, error) {
	key := Key(text, vc)
	if o.cfg.Cache != nil {
		data, ok, err := o.cfg.Cache.Get(ctx, key)
		if err != nil {
			o.cfg.Logger.Warn("segment cache read failed", "key", key, "error", err)
		} else if ok {
			return data, true, nil
		}
	}

	var out []byte
	err := retry.Do(ctx, o.cfg.Retry.backoff(), func(ctx context.Context) error {
		data, err := o.cfg.Speaker.Speak(ctx, text, vc)
		if err != nil {
			if errors.Is(err, tts.ErrUnavailable) {
				return err
			}
			return retry.RetryableError(err)
		}
		if len(data) < o.cfg.MinAudioBytes {
			return retry.RetryableError(fmt.Errorf("synth: audio too small: %d bytes", len(data)))
		}
		out = data
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if o.cfg.Cache != nil {
		if err := o.cfg.Cache.Put(ctx, key, vc.VoiceID(), len(text), out); err != nil {
			// A broken cache costs re-synthesis later, never the run.
			o.cfg.Logger.Warn("segment cache write failed", "key", key, "error", err)
		}
	}
	return out, false, nil
}

// Key derives the deterministic cache key for one sanitized fragment.
// Identical (text, voice parameters) always map to the same key.
func Key(text string, vc tts.VoiceConfig) string {
	h := sha256.Sum256([]byte(vc.VoiceID() + "|" + vc.RateString() + "|" + vc.PitchString() + "|" + text))
	return hex.EncodeToString(h[:])
}

// splitParts slices text at fixed byte boundaries, adjusted backward
// so a multi-byte rune is never cut in half.
func splitParts(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}
	parts := make([]string, 0, len(text)/limit+1)
	for len(text) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		parts = append(parts, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
