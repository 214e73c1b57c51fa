package audiobook

import (
	"context"
	"time"

	"github.com/hazyhaar/lector/tts"
)

// Voices returns the narration voice catalog. A fresh catalog comes
// from the engine when it can list voices and is memoized in the store
// for later runs; any failure falls back to the last known catalog and
// finally to the curated list. Voices never fails.
func (s *Service) Voices(ctx context.Context) []tts.Voice {
	s.voiceMu.Lock()
	defer s.voiceMu.Unlock()

	now := time.Now()
	if len(s.voices) > 0 && now.Sub(s.voicesAt) < s.cfg.VoiceTTL {
		return s.voices
	}

	// Catalog persisted by an earlier run.
	if s.store != nil && len(s.voices) == 0 {
		vs, fetched, err := s.store.LoadVoices(ctx)
		if err != nil {
			s.logger.Warn("voice catalog load failed", "error", err)
		} else if len(vs) > 0 {
			s.voices, s.voicesAt = vs, fetched
			if now.Sub(fetched) < s.cfg.VoiceTTL {
				return s.voices
			}
		}
	}

	if lister, ok := s.speaker.(tts.VoiceLister); ok {
		vs, err := lister.ListVoices(ctx)
		switch {
		case err != nil:
			s.logger.Warn("voice listing failed", "error", err)
		case len(vs) > 0:
			s.voices, s.voicesAt = vs, now
			if s.store != nil {
				if err := s.store.SaveVoices(ctx, vs); err != nil {
					s.logger.Warn("voice catalog save failed", "error", err)
				}
			}
			return s.voices
		}
	}

	// A stale catalog beats the curated fallback. Refreshing its
	// timestamp stops every call from re-probing a down engine.
	if len(s.voices) > 0 {
		s.voicesAt = now
		return s.voices
	}
	return tts.FallbackVoices
}
