package tts

import (
	"strings"
	"testing"
)

func TestVoiceConfigStrings(t *testing.T) {
	cases := []struct {
		cfg   VoiceConfig
		rate  string
		pitch string
	}{
		{VoiceConfig{RatePercent: 10, PitchHz: 0}, "+10%", "+0Hz"},
		{VoiceConfig{RatePercent: 0, PitchHz: -300}, "+0%", "-300Hz"},
		{VoiceConfig{RatePercent: -25, PitchHz: 40}, "-25%", "+40Hz"},
	}
	for _, tc := range cases {
		if got := tc.cfg.RateString(); got != tc.rate {
			t.Errorf("RateString(%d) = %q, want %q", tc.cfg.RatePercent, got, tc.rate)
		}
		if got := tc.cfg.PitchString(); got != tc.pitch {
			t.Errorf("PitchString(%d) = %q, want %q", tc.cfg.PitchHz, got, tc.pitch)
		}
	}
}

func TestVoiceConfigValidate(t *testing.T) {
	if err := (VoiceConfig{RatePercent: 50, PitchHz: -300}).Validate(); err != nil {
		t.Errorf("boundary values should pass: %v", err)
	}
	if err := (VoiceConfig{RatePercent: 51}).Validate(); err == nil {
		t.Error("rate 51 should fail validation")
	}
	if err := (VoiceConfig{PitchHz: -301}).Validate(); err == nil {
		t.Error("pitch -301 should fail validation")
	}
}

func TestVoiceConfigDefaultVoice(t *testing.T) {
	if got := (VoiceConfig{}).VoiceID(); got != DefaultVoice {
		t.Errorf("empty voice = %q, want default %q", got, DefaultVoice)
	}
	if got := (VoiceConfig{Voice: "en-GB-RyanNeural"}).VoiceID(); got != "en-GB-RyanNeural" {
		t.Errorf("explicit voice overridden: %q", got)
	}
}

// Sanitize must neutralize engine-hostile input without changing how
// the text reads aloud. Ampersands are spelled out because some CLI
// wrappers mangle them, and control bytes become plain spaces.
func TestSanitize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Tom & Jerry", "Tom and Jerry"},
		{"clean text stays", "clean text stays"},
		{"null\x00byte", "null byte"},
		{"bell\x07and\x1fescape", "bell and escape"},
		{"  padded   out  ", "padded out"},
		{"tabs\tsurvive", "tabs\tsurvive"},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.in); got != tc.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeKeepsNewlines(t *testing.T) {
	got := Sanitize("first line\nsecond line")
	if !strings.Contains(got, "\n") {
		t.Errorf("newline stripped: %q", got)
	}
}

func TestParseVoiceList(t *testing.T) {
	out := `Name                               Gender    ContentCategories      VoicePersonalities
---------------------------------  --------  ---------------------  --------------------
en-US-AndrewNeural                 Male      Conversation, Copilot  Warm, Confident
en-GB-LibbyNeural                  Female    General                Friendly, Positive
`
	voices := parseVoiceList(out)
	if len(voices) != 2 {
		t.Fatalf("parsed %d voices, want 2: %+v", len(voices), voices)
	}
	if voices[0].ID != "en-US-AndrewNeural" || voices[0].Gender != "Male" {
		t.Errorf("first voice = %+v", voices[0])
	}
	if voices[0].Locale != "en-US" {
		t.Errorf("locale = %q, want en-US", voices[0].Locale)
	}
	if voices[1].ID != "en-GB-LibbyNeural" || voices[1].Locale != "en-GB" {
		t.Errorf("second voice = %+v", voices[1])
	}
}

func TestFallbackVoicesWellFormed(t *testing.T) {
	if len(FallbackVoices) == 0 {
		t.Fatal("fallback catalog is empty")
	}
	seen := map[string]bool{}
	for _, v := range FallbackVoices {
		if v.ID == "" || v.Locale == "" || v.Gender == "" {
			t.Errorf("incomplete voice entry: %+v", v)
		}
		if seen[v.ID] {
			t.Errorf("duplicate voice %s", v.ID)
		}
		seen[v.ID] = true
	}
	if !seen[DefaultVoice] {
		t.Errorf("default voice %s missing from fallback catalog", DefaultVoice)
	}
}
