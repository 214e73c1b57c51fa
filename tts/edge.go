package tts

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// EdgeSpeaker drives the edge-tts command line client. The binary is
// looked up on PATH at call time so a freshly installed engine is
// picked up without restarting.
type EdgeSpeaker struct {
	// Binary overrides the executable name, default "edge-tts".
	Binary string
	// Args are extra flags appended to every invocation.
	Args []string
	// Logger receives per-call diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

func (e *EdgeSpeaker) binary() string {
	if e != nil && e.Binary != "" {
		return e.Binary
	}
	return "edge-tts"
}

func (e *EdgeSpeaker) logger() *slog.Logger {
	if e != nil && e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Available reports whether the engine binary is on PATH.
func (e *EdgeSpeaker) Available() bool {
	_, err := exec.LookPath(e.binary())
	return err == nil
}

// Speak synthesizes text into MP3 bytes. The engine writes to a file,
// not stdout, so each call runs in its own scratch directory.
func (e *EdgeSpeaker) Speak(ctx context.Context, text string, cfg VoiceConfig) ([]byte, error) {
	if _, err := exec.LookPath(e.binary()); err != nil {
		return nil, ErrUnavailable
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "lector-tts-*")
	if err != nil {
		return nil, fmt.Errorf("tts: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "segment.mp3")
	args := []string{
		"--voice", cfg.VoiceID(),
		"--rate", cfg.RateString(),
		"--pitch", cfg.PitchString(),
		"--text", Sanitize(text),
		"--write-media", out,
	}
	args = append(args, e.Args...)

	cmd := exec.CommandContext(ctx, e.binary(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tts: edge-tts failed: %w: %s", err, lastLine(stderr.String()))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("tts: read output: %w", err)
	}
	e.logger().Debug("edge-tts synthesized",
		"voice", cfg.VoiceID(),
		"chars", len(text),
		"bytes", len(data))
	return data, nil
}

// ListVoices queries the engine catalog. Callers fall back to
// FallbackVoices when this errors.
func (e *EdgeSpeaker) ListVoices(ctx context.Context) ([]Voice, error) {
	if _, err := exec.LookPath(e.binary()); err != nil {
		return nil, ErrUnavailable
	}
	cmd := exec.CommandContext(ctx, e.binary(), "--list-voices")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tts: list voices: %w: %s", err, lastLine(stderr.String()))
	}
	voices := parseVoiceList(stdout.String())
	if len(voices) == 0 {
		return nil, fmt.Errorf("tts: list voices: no parsable entries")
	}
	return voices, nil
}

// parseVoiceList reads the tabular output of edge-tts --list-voices.
// The first column is the voice name, the second the gender; header
// and separator rows are skipped.
func parseVoiceList(out string) []Voice {
	var voices []Voice
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := fields[0]
		if name == "Name" || strings.HasPrefix(name, "-") {
			continue
		}
		voices = append(voices, Voice{
			ID:     name,
			Locale: voiceLocale(name),
			Gender: fields[1],
		})
	}
	return voices
}

// voiceLocale extracts "en-US" from "en-US-AndrewNeural".
func voiceLocale(name string) string {
	parts := strings.SplitN(name, "-", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[0] + "-" + parts[1]
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
