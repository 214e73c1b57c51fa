package audiobook

import (
	"strings"
	"unicode/utf8"
)

const (
	readingWPM   = 200
	listeningWPM = 150

	previewRunes = 400

	// Spacing check: sample length and the average word length above
	// which extracted text probably lost its inter-word spaces.
	spacingSampleBytes = 1000
	spacingAvgLimit    = 15
)

// Stats summarizes a prepared narration text.
type Stats struct {
	Chars     int `json:"chars"`
	Words     int `json:"words"`
	Sentences int `json:"sentences"`
	Chunks    int `json:"chunks"`

	// ReadingMinutes estimates silent reading time at 200 words/min.
	ReadingMinutes int `json:"reading_minutes"`

	// ListeningMinutes estimates narration time at 150 words/min.
	ListeningMinutes int `json:"listening_minutes"`

	// SpacingSuspect flags text whose words run implausibly long, the
	// usual sign of a PDF extractor that dropped inter-word spaces.
	SpacingSuspect bool `json:"spacing_suspect,omitempty"`

	// Preview is the opening of the text, for status payloads.
	Preview string `json:"preview,omitempty"`
}

// ComputeStats derives narration statistics from cleaned text.
func ComputeStats(text string, sentences, chunks int) Stats {
	words := len(strings.Fields(text))
	return Stats{
		Chars:            utf8.RuneCountInString(text),
		Words:            words,
		Sentences:        sentences,
		Chunks:           chunks,
		ReadingMinutes:   minutesAt(words, readingWPM),
		ListeningMinutes: minutesAt(words, listeningWPM),
		SpacingSuspect:   spacingSuspect(text),
		Preview:          Preview(text),
	}
}

// minutesAt rounds up, so any nonempty text reads as at least a minute.
func minutesAt(words, wpm int) int {
	if words == 0 {
		return 0
	}
	return (words + wpm - 1) / wpm
}

// spacingSuspect checks the average word length over an opening sample.
func spacingSuspect(text string) bool {
	if len(text) > spacingSampleBytes {
		cut := spacingSampleBytes
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return false
	}
	var total int
	for _, w := range words {
		total += utf8.RuneCountInString(w)
	}
	return total/len(words) > spacingAvgLimit
}

// Preview returns the first 400 runes of text, cut on a rune boundary.
func Preview(text string) string {
	n := 0
	for i := range text {
		n++
		if n > previewRunes {
			return text[:i]
		}
	}
	return text
}
