// Package chunk packs sentences into bounded text segments sized for
// one synthesis call each.
package chunk

import (
	"strings"

	"github.com/hazyhaar/lector/sentence"
)

// Size bounds in characters. DefaultSize suits typical prose; Suggest
// narrows the target from sentence statistics, always staying inside
// [MinSize, MaxSize].
const (
	DefaultSize = 2200
	MinSize     = 1500
	MaxSize     = 2800
)

// Suggest picks a chunk size from the sentence profile. Very long
// sentences push the target down, so one failed synthesis call loses
// less; short uniform sentences push it up, so the run makes fewer
// calls.
func Suggest(sentences []string) int {
	if len(sentences) == 0 {
		return DefaultSize
	}
	var longest, total int
	for _, s := range sentences {
		n := len(s)
		total += n
		if n > longest {
			longest = n
		}
	}
	avg := total / len(sentences)

	size := DefaultSize
	switch {
	case longest > 2400:
		size = 1800
	case avg > 300:
		size = 2000
	case avg < 120:
		size = 2600
	}
	return clamp(size, MinSize, MaxSize)
}

// Split segments text into sentences and packs them greedily: a chunk
// closes when the next sentence would push it past maxLen. A single
// sentence longer than maxLen is split at word boundaries, never
// mid-word, and its final piece keeps accumulating following sentences.
// Chunk order is reading order.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultSize
	}
	var chunks []string
	cur := ""
	for _, s := range sentence.Segment(text) {
		joined := len(cur) + len(s)
		if cur != "" {
			joined++
		}
		if joined <= maxLen {
			if cur != "" {
				cur += " "
			}
			cur += s
			continue
		}
		if cur != "" {
			chunks = append(chunks, cur)
			cur = ""
		}
		if len(s) <= maxLen {
			cur = s
			continue
		}
		parts := wrapWords(s, maxLen)
		chunks = append(chunks, parts[:len(parts)-1]...)
		cur = parts[len(parts)-1]
	}
	if cur != "" {
		chunks = append(chunks, cur)
	}
	return chunks
}

// wrapWords splits one oversized sentence at spaces. A word longer than
// maxLen is emitted whole rather than cut.
func wrapWords(s string, maxLen int) []string {
	var parts []string
	cur := ""
	for _, w := range strings.Fields(s) {
		joined := len(cur) + len(w)
		if cur != "" {
			joined++
		}
		if joined <= maxLen {
			if cur != "" {
				cur += " "
			}
			cur += w
			continue
		}
		if cur != "" {
			parts = append(parts, cur)
		}
		cur = w
	}
	if cur != "" {
		parts = append(parts, cur)
	}
	if len(parts) == 0 {
		parts = []string{s}
	}
	return parts
}

// Coalesce merges adjacent chunks while the left side sits under target
// and the merged pair stays within hardCap. Fewer chunks means fewer
// synthesis calls; the hard cap keeps the result service-safe.
func Coalesce(chunks []string, target, hardCap int) []string {
	if len(chunks) < 2 {
		return chunks
	}
	out := make([]string, 0, len(chunks))
	cur := chunks[0]
	for _, c := range chunks[1:] {
		if len(cur) < target && len(cur)+1+len(c) <= hardCap {
			cur = cur + " " + c
			continue
		}
		out = append(out, cur)
		cur = c
	}
	out = append(out, cur)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
