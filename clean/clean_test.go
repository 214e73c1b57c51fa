package clean

import (
	"strings"
	"testing"
	"unicode"
)

func TestNormalize_HyphenLineBreak(t *testing.T) {
	got := Normalize("The intellec-\ntual tradition continued for many years in those quiet halls.", Options{})
	if !strings.Contains(got, "intellectual") {
		t.Errorf("hyphenated line break should fuse: %q", got)
	}
	if strings.Contains(got, "intellec") && !strings.Contains(got, "intellectual") {
		t.Errorf("fragment left behind: %q", got)
	}
}

func TestNormalize_HyphenStraySpace(t *testing.T) {
	got := Normalize("The intellec- tual tradition continued for many years in those quiet halls.", Options{})
	if !strings.Contains(got, "intellectual") {
		t.Errorf("hyphen plus stray space should fuse: %q", got)
	}
}

func TestNormalize_FlattenInvariant(t *testing.T) {
	// WHAT: Output is one paragraph: no newlines, no page breaks, no
	// control characters, no double spaces.
	// WHY: Downstream segmentation assumes exactly this shape.
	in := "First paragraph line one\nline two follows here.\n\n\nSecond paragraph text.\fThe new page starts with plenty of text to stay above the floor.\x07\x00"
	got := Normalize(in, Options{StripHeaders: true, StripFootnotes: true})

	if strings.Contains(got, "\n") {
		t.Error("newlines must not survive flattening")
	}
	if strings.Contains(got, PageBreak) {
		t.Error("page breaks must not survive flattening")
	}
	if strings.Contains(got, "  ") {
		t.Error("double spaces must not survive flattening")
	}
	for _, r := range got {
		if unicode.IsControl(r) {
			t.Errorf("control character %q survived", r)
		}
	}
	if !strings.Contains(got, "line two follows here. Second paragraph") {
		t.Errorf("paragraphs should join into one flow: %q", got)
	}
}

func TestNormalize_SafetyFloor(t *testing.T) {
	// WHAT: When cleaning eats nearly everything, the original text comes
	// back minimally normalized instead.
	// WHY: A wrongly aggressive pass must never destroy a document.
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("https://example.test/archive/item ")
	}
	got := Normalize(sb.String(), Options{StripFootnotes: true})
	if !strings.Contains(got, "https://example.test") {
		t.Errorf("fallback should preserve the original content, got %d bytes", len(got))
	}
	if strings.Contains(got, "\n") {
		t.Error("fallback output must still be flattened")
	}
}

func TestNormalize_HeaderOptionGating(t *testing.T) {
	in := "CHAPTER SEVEN\nThe story continued through the long night, and nobody slept until dawn broke."
	with := Normalize(in, Options{StripHeaders: true})
	without := Normalize(in, Options{})
	if strings.Contains(with, "CHAPTER") {
		t.Errorf("header should be stripped when asked: %q", with)
	}
	if !strings.Contains(without, "CHAPTER") {
		t.Errorf("header should survive when not asked: %q", without)
	}
}

func TestNormalize_LigaturesAndQuotes(t *testing.T) {
	in := "The ﬁre ﬂickered “brightly” and didn’t die down during the whole evening."
	got := Normalize(in, Options{})
	if !strings.Contains(got, "fire flickered") {
		t.Errorf("ligatures should decompose: %q", got)
	}
	if strings.Contains(got, "“") || strings.Contains(got, `"`) {
		t.Errorf("double quotes should be stripped: %q", got)
	}
	if !strings.Contains(got, "didn't") {
		t.Errorf("apostrophe must survive as ASCII: %q", got)
	}
}

func TestPasses_Ordering(t *testing.T) {
	// Hyphen repair must see original line breaks, so it has to come
	// before paragraph joining; flatten is always last.
	names := make([]string, 0, 8)
	for _, p := range Passes(Options{StripHeaders: true, StripFootnotes: true}) {
		names = append(names, p.Name)
	}
	idx := func(name string) int {
		for i, n := range names {
			if n == name {
				return i
			}
		}
		return -1
	}
	if idx("repair-hyphens") == -1 || idx("join-paragraphs") == -1 {
		t.Fatalf("expected passes missing: %v", names)
	}
	if idx("repair-hyphens") > idx("join-paragraphs") {
		t.Errorf("hyphen repair must precede paragraph joining: %v", names)
	}
	if names[len(names)-1] != "flatten" {
		t.Errorf("flatten must be the final pass: %v", names)
	}
	if names[0] != "canonicalize" {
		t.Errorf("canonicalize must be the first pass: %v", names)
	}
}
