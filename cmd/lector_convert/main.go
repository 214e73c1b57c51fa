// Command lector_convert turns a single document into an MP3 audiobook.
//
// Usage:
//
//	lector_convert book.pdf                          # writes book.mp3
//	lector_convert -voice en-GB-RyanNeural book.pdf  # different narrator
//	lector_convert -stats book.pdf                   # text statistics, no synthesis
//	lector_convert -voices                           # list available voices
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/lector/audiobook"
	"github.com/hazyhaar/lector/docload"
	"github.com/hazyhaar/lector/store"
	"github.com/hazyhaar/lector/tts"
)

type options struct {
	input      string
	output     string
	voice      string
	rate       int
	pitch      int
	maxChunk   int
	keepHeads  bool
	keepFoots  bool
	writeText  bool
	statsOnly  bool
	listVoices bool
	cachePath  string
}

func main() {
	var o options
	flag.StringVar(&o.output, "o", "", "output MP3 path (default: input with .mp3 extension)")
	flag.StringVar(&o.voice, "voice", "", "narration voice (default "+tts.DefaultVoice+")")
	flag.IntVar(&o.rate, "rate", 0, "speech rate offset in percent, -50..50")
	flag.IntVar(&o.pitch, "pitch", 0, "pitch offset in Hz, -300..300")
	flag.IntVar(&o.maxChunk, "max-chunk", 0, "chunk size in characters (0 = adaptive)")
	flag.BoolVar(&o.keepHeads, "keep-headers", false, "keep page headers and page numbers")
	flag.BoolVar(&o.keepFoots, "keep-footnotes", false, "keep footnote markers")
	flag.BoolVar(&o.writeText, "text", false, "also write the cleaned text next to the MP3")
	flag.BoolVar(&o.statsOnly, "stats", false, "print text statistics without synthesizing")
	flag.BoolVar(&o.listVoices, "voices", false, "list available voices and exit")
	flag.StringVar(&o.cachePath, "cache", "", "segment cache DB path (empty = no cache)")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()
	o.input = flag.Arg(0)

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, o); err != nil {
		fmt.Fprintf(os.Stderr, "lector_convert: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, o options) error {
	cfg := audiobook.DefaultConfig()
	cfg.Clean.StripHeaders = !o.keepHeads
	cfg.Clean.StripFootnotes = !o.keepFoots

	svcOpts := []audiobook.Option{
		audiobook.WithOCR(&docload.CommandOCR{Logger: logger}),
	}
	if o.cachePath != "" {
		cst, err := store.Open(o.cachePath)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer cst.Close()
		svcOpts = append(svcOpts, audiobook.WithStore(cst))
	}

	speaker := &tts.EdgeSpeaker{Logger: logger}
	svc := audiobook.New(speaker, cfg, logger, svcOpts...)

	if o.listVoices {
		for _, v := range svc.Voices(ctx) {
			marker := "  "
			if v.ID == tts.DefaultVoice {
				marker = "* "
			}
			fmt.Printf("%s%-28s %-8s %s\n", marker, v.ID, v.Locale, v.Gender)
		}
		return nil
	}

	if o.input == "" {
		flag.Usage()
		return fmt.Errorf("input document required")
	}

	req := &audiobook.Request{Path: o.input, MaxChunkChars: o.maxChunk}
	if o.voice != "" || o.rate != 0 || o.pitch != 0 {
		vc := svc.DefaultVoice()
		if o.voice != "" {
			vc.Voice = o.voice
		}
		vc.RatePercent = o.rate
		vc.PitchHz = o.pitch
		if err := vc.Validate(); err != nil {
			return err
		}
		req.Voice = &vc
	}

	if o.statsOnly {
		book, err := svc.Inspect(ctx, req)
		if err != nil {
			return err
		}
		printStats(book)
		return nil
	}

	req.Progress = func(stage string, frac float64) {
		fmt.Fprintf(os.Stderr, "\r  %-10s %3.0f%%", stage, frac*100)
	}

	book, err := svc.Convert(ctx, req)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	out := o.output
	if out == "" {
		out = strings.TrimSuffix(o.input, filepath.Ext(o.input)) + ".mp3"
	}
	if err := os.WriteFile(out, book.Audio, 0o644); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	if o.writeText {
		txt := strings.TrimSuffix(out, filepath.Ext(out)) + ".txt"
		if err := os.WriteFile(txt, []byte(book.Text), 0o644); err != nil {
			return fmt.Errorf("write text: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "done: %s\n", out)
	fmt.Fprintf(os.Stderr, "  %d parts, %d engine calls, %d cache hits, %s audio\n",
		book.Parts, book.Calls, book.CacheHits, humanBytes(len(book.Audio)))
	if len(book.Skipped) > 0 {
		fmt.Fprintf(os.Stderr, "  %d fragment(s) skipped:\n", len(book.Skipped))
		for _, sk := range book.Skipped {
			fmt.Fprintf(os.Stderr, "    chunk %d: %s\n", sk.Chunk, sk.Reason)
		}
	}
	return nil
}

func printStats(book *audiobook.Book) {
	st := book.Stats
	fmt.Printf("title:     %s\n", book.Title)
	fmt.Printf("kind:      %s\n", book.Kind)
	fmt.Printf("chars:     %d\n", st.Chars)
	fmt.Printf("words:     %d\n", st.Words)
	fmt.Printf("sentences: %d\n", st.Sentences)
	fmt.Printf("chunks:    %d\n", st.Chunks)
	fmt.Printf("reading:   %d min\n", st.ReadingMinutes)
	fmt.Printf("listening: %d min\n", st.ListeningMinutes)
	if st.SpacingSuspect {
		fmt.Println("warning: extraction produced suspicious word spacing; narration may be garbled")
	}
	if st.Preview != "" {
		fmt.Printf("\n%s\n", st.Preview)
	}
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
