// Package audiobook turns documents into narrated audio. A conversion
// runs the full pipeline: load and extract text, normalize it for
// narration, pack sentences into bounded chunks, synthesize each chunk
// through the speech engine, and concatenate the audio in reading
// order. Fragments that fail past their retries are reported, not
// fatal; the conversion fails only when nothing at all was voiced.
package audiobook

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/lector/chunk"
	"github.com/hazyhaar/lector/clean"
	"github.com/hazyhaar/lector/docload"
	"github.com/hazyhaar/lector/observability"
	"github.com/hazyhaar/lector/sentence"
	"github.com/hazyhaar/lector/store"
	"github.com/hazyhaar/lector/synth"
	"github.com/hazyhaar/lector/tts"
)

// ErrEmptyRequest means the request carried neither a path nor data.
var ErrEmptyRequest = errors.New("audiobook: request has neither path nor data")

// Conversion stages reported through Request.Progress.
const (
	StageLoad       = "load"
	StageClean      = "clean"
	StageChunk      = "chunk"
	StageSynthesize = "synthesize"
)

// Service is the conversion orchestrator.
type Service struct {
	loader  *docload.Loader
	speaker tts.Speaker
	store   *store.Store                  // optional, segment cache + voice catalog
	metrics *observability.MetricsManager // optional
	ocr     docload.OCR                   // optional
	logger  *slog.Logger
	cfg     *Config

	voiceMu  sync.Mutex
	voices   []tts.Voice
	voicesAt time.Time
}

// New creates a conversion service. The speaker may be nil; conversions
// then fail with tts.ErrUnavailable but text-only operations still work.
func New(speaker tts.Speaker, cfg *Config, logger *slog.Logger, opts ...Option) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	svc := &Service{
		speaker: speaker,
		cfg:     cfg,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(svc)
	}

	svc.loader = docload.New(docload.Config{
		MaxFileSize: cfg.MaxFileSize,
		OCR:         svc.ocr,
		Logger:      logger,
	})
	return svc
}

// Option configures a Service during creation.
type Option func(*Service)

// WithStore sets the SQLite store used for segment caching and voice
// catalog memoization.
func WithStore(st *store.Store) Option {
	return func(svc *Service) { svc.store = st }
}

// WithOCR enables OCR rebuild of scanned PDFs.
func WithOCR(ocr docload.OCR) Option {
	return func(svc *Service) { svc.ocr = ocr }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.MetricsManager) Option {
	return func(svc *Service) { svc.metrics = m }
}

// Request describes one conversion. Exactly one of Path or Data should
// be set; Name gives kind detection a filename when Data is used.
type Request struct {
	Path string `json:"path,omitempty"`
	Name string `json:"name,omitempty"`
	Data []byte `json:"-"`

	// Voice overrides the configured default voice when non-nil.
	Voice *tts.VoiceConfig `json:"voice,omitempty"`

	// Clean overrides the configured cleaning passes when non-nil.
	Clean *clean.Options `json:"clean,omitempty"`

	// MaxChunkChars fixes the chunk size for this request. Zero falls
	// back to the service configuration, then to adaptive sizing.
	MaxChunkChars int `json:"max_chunk_chars,omitempty"`

	// Progress, when set, receives stage labels and a completion
	// fraction in [0,1] as the conversion advances.
	Progress func(stage string, frac float64) `json:"-"`
}

// Book is the outcome of one conversion.
type Book struct {
	Title string       `json:"title"`
	Kind  docload.Kind `json:"kind"`
	Voice string       `json:"voice"`

	// Text is the cleaned narration text the audio was read from.
	Text string `json:"-"`

	// Audio is the concatenated narration. Nil for Inspect results.
	Audio []byte `json:"-"`

	Stats     Stats           `json:"stats"`
	Parts     int             `json:"parts"`
	Calls     int             `json:"calls"`
	CacheHits int             `json:"cache_hits"`
	Skipped   []synth.Skipped `json:"skipped,omitempty"`

	// Extraction describes how PDF text was obtained (nil otherwise).
	Extraction *docload.Extraction `json:"extraction,omitempty"`
}

// prepared is the text side of a conversion, shared by Convert and
// Inspect.
type prepared struct {
	doc    *docload.Document
	text   string
	nsents int
	chunks []string
	size   int
}

func (s *Service) prepare(ctx context.Context, req *Request, report func(string, float64)) (*prepared, error) {
	report(StageLoad, 0)

	var (
		doc *docload.Document
		err error
	)
	switch {
	case req.Path != "":
		doc, err = s.loader.Load(ctx, req.Path)
	case len(req.Data) > 0:
		doc, err = s.loader.LoadBytes(ctx, req.Name, req.Data)
	default:
		return nil, ErrEmptyRequest
	}
	if err != nil {
		return nil, err
	}
	if doc.Extraction != nil && s.metrics != nil {
		s.metrics.RecordSimple(observability.MetricExtractionScore, doc.Extraction.Score, "score")
	}

	report(StageClean, 0.10)
	opts := s.cfg.Clean
	if req.Clean != nil {
		opts = *req.Clean
	}
	text := clean.Normalize(doc.Text, opts)

	report(StageChunk, 0.15)
	sentences := sentence.Segment(text)
	size := req.MaxChunkChars
	if size == 0 {
		size = s.cfg.MaxChunkChars
	}
	if size == 0 {
		size = chunk.Suggest(sentences)
	} else if size < chunk.MinSize {
		size = chunk.MinSize
	} else if size > chunk.MaxSize {
		size = chunk.MaxSize
	}
	chunks := chunk.Split(text, size)

	// Merging under-filled neighbours cuts the call count. The cap
	// keeps merged chunks well under the engine's per-call ceiling.
	hardCap := size + size/2
	if hardCap > s.cfg.PartLimit {
		hardCap = s.cfg.PartLimit
	}
	chunks = chunk.Coalesce(chunks, size, hardCap)

	s.logger.Info("document prepared",
		"title", doc.Title, "kind", doc.Kind,
		"chars", len(text), "sentences", len(sentences),
		"chunks", len(chunks), "chunk_size", size)

	return &prepared{
		doc:    doc,
		text:   text,
		nsents: len(sentences),
		chunks: chunks,
		size:   size,
	}, nil
}

// Convert runs the full document-to-audio pipeline.
func (s *Service) Convert(ctx context.Context, req *Request) (*Book, error) {
	start := time.Now()

	vc := s.cfg.Voice
	if req.Voice != nil {
		vc = *req.Voice
	}
	if err := vc.Validate(); err != nil {
		return nil, err
	}

	report := func(stage string, frac float64) {
		if req.Progress != nil {
			req.Progress(stage, frac)
		}
	}

	prep, err := s.prepare(ctx, req, report)
	if err != nil {
		return nil, err
	}

	report(StageSynthesize, 0.20)
	orch := synth.New(synth.Config{
		Speaker:       s.speaker,
		Cache:         s.segmentCache(),
		PartLimit:     s.cfg.PartLimit,
		MinAudioBytes: s.cfg.MinAudioBytes,
		Retry:         s.cfg.Retry,
		Logger:        s.logger,
		Progress: func(done, total int) {
			report(StageSynthesize, 0.20+0.80*float64(done)/float64(total))
		},
	})
	res, err := orch.Synthesize(ctx, prep.chunks, vc)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordSimple(observability.MetricConversionDurationMs, float64(elapsed.Milliseconds()), "milliseconds")
		s.metrics.RecordSimple(observability.MetricDocumentsConverted, 1, "count")
		s.metrics.RecordSimple(observability.MetricSynthesisCalls, float64(res.Calls), "count")
		s.metrics.RecordSimple(observability.MetricCacheHits, float64(res.CacheHits), "count")
		if len(res.Skipped) > 0 {
			s.metrics.RecordSimple(observability.MetricSkippedFragments, float64(len(res.Skipped)), "count")
		}
	}
	s.logger.Info("conversion finished",
		"title", prep.doc.Title, "voice", vc.VoiceID(),
		"parts", res.Parts, "calls", res.Calls, "cache_hits", res.CacheHits,
		"skipped", len(res.Skipped), "audio_bytes", len(res.Audio),
		"elapsed_ms", elapsed.Milliseconds())

	book := s.book(prep, res)
	book.Voice = vc.VoiceID()
	return book, nil
}

// Inspect loads and cleans a document without synthesizing. The
// returned Book carries text and statistics but no audio.
func (s *Service) Inspect(ctx context.Context, req *Request) (*Book, error) {
	report := func(stage string, frac float64) {
		if req.Progress != nil {
			req.Progress(stage, frac)
		}
	}
	prep, err := s.prepare(ctx, req, report)
	if err != nil {
		return nil, err
	}
	return s.book(prep, nil), nil
}

func (s *Service) book(prep *prepared, res *synth.Result) *Book {
	b := &Book{
		Title:      prep.doc.Title,
		Kind:       prep.doc.Kind,
		Text:       prep.text,
		Stats:      ComputeStats(prep.text, prep.nsents, len(prep.chunks)),
		Extraction: prep.doc.Extraction,
	}
	if res != nil {
		b.Audio = res.Audio
		b.Parts = res.Parts
		b.Calls = res.Calls
		b.CacheHits = res.CacheHits
		b.Skipped = res.Skipped
	}
	return b
}

// DefaultVoice returns the voice used when a request does not name one.
func (s *Service) DefaultVoice() tts.VoiceConfig {
	return s.cfg.Voice
}

// DefaultClean returns the cleanup passes applied when a request does not
// override them.
func (s *Service) DefaultClean() clean.Options {
	return s.cfg.Clean
}

// segmentCache adapts the store to the synthesis cache contract. Nil
// when the service runs storeless.
func (s *Service) segmentCache() synth.Cache {
	if s.store == nil {
		return nil
	}
	return &storeCache{st: s.store}
}
