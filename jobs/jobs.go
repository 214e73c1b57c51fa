// Package jobs runs document conversions in the background and tracks
// their lifecycle in the store. Submit returns immediately with a
// queued job row; a worker goroutine runs the conversion against a
// detached context, so the job survives the request that submitted it.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hazyhaar/lector/audiobook"
	"github.com/hazyhaar/lector/idgen"
	"github.com/hazyhaar/lector/store"
)

// progressInterval throttles per-fragment progress writes. Stage
// changes always land.
const progressInterval = 500 * time.Millisecond

// excerptLen bounds the skip excerpt stored for operator review.
const excerptLen = 160

// Config controls the background runner.
type Config struct {
	// OutputDir receives the artifacts, an .mp3/.txt pair per job.
	OutputDir string `yaml:"output_dir"`

	// MaxActive bounds concurrent conversions; extra jobs wait queued.
	MaxActive int `yaml:"max_active"`

	// Timeout is the per-conversion ceiling.
	Timeout time.Duration `yaml:"timeout"`
}

func (c *Config) defaults() {
	if c.OutputDir == "" {
		c.OutputDir = "audiobooks"
	}
	if c.MaxActive <= 0 {
		c.MaxActive = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Hour
	}
}

// Manager owns the background conversion workers.
type Manager struct {
	svc    *audiobook.Service
	store  *store.Store
	cfg    Config
	logger *slog.Logger
	newID  func() string

	base   context.Context
	cancel context.CancelFunc
	sem    chan struct{}
	wg     sync.WaitGroup
}

// New creates a Manager. The service and the store are both required.
func New(svc *audiobook.Service, st *store.Store, cfg Config, logger *slog.Logger) *Manager {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Manager{
		svc:    svc,
		store:  st,
		cfg:    cfg,
		logger: logger,
		newID:  idgen.New,
		base:   base,
		cancel: cancel,
		sem:    make(chan struct{}, cfg.MaxActive),
	}
}

// Submit validates the request, records a queued job and starts the
// conversion in the background. The Manager takes ownership of the
// request; its Progress callback is replaced with the store writer.
func (m *Manager) Submit(ctx context.Context, req *audiobook.Request) (*store.Job, error) {
	if req.Path == "" && len(req.Data) == 0 {
		return nil, audiobook.ErrEmptyRequest
	}
	vc := m.svc.DefaultVoice()
	if req.Voice != nil {
		vc = *req.Voice
	}
	if err := vc.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(m.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	job := &store.Job{
		ID:          m.newID(),
		SourceName:  sourceName(req),
		Voice:       vc.VoiceID(),
		RatePercent: vc.RatePercent,
		PitchHz:     vc.PitchHz,
	}
	if err := m.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	m.wg.Add(1)
	go m.run(job.ID, req)

	m.logger.Info("job submitted", "job", job.ID, "source", job.SourceName, "voice", job.Voice)
	return job, nil
}

// Job returns a job row plus its recorded skips. A missing id returns
// (nil, nil, nil).
func (m *Manager) Job(ctx context.Context, id string) (*store.Job, []*store.Skip, error) {
	j, err := m.store.GetJob(ctx, id)
	if err != nil || j == nil {
		return j, nil, err
	}
	if j.Skipped == 0 {
		return j, nil, nil
	}
	skips, err := m.store.ListSkips(ctx, id)
	if err != nil {
		return j, nil, err
	}
	return j, skips, nil
}

// List returns the most recent jobs, newest first.
func (m *Manager) List(ctx context.Context, limit int) ([]*store.Job, error) {
	return m.store.ListJobs(ctx, limit)
}

// Close stops accepting work, cancels running conversions and waits
// for the workers to wind down. Cancelled jobs are marked failed; a
// resubmission picks their finished segments back up from the cache.
func (m *Manager) Close() error {
	m.cancel()
	m.wg.Wait()
	return nil
}

// jobStats is the JSON stored in the job's stats column.
type jobStats struct {
	audiobook.Stats
	Parts     int `json:"parts"`
	Calls     int `json:"calls"`
	CacheHits int `json:"cache_hits"`
}

func (m *Manager) run(id string, req *audiobook.Request) {
	defer m.wg.Done()

	select {
	case m.sem <- struct{}{}:
	case <-m.base.Done():
		m.fail(id, "shut down before start")
		return
	}
	defer func() { <-m.sem }()

	ctx, cancel := context.WithTimeout(m.base, m.cfg.Timeout)
	defer cancel()

	var (
		lastStage string
		lastWrite time.Time
	)
	req.Progress = func(stage string, frac float64) {
		now := time.Now()
		if stage == lastStage && now.Sub(lastWrite) < progressInterval {
			return
		}
		lastStage, lastWrite = stage, now
		if err := m.store.UpdateJobProgress(ctx, id, stage, frac); err != nil {
			m.logger.Warn("job progress write failed", "job", id, "error", err)
		}
	}

	book, err := m.svc.Convert(ctx, req)
	if err != nil {
		m.logger.Error("conversion failed", "job", id, "error", err)
		m.fail(id, err.Error())
		return
	}

	// Finalization writes use a fresh context: the job context may
	// already be past its deadline.
	fctx := context.Background()

	audioPath := filepath.Join(m.cfg.OutputDir, id+".mp3")
	if err := os.WriteFile(audioPath, book.Audio, 0o644); err != nil {
		m.fail(id, fmt.Sprintf("write audio: %v", err))
		return
	}
	textPath := filepath.Join(m.cfg.OutputDir, id+".txt")
	if err := os.WriteFile(textPath, []byte(book.Text), 0o644); err != nil {
		m.logger.Warn("text artifact write failed", "job", id, "error", err)
		textPath = ""
	}

	if book.Title != "" {
		if err := m.store.SetJobTitle(fctx, id, book.Title); err != nil {
			m.logger.Warn("job title write failed", "job", id, "error", err)
		}
	}
	if len(book.Skipped) > 0 {
		skips := make([]*store.Skip, len(book.Skipped))
		for i, sk := range book.Skipped {
			skips[i] = &store.Skip{
				JobID:   id,
				Index:   i,
				Reason:  sk.Reason,
				Excerpt: excerpt(sk.Text),
			}
		}
		if err := m.store.InsertSkips(fctx, skips); err != nil {
			m.logger.Warn("skip rows write failed", "job", id, "error", err)
		}
	}

	stats, _ := json.Marshal(jobStats{
		Stats:     book.Stats,
		Parts:     book.Parts,
		Calls:     book.Calls,
		CacheHits: book.CacheHits,
	})
	if err := m.store.FinishJob(fctx, id, audioPath, textPath, string(stats), len(book.Skipped)); err != nil {
		m.logger.Error("job finish write failed", "job", id, "error", err)
		return
	}

	m.logger.Info("job finished",
		"job", id, "title", book.Title,
		"audio_bytes", len(book.Audio), "parts", book.Parts,
		"cache_hits", book.CacheHits, "skipped", len(book.Skipped))
}

func (m *Manager) fail(id, msg string) {
	if err := m.store.FailJob(context.Background(), id, msg); err != nil {
		m.logger.Error("job failure write failed", "job", id, "error", err)
	}
}

func sourceName(req *audiobook.Request) string {
	if req.Name != "" {
		return req.Name
	}
	return filepath.Base(req.Path)
}

func excerpt(text string) string {
	if len(text) <= excerptLen {
		return text
	}
	cut := excerptLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
