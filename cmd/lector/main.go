// Command lector serves the document-to-audiobook API. Uploaded documents
// become background conversion jobs; clients poll job status and fetch the
// MP3 and cleaned-text artifacts once done. With MCP_TRANSPORT=stdio the
// binary serves the MCP tool surface instead of HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/lector/audiobook"
	"github.com/hazyhaar/lector/dbopen"
	"github.com/hazyhaar/lector/docload"
	"github.com/hazyhaar/lector/jobs"
	"github.com/hazyhaar/lector/observability"
	"github.com/hazyhaar/lector/shield"
	"github.com/hazyhaar/lector/store"
	"github.com/hazyhaar/lector/trace"
	"github.com/hazyhaar/lector/tts"
)

func main() {
	port := env("PORT", "8080")
	dataDir := env("DATA_DIR", "data")
	outputDir := env("OUTPUT_DIR", filepath.Join(dataDir, "audiobooks"))
	configPath := env("LECTOR_CONFIG", "")
	mcpTransport := env("MCP_TRANSPORT", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logDst := io.Writer(os.Stdout)
	if mcpTransport == "stdio" {
		// The stdio transport owns stdout; logs go to stderr.
		logDst = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logDst, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Config: YAML file over defaults, then env overrides.
	cfg := audiobook.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = audiobook.LoadConfigFile(configPath)
		if err != nil {
			slog.Error("load config", "path", configPath, "error", err)
			os.Exit(1)
		}
	}
	if v := os.Getenv("LECTOR_VOICE"); v != "" {
		cfg.Voice.Voice = v
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// SQL trace store. Opened with the raw driver so its own writes are
	// not traced.
	traceDB, err := dbopen.Open(filepath.Join(dataDir, "traces.db"), dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("trace db", "error", err)
		os.Exit(1)
	}
	defer traceDB.Close()
	traceStore := trace.NewStore(traceDB)
	if err := traceStore.Init(); err != nil {
		slog.Error("trace init", "error", err)
		os.Exit(1)
	}
	trace.SetStore(traceStore)
	defer traceStore.Close()

	// Job and cache DB, opened through the tracing driver.
	st, err := store.Open(filepath.Join(dataDir, "lector.db"), dbopen.WithTrace())
	if err != nil {
		slog.Error("open db", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	db := st.DB

	// Observability: async metrics plus a liveness heartbeat, same DB.
	if err := observability.Init(db); err != nil {
		slog.Error("observability init", "error", err)
		os.Exit(1)
	}
	metrics := observability.NewMetricsManager(db, 256, 10*time.Second)
	defer metrics.Close()
	hb := observability.NewHeartbeatWriter(db, "lector", 30*time.Second)
	hb.Start(ctx)
	defer hb.Stop()

	// Speech engine and optional OCR. Both are looked up on PATH per call,
	// so a late install is picked up without a restart.
	speaker := &tts.EdgeSpeaker{Logger: logger}
	if !speaker.Available() {
		slog.Warn("speech engine not found, conversions will fail until installed", "binary", "edge-tts")
	}
	ocr := &docload.CommandOCR{Logger: logger}
	if !ocr.Available() {
		slog.Warn("ocr engine not found, scanned PDFs stay unreadable", "binary", "ocrmypdf")
	}

	svc := audiobook.New(speaker, cfg, logger,
		audiobook.WithStore(st),
		audiobook.WithOCR(ocr),
		audiobook.WithMetrics(metrics),
	)

	// MCP over stdio serves local tool clients instead of the HTTP API.
	if mcpTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "lector",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		slog.Info("MCP stdio serving")
		if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			slog.Error("MCP stdio", "error", err)
			os.Exit(1)
		}
		return
	}

	// Job manager.
	mgr := jobs.New(svc, st, jobs.Config{
		OutputDir: outputDir,
		MaxActive: envInt("MAX_ACTIVE_JOBS", 2),
		Timeout:   time.Duration(envInt("JOB_TIMEOUT_MIN", 120)) * time.Minute,
	}, logger)

	// Router. The body cap covers the largest accepted document plus
	// multipart overhead.
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(cfg.MaxFileSize + (1 << 20)) {
		r.Use(mw)
	}
	rl := shield.NewRateLimiter(envInt("SUBMIT_RATE_LIMIT", 10), time.Minute)
	rl.StartGC(ctx.Done())

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.With(rl.Middleware).Post("/api/audiobooks", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writeError(w, 413, fmt.Errorf("document exceeds %d bytes", cfg.MaxFileSize))
				return
			}
			writeError(w, 400, err)
			return
		}
		file, header, err := r.FormFile("document")
		if err != nil {
			writeError(w, 400, fmt.Errorf("multipart field \"document\" is required"))
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, 500, err)
			return
		}

		req := &audiobook.Request{Name: header.Filename, Data: data}
		if hasForm(r, "voice", "rate_percent", "pitch_hz") {
			vc := svc.DefaultVoice()
			if v := r.FormValue("voice"); v != "" {
				vc.Voice = v
			}
			vc.RatePercent = formInt(r, "rate_percent", vc.RatePercent)
			vc.PitchHz = formInt(r, "pitch_hz", vc.PitchHz)
			if err := vc.Validate(); err != nil {
				writeError(w, 400, err)
				return
			}
			req.Voice = &vc
		}
		if hasForm(r, "strip_headers", "strip_footnotes") {
			opts := svc.DefaultClean()
			opts.StripHeaders = formBool(r, "strip_headers", opts.StripHeaders)
			opts.StripFootnotes = formBool(r, "strip_footnotes", opts.StripFootnotes)
			req.Clean = &opts
		}
		req.MaxChunkChars = formInt(r, "max_chunk_chars", 0)

		job, err := mgr.Submit(r.Context(), req)
		if err != nil {
			if errors.Is(err, audiobook.ErrEmptyRequest) {
				writeError(w, 400, err)
				return
			}
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 202, job)
	})

	r.Get("/api/audiobooks", func(w http.ResponseWriter, r *http.Request) {
		list, err := mgr.List(r.Context(), queryInt(r, "limit", 50))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if list == nil {
			list = []*store.Job{}
		}
		writeJSON(w, 200, list)
	})

	r.Get("/api/audiobooks/{id}", func(w http.ResponseWriter, r *http.Request) {
		job, skips, err := mgr.Job(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if job == nil {
			writeError(w, 404, fmt.Errorf("job not found"))
			return
		}
		writeJSON(w, 200, struct {
			*store.Job
			SkippedFragments []*store.Skip `json:"skipped_fragments,omitempty"`
		}{job, skips})
	})

	r.Get("/api/audiobooks/{id}/audio", func(w http.ResponseWriter, r *http.Request) {
		job, _, err := mgr.Job(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if job == nil {
			writeError(w, 404, fmt.Errorf("job not found"))
			return
		}
		if job.Status != store.JobDone || job.AudioPath == "" {
			writeError(w, 409, fmt.Errorf("job status is %s", job.Status))
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifactName(job, ".mp3")))
		http.ServeFile(w, r, job.AudioPath)
	})

	r.Get("/api/audiobooks/{id}/text", func(w http.ResponseWriter, r *http.Request) {
		job, _, err := mgr.Job(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if job == nil {
			writeError(w, 404, fmt.Errorf("job not found"))
			return
		}
		if job.Status != store.JobDone || job.TextPath == "" {
			writeError(w, 404, fmt.Errorf("no text artifact"))
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		http.ServeFile(w, r, job.TextPath)
	})

	r.Get("/api/voices", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{
			"voices":  svc.Voices(r.Context()),
			"default": svc.DefaultVoice().Voice,
		})
	})

	// HTTP server. Artifact downloads can run long, hence the generous
	// write timeout.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	mgr.Close()
	slog.Info("server stopped")
}

// --- Helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func formInt(r *http.Request, key string, def int) int {
	s := r.FormValue(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func formBool(r *http.Request, key string, def bool) bool {
	s := r.FormValue(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}

// hasForm reports whether any of the named multipart fields was sent.
// FormValue cannot tell an absent field from an empty one.
func hasForm(r *http.Request, keys ...string) bool {
	if r.MultipartForm == nil {
		return false
	}
	for _, k := range keys {
		if _, ok := r.MultipartForm.Value[k]; ok {
			return true
		}
	}
	return false
}

func artifactName(job *store.Job, ext string) string {
	base := strings.TrimSuffix(job.SourceName, filepath.Ext(job.SourceName))
	if base == "" {
		base = job.ID
	}
	return base + ext
}
