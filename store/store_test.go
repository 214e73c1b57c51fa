package store

import (
	"bytes"
	"context"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/lector/dbopen"
	"github.com/hazyhaar/lector/tts"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t)
	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return &Store{DB: db}
}

// The segment cache is write-once: a second Put under the same key must
// not replace the stored bytes, so a re-run of the same conversion only
// ever reads what the first run produced.
func TestSegmentWriteOnce(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := &Segment{Key: "abc123", Voice: "en-US-AndrewNeural", Chars: 42, Audio: []byte("mp3-bytes-one")}
	stored, err := s.PutSegment(ctx, first)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !stored {
		t.Fatal("first put reported not stored")
	}

	second := &Segment{Key: "abc123", Voice: "en-US-AndrewNeural", Chars: 42, Audio: []byte("different-bytes")}
	stored, err = s.PutSegment(ctx, second)
	if err != nil {
		t.Fatalf("second put: %v", err)
	}
	if stored {
		t.Error("second put under same key reported stored")
	}

	audio, ok, err := s.GetSegment(ctx, "abc123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("get: not found")
	}
	if !bytes.Equal(audio, []byte("mp3-bytes-one")) {
		t.Errorf("audio = %q, want first write preserved", audio)
	}
}

func TestSegmentMiss(t *testing.T) {
	s := testStore(t)
	_, ok, err := s.GetSegment(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Error("missing key reported found")
	}
}

func TestSegmentStatsAndPrune(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	old := &Segment{Key: "old", Voice: "v", Chars: 3, Audio: []byte("aaa"), CreatedAt: time.Now().Add(-48 * time.Hour).UnixMilli()}
	cur := &Segment{Key: "cur", Voice: "v", Chars: 5, Audio: []byte("bbbbb")}
	if _, err := s.PutSegment(ctx, old); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PutSegment(ctx, cur); err != nil {
		t.Fatal(err)
	}

	count, size, err := s.SegmentStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 2 || size != 8 {
		t.Errorf("stats = (%d, %d), want (2, 8)", count, size)
	}

	pruned, err := s.PruneSegments(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
	if _, ok, _ := s.GetSegment(ctx, "cur"); !ok {
		t.Error("recent segment pruned")
	}
}

func TestJobLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	j := &Job{
		ID:         "job-1",
		SourceName: "book.pdf",
		Voice:      "en-US-AndrewNeural",
	}
	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("get: got nil")
	}
	if got.Status != JobQueued {
		t.Errorf("Status: got %q, want %q", got.Status, JobQueued)
	}
	if got.Progress != 0 {
		t.Errorf("Progress: got %v, want 0", got.Progress)
	}

	if err := s.UpdateJobProgress(ctx, "job-1", "synthesize", 0.5); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if err := s.SetJobTitle(ctx, "job-1", "A Study in Scarlet"); err != nil {
		t.Fatalf("title: %v", err)
	}
	got, _ = s.GetJob(ctx, "job-1")
	if got.Status != JobRunning || got.Stage != "synthesize" || got.Progress != 0.5 {
		t.Errorf("after progress: %+v", got)
	}
	if got.Title != "A Study in Scarlet" {
		t.Errorf("Title: got %q", got.Title)
	}

	if err := s.FinishJob(ctx, "job-1", "/out/a.mp3", "/out/a.txt", `{"chunks":4}`, 1); err != nil {
		t.Fatalf("finish: %v", err)
	}
	got, _ = s.GetJob(ctx, "job-1")
	if got.Status != JobDone {
		t.Errorf("Status: got %q, want %q", got.Status, JobDone)
	}
	if got.Progress != 1.0 {
		t.Errorf("Progress: got %v, want 1", got.Progress)
	}
	if got.AudioPath != "/out/a.mp3" || got.TextPath != "/out/a.txt" {
		t.Errorf("artifacts: %q %q", got.AudioPath, got.TextPath)
	}
	if got.Skipped != 1 {
		t.Errorf("Skipped: got %d, want 1", got.Skipped)
	}
	if got.FinishedAt == nil {
		t.Error("FinishedAt not set")
	}
}

func TestJobFailure(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateJob(ctx, &Job{ID: "job-2", SourceName: "bad.pdf"}); err != nil {
		t.Fatal(err)
	}
	if err := s.FailJob(ctx, "job-2", "no extractable text"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	got, _ := s.GetJob(ctx, "job-2")
	if got.Status != JobFailed {
		t.Errorf("Status: got %q, want %q", got.Status, JobFailed)
	}
	if got.Error != "no extractable text" {
		t.Errorf("Error: got %q", got.Error)
	}
}

func TestGetJobMissing(t *testing.T) {
	s := testStore(t)
	got, err := s.GetJob(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestListJobsNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	older := &Job{ID: "a", SourceName: "a.txt", CreatedAt: time.Now().Add(-time.Hour).UnixMilli()}
	newer := &Job{ID: "b", SourceName: "b.txt"}
	if err := s.CreateJob(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateJob(ctx, newer); err != nil {
		t.Fatal(err)
	}

	jobs, err := s.ListJobs(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	if jobs[0].ID != "b" || jobs[1].ID != "a" {
		t.Errorf("order = [%s %s], want [b a]", jobs[0].ID, jobs[1].ID)
	}
}

func TestSkipsRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateJob(ctx, &Job{ID: "job-3", SourceName: "c.txt"}); err != nil {
		t.Fatal(err)
	}
	skips := []*Skip{
		{JobID: "job-3", Index: 7, Reason: "synthesis failed after retries", Excerpt: "Chapter the seventh"},
		{JobID: "job-3", Index: 2, Reason: "audio too small", Excerpt: "???"},
	}
	if err := s.InsertSkips(ctx, skips); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.ListSkips(ctx, "job-3")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d skips, want 2", len(got))
	}
	// Document order regardless of insert order.
	if got[0].Index != 2 || got[1].Index != 7 {
		t.Errorf("order = [%d %d], want [2 7]", got[0].Index, got[1].Index)
	}
	if got[1].Reason != "synthesis failed after retries" {
		t.Errorf("Reason: got %q", got[1].Reason)
	}
}

func TestSkipsEmptyInsert(t *testing.T) {
	s := testStore(t)
	if err := s.InsertSkips(context.Background(), nil); err != nil {
		t.Fatalf("empty insert: %v", err)
	}
}

// Deleting a job cascades to its skips through the FK.
func TestSkipsCascadeDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateJob(ctx, &Job{ID: "job-4", SourceName: "d.txt"}); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertSkips(ctx, []*Skip{{JobID: "job-4", Index: 0, Reason: "x"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM jobs WHERE id = 'job-4'`); err != nil {
		t.Fatal(err)
	}
	got, err := s.ListSkips(ctx, "job-4")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("skips survived job delete: %d", len(got))
	}
}

func TestVoiceCatalogCache(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	voices, fetchedAt, err := s.LoadVoices(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(voices) != 0 || !fetchedAt.IsZero() {
		t.Errorf("empty cache = (%d voices, %v)", len(voices), fetchedAt)
	}

	if err := s.SaveVoices(ctx, tts.FallbackVoices); err != nil {
		t.Fatalf("save: %v", err)
	}
	voices, fetchedAt, err = s.LoadVoices(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(voices) != len(tts.FallbackVoices) {
		t.Errorf("got %d voices, want %d", len(voices), len(tts.FallbackVoices))
	}
	if fetchedAt.IsZero() {
		t.Error("fetchedAt is zero after save")
	}

	// A refresh replaces the catalog rather than accumulating.
	if err := s.SaveVoices(ctx, []tts.Voice{{ID: "en-US-AriaNeural", Locale: "en-US", Gender: "Female"}}); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	voices, _, _ = s.LoadVoices(ctx)
	if len(voices) != 1 {
		t.Errorf("after refresh: %d voices, want 1", len(voices))
	}
}
