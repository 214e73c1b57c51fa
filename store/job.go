package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Job lifecycle states.
const (
	JobQueued  = "queued"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// Job is one document-to-audiobook conversion.
type Job struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Stage       string  `json:"stage,omitempty"`
	Progress    float64 `json:"progress"`
	Title       string  `json:"title,omitempty"`
	SourceName  string  `json:"source_name"`
	Voice       string  `json:"voice"`
	RatePercent int     `json:"rate_percent"`
	PitchHz     int     `json:"pitch_hz"`
	AudioPath   string  `json:"audio_path,omitempty"`
	TextPath    string  `json:"text_path,omitempty"`
	Error       string  `json:"error,omitempty"`
	Stats       string  `json:"stats,omitempty"`
	Skipped     int     `json:"skipped"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
	FinishedAt  *int64  `json:"finished_at,omitempty"`
}

const jobColumns = `id, status, stage, progress, title, source_name, voice,
       rate_percent, pitch_hz, audio_path, text_path, error, stats, skipped,
       created_at, updated_at, finished_at`

// CreateJob inserts a new job in the queued state.
func (s *Store) CreateJob(ctx context.Context, j *Job) error {
	now := time.Now().UnixMilli()
	if j.CreatedAt == 0 {
		j.CreatedAt = now
	}
	j.UpdatedAt = now
	if j.Status == "" {
		j.Status = JobQueued
	}
	if j.Stats == "" {
		j.Stats = "{}"
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO jobs
			(id, status, stage, progress, title, source_name, voice,
			 rate_percent, pitch_hz, audio_path, text_path, error, stats,
			 skipped, created_at, updated_at, finished_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		j.ID, j.Status, j.Stage, j.Progress, j.Title, j.SourceName, j.Voice,
		j.RatePercent, j.PitchHz, j.AudioPath, j.TextPath, j.Error, j.Stats,
		j.Skipped, j.CreatedAt, j.UpdatedAt, j.FinishedAt,
	)
	return err
}

// GetJob retrieves a job by ID. Returns nil when the job does not exist.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

// UpdateJobProgress moves a job to the running state and records the
// current pipeline stage and completion fraction.
func (s *Store) UpdateJobProgress(ctx context.Context, id, stage string, progress float64) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE jobs SET status = ?, stage = ?, progress = ?, updated_at = ?
		WHERE id = ?`,
		JobRunning, stage, progress, time.Now().UnixMilli(), id)
	return err
}

// SetJobTitle records the document title once extraction has produced one.
func (s *Store) SetJobTitle(ctx context.Context, id, title string) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE jobs SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().UnixMilli(), id)
	return err
}

// FinishJob marks a job done and records its artifacts.
func (s *Store) FinishJob(ctx context.Context, id, audioPath, textPath, stats string, skipped int) error {
	now := time.Now().UnixMilli()
	if stats == "" {
		stats = "{}"
	}
	_, err := s.DB.ExecContext(ctx, `
		UPDATE jobs SET status = ?, stage = '', progress = 1.0,
		       audio_path = ?, text_path = ?, stats = ?, skipped = ?,
		       updated_at = ?, finished_at = ?
		WHERE id = ?`,
		JobDone, audioPath, textPath, stats, skipped, now, now, id)
	return err
}

// FailJob marks a job failed with the given error text.
func (s *Store) FailJob(ctx context.Context, id, errMsg string) error {
	now := time.Now().UnixMilli()
	_, err := s.DB.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = ?, finished_at = ?
		WHERE id = ?`,
		JobFailed, errMsg, now, now, id)
	return err
}

// ListJobs returns the most recent jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	j := &Job{}
	var finishedAt sql.NullInt64
	err := row.Scan(
		&j.ID, &j.Status, &j.Stage, &j.Progress, &j.Title, &j.SourceName,
		&j.Voice, &j.RatePercent, &j.PitchHz, &j.AudioPath, &j.TextPath,
		&j.Error, &j.Stats, &j.Skipped, &j.CreatedAt, &j.UpdatedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		j.FinishedAt = &finishedAt.Int64
	}
	return j, nil
}
