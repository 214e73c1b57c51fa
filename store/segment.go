package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Segment is one cached piece of synthesized audio.
type Segment struct {
	Key       string `json:"key"`
	Voice     string `json:"voice"`
	Chars     int    `json:"chars"`
	Size      int    `json:"size"`
	Audio     []byte `json:"-"`
	CreatedAt int64  `json:"created_at"`
}

// PutSegment stores synthesized audio under its content key. Returns
// false if the key already exists; existing bytes are never replaced.
func (s *Store) PutSegment(ctx context.Context, seg *Segment) (bool, error) {
	if seg.CreatedAt == 0 {
		seg.CreatedAt = time.Now().UnixMilli()
	}
	seg.Size = len(seg.Audio)

	res, err := s.DB.ExecContext(ctx, `
		INSERT OR IGNORE INTO segments (key, voice, chars, size, audio, created_at)
		VALUES (?,?,?,?,?,?)`,
		seg.Key, seg.Voice, seg.Chars, seg.Size, seg.Audio, seg.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetSegment returns the cached audio for key. The second return is
// false when the key is not present.
func (s *Store) GetSegment(ctx context.Context, key string) ([]byte, bool, error) {
	var audio []byte
	err := s.DB.QueryRowContext(ctx,
		`SELECT audio FROM segments WHERE key = ?`, key).Scan(&audio)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return audio, true, nil
}

// SegmentStats reports how many segments are cached and their total size.
func (s *Store) SegmentStats(ctx context.Context) (count int64, bytes int64, err error) {
	err = s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(size), 0) FROM segments`).Scan(&count, &bytes)
	return count, bytes, err
}

// PruneSegments removes cached segments created before the cutoff.
// Returns the number of rows removed.
func (s *Store) PruneSegments(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM segments WHERE created_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
