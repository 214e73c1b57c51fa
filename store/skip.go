package store

import (
	"context"
	"time"
)

// Skip records one fragment that could not be synthesized during a job.
type Skip struct {
	JobID     string `json:"job_id"`
	Index     int    `json:"index"`
	Reason    string `json:"reason"`
	Excerpt   string `json:"excerpt,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// InsertSkips records the skipped fragments of one job in a single
// transaction. A no-op for an empty slice.
func (s *Store) InsertSkips(ctx context.Context, skips []*Skip) error {
	if len(skips) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	for _, sk := range skips {
		if sk.CreatedAt == 0 {
			sk.CreatedAt = now
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO skips (job_id, idx, reason, excerpt, created_at)
			VALUES (?,?,?,?,?)`,
			sk.JobID, sk.Index, sk.Reason, sk.Excerpt, sk.CreatedAt,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ListSkips returns the skipped fragments of a job in document order.
func (s *Store) ListSkips(ctx context.Context, jobID string) ([]*Skip, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT job_id, idx, reason, excerpt, created_at
		FROM skips WHERE job_id = ? ORDER BY idx`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skips []*Skip
	for rows.Next() {
		sk := &Skip{}
		if err := rows.Scan(&sk.JobID, &sk.Index, &sk.Reason, &sk.Excerpt, &sk.CreatedAt); err != nil {
			return nil, err
		}
		skips = append(skips, sk)
	}
	return skips, rows.Err()
}
