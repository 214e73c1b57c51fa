package store

import (
	"context"
	"time"

	"github.com/hazyhaar/lector/tts"
)

// SaveVoices replaces the cached voice catalog with a fresh listing.
func (s *Store) SaveVoices(ctx context.Context, voices []tts.Voice) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM voices`); err != nil {
		tx.Rollback()
		return err
	}
	now := time.Now().UnixMilli()
	for _, v := range voices {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO voices (id, locale, gender, fetched_at)
			VALUES (?,?,?,?)`,
			v.ID, v.Locale, v.Gender, now,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadVoices returns the cached voice catalog and when it was fetched.
// An empty cache returns a nil slice and a zero time.
func (s *Store) LoadVoices(ctx context.Context) ([]tts.Voice, time.Time, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, locale, gender, fetched_at FROM voices ORDER BY id`)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	var voices []tts.Voice
	var fetchedAt int64
	for rows.Next() {
		var v tts.Voice
		var at int64
		if err := rows.Scan(&v.ID, &v.Locale, &v.Gender, &at); err != nil {
			return nil, time.Time{}, err
		}
		if at > fetchedAt {
			fetchedAt = at
		}
		voices = append(voices, v)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}
	if fetchedAt == 0 {
		return voices, time.Time{}, nil
	}
	return voices, time.UnixMilli(fetchedAt), nil
}
